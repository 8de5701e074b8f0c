package memory

import (
	"context"
	"sync"

	"github.com/co-intel-labs/labs-1.0/internal/repositories"
)

// BlobMemory keeps blobs in process memory. Contents do not survive a restart.
type BlobMemory struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewBlobMemory() *BlobMemory {
	return &BlobMemory{blobs: make(map[string][]byte)}
}

func (m *BlobMemory) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	payload, ok := m.blobs[key]
	if !ok {
		return nil, repositories.ErrBlobNotFound
	}
	return append([]byte(nil), payload...), nil
}

func (m *BlobMemory) Save(_ context.Context, key string, payload []byte) error {
	m.mu.Lock()
	m.blobs[key] = append([]byte(nil), payload...)
	m.mu.Unlock()
	return nil
}

func (m *BlobMemory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.blobs, key)
	m.mu.Unlock()
	return nil
}

func (m *BlobMemory) Ping(context.Context) error { return nil }

func (m *BlobMemory) Close() error { return nil }

var _ repositories.BlobStore = (*BlobMemory)(nil)
