package repositories

import (
	"context"
	"errors"

	"github.com/co-intel-labs/labs-1.0/internal/models"
)

// ErrBlobNotFound is returned by BlobStore.Load when no blob is stored under the key.
var ErrBlobNotFound = errors.New("blob not found")

// BlobStore is durable keyed storage for serialized collections.
// Save fully overwrites the value stored under key.
type BlobStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, payload []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// UserDirectory is an external source of user accounts.
type UserDirectory interface {
	ListUsers(ctx context.Context) ([]models.User, error)
}
