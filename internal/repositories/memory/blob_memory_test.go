package memory

import (
	"context"
	"testing"

	"github.com/co-intel-labs/labs-1.0/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlobMemory_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewBlobMemory()

	_, err := store.Load(ctx, "labs")
	assert.ErrorIs(t, err, repositories.ErrBlobNotFound)

	payload := []byte(`[{"id":"1"}]`)
	require.NoError(t, store.Save(ctx, "labs", payload))
	payload[0] = 'x'

	got, err := store.Load(ctx, "labs")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"1"}]`, string(got))

	require.NoError(t, store.Delete(ctx, "labs"))
	_, err = store.Load(ctx, "labs")
	assert.ErrorIs(t, err, repositories.ErrBlobNotFound)
}
