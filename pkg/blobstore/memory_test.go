package blobstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_StoreAndGet(t *testing.T) {
	store := NewMemoryStore()
	ref, err := store.Store(context.Background(), []byte("<ota:OTA_HotelResNotifRQ/>"))
	require.NoError(t, err)
	assert.Contains(t, ref, "sha256:")

	out, err := store.Get(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, "<ota:OTA_HotelResNotifRQ/>", string(out))
}

func TestMemoryStore_StoreIsContentAddressed(t *testing.T) {
	store := NewMemoryStore()
	ref1, _ := store.Store(context.Background(), []byte("same"))
	ref2, _ := store.Store(context.Background(), []byte("same"))
	assert.Equal(t, ref1, ref2)
}

func TestMemoryStore_GetUnknownRefErrors(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Get(context.Background(), "sha256:deadbeef")
	assert.Error(t, err)
}
