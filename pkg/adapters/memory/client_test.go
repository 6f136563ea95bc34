package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/inari/pkg/adapters/memory"
	"github.com/m-mizutani/inari/pkg/domain/interfaces"
	"github.com/m-mizutani/inari/pkg/domain/types/apperr"
)

func TestMemoryClient_PutGet(t *testing.T) {
	ctx := context.Background()
	client := memory.New()

	gt.NoError(t, client.Put(ctx, "seed.yaml", []byte("tools: []"))).Required()

	retrieved, err := client.Get(ctx, "seed.yaml")
	gt.NoError(t, err)
	gt.Equal(t, string(retrieved), "tools: []")
	gt.Equal(t, client.Keys(), []string{"seed.yaml"})
}

func TestMemoryClient_GetNonExistentKey(t *testing.T) {
	ctx := context.Background()
	client := memory.New()

	_, err := client.Get(ctx, "non-existent")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, interfaces.ErrStorageKeyNotFound))
	gt.True(t, goerr.HasTag(err, apperr.ErrTagNotFound))
}

func TestMemoryClient_EmptyKey(t *testing.T) {
	client := memory.New()
	err := client.Put(context.Background(), "", []byte("x"))
	gt.True(t, errors.Is(err, interfaces.ErrStorageInvalidKey))
}

func TestMemoryClient_PutOverwrite(t *testing.T) {
	ctx := context.Background()
	client := memory.New()

	gt.NoError(t, client.Put(ctx, "key", []byte("first data")))
	gt.NoError(t, client.Put(ctx, "key", []byte("second data")))

	retrieved, err := client.Get(ctx, "key")
	gt.NoError(t, err)
	gt.Equal(t, string(retrieved), "second data")
}

func TestMemoryClient_DataIsolation(t *testing.T) {
	ctx := context.Background()
	client := memory.New()

	originalData := []byte("original")
	gt.NoError(t, client.Put(ctx, "key", originalData))
	originalData[0] = 'X'

	retrieved, err := client.Get(ctx, "key")
	gt.NoError(t, err).Required()
	gt.Equal(t, retrieved[0], byte('o'))

	retrieved[0] = 'Y'
	retrieved2, err := client.Get(ctx, "key")
	gt.NoError(t, err).Required()
	gt.Equal(t, retrieved2[0], byte('o'))
}
