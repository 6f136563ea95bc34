package storage_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/inari/pkg/adapters/memory"
	"github.com/m-mizutani/inari/pkg/domain/interfaces"
	"github.com/m-mizutani/inari/pkg/domain/types/apperr"
	"github.com/m-mizutani/inari/pkg/repository/storage"
)

const snapshot = "definitions:\n  - agent_id: workout:message\n    system_prompt: Format the workout.\n"

func TestClient_Compressed(t *testing.T) {
	ctx := context.Background()
	adapter := memory.New()
	client := storage.New(adapter)

	gt.NoError(t, client.Put(ctx, "snapshots/latest.yaml.gz", []byte(snapshot))).Required()

	raw, err := adapter.Get(ctx, "snapshots/latest.yaml.gz")
	gt.NoError(t, err).Required()
	gt.NotEqual(t, string(raw), snapshot)

	reader, err := gzip.NewReader(bytes.NewReader(raw))
	gt.NoError(t, err).Required()
	plain, err := io.ReadAll(reader)
	gt.NoError(t, err).Required()
	gt.Equal(t, string(plain), snapshot)

	loaded, err := client.Get(ctx, "snapshots/latest.yaml.gz")
	gt.NoError(t, err).Required()
	gt.Equal(t, string(loaded), snapshot)
}

func TestClient_PassThrough(t *testing.T) {
	ctx := context.Background()
	adapter := memory.New()
	client := storage.New(adapter)

	gt.NoError(t, client.Put(ctx, "seed.yaml", []byte(snapshot))).Required()

	raw, err := adapter.Get(ctx, "seed.yaml")
	gt.NoError(t, err).Required()
	gt.Equal(t, string(raw), snapshot)

	loaded, err := client.Get(ctx, "seed.yaml")
	gt.NoError(t, err).Required()
	gt.Equal(t, string(loaded), snapshot)
}

func TestClient_Errors(t *testing.T) {
	ctx := context.Background()
	adapter := memory.New()
	client := storage.New(adapter)

	t.Run("missing key", func(t *testing.T) {
		_, err := client.Get(ctx, "missing.yaml.gz")
		gt.True(t, errors.Is(err, interfaces.ErrStorageKeyNotFound))
	})

	t.Run("corrupt compressed document", func(t *testing.T) {
		gt.NoError(t, adapter.Put(ctx, "broken.yaml.gz", []byte("not gzip"))).Required()
		_, err := client.Get(ctx, "broken.yaml.gz")
		gt.True(t, goerr.HasTag(err, apperr.ErrTagInvalidInput))
	})
}
