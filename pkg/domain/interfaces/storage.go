package interfaces

import (
	"context"

	"github.com/m-mizutani/inari/pkg/domain/types/apperr"
)

var (
	// ErrStorageKeyNotFound is returned by StorageAdapter.Get for a missing key
	ErrStorageKeyNotFound = apperr.ErrStorageKeyNotFound

	// ErrStorageInvalidKey is returned for keys that are empty or escape the
	// storage root
	ErrStorageInvalidKey = apperr.ErrStorageInvalidKey
)

// StorageAdapter stores seed and snapshot documents by key
type StorageAdapter interface {
	// Put stores data with the given key
	Put(ctx context.Context, key string, data []byte) error

	// Get retrieves data by the given key
	Get(ctx context.Context, key string) ([]byte, error)
}
