package apperr

import "github.com/m-mizutani/goerr/v2"

// Store related errors
var (
	ErrStoreOperationFailed = goerr.New("store operation failed",
		goerr.T(ErrTagStoreIO)).ID("ERR_STORE_OP_FAILED")

	ErrFirestoreOperationFailed = goerr.New("Firestore operation failed",
		goerr.T(ErrTagStoreIO), goerr.T(ErrTagFirestore)).ID("ERR_FIRESTORE_OP_FAILED")

	ErrPostgresOperationFailed = goerr.New("Postgres operation failed",
		goerr.T(ErrTagStoreIO), goerr.T(ErrTagPostgres)).ID("ERR_POSTGRES_OP_FAILED")
)

// Storage adapter errors
var (
	ErrStorageKeyNotFound = goerr.New("storage key not found",
		goerr.T(ErrTagNotFound), goerr.T(ErrTagStorage)).ID("ERR_STORAGE_KEY_NOT_FOUND")

	ErrStorageInvalidKey = goerr.New("invalid storage key",
		goerr.T(ErrTagInvalidInput), goerr.T(ErrTagStorage)).ID("ERR_STORAGE_INVALID_KEY")
)
