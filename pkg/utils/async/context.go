package async

import "context"

type syncModeKey struct{}

// WithSyncMode makes Dispatch run handlers inline on the caller's goroutine
// and context. Tests use it to observe background writes deterministically.
func WithSyncMode(ctx context.Context) context.Context {
	return context.WithValue(ctx, syncModeKey{}, true)
}

func isSyncMode(ctx context.Context) bool {
	v, _ := ctx.Value(syncModeKey{}).(bool)
	return v
}
