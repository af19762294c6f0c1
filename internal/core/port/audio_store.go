package port

import "context"

// AudioStore persists raw audio clips in object storage. Keys are
// namespaced by user so ownership can be recovered from the key alone.
type AudioStore interface {
	Put(ctx context.Context, userID, sampleID string, audio []byte, contentType string) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	UserIDFromKey(key string) (string, error)
}
