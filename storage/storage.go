// Package storage defines the durable key/value surface the portal keeps its
// credential pair and user preferences in.
package storage

import "context"

// Well known keys.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyLocale       = "locale"
)

// Store is a small durable key/value store. Set applies all entries or none of
// them; implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, entries map[string]string) error
	Delete(ctx context.Context, keys ...string) error
}
