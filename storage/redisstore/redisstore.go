// Package redisstore keeps the portal key/value entries in redis so several
// processes (for example a backend-for-frontend fleet) share one session.
package redisstore

import (
	"context"
	"fmt"

	portalerrors "github.com/jrsteele09/go-partner-portal/internal/errors"
	"github.com/jrsteele09/go-partner-portal/storage"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var _ storage.Store = (*Store)(nil)

type Store struct {
	client    redis.UniversalClient
	namespace string
}

// New wraps an existing client. Keys are written as portal:<namespace>:<key>.
func New(client redis.UniversalClient, namespace string) *Store {
	if namespace == "" {
		namespace = "default"
	}
	return &Store{client: client, namespace: namespace}
}

// Open parses a redis:// URL and returns a store backed by a new client.
func Open(ctx context.Context, url, namespace string) (*Store, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "[redisstore.Open] redis url")
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, portalerrors.Wrapf(portalerrors.ErrStoreUnavailable, "[redisstore.Open] ping: %v", err)
	}
	return New(client, namespace), nil
}

func (s *Store) key(k string) string {
	return fmt.Sprintf("portal:%s:%s", s.namespace, k)
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "[redisstore.Get]")
	}
	return v, true, nil
}

// Set writes all entries in one MULTI/EXEC transaction.
func (s *Store) Set(ctx context.Context, entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range entries {
			pipe.Set(ctx, s.key(k), v, 0)
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "[redisstore.Set]")
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, s.key(k))
	}
	if err := s.client.Del(ctx, full...).Err(); err != nil {
		return errors.Wrap(err, "[redisstore.Delete]")
	}
	return nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
