// Package redis implements kv.Backend on Redis.
package redis

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/xenking/kas-cafe/internal/storage/kv"
)

// maxUpdateAttempts bounds optimistic transaction retries in Update.
const maxUpdateAttempts = 50

// ErrConflict is returned when Update keeps losing the race for a key.
var ErrConflict = errors.New("too many concurrent updates")

// Backend stores values as plain Redis strings under a key prefix.
type Backend struct {
	client    redis.UniversalClient
	namespace string
}

var _ kv.Backend = (*Backend)(nil)

// New creates a Backend. Keys are stored as namespace + ":" + key; an empty
// namespace stores keys as-is.
func New(client redis.UniversalClient, namespace string) *Backend {
	return &Backend{client: client, namespace: namespace}
}

func (b *Backend) key(k string) string {
	if b.namespace == "" {
		return k
	}
	return b.namespace + ":" + k
}

func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := b.client.Get(ctx, b.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get %s", key)
	}
	return v, nil
}

func (b *Backend) Set(ctx context.Context, key string, value []byte) error {
	if err := b.client.Set(ctx, b.key(key), value, 0).Err(); err != nil {
		return errors.Wrapf(err, "set %s", key)
	}
	return nil
}

func (b *Backend) Delete(ctx context.Context, key string) error {
	if err := b.client.Del(ctx, b.key(key)).Err(); err != nil {
		return errors.Wrapf(err, "del %s", key)
	}
	return nil
}

// Update runs fn inside a WATCH/MULTI transaction and retries when another
// client modified the key in between.
func (b *Backend) Update(ctx context.Context, key string, fn func(old []byte) ([]byte, error)) error {
	k := b.key(key)
	txf := func(tx *redis.Tx) error {
		old, err := tx.Get(ctx, k).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		next, err := fn(old)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, next, 0)
			return nil
		})
		return err
	}

	for range maxUpdateAttempts {
		err := b.client.Watch(ctx, txf, k)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return errors.Wrapf(err, "update %s", key)
		}
		return nil
	}
	return errors.Wrapf(ErrConflict, "update %s", key)
}

func (b *Backend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}
