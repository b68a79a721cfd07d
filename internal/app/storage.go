package app

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xenking/kas-cafe/internal/domain/order"
	"github.com/xenking/kas-cafe/internal/storage/kv"
	"github.com/xenking/kas-cafe/internal/storage/postgres"
	redisbackend "github.com/xenking/kas-cafe/internal/storage/redis"
)

// Storage is everything the server persists.
type Storage interface {
	order.Store
	order.PreferenceStore
	Ping(ctx context.Context) error
}

// OpenStorage connects the configured driver. The returned close function
// releases its connections and is safe to call when err != nil.
func OpenStorage(ctx context.Context, cfg StorageConfig) (Storage, func(), error) {
	lg := zctx.From(ctx)
	nop := func() {}

	switch cfg.Driver {
	case DriverMemory, "":
		lg.Warn("Using in-memory storage, orders are lost on restart")
		return kv.NewStore(kv.NewMemory()), nop, nil

	case DriverRedis:
		opts, err := cfg.Redis.Options()
		if err != nil {
			return nil, nop, err
		}
		client := redis.NewClient(opts)
		closeFn := func() {
			if err := client.Close(); err != nil {
				lg.Warn("Close redis client", zap.Error(err))
			}
		}
		if err := client.Ping(ctx).Err(); err != nil {
			closeFn()
			return nil, nop, errors.Wrap(err, "ping redis")
		}
		lg.Info("Using redis storage", zap.String("addr", opts.Addr), zap.String("namespace", cfg.Redis.Namespace))
		return kv.NewStore(redisbackend.New(client, cfg.Redis.Namespace)), closeFn, nil

	case DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nop, errors.Wrap(err, "create db pool")
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nop, errors.Wrap(err, "run migrations")
		}
		lg.Info("Using postgres storage")
		return postgres.NewStore(pool), pool.Close, nil

	default:
		return nil, nop, errors.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
