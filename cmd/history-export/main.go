// Command history-export dumps the order history of a store to a JSON file
// in the same format as the API's export endpoint.
package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kas-cafe/internal/app"
	"github.com/xenking/kas-cafe/internal/domain/order"
	"github.com/xenking/kas-cafe/internal/export"
)

type options struct {
	storage app.StorageConfig
	out     string
	query   string
	gzip    bool
}

func main() {
	var opts options
	flag.StringVar(&opts.storage.Driver, "driver", app.DriverPostgres, "storage driver: redis or postgres")
	flag.StringVar(&opts.storage.DatabaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&opts.storage.Redis.URL, "redis-url", "", "Redis URL (or REDIS_URL env)")
	flag.StringVar(&opts.storage.Redis.Namespace, "namespace", "kas", "Redis key prefix")
	flag.StringVar(&opts.out, "out", ".", "output directory, or - for stdout")
	flag.StringVar(&opts.query, "q", "", "only export orders matching this customer or item")
	flag.BoolVar(&opts.gzip, "gzip", false, "compress the output")
	flag.Parse()

	if opts.storage.DatabaseURL == "" {
		opts.storage.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if opts.storage.Redis.URL == "" {
		opts.storage.Redis.URL = os.Getenv("REDIS_URL")
	}

	lg, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	ctx = zctx.Base(ctx, lg)

	if err := run(ctx, opts); err != nil {
		lg.Error("History export failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	lg := zctx.From(ctx)
	if opts.storage.Driver == app.DriverMemory {
		return errors.New("memory storage has nothing to export")
	}

	store, closeStore, err := app.OpenStorage(ctx, opts.storage)
	if err != nil {
		return errors.Wrap(err, "open storage")
	}
	defer closeStore()

	entries, err := store.LoadHistory(ctx)
	if err != nil {
		return errors.Wrap(err, "load history")
	}
	entries = order.FilterHistory(entries, opts.query)

	if opts.out == "-" {
		return write(os.Stdout, entries, opts.gzip)
	}

	name := export.FileName
	if opts.gzip {
		name += ".gz"
	}
	path := filepath.Join(opts.out, name)
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create output")
	}
	if err := write(f, entries, opts.gzip); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "close output")
	}

	lg.Info("History exported", zap.String("path", path), zap.Int("entries", len(entries)))
	return nil
}

func write(w io.Writer, entries []order.HistoryEntry, compress bool) error {
	if compress {
		return errors.Wrap(export.WriteHistoryGzip(w, entries), "write gzip")
	}
	return errors.Wrap(export.WriteHistory(w, entries), "write json")
}
