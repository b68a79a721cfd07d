package main

import (
	"context"

	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	kasapp "github.com/xenking/kas-cafe/internal/app"
)

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
		cfg, err := kasapp.LoadConfig()
		if err != nil {
			return err
		}
		return kasapp.Run(ctx, lg, m, cfg)
	})
}
