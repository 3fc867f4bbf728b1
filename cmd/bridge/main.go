package main

import (
	"context"
	"log"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"mt5_bridge/internal/modules/config"
	"mt5_bridge/internal/modules/health"
	"mt5_bridge/internal/modules/terminal"
	"mt5_bridge/internal/modules/webhook"
	"mt5_bridge/internal/notify"
	"mt5_bridge/internal/runner"
	"mt5_bridge/pkg/logger"
	"mt5_bridge/pkg/tracing"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	logger.SetServiceName(cfg.Tracing.ServiceName)
	return logger.New(cfg.Log.Level, cfg.Log.Development)
}

// startTracing включает Jaeger, если он разрешён в конфиге.
func startTracing(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) error {
	if !cfg.Tracing.Enabled {
		return nil
	}
	tracing.SetServiceName(cfg.Tracing.ServiceName)
	_, closer, err := tracing.InitTracer(tracing.Config{
		Host: cfg.Tracing.Host,
		Port: cfg.Tracing.Port,
	})
	if err != nil {
		return err
	}
	log.Info("jaeger tracing enabled", zap.String("host", cfg.Tracing.Host), zap.Int("port", cfg.Tracing.Port))

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			closer()
			return nil
		},
	})
	return nil
}

func main() {
	app := fx.New(
		config.Module(),
		fx.Provide(newLogger),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		fx.Invoke(startTracing),

		terminal.Module(),
		notify.Module(),
		runner.Module(),
		webhook.Module(),
		health.Module(),
	)
	if err := app.Err(); err != nil {
		log.Fatal(err)
	}
	app.Run()
}
