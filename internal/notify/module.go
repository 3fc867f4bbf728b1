package notify

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"mt5_bridge/internal/modules/config"
	"mt5_bridge/internal/modules/health/service"
)

const queueSize = 64

// newNotifier выбирает канал, запускает приём команд телеграма и
// отдаёт наружу асинхронную обёртку.
func newNotifier(lc fx.Lifecycle, cfg *config.Config, state *service.State, log *zap.Logger) Notifier {
	base := New(cfg, state, log)

	if tg, ok := base.(*Telegram); ok {
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				// ctx хука живёт только на время старта, поэтому свой
				return tg.Start(context.Background())
			},
			OnStop: func(context.Context) error {
				tg.Stop()
				return nil
			},
		})
	}

	async := NewAsync(base, queueSize, log)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			async.Close()
			return nil
		},
	})
	return async
}

func Module() fx.Option {
	return fx.Module("notify",
		fx.Provide(newNotifier),
	)
}
