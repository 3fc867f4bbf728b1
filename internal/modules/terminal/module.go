package terminal

import (
	"mt5_bridge/internal/modules/terminal/service"

	"go.uber.org/fx"
)

// Module поднимает клиента бриджа MT5 и гард сессий терминала.
func Module() fx.Option {
	return fx.Module("terminal",
		fx.Provide(
			service.NewClient,
			func(c *service.Client) service.Dialer {
				return c
			},
			service.NewSessions,
		),
	)
}
