package health

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"mt5_bridge/internal/modules/health/service"
	terminal "mt5_bridge/internal/modules/terminal/service"
)

// SessionProbe сообщает, занят ли сейчас терминал.
type SessionProbe interface {
	InUse() bool
}

func RegisterRoutes(r gin.IRouter, state *service.State, probe SessionProbe) {
	r.GET("/livez", func(c *gin.Context) {
		// liveness: процесс жив
		c.String(http.StatusOK, "ok")
	})

	r.GET("/readyz", func(c *gin.Context) {
		// readiness: HTTP сервер уже слушает порт
		if !state.Ready() {
			c.String(http.StatusServiceUnavailable, "not ready")
			return
		}
		c.String(http.StatusOK, "ready")
	})

	r.GET("/healthz", func(c *gin.Context) {
		signals, accepted, rejected := state.Counters()
		c.JSON(http.StatusOK, gin.H{
			"ready":          state.Ready(),
			"sessionOpen":    probe.InUse(),
			"uptimeSec":      int64(state.Uptime().Seconds()),
			"signals":        signals,
			"ordersAccepted": accepted,
			"ordersRejected": rejected,
			"lastError":      state.LastError(),
			"lastOrderUnix": func() int64 {
				t := state.LastOrder()
				if t.IsZero() {
					return 0
				}
				return t.Unix()
			}(),
		})
	})
}

func Module() fx.Option {
	return fx.Module("health",
		fx.Provide(
			service.NewState,
			func(s *terminal.Sessions) SessionProbe {
				return s
			},
		),
		fx.Invoke(func(r *gin.Engine, state *service.State, probe SessionProbe) {
			RegisterRoutes(r, state, probe)
		}),
	)
}
