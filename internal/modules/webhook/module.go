package webhook

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"mt5_bridge/internal/modules/config"
	healthsvc "mt5_bridge/internal/modules/health/service"
	"mt5_bridge/internal/modules/webhook/service"
	"mt5_bridge/internal/runner"
)

// NewEngine собирает gin с middleware и маршрутом вебхука. Health-роуты добавляет свой модуль.
func NewEngine(cfg *config.Config, h *service.Handler, log *zap.Logger) *gin.Engine {
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	log = log.Named("http")

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(RequestID(), Recovery(log), AccessLog(log))

	r.NoMethod(func(c *gin.Context) {
		resp := service.MethodNotAllowed()
		c.JSON(resp.HTTPCode, resp)
	})

	var limiter *rate.Limiter
	if cfg.Webhook.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Webhook.RateLimit), cfg.Webhook.RateBurst)
	}
	r.POST(cfg.Webhook.Path, RateLimit(limiter), h.Webhook)

	return r
}

func RunHTTP(lc fx.Lifecycle, cfg *config.Config, engine *gin.Engine, state *healthsvc.State, log *zap.Logger) {
	addr := cfg.Addr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			state.SetReady(true)
			log.Info("webhook listening", zap.String("addr", addr), zap.String("path", cfg.Webhook.Path))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			state.SetReady(false)
			return srv.Shutdown(ctx)
		},
	})
}

func Module() fx.Option {
	return fx.Module("webhook",
		fx.Provide(
			func(r *runner.Runner) service.SignalHandler {
				return r
			},
			service.NewHandler,
			NewEngine,
		),
		fx.Invoke(RunHTTP),
	)
}
