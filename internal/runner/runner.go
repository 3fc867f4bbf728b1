package runner

import (
	"mt5_bridge/internal/models"
	"mt5_bridge/internal/modules/config"
	healthsvc "mt5_bridge/internal/modules/health/service"
	"mt5_bridge/internal/modules/terminal/service"
	"mt5_bridge/internal/notify"

	"go.uber.org/zap"
)

// Runner проводит один сигнал через терминал: сессия → символ → план → ордер → закрытие.
type Runner struct {
	sessions *service.Sessions
	params   PlanParams
	n        notify.Notifier
	state    *healthsvc.State
	log      *zap.Logger
}

// Report — итог успешно исполненного сигнала.
type Report struct {
	Signal models.Signal
	Spec   models.SymbolSpec
	Tick   models.Tick
	Plan   models.OrderPlan
	Result models.OrderResult
}

func New(
	cfg *config.Config,
	sessions *service.Sessions,
	n notify.Notifier,
	state *healthsvc.State,
	log *zap.Logger,
) *Runner {
	return &Runner{
		sessions: sessions,
		params: PlanParams{
			Volume:        cfg.Order.Volume,
			Deviation:     cfg.Order.Deviation,
			SLFloorPoints: cfg.Order.SLFloorPoints,
			TPFloorPoints: cfg.Order.TPFloorPoints,
		},
		n:     n,
		state: state,
		log:   log.Named("runner"),
	}
}
