package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mt5_bridge/internal/models"
	"mt5_bridge/pkg/logger"
	"mt5_bridge/pkg/tracing"

	"github.com/opentracing/opentracing-go"
	"go.uber.org/zap"
)

// HandleSignal исполняет сигнал. Сессия терминала закрывается на любом пути, в том числе при панике.
// Ошибки возвращаются типизированными (models.*Error), паника превращается в InternalError.
func (r *Runner) HandleSignal(ctx context.Context, sig models.Signal) (rep *Report, err error) {
	log := r.log.With(
		zap.String("request_id", logger.RequestID(ctx)),
		zap.String("symbol", sig.Symbol),
		zap.String("side", sig.Side.String()),
	)
	r.state.TouchSignal()

	span, ctx := tracing.StartSpan(ctx, "handle_signal", opentracing.Tags{
		"symbol": sig.Symbol,
		"side":   sig.Side.String(),
	})
	defer func() { tracing.Finish(span, err) }()
	defer func() { r.report(log, sig, rep, err) }()

	open, openCtx := tracing.StartSpan(ctx, "terminal.open", nil)
	sess, err := r.sessions.Open(openCtx)
	tracing.Finish(open, err)
	if err != nil {
		return nil, err
	}
	defer sess.Close()
	log.Debug("terminal session opened")

	defer func() {
		if p := recover(); p != nil {
			log.Error("panic in order pipeline", zap.Any("panic", p), zap.Stack("stack"))
			rep, err = nil, &models.InternalError{Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	resolve, resolveCtx := tracing.StartSpan(ctx, "symbol.resolve", nil)
	spec, tick, err := sess.ResolveSymbol(resolveCtx, sig.Symbol)
	tracing.Finish(resolve, err)
	if err != nil {
		return nil, err
	}
	log.Debug("symbol resolved", zap.Float64("bid", tick.Bid), zap.Float64("ask", tick.Ask))

	planSpan, _ := tracing.StartSpan(ctx, "order.plan", nil)
	plan := PlanOrder(sig, spec, tick, r.params)
	tracing.Finish(planSpan, nil)
	log.Info("order planned",
		zap.Float64("entry", plan.Entry),
		zap.Float64("sl", plan.SL),
		zap.Float64("tp", plan.TP),
		zap.Float64("volume", plan.Volume),
	)

	exec, execCtx := tracing.StartSpan(ctx, "order.execute", nil)
	res, err := sess.ExecuteOrder(execCtx, plan)
	tracing.Finish(exec, err)
	if err != nil {
		return nil, err
	}

	return &Report{Signal: sig, Spec: spec, Tick: tick, Plan: plan, Result: res}, nil
}

// report обновляет health и шлёт уведомление об итоге сигнала.
func (r *Runner) report(log *zap.Logger, sig models.Signal, rep *Report, err error) {
	if err != nil {
		var execErr *models.ExecutionError
		rejected := errors.As(err, &execErr)
		r.state.Failed(err, rejected)
		log.Warn("signal failed", zap.Error(err))
		r.n.Sendf("❌ %s %s: %v", sig.Side, sig.Symbol, err)
		return
	}

	r.state.OrderAccepted(time.Now())
	p := rep.Plan
	log.Info("signal executed",
		zap.Uint64("order", rep.Result.Order),
		zap.Uint64("deal", rep.Result.Deal),
	)
	r.n.Sendf("✅ %s %s %g @ %s\nSL=%s TP=%s\norder #%d",
		p.Side, p.Symbol, p.Volume,
		p.FormatPrice(p.Entry), p.FormatPrice(p.SL), p.FormatPrice(p.TP),
		rep.Result.Order,
	)
}
