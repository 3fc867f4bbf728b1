package service

import (
	"context"
	"fmt"
	"time"

	"mt5_bridge/internal/models"

	"go.uber.org/zap"
)

// ResolveSymbol читает параметры символа и свежий тик. Неактивный символ включается в Market Watch.
func (s *Session) ResolveSymbol(ctx context.Context, name string) (models.SymbolSpec, models.Tick, error) {
	log := s.owner.log.With(zap.String("symbol", name))

	callCtx, cancel := s.callCtx(ctx)
	info, err := s.api.SymbolInfo(callCtx, name)
	cancel()
	if err != nil {
		return models.SymbolSpec{}, models.Tick{}, fmt.Errorf("symbol_info %s: %w", name, err)
	}
	if info == nil {
		log.Warn("symbol not found")
		return models.SymbolSpec{}, models.Tick{}, &models.SymbolError{Kind: models.SymbolNotFound, Symbol: name}
	}
	if info.Point <= 0 {
		log.Error("terminal reported non-positive point", zap.Float64("point", info.Point))
		return models.SymbolSpec{}, models.Tick{}, fmt.Errorf("symbol_info %s: invalid point %v", name, info.Point)
	}

	if !info.Visible {
		callCtx, cancel = s.callCtx(ctx)
		ok, err := s.api.SymbolSelect(callCtx, name, true)
		cancel()
		if err != nil {
			return models.SymbolSpec{}, models.Tick{}, fmt.Errorf("symbol_select %s: %w", name, err)
		}
		if !ok {
			log.Warn("symbol select rejected")
			return models.SymbolSpec{}, models.Tick{}, &models.SymbolError{Kind: models.SymbolActivationFailed, Symbol: name}
		}
		log.Info("symbol selected")
	}

	callCtx, cancel = s.callCtx(ctx)
	tick, err := s.api.SymbolInfoTick(callCtx, name)
	cancel()
	if err != nil {
		return models.SymbolSpec{}, models.Tick{}, fmt.Errorf("symbol_info_tick %s: %w", name, err)
	}
	if tick == nil || tick.Bid <= 0 || tick.Ask <= 0 {
		log.Warn("no tick for symbol")
		return models.SymbolSpec{}, models.Tick{}, &models.SymbolError{Kind: models.SymbolNoTick, Symbol: name}
	}

	spec := models.SymbolSpec{
		Name:                  name,
		Point:                 info.Point,
		Digits:                info.Digits,
		MinStopDistancePoints: float64(info.TradeStopsLevel),
		Active:                true,
	}
	t := models.Tick{Bid: tick.Bid, Ask: tick.Ask}
	if tick.Time > 0 {
		t.Time = time.Unix(tick.Time, 0).UTC()
	}

	log.Debug("symbol resolved",
		zap.Float64("point", spec.Point),
		zap.Float64("stops_level", spec.MinStopDistancePoints),
		zap.Float64("bid", t.Bid),
		zap.Float64("ask", t.Ask),
	)
	return spec, t, nil
}
