package runner

import (
	"mt5_bridge/internal/models"

	"github.com/shopspring/decimal"
)

// PlanParams — фиксированные параметры ордера из конфига.
type PlanParams struct {
	Volume        float64
	Deviation     int
	SLFloorPoints float64
	TPFloorPoints float64
}

// PlanOrder считает вход, SL и TP для рыночного ордера.
//
// Дистанция стопа и тейка — max(floor, stops level брокера) в пунктах.
// BUY входит по ask, SELL по bid. SL/TP округляются до точности символа
// только в сторону от входа, так что дистанция после округления не меньше расчётной.
func PlanOrder(sig models.Signal, spec models.SymbolSpec, tick models.Tick, p PlanParams) models.OrderPlan {
	digits := spec.PriceDigits()
	point := decimal.NewFromFloat(spec.Point)
	minStop := decimal.NewFromFloat(spec.MinStopDistancePoints)

	slDist := point.Mul(decimal.Max(decimal.NewFromFloat(p.SLFloorPoints), minStop))
	tpDist := point.Mul(decimal.Max(decimal.NewFromFloat(p.TPFloorPoints), minStop))

	var entry, sl, tp decimal.Decimal
	if sig.Side == models.SideSell {
		entry = decimal.NewFromFloat(tick.Bid)
		sl = entry.Add(slDist).RoundCeil(int32(digits))
		tp = entry.Sub(tpDist).RoundFloor(int32(digits))
	} else {
		entry = decimal.NewFromFloat(tick.Ask)
		sl = entry.Sub(slDist).RoundFloor(int32(digits))
		tp = entry.Add(tpDist).RoundCeil(int32(digits))
	}

	return models.OrderPlan{
		Symbol:    sig.Symbol,
		Side:      sig.Side,
		Volume:    p.Volume,
		Entry:     entry.InexactFloat64(),
		SL:        sl.InexactFloat64(),
		TP:        tp.InexactFloat64(),
		Deviation: p.Deviation,
		Digits:    digits,
	}
}
