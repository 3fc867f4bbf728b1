package models

import (
	"math"
	"time"
)

// SymbolSpec — торговые ограничения символа, читаются из терминала на каждый запрос.
type SymbolSpec struct {
	Name string

	Point  float64 // минимальный шаг цены
	Digits int     // точность цены

	MinStopDistancePoints float64 // stops level брокера, в пунктах
	Active                bool    // виден в Market Watch / доступен для торговли
}

// PriceDigits returns Digits, or derives them from Point when the terminal reported none.
func (s SymbolSpec) PriceDigits() int {
	if s.Digits > 0 {
		return s.Digits
	}
	if s.Point <= 0 || s.Point >= 1 {
		return 0
	}
	return int(math.Round(-math.Log10(s.Point)))
}

// Tick — снимок цены, никогда не переиспользуется между ордерами.
type Tick struct {
	Bid  float64
	Ask  float64
	Time time.Time
}
