package models

import "strings"

// Side как в вебхуке TradingView: "BUY"/"SELL".
type Side string

const (
	SideNone Side = ""
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// ParseSide is case-insensitive and ignores surrounding spaces.
func ParseSide(raw string) (Side, bool) {
	switch Side(strings.ToUpper(strings.TrimSpace(raw))) {
	case SideBuy:
		return SideBuy, true
	case SideSell:
		return SideSell, true
	}
	return SideNone, false
}

func (s Side) String() string { return string(s) }

// Signal is a validated alert. Build it through ingress validation only.
type Signal struct {
	Symbol string
	Side   Side
}
