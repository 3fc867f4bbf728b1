package models

import "strconv"

// OrderPlan — рассчитанный рыночный ордер со стопом и тейком.
type OrderPlan struct {
	Symbol    string
	Side      Side
	Volume    float64
	Entry     float64
	SL        float64
	TP        float64
	Deviation int // в пунктах

	Digits int // для форматирования цен в ответах
}

// OrderResult — разобранный ответ терминала на order_send.
type OrderResult struct {
	Accepted bool
	Retcode  uint32
	Deal     uint64
	Order    uint64
	Volume   float64
	Price    float64
	Comment  string

	RawFields map[string]string
}

// FormatPrice печатает цену с точностью символа.
func (p OrderPlan) FormatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', p.Digits, 64)
}
