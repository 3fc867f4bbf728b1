package service

import (
	"errors"
	"fmt"
	"net/http"

	"mt5_bridge/internal/models"
	"mt5_bridge/internal/runner"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response — тело ответа вебхука.
type Response struct {
	Status   string        `json:"status"`
	Message  string        `json:"message"`
	Order    *OrderSummary `json:"order,omitempty"`
	HTTPCode int           `json:"-"`
}

type OrderSummary struct {
	Symbol     string  `json:"symbol"`
	Direction  string  `json:"direction"`
	Volume     float64 `json:"volume"`
	EntryPrice float64 `json:"entry_price"`
	StopLoss   float64 `json:"stop_loss"`
	TakeProfit float64 `json:"take_profit"`
	Order      uint64  `json:"order"`
	Deal       uint64  `json:"deal"`
	Retcode    uint32  `json:"retcode"`
}

func errorResponse(code int, msg string) Response {
	return Response{Status: StatusError, Message: msg, HTTPCode: code}
}

func MethodNotAllowed() Response {
	return errorResponse(http.StatusMethodNotAllowed, "Invalid request method")
}

func TooManyRequests() Response {
	return errorResponse(http.StatusTooManyRequests, "Too many requests")
}

func Internal() Response {
	return errorResponse(http.StatusInternalServerError, "Internal server error")
}

// Translate превращает итог пайплайна в ответ. Определена для любого (rep, err).
func Translate(rep *runner.Report, err error) Response {
	if err == nil {
		if rep == nil {
			return Internal()
		}
		return success(rep)
	}

	var (
		validationErr *models.ValidationError
		connErr       *models.ConnectionError
		symbolErr     *models.SymbolError
		execErr       *models.ExecutionError
	)
	switch {
	case errors.As(err, &validationErr):
		switch validationErr.Kind {
		case models.ValidationMalformed:
			return errorResponse(http.StatusBadRequest, "Invalid JSON format")
		case models.ValidationDirection:
			return errorResponse(http.StatusBadRequest, "Invalid trade type")
		default:
			return errorResponse(http.StatusBadRequest, "Invalid data")
		}

	case errors.As(err, &connErr):
		switch connErr.Kind {
		case models.ConnectionLogin:
			return errorResponse(http.StatusInternalServerError, "MT5 login failed")
		case models.ConnectionBusy:
			return errorResponse(http.StatusServiceUnavailable, "Terminal busy, retry later")
		default:
			return errorResponse(http.StatusInternalServerError, "MT5 initialization failed")
		}

	case errors.As(err, &symbolErr):
		switch symbolErr.Kind {
		case models.SymbolNotFound:
			return errorResponse(http.StatusBadRequest, fmt.Sprintf("Symbol %s not found", symbolErr.Symbol))
		case models.SymbolActivationFailed:
			return errorResponse(http.StatusInternalServerError, fmt.Sprintf("Failed to select symbol %s", symbolErr.Symbol))
		case models.SymbolNoTick:
			return errorResponse(http.StatusInternalServerError, fmt.Sprintf("No price available for symbol %s", symbolErr.Symbol))
		}

	case errors.As(err, &execErr):
		if execErr.Kind == models.ExecutionRejected {
			return errorResponse(http.StatusInternalServerError, fmt.Sprintf("Order execution failed, retcode=%d", execErr.Retcode))
		}
		return errorResponse(http.StatusInternalServerError, "Order execution failed")
	}

	return Internal()
}

func success(rep *runner.Report) Response {
	p := rep.Plan
	msg := fmt.Sprintf("Order executed: %s %s %g @ %s, SL=%s, TP=%s",
		p.Side, p.Symbol, p.Volume,
		p.FormatPrice(p.Entry), p.FormatPrice(p.SL), p.FormatPrice(p.TP),
	)
	return Response{
		Status:  StatusSuccess,
		Message: msg,
		Order: &OrderSummary{
			Symbol:     p.Symbol,
			Direction:  p.Side.String(),
			Volume:     p.Volume,
			EntryPrice: p.Entry,
			StopLoss:   p.SL,
			TakeProfit: p.TP,
			Order:      rep.Result.Order,
			Deal:       rep.Result.Deal,
			Retcode:    rep.Result.Retcode,
		},
		HTTPCode: http.StatusOK,
	}
}
