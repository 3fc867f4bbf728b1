package service

import (
	"bytes"
	"errors"
	"strings"

	"mt5_bridge/internal/models"

	"github.com/bytedance/sonic"
)

var errNotObject = errors.New("body is not a JSON object")

type payload struct {
	Symbol string `json:"symbol"`
	Signal string `json:"signal"`
}

// ParseSignal разбирает тело вебхука TradingView и валидирует его.
func ParseSignal(body []byte) (models.Signal, error) {
	// null, массив, строка — не объект
	if !bytes.HasPrefix(bytes.TrimSpace(body), []byte("{")) {
		return models.Signal{}, &models.ValidationError{Kind: models.ValidationMalformed, Err: errNotObject}
	}

	var p payload
	if err := sonic.Unmarshal(body, &p); err != nil {
		return models.Signal{}, &models.ValidationError{Kind: models.ValidationMalformed, Err: err}
	}
	return Validate(p.Symbol, p.Signal)
}

// Validate — чистая проверка пары symbol/signal.
func Validate(rawSymbol, rawDirection string) (models.Signal, error) {
	symbol := strings.TrimSpace(rawSymbol)
	if symbol == "" {
		return models.Signal{}, &models.ValidationError{Kind: models.ValidationMissing, Field: "symbol"}
	}
	if strings.TrimSpace(rawDirection) == "" {
		return models.Signal{}, &models.ValidationError{Kind: models.ValidationMissing, Field: "signal"}
	}

	side, ok := models.ParseSide(rawDirection)
	if !ok {
		return models.Signal{}, &models.ValidationError{Kind: models.ValidationDirection, Field: rawDirection}
	}
	return models.Signal{Symbol: symbol, Side: side}, nil
}
