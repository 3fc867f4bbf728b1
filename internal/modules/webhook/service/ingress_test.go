package service

import (
	"errors"
	"testing"

	"mt5_bridge/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSignal(t *testing.T) {
	testTable := []struct {
		name  string
		body  string
		want  models.Signal
		kind  models.ValidationKind
		field string
	}{
		{name: "buy", body: `{"symbol":"EURUSD","signal":"BUY"}`, want: models.Signal{Symbol: "EURUSD", Side: models.SideBuy}},
		{name: "lowercase sell", body: `{"symbol":"EURUSD","signal":"sell"}`, want: models.Signal{Symbol: "EURUSD", Side: models.SideSell}},
		{name: "padded", body: `{"symbol":" GBPUSD ","signal":" Buy "}`, want: models.Signal{Symbol: "GBPUSD", Side: models.SideBuy}},
		{name: "extra fields ignored", body: `{"symbol":"XAUUSD","signal":"SELL","price":2300.5}`, want: models.Signal{Symbol: "XAUUSD", Side: models.SideSell}},
		{name: "not json", body: `symbol=EURUSD`, kind: models.ValidationMalformed},
		{name: "truncated", body: `{"symbol":"EURUSD"`, kind: models.ValidationMalformed},
		{name: "null body", body: `null`, kind: models.ValidationMalformed},
		{name: "array body", body: ` [{"symbol":"EURUSD","signal":"BUY"}]`, kind: models.ValidationMalformed},
		{name: "null symbol", body: `{"symbol":null,"signal":"BUY"}`, kind: models.ValidationMissing, field: "symbol"},
		{name: "wrong type", body: `{"symbol":42,"signal":"BUY"}`, kind: models.ValidationMalformed},
		{name: "missing symbol", body: `{"signal":"BUY"}`, kind: models.ValidationMissing, field: "symbol"},
		{name: "empty symbol", body: `{"symbol":"  ","signal":"BUY"}`, kind: models.ValidationMissing, field: "symbol"},
		{name: "missing signal", body: `{"symbol":"EURUSD"}`, kind: models.ValidationMissing, field: "signal"},
		{name: "bad direction", body: `{"symbol":"EURUSD","signal":"HOLD"}`, kind: models.ValidationDirection, field: "HOLD"},
	}

	for _, testCase := range testTable {
		t.Run(testCase.name, func(t *testing.T) {
			sig, err := ParseSignal([]byte(testCase.body))
			if testCase.kind == 0 {
				require.NoError(t, err)
				assert.Equal(t, testCase.want, sig)
				return
			}

			var vErr *models.ValidationError
			require.True(t, errors.As(err, &vErr), "got %v", err)
			assert.Equal(t, testCase.kind, vErr.Kind)
			if testCase.field != "" {
				assert.Equal(t, testCase.field, vErr.Field)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	sig, err := Validate("EURUSD", "buy")
	require.NoError(t, err)
	assert.Equal(t, models.SideBuy, sig.Side)

	_, err = Validate("", "")
	var vErr *models.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, models.ValidationMissing, vErr.Kind)
	assert.Equal(t, "symbol", vErr.Field)
}
