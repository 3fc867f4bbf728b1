package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"mt5_bridge/internal/models"
	"mt5_bridge/internal/modules/terminal/fake"
	"mt5_bridge/internal/modules/terminal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_ResolveSymbol(t *testing.T) {
	term := fake.New()
	sess, err := newSessions(t, term, nil).Open(context.Background())
	require.NoError(t, err)
	defer sess.Close()

	spec, tick, err := sess.ResolveSymbol(context.Background(), "EURUSD")
	require.NoError(t, err)

	assert.Equal(t, models.SymbolSpec{
		Name:                  "EURUSD",
		Point:                 0.00001,
		Digits:                5,
		MinStopDistancePoints: 50,
		Active:                true,
	}, spec)
	assert.Equal(t, 1.09990, tick.Bid)
	assert.Equal(t, 1.10000, tick.Ask)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), tick.Time)
	assert.Empty(t, term.Selects(), "visible symbol must not be re-selected")
}

func TestSession_ResolveSymbol_SelectsHidden(t *testing.T) {
	term := fake.New()
	term.Symbols["XAUUSD"] = service.SymbolInfo{Name: "XAUUSD", Point: 0.01, Digits: 2, TradeStopsLevel: 0}
	term.Ticks["XAUUSD"] = service.TickInfo{Bid: 2400.10, Ask: 2400.35}

	sess, err := newSessions(t, term, nil).Open(context.Background())
	require.NoError(t, err)
	defer sess.Close()

	spec, _, err := sess.ResolveSymbol(context.Background(), "XAUUSD")
	require.NoError(t, err)
	assert.True(t, spec.Active)
	assert.Equal(t, []string{"XAUUSD"}, term.Selects())
}

func TestSession_ResolveSymbol_Errors(t *testing.T) {
	testTable := []struct {
		name   string
		symbol string
		setup  func(term *fake.Terminal)
		kind   models.SymbolKind
	}{
		{
			name:   "unknown symbol",
			symbol: "NOPE",
			setup:  func(*fake.Terminal) {},
			kind:   models.SymbolNotFound,
		},
		{
			name:   "select rejected",
			symbol: "GBPUSD",
			setup: func(term *fake.Terminal) {
				term.Symbols["GBPUSD"] = service.SymbolInfo{Name: "GBPUSD", Point: 0.00001, Digits: 5}
				term.RejectSelect = true
			},
			kind: models.SymbolActivationFailed,
		},
		{
			name:   "no tick",
			symbol: "USDJPY",
			setup: func(term *fake.Terminal) {
				term.Symbols["USDJPY"] = service.SymbolInfo{Name: "USDJPY", Point: 0.001, Digits: 3, Visible: true}
			},
			kind: models.SymbolNoTick,
		},
		{
			name:   "zero prices",
			symbol: "USDCHF",
			setup: func(term *fake.Terminal) {
				term.Symbols["USDCHF"] = service.SymbolInfo{Name: "USDCHF", Point: 0.00001, Digits: 5, Visible: true}
				term.Ticks["USDCHF"] = service.TickInfo{}
			},
			kind: models.SymbolNoTick,
		},
	}

	for _, testCase := range testTable {
		t.Run(testCase.name, func(t *testing.T) {
			term := fake.New()
			testCase.setup(term)
			sess, err := newSessions(t, term, nil).Open(context.Background())
			require.NoError(t, err)
			defer sess.Close()

			_, _, err = sess.ResolveSymbol(context.Background(), testCase.symbol)
			var symErr *models.SymbolError
			require.ErrorAs(t, err, &symErr)
			assert.Equal(t, testCase.kind, symErr.Kind)
			assert.Equal(t, testCase.symbol, symErr.Symbol)
		})
	}
}

func TestSession_ResolveSymbol_TransportError(t *testing.T) {
	term := fake.New()
	term.SymbolErr = errors.New("websocket: close 1006")
	sess, err := newSessions(t, term, nil).Open(context.Background())
	require.NoError(t, err)
	defer sess.Close()

	_, _, err = sess.ResolveSymbol(context.Background(), "EURUSD")
	require.Error(t, err)
	var symErr *models.SymbolError
	assert.False(t, errors.As(err, &symErr))
}

func TestSession_ResolveSymbol_InvalidPoint(t *testing.T) {
	term := fake.New()
	info := term.Symbols["EURUSD"]
	info.Point = 0
	term.Symbols["EURUSD"] = info

	sess, err := newSessions(t, term, nil).Open(context.Background())
	require.NoError(t, err)
	defer sess.Close()

	_, _, err = sess.ResolveSymbol(context.Background(), "EURUSD")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid point")
	var symErr *models.SymbolError
	assert.False(t, errors.As(err, &symErr))
	assert.Empty(t, term.Selects())
}
