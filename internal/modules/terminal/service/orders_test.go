package service_test

import (
	"context"
	"testing"

	"mt5_bridge/internal/models"
	"mt5_bridge/internal/modules/config"
	"mt5_bridge/internal/modules/terminal/fake"
	"mt5_bridge/internal/modules/terminal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eurusdPlan(side models.Side) models.OrderPlan {
	plan := models.OrderPlan{
		Symbol:    "EURUSD",
		Side:      side,
		Volume:    0.01,
		Entry:     1.10000,
		SL:        1.09600,
		TP:        1.11200,
		Deviation: 20,
		Digits:    5,
	}
	if side == models.SideSell {
		plan.Entry, plan.SL, plan.TP = 1.09990, 1.10390, 1.08790
	}
	return plan
}

func TestNewTradeRequest(t *testing.T) {
	opts := service.OrderOptions{Magic: 234000, Filling: config.FillingIOC, CommentPrefix: "TradingView"}

	req := service.NewTradeRequest(eurusdPlan(models.SideBuy), opts)
	assert.Equal(t, service.TradeRequest{
		Action:      service.TradeActionDeal,
		Magic:       234000,
		Symbol:      "EURUSD",
		Volume:      0.01,
		Price:       1.10000,
		SL:          1.09600,
		TP:          1.11200,
		Deviation:   20,
		Type:        service.OrderTypeBuy,
		TypeFilling: service.OrderFillingIOC,
		TypeTime:    service.OrderTimeGTC,
		Comment:     "TradingView BUY signal",
	}, req)

	opts.Filling = config.FillingFOK
	req = service.NewTradeRequest(eurusdPlan(models.SideSell), opts)
	assert.Equal(t, service.OrderTypeSell, req.Type)
	assert.Equal(t, service.OrderFillingFOK, req.TypeFilling)
	assert.Equal(t, "TradingView SELL signal", req.Comment)

	opts.Filling = config.FillingReturn
	opts.CommentPrefix = "a very long prefix for the order comment"
	req = service.NewTradeRequest(eurusdPlan(models.SideSell), opts)
	assert.Equal(t, service.OrderFillingReturn, req.TypeFilling)
	assert.Len(t, req.Comment, 31)
}

func TestSession_ExecuteOrder_Accepted(t *testing.T) {
	term := fake.New()
	sess, err := newSessions(t, term, nil).Open(context.Background())
	require.NoError(t, err)
	defer sess.Close()

	res, err := sess.ExecuteOrder(context.Background(), eurusdPlan(models.SideBuy))
	require.NoError(t, err)

	assert.True(t, res.Accepted)
	assert.Equal(t, service.TradeRetcodeDone, res.Retcode)
	assert.Equal(t, uint64(1001), res.Deal)
	assert.Equal(t, 1.10000, res.Price)

	reqs := term.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, 1.09600, reqs[0].SL)
	assert.Equal(t, 1.11200, reqs[0].TP)
	assert.Equal(t, int64(234000), reqs[0].Magic)
}

func TestSession_ExecuteOrder_Rejected(t *testing.T) {
	term := fake.New()
	term.Retcode = 10016
	sess, err := newSessions(t, term, nil).Open(context.Background())
	require.NoError(t, err)
	defer sess.Close()

	_, err = sess.ExecuteOrder(context.Background(), eurusdPlan(models.SideSell))
	var execErr *models.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, models.ExecutionRejected, execErr.Kind)
	assert.Equal(t, uint32(10016), execErr.Retcode)
	assert.Equal(t, "Invalid stops", execErr.Comment)
	assert.Equal(t, "10016", execErr.RawFields["retcode"])
	assert.Equal(t, "Invalid stops", execErr.RawFields["comment"])
	assert.Len(t, term.Requests(), 1, "rejected orders are not resubmitted")
}

func TestSession_ExecuteOrder_NoResult(t *testing.T) {
	term := fake.New()
	term.NoResult = true
	sess, err := newSessions(t, term, nil).Open(context.Background())
	require.NoError(t, err)
	defer sess.Close()

	_, err = sess.ExecuteOrder(context.Background(), eurusdPlan(models.SideBuy))
	var execErr *models.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, models.ExecutionSendFailed, execErr.Kind)
	assert.Equal(t, "-2", execErr.RawFields["last_error_code"])
	assert.Equal(t, "Invalid arguments", execErr.RawFields["last_error_message"])
}
