package service

import (
	"context"
	"fmt"
	"strings"

	"mt5_bridge/internal/models"
	"mt5_bridge/internal/modules/config"

	"go.uber.org/zap"
)

// NewTradeRequest собирает рыночный запрос order_send из плана.
func NewTradeRequest(plan models.OrderPlan, opts OrderOptions) TradeRequest {
	orderType := OrderTypeBuy
	if plan.Side == models.SideSell {
		orderType = OrderTypeSell
	}

	comment := strings.TrimSpace(fmt.Sprintf("%s %s signal", opts.CommentPrefix, plan.Side))
	if len(comment) > maxCommentLen {
		comment = comment[:maxCommentLen]
	}

	return TradeRequest{
		Action:      TradeActionDeal,
		Magic:       opts.Magic,
		Symbol:      plan.Symbol,
		Volume:      plan.Volume,
		Price:       plan.Entry,
		SL:          plan.SL,
		TP:          plan.TP,
		Deviation:   plan.Deviation,
		Type:        orderType,
		TypeFilling: fillingMode(opts.Filling),
		TypeTime:    OrderTimeGTC,
		Comment:     comment,
	}
}

func fillingMode(policy string) int {
	switch strings.ToUpper(policy) {
	case config.FillingFOK:
		return OrderFillingFOK
	case config.FillingReturn:
		return OrderFillingReturn
	default:
		return OrderFillingIOC
	}
}

// ExecuteOrder отправляет ордер и разбирает ответ. Ретраев нет: цена могла уйти.
func (s *Session) ExecuteOrder(ctx context.Context, plan models.OrderPlan) (models.OrderResult, error) {
	req := NewTradeRequest(plan, s.owner.orders)
	log := s.owner.log.With(
		zap.String("symbol", plan.Symbol),
		zap.String("side", plan.Side.String()),
	)

	callCtx, cancel := s.callCtx(ctx)
	res, err := s.api.OrderSend(callCtx, req)
	cancel()
	if err != nil {
		log.Error("order_send failed", zap.Error(err))
		return models.OrderResult{}, &models.ExecutionError{Kind: models.ExecutionSendFailed, Err: err}
	}
	if res == nil {
		raw := map[string]string{}
		callCtx, cancel = s.callCtx(ctx)
		te, lerr := s.api.LastError(callCtx)
		cancel()
		if lerr == nil {
			raw["last_error_code"] = fmt.Sprint(te.Code)
			raw["last_error_message"] = te.Message
		}
		log.Error("order_send returned nothing", zap.Any("last_error", raw))
		return models.OrderResult{}, &models.ExecutionError{
			Kind:      models.ExecutionSendFailed,
			RawFields: raw,
			Err:       fmt.Errorf("order_send returned no result"),
		}
	}

	if res.Retcode != TradeRetcodeDone {
		log.Error("order rejected",
			zap.Uint32("retcode", res.Retcode),
			zap.String("comment", res.Comment),
			zap.Any("raw", res.Raw),
		)
		return models.OrderResult{}, &models.ExecutionError{
			Kind:      models.ExecutionRejected,
			Retcode:   res.Retcode,
			Comment:   res.Comment,
			RawFields: res.Raw,
		}
	}

	log.Info("order accepted",
		zap.Uint64("deal", res.Deal),
		zap.Uint64("order", res.Order),
		zap.Float64("price", res.Price),
		zap.Float64("volume", res.Volume),
	)
	return models.OrderResult{
		Accepted:  true,
		Retcode:   res.Retcode,
		Deal:      res.Deal,
		Order:     res.Order,
		Volume:    res.Volume,
		Price:     res.Price,
		Comment:   res.Comment,
		RawFields: res.Raw,
	}, nil
}
