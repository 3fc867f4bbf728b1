package service

import (
	"context"

	"mt5_bridge/internal/models"
	"mt5_bridge/internal/runner"
	"mt5_bridge/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestIDKey — ключ id запроса в gin.Context.
const RequestIDKey = "request_id"

type SignalHandler interface {
	HandleSignal(ctx context.Context, sig models.Signal) (*runner.Report, error)
}

type Handler struct {
	signals SignalHandler
	log     *zap.Logger
}

func NewHandler(signals SignalHandler, log *zap.Logger) *Handler {
	return &Handler{signals: signals, log: log.Named("webhook")}
}

// Webhook — POST от TradingView.
func (h *Handler) Webhook(c *gin.Context) {
	reqID := c.GetString(RequestIDKey)
	log := h.log.With(zap.String("request_id", reqID))

	body, err := c.GetRawData()
	if err != nil {
		h.respond(c, log, Translate(nil, &models.ValidationError{Kind: models.ValidationMalformed, Err: err}))
		return
	}

	sig, err := ParseSignal(body)
	if err != nil {
		log.Warn("signal rejected", zap.Error(err), zap.ByteString("body", body))
		h.respond(c, log, Translate(nil, err))
		return
	}
	log.Info("signal received", zap.String("symbol", sig.Symbol), zap.String("side", sig.Side.String()))

	ctx := logger.WithRequestID(c.Request.Context(), reqID)
	rep, err := h.signals.HandleSignal(ctx, sig)
	h.respond(c, log, Translate(rep, err))
}

func (h *Handler) respond(c *gin.Context, log *zap.Logger, resp Response) {
	log.Info("webhook response",
		zap.Int("code", resp.HTTPCode),
		zap.String("status", resp.Status),
		zap.String("message", resp.Message),
	)
	c.JSON(resp.HTTPCode, resp)
}
