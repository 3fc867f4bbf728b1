package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"mt5_bridge/internal/modules/config"
	"mt5_bridge/internal/modules/health/service"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	// long-polling держит запрос pollTimeout секунд, таймаут клиента должен быть больше
	pollTimeout     = 30
	telegramTimeout = (pollTimeout + 10) * time.Second
)

type Notifier interface {
	Send(msg string)
	Sendf(format string, args ...any)
}

// New: если TELEGRAM_* не заданы или бот не поднялся — пишем уведомления в лог.
func New(cfg *config.Config, state *service.State, log *zap.Logger) Notifier {
	if cfg.Telegram.Token != "" && cfg.Telegram.ChatID != 0 {
		tg, err := NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, state, log)
		if err == nil {
			return tg
		}
		log.Warn("telegram notifier disabled", zap.Error(err))
	}
	return NewLog(log)
}

// Telegram — пассивный нотифайер + одна команда /status.
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64
	state  *service.State
	log    *zap.Logger
}

func NewTelegram(token string, chatID int64, state *service.State, log *zap.Logger) (*Telegram, error) {
	return newTelegram(token, tgbot.APIEndpoint, chatID, state, log)
}

func newTelegram(token, endpoint string, chatID int64, state *service.State, log *zap.Logger) (*Telegram, error) {
	client := &http.Client{Timeout: telegramTimeout}
	b, err := tgbot.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, err
	}
	return &Telegram{
		bot:    b,
		chatID: chatID,
		state:  state,
		log:    log.Named("telegram"),
	}, nil
}

func (t *Telegram) Send(msg string) {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return
	}
	if _, err := t.bot.Send(tgbot.NewMessage(t.chatID, msg)); err != nil {
		t.log.Warn("telegram send failed", zap.Int64("chat_id", t.chatID), zap.Error(err))
	}
}

func (t *Telegram) Sendf(format string, args ...any) { t.Send(fmt.Sprintf(format, args...)) }

// /status — сводка по бриджу.
func (t *Telegram) handleStatus() {
	if t.state == nil {
		t.Send("❗️ Состояние недоступно")
		return
	}
	t.Send(StatusText(t.state))
}

// StatusText форматирует счётчики бриджа для чата.
func StatusText(state *service.State) string {
	signals, accepted, rejected := state.Counters()

	var b strings.Builder
	b.WriteString("🩺 MT5 bridge\n")
	fmt.Fprintf(&b, "uptime: %s\n", state.Uptime().Round(1e9))
	fmt.Fprintf(&b, "signals: %d | accepted: %d | rejected: %d\n", signals, accepted, rejected)
	if last := state.LastOrder(); !last.IsZero() {
		fmt.Fprintf(&b, "last order: %s\n", last.UTC().Format("2006-01-02 15:04:05"))
	}
	if e := state.LastError(); e != "" {
		fmt.Fprintf(&b, "last error: %s\n", e)
	}
	return b.String()
}

// Start: long-polling для команд из нашего чата.
func (t *Telegram) Start(ctx context.Context) error {
	if t == nil || t.bot == nil {
		return nil
	}

	u := tgbot.NewUpdate(0)
	u.Timeout = pollTimeout
	u.AllowedUpdates = []string{"message"}

	updates := t.bot.GetUpdatesChan(u)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case upd, ok := <-updates:
				if !ok {
					return
				}
				if upd.Message != nil && upd.Message.Chat != nil &&
					upd.Message.Chat.ID == t.chatID && upd.Message.IsCommand() {

					switch upd.Message.Command() {
					case "status":
						go t.handleStatus()
					}
				}
			}
		}
	}()
	return nil
}

func (t *Telegram) Stop() {
	if t == nil || t.bot == nil {
		return
	}
	t.bot.StopReceivingUpdates()
}

// Log — заглушка без телеграма, всё уходит в лог.
type Log struct {
	log *zap.Logger
}

func NewLog(log *zap.Logger) *Log { return &Log{log: log.Named("notify")} }

func (l *Log) Send(msg string)                  { l.log.Info(msg) }
func (l *Log) Sendf(format string, args ...any) { l.log.Info(fmt.Sprintf(format, args...)) }
