package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"mt5_bridge/internal/models"
	"mt5_bridge/internal/modules/config"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// OrderOptions — поля торгового запроса, которые не зависят от сигнала.
type OrderOptions struct {
	Magic         int64
	Filling       string
	CommentPrefix string
}

// Sessions выдаёт сессии терминала по одной на процесс.
// Терминал MT5 держит одно подключение, поэтому второй запрос ждёт, пока первый закроет свою сессию.
type Sessions struct {
	dialer Dialer
	guard  *semaphore.Weighted
	log    *zap.Logger

	path     string
	login    int64
	password string
	server   string

	connectTimeout time.Duration
	callTimeout    time.Duration
	lockTimeout    time.Duration

	orders OrderOptions

	inUse  atomic.Bool
	opened atomic.Int64
	closed atomic.Int64
}

func NewSessions(cfg *config.Config, dialer Dialer, log *zap.Logger) *Sessions {
	return &Sessions{
		dialer: dialer,
		guard:  semaphore.NewWeighted(1),
		log:    log.Named("terminal"),

		path:     cfg.Terminal.Path,
		login:    cfg.Terminal.Login,
		password: cfg.Terminal.Password,
		server:   cfg.Terminal.Server,

		connectTimeout: cfg.Terminal.ConnectTimeout,
		callTimeout:    cfg.Terminal.CallTimeout,
		lockTimeout:    cfg.Terminal.LockTimeout,

		orders: OrderOptions{
			Magic:         cfg.Order.Magic,
			Filling:       cfg.Order.Filling,
			CommentPrefix: cfg.Order.CommentPrefix,
		},
	}
}

// InUse — открыта ли сейчас сессия.
func (s *Sessions) InUse() bool { return s.inUse.Load() }

// Stats returns how many sessions were opened and closed so far.
func (s *Sessions) Stats() (opened, closed int64) {
	return s.opened.Load(), s.closed.Load()
}

// Open захватывает терминал, подключается и (если задан логин) авторизуется.
// При любой ошибке терминал отпускается до возврата.
func (s *Sessions) Open(ctx context.Context) (*Session, error) {
	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()
	if err := s.guard.Acquire(lockCtx, 1); err != nil {
		s.log.Warn("terminal busy", zap.Duration("waited", s.lockTimeout), zap.Error(err))
		return nil, &models.ConnectionError{Kind: models.ConnectionBusy, Err: err}
	}

	// терминал отпускается при любой ошибке или панике до выдачи сессии
	opened := false
	defer func() {
		if !opened {
			s.guard.Release(1)
		}
	}()

	// дальше отмена запроса не прерывает работу с терминалом
	base := context.WithoutCancel(ctx)

	api, err := s.connect(base)
	if err != nil {
		return nil, err
	}
	opened = true

	s.inUse.Store(true)
	s.opened.Add(1)
	s.log.Debug("terminal session opened")
	return &Session{api: api, owner: s}, nil
}

func (s *Sessions) connect(ctx context.Context) (API, error) {
	dialCtx, cancel := context.WithTimeout(ctx, s.connectTimeout)
	api, err := s.dialer.Dial(dialCtx)
	cancel()
	if err != nil {
		s.log.Error("MT5 bridge connect failed", zap.Error(err))
		return nil, &models.ConnectionError{Kind: models.ConnectionInit, Err: err}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.connectTimeout+s.callTimeout)
	err = api.Initialize(callCtx, s.path, s.connectTimeout)
	cancel()
	if err != nil {
		s.log.Error("MT5 initialize failed", zap.Error(err))
		_ = api.Close()
		return nil, &models.ConnectionError{Kind: models.ConnectionInit, Err: err}
	}

	if s.login == 0 {
		return api, nil
	}

	callCtx, cancel = context.WithTimeout(ctx, s.connectTimeout+s.callTimeout)
	err = api.Login(callCtx, s.login, s.password, s.server, s.connectTimeout)
	cancel()
	if err != nil {
		s.log.Error("MT5 login failed", zap.Int64("login", s.login), zap.Error(err))
		s.shutdown(ctx, api)
		return nil, &models.ConnectionError{Kind: models.ConnectionLogin, Err: err}
	}
	return api, nil
}

func (s *Sessions) shutdown(ctx context.Context, api API) {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	if err := api.Shutdown(callCtx); err != nil {
		s.log.Warn("MT5 shutdown failed", zap.Error(err))
	}
	if err := api.Close(); err != nil {
		s.log.Debug("bridge close", zap.Error(err))
	}
}

// Session — открытое подключение к терминалу, принадлежит одному запросу.
type Session struct {
	api   API
	owner *Sessions
	once  sync.Once
}

// Close отключается от терминала и отпускает его. Идемпотентен и не возвращает ошибок.
func (s *Session) Close() {
	s.once.Do(func() {
		s.owner.shutdown(context.Background(), s.api)
		s.owner.inUse.Store(false)
		s.owner.closed.Add(1)
		s.owner.guard.Release(1)
		s.owner.log.Debug("terminal session closed")
	})
}

// callCtx — контекст одного вызова терминала: без отмены от клиента, но с таймаутом.
func (s *Session) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.owner.callTimeout)
}
