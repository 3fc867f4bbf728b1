// Package fake — терминал в памяти для тестов пайплайна.
package fake

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"mt5_bridge/internal/modules/terminal/service"
)

// Terminal реализует service.Dialer и считает подключения, чтобы тесты могли проверить,
// что каждая сессия закрыта и что две сессии никогда не открыты одновременно.
type Terminal struct {
	mu sync.Mutex

	Symbols map[string]service.SymbolInfo
	Ticks   map[string]service.TickInfo

	DialErr      error
	PanicOnDial  bool
	InitErr      error
	LoginErr     error
	SymbolErr    error
	RejectSelect bool
	Retcode      uint32
	NoResult     bool
	PanicOnSend  bool
	CallDelay    time.Duration

	dials     int
	closes    int
	shutdowns int
	logins    int
	active    int
	maxActive int
	selects   []string
	requests  []service.TradeRequest
}

// New returns a terminal with EURUSD visible at 1.09990/1.10000 and orders accepted.
func New() *Terminal {
	return &Terminal{
		Symbols: map[string]service.SymbolInfo{
			"EURUSD": {Name: "EURUSD", Point: 0.00001, Digits: 5, TradeStopsLevel: 50, Visible: true},
		},
		Ticks: map[string]service.TickInfo{
			"EURUSD": {Time: 1700000000, Bid: 1.09990, Ask: 1.10000},
		},
		Retcode: service.TradeRetcodeDone,
	}
}

func (t *Terminal) Dial(ctx context.Context) (service.API, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.PanicOnDial {
		panic("fake terminal: dial exploded")
	}
	if t.DialErr != nil {
		return nil, t.DialErr
	}
	t.dials++
	t.active++
	if t.active > t.maxActive {
		t.maxActive = t.active
	}
	return &conn{t: t}, nil
}

// Opened — успешные подключения.
func (t *Terminal) Opened() int { t.mu.Lock(); defer t.mu.Unlock(); return t.dials }

// Closed — закрытые подключения.
func (t *Terminal) Closed() int { t.mu.Lock(); defer t.mu.Unlock(); return t.closes }

func (t *Terminal) Shutdowns() int { t.mu.Lock(); defer t.mu.Unlock(); return t.shutdowns }

func (t *Terminal) Logins() int { t.mu.Lock(); defer t.mu.Unlock(); return t.logins }

// MaxActive — максимум одновременно открытых подключений за всё время.
func (t *Terminal) MaxActive() int { t.mu.Lock(); defer t.mu.Unlock(); return t.maxActive }

func (t *Terminal) Selects() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.selects...)
}

func (t *Terminal) Requests() []service.TradeRequest {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]service.TradeRequest(nil), t.requests...)
}

type conn struct {
	t      *Terminal
	closed bool
}

func (c *conn) pause(ctx context.Context) error {
	if c.t.CallDelay <= 0 {
		return nil
	}
	select {
	case <-time.After(c.t.CallDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *conn) Initialize(ctx context.Context, path string, timeout time.Duration) error {
	if err := c.pause(ctx); err != nil {
		return err
	}
	return c.t.InitErr
}

func (c *conn) Login(ctx context.Context, login int64, password, server string, timeout time.Duration) error {
	c.t.mu.Lock()
	c.t.logins++
	c.t.mu.Unlock()
	return c.t.LoginErr
}

func (c *conn) SymbolInfo(ctx context.Context, symbol string) (*service.SymbolInfo, error) {
	if err := c.pause(ctx); err != nil {
		return nil, err
	}
	c.t.mu.Lock()
	defer c.t.mu.Unlock()
	if c.t.SymbolErr != nil {
		return nil, c.t.SymbolErr
	}
	info, ok := c.t.Symbols[symbol]
	if !ok {
		return nil, nil
	}
	return &info, nil
}

func (c *conn) SymbolSelect(ctx context.Context, symbol string, enable bool) (bool, error) {
	c.t.mu.Lock()
	defer c.t.mu.Unlock()
	c.t.selects = append(c.t.selects, symbol)
	if c.t.RejectSelect {
		return false, nil
	}
	info := c.t.Symbols[symbol]
	info.Visible = enable
	c.t.Symbols[symbol] = info
	return true, nil
}

func (c *conn) SymbolInfoTick(ctx context.Context, symbol string) (*service.TickInfo, error) {
	c.t.mu.Lock()
	defer c.t.mu.Unlock()
	tick, ok := c.t.Ticks[symbol]
	if !ok {
		return nil, nil
	}
	return &tick, nil
}

func (c *conn) OrderSend(ctx context.Context, req service.TradeRequest) (*service.TradeResult, error) {
	if err := c.pause(ctx); err != nil {
		return nil, err
	}
	c.t.mu.Lock()
	defer c.t.mu.Unlock()
	if c.t.PanicOnSend {
		panic("fake terminal: order_send exploded")
	}
	c.t.requests = append(c.t.requests, req)
	if c.t.NoResult {
		return nil, nil
	}

	price := req.Price
	res := &service.TradeResult{
		Retcode: c.t.Retcode,
		Volume:  req.Volume,
		Price:   price,
		Comment: "Request executed",
	}
	if c.t.Retcode == service.TradeRetcodeDone {
		res.Deal = uint64(len(c.t.requests)) + 1000
		res.Order = uint64(len(c.t.requests)) + 2000
	} else {
		res.Comment = "Invalid stops"
	}
	res.Raw = map[string]string{
		"retcode": strconv.FormatUint(uint64(res.Retcode), 10),
		"deal":    strconv.FormatUint(res.Deal, 10),
		"order":   strconv.FormatUint(res.Order, 10),
		"price":   strconv.FormatFloat(price, 'f', -1, 64),
		"comment": res.Comment,
	}
	return res, nil
}

func (c *conn) LastError(ctx context.Context) (service.TerminalError, error) {
	return service.TerminalError{Code: -2, Message: "Invalid arguments"}, nil
}

func (c *conn) Shutdown(ctx context.Context) error {
	c.t.mu.Lock()
	defer c.t.mu.Unlock()
	c.t.shutdowns++
	return nil
}

func (c *conn) Close() error {
	c.t.mu.Lock()
	defer c.t.mu.Unlock()
	if c.closed {
		return errors.New("fake terminal: connection already closed")
	}
	c.closed = true
	c.t.closes++
	c.t.active--
	return nil
}
