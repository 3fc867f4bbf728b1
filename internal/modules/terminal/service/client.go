package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"mt5_bridge/internal/modules/config"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var nullResult = []byte("null")

func (e TerminalError) Error() string {
	return fmt.Sprintf("terminal error %d: %s", e.Code, e.Message)
}

// Client подключается к бриджу терминала по WebSocket. Одно соединение — одна сессия.
type Client struct {
	url      string
	wsDialer *websocket.Dialer
	log      *zap.Logger
}

func NewClient(cfg *config.Config, log *zap.Logger) *Client {
	return &Client{
		url: cfg.Terminal.BridgeURL,
		wsDialer: &websocket.Dialer{
			HandshakeTimeout: cfg.Terminal.ConnectTimeout,
		},
		log: log.Named("bridge"),
	}
}

func (c *Client) Dial(ctx context.Context) (API, error) {
	ws, resp, err := c.wsDialer.DialContext(ctx, c.url, http.Header{})
	if err != nil {
		if resp != nil {
			return nil, errors.Wrapf(err, "dial %s: http %d", c.url, resp.StatusCode)
		}
		return nil, errors.Wrapf(err, "dial %s", c.url)
	}
	c.log.Debug("bridge connected", zap.String("url", c.url))
	return &Conn{ws: ws, log: c.log}, nil
}

// Conn — одно соединение с бриджем. Вызовы сериализуются: бридж отвечает строго по очереди.
type Conn struct {
	mu     sync.Mutex
	ws     *websocket.Conn
	nextID uint64
	log    *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

// call отправляет запрос и ждёт ответ с тем же id. Возвращает false, если результат null.
func (c *Conn) call(ctx context.Context, method string, params any, out any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID

	payload, err := sonic.Marshal(rpcRequest{ID: id, Method: method, Params: params})
	if err != nil {
		return false, errors.Wrapf(err, "%s marshal", method)
	}

	deadline, _ := ctx.Deadline()
	if err := c.ws.SetWriteDeadline(deadline); err != nil {
		return false, errors.Wrapf(err, "%s write deadline", method)
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
		return false, errors.Wrapf(err, "%s write", method)
	}

	if err := c.ws.SetReadDeadline(deadline); err != nil {
		return false, errors.Wrapf(err, "%s read deadline", method)
	}
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return false, errors.Wrapf(err, "%s read", method)
	}

	var resp rpcResponse
	if err := sonic.Unmarshal(data, &resp); err != nil {
		return false, errors.Wrapf(err, "%s decode RAW=%s", method, string(data))
	}
	if resp.ID != id {
		return false, errors.Errorf("%s: response id %d, want %d", method, resp.ID, id)
	}
	if resp.Error != nil {
		return false, errors.Wrap(*resp.Error, method)
	}

	result := bytes.TrimSpace(resp.Result)
	if len(result) == 0 || bytes.Equal(result, nullResult) {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := sonic.Unmarshal(result, out); err != nil {
		return false, errors.Wrapf(err, "%s decode result RAW=%s", method, string(result))
	}
	return true, nil
}

// boolCall — для методов терминала, которые возвращают True/False.
func (c *Conn) boolCall(ctx context.Context, method string, params any) (bool, error) {
	var ok bool
	found, err := c.call(ctx, method, params, &ok)
	if err != nil {
		return false, err
	}
	return found && ok, nil
}

func (c *Conn) Initialize(ctx context.Context, path string, timeout time.Duration) error {
	ok, err := c.boolCall(ctx, "initialize", initializeParams{Path: path, Timeout: timeout.Milliseconds()})
	if err != nil {
		return err
	}
	if !ok {
		return c.withLastError(ctx, "initialize returned false")
	}
	return nil
}

func (c *Conn) Login(ctx context.Context, login int64, password, server string, timeout time.Duration) error {
	ok, err := c.boolCall(ctx, "login", loginParams{
		Login:    login,
		Password: password,
		Server:   server,
		Timeout:  timeout.Milliseconds(),
	})
	if err != nil {
		return err
	}
	if !ok {
		return c.withLastError(ctx, "login "+strconv.FormatInt(login, 10)+" returned false")
	}
	return nil
}

func (c *Conn) SymbolInfo(ctx context.Context, symbol string) (*SymbolInfo, error) {
	var info SymbolInfo
	found, err := c.call(ctx, "symbol_info", symbolParams{Symbol: symbol}, &info)
	if err != nil || !found {
		return nil, err
	}
	return &info, nil
}

func (c *Conn) SymbolSelect(ctx context.Context, symbol string, enable bool) (bool, error) {
	return c.boolCall(ctx, "symbol_select", selectParams{Symbol: symbol, Enable: enable})
}

func (c *Conn) SymbolInfoTick(ctx context.Context, symbol string) (*TickInfo, error) {
	var tick TickInfo
	found, err := c.call(ctx, "symbol_info_tick", symbolParams{Symbol: symbol}, &tick)
	if err != nil || !found {
		return nil, err
	}
	return &tick, nil
}

func (c *Conn) OrderSend(ctx context.Context, req TradeRequest) (*TradeResult, error) {
	var body json.RawMessage
	found, err := c.call(ctx, "order_send", orderParams{Request: req}, &body)
	if err != nil || !found {
		return nil, err
	}

	var res TradeResult
	if err := sonic.Unmarshal(body, &res); err != nil {
		return nil, errors.Wrapf(err, "order_send decode RAW=%s", string(body))
	}
	var raw map[string]any
	if err := sonic.Unmarshal(body, &raw); err != nil {
		return nil, errors.Wrapf(err, "order_send fields RAW=%s", string(body))
	}
	res.Raw = stringifyFields(raw)
	return &res, nil
}

func (c *Conn) LastError(ctx context.Context) (TerminalError, error) {
	var te TerminalError
	if _, err := c.call(ctx, "last_error", struct{}{}, &te); err != nil {
		return TerminalError{}, err
	}
	return te, nil
}

func (c *Conn) Shutdown(ctx context.Context) error {
	_, err := c.call(ctx, "shutdown", struct{}{}, nil)
	return err
}

// Close закрывает WebSocket. Повторный вызов безопасен.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}

func (c *Conn) withLastError(ctx context.Context, msg string) error {
	te, err := c.LastError(ctx)
	if err != nil {
		c.log.Warn("last_error unavailable", zap.Error(err))
		return errors.New(msg)
	}
	return errors.Wrap(te, msg)
}

func stringifyFields(raw map[string]any) map[string]string {
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch tv := v.(type) {
		case string:
			out[k] = tv
		case float64:
			out[k] = strconv.FormatFloat(tv, 'f', -1, 64)
		case nil:
			out[k] = ""
		default:
			b, err := sonic.Marshal(tv)
			if err != nil {
				out[k] = fmt.Sprint(tv)
				continue
			}
			out[k] = string(b)
		}
	}
	return out
}
