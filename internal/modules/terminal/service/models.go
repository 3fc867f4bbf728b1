package service

import (
	"context"
	"encoding/json"
	"time"
)

// Константы терминала MT5 (MetaTrader5 python API).
const (
	TradeActionDeal = 1

	OrderTypeBuy  = 0
	OrderTypeSell = 1

	OrderTimeGTC = 0

	OrderFillingFOK    = 0
	OrderFillingIOC    = 1
	OrderFillingReturn = 2

	TradeRetcodeDone uint32 = 10009

	// MT5 режет комментарий ордера до 31 символа.
	maxCommentLen = 31
)

// API — вызовы терминала в рамках одного соединения с бриджем.
// SymbolInfo, SymbolInfoTick и OrderSend возвращают nil без ошибки, если терминал ответил None.
type API interface {
	Initialize(ctx context.Context, path string, timeout time.Duration) error
	Login(ctx context.Context, login int64, password, server string, timeout time.Duration) error
	SymbolInfo(ctx context.Context, symbol string) (*SymbolInfo, error)
	SymbolSelect(ctx context.Context, symbol string, enable bool) (bool, error)
	SymbolInfoTick(ctx context.Context, symbol string) (*TickInfo, error)
	OrderSend(ctx context.Context, req TradeRequest) (*TradeResult, error)
	LastError(ctx context.Context) (TerminalError, error)
	Shutdown(ctx context.Context) error
	Close() error
}

// Dialer открывает новое соединение с терминалом.
type Dialer interface {
	Dial(ctx context.Context) (API, error)
}

type SymbolInfo struct {
	Name            string  `json:"name"`
	Point           float64 `json:"point"`
	Digits          int     `json:"digits"`
	TradeStopsLevel int     `json:"trade_stops_level"`
	Visible         bool    `json:"visible"`
	Select          bool    `json:"select"`
	TradeMode       int     `json:"trade_mode"`
}

type TickInfo struct {
	Time   int64   `json:"time"`
	Bid    float64 `json:"bid"`
	Ask    float64 `json:"ask"`
	Last   float64 `json:"last"`
	Volume float64 `json:"volume"`
}

// TradeRequest — структура для order_send, поля один в один как у MqlTradeRequest.
type TradeRequest struct {
	Action      int     `json:"action"`
	Magic       int64   `json:"magic"`
	Symbol      string  `json:"symbol"`
	Volume      float64 `json:"volume"`
	Price       float64 `json:"price"`
	SL          float64 `json:"sl"`
	TP          float64 `json:"tp"`
	Deviation   int     `json:"deviation"`
	Type        int     `json:"type"`
	TypeFilling int     `json:"type_filling"`
	TypeTime    int     `json:"type_time"`
	Comment     string  `json:"comment"`
}

type TradeResult struct {
	Retcode         uint32  `json:"retcode"`
	Deal            uint64  `json:"deal"`
	Order           uint64  `json:"order"`
	Volume          float64 `json:"volume"`
	Price           float64 `json:"price"`
	Bid             float64 `json:"bid"`
	Ask             float64 `json:"ask"`
	Comment         string  `json:"comment"`
	RequestID       uint64  `json:"request_id"`
	RetcodeExternal int     `json:"retcode_external"`

	// Все поля ответа как есть, для диагностики.
	Raw map[string]string `json:"-"`
}

// TerminalError — то, что отдаёт mt5.last_error().
type TerminalError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcRequest struct {
	ID     uint64 `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params"`
}

type rpcResponse struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *TerminalError  `json:"error"`
}

type initializeParams struct {
	Path    string `json:"path,omitempty"`
	Timeout int64  `json:"timeout"` // мс
}

type loginParams struct {
	Login    int64  `json:"login"`
	Password string `json:"password"`
	Server   string `json:"server,omitempty"`
	Timeout  int64  `json:"timeout"`
}

type symbolParams struct {
	Symbol string `json:"symbol"`
}

type selectParams struct {
	Symbol string `json:"symbol"`
	Enable bool   `json:"enable"`
}

type orderParams struct {
	Request TradeRequest `json:"request"`
}
