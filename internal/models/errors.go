package models

import "fmt"

type ValidationKind int

const (
	ValidationMalformed ValidationKind = iota + 1
	ValidationMissing
	ValidationDirection
)

// ValidationError — плохой входящий сигнал, никогда не ретраится.
type ValidationError struct {
	Kind  ValidationKind
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case ValidationMalformed:
		return fmt.Sprintf("malformed body: %v", e.Err)
	case ValidationMissing:
		return fmt.Sprintf("missing field %q", e.Field)
	case ValidationDirection:
		return fmt.Sprintf("invalid direction %q", e.Field)
	}
	return "invalid signal"
}

func (e *ValidationError) Unwrap() error { return e.Err }

type ConnectionKind int

const (
	ConnectionInit ConnectionKind = iota + 1
	ConnectionLogin
	ConnectionBusy
)

// ConnectionError — терминал недоступен, логин не прошёл или терминал занят другим запросом.
type ConnectionError struct {
	Kind ConnectionKind
	Err  error
}

func (e *ConnectionError) Error() string {
	switch e.Kind {
	case ConnectionInit:
		return fmt.Sprintf("terminal initialize: %v", e.Err)
	case ConnectionLogin:
		return fmt.Sprintf("terminal login: %v", e.Err)
	case ConnectionBusy:
		return fmt.Sprintf("terminal busy: %v", e.Err)
	}
	return fmt.Sprintf("terminal connection: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

type SymbolKind int

const (
	SymbolNotFound SymbolKind = iota + 1
	SymbolActivationFailed
	SymbolNoTick
)

type SymbolError struct {
	Kind   SymbolKind
	Symbol string
	Err    error
}

func (e *SymbolError) Error() string {
	var msg string
	switch e.Kind {
	case SymbolNotFound:
		msg = "symbol " + e.Symbol + " not found"
	case SymbolActivationFailed:
		msg = "symbol " + e.Symbol + " select failed"
	case SymbolNoTick:
		msg = "symbol " + e.Symbol + " has no tick"
	default:
		msg = "symbol " + e.Symbol + " error"
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *SymbolError) Unwrap() error { return e.Err }

type ExecutionKind int

const (
	ExecutionRejected ExecutionKind = iota + 1
	ExecutionSendFailed
)

// ExecutionError — брокер отклонил ордер. RawFields содержит весь ответ терминала.
type ExecutionError struct {
	Kind      ExecutionKind
	Retcode   uint32
	Comment   string
	RawFields map[string]string
	Err       error
}

func (e *ExecutionError) Error() string {
	if e.Kind == ExecutionRejected {
		return fmt.Sprintf("order rejected: retcode=%d comment=%q", e.Retcode, e.Comment)
	}
	return fmt.Sprintf("order send failed: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// InternalError — всё, что не попало в классы выше, включая панику внутри пайплайна.
type InternalError struct {
	Err error
}

func (e *InternalError) Error() string { return fmt.Sprintf("internal error: %v", e.Err) }

func (e *InternalError) Unwrap() error { return e.Err }
