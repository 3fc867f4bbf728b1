package service

import (
	"sync"
	"sync/atomic"
	"time"
)

type State struct {
	ready     atomic.Bool
	startedAt time.Time

	signals       atomic.Int64
	accepted      atomic.Int64
	rejected      atomic.Int64
	lastOrderUnix atomic.Int64 // unix seconds

	mu        sync.RWMutex
	lastError string
}

func NewState() *State {
	s := &State{startedAt: time.Now()}
	s.ready.Store(false)
	return s
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

func (s *State) TouchSignal() { s.signals.Add(1) }

// OrderAccepted отмечает исполненный ордер.
func (s *State) OrderAccepted(t time.Time) {
	s.accepted.Add(1)
	s.lastOrderUnix.Store(t.Unix())
}

// Failed запоминает последнюю ошибку пайплайна.
func (s *State) Failed(err error, orderRejected bool) {
	if orderRejected {
		s.rejected.Add(1)
	}
	s.mu.Lock()
	s.lastError = err.Error()
	s.mu.Unlock()
}

func (s *State) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

func (s *State) LastOrder() time.Time {
	u := s.lastOrderUnix.Load()
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}

// Counters — сигналы, принятые и отклонённые ордера.
func (s *State) Counters() (signals, accepted, rejected int64) {
	return s.signals.Load(), s.accepted.Load(), s.rejected.Load()
}

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }
