package notify

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Async отправляет уведомления из своей горутины, чтобы медленный канал не держал вебхук.
// При переполнении очереди сообщение отбрасывается с предупреждением в лог.
type Async struct {
	next  Notifier
	queue chan string
	log   *zap.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewAsync(next Notifier, size int, log *zap.Logger) *Async {
	if size <= 0 {
		size = 1
	}
	a := &Async{
		next:  next,
		queue: make(chan string, size),
		log:   log.Named("notify"),
		done:  make(chan struct{}),
	}
	go a.loop()
	return a
}

func (a *Async) loop() {
	defer close(a.done)
	for msg := range a.queue {
		a.next.Send(msg)
	}
}

func (a *Async) Send(msg string) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return
	}
	select {
	case a.queue <- msg:
	default:
		a.log.Warn("notification queue full, message dropped", zap.String("msg", msg))
	}
}

func (a *Async) Sendf(format string, args ...any) { a.Send(fmt.Sprintf(format, args...)) }

// Close дожидается отправки уже поставленных сообщений. Повторный вызов безопасен.
func (a *Async) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()
	<-a.done
}
