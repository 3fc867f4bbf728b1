package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"mt5_bridge/internal/models"
	"mt5_bridge/internal/modules/config"
	"mt5_bridge/internal/modules/terminal/fake"
	"mt5_bridge/internal/modules/terminal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Terminal.ConnectTimeout = time.Second
	cfg.Terminal.CallTimeout = time.Second
	cfg.Terminal.LockTimeout = 2 * time.Second
	return &cfg
}

func newSessions(t *testing.T, term *fake.Terminal, cfg *config.Config) *service.Sessions {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	return service.NewSessions(cfg, term, zaptest.NewLogger(t))
}

func TestSessions_OpenClose(t *testing.T) {
	term := fake.New()
	sessions := newSessions(t, term, nil)

	sess, err := sessions.Open(context.Background())
	require.NoError(t, err)
	assert.True(t, sessions.InUse())

	sess.Close()
	sess.Close()

	assert.False(t, sessions.InUse())
	assert.Equal(t, 1, term.Opened())
	assert.Equal(t, 1, term.Closed())
	assert.Equal(t, 1, term.Shutdowns())

	opened, closed := sessions.Stats()
	assert.Equal(t, int64(1), opened)
	assert.Equal(t, int64(1), closed)
}

func TestSessions_LoginOnlyWhenConfigured(t *testing.T) {
	term := fake.New()
	sess, err := newSessions(t, term, nil).Open(context.Background())
	require.NoError(t, err)
	sess.Close()
	assert.Equal(t, 0, term.Logins())

	cfg := testConfig()
	cfg.Terminal.Login = 12345678
	cfg.Terminal.Password = "password"
	sess, err = newSessions(t, term, cfg).Open(context.Background())
	require.NoError(t, err)
	sess.Close()
	assert.Equal(t, 1, term.Logins())
}

func TestSessions_OpenFailures(t *testing.T) {
	testTable := []struct {
		name      string
		setup     func(term *fake.Terminal, cfg *config.Config)
		kind      models.ConnectionKind
		connected bool
	}{
		{
			name:  "dial fails",
			setup: func(term *fake.Terminal, _ *config.Config) { term.DialErr = errors.New("connection refused") },
			kind:  models.ConnectionInit,
		},
		{
			name:      "initialize fails",
			setup:     func(term *fake.Terminal, _ *config.Config) { term.InitErr = errors.New("IPC timeout") },
			kind:      models.ConnectionInit,
			connected: true,
		},
		{
			name: "login fails",
			setup: func(term *fake.Terminal, cfg *config.Config) {
				term.LoginErr = errors.New("authorization failed")
				cfg.Terminal.Login = 42
				cfg.Terminal.Password = "bad"
			},
			kind:      models.ConnectionLogin,
			connected: true,
		},
	}

	for _, testCase := range testTable {
		t.Run(testCase.name, func(t *testing.T) {
			term := fake.New()
			cfg := testConfig()
			testCase.setup(term, cfg)
			sessions := newSessions(t, term, cfg)

			sess, err := sessions.Open(context.Background())
			assert.Nil(t, sess)

			var connErr *models.ConnectionError
			require.ErrorAs(t, err, &connErr)
			assert.Equal(t, testCase.kind, connErr.Kind)
			assert.False(t, sessions.InUse())
			assert.Equal(t, term.Opened(), term.Closed())
			if testCase.connected {
				assert.Equal(t, 1, term.Closed())
			}

			// терминал отпущен: следующий запрос не ждёт lock_timeout
			term.DialErr, term.InitErr, term.LoginErr = nil, nil, nil
			start := time.Now()
			sess, err = sessions.Open(context.Background())
			require.NoError(t, err)
			sess.Close()
			assert.Less(t, time.Since(start), cfg.Terminal.LockTimeout)
		})
	}
}

func TestSessions_PanicInDialReleasesGuard(t *testing.T) {
	term := fake.New()
	term.PanicOnDial = true
	cfg := testConfig()
	cfg.Terminal.LockTimeout = 100 * time.Millisecond
	sessions := newSessions(t, term, cfg)

	assert.Panics(t, func() { _, _ = sessions.Open(context.Background()) })
	assert.False(t, sessions.InUse())

	term.PanicOnDial = false
	sess, err := sessions.Open(context.Background())
	require.NoError(t, err)
	sess.Close()
}

func TestSessions_BusyAfterLockTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.Terminal.LockTimeout = 50 * time.Millisecond
	sessions := newSessions(t, fake.New(), cfg)

	first, err := sessions.Open(context.Background())
	require.NoError(t, err)
	defer first.Close()

	_, err = sessions.Open(context.Background())
	var connErr *models.ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, models.ConnectionBusy, connErr.Kind)
}

func TestSessions_BusyWhenCallerGivesUp(t *testing.T) {
	sessions := newSessions(t, fake.New(), nil)

	first, err := sessions.Open(context.Background())
	require.NoError(t, err)
	defer first.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = sessions.Open(ctx)
	var connErr *models.ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, models.ConnectionBusy, connErr.Kind)
}

func TestSessions_SecondWaitsForFirst(t *testing.T) {
	sessions := newSessions(t, fake.New(), nil)

	first, err := sessions.Open(context.Background())
	require.NoError(t, err)

	opened := make(chan struct{})
	go func() {
		second, err := sessions.Open(context.Background())
		if err == nil {
			second.Close()
		}
		close(opened)
	}()

	select {
	case <-opened:
		t.Fatal("second session opened while the first one is still open")
	case <-time.After(50 * time.Millisecond):
	}

	first.Close()
	select {
	case <-opened:
	case <-time.After(time.Second):
		t.Fatal("second session did not open after the first one closed")
	}
}

func TestSessions_ConcurrentNeverOverlap(t *testing.T) {
	term := fake.New()
	term.CallDelay = time.Millisecond
	cfg := testConfig()
	cfg.Terminal.LockTimeout = 10 * time.Second
	sessions := newSessions(t, term, cfg)

	const workers = 24
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess, err := sessions.Open(context.Background())
			if err != nil {
				errs <- err
				return
			}
			defer sess.Close()
			_, _, err = sess.ResolveSymbol(context.Background(), "EURUSD")
			if err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("unexpected error: %v", err)
	}
	assert.Equal(t, 1, term.MaxActive())
	assert.Equal(t, workers, term.Opened())
	assert.Equal(t, workers, term.Closed())
}

func TestSessions_CallsSurviveCallerCancel(t *testing.T) {
	term := fake.New()
	term.CallDelay = 30 * time.Millisecond
	sessions := newSessions(t, term, nil)

	ctx, cancel := context.WithCancel(context.Background())
	sess, err := sessions.Open(ctx)
	require.NoError(t, err)
	defer sess.Close()

	cancel()
	spec, _, err := sess.ResolveSymbol(ctx, "EURUSD")
	require.NoError(t, err)
	assert.Equal(t, "EURUSD", spec.Name)
}
