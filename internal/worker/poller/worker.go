package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Dongwon38/print-agent/internal/dal/interfaces/ieventpublisher"
	"github.com/Dongwon38/print-agent/internal/service/errs"
	"github.com/Dongwon38/print-agent/internal/service/models/event"
	"github.com/Dongwon38/print-agent/internal/service/services/printsvc"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
)

type State string

const (
	StateStopped State = "stopped"
	StateRunning State = "running"
)

const (
	minInterval = 3 * time.Second
	maxInterval = 10 * time.Second
)

var ErrWorkerStopped = errors.New("poller is not running")

// printService represents the print service used by the worker.
type printService interface {
	ProcessTick(ctx context.Context, token string) (printsvc.TickResult, error)
}

// authService represents the token lifecycle used by the worker.
type authService interface {
	Login(ctx context.Context, username, password string) (string, error)
	AutoLogin(ctx context.Context) (string, error)
	HasCredentials() bool
	Restore(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}

// Status is a snapshot of the worker for readers outside its goroutine.
type Status struct {
	State         State               `json:"state"`
	Authenticated bool                `json:"authenticated"`
	Interval      string              `json:"interval"`
	LastTick      time.Time           `json:"last_tick,omitzero"`
	LastResult    printsvc.TickResult `json:"last_result"`
	LastError     string              `json:"last_error,omitempty"`
}

type commandKind int

const (
	cmdStart commandKind = iota
	cmdStop
	cmdLogin
	cmdLogout
)

type command struct {
	kind     commandKind
	ctx      context.Context
	username string
	password string
	reply    chan error
}

// Worker owns the polling state machine. State, token and ticker are only
// touched by the goroutine running Run; everything else talks to it through
// commands and reads Status.
type Worker struct {
	prints    printService
	auth      authService
	events    ieventpublisher.IEventPublisher
	listeners []func(State)
	interval  time.Duration
	autoLogin bool
	autostart bool

	commands chan command
	stopCh   chan struct{}
	done     chan struct{}
	status   atomic.Pointer[Status]

	token  string
	ticker *time.Ticker
}

// option is a function that configures the Worker.
type option func(*Worker)

// NewWorker creates a new polling worker.
func NewWorker(prints printService, auth authService, opts ...option) *Worker {
	intervalSeconds := viper.GetInt("poller.interval_seconds")
	if intervalSeconds == 0 {
		intervalSeconds = 5
	}

	interval := time.Duration(intervalSeconds) * time.Second
	if interval < minInterval || interval > maxInterval {
		clamped := min(max(interval, minInterval), maxInterval)
		slog.Warn("Poll interval out of range, clamping", "configured", interval, "used", clamped)
		interval = clamped
	}

	w := &Worker{
		prints:    prints,
		auth:      auth,
		interval:  interval,
		autoLogin: viper.GetBool("auth.auto_login"),
		autostart: viper.GetBool("poller.autostart"),
		commands:  make(chan command),
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.status.Store(&Status{State: StateStopped, Interval: w.interval.String()})

	return w
}

// WithEventPublisher sends state changes to the operator channel.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithEventPublisher(p ieventpublisher.IEventPublisher) option {
	return func(w *Worker) {
		w.events = p
	}
}

// WithStateListener registers fn to be called from the worker goroutine on
// every state change.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithStateListener(fn func(State)) option {
	return func(w *Worker) {
		w.listeners = append(w.listeners, fn)
	}
}

// WithInterval overrides poller.interval_seconds without clamping.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithInterval(d time.Duration) option {
	return func(w *Worker) {
		w.interval = d
	}
}

// WithAutoLogin overrides auth.auto_login and poller.autostart.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithAutoLogin(autoLogin, autostart bool) option {
	return func(w *Worker) {
		w.autoLogin = autoLogin
		w.autostart = autostart
	}
}

// Status returns the latest published snapshot.
func (w *Worker) Status() Status {
	return *w.status.Load()
}

// Run restores the session and then serves commands and ticks until ctx is
// done or Stop is called.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)
	defer w.stopTicker()

	slog.Info("Poller started", "interval", w.interval)
	w.bootstrap(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Poller shutting down")

			return
		case <-w.stopCh:
			slog.Info("Poller stopped")

			return
		case cmd := <-w.commands:
			cmd.reply <- w.handle(ctx, cmd)
		case <-w.tickC():
			w.tick(ctx)
		}
	}
}

// Shutdown stops Run.
func (w *Worker) Shutdown() {
	close(w.stopCh)
}

// Start begins polling. It fails with errs.ErrNotAuthenticated when no token
// is held, and with errs.ErrAuth when the first poll is rejected and polling
// stays stopped.
func (w *Worker) Start(ctx context.Context) error {
	return w.send(ctx, command{kind: cmdStart})
}

// Stop pauses polling. The token is kept.
func (w *Worker) Stop(ctx context.Context) error {
	return w.send(ctx, command{kind: cmdStop})
}

// Login replaces the held token with a fresh one.
func (w *Worker) Login(ctx context.Context, username, password string) error {
	return w.send(ctx, command{kind: cmdLogin, username: username, password: password})
}

// Logout stops polling and discards the token.
func (w *Worker) Logout(ctx context.Context) error {
	return w.send(ctx, command{kind: cmdLogout})
}

func (w *Worker) send(ctx context.Context, cmd command) error {
	cmd.ctx = ctx
	cmd.reply = make(chan error, 1)

	select {
	case w.commands <- cmd:
	case <-w.done:
		return ErrWorkerStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-cmd.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) handle(ctx context.Context, cmd command) error {
	switch cmd.kind {
	case cmdStart:
		if w.token == "" {
			return errs.ErrNotAuthenticated
		}
		if w.state() == StateRunning {
			return nil
		}
		w.start(ctx, true)
		if w.state() != StateRunning {
			return fmt.Errorf("%w: polling stopped on the first poll", errs.ErrAuth)
		}
	case cmdStop:
		w.stop("Polling stopped by operator")
	case cmdLogin:
		token, err := w.auth.Login(cmd.ctx, cmd.username, cmd.password)
		if err != nil {
			return err
		}
		w.setToken(token)
		w.publish(ctx, event.TypeLoggedIn, "Logged in as "+cmd.username)
	case cmdLogout:
		w.stop("Logged out")
		w.setToken("")
		if err := w.auth.Clear(cmd.ctx); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown command %d", cmd.kind)
	}

	return nil
}

func (w *Worker) bootstrap(ctx context.Context) {
	token, err := w.auth.Restore(ctx)
	if err != nil {
		slog.Error("Failed to restore session", "error", err)
	}
	if token != "" {
		slog.Info("Session restored")
	}

	if token == "" && w.autoLogin && w.auth.HasCredentials() {
		token, err = w.auth.AutoLogin(ctx)
		if err != nil {
			slog.Error("Automatic login failed", "error", err)
		}
	}
	w.setToken(token)

	if w.token == "" {
		slog.Info("Waiting for operator login")

		return
	}
	if w.autostart {
		w.start(ctx, true)
	}
}

func (w *Worker) start(ctx context.Context, immediate bool) {
	w.ticker = time.NewTicker(w.interval)
	w.setState(ctx, StateRunning, "Polling started")

	if immediate {
		w.tick(ctx)
	}
}

func (w *Worker) stop(message string) {
	if w.state() == StateStopped {
		return
	}

	w.stopTicker()
	w.setState(context.Background(), StateStopped, message)
}

func (w *Worker) stopTicker() {
	if w.ticker != nil {
		w.ticker.Stop()
		w.ticker = nil
	}
}

func (w *Worker) tickC() <-chan time.Time {
	if w.ticker == nil {
		return nil
	}

	return w.ticker.C
}

// tick runs one poll. An authorization failure drops the token and stops
// the worker; with auto-login enabled a new session is then started on the
// next interval.
func (w *Worker) tick(ctx context.Context) {
	ctx, span := otel.Tracer("poller").Start(ctx, "Worker.Tick")
	defer span.End()

	res, err := w.prints.ProcessTick(ctx, w.token)

	st := w.Status()
	st.LastTick = time.Now()
	st.LastResult = res
	st.LastError = ""
	if err != nil {
		st.LastError = err.Error()
	}
	w.status.Store(&st)

	if err == nil {
		if res.Printed > 0 || res.Failed > 0 {
			slog.Info("Poll finished", "fetched", res.Fetched, "printed", res.Printed, "failed", res.Failed)
		}

		return
	}

	if !errors.Is(err, errs.ErrAuth) {
		slog.Warn("Poll failed, retrying next tick", "error", err)

		return
	}

	slog.Warn("Session rejected by the API, please log in again", "error", err)
	w.setToken("")
	if err := w.auth.Clear(ctx); err != nil {
		slog.Error("Failed to clear stored token", "error", err)
	}
	w.stop("Session expired")
	w.publish(ctx, event.TypeReauthRequired, "Session expired, please log in again")

	if !w.autoLogin || !w.auth.HasCredentials() {
		return
	}

	token, err := w.auth.AutoLogin(ctx)
	if err != nil {
		slog.Error("Automatic login failed", "error", err)

		return
	}
	w.setToken(token)
	w.publish(ctx, event.TypeLoggedIn, "Logged in automatically")
	w.start(ctx, false)
}

func (w *Worker) state() State {
	return w.Status().State
}

func (w *Worker) setToken(token string) {
	w.token = token

	st := w.Status()
	st.Authenticated = token != ""
	w.status.Store(&st)
}

func (w *Worker) setState(ctx context.Context, s State, message string) {
	st := w.Status()
	st.State = s
	w.status.Store(&st)

	slog.Info(message, "state", s)
	for _, fn := range w.listeners {
		fn(s)
	}

	w.publish(ctx, event.TypeStatusChanged, message)
}

func (w *Worker) publish(ctx context.Context, t event.Type, message string) {
	if w.events == nil {
		return
	}

	err := w.events.Publish(ctx, event.Event{
		Type:    t,
		Message: message,
		State:   string(w.state()),
		At:      time.Now(),
	})
	if err != nil {
		slog.Error("Failed to publish event", "type", t, "error", err)
	}
}
