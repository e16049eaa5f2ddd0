package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"time"

	"github.com/tamzrod/valve-bridge/internal/metrics"
	"github.com/tamzrod/valve-bridge/internal/relay"
	"github.com/tamzrod/valve-bridge/internal/retry"
	"github.com/tamzrod/valve-bridge/internal/status"
)

// shutdownTimeout bounds the upstream disconnect on exit.
const shutdownTimeout = 5 * time.Second

// Ticker runs one relay pass.
type Ticker interface {
	Tick(ctx context.Context) error
}

// FaultError is an unhandled fault that escaped the running loop.
type FaultError struct {
	Value any
	Stack []byte
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("supervisor: unhandled fault: %v", e.Value)
}

// Unwrap exposes the fault when it was an error value.
func (e *FaultError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

type Config struct {
	Logger  *log.Logger
	Metrics *metrics.Metrics
}

// Supervisor owns startup ordering (upstream before downstream), the
// running loop and the final teardown.
type Supervisor struct {
	cfg   Config
	up    relay.Upstream
	down  relay.Downstream
	cycle Ticker
	log   *log.Logger

	mu     sync.Mutex
	status status.Snapshot
}

func New(cfg Config, up relay.Upstream, down relay.Downstream, cycle Ticker) (*Supervisor, error) {
	if up == nil || down == nil || cycle == nil {
		return nil, errors.New("supervisor: upstream, downstream and cycle required")
	}

	l := cfg.Logger
	if l == nil {
		l = log.Default()
	}

	return &Supervisor{cfg: cfg, up: up, down: down, cycle: cycle, log: l}, nil
}

// State returns the current lifecycle state.
func (s *Supervisor) State() status.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status.State
}

// Status returns a copy of the current status.
func (s *Supervisor) Status() status.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// SetState records a state transition. Safe for concurrent use.
func (s *Supervisor) SetState(st status.State) {
	s.mu.Lock()
	s.status.State = st
	s.mu.Unlock()

	s.cfg.Metrics.SetState(st)
}

// Run brings both sides up and ticks until ctx is done.
// Teardown runs on every exit path. A cancelled ctx is a clean stop and
// returns nil; a fault escaping the loop returns *FaultError.
func (s *Supervisor) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fe := &FaultError{Value: r, Stack: debug.Stack()}
			s.log.Printf("%v\n%s", fe, fe.Stack)
			err = fe
		}
		s.shutdown()
	}()

	// ---- upstream ----
	s.SetState(status.StateConnectingUpstream)
	if _, err := retry.Until(ctx, s.connectUpstream, s.upstreamFailed); err != nil {
		return stopErr(err)
	}

	// ---- downstream ----
	s.SetState(status.StateConnectingDownstream)
	if _, err := retry.Until(ctx, s.connectDownstream, s.downstreamFailed); err != nil {
		return stopErr(err)
	}

	// ---- running ----
	s.SetState(status.StateRunning)
	for {
		if err := s.cycle.Tick(ctx); err != nil {
			return stopErr(err)
		}
	}
}

// RecordReconnect folds an inline reconnect from the running loop into
// the status. A failure bumps the attempt counter of that side.
func (s *Supervisor) RecordReconnect(st status.State, err error) {
	if err == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch st {
	case status.StateConnectingUpstream:
		s.status.UpstreamAttempts++
	case status.StateConnectingDownstream:
		s.status.DownstreamAttempts++
	default:
		return
	}
	s.status.LastError = err.Error()
}

func (s *Supervisor) connectUpstream(ctx context.Context) error {
	err := s.up.Connect(ctx)
	s.cfg.Metrics.UpstreamConnect(err)
	return err
}

func (s *Supervisor) connectDownstream(ctx context.Context) error {
	err := s.down.Connect(ctx)
	s.cfg.Metrics.DownstreamConnect(err)
	return err
}

func (s *Supervisor) upstreamFailed(attempt int, err error) {
	s.mu.Lock()
	s.status.UpstreamAttempts = attempt
	s.status.LastError = err.Error()
	s.mu.Unlock()

	s.log.Printf("supervisor: upstream attempt %d failed: %v", attempt, err)
}

func (s *Supervisor) downstreamFailed(attempt int, err error) {
	s.mu.Lock()
	s.status.DownstreamAttempts = attempt
	s.status.LastError = err.Error()
	s.mu.Unlock()

	s.log.Printf("supervisor: downstream attempt %d failed: %v", attempt, err)
}

// shutdown closes downstream connections and listeners, then the upstream
// session. Each step is attempted even if an earlier one fails.
func (s *Supervisor) shutdown() {
	s.log.Printf("supervisor: shutting down")

	s.bestEffort("downstream close", func() error {
		return s.down.Close()
	})

	s.bestEffort("upstream disconnect", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.up.Disconnect(ctx)
		return nil
	})

	s.SetState(status.StateIdle)
	s.log.Printf("supervisor: shut down")
}

func (s *Supervisor) bestEffort(what string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Printf("supervisor: %s: panic: %v", what, r)
		}
	}()

	if err := fn(); err != nil {
		s.log.Printf("supervisor: %s: %v", what, err)
	}
}

func stopErr(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
