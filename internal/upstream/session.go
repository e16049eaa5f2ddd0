package upstream

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/tamzrod/valve-bridge/internal/retry"
	"github.com/tamzrod/valve-bridge/internal/snapshot"
)

// Session owns the automation server connection.
// The client is discarded on failure and recreated by the dialer on the
// next Connect.
type Session struct {
	cfg    Config
	dial   Dialer
	client Client
	log    *log.Logger
}

// New creates a disconnected session with immutable config.
func New(cfg Config, dial Dialer) (*Session, error) {
	if dial == nil {
		return nil, errors.New("upstream: dialer required")
	}
	if len(cfg.Nodes) == 0 {
		return nil, errors.New("upstream: at least one channel required")
	}
	if cfg.Backoff < 0 {
		return nil, errors.New("upstream: backoff must be >= 0")
	}

	l := cfg.Logger
	if l == nil {
		l = log.Default()
	}

	return &Session{cfg: cfg, dial: dial, log: l}, nil
}

// Connected reports whether a client is currently held.
func (s *Session) Connected() bool {
	return s.client != nil
}

// Connect makes ONE attempt to open the session.
// On failure it disconnects best-effort, waits the fixed backoff and
// returns *ConnectError. The caller owns the retry loop.
func (s *Session) Connect(ctx context.Context) error {
	s.log.Printf("upstream: connecting endpoint=%s", s.cfg.Endpoint)

	// Any previous handle is considered dead.
	s.Disconnect(ctx)

	c, err := s.safeDial(ctx)
	if err == nil {
		s.client = c
		s.log.Printf("upstream: connected endpoint=%s", s.cfg.Endpoint)
		return nil
	}

	s.log.Printf("upstream: connect failed endpoint=%s: %v", s.cfg.Endpoint, err)
	s.Disconnect(ctx)
	_ = retry.Sleep(ctx, s.cfg.Backoff)

	return &ConnectError{Endpoint: s.cfg.Endpoint, Err: err}
}

// ReadAll reads every node in fixed order: all homing flags, then all main
// values, then all single-step flags (channel order within each group).
// All-or-nothing: any failure resets snap to defaults and returns
// *ReadError. Values are committed only if every read succeeded.
func (s *Session) ReadAll(ctx context.Context, snap *snapshot.Snapshot) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ReadError{Err: fmt.Errorf("panic: %v", r)}
		}
		if err != nil {
			snap.Reset()
		}
	}()

	if len(snap.Channels) != len(s.cfg.Nodes) {
		return &ReadError{Err: fmt.Errorf("snapshot has %d channels, want %d", len(snap.Channels), len(s.cfg.Nodes))}
	}
	if s.client == nil {
		return &ReadError{Err: ErrNotConnected}
	}

	staged := make([]snapshot.Values, len(s.cfg.Nodes))

	for i, n := range s.cfg.Nodes {
		v, err := s.readBool(ctx, n.Homing)
		if err != nil {
			return err
		}
		staged[i].Homing = v
	}

	for i, n := range s.cfg.Nodes {
		v, err := s.readInt(ctx, n.Main)
		if err != nil {
			return err
		}
		staged[i].Main = v
	}

	for i, n := range s.cfg.Nodes {
		v, err := s.readBool(ctx, n.SingleStep)
		if err != nil {
			return err
		}
		staged[i].SingleStep = v
	}

	// Commit only if all reads succeeded
	copy(snap.Channels, staged)
	return nil
}

// Disconnect closes the session. Best-effort: failures are logged only.
func (s *Session) Disconnect(ctx context.Context) {
	c := s.client
	s.client = nil
	if c == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.log.Printf("upstream: disconnect panic: %v", r)
		}
	}()

	if err := c.Close(ctx); err != nil {
		s.log.Printf("upstream: disconnect: %v", err)
	}
}

func (s *Session) safeDial(ctx context.Context) (c Client, err error) {
	defer func() {
		if r := recover(); r != nil {
			c, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()

	c, err = s.dial(ctx)
	if err == nil && c == nil {
		err = errors.New("dialer returned no client")
	}
	return c, err
}

func (s *Session) readBool(ctx context.Context, node string) (bool, error) {
	raw, err := s.client.ReadValue(ctx, node)
	if err != nil {
		return false, &ReadError{Node: node, Err: err}
	}
	v, err := asBool(raw)
	if err != nil {
		return false, &ReadError{Node: node, Err: err}
	}
	return v, nil
}

func (s *Session) readInt(ctx context.Context, node string) (int, error) {
	raw, err := s.client.ReadValue(ctx, node)
	if err != nil {
		return 0, &ReadError{Node: node, Err: err}
	}
	v, err := asInt(raw)
	if err != nil {
		return 0, &ReadError{Node: node, Err: err}
	}
	return v, nil
}
