package relay

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/tamzrod/valve-bridge/internal/downstream"
	"github.com/tamzrod/valve-bridge/internal/metrics"
	"github.com/tamzrod/valve-bridge/internal/snapshot"
	"github.com/tamzrod/valve-bridge/internal/status"
)

// Upstream is the session contract the cycle drives.
type Upstream interface {
	Connect(ctx context.Context) error
	ReadAll(ctx context.Context, snap *snapshot.Snapshot) error
	Disconnect(ctx context.Context)
}

// Downstream is the listener pair contract the cycle drives.
type Downstream interface {
	Connect(ctx context.Context) error
	Send(payloads [][]byte) error
	Close() error
}

// Channel names one downstream channel and its wire keys.
type Channel struct {
	Name   string
	Fields Fields
}

type Config struct {
	Channels []Channel
	Logger   *log.Logger
	Metrics  *metrics.Metrics

	// SetState (optional) observes inline reconnects.
	SetState func(status.State)

	// Reconnected (optional) receives the outcome of each inline
	// reconnect, keyed by the connecting state it ran under.
	Reconnected func(status.State, error)
}

// Cycle is the steady-state read-then-send pass.
// It owns the snapshot; nothing else writes it.
type Cycle struct {
	cfg  Config
	up   Upstream
	down Downstream
	snap *snapshot.Snapshot
	log  *log.Logger
}

func New(cfg Config, up Upstream, down Downstream) (*Cycle, error) {
	if up == nil || down == nil {
		return nil, errors.New("relay: upstream and downstream required")
	}
	if len(cfg.Channels) == 0 {
		return nil, errors.New("relay: at least one channel required")
	}

	l := cfg.Logger
	if l == nil {
		l = log.Default()
	}

	return &Cycle{
		cfg:  cfg,
		up:   up,
		down: down,
		snap: snapshot.New(len(cfg.Channels)),
		log:  l,
	}, nil
}

// Snapshot returns the live snapshot. Read it between ticks only.
func (c *Cycle) Snapshot() *snapshot.Snapshot {
	return c.snap
}

// Tick performs exactly one pass: read, send, report.
// Failures on either side are recovered inline with ONE reconnect attempt
// and never abort the pass. Only ctx errors are returned.
func (c *Cycle) Tick(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// ---- read ----
	if err := c.up.ReadAll(ctx, c.snap); err != nil {
		c.log.Printf("relay: upstream read failed: %v", err)
		c.cfg.Metrics.ReadFailed()

		// Safe defaults go out this tick, never stale values.
		c.snap.Reset()

		c.setState(status.StateConnectingUpstream)
		cerr := c.up.Connect(ctx)
		c.cfg.Metrics.UpstreamConnect(cerr)
		c.reconnected(status.StateConnectingUpstream, cerr)
		c.setState(status.StateRunning)
	}

	// ---- send ----
	if err := c.down.Send(c.payloads()); err != nil {
		c.log.Printf("relay: %v", err)

		var serr *downstream.SendError
		if errors.As(err, &serr) {
			c.cfg.Metrics.SendFailed(serr.Channel)
		} else {
			c.cfg.Metrics.SendFailed("")
		}

		c.setState(status.StateConnectingDownstream)
		derr := c.down.Connect(ctx)
		c.cfg.Metrics.DownstreamConnect(derr)
		c.reconnected(status.StateConnectingDownstream, derr)
		c.setState(status.StateRunning)
	}

	// ---- report ----
	first := c.cfg.Channels[0]
	c.log.Printf("homing_%s: %v", strings.ToLower(first.Name), c.snap.Channels[0].Homing)
	c.cfg.Metrics.Tick()

	return ctx.Err()
}

func (c *Cycle) payloads() [][]byte {
	out := make([][]byte, len(c.cfg.Channels))
	for i, ch := range c.cfg.Channels {
		out[i] = Encode(ch.Fields, c.snap.Channels[i])
	}
	return out
}

func (c *Cycle) setState(s status.State) {
	if c.cfg.SetState != nil {
		c.cfg.SetState(s)
	}
}

func (c *Cycle) reconnected(s status.State, err error) {
	if c.cfg.Reconnected != nil {
		c.cfg.Reconnected(s, err)
	}
}
