package downstream

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/tamzrod/valve-bridge/internal/retry"
)

// Pair is the ordered set of channel listeners (E then O for the valve
// bridge). Channels are brought up and torn down together.
type Pair struct {
	channels []*Channel
	backoff  time.Duration
	log      *log.Logger
}

// NewPair groups channels in bring-up order.
func NewPair(channels []*Channel, backoff time.Duration, logger *log.Logger) (*Pair, error) {
	if len(channels) == 0 {
		return nil, errors.New("downstream: at least one channel required")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Pair{channels: channels, backoff: backoff, log: logger}, nil
}

// Channels returns the channels in bring-up order.
func (p *Pair) Channels() []*Channel {
	return p.channels
}

// Connect tears every channel down, then binds and accepts each channel
// in order. The first failure stops the pass: all channels are closed,
// the fixed backoff elapses and *BindError is returned.
func (p *Pair) Connect(ctx context.Context) error {
	if err := p.Close(); err != nil {
		p.log.Printf("downstream: teardown before re-arm: %v", err)
	}

	for _, ch := range p.channels {
		if err := p.arm(ctx, ch); err != nil {
			p.log.Printf("downstream: channel %s failed: %v", ch.Name, err)

			if cerr := p.Close(); cerr != nil {
				p.log.Printf("downstream: close partial state: %v", cerr)
			}
			_ = retry.Sleep(ctx, p.backoff)

			return &BindError{Channel: ch.Name, Port: ch.Port, Err: err}
		}
	}

	return nil
}

func (p *Pair) arm(ctx context.Context, ch *Channel) error {
	if err := ch.Bind(ctx); err != nil {
		return err
	}
	p.log.Printf("downstream: channel %s listening on %s", ch.Name, ch.Addr())
	p.log.Printf("downstream: waiting for channel %s client", ch.Name)

	remote, err := ch.AcceptOne(ctx)
	if err != nil {
		return err
	}
	p.log.Printf("downstream: channel %s client connected from %s", ch.Name, remote)
	return nil
}

// Send writes payloads[i] on channel i, in order.
// Any failure stops the pass and returns *SendError; the caller must
// Connect again before the next send.
func (p *Pair) Send(payloads [][]byte) error {
	if len(payloads) != len(p.channels) {
		return fmt.Errorf("downstream: %d payloads for %d channels", len(payloads), len(p.channels))
	}

	for i, ch := range p.channels {
		if err := ch.Send(payloads[i]); err != nil {
			return &SendError{Channel: ch.Name, Err: err}
		}
	}
	return nil
}

// Close closes every client connection, then every listener.
// Each close is attempted regardless of earlier failures.
func (p *Pair) Close() error {
	var errs []error

	for _, ch := range p.channels {
		if err := ch.closeConn(); err != nil {
			errs = append(errs, fmt.Errorf("channel %s conn: %w", ch.Name, err))
		}
	}
	for _, ch := range p.channels {
		if err := ch.closeListener(); err != nil {
			errs = append(errs, fmt.Errorf("channel %s listener: %w", ch.Name, err))
		}
	}

	return errors.Join(errs...)
}

// Addr returns the bound address of the named channel, or nil.
func (p *Pair) Addr(name string) net.Addr {
	for _, ch := range p.channels {
		if ch.Name == name {
			return ch.Addr()
		}
	}
	return nil
}
