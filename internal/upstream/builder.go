package upstream

import (
	"context"
	"fmt"
	"log"
	"time"

	cfg "github.com/tamzrod/valve-bridge/internal/config"
	umodbus "github.com/tamzrod/valve-bridge/internal/upstream/modbus"
	uopcua "github.com/tamzrod/valve-bridge/internal/upstream/opcua"
)

// Build constructs a Session and wires the driver's client lifecycle.
// No connection is attempted here: the supervisor owns the retry loop.
func Build(b cfg.BridgeConfig, logger *log.Logger) (*Session, error) {
	u := b.Upstream
	timeout := time.Duration(u.TimeoutMs) * time.Millisecond

	// client factory: ONE attempt per call
	var dial Dialer
	switch u.Driver {
	case cfg.DriverOPCUA:
		dial = func(ctx context.Context) (Client, error) {
			c, err := uopcua.Dial(ctx, uopcua.Config{
				Endpoint: u.Endpoint,
				Username: u.Username,
				Password: u.Password,
				Timeout:  timeout,
			})
			if err != nil {
				return nil, err
			}
			return c, nil
		}
	case cfg.DriverModbus:
		dial = func(context.Context) (Client, error) {
			c, err := umodbus.Dial(umodbus.Config{
				Endpoint: u.Endpoint,
				UnitID:   u.UnitID,
				Timeout:  timeout,
			})
			if err != nil {
				return nil, err
			}
			return c, nil
		}
	default:
		return nil, fmt.Errorf("upstream: unsupported driver %q", u.Driver)
	}

	nodes := make([]ChannelNodes, 0, len(b.Channels))
	for _, ch := range b.Channels {
		nodes = append(nodes, ChannelNodes{
			Homing:     ch.Nodes.Homing,
			Main:       ch.Nodes.Main,
			SingleStep: ch.Nodes.SingleStep,
		})
	}

	return New(
		Config{
			Endpoint: u.Endpoint,
			Nodes:    nodes,
			Backoff:  time.Duration(u.BackoffMs) * time.Millisecond,
			Logger:   logger,
		},
		dial,
	)
}
