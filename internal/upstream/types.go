package upstream

import (
	"context"
	"log"
	"time"
)

// Client abstracts the automation server operations needed by the session.
// The session depends on "read current value of node X" only.
type Client interface {
	ReadValue(ctx context.Context, node string) (any, error)
	Close(ctx context.Context) error
}

// Dialer opens a new client. ONE attempt per call.
type Dialer func(ctx context.Context) (Client, error)

// ChannelNodes are the three node addresses feeding one channel.
type ChannelNodes struct {
	Homing     string
	Main       string
	SingleStep string
}

// Config is the minimal runtime config the session needs.
type Config struct {
	Endpoint string // diagnostics only
	Nodes    []ChannelNodes
	Backoff  time.Duration
	Logger   *log.Logger
}
