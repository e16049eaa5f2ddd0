package downstream

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"
)

// Channel is one valve device endpoint: a listener serving exactly one
// accepted client. The backlog holds a single pending client; further
// connection attempts are refused or time out.
type Channel struct {
	Name string
	Port int

	host         string
	writeTimeout time.Duration

	mu   sync.Mutex
	ln   net.Listener
	conn net.Conn
}

// NewChannel creates an unbound channel.
// writeTimeout 0 means sends block until the kernel accepts the bytes.
func NewChannel(name, host string, port int, writeTimeout time.Duration) *Channel {
	return &Channel{
		Name:         name,
		Port:         port,
		host:         host,
		writeTimeout: writeTimeout,
	}
}

// Bind opens the listening socket with address reuse enabled and a
// backlog of one.
func (c *Channel) Bind(ctx context.Context) error {
	ln, err := listen(ctx, c.host, c.Port)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.ln = ln
	c.mu.Unlock()
	return nil
}

// AcceptOne blocks until one client connects or ctx is done.
// There is no timeout.
func (c *Channel) AcceptOne(ctx context.Context) (net.Addr, error) {
	c.mu.Lock()
	ln := c.ln
	c.mu.Unlock()
	if ln == nil {
		return nil, errors.New("downstream: channel not bound")
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = ln.Close()
		case <-done:
		}
	}()

	conn, err := ln.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	return conn.RemoteAddr(), nil
}

// Send writes the whole payload on the accepted connection.
func (c *Channel) Send(payload []byte) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return errors.New("downstream: no client connected")
	}

	if c.writeTimeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return err
		}
	}
	return writeAll(conn, payload)
}

// Addr returns the bound listener address, or nil when not bound.
func (c *Channel) Addr() net.Addr {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ln == nil {
		return nil
	}
	return c.ln.Addr()
}

// Connected reports whether a client is attached.
func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Close closes the connection and the listener independently.
func (c *Channel) Close() error {
	return errors.Join(c.closeConn(), c.closeListener())
}

func (c *Channel) closeConn() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

func (c *Channel) closeListener() error {
	c.mu.Lock()
	ln := c.ln
	c.ln = nil
	c.mu.Unlock()

	if ln == nil {
		return nil
	}
	if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

func writeAll(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}
