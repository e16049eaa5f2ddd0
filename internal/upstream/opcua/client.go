package opcua

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gopcua/opcua"
	"github.com/gopcua/opcua/ua"
)

// Client implements upstream.Client over an OPC UA session.
// Reads are scalar Value-attribute reads, one node per request.
type Client struct {
	c     *opcua.Client
	nodes map[string]*ua.NodeID
}

// Config is minimal session config.
type Config struct {
	Endpoint string
	Username string // blank => anonymous
	Password string
	Timeout  time.Duration
}

// Dial opens and activates a session. ONE attempt.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("opcua client: endpoint required")
	}

	opts := []opcua.Option{
		opcua.SecurityPolicy(ua.SecurityPolicyURINone),
		opcua.SecurityMode(ua.MessageSecurityModeNone),
		// Reconnects are owned by the upstream session.
		opcua.AutoReconnect(false),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, opcua.RequestTimeout(cfg.Timeout))
	}
	if cfg.Username != "" {
		opts = append(opts, opcua.AuthUsername(cfg.Username, cfg.Password))
	} else {
		opts = append(opts, opcua.AuthAnonymous())
	}

	c, err := opcua.NewClient(cfg.Endpoint, opts...)
	if err != nil {
		return nil, err
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	if err := c.Connect(ctx); err != nil {
		_ = c.Close(context.Background())
		return nil, err
	}

	return &Client{c: c, nodes: make(map[string]*ua.NodeID)}, nil
}

// Close closes the session and the secure channel.
func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.c == nil {
		return nil
	}
	return c.c.Close(ctx)
}

// ReadValue reads the current value of one node.
func (c *Client) ReadValue(ctx context.Context, node string) (any, error) {
	if c == nil || c.c == nil {
		return nil, errors.New("opcua client: not connected")
	}

	id, err := c.nodeID(node)
	if err != nil {
		return nil, err
	}

	req := &ua.ReadRequest{
		MaxAge: 0,
		NodesToRead: []*ua.ReadValueID{
			{NodeID: id, AttributeID: ua.AttributeIDValue},
		},
		TimestampsToReturn: ua.TimestampsToReturnNeither,
	}

	resp, err := c.c.Read(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp == nil || len(resp.Results) != 1 {
		return nil, fmt.Errorf("opcua: node %s: unexpected result count", node)
	}

	dv := resp.Results[0]
	if dv.Status != ua.StatusOK {
		return nil, fmt.Errorf("opcua: node %s: %w", node, dv.Status)
	}
	if dv.Value == nil {
		return nil, fmt.Errorf("opcua: node %s: no value", node)
	}

	return dv.Value.Value(), nil
}

func (c *Client) nodeID(node string) (*ua.NodeID, error) {
	if id, ok := c.nodes[node]; ok {
		return id, nil
	}
	id, err := ua.ParseNodeID(node)
	if err != nil {
		return nil, fmt.Errorf("opcua: node %q: %w", node, err)
	}
	c.nodes[node] = id
	return id, nil
}
