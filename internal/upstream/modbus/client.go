package modbus

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// Client implements upstream.Client over Modbus TCP.
// Node refs are "<area>:<address>" with area one of
// coil, discrete, holding, input.
type Client struct {
	mu      sync.Mutex
	handler *modbus.TCPClientHandler
	client  modbus.Client
}

type Config struct {
	Endpoint string
	UnitID   uint8
	Timeout  time.Duration
}

// Area is the Modbus data table a node lives in.
type Area uint8

const (
	AreaCoil     Area = 1 // FC 1
	AreaDiscrete Area = 2 // FC 2
	AreaHolding  Area = 3 // FC 3
	AreaInput    Area = 4 // FC 4
)

// Ref is a parsed node reference.
type Ref struct {
	Area    Area
	Address uint16
}

// Dial creates a connected Modbus TCP client. ONE attempt.
func Dial(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("modbus client: endpoint required")
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout
	h.SlaveId = cfg.UnitID

	if err := h.Connect(); err != nil {
		return nil, err
	}

	return &Client{
		handler: h,
		client:  modbus.NewClient(h),
	}, nil
}

func (c *Client) Close(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler.Close()
}

// ReadValue returns bool for coil/discrete refs and uint16 for registers.
func (c *Client) ReadValue(_ context.Context, node string) (any, error) {
	ref, err := ParseRef(node)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch ref.Area {
	case AreaCoil:
		b, err := c.client.ReadCoils(ref.Address, 1)
		if err != nil {
			return nil, err
		}
		return firstBit(b)
	case AreaDiscrete:
		b, err := c.client.ReadDiscreteInputs(ref.Address, 1)
		if err != nil {
			return nil, err
		}
		return firstBit(b)
	case AreaHolding:
		b, err := c.client.ReadHoldingRegisters(ref.Address, 1)
		if err != nil {
			return nil, err
		}
		return firstRegister(b)
	case AreaInput:
		b, err := c.client.ReadInputRegisters(ref.Address, 1)
		if err != nil {
			return nil, err
		}
		return firstRegister(b)
	default:
		return nil, fmt.Errorf("modbus: unsupported area %d", ref.Area)
	}
}

// ParseRef parses "coil:12", "holding:40" and the like.
func ParseRef(node string) (Ref, error) {
	area, addr, ok := strings.Cut(strings.TrimSpace(node), ":")
	if !ok {
		return Ref{}, fmt.Errorf("modbus: node %q: want <area>:<address>", node)
	}

	var r Ref
	switch strings.ToLower(area) {
	case "coil":
		r.Area = AreaCoil
	case "discrete":
		r.Area = AreaDiscrete
	case "holding":
		r.Area = AreaHolding
	case "input":
		r.Area = AreaInput
	default:
		return Ref{}, fmt.Errorf("modbus: node %q: unknown area %q", node, area)
	}

	n, err := strconv.ParseUint(addr, 10, 16)
	if err != nil {
		return Ref{}, fmt.Errorf("modbus: node %q: %w", node, err)
	}
	r.Address = uint16(n)

	return r, nil
}

// ---- helpers (pure geometry) ----

func firstBit(data []byte) (bool, error) {
	if len(data) < 1 {
		return false, errors.New("modbus: short read-bits payload")
	}
	return data[0]&0x01 != 0, nil
}

func firstRegister(data []byte) (uint16, error) {
	if len(data) < 2 {
		return 0, errors.New("modbus: short read-registers payload")
	}
	return uint16(data[0])<<8 | uint16(data[1]), nil
}
