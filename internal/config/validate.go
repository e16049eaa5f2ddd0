package config

import (
	"fmt"

	"github.com/gopcua/opcua/ua"

	umodbus "github.com/tamzrod/valve-bridge/internal/upstream/modbus"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil")
	}

	b := cfg.Bridge

	// ------------------------------------------------------------
	// UPSTREAM
	// ------------------------------------------------------------

	switch b.Upstream.Driver {
	case DriverOPCUA, DriverModbus:
	default:
		return fmt.Errorf("upstream: unsupported driver %q", b.Upstream.Driver)
	}

	if b.Upstream.Endpoint == "" {
		return fmt.Errorf("upstream: endpoint required")
	}
	if b.Upstream.TimeoutMs < 0 {
		return fmt.Errorf("upstream: timeout_ms must be >= 0")
	}
	if b.Upstream.BackoffMs < 0 {
		return fmt.Errorf("upstream: backoff_ms must be >= 0")
	}
	if b.Upstream.Password != "" && b.Upstream.Username == "" {
		return fmt.Errorf("upstream: password set without username")
	}

	// ------------------------------------------------------------
	// DOWNSTREAM
	// ------------------------------------------------------------

	if b.Downstream.BackoffMs < 0 {
		return fmt.Errorf("downstream: backoff_ms must be >= 0")
	}
	if b.Downstream.WriteTimeoutMs < 0 {
		return fmt.Errorf("downstream: write_timeout_ms must be >= 0")
	}

	// ------------------------------------------------------------
	// CHANNELS (one consumer per port, unique JSON keys)
	// ------------------------------------------------------------

	if len(b.Channels) == 0 {
		return fmt.Errorf("channels: at least one channel required")
	}

	names := make(map[string]struct{})
	ports := make(map[int]string)

	for _, ch := range b.Channels {
		if ch.Name == "" {
			return fmt.Errorf("channels: name required")
		}
		if _, exists := names[ch.Name]; exists {
			return fmt.Errorf("channel %q: duplicate name", ch.Name)
		}
		names[ch.Name] = struct{}{}

		if ch.Port < 1 || ch.Port > 65535 {
			return fmt.Errorf("channel %q: port %d out of range", ch.Name, ch.Port)
		}
		if prev, exists := ports[ch.Port]; exists {
			return fmt.Errorf(
				"port collision: port=%d used by channels %q and %q",
				ch.Port,
				prev,
				ch.Name,
			)
		}
		ports[ch.Port] = ch.Name

		if ch.Nodes.Homing == "" || ch.Nodes.Main == "" || ch.Nodes.SingleStep == "" {
			return fmt.Errorf("channel %q: homing, main and single_step nodes required", ch.Name)
		}
		for _, node := range []string{ch.Nodes.Homing, ch.Nodes.Main, ch.Nodes.SingleStep} {
			if err := checkNode(b.Upstream.Driver, node); err != nil {
				return fmt.Errorf("channel %q: %s node %q: %w", ch.Name, b.Upstream.Driver, node, err)
			}
		}

		f := ch.Fields
		if f.Homing == "" || f.Main == "" || f.SingleStep == "" {
			return fmt.Errorf("channel %q: homing, main and single_step fields required", ch.Name)
		}
		if f.Homing == f.Main || f.Homing == f.SingleStep || f.Main == f.SingleStep {
			return fmt.Errorf("channel %q: field names must be distinct", ch.Name)
		}
	}

	return nil
}

// checkNode parses a node reference with the selected driver's syntax.
func checkNode(driver, node string) error {
	switch driver {
	case DriverModbus:
		_, err := umodbus.ParseRef(node)
		return err
	default:
		_, err := ua.ParseNodeID(node)
		return err
	}
}
