package config

import "strings"

// Normalize fills unset fields with compiled-in defaults.
// It is allowed to mutate configuration.
// Call it before Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	b := &cfg.Bridge

	// ---- upstream ----
	b.Upstream.Driver = strings.ToLower(strings.TrimSpace(b.Upstream.Driver))
	if b.Upstream.Driver == "" {
		b.Upstream.Driver = DriverOPCUA
	}
	if b.Upstream.Endpoint == "" && b.Upstream.Driver == DriverOPCUA {
		b.Upstream.Endpoint = DefaultEndpoint
	}
	if b.Upstream.TimeoutMs == 0 {
		b.Upstream.TimeoutMs = DefaultUpstreamTimeout
	}
	if b.Upstream.BackoffMs == 0 {
		b.Upstream.BackoffMs = DefaultUpstreamBackoff
	}
	if b.Upstream.Driver == DriverModbus && b.Upstream.UnitID == 0 {
		b.Upstream.UnitID = 1
	}

	// ---- downstream ----
	if b.Downstream.Host == "" {
		b.Downstream.Host = DefaultHost
	}
	if b.Downstream.BackoffMs == 0 {
		b.Downstream.BackoffMs = DefaultDownBackoff
	}

	// ---- channels ----
	// The compiled-in nodes are OPC UA ids; a modbus setup lists its own.
	if len(b.Channels) == 0 && b.Upstream.Driver == DriverOPCUA {
		b.Channels = DefaultChannels()
	}
	for i := range b.Channels {
		b.Channels[i].Name = strings.TrimSpace(b.Channels[i].Name)
	}
}
