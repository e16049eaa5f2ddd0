package config

type Config struct {
	Bridge BridgeConfig `yaml:"bridge"`
}

type BridgeConfig struct {
	Upstream   UpstreamConfig   `yaml:"upstream"`
	Downstream DownstreamConfig `yaml:"downstream"`
	Channels   []ChannelConfig  `yaml:"channels"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// ---- UPSTREAM ----

type UpstreamConfig struct {
	Driver   string `yaml:"driver"` // opcua | modbus
	Endpoint string `yaml:"endpoint"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// 0 or omitted selects the default (5000 / 3000).
	TimeoutMs int `yaml:"timeout_ms"`
	BackoffMs int `yaml:"backoff_ms"`

	// Modbus slave id (modbus driver only)
	UnitID uint8 `yaml:"unit_id"`
}

// ---- DOWNSTREAM ----

type DownstreamConfig struct {
	Host string `yaml:"host"`

	// 0 or omitted selects the default (1000).
	BackoffMs int `yaml:"backoff_ms"`

	// 0 disables the write deadline (blocking send).
	WriteTimeoutMs int `yaml:"write_timeout_ms"`
}

// ---- CHANNEL ----

// ChannelConfig binds one valve device: its listener port, the three
// upstream nodes it is fed from and the JSON keys it receives.
type ChannelConfig struct {
	Name   string      `yaml:"name"`
	Port   int         `yaml:"port"`
	Nodes  NodeConfig  `yaml:"nodes"`
	Fields FieldConfig `yaml:"fields"`
}

type NodeConfig struct {
	Homing     string `yaml:"homing"`
	Main       string `yaml:"main"`
	SingleStep string `yaml:"single_step"`
}

type FieldConfig struct {
	Homing     string `yaml:"homing"`
	Main       string `yaml:"main"`
	SingleStep string `yaml:"single_step"`
}

// ---- METRICS ----

type MetricsConfig struct {
	Listen string `yaml:"listen"` // empty disables
}
