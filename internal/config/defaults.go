package config

const (
	DriverOPCUA  = "opcua"
	DriverModbus = "modbus"
)

const (
	DefaultEndpoint        = "opc.tcp://192.168.1.17:4840"
	DefaultHost            = "0.0.0.0"
	DefaultUpstreamTimeout = 5000
	DefaultUpstreamBackoff = 3000
	DefaultDownBackoff     = 1000
	DefaultPortE           = 4850
	DefaultPortO           = 4851
)

// Valve program variables on the WAGO controller (namespace 5, opaque
// byte-string identifiers).
const (
	NodeHomingE     = "ns=5;b=AQAAAKbhKnGK9zM6o+Y1NI3mYGeQ7iJ7heYzOovcCHuE6i5ztsZA"
	NodeSingleStepE = "ns=5;b=AQAAAKbhKnGK9zM6o+Y1NI3mYGeQ7iJ7heYzOovcE32H5CxxuvclZLbGQA=="
	NodeMainE       = "ns=5;b=AQAAAKbhKnGK9zM6o+Y1NI3mYGeQ7iJ7heYzOp7cDXWA7QVCtsZA"
	NodeHomingO     = "ns=5;b=AQAAAKbhKnGK9zM6o+Y1NI3mYGeQ7iJ7heYzOovcCHuE6i5ztsxA"
	NodeSingleStepO = "ns=5;b=AQAAAKbhKnGK9zM6o+Y1NI3mYGeQ7iJ7heYzOovcE32H5CxxuvclZLbMQA=="
	NodeMainO       = "ns=5;b=AQAAAKbhKnGK9zM6o+Y1NI3mYGeQ7iJ7heYzOp7cDXWA7QVCtsxA"

	// Positioner status words. Declared on the controller, not relayed.
	NodeStatusEposE = "ns=5;b=AQAAAKbhKnGK9zM6o+Y1NI3mYGeQ7iJ7heYzOoDcE2CI9zVntuYwe5rcBRQ="
	NodeStatusEposO = "ns=5;b=AQAAAKbhKnGK9zM6o+Y1NI3mYGeQ7iJ7heYzOoDcE2CI9zVntuYwe5rcDxQ="
)

// DefaultChannels returns the ethanol (E) and N2O (O) valve channels.
func DefaultChannels() []ChannelConfig {
	return []ChannelConfig{
		{
			Name: "E",
			Port: DefaultPortE,
			Nodes: NodeConfig{
				Homing:     NodeHomingE,
				Main:       NodeMainE,
				SingleStep: NodeSingleStepE,
			},
			Fields: FieldConfig{
				Homing:     "b_Homing_E",
				Main:       "w_Main_EV",
				SingleStep: "b_SingleStep_E",
			},
		},
		{
			Name: "O",
			Port: DefaultPortO,
			Nodes: NodeConfig{
				Homing:     NodeHomingO,
				Main:       NodeMainO,
				SingleStep: NodeSingleStepO,
			},
			Fields: FieldConfig{
				Homing:     "b_Homing_O",
				Main:       "w_Main_OV",
				SingleStep: "b_SingleStep_O",
			},
		},
	}
}

// Default returns the compiled-in bridge configuration.
func Default() *Config {
	cfg := &Config{}
	Normalize(cfg)
	return cfg
}
