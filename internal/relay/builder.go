package relay

import cfg "github.com/tamzrod/valve-bridge/internal/config"

// Channels maps configured channels to their wire keys, in order.
func Channels(b cfg.BridgeConfig) []Channel {
	out := make([]Channel, 0, len(b.Channels))
	for _, ch := range b.Channels {
		out = append(out, Channel{
			Name: ch.Name,
			Fields: Fields{
				Homing:     ch.Fields.Homing,
				Main:       ch.Fields.Main,
				SingleStep: ch.Fields.SingleStep,
			},
		})
	}
	return out
}
