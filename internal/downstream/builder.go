package downstream

import (
	"log"
	"time"

	cfg "github.com/tamzrod/valve-bridge/internal/config"
)

// Build creates one unbound channel per configured channel, in order.
func Build(b cfg.BridgeConfig, logger *log.Logger) (*Pair, error) {
	wt := time.Duration(b.Downstream.WriteTimeoutMs) * time.Millisecond

	channels := make([]*Channel, 0, len(b.Channels))
	for _, ch := range b.Channels {
		channels = append(channels, NewChannel(ch.Name, b.Downstream.Host, ch.Port, wt))
	}

	return NewPair(
		channels,
		time.Duration(b.Downstream.BackoffMs)*time.Millisecond,
		logger,
	)
}
