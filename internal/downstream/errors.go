package downstream

import "fmt"

// BindError reports a failed listen or accept on one channel.
type BindError struct {
	Channel string
	Port    int
	Err     error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("downstream: channel %s port %d: %v", e.Channel, e.Port, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }

// SendError reports a failed payload write on one channel.
// Any SendError invalidates every channel of the pair.
type SendError struct {
	Channel string
	Err     error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("downstream: send channel %s: %v", e.Channel, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }
