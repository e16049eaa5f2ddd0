package status

// ---- SUPERVISOR STATES ----

// State is the supervisor lifecycle state.
type State uint16

const (
	// StateIdle is the boot and terminal state.
	StateIdle State = iota

	// StateConnectingUpstream retries the automation server session.
	StateConnectingUpstream

	// StateConnectingDownstream re-arms both channel listeners.
	StateConnectingDownstream

	// StateRunning ticks the relay cycle.
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnectingUpstream:
		return "connecting_upstream"
	case StateConnectingDownstream:
		return "connecting_downstream"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}
