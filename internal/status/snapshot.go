package status

// Snapshot is the bridge status as seen by the supervisor.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	State State

	// Failed connect attempts per side, at startup and during inline
	// reconnects while running.
	UpstreamAttempts   int
	DownstreamAttempts int

	LastError string
}
