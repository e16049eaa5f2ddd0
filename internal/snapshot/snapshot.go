package snapshot

// Values is the latest known state of one valve channel.
type Values struct {
	Homing     bool
	Main       int
	SingleStep bool
}

// Snapshot holds one Values per configured channel, in channel order.
// It is overwritten every tick and carries no history.
type Snapshot struct {
	Channels []Values
}

// New returns an all-defaults snapshot for n channels.
func New(n int) *Snapshot {
	return &Snapshot{Channels: make([]Values, n)}
}

// Reset reverts every channel to its safe default (false / 0).
func (s *Snapshot) Reset() {
	for i := range s.Channels {
		s.Channels[i] = Values{}
	}
}

// IsZero reports whether every channel holds default values.
func (s *Snapshot) IsZero() bool {
	for _, v := range s.Channels {
		if v != (Values{}) {
			return false
		}
	}
	return true
}
