package snapshot

import "testing"

func TestReset(t *testing.T) {
	s := New(2)
	if !s.IsZero() {
		t.Fatalf("new snapshot must be all defaults")
	}

	s.Channels[0] = Values{Homing: true, Main: 7}
	s.Channels[1] = Values{SingleStep: true}
	if s.IsZero() {
		t.Fatalf("expected non-default snapshot")
	}

	s.Reset()
	if !s.IsZero() {
		t.Fatalf("reset left values: %+v", s.Channels)
	}
	if len(s.Channels) != 2 {
		t.Fatalf("reset must keep channel count")
	}
}
