package relay

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"

	cfg "github.com/tamzrod/valve-bridge/internal/config"
	"github.com/tamzrod/valve-bridge/internal/downstream"
	"github.com/tamzrod/valve-bridge/internal/snapshot"
	"github.com/tamzrod/valve-bridge/internal/status"
)

// ---- fakes ----

type readStep struct {
	values  []snapshot.Values
	partial bool // write channel 0 homing before failing
	err     error
}

type fakeUpstream struct {
	steps      []readStep
	connects   int
	connectErr error
}

func (f *fakeUpstream) ReadAll(_ context.Context, snap *snapshot.Snapshot) error {
	step := f.steps[0]
	if len(f.steps) > 1 {
		f.steps = f.steps[1:]
	}
	if step.err != nil {
		if step.partial {
			snap.Channels[0].Homing = true
		}
		return step.err
	}
	copy(snap.Channels, step.values)
	return nil
}

func (f *fakeUpstream) Connect(context.Context) error {
	f.connects++
	return f.connectErr
}

func (f *fakeUpstream) Disconnect(context.Context) {}

type fakeDownstream struct {
	sent     [][][]byte
	failNext error
	connects int
}

func (f *fakeDownstream) Send(payloads [][]byte) error {
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return err
	}
	f.sent = append(f.sent, payloads)
	return nil
}

func (f *fakeDownstream) Connect(context.Context) error {
	f.connects++
	return nil
}

func (f *fakeDownstream) Close() error { return nil }

func newCycle(t *testing.T, up Upstream, down Downstream, out *bytes.Buffer, states *[]status.State) *Cycle {
	t.Helper()
	c, err := New(Config{
		Channels: Channels(cfg.Default().Bridge),
		Logger:   log.New(out, "", 0),
		SetState: func(s status.State) {
			if states != nil {
				*states = append(*states, s)
			}
		},
	}, up, down)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	return c
}

// ---- tests ----

func TestTick_RelaysEachChannel(t *testing.T) {
	up := &fakeUpstream{steps: []readStep{{values: []snapshot.Values{
		{Homing: true, Main: 7, SingleStep: false},
		{Homing: false, Main: 0, SingleStep: true},
	}}}}
	down := &fakeDownstream{}
	var out bytes.Buffer

	c := newCycle(t, up, down, &out, nil)
	if err := c.Tick(context.Background()); err != nil {
		t.Fatalf("Tick err=%v", err)
	}

	if len(down.sent) != 1 {
		t.Fatalf("expected 1 send, got %d", len(down.sent))
	}
	gotE, gotO := string(down.sent[0][0]), string(down.sent[0][1])
	if gotE != `{"b_Homing_E": true, "w_Main_EV": 7, "b_SingleStep_E": false}`+"\n" {
		t.Fatalf("unexpected E payload %q", gotE)
	}
	if gotO != `{"b_Homing_O": false, "w_Main_OV": 0, "b_SingleStep_O": true}`+"\n" {
		t.Fatalf("unexpected O payload %q", gotO)
	}
	if strings.Contains(gotE, "_O") || strings.Contains(gotO, "_E") {
		t.Fatalf("cross-channel field leak: E=%q O=%q", gotE, gotO)
	}
	if up.connects != 0 || down.connects != 0 {
		t.Fatalf("no reconnect expected: up=%d down=%d", up.connects, down.connects)
	}
	if !strings.Contains(out.String(), "homing_e: true") {
		t.Fatalf("missing diagnostic line, got %q", out.String())
	}
}

func TestTick_ReadFailureSendsDefaultsAndReconnects(t *testing.T) {
	up := &fakeUpstream{steps: []readStep{
		{values: []snapshot.Values{{Homing: true, Main: 9, SingleStep: true}, {Main: 4}}},
		{partial: true, err: errors.New("node unreadable")},
	}}
	down := &fakeDownstream{}
	var states []status.State

	c := newCycle(t, up, down, &bytes.Buffer{}, &states)

	// First tick populates fresh values.
	if err := c.Tick(context.Background()); err != nil {
		t.Fatal(err)
	}
	// Second tick fails after a partial write.
	if err := c.Tick(context.Background()); err != nil {
		t.Fatal(err)
	}

	if !c.Snapshot().IsZero() {
		t.Fatalf("snapshot not reset: %+v", c.Snapshot().Channels)
	}
	if up.connects != 1 {
		t.Fatalf("expected 1 upstream reconnect, got %d", up.connects)
	}

	last := down.sent[len(down.sent)-1]
	if string(last[0]) != `{"b_Homing_E": false, "w_Main_EV": 0, "b_SingleStep_E": false}`+"\n" {
		t.Fatalf("E payload not defaults: %q", last[0])
	}
	if string(last[1]) != `{"b_Homing_O": false, "w_Main_OV": 0, "b_SingleStep_O": false}`+"\n" {
		t.Fatalf("O payload not defaults: %q", last[1])
	}

	want := []status.State{status.StateConnectingUpstream, status.StateRunning}
	if len(states) != 2 || states[0] != want[0] || states[1] != want[1] {
		t.Fatalf("unexpected state trail %v", states)
	}
}

func TestTick_SendFailureReconnectsDownstream(t *testing.T) {
	up := &fakeUpstream{steps: []readStep{{values: []snapshot.Values{{Main: 1}, {Main: 2}}}}}
	down := &fakeDownstream{failNext: &downstream.SendError{Channel: "E", Err: errors.New("broken pipe")}}

	c := newCycle(t, up, down, &bytes.Buffer{}, nil)

	if err := c.Tick(context.Background()); err != nil {
		t.Fatal(err)
	}
	if down.connects != 1 {
		t.Fatalf("expected 1 downstream reconnect, got %d", down.connects)
	}
	if len(down.sent) != 0 {
		t.Fatalf("nothing should have been delivered")
	}

	if err := c.Tick(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(down.sent) != 1 {
		t.Fatalf("expected delivery on next tick, got %d", len(down.sent))
	}
}

func TestTick_CancelledContext(t *testing.T) {
	up := &fakeUpstream{steps: []readStep{{values: []snapshot.Values{{}, {}}}}}
	down := &fakeDownstream{}

	c := newCycle(t, up, down, &bytes.Buffer{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := c.Tick(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(down.sent) != 0 {
		t.Fatalf("cancelled tick must not send")
	}
}

func TestTick_ReconnectOutcomeReported(t *testing.T) {
	up := &fakeUpstream{
		steps:      []readStep{{err: errors.New("session lost")}},
		connectErr: errors.New("refused"),
	}
	down := &fakeDownstream{failNext: &downstream.SendError{Channel: "O", Err: errors.New("reset")}}

	type outcome struct {
		state status.State
		err   error
	}
	var got []outcome

	c, err := New(Config{
		Channels:    Channels(cfg.Default().Bridge),
		Logger:      log.New(&bytes.Buffer{}, "", 0),
		Reconnected: func(s status.State, err error) { got = append(got, outcome{s, err}) },
	}, up, down)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	if err := c.Tick(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 reconnect outcomes, got %+v", got)
	}
	if got[0].state != status.StateConnectingUpstream || got[0].err == nil {
		t.Fatalf("unexpected upstream outcome %+v", got[0])
	}
	if got[1].state != status.StateConnectingDownstream || got[1].err != nil {
		t.Fatalf("unexpected downstream outcome %+v", got[1])
	}
}
