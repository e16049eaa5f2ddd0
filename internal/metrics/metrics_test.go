package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/valve-bridge/internal/status"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.Tick()
	m.Tick()
	m.ReadFailed()
	m.SendFailed("E")
	m.UpstreamConnect(nil)
	m.UpstreamConnect(errors.New("refused"))
	m.UpstreamConnect(errors.New("refused"))
	m.DownstreamConnect(nil)
	m.SetState(status.StateRunning)

	require.Equal(t, 2.0, testutil.ToFloat64(m.ticks))
	require.Equal(t, 1.0, testutil.ToFloat64(m.readFailures))
	require.Equal(t, 1.0, testutil.ToFloat64(m.sendFailures.WithLabelValues("E")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.upstreamConnects.WithLabelValues("ok")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.upstreamConnects.WithLabelValues("error")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.downConnects.WithLabelValues("ok")))
	require.Equal(t, float64(status.StateRunning), testutil.ToFloat64(m.state))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	m.Tick()
	m.ReadFailed()
	m.SendFailed("O")
	m.UpstreamConnect(nil)
	m.DownstreamConnect(errors.New("x"))
	m.SetState(status.StateIdle)
}
