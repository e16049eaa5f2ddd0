package metrics

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tamzrod/valve-bridge/internal/status"
)

// Metrics groups the bridge collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	reg prometheus.Gatherer

	ticks            prometheus.Counter
	readFailures     prometheus.Counter
	sendFailures     *prometheus.CounterVec
	upstreamConnects *prometheus.CounterVec
	downConnects     *prometheus.CounterVec
	state            prometheus.Gauge
}

// New registers the bridge collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		reg: reg,
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "valve_bridge_ticks_total",
			Help: "Relay cycles completed.",
		}),
		readFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "valve_bridge_upstream_read_failures_total",
			Help: "Batch reads that failed and reset the snapshot.",
		}),
		sendFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "valve_bridge_downstream_send_failures_total",
			Help: "Payload sends that failed, by channel.",
		}, []string{"channel"}),
		upstreamConnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "valve_bridge_upstream_connects_total",
			Help: "Upstream session connect attempts, by result.",
		}, []string{"result"}),
		downConnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "valve_bridge_downstream_connects_total",
			Help: "Downstream listener pair setups, by result.",
		}, []string{"result"}),
		state: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "valve_bridge_state",
			Help: "Supervisor state (0 idle, 1 connecting upstream, 2 connecting downstream, 3 running).",
		}),
	}

	reg.MustRegister(
		m.ticks,
		m.readFailures,
		m.sendFailures,
		m.upstreamConnects,
		m.downConnects,
		m.state,
	)

	return m
}

func (m *Metrics) Tick() {
	if m == nil {
		return
	}
	m.ticks.Inc()
}

func (m *Metrics) ReadFailed() {
	if m == nil {
		return
	}
	m.readFailures.Inc()
}

func (m *Metrics) SendFailed(channel string) {
	if m == nil {
		return
	}
	m.sendFailures.WithLabelValues(channel).Inc()
}

func (m *Metrics) UpstreamConnect(err error) {
	if m == nil {
		return
	}
	m.upstreamConnects.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) DownstreamConnect(err error) {
	if m == nil {
		return
	}
	m.downConnects.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) SetState(s status.State) {
	if m == nil {
		return
	}
	m.state.Set(float64(s))
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	if m == nil {
		return errors.New("metrics: disabled")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("metrics: shutdown: %v", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
