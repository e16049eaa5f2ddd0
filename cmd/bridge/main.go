package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/tamzrod/valve-bridge/internal/config"
	"github.com/tamzrod/valve-bridge/internal/downstream"
	"github.com/tamzrod/valve-bridge/internal/metrics"
	"github.com/tamzrod/valve-bridge/internal/relay"
	"github.com/tamzrod/valve-bridge/internal/status"
	"github.com/tamzrod/valve-bridge/internal/supervisor"
	"github.com/tamzrod/valve-bridge/internal/upstream"
)

func main() {
	// Diagnostics are a stdout feed.
	log.SetOutput(os.Stdout)

	if len(os.Args) > 2 {
		log.Fatal("usage: bridge [config.yaml]")
	}

	// --------------------
	// Load + validate config
	// --------------------

	cfg := config.Default()
	if len(os.Args) == 2 {
		loaded, err := config.Load(os.Args[1])
		if err != nil {
			log.Fatalf("config load failed: %v", err)
		}
		cfg = loaded
	}

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := log.Default()

	// --------------------
	// Metrics (optional)
	// --------------------

	var m *metrics.Metrics
	if cfg.Bridge.Metrics.Listen != "" {
		m = metrics.New()
		go func() {
			if err := m.Serve(ctx, cfg.Bridge.Metrics.Listen); err != nil {
				log.Printf("metrics server failed: %v", err)
			}
		}()
	}

	// --------------------
	// Build components
	// --------------------

	up, err := upstream.Build(cfg.Bridge, logger)
	if err != nil {
		log.Fatalf("upstream build failed: %v", err)
	}

	down, err := downstream.Build(cfg.Bridge, logger)
	if err != nil {
		log.Fatalf("downstream build failed: %v", err)
	}

	var sup *supervisor.Supervisor

	cycle, err := relay.New(relay.Config{
		Channels:    relay.Channels(cfg.Bridge),
		Logger:      logger,
		Metrics:     m,
		SetState:    func(s status.State) { sup.SetState(s) },
		Reconnected: func(s status.State, err error) { sup.RecordReconnect(s, err) },
	}, up, down)
	if err != nil {
		log.Fatalf("relay build failed: %v", err)
	}

	sup, err = supervisor.New(supervisor.Config{Logger: logger, Metrics: m}, up, down, cycle)
	if err != nil {
		log.Fatalf("supervisor build failed: %v", err)
	}

	// --------------------
	// Run until signalled (or a fault escapes)
	// --------------------

	if err := sup.Run(ctx); err != nil {
		var fe *supervisor.FaultError
		if errors.As(err, &fe) {
			log.Printf("bridge stopped on fault: %v", fe)
			os.Exit(2)
		}
		log.Printf("bridge stopped: %v", err)
		os.Exit(1)
	}
}
