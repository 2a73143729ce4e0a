package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/haukened/flashsim/internal/flash/common/clock"
	"github.com/haukened/flashsim/internal/flash/common/log"
	"github.com/haukened/flashsim/internal/flash/config"
	"github.com/haukened/flashsim/internal/flash/gateways/report"
	"github.com/haukened/flashsim/internal/flash/gateways/results"
	"github.com/haukened/flashsim/internal/flash/services/driver"
	"github.com/haukened/flashsim/internal/flash/services/stats"
)

const (
	version = "0.1.0-dev"
	appName = "flashsim"
)

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Configure global logging
	err = log.Configure(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Info(map[string]any{
		"version":      version,
		"env":          cfg.Env,
		"log_level":    cfg.LogLevel,
		"run":          cfg.RunName,
		"events":       cfg.Events,
		"stats_period": cfg.StatsPeriod,
		"policy":       cfg.Policy,
		"keyspace":     cfg.Keyspace,
		"containers":   cfg.Containers,
	}, "Starting flashsim")

	// Cancel the simulation on shutdown signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info(map[string]any{"signal": sig.String()}, "Shutdown signal received")
		cancel()
	}()

	if err := run(ctx, cfg); err != nil {
		log.Fatal(map[string]any{"error": err}, "Simulation failed")
	}

	log.Info(nil, "flashsim finished")
}

// run wires the telemetry core to the simulated cache driver, runs the
// event loop, and emits the final report.
func run(ctx context.Context, cfg *config.AppConfig) error {
	clk := clock.RealClock{}

	core := stats.New(statsOptions(cfg))
	d, err := driver.New(core, driverOptions(cfg))
	if err != nil {
		return fmt.Errorf("failed to build driver: %w", err)
	}

	d.Progress = func(n int) {
		log.Debug(map[string]any{"segment": n}, "periodic stats collected")
		if err := report.PrintPeriodicStats(os.Stderr, core); err != nil {
			log.Warn(map[string]any{"error": err}, "failed to print periodic stats")
		}
	}

	start := clk.Now()
	if err := d.Run(ctx, cfg.Events); err != nil {
		return fmt.Errorf("simulation aborted: %w", err)
	}
	elapsed := clk.Now().Sub(start)

	log.Info(map[string]any{
		"elapsed":             elapsed.String(),
		"keys_seen":           core.KeysSeen(),
		"flash_bytes_written": core.FlashBytesWritten(),
		"write_amplification": core.WriteAmplification(),
		"byte_hit_ratio":      core.ByteHitRatio(),
	}, "Simulation complete")

	doc := report.DumpJSON(core)

	if cfg.ResultsDB != "" {
		st, err := results.Open(cfg.ResultsDB)
		if err != nil {
			return fmt.Errorf("failed to open results store: %w", err)
		}
		defer func() { _ = st.Close() }()
		if err := st.Put(cfg.RunName, doc); err != nil {
			return fmt.Errorf("failed to store report: %w", err)
		}
		log.Info(map[string]any{"db": cfg.ResultsDB, "run": cfg.RunName}, "Report stored")
	}

	_, err = os.Stdout.Write(doc)
	return err
}

// statsOptions maps the app config onto the telemetry core options.
func statsOptions(cfg *config.AppConfig) stats.Options {
	return stats.Options{
		Period:           cfg.StatsPeriod,
		RedundancyAware:  cfg.RedundancyAware,
		ExtendedSegments: cfg.ExtendedSegments,
		DRAMCounters:     cfg.DRAMCounters,
	}
}

// driverOptions maps the app config onto the simulated cache options.
func driverOptions(cfg *config.AppConfig) driver.Options {
	return driver.Options{
		Keyspace:       cfg.Keyspace,
		ObjectMinBytes: cfg.ObjectMinBytes,
		ObjectMaxBytes: cfg.ObjectMaxBytes,
		ContainerBytes: cfg.ContainerBytes,
		Containers:     cfg.Containers,
		DRAMEntries:    cfg.DRAMEntries,
		CopyFwdLimit:   cfg.CopyFwdLimit,
		Policy:         cfg.Policy,
		Seed:           cfg.Seed,
		Period:         cfg.StatsPeriod,
	}
}
