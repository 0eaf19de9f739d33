package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/kaelos/devdeck/internal/config"
	"github.com/kaelos/devdeck/internal/history"
	"github.com/kaelos/devdeck/internal/history/factory"
	"github.com/kaelos/devdeck/internal/logger"
	"github.com/kaelos/devdeck/internal/loglens"
	"github.com/kaelos/devdeck/internal/metrics"
	"github.com/kaelos/devdeck/internal/registry"
	"github.com/kaelos/devdeck/internal/server"
	"github.com/kaelos/devdeck/internal/stream"
)

func createServeCommand(flags *ServeFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [config.toml]",
		Short: "Start the devdeck daemon",
		Long: `Start the daemon that receives orchestrator updates and serves the
dashboard API. Without a config file every setting uses its default.

Examples:
  devdeck serve                     # Defaults, listen on :4100
  devdeck serve config.toml         # Load settings from file
  devdeck serve --listen=:5000      # Override the listen address`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServeCommand(flags, args)
		},
	}
	cmd.Flags().StringVar(&flags.ConfigPath, "config", "", "path to TOML config file (optional)")
	cmd.Flags().StringVar(&flags.Listen, "listen", "", "listen address, overrides config")
	cmd.Flags().StringVar(&flags.Upstream, "upstream", "", "orchestrator base URL, overrides config")
	return cmd
}

func runServeCommand(flags *ServeFlags, args []string) error {
	configPath := flags.ConfigPath
	if len(args) > 0 {
		configPath = args[0]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if flags.Listen != "" {
		cfg.Listen = flags.Listen
	}
	if flags.Upstream != "" {
		cfg.Upstream = flags.Upstream
	}

	log, closer := logger.New(cfg.Log)
	defer func() { _ = closer.Close() }()
	slog.SetDefault(log)

	if len(cfg.Palette) > 0 {
		loglens.Palette = cfg.Palette
	}

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		log.Warn("metrics registration failed", "error", err)
	}
	sampler := metrics.NewResourceSampler()
	if err := sampler.RegisterMetrics(prometheus.DefaultRegisterer); err != nil {
		log.Warn("resource metrics registration failed", "error", err)
	}

	reg, err := registry.New(registry.Options{
		LogBuffer:    cfg.Registry.LogBuffer,
		OperationTTL: cfg.Registry.OperationTTL,
		ErrorTTL:     cfg.Registry.ErrorTTL,
		Rules:        cfg.Classify,
	})
	if err != nil {
		return fmt.Errorf("registry: %w", err)
	}
	if cfg.Project != "" {
		reg.SetProject(cfg.Project)
	}

	hub := stream.NewHub()
	defer hub.Close()

	var sink history.Sink
	if cfg.History != "" {
		sink, err = factory.NewSinkFromDSN(cfg.History)
		if err != nil {
			return fmt.Errorf("history sink: %w", err)
		}
		log.Info("history sink enabled", "dsn", cfg.History)
	}

	srv, err := server.NewServer(cfg.Listen, server.Options{
		Registry:          reg,
		Hub:               hub,
		Logger:            log,
		Sink:              sink,
		Sampler:           sampler,
		BasePath:          cfg.BasePath,
		Upstream:          cfg.Upstream,
		HealthInterval:    cfg.Stream.HealthInterval,
		HeartbeatInterval: cfg.Stream.HeartbeatInterval,
	})
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}
	log.Info("devdeck listening", "addr", cfg.Listen, "base_path", cfg.BasePath)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	return srv.Close()
}
