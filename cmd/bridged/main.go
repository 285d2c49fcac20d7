package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bridgechain/config"
	"bridgechain/core"
	"bridgechain/core/events"
	"bridgechain/core/genesis"
	"bridgechain/observability"
	"bridgechain/observability/logging"
	telemetry "bridgechain/observability/otel"
	"bridgechain/rpc"
	"bridgechain/services/eventlog"
	"bridgechain/storage"
)

const genesisPathEnv = "BRIDGE_GENESIS"

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	genesisFlag := flag.String("genesis", "", "Path to a genesis JSON file (overrides BRIDGE_GENESIS and config GenesisFile)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	env := strings.TrimSpace(os.Getenv("BRIDGE_ENV"))
	if env == "" {
		env = cfg.Environment
	}
	logger, logCloser := logging.SetupWithOptions("bridged", env, logging.Options{
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	})
	defer logCloser.Close()

	if err := run(cfg, env, resolveGenesisPath(*genesisFlag, cfg.GenesisFile), logger); err != nil {
		logger.Error("bridged stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func resolveGenesisPath(flagValue, configValue string) string {
	if trimmed := strings.TrimSpace(flagValue); trimmed != "" {
		return trimmed
	}
	if value, ok := os.LookupEnv(genesisPathEnv); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return strings.TrimSpace(configValue)
}

func run(cfg *config.Config, env, genesisPath string, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:     cfg.Telemetry.Enabled,
		ServiceName: "bridged",
		Environment: env,
		Network:     cfg.NetworkName,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Headers:     cfg.Telemetry.Headers,
		Metrics:     cfg.Telemetry.Metrics,
		Traces:      cfg.Telemetry.Traces,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown", slog.Any("error", err))
		}
	}()

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	sinks := events.Fanout{observability.Events()}
	var archive *eventlog.Store
	if dsn := strings.TrimSpace(cfg.EventLogDSN); dsn != "" {
		archive, err = eventlog.Open(dsn)
		if err != nil {
			return err
		}
		defer archive.Close()
		archive.SetLogger(logger)
		sinks = append(sinks, archive)
		logger.Info("event archive enabled", logging.MaskField("dsn", dsn))
	}

	node, err := core.NewNode(db,
		core.WithLogger(logger),
		core.WithEmitter(sinks),
		core.WithMetrics(observability.Bridge()),
		core.WithQuorumThreshold(cfg.QuorumThreshold),
		core.WithDistinctVoters(cfg.DistinctVoters),
	)
	if err != nil {
		return fmt.Errorf("create node: %w", err)
	}
	if genesisPath != "" {
		spec, err := genesis.LoadGenesisSpec(genesisPath)
		if err != nil {
			return err
		}
		if err := node.InitGenesis(spec); err != nil {
			return fmt.Errorf("apply genesis: %w", err)
		}
	}
	status, err := node.Status()
	if err != nil {
		return fmt.Errorf("read status: %w", err)
	}
	if status.Validators == 0 {
		return errors.New("store holds no validators; provide a genesis file")
	}
	logger.Info("bridge state loaded",
		slog.String("network", cfg.NetworkName),
		slog.Int("validators", int(status.Validators)),
		slog.Bool("operational", status.Operational),
		slog.Float64("threshold", node.Threshold()))

	rpcCfg := rpc.Config{
		ServiceName: "bridged",
		Auth: rpc.AuthConfig{
			Enabled:    cfg.Auth.Enabled,
			HMACSecret: cfg.Auth.HMACSecret,
			Issuer:     cfg.Auth.Issuer,
			Audience:   cfg.Auth.Audience,
			ClockSkew:  time.Duration(cfg.Auth.ClockSkewSeconds) * time.Second,
		},
		RateLimit: rpc.RateLimit{
			RequestsPerMinute: float64(cfg.RateLimit.RequestsPerMinute),
			Burst:             cfg.RateLimit.Burst,
		},
		Logger: logger,
	}
	if archive != nil {
		rpcCfg.Events = archive
	}
	server, err := rpc.NewServer(node, rpcCfg)
	if err != nil {
		return err
	}

	rpcErr := make(chan error, 1)
	go func() { rpcErr <- server.Serve(ctx, cfg.RPCAddress) }()
	metricsErr := make(chan error, 1)
	if addr := strings.TrimSpace(cfg.MetricsAddress); addr != "" {
		go func() { metricsErr <- serveMetrics(ctx, addr, logger) }()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-metricsErr:
		if err != nil {
			stop()
			<-rpcErr
			return err
		}
	case err := <-rpcErr:
		return err
	}
	stop()
	return <-rpcErr
}

func serveMetrics(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	logger.Info("metrics server listening", slog.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
