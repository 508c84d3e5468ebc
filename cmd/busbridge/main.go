// Package main implements the entry point for busbridge, the HTTP/JSON to
// bus request/reply gateway fronting the platform's AI and game services.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/c360/busbridge/config"
	"github.com/c360/busbridge/gateway"
	gwhttp "github.com/c360/busbridge/gateway/http"
	"github.com/c360/busbridge/metric"
	"github.com/c360/busbridge/natsclient"
)

// Build information constants
const (
	Version = "0.1.0"
	appName = "busbridge"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()
	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cliCfg.Validate {
		slog.Info("Configuration is valid")
		return nil
	}

	slog.Info("Starting busbridge",
		"version", Version,
		"nats_url", cfg.NATS.URL,
		"listen_addr", cfg.Gateway.ListenAddr)

	registry := metric.NewRegistry()
	gwMetrics := metric.NewGatewayMetrics(registry)

	natsClient, err := buildNATSClient(cfg, gwMetrics, logger)
	if err != nil {
		return fmt.Errorf("create bus client: %w", err)
	}

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelConnect()
	if err := natsClient.Connect(connectCtx); err != nil {
		return fmt.Errorf("connect to bus: %w", err)
	}

	table, err := gateway.NewTable(gateway.DefaultRoutes())
	if err != nil {
		return fmt.Errorf("build route table: %w", err)
	}

	gw, err := gwhttp.New(gwhttp.Config{
		ListenAddr:          cfg.Gateway.ListenAddr,
		MaxRequestSize:      cfg.Gateway.MaxRequestSize,
		RequestTimeout:      cfg.Gateway.RequestTimeout,
		FirstChunkTimeout:   cfg.Gateway.FirstChunkTimeout,
		MaxStreams:          cfg.Gateway.MaxStreams,
		ChunkQueueSize:      cfg.Gateway.ChunkQueueSize,
		SlowConsumerTimeout: cfg.Gateway.SlowConsumerTimeout,
		KeepaliveInterval:   cfg.Gateway.KeepaliveInterval,
	}, table, gwhttp.NewBus(natsClient), logger, gwMetrics)
	if err != nil {
		return fmt.Errorf("create gateway: %w", err)
	}

	return serve(gw, natsClient, cfg, cliCfg.ShutdownTimeout, registry)
}

func buildNATSClient(cfg *config.Config, m *metric.GatewayMetrics, logger *slog.Logger) (*natsclient.Client, error) {
	opts := []natsclient.ClientOption{
		natsclient.WithName(appName),
		natsclient.WithReconnectWait(cfg.NATS.ReconnectWait),
		natsclient.WithPingInterval(cfg.NATS.PingInterval),
		natsclient.WithMaxPingsOut(cfg.NATS.MaxPingsOut),
		natsclient.WithDrainTimeout(cfg.NATS.DrainTimeout),
		natsclient.WithLogger(slogAdapter{logger.With("component", "natsclient")}),
		natsclient.WithReconnectCallback(func() { m.BusReconnects.Inc() }),
	}
	if cfg.NATS.TLSCertFile != "" || cfg.NATS.TLSCAFile != "" {
		opts = append(opts, natsclient.WithTLS(cfg.NATS.TLSCertFile, cfg.NATS.TLSKeyFile, cfg.NATS.TLSCAFile))
	}
	return natsclient.NewClient(cfg.NATS.URL, opts...)
}

// serve runs the gateway and metrics servers until a signal arrives, then
// shuts down in order: HTTP first (stop accepting work), bus drain last.
func serve(gw *gwhttp.Gateway, natsClient *natsclient.Client, cfg *config.Config, shutdownTimeout time.Duration, registry *metric.Registry) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsServer *metric.Server
	if cfg.Metrics.Enabled {
		metricsServer = metric.NewServer(cfg.Metrics.Addr, cfg.Metrics.Path, registry)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(gw.Start)
	if metricsServer != nil {
		group.Go(metricsServer.Start)
	}
	group.Go(func() error {
		<-groupCtx.Done()

		slog.Info("Shutting down", "timeout", shutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := gw.Shutdown(shutdownCtx); err != nil {
			slog.Error("Gateway shutdown error", "error", err)
		}
		if metricsServer != nil {
			if err := metricsServer.Stop(shutdownCtx); err != nil {
				slog.Error("Metrics server shutdown error", "error", err)
			}
		}
		// Drain errors are logged inside Close, never fatal to shutdown.
		return natsClient.Close(shutdownCtx)
	})

	if err := group.Wait(); err != nil && err != context.Canceled {
		return err
	}
	slog.Info("Shutdown complete")
	return nil
}

// slogAdapter bridges the natsclient Logger interface onto slog.
type slogAdapter struct {
	logger *slog.Logger
}

func (a slogAdapter) Printf(format string, v ...any) {
	a.logger.Info(fmt.Sprintf(format, v...))
}

func (a slogAdapter) Errorf(format string, v ...any) {
	a.logger.Error(fmt.Sprintf(format, v...))
}
