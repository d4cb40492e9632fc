package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/cobra"

	"github.com/binderlink/binderlink/internal/config"
	"github.com/binderlink/binderlink/pkg/middleware"
	"github.com/binderlink/binderlink/pkg/provider"
	"github.com/binderlink/binderlink/pkg/server"
)

func serveCmd(opts *globalOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and live form server",
		Long: `Run the binderlink HTTP server.

Routes (under baseUrl):
  GET /healthz                  liveness
  GET /_config                  provider form labels
  GET /api/providers            provider registry
  GET /api/link                 derive a launch link from query parameters
  GET /v2/{provider}/{repo}/... resolve a launch URL
  GET /ws                       live form session
  GET /metrics                  Prometheus metrics (when enabled)

Under systemd the server reports readiness with sd_notify. SIGHUP reloads
the provider registry from its file or S3 object.

Examples:
  binderlink serve
  binderlink serve --listen 127.0.0.1:9000
  BINDERLINK_PUBLIC_BASE_URL=https://binder.example.org/ binderlink serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Address to listen on (default from config)")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.Default()

	base, err := cfg.PublicBase()
	if err != nil {
		return err
	}

	reg, err := loadRegistry(ctx, cfg)
	if err != nil {
		return err
	}
	// Same registerer as the server's, so both share one set of collectors.
	var metrics *middleware.Metrics
	if cfg.Metrics.Enabled {
		metrics = middleware.NewMetrics(middleware.WithNamespace(cfg.Metrics.Namespace))
	}
	store := provider.NewStore(reg, provider.WithReloadHook(func(r *provider.Registry, err error) {
		n := 0
		if r != nil {
			n = r.Len()
		}
		metrics.RecordRegistryReload(n, err)
	}))
	metrics.RecordRegistryReload(reg.Len(), nil)

	if cfg.Providers.Watch {
		path := cfg.ResolvePath(cfg.Providers.File)
		go func() {
			if err := provider.Watch(ctx, path, store, logger); err != nil {
				logger.Error("provider registry watch stopped", "path", path, "error", err)
			}
		}()
	}

	if src := registrySource(cfg); src != nil {
		go reloadOnHangup(ctx, store, src, logger)
	}

	eventLog, err := openEventLog(cfg, os.Stdout)
	if err != nil {
		return err
	}
	defer func() {
		if err := eventLog.Close(); err != nil {
			logger.Warn("closing event sinks", "error", err)
		}
	}()

	allowlist, err := middleware.NewAllowlist(cfg.Metrics.AllowedIPs)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Config{
		Store:            store,
		PublicBase:       base,
		BaseURL:          cfg.BaseURL,
		Events:           eventLog,
		Logger:           logger,
		Metrics:          cfg.Metrics.Enabled,
		MetricsNamespace: cfg.Metrics.Namespace,
		MetricsAllowlist: allowlist,
		TracerName:       cfg.Tracing.TracerName,
		ReadLimit:        cfg.WebSocket.ReadLimit,
		PingInterval:     cfg.PingIntervalDuration(),
	})
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return err
	}

	logger.Info("binderlink ready",
		"public_base_url", base.String(),
		"base_url", cfg.BaseURL,
		"providers", reg.Len(),
		"events", eventLog.Enabled(),
		"metrics", cfg.Metrics.Enabled,
	)

	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		logger.Warn("sd_notify failed", "error", err)
	} else if ok {
		logger.Debug("notified systemd of readiness")
	}

	err = srv.Serve(ctx, ln)
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	if err != nil {
		return err
	}
	logger.Info("binderlink stopped")
	return nil
}

// reloadOnHangup reloads the registry from src on every SIGHUP until ctx is
// done. A failed reload keeps the current registry.
func reloadOnHangup(ctx context.Context, store *provider.Store, src provider.Loader, logger *slog.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := store.Reload(ctx, src); err != nil {
				logger.Warn("provider registry reload failed, keeping previous", "error", err)
				continue
			}
			logger.Info("provider registry reloaded", "providers", store.Registry().Len(), "generation", store.Generation())
		}
	}
}
