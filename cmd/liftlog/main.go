package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"tailscale.com/tsnet"

	"github.com/claude/liftlog/internal/config"
	"github.com/claude/liftlog/internal/ingest/alpha"
	lmcp "github.com/claude/liftlog/internal/mcp"
	"github.com/claude/liftlog/internal/metrics"
	"github.com/claude/liftlog/internal/server"
	"github.com/claude/liftlog/internal/storage"
	"github.com/claude/liftlog/internal/storage/backend"
	"github.com/claude/liftlog/internal/storage/postgres"
	"github.com/claude/liftlog/internal/tracker"
)

// Version is set at build time via -ldflags.
var Version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}
	log := cfg.Log.NewLogger(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *migrateOnly, log); err != nil {
		log.Error("liftlog stopped", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, migrateOnly bool, log *slog.Logger) error {
	log.Info("liftlog starting", "version", Version, "driver", cfg.Database.Driver)

	if err := backend.Migrate(cfg.Database); err != nil {
		return fmt.Errorf("migrating: %w", err)
	}
	log.Info("migrations applied")
	if migrateOnly {
		return nil
	}

	store, err := backend.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	reg, m := setupMetrics(cfg, store)
	svc := tracker.New(store, m, log, tracker.WithAllocationAttempts(cfg.Tracker.AllocationAttempts))

	srv := server.New(svc, alpha.NewProvider(svc, log), m, cfg.Auth.APIKey, log)
	srv.SetMCP(mcpserver.NewStreamableHTTPServer(lmcp.New(svc, Version, log)))
	if reg != nil {
		srv.SetMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	ln, closeListener, err := listen(cfg, srv, log)
	if err != nil {
		return err
	}
	defer closeListener()

	httpSrv := &http.Server{Handler: srv, ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() { serveErr <- httpSrv.Serve(ln) }()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

// setupMetrics returns a nil registry when metrics are disabled. The tracker
// still gets a manager so counters can be updated unconditionally.
func setupMetrics(cfg *config.Config, store storage.Store) (*prometheus.Registry, *metrics.Manager) {
	if !cfg.Metrics.Enabled {
		return nil, metrics.NewManager(cfg.Metrics.Namespace, "", prometheus.NewRegistry())
	}
	var extra []prometheus.Collector
	if pg, ok := store.(*postgres.DB); ok {
		extra = append(extra, pgxpoolprometheus.NewCollector(pg.Pool, map[string]string{"db_name": cfg.Database.Name}))
	}
	reg := metrics.NewRegistry(extra...)
	return reg, metrics.NewManager(cfg.Metrics.Namespace, "", reg)
}

// listen opens the tailnet listener when enabled and wires tailnet identity
// into srv; otherwise it listens on plain TCP with the dev identity.
func listen(cfg *config.Config, srv *server.Server, log *slog.Logger) (net.Listener, func(), error) {
	if !cfg.Tailscale.Enabled {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return nil, nil, fmt.Errorf("listening on %s: %w", addr, err)
		}
		log.Info("listening", "addr", addr, "identity", "dev")
		return ln, func() {}, nil
	}

	ts := &tsnet.Server{Hostname: cfg.Tailscale.Hostname, Dir: cfg.Tailscale.StateDir}
	if err := ts.Start(); err != nil {
		return nil, nil, fmt.Errorf("starting tsnet: %w", err)
	}
	lc, err := ts.LocalClient()
	if err != nil {
		ts.Close()
		return nil, nil, fmt.Errorf("tsnet local client: %w", err)
	}
	srv.SetTailscale(lc)

	ln, err := ts.Listen("tcp", ":80")
	if err != nil {
		ts.Close()
		return nil, nil, fmt.Errorf("tsnet listen: %w", err)
	}
	log.Info("listening", "hostname", cfg.Tailscale.Hostname, "identity", "tailnet")
	return ln, func() { ts.Close() }, nil
}
