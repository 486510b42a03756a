package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/soshbru/soshbru/internal/manager"
	"github.com/soshbru/soshbru/pkg/cafe"
	"github.com/soshbru/soshbru/pkg/config"
	"github.com/soshbru/soshbru/pkg/mcp"
	"github.com/soshbru/soshbru/pkg/metrics"
	"github.com/soshbru/soshbru/pkg/places"
	"github.com/soshbru/soshbru/pkg/repl"
	"github.com/soshbru/soshbru/pkg/server"
	"github.com/soshbru/soshbru/pkg/service"
	"github.com/soshbru/soshbru/pkg/store"
	"github.com/soshbru/soshbru/pkg/supabase"
)

// storeMode says how a command uses the social store.
type storeMode int

const (
	// storeNone skips the store; social lookups are disabled.
	storeNone storeMode = iota
	// storeReadOnly opens the store read-only and carries on without it
	// when the directory is locked by a running server.
	storeReadOnly
	// storeWrite opens the store for writing. Failure is fatal.
	storeWrite
)

// app is everything a command needs, built from one config.
type app struct {
	cfg       config.Config
	store     *store.Store
	supabase  *supabase.Client
	metrics   *metrics.Metrics
	snapshot  *manager.SnapshotCache
	sessions  *manager.SessionManager
	discovery *service.DiscoveryService
	social    *service.SocialService
}

func newApp(cfg config.Config, mode storeMode, withMetrics bool) (*app, error) {
	a := &app{cfg: cfg}

	if cfg.SupabaseEnabled() {
		client, err := supabase.New(supabase.Config{
			URL:     cfg.Supabase.URL,
			AnonKey: cfg.Supabase.AnonKey,
		}, supabase.WithLogger(logger.Named("supabase")))
		if err != nil {
			return nil, err
		}
		a.supabase = client
	}

	var source cafe.Source
	if cfg.Supabase.UseCafeTable {
		if a.supabase == nil {
			return nil, fmt.Errorf("supabase cafe table needs SUPABASE_URL and SUPABASE_ANON_KEY")
		}
		source = a.supabase
	} else {
		col, err := cafe.Load(cfg.Dataset)
		if err != nil {
			return nil, fmt.Errorf("failed to load dataset: %w", err)
		}
		logger.Info("dataset loaded", zap.Int("cafes", col.Len()))
		source = col
	}
	a.snapshot = manager.NewSnapshotCache(source, cfg.Sessions.SnapshotTTL, logger.Named("snapshot"))

	if err := a.openStore(mode); err != nil {
		return nil, err
	}

	sessions, err := manager.NewSessionManager(cfg.Sessions.MaxSessions, manager.WithLogger(logger.Named("sessions")))
	if err != nil {
		a.Close()
		return nil, err
	}
	a.sessions = sessions

	opts := []service.DiscoveryOption{service.WithLogger(logger.Named("discovery"))}
	if a.store != nil {
		a.social = service.NewSocialService(a.store, a.snapshot, logger.Named("social"))
		opts = append(opts, service.WithSocial(a.social))
	}
	if withMetrics {
		a.metrics = metrics.New()
		opts = append(opts, service.WithMetrics(a.metrics))
	}
	if cfg.PlacesEnabled() {
		var origin *places.LatLng
		if cfg.Places.Location != "" {
			ll, err := places.ParseLatLng(cfg.Places.Location)
			if err != nil {
				a.Close()
				return nil, err
			}
			origin = &ll
		}
		client := places.NewClient(cfg.Places.APIKey,
			places.WithBaseURL(cfg.Places.BaseURL),
			places.WithCacheTTL(cfg.Places.CacheTTL),
			places.WithHTTPClient(&http.Client{Timeout: cfg.Places.Timeout}),
			places.WithLogger(logger.Named("places")),
		)
		opts = append(opts, service.WithPlaces(client, origin, cfg.Places.Radius))
	} else {
		logger.Info("GOOGLE_PLACES_API_KEY not set, remote search disabled")
	}

	a.discovery = service.NewDiscoveryService(a.snapshot, sessions, opts...)
	return a, nil
}

func (a *app) openStore(mode storeMode) error {
	if mode == storeNone {
		return nil
	}

	storeCfg := store.DefaultConfig(a.cfg.DataDir)
	if lowMem {
		storeCfg.Profile = "low-mem"
	}
	if mode == storeReadOnly && !storeCfg.InMemory {
		storeCfg.ReadOnly = true
	}

	st, err := store.Open(storeCfg, store.WithLogger(logger.Named("store")))
	if err != nil {
		if mode == storeReadOnly {
			logger.Warn("store unavailable, continuing without professionals and favorites",
				zap.String("dir", a.cfg.DataDir), zap.Error(err))
			return nil
		}
		return fmt.Errorf("failed to open store: %w", err)
	}
	a.store = st
	return nil
}

func (a *app) Close() {
	if a.sessions != nil {
		a.sessions.CloseAll()
	}
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		logger.Warn("failed to close store", zap.Error(err))
	}
}

// reloadOnHangup drops the cafe snapshot on SIGHUP so the next request
// reads the dataset or cafe table again.
func (a *app) reloadOnHangup(ctx context.Context) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		defer signal.Stop(hup)
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				logger.Info("SIGHUP received, refreshing cafes")
				a.snapshot.Invalidate()
			}
		}
	}()
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg, storeWrite, true)
	if err != nil {
		return err
	}
	defer a.Close()

	opts := []server.Option{
		server.WithLogger(logger.Named("http")),
		server.WithMetrics(a.metrics),
		server.WithHTTPConfig(cfg.HTTP),
	}
	if a.supabase != nil {
		opts = append(opts, server.WithAuth(service.NewAuthService(a.supabase, a.social, logger.Named("auth"))))
	}
	if cfg.Supabase.JWTSecret != "" {
		verifier, err := supabase.NewVerifier(cfg.Supabase.JWTSecret)
		if err != nil {
			return err
		}
		opts = append(opts, server.WithSocial(a.social, verifier))
	} else {
		logger.Info("SUPABASE_JWT_SECRET not set, social routes disabled")
	}

	srv := server.NewServer(a.discovery, opts...)
	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	a.reloadOnHangup(ctx)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", httpSrv.Addr))
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", zap.Int("sessions", a.sessions.Len()))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg, storeReadOnly, false)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return mcp.Run(ctx, a.discovery, logger.Named("mcp"))
}

func runBrowse(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg, storeReadOnly, false)
	if err != nil {
		return err
	}
	defer a.Close()
	return repl.Run(cmd.Context(), a.discovery, os.Stdin, cmd.OutOrStdout())
}

func runFilters(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg, storeNone, false)
	if err != nil {
		return err
	}
	defer a.Close()

	query := ""
	if len(args) == 1 {
		query = args[0]
	}
	return printFilters(cmd.Context(), a.discovery, query, cmd.OutOrStdout())
}

func printFilters(ctx context.Context, discovery *service.DiscoveryService, query string, out io.Writer) error {
	opts, err := discovery.Filters(ctx, query)
	if err != nil {
		return err
	}
	id := color.New(color.FgCyan)
	for _, o := range opts {
		fmt.Fprintf(out, "%s %-28s %d\n", id.Sprintf("%-15s", o.ID), o.Label, o.Count)
	}
	return nil
}
