package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"profile-registry/internal/config"
	"profile-registry/internal/handler"
	"profile-registry/internal/logging"
	"profile-registry/internal/metrics"
	"profile-registry/internal/repository"
	"profile-registry/internal/service"
	"profile-registry/internal/websocket"

	_ "github.com/go-kivik/kivik/v4/couchdb"

	"github.com/go-kivik/kivik/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.Logging.Level, cfg.Server.Env)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	profileRepo, regulatorRepo, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	wsManager := websocket.NewManager(
		cfg.WebSocket.MaxConnPerSubject,
		cfg.WebSocket.WriteWait,
		cfg.WebSocket.PongWait,
		cfg.WebSocket.PingPeriod,
		websocket.WithLogger(logger.With("component", "notifier")),
		websocket.WithMetrics(m),
	)

	historyService := service.NewHistoryService(profileRepo, logger, m)
	profileService := service.NewProfileService(profileRepo, wsManager, logger, m)
	authService := service.NewAuthService(regulatorRepo, cfg.JWT.Secret, cfg.JWT.Expiration, cfg.JWT.RefreshTokenExpiration)
	refresher := service.NewRefresher(historyService, wsManager, cfg.Refresh.Interval, logger)

	if err := authService.Seed(cfg.Regulator.Name, cfg.Regulator.Email, cfg.Regulator.Password); err != nil {
		return fmt.Errorf("failed to seed regulator: %w", err)
	}

	router := handler.NewRouter(handler.Handlers{
		Profile:   handler.NewProfileHandler(profileService, historyService, logger),
		Regulator: handler.NewRegulatorHandler(historyService, refresher, logger),
		Auth:      handler.NewAuthHandler(authService),
		WebSocket: handler.NewWebSocketHandler(wsManager, cfg.JWT.Secret, cfg.WebSocket.ReadBufferSize, cfg.WebSocket.WriteBufferSize, logger),
		Health:    handler.NewHealthHandler(cfg.Store.Backend, wsManager.ClientCount),
	}, cfg, reg, logger)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		wsManager.Run(gCtx)
		return nil
	})

	g.Go(func() error {
		refresher.Run(gCtx)
		return nil
	})

	g.Go(func() error {
		logger.Info("starting profile registry", "addr", addr, "env", cfg.Server.Env, "store_backend", cfg.Store.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("server stopped gracefully")
	return nil
}

// openStores wires the profile and regulator repositories for the configured
// backend. Regulators live in CouchDB alongside profiles when it is enabled and
// in memory otherwise.
func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repository.ProfileRepository, repository.RegulatorRepository, error) {
	if cfg.Store.Backend != config.BackendCouchDB {
		logger.Info("using remote registry", "url", cfg.Store.RegistryURL)
		return repository.NewHTTPProfileRepository(cfg.Store.RegistryURL, cfg.Store.Timeout),
			repository.NewInMemoryRegulatorRepository(), nil
	}

	client, err := kivik.New("couch", cfg.Database.URL())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to CouchDB: %w", err)
	}

	exists, err := client.DBExists(ctx, cfg.Database.Name)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check database existence: %w", err)
	}

	if !exists {
		if err := client.CreateDB(ctx, cfg.Database.Name); err != nil {
			return nil, nil, fmt.Errorf("failed to create database: %w", err)
		}
		logger.Info("created database", "name", cfg.Database.Name)
	}

	logger.Info("connected to CouchDB", "host", cfg.Database.Host, "port", cfg.Database.Port)
	return repository.NewCouchProfileRepository(client, cfg.Database.Name),
		repository.NewRegulatorRepository(client, cfg.Database.Name), nil
}
