package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Togather-Foundation/eventdesk/internal/api"
	"github.com/Togather-Foundation/eventdesk/internal/api/handlers"
	"github.com/Togather-Foundation/eventdesk/internal/api/middleware"
	"github.com/Togather-Foundation/eventdesk/internal/audit"
	"github.com/Togather-Foundation/eventdesk/internal/auth"
	"github.com/Togather-Foundation/eventdesk/internal/config"
	"github.com/Togather-Foundation/eventdesk/internal/domain/admins"
	"github.com/Togather-Foundation/eventdesk/internal/domain/events"
	"github.com/Togather-Foundation/eventdesk/internal/metrics"
	"github.com/Togather-Foundation/eventdesk/internal/storage/memory"
	"github.com/Togather-Foundation/eventdesk/internal/storage/postgres"
	"github.com/Togather-Foundation/eventdesk/internal/telemetry"
	"github.com/Togather-Foundation/eventdesk/internal/validation"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

const shutdownTimeout = 10 * time.Second

var (
	// Server flags (override config/env)
	serverHost    string
	serverPort    int
	inMemory      bool
	runMigrations bool
)

func newServeCommand() *cobra.Command {
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the eventdesk HTTP server",
		Long: `Start the eventdesk HTTP server and begin accepting API requests.

The server will:
- Load configuration from .env, the --config file and environment variables
- Apply pending migrations when --migrate is set
- Provision the bootstrap administrator if ADMIN_EMAIL and ADMIN_PASSWORD are set
- Handle graceful shutdown on SIGINT/SIGTERM

Examples:
  # Start with configuration from the environment
  server serve

  # Start on a specific host and port
  server serve --host 127.0.0.1 --port 9090

  # Try the API without a database
  server serve --in-memory`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	serve.Flags().StringVar(&serverHost, "host", "", "server host address (default: 0.0.0.0)")
	serve.Flags().IntVar(&serverPort, "port", 0, "server port (default: 3001)")
	serve.Flags().BoolVar(&inMemory, "in-memory", false, "keep data in process memory instead of PostgreSQL")
	serve.Flags().BoolVar(&runMigrations, "migrate", false, "apply pending database migrations before serving")
	return serve
}

// stores groups the repositories the services run on.
type stores struct {
	admins admins.Repository
	events events.Repository
	probe  handlers.DatabaseProbe
	close  func()
}

func runServer(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if serverHost != "" {
		cfg.Server.Host = serverHost
	}
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}
	if !inMemory {
		if err := cfg.RequireDatabase(); err != nil {
			return fmt.Errorf("config error: %w", err)
		}
	}

	logger := config.NewLogger(cfg.Logging)
	logger.Info().Str("version", Version).Str("environment", cfg.Environment).Msg("starting eventdesk server")

	metrics.Init(Version, GitCommit, BuildDate)

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.Tracing, Version)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(stopCtx); err != nil {
			logger.Error().Err(err).Msg("tracing shutdown error")
		}
	}()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	tokens := auth.NewJWTManager(cfg.Auth.JWTSecret, auth.TokenTTL, cfg.Auth.Issuer)
	adminService := admins.NewService(st.admins, auth.BcryptHasher{Cost: bcrypt.DefaultCost}, tokens, logger)
	eventService := events.NewService(st.events, events.WithLogger(logger))

	bootstrapCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := bootstrapAdmin(bootstrapCtx, adminService, cfg, logger); err != nil {
		logger.Error().Err(err).Msg("admin bootstrap failed")
	}
	cancel()

	var limiterOpts []middleware.LoginLimiterOption
	if cfg.RateLimit.RedisURL != "" {
		client, err := openRedis(ctx, cfg.RateLimit.RedisURL)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()
		limiterOpts = append(limiterOpts, middleware.WithSharedCounter(
			middleware.NewRedisAttemptCounter(client, cfg.RateLimit.LoginPer15Minutes)))
		logger.Info().Msg("login rate limit shared through redis")
	}
	limiter := middleware.NewLoginRateLimiter(cfg.RateLimit, limiterOpts...)
	defer limiter.Stop()

	handler := api.NewRouter(api.Deps{
		Config:       cfg,
		Logger:       logger,
		Admins:       adminService,
		Events:       eventService,
		Validator:    validation.New(),
		Audit:        audit.NewLogger(logger),
		DB:           st.probe,
		LoginLimiter: limiter,
		Build:        api.BuildInfo{Version: Version, GitCommit: GitCommit, BuildDate: BuildDate},
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler,
		ReadTimeout:       10 * time.Second, // Total time to read request
		WriteTimeout:      30 * time.Second, // Total time to write response
		ReadHeaderTimeout: 5 * time.Second,  // Time to read headers
		MaxHeaderBytes:    1 << 20,          // 1 MB max header size
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	return gracefulShutdown(ctx, server, serveErr, logger)
}

func openStores(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*stores, error) {
	if inMemory {
		logger.Warn().Msg("using in-memory store; data is lost on exit")
		store := memory.New()
		return &stores{admins: store.Admins(), events: store.Events(), close: func() {}}, nil
	}

	if runMigrations {
		if err := postgres.MigrateUp(cfg.Database.URL, ""); err != nil {
			return nil, fmt.Errorf("migrations failed: %w", err)
		}
		logger.Info().Msg("database migrations applied")
	}

	poolCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	pool, err := postgres.Open(poolCtx, cfg.Database.URL, int32(cfg.Database.MaxConnections))
	cancel()
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	repo, err := postgres.NewRepository(pool)
	if err != nil {
		pool.Close()
		return nil, err
	}

	dbCollector := metrics.NewDBCollector(pool)
	collectorCtx, collectorCancel := context.WithCancel(context.Background())
	go dbCollector.Start(collectorCtx, 15*time.Second)
	logger.Info().Msg("database metrics collector started")

	return &stores{
		admins: repo.Admins(),
		events: repo.Events(),
		probe:  pool,
		close: func() {
			collectorCancel()
			dbCollector.Stop()
			pool.Close()
		},
	}, nil
}

func openRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse RATE_LIMIT_REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}

func bootstrapAdmin(ctx context.Context, service *admins.Service, cfg config.Config, logger zerolog.Logger) error {
	bootstrap := cfg.AdminBootstrap
	if !bootstrap.Enabled() {
		logger.Debug().Msg("admin bootstrap env vars not set; skipping")
		return nil
	}

	admin, created, err := service.Provision(ctx, admins.ProvisionParams{
		Email:    bootstrap.Email,
		Password: bootstrap.Password,
		Name:     bootstrap.Name,
		Role:     bootstrap.Role,
	})
	if err != nil {
		return err
	}
	if !created {
		return nil
	}

	// Redact email in production to avoid PII in logs.
	event := logger.Info().Str("admin_id", admin.ID).Str("role", string(admin.Role))
	if !cfg.IsProduction() {
		event = event.Str("email", admin.Email)
	}
	event.Msg("bootstrapped admin user")
	return nil
}

func gracefulShutdown(ctx context.Context, server *http.Server, serveErr <-chan error, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err, ok := <-serveErr:
		if ok && err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
		return err
	}

	logger.Info().Msg("server stopped")
	return nil
}
