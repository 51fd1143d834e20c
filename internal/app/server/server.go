package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"paydesk/internal/domain/auth"
	"paydesk/internal/domain/employee"
	"paydesk/internal/domain/payroll"
	"paydesk/internal/domain/reports"
	"paydesk/internal/platform/config"
	cryptoutil "paydesk/internal/platform/crypto"
	"paydesk/internal/platform/db"
	"paydesk/internal/platform/jobs"
	"paydesk/internal/platform/metrics"
	"paydesk/internal/transport/http/api"
	authhandler "paydesk/internal/transport/http/handlers/auth"
	employeehandler "paydesk/internal/transport/http/handlers/employees"
	payrollhandler "paydesk/internal/transport/http/handlers/payroll"
	reportshandler "paydesk/internal/transport/http/handlers/reports"
	"paydesk/internal/transport/http/middleware"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	Config  config.Config
	Store   employee.Store
	Payroll *payroll.Service
	Jobs    *jobs.Service
	Router  http.Handler

	cancel  context.CancelFunc
	closers []func()
}

// New wires the store, services and router. Background jobs start
// immediately and stop on Close.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	app := &App{Config: cfg}
	ok := false
	defer func() {
		if !ok {
			app.Close()
		}
	}()

	store, err := app.openStore(ctx)
	if err != nil {
		return nil, err
	}
	app.Store = store

	roles, err := loadSeedRoles(cfg.RolesFile)
	if err != nil {
		return nil, err
	}
	if err := db.Seed(ctx, store, db.SeedOptions{
		Roles:           roles,
		AdminUsername:   cfg.SeedAdminUsername,
		AdminPassword:   cfg.SeedAdminPassword,
		AdminTOTPSecret: cfg.SeedAdminTOTPSecret,
	}); err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}

	crypto, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		return nil, err
	}
	if !crypto.Configured() {
		slog.Warn("DATA_ENCRYPTION_KEY not set; payslips are stored unencrypted")
	}

	enforcer, err := auth.NewEnforcer()
	if err != nil {
		return nil, fmt.Errorf("permissions: %w", err)
	}
	revoker, err := app.openRevoker(ctx)
	if err != nil {
		return nil, err
	}

	secret := cfg.JWTSecret
	if secret == "" {
		if secret, err = ephemeralSecret(); err != nil {
			return nil, err
		}
		slog.Warn("JWT_SECRET not set; using an ephemeral secret, tokens will not survive a restart")
	}
	authSvc := auth.NewService(store, secret, cfg.TokenTTL, revoker)

	app.Payroll = payroll.NewService(store, crypto, cfg.PayslipDir)
	reportsSvc := reports.NewService(store, app.Payroll)
	app.Jobs = jobs.New(app.Payroll, cfg.PayrollRunInterval)
	collector := metrics.New()

	runCtx, cancel := context.WithCancel(context.Background())
	app.cancel = cancel
	app.Jobs.Start(runCtx)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(chimw.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Metrics(collector))
	router.Use(middleware.Auth(authSvc))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			http.Error(w, "store not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.With(middleware.RequirePermission(auth.PermReportsRead, enforcer)).Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, collector.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(authSvc).RegisterRoutes(r)
		employeehandler.NewHandler(store, enforcer).RegisterRoutes(r)
		payrollhandler.NewHandler(app.Payroll, app.Jobs, collector, enforcer).RegisterRoutes(r)
		reportshandler.NewHandler(reportsSvc, enforcer).RegisterRoutes(r)
	})

	app.Router = router
	ok = true
	return app, nil
}

func (a *App) openStore(ctx context.Context) (employee.Store, error) {
	if !a.Config.UsePostgres() {
		store, err := employee.NewJSONStore(a.Config.DataPath)
		if err != nil {
			return nil, fmt.Errorf("open data file: %w", err)
		}
		slog.Info("using json store", "path", a.Config.DataPath)
		return store, nil
	}

	pool, err := db.Connect(ctx, a.Config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	a.closers = append(a.closers, pool.Close)
	if a.Config.RunMigrations {
		if err := db.Migrate(ctx, pool, a.Config.MigrationsDir); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}
	slog.Info("using postgres store")
	return employee.NewPGStore(pool), nil
}

func (a *App) openRevoker(ctx context.Context) (auth.Revoker, error) {
	if a.Config.RedisURL == "" {
		return auth.NewMemoryRevoker(), nil
	}
	opts, err := redis.ParseURL(a.Config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	client := redis.NewClient(opts)
	a.closers = append(a.closers, func() { _ = client.Close() })
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	slog.Info("token revocation backed by redis", "addr", opts.Addr)
	return auth.NewRedisRevoker(client), nil
}

func loadSeedRoles(path string) (employee.RoleTable, error) {
	if path == "" {
		return employee.RoleTable{}, nil
	}
	roles, err := config.LoadRoleTable(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("roles file not found; starting without seeded roles", "path", path)
		return employee.RoleTable{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("roles file: %w", err)
	}
	return roles, nil
}

func ephemeralSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Close stops background jobs and releases connections.
func (a *App) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func Run() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("dotenv failed", "err", err)
		os.Exit(1)
	}
	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if err != nil {
		slog.Error("startup failed", "err", err)
		os.Exit(1)
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("paydesk server listening", "addr", cfg.Addr, "env", cfg.Environment)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "err", err)
		}
		return
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "err", err)
	}
}
