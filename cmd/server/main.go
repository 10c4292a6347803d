// Package main initializes and starts the ItemKeeper HTTP server,
// setting up configuration, logging, in-memory stores, services,
// handlers, metrics and optional TLS.
package main

import (
	"cmp"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/atinyakov/ItemKeeper/internal/clock"
	"github.com/atinyakov/ItemKeeper/internal/common"
	"github.com/atinyakov/ItemKeeper/internal/config"
	"github.com/atinyakov/ItemKeeper/internal/credential"
	"github.com/atinyakov/ItemKeeper/internal/logger"
	"github.com/atinyakov/ItemKeeper/internal/middleware"
	"github.com/atinyakov/ItemKeeper/internal/models"
	"github.com/atinyakov/ItemKeeper/internal/repository"
	"github.com/atinyakov/ItemKeeper/internal/server/handler/http"
	"github.com/atinyakov/ItemKeeper/internal/service"
	"github.com/atinyakov/ItemKeeper/internal/token"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

const appName = "ItemKeeper"

// Bootstrap principal seeded at start-up.
const (
	adminUsername = "admin"
	adminEmail    = "admin@example.com"
	adminPassword = "password"
	adminFullName = "Administrator"
)

func main() {
	// Parse command-line, file and environment configuration.
	options, err := config.Parse(os.Args[1:], os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New(logger.Development(options.Development()))
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, options, zapLogger); err != nil {
		zapLogger.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, options *config.Options, zapLogger *zap.Logger) error {
	clk := clock.Real()
	started := clk.Now()

	if options.SecretKey == config.DevelopmentSecretKey {
		zapLogger.Warn("using the built-in development secret key; set SECRET_KEY outside development")
	}

	// Initialize in-memory stores.
	accountRepo := repository.NewMemoryAccountRepository(clk)
	recordRepo := repository.NewMemoryRecordRepository(clk)

	// Initialize credential hashing and token signing.
	hasher, err := credential.New(options.PasswordHasher)
	if err != nil {
		return err
	}
	tokens := token.NewService([]byte(options.SecretKey), options.TokenTTL(), clk)

	// Initialize business-logic services.
	authService := service.NewAuthService(accountRepo, hasher, tokens, zapLogger.Named("auth"))
	recordService := service.NewRecordService(recordRepo, accountRepo, zapLogger.Named("items"))
	guard := service.NewGuard(tokens, accountRepo)

	if err := seedAdmin(ctx, authService); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	// Metrics.
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := middleware.NewMetrics(registry)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	// Build the router with middleware and routes.
	router := http.NewRouter(http.Router{
		Auth:  &http.AuthHandler{AuthService: authService, Log: zapLogger},
		Users: &http.UserHandler{AuthService: authService, RecordService: recordService, Log: zapLogger},
		Items: &http.ItemHandler{RecordService: recordService, Log: zapLogger},
		System: &http.SystemHandler{
			AuthService:   authService,
			RecordService: recordService,
			Info: http.AppInfo{
				Name:                     appName,
				Version:                  cmp.Or(version, "dev"),
				Environment:              options.Environment,
				Debug:                    options.Debug,
				AccessTokenExpireMinutes: options.AccessTokenExpireMinutes,
				PasswordHasher:           options.PasswordHasher,
			},
			Clock:   clk,
			Started: started,
			Log:     zapLogger,
		},
		Guard:    guard,
		Metrics:  metrics,
		Gatherer: registry,
		Logger:   zapLogger,
	})

	server := &nethttp.Server{
		Addr:              options.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if options.TLSEnabled() {
		server.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if options.TLSEnabled() {
			zapLogger.Info("starting HTTPS server", zap.String("addr", options.Address))
			err = server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
		} else {
			zapLogger.Info("starting HTTP server", zap.String("addr", options.Address))
			err = server.ListenAndServe()
		}
		if errors.Is(err, nethttp.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		zapLogger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(options.ShutdownTimeout))
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// seedAdmin registers the bootstrap account unless it already exists.
func seedAdmin(ctx context.Context, auth *service.AuthService) error {
	_, err := auth.Register(ctx, models.Registration{
		Username: adminUsername,
		Email:    adminEmail,
		Password: adminPassword,
		FullName: adminFullName,
	})
	if errors.Is(err, common.ErrDuplicateUsername) {
		return nil
	}
	return err
}
