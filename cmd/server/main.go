// Package main initializes and starts the document portal server,
// setting up configuration, logging, database connections, upload storage,
// repositories, services, handlers, and optional TLS.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/atinyakov/DocPortal/internal/config"
	"github.com/atinyakov/DocPortal/internal/db"
	"github.com/atinyakov/DocPortal/internal/logger"
	"github.com/atinyakov/DocPortal/internal/metrics"
	"github.com/atinyakov/DocPortal/internal/middleware"
	"github.com/atinyakov/DocPortal/internal/repository"
	"github.com/atinyakov/DocPortal/internal/server/handler/http"
	"github.com/atinyakov/DocPortal/internal/service"
	"github.com/atinyakov/DocPortal/internal/storage"
	"github.com/gorilla/securecookie"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line, config file and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize PostgreSQL connection and schema.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer postgresDB.Close()

	// Create the category directories under the uploads root.
	disk, err := storage.NewDisk(options.UploadsDir)
	if err != nil {
		zapLogger.Fatal("cannot init upload storage", zap.Error(err), zap.String("dir", options.UploadsDir))
	}

	if interval := time.Duration(options.OrphanSweepInterval); interval > 0 {
		db.StartOrphanSweeper(ctx, postgresDB, disk, interval, time.Duration(options.OrphanGrace), zapLogger)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Initialize repositories.
	userRepo := repository.NewPostgresUserRepository(postgresDB)
	docRepo := repository.NewPostgresDocumentRepository(postgresDB)

	// Initialize business-logic services.
	authService := service.NewAuthService(userRepo, zapLogger)
	docService := service.NewDocumentService(docRepo, userRepo, disk, service.Source(options.RetrievalSource), zapLogger).
		WithObserver(m)

	secret := []byte(options.SessionSecret)
	if len(secret) == 0 {
		secret = securecookie.GenerateRandomKey(32)
		zapLogger.Warn("no session secret configured, sessions will not survive a restart")
	}
	tlsEnabled := options.TLSCert != "" && options.TLSKey != ""
	sessions := middleware.NewSessions(secret, tlsEnabled)

	// Create HTTP handlers.
	authHandler := &http.AuthHandler{AuthService: authService, Sessions: sessions, Log: zapLogger}
	docHandler := &http.DocumentHandler{
		DocumentService: docService,
		MaxUploadBytes:  options.MaxUploadBytes,
		Log:             zapLogger,
	}

	// Build the router with middleware and routes.
	router := http.NewRouter(authHandler, docHandler, sessions, m, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("graceful shutdown failed", zap.Error(err))
		}
	}()

	zapLogger.Info("starting server",
		zap.String("addr", options.Port),
		zap.Bool("tls", tlsEnabled),
		zap.String("retrieval_source", options.RetrievalSource),
		zap.String("uploads_dir", disk.Root()),
	)
	if tlsEnabled {
		err = server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
	} else {
		err = server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("failed to start server", zap.Error(err))
	}
	zapLogger.Info("server stopped")
}
