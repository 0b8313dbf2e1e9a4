package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/librarydesk/lms/internal/config"
	"github.com/librarydesk/lms/internal/events"
	grpcserver "github.com/librarydesk/lms/internal/grpc"
	"github.com/librarydesk/lms/internal/httpapi"
	"github.com/librarydesk/lms/internal/library"
	"github.com/librarydesk/lms/internal/metrics"
	"github.com/librarydesk/lms/internal/repo"
	"github.com/librarydesk/lms/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/grpc/reflection"
)

// eventPublisher is satisfied by both the RabbitMQ publisher and the no-op publisher
type eventPublisher interface {
	library.Publisher
	grpcserver.HealthReporter
	Close() error
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and gRPC health servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(opts.load())
		},
	}
}

func connectPublisher(cfg *config.Config, log *zap.Logger) (eventPublisher, error) {
	if !cfg.EventsEnabled() {
		log.Info("RABBITMQ_URL not set, events disabled")
		return events.NopPublisher{}, nil
	}

	log.Info("Connecting to RabbitMQ")
	return events.NewPublisher(cfg.RabbitMQURL, log)
}

func serve(cfg *config.Config) error {
	// Initialize logger
	log := logger.NewLogger(cfg.ServiceName, cfg.LogLevel)
	defer log.Sync()

	log.Info("Library service starting")

	database, err := openDatabase(cfg, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer database.Close()

	publisher, err := connectPublisher(cfg, log)
	if err != nil {
		return err
	}
	defer publisher.Close()

	// Initialize repositories and services
	m := metrics.New()
	catalogRepo := repo.NewCatalogRepository(database, log)
	lendingRepo := repo.NewLendingRepository(database, log)
	userRepo := repo.NewUserRepository(database, log)

	catalog := library.NewCatalogService(catalogRepo, lendingRepo, publisher, m, log)
	lending := library.NewLendingService(lendingRepo, publisher, m, log)
	profiles := library.NewProfileService(userRepo, log)

	// Create gRPC server with the health service
	grpcServer := grpcserver.NewServer(grpcserver.NewHealthServer(database, publisher, log), log)
	reflection.Register(grpcServer)

	grpcListener, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("failed to listen on gRPC port: %w", err)
	}

	go func() {
		log.Info("Starting gRPC server", zap.String("address", grpcListener.Addr().String()))
		if err := grpcServer.Serve(grpcListener); err != nil {
			log.Error("gRPC server stopped", zap.Error(err))
		}
	}()

	// Start HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      httpapi.NewServer(catalog, lending, profiles, database, m, log),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	// Wait for interrupt signal or a failed listener
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case <-quit:
	case runErr = <-serveErr:
		log.Error("HTTP server failed", zap.Error(runErr))
	}

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}
	grpcServer.GracefulStop()

	log.Info("Server stopped")
	return runErr
}
