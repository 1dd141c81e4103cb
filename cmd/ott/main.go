package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/narwhalmedia/ottcore/internal/container"
	"github.com/narwhalmedia/ottcore/pkg/config"
	"github.com/narwhalmedia/ottcore/pkg/database"
	"github.com/narwhalmedia/ottcore/pkg/interfaces"
	"github.com/narwhalmedia/ottcore/pkg/logger"
)

const healthServiceName = "ott.v1.ContentAccess"

func main() {
	cfg := config.MustLoadServiceConfig("ott", config.GetDefaultOTTConfig())

	log, err := logger.NewFromConfig(&logger.Config{
		Level:       cfg.Logger.Level,
		Development: cfg.Logger.Development,
		Encoding:    cfg.Logger.Format,
	})
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("OTT service starting",
		interfaces.String("version", config.GetServiceVersion(&cfg.Service)),
		interfaces.String("environment", cfg.Service.Environment))

	if cfg.Auth.JWTSecret == "" {
		log.Fatal("auth.jwt_secret must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := container.InitializeContainer(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize service", interfaces.Error(err))
	}
	defer cleanup()

	log.Info("Running database migrations...")
	if err := database.RunMigrations(app.DB, log); err != nil {
		log.Fatal("Failed to run migrations", interfaces.Error(err))
	}

	// gRPC carries only health and reflection for mesh probes.
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(healthServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	grpcAddr := config.GetGRPCListenAddress(&cfg.Service)
	listener, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		log.Fatal("Failed to listen", interfaces.Error(err))
	}
	go func() {
		log.Info("gRPC health server starting", interfaces.String("address", grpcAddr))
		if err := grpcServer.Serve(listener); err != nil {
			log.Error("gRPC server failed", interfaces.Error(err))
		}
	}()

	httpServer := &http.Server{
		Addr:              config.GetListenAddress(&cfg.Service),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("HTTP server starting", interfaces.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", interfaces.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down OTT service...")

	healthServer.SetServingStatus(healthServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Service.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP shutdown failed", interfaces.Error(err))
	}
	grpcServer.GracefulStop()
	if err := app.EventBus.Stop(); err != nil {
		log.Error("Event bus shutdown failed", interfaces.Error(err))
	}

	log.Info("OTT service stopped")
}
