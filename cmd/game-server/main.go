package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/cheildo/game-of-three/internal/events"
	"github.com/cheildo/game-of-three/internal/game"
	"github.com/cheildo/game-of-three/internal/gateway"
	"github.com/cheildo/game-of-three/internal/pkg/kafka"
	"github.com/cheildo/game-of-three/internal/pkg/logutil"
	"github.com/cheildo/game-of-three/internal/pkg/redis"
	"github.com/cheildo/game-of-three/internal/queryrpc"
	"github.com/cheildo/game-of-three/internal/relay"
)

func main() {
	// --- Configuration Loading ---
	cfg, err := loadConfig(viper.New(), "./configs/development", ".")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logutil.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Game Event Stream ---
	var publisher game.EventPublisher = game.DiscardEvents
	if cfg.KafkaEnabled {
		producer := kafka.NewProducer(logger, cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
		publisher = events.NewKafkaPublisher(producer)
		slog.Info("Publishing game events to Kafka", "topic", cfg.KafkaTopic)
	}

	// --- Session Backend ---
	connections := gateway.NewConnectionManager()
	var matchmaker relay.Matchmaker

	if cfg.DispatchBackend == backendRedis {
		rdb, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		slog.Info("Redis connection successful.")

		instance := uuid.NewString()
		prefix := cfg.RedisChannelPrefix
		frames := relay.NewPublisher(logger, rdb, prefix)
		lease := relay.NewLease(logger, rdb, prefix, instance, cfg.RedisOwnerLease)
		owner := relay.NewServer(logger, rdb, prefix, lease, func() relay.Matchmaker {
			return game.NewRegistry(logger, gateway.NewDispatcher(logger, frames), publisher)
		})
		remote := relay.NewRemote(logger, rdb, prefix, instance, cfg.RedisRequestTimeout)

		go relay.NewSubscriber(logger, rdb, prefix, connections).Run(ctx)
		go owner.Run(ctx)
		go remote.Run(ctx)
		go lease.Run(ctx)

		matchmaker = remote
		slog.Info("Sharing the live session through Redis", "instance", instance, "prefix", prefix)
	} else {
		matchmaker = game.NewRegistry(logger, gateway.NewDispatcher(logger, connections), publisher)
	}

	// --- Dependency Injection ---
	identities := gateway.NewIdentityIssuer(cfg.IdentitySecret, cfg.CookieTTL)
	if cfg.IdentitySecret == "" {
		slog.Warn("identity.secret_key is empty, identities will not survive reconnects")
	}
	wsHandler := gateway.NewWebsocketHandler(logger, matchmaker, connections, identities, cfg.Websocket)
	httpHandler := gateway.NewHTTPHandler(logger, matchmaker, connections)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:           gateway.NewRouter(wsHandler, httpHandler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// --- gRPC Server Initialization ---
	grpcServer := grpc.NewServer()
	queryrpc.RegisterQueryServer(grpcServer, queryrpc.NewGRPCHandler(logger, matchmaker))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(queryrpc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	// Enable gRPC reflection. This is useful for tools like grpcurl to query the server.
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
	if err != nil {
		slog.Error("Failed to listen on gRPC port", "port", cfg.GRPCPort, "error", err)
		os.Exit(1)
	}

	// --- Start Servers ---
	go func() {
		slog.Info("Game query gRPC server listening", "address", lis.Addr().String())
		if err := grpcServer.Serve(lis); err != nil {
			slog.Error("gRPC server failed to serve", "error", err)
		}
	}()

	go func() {
		slog.Info("Game server starting...", "port", cfg.HTTPPort, "dispatch", cfg.DispatchBackend)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Could not start server", "error", err)
			os.Exit(1)
		}
	}()

	if cfg.DiagnosticsPort != "" {
		startDiagnosticsServer(cfg.DiagnosticsPort)
	}

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down servers...")
	cancel()
	healthServer.Shutdown()
	grpcServer.GracefulStop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	slog.Info("Servers shut down gracefully.")
}

// startDiagnosticsServer serves net/http/pprof on the default mux.
func startDiagnosticsServer(port string) {
	go func() {
		slog.Info("Starting diagnostics server", "port", port)
		if err := http.ListenAndServe(fmt.Sprintf(":%s", port), nil); err != nil {
			slog.Error("Diagnostics server failed to start", "error", err)
		}
	}()
}
