package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aescanero/livegraph/internal/application/graph"
	"github.com/aescanero/livegraph/internal/application/livegraph"
	"github.com/aescanero/livegraph/internal/application/snapshots"
	"github.com/aescanero/livegraph/internal/config"
	"github.com/aescanero/livegraph/pkg/adapters/auth"
	"github.com/aescanero/livegraph/pkg/adapters/events"
	memoryevents "github.com/aescanero/livegraph/pkg/adapters/events/memory"
	redisevents "github.com/aescanero/livegraph/pkg/adapters/events/redis"
	"github.com/aescanero/livegraph/pkg/adapters/metrics/prometheus"
	memorystorage "github.com/aescanero/livegraph/pkg/adapters/storage/memory"
	redisstorage "github.com/aescanero/livegraph/pkg/adapters/storage/redis"
	"github.com/aescanero/livegraph/pkg/adapters/stream"
	"github.com/aescanero/livegraph/pkg/adapters/ticket"
	"github.com/aescanero/livegraph/pkg/api/grpc"
	"github.com/aescanero/livegraph/pkg/api/http"
	"github.com/aescanero/livegraph/pkg/api/websocket"
	"github.com/aescanero/livegraph/pkg/domain"
	"github.com/aescanero/livegraph/pkg/ports"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Version is set by build flags
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	logger.Info("starting live graph service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime))

	ctx := context.Background()

	// Initialize event bus and snapshot storage
	var (
		redisClient  *goredis.Client
		eventBus     ports.EventBus
		snapshotRepo ports.SnapshotStorage
	)
	if cfg.Redis.Enabled {
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal("failed to connect to Redis", zap.Error(err))
		}
		logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))

		streamsBus, err := redisevents.NewStreamsEventBus(
			redisClient,
			"livegraph-viewers",
			fmt.Sprintf("livegraph-%d", os.Getpid()),
			cfg.Redis.StreamMaxLen,
			logger,
		)
		if err != nil {
			logger.Fatal("failed to create event bus", zap.Error(err))
		}
		eventBus = streamsBus
		snapshotRepo = redisstorage.NewSnapshotStorage(redisClient, cfg.Snapshots.TTL, logger)
	} else {
		eventBus = memoryevents.NewInMemoryEventBus(logger)
		snapshotRepo = memorystorage.NewInMemorySnapshotStorage()
	}

	// Metrics
	registry := promclient.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metricsCollector := prometheus.NewCollector(registry)

	// Live graph client
	backoff, err := livegraph.NewBackoff(cfg.Client.Backoff, cfg.Client.RetryBaseDelay, cfg.Client.RetryMaxDelay)
	if err != nil {
		logger.Fatal("failed to create backoff", zap.Error(err))
	}

	client, err := livegraph.NewClient(&livegraph.Config{
		BaseURL:    cfg.Client.BaseURL,
		StreamPath: cfg.Client.StreamPath,
		MaxRetries: cfg.Client.MaxRetries,
		Backoff:    backoff,
		Tokens:     tokenSource(cfg.Client),
		Tickets:    ticket.NewIssuer(cfg.Client.BaseURL, cfg.Client.TicketPath, cfg.Client.TicketTimeout, logger),
		Dialer:     stream.NewDialer(cfg.Client.HandshakeTimeout, logger),
		Observer:   events.NewObserver(eventBus, logger),
		Metrics:    metricsCollector,
		Model:      graph.NewModel(),
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal("failed to create live graph client", zap.Error(err))
	}

	if cfg.Snapshots.Restore {
		restoreSnapshot(ctx, client, snapshotRepo, logger)
	}

	monitor := snapshots.NewMonitor(client, snapshotRepo, metricsCollector, cfg.Snapshots.Interval, logger)
	monitor.Start()

	// Initialize API servers
	httpServer := http.NewServer(&http.Config{
		Addr:     cfg.GetHTTPAddr(),
		Client:   client,
		Storage:  snapshotRepo,
		Gatherer: registry,
		Logger:   logger,
	})

	// Add WebSocket handler to HTTP server
	wsHandler := websocket.NewHandler(eventBus, client, cfg.Client.ViewerBuffer, logger)
	httpServer.SetupWebSocket(wsHandler)

	grpcServer, err := grpc.NewServer(&grpc.Config{
		Addr:   cfg.GetGRPCAddr(),
		Logger: logger,
	})
	if err != nil {
		logger.Fatal("failed to create gRPC server", zap.Error(err))
	}

	// Keep gRPC health in step with the stream state
	busCtx, cancelBus := context.WithCancel(ctx)
	defer cancelBus()
	err = eventBus.Subscribe(busCtx, domain.TopicGraph, func(ctx context.Context, event domain.Event) error {
		if state, ok := events.StateOf(event); ok {
			grpcServer.SetLiveGraphState(state)
		}
		return nil
	})
	if err != nil {
		logger.Fatal("failed to subscribe to graph events", zap.Error(err))
	}

	// Start servers
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	go func() {
		if err := grpcServer.Start(); err != nil {
			logger.Fatal("gRPC server failed", zap.Error(err))
		}
	}()

	if cfg.Client.AutoConnect {
		go func() {
			if err := client.Connect(ctx); err != nil {
				logger.Warn("initial connect failed", zap.Error(err))
			}
		}()
	}

	logger.Info("live graph service started",
		zap.String("client_id", client.ID()),
		zap.Int("http_port", cfg.HTTPPort),
		zap.Int("grpc_port", cfg.GRPCPort),
		zap.Bool("redis_enabled", cfg.Redis.Enabled))

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("received shutdown signal")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.ShutdownTimeout)
	defer cancel()

	// Save the graph before teardown clears it
	if err := monitor.Flush(shutdownCtx); err != nil {
		logger.Error("snapshot flush error", zap.Error(err))
	}
	monitor.Stop()

	client.Disconnect()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	if err := grpcServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("gRPC server shutdown error", zap.Error(err))
	}

	cancelBus()
	if err := eventBus.Close(); err != nil {
		logger.Error("event bus close error", zap.Error(err))
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("Redis close error", zap.Error(err))
		}
	}

	logger.Info("live graph service shut down complete")
}

// tokenSource picks the identity token source. A token file wins over a
// static token.
func tokenSource(cfg config.ClientConfig) ports.TokenSource {
	if cfg.IDTokenFile != "" {
		return auth.File(cfg.IDTokenFile)
	}
	return auth.Static(cfg.IDToken)
}

// restoreSnapshot seeds the client graph from the last saved snapshot
func restoreSnapshot(ctx context.Context, client *livegraph.Client, storage ports.SnapshotStorage, logger *zap.Logger) {
	snap, err := storage.Load(ctx, snapshots.LatestKey)
	if err != nil {
		logger.Warn("no snapshot restored", zap.Error(err))
		return
	}

	client.Restore(snap)
	logger.Info("restored graph snapshot",
		zap.Int("nodes", len(snap.Nodes)),
		zap.Int("edges", len(snap.Edges)),
		zap.Time("taken_at", snap.TakenAt))
}

// initLogger initializes the logger based on log level
func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	return logger
}
