package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gamemaster/gamemaster-server-go/internal/bot"
	"github.com/gamemaster/gamemaster-server-go/internal/config"
	"github.com/gamemaster/gamemaster-server-go/internal/history"
	"github.com/gamemaster/gamemaster-server-go/internal/repository"
	"github.com/gamemaster/gamemaster-server-go/internal/rules"
	"github.com/gamemaster/gamemaster-server-go/internal/server"
	"github.com/gamemaster/gamemaster-server-go/internal/telegram"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	envFile    = flag.String("env", ".env", "optional dotenv file loaded before the configuration")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	// A missing .env is normal outside local development
	envErr := godotenv.Load(*envFile)

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting game master server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		logger.Warn("failed to load env file", zap.String("path", *envFile), zap.Error(envErr))
	}

	// Create context that listens for termination signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize conversation history
	store, closeStore, err := newHistoryStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize history store", zap.Error(err))
	}
	defer closeStore()

	// Initialize the optional score log
	var recorder bot.ScoreRecorder
	if cfg.Database.Enabled() {
		db, err := repository.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			logger.Fatal("failed to migrate database", zap.Error(err))
		}

		stats := db.Stats()
		logger.Info("database connection pool initialized",
			zap.Int32("total_conns", stats.TotalConns()),
			zap.Int32("idle_conns", stats.IdleConns()),
		)
		recorder = repository.NewScoreLogRepository(db)
	} else {
		logger.Info("database not configured; score log disabled")
	}

	// Initialize rules assistant and dispatcher
	kb := rules.NewKnowledgeBase(rules.SeaSaltAndPaper, cfg.Assistant.TopK, logger)
	dispatcher := bot.NewDispatcher(kb, store, recorder, cfg.History.MaxMessages, logger)

	// Initialize Telegram adapter
	var (
		tgBot   *telegram.Bot
		webhook *server.TelegramWebhook
	)
	if cfg.Telegram.Enabled {
		api, err := telegram.NewAPI(cfg.Telegram)
		if err != nil {
			logger.Fatal("failed to initialize telegram bot", zap.Error(err))
		}
		logger.Info("telegram bot authorized", zap.String("username", api.Self.UserName))

		tgBot = telegram.New(api, dispatcher, logger)
		if cfg.Telegram.Mode == config.TelegramModeWebhook {
			webhook = &server.TelegramWebhook{Token: cfg.Telegram.Token, Handler: tgBot}
		}
	}

	// Start gRPC server
	grpcServer := server.NewGRPCServer(cfg.Server.GRPC, server.NewGameMasterServer(dispatcher, logger), logger)

	lis, err := net.Listen("tcp", cfg.Server.GRPC.Address)
	if err != nil {
		logger.Fatal("failed to listen", zap.Error(err))
	}

	go func() {
		logger.Info("starting gRPC server", zap.String("address", cfg.Server.GRPC.Address))
		if serveErr := grpcServer.Serve(lis); serveErr != nil {
			logger.Error("gRPC server error", zap.Error(serveErr))
		}
	}()

	// Start HTTP server
	hub := server.NewHub(dispatcher, cfg.Server.HTTP.AllowedOrigins, logger)
	httpServer := &http.Server{
		Addr:    cfg.Server.HTTP.Address,
		Handler: server.NewRouter(cfg.Server.HTTP, dispatcher, hub, webhook, logger),
	}

	go func() {
		logger.Info("starting HTTP server", zap.String("address", cfg.Server.HTTP.Address))
		if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("HTTP server error", zap.Error(serveErr))
		}
	}()

	// Start Telegram updates
	tgDone := make(chan struct{})
	switch {
	case tgBot == nil:
		close(tgDone)
	case webhook != nil:
		close(tgDone)
		url := strings.TrimRight(cfg.Telegram.WebhookURL, "/") + "/telegram/" + cfg.Telegram.Token
		if err := tgBot.RegisterWebhook(url); err != nil {
			logger.Fatal("failed to register telegram webhook", zap.Error(err))
		}
	default:
		go func() {
			defer close(tgDone)
			if runErr := tgBot.Run(ctx); runErr != nil {
				logger.Error("telegram polling error", zap.Error(runErr))
			}
		}()
	}

	logger.Info("game master server initialized",
		zap.String("version", version),
		zap.String("grpc_address", cfg.Server.GRPC.Address),
		zap.String("http_address", cfg.Server.HTTP.Address),
		zap.String("history_backend", cfg.History.Backend),
		zap.Bool("telegram", cfg.Telegram.Enabled),
	)

	// Wait for termination signal
	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	// Graceful shutdown
	logger.Info("shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	hub.CloseAll()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown error", zap.Error(err))
	}

	grpcServer.GracefulStop()

	select {
	case <-tgDone:
	case <-shutdownCtx.Done():
		logger.Warn("telegram polling did not stop in time")
	}

	logger.Info("game master server stopped")
}

// newHistoryStore builds the configured history backend and returns a close
// function for it.
func newHistoryStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (history.Store, func(), error) {
	if cfg.History.Backend != config.HistoryBackendRedis {
		logger.Info("history store initialized", zap.String("backend", config.HistoryBackendMemory))
		return history.NewMemoryStore(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ping redis %s: %w", cfg.Redis.Addr, err)
	}

	logger.Info("history store initialized",
		zap.String("backend", config.HistoryBackendRedis),
		zap.String("addr", cfg.Redis.Addr),
		zap.Duration("ttl", cfg.History.TTL),
	)
	closeFn := func() {
		if err := client.Close(); err != nil {
			logger.Warn("failed to close redis client", zap.Error(err))
		}
	}
	return history.NewRedisStore(client, cfg.History.TTL, logger), closeFn, nil
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
