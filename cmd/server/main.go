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

	"github.com/rs/zerolog"

	"messenger/config"
	"messenger/internal/block"
	"messenger/internal/cache"
	"messenger/internal/channel"
	"messenger/internal/conversation"
	"messenger/internal/database"
	"messenger/internal/message"
	"messenger/internal/profile"
	"messenger/internal/storage"
	"messenger/internal/verification"
)

const (
	healthInterval  = 15 * time.Second
	sweepInterval   = time.Minute
	objectURLTTL    = 10 * time.Minute
	shutdownTimeout = 10 * time.Second
)

func models() []interface{} {
	return []interface{}{
		&profile.Profile{},
		&block.BlockedUser{},
		&conversation.Conversation{},
		&conversation.Group{},
		&conversation.GroupMember{},
		&channel.Channel{},
		&channel.Admin{},
		&channel.Subscription{},
		&message.Message{},
		&verification.PhoneVerification{},
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsProduction() {
		return zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(zerolog.DebugLevel).
		With().Timestamp().Logger()
}

func newObjectStorage(cfg *config.Config, logger zerolog.Logger) (storage.ObjectStorage, func(), error) {
	var objects storage.ObjectStorage
	if cfg.StorageBaseURL == "" {
		logger.Warn().Msg("STORAGE_BASE_URL not set, keeping avatars in memory")
		objects = storage.NewMemory("http://localhost:" + cfg.Port)
	} else {
		objects = storage.NewSignedStorage(cfg.StorageBaseURL, cfg.StorageSigningKey, &http.Client{Timeout: 10 * time.Second}, logger)
	}

	if cfg.RedisAddr == "" {
		return objects, func() {}, nil
	}
	redisCache, err := cache.NewRedisCache(cfg.RedisAddr)
	if err != nil {
		return nil, nil, err
	}
	closeCache := func() {
		if err := redisCache.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close redis")
		}
	}
	return cache.NewObjectURLCache(objects, redisCache, objectURLTTL, logger), closeCache, nil
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("failed to load config")
	}
	logger := newLogger(cfg)

	db, err := database.NewDatabase(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing database connection")
		}
	}()

	if err := db.Migrate(models()...); err != nil {
		logger.Fatal().Err(err).Msg("failed to run database migrations")
	}

	objects, closeCache, err := newObjectStorage(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize object storage")
	}
	defer closeCache()

	server := InitializeServer(cfg, db, objects, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go server.Health().Run(ctx, healthInterval)
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				server.RateLimiter().Sweep()
			}
		}
	}()

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to listen")
	}
	go func() {
		logger.Info().Str("port", cfg.GRPCPort).Msg("starting gRPC server")
		if err := server.GRPC().Serve(lis); err != nil {
			logger.Error().Err(err).Msg("gRPC server stopped")
		}
	}()

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("port", cfg.Port).Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("failed to serve")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP shutdown failed")
	}
	server.GRPC().GracefulStop()
}
