package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/TheB2D/Glass/internal/auth"
	"github.com/TheB2D/Glass/internal/cache"
	"github.com/TheB2D/Glass/internal/config"
	"github.com/TheB2D/Glass/internal/device"
	"github.com/TheB2D/Glass/internal/events"
	"github.com/TheB2D/Glass/internal/handler"
	"github.com/TheB2D/Glass/internal/hub"
	"github.com/TheB2D/Glass/internal/log"
	"github.com/TheB2D/Glass/internal/service"
	"github.com/TheB2D/Glass/internal/storage"
	"github.com/TheB2D/Glass/internal/stream"
)

func main() {
	cfg, err := config.Load("./config")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.Log)
	logger := log.L()
	logger.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("starting glass")

	photoCache, err := buildCache(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize photo cache")
	}

	store, err := buildStorage(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}

	var producer events.Producer = events.NopProducer{}
	if cfg.Events.Enabled {
		producer, err = events.NewConfluentProducer(cfg.Events)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize event producer")
		}
		logger.Info().Str("brokers", cfg.Events.Brokers).Str("topic", cfg.Events.Topic).Msg("capture events enabled")
	}
	defer producer.Close()

	tokens, err := auth.NewManager(cfg.Auth)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize auth")
	}

	wsHub := hub.NewHub(cfg.WebSocket)
	photoSvc := service.NewPhotoService(photoCache, wsHub, store, producer)

	camera, err := buildCamera(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize camera")
	}

	coordinator := stream.NewCoordinator(camera, photoSvc, cfg.Capture.Interval)
	for _, userID := range cfg.Device.Sim.Users {
		coordinator.StartSession(userID)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go coordinator.Run(ctx, cfg.Capture.TickPeriod)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), log.GinMiddleware(logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handler.NewHTTPHandler(photoSvc, coordinator, tokens, cfg.Auth.DevTokens).RegisterRoutes(r)
	handler.NewWSHandler(wsHub, tokens).RegisterRoutes(r)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("glass listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("glass stopped")
}

func buildCache(cfg *config.Config) (cache.PhotoCache, error) {
	switch cfg.Cache.Backend {
	case "", "memory":
		return cache.NewMemoryCache(), nil
	case "redis":
		return cache.NewRedisCache(cfg.Cache.Redis)
	default:
		return nil, fmt.Errorf("unknown cache backend: %s", cfg.Cache.Backend)
	}
}

func buildStorage(cfg *config.Config) (storage.Storage, error) {
	switch cfg.Storage.Backend {
	case "", "local":
		return storage.NewLocalStorage(cfg.Storage.Local)
	case "s3":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return storage.NewS3Storage(ctx, cfg.Storage.S3)
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}
}

func buildCamera(cfg *config.Config) (device.Camera, error) {
	switch cfg.Device.Backend {
	case "", "sim":
		return device.NewSimulator(cfg.Device.Sim.Latency), nil
	default:
		return nil, fmt.Errorf("unknown device backend: %s", cfg.Device.Backend)
	}
}
