package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/mossy-p/webrtc-recorder/config"
	"github.com/mossy-p/webrtc-recorder/internal/catalog"
	"github.com/mossy-p/webrtc-recorder/internal/handlers"
	"github.com/mossy-p/webrtc-recorder/internal/recording"
	"github.com/mossy-p/webrtc-recorder/internal/redis"
	"github.com/mossy-p/webrtc-recorder/internal/signaling"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the signaling server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := config.NewLogger(os.Stdout, cfg.Log)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var presence *redis.Presence
	if cfg.Redis.Enabled {
		rdb, err := redis.NewClient(cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer rdb.Close()

		presence = redis.NewPresence(rdb, cfg.Redis.Prefix, cfg.Redis.InstanceID)
		if err := presence.Reset(ctx); err != nil {
			logger.Warn("failed to reset presence set", "err", err)
		}
		logger.Info("redis connection established", "addr", cfg.Redis.Host+":"+cfg.Redis.Port, "instance", cfg.Redis.InstanceID)
	}

	if cfg.Admin.Password == "" {
		logger.Warn("ADMIN_PASSWORD not set, recordings API disabled")
	}

	cat, err := catalog.Open(cfg.Recording.DatabaseDSN, catalog.Options{Logger: logger})
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer cat.Close()

	store := recording.NewStore(cfg.Recording.MediaRoot)
	finalizer := recording.NewFinalizer(store, cat, logger)

	var registry *signaling.Registry
	if presence != nil {
		registry = signaling.NewRegistry(presence, logger)
	} else {
		registry = signaling.NewRegistry(nil, logger)
	}

	sessionCfg := signaling.SessionConfig{
		Registry:        registry,
		Relay:           signaling.NewRelay(registry, logger),
		Recorder:        recording.NewRecorder(store, logger),
		Finalizer:       finalizer,
		Logger:          logger,
		MaxMessageBytes: cfg.Signaling.MaxMessageBytes,
		CatalogTimeout:  cfg.Recording.CatalogTimeout,
	}
	wsOpts := signaling.WSOptions{
		WriteTimeout: cfg.Signaling.WriteTimeout,
		PingInterval: cfg.Signaling.PingInterval,
		PongWait:     cfg.Signaling.PongWait,
	}

	// Sessions finish their catalog work after the listener stops, so they
	// get a context that is not cancelled by the shutdown signal.
	sigHandler := handlers.NewSignalingHandler(context.WithoutCancel(ctx), sessionCfg, wsOpts, logger)

	deps := handlers.RouterDeps{
		Config:     cfg,
		Registry:   registry,
		Signaling:  sigHandler,
		Recordings: handlers.NewRecordingsHandler(cat, finalizer, logger),
		Logger:     logger,
	}
	if presence != nil {
		deps.Presence = presence
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting signaling server",
			"port", cfg.Port,
			"path", cfg.Signaling.Path,
			"media_root", store.Root(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Hijacked WebSocket connections are not tracked by Shutdown.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "err", err)
	}
	registry.CloseAll(websocket.CloseGoingAway, "server shutting down")
	sigHandler.Wait()

	logger.Info("server stopped")
	return nil
}
