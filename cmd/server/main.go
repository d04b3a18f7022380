package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/3IMAD69/LocalCut-sub000/internal/cache"
	"github.com/3IMAD69/LocalCut-sub000/internal/config"
	"github.com/3IMAD69/LocalCut-sub000/internal/engine"
	"github.com/3IMAD69/LocalCut-sub000/internal/export"
	"github.com/3IMAD69/LocalCut-sub000/internal/logging"
	"github.com/3IMAD69/LocalCut-sub000/internal/metrics"
)

func main() {
	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Probe cache is optional; the registry probes directly without it.
	var probeCache *cache.ProbeCache
	if cfg.Cache.Enabled {
		probeCache, err = cache.NewProbeCache(cfg.Cache.Host, cfg.Cache.Port, cfg.Cache.Password, cfg.Cache.DB, cfg.Cache.TTL)
		if err != nil {
			logger.ErrorWithErr("probe cache unavailable, continuing without it", err)
			probeCache = nil
		} else {
			defer probeCache.Close()
		}
	}

	decoder := engine.NewFFmpegEngine(cfg.Engine.FFmpegPath, cfg.Engine.FFprobePath, logger)

	exporter := export.NewService(decoder, cfg.Export.MaxConcurrent, logger)
	defer exporter.Stop()

	server := NewServer(cfg, logger, decoder, probeCache, exporter)

	router := setupRouter(server)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server stopped")
}

func setupRouter(s *Server) *gin.Engine {
	router := gin.Default()
	router.Use(requestMetrics())

	router.GET("/health", s.healthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		// Sessions
		v1.POST("/sessions", s.createSession)
		v1.GET("/sessions/:id", s.getSession)
		v1.DELETE("/sessions/:id", s.deleteSession)

		// Assets
		v1.POST("/sessions/:id/assets", s.registerAsset)
		v1.POST("/sessions/:id/assets/:assetId/load", s.loadSource)
		v1.DELETE("/sessions/:id/assets/:assetId/source", s.unloadSource)

		// Tracks and clips
		v1.POST("/sessions/:id/tracks", s.addTrack)
		v1.POST("/sessions/:id/tracks/:trackId/clips", s.addClip)
		v1.POST("/sessions/:id/clips/:clipId/move", s.moveClip)
		v1.DELETE("/sessions/:id/clips/:clipId", s.removeClip)
		v1.PUT("/sessions/:id/clips/:clipId/transform", s.setClipTransform)
		v1.PUT("/sessions/:id/clips/:clipId/filters", s.setClipFilters)
		v1.PUT("/sessions/:id/clips/:clipId/editing", s.setClipEditing)

		// Transient gesture overrides
		v1.PUT("/sessions/:id/overrides/:clipId/transform", s.stageTransformOverride)
		v1.PUT("/sessions/:id/overrides/:clipId/filters", s.stageFiltersOverride)
		v1.POST("/sessions/:id/overrides/:clipId/commit", s.commitOverrides)
		v1.DELETE("/sessions/:id/overrides/:clipId", s.clearOverrides)

		// Composition
		v1.GET("/sessions/:id/composition", s.getComposition)

		// Exports
		v1.POST("/sessions/:id/clips/:clipId/export", s.exportClip)
		v1.GET("/exports/:jobId", s.getExportJob)
		v1.POST("/exports/:jobId/cancel", s.cancelExportJob)
	}

	return router
}

func requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		metrics.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(c.Writer.Status()),
		).Inc()
	}
}
