package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bhagyaj/Markr/internal/api"
	"github.com/bhagyaj/Markr/internal/archive"
	"github.com/bhagyaj/Markr/internal/cache"
	"github.com/bhagyaj/Markr/internal/config"
	"github.com/bhagyaj/Markr/internal/db"
	"github.com/bhagyaj/Markr/internal/ingest"
	"github.com/bhagyaj/Markr/internal/logger"
	"github.com/bhagyaj/Markr/internal/stats"
	"github.com/bhagyaj/Markr/internal/storage"
	"github.com/bhagyaj/Markr/migrations"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.Get()

	log.Info().Str("version", cfg.App.Version).Msg("Starting results API server")

	database, err := db.NewConnection(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	if err := migrations.InitSchema(database); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize schema")
	}

	repo := db.NewRepository(database)

	// The statistics cache is optional; without it aggregates are
	// computed from the store on every request.
	var statsCache stats.Cache
	if cfg.Redis.Enabled {
		redisCache, err := cache.New(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisCache.Close()
		statsCache = redisCache
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Batch archiving is optional too.
	var archiver *archive.Archiver
	if cfg.Storage.S3.Enabled {
		s3Store, err := storage.NewS3Storage(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize S3 storage")
		}
		archiver = archive.New(s3Store, cfg.Archive.Workers)
		archiver.Start(ctx)
		defer archiver.Stop()
	}

	ingestSvc := ingest.NewService(repo)
	statsSvc := stats.NewService(repo, statsCache)
	handler := api.NewHandler(ingestSvc, statsSvc, archiver, cfg)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(api.CORSMiddleware())
	router.Use(api.LoggingMiddleware())
	router.Use(api.RecoveryMiddleware())

	api.SetupRoutes(router, handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
