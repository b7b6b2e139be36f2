// backend-go/cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresuchdata/autoforecast/backend-go/internal/api"
	"github.com/andresuchdata/autoforecast/backend-go/internal/cache"
	"github.com/andresuchdata/autoforecast/backend-go/internal/config"
	"github.com/andresuchdata/autoforecast/backend-go/internal/importer"
	"github.com/andresuchdata/autoforecast/backend-go/internal/repository"
	"github.com/andresuchdata/autoforecast/backend-go/internal/repository/memory"
	"github.com/andresuchdata/autoforecast/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/autoforecast/backend-go/internal/service"
	"github.com/andresuchdata/autoforecast/backend-go/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	repos, closeRepos, err := openRepositories(cfg)
	if err != nil {
		logger.Log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("Failed to open repositories")
	}
	defer closeRepos()

	forecastCache, err := cache.NewForecastCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Forecast cache unavailable, continuing without it")
		forecastCache = cache.NewNoopForecastCache()
	}
	dashboardCache, err := cache.NewDashboardCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Dashboard cache unavailable, continuing without it")
		dashboardCache = cache.NewNoopDashboardCache()
	}

	forecastService := service.NewForecastService(repos, forecastCache, dashboardCache, cfg.Forecast)

	router := api.NewRouter(&api.Services{ForecastService: forecastService}, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	// 5 seconds to finish in-flight requests
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}

// openRepositories picks the storage backend. The memory driver is seeded
// from the CSV files in the data directory.
func openRepositories(cfg *config.Config) (repository.Repositories, func(), error) {
	if cfg.Database.Driver == "memory" {
		store := memory.NewStore()
		result, err := importer.New(store).ImportDir(context.Background(), cfg.App.DataDir)
		if err != nil {
			return repository.Repositories{}, nil, err
		}
		logger.Log.Info().
			Str("dir", cfg.App.DataDir).
			Int("files", result.Files).
			Int("products", result.Products).
			Msg("Loaded in-memory data")
		return store.Repositories(), func() {}, nil
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		return repository.Repositories{}, nil, err
	}
	if err := postgres.Migrate(context.Background(), db.DB.DB); err != nil {
		db.Close()
		return repository.Repositories{}, nil, err
	}
	return postgres.NewRepositories(db), func() { db.Close() }, nil
}
