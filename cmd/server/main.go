package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Skufu/symptomatch/internal/api"
	"github.com/Skufu/symptomatch/internal/catalog"
	"github.com/Skufu/symptomatch/internal/config"
	"github.com/Skufu/symptomatch/internal/database"
	"github.com/Skufu/symptomatch/internal/history"
	"github.com/Skufu/symptomatch/internal/observability"
	"github.com/Skufu/symptomatch/internal/predictor"
)

const serviceName = "symptomatch"

// dbConnectWait bounds how long startup retries an unreachable database.
const dbConnectWait = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config error")
	}

	gin.SetMode(cfg.GinMode)
	observability.InitLogger(serviceName, cfg.Env)

	ctx := context.Background()
	deps, cleanup, err := buildDeps(ctx, cfg)
	if err != nil {
		cleanup()
		log.Fatal().Err(err).Msg("startup failed")
	}
	defer cleanup()

	recorder := history.NewAsync(deps.Recorder, cfg.LogWriteTimeout)
	deps.Recorder = recorder

	router := api.NewRouter(serviceName, deps)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	log.Info().
		Str("port", cfg.Port).
		Bool("db", cfg.EnableDB).
		Bool("cache", cfg.EnableCache).
		Msg("server listening")
	waitForShutdown(server, recorder)
}

// buildDeps wires the catalog and query log. Without a database the bundled
// seed catalog is served from memory and queries are not persisted. The
// returned cleanup is always non-nil, including on error.
func buildDeps(ctx context.Context, cfg *config.Config) (api.Deps, func(), error) {
	var (
		deps     api.Deps
		source   catalog.Source
		cleanups []func()
	)
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	if cfg.EnableDB {
		pool, err := database.Connect(ctx, cfg.DatabaseURL, dbConnectWait)
		if err != nil {
			return deps, cleanup, err
		}
		cleanups = append(cleanups, pool.Close)

		store := history.NewPostgres(pool)
		deps.DB = pool
		deps.Recorder = store
		deps.History = store
		source = catalog.NewPostgres(pool)
	} else {
		seed, err := catalog.LoadSeed()
		if err != nil {
			return deps, cleanup, err
		}
		log.Warn().Int("diseases", len(seed)).Msg("database disabled, serving bundled catalog")
		deps.Recorder = history.Nop{}
		source = catalog.NewMemory(seed...)
	}

	if cfg.EnableCache {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		cleanups = append(cleanups, func() { _ = client.Close() })
		source = catalog.NewCached(source, catalog.NewRedisStore(client), cfg.CatalogCacheTTL)
	}

	deps.Catalog = source
	deps.Predictor = predictor.New(source)
	return deps, cleanup, nil
}

func waitForShutdown(server *http.Server, recorder *history.Async) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	if err := recorder.Close(ctx); err != nil {
		log.Warn().Err(err).Msg("pending query log writes abandoned")
	}
}
