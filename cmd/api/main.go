package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"arima-backtest/internal/api/handlers"
	"arima-backtest/internal/api/middleware"
	"arima-backtest/internal/config"
	"arima-backtest/internal/data"
	"arima-backtest/internal/forecast"
	"arima-backtest/internal/logging"
	"arima-backtest/internal/metrics"
	"arima-backtest/internal/store"
)

func main() {
	cfg := loadConfig()
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}
	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	st := newStore()
	defer st.Close()

	recorder := metrics.NewRecorder(prometheus.DefaultRegisterer)
	fitter := forecast.NewARIMA(forecast.Config{})
	dataDir := data.DefaultDataDir()

	evaluationHandler := handlers.NewEvaluationHandler(*cfg, fitter, st, recorder, dataDir)
	datasetHandler := handlers.NewDatasetHandler(dataDir)
	modelHandler := handlers.NewModelHandler()

	router := gin.New()
	router.Use(middleware.RequestLogger())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS(nil))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		api.POST("/evaluations", evaluationHandler.RunEvaluation)
		api.GET("/evaluations/:id", evaluationHandler.GetEvaluation)
		api.POST("/evaluations/sweep", evaluationHandler.RunSweep)

		api.GET("/datasets", datasetHandler.ListDatasets)
		api.GET("/models", modelHandler.ListModels)
	}

	srv := &http.Server{Addr: ":" + port, Handler: router}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("starting api server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}

func loadConfig() *config.Config {
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		return config.Default()
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("loading config failed")
	}
	return cfg
}

// newStore picks Redis when REDIS_ADDR is set and reachable, otherwise the
// in-memory store.
func newStore() store.Store {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", addr).Msg("redis unreachable, using in-memory store")
			_ = client.Close()
		} else {
			log.Info().Str("addr", addr).Msg("using redis store")
			return store.NewRedis(client, "")
		}
	}
	return store.NewMemory(0)
}
