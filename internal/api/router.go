// Package api exposes the prediction engine over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/Skufu/symptomatch/internal/history"
	"github.com/Skufu/symptomatch/internal/predictor"
)

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 1 << 20

type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Predictor interface {
	Predict(ctx context.Context, symptoms []string) ([]predictor.Prediction, error)
}

type HistoryReader interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]history.QueryRecord, error)
}

// Deps are the collaborators the router serves. DB and History may be nil when
// the database is disabled.
type Deps struct {
	DB        HealthChecker
	Predictor Predictor
	Catalog   predictor.Catalog
	Recorder  history.Recorder
	History   HistoryReader
	Now       func() time.Time
}

func NewRouter(serviceName string, deps Deps) *gin.Engine {
	if deps.Recorder == nil {
		deps.Recorder = history.Nop{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	h := &handlers{deps: deps}

	router := gin.New()
	router.Use(
		gin.Logger(),
		gin.Recovery(),
		otelgin.Middleware(serviceName),
		limitBodySize(MaxBodyBytes),
		cors.New(cors.Config{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type", "Authorization", UserIDHeader},
			MaxAge:       12 * time.Hour,
		}),
	)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/readyz", func(c *gin.Context) {
		if deps.DB == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "disabled"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := deps.DB.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "degraded",
				"db":     fmt.Sprintf("unhealthy: %v", err),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "ok"})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.POST("/predict", h.predict)
	api.GET("/predictions/history", h.history)
	api.GET("/diseases", h.diseases)

	return router
}

func limitBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
