package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"pantrychef/internal/log"
)

// RouterConfig holds the cross-cutting settings of the service router.
type RouterConfig struct {
	AllowOrigins []string
	// Limiter is optional; nil serves every request.
	Limiter *RateLimiter
}

// NewRouter wires the handler into a gin engine.
func NewRouter(h *Handler, logger *slog.Logger, conf RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), log.Middleware(logger))

	corsConfig := cors.Config{
		AllowOrigins:     conf.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length", log.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(conf.AllowOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	r.Use(cors.New(corsConfig))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "model": h.Model != nil, "search": h.Searcher != nil})
	})

	limited := r.Group("/")
	if conf.Limiter != nil {
		limited.Use(conf.Limiter.Limit)
	}
	limited.POST("/recognize_ingredients", h.RecognizeIngredients)
	limited.POST("/generate_recipes", h.GenerateRecipes)

	return r
}
