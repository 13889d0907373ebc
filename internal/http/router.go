package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"career-guide/internal/service"
)

// RouterDeps agrupa lo que necesita el router.
type RouterDeps struct {
	Logger      *zap.Logger
	Quiz        *QuizHandler
	JWT         *service.JWTService
	RateLimiter service.RateLimiter
	CORSOrigins []string
}

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery, CORS y JSON content-type.
	r.Use(zapLoggerMiddleware(deps.Logger), gin.Recovery(), corsMiddleware(deps.CORSOrigins), jsonContentTypeMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/quiz")
	api.Use(OptionalJWTMiddleware(deps.JWT))

	api.GET("/questions", deps.Quiz.GetQuestions)
	api.POST("/next-question", deps.Quiz.NextQuestion)
	api.POST("/calculate-scores", deps.Quiz.CalculateScores)

	// Rutas que llaman al modelo: limitadas por cliente.
	limited := api.Group("")
	limited.Use(rateLimitMiddleware(deps.RateLimiter))
	limited.POST("/generate-mcq", deps.Quiz.GenerateMCQ)
	limited.POST("/recommendations", deps.Quiz.Recommendations)
	limited.POST("/submit", deps.Quiz.Submit)
	limited.POST("/sessions", deps.Quiz.StartSession)
	limited.POST("/sessions/:id/answer", deps.Quiz.AnswerSession)
	limited.POST("/sessions/:id/mcq", deps.Quiz.AnswerSessionMCQ)

	api.GET("/sessions/:id", deps.Quiz.GetSession)
	api.GET("/results/:id", deps.Quiz.GetResult)
	api.GET("/results", JWTAuthMiddleware(deps.JWT), deps.Quiz.ListResults)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization")
	return cors.New(cfg)
}

// rateLimitMiddleware responde 429 cuando el cliente supera su cuota. Sin limiter no hace nada.
func rateLimitMiddleware(limiter service.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		key := c.ClientIP()
		if uid := currentUserID(c); uid != "" {
			key = "user:" + uid
		}
		if !limiter.Allow(key) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
