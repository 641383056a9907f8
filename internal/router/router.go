package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/qpaper-backend/internal/config"
	"github.com/stemsi/qpaper-backend/internal/handler"
	"github.com/stemsi/qpaper-backend/internal/middleware"
	"github.com/stemsi/qpaper-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Paper    *handler.PaperHandler
	Course   *handler.CourseHandler
	Question *handler.QuestionHandler
	Stats    *handler.StatsHandler
	System   *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// generateLimiter may be nil to leave paper generation unthrottled.
func SetupRouter(
	handlers *Handlers,
	generateLimiter *middleware.RateLimiter,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.Brotli())

	router.GET("/health", handlers.System.Health)

	api := router.Group("/api/v1")

	// ─── 1. Courses ────────────────────────────────────────────────────
	courses := api.Group("/courses")
	{
		courses.GET("", middleware.CacheControl(60), handlers.Course.GetAll)
		courses.GET("/:id/history", middleware.NoStore(), handlers.Course.History)
		courses.GET("/:id/stats", middleware.NoStore(), handlers.Stats.GetPoolStats)
		courses.POST("/:id/pool/refresh", handlers.Course.RefreshPool)
		courses.GET("/:id/questions", middleware.NoStore(), handlers.Question.ListQuestions)
		courses.POST("/:id/questions", handlers.Question.AddQuestion)
		courses.PUT("/:id/questions", handlers.Question.ReplaceQuestions)
	}

	// ─── 2. Papers (rate limited) ──────────────────────────────────────
	papers := api.Group("/papers")
	papers.Use(middleware.NoStore())
	if generateLimiter != nil {
		papers.Use(generateLimiter.Middleware())
	}
	{
		papers.POST("/full-term", handlers.Paper.FullTerm)
		papers.POST("/partial-term", handlers.Paper.PartialTerm)
		papers.POST("/flexible", handlers.Paper.Flexible)
	}

	return router
}
