package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/irfndi/stockai-go/internal/api/handlers"
	"github.com/irfndi/stockai-go/internal/middleware"
	"github.com/irfndi/stockai-go/internal/services"
	"github.com/irfndi/stockai-go/internal/telemetry"
)

// Dependencies are the collaborators behind the HTTP surface. Only Analysis
// and Logger are required; nil stores switch their routes to 503.
type Dependencies struct {
	Analysis       *services.AnalysisService
	News           services.NewsSource
	ValidPeriod    handlers.PeriodValidator
	Watchlist      handlers.WatchlistStore
	History        handlers.HistoryStore
	Cache          handlers.MarketCache
	Scanner        handlers.Scanner
	HealthChecks   map[string]handlers.HealthChecker
	Capabilities   handlers.Capabilities
	Version        string
	JWTSecret      string
	AdminAPIKey    string
	AllowedOrigins []string
	Logger         *logrus.Logger
}

// NewRouter builds a gin engine with the standard middleware chain and all routes.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(telemetry.ServiceName))
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.CORS(deps.AllowedOrigins))

	SetupRoutes(router, deps)
	return router
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	health := handlers.NewHealthHandler(deps.HealthChecks, deps.Version, deps.Capabilities)
	router.GET("/health", health.HealthCheck)
	router.HEAD("/health", health.HealthCheck)
	router.GET("/ready", health.ReadinessCheck)
	router.GET("/ping", health.Ping)
	router.GET("/status", health.Status)

	auth := middleware.NewAuthMiddleware(deps.JWTSecret)
	analysis := handlers.NewAnalysisHandler(deps.Analysis, deps.News, deps.ValidPeriod, deps.Logger)
	watchlist := handlers.NewWatchlistHandler(deps.Watchlist, deps.Logger)
	history := handlers.NewHistoryHandler(deps.History, deps.Logger)

	v1 := router.Group("/api/v1")
	{
		stocks := v1.Group("/stocks")
		{
			stocks.GET("/analyze/:symbol", analysis.GetAnalysis)
			stocks.POST("/analyze", analysis.PostAnalysis)
			stocks.POST("/analyze/batch", analysis.PostBatch)
			stocks.GET("/report/:symbol", analysis.GetReport)
			stocks.POST("/sentiment/analyze", analysis.PostSentiment)
			stocks.GET("/news/:symbol", analysis.GetNews)
		}

		watch := v1.Group("/watchlist", auth.RequireAuth())
		{
			watch.GET("", watchlist.GetWatchlist)
			watch.POST("", watchlist.AddSymbols)
			watch.DELETE("/:symbol", watchlist.RemoveSymbol)
		}

		v1.GET("/history/:symbol", auth.RequireAuth(), history.GetHistory)

		// Admin routes exist only when an admin key is configured.
		if deps.AdminAPIKey != "" {
			admin := handlers.NewAdminHandler(deps.Cache, deps.Scanner, auth, deps.Logger)
			adminGroup := v1.Group("/admin", middleware.NewAdminMiddleware(deps.AdminAPIKey).RequireAdminAuth())
			{
				adminGroup.GET("/cache/stats", admin.GetCacheStats)
				adminGroup.DELETE("/cache/:symbol", admin.InvalidateSymbol)
				adminGroup.POST("/scan", admin.TriggerScan)
				adminGroup.GET("/scan", admin.GetLastScan)
				adminGroup.POST("/tokens", admin.IssueToken)
			}
		}
	}
}
