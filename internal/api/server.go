package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"binance-trading-bot/internal/ai"
	"binance-trading-bot/internal/apperr"
	"binance-trading-bot/internal/auth"
	"binance-trading-bot/internal/database"
	"binance-trading-bot/internal/events"
	"binance-trading-bot/internal/fillsync"
	"binance-trading-bot/internal/logging"
	"binance-trading-bot/internal/sentiment"
	"binance-trading-bot/internal/tradelifecycle"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           int
	Host           string
	ProductionMode bool
}

// Server is the HTTP API surface over the three engines.
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	cfg        ServerConfig
	repo       *database.Repository
	eventBus   *events.EventBus
	lifecycle  *tradelifecycle.Engine
	sentiment  *sentiment.Engine
	fillsync   *fillsync.Scheduler
	ai         *ai.Client
	modelName  string
	authMgr    *auth.Manager
	log        *logging.Logger
}

// NewServer wires a Gin router over the three engines. authMgr may be
// nil, in which case mutating routes are left unauthenticated.
func NewServer(
	cfg ServerConfig,
	repo *database.Repository,
	eventBus *events.EventBus,
	lifecycle *tradelifecycle.Engine,
	sentimentEngine *sentiment.Engine,
	fillSync *fillsync.Scheduler,
	aiClient *ai.Client,
	modelName string,
	authMgr *auth.Manager,
) *Server {
	if cfg.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://localhost:8088"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	s := &Server{
		router:    router,
		cfg:       cfg,
		repo:      repo,
		eventBus:  eventBus,
		lifecycle: lifecycle,
		sentiment: sentimentEngine,
		fillsync:  fillSync,
		ai:        aiClient,
		modelName: modelName,
		authMgr:   authMgr,
		log:       logging.WithComponent("api"),
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/ws", s.handleWebSocket)

	guard := func(c *gin.Context) {}
	if s.authMgr != nil {
		guard = auth.Middleware(s.authMgr)
	}

	chartAnalysis := s.router.Group("/api/chart-analysis")
	{
		chartAnalysis.POST("/analyze", guard, s.handleAnalyze)
		chartAnalysis.GET("/history/:ticker", s.handleAnalysisHistory)
		chartAnalysis.DELETE("/delete/:id", guard, s.handleDeleteAnalysis)
	}

	activeTrades := s.router.Group("/api/active-trades")
	{
		activeTrades.GET("/all", s.handleActiveTradesAll)
		activeTrades.GET("/all-history", s.handleActiveTradesHistory)
		activeTrades.POST("/close", guard, s.handleCloseTrade)
	}

	macroSentiment := s.router.Group("/api/macro-sentiment")
	{
		macroSentiment.GET("/status", s.handleSentimentStatus)
		macroSentiment.POST("/analyze", guard, s.handleSentimentAnalyze)
		macroSentiment.POST("/scan", guard, s.handleSentimentScan)
		macroSentiment.GET("/history", s.handleSentimentHistory)
		macroSentiment.POST("/bootstrap", guard, s.handleSentimentBootstrap)
	}
}

// respondError maps an apperr.Kind to its HTTP status and writes a
// uniform {"error": ...} body, used by every mutating and lookup handler.
func respondError(c *gin.Context, err error) {
	c.JSON(apperr.Status(err), gin.H{"error": err.Error()})
}

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.repo.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.httpServer = &http.Server{Addr: addr, Handler: s.router}
	s.log.Info("starting api server", "addr", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server within ctx's deadline,
// capped at 10 seconds.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
