package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/sfp-api/api/swagger"
	"github.com/noah-isme/sfp-api/internal/handler"
	"github.com/noah-isme/sfp-api/internal/middleware"
	"github.com/noah-isme/sfp-api/internal/models"
	"github.com/noah-isme/sfp-api/internal/repository"
	"github.com/noah-isme/sfp-api/internal/service"
	"github.com/noah-isme/sfp-api/pkg/cache"
	"github.com/noah-isme/sfp-api/pkg/config"
	"github.com/noah-isme/sfp-api/pkg/database"
	"github.com/noah-isme/sfp-api/pkg/export"
	"github.com/noah-isme/sfp-api/pkg/genai"
	"github.com/noah-isme/sfp-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sfp-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sfp-api/pkg/middleware/requestid"
	"github.com/noah-isme/sfp-api/pkg/storage"
)

// @title School Fee Portal API
// @version 1.0.0
// @description Backend for the parent school-fee portal
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	var cacheSvc *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, dashboard caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.CacheEnabled)
	}

	parentRepo := repository.NewParentRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	reminderRepo := repository.NewReminderRepository(db)

	authSvc := service.NewAuthService(parentRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	gateway := service.NewSimulatedGateway(cfg.Payments.SuccessRate)
	ledgerSvc := service.NewLedgerService(studentRepo, logr)
	paymentSvc := service.NewPaymentService(paymentRepo, studentRepo, gateway, cacheSvc, metricsSvc, validate, logr)
	dashboardSvc := service.NewDashboardService(studentRepo, paymentRepo, ledgerSvc, cacheSvc, metricsSvc, logr)
	reminderSvc := service.NewReminderService(reminderRepo, studentRepo, validate, logr)

	tempStore, err := storage.NewTempStore(cfg.Uploads.TempDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare upload directory", "error", err)
	}
	genClient := genai.NewClient(cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.Timeout)
	if !genClient.Configured() {
		logr.Sugar().Warnw("gemini api key not configured, ai routes will serve fallback text")
	}
	adviceSvc := service.NewAdviceService(genClient, studentRepo, paymentRepo, tempStore, cfg.Uploads.MaxSizeBytes, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	paymentHandler := handler.NewPaymentHandler(paymentSvc, adviceSvc, export.NewReceiptPDF("School Fee Portal"))
	reminderHandler := handler.NewReminderHandler(reminderSvc)
	aiHandler := handler.NewAIHandler(adviceSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// API_PREFIX mounts the parent-facing surface under a path prefix when
	// the deployment needs one; operational endpoints stay at the root.
	base := r.Group(cfg.APIPrefix)

	auth := base.Group("/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/login", authHandler.Login)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	requireParent := []gin.HandlerFunc{middleware.JWT(authSvc), middleware.RequireRoles(models.RoleParent)}

	dashboard := base.Group("/dashboard", requireParent...)
	{
		dashboard.GET("/fee-breakdown", dashboardHandler.FeeBreakdown)
		dashboard.GET("/payment-history", dashboardHandler.PaymentHistory)
		dashboard.GET("/upcoming-dues", dashboardHandler.UpcomingDues)
	}

	payments := base.Group("/payments", requireParent...)
	{
		payments.POST("/initiate", paymentHandler.Initiate)
		payments.GET("/receipt/:id", paymentHandler.Receipt)
		payments.GET("/receipt/:id/pdf", paymentHandler.ReceiptPDF)
		payments.GET("/all-receipts", paymentHandler.AllReceipts)
		payments.POST("/summarize-receipts", paymentHandler.SummarizeReceipts)
	}

	reminders := base.Group("/reminders", requireParent...)
	{
		reminders.POST("", reminderHandler.Create)
		reminders.GET("", reminderHandler.List)
	}

	ai := base.Group("/ai", requireParent...)
	{
		ai.POST("/summarize", aiHandler.Summarize)
		ai.GET("/advice", aiHandler.Advice)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
