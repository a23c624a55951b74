// Package server assembles services, handlers and middleware into the HTTP API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"kpr/internal/config"
	_ "kpr/internal/docs" // swagger docs
	"kpr/internal/handlers"
	"kpr/internal/kv"
	"kpr/internal/loan"
	"kpr/internal/metrics"
	"kpr/internal/middleware"
	"kpr/internal/notify"
	"kpr/internal/rates"
	"kpr/internal/services"
	"kpr/internal/storage"
	"kpr/internal/wizard"
)

// Dependencies are the collaborators the API is built from.
type Dependencies struct {
	Config    *config.Config
	DB        *gorm.DB
	Store     kv.Store
	Rates     *rates.Registry
	Documents storage.DocumentStorage
	Mailer    notify.Mailer
}

// draftSweepInterval is how often sessions of expired drafts are released.
const draftSweepInterval = 5 * time.Minute

// Server owns the router and the background work that must be stopped.
type Server struct {
	Router    *gin.Engine
	limiter   *middleware.RateLimiter
	stopSweep context.CancelFunc
	sweepDone chan struct{}
}

// New wires every service and handler and registers the routes.
func New(deps Dependencies) *Server {
	cfg := deps.Config
	db := deps.DB

	// Services
	userService := services.NewUserService(db, services.LoginPolicy{
		MaxAttempts:  cfg.MaxLoginAttempts,
		LockDuration: cfg.LoginLockDuration,
	})
	otpService := services.NewOTPService(deps.Store, deps.Mailer, services.OTPPolicy{
		TTL:         cfg.OTPTTL,
		Cooldown:    cfg.OTPResendCooldown,
		MaxAttempts: cfg.OTPMaxAttempts,
	})
	auditService := services.NewAuditService(db)
	propertyService := services.NewPropertyService(db)
	calculatorService := services.NewCalculatorService(deps.Rates, loan.AffordabilityPolicy{
		DebtToIncomeRatio: decimal.NewFromFloat(cfg.AffordabilityDTIRatio),
	})
	controller := wizard.NewController(wizard.NewDraftStore(deps.Store, cfg.DraftTTL))
	wizardService := services.NewWizardService(controller, propertyService, cfg.MaxDocumentBytes)
	applicationService := services.NewApplicationService(db, controller, propertyService, calculatorService, deps.Documents, auditService)

	tokens := middleware.NewTokenManager(cfg.JWTSecret, cfg.JWTExpirationDur, cfg.JWTRefreshDur, cfg.PasswordResetDur).
		TrackResetTokens(deps.Store)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, otpService, tokens, auditService)
	calculatorHandler := handlers.NewCalculatorHandler(calculatorService)
	propertyHandler := handlers.NewPropertyHandler(propertyService)
	wizardHandler := handlers.NewWizardHandler(wizardService, applicationService, cfg.MaxDocumentBytes)
	applicationHandler := handlers.NewApplicationHandler(applicationService)

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMin, time.Minute)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.RequestMetrics())
	router.Use(middleware.ErrorHandler())
	router.Use(cors())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/api/health", health(db))

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth", middleware.RateLimit(limiter))
	auth.POST("/register", authHandler.Register)
	auth.POST("/verify-email", authHandler.VerifyEmail)
	auth.POST("/resend-otp", authHandler.ResendOTP)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.POST("/forgot-password/verify", authHandler.VerifyResetOTP)
	auth.POST("/reset-password", authHandler.ResetPassword)

	v1.POST("/simulator", calculatorHandler.Simulate)
	v1.POST("/simulator/schedule.pdf", calculatorHandler.ExportSchedulePDF)
	v1.POST("/simulator/schedule.xlsx", calculatorHandler.ExportScheduleXLSX)
	v1.POST("/affordability", calculatorHandler.Affordability)
	v1.GET("/interest-rates", calculatorHandler.ListRates)
	v1.GET("/interest-rates/:id", calculatorHandler.GetRate)
	v1.GET("/properties", propertyHandler.ListProperties)
	v1.GET("/properties/:id", propertyHandler.GetProperty)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(tokens))

	protected.GET("/profile", authHandler.GetProfile)
	protected.PUT("/profile", authHandler.UpdateProfile)

	apply := protected.Group("/kpr-apply")
	apply.POST("/:property_id/enter", wizardHandler.Enter)
	apply.GET("/draft", wizardHandler.GetDraft)
	apply.PATCH("/draft", wizardHandler.UpdateForm)
	apply.DELETE("/draft", wizardHandler.Reset)
	apply.POST("/draft/next", wizardHandler.Next)
	apply.POST("/draft/prev", wizardHandler.Prev)
	apply.PUT("/draft/step", wizardHandler.SetStep)
	apply.GET("/draft/documents", wizardHandler.ListDocuments)
	apply.POST("/draft/documents/:field", wizardHandler.UploadDocument)
	apply.DELETE("/draft/documents/:field", wizardHandler.DeleteDocument)
	apply.POST("/submit", wizardHandler.Submit)

	applications := protected.Group("/applications")
	applications.GET("", applicationHandler.ListApplications)
	applications.GET("/:id", applicationHandler.GetApplication)

	// Back-office pipeline
	pipeline := v1.Group("/pipeline")
	pipeline.Use(middleware.PipelineAuthMiddleware(cfg.PipelineAPIKey))
	pipeline.PATCH("/applications/:id/status", applicationHandler.UpdateStatus)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		controller.SweepEvery(sweepCtx, draftSweepInterval)
	}()

	return &Server{Router: router, limiter: limiter, stopSweep: stopSweep, sweepDone: sweepDone}
}

// Close stops background work and waits for it to finish.
func (s *Server) Close() {
	s.limiter.Stop()
	s.stopSweep()
	<-s.sweepDone
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
