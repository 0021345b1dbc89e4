package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/lamdn/course-registration-api/api/swagger"
	"github.com/lamdn/course-registration-api/internal/handler"
	"github.com/lamdn/course-registration-api/internal/middleware"
	"github.com/lamdn/course-registration-api/internal/models"
	"github.com/lamdn/course-registration-api/internal/repository"
	"github.com/lamdn/course-registration-api/internal/service"
	"github.com/lamdn/course-registration-api/pkg/cache"
	"github.com/lamdn/course-registration-api/pkg/config"
	"github.com/lamdn/course-registration-api/pkg/database"
	"github.com/lamdn/course-registration-api/pkg/jobs"
	"github.com/lamdn/course-registration-api/pkg/logger"
	corsmiddleware "github.com/lamdn/course-registration-api/pkg/middleware/cors"
	reqidmiddleware "github.com/lamdn/course-registration-api/pkg/middleware/requestid"
	"github.com/lamdn/course-registration-api/pkg/storage"
)

// @title Course Registration API
// @version 1.0.0
// @description Course registration cart and tuition payment service
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// Redis is a soft dependency: the period cache degrades to the
		// database and payment proofs become unavailable.
		logr.Sugar().Warnw("redis unavailable, running without cache", "error", err)
		redisClient = nil
	}

	cartRepo := repository.NewCartRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	periodRepo := repository.NewPeriodRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(service.AuthConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer}, logr)
	proofSvc := service.NewPaymentProofService(cacheRepo, cfg.Registration.PaymentProofTTL, logr)
	periodSvc := service.NewPeriodService(periodRepo, cartRepo, cacheRepo, cfg.Registration.PeriodCacheTTL, nil, logr).
		WithMetrics(metricsSvc)
	cartSvc := service.NewCartService(cartRepo, courseRepo, periodSvc, proofSvc, nil, logr)

	cartHandler := handler.NewCartHandler(cartSvc, proofSvc, metricsSvc)
	courseHandler := handler.NewCourseHandler(cartSvc)
	periodHandler := handler.NewPeriodHandler(periodSvc)

	var receiptHandler *handler.ReceiptHandler
	if cfg.Receipts.Enabled {
		store, err := storage.NewLocalStorage(cfg.Receipts.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Receipts.SignedURLSecret, cfg.Receipts.SignedURLTTL)
		receiptRepo := repository.NewReceiptJobRepository(db)
		exportSvc := service.NewExportService(cartRepo, store, signer, logr)
		receiptSvc := service.NewReceiptService(receiptRepo, exportSvc, cfg.APIPrefix+"/exports/download", logr)

		queue := jobs.NewQueue("receipt-exports", receiptSvc.HandleJob, jobs.QueueConfig{
			Workers:    cfg.Receipts.WorkerConcurrency,
			MaxRetries: cfg.Receipts.WorkerRetries,
			Logger:     logr,
		})
		queue.Start(context.Background())
		defer queue.Stop()
		receiptSvc.SetQueue(queue)
		receiptSvc.StartCleanupLoop(context.Background(), cfg.Receipts.CleanupInterval, cfg.Receipts.SignedURLTTL)

		receiptHandler = handler.NewReceiptHandler(receiptSvc, exportSvc)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	// Signed downloads carry their own authorization in the token.
	if receiptHandler != nil {
		api.GET("/exports/download", receiptHandler.Download)
	}

	authed := api.Group("", middleware.JWT(authSvc))

	student := middleware.RequireRoles(models.RoleStudent)
	admin := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin)

	cart := authed.Group("/classmember")
	{
		cart.GET("", student, cartHandler.ListMine)
		cart.POST("", student, cartHandler.Add)
		cart.DELETE("", student, cartHandler.Remove)
		cart.GET("/filter", student, cartHandler.Filter)
		cart.GET("/filter-strict", student, cartHandler.FilterStrict)
		cart.POST("/save", student, cartHandler.Save)
		cart.POST("/pay", student, cartHandler.Pay)
		cart.GET("/pay/qr", student, cartHandler.IssueQR)
		cart.GET("/paid", admin, cartHandler.ListPaid)
		cart.GET("/admin/all", admin, cartHandler.ListAll)
		cart.GET("/teacher/:courseId/students", staff, cartHandler.Roster)
		if receiptHandler != nil {
			cart.POST("/paid/export", admin, receiptHandler.Request)
			cart.GET("/paid/export/:id", admin, receiptHandler.Status)
		}
	}

	authed.GET("/course/student/all-courses", student, courseHandler.ListAvailable)

	periods := authed.Group("/registercourse")
	{
		periods.GET("", periodHandler.List)
		periods.POST("", admin, periodHandler.Create)
		periods.PUT("/update-time", admin, periodHandler.UpdateRegisterTime)
		periods.GET("/me", student, periodHandler.Mine)
		periods.GET("/:id", periodHandler.Detail)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
