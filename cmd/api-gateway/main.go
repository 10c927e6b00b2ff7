package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/edunest/tutoring-api/api/swagger"
	"github.com/edunest/tutoring-api/internal/handler"
	"github.com/edunest/tutoring-api/internal/middleware"
	"github.com/edunest/tutoring-api/internal/models"
	"github.com/edunest/tutoring-api/internal/repository"
	"github.com/edunest/tutoring-api/internal/service"
	"github.com/edunest/tutoring-api/pkg/cache"
	"github.com/edunest/tutoring-api/pkg/config"
	"github.com/edunest/tutoring-api/pkg/database"
	"github.com/edunest/tutoring-api/pkg/logger"
	corsmiddleware "github.com/edunest/tutoring-api/pkg/middleware/cors"
	reqidmiddleware "github.com/edunest/tutoring-api/pkg/middleware/requestid"
	"github.com/edunest/tutoring-api/pkg/storage"
)

// @title Tutoring Center API
// @version 1.0.0
// @description Fee computation, installment scheduling and invoicing
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
	defer db.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.FeeCache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, fee cache disabled", "error", err)
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.FeeCache.TTL, logr, true)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}

	studentRepo := repository.NewStudentRepository(db)
	feeRepo := repository.NewFeeRepository(db)
	var auditRepo *repository.AuditRepository
	if cfg.Audit.Enabled {
		auditRepo = repository.NewAuditRepository(db)
	}

	tokenSvc := service.NewTokenService(cfg.JWT.Secret, logr)
	studentSvc := service.NewStudentService(studentRepo, feeRepo, nil, logr)
	feeSvc := service.NewFeeService(studentRepo, feeRepo, cacheSvc, metricsSvc, nil, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var invoiceSvc *service.InvoiceService
	if cfg.Invoices.Enabled {
		store, err := storage.NewLocalStorage(cfg.Invoices.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init invoice storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Invoices.SignedURLSecret, cfg.Invoices.SignedURLTTL)
		invoiceSvc = service.NewInvoiceService(studentRepo, feeSvc, store, signer, metricsSvc, service.InvoiceConfig{
			APIPrefix:  cfg.APIPrefix,
			ResultTTL:  cfg.Invoices.SignedURLTTL,
			Workers:    cfg.Invoices.WorkerConcurrency,
			MaxRetries: cfg.Invoices.WorkerRetries,
		}, logr)
		invoiceSvc.Start(ctx)
		defer invoiceSvc.Stop()
		go runInvoiceCleanup(ctx, invoiceSvc, cfg.Invoices.CleanupInterval, logr.Sugar())
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
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	studentHandler := handler.NewStudentHandler(studentSvc)
	feeHandler := handler.NewFeeHandler(feeSvc)

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(tokenSvc))

	anyStaff := middleware.RequireRoles(models.RoleAdmin, models.RoleAccountant, models.RoleStaff)
	feeManagers := middleware.RequireRoles(models.RoleAdmin, models.RoleAccountant)

	students := api.Group("/students")
	students.GET("", anyStaff, studentHandler.List)
	students.GET("/:id", anyStaff, studentHandler.Get)
	students.POST("", feeManagers, middleware.Audit(auditRepo, models.AuditActionStudentCreate, "students"), studentHandler.Create)
	students.PUT("/:id", feeManagers, studentHandler.Update)
	students.DELETE("/:id", feeManagers, studentHandler.Deactivate)

	students.GET("/:id/fees", anyStaff, feeHandler.GetState)
	students.POST("/:id/fees/preview", anyStaff, feeHandler.Preview)
	students.PUT("/:id/fees", feeManagers, middleware.Audit(auditRepo, models.AuditActionFeeUpdate, "fees"), feeHandler.Update)
	students.POST("/:id/installments", feeManagers, middleware.Audit(auditRepo, models.AuditActionInstallmentAdd, "installments"), feeHandler.AddInstallment)
	students.DELETE("/:id/installments/:seq", feeManagers, middleware.Audit(auditRepo, models.AuditActionInstallmentDelete, "installments"), feeHandler.DeleteInstallment)
	students.POST("/:id/installments/:seq/payment", feeManagers, middleware.Audit(auditRepo, models.AuditActionInstallmentPayment, "installments"), feeHandler.RecordPayment)

	if auditRepo != nil {
		auditHandler := handler.NewAuditHandler(auditRepo)
		students.GET("/:id/audit", middleware.RequireRoles(models.RoleAdmin), auditHandler.ListForStudent)
	}

	if invoiceSvc != nil {
		invoiceHandler := handler.NewInvoiceHandler(invoiceSvc)
		students.POST("/:id/invoices", feeManagers, invoiceHandler.Enqueue)
		api.GET("/invoices/jobs/:jobId", anyStaff, invoiceHandler.Status)
		// Download links are signed and time-limited; no JWT required so
		// they can be shared with guardians.
		r.GET(cfg.APIPrefix+"/invoices/download/:token", invoiceHandler.Download)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}

func runInvoiceCleanup(ctx context.Context, invoices *service.InvoiceService, interval time.Duration, logr *zap.SugaredLogger) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := invoices.Cleanup()
			if err != nil {
				logr.Warnw("invoice cleanup failed", "error", err)
				continue
			}
			if len(deleted) > 0 {
				logr.Infow("invoice cleanup", "deleted", len(deleted))
			}
		}
	}
}
