package router

import (
	"time"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/config"
	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/handler"
	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/middleware"
	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/repository"
	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/service"
	"github.com/Dysa-Devlmer/SYSME-POS-sub010/internal/worker"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	sessionRepo := repository.NewSessionRepository(db)
	movementRepo := repository.NewMovementRepository(db)
	zreportRepo := repository.NewZReportRepository(db)
	saleRepo := repository.NewSaleRepository(db)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	// ── Services ─────────────────────────────────────────────────────────────
	zreportSvc := service.NewZReportService(zreportRepo, saleRepo)
	sessionSvc := service.NewSessionService(sessionRepo, movementRepo, zreportSvc, rdb, dispatcher)
	salesSvc := service.NewSalesLinkage(sessionRepo, movementRepo, saleRepo, rdb)

	// ── Handlers ─────────────────────────────────────────────────────────────
	cashH := handler.NewCashHandler(sessionSvc)
	zreportH := handler.NewZReportHandler(zreportSvc, dispatcher)
	salesH := handler.NewSalesHandler(salesSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: cajero, supervisor, administrador — declared per-endpoint
		operator := middleware.RequireRole("cajero", "supervisor", "administrador")
		supervisor := middleware.RequireRole("supervisor", "administrador")

		cash := v1.Group("/cash")
		{
			cash.POST("/open", operator, cashH.Open)
			cash.POST("/movement", operator, cashH.Movement)
			cash.POST("/close", operator, cashH.Close)
			cash.GET("/active", operator, cashH.GetActive)
			cash.GET("/history", supervisor, cashH.History)
			cash.GET("/:id", operator, cashH.Get)
			cash.GET("/:id/movements", operator, cashH.Movements)
			cash.GET("/:id/x-report", operator, cashH.XReport)
			cash.GET("/:id/z-report", operator, zreportH.GetBySession)
			cash.POST("/:id/suspend", operator, cashH.Suspend)
			cash.POST("/:id/resume", operator, cashH.Resume)
		}

		zreports := v1.Group("/z-reports", supervisor)
		{
			zreports.GET("", zreportH.List)
			zreports.GET("/:id", zreportH.Get)
			zreports.POST("/:id/print", zreportH.Reprint)
		}

		v1.POST("/sales/completed", operator, salesH.Completed)
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
