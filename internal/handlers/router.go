package handlers

import (
	"time"

	"github.com/SAP-F-2025/adaptive-assessment-service/internal/metrics"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/services"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const serviceName = "adaptive-assessment-service"

type HandlerManager struct {
	sessionHandler   *SessionHandler
	telemetryHandler *TelemetryHandler
	reportHandler    *ReportHandler
	authenticator    Authenticator
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	authenticator Authenticator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		sessionHandler:   NewSessionHandler(serviceManager.Session(), logger),
		telemetryHandler: NewTelemetryHandler(serviceManager.Telemetry(), logger),
		reportHandler:    NewReportHandler(serviceManager.Analytics(), serviceManager.Export(), logger),
		authenticator:    authenticator,
	}
}

// NewRouter builds the engine with the shared middleware stack and every route
func NewRouter(hm *HandlerManager, allowedOrigins []string, logger utils.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ContextLogger(logger))
	router.Use(utils.LoggerMiddleware(logger))
	router.Use(metrics.Middleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID", headerUserID, headerUserRole},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	hm.SetupRoutes(router)
	return router
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)
	router.GET("/metrics", metrics.Handler())

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		adaptive := v1.Group("/adaptive")
		adaptive.Use(AuthMiddleware(hm.authenticator))
		{
			// Session loop
			adaptive.POST("/start", hm.sessionHandler.StartSession)
			adaptive.POST("/:id/answer", hm.sessionHandler.SubmitAnswer)
			adaptive.GET("/history", hm.sessionHandler.GetHistory)

			// Telemetry
			adaptive.POST("/:id/events", hm.telemetryHandler.RecordEvents)

			// Analytics
			adaptive.GET("/:id/report", hm.reportHandler.GetRiskReport)
			adaptive.POST("/:id/report/recompute", RequireStaff(), hm.reportHandler.RecomputeRiskReport)
			adaptive.POST("/:id/profile", hm.reportHandler.ComputeProfile)
			adaptive.GET("/:id/profile", hm.reportHandler.GetProfile)

			// Staff exports
			adaptive.GET("/export", RequireStaff(), hm.reportHandler.ExportSubject)
		}
	}
}
