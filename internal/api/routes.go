package api

import (
	"net/http"

	"github.com/AgungSukaAFK/ga-web-sub000/internal/auth"
	"github.com/AgungSukaAFK/ga-web-sub000/internal/config"
	"github.com/AgungSukaAFK/ga-web-sub000/internal/websocket"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Controllers bundles every HTTP controller for route registration.
type Controllers struct {
	MaterialRequest  *MaterialRequestController
	PurchaseOrder    *PurchaseOrderController
	CostCenter       *CostCenterController
	ApprovalTemplate *ApprovalTemplateController
	Export           *ExportController
}

// SetupRoutes configures the gin engine: middleware chain, public probes,
// the websocket endpoint and the authenticated /api/v1 group.
func SetupRoutes(cfg *config.Config, hub *websocket.Hub, validator *auth.TokenValidator, db *gorm.DB, ctrl Controllers) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(RequestIDMiddleware())
	router.Use(RequestLogMiddleware())
	router.Use(SecurityHeadersMiddleware())
	router.Use(CORSMiddleware(cfg.CORS.AllowedOrigins))
	if cfg.RateLimit.RPS > 0 {
		router.Use(RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}
	if cfg.Tracing.Enabled {
		router.Use(TracingMiddleware())
	}

	healthController := NewHealthController(db)
	router.GET("/health", healthController.Check)

	router.GET("/metrics", MetricsHandler)

	if hub != nil && validator != nil {
		router.GET("/ws", websocket.Handler(hub, validator))
	}

	router.NoRoute(func(c *gin.Context) {
		Error(c, http.StatusNotFound, "route not found", "")
	})

	v1 := router.Group("/api/v1")
	v1.Use(auth.Middleware(validator))
	{
		mrs := v1.Group("/material-requests")
		{
			mrs.POST("", ctrl.MaterialRequest.Create)
			mrs.GET("", ctrl.MaterialRequest.List)
			mrs.GET("/:id", ctrl.MaterialRequest.Get)
			mrs.PUT("/:id", ctrl.MaterialRequest.Update)
			mrs.DELETE("/:id", ctrl.MaterialRequest.Delete)
			mrs.POST("/:id/validate", ctrl.MaterialRequest.Validate)
			mrs.POST("/:id/reject-validation", ctrl.MaterialRequest.RejectValidation)
			mrs.POST("/:id/approve", ctrl.MaterialRequest.Approve)
			mrs.POST("/:id/reject", ctrl.MaterialRequest.Reject)
			mrs.POST("/:id/close", ctrl.MaterialRequest.Close)
			mrs.PUT("/:id/items/:index/status", ctrl.MaterialRequest.UpdateItemStatus)
			mrs.POST("/:id/discussions", ctrl.MaterialRequest.AddDiscussion)
			mrs.POST("/:id/attachments", ctrl.MaterialRequest.UploadAttachment)
			mrs.DELETE("/:id/attachments/:name", ctrl.MaterialRequest.RemoveAttachment)
			mrs.POST("/:id/reassign-cost-center", ctrl.MaterialRequest.ReassignCostCenter)
			mrs.GET("/:id/history", ctrl.MaterialRequest.History)
		}

		pos := v1.Group("/purchase-orders")
		{
			pos.POST("", ctrl.PurchaseOrder.Create)
			pos.GET("", ctrl.PurchaseOrder.List)
			pos.GET("/:id", ctrl.PurchaseOrder.Get)
			pos.PUT("/:id", ctrl.PurchaseOrder.Update)
			pos.DELETE("/:id", ctrl.PurchaseOrder.Delete)
			pos.POST("/:id/submit", ctrl.PurchaseOrder.Submit)
			pos.POST("/:id/validate", ctrl.PurchaseOrder.Validate)
			pos.POST("/:id/reject-validation", ctrl.PurchaseOrder.RejectValidation)
			pos.POST("/:id/approve", ctrl.PurchaseOrder.Approve)
			pos.POST("/:id/reject", ctrl.PurchaseOrder.Reject)
			pos.POST("/:id/mark-ordered", ctrl.PurchaseOrder.MarkOrdered)
			pos.POST("/:id/close", ctrl.PurchaseOrder.Close)
			pos.POST("/:id/discussions", ctrl.PurchaseOrder.AddDiscussion)
			pos.POST("/:id/attachments", ctrl.PurchaseOrder.UploadAttachment)
			pos.GET("/:id/history", ctrl.PurchaseOrder.History)
		}

		ccs := v1.Group("/cost-centers")
		{
			ccs.POST("", ctrl.CostCenter.Create)
			ccs.GET("", ctrl.CostCenter.List)
			ccs.GET("/:id", ctrl.CostCenter.Get)
			ccs.POST("/:id/adjust", ctrl.CostCenter.Adjust)
			ccs.GET("/:id/history", ctrl.CostCenter.History)
		}

		templates := v1.Group("/templates")
		{
			templates.POST("", ctrl.ApprovalTemplate.Create)
			templates.GET("", ctrl.ApprovalTemplate.List)
			templates.GET("/:id", ctrl.ApprovalTemplate.Get)
			templates.PUT("/:id", ctrl.ApprovalTemplate.Update)
			templates.DELETE("/:id", ctrl.ApprovalTemplate.Delete)
		}

		export := v1.Group("/export")
		{
			export.GET("/material-requests", ctrl.Export.MaterialRequests)
			export.GET("/items", ctrl.Export.Items)
			export.GET("/xlsx", ctrl.Export.XLSX)
		}
	}

	return router
}
