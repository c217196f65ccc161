package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hfyy456/bread-manager-1-sub001/internal/middleware"
)

// RegisterRoutes api 需已挂载 JWTAuth
func RegisterRoutes(api *gin.RouterGroup, h *Handlers) {
	read := middleware.RequirePermission(middleware.PermCostingRead)
	planWrite := middleware.RequirePermission(middleware.PermPlanWrite)
	// 计算和导出较重，按用户限流
	heavy := middleware.RateLimit(2*time.Second, 10)

	breads := api.Group("/bread-types", read)
	{
		breads.GET("/costs", h.Costing.ListBreadCosts)
		breads.GET("/:id/cost", h.Costing.BreadCost)
	}

	materials := api.Group("/materials")
	{
		materials.GET("/safety-presets", read, h.Costing.SafetyPresets)
		materials.POST("/aggregate", read, h.Costing.Aggregate)
		materials.POST("/purchase-report", read, h.Costing.PurchaseReport)
		materials.POST("/purchase-report/export",
			middleware.RequirePermission(middleware.PermReportExport), heavy, h.Costing.ExportPurchaseReport)
	}

	catalog := api.Group("/catalog")
	{
		catalog.GET("/issues", read, h.Catalog.Issues)
		catalog.POST("/import", planWrite, h.Catalog.Import)
	}
	api.PUT("/ingredients/:id/stock", planWrite, h.Catalog.UpdateStock)

	plans := api.Group("/plans")
	{
		plans.GET("", read, h.Plan.List)
		plans.POST("", planWrite, h.Plan.Create)
		plans.GET("/:id", read, h.Plan.Get)
		plans.DELETE("/:id", planWrite, h.Plan.Delete)
		plans.POST("/:id/purchase-runs",
			middleware.RequirePermission(middleware.PermPurchaseRun), heavy, h.PurchaseRun.Run)
	}

	runs := api.Group("/purchase-runs")
	{
		runs.GET("", read, h.PurchaseRun.List)
		runs.GET("/:id", read, h.PurchaseRun.Get)
		runs.GET("/:id/export", middleware.RequirePermission(middleware.PermReportExport), heavy, h.PurchaseRun.Export)
		runs.POST("/:id/archive", middleware.RequirePermission(middleware.PermReportExport), heavy, h.PurchaseRun.Archive)
	}
}
