package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hfyy456/bread-manager-1-sub001/internal/bakery/service"
	"github.com/hfyy456/bread-manager-1-sub001/internal/costing"
)

// ============================================================
// Costing Handler
// ============================================================

type CostingHandler struct {
	svc    *service.CostingService
	export *service.ExportService
}

func NewCostingHandler(svc *service.CostingService, export *service.ExportService) *CostingHandler {
	return &CostingHandler{svc: svc, export: export}
}

// PlanQuantitiesRequest 稀疏生产计划，数量可以是数字或数字字符串
type PlanQuantitiesRequest struct {
	Quantities       map[string]costing.Amount `json:"quantities" binding:"required"`
	SafetyMultiplier costing.Amount            `json:"safety_multiplier"` // 空或0使用默认系数
}

func (r *PlanQuantitiesRequest) plan() map[string]float64 {
	out := make(map[string]float64, len(r.Quantities))
	for id, q := range r.Quantities {
		out[id] = q.Float64()
	}
	return out
}

// BreadCost GET /bread-types/:id/cost
func (h *CostingHandler) BreadCost(c *gin.Context) {
	bd, err := h.svc.BreadCost(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, bd)
}

// ListBreadCosts GET /bread-types/costs
func (h *CostingHandler) ListBreadCosts(c *gin.Context) {
	list, err := h.svc.ListBreadCosts(c.Request.Context())
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, list)
}

// SafetyPresets GET /materials/safety-presets
func (h *CostingHandler) SafetyPresets(c *gin.Context) {
	def, presets := h.svc.SafetyPresets()
	Success(c, gin.H{"default": def, "presets": presets})
}

// Aggregate POST /materials/aggregate
func (h *CostingHandler) Aggregate(c *gin.Context) {
	var req PlanQuantitiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	agg, err := h.svc.Aggregate(c.Request.Context(), req.plan(), req.SafetyMultiplier.Float64())
	if err != nil {
		ServiceError(c, err)
		return
	}

	materials := make([]costing.MaterialDemand, 0, len(agg.Materials))
	for _, id := range agg.IngredientIDs() {
		materials = append(materials, agg.Materials[id])
	}
	Success(c, gin.H{
		"safety_multiplier": agg.SafetyMultiplier,
		"products":          agg.Products,
		"materials":         materials,
		"total_cost":        agg.TotalCost(),
		"issues":            agg.Issues,
	})
}

// PurchaseReport POST /materials/purchase-report
func (h *CostingHandler) PurchaseReport(c *gin.Context) {
	var req PlanQuantitiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	report, err := h.svc.PurchaseReport(c.Request.Context(), req.plan(), req.SafetyMultiplier.Float64())
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{
		"report":         report,
		"shortage_count": report.ShortageCount(),
	})
}

// ExportPurchaseReport POST /materials/purchase-report/export?format=xlsx|csv&encoding=gbk
func (h *CostingHandler) ExportPurchaseReport(c *gin.Context) {
	var req PlanQuantitiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	report, err := h.svc.PurchaseReport(c.Request.Context(), req.plan(), req.SafetyMultiplier.Float64())
	if err != nil {
		ServiceError(c, err)
		return
	}
	writeReport(c, h.export, report, "purchase-report-"+time.Now().Format("20060102"))
}

// writeReport 按 format/encoding 参数输出文件
func writeReport(c *gin.Context, export *service.ExportService, report *costing.Report, basename string) {
	switch format := strings.ToLower(c.DefaultQuery("format", "xlsx")); format {
	case "xlsx":
		f, err := export.ReportXLSX(report)
		if err != nil {
			InternalError(c, "build excel: "+err.Error())
			return
		}
		defer f.Close()

		c.Header("Content-Type", service.ContentTypeXLSX)
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", basename))
		c.Header("Content-Transfer-Encoding", "binary")
		if err := f.Write(c.Writer); err != nil {
			InternalError(c, "write excel: "+err.Error())
		}
	case "csv":
		gbk := strings.EqualFold(c.Query("encoding"), "gbk")
		charset := "utf-8"
		if gbk {
			charset = "GBK"
		}
		// 先写缓冲区，出错时还能返回 500 而不是半截文件
		var buf bytes.Buffer
		if err := export.ReportCSV(&buf, report, gbk); err != nil {
			InternalError(c, "write csv: "+err.Error())
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", basename))
		c.Data(http.StatusOK, service.ContentTypeCSV+"; charset="+charset, buf.Bytes())
	default:
		BadRequest(c, "unsupported format: "+format)
	}
}
