package handler

import (
	"encoding/json"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/hfyy456/bread-manager-1-sub001/internal/bakery/service"
)

// ============================================================
// Catalog Handler
// ============================================================

type CatalogHandler struct {
	svc     *service.CatalogService
	costing *service.CostingService
}

func NewCatalogHandler(svc *service.CatalogService, costingSvc *service.CostingService) *CatalogHandler {
	return &CatalogHandler{svc: svc, costing: costingSvc}
}

// Issues GET /catalog/issues
func (h *CatalogHandler) Issues(c *gin.Context) {
	issues, err := h.costing.Validate(c.Request.Context())
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"issues": issues, "total": len(issues)})
}

// Import POST /catalog/import
func (h *CatalogHandler) Import(c *gin.Context) {
	var req service.CatalogImport
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	result, err := h.svc.Import(c.Request.Context(), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, result)
}

// UpdateStock PUT /ingredients/:id/stock
// 请求体即库存本身：{"门店ID": {"quantity": 2, "unit": "袋"}} 或单个数字
func (h *CatalogHandler) UpdateStock(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	ing, err := h.svc.UpdateStock(c.Request.Context(), c.Param("id"), json.RawMessage(body))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{
		"id":          ing.ID,
		"name":        ing.Name,
		"stock":       ing.Stock,
		"stock_units": ing.Stock.Total(),
		"stock_grams": ing.Stock.Total() * ing.GramsPerUnit(),
	})
}
