package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/hfyy456/bread-manager-1-sub001/internal/bakery/service"
)

// ============================================================
// Plan Handler
// ============================================================

type PlanHandler struct {
	svc *service.PlanService
}

func NewPlanHandler(svc *service.PlanService) *PlanHandler {
	return &PlanHandler{svc: svc}
}

// Create POST /plans
func (h *PlanHandler) Create(c *gin.Context) {
	var req service.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	plan, err := h.svc.Create(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, plan)
}

// List GET /plans
func (h *PlanHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	plans, total, err := h.svc.List(c.Request.Context(), page, pageSize)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, NewListResponse(plans, page, pageSize, total))
}

// Get GET /plans/:id
func (h *PlanHandler) Get(c *gin.Context) {
	plan, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, plan)
}

// Delete DELETE /plans/:id
func (h *PlanHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"deleted": true})
}
