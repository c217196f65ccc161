package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/hfyy456/bread-manager-1-sub001/internal/bakery/entity"
	"github.com/hfyy456/bread-manager-1-sub001/internal/bakery/service"
)

// ============================================================
// Purchase Run Handler
// ============================================================

type PurchaseRunHandler struct {
	svc    *service.PurchaseRunService
	export *service.ExportService
}

func NewPurchaseRunHandler(svc *service.PurchaseRunService, export *service.ExportService) *PurchaseRunHandler {
	return &PurchaseRunHandler{svc: svc, export: export}
}

// Run POST /plans/:id/purchase-runs
func (h *PurchaseRunHandler) Run(c *gin.Context) {
	run, err := h.svc.Run(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, run)
}

// List GET /purchase-runs?plan_id=
func (h *PurchaseRunHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	runs, total, err := h.svc.List(c.Request.Context(), c.Query("plan_id"), page, pageSize)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, NewListResponse(runs, page, pageSize, total))
}

// Get GET /purchase-runs/:id
func (h *PurchaseRunHandler) Get(c *gin.Context) {
	run, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, run)
}

func (h *PurchaseRunHandler) completedRun(c *gin.Context) (*entity.PurchaseRun, bool) {
	run, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return nil, false
	}
	if run.Status != entity.PurchaseRunStatusCompleted {
		BadRequest(c, "只有已完成的采购运行可以导出")
		return nil, false
	}
	return run, true
}

// Export GET /purchase-runs/:id/export?format=xlsx|csv&encoding=gbk
func (h *PurchaseRunHandler) Export(c *gin.Context) {
	run, ok := h.completedRun(c)
	if !ok {
		return
	}
	writeReport(c, h.export, service.ReportFromRun(run), run.RunCode)
}

// Archive POST /purchase-runs/:id/archive 上传到对象存储并返回下载链接
func (h *PurchaseRunHandler) Archive(c *gin.Context) {
	run, ok := h.completedRun(c)
	if !ok {
		return
	}
	url, err := h.export.ArchiveReport(c.Request.Context(), run.RunCode, service.ReportFromRun(run))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"run_code": run.RunCode, "url": url})
}
