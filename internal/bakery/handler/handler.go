package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hfyy456/bread-manager-1-sub001/internal/bakery/repository"
	"github.com/hfyy456/bread-manager-1-sub001/internal/bakery/service"
)

// 业务码，HTTP 状态 = 业务码 / 100
const (
	CodeOK                 = 0
	CodeBadRequest         = 40000
	CodeNotFound           = 40400
	CodeInternal           = 50000
	CodeStorageUnavailable = 50300
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Handlers 处理器集合
type Handlers struct {
	Costing     *CostingHandler
	Plan        *PlanHandler
	PurchaseRun *PurchaseRunHandler
	Catalog     *CatalogHandler
}

func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Costing:     NewCostingHandler(svc.Costing, svc.Export),
		Plan:        NewPlanHandler(svc.Plan),
		PurchaseRun: NewPurchaseRunHandler(svc.PurchaseRun, svc.Export),
		Catalog:     NewCatalogHandler(svc.Catalog, svc.Costing),
	}
}

// Response 统一响应 {code, message, data}
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func NewListResponse(items interface{}, page, pageSize int, total int64) *ListResponse {
	p := &Pagination{Page: page, PageSize: pageSize, Total: int(total)}
	if pageSize > 0 {
		p.TotalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return &ListResponse{Items: items, Pagination: p}
}

func respond(c *gin.Context, status, code int, message string, data interface{}) {
	c.JSON(status, Response{Code: code, Message: message, Data: data})
}

func Success(c *gin.Context, data interface{}) {
	respond(c, http.StatusOK, CodeOK, "success", data)
}

func Created(c *gin.Context, data interface{}) {
	respond(c, http.StatusCreated, CodeOK, "success", data)
}

// Error 业务码推导 HTTP 状态，越界按 500
func Error(c *gin.Context, code int, message string) {
	status := code / 100
	if status < 100 || status > 599 {
		status = http.StatusInternalServerError
	}
	respond(c, status, code, message, nil)
}

func BadRequest(c *gin.Context, message string) { Error(c, CodeBadRequest, message) }

func NotFound(c *gin.Context, message string) { Error(c, CodeNotFound, message) }

func InternalError(c *gin.Context, message string) { Error(c, CodeInternal, message) }

// ServiceError 服务层错误到业务码：不存在 40400，参数 40000，未配置对象存储 50300
func ServiceError(c *gin.Context, err error) {
	_ = c.Error(err)
	code := CodeInternal
	switch {
	case errors.Is(err, repository.ErrNotFound):
		code = CodeNotFound
	case errors.Is(err, service.ErrInvalidRequest):
		code = CodeBadRequest
	case errors.Is(err, service.ErrStorageNotConfigured):
		code = CodeStorageUnavailable
	}
	Error(c, code, err.Error())
}

// GetUserID JWTAuth 写入的 user_id，未登录为空
func GetUserID(c *gin.Context) string {
	return c.GetString("user_id")
}

func queryInt(c *gin.Context, key string, def, max int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v <= 0 || (max > 0 && v > max) {
		return def
	}
	return v
}

// GetPagination ?page=&page_size=，page_size 上限 100
func GetPagination(c *gin.Context) (page, pageSize int) {
	return queryInt(c, "page", 1, 0), queryInt(c, "page_size", defaultPageSize, maxPageSize)
}
