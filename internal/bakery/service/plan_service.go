package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hfyy456/bread-manager-1-sub001/internal/bakery/entity"
	"github.com/hfyy456/bread-manager-1-sub001/internal/bakery/repository"
	"github.com/hfyy456/bread-manager-1-sub001/internal/costing"
)

type PlanService struct {
	planRepo  *repository.PlanRepository
	breadRepo *repository.BreadTypeRepository
}

func NewPlanService(planRepo *repository.PlanRepository, breadRepo *repository.BreadTypeRepository) *PlanService {
	return &PlanService{planRepo: planRepo, breadRepo: breadRepo}
}

// CreatePlanRequest 创建生产计划请求
type CreatePlanRequest struct {
	Name             string            `json:"name" binding:"required"`
	PlanDate         string            `json:"plan_date"` // 2006-01-02，空=今天
	SafetyMultiplier float64           `json:"safety_multiplier"`
	Notes            string            `json:"notes"`
	Items            []PlanItemRequest `json:"items" binding:"required,min=1"`
}

type PlanItemRequest struct {
	BreadTypeID string         `json:"bread_type_id" binding:"required"`
	Quantity    costing.Amount `json:"quantity"` // 数字或数字字符串
}

// Create 数量非正的行直接忽略；面包必须存在
func (s *PlanService) Create(ctx context.Context, userID string, req *CreatePlanRequest) (*entity.ProductionPlan, error) {
	m := req.SafetyMultiplier
	if math.IsNaN(m) || math.IsInf(m, 0) || m < 0 {
		return nil, fmt.Errorf("safety_multiplier=%v: %w", m, ErrInvalidRequest)
	}

	planDate := time.Now()
	if req.PlanDate != "" {
		d, err := time.ParseInLocation("2006-01-02", req.PlanDate, time.Local)
		if err != nil {
			return nil, fmt.Errorf("plan_date %q: %w", req.PlanDate, ErrInvalidRequest)
		}
		planDate = d
	}

	now := time.Now()
	plan := &entity.ProductionPlan{
		ID:               uuid.New().String(),
		PlanCode:         fmt.Sprintf("PP-%s%04d", now.Format("20060102"), now.UnixNano()%10000),
		Name:             strings.TrimSpace(req.Name),
		PlanDate:         planDate,
		SafetyMultiplier: m,
		Notes:            req.Notes,
		CreatedBy:        userID,
	}

	for _, item := range req.Items {
		qty := costing.ToNonNegativeNumber(item.Quantity.Float64())
		if qty <= 0 {
			continue
		}
		breadID := strings.TrimSpace(item.BreadTypeID)
		if _, err := s.breadRepo.FindByID(ctx, breadID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("面包 %q 不存在: %w", breadID, ErrInvalidRequest)
			}
			return nil, err
		}
		plan.Items = append(plan.Items, entity.ProductionPlanItem{
			ID:          uuid.New().String(),
			PlanID:      plan.ID,
			BreadTypeID: breadID,
			Quantity:    qty,
		})
	}
	if len(plan.Items) == 0 {
		return nil, fmt.Errorf("计划中没有数量为正的面包: %w", ErrInvalidRequest)
	}

	if err := s.planRepo.Create(ctx, plan); err != nil {
		return nil, fmt.Errorf("创建生产计划失败: %w", err)
	}
	return plan, nil
}

func (s *PlanService) Get(ctx context.Context, id string) (*entity.ProductionPlan, error) {
	return s.planRepo.FindByID(ctx, id)
}

func (s *PlanService) List(ctx context.Context, page, size int) ([]entity.ProductionPlan, int64, error) {
	return s.planRepo.List(ctx, page, size)
}

func (s *PlanService) Delete(ctx context.Context, id string) error {
	return s.planRepo.Delete(ctx, id)
}
