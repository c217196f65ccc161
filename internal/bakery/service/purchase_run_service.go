package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hfyy456/bread-manager-1-sub001/internal/bakery/entity"
	"github.com/hfyy456/bread-manager-1-sub001/internal/bakery/repository"
	"github.com/hfyy456/bread-manager-1-sub001/internal/costing"
	"github.com/hfyy456/bread-manager-1-sub001/internal/metrics"
	"go.uber.org/zap"
)

// PurchaseRunService 按生产计划计算采购需求并留档
type PurchaseRunService struct {
	planRepo *repository.PlanRepository
	runRepo  *repository.PurchaseRunRepository
	costing  *CostingService
	cache    RunCache
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

func NewPurchaseRunService(
	planRepo *repository.PlanRepository,
	runRepo *repository.PurchaseRunRepository,
	costingSvc *CostingService,
	cache RunCache,
	logger *zap.Logger,
	m *metrics.Metrics,
) *PurchaseRunService {
	return &PurchaseRunService{
		planRepo: planRepo,
		runRepo:  runRepo,
		costing:  costingSvc,
		cache:    cache,
		logger:   logger,
		metrics:  m,
	}
}

// Run 执行采购需求计算
func (s *PurchaseRunService) Run(ctx context.Context, planID, userID string) (*entity.PurchaseRun, error) {
	plan, err := s.planRepo.FindByID(ctx, planID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	run := &entity.PurchaseRun{
		ID:               uuid.New().String(),
		RunCode:          fmt.Sprintf("PR-%s%04d", now.Format("20060102"), now.UnixNano()%10000),
		PlanID:           plan.ID,
		Status:           entity.PurchaseRunStatusRunning,
		SafetyMultiplier: s.costing.ResolveMultiplier(plan.SafetyMultiplier),
		StartedAt:        now,
		CreatedBy:        userID,
	}
	if err := s.runRepo.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("创建采购运行记录失败: %w", err)
	}

	report, err := s.costing.PurchaseReport(ctx, plan.Quantities(), run.SafetyMultiplier)
	if err != nil {
		return s.fail(ctx, run, err)
	}

	lines := make([]entity.PurchaseRunLine, 0, len(report.Lines))
	for _, l := range report.Lines {
		lines = append(lines, entity.PurchaseRunLine{
			ID:                  uuid.New().String(),
			RunID:               run.ID,
			IngredientID:        l.IngredientID,
			IngredientName:      l.Name,
			Unit:                l.Unit,
			Norms:               l.Norms,
			Price:               l.Price,
			RequiredGrams:       l.RequiredGrams,
			CurrentStockGrams:   l.CurrentStockGrams,
			PurchaseNeededGrams: l.PurchaseNeededGrams,
			PurchaseNeededUnits: l.PurchaseNeededUnits,
			EstimatedCost:       l.EstimatedCost,
			DemandCost:          l.DemandCost,
			Coverage:            l.Coverage,
			NotFound:            l.NotFound,
		})
	}
	if err := s.runRepo.BatchCreateLines(ctx, lines); err != nil {
		return s.fail(ctx, run, err)
	}

	completedAt := time.Now()
	run.Status = entity.PurchaseRunStatusCompleted
	run.CompletedAt = &completedAt
	run.TotalItems = len(lines)
	run.ShortageItems = report.ShortageCount()
	run.TotalDemandCost = report.TotalDemandCost
	run.TotalPurchaseCost = report.TotalPurchaseCost
	run.IssueCount = len(report.Issues)
	run.Issues = report.Issues
	if err := s.runRepo.UpdateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("更新采购运行记录失败: %w", err)
	}
	run.Lines = lines

	s.cache.Set(ctx, run)
	s.metrics.ObserveRun(run.Status)
	s.logger.Info("Purchase run completed",
		zap.String("run_code", run.RunCode),
		zap.String("plan_id", plan.ID),
		zap.Int("items", run.TotalItems),
		zap.Int("shortages", run.ShortageItems),
		zap.Int("issues", run.IssueCount),
		zap.Duration("elapsed", completedAt.Sub(now)),
	)
	return run, nil
}

func (s *PurchaseRunService) fail(ctx context.Context, run *entity.PurchaseRun, cause error) (*entity.PurchaseRun, error) {
	completedAt := time.Now()
	run.Status = entity.PurchaseRunStatusFailed
	run.ErrorMessage = cause.Error()
	run.CompletedAt = &completedAt
	if err := s.runRepo.UpdateRun(ctx, run); err != nil {
		s.logger.Error("Failed to mark purchase run failed", zap.String("run_code", run.RunCode), zap.Error(err))
	}
	s.metrics.ObserveRun(run.Status)
	s.logger.Error("Purchase run failed", zap.String("run_code", run.RunCode), zap.Error(cause))
	return run, fmt.Errorf("采购需求计算失败: %w", cause)
}

// Get 先查缓存；只缓存已结束的运行
func (s *PurchaseRunService) Get(ctx context.Context, id string) (*entity.PurchaseRun, error) {
	if run, ok := s.cache.Get(ctx, id); ok {
		return run, nil
	}
	run, err := s.runRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if run.Status != entity.PurchaseRunStatusRunning {
		s.cache.Set(ctx, run)
	}
	return run, nil
}

func (s *PurchaseRunService) List(ctx context.Context, planID string, page, size int) ([]entity.PurchaseRun, int64, error) {
	return s.runRepo.ListRuns(ctx, planID, page, size)
}

// ReportFromRun 把留档的运行记录还原成报表，用于重新导出
func ReportFromRun(run *entity.PurchaseRun) *costing.Report {
	r := &costing.Report{
		SafetyMultiplier:  run.SafetyMultiplier,
		Lines:             make([]costing.ReportLine, 0, len(run.Lines)),
		TotalDemandCost:   run.TotalDemandCost,
		TotalPurchaseCost: run.TotalPurchaseCost,
		Issues:            run.Issues,
	}
	for _, l := range run.Lines {
		r.Lines = append(r.Lines, costing.ReportLine{
			Deficit: costing.Deficit{
				IngredientID:        l.IngredientID,
				RequiredGrams:       l.RequiredGrams,
				CurrentStockGrams:   l.CurrentStockGrams,
				PurchaseNeededGrams: l.PurchaseNeededGrams,
				PurchaseNeededUnits: l.PurchaseNeededUnits,
				EstimatedCost:       l.EstimatedCost,
				Coverage:            l.Coverage,
			},
			Name:       l.IngredientName,
			Unit:       l.Unit,
			Norms:      l.Norms,
			Price:      l.Price,
			DemandCost: l.DemandCost,
			NotFound:   l.NotFound,
		})
	}
	return r
}
