package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/hfyy456/bread-manager-1-sub001/internal/bakery/repository"
	"github.com/hfyy456/bread-manager-1-sub001/internal/config"
	"github.com/hfyy456/bread-manager-1-sub001/internal/costing"
	"github.com/hfyy456/bread-manager-1-sub001/internal/metrics"
	"go.uber.org/zap"
)

// CostingService 每次计算都读取最新的目录快照，不缓存目录数据
type CostingService struct {
	source  CatalogSource
	cfg     config.CostingConfig
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewCostingService(source CatalogSource, cfg config.CostingConfig, logger *zap.Logger, m *metrics.Metrics) *CostingService {
	return &CostingService{source: source, cfg: cfg, logger: logger, metrics: m}
}

// BreadCostSummary 面包成本一览
type BreadCostSummary struct {
	BreadTypeID string  `json:"bread_type_id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	TotalCost   float64 `json:"total_cost"`
	GrossMargin float64 `json:"gross_margin"` // (售价-成本)/售价，售价为0时为0
	IssueCount  int     `json:"issue_count"`
}

// SafetyPresets 默认系数与可选预设
func (s *CostingService) SafetyPresets() (float64, []float64) {
	return s.cfg.SafetyMultiplier, s.cfg.SafetyPresets
}

// ResolveMultiplier 未指定或非法的安全系数使用配置默认值
func (s *CostingService) ResolveMultiplier(m float64) float64 {
	if math.IsNaN(m) || math.IsInf(m, 0) || m <= 0 {
		return costing.NormalizeMultiplier(s.cfg.SafetyMultiplier)
	}
	return m
}

func (s *CostingService) load(ctx context.Context) (*costing.Catalog, error) {
	catalog, err := s.source.LoadCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("加载配方目录失败: %w", err)
	}
	return catalog, nil
}

func (s *CostingService) observe(op string, issues []costing.Issue) {
	for _, issue := range issues {
		s.logger.Warn("Catalog issue",
			zap.String("op", op),
			zap.String("kind", string(issue.Kind)),
			zap.String("node_kind", string(issue.NodeKind)),
			zap.String("ref", issue.Ref),
			zap.Strings("path", issue.Path),
		)
	}
	s.metrics.ObserveIssues(issues)
}

// BreadCost 单个面包的成本拆解
func (s *CostingService) BreadCost(ctx context.Context, breadTypeID string) (*costing.CostBreakdown, error) {
	catalog, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	bd := costing.BreadCostBreakdownByID(catalog, breadTypeID)
	if bd.NotFound {
		return nil, fmt.Errorf("bread type %q: %w", breadTypeID, repository.ErrNotFound)
	}
	s.observe("bread_cost", bd.Issues)
	return &bd, nil
}

// ListBreadCosts 所有面包的成本与毛利，按ID排序
func (s *CostingService) ListBreadCosts(ctx context.Context) ([]BreadCostSummary, error) {
	catalog, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	breads := catalog.BreadTypes()
	out := make([]BreadCostSummary, 0, len(breads))
	for _, b := range breads {
		bd := costing.BreadCostBreakdown(catalog, b)
		summary := BreadCostSummary{
			BreadTypeID: b.ID,
			Name:        b.Name,
			Price:       costing.ToNonNegativeNumber(b.Price),
			TotalCost:   bd.TotalCost,
			IssueCount:  len(bd.Issues),
		}
		if summary.Price > 0 {
			summary.GrossMargin = (summary.Price - summary.TotalCost) / summary.Price
		}
		out = append(out, summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BreadTypeID < out[j].BreadTypeID })
	return out, nil
}

// Aggregate 生产计划的原料需求
func (s *CostingService) Aggregate(ctx context.Context, quantities map[string]float64, multiplier float64) (*costing.Aggregation, error) {
	catalog, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	agg := costing.AggregateQuantities(catalog, quantities, s.ResolveMultiplier(multiplier))
	s.observe("aggregate", agg.Issues)
	return &agg, nil
}

// PurchaseReport 原料需求 + 库存缺口
func (s *CostingService) PurchaseReport(ctx context.Context, quantities map[string]float64, multiplier float64) (*costing.Report, error) {
	catalog, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	agg := costing.AggregateQuantities(catalog, quantities, s.ResolveMultiplier(multiplier))
	report := costing.PurchaseReport(catalog, agg)
	s.observe("purchase_report", report.Issues)
	return &report, nil
}

// Validate 目录结构检查：缺失引用、循环引用、出品量为0
func (s *CostingService) Validate(ctx context.Context) ([]costing.Issue, error) {
	catalog, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	issues := catalog.Validate()
	if issues == nil {
		issues = []costing.Issue{}
	}
	return issues, nil
}
