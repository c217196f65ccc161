package repository

import (
	"context"

	"github.com/hfyy456/bread-manager-1-sub001/internal/bakery/entity"
	"gorm.io/gorm"
)

type PurchaseRunRepository struct {
	db *gorm.DB
}

func NewPurchaseRunRepository(db *gorm.DB) *PurchaseRunRepository {
	return &PurchaseRunRepository{db: db}
}

// CreateRun 只写运行记录，明细由 BatchCreateLines 写入
func (r *PurchaseRunRepository) CreateRun(ctx context.Context, run *entity.PurchaseRun) error {
	return r.db.WithContext(ctx).Omit("Lines").Create(run).Error
}

func (r *PurchaseRunRepository) UpdateRun(ctx context.Context, run *entity.PurchaseRun) error {
	return r.db.WithContext(ctx).Omit("Lines").Save(run).Error
}

func (r *PurchaseRunRepository) BatchCreateLines(ctx context.Context, lines []entity.PurchaseRunLine) error {
	if len(lines) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&lines, 200).Error
}

// FindByID 带明细，按原料ID排序
func (r *PurchaseRunRepository) FindByID(ctx context.Context, id string) (*entity.PurchaseRun, error) {
	var run entity.PurchaseRun
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("ingredient_id") }).
		Where("id = ?", id).First(&run).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &run, nil
}

func (r *PurchaseRunRepository) ListRuns(ctx context.Context, planID string, page, size int) ([]entity.PurchaseRun, int64, error) {
	page, size = normalizePage(page, size)
	query := r.db.WithContext(ctx).Model(&entity.PurchaseRun{})
	if planID != "" {
		query = query.Where("plan_id = ?", planID)
	}
	query = query.Session(&gorm.Session{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var runs []entity.PurchaseRun
	err := query.Order("started_at DESC").Offset((page - 1) * size).Limit(size).Find(&runs).Error
	return runs, total, err
}
