package repository

import (
	"context"

	"github.com/hfyy456/bread-manager-1-sub001/internal/bakery/entity"
	"gorm.io/gorm"
)

type PlanRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// Create 计划与明细一起写入
func (r *PlanRepository) Create(ctx context.Context, plan *entity.ProductionPlan) error {
	return r.db.WithContext(ctx).Create(plan).Error
}

func (r *PlanRepository) FindByID(ctx context.Context, id string) (*entity.ProductionPlan, error) {
	var plan entity.ProductionPlan
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("bread_type_id") }).
		Where("id = ?", id).First(&plan).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &plan, nil
}

func (r *PlanRepository) List(ctx context.Context, page, size int) ([]entity.ProductionPlan, int64, error) {
	page, size = normalizePage(page, size)
	var total int64
	if err := r.db.WithContext(ctx).Model(&entity.ProductionPlan{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var plans []entity.ProductionPlan
	err := r.db.WithContext(ctx).Order("plan_date DESC, created_at DESC").
		Offset((page - 1) * size).Limit(size).Find(&plans).Error
	return plans, total, err
}

// Delete 删除计划及其明细
func (r *PlanRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("plan_id = ?", id).Delete(&entity.ProductionPlanItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&entity.ProductionPlan{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
