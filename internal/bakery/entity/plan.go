package entity

import (
	"time"

	"github.com/hfyy456/bread-manager-1-sub001/internal/costing"
)

// ProductionPlan 生产计划：某天各面包的计划产量
type ProductionPlan struct {
	ID               string               `json:"id" gorm:"primaryKey;size:36"`
	PlanCode         string               `json:"plan_code" gorm:"size:50;not null;uniqueIndex"`
	Name             string               `json:"name" gorm:"size:200"`
	PlanDate         time.Time            `json:"plan_date"`
	SafetyMultiplier float64              `json:"safety_multiplier" gorm:"type:decimal(6,4);default:0"` // 0 表示使用系统默认
	Notes            string               `json:"notes" gorm:"type:text"`
	CreatedBy        string               `json:"created_by" gorm:"size:64"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
	Items            []ProductionPlanItem `json:"items,omitempty" gorm:"foreignKey:PlanID"`
}

func (ProductionPlan) TableName() string {
	return "bakery_production_plans"
}

// Quantities 按面包汇总计划产量，同一面包出现多次时累加
func (p *ProductionPlan) Quantities() map[string]float64 {
	out := make(map[string]float64, len(p.Items))
	for _, item := range p.Items {
		out[item.BreadTypeID] += item.Quantity
	}
	return out
}

type ProductionPlanItem struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	PlanID      string    `json:"plan_id" gorm:"size:36;not null;index"`
	BreadTypeID string    `json:"bread_type_id" gorm:"size:100;not null"`
	Quantity    float64   `json:"quantity" gorm:"type:decimal(12,2);default:0"`
	CreatedAt   time.Time `json:"created_at"`
}

func (ProductionPlanItem) TableName() string {
	return "bakery_production_plan_items"
}

// PurchaseRun 状态
const (
	PurchaseRunStatusRunning   = "RUNNING"
	PurchaseRunStatusCompleted = "COMPLETED"
	PurchaseRunStatusFailed    = "FAILED"
)

// PurchaseRun 采购需求计算记录
type PurchaseRun struct {
	ID                string                  `json:"id" gorm:"primaryKey;size:36"`
	RunCode           string                  `json:"run_code" gorm:"size:50;not null;uniqueIndex"`
	PlanID            string                  `json:"plan_id" gorm:"size:36;index"`
	Status            string                  `json:"status" gorm:"size:20;not null;default:RUNNING"`
	SafetyMultiplier  float64                 `json:"safety_multiplier" gorm:"type:decimal(6,4)"`
	TotalItems        int                     `json:"total_items" gorm:"default:0"`
	ShortageItems     int                     `json:"shortage_items" gorm:"default:0"`
	TotalDemandCost   float64                 `json:"total_demand_cost" gorm:"type:decimal(14,4);default:0"`
	TotalPurchaseCost float64                 `json:"total_purchase_cost" gorm:"type:decimal(14,4);default:0"`
	IssueCount        int                     `json:"issue_count" gorm:"default:0"`
	Issues            JSONList[costing.Issue] `json:"issues,omitempty" gorm:"type:jsonb"`
	ErrorMessage      string                  `json:"error_message" gorm:"type:text"`
	StartedAt         time.Time               `json:"started_at"`
	CompletedAt       *time.Time              `json:"completed_at"`
	CreatedBy         string                  `json:"created_by" gorm:"size:64"`
	CreatedAt         time.Time               `json:"created_at"`
	Lines             []PurchaseRunLine       `json:"lines,omitempty" gorm:"foreignKey:RunID"`
}

func (PurchaseRun) TableName() string {
	return "bakery_purchase_runs"
}

// PurchaseRunLine 单个原料的需求与缺口
type PurchaseRunLine struct {
	ID                  string    `json:"id" gorm:"primaryKey;size:36"`
	RunID               string    `json:"run_id" gorm:"size:36;not null;index"`
	IngredientID        string    `json:"ingredient_id" gorm:"size:100;not null"`
	IngredientName      string    `json:"ingredient_name" gorm:"size:100"`
	Unit                string    `json:"unit" gorm:"size:20"`
	Norms               float64   `json:"norms" gorm:"type:decimal(12,4)"`
	Price               float64   `json:"price" gorm:"type:decimal(12,4)"`
	RequiredGrams       float64   `json:"required_grams" gorm:"type:decimal(14,4);default:0"`
	CurrentStockGrams   float64   `json:"current_stock_grams" gorm:"type:decimal(14,4);default:0"`
	PurchaseNeededGrams float64   `json:"purchase_needed_grams" gorm:"type:decimal(14,4);default:0"`
	PurchaseNeededUnits float64   `json:"purchase_needed_units" gorm:"type:decimal(12,2);default:0"`
	EstimatedCost       float64   `json:"estimated_cost" gorm:"type:decimal(14,4);default:0"`
	DemandCost          float64   `json:"demand_cost" gorm:"type:decimal(14,4);default:0"`
	Coverage            float64   `json:"coverage" gorm:"type:decimal(8,6);default:0"`
	NotFound            bool      `json:"not_found" gorm:"default:false"`
	CreatedAt           time.Time `json:"created_at"`
}

func (PurchaseRunLine) TableName() string {
	return "bakery_purchase_run_lines"
}
