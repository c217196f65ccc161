package entity

import (
	"time"

	"github.com/hfyy456/bread-manager-1-sub001/internal/costing"
)

// Ingredient 原料
type Ingredient struct {
	ID                 string    `json:"id" gorm:"primaryKey;size:36"`
	Name               string    `json:"name" gorm:"size:100;not null;uniqueIndex"`
	Unit               string    `json:"unit" gorm:"size:20"`                       // 采购单位：袋/箱/桶
	Specs              string    `json:"specs" gorm:"size:100"`                     // 规格描述
	Price              string    `json:"price" gorm:"size:50"`                      // 原始价格，可能带货币符号
	Norms              float64   `json:"norms" gorm:"type:decimal(12,4);default:1"` // 每采购单位克数
	StockByPost        RawJSON   `json:"stock_by_post" gorm:"type:jsonb"`           // 门店库存，旧数据可能是单个数字
	MainWarehouseStock float64   `json:"main_warehouse_stock" gorm:"type:decimal(12,4);default:0"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (Ingredient) TableName() string {
	return "bakery_ingredients"
}

// DoughRecipe 面团配方
type DoughRecipe struct {
	ID          string                             `json:"id" gorm:"primaryKey;size:36"`
	Name        string                             `json:"name" gorm:"size:100;not null;uniqueIndex"`
	Yield       float64                            `json:"yield" gorm:"type:decimal(12,4);default:0"`
	Unit        string                             `json:"unit" gorm:"size:20"`
	Ingredients JSONList[costing.RecipeIngredient] `json:"ingredients" gorm:"type:jsonb"`
	PreFerments JSONList[costing.SubRecipeRef]     `json:"pre_ferments" gorm:"type:jsonb"`
	Description string                             `json:"description" gorm:"type:text"`
	CreatedAt   time.Time                          `json:"created_at"`
	UpdatedAt   time.Time                          `json:"updated_at"`
}

func (DoughRecipe) TableName() string {
	return "bakery_dough_recipes"
}

// FillingRecipe 馅料配方
type FillingRecipe struct {
	ID          string                             `json:"id" gorm:"primaryKey;size:36"`
	Name        string                             `json:"name" gorm:"size:100;not null;uniqueIndex"`
	Yield       float64                            `json:"yield" gorm:"type:decimal(12,4);default:0"`
	Unit        string                             `json:"unit" gorm:"size:20"`
	Ingredients JSONList[costing.RecipeIngredient] `json:"ingredients" gorm:"type:jsonb"`
	SubFillings JSONList[costing.SubRecipeRef]     `json:"sub_fillings" gorm:"type:jsonb"`
	Description string                             `json:"description" gorm:"type:text"`
	CreatedAt   time.Time                          `json:"created_at"`
	UpdatedAt   time.Time                          `json:"updated_at"`
}

func (FillingRecipe) TableName() string {
	return "bakery_filling_recipes"
}

// BreadType 面包品类
type BreadType struct {
	ID          string                             `json:"id" gorm:"primaryKey;size:36"`
	Name        string                             `json:"name" gorm:"size:100;not null"`
	Price       float64                            `json:"price" gorm:"type:decimal(12,2);default:0"` // 售价
	DoughID     string                             `json:"dough_id" gorm:"size:100"`                  // 面团ID或名称
	DoughWeight float64                            `json:"dough_weight" gorm:"type:decimal(12,4);default:0"`
	Fillings    JSONList[costing.FillingUsage]     `json:"fillings" gorm:"type:jsonb"`
	Decorations JSONList[costing.RecipeIngredient] `json:"decorations" gorm:"type:jsonb"`
	CreatedAt   time.Time                          `json:"created_at"`
	UpdatedAt   time.Time                          `json:"updated_at"`
}

func (BreadType) TableName() string {
	return "bakery_bread_types"
}
