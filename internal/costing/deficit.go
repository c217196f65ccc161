package costing

import "math"

// Deficit 单个原料的采购缺口
type Deficit struct {
	IngredientID        string  `json:"ingredient_id"`
	RequiredGrams       float64 `json:"required_grams"`
	CurrentStockGrams   float64 `json:"current_stock_grams"`
	PurchaseNeededGrams float64 `json:"purchase_needed_grams"`
	PurchaseNeededUnits float64 `json:"purchase_needed_units"`
	EstimatedCost       float64 `json:"estimated_cost"`
	Coverage            float64 `json:"coverage"`
}

// ComputeDeficit 计算原料缺口。
// 库存克数 = 各门店库存合计 × 规格；采购单位数向上取整，宁多勿少。
// ing 为 nil 时按无库存、规格1、单价0处理。
func ComputeDeficit(ingredientID string, requiredGrams float64, ing *Ingredient) Deficit {
	required := ToNonNegativeNumber(requiredGrams)
	norms := ing.GramsPerUnit()

	var stockGrams, price float64
	if ing != nil {
		stockGrams = ing.Stock.Total() * norms
		price = ToNonNegativeNumber(ing.Price)
	}

	d := Deficit{
		IngredientID:      normalizeKey(ingredientID),
		RequiredGrams:     required,
		CurrentStockGrams: stockGrams,
	}
	d.PurchaseNeededGrams = math.Max(0, required-stockGrams)
	if d.PurchaseNeededGrams > 0 {
		d.PurchaseNeededUnits = math.Ceil(d.PurchaseNeededGrams / norms)
	}
	d.EstimatedCost = d.PurchaseNeededUnits * price
	d.Coverage = CoverageRatio(stockGrams, required)
	return d
}

// CoverageRatio 库存覆盖率，用于进度条展示
func CoverageRatio(stockGrams, requiredGrams float64) float64 {
	if requiredGrams <= 0 || math.IsNaN(requiredGrams) {
		return 0
	}
	return math.Min(ToNonNegativeNumber(stockGrams)/requiredGrams, 1)
}

// ReportLine 采购报表中的一行
type ReportLine struct {
	Deficit
	Name       string  `json:"name"`
	Unit       string  `json:"unit,omitempty"`
	Norms      float64 `json:"norms"`
	Price      float64 `json:"price"`
	DemandCost float64 `json:"demand_cost"`
	// 总仓库存只做展示，不计入门店可用库存
	MainWarehouseUnits float64 `json:"main_warehouse_units"`
	NotFound           bool    `json:"not_found,omitempty"`
}

// Report 原料需求 + 采购缺口报表
type Report struct {
	SafetyMultiplier  float64      `json:"safety_multiplier"`
	Lines             []ReportLine `json:"lines"`
	TotalDemandCost   float64      `json:"total_demand_cost"`
	TotalPurchaseCost float64      `json:"total_purchase_cost"`
	Issues            []Issue      `json:"issues,omitempty"`
}

// ShortageCount 需要采购的原料数
func (r Report) ShortageCount() int {
	n := 0
	for _, l := range r.Lines {
		if l.PurchaseNeededUnits > 0 {
			n++
		}
	}
	return n
}

// PurchaseReport 对汇总后的每个原料计算缺口，按原料ID排序
func PurchaseReport(c *Catalog, agg Aggregation) Report {
	r := Report{
		SafetyMultiplier: agg.SafetyMultiplier,
		Lines:            make([]ReportLine, 0, len(agg.Materials)),
		Issues:           agg.Issues,
	}
	for _, id := range agg.IngredientIDs() {
		demand := agg.Materials[id]
		ing, ok := c.Ingredient(id)
		line := ReportLine{
			Deficit:    ComputeDeficit(id, demand.Quantity, ing),
			Name:       demand.Name,
			Unit:       demand.Unit,
			Norms:      ing.GramsPerUnit(),
			DemandCost: demand.Cost,
			NotFound:   !ok,
		}
		if ok {
			line.Price = ToNonNegativeNumber(ing.Price)
			line.MainWarehouseUnits = ToNonNegativeNumber(ing.MainWarehouse)
		}
		r.TotalDemandCost += line.DemandCost
		r.TotalPurchaseCost += line.EstimatedCost
		r.Lines = append(r.Lines, line)
	}
	return r
}
