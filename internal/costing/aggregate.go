package costing

import (
	"math"
	"sort"
)

// PlanItem 生产计划中的一行：某个面包计划生产的数量
type PlanItem struct {
	BreadType *BreadType
	Quantity  float64
}

// MaterialDemand 汇总后的单个原料需求
type MaterialDemand struct {
	IngredientID string  `json:"ingredient_id"`
	Name         string  `json:"name"`
	Unit         string  `json:"unit,omitempty"`
	Quantity     float64 `json:"quantity"`
	Cost         float64 `json:"cost"`
}

// Aggregation 整个生产计划的原料需求
type Aggregation struct {
	SafetyMultiplier float64                   `json:"safety_multiplier"`
	Products         int                       `json:"products"`
	Materials        map[string]MaterialDemand `json:"materials"`
	Issues           []Issue                   `json:"issues,omitempty"`
}

// IngredientIDs 按ID排序的原料列表
func (a Aggregation) IngredientIDs() []string {
	ids := make([]string, 0, len(a.Materials))
	for id := range a.Materials {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// TotalCost 原料需求总成本
func (a Aggregation) TotalCost() float64 {
	var total float64
	for _, id := range a.IngredientIDs() {
		total += a.Materials[id].Cost
	}
	return total
}

// NormalizeMultiplier 安全系数必须是正的有限数，否则按1处理
func NormalizeMultiplier(m float64) float64 {
	if math.IsNaN(m) || math.IsInf(m, 0) || m <= 0 {
		return 1
	}
	return m
}

func validQuantity(q float64) bool {
	return !math.IsNaN(q) && !math.IsInf(q, 0) && q > 0
}

// PlanFromQuantities 把 {面包ID: 数量} 的稀疏计划转换成计划行，
// 忽略非正数/非数值，未知面包记为问题
func PlanFromQuantities(c *Catalog, quantities map[string]float64) ([]PlanItem, []Issue) {
	ids := make([]string, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var plan []PlanItem
	issues := &issueLog{}
	for _, id := range ids {
		q := quantities[id]
		if !validQuantity(q) {
			continue
		}
		bread, ok := c.BreadType(id)
		if !ok {
			issues.add(Issue{Kind: IssueMissingReference, NodeKind: KindBreadType, Ref: normalizeKey(id)})
			continue
		}
		plan = append(plan, PlanItem{BreadType: bread, Quantity: q})
	}
	return plan, issues.list()
}

// Aggregate 把计划中每个面包展开到叶子原料，乘以计划数量和安全系数后按原料求和。
// 计划行先按面包ID排序再累加，结果与输入顺序无关。
func Aggregate(c *Catalog, plan []PlanItem, safetyMultiplier float64) Aggregation {
	m := NormalizeMultiplier(safetyMultiplier)

	items := make([]PlanItem, 0, len(plan))
	for _, item := range plan {
		if item.BreadType == nil || !validQuantity(item.Quantity) {
			continue
		}
		items = append(items, item)
	}
	sort.SliceStable(items, func(i, j int) bool {
		ki, kj := normalizeKey(items[i].BreadType.ID), normalizeKey(items[j].BreadType.ID)
		if ki != kj {
			return ki < kj
		}
		return items[i].Quantity < items[j].Quantity
	})

	issues := &issueLog{}
	sums := make(map[string]*MaterialDemand)
	for _, item := range items {
		bd, leaves := expandBread(c, item.BreadType)
		issues.merge(bd.Issues)
		leaves.each(func(key string, grams float64, ing *Ingredient) {
			d, ok := sums[key]
			if !ok {
				d = &MaterialDemand{IngredientID: key, Name: ing.Name, Unit: ing.Unit}
				sums[key] = d
			}
			d.Quantity += grams * item.Quantity
			d.Cost += grams * ing.PricePerGram() * item.Quantity
		})
	}

	// 安全系数最后统一乘，aggregate(plan, m) 与 m * aggregate(plan, 1) 逐项一致
	out := Aggregation{
		SafetyMultiplier: m,
		Products:         len(items),
		Materials:        make(map[string]MaterialDemand, len(sums)),
		Issues:           issues.list(),
	}
	for key, d := range sums {
		d.Quantity *= m
		d.Cost *= m
		out.Materials[key] = *d
	}
	return out
}

// AggregateQuantities 直接从稀疏计划计算，未知面包的问题一并返回
func AggregateQuantities(c *Catalog, quantities map[string]float64, safetyMultiplier float64) Aggregation {
	plan, planIssues := PlanFromQuantities(c, quantities)
	agg := Aggregate(c, plan, safetyMultiplier)
	if len(planIssues) > 0 {
		log := &issueLog{}
		log.merge(planIssues)
		log.merge(agg.Issues)
		agg.Issues = log.list()
	}
	return agg
}
