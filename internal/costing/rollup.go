package costing

// Line 某原料/子配方折算到单个产品中的用量（克）与成本
type Line struct {
	Quantity float64 `json:"quantity"`
	Cost     float64 `json:"cost"`
}

// DoughDetails 面团成本明细。Cost 为整批成本，CostInProduct 为按面团用量折算后的成本
type DoughDetails struct {
	DoughID                  string          `json:"dough_id"`
	NotFound                 bool            `json:"not_found,omitempty"`
	Cost                     float64         `json:"cost"`
	Yield                    float64         `json:"yield"`
	UnitCost                 float64         `json:"unit_cost"`
	Weight                   float64         `json:"weight"`
	CostInProduct            float64         `json:"cost_in_product"`
	IngredientCostsInProduct map[string]Line `json:"ingredient_costs_in_product"`
	PreFermentCostsInProduct map[string]Line `json:"pre_ferment_costs_in_product"`
}

// BatchCalculation 馅料配方的整批核算
type BatchCalculation struct {
	BatchCost float64 `json:"batch_cost"`
	Yield     float64 `json:"yield"`
	UnitCost  float64 `json:"unit_cost"`
}

type FillingDetail struct {
	ID                       string            `json:"id"`
	NotFound                 bool              `json:"not_found,omitempty"`
	IsDirectIngredient       bool              `json:"is_direct_ingredient"`
	Quantity                 float64           `json:"quantity"`
	CostInProduct            float64           `json:"cost_in_product"`
	BatchCalculation         *BatchCalculation `json:"batch_calculation,omitempty"`
	IngredientCostsInProduct map[string]Line   `json:"ingredient_costs_in_product"`
}

type DecorationDetail struct {
	ID       string  `json:"id"`
	NotFound bool    `json:"not_found,omitempty"`
	Quantity float64 `json:"quantity"`
	Cost     float64 `json:"cost"`
}

// CostBreakdown 单个面包的成本拆解
type CostBreakdown struct {
	BreadTypeID        string             `json:"bread_type_id"`
	NotFound           bool               `json:"not_found,omitempty"`
	TotalCost          float64            `json:"total_cost"`
	DoughCost          float64            `json:"dough_cost"`
	DoughDetails       DoughDetails       `json:"dough_details"`
	FillingsCost       float64            `json:"fillings_cost"`
	FillingsDetails    []FillingDetail    `json:"fillings_details"`
	DecorationsCost    float64            `json:"decorations_cost"`
	DecorationsDetails []DecorationDetail `json:"decorations_details"`
	Issues             []Issue            `json:"issues,omitempty"`
}

// leafSet 按遍历顺序累加叶子原料克数，同一原料多次出现时求和
type leafSet struct {
	order []string
	grams map[string]float64
	refs  map[string]*Ingredient
}

func newLeafSet() *leafSet {
	return &leafSet{
		grams: make(map[string]float64),
		refs:  make(map[string]*Ingredient),
	}
}

func ingredientKey(ing *Ingredient) string {
	if key := normalizeKey(ing.ID); key != "" {
		return key
	}
	return normalizeKey(ing.Name)
}

func (s *leafSet) add(ing *Ingredient, grams float64) {
	if s == nil || ing == nil {
		return
	}
	key := ingredientKey(ing)
	if _, ok := s.grams[key]; !ok {
		s.order = append(s.order, key)
		s.refs[key] = ing
	}
	s.grams[key] += grams
}

func (s *leafSet) merge(other *leafSet) {
	if other == nil {
		return
	}
	for _, key := range other.order {
		s.add(other.refs[key], other.grams[key])
	}
}

func (s *leafSet) each(fn func(key string, grams float64, ing *Ingredient)) {
	for _, key := range s.order {
		fn(key, s.grams[key], s.refs[key])
	}
}

func (s *leafSet) lines() map[string]Line {
	out := make(map[string]Line, len(s.order))
	s.each(func(key string, grams float64, ing *Ingredient) {
		out[key] = Line{Quantity: grams, Cost: grams * ing.PricePerGram()}
	})
	return out
}

// recipeNode 面团与馅料的公共视图
type recipeNode struct {
	kind    NodeKind
	subKind NodeKind
	key     string
	yield   float64
	lines   []RecipeIngredient
	subs    []SubRecipeRef
}

func doughNode(d *DoughRecipe) recipeNode {
	return recipeNode{
		kind:    KindDough,
		subKind: KindDough,
		key:     recipeKey(d.ID, d.Name),
		yield:   d.Yield,
		lines:   d.Ingredients,
		subs:    d.PreFerments,
	}
}

func fillingNode(f *FillingRecipe) recipeNode {
	return recipeNode{
		kind:    KindFilling,
		subKind: KindFilling,
		key:     recipeKey(f.ID, f.Name),
		yield:   f.Yield,
		lines:   f.Ingredients,
		subs:    f.SubFillings,
	}
}

type subShare struct {
	key      string
	grams    float64 // 每批用量
	unitCost float64
}

type recipeCost struct {
	batchCost float64
	yield     float64
	unitCost  float64
	subs      []subShare
}

type walker struct {
	catalog *Catalog
	issues  *issueLog
}

// walk 计算配方整批成本；leaves 非空时同时把 need 克成品展开成叶子原料克数
func (w *walker) walk(node recipeNode, need float64, chain *Ancestry, leaves *leafSet) recipeCost {
	chain = chain.Push(node.kind, node.key)
	rc := recipeCost{yield: ToNonNegativeNumber(node.yield)}
	if rc.yield == 0 {
		w.issues.add(Issue{Kind: IssueDegenerateYield, NodeKind: node.kind, Ref: node.key, Path: chain.Path()})
		return rc
	}
	factor := ToNonNegativeNumber(need) / rc.yield

	for _, line := range node.lines {
		grams := ToGrams(line.Quantity, line.Unit)
		res := w.catalog.Resolve(KindIngredient, line.IngredientID, chain)
		if res.NotFound {
			w.issues.add(Issue{Kind: IssueMissingReference, NodeKind: KindIngredient, Ref: res.Ref, Path: chain.Path()})
			continue
		}
		rc.batchCost += grams * res.Ingredient.PricePerGram()
		leaves.add(res.Ingredient, grams*factor)
	}

	for _, sub := range node.subs {
		grams := ToGrams(sub.Quantity, sub.Unit)
		res := w.catalog.Resolve(node.subKind, sub.ID, chain)
		switch {
		case res.NotFound:
			w.issues.add(Issue{Kind: IssueMissingReference, NodeKind: node.subKind, Ref: res.Ref, Path: chain.Path()})
		case res.IsDirectIngredient:
			rc.batchCost += grams * res.Ingredient.PricePerGram()
			leaves.add(res.Ingredient, grams*factor)
		case res.Cyclic:
			w.issues.add(Issue{
				Kind:     IssueCyclicReference,
				NodeKind: node.subKind,
				Ref:      res.Key(),
				Path:     append(chain.Path(), ancestryKey(node.subKind, res.Key())),
			})
			rc.subs = append(rc.subs, subShare{key: res.Key(), grams: grams})
		default:
			var child recipeNode
			if res.Dough != nil {
				child = doughNode(res.Dough)
			} else {
				child = fillingNode(res.Filling)
			}
			sc := w.walk(child, grams*factor, chain, leaves)
			if sc.yield > 0 {
				rc.batchCost += grams / sc.yield * sc.batchCost
			}
			rc.subs = append(rc.subs, subShare{key: res.Key(), grams: grams, unitCost: sc.unitCost})
		}
	}

	rc.unitCost = rc.batchCost / rc.yield
	return rc
}

// BreadCostBreakdown 计算一个面包的成本拆解：面团 + 馅料 + 装饰
func BreadCostBreakdown(c *Catalog, bread *BreadType) CostBreakdown {
	bd, _ := expandBread(c, bread)
	return bd
}

// BreadCostBreakdownByID 按面包ID计算成本，找不到时返回带 NotFound 标记的零值
func BreadCostBreakdownByID(c *Catalog, breadTypeID string) CostBreakdown {
	bread, ok := c.BreadType(breadTypeID)
	if !ok {
		ref := normalizeKey(breadTypeID)
		return CostBreakdown{
			BreadTypeID: ref,
			NotFound:    true,
			DoughDetails: DoughDetails{
				IngredientCostsInProduct: map[string]Line{},
				PreFermentCostsInProduct: map[string]Line{},
			},
			Issues: []Issue{{Kind: IssueMissingReference, NodeKind: KindBreadType, Ref: ref}},
		}
	}
	return BreadCostBreakdown(c, bread)
}

// expandBread 单个面包的成本拆解，以及合并后的叶子原料用量（单个产品）
func expandBread(c *Catalog, bread *BreadType) (CostBreakdown, *leafSet) {
	issues := &issueLog{}
	w := &walker{catalog: c, issues: issues}
	all := newLeafSet()

	bd := CostBreakdown{
		DoughDetails: DoughDetails{
			IngredientCostsInProduct: map[string]Line{},
			PreFermentCostsInProduct: map[string]Line{},
		},
		FillingsDetails:    []FillingDetail{},
		DecorationsDetails: []DecorationDetail{},
	}
	if bread == nil {
		bd.NotFound = true
		return bd, all
	}
	bd.BreadTypeID = normalizeKey(bread.ID)
	root := (*Ancestry)(nil).Push(KindBreadType, recipeKey(bread.ID, bread.Name))

	// 面团
	weight := ToNonNegativeNumber(bread.DoughWeight)
	dough := c.Resolve(KindDough, bread.DoughID, root)
	bd.DoughDetails.DoughID = dough.Ref
	bd.DoughDetails.Weight = weight
	if dough.NotFound {
		bd.DoughDetails.NotFound = true
		issues.add(Issue{Kind: IssueMissingReference, NodeKind: KindDough, Ref: dough.Ref, Path: root.Path()})
	} else {
		leaves := newLeafSet()
		rc := w.walk(doughNode(dough.Dough), weight, root, leaves)
		bd.DoughDetails.Cost = rc.batchCost
		bd.DoughDetails.Yield = rc.yield
		bd.DoughDetails.UnitCost = rc.unitCost
		bd.DoughDetails.CostInProduct = rc.unitCost * weight
		bd.DoughDetails.IngredientCostsInProduct = leaves.lines()
		if rc.yield > 0 {
			factor := weight / rc.yield
			for _, s := range rc.subs {
				q := s.grams * factor
				prev := bd.DoughDetails.PreFermentCostsInProduct[s.key]
				bd.DoughDetails.PreFermentCostsInProduct[s.key] = Line{
					Quantity: prev.Quantity + q,
					Cost:     prev.Cost + s.unitCost*q,
				}
			}
		}
		all.merge(leaves)
	}
	bd.DoughCost = bd.DoughDetails.CostInProduct

	// 馅料
	for _, usage := range bread.Fillings {
		qty := ToGrams(usage.Quantity, usage.Unit)
		res := c.Resolve(KindFilling, usage.FillingID, root)
		fd := FillingDetail{
			ID:                       res.Ref,
			Quantity:                 qty,
			IngredientCostsInProduct: map[string]Line{},
		}
		switch {
		case res.NotFound:
			fd.NotFound = true
			issues.add(Issue{Kind: IssueMissingReference, NodeKind: KindFilling, Ref: res.Ref, Path: root.Path()})
		case res.IsDirectIngredient:
			fd.IsDirectIngredient = true
			leaves := newLeafSet()
			leaves.add(res.Ingredient, qty)
			fd.CostInProduct = res.Ingredient.PricePerGram() * qty
			fd.IngredientCostsInProduct = leaves.lines()
			all.merge(leaves)
		default:
			leaves := newLeafSet()
			rc := w.walk(fillingNode(res.Filling), qty, root, leaves)
			fd.BatchCalculation = &BatchCalculation{BatchCost: rc.batchCost, Yield: rc.yield, UnitCost: rc.unitCost}
			fd.CostInProduct = rc.unitCost * qty
			fd.IngredientCostsInProduct = leaves.lines()
			all.merge(leaves)
		}
		bd.FillingsCost += fd.CostInProduct
		bd.FillingsDetails = append(bd.FillingsDetails, fd)
	}

	// 装饰，直接是原料
	for _, deco := range bread.Decorations {
		qty := ToGrams(deco.Quantity, deco.Unit)
		res := c.Resolve(KindIngredient, deco.IngredientID, root)
		dd := DecorationDetail{ID: res.Ref, Quantity: qty}
		if res.NotFound {
			dd.NotFound = true
			issues.add(Issue{Kind: IssueMissingReference, NodeKind: KindIngredient, Ref: res.Ref, Path: root.Path()})
		} else {
			dd.Cost = res.Ingredient.PricePerGram() * qty
			all.add(res.Ingredient, qty)
		}
		bd.DecorationsCost += dd.Cost
		bd.DecorationsDetails = append(bd.DecorationsDetails, dd)
	}

	bd.TotalCost = bd.DoughCost + bd.FillingsCost + bd.DecorationsCost
	bd.Issues = issues.list()
	return bd, all
}
