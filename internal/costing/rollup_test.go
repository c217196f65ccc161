package costing

import (
	"errors"
	"testing"
)

// TestBreadCostBreakdownEndToEnd 基础面团: 600g面粉 + 30g老面(出品100, 整批0.5元)
func TestBreadCostBreakdownEndToEnd(t *testing.T) {
	c := testCatalog()
	bread, _ := c.BreadType("b-001")

	bd := BreadCostBreakdown(c, bread)

	approx(t, "dough batch cost", bd.DoughDetails.Cost, 2.55)
	approx(t, "dough unit cost", bd.DoughDetails.UnitCost, 0.00255)
	approx(t, "dough cost in product", bd.DoughDetails.CostInProduct, 0.51)
	approx(t, "fillings cost", bd.FillingsCost, 0.9)
	approx(t, "decorations cost", bd.DecorationsCost, 0.05)
	approx(t, "total", bd.TotalCost, 1.46)

	if len(bd.Issues) != 0 {
		t.Fatalf("expected no issues, got %v", bd.Issues)
	}

	flour := bd.DoughDetails.IngredientCostsInProduct["面粉"]
	approx(t, "flour grams", flour.Quantity, 120)
	approx(t, "flour cost", flour.Cost, 0.48)

	yeast := bd.DoughDetails.IngredientCostsInProduct["酵母水"]
	approx(t, "yeast water grams", yeast.Quantity, 6)
	approx(t, "yeast water cost", yeast.Cost, 0.03)

	pf := bd.DoughDetails.PreFermentCostsInProduct["老面"]
	approx(t, "pre-ferment grams", pf.Quantity, 6)
	approx(t, "pre-ferment cost", pf.Cost, 0.03)

	var sum float64
	for _, l := range bd.DoughDetails.IngredientCostsInProduct {
		sum += l.Cost
	}
	approx(t, "leaf costs sum to dough cost", sum, bd.DoughDetails.CostInProduct)

	if len(bd.FillingsDetails) != 1 {
		t.Fatalf("expected 1 filling, got %d", len(bd.FillingsDetails))
	}
	fd := bd.FillingsDetails[0]
	if fd.IsDirectIngredient || fd.NotFound {
		t.Fatalf("expected recipe filling, got %+v", fd)
	}
	if fd.BatchCalculation == nil {
		t.Fatal("expected batch calculation for recipe filling")
	}
	approx(t, "filling batch", fd.BatchCalculation.BatchCost, 9)
	approx(t, "red bean grams", fd.IngredientCostsInProduct["红豆"].Quantity, 40)
}

func TestSharedIngredientIsSummed(t *testing.T) {
	ings := testIngredients()
	doughs := []DoughRecipe{
		{
			Name: "全麦面团", Yield: 1000,
			Ingredients: []RecipeIngredient{{IngredientID: "面粉", Quantity: 500}},
			PreFerments: []SubRecipeRef{{ID: "面粉种", Quantity: 200}},
		},
		{
			Name: "面粉种", Yield: 200,
			Ingredients: []RecipeIngredient{{IngredientID: "面粉", Quantity: 100}, {IngredientID: "酵母水", Quantity: 100}},
		},
	}
	breads := []BreadType{{ID: "b-wheat", DoughID: "全麦面团", DoughWeight: 100}}
	c := NewCatalog(doughs, nil, ings, breads)

	bd := BreadCostBreakdownByID(c, "b-wheat")
	// 直接 500/1000*100 = 50g，面粉种 200/1000*100 = 20g 其中一半是面粉
	approx(t, "flour grams", bd.DoughDetails.IngredientCostsInProduct["面粉"].Quantity, 60)
	approx(t, "yeast grams", bd.DoughDetails.IngredientCostsInProduct["酵母水"].Quantity, 10)
}

func TestMissingDoughDegradesLocally(t *testing.T) {
	c := NewCatalog(testDoughs(), testFillings(), testIngredients(), []BreadType{
		{
			ID: "b-missing", DoughID: "不存在的面团", DoughWeight: 200,
			Fillings:    []FillingUsage{{FillingID: "红豆馅", Quantity: 50}},
			Decorations: []RecipeIngredient{{IngredientID: "糖", Quantity: 5}},
		},
	})

	bd := BreadCostBreakdownByID(c, "b-missing")
	if !bd.DoughDetails.NotFound {
		t.Fatal("expected dough not-found marker")
	}
	if bd.DoughCost != 0 {
		t.Fatalf("expected dough cost 0, got %f", bd.DoughCost)
	}
	approx(t, "fillings still computed", bd.FillingsCost, 0.9)
	approx(t, "decorations still computed", bd.DecorationsCost, 0.05)
	approx(t, "total", bd.TotalCost, 0.95)

	if len(bd.Issues) != 1 || bd.Issues[0].Kind != IssueMissingReference || bd.Issues[0].NodeKind != KindDough {
		t.Fatalf("expected one missing dough issue, got %v", bd.Issues)
	}
	if !errors.Is(bd.Issues[0], ErrMissingReference) {
		t.Fatal("expected issue to match ErrMissingReference")
	}
}

func TestDirectIngredientFallback(t *testing.T) {
	c := testCatalog()
	bd := BreadCostBreakdownByID(c, "b-002")

	if len(bd.FillingsDetails) != 1 {
		t.Fatalf("expected 1 filling, got %d", len(bd.FillingsDetails))
	}
	fd := bd.FillingsDetails[0]
	if !fd.IsDirectIngredient {
		t.Fatal("expected filling to resolve as direct ingredient")
	}
	if fd.BatchCalculation != nil {
		t.Fatal("direct ingredient should not carry a batch calculation")
	}
	// 50元/1000g * 10g
	approx(t, "direct ingredient cost", fd.CostInProduct, 0.5)
	approx(t, "direct ingredient grams", fd.IngredientCostsInProduct["黄油"].Quantity, 10)
}

func TestFillingRecipeWinsOverSameNamedIngredient(t *testing.T) {
	ings := append(testIngredients(), Ingredient{ID: "红豆馅", Name: "红豆馅", Price: 1000, Norms: 1})
	c := NewCatalog(testDoughs(), testFillings(), ings, testBreads())

	bd := BreadCostBreakdownByID(c, "b-001")
	if bd.FillingsDetails[0].IsDirectIngredient {
		t.Fatal("filling recipe should take precedence over ingredient")
	}
	approx(t, "fillings cost", bd.FillingsCost, 0.9)

	var ambiguous bool
	for _, issue := range c.Validate() {
		if issue.Kind == IssueAmbiguousReference && issue.Ref == "红豆馅" {
			ambiguous = true
		}
	}
	if !ambiguous {
		t.Fatal("expected Validate to flag the ambiguous name")
	}
}

func TestCyclicPreFermentTerminates(t *testing.T) {
	tests := []struct {
		name   string
		doughs []DoughRecipe
	}{
		{
			name: "self reference",
			doughs: []DoughRecipe{{
				Name: "自引用", Yield: 1000,
				Ingredients: []RecipeIngredient{{IngredientID: "面粉", Quantity: 1000}},
				PreFerments: []SubRecipeRef{{ID: "自引用", Quantity: 100}},
			}},
		},
		{
			name: "transitive",
			doughs: []DoughRecipe{
				{
					Name: "自引用", Yield: 1000,
					Ingredients: []RecipeIngredient{{IngredientID: "面粉", Quantity: 1000}},
					PreFerments: []SubRecipeRef{{ID: "中间种", Quantity: 100}},
				},
				{
					Name: "中间种", Yield: 100,
					PreFerments: []SubRecipeRef{{ID: "自引用", Quantity: 100}},
				},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCatalog(tt.doughs, nil, testIngredients(), []BreadType{{ID: "b", DoughID: "自引用", DoughWeight: 100}})
			bd := BreadCostBreakdownByID(c, "b")

			// 只有面粉贡献成本，循环分支为0
			approx(t, "batch cost", bd.DoughDetails.Cost, 4)
			approx(t, "cost in product", bd.DoughCost, 0.4)

			var cyclic bool
			for _, issue := range bd.Issues {
				if issue.Kind == IssueCyclicReference {
					cyclic = true
					if !errors.Is(issue, ErrCyclicReference) {
						t.Fatal("expected ErrCyclicReference")
					}
				}
			}
			if !cyclic {
				t.Fatalf("expected cyclic issue, got %v", bd.Issues)
			}
		})
	}
}

func TestDegenerateYield(t *testing.T) {
	doughs := []DoughRecipe{{
		Name: "坏面团", Yield: 0,
		Ingredients: []RecipeIngredient{{IngredientID: "面粉", Quantity: 600}},
	}}
	c := NewCatalog(doughs, nil, testIngredients(), []BreadType{{ID: "b", DoughID: "坏面团", DoughWeight: 100}})

	bd := BreadCostBreakdownByID(c, "b")
	if bd.DoughCost != 0 || bd.DoughDetails.UnitCost != 0 {
		t.Fatalf("expected zero cost for degenerate yield, got %+v", bd.DoughDetails)
	}
	if len(bd.DoughDetails.IngredientCostsInProduct) != 0 {
		t.Fatalf("expected no expansion, got %v", bd.DoughDetails.IngredientCostsInProduct)
	}
	if len(bd.Issues) != 1 || bd.Issues[0].Kind != IssueDegenerateYield {
		t.Fatalf("expected degenerate yield issue, got %v", bd.Issues)
	}
}

func TestMalformedNumbersCoercedToZero(t *testing.T) {
	c := NewCatalog(testDoughs(), testFillings(), testIngredients(), []BreadType{{
		ID: "b", DoughID: "基础面团", DoughWeight: -50,
		Decorations: []RecipeIngredient{{IngredientID: "糖", Quantity: -3}},
	}})

	bd := BreadCostBreakdownByID(c, "b")
	if bd.TotalCost != 0 {
		t.Fatalf("expected 0 total for negative quantities, got %f", bd.TotalCost)
	}
	// 整批成本仍然可以计算
	approx(t, "batch cost", bd.DoughDetails.Cost, 2.55)
}

func TestReferencesAreTrimmed(t *testing.T) {
	c := NewCatalog(testDoughs(), testFillings(), testIngredients(), []BreadType{{
		ID: " b-pad ", DoughID: "  基础面团 ", DoughWeight: 200,
		Fillings: []FillingUsage{{FillingID: "红豆馅\t", Quantity: 0.05, Unit: "kg"}},
	}})

	bd := BreadCostBreakdownByID(c, "b-pad")
	if bd.NotFound || bd.DoughDetails.NotFound || bd.FillingsDetails[0].NotFound {
		t.Fatalf("expected trimmed references to resolve, got %+v", bd)
	}
	approx(t, "dough", bd.DoughCost, 0.51)
	approx(t, "filling in kg", bd.FillingsCost, 0.9)
}

func TestBreadCostBreakdownByIDUnknown(t *testing.T) {
	bd := BreadCostBreakdownByID(testCatalog(), "nope")
	if !bd.NotFound {
		t.Fatal("expected not found")
	}
	if bd.TotalCost != 0 {
		t.Fatalf("expected 0 total, got %f", bd.TotalCost)
	}
}
