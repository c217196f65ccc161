package costing

import (
	"errors"
	"reflect"
	"testing"
)

func TestAncestryIsImmutable(t *testing.T) {
	var root *Ancestry
	a := root.Push(KindDough, "基础面团")
	b := a.Push(KindDough, "老面")
	c := a.Push(KindFilling, "红豆馅")

	if !b.Contains(KindDough, "基础面团") || !b.Contains(KindDough, "老面") {
		t.Fatal("expected both ancestors on chain b")
	}
	if c.Contains(KindDough, "老面") {
		t.Fatal("sibling branch leaked into chain c")
	}
	if c.Contains(KindDough, "红豆馅") {
		t.Fatal("kind must be part of the ancestry key")
	}
	if root.Contains(KindDough, "基础面团") {
		t.Fatal("empty chain should contain nothing")
	}
	want := []string{"dough:基础面团", "dough:老面"}
	if got := b.Path(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected path %v, got %v", want, got)
	}
}

func TestResolve(t *testing.T) {
	c := testCatalog()

	r := c.Resolve(KindFilling, " 黄油 ", nil)
	if !r.IsDirectIngredient || r.Kind != KindIngredient || r.Ingredient == nil {
		t.Fatalf("expected direct ingredient, got %+v", r)
	}

	r = c.Resolve(KindDough, "d-002", nil)
	if r.Dough == nil || r.Key() != "老面" {
		t.Fatalf("expected dough resolved by id with name key, got %+v", r)
	}

	r = c.Resolve(KindFilling, "不存在", nil)
	if !r.NotFound || r.Ref != "不存在" {
		t.Fatalf("expected not found, got %+v", r)
	}

	r = c.Resolve(KindDough, "  ", nil)
	if !r.NotFound {
		t.Fatal("blank reference should not resolve")
	}

	chain := (*Ancestry)(nil).Push(KindDough, "老面")
	r = c.Resolve(KindDough, "d-002", chain)
	if !r.Cyclic {
		t.Fatal("expected cyclic when recipe is already on the chain")
	}
}

func TestValidate(t *testing.T) {
	doughs := append(testDoughs(),
		DoughRecipe{Name: "环A", Yield: 100, PreFerments: []SubRecipeRef{{ID: "环B", Quantity: 10}}},
		DoughRecipe{Name: "环B", Yield: 100, PreFerments: []SubRecipeRef{{ID: "环A", Quantity: 10}}},
		DoughRecipe{Name: "零出品", Yield: 0},
	)
	breads := append(testBreads(), BreadType{ID: "b-x", DoughID: "缺失面团", DoughWeight: 10})
	c := NewCatalog(doughs, testFillings(), testIngredients(), breads)

	issues := c.Validate()

	var cyclic, degenerate, missing int
	for _, issue := range issues {
		switch {
		case errors.Is(issue, ErrCyclicReference):
			cyclic++
		case errors.Is(issue, ErrDegenerateYield):
			degenerate++
		case errors.Is(issue, ErrMissingReference):
			missing++
			if issue.Ref != "缺失面团" {
				t.Fatalf("unexpected missing ref %q", issue.Ref)
			}
		}
	}
	if cyclic == 0 || degenerate != 1 || missing != 1 {
		t.Fatalf("unexpected issues: %v", issues)
	}

	for i := 1; i < len(issues); i++ {
		if issues[i-1].key() > issues[i].key() {
			t.Fatal("expected issues sorted")
		}
	}
	if !reflect.DeepEqual(issues, c.Validate()) {
		t.Fatal("expected Validate to be deterministic")
	}
}

func TestValidateCleanCatalog(t *testing.T) {
	if issues := testCatalog().Validate(); len(issues) != 0 {
		t.Fatalf("expected no issues, got %v", issues)
	}
}

func TestIngredientIDWinsOverSameNamedIngredient(t *testing.T) {
	ingredients := []Ingredient{
		{ID: "ing-1", Name: "黄油", Price: 50, Norms: 1000, Stock: LegacyStock(2)},
		{ID: "ing-2", Name: "ing-1", Price: 1, Norms: 1},
	}
	breads := []BreadType{{ID: "b", Decorations: []RecipeIngredient{{IngredientID: "ing-1", Quantity: 500}}}}
	c := NewCatalog(nil, nil, ingredients, breads)

	ing, ok := c.Ingredient("ing-1")
	if !ok || ing.Name != "黄油" {
		t.Fatalf("expected lookup by id to return 黄油, got %+v", ing)
	}
	if ing, ok := c.Ingredient("黄油"); !ok || ing.ID != "ing-1" {
		t.Fatalf("expected lookup by name to still work, got %+v", ing)
	}

	r := PurchaseReport(c, AggregateQuantities(c, map[string]float64{"b": 1}, 1))
	if len(r.Lines) != 1 {
		t.Fatalf("expected one report line, got %+v", r.Lines)
	}
	// 库存2块=2000g，需求500g
	approx(t, "stock", r.Lines[0].CurrentStockGrams, 2000)
	approx(t, "purchase units", r.Lines[0].PurchaseNeededUnits, 0)

	var shadowed bool
	for _, issue := range c.Validate() {
		if issue.Kind == IssueAmbiguousReference && issue.NodeKind == KindIngredient && issue.Ref == "ing-1" {
			shadowed = true
		}
	}
	if !shadowed {
		t.Fatal("expected the shadowed ingredient name to be reported")
	}
}
