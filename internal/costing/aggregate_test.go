package costing

import (
	"math"
	"reflect"
	"testing"
)

func planOf(c *Catalog, quantities map[string]float64) []PlanItem {
	plan, _ := PlanFromQuantities(c, quantities)
	return plan
}

func TestAggregateSumsSharedIngredients(t *testing.T) {
	c := testCatalog()
	agg := AggregateQuantities(c, map[string]float64{"b-001": 10, "b-002": 5}, 1)

	if agg.Products != 2 {
		t.Fatalf("expected 2 products, got %d", agg.Products)
	}
	// 红豆包 120g 面粉 ×10 + 黄油餐包 60g ×5
	approx(t, "flour", agg.Materials["面粉"].Quantity, 1500)
	approx(t, "flour cost", agg.Materials["面粉"].Cost, 6)
	// 红豆馅里10g + 装饰5g，只有红豆包用
	approx(t, "sugar", agg.Materials["糖"].Quantity, 150)
	approx(t, "butter", agg.Materials["黄油"].Quantity, 50)
	approx(t, "yeast water", agg.Materials["酵母水"].Quantity, 6*10+3*5)

	if agg.Materials["面粉"].Name != "面粉" {
		t.Fatalf("expected ingredient name to be carried, got %q", agg.Materials["面粉"].Name)
	}
}

func TestAggregateScalesLinearlyWithQuantity(t *testing.T) {
	c := testCatalog()
	one := AggregateQuantities(c, map[string]float64{"b-001": 1}, 1)
	two := AggregateQuantities(c, map[string]float64{"b-001": 2}, 1)

	for id, d := range one.Materials {
		approx(t, id+" quantity", two.Materials[id].Quantity, 2*d.Quantity)
		approx(t, id+" cost", two.Materials[id].Cost, 2*d.Cost)
	}
}

func TestAggregateScalesLinearlyWithMultiplier(t *testing.T) {
	c := testCatalog()
	quantities := map[string]float64{"b-001": 7, "b-002": 3}
	base := AggregateQuantities(c, quantities, 1)

	for _, m := range []float64{1.0, 1.05, 1.10, 1.15, 2.5} {
		scaled := AggregateQuantities(c, quantities, m)
		if scaled.SafetyMultiplier != m {
			t.Fatalf("expected multiplier %v, got %v", m, scaled.SafetyMultiplier)
		}
		for id, d := range base.Materials {
			if scaled.Materials[id].Quantity != m*d.Quantity {
				t.Fatalf("m=%v %s: expected %v, got %v", m, id, m*d.Quantity, scaled.Materials[id].Quantity)
			}
			if scaled.Materials[id].Cost != m*d.Cost {
				t.Fatalf("m=%v %s cost: expected %v, got %v", m, id, m*d.Cost, scaled.Materials[id].Cost)
			}
		}
	}
}

func TestAggregateIsOrderIndependent(t *testing.T) {
	c := testCatalog()
	a, _ := c.BreadType("b-001")
	b, _ := c.BreadType("b-002")

	ab := Aggregate(c, []PlanItem{{BreadType: a, Quantity: 13}, {BreadType: b, Quantity: 7}}, 1.05)
	ba := Aggregate(c, []PlanItem{{BreadType: b, Quantity: 7}, {BreadType: a, Quantity: 13}}, 1.05)

	if !reflect.DeepEqual(ab.Materials, ba.Materials) {
		t.Fatalf("expected identical totals\n ab=%v\n ba=%v", ab.Materials, ba.Materials)
	}
}

func TestAggregateIsIdempotent(t *testing.T) {
	c := testCatalog()
	plan := planOf(c, map[string]float64{"b-001": 4, "b-002": 9})

	first := Aggregate(c, plan, 1.1)
	second := Aggregate(c, plan, 1.1)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical results, got\n %v\n %v", first, second)
	}

	d, _ := c.Dough("基础面团")
	if !reflect.DeepEqual(*d, testDoughs()[0]) {
		t.Fatal("catalog dough was mutated")
	}
	bread, _ := c.BreadType("b-001")
	if !reflect.DeepEqual(*bread, testBreads()[0]) {
		t.Fatal("catalog bread was mutated")
	}
}

func TestPlanFromQuantitiesIgnoresInvalidEntries(t *testing.T) {
	c := testCatalog()
	plan, issues := PlanFromQuantities(c, map[string]float64{
		"b-001":   0,
		"b-002":   -1,
		"b-003":   math.NaN(),
		"unknown": 3,
		" b-001 ": 2,
	})

	if len(plan) != 1 || plan[0].BreadType.ID != "b-001" || plan[0].Quantity != 2 {
		t.Fatalf("expected only the padded b-001 entry, got %+v", plan)
	}
	if len(issues) != 1 || issues[0].NodeKind != KindBreadType || issues[0].Ref != "unknown" {
		t.Fatalf("expected one unknown bread issue, got %v", issues)
	}
}

func TestAggregateNormalizesMultiplier(t *testing.T) {
	c := testCatalog()
	for _, m := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		agg := AggregateQuantities(c, map[string]float64{"b-001": 1}, m)
		if agg.SafetyMultiplier != 1 {
			t.Fatalf("multiplier %v: expected fallback to 1, got %v", m, agg.SafetyMultiplier)
		}
	}
}

func TestAggregateCarriesIssues(t *testing.T) {
	c := NewCatalog(testDoughs(), testFillings(), testIngredients(), []BreadType{
		{ID: "b-bad", DoughID: "不存在", DoughWeight: 100, Decorations: []RecipeIngredient{{IngredientID: "糖", Quantity: 10}}},
	})
	agg := AggregateQuantities(c, map[string]float64{"b-bad": 3}, 1)

	approx(t, "sugar still aggregated", agg.Materials["糖"].Quantity, 30)
	if len(agg.Issues) != 1 || agg.Issues[0].Kind != IssueMissingReference {
		t.Fatalf("expected missing dough issue, got %v", agg.Issues)
	}
}
