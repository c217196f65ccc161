package costing

import (
	"math"
	"testing"
)

const eps = 1e-9

func approx(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > eps {
		t.Fatalf("%s: expected %.10f, got %.10f", name, want, got)
	}
}

func testIngredients() []Ingredient {
	return []Ingredient{
		{ID: "面粉", Name: "面粉", Unit: "袋", Price: 4, Norms: 1000, Stock: PerLocation(map[string]StockEntry{"post-1": {Quantity: 1}})},
		{ID: "酵母水", Name: "酵母水", Unit: "瓶", Price: 0.5, Norms: 100},
		{ID: "黄油", Name: "黄油", Unit: "块", Price: 50, Norms: 1000},
		{ID: "红豆", Name: "红豆", Unit: "袋", Price: 20, Norms: 1000},
		{ID: "糖", Name: "糖", Unit: "袋", Price: 10, Norms: 1000},
	}
}

func testDoughs() []DoughRecipe {
	return []DoughRecipe{
		{
			ID: "d-001", Name: "基础面团", Yield: 1000,
			Ingredients: []RecipeIngredient{{IngredientID: "面粉", Quantity: 600, Unit: "g"}},
			PreFerments: []SubRecipeRef{{ID: "老面", Quantity: 30}},
		},
		{
			ID: "d-002", Name: "老面", Yield: 100,
			Ingredients: []RecipeIngredient{{IngredientID: "酵母水", Quantity: 100}},
		},
	}
}

func testFillings() []FillingRecipe {
	return []FillingRecipe{
		{
			ID: "f-001", Name: "红豆馅", Yield: 500,
			Ingredients: []RecipeIngredient{
				{IngredientID: "红豆", Quantity: 400},
				{IngredientID: "糖", Quantity: 100},
			},
		},
	}
}

func testBreads() []BreadType {
	return []BreadType{
		{
			ID: "b-001", Name: "红豆包", Price: 8,
			DoughID: "基础面团", DoughWeight: 200,
			Fillings:    []FillingUsage{{FillingID: "红豆馅", Quantity: 50}},
			Decorations: []RecipeIngredient{{IngredientID: "糖", Quantity: 5}},
		},
		{
			ID: "b-002", Name: "黄油餐包", Price: 5,
			DoughID: "基础面团", DoughWeight: 100,
			Fillings: []FillingUsage{{FillingID: "黄油", Quantity: 10}},
		},
	}
}

func testCatalog() *Catalog {
	return NewCatalog(testDoughs(), testFillings(), testIngredients(), testBreads())
}
