package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hfyy456/bread-manager-1-sub001/internal/bakery/repository"
	"github.com/hfyy456/bread-manager-1-sub001/internal/costing"
)

const importPayload = `{
	"ingredients": [
		{"name": "高筋粉", "unit": "袋", "price": "¥120.00", "norms": "25000", "stockByPost": {"post-1": {"quantity": 2, "unit": "袋"}}},
		{"name": "奶油", "unit": "盒", "price": 35, "norms": 1000, "stockByPost": 3}
	],
	"doughs": [
		{"id": "d-100", "name": "吐司面团", "yield": 1000, "ingredients": [{"ingredientId": "高筋粉", "quantity": 1000}]}
	],
	"fillings": [
		{"id": "f-100", "name": "奶油馅", "yield": 500, "ingredients": [{"ingredientId": "奶油", "quantity": 500}], "subFillings": [{"id": "不存在的馅", "quantity": 10}]}
	],
	"bread_types": [
		{"id": "b-100", "name": "奶油吐司", "price": 12, "doughId": "吐司面团", "doughWeight": 400, "fillings": [{"fillingId": "奶油馅", "quantity": 50}]}
	]
}`

func TestCatalogImport(t *testing.T) {
	svcs, repos := setupServices(t)
	ctx := context.Background()

	var req CatalogImport
	if err := json.Unmarshal([]byte(importPayload), &req); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	result, err := svcs.Catalog.Import(ctx, &req)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Ingredients != 2 || result.Doughs != 1 || result.Fillings != 1 || result.BreadTypes != 1 {
		t.Fatalf("unexpected counts %+v", result)
	}
	// 馅料本身和面包展开时各报一次，路径不同
	if len(result.Issues) == 0 {
		t.Fatal("expected missing sub-filling issue")
	}
	for _, issue := range result.Issues {
		if !errors.Is(issue, costing.ErrMissingReference) || issue.Ref != "不存在的馅" {
			t.Fatalf("unexpected issue %v", issue)
		}
	}

	catalog, err := repos.Catalog.LoadCatalog(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	flour, ok := catalog.Ingredient("高筋粉")
	if !ok || flour.Price != 120 || flour.Norms != 25000 || flour.Stock.Total() != 2 {
		t.Fatalf("unexpected imported flour %+v", flour)
	}
	cream, _ := catalog.Ingredient("奶油")
	if cream.Stock.Kind() != costing.StockLegacy || cream.Stock.Total() != 3 {
		t.Fatalf("expected legacy stock 3, got kind=%v total=%v", cream.Stock.Kind(), cream.Stock.Total())
	}

	// 吐司面团 400g: 高筋粉 400g × 120/25000；奶油馅 50g: 奶油 50g × 35/1000
	bd, err := svcs.Costing.BreadCost(ctx, "b-100")
	if err != nil {
		t.Fatalf("bread cost: %v", err)
	}
	approx(t, "imported bread", bd.TotalCost, 400*120.0/25000+50*35.0/1000)

	// 同名再次导入只更新
	req.Ingredients = req.Ingredients[:1]
	req.Ingredients[0].Price = json.RawMessage(`"130"`)
	if _, err := svcs.Catalog.Import(ctx, &CatalogImport{Ingredients: req.Ingredients}); err != nil {
		t.Fatalf("re-import: %v", err)
	}
	items, _ := repos.Ingredient.List(ctx)
	count := 0
	for _, it := range items {
		if it.Name == "高筋粉" {
			count++
			if it.Price != "130" {
				t.Errorf("expected updated price 130, got %q", it.Price)
			}
		}
	}
	if count != 1 {
		t.Fatalf("expected a single 高筋粉 row, got %d", count)
	}
}

func TestCatalogImportAdoptsStoredIDForSameName(t *testing.T) {
	svcs, repos := setupServices(t)
	ctx := context.Background()

	// 种子数据里 黄油=ing-butter，老面=d-002；导入时带了新的ID
	const payload = `{
		"ingredients": [{"id": "ing-a", "name": "黄油", "unit": "块", "price": 60, "norms": 1000}],
		"doughs": [{"id": "d-x", "name": "老面", "yield": 100, "ingredients": [{"ingredientId": "酵母水", "quantity": 100}]}],
		"bread_types": [{"id": "b-200", "name": "黄油老面包", "price": 6, "doughId": "d-x", "doughWeight": 100,
			"decorations": [{"ingredientId": "ing-a", "quantity": 10}]}]
	}`
	var req CatalogImport
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if _, err := svcs.Catalog.Import(ctx, &req); err != nil {
		t.Fatalf("import: %v", err)
	}

	items, _ := repos.Ingredient.List(ctx)
	for _, it := range items {
		if it.ID == "ing-a" {
			t.Fatal("request id must not create a second 黄油 row")
		}
		if it.Name == "黄油" && (it.ID != "ing-butter" || it.Price != "60") {
			t.Fatalf("expected ing-butter updated to 60, got %+v", it)
		}
	}

	bread, err := repos.BreadType.FindByID(ctx, "b-200")
	if err != nil {
		t.Fatalf("find bread: %v", err)
	}
	if bread.DoughID != "d-002" || bread.Decorations[0].IngredientID != "ing-butter" {
		t.Fatalf("expected references rewritten to stored ids, got dough=%q decoration=%q",
			bread.DoughID, bread.Decorations[0].IngredientID)
	}

	// 老面 100g：酵母水 100g × 0.5/100；黄油装饰 10g × 60/1000
	bd, err := svcs.Costing.BreadCost(ctx, "b-200")
	if err != nil {
		t.Fatalf("bread cost: %v", err)
	}
	approx(t, "remapped bread", bd.TotalCost, 0.5+0.6)
	if len(bd.Issues) != 0 {
		t.Fatalf("expected no issues, got %v", bd.Issues)
	}
}

func TestCatalogImportCoercesMalformedNumbers(t *testing.T) {
	svcs, _ := setupServices(t)
	ctx := context.Background()

	const payload = `{
		"ingredients": [{"name": "全麦粉", "price": "¥10", "norms": "1000"}],
		"doughs": [{"id": "d-200", "name": "全麦面团", "yield": "1000", "ingredients": [
			{"ingredientId": "全麦粉", "quantity": "800"},
			{"ingredientId": "面粉", "quantity": null},
			{"ingredientId": "酵母水", "quantity": "少许"}]}],
		"bread_types": [{"id": "b-300", "name": "全麦包", "price": "9元", "doughId": "全麦面团", "doughWeight": "250"}]
	}`
	var req CatalogImport
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		t.Fatalf("string and null numbers must decode: %v", err)
	}
	if _, err := svcs.Catalog.Import(ctx, &req); err != nil {
		t.Fatalf("import: %v", err)
	}

	// 250g 面团 = 200g 全麦粉 × 10/1000；null 和文字用量按0
	bd, err := svcs.Costing.BreadCost(ctx, "b-300")
	if err != nil {
		t.Fatalf("bread cost: %v", err)
	}
	approx(t, "whole wheat bread", bd.TotalCost, 2)

	costs, err := svcs.Costing.ListBreadCosts(ctx)
	if err != nil {
		t.Fatalf("list costs: %v", err)
	}
	for _, c := range costs {
		if c.BreadTypeID == "b-300" && c.Price != 9 {
			t.Fatalf("expected price 9, got %v", c.Price)
		}
	}
}

func TestCatalogImportRejectsBlankNames(t *testing.T) {
	svcs, repos := setupServices(t)
	ctx := context.Background()

	req := &CatalogImport{
		Ingredients: []IngredientImport{{Name: "新原料", Price: json.RawMessage(`1`)}},
		BreadTypes:  []costing.BreadType{{ID: "", Name: "无ID面包"}},
	}
	if _, err := svcs.Catalog.Import(ctx, req); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	items, _ := repos.Ingredient.List(ctx)
	for _, it := range items {
		if it.Name == "新原料" {
			t.Fatal("nothing should be written when validation fails")
		}
	}
}

func TestUpdateStock(t *testing.T) {
	svcs, _ := setupServices(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		raw       string
		wantErr   error
		wantKind  costing.StockKind
		wantTotal float64
	}{
		{"per location", `{"post-1":{"quantity":2},"post-2":{"quantity":"1.5"}}`, nil, costing.StockPerLocation, 3.5},
		{"legacy number", `4`, nil, costing.StockLegacy, 4},
		{"cleared", `null`, nil, costing.StockNone, 0},
		{"array rejected", `[1,2]`, ErrInvalidRequest, 0, 0},
		{"garbage rejected", `{bad`, ErrInvalidRequest, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ing, err := svcs.Catalog.UpdateStock(ctx, "ing-bean", json.RawMessage(tt.raw))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("update: %v", err)
			}
			if ing.Stock.Kind() != tt.wantKind || ing.Stock.Total() != tt.wantTotal {
				t.Fatalf("expected kind=%v total=%v, got kind=%v total=%v",
					tt.wantKind, tt.wantTotal, ing.Stock.Kind(), ing.Stock.Total())
			}
		})
	}

	if _, err := svcs.Catalog.UpdateStock(ctx, "ing-404", json.RawMessage(`1`)); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
