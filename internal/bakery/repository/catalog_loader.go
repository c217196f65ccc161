package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hfyy456/bread-manager-1-sub001/internal/bakery/entity"
	"github.com/hfyy456/bread-manager-1-sub001/internal/costing"
)

// CatalogLoader 从数据库读取一份完整的配方目录快照
type CatalogLoader struct {
	ingredients *IngredientRepository
	recipes     *RecipeRepository
	breads      *BreadTypeRepository
}

func NewCatalogLoader(ingredients *IngredientRepository, recipes *RecipeRepository, breads *BreadTypeRepository) *CatalogLoader {
	return &CatalogLoader{ingredients: ingredients, recipes: recipes, breads: breads}
}

// LoadCatalog 价格字符串与库存形态在这里一次性解析
func (l *CatalogLoader) LoadCatalog(ctx context.Context) (*costing.Catalog, error) {
	ings, err := l.ingredients.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ingredients: %w", err)
	}
	doughs, err := l.recipes.ListDoughs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load doughs: %w", err)
	}
	fillings, err := l.recipes.ListFillings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load fillings: %w", err)
	}
	breads, err := l.breads.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load bread types: %w", err)
	}

	cIngs := make([]costing.Ingredient, 0, len(ings))
	for _, e := range ings {
		cIngs = append(cIngs, ToCostingIngredient(e))
	}
	cDoughs := make([]costing.DoughRecipe, 0, len(doughs))
	for _, e := range doughs {
		cDoughs = append(cDoughs, costing.DoughRecipe{
			ID:          e.ID,
			Name:        e.Name,
			Yield:       e.Yield,
			Unit:        e.Unit,
			Ingredients: e.Ingredients,
			PreFerments: e.PreFerments,
		})
	}
	cFillings := make([]costing.FillingRecipe, 0, len(fillings))
	for _, e := range fillings {
		cFillings = append(cFillings, costing.FillingRecipe{
			ID:          e.ID,
			Name:        e.Name,
			Yield:       e.Yield,
			Unit:        e.Unit,
			Ingredients: e.Ingredients,
			SubFillings: e.SubFillings,
		})
	}
	cBreads := make([]costing.BreadType, 0, len(breads))
	for _, e := range breads {
		cBreads = append(cBreads, ToCostingBreadType(e))
	}

	return costing.NewCatalog(cDoughs, cFillings, cIngs, cBreads), nil
}

func ToCostingIngredient(e entity.Ingredient) costing.Ingredient {
	return costing.Ingredient{
		ID:            e.ID,
		Name:          e.Name,
		Unit:          e.Unit,
		Price:         costing.ParsePrice(e.Price),
		Norms:         e.Norms,
		Stock:         costing.ParseStockRecord(json.RawMessage(e.StockByPost)),
		MainWarehouse: e.MainWarehouseStock,
	}
}

func ToCostingBreadType(e entity.BreadType) costing.BreadType {
	return costing.BreadType{
		ID:          e.ID,
		Name:        e.Name,
		Price:       e.Price,
		DoughID:     e.DoughID,
		DoughWeight: e.DoughWeight,
		Fillings:    e.Fillings,
		Decorations: e.Decorations,
	}
}
