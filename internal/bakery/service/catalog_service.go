package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hfyy456/bread-manager-1-sub001/internal/bakery/entity"
	"github.com/hfyy456/bread-manager-1-sub001/internal/bakery/repository"
	"github.com/hfyy456/bread-manager-1-sub001/internal/costing"
	"go.uber.org/zap"
)

// CatalogService 目录维护：批量导入、库存更新
type CatalogService struct {
	repos  *repository.Repositories
	logger *zap.Logger
}

func NewCatalogService(repos *repository.Repositories, logger *zap.Logger) *CatalogService {
	return &CatalogService{repos: repos, logger: logger}
}

// CatalogImport 批量导入请求，格式与前端原有的配方JSON一致
type CatalogImport struct {
	Ingredients []IngredientImport      `json:"ingredients"`
	Doughs      []costing.DoughRecipe   `json:"doughs"`
	Fillings    []costing.FillingRecipe `json:"fillings"`
	BreadTypes  []costing.BreadType     `json:"bread_types"`
}

// IngredientImport 价格保留原始字符串，库存保留原始JSON
type IngredientImport struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Unit               string          `json:"unit"`
	Specs              string          `json:"specs"`
	Price              json.RawMessage `json:"price"`
	Norms              costing.Amount  `json:"norms"`
	StockByPost        json.RawMessage `json:"stockByPost"`
	MainWarehouseStock costing.Amount  `json:"mainWarehouseStock"`
}

// ImportResult 导入结果，Issues 为导入后目录的结构检查
type ImportResult struct {
	Ingredients int             `json:"ingredients"`
	Doughs      int             `json:"doughs"`
	Fillings    int             `json:"fillings"`
	BreadTypes  int             `json:"bread_types"`
	Issues      []costing.Issue `json:"issues"`
}

// rawPrice 价格可能是数字也可能是带货币符号的字符串，原样保存
func rawPrice(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	if string(raw) == "null" {
		return ""
	}
	return strings.TrimSpace(string(raw))
}

// Import 同名记录更新，全部在一个事务里完成
func (s *CatalogService) Import(ctx context.Context, req *CatalogImport) (*ImportResult, error) {
	for _, ing := range req.Ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			return nil, fmt.Errorf("原料名称不能为空: %w", ErrInvalidRequest)
		}
	}
	for _, d := range req.Doughs {
		if strings.TrimSpace(d.Name) == "" {
			return nil, fmt.Errorf("面团名称不能为空: %w", ErrInvalidRequest)
		}
	}
	for _, f := range req.Fillings {
		if strings.TrimSpace(f.Name) == "" {
			return nil, fmt.Errorf("馅料名称不能为空: %w", ErrInvalidRequest)
		}
	}
	for _, b := range req.BreadTypes {
		if strings.TrimSpace(b.ID) == "" || strings.TrimSpace(b.Name) == "" {
			return nil, fmt.Errorf("面包ID和名称不能为空: %w", ErrInvalidRequest)
		}
	}

	result := &ImportResult{}
	err := s.repos.Transaction(func(tx *repository.Repositories) error {
		ids, err := adoptedIDs(ctx, tx, req)
		if err != nil {
			return err
		}
		for _, in := range req.Ingredients {
			item := &entity.Ingredient{
				ID:                 strings.TrimSpace(in.ID),
				Name:               strings.TrimSpace(in.Name),
				Unit:               in.Unit,
				Specs:              in.Specs,
				Price:              rawPrice(in.Price),
				Norms:              in.Norms.Float64(),
				StockByPost:        entity.RawJSON(in.StockByPost),
				MainWarehouseStock: in.MainWarehouseStock.Float64(),
			}
			if string(in.StockByPost) == "null" {
				item.StockByPost = nil
			}
			if err := tx.Ingredient.Upsert(ctx, item); err != nil {
				return fmt.Errorf("导入原料 %s 失败: %w", item.Name, err)
			}
			result.Ingredients++
		}
		for _, d := range req.Doughs {
			item := &entity.DoughRecipe{
				ID:          strings.TrimSpace(d.ID),
				Name:        strings.TrimSpace(d.Name),
				Yield:       d.Yield,
				Unit:        d.Unit,
				Ingredients: ids.recipeLines(d.Ingredients),
				PreFerments: ids.subRecipes(d.PreFerments, ids.doughs),
			}
			if err := tx.Recipe.UpsertDough(ctx, item); err != nil {
				return fmt.Errorf("导入面团 %s 失败: %w", item.Name, err)
			}
			result.Doughs++
		}
		for _, f := range req.Fillings {
			item := &entity.FillingRecipe{
				ID:          strings.TrimSpace(f.ID),
				Name:        strings.TrimSpace(f.Name),
				Yield:       f.Yield,
				Unit:        f.Unit,
				Ingredients: ids.recipeLines(f.Ingredients),
				SubFillings: ids.subRecipes(f.SubFillings, ids.fillings),
			}
			if err := tx.Recipe.UpsertFilling(ctx, item); err != nil {
				return fmt.Errorf("导入馅料 %s 失败: %w", item.Name, err)
			}
			result.Fillings++
		}
		for _, b := range req.BreadTypes {
			item := &entity.BreadType{
				ID:          strings.TrimSpace(b.ID),
				Name:        strings.TrimSpace(b.Name),
				Price:       b.Price,
				DoughID:     ids.ref(b.DoughID, ids.doughs),
				DoughWeight: b.DoughWeight,
				Fillings:    ids.fillingUsages(b.Fillings),
				Decorations: ids.recipeLines(b.Decorations),
			}
			if err := tx.BreadType.Upsert(ctx, item); err != nil {
				return fmt.Errorf("导入面包 %s 失败: %w", item.Name, err)
			}
			result.BreadTypes++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	catalog, err := s.repos.Catalog.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	result.Issues = catalog.Validate()
	if result.Issues == nil {
		result.Issues = []costing.Issue{}
	}
	s.logger.Info("Catalog imported",
		zap.Int("ingredients", result.Ingredients),
		zap.Int("doughs", result.Doughs),
		zap.Int("fillings", result.Fillings),
		zap.Int("bread_types", result.BreadTypes),
		zap.Int("issues", len(result.Issues)),
	)
	return result, nil
}

// idRemap 请求里的ID → 库中同名记录的ID，只记录两者不同的
type idRemap struct {
	ingredients map[string]string
	doughs      map[string]string
	fillings    map[string]string
}

func remapByName(given map[string]string, stored map[string]string) map[string]string {
	out := make(map[string]string)
	for name, id := range given {
		if existing, ok := stored[name]; ok && id != "" && id != existing {
			out[id] = existing
		}
	}
	return out
}

// adoptedIDs 同名记录沿用库中ID，配方里按请求ID写的引用要随之改写
func adoptedIDs(ctx context.Context, tx *repository.Repositories, req *CatalogImport) (*idRemap, error) {
	collect := func(n int, at func(i int) (string, string)) (map[string]string, []string) {
		given := make(map[string]string, n)
		names := make([]string, 0, n)
		for i := 0; i < n; i++ {
			id, name := at(i)
			name = strings.TrimSpace(name)
			given[name] = strings.TrimSpace(id)
			names = append(names, name)
		}
		return given, names
	}

	ingGiven, ingNames := collect(len(req.Ingredients), func(i int) (string, string) {
		return req.Ingredients[i].ID, req.Ingredients[i].Name
	})
	doughGiven, doughNames := collect(len(req.Doughs), func(i int) (string, string) {
		return req.Doughs[i].ID, req.Doughs[i].Name
	})
	fillingGiven, fillingNames := collect(len(req.Fillings), func(i int) (string, string) {
		return req.Fillings[i].ID, req.Fillings[i].Name
	})

	ingStored, err := tx.Ingredient.IDsByName(ctx, ingNames)
	if err != nil {
		return nil, err
	}
	doughStored, err := tx.Recipe.DoughIDsByName(ctx, doughNames)
	if err != nil {
		return nil, err
	}
	fillingStored, err := tx.Recipe.FillingIDsByName(ctx, fillingNames)
	if err != nil {
		return nil, err
	}
	return &idRemap{
		ingredients: remapByName(ingGiven, ingStored),
		doughs:      remapByName(doughGiven, doughStored),
		fillings:    remapByName(fillingGiven, fillingStored),
	}, nil
}

func (m *idRemap) ref(id string, table map[string]string) string {
	if to, ok := table[strings.TrimSpace(id)]; ok {
		return to
	}
	return id
}

func (m *idRemap) recipeLines(lines []costing.RecipeIngredient) []costing.RecipeIngredient {
	out := make([]costing.RecipeIngredient, len(lines))
	for i, l := range lines {
		l.IngredientID = m.ref(l.IngredientID, m.ingredients)
		out[i] = l
	}
	return out
}

func (m *idRemap) subRecipes(refs []costing.SubRecipeRef, table map[string]string) []costing.SubRecipeRef {
	out := make([]costing.SubRecipeRef, len(refs))
	for i, r := range refs {
		r.ID = m.ref(r.ID, table)
		out[i] = r
	}
	return out
}

// fillingUsages 馅料引用可能指向馅料配方或原料
func (m *idRemap) fillingUsages(usages []costing.FillingUsage) []costing.FillingUsage {
	out := make([]costing.FillingUsage, len(usages))
	for i, u := range usages {
		if to, ok := m.fillings[strings.TrimSpace(u.FillingID)]; ok {
			u.FillingID = to
		} else {
			u.FillingID = m.ref(u.FillingID, m.ingredients)
		}
		out[i] = u
	}
	return out
}

// UpdateStock 库存可以是 {门店: {quantity, unit}} 或旧格式的单个数字
func (s *CatalogService) UpdateStock(ctx context.Context, ingredientID string, raw json.RawMessage) (*costing.Ingredient, error) {
	var shape interface{}
	if err := json.Unmarshal(raw, &shape); err != nil {
		return nil, fmt.Errorf("库存格式错误: %w", ErrInvalidRequest)
	}
	switch shape.(type) {
	case map[string]interface{}, float64, string, nil:
	default:
		return nil, fmt.Errorf("库存格式错误: %w", ErrInvalidRequest)
	}
	var stock entity.RawJSON
	if shape != nil {
		stock = entity.RawJSON(raw)
	}
	if err := s.repos.Ingredient.UpdateStock(ctx, ingredientID, stock); err != nil {
		return nil, err
	}
	item, err := s.repos.Ingredient.FindByID(ctx, ingredientID)
	if err != nil {
		return nil, err
	}
	ing := repository.ToCostingIngredient(*item)
	return &ing, nil
}
