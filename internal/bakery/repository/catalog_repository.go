package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hfyy456/bread-manager-1-sub001/internal/bakery/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// upsertByName 名称唯一：同名记录已存在时一律沿用其ID（请求里带的ID被忽略），再按ID更新或插入
func upsertByName(ctx context.Context, db *gorm.DB, model interface{}, id *string, name string, value interface{}, columns []string) error {
	var existing struct{ ID string }
	err := db.WithContext(ctx).Model(model).Select("id").Where("name = ?", name).Take(&existing).Error
	switch {
	case err == nil:
		*id = existing.ID
	case errors.Is(err, gorm.ErrRecordNotFound):
		if *id == "" {
			*id = uuid.New().String()
		}
	default:
		return err
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(value).Error
}

// idsByName 已存在记录的 名称 → ID
func idsByName(ctx context.Context, db *gorm.DB, model interface{}, names []string) (map[string]string, error) {
	out := make(map[string]string, len(names))
	if len(names) == 0 {
		return out, nil
	}
	var rows []struct{ ID, Name string }
	if err := db.WithContext(ctx).Model(model).Select("id", "name").Where("name IN ?", names).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.Name] = row.ID
	}
	return out, nil
}

// ============================================================
// Ingredient
// ============================================================

type IngredientRepository struct {
	db *gorm.DB
}

func NewIngredientRepository(db *gorm.DB) *IngredientRepository {
	return &IngredientRepository{db: db}
}

func (r *IngredientRepository) List(ctx context.Context) ([]entity.Ingredient, error) {
	var items []entity.Ingredient
	err := r.db.WithContext(ctx).Order("name").Find(&items).Error
	return items, err
}

func (r *IngredientRepository) FindByID(ctx context.Context, id string) (*entity.Ingredient, error) {
	var item entity.Ingredient
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

// Upsert 同名原料存在时更新价格、规格与库存
func (r *IngredientRepository) Upsert(ctx context.Context, item *entity.Ingredient) error {
	return upsertByName(ctx, r.db, &entity.Ingredient{}, &item.ID, item.Name, item, []string{
		"name", "unit", "specs", "price", "norms", "stock_by_post", "main_warehouse_stock", "updated_at",
	})
}

func (r *IngredientRepository) IDsByName(ctx context.Context, names []string) (map[string]string, error) {
	return idsByName(ctx, r.db, &entity.Ingredient{}, names)
}

// UpdateStock 只更新门店库存
func (r *IngredientRepository) UpdateStock(ctx context.Context, id string, stock entity.RawJSON) error {
	res := r.db.WithContext(ctx).Model(&entity.Ingredient{}).Where("id = ?", id).Update("stock_by_post", stock)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ============================================================
// Recipe (dough + filling)
// ============================================================

type RecipeRepository struct {
	db *gorm.DB
}

func NewRecipeRepository(db *gorm.DB) *RecipeRepository {
	return &RecipeRepository{db: db}
}

func (r *RecipeRepository) ListDoughs(ctx context.Context) ([]entity.DoughRecipe, error) {
	var items []entity.DoughRecipe
	err := r.db.WithContext(ctx).Order("name").Find(&items).Error
	return items, err
}

func (r *RecipeRepository) ListFillings(ctx context.Context) ([]entity.FillingRecipe, error) {
	var items []entity.FillingRecipe
	err := r.db.WithContext(ctx).Order("name").Find(&items).Error
	return items, err
}

func (r *RecipeRepository) DoughIDsByName(ctx context.Context, names []string) (map[string]string, error) {
	return idsByName(ctx, r.db, &entity.DoughRecipe{}, names)
}

func (r *RecipeRepository) FillingIDsByName(ctx context.Context, names []string) (map[string]string, error) {
	return idsByName(ctx, r.db, &entity.FillingRecipe{}, names)
}

func (r *RecipeRepository) UpsertDough(ctx context.Context, d *entity.DoughRecipe) error {
	return upsertByName(ctx, r.db, &entity.DoughRecipe{}, &d.ID, d.Name, d, []string{
		"name", "yield", "unit", "ingredients", "pre_ferments", "description", "updated_at",
	})
}

func (r *RecipeRepository) UpsertFilling(ctx context.Context, f *entity.FillingRecipe) error {
	return upsertByName(ctx, r.db, &entity.FillingRecipe{}, &f.ID, f.Name, f, []string{
		"name", "yield", "unit", "ingredients", "sub_fillings", "description", "updated_at",
	})
}

// ============================================================
// BreadType
// ============================================================

type BreadTypeRepository struct {
	db *gorm.DB
}

func NewBreadTypeRepository(db *gorm.DB) *BreadTypeRepository {
	return &BreadTypeRepository{db: db}
}

func (r *BreadTypeRepository) List(ctx context.Context) ([]entity.BreadType, error) {
	var items []entity.BreadType
	err := r.db.WithContext(ctx).Order("id").Find(&items).Error
	return items, err
}

func (r *BreadTypeRepository) FindByID(ctx context.Context, id string) (*entity.BreadType, error) {
	var item entity.BreadType
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

// Upsert 面包按ID更新
func (r *BreadTypeRepository) Upsert(ctx context.Context, b *entity.BreadType) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "price", "dough_id", "dough_weight", "fillings", "decorations", "updated_at",
		}),
	}).Create(b).Error
}
