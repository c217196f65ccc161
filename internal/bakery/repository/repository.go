package repository

import (
	"errors"

	"gorm.io/gorm"
)

// 错误定义
var (
	ErrNotFound = errors.New("record not found")
)

// Repositories 仓库集合
type Repositories struct {
	Ingredient  *IngredientRepository
	Recipe      *RecipeRepository
	BreadType   *BreadTypeRepository
	Plan        *PlanRepository
	PurchaseRun *PurchaseRunRepository
	Catalog     *CatalogLoader

	db *gorm.DB
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	repos := &Repositories{
		Ingredient:  NewIngredientRepository(db),
		Recipe:      NewRecipeRepository(db),
		BreadType:   NewBreadTypeRepository(db),
		Plan:        NewPlanRepository(db),
		PurchaseRun: NewPurchaseRunRepository(db),
		db:          db,
	}
	repos.Catalog = NewCatalogLoader(repos.Ingredient, repos.Recipe, repos.BreadType)
	return repos
}

// Transaction 在同一个事务里使用一组新的仓库
func (r *Repositories) Transaction(fn func(tx *Repositories) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}

// Ping 检查数据库连接
func (r *Repositories) Ping() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func normalizePage(page, size int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	return page, size
}
