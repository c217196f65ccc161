// Package costing 面包成本核算与原料需求计算核心。
//
// 包内全部为纯函数：输入是调用方加载好的只读配方/原料快照，输出是新的明细结构，
// 不做I/O、不缓存、不修改输入。配方引用缺失、循环引用、出品量为0等异常数据
// 不会中断计算，只会在结果里留下0值贡献和 Issue 标记。
package costing

import (
	"encoding/json"
	"sort"
	"strings"
)

// RecipeIngredient 配方中的原料行（也用于面包的装饰）
type RecipeIngredient struct {
	IngredientID string  `json:"ingredientId"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit,omitempty"`
}

// SubRecipeRef 子配方引用：面团的预发酵种、馅料的子馅料
type SubRecipeRef struct {
	ID       string  `json:"id"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit,omitempty"`
}

// DoughRecipe 面团配方，Yield 为一批的出品克数
type DoughRecipe struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Yield       float64            `json:"yield"`
	Unit        string             `json:"unit,omitempty"`
	Ingredients []RecipeIngredient `json:"ingredients"`
	PreFerments []SubRecipeRef     `json:"preFerments"`
}

// FillingRecipe 馅料配方
type FillingRecipe struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Yield       float64            `json:"yield"`
	Unit        string             `json:"unit,omitempty"`
	Ingredients []RecipeIngredient `json:"ingredients"`
	SubFillings []SubRecipeRef     `json:"subFillings"`
}

// FillingUsage 面包中使用的馅料，FillingID 可能指向馅料配方，也可能直接指向原料
type FillingUsage struct {
	FillingID string  `json:"fillingId"`
	Quantity  float64 `json:"quantity"`
	Unit      string  `json:"unit,omitempty"`
}

// BreadType 面包品类
type BreadType struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Price       float64            `json:"price"`
	DoughID     string             `json:"doughId"`
	DoughWeight float64            `json:"doughWeight"`
	Fillings    []FillingUsage     `json:"fillings"`
	Decorations []RecipeIngredient `json:"decorations"`
}

// Ingredient 原料。Price 为每个采购单位的价格，Norms 为每个采购单位的克数
type Ingredient struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Unit          string      `json:"unit,omitempty"`
	Price         float64     `json:"price"`
	Norms         float64     `json:"norms"`
	Stock         StockRecord `json:"-"`
	MainWarehouse float64     `json:"mainWarehouseStock,omitempty"`
}

// GramsPerUnit 每采购单位克数，未设置时为1
func (i *Ingredient) GramsPerUnit() float64 {
	if i == nil {
		return 1
	}
	n := ToNonNegativeNumber(i.Norms)
	if n == 0 {
		return 1
	}
	return n
}

// PricePerGram 每克价格
func (i *Ingredient) PricePerGram() float64 {
	if i == nil {
		return 0
	}
	return ToNonNegativeNumber(i.Price) / i.GramsPerUnit()
}

// StockKind 库存记录形态
type StockKind int

const (
	StockNone StockKind = iota
	StockPerLocation
	StockLegacy
)

// StockEntry 单个门店/岗位的库存
type StockEntry struct {
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit,omitempty"`
}

// StockRecord 库存的两种历史形态：按门店分布的 map，或旧数据里的单个数字
type StockRecord struct {
	kind   StockKind
	posts  map[string]StockEntry
	legacy float64
}

// PerLocation 按门店的库存记录
func PerLocation(posts map[string]StockEntry) StockRecord {
	cp := make(map[string]StockEntry, len(posts))
	for k, v := range posts {
		cp[normalizeKey(k)] = v
	}
	return StockRecord{kind: StockPerLocation, posts: cp}
}

// LegacyStock 旧数据的单值库存
func LegacyStock(quantity float64) StockRecord {
	return StockRecord{kind: StockLegacy, legacy: ToNonNegativeNumber(quantity)}
}

// ParseStockRecord 在加载时一次性识别 stockByPost 的形态
func ParseStockRecord(raw json.RawMessage) StockRecord {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return StockRecord{}
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return LegacyStock(n)
	}
	// 旧数据偶尔把数字存成字符串
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if strings.TrimSpace(s) == "" {
			return StockRecord{}
		}
		return LegacyStock(ParsePrice(s))
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return StockRecord{}
	}
	posts := make(map[string]StockEntry, len(obj))
	for postID, v := range obj {
		var entry struct {
			Quantity Amount `json:"quantity"`
			Unit     string `json:"unit"`
		}
		if err := json.Unmarshal(v, &entry); err == nil {
			posts[postID] = StockEntry{Quantity: ToNonNegativeNumber(entry.Quantity.Float64()), Unit: entry.Unit}
			continue
		}
		var q Amount
		if err := q.UnmarshalJSON(v); err == nil {
			posts[postID] = StockEntry{Quantity: ToNonNegativeNumber(q.Float64())}
		}
	}
	return PerLocation(posts)
}

func (s StockRecord) Kind() StockKind {
	return s.kind
}

// Total 所有门店库存合计（采购单位）。按门店ID排序累加，保证结果稳定
func (s StockRecord) Total() float64 {
	switch s.kind {
	case StockLegacy:
		return s.legacy
	case StockPerLocation:
		ids := make([]string, 0, len(s.posts))
		for id := range s.posts {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		var total float64
		for _, id := range ids {
			total += ToNonNegativeNumber(s.posts[id].Quantity)
		}
		return total
	default:
		return 0
	}
}

// Posts 返回门店库存的副本
func (s StockRecord) Posts() map[string]StockEntry {
	cp := make(map[string]StockEntry, len(s.posts))
	for k, v := range s.posts {
		cp[k] = v
	}
	return cp
}

func (s StockRecord) MarshalJSON() ([]byte, error) {
	switch s.kind {
	case StockLegacy:
		return json.Marshal(s.legacy)
	case StockPerLocation:
		return json.Marshal(s.posts)
	default:
		return []byte("null"), nil
	}
}

func (s *StockRecord) UnmarshalJSON(data []byte) error {
	*s = ParseStockRecord(data)
	return nil
}

// Catalog 配方/原料/面包的只读查找表
type Catalog struct {
	doughs      index[DoughRecipe]
	fillings    index[FillingRecipe]
	ingredients index[Ingredient]
	breads      map[string]*BreadType
}

// normalizeKey 所有引用查找前统一去除首尾空白
func normalizeKey(id string) string {
	return strings.TrimSpace(id)
}

// index ID 与名称分开索引，查找时ID优先，名称与别的记录ID相同也不会顶替
type index[T any] struct {
	byID   map[string]*T
	byName map[string]*T
	all    []*T
}

func newIndex[T any]() index[T] {
	return index[T]{byID: make(map[string]*T), byName: make(map[string]*T)}
}

func (x *index[T]) add(v *T, id, name string) {
	if normalizeKey(id) == "" && normalizeKey(name) == "" {
		return
	}
	x.all = append(x.all, v)
	if key := normalizeKey(id); key != "" {
		if _, exists := x.byID[key]; !exists {
			x.byID[key] = v
		}
	}
	if key := normalizeKey(name); key != "" {
		x.byName[key] = v
	}
}

func (x *index[T]) get(ref string) (*T, bool) {
	key := normalizeKey(ref)
	if key == "" {
		return nil, false
	}
	if v, ok := x.byID[key]; ok {
		return v, true
	}
	v, ok := x.byName[key]
	return v, ok
}

// shadowedNames 名称与另一条记录的ID相同的名称，这类名称只能查到ID对应的记录
func (x *index[T]) shadowedNames() []string {
	var out []string
	for name, v := range x.byName {
		if other, ok := x.byID[name]; ok && other != v {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// NewCatalog 构建查找表。配方与原料按ID和名称建索引；面包按ID索引
func NewCatalog(doughs []DoughRecipe, fillings []FillingRecipe, ingredients []Ingredient, breads []BreadType) *Catalog {
	c := &Catalog{
		doughs:      newIndex[DoughRecipe](),
		fillings:    newIndex[FillingRecipe](),
		ingredients: newIndex[Ingredient](),
		breads:      make(map[string]*BreadType),
	}
	for i := range doughs {
		d := doughs[i]
		c.doughs.add(&d, d.ID, d.Name)
	}
	for i := range fillings {
		f := fillings[i]
		c.fillings.add(&f, f.ID, f.Name)
	}
	for i := range ingredients {
		ing := ingredients[i]
		c.ingredients.add(&ing, ing.ID, ing.Name)
	}
	for i := range breads {
		b := breads[i]
		if key := normalizeKey(b.ID); key != "" {
			c.breads[key] = &b
		} else if key := normalizeKey(b.Name); key != "" {
			c.breads[key] = &b
		}
	}
	return c
}

func (c *Catalog) Dough(id string) (*DoughRecipe, bool) {
	if c == nil {
		return nil, false
	}
	return c.doughs.get(id)
}

func (c *Catalog) Filling(id string) (*FillingRecipe, bool) {
	if c == nil {
		return nil, false
	}
	return c.fillings.get(id)
}

func (c *Catalog) Ingredient(id string) (*Ingredient, bool) {
	if c == nil {
		return nil, false
	}
	return c.ingredients.get(id)
}

func (c *Catalog) BreadType(id string) (*BreadType, bool) {
	if c == nil {
		return nil, false
	}
	key := normalizeKey(id)
	if key == "" {
		return nil, false
	}
	b, ok := c.breads[key]
	return b, ok
}

// BreadTypes 所有面包品类，按ID排序
func (c *Catalog) BreadTypes() []*BreadType {
	if c == nil {
		return nil
	}
	out := make([]*BreadType, 0, len(c.breads))
	for _, b := range c.breads {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (c *Catalog) doughList() []*DoughRecipe {
	out := append([]*DoughRecipe(nil), c.doughs.all...)
	sort.SliceStable(out, func(i, j int) bool { return recipeKey(out[i].ID, out[i].Name) < recipeKey(out[j].ID, out[j].Name) })
	return out
}

func (c *Catalog) fillingList() []*FillingRecipe {
	out := append([]*FillingRecipe(nil), c.fillings.all...)
	sort.SliceStable(out, func(i, j int) bool { return recipeKey(out[i].ID, out[i].Name) < recipeKey(out[j].ID, out[j].Name) })
	return out
}

// recipeKey 配方的规范标识：名称优先，其次ID
func recipeKey(id, name string) string {
	if key := normalizeKey(name); key != "" {
		return key
	}
	return normalizeKey(id)
}
