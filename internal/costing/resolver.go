package costing

// NodeKind 引用节点类型
type NodeKind string

const (
	KindDough      NodeKind = "dough"
	KindFilling    NodeKind = "filling"
	KindIngredient NodeKind = "ingredient"
	KindBreadType  NodeKind = "bread_type"
)

// Ancestry 递归调用链上已经访问过的配方，不可变链表，零值即空链
type Ancestry struct {
	parent *Ancestry
	key    string
}

func ancestryKey(kind NodeKind, key string) string {
	return string(kind) + ":" + key
}

// Contains 判断配方是否已在祖先链上
func (a *Ancestry) Contains(kind NodeKind, key string) bool {
	target := ancestryKey(kind, key)
	for n := a; n != nil; n = n.parent {
		if n.key == target {
			return true
		}
	}
	return false
}

// Push 返回追加了一个配方的新链，原链不变
func (a *Ancestry) Push(kind NodeKind, key string) *Ancestry {
	return &Ancestry{parent: a, key: ancestryKey(kind, key)}
}

// Path 从根到当前节点的配方标识
func (a *Ancestry) Path() []string {
	var rev []string
	for n := a; n != nil; n = n.parent {
		if n.key != "" {
			rev = append(rev, n.key)
		}
	}
	out := make([]string, len(rev))
	for i, k := range rev {
		out[len(rev)-1-i] = k
	}
	return out
}

// Resolved 引用解析结果
type Resolved struct {
	Kind               NodeKind
	Ref                string
	NotFound           bool
	Cyclic             bool
	IsDirectIngredient bool

	Dough      *DoughRecipe
	Filling    *FillingRecipe
	Ingredient *Ingredient
}

// Key 解析到的配方/原料的规范标识
func (r Resolved) Key() string {
	switch {
	case r.Dough != nil:
		return recipeKey(r.Dough.ID, r.Dough.Name)
	case r.Filling != nil:
		return recipeKey(r.Filling.ID, r.Filling.Name)
	case r.Ingredient != nil:
		return recipeKey(r.Ingredient.ID, r.Ingredient.Name)
	}
	return r.Ref
}

// Resolve 解析一个引用。
// 馅料引用先查馅料配方，查不到再查原料并标记 IsDirectIngredient；
// 同名同时存在时保留馅料配方优先。解析到的配方若已在 chain 上则标记 Cyclic。
func (c *Catalog) Resolve(kind NodeKind, id string, chain *Ancestry) Resolved {
	ref := normalizeKey(id)
	res := Resolved{Kind: kind, Ref: ref}
	if ref == "" {
		res.NotFound = true
		return res
	}

	switch kind {
	case KindDough:
		d, ok := c.Dough(ref)
		if !ok {
			res.NotFound = true
			return res
		}
		res.Dough = d
	case KindFilling:
		if f, ok := c.Filling(ref); ok {
			res.Filling = f
			break
		}
		if ing, ok := c.Ingredient(ref); ok {
			res.Kind = KindIngredient
			res.Ingredient = ing
			res.IsDirectIngredient = true
			return res
		}
		res.NotFound = true
		return res
	case KindIngredient:
		ing, ok := c.Ingredient(ref)
		if !ok {
			res.NotFound = true
			return res
		}
		res.Ingredient = ing
		return res
	default:
		res.NotFound = true
		return res
	}

	if chain.Contains(kind, res.Key()) {
		res.Cyclic = true
	}
	return res
}
