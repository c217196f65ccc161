package costing

// Validate 一次性检查整个目录的结构问题：缺失引用、循环引用、出品量非正、
// 以及同时匹配馅料配方和原料的名称（计算时馅料配方优先）、与另一原料ID相同的原料名称。
func (c *Catalog) Validate() []Issue {
	if c == nil {
		return nil
	}
	issues := &issueLog{}
	w := &walker{catalog: c, issues: issues}

	for _, d := range c.doughList() {
		w.walk(doughNode(d), 0, nil, nil)
	}
	for _, f := range c.fillingList() {
		w.walk(fillingNode(f), 0, nil, nil)
		key := recipeKey(f.ID, f.Name)
		if _, ok := c.Ingredient(key); ok {
			issues.add(Issue{Kind: IssueAmbiguousReference, NodeKind: KindFilling, Ref: key})
		}
	}
	for _, name := range c.ingredients.shadowedNames() {
		issues.add(Issue{Kind: IssueAmbiguousReference, NodeKind: KindIngredient, Ref: name})
	}
	for _, b := range c.BreadTypes() {
		bd, _ := expandBread(c, b)
		issues.merge(bd.Issues)
	}

	out := issues.list()
	sortIssues(out)
	return out
}
