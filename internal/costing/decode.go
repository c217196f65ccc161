package costing

import "encoding/json"

// 配方数据来自人工录入和旧系统导出，数量、出品量、售价可能是字符串或 null，
// 统一经 Amount 解析，解析不了的按0处理，不让单条记录拖垮整个目录。

func (r *RecipeIngredient) UnmarshalJSON(data []byte) error {
	type plain RecipeIngredient
	aux := struct {
		*plain
		Quantity Amount `json:"quantity"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.Quantity = aux.Quantity.Float64()
	return nil
}

func (r *SubRecipeRef) UnmarshalJSON(data []byte) error {
	type plain SubRecipeRef
	aux := struct {
		*plain
		Quantity Amount `json:"quantity"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.Quantity = aux.Quantity.Float64()
	return nil
}

func (u *FillingUsage) UnmarshalJSON(data []byte) error {
	type plain FillingUsage
	aux := struct {
		*plain
		Quantity Amount `json:"quantity"`
	}{plain: (*plain)(u)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	u.Quantity = aux.Quantity.Float64()
	return nil
}

func (d *DoughRecipe) UnmarshalJSON(data []byte) error {
	type plain DoughRecipe
	aux := struct {
		*plain
		Yield Amount `json:"yield"`
	}{plain: (*plain)(d)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	d.Yield = aux.Yield.Float64()
	return nil
}

func (f *FillingRecipe) UnmarshalJSON(data []byte) error {
	type plain FillingRecipe
	aux := struct {
		*plain
		Yield Amount `json:"yield"`
	}{plain: (*plain)(f)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	f.Yield = aux.Yield.Float64()
	return nil
}

func (b *BreadType) UnmarshalJSON(data []byte) error {
	type plain BreadType
	aux := struct {
		*plain
		Price       Amount `json:"price"`
		DoughWeight Amount `json:"doughWeight"`
	}{plain: (*plain)(b)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	b.Price = aux.Price.Float64()
	b.DoughWeight = aux.DoughWeight.Float64()
	return nil
}
