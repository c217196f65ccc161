package costing

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ToNonNegativeNumber 数值归一化：NaN、Inf、负数一律视为0
func ToNonNegativeNumber(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) || x < 0 {
		return 0
	}
	return x
}

var priceJunk = regexp.MustCompile(`[^0-9.\-]`)

// ParsePrice 解析可能带货币符号的价格字符串，例如 "¥12.50"、"12,5元"
// 去掉数字、小数点、负号以外的字符后解析，失败返回0
func ParsePrice(raw string) float64 {
	cleaned := priceJunk.ReplaceAllString(strings.TrimSpace(raw), "")
	if cleaned == "" {
		return 0
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Amount 兼容数字和字符串两种JSON形态的金额
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		if math.IsNaN(n) || math.IsInf(n, 0) {
			n = 0
		}
		*a = Amount(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = Amount(ParsePrice(s))
		return nil
	}
	// null 或其他形态按0处理
	*a = 0
	return nil
}

func (a Amount) Float64() float64 {
	return float64(a)
}

// gramFactors 配方单位 → 克
var gramFactors = map[string]float64{
	"":   1,
	"g":  1,
	"克":  1,
	"ml": 1,
	"毫升": 1,
	"kg": 1000,
	"千克": 1000,
	"公斤": 1000,
	"l":  1000,
	"升":  1000,
	"斤":  500,
	"两":  50,
}

// ToGrams 把配方用量换算成克，未知单位按克处理
func ToGrams(qty float64, unit string) float64 {
	qty = ToNonNegativeNumber(qty)
	if f, ok := gramFactors[strings.ToLower(strings.TrimSpace(unit))]; ok {
		return qty * f
	}
	return qty
}
