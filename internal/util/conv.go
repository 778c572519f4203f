package util

import (
	"math"

	"github.com/spf13/cast"
)

// ToFloat 宽松转换为 float64，失败返回 false
func ToFloat(v interface{}) (float64, bool) {
	if v == nil {
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, false
	}
	return f, true
}

// FloatOr 读取 map 中的数值字段，缺失或不可转换时返回默认值
func FloatOr(m map[string]interface{}, key string, def float64) float64 {
	v, ok := m[key]
	if !ok {
		return def
	}
	f, ok := ToFloat(v)
	if !ok {
		return def
	}
	return f
}

// IntOr 与 FloatOr 相同，用于年级/学期这类整数字段
func IntOr(v interface{}, def int) int {
	if v == nil {
		return def
	}
	i, err := cast.ToIntE(v)
	if err != nil {
		return def
	}
	return i
}

func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
