package ml

import (
	"encoding/json"
	"fmt"
	"os"
)

// LabelEncoders 字段名 -> 类别列表，顺序即编码值
type LabelEncoders map[string][]string

func LoadEncoders(path string) (LabelEncoders, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read encoders %s: %w", path, err)
	}
	var enc LabelEncoders
	if err := json.Unmarshal(data, &enc); err != nil {
		return nil, fmt.Errorf("parse encoders %s: %w", path, err)
	}
	return enc, nil
}

// Encode 未知字段或未知取值返回 false
func (e LabelEncoders) Encode(field, value string) (int, bool) {
	classes, ok := e[field]
	if !ok {
		return 0, false
	}
	for i, c := range classes {
		if c == value {
			return i, true
		}
	}
	return 0, false
}
