package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// ValueKind 规则取值类型
type ValueKind string

// 取值类型常量
const (
	ValueKindNumeric    ValueKind = "numeric"
	ValueKindText       ValueKind = "text"
	ValueKindList       ValueKind = "list"
	ValueKindStructured ValueKind = "structured"
)

// ErrEmptyValue 空取值
var ErrEmptyValue = errors.New("rule value is empty")

// Value 规则取值（封闭的和类型）
// 实现只有 NumericValue / TextValue / ListValue / StructuredValue，调用方用 type switch 穷举
type Value interface {
	Kind() ValueKind
	String() string
	isValue()
}

// NumericValue 数值取值
type NumericValue struct {
	Number float64
	Unit   string
}

// TextValue 文本取值
type TextValue struct {
	Text string
}

// ListValue 列表取值
type ListValue struct {
	Items []Value
}

// StructuredValue 结构化取值
type StructuredValue struct {
	Fields map[string]Value
}

func (NumericValue) isValue()    {}
func (TextValue) isValue()       {}
func (ListValue) isValue()       {}
func (StructuredValue) isValue() {}

func (NumericValue) Kind() ValueKind    { return ValueKindNumeric }
func (TextValue) Kind() ValueKind       { return ValueKindText }
func (ListValue) Kind() ValueKind       { return ValueKindList }
func (StructuredValue) Kind() ValueKind { return ValueKindStructured }

func (v NumericValue) String() string {
	s := strconv.FormatFloat(v.Number, 'f', -1, 64)
	if v.Unit != "" {
		return s + " " + v.Unit
	}
	return s
}

func (v TextValue) String() string {
	return v.Text
}

func (v ListValue) String() string {
	parts := make([]string, 0, len(v.Items))
	for _, item := range v.Items {
		parts = append(parts, item.String())
	}
	return strings.Join(parts, ", ")
}

func (v StructuredValue) String() string {
	keys := v.sortedKeys()
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+v.Fields[k].String())
	}
	return strings.Join(parts, ", ")
}

func (v StructuredValue) sortedKeys() []string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MarshalJSON 无单位时输出纯数字，有单位时输出 {"value":..,"unit":..}
func (v NumericValue) MarshalJSON() ([]byte, error) {
	if v.Unit == "" {
		return json.Marshal(v.Number)
	}
	return json.Marshal(map[string]interface{}{"value": v.Number, "unit": v.Unit})
}

func (v TextValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Text)
}

func (v ListValue) MarshalJSON() ([]byte, error) {
	if v.Items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(v.Items)
}

func (v StructuredValue) MarshalJSON() ([]byte, error) {
	if v.Fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(v.Fields)
}

// numberWithUnit 匹配 "12", "0,5", "12 m", "30%"
var numberWithUnit = regexp.MustCompile(`^([-+]?\d+(?:[.,]\d+)?)\s*([\p{L}%²³/]*)$`)

// ParseValue 将解码后的 JSON/YAML 值转换为 Value
func ParseValue(raw interface{}) (Value, error) {
	switch v := raw.(type) {
	case nil:
		return nil, ErrEmptyValue
	case Value:
		return v, nil
	case string:
		return parseText(v)
	case bool:
		return TextValue{Text: strconv.FormatBool(v)}, nil
	case []interface{}:
		items := make([]Value, 0, len(v))
		for i, item := range v {
			parsed, err := ParseValue(item)
			if err != nil {
				return nil, fmt.Errorf("list item %d: %w", i, err)
			}
			items = append(items, parsed)
		}
		return ListValue{Items: items}, nil
	case map[string]interface{}:
		return parseObject(v)
	case map[interface{}]interface{}:
		converted := make(map[string]interface{}, len(v))
		for k, item := range v {
			converted[cast.ToString(k)] = item
		}
		return parseObject(converted)
	}

	number, err := cast.ToFloat64E(raw)
	if err != nil {
		return nil, fmt.Errorf("unsupported rule value type %T", raw)
	}
	return NumericValue{Number: number}, nil
}

// ParseValueJSON 从 JSON 字节解析取值
func ParseValueJSON(data []byte) (Value, error) {
	if len(data) == 0 {
		return nil, ErrEmptyValue
	}
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal rule value: %w", err)
	}
	return ParseValue(raw)
}

func parseText(s string) (Value, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, ErrEmptyValue
	}

	if m := numberWithUnit.FindStringSubmatch(trimmed); m != nil {
		number, err := cast.ToFloat64E(strings.Replace(m[1], ",", ".", 1))
		if err == nil {
			return NumericValue{Number: number, Unit: m[2]}, nil
		}
	}

	return TextValue{Text: trimmed}, nil
}

func parseObject(obj map[string]interface{}) (Value, error) {
	if rawNumber, ok := obj["value"]; ok && len(obj) <= 2 {
		_, hasUnit := obj["unit"]
		if len(obj) == 1 || hasUnit {
			if number, err := cast.ToFloat64E(rawNumber); err == nil {
				return NumericValue{Number: number, Unit: cast.ToString(obj["unit"])}, nil
			}
		}
	}

	fields := make(map[string]Value, len(obj))
	for k, item := range obj {
		parsed, err := ParseValue(item)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		fields[k] = parsed
	}
	return StructuredValue{Fields: fields}, nil
}

// AsNumber 取数值：NumericValue 直接返回；TextValue 尝试解析；其余类型不视为数值
func AsNumber(v Value) (float64, bool) {
	switch val := v.(type) {
	case NumericValue:
		return val.Number, true
	case TextValue:
		parsed, err := parseText(val.Text)
		if err != nil {
			return 0, false
		}
		if n, ok := parsed.(NumericValue); ok {
			return n.Number, true
		}
		return 0, false
	case ListValue, StructuredValue:
		return 0, false
	default:
		return 0, false
	}
}

// AsStrings 取文本集合（用于屋顶类型等枚举字段）
func AsStrings(v Value) []string {
	switch val := v.(type) {
	case TextValue:
		return []string{val.Text}
	case NumericValue:
		return []string{val.String()}
	case ListValue:
		out := make([]string, 0, len(val.Items))
		for _, item := range val.Items {
			out = append(out, AsStrings(item)...)
		}
		return out
	case StructuredValue:
		out := make([]string, 0, len(val.Fields))
		for _, k := range val.sortedKeys() {
			out = append(out, AsStrings(val.Fields[k])...)
		}
		return out
	default:
		return nil
	}
}
