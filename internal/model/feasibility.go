package model

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// CriterionStatus 单项合规状态
type CriterionStatus string

// 合规状态常量
const (
	StatusCompliant    CriterionStatus = "compliant"
	StatusNonCompliant CriterionStatus = "non_compliant"
	StatusNotEvaluated CriterionStatus = "not_evaluated" // 无项目值
	StatusNotRegulated CriterionStatus = "not_regulated" // 无生效规定
)

// ZoneStatus 分区确定状态
type ZoneStatus string

// 分区状态常量
const (
	ZoneStatusResolved     ZoneStatus = "resolved"
	ZoneStatusUndetermined ZoneStatus = "undetermined"
)

// ProjectValue 项目申报值（数值或文本）
type ProjectValue struct {
	Number *float64 `json:"number,omitempty"`
	Text   string   `json:"text,omitempty"`
}

// NumberProject 构造数值型项目值
func NumberProject(n float64) ProjectValue {
	return ProjectValue{Number: &n}
}

// TextProject 构造文本型项目值
func TextProject(s string) ProjectValue {
	return ProjectValue{Text: s}
}

// IsZero 是否为空
func (p ProjectValue) IsZero() bool {
	return p.Number == nil && strings.TrimSpace(p.Text) == ""
}

// String 展示文本
func (p ProjectValue) String() string {
	if p.Number != nil {
		return strconv.FormatFloat(*p.Number, 'f', -1, 64)
	}
	return p.Text
}

// MarshalJSON 数值输出数字，文本输出字符串
func (p ProjectValue) MarshalJSON() ([]byte, error) {
	if p.Number != nil {
		return json.Marshal(*p.Number)
	}
	if p.Text == "" {
		return []byte("null"), nil
	}
	return json.Marshal(p.Text)
}

// UnmarshalJSON 接受数字、数字字符串或文本
func (p *ProjectValue) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = ParseProjectValue(raw)
	return nil
}

// ParseProjectValue 从任意解码值构造项目值
func ParseProjectValue(raw interface{}) ProjectValue {
	switch v := raw.(type) {
	case nil:
		return ProjectValue{}
	case string:
		trimmed := strings.TrimSpace(v)
		if n, err := cast.ToFloat64E(strings.Replace(trimmed, ",", ".", 1)); err == nil && trimmed != "" {
			return NumberProject(n)
		}
		return TextProject(trimmed)
	}
	if n, err := cast.ToFloat64E(raw); err == nil {
		return NumberProject(n)
	}
	return TextProject(cast.ToString(raw))
}

// FeasibilityCriterion 单项规定 vs 项目值
type FeasibilityCriterion struct {
	Field         Field           `json:"field"`
	Label         string          `json:"label"`
	Requirement   string          `json:"requirement"`
	Comparator    string          `json:"comparator"`
	RequiredValue Value           `json:"required_value,omitempty"`
	ProjectValue  *ProjectValue   `json:"project_value,omitempty"`
	Status        CriterionStatus `json:"status"`
	Level         string          `json:"level,omitempty"`
	Comment       string          `json:"comment,omitempty"`
}

// FeasibilitySummary 汇总
type FeasibilitySummary struct {
	ConformityScore *float64 `json:"conformity_score"`
	Compliant       int      `json:"compliant"`
	NonCompliant    int      `json:"non_compliant"`
	NotEvaluated    int      `json:"not_evaluated"`
	NotRegulated    int      `json:"not_regulated"`
	Issues          int      `json:"issues"`
	Warnings        int      `json:"warnings"`
}

// OverrideNote 覆盖审计记录
type OverrideNote struct {
	Field        Field             `json:"field"`
	WinningLevel Level             `json:"winning_level"`
	WinningValue Value             `json:"winning_value"`
	Overridden   []OverriddenValue `json:"overridden"`
}

// FeasibilityResult 地块可行性报告
type FeasibilityResult struct {
	ZoneID         string                 `json:"zone_id"`
	ZoneStatus     ZoneStatus             `json:"zone_status"`
	ParcelID       string                 `json:"parcel_id,omitempty"`
	Lang           string                 `json:"lang"`
	Criteria       []FeasibilityCriterion `json:"criteria"`
	Summary        FeasibilitySummary     `json:"summary"`
	Overrides      []OverrideNote         `json:"overrides"`
	Calculations   *CalcOutput            `json:"calculations,omitempty"`
	ContextNotes   []string               `json:"context_notes,omitempty"`
	ContextDetails []DetailedMessage      `json:"context_details,omitempty"`
	Warnings       []string               `json:"warnings,omitempty"`
	GeneratedAt    time.Time              `json:"generated_at"`
}
