package model

import "time"

// ScopeWildcard 适用于所有分区的通配范围
const ScopeWildcard = "*"

// RuleRecord 单条规划规定（由外部抽取流程生成，加载后不可变）
type RuleRecord struct {
	ID            string    `json:"id"`
	Field         Field     `json:"field"`
	Value         Value     `json:"value"`
	Level         Level     `json:"level"`
	ZoneScope     []string  `json:"zone_scope"`
	Description   string    `json:"description,omitempty"`
	Source        string    `json:"source,omitempty"`
	EffectiveDate time.Time `json:"effective_date"`
}

// ConsolidatedRule 某字段合并后的生效规定
type ConsolidatedRule struct {
	Field       Field             `json:"field"`
	Value       Value             `json:"value"`
	Level       Level             `json:"level"`
	RecordID    string            `json:"record_id,omitempty"`
	Description string            `json:"description,omitempty"`
	Source      string            `json:"source,omitempty"`
	Overridden  []OverriddenValue `json:"overridden"`
}

// OverriddenValue 被覆盖的候选值（审计用）
type OverriddenValue struct {
	RecordID    string `json:"record_id,omitempty"`
	Level       Level  `json:"level"`
	Value       Value  `json:"value"`
	Description string `json:"description,omitempty"`
}

// RuleSet 合并结果按字段索引
type RuleSet map[Field]ConsolidatedRule

// NewRuleSet 由合并结果构建索引
func NewRuleSet(rules []ConsolidatedRule) RuleSet {
	set := make(RuleSet, len(rules))
	for _, rule := range rules {
		set[rule.Field] = rule
	}
	return set
}

// Number 取字段数值
func (s RuleSet) Number(field Field) (float64, bool) {
	rule, ok := s[field]
	if !ok || rule.Value == nil {
		return 0, false
	}
	return AsNumber(rule.Value)
}

// Zone 规划分区
type Zone struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	ZoneType string `json:"zone_type"`
	Commune  string `json:"commune,omitempty"`
	Canton   string `json:"canton,omitempty"`
}
