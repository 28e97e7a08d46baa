// Package rules 多层级规划规定合并
package rules

import (
	"sort"
	"strings"

	"urbaplan/internal/model"
)

// 分区范围匹配精确度
const (
	scopeNoMatch  = -1
	scopeWildcard = 0
	scopePrefix   = 1
	scopeExact    = 2
)

// ScopeSpecificity 计算记录适用范围对分区的匹配精确度
// 精确编码 2，前缀模式（以 * 结尾）1，单独的 * 或空范围 0，不匹配 -1
func ScopeSpecificity(scope []string, zoneID string) int {
	if len(scope) == 0 {
		return scopeWildcard
	}

	zone := strings.ToUpper(strings.TrimSpace(zoneID))
	best := scopeNoMatch
	for _, raw := range scope {
		pattern := strings.ToUpper(strings.TrimSpace(raw))
		switch {
		case pattern == model.ScopeWildcard:
			best = maxInt(best, scopeWildcard)
		case strings.HasSuffix(pattern, model.ScopeWildcard):
			if strings.HasPrefix(zone, strings.TrimSuffix(pattern, model.ScopeWildcard)) {
				best = maxInt(best, scopePrefix)
			}
		case pattern == zone:
			best = scopeExact
		}
	}
	return best
}

type candidate struct {
	record      model.RuleRecord
	specificity int
}

// less 排序：层级高 → 范围精确 → 生效日期新 → 记录 ID 小
func (c candidate) less(o candidate) bool {
	if c.record.Level != o.record.Level {
		return c.record.Level > o.record.Level
	}
	if c.specificity != o.specificity {
		return c.specificity > o.specificity
	}
	if !c.record.EffectiveDate.Equal(o.record.EffectiveDate) {
		return c.record.EffectiveDate.After(o.record.EffectiveDate)
	}
	return c.record.ID < o.record.ID
}

// Consolidate 将记录按字段合并为生效规定
// 范围不匹配或取值为空的记录被忽略；输出按字段名排序，Overridden 保持排名顺序
func Consolidate(zoneID string, records []model.RuleRecord) []model.ConsolidatedRule {
	groups := make(map[model.Field][]candidate)
	for _, rec := range records {
		if rec.Value == nil || rec.Field == "" {
			continue
		}
		spec := ScopeSpecificity(rec.ZoneScope, zoneID)
		if spec == scopeNoMatch {
			continue
		}
		groups[rec.Field] = append(groups[rec.Field], candidate{record: rec, specificity: spec})
	}

	fields := make([]model.Field, 0, len(groups))
	for field := range groups {
		fields = append(fields, field)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i] < fields[j] })

	out := make([]model.ConsolidatedRule, 0, len(fields))
	for _, field := range fields {
		group := groups[field]
		sort.SliceStable(group, func(i, j int) bool { return group[i].less(group[j]) })

		winner := group[0].record
		rule := model.ConsolidatedRule{
			Field:       field,
			Value:       winner.Value,
			Level:       winner.Level,
			RecordID:    winner.ID,
			Description: winner.Description,
			Source:      winner.Source,
			Overridden:  make([]model.OverriddenValue, 0, len(group)-1),
		}
		for _, loser := range group[1:] {
			rule.Overridden = append(rule.Overridden, model.OverriddenValue{
				RecordID:    loser.record.ID,
				Level:       loser.record.Level,
				Value:       loser.record.Value,
				Description: loser.record.Description,
			})
		}
		out = append(out, rule)
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
