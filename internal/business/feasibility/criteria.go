package feasibility

import (
	"fmt"
	"math"
	"strings"

	"urbaplan/internal/business/summarizer"
	"urbaplan/internal/model"
)

// 比较方式
const (
	ComparatorMax   = "<="
	ComparatorMin   = ">="
	ComparatorOneOf = "in"
)

const compareEpsilon = 1e-9

type criterionSpec struct {
	field      model.Field
	comparator string
}

// standardCriteria 报告中固定列出的字段及其比较方式
var standardCriteria = []criterionSpec{
	{model.FieldHeightMax, ComparatorMax},
	{model.FieldLevelsMax, ComparatorMax},
	{model.FieldLandUseIndex, ComparatorMax},
	{model.FieldGrossFloor, ComparatorMax},
	{model.FieldFootprint, ComparatorMax},
	{model.FieldSetbackMin, ComparatorMin},
	{model.FieldGreenRatioMin, ComparatorMin},
	{model.FieldParkingRatio, ComparatorMin},
	{model.FieldRoofType, ComparatorOneOf},
}

// StandardFields 参与合规检查的字段
func StandardFields() []model.Field {
	out := make([]model.Field, 0, len(standardCriteria))
	for _, c := range standardCriteria {
		out = append(out, c.field)
	}
	return out
}

func isStandardField(field model.Field) bool {
	for _, c := range standardCriteria {
		if c.field == field {
			return true
		}
	}
	return false
}

// buildCriterion 单字段合规判断
func buildCriterion(spec criterionSpec, rule *model.ConsolidatedRule, project *model.ProjectValue, label string) model.FeasibilityCriterion {
	c := model.FeasibilityCriterion{
		Field:      spec.field,
		Label:      label,
		Comparator: spec.comparator,
	}
	if project != nil && !project.IsZero() {
		p := *project
		c.ProjectValue = &p
	}

	if rule == nil || rule.Value == nil {
		c.Status = model.StatusNotRegulated
		return c
	}

	c.RequiredValue = rule.Value
	c.Level = rule.Level.String()
	c.Requirement = requirementText(spec.comparator, rule.Value)
	if len(rule.Overridden) > 0 {
		o := rule.Overridden[0]
		c.Comment = fmt.Sprintf("overrides %s (%s)", o.Level, o.Value)
	}

	if c.ProjectValue == nil {
		c.Status = model.StatusNotEvaluated
		return c
	}

	if spec.comparator == ComparatorOneOf {
		c.Status = oneOfStatus(rule.Value, *c.ProjectValue)
		return c
	}

	required, ok := model.AsNumber(rule.Value)
	if !ok {
		c.Status = model.StatusNotEvaluated
		c.Comment = appendComment(c.Comment, "requirement is not numeric")
		return c
	}
	if c.ProjectValue.Number == nil {
		c.Status = model.StatusNotEvaluated
		c.Comment = appendComment(c.Comment, "project value is not numeric")
		return c
	}

	actual := *c.ProjectValue.Number
	compliant := actual <= required+compareEpsilon
	if spec.comparator == ComparatorMin {
		compliant = actual >= required-compareEpsilon
	}
	if compliant {
		c.Status = model.StatusCompliant
	} else {
		c.Status = model.StatusNonCompliant
		c.Comment = appendComment(c.Comment, fmt.Sprintf("deviation %s", formatNumber(math.Abs(actual-required))))
	}
	return c
}

func oneOfStatus(required model.Value, project model.ProjectValue) model.CriterionStatus {
	want := summarizer.Normalize(project.String())
	for _, allowed := range model.AsStrings(required) {
		if summarizer.Normalize(allowed) == want {
			return model.StatusCompliant
		}
	}
	return model.StatusNonCompliant
}

func requirementText(comparator string, v model.Value) string {
	switch comparator {
	case ComparatorMax:
		return "≤ " + v.String()
	case ComparatorMin:
		return "≥ " + v.String()
	default:
		return strings.Join(model.AsStrings(v), " / ")
	}
}

func appendComment(existing, note string) string {
	if existing == "" {
		return note
	}
	return existing + "; " + note
}

func formatNumber(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}

// summarize 统计合规情况；无可评估项时得分为 nil
func summarize(criteria []model.FeasibilityCriterion) model.FeasibilitySummary {
	var s model.FeasibilitySummary
	for _, c := range criteria {
		switch c.Status {
		case model.StatusCompliant:
			s.Compliant++
		case model.StatusNonCompliant:
			s.NonCompliant++
		case model.StatusNotEvaluated:
			s.NotEvaluated++
		case model.StatusNotRegulated:
			s.NotRegulated++
		}
	}

	if evaluated := s.Compliant + s.NonCompliant; evaluated > 0 {
		score := math.Round(float64(s.Compliant)/float64(evaluated)*10000) / 10000
		s.ConformityScore = &score
	}
	s.Issues = s.NonCompliant
	return s
}
