// Package buildcalc 由生效规定推导建筑指标（纯函数，无 I/O）
package buildcalc

import (
	"fmt"
	"math"
	"strings"

	"urbaplan/internal/model"
)

// 计算常量
const (
	// UsableToGrossFactor 使用面积 / 总建筑面积：ibus = iu ÷ 0.8，su = ibus × 0.8
	UsableToGrossFactor = 0.8
	// MaxPlausibleRatio 任一推导面积不超过 地块面积 × 5
	MaxPlausibleRatio = 5.0
	// coherenceTolerance iu 与 ibus 同时存在时允许的相对偏差
	coherenceTolerance = 0.25
)

// 各分区类型的假定层高（米）
var storyHeightByZoneType = map[string]float64{
	"habitation": 3.0,
	"mixte":      3.3,
	"centre":     3.5,
	"activites":  4.5,
}

type plausibleRange struct {
	min, max float64
}

// 字段合理取值范围，超出仅记录控制项，取值照常使用
var plausibleRanges = map[model.Field]plausibleRange{
	model.FieldLandUseIndex: {0, 3},
	model.FieldGrossFloor:   {0, 4},
	model.FieldFootprint:    {0, 1},
	model.FieldHeightMax:    {0, 60},
	model.FieldStoryHeight:  {2.4, 6},
}

// 可信度扣分
const (
	penaltyConversion   = 1
	penaltyMissingBase  = 2
	penaltyNoParcelArea = 2
)

// StoryHeightFor 分区类型的假定层高
func StoryHeightFor(zoneType string) (float64, bool) {
	h, ok := storyHeightByZoneType[normalizeZoneType(zoneType)]
	return h, ok
}

func normalizeZoneType(zoneType string) string {
	t := strings.ToLower(strings.TrimSpace(zoneType))
	return strings.NewReplacer("é", "e", "è", "e", "-", "_").Replace(t)
}

// calculation 单次计算状态
type calculation struct {
	in       model.CalcInput
	rules    model.RuleSet
	out      model.CalcOutput
	penalty  int
	areaOK   bool
	maxBound float64
}

// Compute 计算建筑指标
func Compute(in model.CalcInput) model.CalcOutput {
	c := &calculation{
		in:    in,
		rules: model.NewRuleSet(in.Rules),
		out: model.CalcOutput{
			Controls: []string{},
			Details:  map[string]interface{}{},
		},
	}

	// 1. 地块面积
	c.areaOK = in.ParcelAreaM2 > 0 && !math.IsNaN(in.ParcelAreaM2) && !math.IsInf(in.ParcelAreaM2, 0)
	if !c.areaOK {
		c.penalty += penaltyNoParcelArea
		c.control("parcel area is missing or not positive, areas not computed")
	}
	c.maxBound = in.ParcelAreaM2 * MaxPlausibleRatio
	c.out.Details["parcel_area_m2"] = in.ParcelAreaM2
	c.out.Details["max_plausible_area_m2"] = c.maxBound

	// 2. 合理范围检查
	c.checkRanges()

	// 3. 总建筑面积与使用面积
	c.computeFloorAreas()

	// 4. 占地面积
	c.computeFootprint()

	// 5. 层数估算
	c.estimateLevels()

	// 6. 可信度
	c.out.Reliability = reliabilityFor(c.penalty)
	c.out.Details["reliability_penalty"] = c.penalty
	return c.out
}

func (c *calculation) control(format string, args ...interface{}) {
	c.out.Controls = append(c.out.Controls, fmt.Sprintf(format, args...))
}

func (c *calculation) checkRanges() {
	for _, field := range []model.Field{
		model.FieldLandUseIndex, model.FieldGrossFloor, model.FieldFootprint,
		model.FieldHeightMax, model.FieldStoryHeight,
	} {
		v, ok := c.rules.Number(field)
		if !ok {
			continue
		}
		r := plausibleRanges[field]
		if v < r.min || v > r.max {
			c.control("%s=%g outside plausible range [%g, %g]", field, v, r.min, r.max)
		}
	}
}

func (c *calculation) computeFloorAreas() {
	iu, hasIU := c.rules.Number(model.FieldLandUseIndex)
	ibus, hasIBUS := c.rules.Number(model.FieldGrossFloor)

	if !hasIU && !hasIBUS {
		c.penalty += penaltyMissingBase
		c.control("neither %s nor %s is regulated, floor areas not computed", model.FieldLandUseIndex, model.FieldGrossFloor)
		return
	}

	if hasIU && hasIBUS {
		converted := iu / UsableToGrossFactor
		if ibus > 0 && math.Abs(converted-ibus)/ibus > coherenceTolerance {
			c.control("%s=%g and %s=%g are inconsistent (converted ibus %.2f)",
				model.FieldLandUseIndex, iu, model.FieldGrossFloor, ibus, converted)
		}
	}

	// 换算与面积无关：面积不可用时同样记录
	if !hasIBUS {
		c.penalty += penaltyConversion
		c.out.Details["conversion_applied"] = true
		c.out.Details["conversion_factor"] = UsableToGrossFactor
		c.control("ibus derived from %s via factor %g (conversion applied)", model.FieldLandUseIndex, UsableToGrossFactor)
	}

	if !c.areaOK {
		return
	}
	area := c.in.ParcelAreaM2

	var gross float64
	if hasIBUS {
		gross = ibus * area
	} else {
		gross = iu * area / UsableToGrossFactor
	}
	c.out.IbusM2 = c.bounded("ibus_m2", gross)

	var usable float64
	if hasIU {
		usable = iu * area
	} else {
		usable = gross * UsableToGrossFactor
		c.out.Details["su_derived_from_ibus"] = true
	}
	c.out.SuM2 = c.bounded("su_m2", usable)
}

func (c *calculation) computeFootprint() {
	ios, ok := c.rules.Number(model.FieldFootprint)
	if !ok {
		c.control("%s is not regulated, footprint not computed", model.FieldFootprint)
		return
	}
	if !c.areaOK {
		return
	}
	c.out.EmpriseM2 = c.bounded("emprise_m2", ios*c.in.ParcelAreaM2)
}

func (c *calculation) estimateLevels() {
	if regulated, ok := c.rules.Number(model.FieldLevelsMax); ok {
		c.out.Details["niveaux_max_regulated"] = regulated
	}

	height, ok := c.rules.Number(model.FieldHeightMax)
	if !ok {
		c.control("%s is not regulated, max levels not estimated", model.FieldHeightMax)
		return
	}

	story, source := c.storyHeight()
	if story <= 0 {
		c.control("no story height for zone type %q, max levels not estimated", c.in.ZoneType)
		return
	}
	c.out.Details["story_height_m"] = story
	c.out.Details["story_height_source"] = source

	levels := int(math.Floor(height/story + 1e-9))
	if levels < 0 {
		levels = 0
	}
	c.out.NiveauxMaxEst = &levels

	if regulated, ok := c.rules.Number(model.FieldLevelsMax); ok && float64(levels) > regulated {
		c.control("estimated levels %d exceed regulated %s=%g", levels, model.FieldLevelsMax, regulated)
	}
}

func (c *calculation) storyHeight() (float64, string) {
	if h, ok := c.rules.Number(model.FieldStoryHeight); ok && h > 0 {
		return h, "rule"
	}
	if h, ok := StoryHeightFor(c.in.ZoneType); ok {
		return h, "zone_type"
	}
	return 0, ""
}

// bounded 超出合理上限时截到上限并记录，不做静默截断
func (c *calculation) bounded(name string, v float64) *float64 {
	if v < 0 {
		c.control("%s is negative (%.1f m²)", name, v)
	}
	if v > c.maxBound {
		c.control("%s %.1f m² exceeds plausible bound %.1f m², capped", name, v, c.maxBound)
		c.out.Details["capped_"+name] = v
		v = c.maxBound
	}
	rounded := math.Min(math.Round(v*100)/100, c.maxBound)
	return &rounded
}

func reliabilityFor(penalty int) model.Reliability {
	switch {
	case penalty <= 0:
		return model.ReliabilityHigh
	case penalty == 1:
		return model.ReliabilityMedium
	default:
		return model.ReliabilityLow
	}
}
