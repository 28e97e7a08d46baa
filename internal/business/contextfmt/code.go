package contextfmt

import (
	"strings"

	"urbaplan/internal/business/contextlayer"
	"urbaplan/internal/business/summarizer"
	"urbaplan/internal/model"
)

var roman = map[int]string{1: "I", 2: "II", 3: "III", 4: "IV"}

// ConstraintCode 由 (图层, 值) 确定性地推导约束编码
//
//	slope 35        → slope_30_45
//	opb_noise DS III → opb_noise_DS_III
//	roads 20 m      → roads_0_25m
func ConstraintCode(flag model.ContextFlag) string {
	switch flag.Layer {
	case model.LayerSlope:
		if flag.ValueNum == nil {
			return "slope"
		}
		switch pct := *flag.ValueNum; {
		case pct < 30:
			return "slope_0_30"
		case pct <= 45:
			return "slope_30_45"
		default:
			return "slope_45_plus"
		}

	case model.LayerNoise:
		if degree, ok := contextlayer.NoiseDegree(flag.ValueText); ok {
			return "opb_noise_DS_" + roman[degree]
		}
		return "opb_noise"

	case model.LayerNaturalHazards:
		return withSlug("natural_hazard", flag.ValueText)

	case model.LayerCantonalRoads:
		if flag.Distance == nil {
			return "roads"
		}
		switch d := *flag.Distance; {
		case d < contextlayer.RoadNearDistance:
			return "roads_0_25m"
		case d <= contextlayer.RoadSearchRadius:
			return "roads_25_100m"
		default:
			return "roads_100m_plus"
		}

	case model.LayerAirportZones:
		return withSlug("airport", flag.ValueText)

	case model.LayerWaterProtection:
		zone := strings.ReplaceAll(strings.TrimSpace(flag.ValueText), " ", "")
		if zone == "" {
			return "water_protection"
		}
		return "water_protection_" + zone

	case model.LayerHeritage:
		return withSlug("heritage", flag.ValueText)
	}

	return withSlug(string(flag.Layer), flag.ValueText)
}

func withSlug(prefix, value string) string {
	slug := summarizer.Slug(value)
	if slug == "" {
		return prefix
	}
	return prefix + "_" + slug
}
