package contextlayer

import (
	"fmt"
	"strconv"
	"strings"

	"urbaplan/internal/model"
)

type layerKind int

const (
	kindPolygon  layerKind = iota // 每个相交要素一个标记
	kindDistance                  // 按最近距离分级
)

type layerSpec struct {
	layer  model.Layer
	kind   layerKind
	radius float64
	flag   func(Feature) model.ContextFlag
}

// catalog 固定图层目录，顺序即扫描与输出顺序
var catalog = []layerSpec{
	{layer: model.LayerNoise, kind: kindPolygon, flag: noiseFlag},
	{layer: model.LayerSlope, kind: kindPolygon, flag: slopeFlag},
	{layer: model.LayerNaturalHazards, kind: kindPolygon, flag: hazardFlag},
	{layer: model.LayerCantonalRoads, kind: kindDistance, radius: RoadSearchRadius, flag: roadFlag},
	{layer: model.LayerAirportZones, kind: kindPolygon, flag: airportFlag},
	{layer: model.LayerWaterProtection, kind: kindPolygon, flag: waterFlag},
	{layer: model.LayerHeritage, kind: kindPolygon, flag: heritageFlag},
}

func featureText(f Feature) string {
	if strings.TrimSpace(f.ValueText) != "" {
		return strings.TrimSpace(f.ValueText)
	}
	return strings.TrimSpace(f.Label)
}

func noiseFlag(f Feature) model.ContextFlag {
	text := featureText(f)
	if degree, ok := NoiseDegree(text); ok {
		text = "DS " + romanNumerals[degree]
	}
	return model.ContextFlag{
		ValueText: text,
		Severity:  NoiseSeverity(text),
		Message:   "Degré de sensibilité au bruit " + text,
	}
}

var romanNumerals = map[int]string{1: "I", 2: "II", 3: "III", 4: "IV"}

func slopeFlag(f Feature) model.ContextFlag {
	flag := model.ContextFlag{Severity: model.SeverityInfo, Message: "Pente"}
	pct, ok := featureNumber(f)
	if !ok {
		flag.ValueText = featureText(f)
		flag.Message = "Pente " + flag.ValueText
		return flag
	}
	flag.ValueNum = &pct
	flag.Severity = SlopeSeverity(pct)
	flag.Message = fmt.Sprintf("Pente de %s %%", strconv.FormatFloat(pct, 'f', -1, 64))
	return flag
}

func hazardFlag(f Feature) model.ContextFlag {
	degree := featureText(f)
	msg := "Danger naturel " + degree
	if kind, ok := f.Metadata["hazard_type"].(string); ok && kind != "" {
		msg = fmt.Sprintf("Danger naturel (%s) %s", kind, degree)
	}
	return model.ContextFlag{
		ValueText: degree,
		Severity:  HazardSeverity(degree),
		Message:   msg,
	}
}

func roadFlag(f Feature) model.ContextFlag {
	name := featureText(f)
	msg := "Route cantonale"
	if name != "" {
		msg += " " + name
	}
	return model.ContextFlag{ValueText: name, Message: msg}
}

func airportFlag(f Feature) model.ContextFlag {
	name := featureText(f)
	return model.ContextFlag{
		ValueText: name,
		Severity:  fixedLayerSeverity,
		Message:   "Zone de restriction aéroportuaire " + name,
	}
}

func waterFlag(f Feature) model.ContextFlag {
	zone := WaterZone(featureText(f))
	if len(zone) == 2 && zone[0] != 'S' {
		zone = zone[:1] + strings.ToLower(zone[1:])
	}
	return model.ContextFlag{
		ValueText: zone,
		Severity:  WaterSeverity(zone),
		Message:   "Zone de protection des eaux " + zone,
	}
}

func heritageFlag(f Feature) model.ContextFlag {
	name := featureText(f)
	return model.ContextFlag{
		ValueText: name,
		Severity:  fixedLayerSeverity,
		Message:   "Périmètre patrimonial " + name,
	}
}

// featureNumber 数值优先取 ValueNum，其次解析 ValueText（"35 %"）
func featureNumber(f Feature) (float64, bool) {
	if f.ValueNum != nil {
		return *f.ValueNum, true
	}
	v, err := model.ParseValue(f.ValueText)
	if err != nil {
		return 0, false
	}
	return model.AsNumber(v)
}
