package contextlayer

import (
	"strings"

	"urbaplan/internal/business/summarizer"
	"urbaplan/internal/model"
)

// 距离类图层分级阈值（米）
const (
	RoadNearDistance   = 25.0
	RoadSearchRadius   = 100.0
	fixedLayerSeverity = model.SeverityWarning // 机场、文物图层固定等级
)

// SlopeSeverity 坡度（%）分级：<30 → 1，30–45 → 2，>45 → 3
func SlopeSeverity(percent float64) int {
	switch {
	case percent > 45:
		return model.SeverityCritical
	case percent >= 30:
		return model.SeverityWarning
	default:
		return model.SeverityInfo
	}
}

// HazardSeverity 自然灾害等级：faible/résiduel → 1，moyen → 2，fort/très fort → 3
func HazardSeverity(degree string) int {
	d := summarizer.Normalize(degree)
	switch {
	case strings.Contains(d, "fort"), strings.Contains(d, "erheblich"), strings.Contains(d, "elevato"), strings.Contains(d, "high"):
		return model.SeverityCritical
	case strings.Contains(d, "moyen"), strings.Contains(d, "mittel"), strings.Contains(d, "medio"), strings.Contains(d, "medium"):
		return model.SeverityWarning
	default:
		return model.SeverityInfo
	}
}

// NoiseDegree 解析噪声敏感度等级（"DS III"、"ES 3"、"III"），返回 1–4
func NoiseDegree(text string) (int, bool) {
	for _, token := range strings.Fields(strings.ToUpper(text)) {
		switch strings.Trim(token, ".,;:()") {
		case "I", "1":
			return 1, true
		case "II", "2":
			return 2, true
		case "III", "3":
			return 3, true
		case "IV", "4":
			return 4, true
		}
	}
	return 0, false
}

// NoiseSeverity 噪声分级：DS I/II → 1，DS III → 2，DS IV → 3
func NoiseSeverity(text string) int {
	degree, ok := NoiseDegree(text)
	if !ok {
		return model.SeverityInfo
	}
	switch degree {
	case 4:
		return model.SeverityCritical
	case 3:
		return model.SeverityWarning
	default:
		return model.SeverityInfo
	}
}

// WaterZone 规范化水源保护区编码（S1/S2/S3/Au/Ao...）
func WaterZone(text string) string {
	t := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(text), " ", ""))
	for _, code := range []string{"S1", "S2", "S3", "SH", "SM", "AU", "AO", "ZU", "ZO"} {
		if strings.Contains(t, code) {
			return code
		}
	}
	return t
}

// WaterSeverity 水源保护分级：S1/S2 → 3，S3 → 2，Au/Ao 等 → 1
func WaterSeverity(text string) int {
	switch WaterZone(text) {
	case "S1", "S2":
		return model.SeverityCritical
	case "S3", "SH", "SM":
		return model.SeverityWarning
	default:
		return model.SeverityInfo
	}
}

// RoadSeverity 道路距离分级：<25 m → 2，25–100 m → 1，>100 m 不标记
func RoadSeverity(distance float64) (int, bool) {
	switch {
	case distance < RoadNearDistance:
		return model.SeverityWarning, true
	case distance <= RoadSearchRadius:
		return model.SeverityInfo, true
	default:
		return 0, false
	}
}
