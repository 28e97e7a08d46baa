// Package contextfmt 环境约束标记格式化（多语言短消息、明细与分类）
package contextfmt

import (
	"urbaplan/internal/model"
)

// LayerInfo 图层静态信息
type LayerInfo struct {
	Category        string // 法语类别名（字典缺失时的展示文本）
	CategoryCode    string // 字典 category 类型编码
	DefaultSeverity int    // 标记未给出严重程度时使用
	order           int
}

// 未登记图层的类别
var otherLayer = LayerInfo{Category: "Autres", CategoryCode: "other", DefaultSeverity: model.SeverityInfo, order: 99}

// layerTable 图层 → 类别 → 默认严重程度，全包唯一的一份
var layerTable = map[model.Layer]LayerInfo{
	model.LayerNoise:           {Category: "Bruit", CategoryCode: "noise", DefaultSeverity: model.SeverityWarning, order: 0},
	model.LayerSlope:           {Category: "Topographie", CategoryCode: "topography", DefaultSeverity: model.SeverityInfo, order: 1},
	model.LayerNaturalHazards:  {Category: "Dangers naturels", CategoryCode: "natural_hazards", DefaultSeverity: model.SeverityWarning, order: 2},
	model.LayerCantonalRoads:   {Category: "Infrastructure", CategoryCode: "infrastructure", DefaultSeverity: model.SeverityInfo, order: 3},
	model.LayerAirportZones:    {Category: "Aviation", CategoryCode: "aviation", DefaultSeverity: model.SeverityWarning, order: 4},
	model.LayerWaterProtection: {Category: "Eaux", CategoryCode: "water", DefaultSeverity: model.SeverityWarning, order: 5},
	model.LayerHeritage:        {Category: "Patrimoine", CategoryCode: "heritage", DefaultSeverity: model.SeverityWarning, order: 6},
}

// LayerCategory 查询图层信息，未登记图层归入 "Autres"
func LayerCategory(layer model.Layer) (LayerInfo, bool) {
	info, ok := layerTable[layer]
	if !ok {
		return otherLayer, false
	}
	return info, true
}
