package model

// Layer 环境图层标识
type Layer string

// 图层目录（扫描顺序即此顺序）
const (
	LayerNoise           Layer = "opb_noise"
	LayerSlope           Layer = "slope"
	LayerNaturalHazards  Layer = "natural_hazards"
	LayerCantonalRoads   Layer = "cantonal_roads"
	LayerAirportZones    Layer = "airport_zones"
	LayerWaterProtection Layer = "water_protection"
	LayerHeritage        Layer = "heritage"
)

// Severity 约束严重程度
const (
	SeverityInfo     = 1
	SeverityWarning  = 2
	SeverityCritical = 3
)

// ContextFlag 地块与某环境图层的相交/邻近记录
type ContextFlag struct {
	Layer      Layer                  `json:"layer"`
	Intersects bool                   `json:"intersects"`
	ValueNum   *float64               `json:"value_num,omitempty"`
	ValueText  string                 `json:"value_text,omitempty"`
	Distance   *float64               `json:"distance,omitempty"`
	Severity   int                    `json:"severity"`
	Message    string                 `json:"message"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// DetailedMessage 格式化后的约束说明
type DetailedMessage struct {
	Code     string   `json:"code"`
	Layer    Layer    `json:"layer"`
	Category string   `json:"category"`
	Severity int      `json:"severity"`
	Short    string   `json:"short"`
	Long     string   `json:"long"`
	Value    string   `json:"value,omitempty"`
	Distance *float64 `json:"distance,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
}

// CategoryGroup 按类别分组的约束
type CategoryGroup struct {
	Category string        `json:"category"`
	Label    string        `json:"label"`
	Summary  string        `json:"summary"` // 组内消息合并，单词数受上限约束
	Flags    []ContextFlag `json:"flags"`
}
