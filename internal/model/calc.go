package model

// Reliability 计算结果可信度
type Reliability string

// 可信度等级
const (
	ReliabilityHigh   Reliability = "high"
	ReliabilityMedium Reliability = "medium"
	ReliabilityLow    Reliability = "low"
)

// CalcInput 建筑指标计算输入
type CalcInput struct {
	ParcelAreaM2 float64            `json:"parcel_area_m2"`
	ZoneType     string             `json:"zone_type,omitempty"`
	Rules        []ConsolidatedRule `json:"rules"`
}

// CalcOutput 建筑指标计算输出
type CalcOutput struct {
	SuM2          *float64               `json:"su_m2"`
	IbusM2        *float64               `json:"ibus_m2"`
	EmpriseM2     *float64               `json:"emprise_m2"`
	NiveauxMaxEst *int                   `json:"niveaux_max_est"`
	Reliability   Reliability            `json:"reliability"`
	Controls      []string               `json:"controls"`
	Details       map[string]interface{} `json:"details"`
}
