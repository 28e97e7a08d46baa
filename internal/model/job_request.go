package model

// ActionParcelFeasibility 地块可行性任务的动作类型（路由键）
const ActionParcelFeasibility = "parcel_feasibility"

// FeasibilityJob 可行性任务消息（标准化）
// 用于 apiserver → worker 的消息传递
type FeasibilityJob struct {
	Payload FeasibilityJobPayload `json:"payload"`
}

// FeasibilityJobPayload Job 负载
type FeasibilityJobPayload struct {
	Data FeasibilityJobEnvelope `json:"data"`
}

// FeasibilityJobEnvelope Job 数据层
type FeasibilityJobEnvelope struct {
	// 元信息
	RequestID  string `json:"request_id"`  // 请求 ID（全链路追踪）
	OrgID      string `json:"org_id"`      // 组织 ID
	ActionType string `json:"action_type"` // 固定值 parcel_feasibility
	ID         string `json:"id"`          // 任务 ID

	// 业务数据
	Data FeasibilityJobData `json:"data"`
}

// FeasibilityJobData 可行性计算所需的全部数据（worker 不再回查请求方）
type FeasibilityJobData struct {
	ZoneID      string                  `json:"zone_id,omitempty"`
	ParcelID    string                  `json:"parcel_id,omitempty"`
	AreaM2      *float64                `json:"area_m2,omitempty"`
	GeometryWKT string                  `json:"geometry,omitempty"`
	ZoneType    string                  `json:"zone_type,omitempty"`
	Project     map[string]ProjectValue `json:"project,omitempty"`
	Lang        string                  `json:"lang,omitempty"`
}
