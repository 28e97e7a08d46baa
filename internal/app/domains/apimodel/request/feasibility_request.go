package request

import "urbaplan/internal/model"

// FeasibilityRequest 可行性请求（同步与异步接口共用）
type FeasibilityRequest struct {
	ZoneID  string                        `json:"zone_id" binding:"required_without=Parcel" example:"ZH1"`
	Parcel  *Parcel                       `json:"parcel"`
	Project map[string]model.ProjectValue `json:"project"`
	Lang    string                        `json:"lang" binding:"omitempty,max=8" example:"fr"`
}

// Parcel 地块信息
type Parcel struct {
	ID       string   `json:"id" example:"P-1021"`
	AreaM2   *float64 `json:"area_m2" binding:"omitempty,gte=0" example:"850"`
	Geometry string   `json:"geometry" example:"POLYGON((0 0, 40 0, 40 25, 0 25, 0 0))"`
	ZoneType string   `json:"zone_type" example:"habitation"`
}

// ContextRequest 环境约束请求
type ContextRequest struct {
	ParcelID string `json:"parcel_id" example:"P-1021"`
	Geometry string `json:"geometry" binding:"required"`
	Lang     string `json:"lang" binding:"omitempty,max=8" example:"de"`
}
