package response

import (
	"encoding/json"
	"time"

	"urbaplan/internal/model"
)

// JobResponse 异步任务响应
type JobResponse struct {
	ID        string          `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	RequestID string          `json:"request_id"`
	ZoneID    string          `json:"zone_id,omitempty" example:"ZH1"`
	ParcelID  string          `json:"parcel_id,omitempty" example:"P-1021"`
	Status    string          `json:"status" example:"DONE"`
	Result    json.RawMessage `json:"result,omitempty" swaggertype:"object"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ZoneRulesResponse 分区合并后的规定
type ZoneRulesResponse struct {
	Zone  *model.Zone              `json:"zone"`
	Rules []model.ConsolidatedRule `json:"rules"`
}

// ContextResponse 环境约束
type ContextResponse struct {
	ParcelID   string                  `json:"parcel_id,omitempty"`
	Lang       string                  `json:"lang"`
	Flags      []model.ContextFlag     `json:"flags"`
	Messages   []string                `json:"messages"`
	Details    []model.DetailedMessage `json:"details"`
	Categories []model.CategoryGroup   `json:"categories"`
}

// LabelResponse 标签查询
type LabelResponse struct {
	Code     string `json:"code" example:"h_max_m"`
	Type     string `json:"type" example:"field"`
	Lang     string `json:"lang" example:"fr"`
	Text     string `json:"text" example:"Hauteur maximale"`
	Found    bool   `json:"found"`
	Severity int    `json:"severity,omitempty"`
	Category string `json:"category,omitempty"`
}

// LabelRefreshResponse 标签刷新结果
type LabelRefreshResponse struct {
	Size        int       `json:"size"`
	LoadedAt    time.Time `json:"loaded_at"`
	Broadcasted bool      `json:"broadcasted"`
}
