package entity

import (
	"time"

	"gorm.io/datatypes"
)

// FeasibilityJob 异步可行性任务（包含计算结果）
type FeasibilityJob struct {
	// 基础字段
	ID        string `gorm:"column:id;primaryKey;type:varchar(64)"`
	RequestID string `gorm:"column:request_id;type:varchar(64);not null;index:idx_job_request"`
	ZoneID    string `gorm:"column:zone_id;type:varchar(64)"`
	ParcelID  string `gorm:"column:parcel_id;type:varchar(64);index:idx_job_parcel"`

	// 请求数据
	Request datatypes.JSON `gorm:"column:request;type:json;not null"`

	// 状态与结果
	Status       string         `gorm:"column:status;type:varchar(16);not null;default:'PENDING';index:idx_job_status"`
	Result       datatypes.JSON `gorm:"column:result;type:json"`
	ErrorMessage string         `gorm:"column:error_message;type:text"`

	// 时间戳
	CreatedAt time.Time `gorm:"column:created_at;not null;index:idx_job_created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// TableName 指定表名
func (FeasibilityJob) TableName() string {
	return "feasibility_jobs"
}

// 任务状态常量
const (
	JobStatusPending = "PENDING"
	JobStatusDone    = "DONE"
	JobStatusFailed  = "FAILED"
)
