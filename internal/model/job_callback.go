package model

import "encoding/json"

// FeasibilityCallback 可行性任务回调消息
// 用于 worker → apiserver callback consumer 的消息传递
type FeasibilityCallback struct {
	RequestID   string          `json:"request_id"`          // 对应请求的 request_id
	JobID       string          `json:"job_id"`              // 任务 ID
	Status      string          `json:"status"`              // SUCCESS / FAILED
	Result      json.RawMessage `json:"result,omitempty"`    // 成功时返回（FeasibilityResult 的 JSON）
	Error       string          `json:"error,omitempty"`     // 失败时返回
	Retryable   bool            `json:"retryable,omitempty"` // 失败是否可重试
	ProcessedAt int64           `json:"processed_at"`        // Unix 时间戳
}

// 回调状态常量
const (
	CallbackStatusSuccess = "SUCCESS"
	CallbackStatusFailed  = "FAILED"
)
