package job

import (
	"encoding/json"
	"fmt"
)

// Job 标准 Job 结构
type Job struct {
	Payload *JobPayload `json:"payload"`
}

// JobPayload Job 负载
type JobPayload struct {
	Data *JobPayloadData `json:"data"`
}

// JobPayloadData Job 数据
type JobPayloadData struct {
	// 元信息
	RequestID  string `json:"request_id"`  // 请求 ID（TraceID）
	OrgID      string `json:"org_id"`      // 组织 ID
	ActionType string `json:"action_type"` // 动作类型（路由键）
	ID         string `json:"id"`          // 任务 ID

	// 业务数据
	Data json.RawMessage `json:"data"` // 具体业务数据，由 Handler 按动作类型解码

	// 扩展
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Meta 元数据
type Meta struct {
	RequestID  string // 请求 ID
	OrgID      string // 组织 ID
	ActionType string // 动作类型
	ID         string // 任务 ID
}

// DecodeData 将业务数据解码到 v
func DecodeData(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return fmt.Errorf("job data is empty")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("unmarshal job data failed: %w", err)
	}
	return nil
}
