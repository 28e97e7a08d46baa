package response

import (
	"encoding/json"

	"urbaplan/internal/entity"
)

// FromJobEntity 从持久化对象转换为响应 DTO
func FromJobEntity(job *entity.FeasibilityJob) *JobResponse {
	resp := &JobResponse{
		ID:        job.ID,
		RequestID: job.RequestID,
		ZoneID:    job.ZoneID,
		ParcelID:  job.ParcelID,
		Status:    job.Status,
		Error:     job.ErrorMessage,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	}

	if len(job.Result) > 0 {
		resp.Result = json.RawMessage(job.Result)
	}

	return resp
}
