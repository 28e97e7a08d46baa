package svfeasibility

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"urbaplan/internal/app/domains/modules/mdjob"
	"urbaplan/internal/app/domains/repo/rpjob"
	"urbaplan/internal/business/feasibility"
	"urbaplan/internal/entity"
	"urbaplan/internal/model"
	"urbaplan/pkg/errorutil"
	"urbaplan/pkg/geom"
	"urbaplan/pkg/infra/redis"
	"urbaplan/pkg/logger"
)

// Calculator 可行性计算（feasibility.Calculator 实现）
type Calculator interface {
	GenerateFeasibilityTable(ctx context.Context, req feasibility.Request) (*model.FeasibilityResult, error)
}

// ReportObserver 报告指标回调
type ReportObserver interface {
	ReportGenerated(zoneStatus string)
}

// Report 同步计算结果
type Report struct {
	Result   json.RawMessage // FeasibilityResult 的 JSON
	Markdown string          // 仅在请求 markdown 时填充
	Cached   bool
}

// FeasibilityService 可行性服务，负责同步计算与异步任务编排
type FeasibilityService struct {
	calculator Calculator
	cache      *redis.ResultCache
	jobRepo    rpjob.JobRepository
	jobModule  *mdjob.JobModule
	observer   ReportObserver
	maxWait    time.Duration
	logger     logger.Logger
}

// NewFeasibilityService 创建服务实例；cache、observer 可为空
func NewFeasibilityService(
	calculator Calculator,
	cache *redis.ResultCache,
	jobRepo rpjob.JobRepository,
	jobModule *mdjob.JobModule,
	observer ReportObserver,
	maxWait time.Duration,
	log logger.Logger,
) *FeasibilityService {
	if log == nil {
		log = logger.NewNop()
	}
	return &FeasibilityService{
		calculator: calculator,
		cache:      cache,
		jobRepo:    jobRepo,
		jobModule:  jobModule,
		observer:   observer,
		maxWait:    maxWait,
		logger:     log,
	}
}

// Evaluate 同步生成报告
// 1. 命中缓存直接返回（markdown 需要结构化结果，跳过缓存读取）
// 2. 计算报告
// 3. 写入缓存（失败只记录日志）
func (s *FeasibilityService) Evaluate(ctx context.Context, data model.FeasibilityJobData, markdown bool) (*Report, error) {
	key := ""
	if s.cache.Enabled() {
		k, err := redis.Key(data)
		if err != nil {
			s.logger.Warnf(ctx, "[FeasibilityService] Cache key failed: %v", err)
		} else {
			key = k
		}
	}

	if key != "" && !markdown {
		cached, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warnf(ctx, "[FeasibilityService] Cache read failed: %v", err)
		} else if cached != nil {
			s.logger.Debugf(ctx, "[FeasibilityService] Cache hit: %s", key)
			return &Report{Result: cached, Cached: true}, nil
		}
	}

	result, err := s.calculator.GenerateFeasibilityTable(ctx, feasibility.RequestFromJobData(data))
	if err != nil {
		return nil, err
	}
	if s.observer != nil {
		s.observer.ReportGenerated(string(result.ZoneStatus))
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal feasibility result failed: %w", err)
	}

	if key != "" {
		if err := s.cache.Set(ctx, key, raw); err != nil {
			s.logger.Warnf(ctx, "[FeasibilityService] Cache write failed: %v", err)
		}
	}

	report := &Report{Result: raw}
	if markdown {
		report.Markdown = feasibility.RenderMarkdown(result)
	}
	return report, nil
}

// Submit 创建异步任务（完整业务流程）
// 1. 校验请求（与 worker 相同的输入规则，提前拒绝）
// 2. 创建任务并落库
// 3. 发布到任务队列
// 4. Smart Wait（等待结果通知，超时返回 PENDING 任务）
func (s *FeasibilityService) Submit(ctx context.Context, data model.FeasibilityJobData, wait time.Duration) (*entity.FeasibilityJob, error) {
	if err := precheck(data); err != nil {
		return nil, err
	}

	request, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal job request failed: %w", err)
	}

	requestID := logger.TraceID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	job := &entity.FeasibilityJob{
		ID:        uuid.NewString(),
		RequestID: requestID,
		ZoneID:    data.ZoneID,
		ParcelID:  data.ParcelID,
		Request:   datatypes.JSON(request),
		Status:    entity.JobStatusPending,
	}
	if err := s.jobRepo.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	// 3. 发布到任务队列
	if err := s.jobModule.PublishFeasibilityJob(ctx, job, data); err != nil {
		s.logger.Errorf(ctx, "[FeasibilityService] Publish job failed: job_id=%s, error=%v", job.ID, err)
		if uerr := s.jobRepo.UpdateResult(ctx, job.ID, nil, entity.JobStatusFailed, "publish failed"); uerr != nil {
			s.logger.Warnf(ctx, "[FeasibilityService] Mark job failed: job_id=%s, error=%v", job.ID, uerr)
		}
		return nil, errorutil.RetriableWithCause("publish feasibility job failed", err)
	}
	s.logger.Infof(ctx, "[FeasibilityService] Job published: job_id=%s", job.ID)

	// 4. Smart Wait
	if s.maxWait > 0 && wait > s.maxWait {
		wait = s.maxWait
	}
	if wait <= 0 {
		return job, nil
	}

	notification, err := s.jobModule.WaitForResult(ctx, job.ID, wait)
	if err != nil {
		// 超时或订阅失败，只记录日志，返回 PENDING 任务
		s.logger.Infof(ctx, "[FeasibilityService] Wait for result ended: job_id=%s, error=%v", job.ID, err)
		return job, nil
	}
	s.logger.Debugf(ctx, "[FeasibilityService] Job finished: job_id=%s, status=%s", job.ID, notification.Status)

	finished, err := s.jobRepo.GetJob(ctx, job.ID)
	if err != nil {
		s.logger.Warnf(ctx, "[FeasibilityService] Reload job failed: job_id=%s, error=%v", job.ID, err)
		return job, nil
	}
	return finished, nil
}

// GetJob 查询任务
func (s *FeasibilityService) GetJob(ctx context.Context, jobID string) (*entity.FeasibilityJob, error) {
	return s.jobRepo.GetJob(ctx, jobID)
}

// precheck 入队前校验，规则与 Calculator 一致
func precheck(data model.FeasibilityJobData) error {
	if data.AreaM2 != nil {
		a := *data.AreaM2
		if math.IsNaN(a) || math.IsInf(a, 0) || a < 0 {
			return &feasibility.InvalidInputError{Field: "parcel.area_m2", Reason: "must be a non-negative number"}
		}
	}
	hasGeometry := strings.TrimSpace(data.GeometryWKT) != ""
	if hasGeometry {
		if _, err := geom.Parse(data.GeometryWKT); err != nil {
			return &feasibility.InvalidInputError{Field: "parcel.geometry", Reason: err.Error()}
		}
	}
	if strings.TrimSpace(data.ZoneID) == "" && !hasGeometry {
		return &feasibility.InvalidInputError{Field: "zone_id", Reason: "zone id or parcel geometry is required"}
	}
	return nil
}
