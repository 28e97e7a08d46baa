package svlabel

import (
	"context"
	"time"

	"urbaplan/internal/business/labels"
	"urbaplan/internal/model"
	"urbaplan/pkg/logger"
)

// Broadcaster 刷新广播（redis.PubSub 实现）
type Broadcaster interface {
	Publish(ctx context.Context, channel, message string) error
}

// Label 单个标签查询结果
type Label struct {
	Text     string
	Found    bool
	Severity int
	Category string
}

// LabelService 标签字典查询与刷新
type LabelService struct {
	dict        *labels.Dictionary
	broadcaster Broadcaster
	logger      logger.Logger
}

// NewLabelService 创建服务实例；broadcaster 为空时只刷新本实例
func NewLabelService(dict *labels.Dictionary, broadcaster Broadcaster, log logger.Logger) *LabelService {
	if log == nil {
		log = logger.NewNop()
	}
	return &LabelService{dict: dict, broadcaster: broadcaster, logger: log}
}

// Get 查询标签，未命中时 Text 为编码本身
func (s *LabelService) Get(ctx context.Context, code string, typ model.LabelType, lang string, long bool) Label {
	s.ensureLoaded(ctx)
	_, found := s.dict.Lookup(code, typ, lang, long)
	return Label{
		Text:     s.dict.GetLabel(code, typ, lang, long),
		Found:    found,
		Severity: s.dict.GetSeverity(code, typ),
		Category: s.dict.GetCategory(code, typ),
	}
}

// Batch 批量查询，结果键见 labels.LabelRequest.Key
func (s *LabelService) Batch(ctx context.Context, requests []labels.LabelRequest) map[string]string {
	s.ensureLoaded(ctx)
	return s.dict.GetLabels(requests)
}

// Refresh 刷新本实例快照并广播给其他实例
// reset 为 true 时先清空本地快照，其他实例收到 ClearMessage 后在下次读取时重新加载
// 返回值 broadcasted 表示广播是否成功
func (s *LabelService) Refresh(ctx context.Context, reset bool) (size int, loadedAt time.Time, broadcasted bool, err error) {
	message := time.Now().UTC().Format(time.RFC3339)
	if reset {
		s.dict.Clear()
		message = labels.ClearMessage
	}
	if err := s.dict.Refresh(ctx); err != nil {
		return 0, time.Time{}, false, err
	}

	if s.broadcaster != nil {
		if err := s.broadcaster.Publish(ctx, labels.RefreshChannel, message); err != nil {
			s.logger.Warnf(ctx, "[LabelService] Refresh broadcast failed: %v", err)
		} else {
			broadcasted = true
		}
	}
	return s.dict.Size(), s.dict.LoadedAt(), broadcasted, nil
}

// ensureLoaded 快照被清空后按需加载；失败时沿用编码兜底
func (s *LabelService) ensureLoaded(ctx context.Context) {
	if err := s.dict.EnsureLoaded(ctx); err != nil {
		s.logger.Warnf(ctx, "[LabelService] Label load failed, serving fallbacks: %v", err)
	}
}
