package svzone

import (
	"context"
	"strings"

	"urbaplan/internal/business/contextfmt"
	"urbaplan/internal/business/feasibility"
	"urbaplan/internal/model"
	"urbaplan/pkg/logger"
)

// RuleResolver 规定解析（rules.Resolver 实现）
type RuleResolver interface {
	ResolveZone(ctx context.Context, zoneID string) (*model.Zone, []model.ConsolidatedRule, error)
}

// labelLoader 快照可被清空的字典（labels.Dictionary）
type labelLoader interface {
	EnsureLoaded(ctx context.Context) error
}

// ContextResolver 环境图层解析（contextlayer.Resolver 实现）
type ContextResolver interface {
	GetContextForParcel(ctx context.Context, parcelID, geometryWKT string) ([]model.ContextFlag, error)
}

// ContextReport 地块环境约束
type ContextReport struct {
	Lang       string
	Flags      []model.ContextFlag
	Messages   []string
	Details    []model.DetailedMessage
	Categories []model.CategoryGroup
}

// ZoneService 分区规定与环境约束查询
type ZoneService struct {
	rules       RuleResolver
	context     ContextResolver
	formatter   *contextfmt.Formatter
	loader      labelLoader // 为空时不检查快照
	maxMessages int
	defaultLang string
	logger      logger.Logger
}

// NewZoneService 创建服务实例
func NewZoneService(rules RuleResolver, context ContextResolver, labels contextfmt.Labeler, maxMessages int, defaultLang string, log logger.Logger) *ZoneService {
	if log == nil {
		log = logger.NewNop()
	}
	if maxMessages <= 0 {
		maxMessages = contextfmt.DefaultMaxMessages
	}
	if !model.IsSupportedLang(defaultLang) {
		defaultLang = model.LangFR
	}
	loader, _ := labels.(labelLoader)
	return &ZoneService{
		rules:       rules,
		loader:      loader,
		context:     context,
		formatter:   contextfmt.NewFormatter(labels),
		maxMessages: maxMessages,
		defaultLang: defaultLang,
		logger:      log,
	}
}

// ZoneRules 查询分区及其合并后的规定，未知分区返回 404 错误
func (s *ZoneService) ZoneRules(ctx context.Context, zoneID string) (*model.Zone, []model.ConsolidatedRule, error) {
	return s.rules.ResolveZone(ctx, zoneID)
}

// Context 查询几何的环境约束并按语言格式化
func (s *ZoneService) Context(ctx context.Context, parcelID, geometryWKT, lang string) (*ContextReport, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if !model.IsSupportedLang(lang) {
		lang = s.defaultLang
	}

	if s.loader != nil {
		if err := s.loader.EnsureLoaded(ctx); err != nil {
			s.logger.Warnf(ctx, "[ZoneService] Label load failed, using raw messages: %v", err)
		}
	}

	flags, err := s.context.GetContextForParcel(ctx, parcelID, geometryWKT)
	if err != nil {
		return nil, &feasibility.InvalidInputError{Field: "geometry", Reason: err.Error()}
	}

	report := &ContextReport{
		Lang:       lang,
		Flags:      flags,
		Messages:   s.formatter.Summarize(flags, lang, s.maxMessages),
		Details:    s.formatter.FormatDetailed(flags, lang),
		Categories: s.formatter.GroupByCategory(flags, lang),
	}
	s.logger.Infof(ctx, "[ZoneService] Context for parcel %s: %d flags", parcelID, len(flags))
	return report, nil
}
