// Package feasibility 地块可行性报告编排：规定解析 → 指标计算 → 环境约束
package feasibility

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/paulmach/orb"

	"urbaplan/internal/business/buildcalc"
	"urbaplan/internal/business/contextfmt"
	"urbaplan/internal/business/labels"
	"urbaplan/internal/business/rules"
	"urbaplan/internal/model"
	"urbaplan/pkg/geom"
	"urbaplan/pkg/logger"
)

// ParcelInfo 地块信息（均可选）
type ParcelInfo struct {
	ID          string   `json:"id,omitempty"`
	AreaM2      *float64 `json:"area_m2,omitempty"`
	GeometryWKT string   `json:"geometry,omitempty"` // WKT 或 GeoJSON
	ZoneType    string   `json:"zone_type,omitempty"`
}

// Request 可行性请求
type Request struct {
	ZoneID  string                             `json:"zone_id"`
	Project map[model.Field]model.ProjectValue `json:"project,omitempty"`
	Parcel  *ParcelInfo                        `json:"parcel,omitempty"`
	Lang    string                             `json:"lang,omitempty"`
}

// RuleResolver 规定解析（rules.Resolver 实现）
type RuleResolver interface {
	ResolveZone(ctx context.Context, zoneID string) (*model.Zone, []model.ConsolidatedRule, error)
	ResolveGeometryDetailed(ctx context.Context, g orb.Geometry) (*rules.GeometryResolution, error)
}

// ContextResolver 环境图层解析（contextlayer.Resolver 实现）
type ContextResolver interface {
	ContextForGeometry(ctx context.Context, parcelID string, g orb.Geometry) []model.ContextFlag
}

// Labeler 标签查询（labels.Dictionary 实现）
type Labeler interface {
	contextfmt.Labeler
	GetLabel(code string, typ model.LabelType, lang string, long bool) string
}

// labelLoader 快照可被清空的字典（labels.Dictionary）在生成报告前按需加载
type labelLoader interface {
	EnsureLoaded(ctx context.Context) error
}

// Deps 依赖
type Deps struct {
	Rules       RuleResolver
	Context     ContextResolver // 为空时跳过环境约束
	Labels      Labeler
	Logger      logger.Logger
	MaxMessages int
	DefaultLang string
	Now         func() time.Time
}

// Calculator 可行性计算器
type Calculator struct {
	rules       RuleResolver
	context     ContextResolver
	labels      Labeler
	formatter   *contextfmt.Formatter
	logger      logger.Logger
	maxMessages int
	defaultLang string
	now         func() time.Time
}

// NewCalculator 创建计算器
func NewCalculator(d Deps) *Calculator {
	c := &Calculator{
		rules:       d.Rules,
		context:     d.Context,
		labels:      d.Labels,
		logger:      d.Logger,
		maxMessages: d.MaxMessages,
		defaultLang: d.DefaultLang,
		now:         d.Now,
	}
	if c.logger == nil {
		c.logger = logger.NewNop()
	}
	if c.labels == nil {
		c.labels = labels.NewStaticDictionary(nil)
	}
	c.formatter = contextfmt.NewFormatter(c.labels)
	if c.maxMessages <= 0 {
		c.maxMessages = contextfmt.DefaultMaxMessages
	}
	if !model.IsSupportedLang(c.defaultLang) {
		c.defaultLang = model.LangFR
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// validated 校验后的请求
type validated struct {
	req      Request
	lang     string
	geometry orb.Geometry
	area     *float64
	areaSrc  string
	warnings []string
}

func (c *Calculator) validate(req Request) (*validated, error) {
	v := &validated{req: req}

	// 1. 语言：不支持时回退默认语言
	v.lang = strings.ToLower(strings.TrimSpace(req.Lang))
	if v.lang == "" {
		v.lang = c.defaultLang
	} else if !model.IsSupportedLang(v.lang) {
		v.warnings = append(v.warnings, fmt.Sprintf("unsupported language %q, using %s", req.Lang, c.defaultLang))
		v.lang = c.defaultLang
	}

	// 2. 地块面积与几何
	if p := req.Parcel; p != nil {
		if p.AreaM2 != nil {
			if math.IsNaN(*p.AreaM2) || math.IsInf(*p.AreaM2, 0) || *p.AreaM2 < 0 {
				return nil, &InvalidInputError{Field: "parcel.area_m2", Reason: "must be a non-negative number"}
			}
			v.area = p.AreaM2
			v.areaSrc = "request"
		}
		if strings.TrimSpace(p.GeometryWKT) != "" {
			g, err := geom.Parse(p.GeometryWKT)
			if err != nil {
				return nil, &InvalidInputError{Field: "parcel.geometry", Reason: err.Error()}
			}
			v.geometry = g
			if v.area == nil {
				if a := geom.Area(g); a > 0 {
					v.area = &a
					v.areaSrc = "geometry"
				}
			}
		}
	}

	// 3. 分区编码或几何至少一个
	if strings.TrimSpace(req.ZoneID) == "" && v.geometry == nil {
		return nil, &InvalidInputError{Field: "zone_id", Reason: "zone id or parcel geometry is required"}
	}

	// 4. 项目值
	for field := range req.Project {
		if !isStandardField(field) {
			v.warnings = append(v.warnings, fmt.Sprintf("project field %s is not assessed", field))
		}
	}
	return v, nil
}

// GenerateFeasibilityTable 生成可行性报告
// 分区无法确定时返回 undetermined 报告而不是错误；仅非法输入与数据源故障返回错误
func (c *Calculator) GenerateFeasibilityTable(ctx context.Context, req Request) (*model.FeasibilityResult, error) {
	v, err := c.validate(req)
	if err != nil {
		return nil, err
	}

	parcelID := ""
	if req.Parcel != nil {
		parcelID = req.Parcel.ID
	}
	ctx = logger.WithParcel(ctx, parcelID, req.ZoneID)

	if loader, ok := c.labels.(labelLoader); ok {
		if err := loader.EnsureLoaded(ctx); err != nil {
			c.logger.Warnf(ctx, "[Feasibility] Label load failed, using codes: %v", err)
		}
	}

	result := &model.FeasibilityResult{
		ZoneID:      strings.TrimSpace(req.ZoneID),
		ZoneStatus:  model.ZoneStatusResolved,
		ParcelID:    parcelID,
		Lang:        v.lang,
		Criteria:    []model.FeasibilityCriterion{},
		Overrides:   []model.OverrideNote{},
		Warnings:    v.warnings,
		GeneratedAt: c.now().UTC(),
	}

	// 1. 规定解析
	zone, consolidated, err := c.resolve(ctx, result, v)
	if err != nil {
		return nil, err
	}

	// 2. 合规项与覆盖记录
	ruleSet := model.NewRuleSet(consolidated)
	for _, spec := range standardCriteria {
		var rule *model.ConsolidatedRule
		if r, ok := ruleSet[spec.field]; ok {
			rule = &r
		}
		var project *model.ProjectValue
		if p, ok := req.Project[spec.field]; ok {
			project = &p
		}
		label := c.labels.GetLabel(string(spec.field), model.LabelTypeField, v.lang, false)
		result.Criteria = append(result.Criteria, buildCriterion(spec, rule, project, label))
	}
	for _, r := range consolidated {
		if len(r.Overridden) == 0 {
			continue
		}
		result.Overrides = append(result.Overrides, model.OverrideNote{
			Field:        r.Field,
			WinningLevel: r.Level,
			WinningValue: r.Value,
			Overridden:   r.Overridden,
		})
	}
	result.Summary = summarize(result.Criteria)

	// 3. 建筑指标（分区已确定且面积已知）
	if zone != nil && v.area != nil {
		zoneType := zone.ZoneType
		if req.Parcel != nil && req.Parcel.ZoneType != "" {
			zoneType = req.Parcel.ZoneType
		}
		calc := buildcalc.Compute(model.CalcInput{
			ParcelAreaM2: *v.area,
			ZoneType:     zoneType,
			Rules:        consolidated,
		})
		calc.Details["parcel_area_source"] = v.areaSrc
		result.Calculations = &calc
		result.Summary.Warnings += len(calc.Controls)
	}

	// 4. 环境约束（几何已知）
	if v.geometry != nil && c.context != nil {
		flags := c.context.ContextForGeometry(ctx, parcelID, v.geometry)
		result.ContextNotes = c.formatter.Summarize(flags, v.lang, c.maxMessages)
		result.ContextDetails = c.formatter.FormatDetailed(flags, v.lang)
		for _, d := range result.ContextDetails {
			switch d.Severity {
			case model.SeverityCritical:
				result.Summary.Issues++
			case model.SeverityWarning:
				result.Summary.Warnings++
			}
		}
	}

	c.logger.Infof(ctx, "[Feasibility] zone=%s status=%s compliant=%d non_compliant=%d notes=%d",
		result.ZoneID, result.ZoneStatus, result.Summary.Compliant, result.Summary.NonCompliant, len(result.ContextNotes))
	return result, nil
}

// resolve 按分区编码或几何解析规定；分区类错误降级为 undetermined
func (c *Calculator) resolve(ctx context.Context, result *model.FeasibilityResult, v *validated) (*model.Zone, []model.ConsolidatedRule, error) {
	var (
		zone         *model.Zone
		consolidated []model.ConsolidatedRule
		err          error
	)

	if result.ZoneID != "" {
		zone, consolidated, err = c.rules.ResolveZone(ctx, result.ZoneID)
	} else {
		var res *rules.GeometryResolution
		res, err = c.rules.ResolveGeometryDetailed(ctx, v.geometry)
		if err == nil {
			primary := res.Primary
			zone = &primary
			consolidated = res.Rules
			result.ZoneID = primary.Code
			if len(res.Zones) > 1 {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("parcel spans %d zones, primary zone %s covers %.0f%%", len(res.Zones), primary.Code, res.Zones[0].Coverage*100))
			}
		}
	}

	if err != nil {
		var unknown *rules.UnknownZoneError
		var notFound *rules.ZoneNotFoundError
		if errors.As(err, &unknown) || errors.As(err, &notFound) {
			c.logger.Warnf(ctx, "[Feasibility] Zone undetermined: %v", err)
			result.ZoneStatus = model.ZoneStatusUndetermined
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s: %v", c.labels.GetLabel("zone_undetermined", model.LabelTypeMessage, result.Lang, false), err))
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("resolve rules: %w", err)
	}

	return zone, consolidated, nil
}

// RequestFromJobData 由任务消息（或 HTTP 请求体）构造请求
func RequestFromJobData(d model.FeasibilityJobData) Request {
	req := Request{
		ZoneID: d.ZoneID,
		Lang:   d.Lang,
	}
	if len(d.Project) > 0 {
		req.Project = make(map[model.Field]model.ProjectValue, len(d.Project))
		for field, v := range d.Project {
			req.Project[model.Field(field)] = v
		}
	}
	if d.ParcelID != "" || d.AreaM2 != nil || d.GeometryWKT != "" || d.ZoneType != "" {
		req.Parcel = &ParcelInfo{
			ID:          d.ParcelID,
			AreaM2:      d.AreaM2,
			GeometryWKT: d.GeometryWKT,
			ZoneType:    d.ZoneType,
		}
	}
	return req
}
