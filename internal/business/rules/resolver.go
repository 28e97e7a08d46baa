package rules

import (
	"context"
	"fmt"
	"sort"

	"github.com/paulmach/orb"

	"urbaplan/internal/model"
	"urbaplan/pkg/geom"
	"urbaplan/pkg/logger"
)

// coverageGrid 主分区覆盖率采样网格
const coverageGrid = 20

// RuleSource 规定记录来源
type RuleSource interface {
	// FindZone 查询分区，不存在时返回 nil, nil
	FindZone(ctx context.Context, zoneID string) (*model.Zone, error)
	// RulesForZone 返回可能适用于该分区的记录（范围在合并时再过滤）
	RulesForZone(ctx context.Context, zoneID string) ([]model.RuleRecord, error)
}

// ZoneCandidate 分区及其几何
type ZoneCandidate struct {
	Zone     model.Zone
	Geometry orb.Geometry
}

// ZoneLocator 按几何查询候选分区（允许仅做外包框预筛）
type ZoneLocator interface {
	ZonesForGeometry(ctx context.Context, g orb.Geometry) ([]ZoneCandidate, error)
}

// ZoneHit 与地块相交的分区
type ZoneHit struct {
	Zone     model.Zone `json:"zone"`
	Coverage float64    `json:"coverage"` // 地块被该分区覆盖的比例
}

// GeometryResolution 按几何解析的详细结果
type GeometryResolution struct {
	Primary model.Zone               `json:"primary"`
	Zones   []ZoneHit                `json:"zones"`
	Rules   []model.ConsolidatedRule `json:"rules"`
}

// Resolver 规定解析器
type Resolver struct {
	source  RuleSource
	locator ZoneLocator
	logger  logger.Logger
}

// NewResolver 创建解析器；locator 为空时不支持按几何解析
func NewResolver(source RuleSource, locator ZoneLocator, log logger.Logger) *Resolver {
	if log == nil {
		log = logger.NewNop()
	}
	return &Resolver{source: source, locator: locator, logger: log}
}

// Zone 查询分区，未知时返回 *UnknownZoneError
func (r *Resolver) Zone(ctx context.Context, zoneID string) (*model.Zone, error) {
	zone, err := r.source.FindZone(ctx, zoneID)
	if err != nil {
		return nil, fmt.Errorf("find zone %s: %w", zoneID, err)
	}
	if zone == nil {
		return nil, &UnknownZoneError{ZoneID: zoneID}
	}
	return zone, nil
}

// ResolveZone 查询分区并解析其生效规定，分区只查询一次
func (r *Resolver) ResolveZone(ctx context.Context, zoneID string) (*model.Zone, []model.ConsolidatedRule, error) {
	zone, err := r.Zone(ctx, zoneID)
	if err != nil {
		return nil, nil, err
	}
	rules, err := r.rulesFor(ctx, zoneID)
	if err != nil {
		return nil, nil, err
	}
	return zone, rules, nil
}

// ResolveByZone 解析分区的生效规定
func (r *Resolver) ResolveByZone(ctx context.Context, zoneID string) ([]model.ConsolidatedRule, error) {
	_, rules, err := r.ResolveZone(ctx, zoneID)
	return rules, err
}

// rulesFor 加载并合并已确认存在的分区的规定
func (r *Resolver) rulesFor(ctx context.Context, zoneID string) ([]model.ConsolidatedRule, error) {
	records, err := r.source.RulesForZone(ctx, zoneID)
	if err != nil {
		return nil, fmt.Errorf("load rules for zone %s: %w", zoneID, err)
	}

	rules := Consolidate(zoneID, records)
	r.logger.Debugf(ctx, "[RuleResolver] Zone %s: %d records -> %d rules", zoneID, len(records), len(rules))
	return rules, nil
}

// ResolveByGeometry 先按几何确定主分区，再解析其规定
func (r *Resolver) ResolveByGeometry(ctx context.Context, g orb.Geometry) ([]model.ConsolidatedRule, error) {
	res, err := r.ResolveGeometryDetailed(ctx, g)
	if err != nil {
		return nil, err
	}
	return res.Rules, nil
}

// ResolveGeometryDetailed 按几何解析，返回全部相交分区与主分区
// 主分区为覆盖地块比例最大的分区，比例相同按编码排序
func (r *Resolver) ResolveGeometryDetailed(ctx context.Context, g orb.Geometry) (*GeometryResolution, error) {
	if r.locator == nil {
		return nil, fmt.Errorf("zone locator is not configured")
	}
	if g == nil {
		return nil, geom.ErrEmptyGeometry
	}

	candidates, err := r.locator.ZonesForGeometry(ctx, g)
	if err != nil {
		return nil, fmt.Errorf("locate zones: %w", err)
	}

	hits := make([]ZoneHit, 0, len(candidates))
	for _, c := range candidates {
		if c.Geometry == nil || !geom.Intersects(g, c.Geometry) {
			continue
		}
		hits = append(hits, ZoneHit{
			Zone:     c.Zone,
			Coverage: geom.CoverageShare(g, c.Geometry, coverageGrid),
		})
	}
	if len(hits) == 0 {
		return nil, &ZoneNotFoundError{ParcelID: logger.ParcelID(ctx)}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Coverage != hits[j].Coverage {
			return hits[i].Coverage > hits[j].Coverage
		}
		return hits[i].Zone.Code < hits[j].Zone.Code
	})

	primary := hits[0].Zone
	if len(hits) > 1 {
		r.logger.Infof(ctx, "[RuleResolver] Geometry hits %d zones, primary %s (%.0f%%)",
			len(hits), primary.Code, hits[0].Coverage*100)
	}

	// 主分区来自定位结果，无需再次查询
	rules, err := r.rulesFor(ctx, primary.Code)
	if err != nil {
		return nil, err
	}

	return &GeometryResolution{Primary: primary, Zones: hits, Rules: rules}, nil
}
