package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"urbaplan/internal/business/rules"
	"urbaplan/internal/entity"
	"urbaplan/internal/model"
	"urbaplan/pkg/errorutil"
	"urbaplan/pkg/geom"
)

// RuleStore 分区与规定数据访问对象，实现 rules.RuleSource 与 rules.ZoneLocator
type RuleStore struct {
	db *gorm.DB
}

// NewRuleStore 创建 RuleStore
func NewRuleStore(db *gorm.DB) *RuleStore {
	return &RuleStore{db: db}
}

// FindZone 查询分区，不存在时返回 nil, nil
func (s *RuleStore) FindZone(ctx context.Context, zoneID string) (*model.Zone, error) {
	var row entity.Zone
	err := s.db.WithContext(ctx).Where("code = ?", zoneID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errorutil.RetriableWithCause("failed to get zone", err)
	}
	zone := toZoneModel(row)
	return &zone, nil
}

// RulesForZone 返回范围可能命中该分区的记录
// 范围模式以小写存储："*"、精确编码、或以 * 结尾的前缀
func (s *RuleStore) RulesForZone(ctx context.Context, zoneID string) ([]model.RuleRecord, error) {
	code := strings.ToLower(strings.TrimSpace(zoneID))
	matching := s.db.Model(&entity.RuleScope{}).
		Select("rule_id").
		Where("pattern = ? OR pattern = ? OR (pattern LIKE ? AND ? LIKE REPLACE(pattern, '*', '%'))",
			code, model.ScopeWildcard, "%*", code)

	var rows []entity.RuleRecord
	err := s.db.WithContext(ctx).
		Where("id IN (?)", matching).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, errorutil.RetriableWithCause("failed to query rules", err)
	}

	records := make([]model.RuleRecord, 0, len(rows))
	for _, row := range rows {
		record, err := toRuleModel(row)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", row.ID, err)
		}
		records = append(records, record)
	}
	return records, nil
}

// ZonesForGeometry 外包框预筛候选分区，精确相交由调用方判断
func (s *RuleStore) ZonesForGeometry(ctx context.Context, g orb.Geometry) ([]rules.ZoneCandidate, error) {
	b := g.Bound()
	var rows []entity.Zone
	err := s.db.WithContext(ctx).
		Where("min_x <= ? AND max_x >= ? AND min_y <= ? AND max_y >= ?", b.Max.X(), b.Min.X(), b.Max.Y(), b.Min.Y()).
		Order("code").
		Find(&rows).Error
	if err != nil {
		return nil, errorutil.RetriableWithCause("failed to query zones", err)
	}

	candidates := make([]rules.ZoneCandidate, 0, len(rows))
	for _, row := range rows {
		if row.Geometry == "" {
			continue
		}
		zoneGeom, err := geom.Parse(row.Geometry)
		if err != nil {
			return nil, fmt.Errorf("zone %s geometry: %w", row.Code, err)
		}
		candidates = append(candidates, rules.ZoneCandidate{Zone: toZoneModel(row), Geometry: zoneGeom})
	}
	return candidates, nil
}

// SaveZone 插入或更新分区，g 为空时不记录几何
func (s *RuleStore) SaveZone(ctx context.Context, zone model.Zone, g orb.Geometry) error {
	row := entity.Zone{
		Code:     zone.Code,
		Name:     zone.Name,
		ZoneType: zone.ZoneType,
		Commune:  zone.Commune,
		Canton:   zone.Canton,
	}
	if g != nil {
		b := g.Bound()
		row.Geometry = geom.MarshalWKT(g)
		row.MinX, row.MinY, row.MaxX, row.MaxY = b.Min.X(), b.Min.Y(), b.Max.X(), b.Max.Y()
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save zone %s: %w", zone.Code, err)
	}
	return nil
}

// SaveRules 插入或替换规定记录及其范围
func (s *RuleStore) SaveRules(ctx context.Context, records []model.RuleRecord) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, record := range records {
			row, err := toRuleEntity(record)
			if err != nil {
				return fmt.Errorf("rule %s: %w", record.ID, err)
			}
			if err := tx.Where("rule_id = ?", row.ID).Delete(&entity.RuleScope{}).Error; err != nil {
				return fmt.Errorf("failed to clear scopes of rule %s: %w", row.ID, err)
			}
			if err := tx.Where("id = ?", row.ID).Delete(&entity.RuleRecord{}).Error; err != nil {
				return fmt.Errorf("failed to replace rule %s: %w", row.ID, err)
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("failed to save rule %s: %w", row.ID, err)
			}
		}
		return nil
	})
}

func toZoneModel(row entity.Zone) model.Zone {
	return model.Zone{
		Code:     row.Code,
		Name:     row.Name,
		ZoneType: row.ZoneType,
		Commune:  row.Commune,
		Canton:   row.Canton,
	}
}

func toRuleEntity(r model.RuleRecord) (entity.RuleRecord, error) {
	if r.ID == "" {
		return entity.RuleRecord{}, errors.New("id is required")
	}
	if r.Value == nil {
		return entity.RuleRecord{}, model.ErrEmptyValue
	}
	value, err := json.Marshal(r.Value)
	if err != nil {
		return entity.RuleRecord{}, fmt.Errorf("marshal value: %w", err)
	}
	scope, err := json.Marshal(r.ZoneScope)
	if err != nil {
		return entity.RuleRecord{}, fmt.Errorf("marshal zone scope: %w", err)
	}

	row := entity.RuleRecord{
		ID:          r.ID,
		Field:       string(r.Field),
		Value:       value,
		Level:       int(r.Level),
		ZoneScope:   scope,
		Description: r.Description,
		Source:      r.Source,
	}
	if !r.EffectiveDate.IsZero() {
		date := r.EffectiveDate.UTC()
		row.EffectiveDate = &date
	}

	patterns := map[string]bool{}
	for _, p := range r.ZoneScope {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			p = model.ScopeWildcard
		}
		patterns[p] = true
	}
	if len(patterns) == 0 {
		patterns[model.ScopeWildcard] = true
	}
	for p := range patterns {
		row.Scopes = append(row.Scopes, entity.RuleScope{RuleID: r.ID, Pattern: p})
	}
	return row, nil
}

func toRuleModel(row entity.RuleRecord) (model.RuleRecord, error) {
	value, err := model.ParseValueJSON(row.Value)
	if err != nil {
		return model.RuleRecord{}, err
	}
	var scope []string
	if len(row.ZoneScope) > 0 {
		if err := json.Unmarshal(row.ZoneScope, &scope); err != nil {
			return model.RuleRecord{}, fmt.Errorf("unmarshal zone scope: %w", err)
		}
	}

	record := model.RuleRecord{
		ID:          row.ID,
		Field:       model.Field(row.Field),
		Value:       value,
		Level:       model.Level(row.Level),
		ZoneScope:   scope,
		Description: row.Description,
		Source:      row.Source,
	}
	if row.EffectiveDate != nil {
		record.EffectiveDate = row.EffectiveDate.UTC()
	}
	return record, nil
}

// 确保实现接口
var (
	_ rules.RuleSource  = (*RuleStore)(nil)
	_ rules.ZoneLocator = (*RuleStore)(nil)
)
