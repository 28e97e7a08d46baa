package db

import (
	"context"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"urbaplan/internal/business/contextlayer"
	"urbaplan/internal/model"
	"urbaplan/pkg/geom"
)

// Fixture 参考数据种子文件
//
//	zones:
//	  - {code: ZH1, name: Zone habitation, zone_type: habitation, geometry: "POLYGON(...)"}
//	rules:
//	  - {id: c-h, field: h_max_m, value: "12 m", level: CANTON, zone_scope: ["*"]}
//	features:
//	  - {id: s-1, layer: slope, geometry: "POLYGON(...)", value_num: 35}
//	labels:
//	  - {code: slope_30_45, type: constraint, texts: {fr: {short: ...}}}
type Fixture struct {
	Zones    []ZoneFixture      `yaml:"zones"`
	Rules    []RuleFixture      `yaml:"rules"`
	Features []FeatureFixture   `yaml:"features"`
	Labels   []model.LabelEntry `yaml:"labels"`
}

// ZoneFixture 分区种子
type ZoneFixture struct {
	Code     string `yaml:"code"`
	Name     string `yaml:"name"`
	ZoneType string `yaml:"zone_type"`
	Commune  string `yaml:"commune"`
	Canton   string `yaml:"canton"`
	Geometry string `yaml:"geometry"`
}

// RuleFixture 规定种子
type RuleFixture struct {
	ID            string      `yaml:"id"`
	Field         string      `yaml:"field"`
	Value         interface{} `yaml:"value"`
	Level         string      `yaml:"level"`
	ZoneScope     []string    `yaml:"zone_scope"`
	Description   string      `yaml:"description"`
	Source        string      `yaml:"source"`
	EffectiveDate string      `yaml:"effective_date"` // YYYY-MM-DD
}

// FeatureFixture 图层要素种子
type FeatureFixture struct {
	ID        string                 `yaml:"id"`
	Layer     string                 `yaml:"layer"`
	Geometry  string                 `yaml:"geometry"`
	ValueNum  *float64               `yaml:"value_num"`
	ValueText string                 `yaml:"value_text"`
	Label     string                 `yaml:"label"`
	Metadata  map[string]interface{} `yaml:"metadata"`
}

// ParseFixture 解析种子文件
func ParseFixture(r io.Reader) (*Fixture, error) {
	var f Fixture
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		if err == io.EOF {
			return &f, nil
		}
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	return &f, nil
}

// RuleRecords 转换规定种子
func (f *Fixture) RuleRecords() ([]model.RuleRecord, error) {
	records := make([]model.RuleRecord, 0, len(f.Rules))
	for _, r := range f.Rules {
		value, err := model.ParseValue(r.Value)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", r.ID, err)
		}
		level, err := model.ParseLevel(r.Level)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", r.ID, err)
		}
		record := model.RuleRecord{
			ID:          r.ID,
			Field:       model.Field(r.Field),
			Value:       value,
			Level:       level,
			ZoneScope:   r.ZoneScope,
			Description: r.Description,
			Source:      r.Source,
		}
		if r.EffectiveDate != "" {
			date, err := time.Parse("2006-01-02", r.EffectiveDate)
			if err != nil {
				return nil, fmt.Errorf("rule %s effective_date: %w", r.ID, err)
			}
			record.EffectiveDate = date
		}
		records = append(records, record)
	}
	return records, nil
}

// LayerFeatures 转换图层要素种子
func (f *Fixture) LayerFeatures() ([]contextlayer.Feature, error) {
	features := make([]contextlayer.Feature, 0, len(f.Features))
	for _, ff := range f.Features {
		g, err := geom.Parse(ff.Geometry)
		if err != nil {
			return nil, fmt.Errorf("feature %s: %w", ff.ID, err)
		}
		features = append(features, contextlayer.Feature{
			ID:        ff.ID,
			Layer:     model.Layer(ff.Layer),
			Geometry:  g,
			ValueNum:  ff.ValueNum,
			ValueText: ff.ValueText,
			Label:     ff.Label,
			Metadata:  ff.Metadata,
		})
	}
	return features, nil
}

// LoadFixture 将种子写入数据库
func LoadFixture(ctx context.Context, db *gorm.DB, f *Fixture) error {
	rulesStore := NewRuleStore(db)
	for _, z := range f.Zones {
		zone := model.Zone{Code: z.Code, Name: z.Name, ZoneType: z.ZoneType, Commune: z.Commune, Canton: z.Canton}
		if z.Geometry == "" {
			if err := rulesStore.SaveZone(ctx, zone, nil); err != nil {
				return err
			}
			continue
		}
		zoneGeom, err := geom.Parse(z.Geometry)
		if err != nil {
			return fmt.Errorf("zone %s: %w", z.Code, err)
		}
		if err := rulesStore.SaveZone(ctx, zone, zoneGeom); err != nil {
			return err
		}
	}

	records, err := f.RuleRecords()
	if err != nil {
		return err
	}
	if err := rulesStore.SaveRules(ctx, records); err != nil {
		return err
	}

	features, err := f.LayerFeatures()
	if err != nil {
		return err
	}
	if err := NewLayerStore(db).SaveFeatures(ctx, features); err != nil {
		return err
	}

	return NewLabelStore(db).SaveLabels(ctx, f.Labels)
}
