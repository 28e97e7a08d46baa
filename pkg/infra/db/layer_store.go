package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"urbaplan/internal/business/contextlayer"
	"urbaplan/internal/entity"
	"urbaplan/internal/model"
	"urbaplan/pkg/errorutil"
	"urbaplan/pkg/geom"
)

// LayerStore 环境图层要素数据访问对象，实现 contextlayer.FeatureSource
type LayerStore struct {
	db *gorm.DB
}

// NewLayerStore 创建 LayerStore
func NewLayerStore(db *gorm.DB) *LayerStore {
	return &LayerStore{db: db}
}

// FeaturesInBound 外包框预筛图层要素
func (s *LayerStore) FeaturesInBound(ctx context.Context, layer model.Layer, b orb.Bound) ([]contextlayer.Feature, error) {
	var rows []entity.LayerFeature
	err := s.db.WithContext(ctx).
		Where("layer = ?", string(layer)).
		Where("min_x <= ? AND max_x >= ? AND min_y <= ? AND max_y >= ?", b.Max.X(), b.Min.X(), b.Max.Y(), b.Min.Y()).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, errorutil.RetriableWithCause(fmt.Sprintf("failed to query layer %s", layer), err)
	}

	features := make([]contextlayer.Feature, 0, len(rows))
	for _, row := range rows {
		g, err := geom.Parse(row.Geometry)
		if err != nil {
			return nil, fmt.Errorf("feature %s geometry: %w", row.ID, err)
		}
		f := contextlayer.Feature{
			ID:        row.ID,
			Layer:     model.Layer(row.Layer),
			Geometry:  g,
			ValueNum:  row.ValueNum,
			ValueText: row.ValueText,
			Label:     row.Label,
		}
		if len(row.Metadata) > 0 {
			if err := json.Unmarshal(row.Metadata, &f.Metadata); err != nil {
				return nil, fmt.Errorf("feature %s metadata: %w", row.ID, err)
			}
		}
		features = append(features, f)
	}
	return features, nil
}

// SaveFeatures 插入或更新图层要素
func (s *LayerStore) SaveFeatures(ctx context.Context, features []contextlayer.Feature) error {
	if len(features) == 0 {
		return nil
	}

	rows := make([]entity.LayerFeature, 0, len(features))
	for _, f := range features {
		if f.Geometry == nil {
			return fmt.Errorf("feature %s: %w", f.ID, geom.ErrEmptyGeometry)
		}
		b := f.Geometry.Bound()
		row := entity.LayerFeature{
			ID:        f.ID,
			Layer:     string(f.Layer),
			Geometry:  geom.MarshalWKT(f.Geometry),
			ValueNum:  f.ValueNum,
			ValueText: f.ValueText,
			Label:     f.Label,
			MinX:      b.Min.X(),
			MinY:      b.Min.Y(),
			MaxX:      b.Max.X(),
			MaxY:      b.Max.Y(),
		}
		if len(f.Metadata) > 0 {
			metadata, err := json.Marshal(f.Metadata)
			if err != nil {
				return fmt.Errorf("feature %s metadata: %w", f.ID, err)
			}
			row.Metadata = metadata
		}
		rows = append(rows, row)
	}

	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to save features: %w", err)
	}
	return nil
}

var _ contextlayer.FeatureSource = (*LayerStore)(nil)
