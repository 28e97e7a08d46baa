package entity

import (
	"time"

	"gorm.io/datatypes"
)

// LayerFeature 环境图层要素
type LayerFeature struct {
	ID        string         `gorm:"column:id;primaryKey;type:varchar(64)"`
	Layer     string         `gorm:"column:layer;type:varchar(32);not null;index:idx_feature_layer_bbox"`
	Geometry  string         `gorm:"column:geometry;type:text;not null"`
	ValueNum  *float64       `gorm:"column:value_num"`
	ValueText string         `gorm:"column:value_text;type:varchar(255)"`
	Label     string         `gorm:"column:label;type:varchar(255)"`
	Metadata  datatypes.JSON `gorm:"column:metadata;type:json"`

	MinX float64 `gorm:"column:min_x;index:idx_feature_layer_bbox"`
	MinY float64 `gorm:"column:min_y;index:idx_feature_layer_bbox"`
	MaxX float64 `gorm:"column:max_x"`
	MaxY float64 `gorm:"column:max_y"`

	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

// TableName 指定表名
func (LayerFeature) TableName() string {
	return "layer_features"
}
