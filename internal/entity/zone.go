package entity

import "time"

// Zone 规划分区（几何以 WKT 存储，外包框用于 SQL 预筛）
type Zone struct {
	Code     string `gorm:"column:code;primaryKey;type:varchar(64)"`
	Name     string `gorm:"column:name;type:varchar(255)"`
	ZoneType string `gorm:"column:zone_type;type:varchar(64)"`
	Commune  string `gorm:"column:commune;type:varchar(128);index:idx_zone_commune"`
	Canton   string `gorm:"column:canton;type:varchar(8)"`

	// 几何
	Geometry string  `gorm:"column:geometry;type:text"`
	MinX     float64 `gorm:"column:min_x;index:idx_zone_bbox"`
	MinY     float64 `gorm:"column:min_y;index:idx_zone_bbox"`
	MaxX     float64 `gorm:"column:max_x;index:idx_zone_bbox"`
	MaxY     float64 `gorm:"column:max_y;index:idx_zone_bbox"`

	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// TableName 指定表名
func (Zone) TableName() string {
	return "zones"
}
