package entity

import (
	"time"

	"gorm.io/datatypes"
)

// Label 标签字典条目，Texts 为 {lang: {short, long}}
type Label struct {
	ID       uint           `gorm:"column:id;primaryKey;autoIncrement"`
	Code     string         `gorm:"column:code;type:varchar(128);not null;uniqueIndex:uk_label_type_code"`
	Type     string         `gorm:"column:type;type:varchar(32);not null;uniqueIndex:uk_label_type_code"`
	Texts    datatypes.JSON `gorm:"column:texts;type:json;not null"`
	Severity int            `gorm:"column:severity;not null;default:0"`
	Category string         `gorm:"column:category;type:varchar(64)"`

	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// TableName 指定表名
func (Label) TableName() string {
	return "labels"
}
