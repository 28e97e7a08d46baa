package entity

import (
	"time"

	"gorm.io/datatypes"
)

// RuleRecord 规划规定记录
type RuleRecord struct {
	ID            string         `gorm:"column:id;primaryKey;type:varchar(64)"`
	Field         string         `gorm:"column:field;type:varchar(64);not null;index:idx_rule_field"`
	Value         datatypes.JSON `gorm:"column:value;type:json;not null"`
	Level         int            `gorm:"column:level;not null"`
	ZoneScope     datatypes.JSON `gorm:"column:zone_scope;type:json"`
	Description   string         `gorm:"column:description;type:text"`
	Source        string         `gorm:"column:source;type:varchar(255)"`
	EffectiveDate *time.Time     `gorm:"column:effective_date"`

	Scopes []RuleScope `gorm:"foreignKey:RuleID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

// TableName 指定表名
func (RuleRecord) TableName() string {
	return "rule_records"
}

// RuleScope 规定适用范围（每个编码或模式一行，便于按分区查询）
type RuleScope struct {
	ID      uint   `gorm:"column:id;primaryKey;autoIncrement"`
	RuleID  string `gorm:"column:rule_id;type:varchar(64);not null;index:idx_scope_rule"`
	Pattern string `gorm:"column:pattern;type:varchar(64);not null;index:idx_scope_pattern"`
}

// TableName 指定表名
func (RuleScope) TableName() string {
	return "rule_scopes"
}
