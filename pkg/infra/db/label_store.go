package db

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"urbaplan/internal/business/labels"
	"urbaplan/internal/entity"
	"urbaplan/internal/model"
	"urbaplan/pkg/errorutil"
)

// LabelStore 标签字典数据访问对象，实现 labels.LabelRepository
type LabelStore struct {
	db *gorm.DB
}

// NewLabelStore 创建 LabelStore
func NewLabelStore(db *gorm.DB) *LabelStore {
	return &LabelStore{db: db}
}

// LoadLabels 读取全部标签
func (s *LabelStore) LoadLabels(ctx context.Context) ([]model.LabelEntry, error) {
	var rows []entity.Label
	if err := s.db.WithContext(ctx).Order("type, code").Find(&rows).Error; err != nil {
		return nil, errorutil.RetriableWithCause("failed to load labels", err)
	}

	entries := make([]model.LabelEntry, 0, len(rows))
	for _, row := range rows {
		var texts map[string]model.LabelText
		if err := json.Unmarshal(row.Texts, &texts); err != nil {
			return nil, fmt.Errorf("label %s:%s texts: %w", row.Type, row.Code, err)
		}
		entries = append(entries, model.LabelEntry{
			Code:     row.Code,
			Type:     model.LabelType(row.Type),
			Texts:    texts,
			Severity: row.Severity,
			Category: row.Category,
		})
	}
	return entries, nil
}

// SaveLabels 按 (type, code) 插入或更新标签
func (s *LabelStore) SaveLabels(ctx context.Context, entries []model.LabelEntry) error {
	if len(entries) == 0 {
		return nil
	}

	rows := make([]entity.Label, 0, len(entries))
	for _, e := range entries {
		texts, err := json.Marshal(e.Texts)
		if err != nil {
			return fmt.Errorf("label %s texts: %w", e.Code, err)
		}
		rows = append(rows, entity.Label{
			Code:     e.Code,
			Type:     string(e.Type),
			Texts:    texts,
			Severity: e.Severity,
			Category: e.Category,
		})
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "type"}, {Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"texts", "severity", "category", "updated_at"}),
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to save labels: %w", err)
	}
	return nil
}

var _ labels.LabelRepository = (*LabelStore)(nil)
