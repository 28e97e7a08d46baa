package labels

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"urbaplan/internal/model"
)

// seedFile YAML 种子文件结构
//
//	labels:
//	  - code: slope_30_45
//	    type: constraint
//	    severity: 2
//	    category: Topographie
//	    texts:
//	      fr: {short: "Pente 30-45 %", long: "..."}
type seedFile struct {
	Labels []model.LabelEntry `yaml:"labels"`
}

// ParseYAML 解析种子内容
func ParseYAML(r io.Reader) ([]model.LabelEntry, error) {
	var f seedFile
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode label seed: %w", err)
	}

	for i, e := range f.Labels {
		if e.Code == "" {
			return nil, fmt.Errorf("label %d: code is required", i)
		}
		if e.Type == "" {
			return nil, fmt.Errorf("label %s: type is required", e.Code)
		}
	}
	return f.Labels, nil
}

// YAMLFileRepository 从 YAML 文件加载标签（每次 LoadLabels 重新读取文件）
type YAMLFileRepository struct {
	Path string
}

// LoadLabels 实现 LabelRepository
func (r YAMLFileRepository) LoadLabels(context.Context) ([]model.LabelEntry, error) {
	f, err := os.Open(r.Path)
	if err != nil {
		return nil, fmt.Errorf("open label seed: %w", err)
	}
	defer f.Close()

	return ParseYAML(f)
}
