package contextfmt

import (
	"sort"
	"strconv"

	"urbaplan/internal/business/summarizer"
	"urbaplan/internal/model"
)

// 格式化参数
const (
	DefaultMaxMessages = 5
	MaxWords           = summarizer.DefaultMaxWords
	DetailKeywords     = 3 // 每条详细消息的关键词数
)

// Labeler 标签查询（labels.Dictionary 实现）
type Labeler interface {
	Lookup(code string, typ model.LabelType, lang string, long bool) (string, bool)
	GetSeverity(code string, typ model.LabelType) int
}

// Formatter 约束消息格式化器
type Formatter struct {
	labels Labeler
}

// NewFormatter 创建格式化器；labels 为空时全部使用原始消息
func NewFormatter(labels Labeler) *Formatter {
	return &Formatter{labels: labels}
}

// Severity 标记的有效严重程度：标记自带 → 字典 → 图层默认
func (f *Formatter) Severity(flag model.ContextFlag) int {
	if flag.Severity > 0 {
		return flag.Severity
	}
	if f.labels != nil {
		if s := f.labels.GetSeverity(ConstraintCode(flag), model.LabelTypeConstraint); s > 0 {
			return s
		}
	}
	info, _ := LayerCategory(flag.Layer)
	return info.DefaultSeverity
}

// bySeverity 按严重程度降序稳定排序（同级保持图层扫描顺序）
func (f *Formatter) bySeverity(flags []model.ContextFlag) []model.ContextFlag {
	sorted := make([]model.ContextFlag, len(flags))
	copy(sorted, flags)
	sort.SliceStable(sorted, func(i, j int) bool {
		return f.Severity(sorted[i]) > f.Severity(sorted[j])
	})
	return sorted
}

// text 字典标签（约束类型），缺失时回退到原始消息
func (f *Formatter) text(flag model.ContextFlag, lang string, long bool) string {
	if f.labels != nil {
		if label, ok := f.labels.Lookup(ConstraintCode(flag), model.LabelTypeConstraint, lang, long); ok {
			return label
		}
	}
	return flag.Message
}

// Summarize 生成按严重程度排序、去重、每条不超过 12 个单词的短消息，最多 maxMessages 条
func (f *Formatter) Summarize(flags []model.ContextFlag, lang string, maxMessages int) []string {
	if maxMessages <= 0 {
		maxMessages = DefaultMaxMessages
	}

	messages := make([]string, 0, len(flags))
	for _, flag := range f.bySeverity(flags) {
		msg := summarizer.TruncateWords(f.text(flag, lang, false), MaxWords)
		if msg != "" {
			messages = append(messages, msg)
		}
	}

	messages = summarizer.Dedupe(messages)
	if len(messages) > maxMessages {
		messages = messages[:maxMessages]
	}
	return messages
}

// FormatDetailed 生成明细（编码、类别、短/长文本），按严重程度排序并按编码去重
func (f *Formatter) FormatDetailed(flags []model.ContextFlag, lang string) []model.DetailedMessage {
	out := make([]model.DetailedMessage, 0, len(flags))
	seen := make(map[string]struct{}, len(flags))

	for _, flag := range f.bySeverity(flags) {
		code := ConstraintCode(flag)
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}

		info, _ := LayerCategory(flag.Layer)
		long := f.text(flag, lang, true)
		out = append(out, model.DetailedMessage{
			Code:     code,
			Layer:    flag.Layer,
			Category: f.categoryLabel(info, lang),
			Severity: f.Severity(flag),
			Short:    summarizer.TruncateWords(f.text(flag, lang, false), MaxWords),
			Long:     long,
			Value:    flagValue(flag),
			Distance: flag.Distance,
			Keywords: summarizer.Keywords(long, DetailKeywords),
		})
	}
	return out
}

// GroupByCategory 按类别分组；组内按严重程度降序，组按最高严重程度降序、同级按图层表顺序
func (f *Formatter) GroupByCategory(flags []model.ContextFlag, lang string) []model.CategoryGroup {
	type bucket struct {
		info  LayerInfo
		flags []model.ContextFlag
		max   int
	}

	buckets := make(map[string]*bucket)
	for _, flag := range f.bySeverity(flags) {
		info, _ := LayerCategory(flag.Layer)
		b, ok := buckets[info.CategoryCode]
		if !ok {
			b = &bucket{info: info}
			buckets[info.CategoryCode] = b
		}
		b.flags = append(b.flags, flag)
		if s := f.Severity(flag); s > b.max {
			b.max = s
		}
	}

	ordered := make([]*bucket, 0, len(buckets))
	for _, b := range buckets {
		ordered = append(ordered, b)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].max != ordered[j].max {
			return ordered[i].max > ordered[j].max
		}
		return ordered[i].info.order < ordered[j].info.order
	})

	groups := make([]model.CategoryGroup, 0, len(ordered))
	for _, b := range ordered {
		messages := make([]string, 0, len(b.flags))
		for _, flag := range b.flags {
			messages = append(messages, f.text(flag, lang, false))
		}
		groups = append(groups, model.CategoryGroup{
			Category: b.info.CategoryCode,
			Label:    f.categoryLabel(b.info, lang),
			Summary:  summarizer.Combine(messages, MaxWords),
			Flags:    b.flags,
		})
	}
	return groups
}

func (f *Formatter) categoryLabel(info LayerInfo, lang string) string {
	if f.labels != nil {
		if label, ok := f.labels.Lookup(info.CategoryCode, model.LabelTypeCategory, lang, false); ok {
			return label
		}
	}
	return info.Category
}

func flagValue(flag model.ContextFlag) string {
	if flag.ValueText != "" {
		return flag.ValueText
	}
	if flag.ValueNum != nil {
		return strconv.FormatFloat(*flag.ValueNum, 'f', -1, 64)
	}
	return ""
}
