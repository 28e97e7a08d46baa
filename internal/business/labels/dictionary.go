// Package labels 多语言标签字典
package labels

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/atomic"

	"urbaplan/internal/model"
	"urbaplan/pkg/logger"
)

// emptyCode 编码为空时的展示文本
const emptyCode = "-"

// LabelRepository 标签数据来源（数据库、YAML 种子文件等）
type LabelRepository interface {
	LoadLabels(ctx context.Context) ([]model.LabelEntry, error)
}

// LabelRequest 批量查询项
type LabelRequest struct {
	Code string          `json:"code"`
	Type model.LabelType `json:"type"`
	Lang string          `json:"lang"`
	Long bool            `json:"long"`
}

// Key 批量结果中的键：<type>:<code>:<lang>，长文本追加 :long；未指定语言记为 fr
func (r LabelRequest) Key() string {
	lang := strings.ToLower(strings.TrimSpace(r.Lang))
	if lang == "" {
		lang = model.LangFR
	}
	key := string(r.Type) + ":" + r.Code + ":" + lang
	if r.Long {
		key += ":long"
	}
	return key
}

type entryKey struct {
	typ  model.LabelType
	code string
}

// snapshot 不可变快照，发布后只读
type snapshot struct {
	entries  map[entryKey]model.LabelEntry
	loadedAt time.Time
}

func newSnapshot(entries []model.LabelEntry, at time.Time) *snapshot {
	s := &snapshot{
		entries:  make(map[entryKey]model.LabelEntry, len(entries)),
		loadedAt: at,
	}
	for _, e := range entries {
		if e.Code == "" {
			continue
		}
		s.entries[entryKey{typ: e.Type, code: e.Code}] = e
	}
	return s
}

// Dictionary 标签字典
// 读路径只读取当前快照；Refresh 构建新快照后原子替换，读者无需加锁
type Dictionary struct {
	repo     LabelRepository
	logger   logger.Logger
	observer RefreshObserver

	current *atomic.Pointer[snapshot]
	stale   *atomic.Bool
	refresh sync.Mutex // 串行化刷新
}

// NewDictionary 创建字典（初始为空且标记为待加载）
func NewDictionary(repo LabelRepository, log logger.Logger) *Dictionary {
	if log == nil {
		log = logger.NewNop()
	}
	return &Dictionary{
		repo:    repo,
		logger:  log,
		current: atomic.NewPointer(newSnapshot(nil, time.Time{})),
		stale:   atomic.NewBool(true),
	}
}

// RefreshObserver 刷新指标回调
type RefreshObserver interface {
	LabelRefresh(ok bool)
}

// SetObserver 设置刷新指标回调（启动时调用一次）
func (d *Dictionary) SetObserver(o RefreshObserver) {
	d.observer = o
}

// NewStaticDictionary 由固定条目构建已加载的字典（CLI fixture 与测试使用）
func NewStaticDictionary(entries []model.LabelEntry) *Dictionary {
	d := NewDictionary(StaticRepository(entries), nil)
	d.current.Store(newSnapshot(entries, time.Now()))
	d.stale.Store(false)
	return d
}

// Refresh 从仓库重新加载并原子替换快照；加载失败时保留旧快照
func (d *Dictionary) Refresh(ctx context.Context) error {
	d.refresh.Lock()
	defer d.refresh.Unlock()

	if d.repo == nil {
		return fmt.Errorf("label repository is not configured")
	}

	start := time.Now()
	entries, err := d.repo.LoadLabels(ctx)
	if d.observer != nil {
		d.observer.LabelRefresh(err == nil)
	}
	if err != nil {
		d.logger.Errorf(ctx, "[Labels] Refresh failed, keeping %d cached entries: %v", d.Size(), err)
		return fmt.Errorf("load labels: %w", err)
	}

	d.current.Store(newSnapshot(entries, time.Now()))
	d.stale.Store(false)

	d.logger.Infof(ctx, "[Labels] Refreshed %d entries in %v", len(entries), time.Since(start))
	return nil
}

// Clear 清空缓存，下次 EnsureLoaded 时重新加载
func (d *Dictionary) Clear() {
	d.current.Store(newSnapshot(nil, time.Time{}))
	d.stale.Store(true)
}

// EnsureLoaded 缓存为空或已清空时加载
func (d *Dictionary) EnsureLoaded(ctx context.Context) error {
	if !d.stale.Load() {
		return nil
	}
	return d.Refresh(ctx)
}

// Stale 是否待加载
func (d *Dictionary) Stale() bool {
	return d.stale.Load()
}

// Size 当前条目数
func (d *Dictionary) Size() int {
	return len(d.current.Load().entries)
}

// LoadedAt 当前快照加载时间
func (d *Dictionary) LoadedAt() time.Time {
	return d.current.Load().loadedAt
}

// Entry 查询原始条目
func (d *Dictionary) Entry(code string, typ model.LabelType) (model.LabelEntry, bool) {
	e, ok := d.current.Load().entries[entryKey{typ: typ, code: code}]
	return e, ok
}

// Lookup 查询文本：请求语言（long → short）→ fr（long → short）
// 找不到任何文本时返回 false
func (d *Dictionary) Lookup(code string, typ model.LabelType, lang string, long bool) (string, bool) {
	entry, ok := d.Entry(code, typ)
	if !ok {
		return "", false
	}

	lang = strings.ToLower(strings.TrimSpace(lang))
	if text := pick(entry.Texts[lang], long); text != "" {
		return text, true
	}
	if lang != model.LangFR {
		if text := pick(entry.Texts[model.LangFR], long); text != "" {
			return text, true
		}
	}
	return "", false
}

func pick(t model.LabelText, long bool) string {
	if long && strings.TrimSpace(t.Long) != "" {
		return t.Long
	}
	if strings.TrimSpace(t.Short) != "" {
		return t.Short
	}
	return strings.TrimSpace(t.Long)
}

// GetLabel 查询展示文本，找不到时返回编码本身，从不返回空串
func (d *Dictionary) GetLabel(code string, typ model.LabelType, lang string, long bool) string {
	if text, ok := d.Lookup(code, typ, lang, long); ok {
		return text
	}
	if code == "" {
		return emptyCode
	}
	return code
}

// GetLabels 批量查询，结果键为 LabelRequest.Key()
func (d *Dictionary) GetLabels(requests []LabelRequest) map[string]string {
	out := make(map[string]string, len(requests))
	for _, r := range requests {
		out[r.Key()] = d.GetLabel(r.Code, r.Type, r.Lang, r.Long)
	}
	return out
}

// GetSeverity 条目严重程度，缺失时为 0
func (d *Dictionary) GetSeverity(code string, typ model.LabelType) int {
	e, ok := d.Entry(code, typ)
	if !ok {
		return 0
	}
	return e.Severity
}

// GetCategory 条目类别，缺失时为空
func (d *Dictionary) GetCategory(code string, typ model.LabelType) string {
	e, ok := d.Entry(code, typ)
	if !ok {
		return ""
	}
	return e.Category
}

// StaticRepository 固定条目仓库
type StaticRepository []model.LabelEntry

// LoadLabels 实现 LabelRepository
func (r StaticRepository) LoadLabels(context.Context) ([]model.LabelEntry, error) {
	out := make([]model.LabelEntry, len(r))
	copy(out, r)
	return out, nil
}
