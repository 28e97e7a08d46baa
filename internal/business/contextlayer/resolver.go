// Package contextlayer 地块与环境图层叠加
package contextlayer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/paulmach/orb"

	"urbaplan/internal/model"
	"urbaplan/pkg/geom"
	"urbaplan/pkg/logger"
)

// DefaultLayerTimeout 单图层查询默认超时
const DefaultLayerTimeout = 2 * time.Second

// ErrLayerLookupTimeout 图层查询超时
var ErrLayerLookupTimeout = errors.New("layer lookup timeout")

// LayerError 单图层查询失败（只影响该图层）
type LayerError struct {
	Layer model.Layer
	Err   error
}

func (e *LayerError) Error() string {
	return fmt.Sprintf("layer %s: %v", e.Layer, e.Err)
}

func (e *LayerError) Unwrap() error {
	return e.Err
}

// Feature 图层要素
type Feature struct {
	ID        string
	Layer     model.Layer
	Geometry  orb.Geometry
	ValueNum  *float64
	ValueText string
	Label     string
	Metadata  map[string]interface{}
}

// FeatureSource 图层要素来源，可按外包框预筛（返回超集即可）
type FeatureSource interface {
	FeaturesInBound(ctx context.Context, layer model.Layer, bound orb.Bound) ([]Feature, error)
}

// Observer 图层查询指标回调
type Observer interface {
	ObserveLayerLookup(layer string, elapsed time.Duration, outcome string)
}

// 查询结果
const (
	OutcomeOK      = "ok"
	OutcomeTimeout = "timeout"
	OutcomeError   = "error"
)

// LayerResult 单图层查询结果，Err 非空时 Flags 为空
type LayerResult struct {
	Layer model.Layer
	Flags []model.ContextFlag
	Err   error
}

// Resolver 环境图层解析器
type Resolver struct {
	source   FeatureSource
	catalog  []layerSpec
	timeout  time.Duration
	logger   logger.Logger
	observer Observer
}

// NewResolver 创建解析器；timeout <= 0 时使用 DefaultLayerTimeout
func NewResolver(source FeatureSource, timeout time.Duration, log logger.Logger, observer Observer) *Resolver {
	if timeout <= 0 {
		timeout = DefaultLayerTimeout
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Resolver{
		source:   source,
		catalog:  catalog,
		timeout:  timeout,
		logger:   log,
		observer: observer,
	}
}

// Layers 图层目录（扫描顺序）
func Layers() []model.Layer {
	out := make([]model.Layer, 0, len(catalog))
	for _, spec := range catalog {
		out = append(out, spec.layer)
	}
	return out
}

// GetContextForParcel 解析几何并返回全部图层标记；仅几何非法时返回错误
func (r *Resolver) GetContextForParcel(ctx context.Context, parcelID, geometryWKT string) ([]model.ContextFlag, error) {
	g, err := geom.Parse(geometryWKT)
	if err != nil {
		return nil, err
	}
	return r.ContextForGeometry(ctx, parcelID, g), nil
}

// ContextForGeometry 并发查询全部图层，按目录顺序合并成功结果，失败图层记录日志后跳过
func (r *Resolver) ContextForGeometry(ctx context.Context, parcelID string, g orb.Geometry) []model.ContextFlag {
	ctx = logger.WithParcel(ctx, parcelID, "")

	flags := make([]model.ContextFlag, 0)
	failed := 0
	for _, res := range r.Lookup(ctx, g) {
		if res.Err != nil {
			failed++
			r.logger.Warnf(ctx, "[ContextResolver] Layer skipped: %v", res.Err)
			continue
		}
		flags = append(flags, res.Flags...)
	}

	r.logger.Infof(ctx, "[ContextResolver] %d flags from %d layers (%d failed)", len(flags), len(r.catalog), failed)
	return flags
}

// Lookup 每个图层一个 goroutine，各自超时；结果按目录顺序返回
func (r *Resolver) Lookup(ctx context.Context, g orb.Geometry) []LayerResult {
	results := make([]LayerResult, len(r.catalog))

	var wg sync.WaitGroup
	for i, spec := range r.catalog {
		wg.Add(1)
		go func(i int, spec layerSpec) {
			defer wg.Done()
			results[i] = r.lookupLayer(ctx, spec, g)
		}(i, spec)
	}
	wg.Wait()

	return results
}

func (r *Resolver) lookupLayer(ctx context.Context, spec layerSpec, g orb.Geometry) LayerResult {
	layerCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan LayerResult, 1)
	go func() {
		flags, err := r.scan(layerCtx, spec, g)
		done <- LayerResult{Layer: spec.layer, Flags: flags, Err: err}
	}()

	var res LayerResult
	select {
	case res = <-done:
	case <-layerCtx.Done():
		res = LayerResult{Layer: spec.layer, Err: layerCtx.Err()}
	}

	outcome := OutcomeOK
	if res.Err != nil {
		outcome = OutcomeError
		if errors.Is(res.Err, context.DeadlineExceeded) {
			outcome = OutcomeTimeout
			res.Err = ErrLayerLookupTimeout
		}
		res = LayerResult{Layer: spec.layer, Err: &LayerError{Layer: spec.layer, Err: res.Err}}
	}

	if r.observer != nil {
		r.observer.ObserveLayerLookup(string(spec.layer), time.Since(start), outcome)
	}
	return res
}

func (r *Resolver) scan(ctx context.Context, spec layerSpec, g orb.Geometry) ([]model.ContextFlag, error) {
	bound := g.Bound()
	if spec.kind == kindDistance {
		bound = bound.Pad(spec.radius)
	}

	features, err := r.source.FeaturesInBound(ctx, spec.layer, bound)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(features, func(i, j int) bool { return features[i].ID < features[j].ID })

	if spec.kind == kindDistance {
		return nearestFlag(spec, g, features), nil
	}

	flags := make([]model.ContextFlag, 0)
	for _, f := range features {
		if f.Geometry == nil || !geom.Intersects(g, f.Geometry) {
			continue
		}
		flag := spec.flag(f)
		flag.Layer = spec.layer
		flag.Intersects = true
		flag.Metadata = withFeatureID(f)
		flags = append(flags, flag)
	}
	return flags, nil
}

// nearestFlag 距离类图层只标记最近的要素
func nearestFlag(spec layerSpec, g orb.Geometry, features []Feature) []model.ContextFlag {
	best := math.Inf(1)
	var nearest *Feature
	for i := range features {
		if features[i].Geometry == nil {
			continue
		}
		d := geom.Distance(g, features[i].Geometry)
		if d < best {
			best = d
			nearest = &features[i]
		}
	}
	if nearest == nil {
		return []model.ContextFlag{}
	}

	// 分级与展示使用同一个取整后的距离，避免在 25 m 边界两侧不一致
	distance := math.Round(best*10) / 10
	severity, ok := RoadSeverity(distance)
	if !ok {
		return []model.ContextFlag{}
	}

	flag := spec.flag(*nearest)
	flag.Layer = spec.layer
	flag.Intersects = best == 0
	flag.Distance = &distance
	flag.Severity = severity
	flag.Message = fmt.Sprintf("%s à %.0f m", flag.Message, distance)
	flag.Metadata = withFeatureID(*nearest)
	return []model.ContextFlag{flag}
}

func withFeatureID(f Feature) map[string]interface{} {
	md := make(map[string]interface{}, len(f.Metadata)+1)
	for k, v := range f.Metadata {
		md[k] = v
	}
	if f.ID != "" {
		md["feature_id"] = f.ID
	}
	return md
}
