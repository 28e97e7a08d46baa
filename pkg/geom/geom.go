// Package geom 地块与图层几何运算（LV95 平面坐标，单位米）
package geom

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// 几何错误
var (
	ErrEmptyGeometry   = errors.New("geometry is empty")
	ErrInvalidGeometry = errors.New("geometry is invalid")
)

const epsilon = 1e-9

// Parse 解析 WKT 或 GeoJSON（以 '{' 开头）几何
func Parse(s string) (orb.Geometry, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, ErrEmptyGeometry
	}

	var (
		g   orb.Geometry
		err error
	)
	if strings.HasPrefix(trimmed, "{") {
		var gj *geojson.Geometry
		gj, err = geojson.UnmarshalGeometry([]byte(trimmed))
		if err == nil {
			g = gj.Geometry()
		}
	} else {
		g, err = wkt.Unmarshal(trimmed)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}

	return normalize(g)
}

// MarshalWKT 输出 WKT
func MarshalWKT(g orb.Geometry) string {
	return wkt.MarshalString(g)
}

// normalize 闭合多边形环并检查坐标
func normalize(g orb.Geometry) (orb.Geometry, error) {
	switch v := g.(type) {
	case nil:
		return nil, ErrEmptyGeometry
	case orb.Polygon:
		return closePolygon(v)
	case orb.MultiPolygon:
		if len(v) == 0 {
			return nil, ErrEmptyGeometry
		}
		out := make(orb.MultiPolygon, 0, len(v))
		for _, p := range v {
			closed, err := closePolygon(p)
			if err != nil {
				return nil, err
			}
			out = append(out, closed)
		}
		return out, nil
	case orb.Collection:
		out := make(orb.Collection, 0, len(v))
		for _, item := range v {
			n, err := normalize(item)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
		return out, nil
	}

	for _, p := range vertices(g) {
		if !finite(p) {
			return nil, fmt.Errorf("%w: non-finite coordinate", ErrInvalidGeometry)
		}
	}
	if len(vertices(g)) == 0 {
		return nil, ErrEmptyGeometry
	}
	return g, nil
}

func closePolygon(p orb.Polygon) (orb.Polygon, error) {
	if len(p) == 0 {
		return nil, ErrEmptyGeometry
	}
	out := make(orb.Polygon, 0, len(p))
	for _, ring := range p {
		if len(ring) > 0 && !ring[0].Equal(ring[len(ring)-1]) {
			ring = append(append(orb.Ring{}, ring...), ring[0])
		}
		if len(ring) < 4 {
			return nil, fmt.Errorf("%w: ring needs at least 3 distinct points", ErrInvalidGeometry)
		}
		for _, pt := range ring {
			if !finite(pt) {
				return nil, fmt.Errorf("%w: non-finite coordinate", ErrInvalidGeometry)
			}
		}
		out = append(out, ring)
	}
	return out, nil
}

func finite(p orb.Point) bool {
	return !math.IsNaN(p[0]) && !math.IsNaN(p[1]) && !math.IsInf(p[0], 0) && !math.IsInf(p[1], 0)
}

// Area 平面面积（m²），非面状几何为 0
func Area(g orb.Geometry) float64 {
	return math.Abs(planar.Area(g))
}

// IsAreal 是否为面状几何
func IsAreal(g orb.Geometry) bool {
	switch v := g.(type) {
	case orb.Polygon, orb.MultiPolygon, orb.Ring, orb.Bound:
		return true
	case orb.Collection:
		for _, item := range v {
			if IsAreal(item) {
				return true
			}
		}
	}
	return false
}

// Contains 面状几何是否包含点（边界上视为包含）
func Contains(g orb.Geometry, p orb.Point) bool {
	switch v := g.(type) {
	case orb.Polygon:
		return planar.PolygonContains(v, p) || onBoundary(v, p)
	case orb.MultiPolygon:
		for _, poly := range v {
			if Contains(poly, p) {
				return true
			}
		}
	case orb.Ring:
		return Contains(orb.Polygon{v}, p)
	case orb.Bound:
		return v.Contains(p)
	case orb.Collection:
		for _, item := range v {
			if Contains(item, p) {
				return true
			}
		}
	}
	return false
}

func onBoundary(g orb.Geometry, p orb.Point) bool {
	for _, s := range segments(g) {
		if pointSegmentDistance(p, s[0], s[1]) < epsilon {
			return true
		}
	}
	return false
}

// Intersects 两个几何是否相交（含接触）
func Intersects(a, b orb.Geometry) bool {
	if a == nil || b == nil {
		return false
	}
	if !a.Bound().Intersects(b.Bound()) {
		return false
	}

	segA, segB := segments(a), segments(b)
	for _, sa := range segA {
		for _, sb := range segB {
			if segmentsIntersect(sa[0], sa[1], sb[0], sb[1]) {
				return true
			}
		}
	}

	// 一方完全位于另一方内部
	if IsAreal(b) {
		for _, p := range vertices(a) {
			if Contains(b, p) {
				return true
			}
		}
	}
	if IsAreal(a) {
		for _, p := range vertices(b) {
			if Contains(a, p) {
				return true
			}
		}
	}
	return false
}

// Distance 两个几何间最小平面距离，相交时为 0
func Distance(a, b orb.Geometry) float64 {
	if Intersects(a, b) {
		return 0
	}

	best := math.Inf(1)
	segA, segB := segments(a), segments(b)
	for _, p := range vertices(a) {
		for _, s := range segB {
			best = math.Min(best, pointSegmentDistance(p, s[0], s[1]))
		}
	}
	for _, p := range vertices(b) {
		for _, s := range segA {
			best = math.Min(best, pointSegmentDistance(p, s[0], s[1]))
		}
	}
	return best
}

// CoverageShare 地块被另一几何覆盖的比例（网格采样近似，grid×grid 个采样点）
func CoverageShare(parcel, other orb.Geometry, grid int) float64 {
	if grid <= 0 {
		grid = 20
	}

	samples := samplePoints(parcel, grid)
	if len(samples) == 0 {
		return 0
	}

	inside := 0
	for _, p := range samples {
		if Contains(other, p) {
			inside++
		}
	}
	return float64(inside) / float64(len(samples))
}

func samplePoints(g orb.Geometry, grid int) []orb.Point {
	if !IsAreal(g) {
		return vertices(g)
	}

	b := g.Bound()
	dx := (b.Max[0] - b.Min[0]) / float64(grid)
	dy := (b.Max[1] - b.Min[1]) / float64(grid)
	points := make([]orb.Point, 0, grid*grid)
	for i := 0; i < grid; i++ {
		for j := 0; j < grid; j++ {
			p := orb.Point{b.Min[0] + (float64(i)+0.5)*dx, b.Min[1] + (float64(j)+0.5)*dy}
			if Contains(g, p) {
				points = append(points, p)
			}
		}
	}
	if len(points) == 0 {
		return vertices(g)
	}
	return points
}

// vertices 收集全部顶点
func vertices(g orb.Geometry) []orb.Point {
	switch v := g.(type) {
	case orb.Point:
		return []orb.Point{v}
	case orb.MultiPoint:
		return append([]orb.Point{}, v...)
	case orb.LineString:
		return append([]orb.Point{}, v...)
	case orb.Ring:
		return append([]orb.Point{}, v...)
	case orb.MultiLineString:
		var out []orb.Point
		for _, ls := range v {
			out = append(out, ls...)
		}
		return out
	case orb.Polygon:
		var out []orb.Point
		for _, r := range v {
			out = append(out, r...)
		}
		return out
	case orb.MultiPolygon:
		var out []orb.Point
		for _, p := range v {
			out = append(out, vertices(p)...)
		}
		return out
	case orb.Bound:
		return vertices(v.ToPolygon())
	case orb.Collection:
		var out []orb.Point
		for _, item := range v {
			out = append(out, vertices(item)...)
		}
		return out
	}
	return nil
}

// segments 收集全部线段；点退化为零长度线段
func segments(g orb.Geometry) [][2]orb.Point {
	var out [][2]orb.Point
	addPath := func(path []orb.Point) {
		if len(path) == 1 {
			out = append(out, [2]orb.Point{path[0], path[0]})
			return
		}
		for i := 0; i+1 < len(path); i++ {
			out = append(out, [2]orb.Point{path[i], path[i+1]})
		}
	}

	switch v := g.(type) {
	case orb.Point:
		addPath([]orb.Point{v})
	case orb.MultiPoint:
		for _, p := range v {
			addPath([]orb.Point{p})
		}
	case orb.LineString:
		addPath(v)
	case orb.Ring:
		addPath(v)
	case orb.MultiLineString:
		for _, ls := range v {
			addPath(ls)
		}
	case orb.Polygon:
		for _, r := range v {
			addPath(r)
		}
	case orb.MultiPolygon:
		for _, p := range v {
			out = append(out, segments(p)...)
		}
	case orb.Bound:
		out = append(out, segments(v.ToPolygon())...)
	case orb.Collection:
		for _, item := range v {
			out = append(out, segments(item)...)
		}
	}
	return out
}

func cross(o, a, b orb.Point) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}

func sign(v float64) int {
	switch {
	case v > epsilon:
		return 1
	case v < -epsilon:
		return -1
	}
	return 0
}

func onSegment(p, a, b orb.Point) bool {
	return math.Min(a[0], b[0])-epsilon <= p[0] && p[0] <= math.Max(a[0], b[0])+epsilon &&
		math.Min(a[1], b[1])-epsilon <= p[1] && p[1] <= math.Max(a[1], b[1])+epsilon
}

func segmentsIntersect(p1, p2, q1, q2 orb.Point) bool {
	d1 := sign(cross(q1, q2, p1))
	d2 := sign(cross(q1, q2, p2))
	d3 := sign(cross(p1, p2, q1))
	d4 := sign(cross(p1, p2, q2))

	if d1*d2 < 0 && d3*d4 < 0 {
		return true
	}
	if d1 == 0 && onSegment(p1, q1, q2) {
		return true
	}
	if d2 == 0 && onSegment(p2, q1, q2) {
		return true
	}
	if d3 == 0 && onSegment(q1, p1, p2) {
		return true
	}
	if d4 == 0 && onSegment(q2, p1, p2) {
		return true
	}
	return false
}

func pointSegmentDistance(p, a, b orb.Point) float64 {
	dx, dy := b[0]-a[0], b[1]-a[1]
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(p[0]-a[0], p[1]-a[1])
	}
	t := ((p[0]-a[0])*dx + (p[1]-a[1])*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(p[0]-(a[0]+t*dx), p[1]-(a[1]+t*dy))
}
