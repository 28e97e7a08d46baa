// Package metrics Prometheus 指标
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "urbaplan"

// Metrics 指标集合，每个进程一个实例
type Metrics struct {
	registry *prometheus.Registry

	layerLookupSeconds *prometheus.HistogramVec
	layerLookups       *prometheus.CounterVec
	reports            *prometheus.CounterVec
	jobs               *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	labelRefreshes     *prometheus.CounterVec
}

// New 创建指标并注册到独立 registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		layerLookupSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layer_lookup_seconds",
			Help:      "Context layer lookup latency.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"layer"}),
		layerLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layer_lookups_total",
			Help:      "Context layer lookups by outcome.",
		}, []string{"layer", "outcome"}),
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feasibility_reports_total",
			Help:      "Feasibility reports generated by zone status.",
		}, []string{"zone_status"}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feasibility_jobs_total",
			Help:      "Feasibility jobs processed by result.",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		labelRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "label_refreshes_total",
			Help:      "Label dictionary refreshes by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		m.layerLookupSeconds,
		m.layerLookups,
		m.reports,
		m.jobs,
		m.httpRequests,
		m.labelRefreshes,
		collectors.NewGoCollector(),
	)
	return m
}

// ObserveLayerLookup 实现 contextlayer.Observer
func (m *Metrics) ObserveLayerLookup(layer string, elapsed time.Duration, outcome string) {
	m.layerLookupSeconds.WithLabelValues(layer).Observe(elapsed.Seconds())
	m.layerLookups.WithLabelValues(layer, outcome).Inc()
}

// ReportGenerated 记录一次报告生成
func (m *Metrics) ReportGenerated(zoneStatus string) {
	m.reports.WithLabelValues(zoneStatus).Inc()
}

// JobProcessed 记录一次任务处理（success / retry / failed）
func (m *Metrics) JobProcessed(result string) {
	m.jobs.WithLabelValues(result).Inc()
}

// HTTPRequest 记录一次 HTTP 请求
func (m *Metrics) HTTPRequest(route string, code string) {
	m.httpRequests.WithLabelValues(route, code).Inc()
}

// LabelRefresh 记录一次标签刷新
func (m *Metrics) LabelRefresh(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	m.labelRefreshes.WithLabelValues(result).Inc()
}

// Registry 底层 registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
