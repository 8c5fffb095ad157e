// Package metrics 进程内 prometheus 指标，只使用 method / route / status 等低基数标签
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ContentFlow/internal/model"
)

type Metrics struct {
	reg         *prometheus.Registry
	handler     http.Handler
	reqTotal    *prometheus.CounterVec
	reqDur      *prometheus.HistogramVec
	rateLimited prometheus.Counter
	submissions prometheus.Counter
	decisions   *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		reqTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by method, route, and status",
		}, []string{"method", "route", "status"}),
		reqDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Request latency by method and route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "http_requests_rate_limited_total",
			Help: "Total requests rejected by the auth rate limiter",
		}),
		submissions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "contentflow_submissions_total",
			Help: "Total content submissions",
		}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contentflow_decisions_total",
			Help: "Total moderation decisions by resulting status",
		}, []string{"status"}),
	}
	reg.MustRegister(m.reqTotal, m.reqDur, m.rateLimited, m.submissions, m.decisions)

	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	m.reg = reg
	return m
}

func (m *Metrics) Handler() http.Handler {
	return m.handler
}

// ObserveRequest route 为路由模板（如 /api/content/:id/approve），未匹配的路由记为 unmatched
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.reqTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.reqDur.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) IncRateLimited() {
	m.rateLimited.Inc()
}

func (m *Metrics) Submitted() {
	m.submissions.Inc()
}

func (m *Metrics) Decided(status model.Status) {
	m.decisions.WithLabelValues(string(status)).Inc()
}
