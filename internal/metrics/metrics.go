package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	requestDuration *prometheus.HistogramVec
	requestCount    *prometheus.CounterVec

	// Portfolio metrics
	portfolioScore *prometheus.GaugeVec
	portfolioValue *prometheus.GaugeVec
	tradeCount     *prometheus.CounterVec

	// Risk metrics
	riskAlertCount *prometheus.CounterVec
	monitorRuns    *prometheus.CounterVec

	narrationCount *prometheus.CounterVec
}

// New creates collectors registered on their own registry
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"route", "method", "status"},
		),

		requestCount: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),

		portfolioScore: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "portfolio_score",
				Help:      "Latest portfolio health score",
			},
			[]string{"kind"},
		),

		portfolioValue: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "portfolio_value",
				Help:      "Current portfolio value",
			},
			[]string{"kind"},
		),

		tradeCount: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "trades_total",
				Help:      "Total number of applied trades",
			},
			[]string{"kind", "side"},
		),

		riskAlertCount: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "risk_alerts_total",
				Help:      "Total number of triggered risk alerts",
			},
			[]string{"type", "severity"},
		),

		monitorRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "risk_monitor_runs_total",
				Help:      "Total number of risk monitor sweeps",
			},
			[]string{"kind", "result"},
		),

		narrationCount: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "narrations_total",
				Help:      "Total number of narration requests",
			},
			[]string{"result"},
		),
	}
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObservePortfolio records the latest score and value of a portfolio
func (m *Metrics) ObservePortfolio(kind string, score int, value float64) {
	m.portfolioScore.WithLabelValues(kind).Set(float64(score))
	m.portfolioValue.WithLabelValues(kind).Set(value)
}

// RecordTrade counts an applied trade
func (m *Metrics) RecordTrade(kind, side string) {
	m.tradeCount.WithLabelValues(kind, side).Inc()
}

// RecordRiskAlert counts a triggered alert
func (m *Metrics) RecordRiskAlert(alertType, severity string) {
	m.riskAlertCount.WithLabelValues(alertType, severity).Inc()
}

// RecordMonitorRun counts a risk sweep of one portfolio
func (m *Metrics) RecordMonitorRun(kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.monitorRuns.WithLabelValues(kind, result).Inc()
}

// RecordNarration counts a narration attempt
func (m *Metrics) RecordNarration(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.narrationCount.WithLabelValues(result).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and latency per route template
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		status := strconv.Itoa(rec.status)
		m.requestDuration.WithLabelValues(route, r.Method, status).Observe(time.Since(start).Seconds())
		m.requestCount.WithLabelValues(route, r.Method, status).Inc()
	})
}
