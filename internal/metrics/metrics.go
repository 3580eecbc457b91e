package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// Launcher metrics
	launchesTotal  *prometheus.CounterVec
	childExitCodes *prometheus.CounterVec
	childDuration  prometheus.Histogram

	// Trading metrics
	tradesTotal     *prometheus.CounterVec
	tradedValue     prometheus.Counter
	riskRejections  *prometheus.CounterVec
	advisorDuration prometheus.Histogram
	sessionsTotal   *prometheus.CounterVec
	sessionDuration prometheus.Histogram
	openPositions   prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		launchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "livetrader_launches_total",
				Help: "Total number of child program launches",
			},
			[]string{"status"},
		),

		childExitCodes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "livetrader_child_exit_codes_total",
				Help: "Child process exits by exit code",
			},
			[]string{"code"},
		),

		childDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "livetrader_child_duration_seconds",
				Help:    "Child process run duration in seconds",
				Buckets: []float64{1, 5, 10, 30, 60, 300, 900, 3600},
			},
		),
	}

	reg.MustRegister(r.launchesTotal)
	reg.MustRegister(r.childExitCodes)
	reg.MustRegister(r.childDuration)

	// Trading metrics
	r.tradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livetrader_trades_total",
			Help: "Total number of trades by action and status",
		},
		[]string{"action", "status"},
	)
	r.tradedValue = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "livetrader_traded_value_dollars_total",
			Help: "Cumulative executed trade value in dollars",
		},
	)
	r.riskRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livetrader_risk_rejections_total",
			Help: "Orders rejected by risk checks",
		},
		[]string{"level"},
	)
	r.advisorDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "livetrader_advisor_duration_seconds",
			Help:    "Advisor round-trip duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
	)
	r.sessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livetrader_sessions_total",
			Help: "Trading sessions by outcome",
		},
		[]string{"status"},
	)
	r.sessionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "livetrader_session_duration_seconds",
			Help:    "Trading session duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)
	r.openPositions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "livetrader_open_positions",
			Help: "Number of open positions",
		},
	)

	reg.MustRegister(r.tradesTotal)
	reg.MustRegister(r.tradedValue)
	reg.MustRegister(r.riskRejections)
	reg.MustRegister(r.advisorDuration)
	reg.MustRegister(r.sessionsTotal)
	reg.MustRegister(r.sessionDuration)
	reg.MustRegister(r.openPositions)

	return r
}

// Handler returns an HTTP handler serving the metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{})
}

// RecordLaunch records a child program launch attempt.
func (r *Registry) RecordLaunch(status string) {
	r.launchesTotal.WithLabelValues(status).Inc()
}

// RecordChildExit records the child's exit code and run duration.
func (r *Registry) RecordChildExit(code string, duration float64) {
	r.childExitCodes.WithLabelValues(code).Inc()
	r.childDuration.Observe(duration)
}

// RecordTrade records a trade by action and terminal status.
func (r *Registry) RecordTrade(action, status string, value float64) {
	r.tradesTotal.WithLabelValues(action, status).Inc()
	if value > 0 {
		r.tradedValue.Add(value)
	}
}

// RecordRiskRejection records an order blocked by risk checks.
func (r *Registry) RecordRiskRejection(level string) {
	r.riskRejections.WithLabelValues(level).Inc()
}

// RecordAdvisorCall records an advisor round-trip.
func (r *Registry) RecordAdvisorCall(duration float64) {
	r.advisorDuration.Observe(duration)
}

// RecordSession records a completed session.
func (r *Registry) RecordSession(status string, duration float64) {
	r.sessionsTotal.WithLabelValues(status).Inc()
	r.sessionDuration.Observe(duration)
}

// SetOpenPositions sets the open position count.
func (r *Registry) SetOpenPositions(count int) {
	r.openPositions.Set(float64(count))
}
