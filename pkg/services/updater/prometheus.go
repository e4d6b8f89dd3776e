package updater

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "blackswan"

// Metrics for monitoring service.
var (
	cyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Help:      "Number of update cycles by outcome",
			Name:      "cycles_total",
			Namespace: namespace,
		},
		[]string{"outcome"},
	)
	updatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Help:      "Number of confirmed updates by mode",
			Name:      "updates_total",
			Namespace: namespace,
		},
		[]string{"mode"},
	)
	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Help:      "Number of failed cycles by error kind",
			Name:      "errors_total",
			Namespace: namespace,
		},
		[]string{"kind"},
	)
	gasUsed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "GAS spent by update transactions (in GAS fractions)",
			Name:      "gas_used_total",
			Namespace: namespace,
		},
	)
	confirmedScore = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Help:      "Last score confirmed on chain",
			Name:      "confirmed_score",
			Namespace: namespace,
		},
		[]string{"score"},
	)
	cycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Help:      "Update cycle duration",
			Name:      "cycle_duration_seconds",
			Namespace: namespace,
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		},
	)
	healthy = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Help:      "Whether the last cycle succeeded",
			Name:      "healthy",
			Namespace: namespace,
		},
	)
)

func init() {
	prometheus.MustRegister(
		cyclesTotal,
		updatesTotal,
		errorsTotal,
		gasUsed,
		confirmedScore,
		cycleDuration,
		healthy,
	)
}

func updateCycleMetrics(outcome string, took time.Duration) {
	cyclesTotal.WithLabelValues(outcome).Inc()
	cycleDuration.Observe(took.Seconds())
}

func updateSuccessMetrics(mode Mode, gas int64, bs, mp int64) {
	updatesTotal.WithLabelValues(mode.String()).Inc()
	gasUsed.Add(float64(gas))
	confirmedScore.WithLabelValues("blackswan").Set(float64(bs))
	confirmedScore.WithLabelValues("marketpeak").Set(float64(mp))
}

func updateErrorMetrics(kind string) {
	errorsTotal.WithLabelValues(kind).Inc()
}

func updateHealthyMetric(ok bool) {
	if ok {
		healthy.Set(1)
	} else {
		healthy.Set(0)
	}
}
