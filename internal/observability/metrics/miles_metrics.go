package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Config carries the labels stamped on every miles counter.
type Config struct {
	ServiceName string
	Environment string
}

// MilesMetrics tracks wallet and ledger activity.
type MilesMetrics struct {
	granted      prometheus.Counter
	expired      prometheus.Counter
	debited      prometheus.Counter
	refunded     prometheus.Counter
	insufficient prometheus.Counter
	raceDetected prometheus.Counter
}

var (
	milesMetricsOnce sync.Once
	milesMetrics     *MilesMetrics
)

func Miles() *MilesMetrics {
	return MilesWithConfig(Config{})
}

func MilesWithConfig(cfg Config) *MilesMetrics {
	milesMetricsOnce.Do(func() {
		milesMetrics = newMilesMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return milesMetrics
}

func ResetMilesMetricsForTest() {
	milesMetricsOnce = sync.Once{}
	milesMetrics = nil
}

func newMilesMetrics(registerer prometheus.Registerer, cfg Config) *MilesMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "otw"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}

	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	granted := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "otw_miles_granted_total",
		Help:        "Service miles granted by monthly allocation.",
		ConstLabels: constLabels,
	})
	expired := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "otw_miles_expired_total",
		Help:        "Service miles forfeited at rollover.",
		ConstLabels: constLabels,
	})
	debited := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "otw_miles_debited_total",
		Help:        "Service miles debited for delivery requests.",
		ConstLabels: constLabels,
	})
	refunded := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "otw_miles_refunded_total",
		Help:        "Service miles refunded on cancellation.",
		ConstLabels: constLabels,
	})
	insufficient := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "otw_miles_insufficient_total",
		Help:        "Submissions rejected for insufficient miles.",
		ConstLabels: constLabels,
	})
	raceDetected := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "otw_miles_allocation_race_total",
		Help:        "Allocation attempts that lost an idempotency-key race.",
		ConstLabels: constLabels,
	})

	registerer.MustRegister(
		granted,
		expired,
		debited,
		refunded,
		insufficient,
		raceDetected,
	)

	return &MilesMetrics{
		granted:      granted,
		expired:      expired,
		debited:      debited,
		refunded:     refunded,
		insufficient: insufficient,
		raceDetected: raceDetected,
	}
}

func (m *MilesMetrics) AddGranted(miles int64) {
	if m == nil || miles <= 0 {
		return
	}
	m.granted.Add(float64(miles))
}

func (m *MilesMetrics) AddExpired(miles int64) {
	if m == nil || miles <= 0 {
		return
	}
	m.expired.Add(float64(miles))
}

func (m *MilesMetrics) AddDebited(miles int64) {
	if m == nil || miles <= 0 {
		return
	}
	m.debited.Add(float64(miles))
}

func (m *MilesMetrics) AddRefunded(miles int64) {
	if m == nil || miles <= 0 {
		return
	}
	m.refunded.Add(float64(miles))
}

func (m *MilesMetrics) IncInsufficient() {
	if m == nil {
		return
	}
	m.insufficient.Inc()
}

func (m *MilesMetrics) IncAllocationRace() {
	if m == nil {
		return
	}
	m.raceDetected.Inc()
}
