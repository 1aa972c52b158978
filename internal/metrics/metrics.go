// Package metrics exposes Prometheus counters for token acquisition, secret
// decoding and scheme lookups.
//
// Metrics are registered lazily with the default registry the first time Init
// is called. Before that every Record method is a no-op, so library code can
// record unconditionally.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for fetch attempts.
const (
	OutcomeSuccess   = "success"
	OutcomeRetryable = "retryable"
	OutcomeFatal     = "fatal"
)

// Result labels for acquisitions and lookups.
const (
	ResultSucceeded = "succeeded"
	ResultFailed    = "failed"
	ResultFound     = "found"
	ResultUnknown   = "unknown"
)

var (
	fetchAttemptsTotal  *prometheus.CounterVec
	acquisitionsTotal   *prometheus.CounterVec
	acquisitionDuration prometheus.Histogram
	decodeFailuresTotal *prometheus.CounterVec
	schemeLookupsTotal  *prometheus.CounterVec

	// Registration guard
	metricsOnce       sync.Once
	metricsRegistered atomic.Bool
)

// Init registers all metrics. It is safe to call more than once.
func Init() {
	metricsOnce.Do(func() {
		fetchAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dsauth_token_fetch_attempts_total",
				Help: "Total number of calls to the token source by outcome",
			},
			[]string{"outcome"},
		)

		acquisitionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dsauth_token_acquisitions_total",
				Help: "Total number of token acquisitions by final result",
			},
			[]string{"result"},
		)

		acquisitionDuration = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dsauth_token_acquisition_duration_seconds",
				Help:    "Duration of token acquisitions including retry delays",
				Buckets: []float64{0.001, 0.01, 0.05, 0.2, 0.5, 1, 5},
			},
		)

		decodeFailuresTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dsauth_secret_decode_failures_total",
				Help: "Total number of protected secrets that could not be decoded",
			},
			[]string{"scheme"},
		)

		schemeLookupsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dsauth_scheme_lookups_total",
				Help: "Total number of scheme handler lookups by result",
			},
			[]string{"result"},
		)

		metricsRegistered.Store(true)
	})
}

// Recorder records events. The zero value is ready to use.
type Recorder struct{}

// New returns a Recorder.
func New() *Recorder {
	return &Recorder{}
}

// RecordFetchAttempt counts one call to the token source.
func (r *Recorder) RecordFetchAttempt(outcome string) {
	if !metricsRegistered.Load() || fetchAttemptsTotal == nil {
		return
	}
	fetchAttemptsTotal.WithLabelValues(outcome).Inc()
}

// RecordAcquisition counts a finished acquisition and observes its duration.
func (r *Recorder) RecordAcquisition(succeeded bool, d time.Duration) {
	if !metricsRegistered.Load() {
		return
	}

	result := ResultFailed
	if succeeded {
		result = ResultSucceeded
	}
	if acquisitionsTotal != nil {
		acquisitionsTotal.WithLabelValues(result).Inc()
	}
	if acquisitionDuration != nil {
		acquisitionDuration.Observe(d.Seconds())
	}
}

// RecordDecodeFailure counts a protected secret that failed to decode.
func (r *Recorder) RecordDecodeFailure(scheme string) {
	if !metricsRegistered.Load() || decodeFailuresTotal == nil {
		return
	}
	decodeFailuresTotal.WithLabelValues(scheme).Inc()
}

// RecordSchemeLookup counts a registry lookup.
func (r *Recorder) RecordSchemeLookup(found bool) {
	if !metricsRegistered.Load() || schemeLookupsTotal == nil {
		return
	}
	result := ResultUnknown
	if found {
		result = ResultFound
	}
	schemeLookupsTotal.WithLabelValues(result).Inc()
}

// FetchAttemptsTotal returns the fetch attempt counter for testing.
func FetchAttemptsTotal() *prometheus.CounterVec {
	return fetchAttemptsTotal
}

// AcquisitionsTotal returns the acquisition counter for testing.
func AcquisitionsTotal() *prometheus.CounterVec {
	return acquisitionsTotal
}

// AcquisitionDuration returns the acquisition duration histogram for testing.
func AcquisitionDuration() prometheus.Histogram {
	return acquisitionDuration
}

// DecodeFailuresTotal returns the decode failure counter for testing.
func DecodeFailuresTotal() *prometheus.CounterVec {
	return decodeFailuresTotal
}

// SchemeLookupsTotal returns the lookup counter for testing.
func SchemeLookupsTotal() *prometheus.CounterVec {
	return schemeLookupsTotal
}

// IsRegistered returns whether metrics have been initialized.
func IsRegistered() bool {
	return metricsRegistered.Load()
}
