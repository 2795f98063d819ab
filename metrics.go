package goParse

import (
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goParse/command"
)

// MetricID names one in-process counter.
type MetricID uint16

const (
	MetricCurrentUserSuccess MetricID = iota
	MetricCurrentUserFailure
	MetricSignUpSuccess
	MetricSignUpFailure
	MetricLogInSuccess
	MetricLogInFailure
	MetricLogInRateLimited
	MetricServiceLogInSuccess
	MetricServiceLogInFailure
	// MetricServiceLogInNewUser counts service log-ins answered with 201 Created.
	MetricServiceLogInNewUser
	MetricPasswordResetSuccess
	MetricPasswordResetFailure
	MetricPasswordResetRateLimited
	// MetricRevocableSessionRequested counts commands sent with the revocable session header.
	MetricRevocableSessionRequested
	MetricInvalidSessionToken
	// MetricTransportFailure counts calls that ended without any HTTP response.
	MetricTransportFailure
	MetricRetry
	// MetricCommandLatency is the only histogram; it is never a counter.
	MetricCommandLatency
	metricIDCount
)

var operationMetrics = [...]struct{ success, failure MetricID }{
	command.OpCurrentUser:   {MetricCurrentUserSuccess, MetricCurrentUserFailure},
	command.OpSignUp:        {MetricSignUpSuccess, MetricSignUpFailure},
	command.OpLogIn:         {MetricLogInSuccess, MetricLogInFailure},
	command.OpServiceLogIn:  {MetricServiceLogInSuccess, MetricServiceLogInFailure},
	command.OpResetPassword: {MetricPasswordResetSuccess, MetricPasswordResetFailure},
}

func outcomeMetric(op command.Operation, success bool) (MetricID, bool) {
	if int(op) >= len(operationMetrics) {
		return 0, false
	}
	if success {
		return operationMetrics[op].success, true
	}
	return operationMetrics[op].failure, true
}

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

// HistogramBucketBounds are the inclusive upper bounds, in milliseconds, of
// the latency buckets; the last bucket is unbounded.
var HistogramBucketBounds = [histBucketCount - 1]int64{25, 50, 100, 250, 500, 1000, 2500}

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free counters. A nil *Metrics is a valid disabled sink.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	latency       metricHistogram
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount || id == MetricCommandLatency {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records a command latency sample.
func (m *Metrics) Observe(d time.Duration) {
	if m == nil || !m.enableLatency {
		return
	}
	atomic.AddUint64(&m.latency.buckets[bucketIndex(d)], 1)
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if id == MetricCommandLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.latency.buckets[i])
		}
		s.Histograms[MetricCommandLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()
	for i, bound := range HistogramBucketBounds {
		if ms <= bound {
			return i
		}
	}
	return histBucketCount - 1
}
