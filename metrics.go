package authcore

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one engine counter.
type MetricID uint16

const (
	MetricLoginSuccess MetricID = iota
	MetricLoginFailure
	MetricLoginStoreUnavailable
	MetricRefreshSuccess
	MetricRefreshFailure
	MetricRefreshRevoked
	MetricRefreshExpired
	MetricRefreshMalformed
	MetricAuthenticateSuccess
	MetricAuthenticateFailure
	MetricSessionCreated
	MetricSessionRevoked
	MetricSessionSwept
	MetricLogout
	MetricLogoutFailure
	MetricStoreUnavailable
	// MetricValidateLatency is the only histogram; it times Authenticate.
	MetricValidateLatency
	metricIDCount
)

var metricNames = [metricIDCount]string{
	MetricLoginSuccess:          "login_success",
	MetricLoginFailure:          "login_failure",
	MetricLoginStoreUnavailable: "login_store_unavailable",
	MetricRefreshSuccess:        "refresh_success",
	MetricRefreshFailure:        "refresh_failure",
	MetricRefreshRevoked:        "refresh_revoked",
	MetricRefreshExpired:        "refresh_expired",
	MetricRefreshMalformed:      "refresh_malformed",
	MetricAuthenticateSuccess:   "authenticate_success",
	MetricAuthenticateFailure:   "authenticate_failure",
	MetricSessionCreated:        "session_created",
	MetricSessionRevoked:        "session_revoked",
	MetricSessionSwept:          "session_swept",
	MetricLogout:                "logout",
	MetricLogoutFailure:         "logout_failure",
	MetricStoreUnavailable:      "store_unavailable",
	MetricValidateLatency:       "validate_latency",
}

// String returns the stable exporter name of id.
func (id MetricID) String() string {
	if id >= metricIDCount {
		return "unknown"
	}
	return metricNames[id]
}

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

// HistogramBucketBounds are the inclusive upper bounds of the latency buckets. The last
// bucket is unbounded.
var HistogramBucketBounds = [histBucketCount - 1]time.Duration{
	5 * time.Millisecond,
	10 * time.Millisecond,
	25 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
}

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is a fixed set of lock-free counters. A nil *Metrics discards everything.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy safe to hand to exporters.
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

// Inc adds one to id.
func (m *Metrics) Inc(id MetricID) {
	m.Add(id, 1)
}

// Add adds n to id. Sweeps report their deletions through it.
func (m *Metrics) Add(id MetricID, n uint64) {
	if m == nil || !m.enabled || id >= metricIDCount || n == 0 {
		return
	}
	atomic.AddUint64(&m.counters[id].value, n)
}

// Observe records d in the latency histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id != MetricValidateLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter. Disabled metrics yield empty maps, never nil.
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
		if id == MetricValidateLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricValidateLatency].buckets[i])
		}
		s.Histograms[MetricValidateLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	for i, bound := range HistogramBucketBounds {
		if d <= bound {
			return i
		}
	}
	return histBucketCount - 1
}
