package metrics

import (
	"sync/atomic"
	"time"
)

// MetricID identifies a counter or a latency histogram.
type MetricID uint16

const (
	MetricLoginSuccess MetricID = iota
	MetricLoginWrongPassword
	MetricLoginBlocked
	MetricLoginSendCode
	MetricLoginNotFound
	MetricLoginError
	MetricAuthenticateSuccess
	MetricAuthenticateFailure
	MetricRegisterSuccess
	MetricRegisterDuplicate
	MetricRegisterError
	MetricForgotPasswordSuccess
	MetricForgotPasswordUnknownEmail
	MetricForgotPasswordError
	MetricConfirmSuccess
	MetricConfirmWrongCode
	MetricConfirmError
	MetricAccountBlocked
	MetricAccountActivated
	MetricPasswordChanged
	MetricPasswordHashUpgraded
	MetricRateLimitHit
	MetricConcurrentUpdate

	// Latency histograms. Observe ignores every ID before MetricLoginLatency.
	MetricLoginLatency
	MetricAuthenticateLatency
	MetricRegisterLatency
	MetricForgotPasswordLatency
	MetricConfirmLatency

	MetricIDCount
)

const (
	// HistogramBucketCount is the number of fixed latency buckets, +Inf included.
	HistogramBucketCount = 8
	cacheLineSize        = 64
)

type histogram struct {
	buckets [HistogramBucketCount]uint64
	sumNs   uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Config controls which metric families are recorded.
type Config struct {
	Enabled       bool
	EnableLatency bool
}

// Metrics holds lock-free counters and optional latency histograms.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [MetricIDCount]paddedCounter
	histograms    [MetricIDCount]histogram
}

// Snapshot is a point-in-time copy of all metrics. Histogram buckets are
// non-cumulative.
type Snapshot struct {
	Counters      map[MetricID]uint64
	Histograms    map[MetricID][]uint64
	HistogramSums map[MetricID]time.Duration
}

// New returns a Metrics instance. When cfg.Enabled is false every call is a no-op.
func New(cfg Config) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatency,
	}
}

// IsLatency reports whether id names a histogram.
func IsLatency(id MetricID) bool {
	return id >= MetricLoginLatency && id < MetricIDCount
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= MetricIDCount || IsLatency(id) {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d into the histogram id.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enableLatency || !IsLatency(id) {
		return
	}
	if d < 0 {
		d = 0
	}
	h := &m.histograms[id]
	atomic.AddUint64(&h.buckets[bucketIndex(d)], 1)
	atomic.AddUint64(&h.sumNs, uint64(d))
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= MetricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

func (m *Metrics) Snapshot() Snapshot {
	if m == nil || !m.enabled {
		return Snapshot{
			Counters:      map[MetricID]uint64{},
			Histograms:    map[MetricID][]uint64{},
			HistogramSums: map[MetricID]time.Duration{},
		}
	}

	s := Snapshot{
		Counters:      make(map[MetricID]uint64, int(MetricLoginLatency)),
		Histograms:    make(map[MetricID][]uint64, int(MetricIDCount-MetricLoginLatency)),
		HistogramSums: make(map[MetricID]time.Duration, int(MetricIDCount-MetricLoginLatency)),
	}

	for id := MetricID(0); id < MetricLoginLatency; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		for id := MetricLoginLatency; id < MetricIDCount; id++ {
			h := &m.histograms[id]
			buckets := make([]uint64, HistogramBucketCount)
			for i := 0; i < HistogramBucketCount; i++ {
				buckets[i] = atomic.LoadUint64(&h.buckets[i])
			}
			s.Histograms[id] = buckets
			s.HistogramSums[id] = time.Duration(atomic.LoadUint64(&h.sumNs))
		}
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
