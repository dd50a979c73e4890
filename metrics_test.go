package authcore

import (
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledIsNoop(t *testing.T) {
	m := NewMetrics(MetricsConfig{})
	m.Inc(MetricLoginSuccess)
	m.Observe(MetricValidateLatency, time.Millisecond)
	if m.Value(MetricLoginSuccess) != 0 {
		t.Fatal("disabled metrics counted")
	}
	snap := m.Snapshot()
	if snap.Counters == nil || len(snap.Counters) != 0 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	var nilMetrics *Metrics
	nilMetrics.Inc(MetricLoginSuccess)
	if nilMetrics.Enabled() {
		t.Fatal("nil metrics enabled")
	}
}

func TestMetricsConcurrentInc(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				m.Inc(MetricRefreshSuccess)
			}
		}()
	}
	wg.Wait()
	m.Add(MetricSessionSwept, 42)

	if got := m.Value(MetricRefreshSuccess); got != 8000 {
		t.Fatalf("refresh_success = %d", got)
	}
	snap := m.Snapshot()
	if snap.Counters[MetricSessionSwept] != 42 {
		t.Fatalf("session_swept = %d", snap.Counters[MetricSessionSwept])
	}
	if _, ok := snap.Counters[MetricValidateLatency]; ok {
		t.Fatal("histogram id reported as counter")
	}
}

func TestBucketIndex(t *testing.T) {
	cases := map[time.Duration]int{
		0:                      0,
		5 * time.Millisecond:   0,
		6 * time.Millisecond:   1,
		100 * time.Millisecond: 4,
		501 * time.Millisecond: histBucketCount - 1,
		time.Minute:            histBucketCount - 1,
	}
	for d, want := range cases {
		if got := bucketIndex(d); got != want {
			t.Errorf("bucketIndex(%v) = %d, want %d", d, got, want)
		}
	}
}

func TestMetricIDNames(t *testing.T) {
	seen := map[string]bool{}
	for id := MetricID(0); id < metricIDCount; id++ {
		name := id.String()
		if name == "" || seen[name] {
			t.Fatalf("metric %d has empty or duplicate name %q", id, name)
		}
		seen[name] = true
	}
}
