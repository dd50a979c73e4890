package authcore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func BenchmarkAuthenticate(b *testing.B) {
	e := newTestEngine(b)
	res := mustLogin(b, e)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Authenticate(ctx, res.AccessToken); err != nil {
			b.Fatalf("authenticate failed: %v", err)
		}
	}
}

func BenchmarkRefreshMemory(b *testing.B) {
	e := newTestEngine(b)
	res := mustLogin(b, e)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Refresh(ctx, res.RefreshToken); err != nil {
			b.Fatalf("refresh failed: %v", err)
		}
	}
}

func BenchmarkRefreshRedis(b *testing.B) {
	mr, err := miniredis.Run()
	if err != nil {
		b.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	e := newTestEngine(b, func(_ *Config, bld *Builder) {
		bld.WithSessionBackend(nil).WithRedis(rdb)
	})
	res := mustLogin(b, e)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Refresh(ctx, res.RefreshToken); err != nil {
			b.Fatalf("refresh failed: %v", err)
		}
	}
}

func BenchmarkMetricsInc(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		m.Inc(MetricLoginSuccess)
	}
}

func BenchmarkMetricsIncParallel(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			m.Inc(MetricLoginSuccess)
		}
	})
}
