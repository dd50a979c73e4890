// Command authcore-loadtest measures session store latency under concurrency.
//
// It seeds sessions through session.Store, then runs a validate phase (the refresh path)
// and a revoke phase (the logout path) with many workers. Without -redis-addr or
// REDIS_ADDR it runs against an in-process miniredis.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/authcore/authcore/session"
	"github.com/redis/go-redis/v9"
)

func main() {
	var (
		sessions    = flag.Int("sessions", 20000, "number of sessions to seed")
		concurrency = flag.Int("concurrency", 128, "number of concurrent workers")
		ops         = flag.Int("ops", 100000, "validate operations")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "as-loadtest", "session key prefix")
	)
	flag.Parse()

	if *sessions <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "sessions, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	client, cleanup, err := connect(addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer cleanup()

	ctx := context.Background()
	store := session.NewStore(session.NewRedisBackend(client, *prefix, time.Hour), time.Hour)
	now := time.Now()

	fmt.Printf("seeding %d sessions...\n", *sessions)
	startSeed := time.Now()
	issued := make([]session.Issued, *sessions)
	for i := range issued {
		iss, err := store.CreateSession(ctx, fmt.Sprintf("u-%d", i), "loadtest", now, 24*time.Hour)
		if err != nil {
			fmt.Fprintf(os.Stderr, "create failed: %v\n", err)
			os.Exit(1)
		}
		issued[i] = iss
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	validate := runPhase(*ops, *concurrency, func(r *rand.Rand, _ int) error {
		_, err := store.ValidateSession(ctx, issued[r.Intn(len(issued))].Token, now)
		return err
	})

	var transitions atomic.Int64
	revoke := runPhase(len(issued)*2, *concurrency, func(_ *rand.Rand, i int) error {
		// Every session is revoked twice; the second call must be a no-op success.
		if err := store.RevokeSession(ctx, issued[i/2].SessionID, now); err != nil {
			return err
		}
		transitions.Add(1)
		return nil
	})

	stale := 0
	for _, iss := range issued[:min(len(issued), 1000)] {
		if _, err := store.ValidateSession(ctx, iss.Token, now); !errors.Is(err, session.ErrSessionRevoked) {
			stale++
		}
	}

	fmt.Println("---- results ----")
	printStats("validate", validate)
	printStats("revoke", revoke)
	fmt.Printf("revoke calls succeeded=%d, sampled sessions still valid=%d\n", transitions.Load(), stale)
}

func connect(addr string) (redis.UniversalClient, func(), error) {
	if addr != "" {
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		fmt.Printf("using redis at %s\n", addr)
		return client, func() { _ = client.Close() }, nil
	}

	mr, err := miniredis.Run()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start miniredis: %w", err)
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	fmt.Printf("using miniredis at %s\n", mr.Addr())
	return client, func() {
		_ = client.Close()
		mr.Close()
	}, nil
}

// runPhase calls op ops times spread over concurrency workers. op receives the global
// operation index.
func runPhase(ops, concurrency int, op func(r *rand.Rand, i int) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    atomic.Int64
		failures  atomic.Int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			local := make([]time.Duration, 0, ops/concurrency+1)
			for {
				i := int(cursor.Add(1)) - 1
				if i >= ops {
					break
				}
				t0 := time.Now()
				if err := op(r, i); err != nil {
					failures.Add(1)
				}
				local = append(local, time.Since(t0))
			}
			mu.Lock()
			latencies = append(latencies, local...)
			mu.Unlock()
		}(w)
	}
	wg.Wait()

	return computeStats(time.Since(start), latencies, failures.Load())
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(sorted []time.Duration, p int) time.Duration {
	switch {
	case len(sorted) == 0:
		return 0
	case p <= 0:
		return sorted[0]
	case p >= 100:
		return sorted[len(sorted)-1]
	}
	return sorted[(len(sorted)-1)*p/100]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
