// Command goparse-loadtest drives concurrent log-in and current-user commands
// through a goParse client and prints latency percentiles.
//
// Without -server-url it starts an in-process fake backend, so the numbers
// measure the client stack (shaping, dispatch, decode, throttle) rather than
// a real server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"net/http/httptest"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goParse "github.com/MrEthical07/goParse"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	var (
		users       = flag.Int("users", 1000, "number of distinct users")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 20000, "operations per phase (login + me)")
		serverURL   = flag.String("server-url", "", "Parse Server URL; if empty, an in-process fake backend is used")
		appID       = flag.String("app-id", "loadtest", "application id")
		redisAddr   = flag.String("redis-addr", "", "redis address for the throttle; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *users <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "users, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	url := *serverURL
	if url == "" {
		srv := httptest.NewServer(newFakeBackend(*appID))
		defer srv.Close()
		url = srv.URL + "/parse"
		fmt.Printf("using fake backend at %s\n", url)
	}

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		defer mr.Close()
		addr = mr.Addr()
		fmt.Printf("using miniredis at %s\n", addr)
	}
	rdb := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	defer func() { _ = rdb.Close() }()

	cfg := goParse.DefaultConfig()
	cfg.Server.URL = url
	cfg.Server.ApplicationID = *appID
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.MaxLogInFailures = 1 << 20
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	client, err := goParse.New().
		WithConfig(cfg).
		WithLogger(zap.NewNop()).
		WithRedis(rdb).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build client: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	tokens := make([]atomic.Value, *users)

	loginStats := runPhase(*ops, *concurrency, func(r *rand.Rand) error {
		idx := r.Intn(*users)
		u, err := goParse.AwaitUser(ctx, client.LogIn(ctx, username(idx), "password"))
		if err != nil {
			return err
		}
		tokens[idx].Store(u.SessionToken)
		return nil
	})

	meStats := runPhase(*ops, *concurrency, func(r *rand.Rand) error {
		token, _ := tokens[r.Intn(*users)].Load().(string)
		if token == "" {
			return errNoSession
		}
		_, err := client.GetCurrentUser(ctx, token).Await(ctx)
		return err
	})

	fmt.Println("---- results ----")
	printStats("login", loginStats)
	printStats("me", meStats)

	snap := client.MetricsSnapshot()
	fmt.Printf("retries=%d transport_failures=%d latency_buckets=%v\n",
		snap.Counters[goParse.MetricRetry],
		snap.Counters[goParse.MetricTransportFailure],
		snap.Histograms[goParse.MetricCommandLatency],
	)
}

var errNoSession = errors.New("user never logged in")

func username(i int) string {
	return fmt.Sprintf("user-%d", i)
}

// runPhase executes op ops times across concurrency workers.
func runPhase(ops, concurrency int, op func(r *rand.Rand) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(r)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
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
		return phaseStats{total: total, failures: failures}
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

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
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
