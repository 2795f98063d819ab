package goParse

import (
	"context"
	"net/http"
	"testing"
)

func newBenchmarkClient(b *testing.B, throttled bool) *Client {
	b.Helper()

	backend := newFakeBackend(b, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, userBody("u1", "r:bench"))
	})
	cfg := testConfig(backend.srv.URL)
	cfg.Metrics.EnableLatencyHistograms = true

	var mutate func(*Builder)
	if throttled {
		_, rdb := newTestRedis(b)
		cfg.RateLimit.Enabled = true
		mutate = func(bld *Builder) { bld.WithRedis(rdb) }
	}
	return newTestClient(b, cfg, mutate)
}

func BenchmarkLogIn(b *testing.B) {
	c := newBenchmarkClient(b, false)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := AwaitUser(ctx, c.LogIn(ctx, "alice", "secret")); err != nil {
			b.Fatalf("log-in failed: %v", err)
		}
	}
}

func BenchmarkLogInThrottled(b *testing.B) {
	c := newBenchmarkClient(b, true)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := AwaitUser(ctx, c.LogIn(ctx, "alice", "secret")); err != nil {
			b.Fatalf("log-in failed: %v", err)
		}
	}
}

func BenchmarkGetCurrentUserParallel(b *testing.B) {
	c := newBenchmarkClient(b, false)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := c.GetCurrentUser(ctx, "r:bench").Await(ctx); err != nil {
				b.Errorf("current user failed: %v", err)
				return
			}
		}
	})
}
