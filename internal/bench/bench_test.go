package bench

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gurted/gurt-go/internal/testutil/gurttest"
	"github.com/gurted/gurt-go/internal/testutil/testlog"
	"github.com/gurted/gurt-go/pkg/gurt"
	"github.com/gurted/gurt-go/pkg/gurt/wire"
)

func testClient(t *testing.T) *gurt.Client {
	t.Helper()
	cfg := gurt.DefaultConfig()
	cfg.Insecure = true
	cfg.ConnectTimeout = 2 * time.Second
	cfg.HandshakeTimeout = 2 * time.Second
	cfg.RequestTimeout = 2 * time.Second
	c, err := gurt.New(cfg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestRunnerCompletesAllRequests(t *testing.T) {
	testlog.Start(t)
	srv := gurttest.Start(t, gurttest.Options{})

	r, err := NewRunner(testClient(t), Options{
		URL:         srv.URL("/"),
		Requests:    20,
		Concurrency: 4,
	})
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Requests != 20 || res.Succeeded != 20 || res.Failed != 0 {
		t.Fatalf("counts: %+v", res)
	}
	if res.Statuses[200] != 20 {
		t.Fatalf("status counts: %v", res.Statuses)
	}
	if res.Latency.Max <= 0 || res.Latency.P99 < res.Latency.P50 {
		t.Fatalf("latency summary: %+v", res.Latency)
	}
	if res.Throughput <= 0 {
		t.Fatalf("throughput %f", res.Throughput)
	}
}

func TestRunnerCountsFailuresByKind(t *testing.T) {
	testlog.Start(t)
	srv := gurttest.Start(t, gurttest.Options{
		RejectStatus:  400,
		RejectMessage: "unsupported-version",
	})

	r, err := NewRunner(testClient(t), Options{
		URL:         srv.URL("/"),
		Requests:    5,
		Concurrency: 2,
	})
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Failed != 5 || res.Succeeded != 0 {
		t.Fatalf("counts: %+v", res)
	}
	if res.Failures["handshake"] != 5 {
		t.Fatalf("failure kinds: %v", res.Failures)
	}
}

func TestRunnerHonorsRateCap(t *testing.T) {
	testlog.Start(t)
	srv := gurttest.Start(t, gurttest.Options{})

	r, err := NewRunner(testClient(t), Options{
		URL:         srv.URL("/"),
		Requests:    6,
		Concurrency: 3,
		Rate:        20, // 6 requests at 20 rps needs at least ~250ms
	})
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}

	start := time.Now()
	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Requests != 6 {
		t.Fatalf("counts: %+v", res)
	}
	if time.Since(start) < 200*time.Millisecond {
		t.Fatalf("run finished too fast for a 20 rps cap")
	}
}

func TestRunnerCancelledContext(t *testing.T) {
	testlog.Start(t)
	srv := gurttest.Start(t, gurttest.Options{})

	r, err := NewRunner(testClient(t), Options{
		URL:         srv.URL("/"),
		Requests:    1000,
		Concurrency: 2,
		Rate:        5,
	})
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, err := r.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
}

func TestNewRunnerValidation(t *testing.T) {
	testlog.Start(t)
	client := testClient(t)

	cases := []struct {
		name string
		opts Options
		want error
	}{
		{"zero requests", Options{Requests: 0, Concurrency: 1}, ErrNoRequests},
		{"zero concurrency", Options{Requests: 1, Concurrency: 0}, ErrNoConcurrency},
		{"body on GET", Options{Requests: 1, Concurrency: 1, Method: wire.MethodGet, Body: []byte("x")}, ErrBodylessMethod},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewRunner(client, tc.opts); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}

	if _, err := NewRunner(client, Options{
		Requests: 1, Concurrency: 1,
		Method: wire.MethodPost, Body: []byte("x"), ContentType: "text/plain",
	}); err != nil {
		t.Fatalf("post body rejected: %v", err)
	}
}
