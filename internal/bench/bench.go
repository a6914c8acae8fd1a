// Package bench drives repeated GURT requests against a single target and
// aggregates latency and failure statistics.
package bench

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/gurted/gurt-go/pkg/gurt"
	"github.com/gurted/gurt-go/pkg/gurt/wire"
)

// Histogram bounds: 1µs floor, 5 minute ceiling, 3 significant figures.
const (
	minLatencyMicros = 1
	maxLatencyMicros = 5 * 60 * 1_000_000
)

var (
	ErrNoRequests     = errors.New("bench: request count must be positive")
	ErrNoConcurrency  = errors.New("bench: concurrency must be positive")
	ErrBodylessMethod = errors.New("bench: method does not carry a body")
)

// Options configures a benchmark run.
type Options struct {
	URL         string
	Method      wire.Method
	ContentType string
	Body        []byte

	// Requests is the total number of requests to issue.
	Requests int
	// Concurrency is the number of worker goroutines.
	Concurrency int
	// Rate caps the request rate in requests per second. Zero means
	// no cap: workers issue requests as fast as responses return.
	Rate float64
}

func (o Options) validate() error {
	if o.Requests <= 0 {
		return ErrNoRequests
	}
	if o.Concurrency <= 0 {
		return ErrNoConcurrency
	}
	if len(o.Body) > 0 {
		switch o.Method {
		case wire.MethodPost, wire.MethodPut, wire.MethodPatch:
		default:
			return ErrBodylessMethod
		}
	}
	return nil
}

// Latency summarizes the recorded request durations.
type Latency struct {
	Min  time.Duration `json:"min" yaml:"min"`
	Mean time.Duration `json:"mean" yaml:"mean"`
	P50  time.Duration `json:"p50" yaml:"p50"`
	P90  time.Duration `json:"p90" yaml:"p90"`
	P99  time.Duration `json:"p99" yaml:"p99"`
	Max  time.Duration `json:"max" yaml:"max"`
}

// Result is the aggregate outcome of a benchmark run.
type Result struct {
	Requests   int            `json:"requests" yaml:"requests"`
	Succeeded  int            `json:"succeeded" yaml:"succeeded"`
	Failed     int            `json:"failed" yaml:"failed"`
	Elapsed    time.Duration  `json:"elapsed" yaml:"elapsed"`
	Throughput float64        `json:"throughput_rps" yaml:"throughput_rps"`
	Statuses   map[int]int    `json:"statuses" yaml:"statuses"`
	Failures   map[string]int `json:"failures,omitempty" yaml:"failures,omitempty"`
	Latency    Latency        `json:"latency" yaml:"latency"`
}

// Runner issues the configured requests through a shared client.
type Runner struct {
	client *gurt.Client
	opts   Options

	limiter *rate.Limiter

	mu       sync.Mutex
	hist     *hdrhistogram.Histogram
	statuses map[int]int
	failures map[string]int
}

// NewRunner validates opts and prepares a runner. The client is shared
// across workers; each request opens its own session.
func NewRunner(client *gurt.Client, opts Options) (*Runner, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if opts.Method == "" {
		opts.Method = wire.MethodGet
	}

	r := &Runner{
		client:   client,
		opts:     opts,
		hist:     hdrhistogram.New(minLatencyMicros, maxLatencyMicros, 3),
		statuses: make(map[int]int),
		failures: make(map[string]int),
	}
	if opts.Rate > 0 {
		burst := int(opts.Rate / 10)
		if burst < 1 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(opts.Rate), burst)
	}
	return r, nil
}

// Run blocks until every request has completed or ctx is cancelled.
// Failed requests are counted, not fatal; Run only errors when the
// context ends before the run does.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	jobs := make(chan struct{})
	var wg sync.WaitGroup

	log.Debug().
		Str("url", r.opts.URL).
		Int("requests", r.opts.Requests).
		Int("concurrency", r.opts.Concurrency).
		Float64("rate", r.opts.Rate).
		Msg("bench run starting")

	start := time.Now()
	for i := 0; i < r.opts.Concurrency; i++ {
		wg.Add(1)
		go r.worker(ctx, jobs, &wg)
	}

feed:
	for i := 0; i < r.opts.Requests; i++ {
		select {
		case jobs <- struct{}{}:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	elapsed := time.Since(start)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.collect(elapsed), nil
}

func (r *Runner) worker(ctx context.Context, jobs <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-jobs:
			if !ok {
				return
			}
			r.one(ctx)
		}
	}
}

func (r *Runner) one(ctx context.Context) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return
		}
	}

	start := time.Now()
	resp, err := r.send()
	elapsed := time.Since(start)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.failures[gurt.Kind(err)]++
		return
	}
	r.statuses[resp.StatusCode]++
	if err := r.hist.RecordValue(elapsed.Microseconds()); err != nil {
		// Out of histogram range; clamp to the ceiling.
		r.hist.RecordValue(maxLatencyMicros)
	}
}

func (r *Runner) send() (*wire.Response, error) {
	switch r.opts.Method {
	case wire.MethodHead:
		return r.client.Head(r.opts.URL)
	case wire.MethodOptions:
		return r.client.Options(r.opts.URL)
	case wire.MethodDelete:
		return r.client.Delete(r.opts.URL)
	case wire.MethodPost:
		return r.client.Post(r.opts.URL, r.opts.ContentType, r.opts.Body)
	case wire.MethodPut:
		return r.client.Put(r.opts.URL, r.opts.ContentType, r.opts.Body)
	case wire.MethodPatch:
		return r.client.Patch(r.opts.URL, r.opts.ContentType, r.opts.Body)
	default:
		return r.client.Get(r.opts.URL)
	}
}

func (r *Runner) collect(elapsed time.Duration) *Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	succeeded := 0
	for _, n := range r.statuses {
		succeeded += n
	}
	failed := 0
	for _, n := range r.failures {
		failed += n
	}

	res := &Result{
		Requests:  succeeded + failed,
		Succeeded: succeeded,
		Failed:    failed,
		Elapsed:   elapsed,
		Statuses:  r.statuses,
		Failures:  r.failures,
	}
	if elapsed > 0 {
		res.Throughput = float64(res.Requests) / elapsed.Seconds()
	}
	if r.hist.TotalCount() > 0 {
		res.Latency = Latency{
			Min:  time.Duration(r.hist.Min()) * time.Microsecond,
			Mean: time.Duration(r.hist.Mean()) * time.Microsecond,
			P50:  time.Duration(r.hist.ValueAtQuantile(50)) * time.Microsecond,
			P90:  time.Duration(r.hist.ValueAtQuantile(90)) * time.Microsecond,
			P99:  time.Duration(r.hist.ValueAtQuantile(99)) * time.Microsecond,
			Max:  time.Duration(r.hist.Max()) * time.Microsecond,
		}
	}
	return res
}
