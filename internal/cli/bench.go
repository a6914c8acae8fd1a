package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gurted/gurt-go/internal/bench"
	"github.com/gurted/gurt-go/internal/observability"
	"github.com/gurted/gurt-go/pkg/gurt/wire"
)

var (
	benchRequests    int
	benchConcurrency int
	benchRate        float64
	benchMethod      string
	benchData        string
	benchContentType string
	benchMetricsAddr string
)

var benchCmd = &cobra.Command{
	Use:   "bench <gurt://host[:port]/path>",
	Short: "Benchmark a GURT endpoint",
	Long: `Issue repeated requests against one endpoint and report latency
percentiles, throughput, and failure counts.

Examples:
  gurtctl bench gurt://host/ -n 1000 --concurrency 16
  gurtctl bench gurt://host/items -n 500 --rate 50 --method POST --data '{}'
  gurtctl bench gurt://host/ -n 1000 --metrics-addr :9090`,
	Args: cobra.ExactArgs(1),
	RunE: runBench,
}

func init() {
	benchCmd.Flags().IntVarP(&benchRequests, "requests", "n", 100, "Total number of requests")
	benchCmd.Flags().IntVarP(&benchConcurrency, "concurrency", "w", 8, "Concurrent workers")
	benchCmd.Flags().Float64Var(&benchRate, "rate", 0, "Request rate cap in requests per second (0 = unlimited)")
	benchCmd.Flags().StringVarP(&benchMethod, "method", "m", "GET", "Request method")
	benchCmd.Flags().StringVarP(&benchData, "data", "d", "", "Request body for POST/PUT/PATCH")
	benchCmd.Flags().StringVar(&benchContentType, "content-type", "text/plain", "Content type for the request body")
	benchCmd.Flags().StringVar(&benchMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address during the run")
	rootCmd.AddCommand(benchCmd)
}

func runBench(cmd *cobra.Command, args []string) error {
	method := wire.Method(benchMethod)
	if !method.Valid() || method == wire.MethodHandshake {
		return fmt.Errorf("unsupported bench method %q", benchMethod)
	}

	client, err := newClient()
	if err != nil {
		return err
	}

	var body []byte
	if benchData != "" {
		body = []byte(benchData)
	}
	runner, err := bench.NewRunner(client, bench.Options{
		URL:         args[0],
		Method:      method,
		ContentType: benchContentType,
		Body:        body,
		Requests:    benchRequests,
		Concurrency: benchConcurrency,
		Rate:        benchRate,
	})
	if err != nil {
		return err
	}

	if benchMetricsAddr != "" {
		observability.RegisterMetrics()
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(benchMetricsAddr, mux); err != nil {
				log.Warn().Err(err).Str("addr", benchMetricsAddr).Msg("metrics listener stopped")
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("benchmarking %s: %d requests, %d workers", args[0], benchRequests, benchConcurrency)
	if benchRate > 0 {
		fmt.Printf(", %.0f rps cap", benchRate)
	}
	fmt.Println()

	result, err := runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("bench interrupted: %w", err)
	}
	return printBenchResult(result)
}

func printBenchResult(res *bench.Result) error {
	if flagOutput == "json" || flagOutput == "yaml" {
		f, err := newFormatter(flagOutput)
		if err != nil {
			return err
		}
		out, err := f.Format(res)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	}

	rows := [][2]string{
		{"Requests", fmt.Sprintf("%d", res.Requests)},
		{"Succeeded", successStyle.Render(fmt.Sprintf("%d", res.Succeeded))},
		{"Failed", failedCell(res.Failed)},
		{"Elapsed", res.Elapsed.Round(time.Millisecond).String()},
		{"Throughput", fmt.Sprintf("%.1f req/s", res.Throughput)},
	}
	if res.Succeeded > 0 {
		rows = append(rows,
			[2]string{"Latency min", res.Latency.Min.String()},
			[2]string{"Latency p50", res.Latency.P50.String()},
			[2]string{"Latency p90", res.Latency.P90.String()},
			[2]string{"Latency p99", res.Latency.P99.String()},
			[2]string{"Latency max", res.Latency.Max.String()},
		)
	}
	for _, code := range sortedKeys(res.Statuses) {
		label := fmt.Sprintf("Status %d %s", code, wire.StatusText(code))
		rows = append(rows, [2]string{label, fmt.Sprintf("%d", res.Statuses[code])})
	}
	for _, kind := range sortedStringKeys(res.Failures) {
		rows = append(rows, [2]string{"Failure " + kind, errorStyle.Render(fmt.Sprintf("%d", res.Failures[kind]))})
	}

	f, _ := newFormatter("table")
	out, err := f.Format(rows)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

func failedCell(n int) string {
	if n == 0 {
		return "0"
	}
	return errorStyle.Render(fmt.Sprintf("%d", n))
}

func sortedKeys(m map[int]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func sortedStringKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
