package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"time"

	"github.com/eddiefleurent/downtrend_puts/internal/mock"
	"github.com/eddiefleurent/downtrend_puts/internal/models"
	"github.com/eddiefleurent/downtrend_puts/internal/nse"
	"github.com/eddiefleurent/downtrend_puts/internal/pipeline"
	"github.com/eddiefleurent/downtrend_puts/internal/report"
	"github.com/eddiefleurent/downtrend_puts/internal/strategy"
	"github.com/sirupsen/logrus"
)

func main() {
	fmt.Println("=== Downtrend PUT Screener - End-to-End Integration Test ===")
	fmt.Println()

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	now := time.Now()
	srv := mock.NewServer(mock.Demo(now))
	defer srv.Close()

	client := nse.NewClient(nse.Options{Endpoints: endpointsOf(srv), Timeout: 5 * time.Second, Logger: logger})

	fmt.Printf("Fake market site running at %s\n", srv.URL)
	fmt.Println()

	if !runIntegrationTests(srv, client, logger, now) {
		os.Exit(1)
	}
}

func endpointsOf(srv *mock.Server) nse.Endpoints {
	urls := srv.URLs()
	return nse.Endpoints{
		IndexURL:       urls.Index,
		HistoryURL:     urls.History,
		OptionChainURL: urls.OptionChain,
		LotSizeURL:     urls.LotSize,
	}
}

type integrationTest struct {
	name string
	fn   func() bool
}

func runIntegrationTests(srv *mock.Server, client *nse.Client, logger *logrus.Logger, now time.Time) bool {
	ctx := context.Background()
	settings := nse.DefaultCircuitBreakerSettings()
	settings.Logger = logger
	p := pipeline.New(nse.NewCircuitBreakerSourceWithSettings(client, settings), strategy.DefaultSelectionConfig(), pipeline.Options{}, logger).
		WithClock(func() time.Time { return now })

	var first *pipeline.Result
	tests := []integrationTest{
		{"Market Data Retrieval", func() bool { return testMarketDataRetrieval(ctx, client) }},
		{"Downtrend Filter", func() bool { return testDowntrendFilter(ctx, client, logger) }},
		{"Full Screening Run", func() bool {
			var ok bool
			first, ok = testFullRun(ctx, p)
			return ok
		}},
		{"Idempotent Rerun", func() bool { return testIdempotentRerun(ctx, p, first) }},
		{"Circuit Breaker", func() bool { return testCircuitBreaker(ctx, srv, client, logger, now) }},
	}

	passed := 0
	for i, tt := range tests {
		title := fmt.Sprintf("Test %d: %s", i+1, tt.name)
		fmt.Println(title)
		fmt.Println(underline(len(title)))
		if tt.fn() {
			passed++
			fmt.Println("✅ PASSED")
		} else {
			fmt.Println("❌ FAILED")
		}
		fmt.Println()
	}

	fmt.Println("=== Integration Test Summary ===")
	fmt.Printf("Tests passed: %d/%d\n", passed, len(tests))
	return passed == len(tests)
}

func underline(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = '='
	}
	return string(b)
}

func testMarketDataRetrieval(ctx context.Context, client *nse.Client) bool {
	snapshot, err := client.FetchIndexSnapshot(ctx)
	if err != nil {
		fmt.Printf("  Failed to fetch index snapshot: %v\n", err)
		return false
	}
	fmt.Printf("  Index figure %.2f, %d constituents\n", snapshot.IndexLastClose, len(snapshot.Constituents))

	chain, err := client.FetchOptionChain(ctx, "SBIN")
	if err != nil {
		fmt.Printf("  Failed to fetch SBIN option chain: %v\n", err)
		return false
	}
	fmt.Printf("  SBIN underlying %.2f, %d table rows\n", chain.UnderlyingPrice, len(chain.Rows))

	table, err := client.FetchLotSizeTable(ctx)
	if err != nil {
		fmt.Printf("  Failed to fetch lot size table: %v\n", err)
		return false
	}
	fmt.Printf("  Lot size table has %d rows\n", len(table.Rows))
	return len(snapshot.Constituents) > 0 && len(chain.Rows) > 0 && len(table.Rows) > 0
}

func testDowntrendFilter(ctx context.Context, client *nse.Client, logger *logrus.Logger) bool {
	snapshot, err := client.FetchIndexSnapshot(ctx)
	if err != nil {
		fmt.Printf("  Failed to fetch index snapshot: %v\n", err)
		return false
	}
	filter := strategy.NewDowntrendFilter(client, strategy.DefaultHistoryWindow, logger)
	qualified := filter.FilterQualified(ctx, snapshot)

	got := make([]string, 0, len(qualified))
	for _, q := range qualified {
		got = append(got, q.Symbol)
	}
	want := []string{"SBIN", "TATAMOTORS", "AXISBANK", "ITC", "WIPRO"}
	fmt.Printf("  Qualified: %v\n", got)
	if !reflect.DeepEqual(got, want) {
		fmt.Printf("  Expected: %v\n", want)
		return false
	}
	return true
}

func testFullRun(ctx context.Context, p *pipeline.Pipeline) (*pipeline.Result, bool) {
	result, err := p.Run(ctx)
	if err != nil {
		fmt.Printf("  Run failed: %v\n", err)
		return nil, false
	}
	if err := report.Render(os.Stdout, result); err != nil {
		fmt.Printf("  Failed to render result: %v\n", err)
		return result, false
	}

	want := map[string]models.ErrorKind{
		"SBIN":       models.KindNone,
		"TATAMOTORS": models.KindNone,
		"AXISBANK":   models.KindLotSizeNotFound,
		"ITC":        models.KindVolatilityRange,
		"WIPRO":      models.KindChainUnavailable,
	}
	ok := len(result.Outcomes) == len(want)
	for _, o := range result.Outcomes {
		if want[o.Symbol] != o.Kind() {
			fmt.Printf("  %s: got outcome %q, want %q\n", o.Symbol, o.Kind(), want[o.Symbol])
			ok = false
		}
	}
	return result, ok && len(result.Selections) == 2
}

func testIdempotentRerun(ctx context.Context, p *pipeline.Pipeline, first *pipeline.Result) bool {
	if first == nil {
		fmt.Println("  Skipped: no first run to compare against")
		return false
	}
	second, err := p.Run(ctx)
	if err != nil {
		fmt.Printf("  Rerun failed: %v\n", err)
		return false
	}
	if !reflect.DeepEqual(first.Selections, second.Selections) {
		fmt.Printf("  Selections differ:\n    %v\n    %v\n", first.Selections, second.Selections)
		return false
	}
	fmt.Printf("  Run %s and run %s selected the same %d options\n",
		first.RunID[:8], second.RunID[:8], len(second.Selections))
	return true
}

func testCircuitBreaker(ctx context.Context, srv *mock.Server, client *nse.Client, logger logrus.FieldLogger, now time.Time) bool {
	down := mock.Demo(now)
	down.IndexStatus = 503
	srv.SetMarket(down)
	defer srv.SetMarket(mock.Demo(now))

	cb := nse.NewCircuitBreakerSourceWithSettings(client, nse.CircuitBreakerSettings{
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		MinRequests:  3,
		FailureRatio: 0.5,
		Logger:       logger,
	})
	before := srv.Hits(mock.IndexPath)
	var err error
	for i := 0; i < 5; i++ {
		_, err = cb.FetchIndexSnapshot(ctx)
	}
	reached := srv.Hits(mock.IndexPath) - before
	fmt.Printf("  Breaker state %s after 5 calls, %d reached the site\n", cb.State(), reached)
	if !errors.Is(err, models.ErrCircuitOpen) {
		fmt.Printf("  Expected an open-circuit error, got %v\n", err)
		return false
	}
	return reached == 3
}
