package nse

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eddiefleurent/downtrend_puts/internal/mock"
	"github.com/eddiefleurent/downtrend_puts/internal/models"
	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var demoNow = time.Date(2026, time.October, 16, 10, 0, 0, 0, time.UTC)

func newMockClient(t *testing.T, m mock.Market, opts Options) (*Client, *mock.Server) {
	t.Helper()
	srv := mock.NewServer(m)
	t.Cleanup(srv.Close)
	urls := srv.URLs()
	opts.Endpoints = Endpoints{
		IndexURL:       urls.Index,
		HistoryURL:     urls.History,
		OptionChainURL: urls.OptionChain,
		LotSizeURL:     urls.LotSize,
	}
	return NewClient(opts), srv
}

func TestAPIError_Error(t *testing.T) {
	e := &APIError{Status: 503, Body: "down"}
	if got := e.Error(); got != "API error 503: down" {
		t.Fatalf("Error() = %q", got)
	}
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Options{})
	assert.Equal(t, DefaultEndpoints(), c.Endpoints())
	assert.Equal(t, DefaultLayout(), c.layout)
	assert.Equal(t, DefaultTimeout, c.timeout)
	assert.Equal(t, DefaultUserAgent, c.userAgent)
	assert.Nil(t, c.cache)

	c = NewClient(Options{
		Endpoints: Endpoints{IndexURL: "http://localhost/index.json"},
		Layout:    Layout{CellClass: "data"},
		Timeout:   time.Second,
		UserAgent: "screener-test",
		CacheTTL:  time.Minute,
	})
	assert.Equal(t, "http://localhost/index.json", c.Endpoints().IndexURL)
	assert.Equal(t, DefaultHistoryURL, c.Endpoints().HistoryURL)
	assert.Equal(t, "data", c.layout.CellClass)
	assert.Equal(t, DefaultAnchorClass, c.layout.AnchorClass)
	assert.Equal(t, time.Second, c.timeout)
	assert.Equal(t, "screener-test", c.userAgent)
	assert.NotNil(t, c.cache)
}

func TestClient_FetchesDemoMarket(t *testing.T) {
	c, _ := newMockClient(t, mock.Demo(demoNow), Options{})
	ctx := context.Background()

	snapshot, err := c.FetchIndexSnapshot(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.35, snapshot.IndexLastClose, 1e-9)
	assert.Len(t, snapshot.Constituents, 7)

	series, err := c.FetchHistoricalSeries(ctx, "INFY", "week")
	require.NoError(t, err)
	require.Len(t, series, 5)
	falling, err := series.IsFalling()
	require.NoError(t, err)
	assert.False(t, falling)

	chain, err := c.FetchOptionChain(ctx, "SBIN")
	require.NoError(t, err)
	assert.InDelta(t, 512.30, chain.UnderlyingPrice, 1e-9)
	assert.Len(t, chain.Rows, 13+3)

	size, err := c.FetchLotSize(ctx, "TATAMOTORS", demoNow)
	require.NoError(t, err)
	assert.Equal(t, 550, size)
}

func TestClient_SendsQueryAndHeaders(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(mock.OptionChainHTML(chainFixture()))
	}))
	defer srv.Close()

	c := NewClient(Options{Endpoints: Endpoints{OptionChainURL: srv.URL + "/optionKeys.jsp"}, UserAgent: "screener-test"})
	_, err := c.FetchOptionChain(context.Background(), "SBIN")
	require.NoError(t, err)

	require.NotNil(t, got)
	q := got.URL.Query()
	assert.Equal(t, "1098", q.Get("symbolCode"))
	assert.Equal(t, "SBIN", q.Get("symbol"))
	assert.Equal(t, "-", q.Get("instrument"))
	assert.Equal(t, "-", q.Get("date"))
	assert.Equal(t, "17", q.Get("segmentLink"))
	assert.Equal(t, "2", q.Get("symbolCount"))
	assert.Equal(t, "screener-test", got.Header.Get("User-Agent"))
	assert.Equal(t, "text/html", got.Header.Get("Accept"))
}

func TestHistoryParams(t *testing.T) {
	q := HistoryParams("SBIN", "month")
	assert.Equal(t, "SBIN", q.Get("symbol"))
	assert.Equal(t, "EQ", q.Get("series"))
	assert.Equal(t, "undefined", q.Get("fromDate"))
	assert.Equal(t, "undefined", q.Get("toDate"))
	assert.Equal(t, "month", q.Get("datePeriod"))
}

func TestClient_Non2xxWrapsSentinel(t *testing.T) {
	c, _ := newMockClient(t, mock.Demo(demoNow), Options{})

	_, err := c.FetchOptionChain(context.Background(), "WIPRO")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrChainUnavailable)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
	assert.NotEmpty(t, apiErr.Body)

	_, err = c.FetchHistoricalSeries(context.Background(), "NOPE", "week")
	assert.ErrorIs(t, err, models.ErrHistoryUnavailable)
}

func TestClient_LotSizePageDown(t *testing.T) {
	m := mock.Demo(demoNow)
	m.LotSizeStatus = http.StatusBadGateway
	c, _ := newMockClient(t, m, Options{})

	_, err := c.FetchLotSize(context.Background(), "SBIN", demoNow)
	assert.ErrorIs(t, err, models.ErrLotSizeNotFound)
}

func TestClient_CachesDocuments(t *testing.T) {
	c, srv := newMockClient(t, mock.Demo(demoNow), Options{CacheTTL: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := c.FetchLotSizeTable(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, srv.Hits(mock.LotSizePath))

	_, err := c.FetchHistoricalSeries(ctx, "SBIN", "week")
	require.NoError(t, err)
	_, err = c.FetchHistoricalSeries(ctx, "SBIN", "month")
	require.NoError(t, err)
	assert.Equal(t, 2, srv.Hits(mock.HistoryPath), "different query, different document")
}

func TestClient_FailuresAreNotCached(t *testing.T) {
	m := mock.Demo(demoNow)
	m.IndexStatus = http.StatusServiceUnavailable
	c, srv := newMockClient(t, m, Options{CacheTTL: time.Minute})

	_, err := c.FetchIndexSnapshot(context.Background())
	require.Error(t, err)

	srv.SetMarket(mock.Demo(demoNow))
	_, err = c.FetchIndexSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, srv.Hits(mock.IndexPath))
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(Options{Endpoints: Endpoints{IndexURL: srv.URL}}).WithTimeout(20 * time.Millisecond)
	start := time.Now()
	_, err := c.FetchIndexSnapshot(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrDataUnavailable)
	assert.Equal(t, models.KindTimeout, models.KindOf(err))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestNewClientWithHTTPClient_LeavesSharedClientUntouched(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	shared := &http.Client{Timeout: 7 * time.Second}
	c := NewClientWithHTTPClient(Options{Endpoints: Endpoints{IndexURL: srv.URL}, Timeout: time.Second}, shared).
		WithTimeout(20 * time.Millisecond)

	assert.Same(t, shared, c.client)
	assert.Equal(t, 7*time.Second, shared.Timeout)
	assert.Equal(t, 20*time.Millisecond, c.timeout)

	_, err := c.FetchIndexSnapshot(context.Background())
	require.Error(t, err)
	assert.Equal(t, models.KindTimeout, models.KindOf(err))
	assert.Equal(t, 7*time.Second, shared.Timeout)
}

func TestNewClient_Logger(t *testing.T) {
	assert.Same(t, logrus.StandardLogger(), NewClient(Options{}).logger)

	logger, _ := logrustest.NewNullLogger()
	assert.Same(t, logger, NewClient(Options{Logger: logger}).logger)
}
