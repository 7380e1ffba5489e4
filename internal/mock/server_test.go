package mock

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServer_ServesEveryPage(t *testing.T) {
	now := time.Date(2026, time.October, 16, 10, 0, 0, 0, time.UTC)
	srv := NewServer(Demo(now))
	defer srv.Close()
	urls := srv.URLs()

	status, body := get(t, urls.Index)
	require.Equal(t, http.StatusOK, status)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &doc))
	assert.Contains(t, body, `"mCls":"0.35"`)

	status, body = get(t, urls.History+"?symbol=SBIN&datePeriod=week")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 6, strings.Count(body, "<tr>"), "header plus five closes")

	status, body = get(t, urls.OptionChain+"?symbol=SBIN")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Underlying Stock: SBIN 512.30")
	assert.Contains(t, body, `id="octable"`)

	status, body = get(t, urls.LotSize)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "<th>OCT-26</th>")
	assert.Contains(t, body, "<td>1,500</td>")
	assert.NotContains(t, body, "AXISBANK", "zero lot size is left out")

	assert.Equal(t, 1, srv.Hits(IndexPath))
	assert.Equal(t, 1, srv.Hits(HistoryPath))
}

func TestServer_FailingPages(t *testing.T) {
	srv := NewServer(Demo(time.Now()))
	defer srv.Close()
	urls := srv.URLs()

	status, _ := get(t, urls.OptionChain+"?symbol=WIPRO")
	assert.Equal(t, 503, status)

	status, _ = get(t, urls.History+"?symbol=UNKNOWN")
	assert.Equal(t, http.StatusNotFound, status)

	m := Demo(time.Now())
	m.IndexStatus = http.StatusBadGateway
	srv.SetMarket(m)
	status, _ = get(t, urls.Index)
	assert.Equal(t, http.StatusBadGateway, status)
}

func TestLadder(t *testing.T) {
	rows := Ladder(512.30, 10, 13, 48, 42)
	require.Len(t, rows, 13)
	assert.Equal(t, 450.0, rows[0].Strike)
	assert.Equal(t, 570.0, rows[12].Strike)
	assert.Equal(t, 48.0, rows[0].PutIV)
	assert.Equal(t, 42.0, rows[12].PutIV)
	for i := 1; i < len(rows); i++ {
		assert.LessOrEqual(t, rows[i].PutIV, rows[i-1].PutIV, "volatility descends down the table")
	}
	for _, r := range rows {
		assert.Greater(t, r.PutVolume, 100)
		assert.Greater(t, r.PutLTP, 0.0)
	}
}

func TestGrouped(t *testing.T) {
	assert.Equal(t, "1,500", grouped(1500, 0))
	assert.Equal(t, "1,234,567.89", grouped(1234567.891, 2))
	assert.Equal(t, "512.30", grouped(512.3, 2))
	assert.Equal(t, "-1,000.00", grouped(-1000, 2))
}

func TestMonthKey(t *testing.T) {
	assert.Equal(t, "MAR-24", MonthKey(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)))
}
