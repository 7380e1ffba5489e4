package nse

import (
	"bytes"
	"context"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/eddiefleurent/downtrend_puts/internal/models"
	"github.com/eddiefleurent/downtrend_puts/internal/util"
)

// closeColumnFromEnd is the position of the closing price counted from the
// last cell of a history row.
const closeColumnFromEnd = 4

// HistoryParams returns the query of the price-history page.
func HistoryParams(symbol, window string) url.Values {
	return url.Values{
		"symbol":     {symbol},
		"series":     {"EQ"},
		"fromDate":   {"undefined"},
		"toDate":     {"undefined"},
		"datePeriod": {window},
	}
}

// FetchHistoricalSeries fetches a stock's closing prices over window ("week",
// "month", ...) in the order the page lists them.
func (c *Client) FetchHistoricalSeries(ctx context.Context, symbol, window string) (models.HistoricalSeries, error) {
	body, err := c.get(ctx, c.endpoints.HistoryURL, HistoryParams(symbol, window), "text/html")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", models.ErrHistoryUnavailable, symbol, err)
	}
	series, err := parseHistoricalSeries(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", models.ErrHistoryUnavailable, symbol, err)
	}
	return series, nil
}

// parseHistoricalSeries reads every row after the first and takes the fourth
// cell from the end.
func parseHistoricalSeries(body []byte) (models.HistoricalSeries, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing history page: %w", err)
	}

	var (
		series  models.HistoricalSeries
		rowErr  error
		allRows = doc.Find("tr")
	)
	if allRows.Length() < 2 {
		return nil, fmt.Errorf("history page has no data rows")
	}
	allRows.Slice(1, goquery.ToEnd).EachWithBreak(func(i int, row *goquery.Selection) bool {
		cells := row.Find("td")
		if cells.Length() < closeColumnFromEnd {
			rowErr = fmt.Errorf("history row %d has %d cells", i+1, cells.Length())
			return false
		}
		text := cells.Eq(cells.Length() - closeColumnFromEnd).Text()
		v, err := util.ParseNumber(text)
		if err != nil {
			rowErr = fmt.Errorf("history row %d: %w", i+1, err)
			return false
		}
		series = append(series, v)
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}
	return series, nil
}
