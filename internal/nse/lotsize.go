package nse

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/eddiefleurent/downtrend_puts/internal/models"
	"github.com/eddiefleurent/downtrend_puts/internal/util"
)

// FetchLotSizeTable fetches and parses the lot-size reference table.
func (c *Client) FetchLotSizeTable(ctx context.Context) (*models.LotSizeTable, error) {
	body, err := c.get(ctx, c.endpoints.LotSizeURL, nil, "text/html")
	if err != nil {
		return nil, fmt.Errorf("%w: fetching lot size table: %w", models.ErrLotSizeNotFound, err)
	}
	return parseLotSizeTable(body, c.layout.LotSizeTableID)
}

// FetchLotSize returns symbol's lot size for the month now falls in.
func (c *Client) FetchLotSize(ctx context.Context, symbol string, now time.Time) (int, error) {
	table, err := c.FetchLotSizeTable(ctx)
	if err != nil {
		return 0, err
	}
	return table.Lookup(symbol, util.MonthKey(now))
}

func parseLotSizeTable(body []byte, tableID string) (*models.LotSizeTable, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing lot size page: %w", models.ErrLotSizeNotFound, err)
	}
	tbl := doc.Find("table#" + tableID)
	if tbl.Length() == 0 {
		return nil, fmt.Errorf("%w: table %q not found", models.ErrLotSizeNotFound, tableID)
	}

	table := &models.LotSizeTable{}
	tbl.First().Find("th").Each(func(_ int, th *goquery.Selection) {
		table.Headers = append(table.Headers, strings.TrimSpace(th.Text()))
	})
	tbl.First().Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		var row []string
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			row = append(row, strings.TrimSpace(td.Text()))
		})
		if len(row) > 0 {
			table.Rows = append(table.Rows, row)
		}
	})
	return table, nil
}
