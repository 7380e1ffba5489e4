package nse

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/eddiefleurent/downtrend_puts/internal/models"
	"github.com/eddiefleurent/downtrend_puts/internal/util"
)

// Positions of the side columns, counted outward from the strike column over
// data cells only. The call side mirrors the put side.
const (
	ivCellOffset     = 7
	volumeCellOffset = 8
)

// OptionChainParams returns the query of the option-chain page.
func OptionChainParams(symbol string) url.Values {
	return url.Values{
		"symbolCode":  {"1098"},
		"symbol":      {symbol},
		"instrument":  {"-"},
		"date":        {"-"},
		"segmentLink": {"17"},
		"symbolCount": {"2"},
	}
}

// FetchOptionChain fetches the option table for symbol together with the
// underlying's last traded price. Failures wrap models.ErrChainUnavailable.
func (c *Client) FetchOptionChain(ctx context.Context, symbol string) (*models.OptionChain, error) {
	body, err := c.get(ctx, c.endpoints.OptionChainURL, OptionChainParams(symbol), "text/html")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", models.ErrChainUnavailable, symbol, err)
	}
	chain, err := parseOptionChain(body, symbol, c.layout)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", models.ErrChainUnavailable, symbol, err)
	}
	return chain, nil
}

func parseOptionChain(body []byte, symbol string, layout Layout) (*models.OptionChain, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing option chain page: %w", err)
	}

	ltp, err := underlyingPrice(doc, symbol)
	if err != nil {
		return nil, err
	}

	table := doc.Find("table#" + layout.OptionTableID)
	if table.Length() == 0 {
		return nil, fmt.Errorf("option table %q not found", layout.OptionTableID)
	}

	chain := &models.OptionChain{Symbol: symbol, UnderlyingPrice: ltp}
	table.First().Find("tr").Each(func(_ int, tr *goquery.Selection) {
		chain.Rows = append(chain.Rows, newHTMLRow(tr, layout))
	})
	return chain, nil
}

// underlyingPrice reads the last token of the first <b> mentioning symbol,
// e.g. "Underlying Stock: SBIN 512.30".
func underlyingPrice(doc *goquery.Document, symbol string) (float64, error) {
	label := doc.Find("b").FilterFunction(func(_ int, b *goquery.Selection) bool {
		return strings.Contains(b.Text(), symbol)
	}).First()
	if label.Length() == 0 {
		return 0, fmt.Errorf("underlying price for %s not found", symbol)
	}
	ltp, err := util.ParseNumber(util.LastField(label.Text()))
	if err != nil {
		return 0, fmt.Errorf("underlying price for %s: %w", symbol, err)
	}
	return ltp, nil
}

// htmlRow reads one <tr> of the option table. The strike cell is the anchor;
// data cells are read outward from it, following for PUT and preceding for CALL.
type htmlRow struct {
	anchor *goquery.Selection
	put    []*goquery.Selection // nearest first
	call   []*goquery.Selection // nearest first
}

var _ models.RowAccessor = (*htmlRow)(nil)

func newHTMLRow(tr *goquery.Selection, layout Layout) *htmlRow {
	var cells []*goquery.Selection
	tr.ChildrenFiltered("td").Each(func(_ int, td *goquery.Selection) {
		cells = append(cells, td)
	})

	row := &htmlRow{}
	anchorAt := -1
	for i, td := range cells {
		if td.HasClass(layout.AnchorClass) && td.Find("a").Length() > 0 {
			anchorAt = i
			break
		}
	}
	if anchorAt < 0 {
		return row
	}

	row.anchor = cells[anchorAt]
	for i := anchorAt + 1; i < len(cells); i++ {
		if cells[i].HasClass(layout.CellClass) {
			row.put = append(row.put, cells[i])
		}
	}
	for i := anchorAt - 1; i >= 0; i-- {
		if cells[i].HasClass(layout.CellClass) {
			row.call = append(row.call, cells[i])
		}
	}
	return row
}

func (r *htmlRow) side(side models.Side) []*goquery.Selection {
	if side == models.SideCall {
		return r.call
	}
	return r.put
}

// cell returns the nth (1-based) data cell on side.
func (r *htmlRow) cell(side models.Side, n int, field string) (string, error) {
	if r.anchor == nil {
		return "", fmt.Errorf("%w: %s: row has no strike column", models.ErrRowParse, field)
	}
	cells := r.side(side)
	if n > len(cells) {
		return "", fmt.Errorf("%w: %s %s: row has %d cells", models.ErrRowParse, side, field, len(cells))
	}
	return cells[n-1].Text(), nil
}

// Strike returns the strike printed in the anchor cell.
func (r *htmlRow) Strike() (float64, error) {
	if r.anchor == nil {
		return 0, fmt.Errorf("%w: strike: row has no strike column", models.ErrRowParse)
	}
	v, err := util.ParseNumber(r.anchor.Find("a b").First().Text())
	if err != nil {
		return 0, fmt.Errorf("%w: strike: %w", models.ErrRowParse, err)
	}
	return v, nil
}

// LastTradedPrice returns the text of the link in the nearest linked data cell.
func (r *htmlRow) LastTradedPrice(side models.Side) (float64, error) {
	if r.anchor == nil {
		return 0, fmt.Errorf("%w: ltp: row has no strike column", models.ErrRowParse)
	}
	for _, td := range r.side(side) {
		link := td.Find("a").First()
		if link.Length() == 0 {
			continue
		}
		v, err := util.ParseNumber(link.Text())
		if err != nil {
			return 0, fmt.Errorf("%w: %s ltp: %w", models.ErrRowParse, side, err)
		}
		return v, nil
	}
	return 0, fmt.Errorf("%w: %s ltp: no linked cell", models.ErrRowParse, side)
}

// Volume returns the 8th data cell on side.
func (r *htmlRow) Volume(side models.Side) (int, error) {
	text, err := r.cell(side, volumeCellOffset, "volume")
	if err != nil {
		return 0, err
	}
	v, err := util.ParseCount(text)
	if err != nil {
		return 0, fmt.Errorf("%w: %s volume: %w", models.ErrRowParse, side, err)
	}
	return v, nil
}

// ImpliedVolatility returns the 7th data cell on side.
func (r *htmlRow) ImpliedVolatility(side models.Side) (float64, error) {
	text, err := r.cell(side, ivCellOffset, "iv")
	if err != nil {
		return 0, err
	}
	v, err := util.ParseNumber(text)
	if err != nil {
		return 0, fmt.Errorf("%w: %s iv: %w", models.ErrRowParse, side, err)
	}
	return v, nil
}
