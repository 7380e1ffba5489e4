// Package report renders a screening result for people and for scripts.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/eddiefleurent/downtrend_puts/internal/models"
	"github.com/eddiefleurent/downtrend_puts/internal/pipeline"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Render writes the selections as a table, one line per selected stock in
// ranked order, followed by the stocks that were skipped and why.
func Render(w io.Writer, result *pipeline.Result) error {
	if result == nil {
		return fmt.Errorf("no result to render")
	}
	p := message.NewPrinter(language.English)

	if _, err := fmt.Fprintf(w, "Run %s at %s\n", result.RunID, result.StartedAt.Format("2006-01-02 15:04:05 MST")); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Symbol", "Lag %", "Strike", "Distance", "LTP", "Lot Size", "Notional"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetAutoFormatHeaders(false)
	for _, o := range result.Outcomes {
		if o.Option == nil {
			continue
		}
		table.Append([]string{
			o.Symbol,
			strconv.FormatFloat(o.Stock.Underperformance, 'f', 2, 64),
			p.Sprintf("%.2f", o.Option.StrikePrice),
			p.Sprintf("%.2f", o.Option.StrikeDistance),
			p.Sprintf("%.2f", o.Option.LastTradedPrice),
			p.Sprintf("%d", o.Option.LotSize),
			p.Sprintf("%d", o.Option.Notional),
		})
	}
	table.Render()

	skipped := make([]pipeline.Outcome, 0, len(result.Outcomes))
	for _, o := range result.Outcomes {
		if o.Err != nil {
			skipped = append(skipped, o)
		}
	}
	if len(skipped) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Skipped:"); err != nil {
		return err
	}
	for _, o := range skipped {
		if _, err := fmt.Fprintf(w, "  %-12s %s\n", o.Symbol, o.Kind()); err != nil {
			return err
		}
	}
	return nil
}

type jsonOutcome struct {
	Symbol           string  `json:"symbol"`
	Underperformance float64 `json:"underperformance"`
	Selected         bool    `json:"selected"`
	Kind             string  `json:"error_kind,omitempty"`
	Error            string  `json:"error,omitempty"`
}

type jsonResult struct {
	RunID      string                             `json:"run_id"`
	StartedAt  string                             `json:"started_at"`
	Selections map[string][]models.SelectedOption `json:"selections"`
	Symbols    []string                           `json:"symbols"`
	Outcomes   []jsonOutcome                      `json:"outcomes"`
}

// RenderJSON writes the symbol to option mapping plus per-stock outcomes as
// indented JSON.
func RenderJSON(w io.Writer, result *pipeline.Result) error {
	if result == nil {
		return fmt.Errorf("no result to render")
	}
	out := jsonResult{
		RunID:      result.RunID,
		StartedAt:  result.StartedAt.Format(time.RFC3339),
		Selections: make(map[string][]models.SelectedOption, len(result.Selections)),
		Symbols:    make([]string, 0, len(result.Selections)),
		Outcomes:   make([]jsonOutcome, 0, len(result.Outcomes)),
	}
	for symbol, options := range result.Selections {
		out.Selections[symbol] = options
		out.Symbols = append(out.Symbols, symbol)
	}
	sort.Strings(out.Symbols)
	for _, o := range result.Outcomes {
		jo := jsonOutcome{
			Symbol:           o.Symbol,
			Underperformance: o.Stock.Underperformance,
			Selected:         o.Option != nil,
			Kind:             string(o.Kind()),
		}
		if o.Err != nil {
			jo.Error = o.Err.Error()
		}
		out.Outcomes = append(out.Outcomes, jo)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
