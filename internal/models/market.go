// Package models defines the market data and selection types shared by the screener.
package models

// StockQuote is one index constituent as reported by the index snapshot.
type StockQuote struct {
	Symbol        string  `json:"symbol"`
	PercentChange float64 `json:"percent_change"` // vs previous close
}

// IndexSnapshot is the index figure plus its constituents, in the order the
// source delivered them. It is fetched once per run and treated as read-only.
type IndexSnapshot struct {
	IndexLastClose float64      `json:"index_last_close"`
	Constituents   []StockQuote `json:"constituents"`
}

// Symbols returns the constituent symbols in snapshot order.
func (s *IndexSnapshot) Symbols() []string {
	symbols := make([]string, 0, len(s.Constituents))
	for _, c := range s.Constituents {
		symbols = append(symbols, c.Symbol)
	}
	return symbols
}

// RankedStock is a constituent that lagged the index, with the size of the lag.
type RankedStock struct {
	StockQuote
	Underperformance float64 `json:"underperformance"`
}

// HistoricalSeries holds closing prices for one stock in the order the source
// delivered them. No re-sorting is ever applied.
type HistoricalSeries []float64

// IsFalling reports whether the first delivered price is below the last one.
// The comparison is kept exactly as the screener has always applied it.
func (s HistoricalSeries) IsFalling() (bool, error) {
	if len(s) == 0 {
		return false, ErrHistoryUnavailable
	}
	return s[0] < s[len(s)-1], nil
}
