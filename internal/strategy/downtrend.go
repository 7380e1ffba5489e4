package strategy

import (
	"context"
	"math"
	"sort"

	"github.com/eddiefleurent/downtrend_puts/internal/models"
	"github.com/sirupsen/logrus"
)

// DefaultHistoryWindow is the history period used to confirm a downtrend.
const DefaultHistoryWindow = "week"

// HistoryFetcher fetches a stock's closing prices for a window such as "week".
type HistoryFetcher interface {
	FetchHistoricalSeries(ctx context.Context, symbol, window string) (models.HistoricalSeries, error)
}

// DowntrendFilter selects index constituents that lag the index and whose
// price history confirms the move.
type DowntrendFilter struct {
	history HistoryFetcher
	window  string
	logger  logrus.FieldLogger
}

// NewDowntrendFilter creates a filter reading history over window.
func NewDowntrendFilter(history HistoryFetcher, window string, logger logrus.FieldLogger) *DowntrendFilter {
	if window == "" {
		window = DefaultHistoryWindow
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &DowntrendFilter{history: history, window: window, logger: logger}
}

// RankLosingStocks keeps the constituents whose percent change is strictly
// below the index figure and orders them by how far they lag, worst first.
// Equal lags keep snapshot order.
func RankLosingStocks(snapshot *models.IndexSnapshot) []models.RankedStock {
	if snapshot == nil {
		return nil
	}
	ranked := make([]models.RankedStock, 0, len(snapshot.Constituents))
	for _, quote := range snapshot.Constituents {
		if quote.PercentChange < snapshot.IndexLastClose {
			ranked = append(ranked, models.RankedStock{
				StockQuote:       quote,
				Underperformance: math.Abs(quote.PercentChange - snapshot.IndexLastClose),
			})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Underperformance > ranked[j].Underperformance
	})
	return ranked
}

// ConfirmWeeklyDowntrend fetches the stock's history and applies
// HistoricalSeries.IsFalling. Any fetch or parse error is returned so the
// caller can exclude the stock.
func (f *DowntrendFilter) ConfirmWeeklyDowntrend(ctx context.Context, stock models.RankedStock) (bool, error) {
	series, err := f.history.FetchHistoricalSeries(ctx, stock.Symbol, f.window)
	if err != nil {
		return false, err
	}
	f.logger.WithFields(logrus.Fields{
		"symbol": stock.Symbol,
		"window": f.window,
		"series": []float64(series),
	}).Info("Historical closes")
	return series.IsFalling()
}

// FilterQualified ranks the losing stocks and keeps those whose history
// confirms the downtrend, preserving the ranked order.
func (f *DowntrendFilter) FilterQualified(ctx context.Context, snapshot *models.IndexSnapshot) []models.RankedStock {
	ranked := RankLosingStocks(snapshot)
	symbols := make([]string, 0, len(ranked))
	for _, r := range ranked {
		symbols = append(symbols, r.Symbol)
	}
	f.logger.WithField("symbols", symbols).Infof("Losing stocks on index: %d", len(ranked))

	qualified := make([]models.RankedStock, 0, len(ranked))
	for _, stock := range ranked {
		if ctx.Err() != nil {
			f.logger.WithError(ctx.Err()).Warn("Downtrend check interrupted")
			break
		}
		log := f.logger.WithField("symbol", stock.Symbol)
		log.Info("Checking one week downtrend")

		ok, err := f.ConfirmWeeklyDowntrend(ctx, stock)
		if err != nil {
			log.WithError(err).WithField("kind", models.KindOf(err)).Error("Downtrend check failed, skipping stock")
			continue
		}
		if !ok {
			log.Info("Failed one week downtrend check")
			continue
		}
		log.Info("Passed one week downtrend check")
		qualified = append(qualified, stock)
	}
	return qualified
}
