package strategy

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/eddiefleurent/downtrend_puts/internal/models"
	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// brokenRow fails on the fields named in broken.
type brokenRow struct {
	models.OptionRow
	broken map[string]bool
}

func (r brokenRow) Strike() (float64, error) {
	if r.broken["strike"] {
		return 0, fmt.Errorf("%w: strike", models.ErrRowParse)
	}
	return r.OptionRow.Strike()
}

func (r brokenRow) LastTradedPrice(side models.Side) (float64, error) {
	if r.broken["ltp"] {
		return 0, fmt.Errorf("%w: ltp", models.ErrRowParse)
	}
	return r.OptionRow.LastTradedPrice(side)
}

func (r brokenRow) Volume(side models.Side) (int, error) {
	if r.broken["volume"] {
		return 0, fmt.Errorf("%w: volume", models.ErrRowParse)
	}
	return r.OptionRow.Volume(side)
}

func (r brokenRow) ImpliedVolatility(side models.Side) (float64, error) {
	if r.broken["iv"] {
		return 0, fmt.Errorf("%w: iv", models.ErrRowParse)
	}
	return r.OptionRow.ImpliedVolatility(side)
}

func putRow(strike, ltp float64, volume int, iv float64) models.OptionRow {
	return models.OptionRow{
		StrikePrice:          strike,
		PutLastTradedPrice:   ltp,
		PutVolume:            volume,
		PutImpliedVolatility: iv,
	}
}

func accessors(rows ...models.RowAccessor) []models.RowAccessor {
	return rows
}

// ivRows builds rows whose put IV readings are ivs, in order.
func ivRows(ivs ...float64) []models.RowAccessor {
	rows := make([]models.RowAccessor, 0, len(ivs))
	for i, iv := range ivs {
		rows = append(rows, putRow(float64(100+i*5), 1, 500, iv))
	}
	return rows
}

func dayOf(day int) time.Time {
	return time.Date(2026, time.October, day, 11, 0, 0, 0, time.UTC)
}

type stubHistory struct {
	series map[string]models.HistoricalSeries
	errs   map[string]error
	calls  []string
}

func (s *stubHistory) FetchHistoricalSeries(_ context.Context, symbol, window string) (models.HistoricalSeries, error) {
	s.calls = append(s.calls, symbol+"/"+window)
	if err := s.errs[symbol]; err != nil {
		return nil, err
	}
	series, ok := s.series[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrHistoryUnavailable, symbol)
	}
	return series, nil
}
