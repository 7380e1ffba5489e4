package strategy

import (
	"fmt"
	"math"

	"github.com/eddiefleurent/downtrend_puts/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// PickBestRow scans rows in table order and returns the liquid row whose strike
// is nearest targetStrike. A row replaces the current best only when strictly
// nearer, so the first of two equally near rows is kept. Rows with an
// unreadable or non-finite strike, price, or volume are logged and skipped.
func (s *OptionSelector) PickBestRow(rows []models.RowAccessor, targetStrike float64, lotSize int) (*models.SelectedOption, bool) {
	var best *models.SelectedOption
	bestDistance := math.Inf(1)

	for i, row := range rows {
		strike, ltp, volume, err := s.readRow(row)
		if err != nil {
			s.logger.WithError(err).WithField("row", i).Warn("Skipping option row")
			continue
		}
		if volume <= s.config.LiquidityFloor {
			continue
		}
		distance := math.Abs(strike - targetStrike)
		if math.IsNaN(distance) || distance >= bestDistance {
			continue
		}
		bestDistance = distance
		best = &models.SelectedOption{
			StrikeDistance:  distance,
			StrikePrice:     strike,
			LastTradedPrice: ltp,
			LotSize:         lotSize,
			Notional:        Notional(ltp, lotSize),
		}
		s.logger.WithFields(logrus.Fields{
			"strike":   strike,
			"ltp":      ltp,
			"volume":   volume,
			"lot_size": lotSize,
		}).Info("Consider strike")
	}
	return best, best != nil
}

func (s *OptionSelector) readRow(row models.RowAccessor) (strike, ltp float64, volume int, err error) {
	if strike, err = row.Strike(); err != nil {
		return 0, 0, 0, err
	}
	if ltp, err = row.LastTradedPrice(s.config.Side); err != nil {
		return 0, 0, 0, err
	}
	if volume, err = row.Volume(s.config.Side); err != nil {
		return 0, 0, 0, err
	}
	if !finite(strike) || !finite(ltp) {
		return 0, 0, 0, fmt.Errorf("%w: strike %v ltp %v", models.ErrRowParse, strike, ltp)
	}
	return strike, ltp, volume, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Notional is the cash value of one contract, ltp × lot size rounded half away
// from zero to a whole amount.
func Notional(lastTradedPrice float64, lotSize int) int64 {
	return decimal.NewFromFloat(lastTradedPrice).
		Mul(decimal.NewFromInt(int64(lotSize))).
		Round(0).
		IntPart()
}
