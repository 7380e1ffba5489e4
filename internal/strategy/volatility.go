package strategy

import (
	"fmt"
	"time"

	"github.com/eddiefleurent/downtrend_puts/internal/models"
	"github.com/eddiefleurent/downtrend_puts/internal/util"
	"github.com/montanaflynn/stats"
	"github.com/sirupsen/logrus"
)

// OptionSelector turns an option chain into a single selected contract.
type OptionSelector struct {
	config SelectionConfig
	logger logrus.FieldLogger
}

// NewOptionSelector creates a selector with the given thresholds.
func NewOptionSelector(config SelectionConfig, logger logrus.FieldLogger) *OptionSelector {
	if config.Side == "" {
		config.Side = models.SidePut
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &OptionSelector{config: config, logger: logger}
}

// WithLogger returns a copy of the selector that logs through logger.
func (s *OptionSelector) WithLogger(logger logrus.FieldLogger) *OptionSelector {
	return &OptionSelector{config: s.config, logger: logger}
}

// ImpliedVolatilityRange reads the side's implied volatility from every row in
// table order and returns the last and first readings as (min, max). The
// chain is listed with volatility descending, so the endpoints are used
// rather than a true min/max. Rows whose volatility cannot be read are skipped.
func (s *OptionSelector) ImpliedVolatilityRange(rows []models.RowAccessor) (minVol, maxVol float64, err error) {
	readings := make([]float64, 0, len(rows))
	for i, row := range rows {
		iv, err := row.ImpliedVolatility(s.config.Side)
		if err != nil {
			s.logger.WithError(err).WithField("row", i).Debug("Skipping row without implied volatility")
			continue
		}
		readings = append(readings, iv)
	}
	if len(readings) == 0 {
		return 0, 0, fmt.Errorf("%w: %d rows, none readable", models.ErrNoVolatilityData, len(rows))
	}

	minVol, maxVol = readings[len(readings)-1], readings[0]

	fields := logrus.Fields{"readings": len(readings), "min": minVol, "max": maxVol}
	if lo, err := stats.Min(readings); err == nil {
		fields["observed_min"] = lo
	}
	if hi, err := stats.Max(readings); err == nil {
		fields["observed_max"] = hi
	}
	if med, err := stats.Median(readings); err == nil {
		fields["median"] = med
	}
	s.logger.WithFields(fields).Info("Implied volatility range")

	return minVol, maxVol, nil
}

// CalendarVarianceAdjustment returns the points taken off the band percentage
// for the week of the month now falls in. Weeks missing from adjustments give 0.
func CalendarVarianceAdjustment(now time.Time, adjustments map[int]int) int {
	return adjustments[util.WeekOfMonth(now)]
}

// BandPercent returns the percentage of the first band whose threshold minVol exceeds.
func (s *OptionSelector) BandPercent(minVol, maxVol float64) (int, error) {
	for _, band := range s.config.VolatilityBands {
		if minVol > band.Above {
			return band.Percent, nil
		}
	}
	lowest := 0.0
	if n := len(s.config.VolatilityBands); n > 0 {
		lowest = s.config.VolatilityBands[n-1].Above
	}
	return 0, fmt.Errorf("%w: range %.2f-%.2f is not above %.2f",
		models.ErrVolatilityOutOfRange, minVol, maxVol, lowest)
}

// TargetStrike places the strike below lastTradedPrice by the volatility band
// percentage less the calendar adjustment. The percentage is not floored and
// may go negative.
func (s *OptionSelector) TargetStrike(rows []models.RowAccessor, lastTradedPrice float64, now time.Time) (float64, error) {
	minVol, maxVol, err := s.ImpliedVolatilityRange(rows)
	if err != nil {
		return 0, err
	}
	band, err := s.BandPercent(minVol, maxVol)
	if err != nil {
		return 0, err
	}
	adjustment := CalendarVarianceAdjustment(now, s.config.WeekAdjustments)
	percentage := band - adjustment
	target := lastTradedPrice - lastTradedPrice*float64(percentage)/100

	s.logger.WithFields(logrus.Fields{
		"ltp":        lastTradedPrice,
		"band":       band,
		"adjustment": adjustment,
		"target":     target,
	}).Info("Target strike")
	return target, nil
}
