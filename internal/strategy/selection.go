// Package strategy implements the PUT selection rules: the relative downtrend
// filter, volatility-banded strike targeting, and option row scoring.
package strategy

import (
	"fmt"
	"sort"

	"github.com/eddiefleurent/downtrend_puts/internal/models"
)

// Selection defaults
const (
	// defaultLiquidityFloor is the volume a row must exceed to be tradeable
	defaultLiquidityFloor = 100
)

// VolatilityBand maps a volatility floor to the percentage below spot at which
// the target strike is placed. A band applies when minVol > Above.
type VolatilityBand struct {
	Above   float64 `yaml:"above"`
	Percent int     `yaml:"percent"`
}

// SelectionConfig holds the heuristic thresholds of the selection rules.
type SelectionConfig struct {
	Side           models.Side
	LiquidityFloor int
	// VolatilityBands are checked in order; the first band exceeded wins.
	VolatilityBands []VolatilityBand
	// WeekAdjustments maps week-of-month to the points subtracted from the
	// band percentage. Weeks without an entry subtract nothing.
	WeekAdjustments map[int]int
}

// DefaultSelectionConfig returns the thresholds the screener has always used.
func DefaultSelectionConfig() SelectionConfig {
	return SelectionConfig{
		Side:           models.SidePut,
		LiquidityFloor: defaultLiquidityFloor,
		VolatilityBands: []VolatilityBand{
			{Above: 50, Percent: 10},
			{Above: 40, Percent: 8},
			{Above: 30, Percent: 5},
		},
		WeekAdjustments: map[int]int{2: 2, 3: 2, 4: 3},
	}
}

// Validate checks that the bands are usable and ordered from the highest floor down.
func (c SelectionConfig) Validate() error {
	if c.Side != models.SidePut && c.Side != models.SideCall {
		return fmt.Errorf("side must be PUT or CALL, got %q", c.Side)
	}
	if c.LiquidityFloor < 0 {
		return fmt.Errorf("liquidity_floor must be >= 0")
	}
	if len(c.VolatilityBands) == 0 {
		return fmt.Errorf("at least one volatility band is required")
	}
	if !sort.SliceIsSorted(c.VolatilityBands, func(i, j int) bool {
		return c.VolatilityBands[i].Above > c.VolatilityBands[j].Above
	}) {
		return fmt.Errorf("volatility bands must be ordered by descending threshold")
	}
	for i := 1; i < len(c.VolatilityBands); i++ {
		if c.VolatilityBands[i].Above == c.VolatilityBands[i-1].Above {
			return fmt.Errorf("duplicate volatility band threshold %.2f", c.VolatilityBands[i].Above)
		}
	}
	for week := range c.WeekAdjustments {
		if week < 1 || week > 5 {
			return fmt.Errorf("week adjustment for week %d is outside 1-5", week)
		}
	}
	return nil
}
