package strategy

import (
	"math"
	"testing"

	"github.com/eddiefleurent/downtrend_puts/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPickBestRow_LiquidityAndDistance(t *testing.T) {
	s := NewOptionSelector(DefaultSelectionConfig(), quietLogger())
	rows := accessors(
		putRow(95, 1.10, 50, 40),
		putRow(100, 2.35, 200, 40),
		putRow(105, 4.80, 300, 40),
	)

	best, ok := s.PickBestRow(rows, 97, 1500)
	require.True(t, ok)
	assert.Equal(t, 100.0, best.StrikePrice)
	assert.InDelta(t, 3.0, best.StrikeDistance, 1e-9)
	assert.Equal(t, 2.35, best.LastTradedPrice)
	assert.Equal(t, 1500, best.LotSize)
	assert.Equal(t, int64(3525), best.Notional)
}

func TestPickBestRow_FirstSeenWinsTies(t *testing.T) {
	s := NewOptionSelector(DefaultSelectionConfig(), quietLogger())
	rows := accessors(
		putRow(95, 1.00, 500, 40),
		putRow(105, 5.00, 500, 40),
	)

	best, ok := s.PickBestRow(rows, 100, 10)
	require.True(t, ok)
	assert.Equal(t, 95.0, best.StrikePrice)

	reversed := accessors(rows[1], rows[0])
	best, ok = s.PickBestRow(reversed, 100, 10)
	require.True(t, ok)
	assert.Equal(t, 105.0, best.StrikePrice)
}

func TestPickBestRow_VolumeFloorIsExclusive(t *testing.T) {
	s := NewOptionSelector(DefaultSelectionConfig(), quietLogger())

	_, ok := s.PickBestRow(accessors(putRow(100, 1, 100, 40)), 100, 10)
	assert.False(t, ok, "volume equal to the floor is not liquid")

	best, ok := s.PickBestRow(accessors(putRow(100, 1, 101, 40)), 100, 10)
	require.True(t, ok)
	assert.Equal(t, 100.0, best.StrikePrice)
}

func TestPickBestRow_CustomFloor(t *testing.T) {
	cfg := DefaultSelectionConfig()
	cfg.LiquidityFloor = 1000
	s := NewOptionSelector(cfg, quietLogger())

	rows := accessors(putRow(100, 1, 999, 40), putRow(120, 1, 1001, 40))
	best, ok := s.PickBestRow(rows, 100, 10)
	require.True(t, ok)
	assert.Equal(t, 120.0, best.StrikePrice)
}

func TestPickBestRow_SkipsMalformedRows(t *testing.T) {
	s := NewOptionSelector(DefaultSelectionConfig(), quietLogger())
	rows := accessors(
		brokenRow{OptionRow: putRow(100, 1, 500, 40), broken: map[string]bool{"strike": true}},
		brokenRow{OptionRow: putRow(100, 1, 500, 40), broken: map[string]bool{"ltp": true}},
		brokenRow{OptionRow: putRow(100, 1, 500, 40), broken: map[string]bool{"volume": true}},
		putRow(110, 3.5, 500, 40),
	)

	best, ok := s.PickBestRow(rows, 100, 20)
	require.True(t, ok)
	assert.Equal(t, 110.0, best.StrikePrice)
	assert.Equal(t, int64(70), best.Notional)
}

func TestPickBestRow_SkipsNonFiniteFigures(t *testing.T) {
	s := NewOptionSelector(DefaultSelectionConfig(), quietLogger())
	rows := accessors(
		putRow(100, math.NaN(), 500, 40),
		putRow(100, math.Inf(1), 500, 40),
		putRow(math.Inf(-1), 1, 500, 40),
		putRow(115, 2.5, 500, 40),
	)

	var best *models.SelectedOption
	var ok bool
	require.NotPanics(t, func() { best, ok = s.PickBestRow(rows, 100, 40) })
	require.True(t, ok)
	assert.Equal(t, 115.0, best.StrikePrice)
	assert.Equal(t, int64(100), best.Notional)
}

func TestPickBestRow_OnlyNonFiniteRows(t *testing.T) {
	s := NewOptionSelector(DefaultSelectionConfig(), quietLogger())

	best, ok := s.PickBestRow(accessors(putRow(100, math.NaN(), 500, 40)), 100, 10)
	assert.False(t, ok)
	assert.Nil(t, best)
}

func TestPickBestRow_NoQualifyingRows(t *testing.T) {
	s := NewOptionSelector(DefaultSelectionConfig(), quietLogger())

	best, ok := s.PickBestRow(nil, 100, 10)
	assert.False(t, ok)
	assert.Nil(t, best)

	best, ok = s.PickBestRow(accessors(putRow(100, 1, 5, 40), putRow(105, 1, 0, 40)), 100, 10)
	assert.False(t, ok)
	assert.Nil(t, best)
}

func TestPickBestRow_CallSide(t *testing.T) {
	cfg := DefaultSelectionConfig()
	cfg.Side = models.SideCall
	s := NewOptionSelector(cfg, quietLogger())
	rows := accessors(
		models.OptionRow{StrikePrice: 100, PutVolume: 5000, CallVolume: 10, CallLastTradedPrice: 9},
		models.OptionRow{StrikePrice: 110, PutVolume: 0, CallVolume: 500, CallLastTradedPrice: 4},
	)

	best, ok := s.PickBestRow(rows, 100, 50)
	require.True(t, ok)
	assert.Equal(t, 110.0, best.StrikePrice)
	assert.Equal(t, 4.0, best.LastTradedPrice)
	assert.Equal(t, int64(200), best.Notional)
}

func TestNotional(t *testing.T) {
	tests := []struct {
		ltp  float64
		lot  int
		want int64
	}{
		{2.35, 1500, 3525},
		{0.05, 250, 13}, // 12.5 rounds away from zero
		{1.234, 100, 123},
		{12.99, 0, 0},
	}
	for _, tt := range tests {
		if got := Notional(tt.ltp, tt.lot); got != tt.want {
			t.Errorf("Notional(%v, %d) = %d, want %d", tt.ltp, tt.lot, got, tt.want)
		}
	}
}
