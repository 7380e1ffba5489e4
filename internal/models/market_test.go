package models

import (
	"errors"
	"testing"
)

func TestHistoricalSeries_IsFalling(t *testing.T) {
	tests := []struct {
		name   string
		series HistoricalSeries
		want   bool
	}{
		{name: "later price higher qualifies", series: HistoricalSeries{90, 100}, want: true},
		{name: "later price lower does not qualify", series: HistoricalSeries{100, 90}, want: false},
		{name: "flat does not qualify", series: HistoricalSeries{100, 100}, want: false},
		{name: "only endpoints matter", series: HistoricalSeries{90, 500, 1, 91}, want: true},
		{name: "single point", series: HistoricalSeries{42}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.series.IsFalling()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("IsFalling(%v) = %v, want %v", tt.series, got, tt.want)
			}
		})
	}
}

func TestHistoricalSeries_IsFallingEmpty(t *testing.T) {
	_, err := HistoricalSeries{}.IsFalling()
	if !errors.Is(err, ErrHistoryUnavailable) {
		t.Fatalf("expected ErrHistoryUnavailable, got %v", err)
	}
}

func TestIndexSnapshot_Symbols(t *testing.T) {
	s := &IndexSnapshot{Constituents: []StockQuote{{Symbol: "SBIN"}, {Symbol: "TCS"}}}
	got := s.Symbols()
	if len(got) != 2 || got[0] != "SBIN" || got[1] != "TCS" {
		t.Fatalf("Symbols() = %v", got)
	}
}
