// Package mock serves a fake exchange site with the same pages, URLs and
// layout the screener reads, built from an in-memory Market description.
package mock

import (
	"math"
	"strings"
	"time"
)

// Page paths served by Server.
const (
	IndexPath       = "/live_market/dynaContent/live_watch/stock_watch/niftyStockWatch.json"
	HistoryPath     = "/live_market/dynaContent/live_watch/get_quote/getHistoricalData.jsp"
	OptionChainPath = "/live_market/dynaContent/live_watch/option_chain/optionKeys.jsp"
	LotSizePath     = "/technical-school/nse-fo-lot-size/"
)

// Layout hooks written into the generated pages.
const (
	OptionTableID  = "octable"
	LotSizeTableID = "tablepress-24"
)

// ChainRow is one strike of a generated option chain. Zero prices, volumes
// and volatilities are printed as "-", the way the live page shows no trades.
type ChainRow struct {
	Strike     float64
	CallLTP    float64
	CallIV     float64
	CallVolume int
	PutLTP     float64
	PutIV      float64
	PutVolume  int
}

// Stock is one index constituent and everything the site knows about it.
type Stock struct {
	Symbol        string
	PercentChange float64
	// History is printed oldest-first unless the caller orders it otherwise.
	History    []float64
	Underlying float64
	Chain      []ChainRow
	// LotSize of zero leaves the stock out of the lot-size table.
	LotSize int
	// Non-zero statuses make the corresponding page fail.
	HistoryStatus int
	ChainStatus   int
}

// Market describes the whole fake site.
type Market struct {
	IndexName      string
	IndexLastClose float64
	// Month is the lot-size column the stocks' sizes are printed under, e.g. "OCT-26".
	Month         string
	Stocks        []Stock
	IndexStatus   int
	LotSizeStatus int
}

// Stock returns the stock with symbol, if present.
func (m Market) Stock(symbol string) (Stock, bool) {
	for _, s := range m.Stocks {
		if s.Symbol == symbol {
			return s, true
		}
	}
	return Stock{}, false
}

// Ladder builds count strikes spaced step apart around spot. Implied
// volatility falls linearly from ivTop on the first row to ivBottom on the
// last, and volume fades away from the money.
func Ladder(spot, step float64, count int, ivTop, ivBottom float64) []ChainRow {
	rows := make([]ChainRow, 0, count)
	first := math.Round(spot/step)*step - step*float64(count/2)
	for i := 0; i < count; i++ {
		strike := first + step*float64(i)
		distance := math.Abs(strike - spot)
		timeValue := step * 0.6 * math.Exp(-distance/(3*step))

		iv := ivTop
		if count > 1 {
			iv = ivTop - (ivTop-ivBottom)*float64(i)/float64(count-1)
		}
		volume := int(2000 * math.Exp(-distance/(4*step)))

		rows = append(rows, ChainRow{
			Strike:     strike,
			CallLTP:    round2(math.Max(0, spot-strike) + timeValue),
			CallIV:     round2(iv),
			CallVolume: volume,
			PutLTP:     round2(math.Max(0, strike-spot) + timeValue),
			PutIV:      round2(iv),
			PutVolume:  volume,
		})
	}
	return rows
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// MonthKey formats t the way the lot-size table labels its columns, e.g. "OCT-26".
func MonthKey(t time.Time) string {
	return strings.ToUpper(t.Format("Jan-06"))
}

// Demo returns a small index whose constituents cover every outcome of a
// screening run: selected, volatility out of range, chain failure, missing
// lot size, failed downtrend confirmation, and beating the index.
func Demo(now time.Time) Market {
	month := MonthKey(now)
	return Market{
		IndexName:      "NIFTY 50",
		IndexLastClose: 0.35,
		Month:          month,
		Stocks: []Stock{
			{
				Symbol:        "SBIN",
				PercentChange: -2.10,
				History:       []float64{498.40, 503.15, 507.80, 509.95, 512.30},
				Underlying:    512.30,
				Chain:         Ladder(512.30, 10, 13, 48, 42),
				LotSize:       1500,
			},
			{
				Symbol:        "TATAMOTORS",
				PercentChange: -1.85,
				History:       []float64{902.10, 915.60, 921.05, 930.40, 934.75},
				Underlying:    934.75,
				Chain:         Ladder(934.75, 20, 15, 58, 52),
				LotSize:       550,
			},
			{
				Symbol:        "AXISBANK",
				PercentChange: -1.50,
				History:       []float64{1040.00, 1052.35, 1061.20, 1066.00, 1071.45},
				Underlying:    1071.45,
				Chain:         Ladder(1071.45, 20, 11, 39, 33),
			},
			{
				Symbol:        "INFY",
				PercentChange: -1.20,
				History:       []float64{1512.00, 1498.25, 1480.60, 1466.10, 1455.90},
				Underlying:    1455.90,
				Chain:         Ladder(1455.90, 20, 11, 36, 31),
				LotSize:       400,
			},
			{
				Symbol:        "ITC",
				PercentChange: -0.95,
				History:       []float64{421.20, 423.75, 425.10, 426.40, 427.05},
				Underlying:    427.05,
				Chain:         Ladder(427.05, 5, 11, 26, 21),
				LotSize:       1600,
			},
			{
				Symbol:        "WIPRO",
				PercentChange: -0.60,
				History:       []float64{455.00, 457.30, 458.85, 460.00, 461.25},
				Underlying:    461.25,
				LotSize:       1500,
				ChainStatus:   503,
			},
			{
				Symbol:        "HDFCBANK",
				PercentChange: 0.90,
				History:       []float64{1610.00, 1622.50},
				Underlying:    1622.50,
				Chain:         Ladder(1622.50, 20, 11, 30, 25),
				LotSize:       550,
			},
		},
	}
}
