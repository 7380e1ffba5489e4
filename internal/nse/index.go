package nse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/eddiefleurent/downtrend_puts/internal/models"
	"github.com/eddiefleurent/downtrend_puts/internal/util"
)

// flexFloat accepts a JSON number or a string such as "10,345.20".
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return fmt.Errorf("missing number")
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := util.ParseNumber(s)
		if err != nil {
			return err
		}
		*f = flexFloat(v)
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// stockWatchResponse is the index stock-watch document.
type stockWatchResponse struct {
	LatestData []struct {
		IndexName string    `json:"indexName"`
		MCls      flexFloat `json:"mCls"`
	} `json:"latestData"`
	Data []struct {
		Symbol string    `json:"symbol"`
		MPC    flexFloat `json:"mPC"`
	} `json:"data"`
}

// FetchIndexSnapshot fetches the index figure and every constituent's percent
// change. Any failure wraps models.ErrDataUnavailable.
func (c *Client) FetchIndexSnapshot(ctx context.Context) (*models.IndexSnapshot, error) {
	body, err := c.get(ctx, c.endpoints.IndexURL, nil, "application/json")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrDataUnavailable, err)
	}
	return parseIndexSnapshot(body)
}

func parseIndexSnapshot(body []byte) (*models.IndexSnapshot, error) {
	var watch stockWatchResponse
	if err := json.Unmarshal(body, &watch); err != nil {
		return nil, fmt.Errorf("%w: decoding stock watch: %w", models.ErrDataUnavailable, err)
	}
	if len(watch.LatestData) == 0 {
		return nil, fmt.Errorf("%w: stock watch has no latestData", models.ErrDataUnavailable)
	}

	snapshot := &models.IndexSnapshot{
		IndexLastClose: float64(watch.LatestData[0].MCls),
		Constituents:   make([]models.StockQuote, 0, len(watch.Data)),
	}
	for _, d := range watch.Data {
		if d.Symbol == "" {
			return nil, fmt.Errorf("%w: constituent without symbol", models.ErrDataUnavailable)
		}
		snapshot.Constituents = append(snapshot.Constituents, models.StockQuote{
			Symbol:        d.Symbol,
			PercentChange: float64(d.MPC),
		})
	}
	return snapshot, nil
}
