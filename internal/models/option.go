package models

import (
	"fmt"
	"strings"
)

// Side selects the half of the option chain being read.
type Side string

const (
	// SidePut reads the columns that follow the strike column
	SidePut Side = "PUT"
	// SideCall reads the columns that precede the strike column
	SideCall Side = "CALL"
)

// ParseSide normalizes a side name ("put", " CALL ") into a Side.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToUpper(strings.TrimSpace(s))) {
	case SidePut:
		return SidePut, nil
	case SideCall:
		return SideCall, nil
	default:
		return "", fmt.Errorf("invalid option side %q", s)
	}
}

// RowAccessor exposes the fields of one option-chain row. Implementations
// return an error wrapping ErrRowParse when a field is missing or malformed.
type RowAccessor interface {
	Strike() (float64, error)
	LastTradedPrice(side Side) (float64, error)
	Volume(side Side) (int, error)
	ImpliedVolatility(side Side) (float64, error)
}

// OptionRow is a fully parsed option-chain row.
type OptionRow struct {
	StrikePrice           float64 `json:"strike_price"`
	PutLastTradedPrice    float64 `json:"put_ltp"`
	CallLastTradedPrice   float64 `json:"call_ltp"`
	PutVolume             int     `json:"put_volume"`
	CallVolume            int     `json:"call_volume"`
	PutImpliedVolatility  float64 `json:"put_iv"`
	CallImpliedVolatility float64 `json:"call_iv"`
}

var _ RowAccessor = OptionRow{}

// Strike returns the row's strike price.
func (r OptionRow) Strike() (float64, error) {
	return r.StrikePrice, nil
}

// LastTradedPrice returns the side's last traded price.
func (r OptionRow) LastTradedPrice(side Side) (float64, error) {
	if side == SideCall {
		return r.CallLastTradedPrice, nil
	}
	return r.PutLastTradedPrice, nil
}

// Volume returns the side's traded volume.
func (r OptionRow) Volume(side Side) (int, error) {
	if side == SideCall {
		return r.CallVolume, nil
	}
	return r.PutVolume, nil
}

// ImpliedVolatility returns the side's implied volatility.
func (r OptionRow) ImpliedVolatility(side Side) (float64, error) {
	if side == SideCall {
		return r.CallImpliedVolatility, nil
	}
	return r.PutImpliedVolatility, nil
}

// OptionChain is the option table for one underlying together with the
// underlying's last traded price as printed on the same page.
type OptionChain struct {
	Symbol          string
	UnderlyingPrice float64
	Rows            []RowAccessor
}

// SelectedOption is the contract picked for one stock.
type SelectedOption struct {
	StrikeDistance  float64 `json:"strike_distance"`
	StrikePrice     float64 `json:"strike_price"`
	LastTradedPrice float64 `json:"last_traded_price"`
	LotSize         int     `json:"lot_size"`
	Notional        int64   `json:"notional"`
}
