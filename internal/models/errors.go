package models

import (
	"context"
	"errors"
	"net"
)

var (
	// ErrDataUnavailable is returned when the index snapshot cannot be fetched or decoded
	ErrDataUnavailable = errors.New("index snapshot unavailable")
	// ErrChainUnavailable is returned when a stock's option chain cannot be fetched or read
	ErrChainUnavailable = errors.New("option chain unavailable")
	// ErrHistoryUnavailable is returned when a stock's price history cannot be fetched or read
	ErrHistoryUnavailable = errors.New("price history unavailable")
	// ErrLotSizeNotFound is returned when no single lot-size cell matches a symbol and month
	ErrLotSizeNotFound = errors.New("lot size not found")
	// ErrNoVolatilityData is returned when no row of a chain carries a readable implied volatility
	ErrNoVolatilityData = errors.New("no implied volatility data")
	// ErrVolatilityOutOfRange is returned when the volatility floor falls outside every band
	ErrVolatilityOutOfRange = errors.New("implied volatility out of range")
	// ErrRowParse is returned when a field of an option row is missing or malformed
	ErrRowParse = errors.New("option row parse error")
	// ErrNoLiquidOption is returned when no row of a chain passes the liquidity floor
	ErrNoLiquidOption = errors.New("no liquid option")
	// ErrCircuitOpen is returned when the market data circuit breaker rejects a request
	ErrCircuitOpen = errors.New("market data circuit open")
)

// ErrorKind is a short, stable label for the reason a unit of work was skipped.
type ErrorKind string

// Error kinds reported per stock.
const (
	KindNone               ErrorKind = ""
	KindDataUnavailable    ErrorKind = "data_unavailable"
	KindChainUnavailable   ErrorKind = "chain_unavailable"
	KindHistoryUnavailable ErrorKind = "history_unavailable"
	KindLotSizeNotFound    ErrorKind = "lot_size_not_found"
	KindNoVolatilityData   ErrorKind = "no_volatility_data"
	KindVolatilityRange    ErrorKind = "volatility_out_of_range"
	KindRowParse           ErrorKind = "row_parse"
	KindNoLiquidOption     ErrorKind = "no_liquid_option"
	KindCircuitOpen        ErrorKind = "circuit_open"
	KindTimeout            ErrorKind = "timeout"
	KindUnknown            ErrorKind = "unknown"
)

var sentinelKinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrCircuitOpen, KindCircuitOpen},
	{ErrDataUnavailable, KindDataUnavailable},
	{ErrChainUnavailable, KindChainUnavailable},
	{ErrHistoryUnavailable, KindHistoryUnavailable},
	{ErrLotSizeNotFound, KindLotSizeNotFound},
	{ErrNoVolatilityData, KindNoVolatilityData},
	{ErrVolatilityOutOfRange, KindVolatilityRange},
	{ErrRowParse, KindRowParse},
	{ErrNoLiquidOption, KindNoLiquidOption},
}

// KindOf classifies err. Timeouts win over the sentinel they are wrapped in,
// so a chain fetch that timed out reports KindTimeout.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	for _, sk := range sentinelKinds {
		if errors.Is(err, sk.err) {
			return sk.kind
		}
	}
	return KindUnknown
}
