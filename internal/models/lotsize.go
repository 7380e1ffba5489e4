package models

import (
	"fmt"
	"strconv"
	"strings"
)

// LotSizeTable is the lot-size reference table: one header row of month keys
// (e.g. "MAR-24") and one body row per underlying.
type LotSizeTable struct {
	Headers []string
	Rows    [][]string
}

// Lookup returns the lot size of symbol for monthKey. Exactly one header and
// exactly one row must match; anything else is ErrLotSizeNotFound.
func (t *LotSizeTable) Lookup(symbol, monthKey string) (int, error) {
	if t == nil {
		return 0, fmt.Errorf("%w: no lot size table", ErrLotSizeNotFound)
	}

	column := -1
	for i, h := range t.Headers {
		if strings.TrimSpace(h) != monthKey {
			continue
		}
		if column >= 0 {
			return 0, fmt.Errorf("%w: month %s appears in more than one column", ErrLotSizeNotFound, monthKey)
		}
		column = i
	}
	if column < 0 {
		return 0, fmt.Errorf("%w: no column for month %s", ErrLotSizeNotFound, monthKey)
	}

	var match []string
	for _, row := range t.Rows {
		if !rowHasCell(row, symbol) {
			continue
		}
		if match != nil {
			return 0, fmt.Errorf("%w: %s appears in more than one row", ErrLotSizeNotFound, symbol)
		}
		match = row
	}
	if match == nil {
		return 0, fmt.Errorf("%w: no row for %s", ErrLotSizeNotFound, symbol)
	}
	if column >= len(match) {
		return 0, fmt.Errorf("%w: row for %s has no %s cell", ErrLotSizeNotFound, symbol, monthKey)
	}

	raw := strings.ReplaceAll(strings.TrimSpace(match[column]), ",", "")
	size, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %s cell %q is not a number", ErrLotSizeNotFound, symbol, monthKey, match[column])
	}
	return size, nil
}

func rowHasCell(row []string, text string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) == text {
			return true
		}
	}
	return false
}
