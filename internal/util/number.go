// Package util provides parsing helpers for numbers and dates printed on market pages.
package util

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseNumber parses a figure as printed on a market page ("1,234.50", " 42 ").
// NaN and infinities are rejected.
func ParseNumber(s string) (float64, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if clean == "" || clean == "-" {
		return 0, fmt.Errorf("empty number %q", s)
	}
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite number %q", s)
	}
	return v, nil
}

// ParseCount parses an integer figure such as a traded volume ("12,300").
func ParseCount(s string) (int, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if clean == "" || clean == "-" {
		return 0, fmt.Errorf("empty count %q", s)
	}
	return strconv.Atoi(clean)
}

// LastField returns the last whitespace-separated token of s.
func LastField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}
