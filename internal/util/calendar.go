package util

import (
	"fmt"
	"strings"
	"time"
)

// WeekOfMonth buckets the day of month into 7-day weeks: days 1-7 are week 1,
// 8-14 week 2, and days 29-31 fall into week 5.
func WeekOfMonth(t time.Time) int {
	return (t.Day()-1)/7 + 1
}

// MonthKey formats t as the lot-size table's column header, e.g. "MAR-24".
func MonthKey(t time.Time) string {
	return fmt.Sprintf("%s-%02d", strings.ToUpper(t.Format("Jan")), t.Year()%100)
}
