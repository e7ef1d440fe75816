package domain

import (
	"fmt"
	"time"
)

// WeekKey returns the ISO-8601 year-week of t formatted as "YYYY-WW".
func WeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-%02d", year, week)
}

// DayIndex returns the ISO weekday of t: 1 for Monday through 7 for Sunday.
func DayIndex(t time.Time) int {
	wd := t.Weekday()
	if wd == time.Sunday {
		return 7
	}
	return int(wd)
}
