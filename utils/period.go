package utils

import (
	"fmt"
	"strconv"
	"time"
)

const (
	PeriodAll        = "all"
	PeriodWeek       = "week"
	PeriodMonth      = "month"
	PeriodLastMonths = "lastMonths"
	PeriodYear       = "year"

	defaultLastMonths = 3
	maxLastMonths     = 24
)

// Range is a reporting window. A nil From means unbounded.
type Range struct {
	From *time.Time
	To   time.Time
}

func (r Range) Contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	return !t.After(r.To)
}

// PeriodRange resolves a named window ending at now. months only applies to lastMonths.
func PeriodRange(now time.Time, period, months string) (Range, error) {
	y, m, d := now.Date()
	loc := now.Location()
	var from time.Time

	switch period {
	case "", PeriodAll:
		return Range{To: now}, nil
	case PeriodWeek:
		offset := (int(now.Weekday()) + 6) % 7 // Monday is 0
		from = time.Date(y, m, d-offset, 0, 0, 0, 0, loc)
	case PeriodMonth:
		from = time.Date(y, m, 1, 0, 0, 0, 0, loc)
	case PeriodLastMonths:
		n := defaultLastMonths
		if months != "" {
			v, err := strconv.Atoi(months)
			if err != nil || v < 1 || v > maxLastMonths {
				return Range{}, fmt.Errorf("months must be between 1 and %d", maxLastMonths)
			}
			n = v
		}
		from = now.AddDate(0, -n, 0)
	case PeriodYear:
		from = time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	default:
		return Range{}, fmt.Errorf("unknown period %q", period)
	}
	return Range{From: &from, To: now}, nil
}
