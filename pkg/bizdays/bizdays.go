// Package bizdays provides the working-day calendar used for leave-day
// totals. Weekends are always excluded from business-day counts; public
// holidays are supplied by the deployment.
package bizdays

import "time"

// Calendar is the day-counting collaborator of the leave ledger.
type Calendar interface {
	// CountDays returns the number of days in [start, end] inclusive.
	// When businessOnly is true, weekends and holidays are skipped.
	CountDays(start, end time.Time, businessOnly bool) int
	IsBusinessDay(day time.Time) bool
}

type StandardCalendar struct {
	holidays map[string]struct{}
}

func NewStandardCalendar(holidays ...time.Time) *StandardCalendar {
	c := &StandardCalendar{holidays: make(map[string]struct{}, len(holidays))}
	for _, h := range holidays {
		c.holidays[dayKey(h)] = struct{}{}
	}
	return c
}

func (c *StandardCalendar) IsBusinessDay(day time.Time) bool {
	switch day.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	_, holiday := c.holidays[dayKey(day)]
	return !holiday
}

func (c *StandardCalendar) CountDays(start, end time.Time, businessOnly bool) int {
	start = Truncate(start)
	end = Truncate(end)
	if end.Before(start) {
		return 0
	}

	count := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if businessOnly && !c.IsBusinessDay(d) {
			continue
		}
		count++
	}
	return count
}

// Truncate strips the time-of-day component, keeping the civil date in UTC.
func Truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
