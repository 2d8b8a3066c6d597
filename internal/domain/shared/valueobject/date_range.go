package valueobject

import (
	"fmt"
	"time"
)

// DateRange is a value object representing an inclusive calendar period.
// It is immutable - all operations return new DateRange instances.
type DateRange struct {
	start time.Time
	end   time.Time
}

// NewDateRange creates a new DateRange. End must not be before start.
// Both timestamps are truncated to whole days in UTC.
func NewDateRange(start, end time.Time) (DateRange, error) {
	s := truncateToDay(start)
	e := truncateToDay(end)
	if e.Before(s) {
		return DateRange{}, fmt.Errorf("date range end %s is before start %s",
			e.Format("2006-01-02"), s.Format("2006-01-02"))
	}
	return DateRange{start: s, end: e}, nil
}

// Start returns the first day of the range
func (r DateRange) Start() time.Time {
	return r.start
}

// End returns the last day of the range
func (r DateRange) End() time.Time {
	return r.end
}

// Days returns the number of days in the range, inclusive of both endpoints
func (r DateRange) Days() int {
	return int(r.end.Sub(r.start).Hours()/24) + 1
}

// Contains returns true if the given day falls within the range
func (r DateRange) Contains(day time.Time) bool {
	d := truncateToDay(day)
	return !d.Before(r.start) && !d.After(r.end)
}

// ExtendBy returns a new DateRange with the end pushed out by the given number of days
func (r DateRange) ExtendBy(days int) DateRange {
	return DateRange{start: r.start, end: r.end.AddDate(0, 0, days)}
}

// Overlaps returns true if the two ranges share at least one day
func (r DateRange) Overlaps(other DateRange) bool {
	return !r.start.After(other.end) && !other.start.After(r.end)
}

// String returns a string representation of the DateRange
func (r DateRange) String() string {
	return fmt.Sprintf("%s..%s", r.start.Format("2006-01-02"), r.end.Format("2006-01-02"))
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
