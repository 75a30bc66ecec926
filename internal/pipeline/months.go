package pipeline

import (
	"fmt"
	"time"
)

// Month is one calendar month processed as an independent unit of work.
type Month struct {
	Year  int
	Month time.Month
}

// String renders the month as YYYY-MM.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Bounds returns the half-open window [start, end) of the month in Unix
// seconds, UTC.
func (m Month) Bounds() (start, end int64) {
	s := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
	return s.Unix(), s.AddDate(0, 1, 0).Unix()
}

// Hours returns the number of hour buckets the month spans.
func (m Month) Hours() int {
	start, end := m.Bounds()
	return int((end - start) / 3600)
}

// MonthsBetween lists every calendar month from the month containing `from`
// through the month containing `to`, inclusive.
func MonthsBetween(from, to time.Time) []Month {
	from = from.UTC()
	to = to.UTC()

	var months []Month
	cur := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cur.After(last) {
		months = append(months, Month{Year: cur.Year(), Month: cur.Month()})
		cur = cur.AddDate(0, 1, 0)
	}
	return months
}
