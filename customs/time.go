package customs

import (
	"time"
)

// =============================================================================
// DATE - day-granular time point for procedure and movement dates
// =============================================================================

// Date is a calendar day in UTC. The zero value means "no date": a source
// field that was absent or failed to parse. Zero dates are never errors,
// they simply suppress the movement or deadline they would have produced.
type Date struct {
	Time time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// dateLayouts are tried in order. Source workbooks carry German day-first
// dates; ISO and timestamped variants appear after spreadsheet round-trips.
var dateLayouts = []string{
	"02.01.2006",
	"2006-01-02",
	"02.01.2006 15:04:05",
	"2006-01-02 15:04:05",
	"01-02-06",
	"1/2/06 15:04",
}

// ParseDate parses a day-first or ISO date string. Unparseable input yields
// the zero Date; callers treat that as "absent" per the recoverable error
// policy.
func ParseDate(s string) Date {
	s = trimCell(s)
	if s == "" {
		return Date{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewDate(t.Year(), t.Month(), t.Day())
		}
	}
	return Date{}
}

func (d Date) IsZero() bool { return d.Time.IsZero() }

func (d Date) Before(other Date) bool { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool  { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool  { return d.Time.Equal(other.Time) }

func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// DaysBetween returns the inclusive day count from a to b, zero when either
// date is absent or b precedes a.
func DaysBetween(a, b Date) int {
	if a.IsZero() || b.IsZero() {
		return 0
	}
	days := int(b.Time.Sub(a.Time).Hours()/24) + 1
	if days < 0 {
		return 0
	}
	return days
}

// String renders the day in the report format, empty for absent dates.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time.Format("02.01.2006")
}

// MarshalJSON renders absent dates as null so API consumers can distinguish
// "no date" from a real day.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Time.Format("2006-01-02") + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" || s == `""` {
		*d = Date{}
		return nil
	}
	t, err := time.Parse(`"2006-01-02"`, s)
	if err != nil {
		return err
	}
	*d = NewDate(t.Year(), t.Month(), t.Day())
	return nil
}
