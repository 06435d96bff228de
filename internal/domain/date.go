package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the canonical wire format for calendar days.
const DateLayout = "2006-01-02"

// Date is a calendar day without time of day or location.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the wall-clock day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: date %q has to be in format YYYY-MM-DD", ErrMalformedInput, s)
	}
	return DateOf(t), nil
}

// AsDate normalizes a Date, time.Time, *time.Time or "YYYY-MM-DD" string.
func AsDate(v interface{}) (Date, error) {
	switch d := v.(type) {
	case Date:
		return d, nil
	case *Date:
		if d == nil {
			return Date{}, fmt.Errorf("%w: nil date", ErrMalformedInput)
		}
		return *d, nil
	case time.Time:
		return DateOf(d), nil
	case *time.Time:
		if d == nil {
			return Date{}, fmt.Errorf("%w: nil date", ErrMalformedInput)
		}
		return DateOf(*d), nil
	case string:
		return ParseDate(d)
	default:
		return Date{}, fmt.Errorf("%w: unsupported date value %T", ErrMalformedInput, v)
	}
}

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) Compare(o Date) int {
	return d.Time().Compare(o.Time())
}

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }
func (d Date) After(o Date) bool  { return d.Compare(o) > 0 }
func (d Date) Equal(o Date) bool  { return d.Compare(o) == 0 }

func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

const secondsPerDay = 24 * 60 * 60

// DaysUntil returns the number of whole days from d to o. It counts on Unix
// seconds since time.Duration cannot span more than about 292 years.
func (d Date) DaysUntil(o Date) int {
	return int((o.Time().Unix() - d.Time().Unix()) / secondsPerDay)
}

func (d Date) String() string {
	return d.Time().Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: date must be a string", ErrMalformedInput)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
