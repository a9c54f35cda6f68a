package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Date wraps time.Time for calendar dates without a time component.
// JSON form is always "2006-01-02"; the SQL side is a plain date column.
type Date time.Time

const dateLayout = "2006-01-02"

// NewDate truncates t to its calendar date in UTC.
func NewDate(t time.Time) Date {
	return Date(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC))
}

// Today returns the current calendar date.
func Today() Date {
	return NewDate(time.Now())
}

func (d Date) Time() time.Time { return time.Time(d) }

func (d Date) IsZero() bool { return time.Time(d).IsZero() }

func (d Date) String() string { return time.Time(d).Format(dateLayout) }

// After reports whether d falls on a later calendar date than o.
func (d Date) After(o Date) bool { return d.Time().After(o.Time()) }

// InFuture reports whether d is after today's date.
func (d Date) InFuture() bool { return d.After(Today()) }

// UnmarshalJSON accepts "2006-01-02" or a full RFC3339 timestamp,
// which mobile clients sometimes send for date fields.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" || s == `""` {
		*d = Date{}
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	if t, err := time.Parse(dateLayout, s); err == nil {
		*d = Date(t)
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		*d = NewDate(t)
		return nil
	}
	return fmt.Errorf("Date.UnmarshalJSON: cannot parse %q as a date", s)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// Value implements driver.Valuer so GORM can bind Date as a date parameter.
func (d Date) Value() (driver.Value, error) {
	return time.Time(d), nil
}

// Scan implements sql.Scanner for reading date columns back.
func (d *Date) Scan(src interface{}) error {
	if src == nil {
		*d = Date{}
		return nil
	}
	switch v := src.(type) {
	case time.Time:
		*d = NewDate(v)
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	default:
		return fmt.Errorf("Date.Scan: unsupported type %T", src)
	}
}

func (d *Date) scanString(s string) error {
	if t, err := time.Parse(dateLayout, s); err == nil {
		*d = Date(t)
		return nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		*d = NewDate(t)
		return nil
	}
	// sqlite textual timestamp form
	t, err := time.Parse("2006-01-02 15:04:05.999999999-07:00", s)
	if err != nil {
		return fmt.Errorf("Date.Scan: parse %q: %w", s, err)
	}
	*d = NewDate(t)
	return nil
}
