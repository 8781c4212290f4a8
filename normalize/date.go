/*
date.go - Timezone-blind calendar dates for import payloads

PURPOSE:
  Import sources mix spreadsheet serial numbers, ISO strings, locale strings
  and native time values. The business date the uploader meant has nothing to
  do with the server or client time zone, so every input is collapsed to a
  calendar date pinned to 12:00 UTC as early as possible.

ACCEPTED INPUTS:
  nil                 -> no value
  time.Time / *time.Time -> wall-clock date in the value's own location
  float64, int, ...   -> spreadsheet serial (days since 1899-12-30)
  string              -> layouts below, then numeric serial, else no value
                         (a bare four-digit year is no value, not serial 2024)

  Text with a UTC offset keeps the calendar day it names at that offset:
  "2024-03-14T23:00:00-01:00" is 2024-03-14.

RENDERING:
  Date.String() always uses the UTC year/month/day of the pinned value.
  A zero Date is written to the store as NULL (driver.Valuer).

SEE ALSO:
  - value.go: numbers, booleans, text
*/
package normalize

import (
	"database/sql/driver"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the persisted date-only layout.
const DateLayout = "2006-01-02"

// serialEpoch is day zero for spreadsheet serial dates (1900 date system,
// including the phantom 1900-02-29 that spreadsheets count).
var serialEpoch = time.Date(1899, time.December, 30, 12, 0, 0, 0, time.UTC)

// maxSerial is 9999-12-31.
const maxSerial = 2958465

// Layouts tried in order. Day-first slash dates win over month-first ones;
// a month-first value only parses when the day-first reading is impossible.
var layouts = []string{
	DateLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2/1/2006",
	"1/2/2006",
	"2-1-2006",
	"2.1.2006",
	"2006/1/2",
	"20060102",
	"2/1/06",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	time.RFC1123,
	time.RFC1123Z,
	"Mon Jan 2 2006",
	"Mon Jan 02 2006 15:04:05 GMT-0700",
	time.UnixDate,
}

// jsZoneName strips the "(Central European Standard Time)" suffix of
// JavaScript Date.toString() output.
var jsZoneName = regexp.MustCompile(`\s*\([^)]*\)\s*$`)

var yearOnly = regexp.MustCompile(`^\d{4}$`)

// =============================================================================
// DATE
// =============================================================================

// Date is a calendar date pinned to midday UTC. The zero value means "no value".
type Date struct {
	t time.Time
}

// NewDate returns the date for the given year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 12, 0, 0, 0, time.UTC)}
}

func (d Date) IsZero() bool    { return d.t.IsZero() }
func (d Date) Time() time.Time { return d.t }
func (d Date) AddDays(n int) Date {
	if d.IsZero() {
		return d
	}
	return Date{t: d.t.AddDate(0, 0, n)}
}

// String renders YYYY-MM-DD from UTC components, or "" for no value.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.UTC().Format(DateLayout)
}

// Value implements driver.Valuer so a zero Date lands as NULL.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

// Scan implements sql.Scanner for date-only text columns.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
	case []byte:
		*d, _ = ToDate(string(v))
	default:
		*d, _ = ToDate(v)
	}
	return nil
}

// DaysBetween returns to - from in whole days.
func DaysBetween(from, to Date) int {
	return int(to.t.Sub(from.t).Hours() / 24)
}

// =============================================================================
// PARSING
// =============================================================================

// ToDate converts an arbitrary date-like value. It never fails loudly:
// anything it cannot read is reported as (Date{}, false).
func ToDate(v any) (Date, bool) {
	switch x := v.(type) {
	case nil:
		return Date{}, false
	case Date:
		return x, !x.IsZero()
	case time.Time:
		return fromWallClock(x)
	case *time.Time:
		if x == nil {
			return Date{}, false
		}
		return fromWallClock(*x)
	case float64:
		return FromSerial(x)
	case float32:
		return FromSerial(float64(x))
	case int:
		return FromSerial(float64(x))
	case int64:
		return FromSerial(float64(x))
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Date{}, false
		}
		return FromSerial(f)
	case string:
		return parseText(x)
	case *string:
		if x == nil {
			return Date{}, false
		}
		return parseText(*x)
	default:
		return Date{}, false
	}
}

// FromSerial interprets a spreadsheet serial number. The fractional time
// of day is dropped.
func FromSerial(serial float64) (Date, bool) {
	if serial < 1 || serial > maxSerial {
		return Date{}, false
	}
	return Date{t: serialEpoch.AddDate(0, 0, int(serial))}, true
}

// Serial returns the spreadsheet serial for d.
func (d Date) Serial() int {
	return DaysBetween(Date{t: serialEpoch}, d)
}

func fromWallClock(t time.Time) (Date, bool) {
	if t.IsZero() {
		return Date{}, false
	}
	return NewDate(t.Year(), t.Month(), t.Day()), true
}

func parseText(s string) (Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, false
	}
	s = jsZoneName.ReplaceAllString(s, "")

	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return fromWallClock(t)
		}
	}

	if yearOnly.MatchString(s) {
		return Date{}, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return FromSerial(f)
	}
	return Date{}, false
}
