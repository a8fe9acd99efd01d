package panes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// TimeKind names the representation a Time was delivered in.
type TimeKind int

const (
	TimeNone TimeKind = iota
	TimeUnix
	TimeString
	TimeBusinessDay
)

// Time is the join key shared by every pane. It keeps the representation it
// arrived in; two Times are equal only when their representations match.
type Time struct {
	kind  TimeKind
	unix  int64
	str   string
	year  int
	month int
	day   int
}

func UnixTime(sec int64) Time { return Time{kind: TimeUnix, unix: sec} }

func StringTime(s string) Time {
	if s == "" {
		return Time{}
	}
	return Time{kind: TimeString, str: s}
}

func DayTime(year, month, day int) Time {
	return Time{kind: TimeBusinessDay, year: year, month: month, day: day}
}

func (t Time) Kind() TimeKind { return t.kind }

func (t Time) IsZero() bool { return t.kind == TimeNone }

func (t Time) Equal(o Time) bool { return t == o }

// Unix returns the seconds value of a UNIX time.
func (t Time) Unix() (int64, bool) { return t.unix, t.kind == TimeUnix }

// Key is the canonical encoding used for exact-match lookups.
func (t Time) Key() string {
	b, _ := t.MarshalJSON()
	return string(b)
}

// String renders the time the way the tooltip shows it.
func (t Time) String() string {
	switch t.kind {
	case TimeUnix:
		return time.Unix(t.unix, 0).UTC().Format(time.DateOnly)
	case TimeString:
		return t.str
	case TimeBusinessDay:
		return fmt.Sprintf("%04d-%02d-%02d", t.year, t.month, t.day)
	default:
		return ""
	}
}

func (t Time) MarshalJSON() ([]byte, error) {
	switch t.kind {
	case TimeUnix:
		return []byte(strconv.FormatInt(t.unix, 10)), nil
	case TimeString:
		return json.Marshal(t.str)
	case TimeBusinessDay:
		return []byte(fmt.Sprintf(`{"year":%d,"month":%d,"day":%d}`, t.year, t.month, t.day)), nil
	default:
		return []byte("null"), nil
	}
}

func (t *Time) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*t = Time{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode time string: %w", err)
		}
		*t = StringTime(s)
		return nil
	case '{':
		var day struct {
			Year  int `json:"year"`
			Month int `json:"month"`
			Day   int `json:"day"`
		}
		if err := json.Unmarshal(data, &day); err != nil {
			return fmt.Errorf("decode business day: %w", err)
		}
		if day.Year <= 0 || day.Month < 1 || day.Month > 12 || day.Day < 1 || day.Day > 31 {
			return fmt.Errorf("invalid business day %d-%d-%d", day.Year, day.Month, day.Day)
		}
		*t = DayTime(day.Year, day.Month, day.Day)
		return nil
	default:
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("decode unix time: %w", err)
		}
		if f != math.Trunc(f) || math.IsInf(f, 0) {
			return fmt.Errorf("unix time %v is not whole seconds", f)
		}
		*t = UnixTime(int64(f))
		return nil
	}
}

// Range is a visible time window.
type Range struct {
	From Time `json:"from"`
	To   Time `json:"to"`
}

func (r Range) IsZero() bool { return r.From.IsZero() && r.To.IsZero() }
