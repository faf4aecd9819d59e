// Package datetime converts between Unix timestamps, Gregorian and Jalali
// dates. Naive date-times are interpreted in Tehran standard time (UTC+03:30).
package datetime

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Tehran is the fixed UTC+03:30 zone used for Jalali dates and naive input.
var Tehran = time.FixedZone("+0330", 3*60*60+30*60)

// Converter computes timestamps relative to a clock. The zero value is not
// usable; call NewConverter.
type Converter struct {
	now func() time.Time
	loc *time.Location
}

// Option customises a Converter.
type Option func(*Converter)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Converter) { c.now = now }
}

// WithLocation sets the zone used for day boundaries and FormatTimestamp.
// It defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(c *Converter) { c.loc = loc }
}

func NewConverter(opts ...Option) *Converter {
	c := &Converter{now: time.Now, loc: time.Local}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CurrentTimestamp returns the current Unix time in seconds.
func (c *Converter) CurrentTimestamp() int64 {
	return c.now().Unix()
}

// TimestampDaysAhead returns the Unix time days from now.
func (c *Converter) TimestampDaysAhead(days int) int64 {
	return c.now().AddDate(0, 0, days).Unix()
}

// StartOfDayFromToday returns local midnight of the day days after today.
func (c *Converter) StartOfDayFromToday(days int) int64 {
	return c.midnight(days).Unix()
}

// EndOfDayFromToday returns the last second of the day days after today.
func (c *Converter) EndOfDayFromToday(days int) int64 {
	return c.midnight(days+1).Unix() - 1
}

func (c *Converter) midnight(days int) time.Time {
	now := c.now().In(c.loc)
	return time.Date(now.Year(), now.Month(), now.Day()+days, 0, 0, 0, 0, c.loc)
}

// FormatTimestamp renders ts in the converter's zone using a Go layout.
func (c *Converter) FormatTimestamp(ts int64, layout string) string {
	return time.Unix(ts, 0).In(c.loc).Format(layout)
}

// TimestampToJalali renders the Jalali date of ts in Tehran time, e.g.
// 1712345600 -> "1403-01-17".
func TimestampToJalali(ts int64, sep string) (string, error) {
	t := time.Unix(ts, 0).In(Tehran)
	d, err := ToJalali(t.Year(), int(t.Month()), t.Day())
	if err != nil {
		return "", err
	}
	return d.Format(sep), nil
}

// JalaliToTimestamp returns midnight Tehran time of a YYYY-MM-DD Jalali date.
func JalaliToTimestamp(jalali string) (int64, error) {
	parts := strings.Split(strings.TrimSpace(jalali), "-")
	if len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q is not YYYY-MM-DD", ErrInvalidDate, jalali)
	}

	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not YYYY-MM-DD", ErrInvalidDate, jalali)
		}
		nums[i] = n
	}

	g, err := ToGregorian(nums[0], nums[1], nums[2])
	if err != nil {
		return 0, err
	}
	return time.Date(g.Year, time.Month(g.Month), g.Day, 0, 0, 0, 0, Tehran).Unix(), nil
}

// GregorianToJalali converts a YYYY-MM-DD Gregorian date string.
func GregorianToJalali(date, sep string) (string, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(date))
	if err != nil {
		return "", fmt.Errorf("failed to parse gregorian date: %w", err)
	}
	d, err := ToJalali(t.Year(), int(t.Month()), t.Day())
	if err != nil {
		return "", err
	}
	return d.Format(sep), nil
}

// DateTimeToTimestamp combines an HH:MM time and a YYYY-MM-DD date in Tehran time.
func DateTimeToTimestamp(hhmm, date string) (int64, error) {
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+hhmm, Tehran)
	if err != nil {
		return 0, fmt.Errorf("failed to parse date and time: %w", err)
	}
	return t.Unix(), nil
}

// isoLayouts are tried in order; the ones without an offset are Tehran time.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	time.DateOnly,
}

// ParseISOTimestamp parses an ISO-8601 date-time such as
// "2025-01-15T09:25:00+03:30". Values without an offset are Tehran time.
func ParseISOTimestamp(s string) (int64, error) {
	s = strings.TrimSpace(s)
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, s, Tehran); err == nil {
			return t.Unix(), nil
		}
	}
	return 0, fmt.Errorf("input date-time %q is not in a recognized format", s)
}

// ParseTimestamp parses s with a Go layout. Without a zone in the layout the
// value is Tehran time.
func ParseTimestamp(s, layout string) (int64, error) {
	t, err := time.ParseInLocation(layout, s, Tehran)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %q: %w", s, err)
	}
	return t.Unix(), nil
}
