package datetime

import (
	"errors"
	"fmt"
	"time"

	ptime "github.com/yaa110/go-persian-calendar"
)

// ErrOutOfRange is returned for dates outside the supported Jalali years
// MinJalaliYear..MaxJalaliYear.
var ErrOutOfRange = errors.New("date out of supported range")

// ErrInvalidDate is returned for a month or day that does not exist.
var ErrInvalidDate = errors.New("invalid date")

// Supported Jalali year range. The arithmetic 33-year cycle matches the
// astronomical calendar between these years.
const (
	MinJalaliYear = 1200
	MaxJalaliYear = 1600
)

// Date is a calendar date without time or zone.
type Date struct {
	Year  int
	Month int
	Day   int
}

// Format renders the date as YYYY<sep>MM<sep>DD.
func (d Date) Format(sep string) string {
	return fmt.Sprintf("%04d%s%02d%s%02d", d.Year, sep, d.Month, sep, d.Day)
}

func (d Date) String() string {
	return d.Format("-")
}

// ToJalali converts a Gregorian date to the Jalali calendar.
func ToJalali(gy, gm, gd int) (Date, error) {
	if gm < 1 || gm > 12 || gd < 1 || gd > gregorianMonthLength(gy, gm) {
		return Date{}, fmt.Errorf("%w: gregorian %04d-%02d-%02d", ErrInvalidDate, gy, gm, gd)
	}

	// noon keeps the day stable whatever zone ptime normalises into
	jy, jm, jd := ptime.New(time.Date(gy, time.Month(gm), gd, 12, 0, 0, 0, time.UTC)).Date()
	if !inRange(jy) {
		return Date{}, fmt.Errorf("%w: gregorian year %d", ErrOutOfRange, gy)
	}
	return Date{Year: jy, Month: int(jm), Day: jd}, nil
}

// ToGregorian converts a Jalali date to the Gregorian calendar.
func ToGregorian(jy, jm, jd int) (Date, error) {
	if !inRange(jy) {
		return Date{}, fmt.Errorf("%w: jalali year %d", ErrOutOfRange, jy)
	}
	if jm < 1 || jm > 12 || jd < 1 || jd > JalaliMonthLength(jy, jm) {
		return Date{}, fmt.Errorf("%w: jalali %04d-%02d-%02d", ErrInvalidDate, jy, jm, jd)
	}

	gy, gm, gd := ptime.Date(jy, ptime.Month(jm), jd, 12, 0, 0, 0, time.UTC).Time().Date()
	return Date{Year: gy, Month: int(gm), Day: gd}, nil
}

// IsJalaliLeap reports whether jy has 366 days. Years outside the supported
// range are reported as common years.
func IsJalaliLeap(jy int) bool {
	return inRange(jy) && ptime.Date(jy, ptime.Farvardin, 1, 12, 0, 0, 0, time.UTC).IsLeap()
}

// JalaliMonthLength returns the number of days in month jm of year jy, or 0
// for an invalid month.
func JalaliMonthLength(jy, jm int) int {
	switch {
	case jm < 1 || jm > 12:
		return 0
	case jm <= 6:
		return 31
	case jm <= 11:
		return 30
	case IsJalaliLeap(jy):
		return 30
	default:
		return 29
	}
}

func inRange(jy int) bool {
	return jy >= MinJalaliYear && jy <= MaxJalaliYear
}

func gregorianMonthLength(gy, gm int) int {
	switch gm {
	case 2:
		if gy%4 == 0 && (gy%100 != 0 || gy%400 == 0) {
			return 29
		}
		return 28
	case 4, 6, 9, 11:
		return 30
	default:
		return 31
	}
}
