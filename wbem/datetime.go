package wbem

import (
	"fmt"
	"strconv"
	"time"
)

// CIM datetimes look like "20190113200517.500000+180": local date and time
// with microseconds, then the UTC offset in minutes.
const (
	cimDateTimeLen    = 25
	cimDateTimeLayout = "20060102150405.000000"
)

// ParseDateTime parses a CIM_DATETIME timestamp. The result carries a fixed
// zone with the encoded offset.
func ParseDateTime(s string) (time.Time, error) {
	if len(s) != cimDateTimeLen {
		return time.Time{}, fmt.Errorf("invalid CIM datetime %q: want %d characters", s, cimDateTimeLen)
	}

	sign := s[21]
	if sign != '+' && sign != '-' {
		return time.Time{}, fmt.Errorf("invalid CIM datetime %q: bad offset sign", s)
	}
	minutes, err := strconv.Atoi(s[22:])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid CIM datetime %q: bad offset: %w", s, err)
	}
	offset := minutes * 60
	if sign == '-' {
		offset = -offset
	}

	t, err := time.ParseInLocation(cimDateTimeLayout, s[:21], time.FixedZone("", offset))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid CIM datetime %q: %w", s, err)
	}
	return t, nil
}

// FormatDateTime renders t as a CIM_DATETIME string in t's own offset,
// truncated to microseconds.
func FormatDateTime(t time.Time) string {
	_, offset := t.Zone()
	sign := byte('+')
	if offset < 0 {
		sign = '-'
		offset = -offset
	}
	return fmt.Sprintf("%s%c%03d", t.Format(cimDateTimeLayout), sign, offset/60)
}

// IsInterval reports whether s is a CIM interval ("ddddddddHHMMSS.mmmmmm:000")
// rather than a timestamp. Intervals are kept as text.
func IsInterval(s string) bool {
	return len(s) == cimDateTimeLen && s[21] == ':'
}
