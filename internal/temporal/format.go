package temporal

import (
	"fmt"
	"time"
)

// utcSuffix is the literal offset marker appended to rendered timestamps and
// times so the relational side stores them as offset-aware values.
const utcSuffix = "+00:00"

// FormatTimestamp renders t in UTC as "YYYY-MM-DD HH:MM:SS[.f]+00:00".
// Fractional seconds are printed with six digits, or nine when the instant
// carries sub-microsecond precision.
func FormatTimestamp(t time.Time) string {
	t = t.UTC()
	return t.Format(time.DateTime) + fractionSuffix(t.Nanosecond()) + utcSuffix
}

// FormatTime renders a duration since midnight as "HH:MM:SS[.f]+00:00".
func FormatTime(d time.Duration) string {
	d %= day
	if d < 0 {
		d += day
	}
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	ns := int(d % time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s) + fractionSuffix(ns) + utcSuffix
}

// FormatDate renders t as "YYYY-MM-DD".
func FormatDate(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

func fractionSuffix(ns int) string {
	if ns == 0 {
		return ""
	}
	if ns%1000 == 0 {
		return fmt.Sprintf(".%06d", ns/1000)
	}
	return fmt.Sprintf(".%09d", ns)
}
