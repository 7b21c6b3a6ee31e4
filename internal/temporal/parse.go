package temporal

import (
	"strconv"
	"strings"
	"time"

	"github.com/roach88/cqlbridge/internal/fault"
)

const day = 24 * time.Hour

// state names a field of the timestamp scanner.
type state int

const (
	stateYear state = iota
	stateMonth
	stateDay
	stateHour
	stateMinute
	stateSecond
	stateFraction
	stateOffset
)

func (s state) String() string {
	switch s {
	case stateYear:
		return "year"
	case stateMonth:
		return "month"
	case stateDay:
		return "day"
	case stateHour:
		return "hour"
	case stateMinute:
		return "minute"
	case stateSecond:
		return "second"
	case stateFraction:
		return "fraction"
	case stateOffset:
		return "offset"
	default:
		return "unknown"
	}
}

// delimiters lists, per state, the characters that close the field and the
// state they advance to. Sign characters in stateSecond and stateFraction are
// handled separately because they open the offset field instead of being
// discarded.
var delimiters = map[state]map[rune]state{
	stateYear:   {'-': stateMonth},
	stateMonth:  {'-': stateDay},
	stateDay:    {' ': stateHour, 'T': stateHour},
	stateHour:   {':': stateMinute},
	stateMinute: {':': stateSecond},
	stateSecond: {'.': stateFraction},
}

// terminal lists the states a literal may end in.
var terminal = map[state]bool{
	stateDay:      true,
	stateSecond:   true,
	stateFraction: true,
	stateOffset:   true,
}

// scanner accumulates the raw text of each timestamp field.
type scanner struct {
	state  state
	fields [stateOffset + 1]strings.Builder
}

func (sc *scanner) feed(c rune) {
	if c == ' ' && sc.state != stateDay {
		return
	}
	if next, ok := delimiters[sc.state][c]; ok {
		sc.state = next
		return
	}
	if (c == '+' || c == '-' || c == 'Z') && (sc.state == stateSecond || sc.state == stateFraction) {
		sc.state = stateOffset
	}
	sc.fields[sc.state].WriteRune(c)
}

func (sc *scanner) field(s state) string {
	return sc.fields[s].String()
}

// ParseTimestamp parses "YYYY-MM-DD[ HH:MM:SS[.f][(+|-)HH[:MM]]]" into a UTC
// instant. A trailing "Z" is accepted as a zero offset.
func ParseTimestamp(s string) (time.Time, error) {
	var sc scanner
	for _, c := range s {
		sc.feed(c)
	}
	if !terminal[sc.state] {
		return time.Time{}, fault.NewFormatError(s, "incomplete timestamp")
	}

	year, err := intField(s, sc.field(stateYear), 1, 9999, true)
	if err != nil {
		return time.Time{}, err
	}
	month, err := intField(s, sc.field(stateMonth), 1, 12, true)
	if err != nil {
		return time.Time{}, err
	}
	dayOfMonth, err := intField(s, sc.field(stateDay), 1, 31, true)
	if err != nil {
		return time.Time{}, err
	}
	hour, err := intField(s, sc.field(stateHour), 0, 23, false)
	if err != nil {
		return time.Time{}, err
	}
	minute, err := intField(s, sc.field(stateMinute), 0, 59, false)
	if err != nil {
		return time.Time{}, err
	}
	second, err := intField(s, sc.field(stateSecond), 0, 59, false)
	if err != nil {
		return time.Time{}, err
	}
	nanos, err := fraction(s, sc.field(stateFraction))
	if err != nil {
		return time.Time{}, err
	}
	offset, err := parseOffset(s, sc.field(stateOffset))
	if err != nil {
		return time.Time{}, err
	}

	t := time.Date(year, time.Month(month), dayOfMonth, hour, minute, second, nanos, time.UTC)
	if t.Day() != dayOfMonth {
		return time.Time{}, fault.NewFormatError(s, "day out of range for month")
	}
	return t.Add(-offset), nil
}

// ParseTime parses "HH:MM:SS[.f][(+|-)HH[:MM]]" into a duration since
// midnight UTC. The offset is split off at the last sign character; the
// result wraps modulo 24 hours.
func ParseTime(s string) (time.Duration, error) {
	body := strings.TrimSpace(s)
	var offset time.Duration
	if i := strings.LastIndexAny(body, "+-"); i >= 0 {
		off, err := parseOffset(s, body[i:])
		if err != nil {
			return 0, err
		}
		offset = off
		body = strings.TrimSpace(body[:i])
	} else if strings.HasSuffix(body, "Z") {
		body = strings.TrimSuffix(body, "Z")
	}

	clock, frac, _ := strings.Cut(body, ".")
	parts := strings.Split(clock, ":")
	if len(parts) != 3 {
		return 0, fault.NewFormatError(s, "time must be HH:MM:SS")
	}
	hour, err := intField(s, parts[0], 0, 23, true)
	if err != nil {
		return 0, err
	}
	minute, err := intField(s, parts[1], 0, 59, true)
	if err != nil {
		return 0, err
	}
	second, err := intField(s, parts[2], 0, 59, true)
	if err != nil {
		return 0, err
	}
	nanos, err := fraction(s, frac)
	if err != nil {
		return 0, err
	}

	d := time.Duration(hour)*time.Hour +
		time.Duration(minute)*time.Minute +
		time.Duration(second)*time.Second +
		time.Duration(nanos) - offset
	d %= day
	if d < 0 {
		d += day
	}
	return d, nil
}

// ParseDate parses "YYYY-MM-DD" into midnight UTC of that day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, &fault.Error{Code: fault.CodeFormat, Message: "invalid date " + strconv.Quote(s), Err: err}
	}
	return t, nil
}

// parseOffset parses "+HH", "-HH:MM", "+HHMM" or "Z". An empty string is a
// zero offset.
func parseOffset(literal, raw string) (time.Duration, error) {
	if raw == "" || raw == "Z" {
		return 0, nil
	}
	sign := time.Duration(1)
	switch raw[0] {
	case '+':
	case '-':
		sign = -1
	default:
		return 0, fault.NewFormatError(literal, "offset must start with a sign")
	}
	body := raw[1:]
	hh, mm, hasColon := strings.Cut(body, ":")
	if !hasColon && len(body) == 4 {
		hh, mm = body[:2], body[2:]
	}
	hours, err := intField(literal, hh, 0, 23, true)
	if err != nil {
		return 0, err
	}
	minutes := 0
	if mm != "" {
		if minutes, err = intField(literal, mm, 0, 59, true); err != nil {
			return 0, err
		}
	}
	return sign * (time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute), nil
}

// intField parses a decimal field and range-checks it. An empty field is
// zero unless required is set.
func intField(literal, raw string, min, max int, required bool) (int, error) {
	if raw == "" {
		if required {
			return 0, fault.NewFormatError(literal, "missing field")
		}
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fault.NewFormatError(literal, "non-numeric field "+strconv.Quote(raw))
	}
	if n < min || n > max {
		return 0, fault.NewFormatError(literal, "field "+raw+" out of range")
	}
	return n, nil
}

// fraction converts up to nine fractional digits to nanoseconds.
func fraction(literal, raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	if len(raw) > 9 {
		return 0, fault.NewFormatError(literal, "fractional seconds beyond nanosecond precision")
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fault.NewFormatError(literal, "non-numeric fractional seconds")
	}
	for i := len(raw); i < 9; i++ {
		n *= 10
	}
	return n, nil
}
