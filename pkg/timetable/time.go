package timetable

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MinutesPerDay is the length of a service day in minutes
const MinutesPerDay = 24 * 60

// ErrInvalidFormat indicates an unparseable time or date
var ErrInvalidFormat = errors.New("invalid format")

// TimeOfDay is a wall-clock time expressed as minutes since midnight (0..1439)
type TimeOfDay int

// NewTimeOfDay builds a TimeOfDay from an hour and minute pair
func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour >= 24 {
		return 0, fmt.Errorf("%w: hour %d out of range", ErrInvalidFormat, hour)
	}
	if minute < 0 || minute >= 60 {
		return 0, fmt.Errorf("%w: minute %d out of range", ErrInvalidFormat, minute)
	}
	return TimeOfDay(hour*60 + minute), nil
}

// MustTimeOfDay is NewTimeOfDay for constants and tests; it panics on bad input
func MustTimeOfDay(hour, minute int) TimeOfDay {
	t, err := NewTimeOfDay(hour, minute)
	if err != nil {
		panic(err)
	}
	return t
}

// Hour returns the hour component
func (t TimeOfDay) Hour() int {
	return int(t) / 60
}

// Minute returns the minute component
func (t TimeOfDay) Minute() int {
	return int(t) % 60
}

// String formats the time as HH:MM
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// MarshalText renders the time as HH:MM in JSON and CSV output
func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText accepts every form ParseTime accepts
func (t *TimeOfDay) UnmarshalText(text []byte) error {
	parsed, err := ParseTime(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTime parses H:MM, HH:MM, H.MM, HH.MM, HMM and HHMM forms
func ParseTime(text string) (TimeOfDay, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, fmt.Errorf("%w: empty time", ErrInvalidFormat)
	}

	var hourPart, minutePart string
	if i := strings.IndexAny(s, ":."); i >= 0 {
		hourPart, minutePart = s[:i], s[i+1:]
	} else {
		// Compact form: the last two digits are always the minutes
		if len(s) < 3 || len(s) > 4 {
			return 0, fmt.Errorf("%w: unrecognized time %q", ErrInvalidFormat, text)
		}
		hourPart, minutePart = s[:len(s)-2], s[len(s)-2:]
	}

	if len(hourPart) < 1 || len(hourPart) > 2 || len(minutePart) != 2 {
		return 0, fmt.Errorf("%w: unrecognized time %q", ErrInvalidFormat, text)
	}

	hour, err := parseDigits(hourPart)
	if err != nil {
		return 0, fmt.Errorf("%w: unrecognized time %q", ErrInvalidFormat, text)
	}
	minute, err := parseDigits(minutePart)
	if err != nil {
		return 0, fmt.Errorf("%w: unrecognized time %q", ErrInvalidFormat, text)
	}

	return NewTimeOfDay(hour, minute)
}

func parseDigits(s string) (int, error) {
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.Atoi(s)
}

// MinutesBetween returns the gap from a to b, wrapping once past midnight when b < a.
// The result is always in [0, MinutesPerDay). Use it for leg durations only;
// connections between legs are measured on the same day without wrapping.
func MinutesBetween(a, b TimeOfDay) int {
	gap := int(b) - int(a)
	if gap < 0 {
		gap += MinutesPerDay
	}
	return gap
}

// FormatDuration renders a number of minutes as HH:MM
func FormatDuration(minutes int) string {
	sign := ""
	if minutes < 0 {
		sign = "-"
		minutes = -minutes
	}
	return fmt.Sprintf("%s%02d:%02d", sign, minutes/60, minutes%60)
}

// Window is an optional time-of-day range. A nil bound is open.
type Window struct {
	From *TimeOfDay
	To   *TimeOfDay
}

// ParseWindow builds a window from two optional textual bounds
func ParseWindow(from, to string) (Window, error) {
	var w Window
	if strings.TrimSpace(from) != "" {
		t, err := ParseTime(from)
		if err != nil {
			return Window{}, err
		}
		w.From = &t
	}
	if strings.TrimSpace(to) != "" {
		t, err := ParseTime(to)
		if err != nil {
			return Window{}, err
		}
		w.To = &t
	}
	return w, nil
}

// IsZero reports whether the window has no bounds at all
func (w Window) IsZero() bool {
	return w.From == nil && w.To == nil
}

// Contains reports whether t falls inside the window, bounds inclusive.
// With both bounds set a window whose From is after its To spans midnight.
func (w Window) Contains(t TimeOfDay) bool {
	switch {
	case w.From != nil && w.To != nil:
		return MinutesBetween(*w.From, t) <= MinutesBetween(*w.From, *w.To)
	case w.From != nil:
		return t >= *w.From
	case w.To != nil:
		return t <= *w.To
	default:
		return true
	}
}
