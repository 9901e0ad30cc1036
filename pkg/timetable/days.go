package timetable

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DayCode is the canonical three-letter day of week
type DayCode string

const (
	Mon DayCode = "Mon"
	Tue DayCode = "Tue"
	Wed DayCode = "Wed"
	Thu DayCode = "Thu"
	Fri DayCode = "Fri"
	Sat DayCode = "Sat"
	Sun DayCode = "Sun"
)

// Week lists the day codes in display order
var Week = []DayCode{Mon, Tue, Wed, Thu, Fri, Sat, Sun}

var dayAliases = map[string]DayCode{
	"mo": Mon, "mon": Mon, "monday": Mon,
	"tu": Tue, "tue": Tue, "tues": Tue, "tuesday": Tue,
	"we": Wed, "wed": Wed, "weds": Wed, "wednesday": Wed,
	"th": Thu, "thu": Thu, "thur": Thu, "thurs": Thu, "thursday": Thu,
	"fr": Fri, "fri": Fri, "friday": Fri,
	"sa": Sat, "sat": Sat, "saturday": Sat,
	"su": Sun, "sun": Sun, "sunday": Sun,
}

var weekdayCodes = map[time.Weekday]DayCode{
	time.Monday:    Mon,
	time.Tuesday:   Tue,
	time.Wednesday: Wed,
	time.Thursday:  Thu,
	time.Friday:    Fri,
	time.Saturday:  Sat,
	time.Sunday:    Sun,
}

// ParseDayCode normalizes a single free-form day token
func ParseDayCode(token string) (DayCode, bool) {
	var b strings.Builder
	for _, r := range strings.ToLower(token) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	code, ok := dayAliases[b.String()]
	return code, ok
}

func (d DayCode) bit() DaySet {
	for i, code := range Week {
		if code == d {
			return 1 << uint(i)
		}
	}
	return 0
}

// DaySet is a set of operating days. The zero value is empty, which callers
// treat as "no information".
type DaySet uint8

// NewDaySet builds a set from day codes, ignoring unknown codes
func NewDaySet(days ...DayCode) DaySet {
	var s DaySet
	for _, d := range days {
		s |= d.bit()
	}
	return s
}

// ParseDays splits text on commas and slashes and normalizes each token.
// Unrecognized tokens are dropped.
func ParseDays(text string) DaySet {
	var s DaySet
	for _, token := range strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == '/' }) {
		if code, ok := ParseDayCode(token); ok {
			s |= code.bit()
		}
	}
	return s
}

// ParseDayList normalizes an already split list of tokens
func ParseDayList(tokens []string) DaySet {
	var s DaySet
	for _, token := range tokens {
		s |= ParseDays(token)
	}
	return s
}

// IsEmpty reports whether the set carries no days
func (s DaySet) IsEmpty() bool {
	return s == 0
}

// Contains reports whether the day is in the set
func (s DaySet) Contains(d DayCode) bool {
	bit := d.bit()
	return bit != 0 && s&bit != 0
}

// Overlaps reports whether the two sets share at least one day
func (s DaySet) Overlaps(other DaySet) bool {
	return s&other != 0
}

// Days returns the members in Mon..Sun order
func (s DaySet) Days() []DayCode {
	days := make([]DayCode, 0, len(Week))
	for _, d := range Week {
		if s.Contains(d) {
			days = append(days, d)
		}
	}
	return days
}

// String renders the set as a comma separated list, e.g. "Mon,Wed,Fri"
func (s DaySet) String() string {
	days := s.Days()
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = string(d)
	}
	return strings.Join(parts, ",")
}

// MarshalJSON renders the set as an array of day codes
func (s DaySet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Days())
}

// UnmarshalJSON accepts either an array of tokens or a single delimited string
func (s *DaySet) UnmarshalJSON(data []byte) error {
	var tokens []string
	if err := json.Unmarshal(data, &tokens); err == nil {
		*s = ParseDayList(tokens)
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("%w: days must be a list or a string", ErrInvalidFormat)
	}
	*s = ParseDays(text)
	return nil
}

// DateLayout is the ISO calendar date layout used for travel dates
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD calendar date
func ParseDate(isoDate string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(isoDate))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidFormat, isoDate)
	}
	return d, nil
}

// DayOfWeek returns the day code of a YYYY-MM-DD calendar date
func DayOfWeek(isoDate string) (DayCode, error) {
	d, err := ParseDate(isoDate)
	if err != nil {
		return "", err
	}
	return weekdayCodes[d.Weekday()], nil
}
