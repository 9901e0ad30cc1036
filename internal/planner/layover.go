package planner

import (
	"github.com/smarttransit/rail-planner-backend/pkg/timetable"
)

const (
	// DefaultMinTransferMinutes is the minimum change time used when the caller gives none
	DefaultMinTransferMinutes = 10
	// DefaultDayCapMinutes is the longest acceptable daytime wait
	DefaultDayCapMinutes = 120
	// DefaultNightCapMinutes is the longest acceptable wait after a night arrival
	DefaultNightCapMinutes = 30
)

var (
	defaultDayStart = timetable.MustTimeOfDay(6, 0)
	defaultDayEnd   = timetable.MustTimeOfDay(22, 0)
)

// LayoverPolicy decides whether a connection between two legs is acceptable.
// Arrivals in [DayStart, DayEnd) may wait up to DayCap minutes, all others
// up to NightCap. With Capped false only the minimum applies.
type LayoverPolicy struct {
	MinTransfer int
	Capped      bool
	DayCap      int
	NightCap    int
	DayStart    timetable.TimeOfDay
	DayEnd      timetable.TimeOfDay
}

// DefaultLayoverPolicy returns the day/night capped policy
func DefaultLayoverPolicy(minTransfer int) LayoverPolicy {
	return LayoverPolicy{
		MinTransfer: minTransfer,
		Capped:      true,
		DayCap:      DefaultDayCapMinutes,
		NightCap:    DefaultNightCapMinutes,
		DayStart:    defaultDayStart,
		DayEnd:      defaultDayEnd,
	}
}

// UncappedLayoverPolicy returns the minimum-only policy
func UncappedLayoverPolicy(minTransfer int) LayoverPolicy {
	p := DefaultLayoverPolicy(minTransfer)
	p.Capped = false
	return p
}

// WithMinTransfer returns a copy of the policy with a different minimum
func (p LayoverPolicy) WithMinTransfer(minutes int) LayoverPolicy {
	p.MinTransfer = minutes
	return p
}

// IsDaytime reports whether an arrival falls in the daytime window
func (p LayoverPolicy) IsDaytime(arrival timetable.TimeOfDay) bool {
	return arrival >= p.DayStart && arrival < p.DayEnd
}

// MaxLayover returns the cap applying after the given arrival, or -1 when uncapped
func (p LayoverPolicy) MaxLayover(arrival timetable.TimeOfDay) int {
	if !p.Capped {
		return -1
	}
	if p.IsDaytime(arrival) {
		return p.DayCap
	}
	return p.NightCap
}

// Allowed reports whether a traveller arriving at prevArrival can make a
// departure at nextDeparture. The gap is taken on the same day; a departure
// before the arrival is never read as the next day.
func (p LayoverPolicy) Allowed(prevArrival, nextDeparture timetable.TimeOfDay) bool {
	layover := int(nextDeparture) - int(prevArrival)
	if layover < 0 || layover < p.MinTransfer {
		return false
	}
	limit := p.MaxLayover(prevArrival)
	return limit < 0 || layover <= limit
}
