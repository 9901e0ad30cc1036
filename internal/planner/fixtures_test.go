package planner

import (
	"github.com/smarttransit/rail-planner-backend/internal/models"
	"github.com/smarttransit/rail-planner-backend/pkg/timetable"
)

func at(hhmm string) timetable.TimeOfDay {
	t, err := timetable.ParseTime(hhmm)
	if err != nil {
		panic(err)
	}
	return t
}

func price(v float64) *float64 {
	return &v
}

func leg(id, from, to, dep, arr string, first, second *float64, days ...timetable.DayCode) models.Route {
	return models.Route{
		ID:            id,
		DepartureCity: from,
		ArrivalCity:   to,
		DepartureTime: at(dep),
		ArrivalTime:   at(arr),
		TrainType:     "RJ",
		OperatingDays: timetable.NewDaySet(days...),
		PriceFirst:    first,
		PriceSecond:   second,
	}
}

func secondOnly(id, from, to, dep, arr string, second float64) models.Route {
	return leg(id, from, to, dep, arr, nil, price(second))
}

func query(from, to string, maxStops int) Query {
	return Query{
		Origin:      from,
		Destination: to,
		MaxStops:    maxStops,
		Policy:      DefaultLayoverPolicy(DefaultMinTransferMinutes),
		Class:       models.SecondClass,
	}
}
