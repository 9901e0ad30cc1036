package services

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/rail-planner-backend/internal/models"
	"github.com/smarttransit/rail-planner-backend/internal/planner"
	"github.com/smarttransit/rail-planner-backend/pkg/timetable"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func clock(hhmm string) timetable.TimeOfDay {
	t, err := timetable.ParseTime(hhmm)
	if err != nil {
		panic(err)
	}
	return t
}

func euro(v float64) *float64 { return &v }

func fixtureRoutes() []models.Route {
	return []models.Route{
		{
			ID: "R1", DepartureCity: "Berlin", ArrivalCity: "Munich",
			DepartureTime: clock("08:00"), ArrivalTime: clock("12:15"), TrainType: "ICE",
			OperatingDays: timetable.ParseDays("Mon,Tue,Wed,Thu,Fri"),
			PriceFirst:    euro(120), PriceSecond: euro(89.5),
		},
		{
			ID: "R2", DepartureCity: "Munich", ArrivalCity: "Vienna",
			DepartureTime: clock("12:45"), ArrivalTime: clock("16:30"), TrainType: "RJ",
			PriceFirst: euro(70), PriceSecond: euro(45),
		},
		{
			ID: "R3", DepartureCity: "Berlin", ArrivalCity: "Vienna",
			DepartureTime: clock("07:00"), ArrivalTime: clock("16:00"), TrainType: "NJ",
			OperatingDays: timetable.ParseDays("Sat,Sun"),
			PriceFirst:    euro(200), PriceSecond: euro(99),
		},
		{
			ID: "R4", DepartureCity: "Vienna", ArrivalCity: "Budapest",
			DepartureTime: clock("17:00"), ArrivalTime: clock("19:40"), TrainType: "RJ",
			PriceSecond: euro(30),
		},
	}
}

func loadedCatalog(t *testing.T) *RouteCatalog {
	catalog := NewRouteCatalog(quietLogger())
	_, err := catalog.Load(NewStaticRouteSource("fixture", fixtureRoutes()))
	require.NoError(t, err)
	return catalog
}

func defaultSettings() SearchSettings {
	return SearchSettings{
		Policy:          planner.DefaultLayoverPolicy(planner.DefaultMinTransferMinutes),
		DefaultMaxStops: planner.MaxStopsLimit,
		ResultLimit:     50,
	}
}
