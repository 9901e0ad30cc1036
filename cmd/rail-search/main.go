package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/rail-planner-backend/internal/ingest"
	"github.com/smarttransit/rail-planner-backend/internal/models"
	"github.com/smarttransit/rail-planner-backend/internal/planner"
	"github.com/smarttransit/rail-planner-backend/internal/services"
	"github.com/urfave/cli/v2"
)

func main() {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)

	app := &cli.App{
		Name:  "rail-search",
		Usage: "Search rail connections (direct and up to two stops) in a route CSV",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "csv", Usage: "Path to the route network CSV", Required: true, EnvVars: []string{"ROUTES_CSV_PATH"}},
			&cli.StringFlag{Name: "from", Usage: "Departure city", Required: true},
			&cli.StringFlag{Name: "to", Usage: "Arrival city", Required: true},
			&cli.StringFlag{Name: "train-type", Usage: "Train type (substring match)"},
			&cli.StringFlag{Name: "days", Usage: "Comma-separated operating days (e.g. Mon,Wed,Fri), any overlap accepted"},
			&cli.StringFlag{Name: "dep-from", Usage: "Earliest departure time (HH:MM)"},
			&cli.StringFlag{Name: "dep-to", Usage: "Latest departure time (HH:MM)"},
			&cli.StringFlag{Name: "arr-from", Usage: "Earliest arrival time (HH:MM)"},
			&cli.StringFlag{Name: "arr-to", Usage: "Latest arrival time (HH:MM)"},
			&cli.Float64Flag{Name: "max-price-first", Usage: "Max first class price for a single leg"},
			&cli.Float64Flag{Name: "max-price-second", Usage: "Max second class price for a single leg"},
			&cli.StringFlag{Name: "class", Value: "second", Usage: "Fare class used for pricing and sorting (first|second)"},
			&cli.IntFlag{Name: "max-stops", Value: planner.MaxStopsLimit, Usage: "Maximum number of stops (0 = direct only)"},
			&cli.IntFlag{Name: "min-transfer", Value: planner.DefaultMinTransferMinutes, Usage: "Minimum transfer time in minutes"},
			&cli.BoolFlag{Name: "uncapped", Usage: "Only enforce the minimum transfer time"},
			&cli.StringFlag{Name: "sort", Value: "duration", Usage: "Sort by duration or price"},
			&cli.IntFlag{Name: "limit", Value: 50, Usage: "Limit number of results shown"},
		},
		Action: func(c *cli.Context) error {
			return runSearch(c, logger)
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runSearch(c *cli.Context, logger *logrus.Logger) error {
	catalog := services.NewRouteCatalog(logger)
	if _, err := catalog.Load(services.NewCSVRouteSource(c.String("csv"), ingest.NewLoader(logger))); err != nil {
		return err
	}

	policy := planner.DefaultLayoverPolicy(c.Int("min-transfer"))
	if c.Bool("uncapped") {
		policy = planner.UncappedLayoverPolicy(c.Int("min-transfer"))
	}

	search := services.NewSearchService(catalog, nil, services.SearchSettings{
		Policy:          policy,
		DefaultMaxStops: planner.MaxStopsLimit,
		ResultLimit:     c.Int("limit"),
	}, logger)

	resp, err := search.Search(context.Background(), buildRequest(c))
	if err != nil {
		return err
	}

	if len(resp.Results) == 0 {
		fmt.Fprintln(c.App.Writer, "No itineraries found for the given criteria.")
		return nil
	}

	return renderTable(c.App.Writer, resp.Results)
}

func buildRequest(c *cli.Context) *models.SearchRequest {
	maxStops := c.Int("max-stops")
	minTransfer := c.Int("min-transfer")

	req := &models.SearchRequest{
		From:          c.String("from"),
		To:            c.String("to"),
		TrainType:     c.String("train-type"),
		DepartureFrom: c.String("dep-from"),
		DepartureTo:   c.String("dep-to"),
		ArrivalFrom:   c.String("arr-from"),
		ArrivalTo:     c.String("arr-to"),
		MaxStops:      &maxStops,
		MinTransfer:   &minTransfer,
		FareClass:     c.String("class"),
		SortBy:        c.String("sort"),
		Limit:         c.Int("limit"),
	}

	if days := c.String("days"); days != "" {
		for _, d := range strings.Split(days, ",") {
			req.Days = append(req.Days, strings.TrimSpace(d))
		}
	}
	if c.IsSet("max-price-first") {
		v := c.Float64("max-price-first")
		req.MaxPriceFirst = &v
	}
	if c.IsSet("max-price-second") {
		v := c.Float64("max-price-second")
		req.MaxPriceSecond = &v
	}

	return req
}
