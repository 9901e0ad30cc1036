package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/smarttransit/rail-planner-backend/internal/models"
)

var tableColumns = []string{"Stops", "Total Duration", "Price", "Transfers", "Path", "Legs"}

// renderTable prints one row per itinerary in result order
func renderTable(w io.Writer, results []models.ItineraryView) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, strings.Join(tableColumns, "\t"))
	separators := make([]string, len(tableColumns))
	for i, col := range tableColumns {
		separators[i] = strings.Repeat("-", len(col))
	}
	fmt.Fprintln(tw, strings.Join(separators, "\t"))

	for _, it := range results {
		fmt.Fprintln(tw, strings.Join([]string{
			strconv.Itoa(it.Stops),
			it.TotalDuration,
			fmt.Sprintf("%.2f€", it.Price),
			formatTransfers(it.TransfersMinutes),
			it.Path,
			formatLegs(it.Legs),
		}, "\t"))
	}

	return tw.Flush()
}

func formatTransfers(minutes []int) string {
	if len(minutes) == 0 {
		return "-"
	}
	parts := make([]string, len(minutes))
	for i, m := range minutes {
		parts[i] = strconv.Itoa(m) + "m"
	}
	return strings.Join(parts, ", ")
}

func formatLegs(legs []models.LegView) string {
	parts := make([]string, len(legs))
	for i, leg := range legs {
		parts[i] = fmt.Sprintf("%s %s %s-%s", leg.RouteID, leg.TrainType, leg.DepartureTime, leg.ArrivalTime)
	}
	return strings.Join(parts, "; ")
}
