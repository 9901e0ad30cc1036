package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/gocarina/gocsv"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/rail-planner-backend/internal/models"
	"github.com/smarttransit/rail-planner-backend/pkg/timetable"
)

// routeRow is one raw CSV record. Each field lists every header spelling seen
// in published timetable exports; headers are matched case-insensitively.
type routeRow struct {
	RouteID       string `csv:"route id,route_id,id"`
	DepartureCity string `csv:"departure city,from,departure"`
	ArrivalCity   string `csv:"arrival city,to,arrival"`
	DepartureTime string `csv:"departure time,dep_time,depart,dep"`
	ArrivalTime   string `csv:"arrival time,arr_time,arrive,arr"`
	TrainType     string `csv:"train type,train,type"`
	Days          string `csv:"days of operation,days,operation days"`
	PriceFirst    string `csv:"first class ticket rate (in euro),price_first,first class"`
	PriceSecond   string `csv:"second class ticket rate (in euro),price_second,second class"`
}

var headerNormalizer sync.Once

func normalizeHeaders() {
	headerNormalizer.Do(func() {
		gocsv.SetHeaderNormalizer(func(h string) string {
			return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		})
	})
}

// Result is the outcome of one CSV load
type Result struct {
	Routes     []models.Route
	Skipped    int
	Duplicates int
}

// Loader turns route CSV exports into the canonical models.Route shape
type Loader struct {
	logger *logrus.Logger
}

// NewLoader creates a new Loader
func NewLoader(logger *logrus.Logger) *Loader {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Loader{logger: logger}
}

// LoadFile reads and parses a route CSV file
func (l *Loader) LoadFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open routes csv: %w", err)
	}
	defer f.Close()

	result, err := l.Load(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return result, nil
}

// Load parses route records from r. Malformed rows are skipped with a
// warning; a later row with an already seen route id replaces the earlier one.
func (l *Loader) Load(r io.Reader) (*Result, error) {
	normalizeHeaders()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read routes csv: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return &Result{Routes: []models.Route{}}, nil
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectDelimiter(data)
	// Allow rows with missing trailing columns
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows []routeRow
	if err := gocsv.UnmarshalCSV(reader, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode routes csv: %w", err)
	}

	result := &Result{Routes: make([]models.Route, 0, len(rows))}
	index := make(map[string]int, len(rows))

	for i, row := range rows {
		route, err := row.toRoute()
		if err != nil {
			result.Skipped++
			l.logger.WithFields(logrus.Fields{
				"line":  i + 2,
				"error": err.Error(),
			}).Warn("Skipping malformed route row")
			continue
		}

		if pos, seen := index[route.ID]; seen {
			result.Duplicates++
			l.logger.WithFields(logrus.Fields{
				"line":     i + 2,
				"route_id": route.ID,
			}).Warn("Duplicate route id, keeping the later row")
			result.Routes[pos] = route
			continue
		}
		index[route.ID] = len(result.Routes)
		result.Routes = append(result.Routes, route)
	}

	l.logger.WithFields(logrus.Fields{
		"routes":     len(result.Routes),
		"skipped":    result.Skipped,
		"duplicates": result.Duplicates,
	}).Info("Routes csv loaded")

	return result, nil
}

func (row routeRow) toRoute() (models.Route, error) {
	dep, err := timetable.ParseTime(row.DepartureTime)
	if err != nil {
		return models.Route{}, fmt.Errorf("departure time: %w", err)
	}
	arr, err := timetable.ParseTime(row.ArrivalTime)
	if err != nil {
		return models.Route{}, fmt.Errorf("arrival time: %w", err)
	}
	first, err := ParsePrice(row.PriceFirst)
	if err != nil {
		return models.Route{}, fmt.Errorf("first class price: %w", err)
	}
	second, err := ParsePrice(row.PriceSecond)
	if err != nil {
		return models.Route{}, fmt.Errorf("second class price: %w", err)
	}

	route := models.Route{
		ID:            strings.TrimSpace(row.RouteID),
		DepartureCity: strings.TrimSpace(row.DepartureCity),
		ArrivalCity:   strings.TrimSpace(row.ArrivalCity),
		DepartureTime: dep,
		ArrivalTime:   arr,
		TrainType:     strings.TrimSpace(row.TrainType),
		OperatingDays: timetable.ParseDays(row.Days),
		PriceFirst:    first,
		PriceSecond:   second,
	}
	if err := route.Validate(); err != nil {
		return models.Route{}, err
	}
	return route, nil
}

// ParsePrice reads a euro amount. Decimal commas and a currency sign are
// accepted; an empty cell means the class is not sold on that leg.
func ParsePrice(raw string) (*float64, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSuffix(s, "€"), "€"))
	if s == "" {
		return nil, nil
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("invalid price %q", raw)
	}
	return &v, nil
}

// detectDelimiter picks ';' for exports whose header line has no commas
func detectDelimiter(data []byte) rune {
	header := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		header = data[:i]
	}
	if bytes.IndexByte(header, ';') >= 0 && bytes.IndexByte(header, ',') < 0 {
		return ';'
	}
	return ','
}
