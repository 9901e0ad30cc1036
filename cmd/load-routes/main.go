package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/rail-planner-backend/internal/config"
	"github.com/smarttransit/rail-planner-backend/internal/database"
	"github.com/smarttransit/rail-planner-backend/internal/ingest"
	"github.com/urfave/cli/v2"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Optional .env for local runs
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "load-routes",
		Usage: "Load a route network CSV into the Route table",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "csv", Usage: "Path to the route network CSV", Required: true, EnvVars: []string{"ROUTES_CSV_PATH"}},
			&cli.StringFlag{Name: "driver", Value: database.DriverSQLite, Usage: "Database driver (sqlite|postgres)", EnvVars: []string{"DATABASE_DRIVER"}},
			&cli.StringFlag{Name: "database-url", Value: "railway.db", Usage: "Database URL or SQLite file", EnvVars: []string{"DATABASE_URL"}},
			&cli.BoolFlag{Name: "migrate", Value: true, Usage: "Create the schema before loading"},
			&cli.BoolFlag{Name: "dry-run", Usage: "Parse and report without writing"},
		},
		Action: func(c *cli.Context) error {
			return loadRoutes(c, logger)
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.WithError(err).Fatal("Route load failed")
	}
}

func loadRoutes(c *cli.Context, logger *logrus.Logger) error {
	result, err := ingest.NewLoader(logger).LoadFile(c.String("csv"))
	if err != nil {
		return err
	}

	if c.Bool("dry-run") {
		fmt.Fprintf(c.App.Writer, "%d routes parsed, %d rows skipped, %d duplicate ids\n",
			len(result.Routes), result.Skipped, result.Duplicates)
		return nil
	}

	db, err := database.NewConnection(config.DatabaseConfig{
		Driver:             c.String("driver"),
		URL:                c.String("database-url"),
		MaxConnections:     2,
		MaxIdleConnections: 1,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	if c.Bool("migrate") {
		if err := database.Migrate(db); err != nil {
			return err
		}
	}

	repo := database.NewRouteRepository(db, logger)
	written, err := repo.UpsertRoutes(result.Routes)
	if err != nil {
		return err
	}
	total, err := repo.CountRoutes()
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"csv":      c.String("csv"),
		"written":  written,
		"skipped":  result.Skipped,
		"in_table": total,
	}).Info("Routes loaded")

	return nil
}
