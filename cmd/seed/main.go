package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/andresuchdata/autoforecast/backend-go/internal/config"
	"github.com/andresuchdata/autoforecast/backend-go/pkg/logger"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

type contextKey string

const dbKey contextKey = "db"

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func newDataDirFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "data-dir",
		Usage:   "Directory containing import CSV files",
		Value:   "./data/import",
		EnvVars: []string{"APP_DATA_DIR"},
	}
}

func initDB(c *cli.Context) error {
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.PingContext(c.Context); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	c.Context = context.WithValue(c.Context, dbKey, db)
	return nil
}

func closeDB(c *cli.Context) error {
	if db, ok := c.Context.Value(dbKey).(*sql.DB); ok && db != nil {
		return db.Close()
	}
	return nil
}

func dbFrom(c *cli.Context) (*sql.DB, error) {
	db, ok := c.Context.Value(dbKey).(*sql.DB)
	if !ok || db == nil {
		return nil, fmt.Errorf("database connection not initialised")
	}
	return db, nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		logger.Log.Debug().Err(err).Msg("no .env file loaded")
	}
	logger.SetLevel(os.Getenv("SERVER_MODE"))

	app := &cli.App{
		Name:  "seed",
		Usage: "Load forecast inputs and run batch forecasts",
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "Create or update the database schema",
				Flags:  []cli.Flag{newDBURLFlag()},
				Before: initDB,
				After:  closeDB,
				Action: runMigrate,
			},
			{
				Name:   "import",
				Usage:  "Import CSV files (units sold, inventory, vine claims, search volume) from a directory",
				Flags:  []cli.Flag{newDBURLFlag(), newDataDirFlag()},
				Before: initDB,
				After:  closeDB,
				Action: runImport,
			},
			{
				Name:   "pull",
				Usage:  "Download CSV files from object storage or Google Drive, then import them",
				Flags:  append([]cli.Flag{newDBURLFlag()}, pullFlags()...),
				Before: initDB,
				After:  closeDB,
				Action: runPull,
			},
			{
				Name:   "recompute",
				Usage:  "Recompute and persist forecasts for every product",
				Flags:  []cli.Flag{newDBURLFlag()},
				Before: initDB,
				After:  closeDB,
				Action: runRecompute,
			},
			{
				Name:  "export",
				Usage: "Write the latest forecast run to CSV and optionally upload it",
				Flags: append([]cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:    "export-dir",
						Usage:   "Directory the CSV is written to",
						Value:   "./data/export",
						EnvVars: []string{"APP_EXPORT_DIR"},
					},
					&cli.StringFlag{
						Name:  "tier",
						Usage: "Only export weeks of one tier (near, mid, long)",
					},
					&cli.BoolFlag{
						Name:  "upload",
						Usage: "Upload the CSV to the storage bucket under the export prefix",
					},
				}, storageFlags()...),
				Before: initDB,
				After:  closeDB,
				Action: runExport,
			},
			{
				Name:   "all",
				Usage:  "Migrate, import the data directory and recompute",
				Flags:  []cli.Flag{newDBURLFlag(), newDataDirFlag()},
				Before: initDB,
				After:  closeDB,
				Action: func(c *cli.Context) error {
					if err := runMigrate(c); err != nil {
						return fmt.Errorf("error running migrate: %w", err)
					}
					if err := runImport(c); err != nil {
						return fmt.Errorf("error running import: %w", err)
					}
					if err := runRecompute(c); err != nil {
						return fmt.Errorf("error running recompute: %w", err)
					}
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("seed failed")
	}
}

func forecastConfig() config.ForecastConfig {
	return config.Load().Forecast
}
