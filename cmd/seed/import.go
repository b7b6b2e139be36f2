package main

import (
	"fmt"

	"github.com/andresuchdata/autoforecast/backend-go/internal/importer"
	"github.com/andresuchdata/autoforecast/backend-go/internal/repository"
	"github.com/andresuchdata/autoforecast/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/autoforecast/backend-go/pkg/logger"
	"github.com/urfave/cli/v2"
)

func runMigrate(c *cli.Context) error {
	db, err := dbFrom(c)
	if err != nil {
		return err
	}
	if err := postgres.Migrate(c.Context, db); err != nil {
		return err
	}
	logger.Log.Info().Msg("Schema up to date")
	return nil
}

func runImport(c *cli.Context) error {
	return importDir(c, c.String("data-dir"))
}

func importDir(c *cli.Context, dir string) error {
	db, err := dbFrom(c)
	if err != nil {
		return err
	}

	result, err := importer.New(repository.NewIngestRepository(db)).ImportDir(c.Context, dir)
	if err != nil {
		return fmt.Errorf("import %s: %w", dir, err)
	}

	logger.Log.Info().
		Str("dir", dir).
		Int("files", result.Files).
		Int("products", result.Products).
		Int("units_sold", result.UnitsSold).
		Int("inventory", result.Inventory).
		Int("vine_claims", result.VineClaims).
		Int("search_volume", result.SearchVolume).
		Msg("Import complete")
	return nil
}
