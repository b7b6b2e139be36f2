package main

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/andresuchdata/autoforecast/backend-go/internal/cache"
	"github.com/andresuchdata/autoforecast/backend-go/internal/config"
	"github.com/andresuchdata/autoforecast/backend-go/internal/domain"
	"github.com/andresuchdata/autoforecast/backend-go/internal/forecast"
	"github.com/andresuchdata/autoforecast/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/autoforecast/backend-go/internal/service"
	"github.com/andresuchdata/autoforecast/backend-go/internal/storage"
	"github.com/andresuchdata/autoforecast/backend-go/pkg/logger"
	"github.com/jmoiron/sqlx"
	"github.com/urfave/cli/v2"
)

var exportHeader = []string{"run_id", "asin", "week_end", "week_offset", "units", "tier", "tier_label", "clamped"}

func newForecastService(c *cli.Context) (*service.ForecastService, error) {
	db, err := dbFrom(c)
	if err != nil {
		return nil, err
	}
	repos := postgres.NewRepositories(postgres.Wrap(sqlx.NewDb(db, "pgx")))

	cacheCfg := config.Load().Cache
	forecastCache, err := cache.NewForecastCache(cacheCfg)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("forecast cache unavailable, stale reports will expire by TTL")
		forecastCache = cache.NewNoopForecastCache()
	}
	dashboardCache, err := cache.NewDashboardCache(cacheCfg)
	if err != nil {
		dashboardCache = cache.NewNoopDashboardCache()
	}

	return service.NewForecastService(repos, forecastCache, dashboardCache, forecastConfig()), nil
}

func runRecompute(c *cli.Context) error {
	svc, err := newForecastService(c)
	if err != nil {
		return err
	}

	summary, err := svc.RecomputeAll(c.Context)
	if err != nil {
		return err
	}
	for asin, msg := range summary.Errors {
		logger.Log.Warn().Str("asin", asin).Str("error", msg).Msg("product failed")
	}
	if summary.Products > 0 && summary.Succeeded == 0 {
		return fmt.Errorf("recompute failed for all %d products", summary.Products)
	}
	return nil
}

func runExport(c *cli.Context) error {
	svc, err := newForecastService(c)
	if err != nil {
		return err
	}

	run, records, err := svc.LatestRun(c.Context)
	if err != nil {
		return fmt.Errorf("load latest run: %w", err)
	}

	if raw := c.String("tier"); raw != "" {
		tier, ok := domain.ParseTier(raw)
		if !ok {
			return fmt.Errorf("unknown tier %q (want near, mid or long)", raw)
		}
		records = filterByTier(records, tier)
	}

	var buf bytes.Buffer
	if err := writeRecordsCSV(&buf, records); err != nil {
		return err
	}

	name := exportFileName(run)
	exportDir := c.String("export-dir")
	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		return fmt.Errorf("failed to create export dir: %w", err)
	}
	localPath := filepath.Join(exportDir, name)
	if err := os.WriteFile(localPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", localPath, err)
	}
	logger.Log.Info().Str("run_id", run.ID).Int("records", len(records)).Str("path", localPath).Msg("Export written")

	if !c.Bool("upload") {
		return nil
	}

	cfg := storageConfigFrom(c)
	client, err := storage.NewMinioClient(cfg)
	if err != nil {
		return err
	}
	key := storage.ResolveObjectKey(cfg.ExportPrefix, name)
	if err := client.UploadObject(c.Context, key, buf.Bytes()); err != nil {
		return err
	}
	logger.Log.Info().Str("key", key).Msg("Export uploaded")
	return nil
}

func exportFileName(run *domain.ForecastRun) string {
	return fmt.Sprintf("forecast_%s_%s.csv", run.CreatedAt.UTC().Format("20060102T150405Z"), run.ID)
}

func filterByTier(records []domain.ForecastRecord, tier forecast.Tier) []domain.ForecastRecord {
	out := make([]domain.ForecastRecord, 0, len(records))
	for _, r := range records {
		if forecast.Tier(r.Tier) == tier {
			out = append(out, r)
		}
	}
	return out
}

func writeRecordsCSV(w io.Writer, records []domain.ForecastRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.RunID,
			r.ASIN,
			r.WeekEnd.Format("2006-01-02"),
			strconv.Itoa(r.Offset),
			strconv.FormatFloat(r.Units, 'f', 2, 64),
			r.Tier,
			domain.TierLabel(forecast.Tier(r.Tier)),
			strconv.FormatBool(r.Clamped),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write record %s/%d: %w", r.ASIN, r.Offset, err)
		}
	}
	writer.Flush()
	return writer.Error()
}
