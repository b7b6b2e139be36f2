package main

import (
	"fmt"
	"path/filepath"

	"github.com/andresuchdata/autoforecast/backend-go/internal/config"
	"github.com/andresuchdata/autoforecast/backend-go/internal/drive"
	"github.com/andresuchdata/autoforecast/backend-go/internal/storage"
	"github.com/andresuchdata/autoforecast/backend-go/pkg/logger"
	"github.com/urfave/cli/v2"
)

const (
	sourceBucket = "bucket"
	sourceDrive  = "drive"
)

func storageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "storage-endpoint", Usage: "S3-compatible endpoint", EnvVars: []string{"STORAGE_ENDPOINT"}},
		&cli.StringFlag{Name: "storage-access-key", Usage: "Storage access key", EnvVars: []string{"STORAGE_ACCESS_KEY"}},
		&cli.StringFlag{Name: "storage-secret-key", Usage: "Storage secret key", EnvVars: []string{"STORAGE_SECRET_KEY"}},
		&cli.StringFlag{Name: "storage-bucket", Usage: "Bucket name", EnvVars: []string{"STORAGE_BUCKET"}},
		&cli.StringFlag{Name: "storage-region", Usage: "Bucket region", Value: "us-east-1", EnvVars: []string{"STORAGE_REGION"}},
		&cli.BoolFlag{Name: "storage-use-ssl", Usage: "Use TLS when the endpoint has no scheme", Value: true, EnvVars: []string{"STORAGE_USE_SSL"}},
		&cli.StringFlag{Name: "storage-import-prefix", Usage: "Key prefix of import files", Value: "imports/", EnvVars: []string{"STORAGE_IMPORT_PREFIX"}},
		&cli.StringFlag{Name: "storage-export-prefix", Usage: "Key prefix for exports", Value: "exports/", EnvVars: []string{"STORAGE_EXPORT_PREFIX"}},
	}
}

func pullFlags() []cli.Flag {
	return append([]cli.Flag{
		&cli.StringFlag{Name: "source", Usage: "Where to pull from: bucket or drive", Value: sourceBucket},
		&cli.StringFlag{Name: "download-dir", Usage: "Local directory for downloaded files", Value: "./data/tmp/pull"},
		&cli.StringFlag{Name: "object", Usage: "Pull a single object key (relative to the import prefix)"},
		&cli.StringFlag{Name: "drive-credentials", Usage: "Service account JSON", EnvVars: []string{"GOOGLE_DRIVE_CREDENTIALS_JSON"}},
		&cli.StringFlag{Name: "drive-folder-id", Usage: "Drive folder id", EnvVars: []string{"DRIVE_FOLDER_ID"}},
		&cli.StringFlag{Name: "drive-folder-path", Usage: "Drive folder path from My Drive", EnvVars: []string{"DRIVE_FOLDER_PATH"}},
	}, storageFlags()...)
}

func storageConfigFrom(c *cli.Context) config.StorageConfig {
	return config.StorageConfig{
		Endpoint:     c.String("storage-endpoint"),
		AccessKey:    c.String("storage-access-key"),
		SecretKey:    c.String("storage-secret-key"),
		Bucket:       c.String("storage-bucket"),
		Region:       c.String("storage-region"),
		UseSSL:       c.Bool("storage-use-ssl"),
		ImportPrefix: c.String("storage-import-prefix"),
		ExportPrefix: c.String("storage-export-prefix"),
	}
}

func runPull(c *cli.Context) error {
	downloadDir := c.String("download-dir")

	var (
		paths []string
		err   error
	)
	switch c.String("source") {
	case sourceBucket:
		paths, err = pullFromBucket(c, downloadDir)
	case sourceDrive:
		paths, err = pullFromDrive(c, downloadDir)
	default:
		return fmt.Errorf("unknown source %q (want %s or %s)", c.String("source"), sourceBucket, sourceDrive)
	}
	if err != nil {
		return err
	}

	logger.Log.Info().Str("source", c.String("source")).Int("files", len(paths)).Str("dir", downloadDir).Msg("Pulled import files")

	return importDir(c, downloadDir)
}

func pullFromBucket(c *cli.Context, downloadDir string) ([]string, error) {
	cfg := storageConfigFrom(c)
	client, err := storage.NewMinioClient(cfg)
	if err != nil {
		return nil, err
	}
	return storage.DownloadCSVs(c.Context, client, cfg.ImportPrefix, c.String("object"), downloadDir)
}

func pullFromDrive(c *cli.Context, downloadDir string) ([]string, error) {
	svc, err := drive.NewService(c.Context, c.String("drive-credentials"))
	if err != nil {
		return nil, err
	}
	return drive.NewDownloader(svc).DownloadFolderCSV(c.Context, drive.DownloadOptions{
		FolderID:    c.String("drive-folder-id"),
		FolderPath:  c.String("drive-folder-path"),
		DownloadDir: filepath.Clean(downloadDir),
	})
}
