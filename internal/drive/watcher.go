package drive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// DownloadOptions controls how files are pulled from Google Drive.
// FolderID wins over FolderPath when both are set.
type DownloadOptions struct {
	FolderID    string
	FolderPath  string
	DownloadDir string
}

// Downloader pulls import files out of a Drive folder.
type Downloader struct {
	client Client
}

func NewDownloader(c Client) *Downloader {
	return &Downloader{client: c}
}

// DownloadFolderCSV downloads every CSV file and Google Sheet in the folder
// into DownloadDir and returns the local CSV paths. Sheets are saved as
// <name>.csv.
func (d *Downloader) DownloadFolderCSV(ctx context.Context, opts DownloadOptions) ([]string, error) {
	if opts.DownloadDir == "" {
		return nil, fmt.Errorf("download dir is required")
	}
	if err := os.MkdirAll(opts.DownloadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download dir: %w", err)
	}

	folderID := opts.FolderID
	if folderID == "" && opts.FolderPath != "" {
		id, err := d.client.FindFolderByPath(ctx, opts.FolderPath)
		if err != nil {
			return nil, err
		}
		folderID = id
	}

	files, err := d.client.ListFiles(ctx, folderID)
	if err != nil {
		return nil, err
	}

	var localPaths []string
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name, ok := localName(f)
		if !ok {
			log.Debug().Str("file", f.Name).Str("mime", f.MimeType).Msg("drive: skipping non-csv file")
			continue
		}

		localPath := filepath.Join(opts.DownloadDir, name)
		if err := d.download(ctx, f, localPath); err != nil {
			return nil, err
		}
		localPaths = append(localPaths, localPath)
	}

	sort.Strings(localPaths)
	return localPaths, nil
}

func (d *Downloader) download(ctx context.Context, f *File, localPath string) error {
	out, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create local file %s: %w", localPath, err)
	}
	if err := d.client.DownloadFile(ctx, f, out); err != nil {
		out.Close()
		_ = os.Remove(localPath)
		return fmt.Errorf("failed to download %s: %w", f.Name, err)
	}
	return out.Close()
}

func localName(f *File) (string, bool) {
	name := filepath.Base(f.Name)
	if f.IsSpreadsheet() {
		return strings.TrimSuffix(name, filepath.Ext(name)) + ".csv", true
	}
	if strings.EqualFold(filepath.Ext(name), ".csv") {
		return name, true
	}
	return "", false
}
