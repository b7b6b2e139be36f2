package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/andresuchdata/autoforecast/backend-go/internal/config"
)

// fakeStorage serves objects from a map.
type fakeStorage struct {
	objects  map[string][]byte
	uploaded map[string][]byte
}

func (f *fakeStorage) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var out []ObjectInfo
	for k, v := range f.objects {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			out = append(out, ObjectInfo{Key: k, Size: int64(len(v))})
		}
	}
	return out, nil
}

func (f *fakeStorage) DownloadObject(ctx context.Context, key, destPath string) error {
	return os.WriteFile(destPath, f.objects[key], 0o644)
}

func (f *fakeStorage) UploadObject(ctx context.Context, key string, data []byte) error {
	if f.uploaded == nil {
		f.uploaded = make(map[string][]byte)
	}
	f.uploaded[key] = data
	return nil
}

func TestDownloadCSVs(t *testing.T) {
	store := &fakeStorage{objects: map[string][]byte{
		"imports/Units_Sold.csv":         []byte("a"),
		"imports/2024/FBAInventory.csv":  []byte("b"),
		"imports/readme.txt":             []byte("c"),
		"exports/forecast.csv":           []byte("d"),
	}}
	dir := t.TempDir()

	paths, err := DownloadCSVs(context.Background(), store, "imports/", "", dir)
	if err != nil {
		t.Fatalf("DownloadCSVs failed: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("Expected 2 CSV files, got %v", paths)
	}
	if paths[0] != filepath.Join(dir, "2024", "FBAInventory.csv") {
		t.Errorf("Unexpected nested path %s", paths[0])
	}
	data, err := os.ReadFile(filepath.Join(dir, "Units_Sold.csv"))
	if err != nil || string(data) != "a" {
		t.Errorf("Expected downloaded content, got %q (%v)", data, err)
	}

	if _, err := DownloadCSVs(context.Background(), store, "missing/", "", dir); err == nil {
		t.Errorf("Expected error for empty prefix")
	}
}

func TestResolveObjectKey(t *testing.T) {
	tests := []struct {
		prefix, override, want string
	}{
		{"imports/", "", "imports/"},
		{"", "/Units_Sold.csv", "Units_Sold.csv"},
		{"imports/", "Units_Sold.csv", "imports/Units_Sold.csv"},
		{"imports", "imports/Units_Sold.csv", "imports/Units_Sold.csv"},
	}
	for _, tt := range tests {
		if got := ResolveObjectKey(tt.prefix, tt.override); got != tt.want {
			t.Errorf("ResolveObjectKey(%q, %q) = %q, want %q", tt.prefix, tt.override, got, tt.want)
		}
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		in     string
		useSSL bool
		host   string
		secure bool
	}{
		{"https://s3.example.com/", false, "s3.example.com", true},
		{"http://localhost:9000", true, "localhost:9000", false},
		{"minio:9000", false, "minio:9000", false},
		{"//minio:9000", true, "minio:9000", true},
	}
	for _, tt := range tests {
		host, secure := normalizeEndpoint(tt.in, tt.useSSL)
		if host != tt.host || secure != tt.secure {
			t.Errorf("normalizeEndpoint(%q) = %q, %v; want %q, %v", tt.in, host, secure, tt.host, tt.secure)
		}
	}
}

func TestNewMinioClientValidation(t *testing.T) {
	if _, err := NewMinioClient(config.StorageConfig{}); err == nil {
		t.Errorf("Expected missing endpoint error")
	}
	if _, err := NewMinioClient(config.StorageConfig{Endpoint: "localhost:9000", Bucket: "b"}); err == nil {
		t.Errorf("Expected missing credentials error")
	}

	c, err := NewMinioClient(config.StorageConfig{Endpoint: "localhost:9000", AccessKey: "k", SecretKey: "s", Bucket: "b"})
	if err != nil {
		t.Fatalf("NewMinioClient failed: %v", err)
	}
	if c.bucket != "b" {
		t.Errorf("Expected bucket b, got %s", c.bucket)
	}
}
