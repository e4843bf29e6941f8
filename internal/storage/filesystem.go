package storage

import (
	"fmt"
	"path/filepath"
	"regexp"
	"time"

	"github.com/spf13/afero"
)

var unsafePath = regexp.MustCompile(`[^a-zA-Z0-9.\-]+`)

// SanitizeTarget replaces characters unsafe for filesystem paths
// Allows alphanumeric, dots, and hyphens. Replaces everything else with underscore.
func SanitizeTarget(target string) string {
	return unsafePath.ReplaceAllString(target, "_")
}

// ScanDirPath generates a consistent directory path for a scan
// Format: {baseDir}/{label}_{YYYYMMDD}_{HHMMSS}
func ScanDirPath(baseDir string, label string, startedAt time.Time) string {
	timestamp := startedAt.Format("20060102_150405")
	return filepath.Join(baseDir, fmt.Sprintf("%s_%s", SanitizeTarget(label), timestamp))
}

// CreateScanDir creates a scan directory with subdirectories for reports and raw output
func CreateScanDir(fs afero.Fs, baseDir string, label string, startedAt time.Time) (string, error) {
	scanPath := ScanDirPath(baseDir, label, startedAt)

	for _, dir := range []string{scanPath, ReportsDir(scanPath), RawDir(scanPath)} {
		if err := EnsureDir(fs, dir); err != nil {
			return "", err
		}
	}
	return scanPath, nil
}

// ReportsDir is where markdown reports of a scan are written.
func ReportsDir(scanPath string) string { return filepath.Join(scanPath, "reports") }

// RawDir is where structured JSON output of a scan is written.
func RawDir(scanPath string) string { return filepath.Join(scanPath, "raw") }

// EnsureDir creates a directory and all parent directories if they don't exist
func EnsureDir(fs afero.Fs, path string) error {
	return fs.MkdirAll(path, 0755)
}
