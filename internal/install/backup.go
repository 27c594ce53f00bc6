package install

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bedrockmgr/internal/ui"
)

// Snapshot archives the entire install directory into the backup directory
// as <prefix>-YYYYMMDD-HHMMSS.tar.gz, preserving permissions and
// timestamps, and returns the archive path.
func Snapshot(installDir, backupDir, prefix string, output *ui.UI) (string, error) {
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return "", fmt.Errorf("creating backup dir: %w", err)
	}

	name := fmt.Sprintf("%s-%s.tar.gz", prefix, time.Now().Format("20060102-150405"))
	dest := filepath.Join(backupDir, name)

	output.Info("Creating backup: %s", dest)
	if err := createTarGz(dest, installDir); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("creating backup archive: %w", err)
	}

	if info, err := os.Stat(dest); err == nil {
		output.Success("Backup complete: %s (%s)", dest, formatSize(info.Size()))
	}
	return dest, nil
}

func createTarGz(dest, baseDir string) error {
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	defer gz.Close()

	tw := tar.NewWriter(gz)
	defer tw.Close()

	return filepath.Walk(baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(baseDir, path)
		if err != nil {
			return err
		}
		if relPath == "." {
			return nil
		}

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = relPath

		if err := tw.WriteHeader(header); err != nil {
			return err
		}

		if info.IsDir() {
			return nil
		}

		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()

		_, err = io.Copy(tw, file)
		return err
	})
}

// Sweep deletes backup archives older than retentionDays, measured from
// file modification time. retentionDays 0 removes every matching archive.
// Archive count is irrelevant; only age matters.
func Sweep(backupDir, prefix string, retentionDays int, output *ui.UI) error {
	entries, err := os.ReadDir(backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading backup dir: %w", err)
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	var removed int
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), prefix+"-") || !strings.HasSuffix(e.Name(), ".tar.gz") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(backupDir, e.Name())); err != nil {
			output.Warn("Could not remove old backup %s: %v", e.Name(), err)
			continue
		}
		removed++
	}
	if removed > 0 {
		output.Info("Removed %d backup(s) older than %d day(s)", removed, retentionDays)
	}
	return nil
}

func formatSize(bytes int64) string {
	const mb = 1024 * 1024
	if bytes >= mb {
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(mb))
	}
	return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
}
