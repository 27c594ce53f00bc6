// Package install commits a staged server package to the install directory.
package install

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"bedrockmgr/internal/config"
	"bedrockmgr/internal/platform"
	"bedrockmgr/internal/ui"
	"bedrockmgr/internal/version"
)

// Transaction replaces the installed server files with a staged package
// while preserving configuration and world data. The step order (snapshot,
// preserve, purge, replace, restore, record, fix permissions) bounds the
// window of inconsistency; there is no rollback on failure.
type Transaction struct {
	Cfg    *config.Config
	Runner platform.CommandRunner
	Output *ui.UI
}

// Run executes the transaction and returns the recorded version string.
// The server must already be stopped; callers enforce that.
func (t *Transaction) Run(ctx context.Context, stagedDir, downloadURL string) (string, error) {
	installDir := t.Cfg.InstallDir

	// 1. Snapshot the current install, unless this is a fresh install.
	if _, err := os.Stat(installDir); err == nil {
		if _, err := Snapshot(installDir, t.Cfg.BackupDir, t.Cfg.BackupPrefix, t.Output); err != nil {
			return "", fmt.Errorf("snapshot: %w", err)
		}
	} else {
		t.Output.Info("No existing install, skipping backup snapshot")
	}

	// 2. Copy preserved files and directories aside.
	preserveDir, err := os.MkdirTemp(t.Cfg.StagingRoot(), "bedrockmgr-preserve-")
	if err != nil {
		return "", fmt.Errorf("creating preserve dir: %w", err)
	}
	defer os.RemoveAll(preserveDir)

	preserved, err := t.preserve(installDir, preserveDir)
	if err != nil {
		return "", fmt.Errorf("preserving files: %w", err)
	}
	if len(preserved) > 0 {
		t.Output.Info("Preserved %d file(s)/dir(s)", len(preserved))
	}

	// 3. Purge the install directory contents, keeping the directory.
	if err := purgeDir(installDir); err != nil {
		return "", fmt.Errorf("purging install dir: %w", err)
	}

	// 4. Copy the staged package in.
	if err := copyTree(stagedDir, installDir); err != nil {
		return "", fmt.Errorf("installing staged files: %w", err)
	}

	// 5. Restore preserved items, overwriting the package's defaults.
	if err := copyTree(preserveDir, installDir); err != nil {
		return "", fmt.Errorf("restoring preserved files: %w", err)
	}

	// 6. Record what was installed.
	ver := version.VersionFromURL(downloadURL)
	verStr := ver.String()
	if ver.Kind == version.Unknown {
		verStr = "unknown-" + time.Now().Format("20060102-150405")
	}
	meta := version.NewMetadata(verStr, downloadURL)
	if err := meta.Write(filepath.Join(installDir, version.MetadataFileName)); err != nil {
		return "", err
	}

	// 7. Fix permissions and ownership.
	if err := os.Chmod(t.Cfg.ExecutablePath(), 0o755); err != nil {
		return "", fmt.Errorf("marking executable: %w", err)
	}
	if u := t.Cfg.ServiceUser; u != "" {
		owner := fmt.Sprintf("%s:%s", u, u)
		if err := t.Runner.RunSudo(ctx, "chown", "-R", owner, installDir); err != nil {
			return "", fmt.Errorf("setting ownership: %w", err)
		}
	}

	t.Output.Success("Installed version %s", verStr)
	return verStr, nil
}

// preserve copies every configured preserved entry that exists from
// installDir into preserveDir, keeping relative paths. Missing entries are
// skipped silently; they may simply not exist yet.
func (t *Transaction) preserve(installDir, preserveDir string) ([]string, error) {
	var preserved []string

	for _, name := range t.Cfg.PreservedFiles {
		src := filepath.Join(installDir, name)
		if info, err := os.Stat(src); err != nil || info.IsDir() {
			continue
		}
		dst := filepath.Join(preserveDir, name)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return nil, err
		}
		if err := copyFile(src, dst); err != nil {
			return nil, err
		}
		preserved = append(preserved, name)
	}

	for _, name := range t.Cfg.PreservedDirs {
		src := filepath.Join(installDir, name)
		if info, err := os.Stat(src); err != nil || !info.IsDir() {
			continue
		}
		if err := copyTree(src, filepath.Join(preserveDir, name)); err != nil {
			return nil, err
		}
		preserved = append(preserved, name)
	}

	return preserved, nil
}

// purgeDir removes every entry inside dir, creating dir if needed.
func purgeDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return os.MkdirAll(dir, 0o755)
		}
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// copyTree copies src into dst recursively, preserving file modes and
// overwriting existing files.
func copyTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if info.IsDir() {
			return os.MkdirAll(target, info.Mode().Perm())
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
