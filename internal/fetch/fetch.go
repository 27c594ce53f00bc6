// Package fetch downloads and stages server packages.
package fetch

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bedrockmgr/internal/ui"
)

const (
	probeTimeout    = 10 * time.Second
	downloadTimeout = 15 * time.Minute
)

// Fetcher retrieves server packages from the CDN.
type Fetcher struct {
	UserAgent string
	Client    *http.Client
	Output    *ui.UI
}

// NewFetcher builds a Fetcher with a generous transfer timeout.
func NewFetcher(userAgent string, output *ui.UI) *Fetcher {
	return &Fetcher{
		UserAgent: userAgent,
		Client:    &http.Client{Timeout: downloadTimeout},
		Output:    output,
	}
}

// Validate performs a lightweight existence probe before committing to the
// full download. Any failure means the URL is not reachable.
func (f *Fetcher) Validate(ctx context.Context, url string) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, http.NoBody)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", f.UserAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		f.Output.Debug("probe %s: %v", url, err)
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// Download retrieves the package into destDir and returns the archive path.
// An incomplete transfer is fatal; there is no resume.
func (f *Fetcher) Download(ctx context.Context, url, destDir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", f.UserAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d downloading %s", resp.StatusCode, url)
	}

	name := filepath.Base(req.URL.Path)
	if name == "/" || name == "." {
		name = "server-package.zip"
	}
	dest := filepath.Join(destDir, name)

	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", dest, err)
	}
	defer out.Close()

	n, err := io.Copy(out, resp.Body)
	if err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("writing %s: %w", dest, err)
	}
	f.Output.Debug("downloaded %d bytes to %s", n, dest)
	return dest, nil
}

// Extract unpacks the zip archive fully into destDir. Any failure is fatal
// for the run; no partial-install continuation.
func Extract(archive, destDir string) error {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return fmt.Errorf("opening archive %s: %w", archive, err)
	}
	defer zr.Close()

	for _, file := range zr.File {
		if err := extractFile(file, destDir); err != nil {
			return fmt.Errorf("extracting %s: %w", file.Name, err)
		}
	}
	return nil
}

func extractFile(file *zip.File, destDir string) error {
	// Reject entries that would escape the staging directory.
	path := filepath.Join(destDir, file.Name)
	if !strings.HasPrefix(path, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return fmt.Errorf("illegal path %q", file.Name)
	}

	if file.FileInfo().IsDir() {
		return os.MkdirAll(path, 0o755)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	rc, err := file.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	// Archives built on Windows often carry no unix permission bits.
	mode := file.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}

	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}

// Stage is a run-scoped scratch directory for download and extraction.
// Cleanup removes it on every exit path and is safe to call more than once.
type Stage struct {
	dir     string
	cleaned bool
}

// NewStage creates a fresh staging directory under root.
func NewStage(root string) (*Stage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating staging root: %w", err)
	}
	dir, err := os.MkdirTemp(root, "bedrockmgr-stage-")
	if err != nil {
		return nil, fmt.Errorf("creating staging dir: %w", err)
	}
	return &Stage{dir: dir}, nil
}

// Dir returns the staging directory path.
func (s *Stage) Dir() string { return s.dir }

// PackageDir returns the directory the archive is extracted into.
func (s *Stage) PackageDir() string { return filepath.Join(s.dir, "package") }

// Cleanup removes the staging directory. The first call wins; later calls
// are no-ops so error and normal exit paths cannot double-clean.
func (s *Stage) Cleanup() {
	if s.cleaned {
		return
	}
	s.cleaned = true
	os.RemoveAll(s.dir)
}
