package version

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"
)

// MetadataFileName is the name of the install metadata file kept next to the
// server executable. Line-oriented KEY=value pairs.
const MetadataFileName = "version.txt"

// Metadata records what is installed, when, and from where. It is rewritten
// on every successful install.
type Metadata struct {
	Version     string
	InstallDate string
	DownloadURL string
}

// NewMetadata builds a Metadata entry stamped with the current time.
func NewMetadata(version, downloadURL string) Metadata {
	return Metadata{
		Version:     version,
		InstallDate: time.Now().Format("2006-01-02 15:04:05"),
		DownloadURL: downloadURL,
	}
}

// ReadMetadata parses a KEY=value metadata file.
func ReadMetadata(path string) (Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return Metadata{}, err
	}
	defer f.Close()

	var m Metadata
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch key {
		case "VERSION":
			m.Version = value
		case "INSTALL_DATE":
			m.InstallDate = value
		case "DOWNLOAD_URL":
			m.DownloadURL = value
		}
	}
	if err := scanner.Err(); err != nil {
		return Metadata{}, fmt.Errorf("reading metadata: %w", err)
	}
	return m, nil
}

// Write persists the metadata, overwriting any previous file.
func (m Metadata) Write(path string) error {
	content := fmt.Sprintf("VERSION=%s\nINSTALL_DATE=%s\nDOWNLOAD_URL=%s\n",
		m.Version, m.InstallDate, m.DownloadURL)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}
	return nil
}
