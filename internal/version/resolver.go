package version

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"bedrockmgr/internal/config"
	"bedrockmgr/internal/ui"
)

const (
	defaultAPIURL      = "https://net-secondary.web.minecraft-services.net/api/v1.0/download/links"
	defaultPageURL     = "https://www.minecraft.net/en-us/download/server/bedrock"
	defaultCDNTemplate = "https://www.minecraft.net/bedrockdedicatedserver/bin-linux/bedrock-server-%s.zip"

	// linuxDownloadType identifies the Linux dedicated server artifact in
	// the download-links API response.
	linuxDownloadType = "serverBedrockLinux"

	resolveTimeout = 30 * time.Second
	resolveRetries = 2
)

// urlVersionPattern extracts the version embedded in a download URL.
var urlVersionPattern = regexp.MustCompile(`bedrock-server-(\d+\.\d+\.\d+\.\d+)`)

// notesVersionPattern finds a four-part version anywhere in the legacy
// release-notes file.
var notesVersionPattern = regexp.MustCompile(`\d+\.\d+\.\d+\.\d+`)

// legacyNotesFile is consulted when the metadata file is missing; older
// installs shipped it inside the server package.
const legacyNotesFile = "release-notes.txt"

// Resolver determines the installed and latest available server versions.
// The URL fields exist so tests can point it at local servers.
type Resolver struct {
	InstallDir  string
	Executable  string
	APIURL      string
	PageURL     string
	CDNTemplate string
	FallbackURL string
	UserAgent   string
	Client      *http.Client
	Output      *ui.UI
}

// NewResolver builds a Resolver against the live minecraft.net endpoints.
func NewResolver(cfg *config.Config, output *ui.UI) *Resolver {
	return &Resolver{
		InstallDir:  cfg.InstallDir,
		Executable:  cfg.Executable,
		APIURL:      defaultAPIURL,
		PageURL:     defaultPageURL,
		CDNTemplate: defaultCDNTemplate,
		FallbackURL: cfg.FallbackURL,
		UserAgent:   cfg.UserAgent,
		Client:      &http.Client{Timeout: resolveTimeout},
		Output:      output,
	}
}

// Installed determines the currently installed version. Priority: metadata
// file, legacy release notes, binary modification date. Reports NotInstalled
// when no server binary exists.
func (r *Resolver) Installed() Version {
	binInfo, binErr := os.Stat(filepath.Join(r.InstallDir, r.Executable))
	if binErr != nil {
		return MakeNotInstalled()
	}

	meta, err := ReadMetadata(filepath.Join(r.InstallDir, MetadataFileName))
	if err == nil && meta.Version != "" {
		return Parse(meta.Version)
	}

	if notes, err := os.ReadFile(filepath.Join(r.InstallDir, legacyNotesFile)); err == nil {
		if m := notesVersionPattern.FindString(string(notes)); m != "" {
			r.Output.Debug("installed version %s from %s", m, legacyNotesFile)
			return Parse(m)
		}
	}

	// Last resort: synthesize a marker from the binary's modification date.
	return Parse("installed-" + binInfo.ModTime().Format("20060102"))
}

// Latest determines the newest available version and its download URL.
// It tries the download-links API, then the download page, then the
// configured fallback URL. Each stage degrades to the next; only total
// exhaustion yields Unknown and an empty URL.
func (r *Resolver) Latest(ctx context.Context) (Version, string) {
	if v, url, ok := r.latestFromAPI(ctx); ok {
		return v, url
	}
	if v, url, ok := r.latestFromPage(ctx); ok {
		return v, url
	}
	if m := urlVersionPattern.FindStringSubmatch(r.FallbackURL); m != nil {
		r.Output.Warn("Falling back to configured download URL (version %s)", m[1])
		return Parse(m[1]), r.FallbackURL
	}
	return MakeUnknown(), ""
}

// downloadLinks mirrors the relevant slice of the links API response.
type downloadLinks struct {
	Result struct {
		Links []struct {
			DownloadType string `json:"downloadType"`
			DownloadURL  string `json:"downloadUrl"`
		} `json:"links"`
	} `json:"result"`
}

func (r *Resolver) latestFromAPI(ctx context.Context) (Version, string, bool) {
	body, err := r.get(ctx, r.APIURL)
	if err != nil {
		r.Output.Debug("links API unavailable: %v", err)
		return Version{}, "", false
	}

	var links downloadLinks
	if err := json.Unmarshal(body, &links); err != nil {
		r.Output.Debug("links API returned malformed JSON: %v", err)
		return Version{}, "", false
	}

	for _, l := range links.Result.Links {
		if l.DownloadType != linuxDownloadType {
			continue
		}
		if !usableURL(l.DownloadURL) {
			r.Output.Debug("links API entry has unusable URL %q", l.DownloadURL)
			break
		}
		if m := urlVersionPattern.FindStringSubmatch(l.DownloadURL); m != nil {
			return Parse(m[1]), l.DownloadURL, true
		}
		r.Output.Debug("no version in API download URL %q", l.DownloadURL)
		break
	}
	return Version{}, "", false
}

func (r *Resolver) latestFromPage(ctx context.Context) (Version, string, bool) {
	body, err := r.get(ctx, r.PageURL)
	if err != nil {
		r.Output.Debug("download page unavailable: %v", err)
		return Version{}, "", false
	}

	m := urlVersionPattern.FindStringSubmatch(string(body))
	if m == nil {
		r.Output.Debug("no version pattern found on download page")
		return Version{}, "", false
	}
	return Parse(m[1]), fmt.Sprintf(r.CDNTemplate, m[1]), true
}

// usableURL rejects empty values, the literal string "null" some API
// versions return, and non-HTTP(S) schemes.
func usableURL(u string) bool {
	if u == "" || u == "null" {
		return false
	}
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

// get fetches a URL with the identifying agent header, retrying transient
// failures. The body is parsed in memory; nothing is written to disk.
func (r *Resolver) get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= resolveRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Second):
			}
		}
		body, err := r.getOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		r.Output.Debug("fetch %s attempt %d: %v", url, attempt+1, err)
	}
	return nil, lastErr
}

func (r *Resolver) getOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", r.UserAgent)

	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}

// VersionFromURL extracts the version embedded in a download URL, or
// Unknown when the URL carries none.
func VersionFromURL(url string) Version {
	if m := urlVersionPattern.FindStringSubmatch(url); m != nil {
		return Parse(m[1])
	}
	return MakeUnknown()
}
