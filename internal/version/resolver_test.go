package version

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"bedrockmgr/internal/ui"
)

func testResolver(installDir string) *Resolver {
	return &Resolver{
		InstallDir:  installDir,
		Executable:  "bedrock_server",
		CDNTemplate: "https://cdn.test/bin-linux/bedrock-server-%s.zip",
		UserAgent:   "test-agent",
		Client:      &http.Client{Timeout: 5 * time.Second},
		Output:      ui.NewWriter(&bytes.Buffer{}, false),
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestInstalled_NotInstalled(t *testing.T) {
	r := testResolver(t.TempDir())
	if v := r.Installed(); v.Kind != NotInstalled {
		t.Errorf("Installed() = %+v, want NotInstalled", v)
	}
}

func TestInstalled_FromMetadata(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bedrock_server"), "binary")
	writeFile(t, filepath.Join(dir, MetadataFileName), "VERSION=1.21.44.1\n")
	// Metadata wins even when the legacy notes disagree.
	writeFile(t, filepath.Join(dir, legacyNotesFile), "Release 1.0.0.0")

	r := testResolver(dir)
	if v := r.Installed(); v.Raw != "1.21.44.1" {
		t.Errorf("Installed() = %s, want 1.21.44.1", v)
	}
}

func TestInstalled_FromLegacyNotes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bedrock_server"), "binary")
	writeFile(t, filepath.Join(dir, legacyNotesFile), "Bedrock Dedicated Server 1.20.81.01 release notes")

	r := testResolver(dir)
	if v := r.Installed(); v.Raw != "1.20.81.01" {
		t.Errorf("Installed() = %s, want 1.20.81.01", v)
	}
}

func TestInstalled_FromBinaryDate(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "bedrock_server")
	writeFile(t, bin, "binary")
	stamp := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	if err := os.Chtimes(bin, stamp, stamp); err != nil {
		t.Fatal(err)
	}

	r := testResolver(dir)
	v := r.Installed()
	if v.Kind != Known || v.Raw != "installed-20250314" {
		t.Errorf("Installed() = %+v, want installed-20250314", v)
	}
	if v.Numeric() {
		t.Error("synthesized version should not be numeric")
	}
}

func TestLatest_FromAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if got := req.Header.Get("User-Agent"); got != "test-agent" {
			t.Errorf("User-Agent = %q, want test-agent", got)
		}
		w.Write([]byte(`{"result":{"links":[
			{"downloadType":"serverBedrockWindows","downloadUrl":"https://cdn.test/bedrock-server-1.21.50.7-win.zip"},
			{"downloadType":"serverBedrockLinux","downloadUrl":"https://cdn.test/bin-linux/bedrock-server-1.21.50.7.zip"}
		]}}`))
	}))
	defer srv.Close()

	r := testResolver(t.TempDir())
	r.APIURL = srv.URL

	v, url := r.Latest(context.Background())
	if v.Raw != "1.21.50.7" {
		t.Errorf("Latest() version = %s, want 1.21.50.7", v)
	}
	if url != "https://cdn.test/bin-linux/bedrock-server-1.21.50.7.zip" {
		t.Errorf("Latest() url = %q", url)
	}
}

func TestLatest_APIWithoutLinuxEntry_FallsToPage(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"result":{"links":[{"downloadType":"serverBedrockWindows","downloadUrl":"https://cdn.test/bedrock-server-9.9.9.9-win.zip"}]}}`))
	}))
	defer api.Close()

	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<a href="https://cdn.test/bin-linux/bedrock-server-1.21.50.7.zip">Download</a>`))
	}))
	defer page.Close()

	r := testResolver(t.TempDir())
	r.APIURL = api.URL
	r.PageURL = page.URL

	v, url := r.Latest(context.Background())
	if v.Raw != "1.21.50.7" {
		t.Errorf("Latest() version = %s, want 1.21.50.7 from page scrape", v)
	}
	if url != "https://cdn.test/bin-linux/bedrock-server-1.21.50.7.zip" {
		t.Errorf("Latest() url = %q, want synthesized CDN url", url)
	}
}

func TestLatest_NullAPIURL_FallsToPage(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"result":{"links":[{"downloadType":"serverBedrockLinux","downloadUrl":"null"}]}}`))
	}))
	defer api.Close()

	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`bedrock-server-1.21.44.1.zip`))
	}))
	defer page.Close()

	r := testResolver(t.TempDir())
	r.APIURL = api.URL
	r.PageURL = page.URL

	v, _ := r.Latest(context.Background())
	if v.Raw != "1.21.44.1" {
		t.Errorf("Latest() version = %s, want 1.21.44.1", v)
	}
}

func TestLatest_AllRemoteFail_UsesFallbackURL(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer failing.Close()

	r := testResolver(t.TempDir())
	r.APIURL = failing.URL
	r.PageURL = failing.URL
	r.FallbackURL = "https://cdn.test/bin-linux/bedrock-server-1.20.0.1.zip"

	v, url := r.Latest(context.Background())
	if v.Raw != "1.20.0.1" {
		t.Errorf("Latest() version = %s, want 1.20.0.1 from fallback", v)
	}
	if url != r.FallbackURL {
		t.Errorf("Latest() url = %q, want fallback URL", url)
	}
}

func TestLatest_TotalExhaustion_ReportsUnknown(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer failing.Close()

	r := testResolver(t.TempDir())
	r.APIURL = failing.URL
	r.PageURL = failing.URL
	r.FallbackURL = "https://cdn.test/no-version-here.zip"

	v, url := r.Latest(context.Background())
	if v.Kind != Unknown {
		t.Errorf("Latest() = %+v, want Unknown", v)
	}
	if url != "" {
		t.Errorf("Latest() url = %q, want empty", url)
	}
}

func TestGet_RetriesTransientFailures(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	r := testResolver(t.TempDir())
	body, err := r.get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("get() error = %v", err)
	}
	if string(body) != "ok" {
		t.Errorf("get() = %q, want ok", body)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}
