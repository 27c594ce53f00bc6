package install

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bedrockmgr/internal/config"
	"bedrockmgr/internal/platform"
	"bedrockmgr/internal/version"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	return &config.Config{
		InstallDir:     filepath.Join(base, "server"),
		BackupDir:      filepath.Join(base, "backups"),
		TempDir:        filepath.Join(base, "tmp"),
		Executable:     "bedrock_server",
		BackupPrefix:   "bedrock-backup",
		RetentionDays:  30,
		PreservedFiles: []string{"server.properties", "allowlist.json"},
		PreservedDirs:  []string{"worlds"},
	}
}

func stageServerPackage(t *testing.T, files map[string]string) string {
	t.Helper()
	staged := t.TempDir()
	for name, content := range files {
		path := filepath.Join(staged, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return staged
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

const downloadURL = "https://cdn.test/bin-linux/bedrock-server-1.21.50.7.zip"

func TestTransaction_RestorePreserving(t *testing.T) {
	cfg := testConfig(t)

	// Existing install with operator-edited config and world data. The
	// staged package ships a default server.properties at the same path.
	mustWrite(t, filepath.Join(cfg.InstallDir, "bedrock_server"), "old binary")
	mustWrite(t, filepath.Join(cfg.InstallDir, "server.properties"), "server-name=My World\nmax-players=4\n")
	mustWrite(t, filepath.Join(cfg.InstallDir, "worlds", "Bedrock level", "level.dat"), "world bits")
	mustWrite(t, filepath.Join(cfg.InstallDir, "stale.so"), "old library")

	staged := stageServerPackage(t, map[string]string{
		"bedrock_server":    "new binary",
		"server.properties": "server-name=Dedicated Server\n",
	})

	tx := &Transaction{Cfg: cfg, Runner: platform.NewMockRunner(), Output: testOutput()}
	ver, err := tx.Run(context.Background(), staged, downloadURL)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if ver != "1.21.50.7" {
		t.Errorf("recorded version = %q, want 1.21.50.7", ver)
	}

	// New binary in place.
	bin, err := os.ReadFile(cfg.ExecutablePath())
	if err != nil {
		t.Fatal(err)
	}
	if string(bin) != "new binary" {
		t.Errorf("binary = %q, want new binary", bin)
	}

	// Preserved file wins over the package's default, byte-identical.
	props, err := os.ReadFile(filepath.Join(cfg.InstallDir, "server.properties"))
	if err != nil {
		t.Fatal(err)
	}
	if string(props) != "server-name=My World\nmax-players=4\n" {
		t.Errorf("server.properties = %q, preserved copy must win", props)
	}

	// World data survives at its relative path.
	world, err := os.ReadFile(filepath.Join(cfg.InstallDir, "worlds", "Bedrock level", "level.dat"))
	if err != nil {
		t.Fatalf("world data lost: %v", err)
	}
	if string(world) != "world bits" {
		t.Errorf("world data = %q", world)
	}

	// Files from the old install that are neither preserved nor shipped
	// are gone after the purge.
	if _, err := os.Stat(filepath.Join(cfg.InstallDir, "stale.so")); !os.IsNotExist(err) {
		t.Error("stale file should not survive the purge")
	}

	// Executable bit set on the new binary.
	info, err := os.Stat(cfg.ExecutablePath())
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode()&0o111 == 0 {
		t.Error("server binary should be executable")
	}
}

func TestTransaction_WritesMetadata(t *testing.T) {
	cfg := testConfig(t)
	staged := stageServerPackage(t, map[string]string{"bedrock_server": "binary"})

	tx := &Transaction{Cfg: cfg, Runner: platform.NewMockRunner(), Output: testOutput()}
	if _, err := tx.Run(context.Background(), staged, downloadURL); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	meta, err := version.ReadMetadata(filepath.Join(cfg.InstallDir, version.MetadataFileName))
	if err != nil {
		t.Fatalf("metadata not written: %v", err)
	}
	if meta.Version != "1.21.50.7" {
		t.Errorf("metadata VERSION = %q, want 1.21.50.7", meta.Version)
	}
	if meta.DownloadURL != downloadURL {
		t.Errorf("metadata DOWNLOAD_URL = %q", meta.DownloadURL)
	}
	if meta.InstallDate == "" {
		t.Error("metadata INSTALL_DATE should be set")
	}
}

func TestTransaction_UnparseableURLSynthesizesVersion(t *testing.T) {
	cfg := testConfig(t)
	staged := stageServerPackage(t, map[string]string{"bedrock_server": "binary"})

	tx := &Transaction{Cfg: cfg, Runner: platform.NewMockRunner(), Output: testOutput()}
	ver, err := tx.Run(context.Background(), staged, "https://cdn.test/custom-build.zip")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.HasPrefix(ver, "unknown-") {
		t.Errorf("version = %q, want unknown-<timestamp>", ver)
	}
}

func TestTransaction_FreshInstallSkipsSnapshot(t *testing.T) {
	cfg := testConfig(t)
	// No install directory at all.
	staged := stageServerPackage(t, map[string]string{"bedrock_server": "binary"})

	tx := &Transaction{Cfg: cfg, Runner: platform.NewMockRunner(), Output: testOutput()}
	if _, err := tx.Run(context.Background(), staged, downloadURL); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if entries, err := os.ReadDir(cfg.BackupDir); err == nil && len(entries) > 0 {
		t.Errorf("fresh install must not create a backup, found %d entries", len(entries))
	}
}

func TestTransaction_SnapshotBeforeReplace(t *testing.T) {
	cfg := testConfig(t)
	mustWrite(t, filepath.Join(cfg.InstallDir, "bedrock_server"), "old binary")
	staged := stageServerPackage(t, map[string]string{"bedrock_server": "new binary"})

	tx := &Transaction{Cfg: cfg, Runner: platform.NewMockRunner(), Output: testOutput()}
	if _, err := tx.Run(context.Background(), staged, downloadURL); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	entries, err := os.ReadDir(cfg.BackupDir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected exactly one backup archive, got %v (err %v)", entries, err)
	}

	// The snapshot holds the pre-transaction binary.
	names := readTarGzNames(t, filepath.Join(cfg.BackupDir, entries[0].Name()))
	if !names["bedrock_server"] {
		t.Error("snapshot should contain the old install's files")
	}
}

func TestTransaction_ChownWithServiceUser(t *testing.T) {
	cfg := testConfig(t)
	cfg.ServiceUser = "minecraft"
	staged := stageServerPackage(t, map[string]string{"bedrock_server": "binary"})

	mock := platform.NewMockRunner()
	tx := &Transaction{Cfg: cfg, Runner: mock, Output: testOutput()}
	if _, err := tx.Run(context.Background(), staged, downloadURL); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	var sawChown bool
	for _, c := range mock.Commands {
		if c.Name == "chown" && c.Sudo {
			sawChown = true
			if c.Args[0] != "-R" || c.Args[1] != "minecraft:minecraft" {
				t.Errorf("chown args = %v", c.Args)
			}
		}
	}
	if !sawChown {
		t.Error("expected recursive chown for service user")
	}
}
