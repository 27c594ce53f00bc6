package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all settings for managing a Bedrock dedicated server install.
// It is built once at process start and passed explicitly to every component.
type Config struct {
	InstallDir  string `mapstructure:"install_dir"`
	BackupDir   string `mapstructure:"backup_dir"`
	TempDir     string `mapstructure:"temp_dir"`
	LogDir      string `mapstructure:"log_dir"`
	ServiceUser string `mapstructure:"service_user"`
	SessionName string `mapstructure:"session_name"`
	Executable  string `mapstructure:"executable"`

	FallbackURL string `mapstructure:"fallback_url"`
	UserAgent   string `mapstructure:"user_agent"`

	BackupPrefix  string `mapstructure:"backup_prefix"`
	RetentionDays int    `mapstructure:"retention_days"`

	PreservedFiles []string `mapstructure:"preserved_files"`
	PreservedDirs  []string `mapstructure:"preserved_dirs"`

	Notify NotifyConfig `mapstructure:"notify"`
}

// NotifyConfig controls the optional Telegram notification channel.
type NotifyConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`

	OnUpdateStart bool `mapstructure:"on_update_start"`
	OnSuccess     bool `mapstructure:"on_success"`
	OnFailure     bool `mapstructure:"on_failure"`
	OnNoUpdate    bool `mapstructure:"on_no_update"`
}

// DefaultFallbackURL is used by the version resolver when both the links API
// and the download page are unreachable.
const DefaultFallbackURL = "https://www.minecraft.net/bedrockdedicatedserver/bin-linux/bedrock-server-1.21.44.01.zip"

// defaultUserAgent identifies us to minecraft.net, which rejects requests
// carrying an empty or tool-default agent string.
const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) bedrockmgr"

// Load reads configuration from an optional YAML file and environment
// variables (prefix BEDROCKMGR) and returns the resulting Config.
// A missing config file is not an error; defaults apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	home, _ := os.UserHomeDir()

	v.SetDefault("install_dir", filepath.Join(home, "bedrock-server"))
	v.SetDefault("backup_dir", filepath.Join(home, "bedrock-backups"))
	v.SetDefault("temp_dir", "")
	v.SetDefault("log_dir", filepath.Join(home, "bedrock-logs"))
	v.SetDefault("service_user", "")
	v.SetDefault("session_name", "bedrock")
	v.SetDefault("executable", "bedrock_server")
	v.SetDefault("fallback_url", DefaultFallbackURL)
	v.SetDefault("user_agent", defaultUserAgent)
	v.SetDefault("backup_prefix", "bedrock-backup")
	v.SetDefault("retention_days", 30)
	v.SetDefault("preserved_files", []string{
		"server.properties",
		"permissions.json",
		"allowlist.json",
		"whitelist.json",
	})
	v.SetDefault("preserved_dirs", []string{
		"worlds",
		"behavior_packs",
		"resource_packs",
	})
	v.SetDefault("notify.enabled", false)
	v.SetDefault("notify.bot_token", "")
	v.SetDefault("notify.chat_id", "")
	v.SetDefault("notify.on_update_start", true)
	v.SetDefault("notify.on_success", true)
	v.SetDefault("notify.on_failure", true)
	v.SetDefault("notify.on_no_update", false)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("bedrockmgr")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/bedrockmgr")
	}

	v.SetEnvPrefix("BEDROCKMGR")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is fine -- use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Validate checks that all config values are usable.
func (c *Config) Validate() error {
	if c.InstallDir == "" {
		return fmt.Errorf("install directory must be set")
	}
	if c.BackupDir == "" {
		return fmt.Errorf("backup directory must be set")
	}
	if c.SessionName == "" {
		return fmt.Errorf("session name must be set")
	}
	if c.Executable == "" {
		return fmt.Errorf("executable name must be set")
	}
	if c.RetentionDays < 0 {
		return fmt.Errorf("invalid retention %d: must be >= 0 days", c.RetentionDays)
	}
	if c.Notify.Enabled && (c.Notify.BotToken == "" || c.Notify.ChatID == "") {
		return fmt.Errorf("notifications enabled but bot_token or chat_id is empty")
	}
	return nil
}

// ExecutablePath returns the full path of the server binary.
func (c *Config) ExecutablePath() string {
	return filepath.Join(c.InstallDir, c.Executable)
}

// ManagerLogFile is the append-only log file for bedrockmgr itself.
func (c *Config) ManagerLogFile() string {
	return filepath.Join(c.LogDir, "bedrockmgr.log")
}

// ServerLogFile receives the screen session's captured console output.
func (c *Config) ServerLogFile() string {
	return filepath.Join(c.LogDir, "server.log")
}

// StagingRoot returns the directory under which run-scoped staging
// directories are created.
func (c *Config) StagingRoot() string {
	if c.TempDir != "" {
		return c.TempDir
	}
	return os.TempDir()
}
