// Package cli defines the command tree parsed by Kong.
package cli

import (
	"fmt"

	"github.com/alecthomas/kong"

	"bedrockmgr/internal/config"
	"bedrockmgr/internal/platform"
	"bedrockmgr/internal/ui"
)

// Globals holds flags shared by all subcommands, plus the wired dependencies
// built once after flag parsing.
type Globals struct {
	ConfigFile string           `help:"Path to config file" short:"c" name:"config" type:"path"`
	Dir        string           `help:"Server install directory (overrides config)"`
	Session    string           `help:"Screen session name (overrides config)"`
	Verbose    bool             `help:"Enable debug output" short:"v"`
	Version    kong.VersionFlag `help:"Print version"`

	cfg    *config.Config
	runner platform.CommandRunner
	out    *ui.UI
}

// AfterApply loads the config, applies flag overrides, and wires the runner
// and output every command uses.
func (g *Globals) AfterApply() error {
	cfg, err := config.Load(g.ConfigFile)
	if err != nil {
		return err
	}
	if g.Dir != "" {
		cfg.InstallDir = g.Dir
	}
	if g.Session != "" {
		cfg.SessionName = g.Session
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	out := ui.Default()
	out.SetVerbose(g.Verbose)
	if err := out.AttachLogFile(cfg.ManagerLogFile()); err != nil {
		// A read-only log dir shouldn't block the command itself.
		out.Warn("log file unavailable: %v", err)
	}

	g.cfg = cfg
	g.runner = platform.NewOSCommandRunner()
	g.out = out
	return nil
}

// CLI is the top-level command tree parsed by Kong.
type CLI struct {
	Globals

	Start    StartCmd    `cmd:"" help:"Start the Bedrock server in a screen session"`
	Stop     StopCmd     `cmd:"" help:"Gracefully stop the Bedrock server"`
	Restart  RestartCmd  `cmd:"" help:"Stop then start the Bedrock server"`
	Status   StatusCmd   `cmd:"" help:"Show server status and resource usage"`
	Update   UpdateCmd   `cmd:"" help:"Update the server to the latest version"`
	Backup   BackupCmd   `cmd:"" help:"Snapshot the server directory with rotation"`
	Send     SendCmd     `cmd:"" help:"Send a command to the running server console"`
	Schedule ScheduleCmd `cmd:"" help:"Install a cron entry for automatic updates"`
	Console  ConsoleCmd  `cmd:"" help:"Interactive console with live server log"`
}
