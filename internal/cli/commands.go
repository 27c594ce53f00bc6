package cli

import (
	"context"
	"strings"

	"bedrockmgr/internal/console"
	"bedrockmgr/internal/install"
	"bedrockmgr/internal/platform"
	"bedrockmgr/internal/supervisor"
	"bedrockmgr/internal/update"
)

// StartCmd starts the Bedrock server in a screen session.
type StartCmd struct{}

// Run starts the server.
func (cmd *StartCmd) Run(g *Globals) error {
	ctx := context.Background()
	sup := supervisor.New(g.cfg, g.runner, g.out)
	if err := sup.Start(ctx); err != nil {
		return err
	}
	g.out.Info("")
	g.out.Info("  Attach to console:   screen -r %s", g.cfg.SessionName)
	g.out.Info("  Detach from console: Ctrl+A then D")
	g.out.Info("  Stop server:         bedrockmgr stop")
	g.out.Info("  Server status:       bedrockmgr status")
	g.out.Info("")
	return nil
}

// StopCmd gracefully stops the Bedrock server.
type StopCmd struct {
	Force bool `help:"Skip player warnings and the save barrier"`
}

// Run stops the server.
func (cmd *StopCmd) Run(g *Globals) error {
	ctx := context.Background()
	sup := supervisor.New(g.cfg, g.runner, g.out)
	if cmd.Force {
		return sup.ForceStop(ctx)
	}
	return sup.Stop(ctx)
}

// RestartCmd stops then starts the Bedrock server.
type RestartCmd struct{}

// Run restarts the server.
func (cmd *RestartCmd) Run(g *Globals) error {
	ctx := context.Background()
	sup := supervisor.New(g.cfg, g.runner, g.out)
	if err := sup.Stop(ctx); err != nil {
		return err
	}
	return sup.Start(ctx)
}

// StatusCmd shows server status and resource usage.
type StatusCmd struct{}

// Run shows server status.
func (cmd *StatusCmd) Run(g *Globals) error {
	ctx := context.Background()
	sup := supervisor.New(g.cfg, g.runner, g.out)

	g.out.Step("Bedrock Server Status")
	st := sup.Status(ctx)
	if !st.Running {
		g.out.Info("  Status:  STOPPED")
		return nil
	}
	g.out.Info("  Status:  RUNNING")
	g.out.Info("  Session: %s", st.Session)
	g.out.Info("  PID:     %d", st.Stats.PID)
	if st.Stats.Memory != "" {
		g.out.Info("  Memory:  %s", st.Stats.Memory)
	}
	if st.Stats.CPU != "" {
		g.out.Info("  CPU:     %s", st.Stats.CPU)
	}
	return nil
}

// UpdateCmd updates the server to the latest available version.
type UpdateCmd struct {
	Check bool `help:"Only report whether an update is available"`
}

// Run performs the update workflow, or just the check.
func (cmd *UpdateCmd) Run(g *Globals) error {
	ctx := context.Background()
	w := update.New(g.cfg, g.runner, g.out)
	if cmd.Check {
		w.Check(ctx)
		return nil
	}
	return w.Run(ctx)
}

// BackupCmd snapshots the server directory with rotation.
type BackupCmd struct{}

// Run performs a backup and prunes expired archives.
func (cmd *BackupCmd) Run(g *Globals) error {
	if _, err := install.Snapshot(g.cfg.InstallDir, g.cfg.BackupDir, g.cfg.BackupPrefix, g.out); err != nil {
		return err
	}
	return install.Sweep(g.cfg.BackupDir, g.cfg.BackupPrefix, g.cfg.RetentionDays, g.out)
}

// SendCmd sends a command to the running server console.
type SendCmd struct {
	Command []string `arg:"" help:"Command to send, e.g. 'say hello'"`
}

// Run sends the command.
func (cmd *SendCmd) Run(g *Globals) error {
	ctx := context.Background()
	sup := supervisor.New(g.cfg, g.runner, g.out)
	raw := strings.Join(cmd.Command, " ")
	if err := sup.SendCommand(ctx, raw); err != nil {
		return err
	}
	g.out.Success("Sent: %s", raw)
	return nil
}

// ScheduleCmd installs a cron entry that runs the update workflow.
type ScheduleCmd struct {
	Cron string `help:"Cron schedule expression" default:"0 4 * * *"`
}

// Run installs the crontab entry.
func (cmd *ScheduleCmd) Run(g *Globals) error {
	ctx := context.Background()
	return platform.ScheduleUpdates(ctx, g.runner, cmd.Cron, g.cfg.ManagerLogFile(), g.out)
}

// ConsoleCmd opens the interactive console.
type ConsoleCmd struct{}

// Run starts the console TUI.
func (cmd *ConsoleCmd) Run(g *Globals) error {
	return console.Run(g.cfg, g.runner)
}
