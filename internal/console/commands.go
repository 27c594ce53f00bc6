package console

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"bedrockmgr/internal/config"
	"bedrockmgr/internal/install"
	"bedrockmgr/internal/platform"
	"bedrockmgr/internal/supervisor"
	"bedrockmgr/internal/ui"
	"bedrockmgr/internal/update"
)

// sentinel value returned by dispatch to signal a viewport clear.
const clearSentinel = "\x00CLEAR"

// dispatch parses input and runs the corresponding command, capturing output
// into a string. Returns the output text and whether the console should quit.
func dispatch(ctx context.Context, input string, cfg *config.Config, runner platform.CommandRunner) (string, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", false
	}

	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	var buf bytes.Buffer
	output := ui.NewWriter(&buf, false)
	sup := supervisor.New(cfg, runner, output)

	switch cmd {
	case "start":
		if err := sup.Start(ctx); err != nil {
			output.Warn("Starting server: %s", err)
		}

	case "stop":
		if err := sup.Stop(ctx); err != nil {
			output.Warn("%s", err)
		}

	case "status":
		st := sup.Status(ctx)
		if !st.Running {
			output.Info("Server is stopped (session %s)", st.Session)
		} else {
			output.Success("Server is running (session %s, pid %d)", st.Session, st.Stats.PID)
			if st.Stats.Memory != "" {
				output.Info("Memory: %s  CPU: %s", st.Stats.Memory, st.Stats.CPU)
			}
		}

	case "check":
		update.New(cfg, runner, output).Check(ctx)

	case "update":
		if err := update.New(cfg, runner, output).Run(ctx); err != nil {
			output.Warn("Update failed: %s", err)
		}

	case "backup":
		if _, err := install.Snapshot(cfg.InstallDir, cfg.BackupDir, cfg.BackupPrefix, output); err != nil {
			output.Warn("Backup failed: %s", err)
		} else if err := install.Sweep(cfg.BackupDir, cfg.BackupPrefix, cfg.RetentionDays, output); err != nil {
			output.Warn("Backup sweep: %s", err)
		}

	case "say":
		if len(args) == 0 {
			output.Warn("Usage: say <message>")
		} else {
			msg := strings.Join(args, " ")
			if err := sup.SendCommand(ctx, "say "+msg); err != nil {
				output.Warn("%s", err)
			} else {
				output.Success("Sent: say %s", msg)
			}
		}

	case "cmd":
		if len(args) == 0 {
			output.Warn("Usage: cmd <raw server command>")
		} else {
			raw := strings.Join(args, " ")
			if err := sup.SendCommand(ctx, raw); err != nil {
				output.Warn("%s", err)
			} else {
				output.Success("Sent: %s", raw)
			}
		}

	case "help":
		return helpText(), false

	case "clear":
		return clearSentinel, false

	case "exit", "quit":
		return "", true

	default:
		return fmt.Sprintf("Unknown command: %s (type 'help' for available commands)", cmd), false
	}

	return strings.TrimRight(buf.String(), "\n"), false
}

func helpText() string {
	return `Available commands:
  start           Start the Bedrock server
  stop            Gracefully stop the server
  status          Show server status and resource usage
  check           Check whether a newer server version is available
  update          Download and install the latest server version
  backup          Snapshot the server directory
  say <msg>       Broadcast a message to players
  cmd <raw>       Send a raw command to the server console
  clear           Clear the console
  help            Show this help
  exit / quit     Exit the console`
}
