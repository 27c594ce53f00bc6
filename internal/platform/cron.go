package platform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bedrockmgr/internal/ui"
)

// ScheduleUpdates installs a crontab entry that runs `bedrockmgr update`
// on the given schedule. The program never schedules anything itself; the
// update workflow is driven by this external trigger.
func ScheduleUpdates(ctx context.Context, runner CommandRunner, schedule, logFile string, output *ui.UI) error {
	output.Step("Scheduling Automatic Updates")

	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		return fmt.Errorf("creating log dir: %w", err)
	}

	cronLine := fmt.Sprintf("%s /usr/local/bin/bedrockmgr update >> %s 2>&1", schedule, logFile)

	// Check if already installed
	existing, err := runner.RunWithOutput(ctx, "crontab", "-l")
	if err == nil && strings.Contains(string(existing), "bedrockmgr update") {
		output.Warn("Update cron job already exists")
		return nil
	}

	var crontab string
	if err == nil {
		crontab = string(existing)
	}
	crontab += "\n# bedrockmgr scheduled update\n" + cronLine + "\n"

	tmpFile := filepath.Join(os.TempDir(), "bedrockmgr-crontab")
	if err := os.WriteFile(tmpFile, []byte(crontab), 0o600); err != nil {
		return fmt.Errorf("writing temp crontab: %w", err)
	}
	defer os.Remove(tmpFile)

	if err := runner.Run(ctx, "crontab", tmpFile); err != nil {
		return fmt.Errorf("installing crontab: %w", err)
	}

	output.Success("Update check scheduled: %s", schedule)
	return nil
}
