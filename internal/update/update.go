// Package update orchestrates the check-download-install-restart workflow.
package update

import (
	"context"
	"fmt"

	"bedrockmgr/internal/config"
	"bedrockmgr/internal/fetch"
	"bedrockmgr/internal/install"
	"bedrockmgr/internal/notify"
	"bedrockmgr/internal/platform"
	"bedrockmgr/internal/supervisor"
	"bedrockmgr/internal/ui"
	"bedrockmgr/internal/version"
)

// ServerController is the slice of the supervisor the workflow needs.
type ServerController interface {
	IsRunning(ctx context.Context) bool
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Workflow runs the full update cycle. Every run is independent: nothing is
// cached between invocations.
type Workflow struct {
	Cfg      *config.Config
	Runner   platform.CommandRunner
	Resolver *version.Resolver
	Fetcher  *fetch.Fetcher
	Server   ServerController
	Notify   notify.Notifier
	Out      *ui.UI
}

// New wires a Workflow from the config using live endpoints and the real
// supervisor.
func New(cfg *config.Config, runner platform.CommandRunner, output *ui.UI) *Workflow {
	return &Workflow{
		Cfg:      cfg,
		Runner:   runner,
		Resolver: version.NewResolver(cfg, output),
		Fetcher:  fetch.NewFetcher(cfg.UserAgent, output),
		Server:   supervisor.New(cfg, runner, output),
		Notify:   notify.New(cfg.Notify, output),
		Out:      output,
	}
}

// Check resolves both versions and reports the decision without changing
// anything on disk.
func (w *Workflow) Check(ctx context.Context) version.Decision {
	installed := w.Resolver.Installed()
	latest, _ := w.Resolver.Latest(ctx)

	w.Out.Info("Installed version: %s", installed)
	w.Out.Info("Latest version:    %s", latest)

	d := version.Decide(installed, latest)
	switch d.Outcome {
	case version.OutcomeUpdate:
		w.Out.Info("%s", d.Reason)
	case version.OutcomeUpToDate:
		w.Out.Success("%s", d.Reason)
	case version.OutcomeInstalledNewer:
		w.Out.Warn("%s", d.Reason)
	case version.OutcomeNoTarget:
		w.Out.Warn("%s", d.Reason)
	}
	return d
}

// Run performs the update workflow end to end: decide, download, stage,
// stop, install, restart. Failures before the install phase leave the
// current install untouched.
func (w *Workflow) Run(ctx context.Context) error {
	pf := platform.Preflight{Runner: w.Runner}
	if err := pf.CheckTools("screen"); err != nil {
		return err
	}

	w.Out.Step("Checking versions")
	installed := w.Resolver.Installed()
	latest, downloadURL := w.Resolver.Latest(ctx)
	w.Out.Info("Installed version: %s", installed)
	w.Out.Info("Latest version:    %s", latest)

	d := version.Decide(installed, latest)
	if !d.UpdateNeeded() {
		switch d.Outcome {
		case version.OutcomeUpToDate:
			w.Out.Success("%s", d.Reason)
			w.Notify.NoUpdateNeeded(ctx, latest.String())
			return nil
		case version.OutcomeInstalledNewer:
			w.Out.Warn("%s", d.Reason)
			return nil
		default:
			return fmt.Errorf("%s", d.Reason)
		}
	}
	w.Out.Info("%s", d.Reason)
	w.Notify.UpdateStarted(ctx, installed.String(), latest.String())

	if err := w.execute(ctx, downloadURL); err != nil {
		return err
	}

	w.Notify.UpdateSucceeded(ctx, latest.String())
	w.Out.Success("Update to %s complete", latest)
	return nil
}

// execute runs the destructive phases. Each phase failure is reported with
// its phase name so notifications say where the run died.
func (w *Workflow) execute(ctx context.Context, downloadURL string) error {
	w.Out.Step("Downloading server package")
	if !w.Fetcher.Validate(ctx, downloadURL) {
		return w.fail(ctx, "validate", fmt.Errorf("download URL not reachable: %s", downloadURL))
	}

	stage, err := fetch.NewStage(w.Cfg.StagingRoot())
	if err != nil {
		return w.fail(ctx, "stage", err)
	}
	defer stage.Cleanup()

	archive, err := w.Fetcher.Download(ctx, downloadURL, stage.Dir())
	if err != nil {
		return w.fail(ctx, "download", err)
	}

	if err := fetch.Extract(archive, stage.PackageDir()); err != nil {
		return w.fail(ctx, "extract", err)
	}

	wasRunning := w.Server.IsRunning(ctx)
	if wasRunning {
		w.Out.Step("Stopping server")
		if err := w.Server.Stop(ctx); err != nil {
			return w.fail(ctx, "stop", err)
		}
	}

	w.Out.Step("Installing")
	tx := &install.Transaction{Cfg: w.Cfg, Runner: w.Runner, Output: w.Out}
	if _, err := tx.Run(ctx, stage.PackageDir(), downloadURL); err != nil {
		return w.fail(ctx, "install", err)
	}

	if err := install.Sweep(w.Cfg.BackupDir, w.Cfg.BackupPrefix, w.Cfg.RetentionDays, w.Out); err != nil {
		w.Out.Warn("backup sweep: %v", err)
	}

	if wasRunning {
		w.Out.Step("Restarting server")
		if err := w.Server.Start(ctx); err != nil {
			return w.fail(ctx, "restart", err)
		}
	}
	return nil
}

// fail reports a phase failure to the notifier and returns the wrapped error.
func (w *Workflow) fail(ctx context.Context, phase string, err error) error {
	w.Notify.UpdateFailed(ctx, phase, err)
	return fmt.Errorf("%s: %w", phase, err)
}
