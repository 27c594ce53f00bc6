package supervisor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"bedrockmgr/internal/config"
	"bedrockmgr/internal/platform"
	"bedrockmgr/internal/ui"
)

// Timing bundles the supervisor's waits so tests can shrink them.
type Timing struct {
	// StartSettle is how long to wait after launching before re-probing.
	StartSettle time.Duration
	// StopWarnings are the countdowns announced to players before a
	// graceful stop; each is followed by a real sleep of that length.
	StopWarnings []time.Duration
	// SaveBarrierDelay separates the save hold / query / resume commands.
	SaveBarrierDelay time.Duration
	// StopPollInterval and StopTimeout bound the wait for the process to
	// exit after the stop command.
	StopPollInterval time.Duration
	StopTimeout      time.Duration
	// KillSettle is the wait between signal escalation steps.
	KillSettle time.Duration
}

// DefaultTiming returns the production timing values.
func DefaultTiming() Timing {
	return Timing{
		StartSettle:      5 * time.Second,
		StopWarnings:     []time.Duration{60 * time.Second, 15 * time.Second, 5 * time.Second},
		SaveBarrierDelay: 2 * time.Second,
		StopPollInterval: time.Second,
		StopTimeout:      60 * time.Second,
		KillSettle:       2 * time.Second,
	}
}

// Supervisor manages the server process. It keeps no state of its own:
// liveness is recomputed from the session and process list on every query.
type Supervisor struct {
	cfg     *config.Config
	runner  platform.CommandRunner
	session *Session
	probe   Probe
	timing  Timing
	out     *ui.UI
}

// New creates a Supervisor wired to the real screen session and process list.
func New(cfg *config.Config, runner platform.CommandRunner, output *ui.UI) *Supervisor {
	return &Supervisor{
		cfg:     cfg,
		runner:  runner,
		session: NewSession(runner, cfg.SessionName, cfg.ServiceUser),
		probe:   NewProbe(cfg.Executable, cfg.ServiceUser),
		timing:  DefaultTiming(),
		out:     output,
	}
}

// IsRunning reports whether the server is up: the screen session exists and
// a matching process is alive.
func (s *Supervisor) IsRunning(ctx context.Context) bool {
	if !s.session.Exists(ctx) {
		return false
	}
	proc, _ := s.probe.Find(ctx)
	return proc != nil
}

// Status describes the probed server state.
type Status struct {
	Running bool
	Session string
	Stats   ProcessStats
}

// Status probes the current server state and resource usage.
func (s *Supervisor) Status(ctx context.Context) Status {
	st := Status{Session: s.session.Name()}
	if !s.IsRunning(ctx) {
		return st
	}
	st.Running = true
	if proc, _ := s.probe.Find(ctx); proc != nil {
		st.Stats = proc.Stats(ctx)
	}
	return st
}

// Start launches the server in a detached screen session. Starting an
// already-running server is a no-op that reports the current status.
func (s *Supervisor) Start(ctx context.Context) error {
	if s.IsRunning(ctx) {
		s.out.Warn("Server is already running in session '%s'", s.session.Name())
		return nil
	}

	pf := platform.Preflight{Runner: s.runner}
	if err := pf.CheckInstallDir(s.cfg.InstallDir); err != nil {
		return err
	}
	if err := pf.CheckExecutable(s.cfg.ExecutablePath()); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.cfg.ServerLogFile()), 0o755); err != nil {
		return fmt.Errorf("creating log dir: %w", err)
	}

	s.out.Info("Starting server in screen session '%s'...", s.session.Name())
	launch := fmt.Sprintf("cd %q && LD_LIBRARY_PATH=. ./%s", s.cfg.InstallDir, s.cfg.Executable)
	if err := s.session.Launch(ctx, s.cfg.ServerLogFile(), launch); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}

	if err := sleep(ctx, s.timing.StartSettle); err != nil {
		return err
	}
	if !s.IsRunning(ctx) {
		return fmt.Errorf("server did not come up; check %s", s.cfg.ServerLogFile())
	}
	s.out.Success("Server started")
	return nil
}

// Stop gracefully stops the server: player warnings, a save barrier to get
// a consistent on-disk snapshot, a stop command, then bounded polling with
// signal escalation. Stopping an already-stopped server is a no-op.
func (s *Supervisor) Stop(ctx context.Context) error {
	if !s.IsRunning(ctx) {
		s.out.Info("No running server found.")
		return nil
	}

	for _, d := range s.timing.StopWarnings {
		msg := fmt.Sprintf("say Server shutting down in %d seconds...", int(d.Seconds()))
		if err := s.session.Send(ctx, msg); err != nil {
			return err
		}
		if err := sleep(ctx, d); err != nil {
			return err
		}
	}

	if err := s.saveBarrier(ctx); err != nil {
		return err
	}

	s.out.Info("Sending stop command...")
	if err := s.session.Send(ctx, "stop"); err != nil {
		return err
	}

	return s.awaitExit(ctx)
}

// ForceStop stops the server without warnings or a save barrier: signal the
// process directly, escalate to an unconditional kill, then remove the
// session. A no-op when already stopped.
func (s *Supervisor) ForceStop(ctx context.Context) error {
	if !s.IsRunning(ctx) {
		s.out.Info("No running server found.")
		return nil
	}
	s.out.Warn("Force-stopping server")
	return s.kill(ctx)
}

// SendCommand writes a console command to the running server.
func (s *Supervisor) SendCommand(ctx context.Context, cmd string) error {
	if !s.IsRunning(ctx) {
		return fmt.Errorf("server is not running")
	}
	return s.session.Send(ctx, cmd)
}

// saveBarrier forces the server to flush world state to disk. The command
// sequence is a fixed contract with the Bedrock console.
func (s *Supervisor) saveBarrier(ctx context.Context) error {
	s.out.Info("Flushing world state to disk...")
	for _, cmd := range []string{"save hold", "save query", "save resume"} {
		if err := s.session.Send(ctx, cmd); err != nil {
			return err
		}
		if err := sleep(ctx, s.timing.SaveBarrierDelay); err != nil {
			return err
		}
	}
	return nil
}

// awaitExit polls until the server is down or the stop timeout passes,
// then escalates.
func (s *Supervisor) awaitExit(ctx context.Context) error {
	deadline := time.Now().Add(s.timing.StopTimeout)
	for time.Now().Before(deadline) {
		if !s.IsRunning(ctx) {
			s.out.Success("Server stopped")
			return nil
		}
		if err := sleep(ctx, s.timing.StopPollInterval); err != nil {
			return err
		}
	}

	s.out.Warn("Server did not stop within %s, escalating", s.timing.StopTimeout)
	return s.kill(ctx)
}

// kill terminates the process (graceful signal first, then unconditional),
// removes the session, and verifies the result.
func (s *Supervisor) kill(ctx context.Context) error {
	if proc, _ := s.probe.Find(ctx); proc != nil {
		if err := proc.Terminate(); err != nil {
			s.out.Debug("terminate pid %d: %v", proc.Pid(), err)
		}
		if err := sleep(ctx, s.timing.KillSettle); err != nil {
			return err
		}
		if again, _ := s.probe.Find(ctx); again != nil {
			if err := again.Kill(); err != nil {
				s.out.Debug("kill pid %d: %v", again.Pid(), err)
			}
			if err := sleep(ctx, s.timing.KillSettle); err != nil {
				return err
			}
		}
	}

	// The session may linger after the process dies; remove it regardless.
	if err := s.session.Quit(ctx); err != nil {
		s.out.Debug("session quit: %v", err)
	}

	if proc, _ := s.probe.Find(ctx); proc != nil {
		return fmt.Errorf("server process %d survived kill", proc.Pid())
	}
	s.out.Success("Server stopped")
	return nil
}

// sleep pauses for d, respecting context cancellation.
func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
