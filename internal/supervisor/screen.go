// Package supervisor starts, stops and probes the Bedrock server process.
package supervisor

import (
	"context"
	"strings"

	"bedrockmgr/internal/platform"
)

// Session wraps the GNU screen session the server runs in. When user is
// set, every operation runs under that account via sudo, since screen
// sockets are per-user.
type Session struct {
	runner platform.CommandRunner
	name   string
	user   string
}

// NewSession creates a Session for the named screen session.
func NewSession(runner platform.CommandRunner, name, user string) *Session {
	return &Session{runner: runner, name: name, user: user}
}

// Exists checks if the named screen session is listed. Probe failure is
// reported as "no session", never as unknown.
func (s *Session) Exists(ctx context.Context) bool {
	var out []byte
	var err error
	if s.user == "" {
		out, err = s.runner.RunWithOutput(ctx, "screen", "-list")
	} else {
		out, err = s.runner.RunWithOutput(ctx, "sudo", "-u", s.user, "screen", "-list")
	}
	if err != nil {
		return false
	}
	return strings.Contains(string(out), "."+s.name)
}

// Send writes a literal command line plus newline into the session's
// control channel.
func (s *Session) Send(ctx context.Context, cmd string) error {
	return s.runner.RunAs(ctx, s.user, "screen", "-S", s.name, "-p", "0", "-X", "stuff", cmd+"\r")
}

// Launch starts command in a new detached session, capturing console
// output to logFile.
func (s *Session) Launch(ctx context.Context, logFile, command string) error {
	return s.runner.RunAs(ctx, s.user, "screen",
		"-dmS", s.name, "-L", "-Logfile", logFile, "bash", "-c", command)
}

// Quit kills the session itself. The server process may outlive it; callers
// signal the process separately.
func (s *Session) Quit(ctx context.Context) error {
	return s.runner.RunAs(ctx, s.user, "screen", "-S", s.name, "-X", "quit")
}

// Name returns the session name.
func (s *Session) Name() string { return s.name }
