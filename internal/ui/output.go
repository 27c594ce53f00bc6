package ui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/term"
)

// Color codes for terminal output.
const (
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
	colorCyan   = "\033[0;36m"
	colorGray   = "\033[0;90m"
	colorBold   = "\033[1m"
	colorReset  = "\033[0m"
)

// UI provides colored leveled output for user-facing messages. Every line is
// also appended, uncolored and timestamped, to an optional log file.
type UI struct {
	color   bool
	verbose bool
	w       io.Writer
	errW    io.Writer

	mu   sync.Mutex
	file io.Writer
}

var (
	defaultUI   *UI
	defaultOnce sync.Once
)

// Default returns a shared UI instance with auto-detected color support.
func Default() *UI {
	defaultOnce.Do(func() {
		defaultUI = New(shouldColor())
	})
	return defaultUI
}

// New creates a UI writing to stdout/stderr with explicit color control.
func New(color bool) *UI {
	return &UI{color: color, w: os.Stdout, errW: os.Stderr}
}

// NewWriter creates a UI writing all levels to w, for capturing output.
func NewWriter(w io.Writer, color bool) *UI {
	return &UI{color: color, w: w, errW: w}
}

// SetVerbose enables Debug output.
func (u *UI) SetVerbose(v bool) {
	u.verbose = v
}

// AttachLogFile opens path for appending and mirrors every message to it.
// The parent directory is created if needed.
func (u *UI) AttachLogFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	u.mu.Lock()
	u.file = f
	u.mu.Unlock()
	return nil
}

// AttachLogWriter mirrors every message to w. Used by tests.
func (u *UI) AttachLogWriter(w io.Writer) {
	u.mu.Lock()
	u.file = w
	u.mu.Unlock()
}

func shouldColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func (u *UI) colorize(color, s string) string {
	if !u.color {
		return s
	}
	return color + s + colorReset
}

func (u *UI) logToFile(level, msg string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.file == nil {
		return
	}
	fmt.Fprintf(u.file, "%s %s %s\n", time.Now().Format("2006-01-02 15:04:05"), level, msg)
}

// Debug prints a debug message when verbose mode is on. It is always
// written to the log file.
func (u *UI) Debug(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	u.logToFile("[DEBUG]", msg)
	if !u.verbose {
		return
	}
	fmt.Fprintln(u.w, u.colorize(colorGray, "[DEBUG]")+" "+msg)
}

// Info prints an informational message.
func (u *UI) Info(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	u.logToFile("[INFO]", msg)
	fmt.Fprintln(u.w, u.colorize(colorBlue, "[INFO]")+" "+msg)
}

// Success prints a success message.
func (u *UI) Success(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	u.logToFile("[OK]", msg)
	fmt.Fprintln(u.w, u.colorize(colorGreen, "[OK]")+" "+msg)
}

// Warn prints a warning message.
func (u *UI) Warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	u.logToFile("[WARN]", msg)
	fmt.Fprintln(u.w, u.colorize(colorYellow, "[WARN]")+" "+msg)
}

// Error prints an error message to stderr.
func (u *UI) Error(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	u.logToFile("[ERROR]", msg)
	fmt.Fprintln(u.errW, u.colorize(colorRed, "[ERROR]")+" "+msg)
}

// Step prints a section header.
func (u *UI) Step(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	u.logToFile("[STEP]", msg)
	header := fmt.Sprintf("\n━━━ %s ━━━\n", msg)
	fmt.Fprintln(u.w, u.colorize(colorCyan+colorBold, header))
}

// Bold returns text wrapped in bold codes (if color enabled).
func (u *UI) Bold(s string) string {
	return u.colorize(colorBold, s)
}
