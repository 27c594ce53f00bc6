package platform

import (
	"fmt"
	"os"
)

// Preflight verifies the environment before an operation that needs it.
// Failures here are fatal and never retried.
type Preflight struct {
	Runner CommandRunner
}

// CheckTools verifies that every named external tool is on PATH.
func (p Preflight) CheckTools(names ...string) error {
	for _, name := range names {
		if !p.Runner.CommandExists(name) {
			return fmt.Errorf("required tool %q not found on PATH", name)
		}
	}
	return nil
}

// CheckInstallDir verifies the install directory exists and is a directory.
func (p Preflight) CheckInstallDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("install directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("install directory %s is not a directory", dir)
	}
	return nil
}

// CheckExecutable verifies the server binary exists and is executable.
func (p Preflight) CheckExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("server executable %s: %w", path, err)
	}
	if info.IsDir() || info.Mode()&0o111 == 0 {
		return fmt.Errorf("server executable %s is not executable", path)
	}
	return nil
}
