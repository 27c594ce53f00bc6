package supervisor

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/process"
)

// ProcessStats holds resource usage info for the server process.
type ProcessStats struct {
	PID    int32
	Memory string
	CPU    string
}

// Process is a handle to the live server process.
type Process interface {
	Pid() int32
	Terminate() error
	Kill() error
	Stats(ctx context.Context) ProcessStats
}

// Probe locates the running server process. Find returns (nil, nil) when no
// matching process exists; probe failures are treated the same way, never
// as "unknown".
type Probe interface {
	Find(ctx context.Context) (Process, error)
}

// osProbe matches processes by executable name and, when set, by the
// account they run under.
type osProbe struct {
	executable string
	user       string
}

// NewProbe creates a Probe for the named executable owned by user
// (empty user matches any account).
func NewProbe(executable, user string) Probe {
	return &osProbe{executable: executable, user: user}
}

func (p *osProbe) Find(ctx context.Context) (Process, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, nil
	}
	for _, pr := range procs {
		name, err := pr.NameWithContext(ctx)
		if err != nil || name != p.executable {
			continue
		}
		if p.user != "" {
			owner, err := pr.UsernameWithContext(ctx)
			if err != nil || owner != p.user {
				continue
			}
		}
		return &osProcess{p: pr}, nil
	}
	return nil, nil
}

type osProcess struct {
	p *process.Process
}

func (o *osProcess) Pid() int32 { return o.p.Pid }

func (o *osProcess) Terminate() error { return o.p.Terminate() }

func (o *osProcess) Kill() error { return o.p.Kill() }

func (o *osProcess) Stats(ctx context.Context) ProcessStats {
	stats := ProcessStats{PID: o.p.Pid}
	if mem, err := o.p.MemoryInfoWithContext(ctx); err == nil && mem != nil {
		stats.Memory = fmt.Sprintf("%d MB", mem.RSS/(1024*1024))
	}
	if cpu, err := o.p.CPUPercentWithContext(ctx); err == nil {
		stats.CPU = fmt.Sprintf("%.1f%%", cpu)
	}
	return stats
}
