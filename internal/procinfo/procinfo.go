// Package procinfo formats resource diagnostics for the watched child
// process, backing the interactive stack command.
package procinfo

import (
	"fmt"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// Describe returns a multi-line human-readable summary of the process
// and its direct children.
func Describe(pid int32) (string, error) {
	p, err := process.NewProcess(pid)
	if err != nil {
		return "", fmt.Errorf("process %d not found: %w", pid, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "child pid %d", pid)
	if name, err := p.Name(); err == nil {
		fmt.Fprintf(&b, " (%s)", name)
	}
	b.WriteByte('\n')

	if cmdline, err := p.Cmdline(); err == nil && cmdline != "" {
		fmt.Fprintf(&b, "  cmdline: %s\n", cmdline)
	}
	if status, err := p.Status(); err == nil && len(status) > 0 {
		fmt.Fprintf(&b, "  status: %s\n", status[0])
	}
	if cpu, err := p.CPUPercent(); err == nil {
		fmt.Fprintf(&b, "  cpu: %.1f%%\n", cpu)
	}
	if mem, err := p.MemoryInfo(); err == nil {
		fmt.Fprintf(&b, "  rss: %.1f MB\n", float64(mem.RSS)/1024/1024)
	}
	if threads, err := p.NumThreads(); err == nil {
		fmt.Fprintf(&b, "  threads: %d\n", threads)
	}
	if created, err := p.CreateTime(); err == nil {
		started := time.Unix(0, created*int64(time.Millisecond))
		fmt.Fprintf(&b, "  started: %s\n", started.Format(time.RFC3339))
	}

	if children, err := p.Children(); err == nil && len(children) > 0 {
		fmt.Fprintf(&b, "  children:\n")
		for _, child := range children {
			name, _ := child.Name()
			fmt.Fprintf(&b, "    %d %s\n", child.Pid, name)
		}
	}

	return b.String(), nil
}
