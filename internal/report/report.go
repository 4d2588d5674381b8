// Package report writes point-in-time system reports as plain-text files
// under the reports directory.
package report

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/larvik/hostmon/internal/alert"
	"github.com/larvik/hostmon/internal/models"
)

// unavailable replaces any section or field whose probe failed; a report is
// always produced in full shape even when parts of the system refuse to
// answer.
const unavailable = "unavailable"

// alertTail is how many recent alert lines a report includes.
const alertTail = 20

// processRows is how many rows each process table shows, not counting the
// header.
const processRows = 10

// diskLines caps the filesystem table; hosts with long mount lists keep
// reports readable.
const diskLines = 10

// Runner executes a system utility and returns its standard output. Tests
// substitute canned output here.
type Runner func(name string, args ...string) (string, error)

func runCommand(name string, args ...string) (string, error) {
	out, err := exec.Command(name, args...).Output()
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return string(out), nil
}

// Generator assembles and writes reports.
type Generator struct {
	Dir      string
	AlertLog *alert.Log

	run      Runner
	now      func() time.Time
	hostInfo func() models.HostInfo
	goos     string
}

// New returns a generator writing into dir and pulling recent alerts from
// alog.
func New(dir string, alog *alert.Log) *Generator {
	return &Generator{
		Dir:      dir,
		AlertLog: alog,
		run:      runCommand,
		now:      time.Now,
		hostInfo: ProbeHost,
		goos:     runtime.GOOS,
	}
}

// ProbeHost gathers host identity and load best-effort; fields stay zero
// where a probe fails.
func ProbeHost() models.HostInfo {
	var hi models.HostInfo
	if h, err := os.Hostname(); err == nil {
		hi.Hostname = h
	}
	hi.OS = runtime.GOOS
	if info, err := host.Info(); err == nil {
		if info.Platform != "" {
			hi.Platform = strings.TrimSpace(info.Platform + " " + info.PlatformVersion)
		}
		hi.KernelVersion = info.KernelVersion
		hi.UptimeSeconds = info.Uptime
		hi.Procs = info.Procs
	}
	if avg, err := load.Avg(); err == nil {
		hi.Load1, hi.Load5, hi.Load15 = avg.Load1, avg.Load5, avg.Load15
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		hi.TotalMemBytes = vm.Total
	}
	return hi
}

// Generate writes one report for the given snapshot and returns its path.
// Sub-queries that fail leave a placeholder; only the final file write can
// fail generation.
func (g *Generator) Generate(snap models.Snapshot) (string, error) {
	ts := g.now()
	path := filepath.Join(g.Dir, fmt.Sprintf("report_%s.txt", ts.Format("20060102_150405")))

	var b strings.Builder
	fmt.Fprintf(&b, "==================================================\n")
	fmt.Fprintf(&b, " SYSTEM RESOURCE REPORT\n")
	fmt.Fprintf(&b, " Generated: %s\n", ts.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "==================================================\n")

	g.writeHost(&b)
	g.writeReadings(&b, snap)
	g.writeProcesses(&b)
	g.writeDisk(&b)
	g.writeAlerts(&b)
	b.WriteString("\nEnd of report\n")

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

func (g *Generator) writeHost(b *strings.Builder) {
	hi := g.hostInfo()
	section(b, "Host")
	fmt.Fprintf(b, "Hostname:  %s\n", orUnavailable(hi.Hostname))
	osLine := orUnavailable(hi.Platform)
	if hi.OS != "" && hi.Platform != "" {
		osLine = fmt.Sprintf("%s (%s)", hi.Platform, hi.OS)
	}
	fmt.Fprintf(b, "OS:        %s\n", osLine)
	fmt.Fprintf(b, "Kernel:    %s\n", orUnavailable(hi.KernelVersion))
	if hi.UptimeSeconds == 0 {
		fmt.Fprintf(b, "Uptime:    %s\n", unavailable)
	} else {
		fmt.Fprintf(b, "Uptime:    %s\n", formatUptime(hi.Uptime()))
	}
	if hi.Procs == 0 {
		fmt.Fprintf(b, "Processes: %s\n", unavailable)
	} else {
		fmt.Fprintf(b, "Processes: %d\n", hi.Procs)
	}
	fmt.Fprintf(b, "Load:      %.2f %.2f %.2f\n", hi.Load1, hi.Load5, hi.Load15)
	if hi.TotalMemBytes == 0 {
		fmt.Fprintf(b, "Memory:    %s\n", unavailable)
	} else {
		fmt.Fprintf(b, "Memory:    %s total\n", humanize.IBytes(hi.TotalMemBytes))
	}
}

func (g *Generator) writeReadings(b *strings.Builder, snap models.Snapshot) {
	section(b, "Resource snapshot")
	if len(snap.Readings) == 0 {
		fmt.Fprintf(b, "%s\n", unavailable)
		return
	}
	fmt.Fprintf(b, "Sampled: %s (backend: %s)\n", snap.TakenAt.Format("2006-01-02 15:04:05"), snap.Platform)
	for _, r := range snap.Readings {
		fmt.Fprintf(b, "%-8s %3d%%  (threshold %d%%)  %s\n", r.Resource, r.Value, r.Threshold, r.Level)
	}
	fmt.Fprintf(b, "Overall: %s\n", snap.Worst())
}

func (g *Generator) writeProcesses(b *strings.Builder) {
	section(b, "Top processes by CPU")
	b.WriteString(g.processTable("cpu"))
	section(b, "Top processes by memory")
	b.WriteString(g.processTable("mem"))
}

// processTable returns a trimmed ps listing sorted by the given column, or
// a placeholder when ps itself is unusable.
func (g *Generator) processTable(by string) string {
	out, err := g.run("ps", psArgs(by, g.goos)...)
	if err != nil {
		// Platform ps may lack sort flags; an unsorted table still beats
		// nothing.
		out, err = g.run("ps", "aux")
	}
	if err != nil {
		return unavailable + "\n"
	}
	return headLines(out, processRows+1)
}

// psArgs picks the sorted invocation per OS: GNU ps sorts via --sort, BSD
// ps via -r/-m.
func psArgs(by, goos string) []string {
	switch goos {
	case "linux":
		if by == "mem" {
			return []string{"aux", "--sort=-%mem"}
		}
		return []string{"aux", "--sort=-%cpu"}
	case "darwin", "freebsd", "openbsd", "netbsd", "dragonfly":
		if by == "mem" {
			return []string{"aux", "-m"}
		}
		return []string{"aux", "-r"}
	default:
		return []string{"aux"}
	}
}

func (g *Generator) writeDisk(b *strings.Builder) {
	section(b, "Filesystems")
	out, err := g.run("df", "-h")
	if err != nil {
		fmt.Fprintf(b, "%s\n", unavailable)
		return
	}
	b.WriteString(headLines(out, diskLines))
}

func (g *Generator) writeAlerts(b *strings.Builder) {
	section(b, "Recent alerts")
	if g.AlertLog == nil {
		fmt.Fprintf(b, "%s\n", unavailable)
		return
	}
	lines, err := g.AlertLog.Tail(alertTail)
	if err != nil {
		fmt.Fprintf(b, "%s\n", unavailable)
		return
	}
	if len(lines) == 0 {
		b.WriteString("none\n")
		return
	}
	for _, line := range lines {
		b.WriteString(line + "\n")
	}
}

func section(b *strings.Builder, title string) {
	n := 46 - len(title)
	if n < 0 {
		n = 0
	}
	fmt.Fprintf(b, "\n-- %s %s\n", title, strings.Repeat("-", n))
}

func orUnavailable(s string) string {
	if strings.TrimSpace(s) == "" {
		return unavailable
	}
	return s
}

// headLines keeps the first n lines of a command's output.
func headLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n") + "\n"
}

// formatUptime renders whole days, hours and minutes.
func formatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	mins := int(d.Minutes()) % 60
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, mins)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, mins)
	default:
		return fmt.Sprintf("%dm", mins)
	}
}
