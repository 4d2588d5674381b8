package metrics

import (
	"errors"
	"fmt"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// LinuxSampler reads the kernel's procfs accounting first and shells out to
// the classic utility set only when procfs is absent or malformed.
type LinuxSampler struct {
	chainSampler

	statPath    string
	meminfoPath string
	window      time.Duration
}

// NewLinuxSampler builds the procfs-first backend.
func NewLinuxSampler() *LinuxSampler {
	s := &LinuxSampler{
		statPath:    "/proc/stat",
		meminfoPath: "/proc/meminfo",
		window:      cpuSampleWindow,
	}
	s.platform = "linux"
	s.chains = map[Kind][]strategy{
		CPU: {
			{name: "proc_stat", read: s.cpuFromProcStat},
			{name: "top", read: s.cpuFromTop},
		},
		Memory: {
			{name: "meminfo", read: s.memFromMeminfo},
			{name: "free", read: s.memFromFree},
		},
		Disk: {
			{name: "df", read: diskFromDF},
			{name: "statfs", read: diskFromStatfs},
		},
	}
	return s
}

// ── CPU ──

// cpuCounters holds the aggregate jiffy counters from the kernel's "cpu"
// line. Cumulative values carry no instantaneous meaning; usage is the
// difference between two snapshots.
type cpuCounters struct {
	idle  uint64
	total uint64
}

func (s *LinuxSampler) cpuFromProcStat() (int, error) {
	first, err := readCPUCounters(s.statPath)
	if err != nil {
		return 0, err
	}
	time.Sleep(s.window)
	second, err := readCPUCounters(s.statPath)
	if err != nil {
		return 0, err
	}
	return cpuUsageBetween(first, second), nil
}

func readCPUCounters(path string) (cpuCounters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cpuCounters{}, fmt.Errorf("read %s: %w", path, err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "cpu ") {
			return parseCPUCounters(line)
		}
	}
	return cpuCounters{}, fmt.Errorf("%s: no aggregate cpu line", path)
}

// parseCPUCounters sums every column of the aggregate cpu line. Column four
// is the idle counter; newer kernels append columns, so the total takes
// whatever is present.
func parseCPUCounters(line string) (cpuCounters, error) {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return cpuCounters{}, fmt.Errorf("short cpu line %q", line)
	}
	var c cpuCounters
	for i, f := range fields[1:] {
		v, err := strconv.ParseUint(f, 10, 64)
		if err != nil {
			return cpuCounters{}, fmt.Errorf("cpu counter %q: %w", f, err)
		}
		c.total += v
		if i == 3 {
			c.idle = v
		}
	}
	return c, nil
}

// cpuUsageBetween derives busy percentage from two counter snapshots. A
// non-advancing total (counter reset, zero-length window) reads as 0.
func cpuUsageBetween(first, second cpuCounters) int {
	if second.total <= first.total {
		return 0
	}
	total := int64(second.total - first.total)
	idle := int64(second.idle) - int64(first.idle)
	return int((total - idle) * 100 / total)
}

func (s *LinuxSampler) cpuFromTop() (int, error) {
	out, err := runCommand("top", "-b", "-n", "2", "-d", "0.2")
	if err != nil {
		return 0, err
	}
	return parseTopIdle(out, "Cpu(s)", linuxTopIdleRE)
}

// linuxTopIdleRE matches the idle percentage on a "%Cpu(s)" summary line,
// covering both the "91.2 id" and older "91.2%id" layouts.
var linuxTopIdleRE = regexp.MustCompile(`([0-9][0-9.]*)[ %]*id`)

// parseTopIdle reads the idle figure from batch-mode top output and returns
// busy time as its complement. Only the last summary line counts: the first
// iteration reports since-boot averages and is discarded. Matching is
// confined to marker lines so process rows can never masquerade as the
// summary.
func parseTopIdle(out, marker string, re *regexp.Regexp) (int, error) {
	var line string
	for _, l := range strings.Split(out, "\n") {
		if strings.Contains(l, marker) {
			line = l
		}
	}
	if line == "" {
		return 0, errors.New("top: no cpu summary line")
	}
	m := re.FindStringSubmatch(line)
	if m == nil {
		return 0, fmt.Errorf("top summary %q: no idle figure", line)
	}
	idle, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("top idle %q: %w", m[1], err)
	}
	return int(math.Round(100 - idle)), nil
}

// ── Memory ──

func (s *LinuxSampler) memFromMeminfo() (int, error) {
	data, err := os.ReadFile(s.meminfoPath)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", s.meminfoPath, err)
	}
	return parseMeminfo(string(data))
}

// parseMeminfo computes used-memory percentage from MemTotal and
// MemAvailable. Kernels too old to export MemAvailable fall through to the
// free-based strategy instead of guessing from buffer counts here.
func parseMeminfo(data string) (int, error) {
	var total, avail uint64
	var haveTotal, haveAvail bool
	for _, line := range strings.Split(data, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		v, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			continue
		}
		switch fields[0] {
		case "MemTotal:":
			total, haveTotal = v, true
		case "MemAvailable:":
			avail, haveAvail = v, true
		}
	}
	if !haveTotal || !haveAvail || total == 0 {
		return 0, errors.New("meminfo: missing MemTotal/MemAvailable")
	}
	return int((total - avail) * 100 / total), nil
}

func (s *LinuxSampler) memFromFree() (int, error) {
	out, err := runCommand("free", "-m")
	if err != nil {
		return 0, err
	}
	return parseFreeMem(out)
}

// parseFreeMem reads the used/total ratio from the "Mem:" row of free
// output.
func parseFreeMem(out string) (int, error) {
	for _, line := range strings.Split(out, "\n") {
		if !strings.HasPrefix(line, "Mem:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return 0, fmt.Errorf("short Mem row %q", line)
		}
		total, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("free total %q: %w", fields[1], err)
		}
		used, err := strconv.ParseUint(fields[2], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("free used %q: %w", fields[2], err)
		}
		if total == 0 {
			return 0, errors.New("free: zero total memory")
		}
		return int(used * 100 / total), nil
	}
	return 0, errors.New("free: no Mem row")
}
