package metrics

import (
	"errors"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// BSDSampler covers Darwin and the BSDs, where there is no procfs to read:
// primaries shell out to the system utility set, with gopsutil syscall
// strategies behind them.
type BSDSampler struct {
	chainSampler

	window time.Duration
}

// NewBSDSampler builds the utility-first backend.
func NewBSDSampler() *BSDSampler {
	s := &BSDSampler{window: cpuSampleWindow}
	s.platform = "bsd"
	s.chains = map[Kind][]strategy{
		CPU: {
			{name: "top", read: s.cpuFromTop},
			{name: "gopsutil", read: s.cpuFromGopsutil},
		},
		Memory: {
			{name: "vm_stat", read: memFromVMStat},
			{name: "gopsutil", read: memFromGopsutil},
		},
		Disk: {
			{name: "df", read: diskFromDF},
			{name: "statfs", read: diskFromStatfs},
		},
	}
	return s
}

func (s *BSDSampler) cpuFromGopsutil() (int, error) { return cpuPercentOver(s.window) }

// bsdTopIdleRE matches the idle percentage on a BSD top summary line, e.g.
// "81.37% idle".
var bsdTopIdleRE = regexp.MustCompile(`([0-9][0-9.]*)%\s*idle`)

// topCPUSpec returns the batch-mode top invocation and the summary-line
// marker for this OS. Two iterations are requested everywhere: the first
// reports since-boot averages and is discarded by the parser.
func topCPUSpec() (args []string, marker string) {
	if runtime.GOOS == "darwin" {
		return []string{"-l", "2", "-n", "0", "-s", "1"}, "CPU usage"
	}
	return []string{"-b", "-d", "2", "-s", "1"}, "CPU:"
}

func (s *BSDSampler) cpuFromTop() (int, error) {
	args, marker := topCPUSpec()
	out, err := runCommand("top", args...)
	if err != nil {
		return 0, err
	}
	return parseTopIdle(out, marker, bsdTopIdleRE)
}

func memFromVMStat() (int, error) {
	out, err := runCommand("vm_stat")
	if err != nil {
		return 0, err
	}
	return parseVMStat(out)
}

// vmPageSizeRE pulls the page size from the vm_stat banner line.
var vmPageSizeRE = regexp.MustCompile(`page size of (\d+) bytes`)

// parseVMStat computes used-memory percentage from Mach page accounting.
// Active, inactive and wired pages count as used; free pages as available.
// Counts become byte totals via the reported page size.
func parseVMStat(out string) (int, error) {
	pageSize := uint64(4096)
	if m := vmPageSizeRE.FindStringSubmatch(out); m != nil {
		if v, err := strconv.ParseUint(m[1], 10, 64); err == nil && v > 0 {
			pageSize = v
		}
	}
	counts := make(map[string]uint64)
	for _, line := range strings.Split(out, "\n") {
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		raw := strings.TrimSuffix(strings.TrimSpace(v), ".")
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			continue
		}
		counts[strings.TrimSpace(k)] = n
	}
	free, okFree := counts["Pages free"]
	active, okActive := counts["Pages active"]
	inactive, okInactive := counts["Pages inactive"]
	wired, okWired := counts["Pages wired down"]
	if !okFree || !okActive || !okInactive || !okWired {
		return 0, errors.New("vm_stat: missing page counts")
	}
	used := (active + inactive + wired) * pageSize
	total := used + free*pageSize
	if total == 0 {
		return 0, errors.New("vm_stat: zero page total")
	}
	return int(used * 100 / total), nil
}
