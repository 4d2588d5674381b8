package metrics

import (
	"errors"
	"math"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
)

// GenericSampler is the portable last resort: every reading comes from
// gopsutil's native bindings, with no procfs or utility-set assumptions.
type GenericSampler struct {
	chainSampler

	window time.Duration
}

// NewGenericSampler builds the gopsutil-only backend.
func NewGenericSampler() *GenericSampler {
	s := &GenericSampler{window: cpuSampleWindow}
	s.platform = "generic"
	s.chains = map[Kind][]strategy{
		CPU:    {{name: "gopsutil", read: s.cpuStrategy}},
		Memory: {{name: "gopsutil", read: memFromGopsutil}},
		Disk:   {{name: "statfs", read: diskFromStatfs}},
	}
	return s
}

func (s *GenericSampler) cpuStrategy() (int, error) { return cpuPercentOver(s.window) }

// cpuPercentOver measures aggregate CPU busy time across the given window.
func cpuPercentOver(window time.Duration) (int, error) {
	pcts, err := cpu.Percent(window, false)
	if err != nil {
		return 0, err
	}
	if len(pcts) == 0 {
		return 0, errors.New("cpu: empty percent result")
	}
	return int(math.Round(pcts[0])), nil
}

func memFromGopsutil() (int, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return int(math.Round(vm.UsedPercent)), nil
}

// diskFromStatfs reads root-filesystem usage straight from the statfs
// syscall, with no df dependency.
func diskFromStatfs() (int, error) {
	u, err := disk.Usage("/")
	if err != nil {
		return 0, err
	}
	return int(math.Round(u.UsedPercent)), nil
}
