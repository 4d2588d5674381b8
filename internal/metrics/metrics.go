// Package metrics samples CPU, memory, and disk utilization as integer
// percentages. Each platform backend keeps an ordered fallback chain of data
// sources per resource, and sampling is total: a resource that cannot be
// measured reads as 0, never as an error.
package metrics

import (
	"os"
	"runtime"
	"strings"
	"time"
)

// Kind identifies one monitored resource.
type Kind string

const (
	CPU    Kind = "cpu"
	Memory Kind = "memory"
	Disk   Kind = "disk"
)

// Kinds returns all resource kinds in collection order. A cycle always
// samples them sequentially in this order.
func Kinds() []Kind { return []Kind{CPU, Memory, Disk} }

// Label returns the display name used in rendering and alert messages.
func (k Kind) Label() string {
	switch k {
	case CPU:
		return "CPU"
	case Memory:
		return "Memory"
	case Disk:
		return "Disk"
	default:
		return string(k)
	}
}

// Sampler produces a best-effort utilization percentage per resource.
// Implementations never fail the caller: total inability to measure a
// resource yields 0.
type Sampler interface {
	// Sample returns the current utilization of kind in [0,100].
	Sample(kind Kind) int
	// Platform names the selected backend ("linux", "bsd", "generic").
	Platform() string
}

// cpuSampleWindow is the delay between the two counter snapshots a CPU
// reading is derived from. Cumulative counters are meaningless alone; usage
// is always the rate of change across this window.
const cpuSampleWindow = 100 * time.Millisecond

// Detect picks the sampling backend for this host, once at startup: kernel
// procfs counters where the kernel exposes them, the BSD utility set on
// Darwin-family systems, and the gopsutil-backed generic backend elsewhere.
func Detect() Sampler {
	if _, err := os.Stat("/proc/stat"); err == nil {
		return NewLinuxSampler()
	}
	if runtime.GOOS == "darwin" || strings.HasSuffix(runtime.GOOS, "bsd") {
		return NewBSDSampler()
	}
	return NewGenericSampler()
}

// strategy is one data-source method in a metric's fallback chain.
type strategy struct {
	name string
	read func() (int, error)
}

// sampleChain tries each strategy in order; the first whose source yields a
// reading wins. Absent or unparsable sources advance the chain; a winning
// reading outside [0,100] collapses to 0, as does an exhausted chain.
func sampleChain(chain []strategy) int {
	for _, s := range chain {
		v, err := s.read()
		if err != nil {
			continue
		}
		return coercePercent(v)
	}
	return 0
}

// coercePercent collapses out-of-domain readings to the fail-safe 0.
func coercePercent(v int) int {
	if v < 0 || v > 100 {
		return 0
	}
	return v
}

// chainSampler is the shared shape of all backends: a named platform plus
// one strategy chain per resource kind.
type chainSampler struct {
	platform string
	chains   map[Kind][]strategy
}

func (s *chainSampler) Sample(kind Kind) int { return sampleChain(s.chains[kind]) }

func (s *chainSampler) Platform() string { return s.platform }

// Strategies lists the chain's data-source names for kind, primary first.
// Diagnostic output only.
func (s *chainSampler) Strategies(kind Kind) []string {
	names := make([]string, 0, len(s.chains[kind]))
	for _, st := range s.chains[kind] {
		names = append(names, st.name)
	}
	return names
}
