package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
)

const procStatFixture = `cpu  10000 200 3000 40000 500 0 60 0 0 0
cpu0 5000 100 1500 20000 250 0 30 0 0 0
cpu1 5000 100 1500 20000 250 0 30 0 0 0
intr 123456 0 0
ctxt 7890123
btime 1700000000
`

const meminfoFixture = `MemTotal:       16384256 kB
MemFree:         2048000 kB
MemAvailable:    4096064 kB
Buffers:          512000 kB
Cached:          3072000 kB
SwapTotal:       2097148 kB
SwapFree:        2097148 kB
`

const freeFixture = `               total        used        free      shared  buff/cache   available
Mem:           16000        8000        1200         456        6800        7400
Swap:           2047           0        2047
`

const dfFixture = `Filesystem     1024-blocks      Used Available Capacity Mounted on
/dev/nvme0n1p2   486903968 342234120 119866280      75% /
`

const linuxTopFixture = `top - 10:23:01 up 12 days,  3:44,  1 user,  load average: 0.52, 0.58, 0.59
Tasks: 312 total,   1 running, 311 sleeping,   0 stopped,   0 zombie
%Cpu(s):  3.1 us,  1.2 sy,  0.0 ni, 95.4 id,  0.2 wa,  0.0 hi,  0.1 si,  0.0 st
MiB Mem :  15923.0 total,   1234.5 free,   9553.2 used,   5135.3 buff/cache

    PID USER      PR  NI    VIRT    RES    SHR S  %CPU  %MEM     TIME+ COMMAND
      1 root      20   0  168123  12345   8901 S   0.0   0.1   0:04.21 systemd
   2041 root      20   0       0      0      0 I   0.0   0.0   0:00.00 idle_inject/0

top - 10:23:02 up 12 days,  3:44,  1 user,  load average: 0.52, 0.58, 0.59
Tasks: 312 total,   2 running, 310 sleeping,   0 stopped,   0 zombie
%Cpu(s): 12.5 us,  4.3 sy,  0.0 ni, 82.0 id,  1.0 wa,  0.0 hi,  0.2 si,  0.0 st
MiB Mem :  15923.0 total,   1230.1 free,   9557.6 used,   5135.3 buff/cache
`

const darwinTopFixture = `Processes: 512 total, 2 running, 510 sleeping, 2468 threads
Load Avg: 1.52, 1.68, 1.81
CPU usage: 2.12% user, 1.04% sys, 96.83% idle
MemRegions: 123456 total, 4096M resident

Processes: 512 total, 3 running, 509 sleeping, 2470 threads
Load Avg: 1.52, 1.68, 1.81
CPU usage: 7.84% user, 10.78% sys, 81.37% idle
MemRegions: 123456 total, 4102M resident
PID    COMMAND      %CPU TIME     #TH
`

const freebsdTopFixture = `last pid:  1234;  load averages:  0.31,  0.28,  0.24
38 processes:  1 running, 37 sleeping
CPU:  0.4% user,  0.0% nice,  0.2% system,  0.0% interrupt, 99.4% idle
Mem: 121M Active, 1290M Inact, 968M Wired, 5963M Free

CPU:  8.1% user,  0.0% nice,  1.9% system,  0.0% interrupt, 90.0% idle
Mem: 122M Active, 1290M Inact, 968M Wired, 5962M Free
`

const vmStatFixture = `Mach Virtual Memory Statistics: (page size of 16384 bytes)
Pages free:                              100000.
Pages active:                            200000.
Pages inactive:                          100000.
Pages speculative:                        50000.
Pages throttled:                              0.
Pages purgeable:                          12345.
"Translation faults":                 987654321.
Pages wired down:                        100000.
Pageins:                                 123456.
Pageouts:                                   789.
`

func TestParseCPUCounters(t *testing.T) {
	c, err := parseCPUCounters("cpu  10000 200 3000 40000 500 0 60 0 0 0")
	if err != nil {
		t.Fatalf("parseCPUCounters: %v", err)
	}
	if c.idle != 40000 {
		t.Errorf("idle = %d, want 40000", c.idle)
	}
	if c.total != 53760 {
		t.Errorf("total = %d, want 53760", c.total)
	}

	if _, err := parseCPUCounters("cpu  1 2 3"); err == nil {
		t.Error("short line: expected error")
	}
	if _, err := parseCPUCounters("cpu  1 2 3 x 5"); err == nil {
		t.Error("garbage counter: expected error")
	}
}

func TestReadCPUCounters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stat")
	if err := os.WriteFile(path, []byte(procStatFixture), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := readCPUCounters(path)
	if err != nil {
		t.Fatalf("readCPUCounters: %v", err)
	}
	if c.idle != 40000 {
		t.Errorf("idle = %d, want 40000", c.idle)
	}

	if _, err := readCPUCounters(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("missing file: expected error")
	}
}

func TestCPUUsageBetween(t *testing.T) {
	tests := []struct {
		name          string
		first, second cpuCounters
		want          int
	}{
		{"quarter busy", cpuCounters{idle: 100, total: 1000}, cpuCounters{idle: 250, total: 1200}, 25},
		{"three quarters busy", cpuCounters{idle: 100, total: 1000}, cpuCounters{idle: 150, total: 1200}, 75},
		{"fully idle", cpuCounters{idle: 100, total: 1000}, cpuCounters{idle: 300, total: 1200}, 0},
		{"no elapsed ticks", cpuCounters{idle: 100, total: 1000}, cpuCounters{idle: 100, total: 1000}, 0},
		{"counter reset", cpuCounters{idle: 100, total: 1000}, cpuCounters{idle: 10, total: 100}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cpuUsageBetween(tt.first, tt.second); got != tt.want {
				t.Errorf("cpuUsageBetween = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseTopIdle(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		marker  string
		re      *regexp.Regexp
		want    int
		wantErr bool
	}{
		{"linux second iteration", linuxTopFixture, "Cpu(s)", linuxTopIdleRE, 18, false},
		{"linux legacy format", "Cpu(s): 5.9%us, 2.0%sy, 0.0%ni, 91.2%id, 0.6%wa\n", "Cpu(s)", linuxTopIdleRE, 9, false},
		{"darwin second sample", darwinTopFixture, "CPU usage", bsdTopIdleRE, 19, false},
		{"freebsd second display", freebsdTopFixture, "CPU:", bsdTopIdleRE, 10, false},
		{"no summary line", "PID COMMAND %CPU\n1 launchd 0.0\n", "CPU usage", bsdTopIdleRE, 0, true},
		{"summary without idle", "%Cpu(s): borked\n", "Cpu(s)", linuxTopIdleRE, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTopIdle(tt.out, tt.marker, tt.re)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseTopIdle: %v", err)
			}
			if got != tt.want {
				t.Errorf("parseTopIdle = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseMeminfo(t *testing.T) {
	got, err := parseMeminfo(meminfoFixture)
	if err != nil {
		t.Fatalf("parseMeminfo: %v", err)
	}
	if got != 75 {
		t.Errorf("parseMeminfo = %d, want 75", got)
	}

	noAvail := "MemTotal: 1000 kB\nMemFree: 500 kB\n"
	if _, err := parseMeminfo(noAvail); err == nil {
		t.Error("missing MemAvailable: expected error")
	}
	if _, err := parseMeminfo(""); err == nil {
		t.Error("empty input: expected error")
	}
}

func TestParseFreeMem(t *testing.T) {
	got, err := parseFreeMem(freeFixture)
	if err != nil {
		t.Fatalf("parseFreeMem: %v", err)
	}
	if got != 50 {
		t.Errorf("parseFreeMem = %d, want 50", got)
	}

	if _, err := parseFreeMem("Swap: 1 0 1\n"); err == nil {
		t.Error("no Mem row: expected error")
	}
}

func TestParseDFUsedPercent(t *testing.T) {
	got, err := parseDFUsedPercent(dfFixture)
	if err != nil {
		t.Fatalf("parseDFUsedPercent: %v", err)
	}
	if got != 75 {
		t.Errorf("parseDFUsedPercent = %d, want 75", got)
	}

	full := "Filesystem 1024-blocks Used Available Capacity Mounted on\n/dev/sda1 100 100 0 100% /\n"
	if got, err := parseDFUsedPercent(full); err != nil || got != 100 {
		t.Errorf("full disk: got %d, %v, want 100, nil", got, err)
	}

	if _, err := parseDFUsedPercent("Filesystem 1024-blocks Used Available Capacity Mounted on\n"); err == nil {
		t.Error("header only: expected error")
	}
	if _, err := parseDFUsedPercent(""); err == nil {
		t.Error("empty output: expected error")
	}
}

func TestParseVMStat(t *testing.T) {
	got, err := parseVMStat(vmStatFixture)
	if err != nil {
		t.Fatalf("parseVMStat: %v", err)
	}
	// (200000+100000+100000) used pages against 100000 free pages.
	if got != 80 {
		t.Errorf("parseVMStat = %d, want 80", got)
	}

	if _, err := parseVMStat("Mach Virtual Memory Statistics: (page size of 4096 bytes)\nPages free: 10.\n"); err == nil {
		t.Error("missing counts: expected error")
	}
}

func TestCoercePercent(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 0},
		{55, 55},
		{100, 100},
		{-1, 0},
		{101, 0},
		{250, 0},
	}
	for _, tt := range tests {
		if got := coercePercent(tt.in); got != tt.want {
			t.Errorf("coercePercent(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSampleChain(t *testing.T) {
	fail := func() (int, error) { return 0, errors.New("source unavailable") }

	t.Run("primary wins", func(t *testing.T) {
		var calls []string
		s := chainSampler{chains: map[Kind][]strategy{
			CPU: {
				{name: "a", read: func() (int, error) { calls = append(calls, "a"); return 7, nil }},
				{name: "b", read: func() (int, error) { calls = append(calls, "b"); return 99, nil }},
			},
		}}
		if got := s.Sample(CPU); got != 7 {
			t.Errorf("Sample = %d, want 7", got)
		}
		if len(calls) != 1 || calls[0] != "a" {
			t.Errorf("calls = %v, want [a]", calls)
		}
	})

	t.Run("failure advances", func(t *testing.T) {
		var calls []string
		s := chainSampler{chains: map[Kind][]strategy{
			Memory: {
				{name: "a", read: func() (int, error) { calls = append(calls, "a"); return 0, errors.New("nope") }},
				{name: "b", read: func() (int, error) { calls = append(calls, "b"); return 42, nil }},
			},
		}}
		if got := s.Sample(Memory); got != 42 {
			t.Errorf("Sample = %d, want 42", got)
		}
		if len(calls) != 2 || calls[0] != "a" || calls[1] != "b" {
			t.Errorf("calls = %v, want [a b]", calls)
		}
	})

	t.Run("exhausted chain reads zero", func(t *testing.T) {
		s := chainSampler{chains: map[Kind][]strategy{
			Disk: {{name: "a", read: fail}, {name: "b", read: fail}},
		}}
		if got := s.Sample(Disk); got != 0 {
			t.Errorf("Sample = %d, want 0", got)
		}
	})

	t.Run("out-of-range reading collapses without advancing", func(t *testing.T) {
		var fallbackCalled bool
		s := chainSampler{chains: map[Kind][]strategy{
			CPU: {
				{name: "a", read: func() (int, error) { return 250, nil }},
				{name: "b", read: func() (int, error) { fallbackCalled = true; return 50, nil }},
			},
		}}
		if got := s.Sample(CPU); got != 0 {
			t.Errorf("Sample = %d, want 0", got)
		}
		if fallbackCalled {
			t.Error("fallback consulted after a successful out-of-range reading")
		}
	})

	t.Run("wrapped idle counter collapses to zero", func(t *testing.T) {
		first := cpuCounters{idle: 500, total: 1000}
		second := cpuCounters{idle: 100, total: 1200}
		s := chainSampler{chains: map[Kind][]strategy{
			CPU: {{name: "proc_stat", read: func() (int, error) { return cpuUsageBetween(first, second), nil }}},
		}}
		if got := s.Sample(CPU); got != 0 {
			t.Errorf("Sample = %d, want 0", got)
		}
	})

	t.Run("unknown kind reads zero", func(t *testing.T) {
		s := chainSampler{chains: map[Kind][]strategy{}}
		if got := s.Sample(Kind("swap")); got != 0 {
			t.Errorf("Sample = %d, want 0", got)
		}
	})
}

func TestLinuxSamplerFixtures(t *testing.T) {
	dir := t.TempDir()
	meminfo := filepath.Join(dir, "meminfo")
	if err := os.WriteFile(meminfo, []byte(meminfoFixture), 0o644); err != nil {
		t.Fatal(err)
	}
	stat := filepath.Join(dir, "stat")
	if err := os.WriteFile(stat, []byte(procStatFixture), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewLinuxSampler()
	s.meminfoPath = meminfo
	s.statPath = stat
	s.window = 0

	if got := s.Sample(Memory); got != 75 {
		t.Errorf("Sample(Memory) = %d, want 75", got)
	}
	// Static counters mean no elapsed ticks between the two snapshots.
	if got := s.Sample(CPU); got != 0 {
		t.Errorf("Sample(CPU) = %d, want 0", got)
	}
}

func TestChainOrder(t *testing.T) {
	s := NewLinuxSampler()
	tests := []struct {
		kind Kind
		want []string
	}{
		{CPU, []string{"proc_stat", "top"}},
		{Memory, []string{"meminfo", "free"}},
		{Disk, []string{"df", "statfs"}},
	}
	for _, tt := range tests {
		got := s.Strategies(tt.kind)
		if len(got) != len(tt.want) {
			t.Fatalf("Strategies(%s) = %v, want %v", tt.kind, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("Strategies(%s)[%d] = %s, want %s", tt.kind, i, got[i], tt.want[i])
			}
		}
	}
}

func TestKinds(t *testing.T) {
	ks := Kinds()
	if len(ks) != 3 || ks[0] != CPU || ks[1] != Memory || ks[2] != Disk {
		t.Errorf("Kinds() = %v, want [cpu memory disk]", ks)
	}
	labels := map[Kind]string{CPU: "CPU", Memory: "Memory", Disk: "Disk"}
	for k, want := range labels {
		if got := k.Label(); got != want {
			t.Errorf("%s.Label() = %q, want %q", k, got, want)
		}
	}
}

func TestDetect(t *testing.T) {
	s := Detect()
	if s == nil {
		t.Fatal("Detect returned nil")
	}
	switch p := s.Platform(); p {
	case "linux", "bsd", "generic":
	default:
		t.Errorf("Platform() = %q", p)
	}
}
