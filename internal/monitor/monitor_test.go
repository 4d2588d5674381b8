package monitor

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/larvik/hostmon/internal/alert"
	"github.com/larvik/hostmon/internal/config"
	"github.com/larvik/hostmon/internal/metrics"
	"github.com/larvik/hostmon/internal/models"
	"github.com/larvik/hostmon/internal/status"
)

type fakeSampler struct {
	values map[metrics.Kind]int
}

func (f *fakeSampler) Sample(k metrics.Kind) int { return f.values[k] }

func (f *fakeSampler) Platform() string { return "fake" }

type fakeRenderer struct {
	mu       sync.Mutex
	frames   []models.Snapshot
	restores int
	frameCh  chan struct{}
}

func (f *fakeRenderer) Frame(s models.Snapshot) {
	f.mu.Lock()
	f.frames = append(f.frames, s)
	f.mu.Unlock()
	if f.frameCh != nil {
		select {
		case f.frameCh <- struct{}{}:
		default:
		}
	}
}

func (f *fakeRenderer) Restore() {
	f.mu.Lock()
	f.restores++
	f.mu.Unlock()
}

func (f *fakeRenderer) counts() (frames, restores int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames), f.restores
}

func testConfig() *config.Config {
	return &config.Config{
		CPUThreshold:  80,
		MemThreshold:  85,
		DiskThreshold: 90,
		CheckInterval: 1,
		EnableAlerts:  true,
		LogRetention:  30,
	}
}

func newTestMonitor(t *testing.T, values map[metrics.Kind]int, cfg *config.Config) (*Monitor, *fakeRenderer, *alert.Log) {
	t.Helper()
	alog := alert.NewLog(filepath.Join(t.TempDir(), "alerts.log"))
	rec := &alert.Recorder{Log: alog, Enabled: cfg.EnableAlerts}
	fr := &fakeRenderer{frameCh: make(chan struct{}, 8)}
	m := New(cfg, &fakeSampler{values: values}, fr, rec)
	m.now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 9, 0, time.UTC) }
	return m, fr, alog
}

func TestCollect(t *testing.T) {
	m, _, _ := newTestMonitor(t, map[metrics.Kind]int{
		metrics.CPU:    95,
		metrics.Memory: 40,
		metrics.Disk:   82,
	}, testConfig())

	snap := m.Collect()
	if snap.Platform != "fake" {
		t.Errorf("Platform = %q", snap.Platform)
	}
	if !snap.TakenAt.Equal(time.Date(2024, 3, 9, 14, 5, 9, 0, time.UTC)) {
		t.Errorf("TakenAt = %v", snap.TakenAt)
	}
	want := []models.Reading{
		{Resource: "CPU", Value: 95, Threshold: 80, Level: status.Critical},
		{Resource: "Memory", Value: 40, Threshold: 85, Level: status.Normal},
		{Resource: "Disk", Value: 82, Threshold: 90, Level: status.Warning},
	}
	if len(snap.Readings) != len(want) {
		t.Fatalf("got %d readings, want %d", len(snap.Readings), len(want))
	}
	for i, w := range want {
		if snap.Readings[i] != w {
			t.Errorf("reading[%d] = %+v, want %+v", i, snap.Readings[i], w)
		}
	}
	if snap.Worst() != status.Critical {
		t.Errorf("Worst = %s", snap.Worst())
	}
}

func TestRunOnceRecordsCriticals(t *testing.T) {
	m, fr, alog := newTestMonitor(t, map[metrics.Kind]int{
		metrics.CPU:    95,
		metrics.Memory: 86,
		metrics.Disk:   40,
	}, testConfig())

	m.RunOnce()

	frames, _ := fr.counts()
	if frames != 1 {
		t.Errorf("frames = %d, want 1", frames)
	}
	lines, err := alog.Tail(-1)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 2 {
		t.Fatalf("alert lines = %d, want 2\n%s", len(lines), strings.Join(lines, "\n"))
	}
	if !strings.Contains(lines[0], "[CRITICAL] CPU usage at 95% (threshold: 80%)") {
		t.Errorf("line[0] = %q", lines[0])
	}
	if !strings.Contains(lines[1], "[CRITICAL] Memory usage at 86% (threshold: 85%)") {
		t.Errorf("line[1] = %q", lines[1])
	}
}

func TestRunOnceAlertsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.EnableAlerts = false
	m, _, alog := newTestMonitor(t, map[metrics.Kind]int{
		metrics.CPU:    99,
		metrics.Memory: 99,
		metrics.Disk:   99,
	}, cfg)

	snap := m.RunOnce()
	if snap.Worst() != status.Critical {
		t.Fatalf("Worst = %s, want CRITICAL", snap.Worst())
	}
	lines, err := alog.Tail(-1)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 0 {
		t.Errorf("disabled alerts wrote %d lines: %v", len(lines), lines)
	}
}

func TestRunOnceIsRepeatable(t *testing.T) {
	m, fr, alog := newTestMonitor(t, map[metrics.Kind]int{
		metrics.CPU:    95,
		metrics.Memory: 10,
		metrics.Disk:   10,
	}, testConfig())

	first := m.RunOnce()
	second := m.RunOnce()
	for i := range first.Readings {
		if first.Readings[i] != second.Readings[i] {
			t.Errorf("reading[%d] differs across runs: %+v vs %+v", i, first.Readings[i], second.Readings[i])
		}
	}
	frames, _ := fr.counts()
	if frames != 2 {
		t.Errorf("frames = %d, want 2", frames)
	}
	lines, err := alog.Tail(-1)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 2 {
		t.Errorf("alert lines = %d, want 2", len(lines))
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := testConfig()
	cfg.CheckInterval = 3600
	m, fr, alog := newTestMonitor(t, map[metrics.Kind]int{
		metrics.CPU:    10,
		metrics.Memory: 10,
		metrics.Disk:   10,
	}, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	select {
	case <-fr.frameCh:
	case <-time.After(2 * time.Second):
		t.Fatal("no frame rendered")
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}

	frames, restores := fr.counts()
	if frames != 1 {
		t.Errorf("frames = %d, want 1", frames)
	}
	if restores != 1 {
		t.Errorf("restores = %d, want 1", restores)
	}
	lines, err := alog.Tail(-1)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 2 ||
		!strings.Contains(lines[0], "[INFO] Monitoring started (interval: 3600s)") ||
		!strings.Contains(lines[1], "[INFO] Monitoring stopped") {
		t.Errorf("lifecycle lines = %v", lines)
	}
}

func TestSleepWithContext(t *testing.T) {
	if err := sleepWithContext(context.Background(), time.Millisecond); err != nil {
		t.Errorf("expired timer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleepWithContext(ctx, time.Hour); err == nil {
		t.Error("canceled context: expected error")
	}
}
