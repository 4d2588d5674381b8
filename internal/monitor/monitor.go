// Package monitor drives the sample→classify→alert→render cycle.
package monitor

import (
	"context"
	"log"
	"time"

	"github.com/larvik/hostmon/internal/alert"
	"github.com/larvik/hostmon/internal/config"
	"github.com/larvik/hostmon/internal/metrics"
	"github.com/larvik/hostmon/internal/models"
	"github.com/larvik/hostmon/internal/status"
)

// Renderer receives finished snapshots for display. Restore is invoked when
// a continuous session ends, on every exit path.
type Renderer interface {
	Frame(models.Snapshot)
	Restore()
}

// Monitor owns one monitoring session. Settings are captured at
// construction; later edits to the settings file do not reach a running
// session.
type Monitor struct {
	sampler    metrics.Sampler
	renderer   Renderer
	recorder   *alert.Recorder
	interval   time.Duration
	thresholds map[metrics.Kind]int
	now        func() time.Time
}

// New assembles a session from the settings in effect.
func New(cfg *config.Config, sampler metrics.Sampler, renderer Renderer, recorder *alert.Recorder) *Monitor {
	thresholds := make(map[metrics.Kind]int, 3)
	for _, kind := range metrics.Kinds() {
		thresholds[kind] = cfg.Threshold(string(kind))
	}
	return &Monitor{
		sampler:    sampler,
		renderer:   renderer,
		recorder:   recorder,
		interval:   time.Duration(cfg.CheckInterval) * time.Second,
		thresholds: thresholds,
		now:        time.Now,
	}
}

// Interval returns the configured cycle period.
func (m *Monitor) Interval() time.Duration { return m.interval }

// Collect runs one full collection pass. Every resource is sampled and
// classified even when an earlier one is already critical; a pass that has
// started always completes.
func (m *Monitor) Collect() models.Snapshot {
	snap := models.Snapshot{TakenAt: m.now(), Platform: m.sampler.Platform()}
	for _, kind := range metrics.Kinds() {
		value := m.sampler.Sample(kind)
		threshold := m.thresholds[kind]
		snap.Readings = append(snap.Readings, models.Reading{
			Resource:  kind.Label(),
			Value:     value,
			Threshold: threshold,
			Level:     status.Classify(value, threshold),
		})
	}
	return snap
}

// RunOnce performs a single cycle: collect, record criticals, render.
func (m *Monitor) RunOnce() models.Snapshot {
	snap := m.Collect()
	for _, r := range snap.Readings {
		m.recorder.Record(r.Resource, r.Value, r.Threshold, r.Level)
	}
	m.renderer.Frame(snap)
	return snap
}

// Run cycles until ctx ends. The first cycle starts immediately;
// cancellation is honored at the sleep between cycles, never inside a
// collection pass. Stopping is a clean exit.
func (m *Monitor) Run(ctx context.Context) error {
	seconds := int(m.interval / time.Second)
	log.Printf("[monitor] started (interval: %ds, backend: %s)", seconds, m.sampler.Platform())
	if err := m.recorder.Log.Infof("Monitoring started (interval: %ds)", seconds); err != nil {
		log.Printf("[monitor] event log: %v", err)
	}
	defer func() {
		m.renderer.Restore()
		if err := m.recorder.Log.Infof("Monitoring stopped"); err != nil {
			log.Printf("[monitor] event log: %v", err)
		}
		log.Printf("[monitor] stopped")
	}()

	for {
		m.RunOnce()
		if err := sleepWithContext(ctx, m.interval); err != nil {
			return nil
		}
	}
}

// sleepWithContext waits d unless ctx ends first.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
