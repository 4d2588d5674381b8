// Package models defines the data shapes shared by the monitor core, the
// terminal renderer, the report generator and the web API.
package models

import (
	"time"

	"github.com/larvik/hostmon/internal/status"
)

// Reading is one classified measurement of a single resource.
type Reading struct {
	Resource  string       `json:"resource"`  // display label: CPU, Memory, Disk
	Value     int          `json:"value"`     // percent 0-100
	Threshold int          `json:"threshold"` // critical threshold from config
	Level     status.Level `json:"level"`
}

// Snapshot is the result of one full collection pass.
type Snapshot struct {
	TakenAt  time.Time `json:"taken_at"`
	Platform string    `json:"platform"` // sampling backend name
	Readings []Reading `json:"readings"`
}

// Worst returns the most severe level across the snapshot's readings.
func (s Snapshot) Worst() status.Level {
	levels := make([]status.Level, 0, len(s.Readings))
	for _, r := range s.Readings {
		levels = append(levels, r.Level)
	}
	return status.Worst(levels...)
}

// Find returns the reading for a resource label, if present.
func (s Snapshot) Find(resource string) (Reading, bool) {
	for _, r := range s.Readings {
		if r.Resource == resource {
			return r, true
		}
	}
	return Reading{}, false
}
