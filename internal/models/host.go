package models

import "time"

// HostInfo describes the machine under observation. Every field is probed
// best-effort; consumers substitute a placeholder where a probe came back
// empty.
type HostInfo struct {
	Hostname      string  `json:"hostname"`
	OS            string  `json:"os"`       // e.g. linux, darwin
	Platform      string  `json:"platform"` // e.g. ubuntu 24.04
	KernelVersion string  `json:"kernel_version"`
	UptimeSeconds uint64  `json:"uptime_seconds"`
	Procs         uint64  `json:"procs"`
	Load1         float64 `json:"load1"`
	Load5         float64 `json:"load5"`
	Load15        float64 `json:"load15"`
	TotalMemBytes uint64  `json:"total_mem_bytes"`
}

// Uptime converts the probed seconds counter to a duration.
func (h HostInfo) Uptime() time.Duration {
	return time.Duration(h.UptimeSeconds) * time.Second
}
