package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Setting is one editable key with its current value rendered as text.
type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Keys lists the editable monitor settings in display order.
func (c *Config) Keys() []Setting {
	return []Setting{
		{"CPU_THRESHOLD", strconv.Itoa(c.CPUThreshold)},
		{"MEM_THRESHOLD", strconv.Itoa(c.MemThreshold)},
		{"DISK_THRESHOLD", strconv.Itoa(c.DiskThreshold)},
		{"CHECK_INTERVAL", strconv.Itoa(c.CheckInterval)},
		{"ENABLE_ALERTS", strconv.FormatBool(c.EnableAlerts)},
		{"LOG_RETENTION", strconv.Itoa(c.LogRetention)},
	}
}

// Set validates and applies one monitor setting from raw text input. Unlike
// Load, which falls back to defaults on bad file values, explicit edits are
// rejected outright. The caller persists with Save.
func (c *Config) Set(key, raw string) error {
	raw = strings.TrimSpace(raw)
	switch strings.ToUpper(strings.TrimSpace(key)) {
	case "CPU_THRESHOLD":
		n, err := intIn(raw, 0, 100)
		if err != nil {
			return err
		}
		c.CPUThreshold = n
	case "MEM_THRESHOLD":
		n, err := intIn(raw, 0, 100)
		if err != nil {
			return err
		}
		c.MemThreshold = n
	case "DISK_THRESHOLD":
		n, err := intIn(raw, 0, 100)
		if err != nil {
			return err
		}
		c.DiskThreshold = n
	case "CHECK_INTERVAL":
		n, err := intIn(raw, 1, 86400)
		if err != nil {
			return err
		}
		c.CheckInterval = n
	case "ENABLE_ALERTS":
		b, err := boolToken(raw)
		if err != nil {
			return err
		}
		c.EnableAlerts = b
	case "LOG_RETENTION":
		n, err := intIn(raw, 0, 3650)
		if err != nil {
			return err
		}
		c.LogRetention = n
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}

func intIn(raw string, lo, hi int) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", raw)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("%d out of range [%d,%d]", n, lo, hi)
	}
	return n, nil
}

func boolToken(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", raw)
}
