package config

import (
	"fmt"
	"os"
	"strings"
)

// Save writes the configuration back to its key=value file. All settings
// changes go through here (or through an editor on the file itself); the
// monitor core only ever reads.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.paths.Base, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	var b strings.Builder
	b.WriteString("# hostmon configuration\n")
	b.WriteString("# Thresholds are percentages; readings at or above are CRITICAL,\n")
	b.WriteString("# within 10 points below are WARNING.\n")
	fmt.Fprintf(&b, "CPU_THRESHOLD=%d\n", c.CPUThreshold)
	fmt.Fprintf(&b, "MEM_THRESHOLD=%d\n", c.MemThreshold)
	fmt.Fprintf(&b, "DISK_THRESHOLD=%d\n", c.DiskThreshold)
	fmt.Fprintf(&b, "CHECK_INTERVAL=%d\n", c.CheckInterval)
	fmt.Fprintf(&b, "ENABLE_ALERTS=%t\n", c.EnableAlerts)
	fmt.Fprintf(&b, "LOG_RETENTION=%d\n", c.LogRetention)
	b.WriteString("\n# Dashboard (hostmon serve)\n")
	// Single quotes keep dotenv parsing literal: bcrypt hashes and secrets
	// may contain $ and # which would otherwise expand or start a comment.
	fmt.Fprintf(&b, "SERVE_ADDR='%s'\n", c.ServeAddr)
	fmt.Fprintf(&b, "ADMIN_USER='%s'\n", c.AdminUser)
	fmt.Fprintf(&b, "ADMIN_PASS='%s'\n", c.AdminPass)
	fmt.Fprintf(&b, "JWT_SECRET='%s'\n", c.JWTSecret)

	if err := os.WriteFile(c.paths.ConfigFile(), []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
