// Package config manages hostmon's runtime configuration.
// It uses Viper to load the key=value config file and environment overrides,
// validating every recognized key individually: a bad value never aborts
// loading, it falls back to that key's built-in default with a warning.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Built-in defaults. A recognized key whose value fails validation is
// replaced by its default; unrecognized keys are ignored entirely.
const (
	DefaultCPUThreshold  = 80
	DefaultMemThreshold  = 85
	DefaultDiskThreshold = 90
	DefaultCheckInterval = 5
	DefaultEnableAlerts  = true
	DefaultLogRetention  = 30

	DefaultServeAddr = "127.0.0.1:7600"
	DefaultAdminUser = "admin"
	DefaultAdminPass = "admin"
	// DefaultJWTSecret is a placeholder for the dashboard token signing key.
	// Override it via hostmon.conf or HOSTMON_JWT_SECRET before exposing the
	// serve port beyond localhost.
	DefaultJWTSecret = "hm7kQ2xW9pL4vN8rT6bZ1sD3uF5jHq0c"
)

// Config holds all runtime settings for one invocation. The monitor loop
// takes a snapshot at start; changes made through Save are picked up on the
// next invocation, never mid-loop.
type Config struct {
	// ── Thresholds (percent, 0-100; readings at or above are CRITICAL) ──────
	CPUThreshold  int `mapstructure:"cpu_threshold"`
	MemThreshold  int `mapstructure:"mem_threshold"`
	DiskThreshold int `mapstructure:"disk_threshold"`

	// ── Monitor loop ─────────────────────────────────────────────────────────
	// CheckInterval: seconds between collection cycles, > 0.
	CheckInterval int  `mapstructure:"check_interval"`
	EnableAlerts  bool `mapstructure:"enable_alerts"`
	// LogRetention: days to keep reports and rotated logs; 0 disables sweeps.
	LogRetention int `mapstructure:"log_retention"`

	// ── Dashboard (serve subcommand) ─────────────────────────────────────────
	ServeAddr string `mapstructure:"serve_addr"`
	AdminUser string `mapstructure:"admin_user"`
	AdminPass string `mapstructure:"admin_pass"`
	JWTSecret string `mapstructure:"jwt_secret"`

	// Warnings accumulated during Load (invalid values that fell back to
	// defaults). The monitor forwards them into the event log at startup.
	Warnings []string `mapstructure:"-"`

	paths Paths
}

// Threshold returns the configured threshold for the named resource key
// ("cpu", "memory", "disk"). Unknown keys get the CPU threshold.
func (c *Config) Threshold(resource string) int {
	switch resource {
	case "memory":
		return c.MemThreshold
	case "disk":
		return c.DiskThreshold
	default:
		return c.CPUThreshold
	}
}

// Paths returns the directory layout this config was loaded against.
func (c *Config) Paths() Paths { return c.paths }

// Load reads the config file under paths (if present) plus HOSTMON_*
// environment overrides, and returns the validated effective configuration.
// Loading always completes: invalid values warn and fall back per key.
func Load(paths Paths) (*Config, error) {
	v := viper.New()

	// --- Defaults ---
	v.SetDefault("cpu_threshold", DefaultCPUThreshold)
	v.SetDefault("mem_threshold", DefaultMemThreshold)
	v.SetDefault("disk_threshold", DefaultDiskThreshold)
	v.SetDefault("check_interval", DefaultCheckInterval)
	v.SetDefault("enable_alerts", DefaultEnableAlerts)
	v.SetDefault("log_retention", DefaultLogRetention)

	v.SetDefault("serve_addr", DefaultServeAddr)
	v.SetDefault("admin_user", DefaultAdminUser)
	v.SetDefault("admin_pass", DefaultAdminPass)
	v.SetDefault("jwt_secret", DefaultJWTSecret)

	// --- Config file (KEY=value lines, dotenv syntax) ---
	v.SetConfigFile(paths.ConfigFile())
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		// A missing file just means first run; anything else is a real error.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// --- Environment variables (HOSTMON_CPU_THRESHOLD=...) ---
	v.SetEnvPrefix("HOSTMON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	cfg := &Config{paths: paths}
	cfg.CPUThreshold = cfg.intKey(v, "cpu_threshold", DefaultCPUThreshold, 0, 100)
	cfg.MemThreshold = cfg.intKey(v, "mem_threshold", DefaultMemThreshold, 0, 100)
	cfg.DiskThreshold = cfg.intKey(v, "disk_threshold", DefaultDiskThreshold, 0, 100)
	cfg.CheckInterval = cfg.intKey(v, "check_interval", DefaultCheckInterval, 1, 86400)
	cfg.EnableAlerts = cfg.boolKey(v, "enable_alerts", DefaultEnableAlerts)
	cfg.LogRetention = cfg.intKey(v, "log_retention", DefaultLogRetention, 0, 3650)

	cfg.ServeAddr = cfg.stringKey(v, "serve_addr", DefaultServeAddr)
	cfg.AdminUser = cfg.stringKey(v, "admin_user", DefaultAdminUser)
	cfg.AdminPass = cfg.stringKey(v, "admin_pass", DefaultAdminPass)
	cfg.JWTSecret = cfg.stringKey(v, "jwt_secret", DefaultJWTSecret)

	return cfg, nil
}

// intKey parses key as an integer in [lo, hi]; on failure it records a
// warning and returns def.
func (c *Config) intKey(v *viper.Viper, key string, def, lo, hi int) int {
	raw := strings.TrimSpace(v.GetString(key))
	n, err := strconv.Atoi(raw)
	if err != nil {
		c.warnf("invalid %s %q, using default %d", strings.ToUpper(key), raw, def)
		return def
	}
	if n < lo || n > hi {
		c.warnf("%s %d out of range [%d,%d], using default %d", strings.ToUpper(key), n, lo, hi, def)
		return def
	}
	return n
}

// boolKey accepts the usual spellings of true/false; anything else warns and
// returns def.
func (c *Config) boolKey(v *viper.Viper, key string, def bool) bool {
	raw := strings.ToLower(strings.TrimSpace(v.GetString(key)))
	switch raw {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		c.warnf("invalid %s %q, using default %t", strings.ToUpper(key), raw, def)
		return def
	}
}

func (c *Config) stringKey(v *viper.Viper, key, def string) string {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return def
	}
	return raw
}

func (c *Config) warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.Warnings = append(c.Warnings, msg)
	log.Printf("[config] %s", msg)
}
