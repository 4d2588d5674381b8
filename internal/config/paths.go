package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths is hostmon's on-disk layout. Everything lives under one base
// directory (~/.hostmon by default, HOSTMON_HOME to relocate).
type Paths struct {
	Base    string // config file + database
	Logs    string // alert/event log
	Reports string // generated report artifacts
}

// DefaultPaths resolves the standard layout for the current user.
func DefaultPaths() (Paths, error) {
	base := os.Getenv("HOSTMON_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, fmt.Errorf("resolving home directory: %w", err)
		}
		base = filepath.Join(home, ".hostmon")
	}
	return PathsAt(base), nil
}

// PathsAt returns the layout rooted at base.
func PathsAt(base string) Paths {
	return Paths{
		Base:    base,
		Logs:    filepath.Join(base, "logs"),
		Reports: filepath.Join(base, "reports"),
	}
}

func (p Paths) ConfigFile() string { return filepath.Join(p.Base, "hostmon.conf") }
func (p Paths) AlertLog() string   { return filepath.Join(p.Logs, "alerts.log") }
func (p Paths) Database() string   { return filepath.Join(p.Base, "hostmon.db") }

// Ensure creates the directory tree. Failure here is fatal to the caller:
// without writable state directories there is nowhere to persist alerts or
// settings.
func (p Paths) Ensure() error {
	for _, dir := range []string{p.Base, p.Logs, p.Reports} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}
