// Package retention removes aged reports, rotated logs and alert-history
// rows per the LOG_RETENTION setting.
package retention

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/larvik/hostmon/internal/config"
)

// Result summarizes one sweep.
type Result struct {
	FilesRemoved int
	RowsPruned   int64
}

// Pruner deletes history rows older than a cutoff.
type Pruner interface {
	PruneBefore(cutoff time.Time) (int64, error)
}

// Sweep applies the retention policy as of now. A retention of zero
// disables the sweep entirely; the live alert log is never touched
// regardless of age.
func Sweep(paths config.Paths, retentionDays int, pruner Pruner, now time.Time) (Result, error) {
	var res Result
	if retentionDays <= 0 {
		return res, nil
	}
	cutoff := now.AddDate(0, 0, -retentionDays)

	for _, dir := range []string{paths.Reports, paths.Logs} {
		removed, err := sweepDir(dir, cutoff, paths.AlertLog())
		res.FilesRemoved += removed
		if err != nil {
			return res, err
		}
	}

	if pruner != nil {
		n, err := pruner.PruneBefore(cutoff)
		if err != nil {
			return res, fmt.Errorf("prune history: %w", err)
		}
		res.RowsPruned = n
	}
	return res, nil
}

// sweepDir removes regular files older than cutoff, skipping keep. A
// directory that does not exist yet sweeps clean.
func sweepDir(dir string, cutoff time.Time, keep string) (int, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", dir, err)
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if path == keep {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			log.Printf("[retention] remove %s: %v", path, err)
			continue
		}
		removed++
	}
	return removed, nil
}
