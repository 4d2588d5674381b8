// Package alert maintains the append-only event log and applies the
// alerting policy to classified readings.
package alert

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/larvik/hostmon/internal/status"
)

// Level tags one event line in the alert log.
type Level string

const (
	Info     Level = "INFO"
	Warn     Level = "WARN"
	Error    Level = "ERROR"
	Critical Level = "CRITICAL"
)

// timeLayout is the timestamp format of every log line.
const timeLayout = "2006-01-02 15:04:05"

// Log is an append-only event log. Every line carries a bracketed timestamp
// and severity tag so the file stays greppable from the shell.
type Log struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewLog returns a log writing to path. The file is created on first write.
func NewLog(path string) *Log {
	return &Log{path: path, now: time.Now}
}

// Path returns the log file location.
func (l *Log) Path() string { return l.path }

// Write appends one formatted line. The file is opened per write, so
// rotation or deletion underneath a running monitor takes effect on the
// next event.
func (l *Log) Write(level Level, format string, args ...any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open alert log: %w", err)
	}
	defer f.Close()
	line := fmt.Sprintf("[%s] [%s] %s\n", l.now().Format(timeLayout), level, fmt.Sprintf(format, args...))
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("append alert log: %w", err)
	}
	return nil
}

func (l *Log) Infof(format string, args ...any) error { return l.Write(Info, format, args...) }

func (l *Log) Warnf(format string, args ...any) error { return l.Write(Warn, format, args...) }

func (l *Log) Errorf(format string, args ...any) error { return l.Write(Error, format, args...) }

func (l *Log) Criticalf(format string, args ...any) error {
	return l.Write(Critical, format, args...)
}

// Tail returns the last n lines, oldest first. A log that does not exist
// yet reads as empty.
func (l *Log) Tail(n int) ([]string, error) {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read alert log: %w", err)
	}
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if n >= 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}

// HistorySink receives critical events for durable storage. Persistence
// failures are reported but never block alerting.
type HistorySink interface {
	SaveAlert(resource string, value, threshold int) error
}

// Recorder applies the alerting policy: only critical classifications
// produce alert traffic, and only while alerting is enabled. Warnings stay
// on screen and never reach the log.
type Recorder struct {
	Log     *Log
	History HistorySink
	Enabled bool
}

// Record reacts to one classified reading and reports whether a critical
// alert was emitted.
func (r *Recorder) Record(resource string, value, threshold int, level status.Level) bool {
	if !r.Enabled || level != status.Critical {
		return false
	}
	if err := r.Log.Criticalf("%s usage at %d%% (threshold: %d%%)", resource, value, threshold); err != nil {
		log.Printf("[alert] write failed: %v", err)
	}
	if r.History != nil {
		if err := r.History.SaveAlert(resource, value, threshold); err != nil {
			log.Printf("[alert] history save failed: %v", err)
		}
	}
	return true
}
