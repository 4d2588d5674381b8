// Package render draws monitor output on the terminal: a live dashboard
// frame during continuous monitoring and a one-shot status block.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/larvik/hostmon/internal/models"
	"github.com/larvik/hostmon/internal/status"
)

const (
	escReset   = "\x1b[0m"
	escBold    = "\x1b[1m"
	escDim     = "\x1b[2m"
	escGreen   = "\x1b[32m"
	escYellow  = "\x1b[33m"
	escRed     = "\x1b[31m"
	escClear   = "\x1b[2J\x1b[H"
	escShowCur = "\x1b[?25h"
	escHideCur = "\x1b[?25l"
)

// barWidth is the gauge width in cells; one cell per five percent.
const barWidth = 20

const timeLayout = "2006-01-02 15:04:05"

// Terminal renders frames to one output stream. Escape sequences are
// dropped entirely when the stream is not a terminal, NO_COLOR is set, or
// TERM is dumb.
type Terminal struct {
	out   io.Writer
	color bool
	live  bool
}

// New returns a renderer for out, with escape sequences enabled only when
// out looks like a capable terminal.
func New(out io.Writer) *Terminal {
	return &Terminal{out: out, color: wantColor(out)}
}

func wantColor(out io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Frame draws one live dashboard frame, replacing the previous one. The
// first frame hides the cursor; Restore brings it back.
func (t *Terminal) Frame(snap models.Snapshot) {
	if t.color {
		if !t.live {
			fmt.Fprint(t.out, escHideCur)
		}
		fmt.Fprint(t.out, escClear)
	}
	t.live = true
	t.header(snap)
	t.readings(snap)
	t.statusLine(snap)
	fmt.Fprintf(t.out, "\n  %s\n", t.paint(escDim, "press Ctrl+C to stop"))
}

// Status draws a one-shot status block without clearing the screen.
func (t *Terminal) Status(snap models.Snapshot) {
	t.header(snap)
	t.readings(snap)
	t.statusLine(snap)
	fmt.Fprintln(t.out)
}

// Restore undoes live-mode terminal state. Safe to call on any exit path,
// including before the first frame.
func (t *Terminal) Restore() {
	if t.live && t.color {
		fmt.Fprint(t.out, escReset, escShowCur)
	}
	if t.live {
		fmt.Fprintln(t.out)
	}
	t.live = false
}

func (t *Terminal) header(snap models.Snapshot) {
	fmt.Fprintf(t.out, "\n  %s\n", t.paint(escBold, "hostmon — local resource monitor"))
	fmt.Fprintf(t.out, "  %s\n", strings.Repeat("─", 46))
	fmt.Fprintf(t.out, "  %s   backend: %s\n\n", snap.TakenAt.Format(timeLayout), snap.Platform)
}

func (t *Terminal) readings(snap models.Snapshot) {
	for _, r := range snap.Readings {
		gauge := t.paint(t.levelColor(r.Level), bar(r.Value, barWidth))
		level := t.paint(t.levelColor(r.Level), string(r.Level))
		fmt.Fprintf(t.out, "  %-8s [%s] %3d%%   %s\n", r.Resource, gauge, r.Value, level)
	}
}

func (t *Terminal) statusLine(snap models.Snapshot) {
	worst := snap.Worst()
	if worst == status.Normal {
		fmt.Fprintf(t.out, "\n  status: %s\n", t.paint(escGreen, "all resources normal"))
		return
	}
	var hot []string
	for _, r := range snap.Readings {
		if r.Level == worst {
			hot = append(hot, fmt.Sprintf("%s %d%%", r.Resource, r.Value))
		}
	}
	line := fmt.Sprintf("%s: %s", worst, strings.Join(hot, ", "))
	fmt.Fprintf(t.out, "\n  status: %s\n", t.paint(t.levelColor(worst), line))
}

func (t *Terminal) levelColor(l status.Level) string {
	switch l {
	case status.Critical:
		return escRed
	case status.Warning:
		return escYellow
	default:
		return escGreen
	}
}

// paint wraps s in an escape sequence when color is on.
func (t *Terminal) paint(code, s string) string {
	if !t.color {
		return s
	}
	return code + s + escReset
}

// bar renders a fixed-width gauge for a 0-100 value.
func bar(value, width int) string {
	filled := value * width / 100
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
