// Package menu implements the interactive control shell: a numbered prompt
// loop over the same operations the subcommands expose.
package menu

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/larvik/hostmon/internal/config"
)

// Actions connects menu choices to the subsystems, keeping the shell
// decoupled from their wiring. Monitor blocks until the session ends.
type Actions struct {
	Status  func() error
	Monitor func() error
	Report  func() (string, error)
	Alerts  func(n int) ([]string, error)
}

// Menu drives the numbered prompt loop.
type Menu struct {
	in      *bufio.Scanner
	out     io.Writer
	cfg     *config.Config
	actions Actions
}

// New builds a menu reading selections from in and writing to out.
func New(in io.Reader, out io.Writer, cfg *config.Config, actions Actions) *Menu {
	return &Menu{in: bufio.NewScanner(in), out: out, cfg: cfg, actions: actions}
}

// Run shows the main menu until the user quits or input ends.
func (m *Menu) Run() error {
	for {
		fmt.Fprint(m.out, "\n  hostmon menu\n")
		fmt.Fprint(m.out, "  ────────────────────────────\n")
		fmt.Fprint(m.out, "  1) show status\n")
		fmt.Fprint(m.out, "  2) start monitoring\n")
		fmt.Fprint(m.out, "  3) generate report\n")
		fmt.Fprint(m.out, "  4) recent alerts\n")
		fmt.Fprint(m.out, "  5) settings\n")
		fmt.Fprint(m.out, "  6) quit\n")

		choice, ok := m.prompt("select")
		if !ok {
			return nil
		}
		switch choice {
		case "1":
			if err := m.actions.Status(); err != nil {
				fmt.Fprintf(m.out, "  status failed: %v\n", err)
			}
		case "2":
			fmt.Fprint(m.out, "  monitoring — Ctrl+C to stop\n")
			if err := m.actions.Monitor(); err != nil {
				fmt.Fprintf(m.out, "  monitoring failed: %v\n", err)
			}
		case "3":
			path, err := m.actions.Report()
			if err != nil {
				fmt.Fprintf(m.out, "  report failed: %v\n", err)
				continue
			}
			fmt.Fprintf(m.out, "  report written: %s\n", path)
		case "4":
			lines, err := m.actions.Alerts(20)
			if err != nil {
				fmt.Fprintf(m.out, "  alerts unavailable: %v\n", err)
				continue
			}
			if len(lines) == 0 {
				fmt.Fprint(m.out, "  no alerts recorded\n")
				continue
			}
			for _, line := range lines {
				fmt.Fprintf(m.out, "  %s\n", line)
			}
		case "5":
			if eof := m.settings(); eof {
				return nil
			}
		case "6", "q", "quit", "exit":
			return nil
		default:
			fmt.Fprint(m.out, "  invalid choice\n")
		}
	}
}

func (m *Menu) prompt(label string) (string, bool) {
	fmt.Fprintf(m.out, "  %s> ", label)
	if !m.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(m.in.Text()), true
}

// settings edits one key at a time; invalid input re-prompts without losing
// the session. Reports true when input ended.
func (m *Menu) settings() bool {
	for {
		keys := m.cfg.Keys()
		fmt.Fprint(m.out, "\n  settings\n")
		for i, s := range keys {
			fmt.Fprintf(m.out, "  %d) %-15s = %s\n", i+1, s.Key, s.Value)
		}
		fmt.Fprintf(m.out, "  %d) back\n", len(keys)+1)

		choice, ok := m.prompt("setting")
		if !ok {
			return true
		}
		if choice == strconv.Itoa(len(keys)+1) || choice == "b" || choice == "back" {
			return false
		}
		idx, err := strconv.Atoi(choice)
		if err != nil || idx < 1 || idx > len(keys) {
			fmt.Fprint(m.out, "  invalid choice\n")
			continue
		}

		key := keys[idx-1].Key
		raw, ok := m.prompt(key)
		if !ok {
			return true
		}
		if err := m.cfg.Set(key, raw); err != nil {
			fmt.Fprintf(m.out, "  rejected: %v\n", err)
			continue
		}
		if err := m.cfg.Save(); err != nil {
			fmt.Fprintf(m.out, "  save failed: %v\n", err)
			continue
		}
		fmt.Fprintf(m.out, "  saved %s = %s\n", key, strings.TrimSpace(raw))
	}
}
