// hostmon — Local-host resource monitor with alerting, reports and a web dashboard.
// Author: larvik | License: MIT | https://github.com/larvik/hostmon
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/larvik/hostmon/internal/alert"
	"github.com/larvik/hostmon/internal/config"
	"github.com/larvik/hostmon/internal/menu"
	"github.com/larvik/hostmon/internal/metrics"
	"github.com/larvik/hostmon/internal/monitor"
	"github.com/larvik/hostmon/internal/render"
	"github.com/larvik/hostmon/internal/report"
	"github.com/larvik/hostmon/internal/retention"
	"github.com/larvik/hostmon/internal/server"
	"github.com/larvik/hostmon/internal/store"
)

const asciiLogo = `
 ██╗  ██╗ ██████╗ ███████╗████████╗███╗   ███╗ ██████╗ ███╗   ██╗
 ██║  ██║██╔═══██╗██╔════╝╚══██╔══╝████╗ ████║██╔═══██╗████╗  ██║
 ███████║██║   ██║███████╗   ██║   ██╔████╔██║██║   ██║██╔██╗ ██║
 ██╔══██║██║   ██║╚════██║   ██║   ██║╚██╔╝██║██║   ██║██║╚██╗██║
 ██║  ██║╚██████╔╝███████║   ██║   ██║ ╚═╝ ██║╚██████╔╝██║ ╚████║
 ╚═╝  ╚═╝ ╚═════╝ ╚══════╝   ╚═╝   ╚═╝     ╚═╝ ╚═════╝ ╚═╝  ╚═══╝
`

const version = "v0.1.0"

func printBanner(mode string) {
	fmt.Printf("%s\n", asciiLogo)
	fmt.Printf("  ► hostmon %s  |  Author: larvik  |  Mode: %s\n\n", version, mode)
}

// app bundles the subsystems every command wires the same way: state
// directories, config, alert log, history database, sampler and renderer.
type app struct {
	cfg     *config.Config
	paths   config.Paths
	alog    *alert.Log
	st      *store.Store // nil when sqlite is unavailable
	sampler metrics.Sampler
	term    *render.Terminal
}

func newApp() (*app, error) {
	paths, err := config.DefaultPaths()
	if err != nil {
		return nil, err
	}
	if err := paths.Ensure(); err != nil {
		return nil, fmt.Errorf("preparing state directory: %w", err)
	}
	cfg, err := config.Load(paths)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	alog := alert.NewLog(paths.AlertLog())
	for _, w := range cfg.Warnings {
		_ = alog.Warnf("%s", w)
	}

	// History is best-effort: the monitor keeps running on the flat log
	// alone when the database cannot be opened.
	st, err := store.Open(paths.Database())
	if err != nil {
		log.Printf("[main] alert history unavailable: %v", err)
		st = nil
	}

	return &app{
		cfg:     cfg,
		paths:   paths,
		alog:    alog,
		st:      st,
		sampler: metrics.Detect(),
		term:    render.New(os.Stdout),
	}, nil
}

// session builds a monitor from the settings as they stand right now.
// Edits made between sessions take effect on the next one; a running
// session keeps the values it captured.
func (a *app) session() *monitor.Monitor {
	rec := &alert.Recorder{Log: a.alog, Enabled: a.cfg.EnableAlerts}
	if a.st != nil {
		rec.History = a.st
	}
	return monitor.New(a.cfg, a.sampler, a.term, rec)
}

func main() {
	root := &cobra.Command{
		Use:   "hostmon",
		Short: "hostmon — local-host CPU/memory/disk monitor with alerting",
		Long: `hostmon is a single-binary resource monitor for the local machine: it
samples CPU, memory and disk usage with platform-native tools, classifies
readings against configurable thresholds, logs critical alerts and writes
system reports. Run without arguments for the interactive menu.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			printBanner("INTERACTIVE")

			a, err := newApp()
			if err != nil {
				return err
			}
			gen := report.New(a.paths.Reports, a.alog)

			actions := menu.Actions{
				Status: func() error {
					a.term.Status(a.session().Collect())
					return nil
				},
				Monitor: func() error {
					// Ctrl+C stops the loop and falls back to the menu.
					ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
					defer stop()
					return a.session().Run(ctx)
				},
				Report: func() (string, error) {
					return gen.Generate(a.session().Collect())
				},
				Alerts: func(n int) ([]string, error) {
					return a.alog.Tail(n)
				},
			}
			return menu.New(os.Stdin, os.Stdout, a.cfg, actions).Run()
		},
	}

	// ── monitor subcommand ────────────────────────────────────────────────────
	monitorCmd := &cobra.Command{
		Use:   "monitor",
		Short: "Monitor resources continuously until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			printBanner("MONITOR")

			a, err := newApp()
			if err != nil {
				return err
			}

			fmt.Printf("  ✓ Platform:   %s\n", a.sampler.Platform())
			fmt.Printf("  ✓ Interval:   %ds\n", a.cfg.CheckInterval)
			fmt.Printf("  ✓ Thresholds: CPU %d%% | Memory %d%% | Disk %d%%\n",
				a.cfg.CPUThreshold, a.cfg.MemThreshold, a.cfg.DiskThreshold)
			fmt.Printf("  ✓ Alerts:     %t → %s\n\n", a.cfg.EnableAlerts, a.paths.AlertLog())

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			return a.session().Run(ctx)
		},
	}

	// ── status subcommand ─────────────────────────────────────────────────────
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Run one collection pass and print the classified readings",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			a.term.Status(a.session().Collect())
			return nil
		},
	}

	// ── report subcommand ─────────────────────────────────────────────────────
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Write a full system report to the reports directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			path, err := report.New(a.paths.Reports, a.alog).Generate(a.session().Collect())
			if err != nil {
				return fmt.Errorf("generating report: %w", err)
			}
			fmt.Printf("  ✓ Report written: %s\n", path)
			return nil
		},
	}

	// ── alerts subcommand ─────────────────────────────────────────────────────
	alertsCmd := &cobra.Command{
		Use:   "alerts",
		Short: "Show the most recent alert log entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			last, _ := cmd.Flags().GetInt("last")
			lines, err := a.alog.Tail(last)
			if err != nil {
				return fmt.Errorf("reading alert log: %w", err)
			}
			if len(lines) == 0 {
				fmt.Println("  (no alerts recorded)")
				return nil
			}
			for _, line := range lines {
				fmt.Printf("  %s\n", line)
			}
			return nil
		},
	}
	alertsCmd.Flags().Int("last", 20, "Number of alert lines to show")

	// ── settings subcommand ───────────────────────────────────────────────────
	settingsCmd := &cobra.Command{
		Use:   "settings [KEY VALUE]",
		Short: "List settings, or set one (e.g. settings CPU_THRESHOLD 75)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			switch len(args) {
			case 0:
				for _, s := range a.cfg.Keys() {
					fmt.Printf("  %-15s = %s\n", s.Key, s.Value)
				}
				fmt.Printf("\n  config file: %s\n", a.paths.ConfigFile())
				return nil
			case 2:
				if err := a.cfg.Set(args[0], args[1]); err != nil {
					return err
				}
				if err := a.cfg.Save(); err != nil {
					return fmt.Errorf("saving config: %w", err)
				}
				fmt.Printf("  ✓ Saved %s\n", args[0])
				return nil
			default:
				return fmt.Errorf("expected no arguments (list) or KEY VALUE (set)")
			}
		},
	}

	// ── cleanup subcommand ────────────────────────────────────────────────────
	cleanupCmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove reports and rotated logs older than LOG_RETENTION days",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if a.cfg.LogRetention <= 0 {
				fmt.Println("  retention disabled (LOG_RETENTION=0); nothing to do")
				return nil
			}
			var pruner retention.Pruner
			if a.st != nil {
				pruner = a.st
			}
			res, err := retention.Sweep(a.paths, a.cfg.LogRetention, pruner, time.Now())
			if err != nil {
				return fmt.Errorf("sweeping aged artifacts: %w", err)
			}
			fmt.Printf("  ✓ Removed %d aged files, pruned %d history rows (retention: %dd)\n",
				res.FilesRemoved, res.RowsPruned, a.cfg.LogRetention)
			return nil
		},
	}

	// ── serve subcommand ──────────────────────────────────────────────────────
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web dashboard (JWT-protected JSON API + UI)",
		RunE: func(cmd *cobra.Command, args []string) error {
			printBanner("SERVE")

			a, err := newApp()
			if err != nil {
				return err
			}

			gin.SetMode(gin.ReleaseMode)
			var history server.AlertHistory
			if a.st != nil {
				history = a.st
			}
			srv := server.New(a.cfg, a.session(), history, a.alog)

			fmt.Printf("  ✓ Dashboard → http://%s\n", a.cfg.ServeAddr)
			if a.cfg.AdminPass == config.DefaultAdminPass {
				fmt.Printf("  ✓ Default login: %s / %s\n", a.cfg.AdminUser, a.cfg.AdminPass)
			}
			fmt.Println()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			if err := srv.Run(ctx); err != nil {
				return fmt.Errorf("dashboard server: %w", err)
			}
			fmt.Println("\n  → Shut down gracefully")
			return nil
		},
	}

	// ── version subcommand ────────────────────────────────────────────────────
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print hostmon version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("hostmon %s\n", version)
		},
	}

	root.AddCommand(monitorCmd, statusCmd, reportCmd, alertsCmd, settingsCmd,
		cleanupCmd, serveCmd, versionCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
