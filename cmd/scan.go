package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/autorecon/pkg/advisor"
	"github.com/user/autorecon/pkg/baseline"
	"github.com/user/autorecon/pkg/config"
	"github.com/user/autorecon/pkg/history"
	"github.com/user/autorecon/pkg/monitor"
	"github.com/user/autorecon/pkg/wrappers"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a target and compare it against its baseline",
	Example: `  autorecon scan --target 192.168.1.1
  autorecon scan --target 10.0.0.0/24 --ports 22,80,443 --baseline`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, closeLog, err := setup()
		if err != nil {
			return &exitError{code: monitor.ExitError, err: err}
		}
		defer closeLog()

		flags := cmd.Flags()
		target, _ := flags.GetString("target")
		calibrate, _ := flags.GetBool("baseline")
		simulate, _ := flags.GetBool("simulate")
		explain, _ := flags.GetBool("explain")
		applyScanFlags(cmd, cfg)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var opts []monitor.Option
		if cfg.MetricsFile != "" {
			opts = append(opts, monitor.WithMetrics(cfg.MetricsFile))
		}
		if cfg.HistoryDB != "" {
			h, err := history.Open(cfg.HistoryDB)
			if err != nil {
				logger.Warn("Run history disabled", zap.Error(err))
			} else {
				defer h.Close()
				opts = append(opts, monitor.WithHistory(h))
			}
		}
		if explain {
			p, err := advisor.NewProvider(ctx, cfg.Advisor.Provider, cfg.AdvisorAPIKey(), cfg.Advisor.Model)
			if err != nil {
				logger.Warn("Advisor disabled", zap.Error(err))
			} else {
				if c, ok := p.(io.Closer); ok {
					defer c.Close()
				}
				opts = append(opts, monitor.WithExplainer(advisor.New(p)))
			}
		}

		m := monitor.New(newScanner(cfg, simulate, logger), baseline.NewStore(cfg.HistoryDir), logger, opts...)
		out, err := m.Run(ctx, monitor.Request{Target: target, Calibrate: calibrate})
		if err != nil {
			return &exitError{code: monitor.ExitError, err: err}
		}

		printOutcome(cmd.OutOrStdout(), out)
		if code := out.ExitCode(); code != monitor.ExitOK {
			return &exitError{code: code}
		}
		return nil
	},
}

// applyScanFlags lets explicitly set flags override the config file.
func applyScanFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("ports") {
		cfg.Ports, _ = flags.GetString("ports")
	}
	if flags.Changed("history-dir") {
		cfg.HistoryDir, _ = flags.GetString("history-dir")
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile, _ = flags.GetString("metrics-file")
	}
	if flags.Changed("history-db") {
		cfg.HistoryDB, _ = flags.GetString("history-db")
	}
}

func newScanner(cfg *config.Config, simulate bool, logger *zap.Logger) wrappers.Scanner {
	sim := wrappers.NewSimulatedScanner(cfg.HistoryDir, cfg.Ports, logger)
	if simulate {
		return sim
	}
	nm := wrappers.NewNmapScanner(cfg.HistoryDir, cfg.Ports, cfg.NmapPath, logger)
	if cfg.SimulateOnMissing {
		return &wrappers.FallbackScanner{Primary: nm, Fallback: sim, Logger: logger}
	}
	return nm
}

func printOutcome(w io.Writer, out *monitor.Outcome) {
	fmt.Fprintf(w, "Target:   %s\n", out.Target)
	fmt.Fprintf(w, "Run:      %s\n", out.RunID)
	fmt.Fprintf(w, "Baseline: %s\n", out.BaselinePath)
	fmt.Fprintln(w, "--------------------------------------------------")

	switch out.Status {
	case monitor.StatusCalibrated:
		fmt.Fprintf(w, "CALIBRATED: baseline replaced with %d open services.\n", out.Current.Len())
	case monitor.StatusBootstrapped:
		fmt.Fprintf(w, "BOOTSTRAPPED: no previous baseline, recorded %d open services.\n", out.Current.Len())
	case monitor.StatusNoData:
		if out.Calibrate {
			fmt.Fprintln(w, "CALIBRATION SKIPPED: baseline left unchanged.")
		}
		fmt.Fprintf(w, "NO DATA: %v\n", out.Cause)
	default:
		fmt.Fprintf(w, "Open services: %d (baseline %d)\n\n", out.Current.Len(), out.Baseline.Len())
		printDiff(w, *out.Diff)
		if out.Narrative != "" {
			fmt.Fprintf(w, "\nAdvisor:\n%s\n", out.Narrative)
		}
	}
}

func init() {
	scanCmd.Flags().StringP("target", "t", "", "Target IP, hostname or subnet to scan")
	scanCmd.Flags().StringP("ports", "p", config.DefaultPorts, "Port range to scan")
	scanCmd.Flags().Bool("baseline", false, "Run as baseline scan (overwrite existing)")
	scanCmd.Flags().String("history-dir", config.DefaultHistoryDir, "Directory to store scan artifacts")
	scanCmd.Flags().Bool("simulate", false, "Write a simulated report instead of running nmap")
	scanCmd.Flags().Bool("explain", false, "Ask the configured advisor to explain an alert")
	scanCmd.Flags().String("metrics-file", "", "Write Prometheus metrics to a per-target textfile derived from this path")
	scanCmd.Flags().String("history-db", "", "Record runs in this SQLite database")
	_ = scanCmd.MarkFlagRequired("target")
	rootCmd.AddCommand(scanCmd)
}
