package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/user/autorecon/pkg/baseline"
	"github.com/user/autorecon/pkg/engine"
	"github.com/user/autorecon/pkg/monitor"
)

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Inspect or replace stored baselines",
}

var baselinePathCmd = &cobra.Command{
	Use:   "path <target>",
	Short: "Print where the baseline for a target is stored",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := baselineStore(cmd)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), store.Path(args[0]))
		return nil
	},
}

var baselineShowCmd = &cobra.Command{
	Use:   "show <target>",
	Short: "List the open services recorded in a target's baseline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := baselineStore(cmd)
		if err != nil {
			return err
		}
		return showBaseline(cmd.OutOrStdout(), store, args[0])
	},
}

var baselineSetCmd = &cobra.Command{
	Use:   "set <target> <report.xml>",
	Short: "Replace a target's baseline with a saved scan report",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := baselineStore(cmd)
		if err != nil {
			return err
		}
		// refuse to calibrate from a report that would read as "no data"
		if _, err := engine.ParseReportFile(args[1]); err != nil {
			return &exitError{code: monitor.ExitError, err: err}
		}
		if err := store.SaveFile(args[0], args[1]); err != nil {
			return &exitError{code: monitor.ExitError, err: err}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Baseline updated at %s\n", store.Path(args[0]))
		return nil
	},
}

func showBaseline(w io.Writer, store *baseline.Store, target string) error {
	snap, err := store.Load(target)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Baseline for %s (%s): %d open services\n", target, store.Path(target), snap.Len())
	for _, id := range snap.Strings() {
		fmt.Fprintf(w, "  %s\n", id)
	}
	return nil
}

func baselineStore(cmd *cobra.Command) (*baseline.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	dir := cfg.HistoryDir
	if cmd.Flags().Changed("history-dir") {
		dir, _ = cmd.Flags().GetString("history-dir")
	}
	return baseline.NewStore(dir), nil
}

func init() {
	baselineCmd.PersistentFlags().String("history-dir", "", "Directory baselines are stored in (default from config)")
	baselineCmd.AddCommand(baselinePathCmd)
	baselineCmd.AddCommand(baselineShowCmd)
	baselineCmd.AddCommand(baselineSetCmd)
	rootCmd.AddCommand(baselineCmd)
}
