package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/autorecon/pkg/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path := cfg.HistoryDB
		if cmd.Flags().Changed("history-db") {
			path, _ = cmd.Flags().GetString("history-db")
		}
		if path == "" {
			return errors.New("no history database configured (set history_db or pass --history-db)")
		}

		target, _ := cmd.Flags().GetString("target")
		limit, _ := cmd.Flags().GetInt("limit")

		store, err := history.Open(path)
		if err != nil {
			return err
		}
		defer store.Close()

		entries, err := store.List(target, limit)
		if err != nil {
			return err
		}
		printHistory(cmd.OutOrStdout(), entries)
		return nil
	},
}

func printHistory(w io.Writer, entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%s  %-15s %-13s open=%d", e.At.Format(time.RFC3339), e.Target, e.Status, e.Open)
		if len(e.Added) > 0 {
			fmt.Fprintf(w, " added=%s", strings.Join(e.Added, ","))
		}
		if len(e.Removed) > 0 {
			fmt.Fprintf(w, " removed=%s", strings.Join(e.Removed, ","))
		}
		fmt.Fprintln(w)
	}
}

func init() {
	historyCmd.Flags().String("history-db", "", "SQLite database with recorded runs (default from config)")
	historyCmd.Flags().StringP("target", "t", "", "Only show runs for this target")
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of runs to show")
	rootCmd.AddCommand(historyCmd)
}
