package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/user/autorecon/pkg/engine"
	"github.com/user/autorecon/pkg/monitor"
)

var diffCmd = &cobra.Command{
	Use:   "diff <current.xml> <baseline.xml>",
	Short: "Compare two saved scan reports",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		alert, err := runDiff(cmd.OutOrStdout(), args[0], args[1])
		if err != nil {
			return &exitError{code: monitor.ExitError, err: err}
		}
		if alert {
			return &exitError{code: monitor.ExitAlert}
		}
		return nil
	},
}

// runDiff compares two report files. Either file being unreadable is an
// error, never an empty side of the comparison.
func runDiff(w io.Writer, currentPath, baselinePath string) (bool, error) {
	current, err := engine.ParseReportFile(currentPath)
	if err != nil {
		return false, err
	}
	base, err := engine.ParseReportFile(baselinePath)
	if err != nil {
		return false, err
	}

	diff := engine.Compare(current, base)
	fmt.Fprintf(w, "Open services: %d (baseline %d)\n\n", current.Len(), base.Len())
	printDiff(w, diff)
	return diff.Alert, nil
}

func printDiff(w io.Writer, diff engine.DiffResult) {
	fmt.Fprintf(w, "NEW SERVICES: %d\n", diff.Added.Len())
	for _, id := range diff.Added.Strings() {
		fmt.Fprintf(w, "  [+] %s\n", id)
	}
	fmt.Fprintf(w, "CLOSED SERVICES: %d\n", diff.Removed.Len())
	for _, id := range diff.Removed.Strings() {
		fmt.Fprintf(w, "  [-] %s\n", id)
	}
	if diff.Alert {
		fmt.Fprintln(w, "\nSECURITY ALERT: new services detected.")
	} else {
		fmt.Fprintln(w, "\nNo new services detected.")
	}
}

func init() {
	rootCmd.AddCommand(diffCmd)
}
