package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/autorecon/pkg/config"
	"github.com/user/autorecon/pkg/logging"
	"github.com/user/autorecon/pkg/monitor"
)

var rootCmd = &cobra.Command{
	Use:   "autorecon",
	Short: "Detect unexpected changes to a host's exposed network services",
	Long: `AutoRecon scans a target, compares its open services against a trusted
baseline, and exits non-zero when new services appear. Intended for cron
and CI/CD audits.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	DebugMode  bool
	ConfigPath string
)

// exitError carries a specific process exit code up to Execute.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// Execute runs the root command and returns the process exit code.
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return monitor.ExitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintln(os.Stderr, "Error:", ee.err)
		}
		return ee.code
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	return monitor.ExitError
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&DebugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&ConfigPath, "config", "", "Config file (default ~/.autorecon/config.yaml)")
}

// setup loads configuration and builds the logger shared by a command's components.
func setup() (*config.Config, *zap.Logger, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	logger, closeFn, err := logging.New(logging.Options{Debug: DebugMode, File: cfg.LogFile})
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, closeFn, nil
}
