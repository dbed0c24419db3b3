package wrappers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/user/autorecon/pkg/baseline"
)

// DefaultPorts is the port range scanned when none is configured.
const DefaultPorts = "1-1000"

const reportTimeLayout = "2006-01-02_15-04-05"

// ErrScannerUnavailable is returned when the scan binary cannot be found.
var ErrScannerUnavailable = errors.New("scanner binary not available")

// Report is one raw scan report written to disk.
type Report struct {
	Path string
	Data []byte
}

// Scanner produces a scan report for a target.
type Scanner interface {
	Name() string
	Scan(ctx context.Context, target string) (*Report, error)
}

// reportPath returns a timestamped report location for target under dir.
func reportPath(dir, target string, now time.Time) string {
	name := fmt.Sprintf("%s_%s.xml", baseline.SanitizeTarget(target), now.Format(reportTimeLayout))
	return filepath.Join(dir, name)
}

func writeReport(dir, target string, now time.Time, data []byte) (*Report, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	path := reportPath(dir, target, now)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}
	return &Report{Path: path, Data: data}, nil
}

func isUnavailable(err error) bool {
	return errors.Is(err, ErrScannerUnavailable)
}
