package wrappers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Ullaakut/nmap/v3"
	"go.uber.org/zap"
)

// NmapScanner runs nmap with service detection and keeps the XML report.
type NmapScanner struct {
	Dir        string
	Ports      string
	BinaryPath string
	Logger     *zap.Logger

	now func() time.Time
}

// NewNmapScanner returns a scanner that writes reports under dir.
func NewNmapScanner(dir, ports, binaryPath string, logger *zap.Logger) *NmapScanner {
	if ports == "" {
		ports = DefaultPorts
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NmapScanner{
		Dir:        dir,
		Ports:      ports,
		BinaryPath: binaryPath,
		Logger:     logger.With(zap.String("component", "nmap")),
		now:        time.Now,
	}
}

func (n *NmapScanner) Name() string {
	return "nmap"
}

// Scan runs `nmap -p <ports> -sV <target>` and writes the XML report.
func (n *NmapScanner) Scan(ctx context.Context, target string) (*Report, error) {
	opts := []nmap.Option{
		nmap.WithTargets(target),
		nmap.WithPorts(n.Ports),
		nmap.WithServiceInfo(),
	}
	if n.BinaryPath != "" {
		opts = append(opts, nmap.WithBinaryPath(n.BinaryPath))
	}

	scanner, err := nmap.NewScanner(ctx, opts...)
	if err != nil {
		if errors.Is(err, nmap.ErrNmapNotInstalled) {
			return nil, fmt.Errorf("%w: %v", ErrScannerUnavailable, err)
		}
		return nil, fmt.Errorf("create nmap scanner: %w", err)
	}

	n.Logger.Info("Starting scan", zap.String("target", target), zap.String("ports", n.Ports))
	result, warnings, err := scanner.Run()
	if warnings != nil && len(*warnings) > 0 {
		n.Logger.Warn("Scan completed with warnings", zap.Strings("warnings", *warnings))
	}
	if err != nil {
		return nil, fmt.Errorf("run nmap: %w", err)
	}

	data, err := io.ReadAll(result.ToReader())
	if err != nil {
		return nil, fmt.Errorf("read nmap output: %w", err)
	}
	report, err := writeReport(n.Dir, target, n.now(), data)
	if err != nil {
		return nil, err
	}
	n.Logger.Info("Scan completed", zap.String("report", report.Path))
	return report, nil
}
