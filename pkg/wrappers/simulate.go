package wrappers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const simulatedReport = `<?xml version="1.0" encoding="UTF-8"?>
<nmaprun scanner="nmap" args="nmap -p %[2]s -sV %[1]s" start="%[3]d">
<host>
<status state="up"/>
<address addr="%[1]s" addrtype="ipv4"/>
<ports>
<port protocol="tcp" portid="22"><state state="open" reason="syn-ack"/><service name="ssh" product="OpenSSH" version="8.2p1"/></port>
<port protocol="tcp" portid="80"><state state="open" reason="syn-ack"/><service name="http" product="nginx" version="1.18.0"/></port>
</ports>
</host>
</nmaprun>
`

// SimulatedScanner writes a fixed stand-in report instead of scanning.
// Useful for demos and for hosts without nmap.
type SimulatedScanner struct {
	Dir    string
	Ports  string
	Logger *zap.Logger

	now func() time.Time
}

// NewSimulatedScanner returns a simulated scanner writing under dir.
func NewSimulatedScanner(dir, ports string, logger *zap.Logger) *SimulatedScanner {
	if ports == "" {
		ports = DefaultPorts
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SimulatedScanner{
		Dir:    dir,
		Ports:  ports,
		Logger: logger.With(zap.String("component", "simulator")),
		now:    time.Now,
	}
}

func (s *SimulatedScanner) Name() string {
	return "simulated"
}

func (s *SimulatedScanner) Scan(ctx context.Context, target string) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := s.now()
	data := []byte(fmt.Sprintf(simulatedReport, target, s.Ports, now.Unix()))
	report, err := writeReport(s.Dir, target, now, data)
	if err != nil {
		return nil, err
	}
	s.Logger.Warn("Simulated scan result written", zap.String("target", target), zap.String("report", report.Path))
	return report, nil
}

// FallbackScanner uses Fallback only when Primary's binary is unavailable.
// Any other Primary failure is returned as is.
type FallbackScanner struct {
	Primary  Scanner
	Fallback Scanner
	Logger   *zap.Logger
}

func (f *FallbackScanner) Name() string {
	return f.Primary.Name()
}

func (f *FallbackScanner) Scan(ctx context.Context, target string) (*Report, error) {
	report, err := f.Primary.Scan(ctx, target)
	if err == nil || !isUnavailable(err) {
		return report, err
	}
	if f.Logger != nil {
		f.Logger.Warn("Scanner unavailable, using fallback",
			zap.String("primary", f.Primary.Name()),
			zap.String("fallback", f.Fallback.Name()),
			zap.Error(err))
	}
	return f.Fallback.Scan(ctx, target)
}
