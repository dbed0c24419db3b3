package wrappers

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/autorecon/pkg/engine"
)

type stubScanner struct {
	name   string
	report *Report
	err    error
	calls  int
}

func (s *stubScanner) Name() string { return s.name }

func (s *stubScanner) Scan(ctx context.Context, target string) (*Report, error) {
	s.calls++
	return s.report, s.err
}

func fixedClock() time.Time {
	return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
}

func TestReportPath(t *testing.T) {
	got := reportPath("scans", "10.0.0.1", fixedClock())
	assert.Equal(t, filepath.Join("scans", "10.0.0.1_2026-03-04_05-06-07.xml"), got)

	subnet := reportPath("scans", "10.0.0.0/24", fixedClock())
	assert.Equal(t, "scans", filepath.Dir(subnet))
	assert.NotContains(t, filepath.Base(subnet), "/")
}

func TestSimulatedScanner(t *testing.T) {
	dir := t.TempDir()
	s := NewSimulatedScanner(dir, "", zap.NewNop())
	s.now = fixedClock

	report, err := s.Scan(context.Background(), "192.168.1.1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "192.168.1.1_2026-03-04_05-06-07.xml"), report.Path)
	assert.Contains(t, string(report.Data), `args="nmap -p 1-1000 -sV 192.168.1.1"`)

	snap, err := engine.ParseReportFile(report.Path)
	require.NoError(t, err)
	assert.Equal(t, []string{"22/ssh", "80/http"}, snap.Strings())
}

func TestSimulatedScanner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSimulatedScanner(t.TempDir(), "", nil).Scan(ctx, "host")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFallbackScanner(t *testing.T) {
	fallbackReport := &Report{Path: "sim.xml"}

	t.Run("primary succeeds", func(t *testing.T) {
		primary := &stubScanner{name: "nmap", report: &Report{Path: "real.xml"}}
		fallback := &stubScanner{name: "simulated", report: fallbackReport}
		f := &FallbackScanner{Primary: primary, Fallback: fallback, Logger: zap.NewNop()}

		r, err := f.Scan(context.Background(), "host")
		require.NoError(t, err)
		assert.Equal(t, "real.xml", r.Path)
		assert.Equal(t, 0, fallback.calls)
	})

	t.Run("binary missing", func(t *testing.T) {
		primary := &stubScanner{name: "nmap", err: ErrScannerUnavailable}
		fallback := &stubScanner{name: "simulated", report: fallbackReport}
		f := &FallbackScanner{Primary: primary, Fallback: fallback}

		r, err := f.Scan(context.Background(), "host")
		require.NoError(t, err)
		assert.Equal(t, "sim.xml", r.Path)
		assert.Equal(t, 1, fallback.calls)
	})

	t.Run("scan failure is not masked", func(t *testing.T) {
		primary := &stubScanner{name: "nmap", err: errors.New("exit status 1")}
		fallback := &stubScanner{name: "simulated", report: fallbackReport}
		f := &FallbackScanner{Primary: primary, Fallback: fallback}

		_, err := f.Scan(context.Background(), "host")
		require.Error(t, err)
		assert.Equal(t, 0, fallback.calls)
	})
}
