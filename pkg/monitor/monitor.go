// Package monitor sequences one audit run: acquire a scan, consult the
// baseline, then calibrate, bootstrap, or compare.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/user/autorecon/pkg/engine"
	"github.com/user/autorecon/pkg/history"
	"github.com/user/autorecon/pkg/metrics"
	"github.com/user/autorecon/pkg/wrappers"
)

// ErrAcquisitionFailed is returned when no scan report could be produced.
var ErrAcquisitionFailed = errors.New("scan acquisition failed")

// Exit codes for the calling process.
const (
	ExitOK    = 0
	ExitAlert = 1
	ExitError = 2
)

type Status string

const (
	StatusStable       Status = "stable"
	StatusAlert        Status = "alert"
	StatusCalibrated   Status = "calibrated"
	StatusBootstrapped Status = "bootstrapped"
	// StatusNoData means a report could not be parsed, so nothing was decided.
	StatusNoData Status = "no_data"
)

// BaselineStore is the subset of baseline.Store the monitor needs.
type BaselineStore interface {
	Path(target string) string
	Exists(target string) (bool, error)
	Load(target string) (engine.Snapshot, error)
	Save(target string, report []byte) error
}

// HistorySink records finished runs.
type HistorySink interface {
	Record(e history.Entry) error
}

// Explainer narrates an alerting diff.
type Explainer interface {
	Explain(ctx context.Context, target string, diff engine.DiffResult) (string, error)
}

type Request struct {
	Target    string
	Calibrate bool
}

// Outcome is the result of one run.
type Outcome struct {
	RunID        string
	Target       string
	Status       Status
	// Calibrate echoes the request; with StatusNoData it means calibration was skipped.
	Calibrate    bool
	Scanner      string
	ReportPath   string
	BaselinePath string
	Current      engine.Snapshot
	Baseline     engine.Snapshot
	// Diff is nil unless a comparison ran.
	Diff *engine.DiffResult
	// Cause explains StatusNoData.
	Cause     error
	Narrative string
	At        time.Time
}

// ExitCode maps the outcome onto the process exit contract.
func (o *Outcome) ExitCode() int {
	switch o.Status {
	case StatusAlert:
		return ExitAlert
	case StatusNoData:
		return ExitError
	default:
		return ExitOK
	}
}

type Monitor struct {
	scanner   wrappers.Scanner
	baselines BaselineStore
	logger    *zap.Logger

	metricsFile string
	history     HistorySink
	explainer   Explainer

	now   func() time.Time
	newID func() string
}

type Option func(*Monitor)

// WithMetrics writes run gauges after every run to a per-target textfile
// derived from path (see metrics.TargetPath).
func WithMetrics(path string) Option {
	return func(m *Monitor) { m.metricsFile = path }
}

func WithHistory(h HistorySink) Option {
	return func(m *Monitor) { m.history = h }
}

// WithExplainer asks e for a narrative whenever a run alerts.
func WithExplainer(e Explainer) Option {
	return func(m *Monitor) { m.explainer = e }
}

func New(scanner wrappers.Scanner, baselines BaselineStore, logger *zap.Logger, opts ...Option) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Monitor{
		scanner:   scanner,
		baselines: baselines,
		logger:    logger.With(zap.String("component", "monitor")),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run performs one audit for req.Target.
//
// Calibration always wins over an existing baseline, and a missing baseline
// is bootstrapped without comparing: a first observation is never "new".
// A non-nil error means the run failed outright (acquisition or baseline
// write); otherwise the Outcome's status decides the exit code.
func (m *Monitor) Run(ctx context.Context, req Request) (*Outcome, error) {
	out := &Outcome{
		RunID:        m.newID(),
		Target:       req.Target,
		Calibrate:    req.Calibrate,
		Scanner:      m.scanner.Name(),
		BaselinePath: m.baselines.Path(req.Target),
		At:           m.now(),
	}
	log := m.logger.With(zap.String("run_id", out.RunID), zap.String("target", req.Target))
	log.Info("Starting AutoRecon", zap.String("scanner", out.Scanner))

	report, err := m.scanner.Scan(ctx, req.Target)
	if err != nil {
		log.Error("Scan failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrAcquisitionFailed, err)
	}
	out.ReportPath = report.Path
	log.Info("Scan completed", zap.String("report", report.Path))

	current, err := engine.ParseReportBytes(report.Data)
	if err != nil {
		out.Status = StatusNoData
		out.Cause = err
		log.Warn("Current scan report unreadable, no data to evaluate", zap.Error(err))
		if req.Calibrate {
			log.Warn("Calibration skipped, baseline left unchanged", zap.String("baseline", out.BaselinePath))
		}
		m.finish(ctx, log, out)
		return out, nil
	}
	out.Current = current

	if req.Calibrate {
		log.Info("Running in baseline calibration mode")
		if err := m.baselines.Save(req.Target, report.Data); err != nil {
			log.Error("Baseline update failed", zap.Error(err))
			return nil, err
		}
		out.Status = StatusCalibrated
		log.Info("Baseline updated", zap.String("baseline", out.BaselinePath), zap.Int("open", current.Len()))
		m.finish(ctx, log, out)
		return out, nil
	}

	exists, err := m.baselines.Exists(req.Target)
	if err != nil {
		log.Error("Baseline lookup failed", zap.Error(err))
		return nil, err
	}
	if !exists {
		log.Warn("No baseline found, creating new baseline from current scan", zap.String("baseline", out.BaselinePath))
		if err := m.baselines.Save(req.Target, report.Data); err != nil {
			log.Error("Baseline bootstrap failed", zap.Error(err))
			return nil, err
		}
		out.Status = StatusBootstrapped
		m.finish(ctx, log, out)
		return out, nil
	}

	log.Info("Comparing against baseline", zap.String("baseline", out.BaselinePath))
	base, err := m.baselines.Load(req.Target)
	if err != nil {
		if !errors.Is(err, engine.ErrReportUnreadable) {
			log.Error("Baseline load failed", zap.Error(err))
			return nil, err
		}
		out.Status = StatusNoData
		out.Cause = err
		log.Warn("Stored baseline unreadable, no data to compare against", zap.Error(err))
		m.finish(ctx, log, out)
		return out, nil
	}
	out.Baseline = base

	diff := engine.Compare(current, base)
	out.Diff = &diff
	log.Info("Open services", zap.Int("current", current.Len()), zap.Int("baseline", base.Len()))
	if diff.Removed.Len() > 0 {
		log.Info("Services closed since baseline", zap.Strings("removed", diff.Removed.Strings()))
	}
	if diff.Alert {
		out.Status = StatusAlert
		log.Error("SECURITY ALERT: new services detected", zap.Strings("added", diff.Added.Strings()))
	} else {
		out.Status = StatusStable
		log.Info("No new services detected, infrastructure is stable")
	}

	m.finish(ctx, log, out)
	return out, nil
}

// finish feeds the optional sinks. Their failures never change the outcome.
func (m *Monitor) finish(ctx context.Context, log *zap.Logger, out *Outcome) {
	if out.Status == StatusAlert && m.explainer != nil {
		text, err := m.explainer.Explain(ctx, out.Target, *out.Diff)
		if err != nil {
			log.Warn("Advisor unavailable", zap.Error(err))
		} else {
			out.Narrative = text
		}
	}

	var added, removed []string
	if out.Diff != nil {
		added = out.Diff.Added.Strings()
		removed = out.Diff.Removed.Strings()
	}

	if m.metricsFile != "" {
		recorder := metrics.NewRecorder()
		recorder.Observe(metrics.Observation{
			Target:  out.Target,
			Status:  string(out.Status),
			Open:    out.Current.Len(),
			Added:   len(added),
			Removed: len(removed),
			Alert:   out.Status == StatusAlert,
			At:      out.At,
		})
		if err := recorder.WriteFile(metrics.TargetPath(m.metricsFile, out.Target)); err != nil {
			log.Warn("Metrics not written", zap.Error(err))
		}
	}

	if m.history != nil {
		err := m.history.Record(history.Entry{
			ID:      out.RunID,
			Target:  out.Target,
			Status:  string(out.Status),
			Scanner: out.Scanner,
			Report:  out.ReportPath,
			Open:    out.Current.Len(),
			Added:   added,
			Removed: removed,
			Alert:   out.Status == StatusAlert,
			At:      out.At,
		})
		if err != nil {
			log.Warn("Run history not recorded", zap.Error(err))
		}
	}
}
