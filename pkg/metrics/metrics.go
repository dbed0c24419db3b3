// Package metrics exposes per-run drift gauges in the Prometheus text format,
// meant for the node_exporter textfile collector.
//
// Each target gets its own textfile (see TargetPath) because every write
// replaces the whole file; the collector merges all *.prom files in its
// directory.
package metrics

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/user/autorecon/pkg/baseline"
)

const namespace = "autorecon"

// Recorder holds the gauges for one run.
type Recorder struct {
	registry *prometheus.Registry

	openServices    *prometheus.GaugeVec
	addedServices   *prometheus.GaugeVec
	removedServices *prometheus.GaugeVec
	alert           *prometheus.GaugeVec
	lastRun         *prometheus.GaugeVec
	status          *prometheus.GaugeVec
}

// NewRecorder creates a recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		openServices: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_services",
			Help:      "Open services in the most recent scan",
		}, []string{"target"}),
		addedServices: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "added_services",
			Help:      "Services open now but absent from the baseline",
		}, []string{"target"}),
		removedServices: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "removed_services",
			Help:      "Services in the baseline that are no longer open",
		}, []string{"target"}),
		alert: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "alert",
			Help:      "1 if the most recent run raised an alert",
		}, []string{"target"}),
		lastRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the most recent run",
		}, []string{"target"}),
		status: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_status",
			Help:      "1 for the outcome status of the most recent run",
		}, []string{"target", "status"}),
	}
	r.registry.MustRegister(r.openServices, r.addedServices, r.removedServices, r.alert, r.lastRun, r.status)
	return r
}

// Observation is what a single run reports.
type Observation struct {
	Target  string
	Status  string
	Open    int
	Added   int
	Removed int
	Alert   bool
	At      time.Time
}

// Observe records one run.
func (r *Recorder) Observe(o Observation) {
	r.openServices.WithLabelValues(o.Target).Set(float64(o.Open))
	r.addedServices.WithLabelValues(o.Target).Set(float64(o.Added))
	r.removedServices.WithLabelValues(o.Target).Set(float64(o.Removed))
	alert := 0.0
	if o.Alert {
		alert = 1
	}
	r.alert.WithLabelValues(o.Target).Set(alert)
	r.lastRun.WithLabelValues(o.Target).Set(float64(o.At.Unix()))
	r.status.DeletePartialMatch(prometheus.Labels{"target": o.Target})
	r.status.WithLabelValues(o.Target, o.Status).Set(1)
}

// Gatherer exposes the registry, mainly for tests.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteFile writes all metrics to path atomically.
func (r *Recorder) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}

// TargetPath derives the per-target textfile from the configured path:
// "/var/lib/node/autorecon.prom" becomes "/var/lib/node/autorecon_<target>.prom".
func TargetPath(path, target string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		ext = ".prom"
	}
	stem := strings.TrimSuffix(path, filepath.Ext(path))
	return stem + "_" + baseline.SanitizeTarget(target) + ext
}
