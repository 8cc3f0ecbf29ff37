// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package metrics exports scan results in Prometheus text format so that a
// scheduled scan can feed a node-exporter textfile collector.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kraklabs/scopeprobe/pkg/scanner"
)

const namespace = "scopeprobe"

// Recorder holds the scan metrics on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	Scans        prometheus.Counter
	LinesScanned prometheus.Counter
	Events       *prometheus.CounterVec
	FinalDepth   *prometheus.GaugeVec
	TrackerArmed *prometheus.GaugeVec
}

// NewRecorder creates a Recorder with all collectors registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		Scans: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_total",
			Help:      "Number of completed scans.",
		}),
		LinesScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_scanned_total",
			Help:      "Number of lines processed across all scans.",
		}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Diagnostics emitted, by kind.",
		}, []string{"kind"}),
		FinalDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "final_depth",
			Help:      "Brace depth at end of the last scan of a file.",
		}, []string{"path"}),
		TrackerArmed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tracker_armed",
			Help:      "1 if the tracked definition was still open at end of file.",
		}, []string{"path"}),
	}

	r.registry.MustRegister(r.Scans, r.LinesScanned, r.Events, r.FinalDepth, r.TrackerArmed)

	// Pre-create the kind series so that zero counts are exported.
	for _, kind := range []scanner.EventKind{scanner.EventClose, scanner.EventDefinition, scanner.EventUsage} {
		r.Events.WithLabelValues(kind.String())
	}
	return r
}

// Registry returns the registry backing this recorder.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Observe records a completed scan.
func (r *Recorder) Observe(res scanner.Result) {
	r.Scans.Inc()
	r.LinesScanned.Add(float64(res.Lines))
	for _, ev := range res.Events {
		r.Events.WithLabelValues(ev.Kind.String()).Inc()
	}
	r.FinalDepth.WithLabelValues(res.Path).Set(float64(res.FinalDepth))
	armed := 0.0
	if res.Armed != nil {
		armed = 1
	}
	r.TrackerArmed.WithLabelValues(res.Path).Set(armed)
}

// WriteTextfile writes all metrics to path in the Prometheus text format.
// The file is written to a temporary name and renamed into place.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
