// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/scopeprobe/pkg/scanner"
)

func sampleResult() scanner.Result {
	return scanner.Result{
		Path:       "index.ts",
		Lines:      12,
		FinalDepth: 1,
		Events: []scanner.Event{
			{Kind: scanner.EventDefinition, Line: 2, Depth: 1},
			{Kind: scanner.EventUsage, Line: 4, Depth: 2},
			{Kind: scanner.EventUsage, Line: 8, Depth: 2},
		},
		Armed: &scanner.Definition{Depth: 1, Line: 2},
	}
}

func TestRecorder_Observe(t *testing.T) {
	r := NewRecorder()
	r.Observe(sampleResult())
	r.Observe(scanner.Result{Path: "index.ts", Lines: 3})

	assert.Equal(t, 2.0, testutil.ToFloat64(r.Scans))
	assert.Equal(t, 15.0, testutil.ToFloat64(r.LinesScanned))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.Events.WithLabelValues("usage")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Events.WithLabelValues("definition")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.Events.WithLabelValues("close")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.FinalDepth.WithLabelValues("index.ts")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.TrackerArmed.WithLabelValues("index.ts")))
}

func TestRecorder_RegistryGathersAllSeries(t *testing.T) {
	r := NewRecorder()
	r.Observe(sampleResult())

	// 2 counters, 3 pre-created kinds, one path each for the two gauges.
	n, err := testutil.GatherAndCount(r.Registry())
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	families, err := r.Registry().Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	assert.ElementsMatch(t, []string{
		"scopeprobe_scans_total",
		"scopeprobe_lines_scanned_total",
		"scopeprobe_events_total",
		"scopeprobe_final_depth",
		"scopeprobe_tracker_armed",
	}, names)
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.Observe(sampleResult())

	path := filepath.Join(t.TempDir(), "scopeprobe.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "scopeprobe_lines_scanned_total 12")
	assert.Contains(t, text, `scopeprobe_events_total{kind="usage"} 2`)
	assert.Contains(t, text, `scopeprobe_events_total{kind="close"} 0`)
	assert.Contains(t, text, `scopeprobe_tracker_armed{path="index.ts"} 1`)
}

func TestRecorder_WriteTextfileBadDir(t *testing.T) {
	r := NewRecorder()
	err := r.WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write metrics textfile")
}
