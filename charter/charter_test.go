// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package charter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shapebench/charter/archive/archivetest"
	"github.com/shapebench/charter/chart"
	"github.com/shapebench/charter/profile"
	"github.com/shapebench/charter/report"
)

// fakeRenderer records the figures it is asked to draw.
type fakeRenderer struct {
	figs []*chart.Figure
	fail bool
}

func (r *fakeRenderer) Ext() string { return "txt" }

func (r *fakeRenderer) Render(w io.Writer, fig *chart.Figure) error {
	r.figs = append(r.figs, fig)
	fmt.Fprintf(w, "%s\n", fig.Title)
	if r.fail {
		return errors.New("out of ink")
	}
	return nil
}

// writeResults writes a result file for experiment and method to
// dir/name. Each rank gets a sample with x value x.
func writeResults(t *testing.T, dir, name, experiment, method string, x float64, ranks ...int) {
	t.Helper()
	var results []map[string]interface{}
	for _, r := range ranks {
		results = append(results, map[string]interface{}{
			"filteredDescriptorRank":    r,
			"fractionSurfacePartiality": x,
			"fractionAddedNoise":        x,
			"filterOutput": map[string]interface{}{
				"normal-noise-deviationAngle":   x,
				"support-radius-scale-factor":   x,
				"normal-noise-unrelated-output": "x",
			},
		})
	}
	doc := map[string]interface{}{
		"experiment": map[string]interface{}{"index": 0},
		"configuration": map[string]interface{}{
			"experimentsToRun": []map[string]interface{}{{"name": experiment}},
			"filterSettings": map[string]interface{}{
				"normalVectorNoise":      map[string]interface{}{"maxAngleDeviationDegrees": 90},
				"supportRadiusDeviation": map[string]interface{}{"maxRadiusDeviation": 0.5},
			},
			"commonExperimentSettings": map[string]interface{}{"representativeSetSize": 1000},
		},
		"method":  map[string]interface{}{"name": method},
		"results": results,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0666); err != nil {
		t.Fatal(err)
	}
}

func manyRanks(n int) []int {
	ranks := make([]int, n)
	for i := range ranks {
		ranks[i] = i % 20
	}
	return ranks
}

func TestRun(t *testing.T) {
	in, out := t.TempDir(), filepath.Join(t.TempDir(), "charts", "nested")
	writeResults(t, in, "b.json", "subtractive-noise-only", "SHOT", 0.5, manyRanks(60)...)
	writeResults(t, in, "a.json", "additive-noise-only", "QUICCI", 2.5, 0, 5, 1000)
	if err := os.WriteFile(filepath.Join(in, "notes.txt"), []byte("not a result"), 0666); err != nil {
		t.Fatal(err)
	}

	var logBuf bytes.Buffer
	r := new(fakeRenderer)
	outcome, err := Run(context.Background(), Options{
		ResultsDir: in,
		Dest:       out,
		Renderer:   r,
		Mode:       profile.ModeAuto,
		Log:        log.New(&logBuf, "", 0),
	})
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, c := range outcome.Charts {
		names = append(names, c.Name)
	}
	want := []string{"additive-noise-only-QUICCI.txt", "subtractive-noise-only-SHOT.txt"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("charts (-want +got):\n%s", diff)
	}
	for _, name := range want {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("chart not written: %v", err)
		}
	}
	if outcome.Index != "" {
		t.Errorf("index written without being requested")
	}

	// Check the layout of the subtractive noise chart.
	fig := r.figs[1]
	if fig.Title != "SHOT" || fig.XLabel != "Fraction of surface remaining" || fig.YLabel != "Image rank" {
		t.Errorf("titles %q, %q, %q", fig.Title, fig.XLabel, fig.YLabel)
	}
	if len(fig.X) != 151 || fig.X[0] != 0 || fig.X[150] != 1 {
		t.Errorf("x axis has %d points from %v", len(fig.X), fig.X[0])
	}
	var labels []string
	for _, s := range fig.Series {
		labels = append(labels, s.Label)
	}
	if diff := cmp.Diff([]string{"0", "1 - 10", "11 - 100", "101 - 1000"}, labels); diff != "" {
		t.Errorf("band labels (-want +got):\n%s", diff)
	}
	// 60 samples at x=0.5: 3 with rank 0, 30 in 1-10, 27 in 11-100.
	wantY := []float64{3.0 / 60, 30.0 / 60, 27.0 / 60, 0}
	for b, s := range fig.Series {
		if s.Y[75] != wantY[b] {
			t.Errorf("band %s at x=0.5 is %v, want %v", s.Label, s.Y[75], wantY[b])
		}
	}

	// Three samples are too few to be drawn.
	for _, s := range r.figs[0].Series {
		for _, y := range s.Y {
			if y != 0 {
				t.Fatalf("sparse chart has nonzero fraction in band %s", s.Label)
			}
		}
	}
	if s := outcome.Charts[0].Summary; s.Count != 3 || math.Abs(s.MedianRank-5) > 1e-9 {
		t.Errorf("summary %v", s)
	}

	logs := logBuf.String()
	for _, want := range []string{"Found 2 result files", "Loading file: a.json", "Loading file: b.json"} {
		if !strings.Contains(logs, want) {
			t.Errorf("log does not contain %q:\n%s", want, logs)
		}
	}
	if strings.Contains(logs, "warning") {
		t.Errorf("unexpected warning:\n%s", logs)
	}
}

func TestRunSoft(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "results.json")
	if err := os.WriteFile(file, nil, 0666); err != nil {
		t.Fatal(err)
	}
	empty := filepath.Join(dir, "empty")
	if err := os.Mkdir(empty, 0777); err != nil {
		t.Fatal(err)
	}

	check := func(resultsDir string, want error, wantLog string, wantOutput bool) {
		t.Helper()
		var logBuf bytes.Buffer
		out := filepath.Join(t.TempDir(), "out")
		_, err := Run(context.Background(), Options{
			ResultsDir: resultsDir,
			Dest:       out,
			Renderer:   new(fakeRenderer),
			Log:        log.New(&logBuf, "", 0),
		})
		if !errors.Is(err, want) || !IsSoft(err) {
			t.Errorf("Run(%s) = %v, want %v", resultsDir, err, want)
		}
		if !strings.Contains(logBuf.String(), wantLog) {
			t.Errorf("log %q does not contain %q", logBuf.String(), wantLog)
		}
		if _, err := os.Stat(out); (err == nil) != wantOutput {
			t.Errorf("output directory exists = %v, want %v", err == nil, wantOutput)
		}
	}
	check(filepath.Join(dir, "missing"), ErrNoResultsDir, "does not exist", false)
	check(file, ErrNotDir, "is not a directory", false)
	// The output directory is created before the result files are
	// counted.
	check(empty, ErrNoResultFiles, "were found", true)

	if IsSoft(errors.New("boom")) || IsSoft(nil) {
		t.Errorf("IsSoft reports true for a hard error")
	}
}

func TestRunUnrecognizedExperiment(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeResults(t, in, "a.json", "additive-noise-only", "QUICCI", 1, 0)
	writeResults(t, in, "b.json", "thermal-noise-only", "QUICCI", 1, 0)
	writeResults(t, in, "c.json", "normal-noise-only", "QUICCI", 1, 0)
	outcome, err := Run(context.Background(), Options{ResultsDir: in, Dest: out, Renderer: new(fakeRenderer)})
	var ue *profile.UnrecognizedExperimentError
	if !errors.As(err, &ue) || IsSoft(err) {
		t.Fatalf("got %v, want *profile.UnrecognizedExperimentError", err)
	}
	if !strings.Contains(err.Error(), "b.json") {
		t.Errorf("error %q does not name the file", err)
	}
	// The batch stops at the bad file.
	if len(outcome.Charts) != 1 {
		t.Errorf("got %d charts, want 1", len(outcome.Charts))
	}
	if _, err := os.Stat(filepath.Join(out, "normal-noise-only-QUICCI.txt")); err == nil {
		t.Errorf("chart written after a failed file")
	}
}

func TestRunRankOutOfRange(t *testing.T) {
	in := t.TempDir()
	writeResults(t, in, "a.json", "additive-noise-only", "QUICCI", 1, 0, 1001)
	_, err := Run(context.Background(), Options{ResultsDir: in, Dest: t.TempDir(), Renderer: new(fakeRenderer)})
	if err == nil || IsSoft(err) || !strings.Contains(err.Error(), "rank 1001") {
		t.Errorf("got %v, want rank error", err)
	}
}

func TestRunRenderError(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeResults(t, in, "a.json", "additive-noise-only", "QUICCI", 1, 0)
	_, err := Run(context.Background(), Options{ResultsDir: in, Dest: out, Renderer: &fakeRenderer{fail: true}})
	if err == nil || !strings.Contains(err.Error(), "out of ink") {
		t.Fatalf("got %v, want render error", err)
	}
	ents, err := os.ReadDir(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(ents) != 0 {
		t.Errorf("output holds %d entries after a failed render, want 0", len(ents))
	}
}

func TestRunModeMismatch(t *testing.T) {
	in := t.TempDir()
	writeResults(t, in, "a.json", "additive-noise-only", "QUICCI", 1, 0)

	run := func(mode profile.Mode) (*chart.Figure, string) {
		var logBuf bytes.Buffer
		r := new(fakeRenderer)
		_, err := Run(context.Background(), Options{
			ResultsDir: in,
			Dest:       t.TempDir(),
			Renderer:   r,
			Mode:       mode,
			Log:        log.New(&logBuf, "", 0),
		})
		if err != nil {
			t.Fatal(err)
		}
		return r.figs[0], logBuf.String()
	}
	autoFig, _ := run(profile.ModeAuto)
	fig, logs := run(profile.ModeNormal)
	if !strings.Contains(logs, "warning") || !strings.Contains(logs, "mode normal") {
		t.Errorf("no mode warning in log:\n%s", logs)
	}
	if diff := cmp.Diff(autoFig, fig); diff != "" {
		t.Errorf("mode changed the chart (-auto +normal):\n%s", diff)
	}
}

func TestRunArchiveAndIndex(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeResults(t, in, "a.json", "subtractive-noise-only", "QUICCI", 0.5, manyRanks(60)...)
	writeResults(t, in, "b.json", "normal-noise-only", "<SHOT>", 45, 0, 1, 2)

	db := archivetest.NewDB(t)
	ctx := context.Background()
	outcome, err := Run(ctx, Options{
		ResultsDir: in,
		Dest:       out,
		Renderer:   new(fakeRenderer),
		Archive:    db,
		Index:      true,
	})
	if err != nil {
		t.Fatal(err)
	}

	if n, err := db.CountCharts(); err != nil || n != 2 {
		t.Errorf("CountCharts = %d, %v; want 2", n, err)
	}
	bins, err := db.Bins(ctx, outcome.Charts[0].ArchiveID)
	if err != nil {
		t.Fatal(err)
	}
	total := 0
	for _, b := range bins {
		total += b.Count
		if b.Bin != 75 {
			t.Errorf("archived sample in bin %d, want 75", b.Bin)
		}
	}
	if total != 60 {
		t.Errorf("archived %d samples, want 60", total)
	}

	if outcome.Index != report.IndexName {
		t.Errorf("Index = %q, want %q", outcome.Index, report.IndexName)
	}
	html, err := os.ReadFile(filepath.Join(out, report.IndexName))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"subtractive-noise-only-QUICCI.txt", "&lt;SHOT&gt;", "a.json"} {
		if !bytes.Contains(html, []byte(want)) {
			t.Errorf("index does not contain %q", want)
		}
	}
}

func TestRunPlotter(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeResults(t, in, "a.json", "support-radius-deviation-only", "SI", 1.25, manyRanks(60)...)
	p, err := chart.NewPlotter(chart.DefaultStyle)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Run(context.Background(), Options{ResultsDir: in, Dest: out, Renderer: p}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(out, "support-radius-deviation-only-SI.pdf"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Errorf("chart is not a PDF")
	}
}

func TestOpenOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "new")
	fs, err := OpenOutput(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	if fs == nil {
		t.Fatal("OpenOutput returned nil FS")
	}
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		t.Errorf("output directory not created: %v", err)
	}
	if _, err := OpenOutput(context.Background(), "gs:///prefix"); err == nil {
		t.Errorf("OpenOutput accepted a location without a bucket")
	}
}
