// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package charter turns a directory of ShapeBench result files into
// rank histogram charts, one per file.
package charter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"

	"github.com/shapebench/charter/archive"
	"github.com/shapebench/charter/chart"
	"github.com/shapebench/charter/outfs"
	"github.com/shapebench/charter/profile"
	"github.com/shapebench/charter/rankhist"
	"github.com/shapebench/charter/report"
	"github.com/shapebench/charter/resultfile"
	"google.golang.org/api/option"
)

// Conditions under which Run does nothing. They are not failures of
// the input files; see IsSoft.
var (
	ErrNoResultsDir  = resultfile.ErrNotExist
	ErrNotDir        = resultfile.ErrNotDir
	ErrNoResultFiles = errors.New("no result files found")
)

// IsSoft reports whether err means Run found nothing to chart.
func IsSoft(err error) bool {
	return errors.Is(err, ErrNoResultsDir) || errors.Is(err, ErrNotDir) || errors.Is(err, ErrNoResultFiles)
}

// Options configures Run.
type Options struct {
	// ResultsDir is the directory holding the result files.
	ResultsDir string

	// Pattern selects result files within ResultsDir. The default
	// is resultfile.DefaultPattern.
	Pattern string

	// Output receives the charts. If nil, Run opens Dest with
	// OpenOutput once ResultsDir has been checked, passing it
	// ClientOptions.
	Output        outfs.FS
	Dest          string
	ClientOptions []option.ClientOption

	// Renderer draws the charts.
	Renderer chart.Renderer

	// Mode is the experiment kind the caller expects. Charts are
	// always laid out for the experiment recorded in each file; a
	// file of another kind only produces a warning.
	Mode profile.Mode

	// Archive, if not nil, receives every histogram.
	Archive *archive.DB

	// Index requests an HTML index of the charts, written to Output
	// as report.IndexName.
	Index bool

	// Log receives progress messages and warnings. If nil, they
	// are discarded.
	Log *log.Logger
}

// An Outcome describes the charts written by Run.
type Outcome struct {
	Charts []Chart

	// Index is the object name of the index page, or "" if none
	// was written.
	Index string
}

// A Chart is one chart written by Run.
type Chart struct {
	Source  string // path of the result file
	Name    string // object name in the output
	Profile *profile.Profile
	Hist    *rankhist.Histogram
	Summary rankhist.Summary

	// ArchiveID is the chart's ID in Options.Archive, or 0.
	ArchiveID int64
}

// Run charts every result file in opts.ResultsDir, in sorted order.
//
// If the results directory is missing, is not a directory, or holds no
// result files, Run logs why and returns an error for which IsSoft
// reports true. Any other error stops the batch; charts already written
// stay in place.
func Run(ctx context.Context, opts Options) (*Outcome, error) {
	logger := opts.Log
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	pattern := opts.Pattern
	if pattern == "" {
		pattern = resultfile.DefaultPattern
	}

	paths, err := resultfile.List(opts.ResultsDir, pattern)
	switch {
	case errors.Is(err, ErrNoResultsDir):
		logger.Printf("The specified directory '%s' does not exist.", opts.ResultsDir)
		return nil, err
	case errors.Is(err, ErrNotDir):
		logger.Printf("The specified directory '%s' is not a directory. You need to specify the directory rather than individual JSON files.", opts.ResultsDir)
		return nil, err
	case err != nil:
		return nil, err
	}

	out := opts.Output
	if out == nil {
		out, err = OpenOutput(ctx, opts.Dest, opts.ClientOptions...)
		if err != nil {
			return nil, fmt.Errorf("opening output: %w", err)
		}
		if c, ok := out.(io.Closer); ok {
			defer c.Close()
		}
	}

	if len(paths) == 0 {
		logger.Printf("No files matching %q were found in this directory. Aborting.", pattern)
		return nil, fmt.Errorf("%s: %w", opts.ResultsDir, ErrNoResultFiles)
	}
	logger.Printf("Found %d result files", len(paths))

	r := &runner{opts: &opts, out: out, log: logger, written: make(map[string]string)}
	outcome := new(Outcome)
	files := &resultfile.Files{Paths: paths}
	for files.Scan() {
		logger.Printf("    Loading file: %s", filepath.Base(files.Path()))
		c, err := r.chartFile(ctx, files.File())
		if err != nil {
			return outcome, err
		}
		outcome.Charts = append(outcome.Charts, *c)
	}
	if err := files.Err(); err != nil {
		return outcome, err
	}

	if opts.Index {
		if err := r.writeIndex(ctx, outcome); err != nil {
			return outcome, err
		}
		outcome.Index = report.IndexName
	}
	return outcome, nil
}

type runner struct {
	opts *Options
	out  outfs.FS
	log  *log.Logger

	// written maps chart names to the result file they came from.
	written map[string]string
}

func (r *runner) chartFile(ctx context.Context, f *resultfile.File) (*Chart, error) {
	p, err := profile.Resolve(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Path, err)
	}
	if !r.opts.Mode.Matches(p.Kind) {
		r.log.Printf("warning: %s: mode %s does not match experiment %s; charting as %s", f.Path, r.opts.Mode, p.Experiment, p.Kind)
	}
	samples, err := p.Samples(f)
	if err != nil {
		return nil, err
	}
	h, err := rankhist.Build(samples, p.Options(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Path, err)
	}

	name := p.Name() + "." + r.opts.Renderer.Ext()
	if prev, ok := r.written[name]; ok {
		r.log.Printf("warning: %s replaces %s from %s", f.Path, name, prev)
	}
	metadata := map[string]string{
		"experiment": p.Experiment,
		"method":     p.Method,
		"source":     filepath.Base(f.Path),
	}
	if err := r.write(ctx, name, metadata, func(w io.Writer) error {
		return r.opts.Renderer.Render(w, Figure(p, h))
	}); err != nil {
		return nil, fmt.Errorf("%s: writing %s: %w", f.Path, name, err)
	}
	r.written[name] = f.Path

	c := &Chart{
		Source:  f.Path,
		Name:    name,
		Profile: p,
		Hist:    h,
		Summary: rankhist.Summarize(samples, h),
	}
	if r.opts.Archive != nil {
		c.ArchiveID, err = r.opts.Archive.InsertChart(ctx, &archive.Entry{
			Experiment: p.Experiment,
			Method:     p.Method,
			Source:     f.Path,
			SetSize:    f.SetSize(),
			Hist:       h,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: archiving: %w", f.Path, err)
		}
	}
	r.log.Printf("    %s: %v", name, c.Summary)
	return c, nil
}

// write creates the object name and fills it with body. A failed object
// is discarded.
func (r *runner) write(ctx context.Context, name string, metadata map[string]string, body func(w io.Writer) error) error {
	w, err := r.out.NewWriter(ctx, name, metadata)
	if err != nil {
		return err
	}
	if err := body(w); err != nil {
		w.CloseWithError(err)
		return err
	}
	return w.Close()
}

func (r *runner) writeIndex(ctx context.Context, outcome *Outcome) error {
	idx := &report.Index{Title: "ShapeBench results: " + r.opts.ResultsDir}
	for _, c := range outcome.Charts {
		idx.Add(report.Entry{
			Experiment: c.Profile.Experiment,
			Method:     c.Profile.Method,
			File:       c.Name,
			Source:     filepath.Base(c.Source),
			Summary:    c.Summary,
		})
	}
	err := r.write(ctx, report.IndexName, nil, func(w io.Writer) error {
		return report.Write(w, idx)
	})
	if err != nil {
		return fmt.Errorf("writing %s: %w", report.IndexName, err)
	}
	return nil
}

// Figure lays out histogram h as a stacked chart titled by p. Each rank
// band becomes one series, best ranks at the bottom.
func Figure(p *profile.Profile, h *rankhist.Histogram) *chart.Figure {
	fig := &chart.Figure{
		Title:  p.Title,
		XLabel: p.XTitle,
		YLabel: p.YTitle,
		X:      h.X,
	}
	for b, label := range h.Labels {
		fig.Series = append(fig.Series, chart.Series{Label: label, Y: h.Fractions[b]})
	}
	return fig
}
