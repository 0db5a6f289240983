// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package archive_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shapebench/charter/archive"
	"github.com/shapebench/charter/archive/archivetest"
	"github.com/shapebench/charter/rankhist"
	"golang.org/x/net/context"
)

func build(t *testing.T, samples []rankhist.Sample) *rankhist.Histogram {
	t.Helper()
	h, err := rankhist.Build(samples, rankhist.Options{XMin: 0, XMax: 1, BinCount: 4, MinSamplesPerBin: 1, SetSize: 100})
	if err != nil {
		t.Fatal(err)
	}
	return h
}

// Most of the archive is exercised by the charter tests; this tests
// the storage layout directly.
func TestInsertChart(t *testing.T) {
	db := archivetest.NewDB(t)
	ctx := context.Background()

	h := build(t, []rankhist.Sample{
		{X: 0.5, Present: true, Rank: 0},
		{X: 0.5, Present: true, Rank: 7},
		{X: 1, Present: true, Rank: 100},
		{X: 2, Present: true, Rank: 3}, // dropped
	})
	id, err := db.InsertChart(ctx, &archive.Entry{
		Experiment: "subtractive-noise-only",
		Method:     "QUICCI",
		Source:     "results/run.json",
		SetSize:    100,
		Hist:       h,
	})
	if err != nil {
		t.Fatal(err)
	}

	bins, err := db.Bins(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	want := []archive.Bin{
		{Band: 0, Bin: 2, X: 0.5, Count: 1, Fraction: 0.5},
		{Band: 1, Bin: 2, X: 0.5, Count: 1, Fraction: 0.5},
		{Band: 2, Bin: 4, X: 1, Count: 1, Fraction: 0},
	}
	if diff := cmp.Diff(want, bins); diff != "" {
		t.Errorf("Bins mismatch (-want +got):\n%s", diff)
	}

	if n, err := db.CountCharts(); err != nil || n != 1 {
		t.Errorf("CountCharts = %d, %v; want 1", n, err)
	}
}

func TestInsertChartManyBins(t *testing.T) {
	db := archivetest.NewDB(t)
	ctx := context.Background()

	// More occupied cells than fit in one INSERT.
	var samples []rankhist.Sample
	for i := 0; i < 150; i++ {
		samples = append(samples, rankhist.Sample{X: (float64(i) + 0.5) / 150, Present: true, Rank: i % 3})
	}
	h, err := rankhist.Build(samples, rankhist.Options{XMin: 0, XMax: 1, BinCount: 150, MinSamplesPerBin: 0, SetSize: 1000})
	if err != nil {
		t.Fatal(err)
	}
	id, err := db.InsertChart(ctx, &archive.Entry{Experiment: "e", Method: "m", SetSize: 1000, Hist: h})
	if err != nil {
		t.Fatal(err)
	}
	bins, err := db.Bins(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(bins) != len(samples) {
		t.Errorf("stored %d bins, want %d", len(bins), len(samples))
	}
	total := 0
	for _, b := range bins {
		total += b.Count
	}
	if total != len(samples) {
		t.Errorf("stored counts sum to %d, want %d", total, len(samples))
	}
}

func TestBinsUnknownChart(t *testing.T) {
	db := archivetest.NewDB(t)
	bins, err := db.Bins(context.Background(), 42)
	if err != nil || len(bins) != 0 {
		t.Errorf("Bins(42) = %v, %v; want none", bins, err)
	}
}
