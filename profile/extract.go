// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package profile

import (
	"github.com/shapebench/charter/rankhist"
	"github.com/shapebench/charter/resultfile"
)

// Samples reads the (x, rank) pair of every record in f, in order.
func (p *Profile) Samples(f *resultfile.File) ([]rankhist.Sample, error) {
	samples := make([]rankhist.Sample, len(f.Results))
	for i := range f.Results {
		r := &f.Results[i]
		if r.FilteredDescriptorRank == nil {
			return nil, &resultfile.FormatError{Path: f.Path, Record: i, Msg: "missing filteredDescriptorRank"}
		}
		x, ok, err := p.X(r)
		if err != nil {
			return nil, &resultfile.FormatError{Path: f.Path, Record: i, Msg: err.Error()}
		}
		samples[i] = rankhist.Sample{X: x, Present: ok, Rank: *r.FilteredDescriptorRank}
	}
	return samples, nil
}

// Options returns the histogram options for charting f under p.
func (p *Profile) Options(f *resultfile.File) rankhist.Options {
	return rankhist.Options{
		XMin:             p.XMin,
		XMax:             p.XMax,
		BinCount:         p.BinCount,
		MinSamplesPerBin: p.MinSamplesPerBin,
		SetSize:          f.SetSize(),
	}
}
