// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rankhist

import (
	"fmt"
	"math"

	"github.com/aclements/go-moremath/stats"
)

// A Summary describes the rank distribution of a set of samples,
// regardless of their x values.
type Summary struct {
	Count   int // samples summarized
	Binned  int // samples counted in the histogram
	Dropped int // samples whose x value was out of range

	MeanRank   float64
	MedianRank float64

	// TopRank is the fraction of samples with rank 0.
	TopRank float64
}

// Summarize summarizes samples and the histogram built from them. The
// statistics are NaN if there are no samples.
func Summarize(samples []Sample, h *Histogram) Summary {
	s := Summary{Count: len(samples), Binned: h.Binned, Dropped: h.Dropped}
	if len(samples) == 0 {
		s.MeanRank, s.MedianRank, s.TopRank = math.NaN(), math.NaN(), math.NaN()
		return s
	}
	ranks := make([]float64, len(samples))
	top := 0
	for i, sm := range samples {
		ranks[i] = float64(sm.Rank)
		if sm.Rank == 0 {
			top++
		}
	}
	sample := stats.Sample{Xs: ranks}
	s.MeanRank = sample.Mean()
	s.MedianRank = sample.Quantile(0.5)
	s.TopRank = float64(top) / float64(len(samples))
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("n=%d binned=%d dropped=%d mean rank=%.4g median rank=%.4g top rank=%.1f%%",
		s.Count, s.Binned, s.Dropped, s.MeanRank, s.MedianRank, 100*s.TopRank)
}
