// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rankhist builds stacked histograms of descriptor ranks.
//
// A stacked histogram bins samples along a linear x axis and, within
// each x bin, by the decade of their rank: rank 0, ranks 1–10, 11–100,
// and so on up to the representative set size. Each x bin is then
// normalized independently so its bands sum to 1, or zeroed entirely if
// it holds too few samples to be meaningful.
package rankhist

import (
	"fmt"
	"math"
	"strconv"

	"github.com/aclements/go-moremath/vec"
)

// A Sample is one (x, rank) observation.
type Sample struct {
	// X is the experiment-specific x value. It is only meaningful if
	// Present is set; absent values are binned as 0.
	X       float64
	Present bool

	// Rank is the rank of the correct match, in [0, SetSize].
	Rank int
}

// Options configures Build.
type Options struct {
	// XMin and XMax bound the x axis. Samples outside [XMin, XMax]
	// are dropped.
	XMin, XMax float64

	// BinCount is the number of x bins. The histogram has
	// BinCount+1 columns: the last holds samples exactly at XMax.
	BinCount int

	// MinSamplesPerBin is the number of samples a column must
	// exceed to be normalized rather than zeroed.
	MinSamplesPerBin int

	// SetSize is the representative set size, the worst possible
	// rank. It determines the number of rank bands.
	SetSize int
}

func (o *Options) validate() error {
	switch {
	case !(o.XMin < o.XMax):
		return fmt.Errorf("rankhist: empty x range [%v, %v]", o.XMin, o.XMax)
	case o.BinCount <= 0:
		return fmt.Errorf("rankhist: bin count %d must be positive", o.BinCount)
	case o.MinSamplesPerBin < 0:
		return fmt.Errorf("rankhist: negative minimum samples per bin %d", o.MinSamplesPerBin)
	case o.SetSize <= 0:
		return fmt.Errorf("rankhist: set size %d must be positive", o.SetSize)
	}
	return nil
}

// A Histogram is a stacked rank histogram.
type Histogram struct {
	// X holds the BinCount+1 sample points of the x axis, evenly
	// spaced from XMin to XMax inclusive.
	X []float64

	// Labels names each rank band.
	Labels []string

	// Counts[band][bin] is the number of samples in each cell.
	Counts [][]int

	// Fractions[band][bin] is Counts normalized per column. A
	// column whose total count is at most MinSamplesPerBin is all
	// zeros; any other column sums to 1.
	Fractions [][]float64

	// Binned is the number of samples counted in the histogram, and
	// Dropped the number whose x value was out of range.
	Binned, Dropped int
}

// A RankError reports a sample whose rank lies outside [0, SetSize].
type RankError struct {
	Index   int // index of the sample
	Rank    int
	SetSize int
}

func (e *RankError) Error() string {
	return fmt.Sprintf("sample %d: rank %d outside [0, %d]", e.Index, e.Rank, e.SetSize)
}

// BandCount returns the number of rank bands for a representative set of
// size setSize, which is floor(log10(setSize)) + 1.
func BandCount(setSize int) int {
	n := 1
	for s := setSize; s >= 10; s /= 10 {
		n++
	}
	return n
}

// Band returns the band index of rank in a histogram over a set of size
// setSize. Band 0 holds rank 0 and band i ≥ 1 holds ranks
// 10^(i-1)+1 through 10^i. The last band also holds every larger rank,
// so rank == setSize always lands in band BandCount(setSize)-1.
func Band(rank, setSize int) int {
	if rank <= 0 {
		return 0
	}
	// The smallest b ≥ 1 with rank ≤ 10^b is the digit count of rank-1.
	b := 1
	for s := rank - 1; s >= 10; s /= 10 {
		b++
	}
	if last := BandCount(setSize) - 1; b > last {
		b = last
	}
	return b
}

// BandLabels returns the names of the rank bands for a set of size
// setSize: "0", "1 - 10", "11 - 100", and so on. If setSize is not a
// power of ten, the last band's upper bound is setSize.
func BandLabels(setSize int) []string {
	n := BandCount(setSize)
	labels := make([]string, n)
	pow := 1 // 10^(i-1)
	for i := range labels {
		switch i {
		case 0:
			labels[i] = "0"
		case 1:
			labels[i] = "1 - 10"
		default:
			labels[i] = strconv.Itoa(pow+1) + " - " + strconv.Itoa(pow*10)
		}
		if i > 0 {
			pow *= 10
		}
	}
	// pow is now 10^(n-1), the nominal upper bound of the last band.
	switch last := n - 1; {
	case last == 0:
		// Every nonzero rank shares band 0 with rank 0.
		labels[0] = "0 - " + strconv.Itoa(setSize)
	case pow != setSize:
		lo := pow/10 + 1
		if last == 1 {
			lo = 1
		}
		labels[last] = strconv.Itoa(lo) + " - " + strconv.Itoa(setSize)
	}
	return labels
}

// Build bins samples into a normalized stacked histogram.
//
// Samples without an x value are binned as if x were 0. Samples whose x
// value lies outside [opt.XMin, opt.XMax] are dropped and counted in
// Histogram.Dropped. Build returns a *RankError if any sample's rank is
// outside [0, opt.SetSize].
func Build(samples []Sample, opt Options) (*Histogram, error) {
	if err := opt.validate(); err != nil {
		return nil, err
	}
	bands := BandCount(opt.SetSize)
	cols := opt.BinCount + 1
	h := &Histogram{
		X:         vec.Linspace(opt.XMin, opt.XMax, cols),
		Labels:    BandLabels(opt.SetSize),
		Counts:    make([][]int, bands),
		Fractions: make([][]float64, bands),
	}
	for b := range h.Counts {
		h.Counts[b] = make([]int, cols)
		h.Fractions[b] = make([]float64, cols)
	}

	width := opt.XMax - opt.XMin
	for i, s := range samples {
		if s.Rank < 0 || s.Rank > opt.SetSize {
			return nil, &RankError{i, s.Rank, opt.SetSize}
		}
		x := s.X
		if !s.Present {
			x = 0
		}
		if !(x >= opt.XMin && x <= opt.XMax) { // also catches NaN
			h.Dropped++
			continue
		}
		// Scale by the whole range rather than dividing by the bin
		// width so that exact fractions of the range stay exact.
		bin := int(math.Floor((x - opt.XMin) / width * float64(opt.BinCount)))
		if bin > opt.BinCount {
			bin = opt.BinCount
		}
		h.Counts[Band(s.Rank, opt.SetSize)][bin]++
		h.Binned++
	}

	for bin := 0; bin < cols; bin++ {
		sum := h.ColumnCount(bin)
		if sum <= opt.MinSamplesPerBin {
			continue // Fractions are already zero.
		}
		for b := range h.Counts {
			h.Fractions[b][bin] = float64(h.Counts[b][bin]) / float64(sum)
		}
	}
	return h, nil
}

// ColumnCount returns the number of samples in x bin bin, across all
// bands.
func (h *Histogram) ColumnCount(bin int) int {
	sum := 0
	for _, row := range h.Counts {
		sum += row[bin]
	}
	return sum
}
