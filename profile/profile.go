// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package profile maps the experiment recorded in a result file to the
// layout of its chart: the x-axis bounds and titles, and the rule that
// reads each record's x value.
package profile

import (
	"fmt"

	"github.com/shapebench/charter/resultfile"
)

// Histogram shape shared by every experiment kind.
const (
	// BinCount is the number of x-axis bins.
	BinCount = 150

	// MinSamplesPerBin is the number of samples an x bin must exceed
	// to be drawn at all.
	MinSamplesPerBin = 50
)

// YAxisTitle labels the rank axis of every chart.
const YAxisTitle = "Image rank"

// A Kind is one of the experiment kinds that can be charted.
type Kind int

const (
	NormalNoise Kind = iota
	SubtractiveNoise
	AdditiveNoise
	SupportRadiusDeviation

	numKinds
)

var kindNames = [numKinds]string{
	NormalNoise:            "normal-noise-only",
	SubtractiveNoise:       "subtractive-noise-only",
	AdditiveNoise:          "additive-noise-only",
	SupportRadiusDeviation: "support-radius-deviation-only",
}

// String returns the experiment name of k, as it appears in result
// files.
func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind returns the Kind whose experiment name is name.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
	}
	return 0, &UnrecognizedExperimentError{Name: name}
}

// An UnrecognizedExperimentError is returned when a result file names an
// experiment that has no chart layout.
type UnrecognizedExperimentError struct {
	Name string
}

func (e *UnrecognizedExperimentError) Error() string {
	return "failed to determine chart settings: unknown experiment name: " + e.Name
}

// A Profile describes how to chart one result file.
type Profile struct {
	Kind       Kind
	Experiment string // experiment name from the file
	Method     string // method name from the file

	Title  string
	XTitle string
	YTitle string

	// XMin and XMax bound the x axis. XMin < XMax.
	XMin, XMax float64

	BinCount         int
	MinSamplesPerBin int

	// X reads a record's x value. It reports false if the value is
	// absent or null.
	X func(r *resultfile.Record) (float64, bool, error)
}

// Name returns the base name for the chart of p, which is
// "<experiment>-<method>".
func (p *Profile) Name() string {
	return p.Experiment + "-" + p.Method
}

// Resolve returns the chart profile for f.
//
// It returns an *UnrecognizedExperimentError if the experiment f was
// produced by has no chart layout.
func Resolve(f *resultfile.File) (*Profile, error) {
	name, err := f.ExperimentName()
	if err != nil {
		return nil, err
	}
	kind, err := ParseKind(name)
	if err != nil {
		return nil, err
	}
	p := &Profile{
		Kind:             kind,
		Experiment:       name,
		Method:           f.Method.Name,
		Title:            f.Method.Name,
		YTitle:           YAxisTitle,
		BinCount:         BinCount,
		MinSamplesPerBin: MinSamplesPerBin,
	}
	fs := &f.Configuration.FilterSettings
	switch kind {
	case NormalNoise:
		p.XTitle = "Normal deviation (degrees)"
		p.XMin, p.XMax = 0, fs.NormalVectorNoise.MaxAngleDeviationDegrees
		p.X = output(resultfile.NormalNoiseDeviationAngle)
	case SubtractiveNoise:
		p.XTitle = "Fraction of surface remaining"
		p.XMin, p.XMax = 0, 1
		p.X = field(func(r *resultfile.Record) *float64 { return r.FractionSurfacePartiality })
	case AdditiveNoise:
		p.XTitle = "Fraction of clutter added"
		p.XMin, p.XMax = 0, 10
		p.X = field(func(r *resultfile.Record) *float64 { return r.FractionAddedNoise })
	case SupportRadiusDeviation:
		d := fs.SupportRadiusDeviation.MaxRadiusDeviation
		p.XTitle = "Relative Support Radius"
		p.XMin, p.XMax = 1-d, 1+d
		p.X = output(resultfile.SupportRadiusScaleFactor)
	default:
		panic("unhandled kind " + kind.String())
	}
	if !(p.XMin < p.XMax) {
		return nil, fmt.Errorf("%s: %s: empty x axis range [%v, %v]", f.Path, name, p.XMin, p.XMax)
	}
	return p, nil
}

func field(get func(r *resultfile.Record) *float64) func(r *resultfile.Record) (float64, bool, error) {
	return func(r *resultfile.Record) (float64, bool, error) {
		if v := get(r); v != nil {
			return *v, true, nil
		}
		return 0, false, nil
	}
}

func output(key string) func(r *resultfile.Record) (float64, bool, error) {
	return func(r *resultfile.Record) (float64, bool, error) {
		return r.Output(key)
	}
}
