// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package resultfile reads the JSON result files written by the
// descriptor matching benchmark.
//
// Each file holds the results of one method under one experiment. The
// experiment's configuration is embedded in the file, so a File carries
// everything needed to lay out a chart for it.
package resultfile

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// A File is the decoded content of one result file.
type File struct {
	// Path is the file the content was read from, if any.
	Path string `json:"-"`

	Experiment    Experiment    `json:"experiment"`
	Configuration Configuration `json:"configuration"`
	Method        Method        `json:"method"`
	Results       []Record      `json:"results"`
}

// Experiment identifies which entry of Configuration.ExperimentsToRun
// produced the results.
type Experiment struct {
	Index int `json:"index"`
}

// Method describes the descriptor method under test.
type Method struct {
	Name string `json:"name"`
}

// Configuration is the benchmark configuration embedded in each file.
type Configuration struct {
	ExperimentsToRun         []ExperimentEntry        `json:"experimentsToRun"`
	FilterSettings           FilterSettings           `json:"filterSettings"`
	CommonExperimentSettings CommonExperimentSettings `json:"commonExperimentSettings"`
}

// ExperimentEntry is one experiment the benchmark was configured to run.
type ExperimentEntry struct {
	Name string `json:"name"`
}

// FilterSettings holds the bounds of the corruption filters. Only the
// settings that determine chart axes are decoded.
type FilterSettings struct {
	NormalVectorNoise      NormalVectorNoise      `json:"normalVectorNoise"`
	SupportRadiusDeviation SupportRadiusDeviation `json:"supportRadiusDeviation"`
}

type NormalVectorNoise struct {
	MaxAngleDeviationDegrees float64 `json:"maxAngleDeviationDegrees"`
}

type SupportRadiusDeviation struct {
	MaxRadiusDeviation float64 `json:"maxRadiusDeviation"`
}

// CommonExperimentSettings holds settings shared by all experiments.
type CommonExperimentSettings struct {
	// RepresentativeSetSize is the number of candidate descriptors
	// each query is ranked against.
	RepresentativeSetSize int `json:"representativeSetSize"`
}

// A Record is the outcome of one benchmark trial.
//
// The x-value fields are pointers because any of them may be absent
// or null depending on the experiment that produced the record.
type Record struct {
	// FilteredDescriptorRank is the rank of the correct match among
	// the representative set. It is nil only if the field was
	// missing, which Validate reports as an error.
	FilteredDescriptorRank *int `json:"filteredDescriptorRank"`

	FractionSurfacePartiality *float64 `json:"fractionSurfacePartiality"`
	FractionAddedNoise        *float64 `json:"fractionAddedNoise"`

	// FilterOutput holds the values reported by the filters applied
	// to the scene, keyed by filter output name. Values are decoded on
	// demand since filters report more than numbers.
	FilterOutput map[string]json.RawMessage `json:"filterOutput"`
}

// Filter output keys read by the chart profiles.
const (
	NormalNoiseDeviationAngle = "normal-noise-deviationAngle"
	SupportRadiusScaleFactor  = "support-radius-scale-factor"
)

// Output returns the numeric filter output named key. It reports false
// if the output is missing or null, and an error if it is not a number.
func (r *Record) Output(key string) (float64, bool, error) {
	raw, ok := r.FilterOutput[key]
	if !ok {
		return 0, false, nil
	}
	var v *float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false, fmt.Errorf("filterOutput %q: %w", key, err)
	}
	if v == nil {
		return 0, false, nil
	}
	return *v, true, nil
}

// A FormatError reports a result file whose content does not have the
// expected shape.
type FormatError struct {
	Path   string
	Record int // index into Results, or -1 for file-level problems
	Msg    string
}

func (e *FormatError) Error() string {
	if e.Record < 0 {
		return fmt.Sprintf("%s: %s", e.Path, e.Msg)
	}
	return fmt.Sprintf("%s: result %d: %s", e.Path, e.Record, e.Msg)
}

// Decode reads a File from r. path is used only in error messages and
// is recorded in File.Path.
func Decode(r io.Reader, path string) (*File, error) {
	f := &File{Path: path}
	if err := json.NewDecoder(r).Decode(f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Load opens, decodes, and closes the result file at path.
func Load(path string) (*File, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return Decode(r, path)
}

// Validate checks the fields every chart depends on.
func (f *File) Validate() error {
	if f.Configuration.CommonExperimentSettings.RepresentativeSetSize <= 0 {
		return &FormatError{f.Path, -1, fmt.Sprintf("representativeSetSize must be positive, got %d", f.Configuration.CommonExperimentSettings.RepresentativeSetSize)}
	}
	for i := range f.Results {
		if f.Results[i].FilteredDescriptorRank == nil {
			return &FormatError{f.Path, i, "missing filteredDescriptorRank"}
		}
	}
	return nil
}

// ExperimentName returns the name of the experiment that produced f.
func (f *File) ExperimentName() (string, error) {
	i := f.Experiment.Index
	if i < 0 || i >= len(f.Configuration.ExperimentsToRun) {
		return "", &FormatError{f.Path, -1, fmt.Sprintf("experiment index %d out of range [0, %d)", i, len(f.Configuration.ExperimentsToRun))}
	}
	return f.Configuration.ExperimentsToRun[i].Name, nil
}

// SetSize returns the representative set size the results were ranked
// against.
func (f *File) SetSize() int {
	return f.Configuration.CommonExperimentSettings.RepresentativeSetSize
}
