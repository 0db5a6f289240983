// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chart

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gonum.org/v1/plot/palette/brewer"
	"gopkg.in/yaml.v3"
)

// A Format is an image encoding.
type Format string

const (
	PDF Format = "pdf"
	PNG Format = "png"
	SVG Format = "svg"
)

// ParseFormat returns the Format named s.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case PDF, PNG, SVG:
		return f, nil
	}
	return "", fmt.Errorf("unknown image format %q (want pdf, png, or svg)", s)
}

// Style controls the appearance and encoding of rendered charts.
type Style struct {
	Format   Format  `yaml:"format"`
	WidthCm  float64 `yaml:"width_cm"`
	HeightCm float64 `yaml:"height_cm"`

	// DPI is the resolution of raster formats.
	DPI int `yaml:"dpi"`

	// Palette names the ColorBrewer palette the bands are filled
	// from, such as "RdYlBu" or "Spectral".
	Palette string `yaml:"palette"`
}

// DefaultStyle is the style used when none is configured.
var DefaultStyle = Style{
	Format:   PDF,
	WidthCm:  24,
	HeightCm: 14,
	DPI:      300,
	Palette:  "RdYlBu",
}

func (s *Style) validate() error {
	if _, err := ParseFormat(string(s.Format)); err != nil {
		return err
	}
	if !(s.WidthCm > 0 && s.HeightCm > 0) {
		return fmt.Errorf("chart size %vx%v cm must be positive", s.WidthCm, s.HeightCm)
	}
	if s.DPI <= 0 {
		return fmt.Errorf("chart DPI %d must be positive", s.DPI)
	}
	if _, err := brewer.GetPalette(brewer.TypeAny, s.Palette, 3); err != nil {
		return fmt.Errorf("chart palette %q: %v", s.Palette, err)
	}
	return nil
}

// ReadStyle reads a YAML style from r. Fields missing from r keep their
// DefaultStyle values; unknown fields are an error.
func ReadStyle(r io.Reader) (Style, error) {
	s := DefaultStyle
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return Style{}, err
	}
	if err := s.validate(); err != nil {
		return Style{}, err
	}
	return s, nil
}

// LoadStyle reads the YAML style file at path.
func LoadStyle(path string) (Style, error) {
	f, err := os.Open(path)
	if err != nil {
		return Style{}, err
	}
	defer f.Close()
	s, err := ReadStyle(f)
	if err != nil {
		return Style{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}
