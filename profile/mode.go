// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package profile

import (
	"fmt"
	"strings"
)

// A Mode is the x-axis selection requested on the command line.
//
// The experiment kind is always taken from the result file; a Mode only
// states what the caller expects, so mismatches can be reported.
type Mode string

const (
	ModeAuto        Mode = "auto"
	ModeNormal      Mode = "normal"
	ModeAdditive    Mode = "additive"
	ModeSubtractive Mode = "subtractive"
)

// Modes lists the accepted modes in the order they are documented.
var Modes = []Mode{ModeAuto, ModeNormal, ModeAdditive, ModeSubtractive}

// ParseMode returns the Mode named s.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	names := make([]string, len(Modes))
	for i, m := range Modes {
		names[i] = string(m)
	}
	return "", fmt.Errorf("unknown mode %q (want one of %s)", s, strings.Join(names, ", "))
}

// Matches reports whether a file of kind k is consistent with m.
func (m Mode) Matches(k Kind) bool {
	switch m {
	case ModeAuto, "":
		return true
	case ModeNormal:
		return k == NormalNoise
	case ModeAdditive:
		return k == AdditiveNoise
	case ModeSubtractive:
		return k == SubtractiveNoise
	}
	return false
}
