// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shapebench/charter/archive"
	_ "github.com/shapebench/charter/archive/sqlite3"
)

const resultJSON = `{
	"experiment": {"index": 0},
	"configuration": {
		"experimentsToRun": [{"name": "subtractive-noise-only"}],
		"filterSettings": {
			"normalVectorNoise": {"maxAngleDeviationDegrees": 30},
			"supportRadiusDeviation": {"maxRadiusDeviation": 0.5}
		},
		"commonExperimentSettings": {"representativeSetSize": 1000}
	},
	"method": {"name": "QUICCI"},
	"results": [
		{"filteredDescriptorRank": 0, "fractionSurfacePartiality": 0.5},
		{"filteredDescriptorRank": 12, "fractionSurfacePartiality": 0.25}
	]
}`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0666); err != nil {
		t.Fatal(err)
	}
}

func TestExitStatus(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(in, "run.json"), resultJSON)
	bad := t.TempDir()
	writeFile(t, filepath.Join(bad, "run.json"), strings.Replace(resultJSON, "subtractive-noise-only", "thermal-noise-only", 1))

	check := func(want int, wantErr string, args ...string) {
		t.Helper()
		var stderr bytes.Buffer
		if got := run(args, &stderr); got != want {
			t.Errorf("charter %s: exit status %d, want %d\n%s", strings.Join(args, " "), got, want, stderr.String())
		}
		if !strings.Contains(stderr.String(), wantErr) {
			t.Errorf("charter %s: stderr does not contain %q:\n%s", strings.Join(args, " "), wantErr, stderr.String())
		}
	}

	check(exitOK, "Found 1 result files", "--results-directory", in, "--output-dir", out, "--format", "svg")
	if _, err := os.Stat(filepath.Join(out, "subtractive-noise-only-QUICCI.svg")); err != nil {
		t.Errorf("chart not written: %v", err)
	}

	// Nothing to chart is not an error.
	check(exitOK, "does not exist", "-results-directory", filepath.Join(in, "missing"), "-output-dir", out)
	check(exitOK, "were found", "-results-directory", t.TempDir(), "-output-dir", out)

	check(exitUsage, "are required", "-results-directory", in)
	check(exitUsage, "unknown mode", "-results-directory", in, "-output-dir", out, "-mode", "radius")
	check(exitUsage, "unknown image format", "-results-directory", in, "-output-dir", out, "-format", "gif")
	check(exitUsage, "unexpected arguments", "-results-directory", in, "-output-dir", out, "extra.json")
	check(exitUsage, "flag provided but not defined", "-colour", "red")

	check(exitFail, "unknown experiment name: thermal-noise-only", "-results-directory", bad, "-output-dir", out)
	check(exitFail, "no such file", "-results-directory", in, "-output-dir", out, "-style", filepath.Join(in, "missing.yaml"))
}

func TestArchive(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(in, "run.json"), resultJSON)
	dsn := filepath.Join(t.TempDir(), "archive.db")

	var stderr bytes.Buffer
	if got := run([]string{"-results-directory", in, "-output-dir", out, "-format", "svg", "-archive", dsn}, &stderr); got != exitOK {
		t.Fatalf("exit status %d, want 0\n%s", got, stderr.String())
	}

	// run closed the archive, so it can be reopened.
	db, err := archive.OpenSQL("sqlite3", dsn)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if n, err := db.CountCharts(); err != nil || n != 1 {
		t.Errorf("CountCharts = %d, %v; want 1", n, err)
	}
}
