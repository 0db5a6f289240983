// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Charter generates rank histogram charts from ShapeBench results.
//
// Usage:
//
//	charter -results-directory dir -output-dir dir|gs://bucket/prefix [flags]
//
// Every result file in the results directory is turned into one chart,
// named <experiment>-<method>.<format>, showing for each x value of the
// experiment the fraction of samples whose correct match ranked 0, 1-10,
// 11-100, and so on. The x axis depends on the experiment recorded in
// the file; -mode only states the expected experiment and produces a
// warning when a file differs.
//
// If -archive is set, every histogram is also stored in a SQL database
// (sqlite3 by default, or mysql with -archive-driver mysql).
//
// Charter exits with status 0 if the results directory is missing or
// holds no result files, 2 for a bad command line, and 1 if a result
// file cannot be charted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/shapebench/charter/archive"
	_ "github.com/shapebench/charter/archive/sqlite3"
	"github.com/shapebench/charter/chart"
	"github.com/shapebench/charter/charter"
	"github.com/shapebench/charter/profile"
	"github.com/shapebench/charter/resultfile"
	"google.golang.org/api/option"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

// Exit statuses.
const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

func modeNames() string {
	names := make([]string, len(profile.Modes))
	for i, m := range profile.Modes {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

// run runs charter with command line arguments args, writing messages to
// stderr, and returns the exit status.
func run(args []string, stderr io.Writer) int {
	flags := flag.NewFlagSet("charter", flag.ContinueOnError)
	flags.SetOutput(stderr)
	var (
		resultsDir = flags.String("results-directory", "", "read ShapeBench result files from `dir`")
		outputDir  = flags.String("output-dir", "", "write charts to `dir` (created if missing) or gs://bucket/prefix")
		mode       = flags.String("mode", string(profile.ModeAuto), "expected experiment: "+modeNames())
		format     = flags.String("format", "", "chart image `format`: pdf, png, or svg (default from -style, else pdf)")
		style      = flags.String("style", "", "read chart style from YAML `file`")
		pattern    = flags.String("pattern", resultfile.DefaultPattern, "chart result files matching `glob`")
		archiveDSN = flags.String("archive", "", "store histograms in the database `dsn`")
		archiveDrv = flags.String("archive-driver", "sqlite3", "database `driver` for -archive: sqlite3 or mysql")
		index      = flags.Bool("index", false, "also write an index.html listing the charts")
		gcsCreds   = flags.String("gcs-credentials", "", "authenticate to Cloud Storage with the service account key in `file`")
	)
	flags.Usage = func() {
		fmt.Fprintf(stderr, `Usage of charter:
	charter -results-directory dir -output-dir dir [flags]
`)
		flags.PrintDefaults()
	}
	usageError := func(format string, args ...interface{}) int {
		fmt.Fprintf(stderr, "charter: "+format+"\n", args...)
		flags.Usage()
		return exitUsage
	}
	fail := func(format string, args ...interface{}) int {
		fmt.Fprintf(stderr, "charter: "+format+"\n", args...)
		return exitFail
	}

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if flags.NArg() != 0 {
		return usageError("unexpected arguments: %s", strings.Join(flags.Args(), " "))
	}
	if *resultsDir == "" || *outputDir == "" {
		return usageError("-results-directory and -output-dir are required")
	}
	m, err := profile.ParseMode(*mode)
	if err != nil {
		return usageError("%v", err)
	}

	s := chart.DefaultStyle
	if *style != "" {
		if s, err = chart.LoadStyle(*style); err != nil {
			return fail("%v", err)
		}
	}
	if *format != "" {
		if s.Format, err = chart.ParseFormat(*format); err != nil {
			return usageError("%v", err)
		}
	}
	plotter, err := chart.NewPlotter(s)
	if err != nil {
		return fail("%v", err)
	}

	opts := charter.Options{
		ResultsDir: *resultsDir,
		Pattern:    *pattern,
		Dest:       *outputDir,
		Renderer:   plotter,
		Mode:       m,
		Index:      *index,
		Log:        log.New(stderr, "", 0),
	}
	if *gcsCreds != "" {
		opts.ClientOptions = append(opts.ClientOptions, option.WithCredentialsFile(*gcsCreds))
	}
	if *archiveDSN != "" {
		db, err := archive.OpenSQL(*archiveDrv, *archiveDSN)
		if err != nil {
			return fail("opening archive: %v", err)
		}
		defer db.Close()
		opts.Archive = db
	}

	// Run logs the soft conditions itself; they exit 0.
	if _, err := charter.Run(context.Background(), opts); err != nil && !charter.IsSoft(err) {
		return fail("%v", err)
	}
	return exitOK
}
