// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package report writes an HTML index of rendered charts.
package report

import (
	"io"

	"github.com/google/safehtml/template"
	"github.com/shapebench/charter/rankhist"
)

// IndexName is the object name of the index page.
const IndexName = "index.html"

// An Index lists the charts of one run.
type Index struct {
	Title   string
	Entries []Entry
}

// An Entry is one chart in an Index.
type Entry struct {
	Experiment string
	Method     string
	File       string // chart object name, relative to the index
	Source     string // result file the chart was built from
	Summary    rankhist.Summary
}

// TopRankPercent returns the percentage of samples with rank 0.
func (e Entry) TopRankPercent() float64 {
	return 100 * e.Summary.TopRank
}

// Add appends an entry to idx.
func (idx *Index) Add(e Entry) {
	idx.Entries = append(idx.Entries, e)
}

// Write renders idx as an HTML page to w.
func Write(w io.Writer, idx *Index) error {
	return indexTmpl.Execute(w, idx)
}

var indexTmpl = template.Must(template.New("index").Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; }
table { border-collapse: collapse; }
th, td { padding: 0.2em 0.8em; text-align: left; }
td.num { text-align: right; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{if .Entries}}
<table>
<tr><th>Experiment</th><th>Method</th><th>Chart</th><th>Results</th><th>Samples</th><th>Dropped</th><th>Mean rank</th><th>Median rank</th><th>Rank 0</th></tr>
{{range .Entries}}
<tr>
<td>{{.Experiment}}</td>
<td>{{.Method}}</td>
<td><a href="{{.File}}">{{.File}}</a></td>
<td>{{.Source}}</td>
<td class="num">{{.Summary.Count}}</td>
<td class="num">{{.Summary.Dropped}}</td>
<td class="num">{{printf "%.4g" .Summary.MeanRank}}</td>
<td class="num">{{printf "%.4g" .Summary.MedianRank}}</td>
<td class="num">{{printf "%.1f%%" .TopRankPercent}}</td>
</tr>
{{end}}
</table>
{{else}}
<p>No charts.</p>
{{end}}
</body>
</html>
`
