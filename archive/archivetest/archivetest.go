// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package archivetest opens archive databases for tests.
package archivetest

import (
	"database/sql"
	"flag"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"testing"

	_ "github.com/GoogleCloudPlatform/cloudsql-proxy/proxy/dialers/mysql"
	_ "github.com/go-sql-driver/mysql"
	"github.com/shapebench/charter/archive"
	_ "github.com/shapebench/charter/archive/sqlite3"
)

var cloudsql = flag.String("cloudsql", "", "archive into a scratch database on the Cloud SQL `instance` (project:region:instance) instead of in-memory SQLite")

var unsafeChars = regexp.MustCompile(`[^a-z0-9_]+`)

// scratchName returns a database name unique to this run of test t.
func scratchName(t *testing.T) string {
	name := unsafeChars.ReplaceAllString(strings.ToLower(t.Name()), "_")
	if len(name) > 40 {
		name = name[:40]
	}
	return fmt.Sprintf("charter_%s_%08x", name, rand.Uint32())
}

// cloudDSN creates a scratch archive database on the -cloudsql instance
// and registers its removal with t.Cleanup.
func cloudDSN(t *testing.T) string {
	server := fmt.Sprintf("root:@cloudsql(%s)/", *cloudsql)
	admin, err := sql.Open("mysql", server)
	if err != nil {
		t.Fatal(err)
	}
	name := scratchName(t)
	if _, err := admin.Exec("CREATE DATABASE `" + name + "`"); err != nil {
		admin.Close()
		t.Fatalf("creating scratch archive: %v", err)
	}
	t.Cleanup(func() {
		if _, err := admin.Exec("DROP DATABASE `" + name + "`"); err != nil {
			t.Errorf("dropping scratch archive %s: %v", name, err)
		}
		admin.Close()
	})
	return server + name
}

// NewDB returns an empty archive for t, closed when t finishes. It is
// in-memory SQLite unless the -cloudsql flag names a Cloud SQL instance.
func NewDB(t *testing.T) *archive.DB {
	t.Helper()
	driverName, dsn := "sqlite3", ":memory:"
	if *cloudsql != "" {
		driverName, dsn = "mysql", cloudDSN(t)
	}
	db, err := archive.OpenSQL(driverName, dsn)
	if err != nil {
		t.Fatalf("opening archive: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if n, err := db.CountCharts(); err != nil {
		t.Fatal(err)
	} else if n != 0 {
		t.Fatalf("new archive holds %d charts, want 0", n)
	}
	return db
}
