// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package archive stores rendered rank histograms in a SQL database so
// that runs can be compared after the chart images are gone.
package archive

import (
	"bytes"
	"database/sql"
	"fmt"
	"strings"
	"text/template"

	"github.com/shapebench/charter/rankhist"
	"golang.org/x/net/context"
)

// DB is a histogram archive. It's safe for concurrent use by multiple
// goroutines.
type DB struct {
	sql *sql.DB // underlying database connection
	// prepared statements
	insertChart *sql.Stmt
	countCharts *sql.Stmt
	selectBins  *sql.Stmt
}

// OpenSQL creates a DB backed by a SQL database. The parameters are
// the same as the parameters for sql.Open. Only mysql and sqlite3 are
// explicitly supported; other database engines will receive MySQL
// query syntax which may or may not be compatible.
func OpenSQL(driverName, dataSourceName string) (*DB, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	if hook := openHooks[driverName]; hook != nil {
		if err := hook(db); err != nil {
			db.Close()
			return nil, err
		}
	}
	d := &DB{sql: db}
	if err := d.createTables(driverName); err != nil {
		db.Close()
		return nil, err
	}
	if err := d.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

var openHooks = make(map[string]func(*sql.DB) error)

// RegisterOpenHook registers a hook to be called after opening a connection to driverName.
// This is used by the sqlite3 package to register a ConnectHook.
// It must be called from an init function.
func RegisterOpenHook(driverName string, hook func(*sql.DB) error) {
	openHooks[driverName] = hook
}

// createTmpl is the template used to prepare the CREATE statements
// for the database. It is evaluated with . as a map containing one
// entry whose key is the driver name.
var createTmpl = template.Must(template.New("create").Parse(`
CREATE TABLE IF NOT EXISTS Charts (
	ChartID {{if .sqlite3}}INTEGER PRIMARY KEY AUTOINCREMENT{{else}}SERIAL PRIMARY KEY AUTO_INCREMENT{{end}},
	Experiment VARCHAR(255),
	Method VARCHAR(255),
	Source VARCHAR(1024),
	SetSize BIGINT,
	Binned BIGINT,
	Dropped BIGINT
);
CREATE TABLE IF NOT EXISTS ChartBins (
	ChartID BIGINT UNSIGNED,
	Band INT,
	Bin INT,
	X DOUBLE,
	Count BIGINT,
	Fraction DOUBLE,
	PRIMARY KEY (ChartID, Band, Bin),
	FOREIGN KEY (ChartID) REFERENCES Charts(ChartID) ON UPDATE CASCADE ON DELETE CASCADE
);
{{if .sqlite3}}
CREATE INDEX IF NOT EXISTS ChartsExperimentMethod ON Charts(Experiment, Method);
{{end}}
`))

// createTables creates any missing tables on the connection in
// db.sql. driverName is the same driver name passed to sql.Open and
// is used to select the correct syntax.
func (db *DB) createTables(driverName string) error {
	var buf bytes.Buffer
	if err := createTmpl.Execute(&buf, map[string]bool{driverName: true}); err != nil {
		return err
	}
	for _, q := range strings.Split(buf.String(), ";") {
		if strings.TrimSpace(q) == "" {
			continue
		}
		if _, err := db.sql.Exec(q); err != nil {
			return fmt.Errorf("create table: %v", err)
		}
	}
	return nil
}

// prepareStatements calls db.sql.Prepare on reusable SQL statements.
func (db *DB) prepareStatements() error {
	var err error
	db.insertChart, err = db.sql.Prepare("INSERT INTO Charts(Experiment, Method, Source, SetSize, Binned, Dropped) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	db.countCharts, err = db.sql.Prepare("SELECT COUNT(*) FROM Charts")
	if err != nil {
		return err
	}
	db.selectBins, err = db.sql.Prepare("SELECT Band, Bin, X, Count, Fraction FROM ChartBins WHERE ChartID = ? ORDER BY Band, Bin")
	if err != nil {
		return err
	}
	return nil
}

// An Entry is one histogram to archive.
type Entry struct {
	Experiment string
	Method     string
	Source     string // result file the histogram was built from
	SetSize    int
	Hist       *rankhist.Histogram
}

// A Bin is one archived histogram cell.
type Bin struct {
	Band, Bin int
	X         float64
	Count     int
	Fraction  float64
}

// binsPerInsert bounds the rows in one multi-row INSERT, keeping the
// number of parameters under SQLite's limit.
const binsPerInsert = 100

// InsertChart stores e and returns its chart ID. Only cells holding at
// least one sample are stored. The chart is stored in a single
// transaction, so a failed insert leaves no partial chart behind.
func (db *DB) InsertChart(ctx context.Context, e *Entry) (id int64, err error) {
	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	h := e.Hist
	res, err := tx.StmtContext(ctx, db.insertChart).ExecContext(ctx, e.Experiment, e.Method, e.Source, e.SetSize, h.Binned, h.Dropped)
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	var args []interface{}
	flush := func() error {
		if len(args) == 0 {
			return nil
		}
		query := "INSERT INTO ChartBins VALUES " + strings.Repeat("(?, ?, ?, ?, ?, ?), ", len(args)/6)
		query = strings.TrimSuffix(query, ", ")
		_, err := tx.ExecContext(ctx, query, args...)
		args = args[:0]
		return err
	}
	for band, counts := range h.Counts {
		for bin, n := range counts {
			if n == 0 {
				continue
			}
			args = append(args, id, band, bin, h.X[bin], n, h.Fractions[band][bin])
			if len(args) == 6*binsPerInsert {
				if err := flush(); err != nil {
					return 0, err
				}
			}
		}
	}
	if err := flush(); err != nil {
		return 0, err
	}
	return id, nil
}

// Bins returns the stored cells of chart id, ordered by band and bin.
func (db *DB) Bins(ctx context.Context, id int64) ([]Bin, error) {
	rows, err := db.selectBins.QueryContext(ctx, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var bins []Bin
	for rows.Next() {
		var b Bin
		if err := rows.Scan(&b.Band, &b.Bin, &b.X, &b.Count, &b.Fraction); err != nil {
			return nil, err
		}
		bins = append(bins, b)
	}
	return bins, rows.Err()
}

// CountCharts returns the number of archived charts.
func (db *DB) CountCharts() (int, error) {
	var n int
	err := db.countCharts.QueryRow().Scan(&n)
	return n, err
}

// Close closes the database connections, releasing any open resources.
func (db *DB) Close() error {
	for _, stmt := range []*sql.Stmt{db.insertChart, db.countCharts, db.selectBins} {
		if err := stmt.Close(); err != nil {
			return err
		}
	}
	return db.sql.Close()
}
