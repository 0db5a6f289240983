// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package resultfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultPattern matches the result files the benchmark writes.
const DefaultPattern = "*.json"

var (
	// ErrNotExist is returned by List when the results directory
	// does not exist.
	ErrNotExist = errors.New("results directory does not exist")

	// ErrNotDir is returned by List when the results path is not a
	// directory.
	ErrNotDir = errors.New("results path is not a directory")
)

// List returns the paths of the files in dir matching pattern, in
// sorted order. An empty pattern means DefaultPattern. The pattern is
// matched against slash-separated paths relative to dir, so "**/*.json"
// also descends into subdirectories. List returns nil if no file
// matches.
func List(dir, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("bad file pattern %q", pattern)
	}
	st, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", dir, ErrNotExist)
	} else if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("%s: %w", dir, ErrNotDir)
	}

	names, err := doublestar.Glob(os.DirFS(dir), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, nil
	}
	sort.Strings(names)
	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, filepath.FromSlash(name))
	}
	return paths, nil
}

// A Files reads a sequence of result files one at a time.
//
// Each file is opened, decoded completely, and closed before Scan
// returns, so at most one file's content is held by the reader.
type Files struct {
	// Paths is the list of file names to read in.
	Paths []string

	next int
	file *File
	err  error
}

// Scan advances to the next file and reports whether one was read. The
// caller should use the File method to get it. If Scan reaches the end
// of Paths, or if an error occurs, it returns false. In this case, the
// caller should use the Err method to check for errors.
func (f *Files) Scan() bool {
	if f.err != nil || f.next >= len(f.Paths) {
		f.file = nil
		return false
	}
	path := f.Paths[f.next]
	f.next++
	f.file, f.err = Load(path)
	return f.err == nil
}

// File returns the file that was just read by Scan.
func (f *Files) File() *File {
	return f.file
}

// Path returns the path of the file most recently attempted by Scan.
func (f *Files) Path() string {
	if f.next == 0 {
		return ""
	}
	return f.Paths[f.next-1]
}

// Err returns the error that stopped Scan, if any.
// If Scan stopped because it read every file, Err returns nil.
func (f *Files) Err() error {
	return f.err
}
