// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package local implements an outfs.FS backed by a local directory.
package local

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"

	"github.com/shapebench/charter/outfs"
)

// FS is a local directory.
type FS struct {
	dir string
}

// NewFS returns an FS writing into dir, creating dir and any missing
// parents.
func NewFS(dir string) (*FS, error) {
	if err := os.MkdirAll(dir, 0777); err != nil {
		return nil, err
	}
	return &FS{dir: dir}, nil
}

// Dir returns the directory fs writes into.
func (fs *FS) Dir() string { return fs.dir }

// NewWriter creates a temporary file next to the object, which Close
// renames into place. Metadata is not stored.
func (fs *FS) NewWriter(_ context.Context, name string, _ map[string]string) (outfs.Writer, error) {
	if err := outfs.CheckName(name); err != nil {
		return nil, err
	}
	f, err := createTemp(fs.dir, name)
	if err != nil {
		return nil, err
	}
	return &wrapper{f, filepath.Join(fs.dir, name)}, nil
}

// createTemp creates a new hidden file in dir for the object name. The
// file has mode 0666 before the umask, like a file from os.Create, so
// the object is as readable as any other file written to dir.
func createTemp(dir, name string) (*os.File, error) {
	for try := 0; ; try++ {
		tmp := filepath.Join(dir, "."+name+"."+strconv.FormatUint(uint64(rand.Uint32()), 10)+".tmp")
		f, err := os.OpenFile(tmp, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0666)
		if errors.Is(err, os.ErrExist) && try < 100 {
			continue
		}
		return f, err
	}
}

type wrapper struct {
	*os.File
	dest string
}

// Close closes the temporary file and renames it to its final name.
func (w *wrapper) Close() error {
	if err := w.File.Close(); err != nil {
		os.Remove(w.File.Name())
		return err
	}
	if err := os.Rename(w.File.Name(), w.dest); err != nil {
		os.Remove(w.File.Name())
		return err
	}
	return nil
}

// CloseWithError closes and removes the temporary file.
func (w *wrapper) CloseWithError(error) error {
	err := w.File.Close()
	if rerr := os.Remove(w.File.Name()); err == nil {
		err = rerr
	}
	return err
}
