// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package outfs provides an interface for writing rendered charts to
// a local directory or a cloud bucket.
package outfs

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
)

// An FS is a place charts can be written to.
type FS interface {
	// NewWriter creates a new object named name, replacing any
	// existing object of that name. metadata is stored alongside
	// the object where the FS supports it.
	NewWriter(ctx context.Context, name string, metadata map[string]string) (Writer, error)
}

// A Writer is an object being written to an FS. The object is only
// visible once Close returns successfully.
type Writer interface {
	io.Writer
	io.Closer

	// CloseWithError discards the object. The error is recorded by
	// implementations that can report why a write was abandoned.
	CloseWithError(err error) error
}

// CheckName reports an error if name is not a single path element
// that can be used as an object name.
func CheckName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || path.Clean(name) != name {
		return fmt.Errorf("invalid object name %q", name)
	}
	return nil
}
