// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gcs implements an outfs.FS backed by Google Cloud Storage.
package gcs

import (
	"context"
	"fmt"
	"mime"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/shapebench/charter/outfs"
	"google.golang.org/api/option"
)

// Scheme is the URL scheme of GCS locations.
const Scheme = "gs://"

// FS is a prefix within a GCS bucket.
type FS struct {
	client *storage.Client
	bucket *storage.BucketHandle
	prefix string
}

// ParseURL splits a location of the form gs://bucket/prefix. It reports
// false if loc does not have the gs:// scheme.
func ParseURL(loc string) (bucket, prefix string, ok bool, err error) {
	if !strings.HasPrefix(loc, Scheme) {
		return "", "", false, nil
	}
	rest := strings.TrimPrefix(loc, Scheme)
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", true, fmt.Errorf("missing bucket name in %q", loc)
	}
	return bucket, strings.Trim(prefix, "/"), true, nil
}

// NewFS constructs an FS that writes objects under prefix in bucket.
// opts configure the storage client, for example with credentials.
func NewFS(ctx context.Context, bucket, prefix string, opts ...option.ClientOption) (*FS, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &FS{client: client, bucket: client.Bucket(bucket), prefix: prefix}, nil
}

// Close closes the underlying storage client.
func (fs *FS) Close() error {
	return fs.client.Close()
}

// NewWriter starts an upload of the object name under fs's prefix.
func (fs *FS) NewWriter(ctx context.Context, name string, metadata map[string]string) (outfs.Writer, error) {
	if err := outfs.CheckName(name); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	w := fs.bucket.Object(path.Join(fs.prefix, name)).NewWriter(ctx)
	w.Metadata = metadata
	w.ContentType = mime.TypeByExtension(path.Ext(name))
	return &wrapper{Writer: w, cancel: cancel}, nil
}

type wrapper struct {
	*storage.Writer
	cancel context.CancelFunc
}

// Close finishes the upload.
func (w *wrapper) Close() error {
	defer w.cancel()
	return w.Writer.Close()
}

// CloseWithError aborts the upload. The object is not created.
func (w *wrapper) CloseWithError(error) error {
	w.cancel()
	w.Writer.Close() // reports the cancellation
	return nil
}
