// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package charter

import (
	"context"

	"github.com/shapebench/charter/outfs"
	"github.com/shapebench/charter/outfs/gcs"
	"github.com/shapebench/charter/outfs/local"
	"google.golang.org/api/option"
)

// OpenOutput opens the chart destination dest. A location of the form
// gs://bucket/prefix is a Google Cloud Storage prefix, configured by
// opts; anything else is a local directory, created if missing.
//
// The returned FS implements io.Closer if it holds resources.
func OpenOutput(ctx context.Context, dest string, opts ...option.ClientOption) (outfs.FS, error) {
	bucket, prefix, ok, err := gcs.ParseURL(dest)
	if err != nil {
		return nil, err
	}
	if ok {
		return gcs.NewFS(ctx, bucket, prefix, opts...)
	}
	return local.NewFS(dest)
}
