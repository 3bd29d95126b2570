// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package store provides the backing dataset abstraction used by
// tomoslice pipelines: windowed element access to named
// N-dimensional datasets. Implementations include an in-memory store
// for intermediates and tests, a spill store that persists datasets
// through grailbio/base/file paths, and a read-only bridge to HDF5
// files. All element access is in element counts, never bytes, and
// dimension order is the caller's throughout.
package store

import (
	"context"
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/tomoslice/frame"
	"github.com/grailbio/tomoslice/window"
)

// A Dataset is one named N-dimensional array held by a backing
// store. Datasets may be read and written concurrently by multiple
// worker ranks provided the accessed windows are disjoint, which the
// partitioning engine guarantees for its assignments.
type Dataset interface {
	// Shape returns the dataset's extents. The shape is fixed at
	// creation.
	Shape() window.Shape

	// ReadWindow reads the elements covered by w into a fresh
	// buffer. Whole spans are resolved against the dataset's shape.
	ReadWindow(ctx context.Context, w window.Window) (*frame.Dense, error)

	// WriteWindow writes data over the elements covered by w. The
	// buffer's shape must match the window's resolved shape.
	WriteWindow(ctx context.Context, w window.Window, data *frame.Dense) error
}

// A Store creates and opens named datasets. Creation of a given name
// must be globally agreed between ranks before any rank writes to
// it; the pipeline layer enforces this with a collective barrier.
type Store interface {
	// Create allocates a new dataset. It is an error (kind Exists)
	// to create a name twice.
	Create(ctx context.Context, name string, shape window.Shape) (Dataset, error)

	// Open returns the named dataset, or an error with kind NotExist.
	Open(ctx context.Context, name string) (Dataset, error)

	// Close releases the store's resources.
	Close() error
}

// bounds resolves w against shape and returns the region origin and
// size, one entry per dimension.
func bounds(w window.Window, shape window.Shape) (start, size []int, err error) {
	v, err := w.Resolve(shape)
	if err != nil {
		return nil, nil, err
	}
	start = make([]int, len(v))
	size = make([]int, len(v))
	for i, s := range v {
		start[i], size[i] = s.Start, s.Len()
	}
	return start, size, nil
}

// checkWrite verifies that data's shape matches the resolved shape
// of w.
func checkWrite(w window.Window, shape window.Shape, data *frame.Dense) (start []int, err error) {
	start, size, err := bounds(w, shape)
	if err != nil {
		return nil, err
	}
	ds := data.Shape()
	if len(ds) != len(size) {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("store: write of rank %d buffer to window %s", len(ds), w))
	}
	for i := range size {
		if ds[i] != size[i] {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("store: buffer shape %v does not match window %s", ds, w))
		}
	}
	return start, nil
}
