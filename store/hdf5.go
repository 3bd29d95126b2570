// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/tomoslice/frame"
	"github.com/grailbio/tomoslice/window"
	"github.com/scigolib/hdf5"
)

// An H5Dataset serves windowed reads from a dataset inside an HDF5
// file, using hyperslab selections so that only the requested
// elements are touched. HDF5 datasets are read-only on this side;
// pipeline output is exported with ExportHDF5.
type H5Dataset struct {
	file  *hdf5.File
	ds    *hdf5.Dataset
	shape window.Shape
}

// OpenHDF5 opens the dataset at the given path (e.g.
// "/entry/data") inside an HDF5 file. The dataset's shape is
// supplied by the caller — pipelines know their input shapes before
// partitioning begins — and is verified lazily against the element
// counts of the reads it serves.
func OpenHDF5(filename, dataset string, shape window.Shape) (*H5Dataset, error) {
	if !shape.Valid() {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("store: hdf5 %s: invalid shape %s", filename, shape))
	}
	f, err := hdf5.Open(filename)
	if err != nil {
		return nil, errors.E(fmt.Sprintf("store: hdf5 open %s", filename), err)
	}
	want := strings.TrimPrefix(dataset, "/")
	var found *hdf5.Dataset
	f.Walk(func(path string, obj hdf5.Object) {
		if ds, ok := obj.(*hdf5.Dataset); ok && strings.TrimPrefix(path, "/") == want {
			found = ds
		}
	})
	if found == nil {
		err := errors.E(errors.NotExist, fmt.Sprintf("store: hdf5 %s: no dataset %s", filename, dataset))
		if closeErr := f.Close(); closeErr != nil {
			log.Error.Printf("store: hdf5 close %s: %v", filename, closeErr)
		}
		return nil, err
	}
	return &H5Dataset{
		file:  f,
		ds:    found,
		shape: append(window.Shape{}, shape...),
	}, nil
}

// Shape implements Dataset.
func (d *H5Dataset) Shape() window.Shape {
	return append(window.Shape{}, d.shape...)
}

// ReadWindow implements Dataset.
func (d *H5Dataset) ReadWindow(ctx context.Context, w window.Window) (*frame.Dense, error) {
	start, size, err := bounds(w, d.shape)
	if err != nil {
		return nil, err
	}
	ustart := make([]uint64, len(start))
	ucount := make([]uint64, len(size))
	for i := range start {
		ustart[i] = uint64(start[i])
		ucount[i] = uint64(size[i])
	}
	raw, err := d.ds.ReadSlice(ustart, ucount)
	if err != nil {
		return nil, errors.E(fmt.Sprintf("store: hdf5 read %s", w), err)
	}
	data, err := toFloat64(raw)
	if err != nil {
		return nil, errors.E(errors.NotSupported, fmt.Sprintf("store: hdf5 read %s", w), err)
	}
	out, err := frame.Values(data, size...)
	if err != nil {
		return nil, errors.E(errors.Integrity, fmt.Sprintf("store: hdf5 read %s: declared shape %s does not match file", w, d.shape), err)
	}
	return out, nil
}

// WriteWindow implements Dataset. HDF5-backed datasets are read-only.
func (d *H5Dataset) WriteWindow(ctx context.Context, w window.Window, data *frame.Dense) error {
	return errors.E(errors.NotSupported, "store: hdf5 datasets are read-only")
}

// Close closes the underlying file. Teardown is best effort:
// secondary failures are logged, not returned, so that a failing
// close never masks the pipeline's own result.
func (d *H5Dataset) Close() {
	if d.file == nil {
		return
	}
	if err := d.file.Close(); err != nil {
		log.Error.Printf("store: hdf5 close: %v", err)
	}
	d.file = nil
}

func toFloat64(raw interface{}) ([]float64, error) {
	switch v := raw.(type) {
	case []float64:
		return v, nil
	case []float32:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, nil
	case []int32:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, nil
	case []int64:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, nil
	case []uint16:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported element type %T", raw)
	}
}

// ExportHDF5 writes the buffer as a single dataset in a new HDF5
// file, truncating any existing file at path. The dataset name must
// be absolute (e.g. "/1-Saver/data").
func ExportHDF5(path, dataset string, d *frame.Dense) error {
	fw, err := hdf5.CreateForWrite(path, hdf5.CreateTruncate)
	if err != nil {
		return errors.E(fmt.Sprintf("store: hdf5 create %s", path), err)
	}
	dims := make([]uint64, d.Rank())
	for i, extent := range d.Shape() {
		dims[i] = uint64(extent)
	}
	// Create intermediate groups for nested dataset paths.
	parts := strings.Split(strings.Trim(dataset, "/"), "/")
	group := ""
	for _, part := range parts[:len(parts)-1] {
		group += "/" + part
		if _, err := fw.CreateGroup(group); err != nil {
			return errors.E(fmt.Sprintf("store: hdf5 create group %s in %s", group, path), err)
		}
	}
	ds, err := fw.CreateDataset(dataset, hdf5.Float64, dims)
	if err == nil {
		err = ds.Write(d.Data())
	}
	if closeErr := fw.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return errors.E(fmt.Sprintf("store: hdf5 export %s", path), err)
	}
	return nil
}
