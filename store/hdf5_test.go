// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/tomoslice/frame"
	"github.com/grailbio/tomoslice/window"
)

func TestHDF5ExportOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out.h5")

	buf := frame.Make(4, 6)
	for i := range buf.Data() {
		buf.Data()[i] = float64(i)
	}
	if err := ExportHDF5(path, "/data", buf); err != nil {
		t.Fatal(err)
	}

	d, err := OpenHDF5(path, "/data", window.Shape{4, 6})
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	got, err := d.ReadWindow(ctx, window.Window{window.Range(1, 3), window.Range(2, 5)})
	if err != nil {
		t.Fatal(err)
	}
	want := buf.Region([]int{1, 2}, []int{2, 3})
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got.Data(), want.Data())
	}

	if err := d.WriteWindow(ctx, window.Window{window.All(), window.All()}, buf); !errors.Is(errors.NotSupported, err) {
		t.Errorf("expected not-supported error, got %v", err)
	}
}

func TestHDF5NotExist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.h5")
	buf := frame.Make(2)
	if err := ExportHDF5(path, "/data", buf); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenHDF5(path, "/other", window.Shape{2}); !errors.Is(errors.NotExist, err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}
