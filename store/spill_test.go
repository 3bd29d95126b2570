// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package store

import (
	"context"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/tomoslice/frame"
	"github.com/grailbio/tomoslice/window"
)

func TestSpillRoundTrip(t *testing.T) {
	ctx := context.Background()
	prefix := t.TempDir()

	s := NewSpill(prefix)
	d, err := s.Create(ctx, "0-stage_data", window.Shape{3, 4})
	if err != nil {
		t.Fatal(err)
	}
	buf := frame.Make(3, 4)
	for i := range buf.Data() {
		buf.Data()[i] = float64(i)
	}
	if err := d.WriteWindow(ctx, window.Window{window.All(), window.All()}, buf); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	// A fresh store over the same prefix sees the spilled dataset.
	s = NewSpill(prefix)
	d, err = s.Open(ctx, "0-stage_data")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := d.Shape(), (window.Shape{3, 4}); !got.Equal(want) {
		t.Fatalf("got shape %v, want %v", got, want)
	}
	got, err := d.ReadWindow(ctx, window.Window{window.All(), window.All()})
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(buf) {
		t.Errorf("got %v, want %v", got.Data(), buf.Data())
	}
}

// Runs spilled to a shared scratch directory repeat dataset names,
// so each run's store must live under its own digest-keyed prefix.
func TestSpillRunIsolation(t *testing.T) {
	ctx := context.Background()
	scratch := t.TempDir()
	const name = "0-smooth_data"

	runA := RunDigest([]string{"loader", "smooth", "saver"})
	runB := RunDigest([]string{"loader2", "smooth", "saver"})
	if runA == runB {
		t.Fatal("runs share a digest")
	}
	write := func(digest uint64, value float64) {
		s := NewSpill(RunPrefix(scratch, digest))
		d, err := s.Create(ctx, name, window.Shape{2})
		if err != nil {
			t.Fatal(err)
		}
		buf := frame.Make(2)
		buf.Data()[0], buf.Data()[1] = value, value
		if err := d.WriteWindow(ctx, window.Window{window.All()}, buf); err != nil {
			t.Fatal(err)
		}
		if err := s.Close(); err != nil {
			t.Fatal(err)
		}
	}
	write(runA, 1)
	write(runB, 2)

	for _, c := range []struct {
		digest uint64
		want   float64
	}{
		{runA, 1},
		{runB, 2},
	} {
		d, err := NewSpill(RunPrefix(scratch, c.digest)).Open(ctx, name)
		if err != nil {
			t.Fatal(err)
		}
		got, err := d.ReadWindow(ctx, window.Window{window.All()})
		if err != nil {
			t.Fatal(err)
		}
		if got.Data()[0] != c.want {
			t.Errorf("run %016x: got %v, want %v", c.digest, got.Data()[0], c.want)
		}
	}
}

// Writes to a dataset reopened from disk must survive Close just
// like writes to a created one.
func TestSpillFlushReopened(t *testing.T) {
	ctx := context.Background()
	prefix := t.TempDir()

	s := NewSpill(prefix)
	d, err := s.Create(ctx, "d", window.Shape{3})
	if err != nil {
		t.Fatal(err)
	}
	buf := frame.Make(3)
	if err := d.WriteWindow(ctx, window.Window{window.All()}, buf); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s = NewSpill(prefix)
	if d, err = s.Open(ctx, "d"); err != nil {
		t.Fatal(err)
	}
	patch := frame.Make(1)
	patch.Data()[0] = 7
	if err := d.WriteWindow(ctx, window.Window{window.At(1)}, patch); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	d, err = NewSpill(prefix).Open(ctx, "d")
	if err != nil {
		t.Fatal(err)
	}
	got, err := d.ReadWindow(ctx, window.Window{window.All()})
	if err != nil {
		t.Fatal(err)
	}
	if want := []float64{0, 7, 0}; got.Data()[1] != want[1] {
		t.Errorf("got %v, want %v", got.Data(), want)
	}
}

func TestSpillNotExist(t *testing.T) {
	ctx := context.Background()
	s := NewSpill(t.TempDir())
	if _, err := s.Open(ctx, "nothing"); !errors.Is(errors.NotExist, err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestSpillCreateTwice(t *testing.T) {
	ctx := context.Background()
	s := NewSpill(t.TempDir())
	if _, err := s.Create(ctx, "d", window.Shape{2}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Create(ctx, "d", window.Shape{2}); !errors.Is(errors.Exists, err) {
		t.Errorf("expected exists error, got %v", err)
	}
}
