// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package tomoslice

import (
	"context"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/tomoslice/frame"
	"github.com/grailbio/tomoslice/window"
)

// denseReader serves windowed reads from an in-memory buffer.
type denseReader struct {
	d *frame.Dense
}

func (r denseReader) ReadWindow(ctx context.Context, w window.Window) (*frame.Dense, error) {
	shape := window.Shape(r.d.Shape())
	v, err := w.Resolve(shape)
	if err != nil {
		return nil, err
	}
	start := make([]int, len(v))
	size := make([]int, len(v))
	for i, s := range v {
		start[i], size[i] = s.Start, s.Len()
	}
	return r.d.Region(start, size), nil
}

func ramp(n int) *frame.Dense {
	data := make([]float64, n)
	for i := range data {
		data[i] = float64(i)
	}
	d, err := frame.Values(data, n)
	if err != nil {
		panic(err)
	}
	return d
}

func TestPadSpanClipsLow(t *testing.T) {
	// Shape [10], window [0,3), width 2: read [0,5) with a low pad
	// of 2 and no high pad.
	s, pad, err := PadSpan(window.Range(0, 3), 2, 10)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := s, window.Range(0, 5); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := pad, (Pad{Lo: 2, Hi: 0}); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestPadSpanClipsHigh(t *testing.T) {
	s, pad, err := PadSpan(window.Range(7, 10), 2, 10)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := s, window.Range(5, 10); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := pad, (Pad{Lo: 0, Hi: 2}); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestPadSpanInterior(t *testing.T) {
	s, pad, err := PadSpan(window.Range(4, 6), 2, 10)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := s, window.Range(2, 8); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := pad, (Pad{}); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestPadSpanWhole(t *testing.T) {
	// An unbounded span wants the full pad amount on both sides.
	s, pad, err := PadSpan(window.All(), 3, 10)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := s, window.Range(0, 10); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := pad, (Pad{Lo: 3, Hi: 3}); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestPadSpanErrors(t *testing.T) {
	if _, _, err := PadSpan(window.Range(2, 4), -1, 10); !errors.Is(errors.Invalid, err) {
		t.Errorf("expected invalid error for negative width, got %v", err)
	}
	if _, _, err := PadSpan(window.Range(4, 2), 1, 10); !errors.Is(errors.Invalid, err) {
		t.Errorf("expected invalid error for inverted span, got %v", err)
	}
	if _, _, err := PadSpan(window.Range(20, 22), 1, 10); !errors.Is(errors.Invalid, err) {
		t.Errorf("expected invalid error for disjoint span, got %v", err)
	}
}

func TestReadPaddedEdgeClipping(t *testing.T) {
	// Spec case: shape [10], window [0,3), width 2. The result has
	// length 3+2*2=7 and its first two elements replicate element 0.
	ctx := context.Background()
	d := ramp(10)
	got, err := ReadPadded(ctx, denseReader{d}, window.Window{window.Range(0, 3)}, PadSpec{0: 2}, window.Shape{10})
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0, 0, 0, 1, 2, 3, 4}
	if got.Len() != len(want) {
		t.Fatalf("got length %v, want %v", got.Len(), len(want))
	}
	for i, w := range want {
		if v := got.At(i); v != w {
			t.Errorf("element %d: got %v, want %v", i, v, w)
		}
	}
}

// TestPadRoundTrip checks that stripping the halo from a padded read
// recovers the raw unpadded read, for every in-bounds window of a
// small dataset.
func TestPadRoundTrip(t *testing.T) {
	ctx := context.Background()
	d := ramp(10)
	r := denseReader{d}
	for width := 0; width <= 3; width++ {
		for start := 0; start < 10; start++ {
			for stop := start + 1; stop <= 10; stop++ {
				w := window.Window{window.Range(start, stop)}
				spec := PadSpec{0: width}
				padded, err := ReadPadded(ctx, r, w, spec, window.Shape{10})
				if err != nil {
					t.Fatal(err)
				}
				if got, want := padded.Len(), stop-start+2*width; got != want {
					t.Fatalf("window %v width %d: padded length %v, want %v", w, width, got, want)
				}
				stripped, err := StripPad(padded, spec)
				if err != nil {
					t.Fatal(err)
				}
				raw, err := r.ReadWindow(ctx, w)
				if err != nil {
					t.Fatal(err)
				}
				if !stripped.Equal(raw) {
					t.Fatalf("window %v width %d: round trip %v, want %v", w, width, stripped.Data(), raw.Data())
				}
			}
		}
	}
}

func TestReadPadded2D(t *testing.T) {
	ctx := context.Background()
	d := frame.Make(4, 6)
	for i := 0; i < 4; i++ {
		for j := 0; j < 6; j++ {
			d.Set(float64(10*i+j), i, j)
		}
	}
	// Pad only dimension 0; dimension 1 passes through whole.
	w := window.Window{window.Range(3, 4), window.All()}
	padded, err := ReadPadded(ctx, denseReader{d}, w, PadSpec{0: 1}, window.Shape{4, 6})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := padded.Shape(), []int{3, 6}; got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got shape %v, want %v", got, want)
	}
	// Rows: 2, 3, then 3 replicated past the edge.
	for j := 0; j < 6; j++ {
		if got, want := padded.At(0, j), d.At(2, j); got != want {
			t.Errorf("(0,%d): got %v, want %v", j, got, want)
		}
		if got, want := padded.At(2, j), d.At(3, j); got != want {
			t.Errorf("(2,%d): got %v, want %v", j, got, want)
		}
	}
}

func TestStripPadErrors(t *testing.T) {
	d := frame.Make(5)
	if _, err := StripPad(d, PadSpec{1: 1}); !errors.Is(errors.Invalid, err) {
		t.Errorf("expected invalid error for bad dimension, got %v", err)
	}
	if _, err := StripPad(d, PadSpec{0: 3}); !errors.Is(errors.Invalid, err) {
		t.Errorf("expected invalid error for oversized strip, got %v", err)
	}
	if _, err := StripPad(d, PadSpec{0: -1}); !errors.Is(errors.Invalid, err) {
		t.Errorf("expected invalid error for negative width, got %v", err)
	}
}
