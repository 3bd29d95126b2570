// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package window implements the value types used to describe
// rectangular sub-regions of an N-dimensional dataset: Shapes,
// Spans, and Windows. Slicing plans, frame batches, and store
// requests all carry window.Windows.
package window

import (
	"fmt"
	"strings"

	"github.com/grailbio/base/errors"
)

// A Shape is the extent of a dataset, one entry per dimension.
// Extents are element counts, not bytes.
type Shape []int

// Elems returns the total number of elements in the shape.
func (s Shape) Elems() int {
	n := 1
	for _, extent := range s {
		n *= extent
	}
	return n
}

// Valid reports whether every extent is positive.
func (s Shape) Valid() bool {
	for _, extent := range s {
		if extent <= 0 {
			return false
		}
	}
	return true
}

// Equal reports whether shapes s and t are equal.
func (s Shape) Equal(t Shape) bool {
	if len(s) != len(t) {
		return false
	}
	for i := range s {
		if s[i] != t[i] {
			return false
		}
	}
	return true
}

func (s Shape) String() string {
	elems := make([]string, len(s))
	for i, extent := range s {
		elems[i] = fmt.Sprint(extent)
	}
	return "(" + strings.Join(elems, ",") + ")"
}

// A Span describes one dimension of a window: either the whole
// dimension, or the half-open range [Start, Stop) with unit step.
type Span struct {
	Start, Stop int
	// Whole indicates that the span covers the full dimension,
	// whatever its extent. Start and Stop are ignored.
	Whole bool
}

// All returns a span covering a whole dimension.
func All() Span {
	return Span{Whole: true}
}

// At returns the unit span [i, i+1).
func At(i int) Span {
	return Span{Start: i, Stop: i + 1}
}

// Range returns the span [start, stop).
func Range(start, stop int) Span {
	return Span{Start: start, Stop: stop}
}

// Len returns the number of elements covered by the span. Len panics
// if the span is whole; whole spans must first be resolved against an
// extent.
func (s Span) Len() int {
	if s.Whole {
		panic("window: length of unresolved span")
	}
	return s.Stop - s.Start
}

// Unit reports whether the span covers exactly one element.
func (s Span) Unit() bool {
	return !s.Whole && s.Stop-s.Start == 1
}

// Resolve returns the span with whole spans replaced by the concrete
// range [0, extent).
func (s Span) Resolve(extent int) Span {
	if s.Whole {
		return Span{Start: 0, Stop: extent}
	}
	return s
}

// Equal reports whether spans s and t describe the same range.
func (s Span) Equal(t Span) bool {
	if s.Whole || t.Whole {
		return s.Whole == t.Whole
	}
	return s.Start == t.Start && s.Stop == t.Stop
}

func (s Span) String() string {
	if s.Whole {
		return ":"
	}
	return fmt.Sprintf("%d:%d", s.Start, s.Stop)
}

// A Window identifies one addressable sub-array of a dataset. It has
// one span per dimension.
type Window []Span

// Make returns a window of n whole spans.
func Make(n int) Window {
	w := make(Window, n)
	for i := range w {
		w[i] = All()
	}
	return w
}

// Clone returns a copy of the window that shares no storage with w.
func (w Window) Clone() Window {
	v := make(Window, len(w))
	copy(v, w)
	return v
}

// Equal reports whether windows w and v describe the same region.
func (w Window) Equal(v Window) bool {
	if len(w) != len(v) {
		return false
	}
	for i := range w {
		if !w[i].Equal(v[i]) {
			return false
		}
	}
	return true
}

// Resolve returns the window with whole spans resolved against the
// provided shape. It returns an error if the window's rank does not
// match the shape or if any span falls outside the shape's bounds.
func (w Window) Resolve(shape Shape) (Window, error) {
	if len(w) != len(shape) {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("window: rank mismatch: window %s, shape %s", w, shape))
	}
	v := make(Window, len(w))
	for i, s := range w {
		s = s.Resolve(shape[i])
		if s.Start < 0 || s.Stop > shape[i] || s.Start > s.Stop {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("window: span %s out of bounds for extent %d", s, shape[i]))
		}
		v[i] = s
	}
	return v, nil
}

// Shape returns the shape of the region described by the window,
// resolved against the dataset shape.
func (w Window) Shape(shape Shape) (Shape, error) {
	v, err := w.Resolve(shape)
	if err != nil {
		return nil, err
	}
	out := make(Shape, len(v))
	for i, s := range v {
		out[i] = s.Len()
	}
	return out, nil
}

func (w Window) String() string {
	elems := make([]string, len(w))
	for i, s := range w {
		elems[i] = s.String()
	}
	return "[" + strings.Join(elems, ",") + "]"
}
