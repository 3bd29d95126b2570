// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package tomoslice

import (
	"context"
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/tomoslice/frame"
	"github.com/grailbio/tomoslice/window"
)

// A PadSpec maps a dimension index to the halo width required on
// that dimension. Widths are element counts applied symmetrically to
// both sides of a requested window before boundary clipping.
type PadSpec map[int]int

// A Pad records how many synthetic edge-replicated elements must be
// prepended (Lo) and appended (Hi) along one dimension after an
// in-bounds read to reconstruct the requested window length.
type Pad struct {
	Lo, Hi int
}

// PadSpan widens span s by width elements on each side, clips the
// result to the valid extent [0, extent), and returns the clipped
// in-bounds span together with the pad amounts lost to clipping. A
// whole span is treated as unbounded: the clipped span covers the
// full extent and the full width is padded on both sides. PadSpan
// fails if the width is negative, the span is inverted, or the
// clipped span is empty, in which case there is no edge value to
// replicate.
func PadSpan(s window.Span, width, extent int) (window.Span, Pad, error) {
	if width < 0 {
		return window.Span{}, Pad{}, errors.E(errors.Invalid, fmt.Sprintf("pad: negative width %d", width))
	}
	if s.Whole {
		return window.Range(0, extent), Pad{Lo: width, Hi: width}, nil
	}
	if s.Start > s.Stop {
		return window.Span{}, Pad{}, errors.E(errors.Invalid, fmt.Sprintf("pad: inverted span %s", s))
	}
	var p Pad
	lo := s.Start - width
	if lo < 0 {
		p.Lo = -lo
		lo = 0
	}
	hi := s.Stop + width
	if hi > extent {
		p.Hi = hi - extent
		hi = extent
	}
	if lo >= hi {
		return window.Span{}, Pad{}, errors.E(errors.Invalid, fmt.Sprintf("pad: span %s width %d does not intersect extent %d", s, width, extent))
	}
	return window.Range(lo, hi), p, nil
}

// PadWindow applies PadSpan to every dimension of w named in spec,
// for a dataset of the given shape. It returns the clipped in-bounds
// window plus one Pad per dimension; dimensions absent from spec
// pass through unchanged with a zero Pad.
func PadWindow(w window.Window, spec PadSpec, shape window.Shape) (window.Window, []Pad, error) {
	if len(w) != len(shape) {
		return nil, nil, errors.E(errors.Invalid, fmt.Sprintf("pad: window %s has rank %d, shape %s", w, len(w), shape))
	}
	clipped := w.Clone()
	pads := make([]Pad, len(w))
	for d, width := range spec {
		if d < 0 || d >= len(w) {
			return nil, nil, errors.E(errors.Invalid, fmt.Sprintf("pad: dimension %d out of range [0,%d)", d, len(w)))
		}
		var err error
		clipped[d], pads[d], err = PadSpan(w[d], width, shape[d])
		if err != nil {
			return nil, nil, err
		}
	}
	return clipped, pads, nil
}

// A Reader reads the elements covered by a window from a backing
// dataset. Whole spans are resolved against the dataset's shape.
type Reader interface {
	ReadWindow(ctx context.Context, w window.Window) (*frame.Dense, error)
}

// ReadPadded reads window w from r with the halo demanded by spec
// attached. The read itself covers only the in-bounds clipped
// window; elements that would fall outside the dataset are
// reconstructed by replicating the nearest edge of the read data, so
// each padded dimension of the result has length (stop-start) +
// 2*width, exactly as if the dataset extended past its bounds with
// edge values.
func ReadPadded(ctx context.Context, r Reader, w window.Window, spec PadSpec, shape window.Shape) (*frame.Dense, error) {
	clipped, pads, err := PadWindow(w, spec, shape)
	if err != nil {
		return nil, err
	}
	d, err := r.ReadWindow(ctx, clipped)
	if err != nil {
		return nil, err
	}
	lo := make([]int, len(pads))
	hi := make([]int, len(pads))
	for i, p := range pads {
		lo[i], hi[i] = p.Lo, p.Hi
	}
	return d.PadEdge(lo, hi), nil
}

// StripPad removes the halo attached by ReadPadded: width elements
// from each end of every dimension named in spec. The padded buffer
// always carries exactly width halo elements on each side of the
// requested window, whether they were read in bounds or replicated,
// so stripping recovers the originally requested window.
func StripPad(d *frame.Dense, spec PadSpec) (*frame.Dense, error) {
	shape := d.Shape()
	lo := make([]int, len(shape))
	hi := make([]int, len(shape))
	for dim, width := range spec {
		if dim < 0 || dim >= len(shape) {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("pad: dimension %d out of range [0,%d)", dim, len(shape)))
		}
		if width < 0 {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("pad: negative width %d", width))
		}
		if 2*width >= shape[dim] {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("pad: width %d strips entire extent %d of dimension %d", width, shape[dim], dim))
		}
		lo[dim], hi[dim] = width, width
	}
	return d.Shrink(lo, hi), nil
}
