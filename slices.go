// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package tomoslice

import (
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/tomoslice/window"
)

// Slices enumerates every unit slice of the pattern's slice subspace
// for a dataset of the given shape. Enumeration is nested-loop order
// over the pattern's slice dimensions: earlier slice dimensions vary
// slower, the last varies fastest. The result contains exactly
// product(shape[d] for d in p.Slice) windows; taken together, their
// unit spans cover every coordinate of the slice subspace exactly
// once. Core dimensions appear as whole spans and fixed dimensions
// are pinned to the corresponding entry of fixed, which must have
// one value per fixed dimension.
func Slices(shape window.Shape, p Pattern, fixed []int) ([]window.Window, error) {
	if len(shape) != p.ndim {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("slices: shape %s has rank %d, pattern %d", shape, len(shape), p.ndim))
	}
	if !shape.Valid() {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("slices: invalid shape %s", shape))
	}
	if len(fixed) != len(p.Fixed) {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("slices: %d fixed values for %d fixed dimensions", len(fixed), len(p.Fixed)))
	}
	base := window.Make(p.ndim)
	for i, d := range p.Fixed {
		if fixed[i] < 0 || fixed[i] >= shape[d] {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("slices: fixed index %d out of range for dimension %d (extent %d)", fixed[i], d, shape[d]))
		}
		base[d] = window.At(fixed[i])
	}

	n := 1
	for _, d := range p.Slice {
		n *= shape[d]
	}
	out := make([]window.Window, 0, n)
	coord := make([]int, len(p.Slice))
	for i := 0; i < n; i++ {
		w := base.Clone()
		for j, d := range p.Slice {
			w[d] = window.At(coord[j])
		}
		out = append(out, w)
		for k := len(coord) - 1; k >= 0; k-- {
			coord[k]++
			if coord[k] < shape[p.Slice[k]] {
				break
			}
			coord[k] = 0
		}
	}
	return out, nil
}

// Project returns the spans of w for dimensions not named in core,
// preserving their order. It is used to hand a caller only the
// slice-space coordinates of a full window.
func Project(w window.Window, core []int) ([]window.Span, error) {
	drop := make(map[int]bool, len(core))
	for _, d := range core {
		if d < 0 || d >= len(w) {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("project: dimension %d out of range [0,%d)", d, len(w)))
		}
		drop[d] = true
	}
	out := make([]window.Span, 0, len(w)-len(drop))
	for d, s := range w {
		if !drop[d] {
			out = append(out, s)
		}
	}
	return out, nil
}
