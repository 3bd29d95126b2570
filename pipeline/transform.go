// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package pipeline

import (
	"context"
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/tomoslice/frame"
)

// NewTransform builds one of the built-in transforms from its name
// and parameter map. Unknown names are reported with kind
// NotSupported.
func NewTransform(name string, params map[string]float64) (Transform, error) {
	maker, ok := transforms[name]
	if !ok {
		return nil, errors.E(errors.NotSupported, fmt.Sprintf("pipeline: no transform %q", name))
	}
	return maker(params)
}

var transforms = map[string]func(map[string]float64) (Transform, error){
	"identity": func(map[string]float64) (Transform, error) {
		return identity{}, nil
	},
	"gain": func(params map[string]float64) (Transform, error) {
		factor, ok := params["factor"]
		if !ok {
			return nil, errors.E(errors.Invalid, "pipeline: gain requires a factor parameter")
		}
		return gain(factor), nil
	},
	"smooth": func(params map[string]float64) (Transform, error) {
		dim := int(params["dim"])
		width := int(params["width"])
		if width <= 0 {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("pipeline: smooth requires a positive width, got %d", width))
		}
		return &smooth{dim: dim, width: width}, nil
	},
}

type identity struct{}

func (identity) Apply(ctx context.Context, in *frame.Dense) (*frame.Dense, error) {
	return in, nil
}

type gain float64

func (g gain) Apply(ctx context.Context, in *frame.Dense) (*frame.Dense, error) {
	out := in.Clone()
	data := out.Data()
	for i := range data {
		data[i] *= float64(g)
	}
	return out, nil
}

// smooth is a box-mean filter along one dimension. Neighbors beyond
// the buffer are taken as the nearest edge element, matching the
// halo's edge-replicated semantics: smoothing a batch padded by the
// filter's width and then stripping the halo equals smoothing the
// whole dataset at once.
type smooth struct {
	dim, width int
}

func (s *smooth) Apply(ctx context.Context, in *frame.Dense) (*frame.Dense, error) {
	shape := in.Shape()
	if s.dim < 0 || s.dim >= len(shape) {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("pipeline: smooth dimension %d out of range [0,%d)", s.dim, len(shape)))
	}
	out := frame.Make(shape...)
	n := shape[s.dim]
	ix := make([]int, len(shape))
	jx := make([]int, len(shape))
	for off := 0; off < out.Len(); off++ {
		copy(jx, ix)
		var sum float64
		for k := -s.width; k <= s.width; k++ {
			c := ix[s.dim] + k
			if c < 0 {
				c = 0
			} else if c >= n {
				c = n - 1
			}
			jx[s.dim] = c
			sum += in.At(jx...)
		}
		out.Data()[off] = sum / float64(2*s.width+1)
		for d := len(ix) - 1; d >= 0; d-- {
			ix[d]++
			if ix[d] < shape[d] {
				break
			}
			ix[d] = 0
		}
	}
	return out, nil
}
