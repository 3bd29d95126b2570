// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package tomoslice

import (
	"fmt"

	"github.com/grailbio/base/errors"
)

// A Pattern partitions the dimensions of a dataset into three
// disjoint roles. Core dimensions are kept whole inside every unit of
// work; slice dimensions are iterated over to produce independent
// units; fixed dimensions are pinned to a single index for the
// current request. Every dimension belongs to exactly one role.
// Patterns are pure metadata and are safe to share between ranks.
type Pattern struct {
	// Core and Fixed hold the dimensions named by the caller, in the
	// caller's order. Slice holds the remaining dimensions in
	// ascending order: earlier entries vary slower during slice
	// enumeration.
	Core, Slice, Fixed []int

	ndim int
}

// Classify builds the Pattern for a dataset of ndim dimensions given
// the core and fixed dimension lists. Every dimension not named
// becomes a slice dimension. Classify fails if the lists overlap,
// name a dimension twice, or reference a dimension outside
// [0, ndim).
func Classify(ndim int, core, fixed []int) (Pattern, error) {
	if ndim <= 0 {
		return Pattern{}, errors.E(errors.Invalid, fmt.Sprintf("pattern: nonpositive rank %d", ndim))
	}
	role := make([]int, ndim) // 0 slice, 1 core, 2 fixed
	take := func(dims []int, r int) error {
		for _, d := range dims {
			if d < 0 || d >= ndim {
				return errors.E(errors.Invalid, fmt.Sprintf("pattern: dimension %d out of range [0,%d)", d, ndim))
			}
			if role[d] != 0 {
				return errors.E(errors.Invalid, fmt.Sprintf("pattern: dimension %d assigned two roles", d))
			}
			role[d] = r
		}
		return nil
	}
	if err := take(core, 1); err != nil {
		return Pattern{}, err
	}
	if err := take(fixed, 2); err != nil {
		return Pattern{}, err
	}
	p := Pattern{
		Core:  append([]int{}, core...),
		Fixed: append([]int{}, fixed...),
		ndim:  ndim,
	}
	for d := 0; d < ndim; d++ {
		if role[d] == 0 {
			p.Slice = append(p.Slice, d)
		}
	}
	return p, nil
}

// NumDims returns the number of dataset dimensions the pattern
// describes.
func (p Pattern) NumDims() int {
	return p.ndim
}

// FastDim returns the fastest-varying slice dimension, along which
// frame batches are formed. FastDim panics if the pattern has no
// slice dimensions.
func (p Pattern) FastDim() int {
	if len(p.Slice) == 0 {
		panic("tomoslice: pattern has no slice dimensions")
	}
	return p.Slice[len(p.Slice)-1]
}

func (p Pattern) String() string {
	return fmt.Sprintf("pattern(core %v, slice %v, fixed %v)", p.Core, p.Slice, p.Fixed)
}
