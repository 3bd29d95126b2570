// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package tomoslice

import (
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/tomoslice/window"
)

// Batch groups a sequence of unit slices into frame batches of at
// most maxFrames contiguous frames along dimension fastDim. The
// input is first split into banks: maximal runs of consecutive
// windows that agree on every span except fastDim, i.e., one full
// sweep of the fastest slice dimension. Each bank of length L yields
// floor(L/maxFrames) batches of exactly maxFrames frames and, when L
// is not a multiple of maxFrames, a trailing batch with the
// remainder. Concatenating a bank's batches reconstructs the bank's
// range with no gaps or overlaps, and batch order preserves bank
// order.
//
// Every input window must carry a unit span on fastDim. A bank whose
// fastDim coordinates are not contiguous and ascending indicates a
// malformed enumeration; Batch reports it as an integrity error.
func Batch(slices []window.Window, fastDim, maxFrames int) ([]window.Window, error) {
	if maxFrames <= 0 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("batch: nonpositive batch size %d", maxFrames))
	}
	if len(slices) == 0 {
		return nil, nil
	}
	if fastDim < 0 || fastDim >= len(slices[0]) {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("batch: dimension %d out of range [0,%d)", fastDim, len(slices[0])))
	}

	var (
		out       []window.Window
		bankFirst window.Window
		bankLen   int
	)
	flush := func() {
		full := bankLen / maxFrames
		start := bankFirst[fastDim].Start
		for i := 0; i < full; i++ {
			w := bankFirst.Clone()
			w[fastDim] = window.Range(start+i*maxFrames, start+(i+1)*maxFrames)
			out = append(out, w)
		}
		if rem := bankLen % maxFrames; rem != 0 {
			w := bankFirst.Clone()
			w[fastDim] = window.Range(start+full*maxFrames, start+bankLen)
			out = append(out, w)
		}
	}
	for _, w := range slices {
		if len(w) != len(slices[0]) {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("batch: window %s has rank %d, want %d", w, len(w), len(slices[0])))
		}
		if !w[fastDim].Unit() {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("batch: window %s is not a unit slice on dimension %d", w, fastDim))
		}
		switch {
		case bankFirst == nil:
			bankFirst, bankLen = w, 1
		case sameBank(bankFirst, w, fastDim):
			if w[fastDim].Start != bankFirst[fastDim].Start+bankLen {
				return nil, errors.E(errors.Integrity, fmt.Sprintf("batch: bank starting at %s is not contiguous at %s", bankFirst, w))
			}
			bankLen++
		default:
			flush()
			bankFirst, bankLen = w, 1
		}
	}
	flush()
	return out, nil
}

// sameBank reports whether windows v and w agree on every dimension
// except fastDim.
func sameBank(v, w window.Window, fastDim int) bool {
	for d := range v {
		if d == fastDim {
			continue
		}
		if !v[d].Equal(w[d]) {
			return false
		}
	}
	return true
}
