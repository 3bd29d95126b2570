// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package tomoslice

import (
	"fmt"

	"github.com/grailbio/base/errors"
)

// An Assignment is one worker rank's contiguous share [Lo, Hi) of a
// sequence of n items, computed by Assign. Assignments computed by
// different ranks from the same inputs partition [0, n) exactly.
type Assignment struct {
	// Procs and Rank identify the topology the assignment was
	// computed for.
	Procs, Rank int
	// Lo and Hi bound the half-open range of item indices assigned
	// to Rank.
	Lo, Hi int
}

// Len returns the number of items assigned.
func (a Assignment) Len() int {
	return a.Hi - a.Lo
}

func (a Assignment) String() string {
	return fmt.Sprintf("assignment(%d/%d: [%d,%d))", a.Rank, a.Procs, a.Lo, a.Hi)
}

// Assign splits n items across procs worker ranks as evenly as
// possible and returns rank's share. The first n mod procs ranks
// receive ceil(n/procs) items and the remainder receive
// floor(n/procs); ranges are contiguous and ordered by rank, so all
// per-rank sizes differ by at most one. Ranks beyond the item count
// receive an empty range. The same rule applies whether the items
// are frame batches or any other distributable unit.
func Assign(n, procs, rank int) (Assignment, error) {
	if procs <= 0 {
		return Assignment{}, errors.E(errors.Invalid, fmt.Sprintf("assign: nonpositive process count %d", procs))
	}
	if rank < 0 || rank >= procs {
		return Assignment{}, errors.E(errors.Invalid, fmt.Sprintf("assign: rank %d out of range [0,%d)", rank, procs))
	}
	if n < 0 {
		return Assignment{}, errors.E(errors.Invalid, fmt.Sprintf("assign: negative item count %d", n))
	}
	q, r := n/procs, n%procs
	a := Assignment{Procs: procs, Rank: rank}
	if rank < r {
		a.Lo = rank * (q + 1)
		a.Hi = a.Lo + q + 1
	} else {
		a.Lo = r*(q+1) + (rank-r)*q
		a.Hi = a.Lo + q
	}
	return a, nil
}
