// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package ctxsync provides context-aware synchronization primitives
// for coordinating tomoslice worker ranks.
package ctxsync

import (
	"context"
	"sync"

	"github.com/grailbio/base/must"
)

// A Barrier blocks each arriving party until n parties have arrived,
// then releases them all. Barriers are cyclic: once released, the
// barrier resets and can coordinate the next phase. Worker ranks use
// a shared Barrier between pipeline stages so that no rank proceeds
// until every rank's plan for the previous stage is complete.
type Barrier struct {
	n int

	mu      sync.Mutex
	arrived int
	waitc   chan struct{}
}

// NewBarrier returns a new Barrier for n parties. n must be
// positive.
func NewBarrier(n int) *Barrier {
	must.Truef(n > 0, "barrier of %d parties", n)
	return &Barrier{n: n}
}

// Wait blocks until n parties (including the caller) have called
// Wait, or until the context is complete, in which case the
// context's error is returned. A Wait that returns early due to the
// context still counts as arrived for the current cycle; callers
// abandoning a barrier should abandon the whole computation.
func (b *Barrier) Wait(ctx context.Context) error {
	b.mu.Lock()
	if b.waitc == nil {
		b.waitc = make(chan struct{})
	}
	b.arrived++
	if b.arrived == b.n {
		close(b.waitc)
		b.waitc = nil
		b.arrived = 0
		b.mu.Unlock()
		return nil
	}
	waitc := b.waitc
	b.mu.Unlock()
	select {
	case <-waitc:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
