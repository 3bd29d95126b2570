// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package pipeline

import (
	"context"
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/status"
	"github.com/grailbio/tomoslice"
	"github.com/grailbio/tomoslice/ctxsync"
	"github.com/grailbio/tomoslice/store"
	"github.com/grailbio/tomoslice/window"
	"golang.org/x/sync/errgroup"
)

// A Pipeline is one processing run: a validated stage list executed
// by Procs worker ranks over a shared intermediate store. Every rank
// computes an identical plan for each stage; ranks synchronize with
// a collective barrier between stages so that downstream dataset
// naming and creation stay globally consistent.
type Pipeline struct {
	// Stages is the declarative stage list. It must begin with a
	// loader and end with a saver.
	Stages []Stage

	// Procs is the number of worker ranks.
	Procs int

	// Store holds the intermediates produced by process stages. If
	// nil, an in-memory store is used.
	Store store.Store

	// OutPath and ProcessFile feed the deterministic output naming
	// of saver stages that do not declare an explicit path.
	OutPath     string
	ProcessFile string

	// Status, if non-nil, receives per-rank progress.
	Status *status.Status
}

// Digest returns the pipeline's run digest, derived from its stage
// identifiers.
func (p *Pipeline) Digest() uint64 {
	ids := make([]string, len(p.Stages))
	for i, s := range p.Stages {
		ids[i] = s.ID
	}
	return store.RunDigest(ids)
}

// RunLocal validates the pipeline and executes it with Procs ranks
// running as goroutines over the shared store. It simulates the
// fixed process topology of a cluster run; each rank performs only
// the work of its own assignments, and ranks meet at a barrier
// between stages.
func RunLocal(ctx context.Context, p *Pipeline) error {
	if err := Validate(p.Stages); err != nil {
		return err
	}
	if p.Procs <= 0 {
		return errors.E(errors.Invalid, fmt.Sprintf("pipeline: nonpositive process count %d", p.Procs))
	}
	if p.Store == nil {
		p.Store = store.NewMem()
	}
	digest := p.Digest()
	log.Printf("pipeline: run %016x: %d stages on %d ranks", digest, len(p.Stages), p.Procs)
	var group *status.Group
	if p.Status != nil {
		group = p.Status.Groupf("run %016x", digest)
	}
	barrier := ctxsync.NewBarrier(p.Procs)
	g, ctx := errgroup.WithContext(ctx)
	for rank := 0; rank < p.Procs; rank++ {
		rank := rank
		g.Go(func() error {
			return p.runRank(ctx, rank, barrier, group)
		})
	}
	return g.Wait()
}

func (p *Pipeline) runRank(ctx context.Context, rank int, barrier *ctxsync.Barrier, group *status.Group) error {
	loader := p.Stages[0]
	cur, closeInput, err := loader.open()
	if err != nil {
		return err
	}
	defer closeInput()

	for idx := 1; idx < len(p.Stages)-1; idx++ {
		s := p.Stages[idx]
		out, err := p.runStage(ctx, rank, idx, s, cur, barrier, group)
		if err != nil {
			return errors.E(fmt.Sprintf("pipeline: stage %d %s rank %d", idx, s.ID, rank), err)
		}
		cur = out
	}

	// The saver exports the final dataset; one rank writes after
	// every rank's last stage is complete.
	if err := barrier.Wait(ctx); err != nil {
		return err
	}
	if rank == 0 {
		if err := p.save(ctx, cur); err != nil {
			return err
		}
	}
	return barrier.Wait(ctx)
}

// runStage executes one process stage for one rank and returns the
// stage's output dataset.
func (p *Pipeline) runStage(ctx context.Context, rank, idx int, s Stage, in store.Dataset, barrier *ctxsync.Barrier, group *status.Group) (store.Dataset, error) {
	shape := in.Shape()
	pattern, err := tomoslice.Classify(len(shape), s.Core, s.Fixed)
	if err != nil {
		return nil, err
	}
	slices, err := tomoslice.Slices(shape, pattern, s.FixedValues)
	if err != nil {
		return nil, err
	}
	batches := slices
	if len(pattern.Slice) > 0 {
		maxFrames := s.MaxFrames
		if maxFrames == 0 {
			maxFrames = 1
		}
		if batches, err = tomoslice.Batch(slices, pattern.FastDim(), maxFrames); err != nil {
			return nil, err
		}
	}
	assignment, err := tomoslice.Assign(len(batches), p.Procs, rank)
	if err != nil {
		return nil, err
	}
	log.Debug.Printf("pipeline: stage %d %s rank %d: %d of %d batches", idx, s.ID, rank, assignment.Len(), len(batches))

	// All ranks agree on the output name before any rank creates it.
	name := store.GroupName(idx-1, s.ID) + "_data"
	if rank == 0 {
		if _, err := p.Store.Create(ctx, name, shape); err != nil {
			return nil, err
		}
	}
	if err := barrier.Wait(ctx); err != nil {
		return nil, err
	}
	out, err := p.Store.Open(ctx, name)
	if err != nil {
		return nil, err
	}

	var task *status.Task
	if group != nil {
		task = group.Start(fmt.Sprintf("stage %d %s rank %d", idx, s.ID, rank))
	}
	for i, b := range batches[assignment.Lo:assignment.Hi] {
		padded, err := tomoslice.ReadPadded(ctx, in, b, s.Padding, shape)
		if err != nil {
			return nil, err
		}
		result, err := s.Transform.Apply(ctx, padded)
		if err != nil {
			return nil, err
		}
		if !shapeEqual(padded.Shape(), result.Shape()) {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("pipeline: transform %s changed batch shape %v to %v", s.ID, padded.Shape(), result.Shape()))
		}
		stripped, err := tomoslice.StripPad(result, s.Padding)
		if err != nil {
			return nil, err
		}
		if err := out.WriteWindow(ctx, b, stripped); err != nil {
			return nil, err
		}
		if task != nil {
			task.Printf("%d/%d batches", i+1, assignment.Len())
		}
	}
	if task != nil {
		task.Done()
	}
	// No rank reads the stage's output before every rank has written
	// its share.
	if err := barrier.Wait(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

// save exports the final dataset through the saver stage. With no
// explicit path and no output directory the result is left in the
// intermediate store.
func (p *Pipeline) save(ctx context.Context, final store.Dataset) error {
	idx := len(p.Stages) - 1
	s := p.Stages[idx]
	path := s.Path
	if path == "" && p.OutPath != "" {
		path = store.OutputFile(p.OutPath, p.ProcessFile, idx-1, s.ID, "data")
	}
	if path == "" {
		log.Debug.Printf("pipeline: saver %s has no output path; result stays in store", s.ID)
		return nil
	}
	whole, err := final.ReadWindow(ctx, window.Make(len(final.Shape())))
	if err != nil {
		return err
	}
	dataset := "/" + store.GroupName(idx-1, s.ID) + "/data"
	if err := store.ExportHDF5(path, dataset, whole); err != nil {
		return err
	}
	log.Printf("pipeline: saver %s wrote %s", s.ID, path)
	return nil
}

func shapeEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
