// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package pipeline orchestrates tomoslice processing runs: it
// validates declarative stage lists, computes each worker rank's
// slicing plan, and drives the read-transform-write loop over the
// rank's assigned frame batches, synchronizing ranks with collective
// barriers between stages.
package pipeline

import (
	"context"
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/tomoslice"
	"github.com/grailbio/tomoslice/frame"
	"github.com/grailbio/tomoslice/store"
	"github.com/grailbio/tomoslice/window"
)

// Role tags a stage with its capability. A pipeline must begin with
// a loader and end with a saver; every stage in between processes
// data.
type Role int

const (
	// RoleProcess stages transform frame batches.
	RoleProcess Role = iota
	// RoleLoader stages bind the pipeline's input dataset.
	RoleLoader
	// RoleSaver stages export the pipeline's final dataset.
	RoleSaver
)

func (r Role) String() string {
	switch r {
	case RoleProcess:
		return "process"
	case RoleLoader:
		return "loader"
	case RoleSaver:
		return "saver"
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// A Transform is the computation applied to one padded frame batch.
// Its result must have the same shape as its input; the pipeline
// strips the halo from the result before writing it back.
type Transform interface {
	Apply(ctx context.Context, in *frame.Dense) (*frame.Dense, error)
}

// A Stage is one entry of a pipeline's declarative stage list.
type Stage struct {
	// ID identifies the stage's plugin. For process stages it names
	// the transform to run.
	ID string
	// Role is the stage's capability tag.
	Role Role

	// Input, or Path/Dataset/Shape, bind a loader stage's input. A
	// non-nil Input takes precedence; otherwise the loader opens the
	// dataset at Dataset inside the HDF5 file at Path, with the
	// declared Shape.
	Input   store.Dataset
	Path    string
	Dataset string
	Shape   window.Shape

	// Core and Fixed describe the process stage's slicing pattern;
	// FixedValues pins each fixed dimension. Dimensions in neither
	// list are sliced.
	Core, Fixed []int
	FixedValues []int

	// Padding maps slice dimensions to halo widths.
	Padding tomoslice.PadSpec

	// MaxFrames bounds the number of frames per batch. Zero means
	// one frame per batch.
	MaxFrames int

	// Transform is the process stage's computation.
	Transform Transform
}

// Validate checks the shape of a stage list before any stage runs:
// the list must open with a loader and close with a saver, with only
// process stages in between, and every process stage must carry a
// transform. Violations are reported with kind Precondition and are
// fatal to the run.
func Validate(stages []Stage) error {
	if len(stages) < 2 {
		return errors.E(errors.Precondition, "pipeline: stage list must contain at least a loader and a saver")
	}
	if stages[0].Role != RoleLoader {
		return errors.E(errors.Precondition, fmt.Sprintf("pipeline: the first stage must be a loader; %s is a %s", stages[0].ID, stages[0].Role))
	}
	if last := stages[len(stages)-1]; last.Role != RoleSaver {
		return errors.E(errors.Precondition, fmt.Sprintf("pipeline: the final stage must be a saver; %s is a %s", last.ID, last.Role))
	}
	for _, s := range stages[1 : len(stages)-1] {
		if s.Role != RoleProcess {
			return errors.E(errors.Precondition, fmt.Sprintf("pipeline: %s stage %s must be first or last", s.Role, s.ID))
		}
		if s.Transform == nil {
			return errors.E(errors.Invalid, fmt.Sprintf("pipeline: process stage %s has no transform", s.ID))
		}
	}
	return nil
}

// open binds a loader stage's input dataset. File-backed inputs are
// opened once per rank; HDF5 reads are safe concurrently across
// ranks.
func (s Stage) open() (store.Dataset, func(), error) {
	if s.Input != nil {
		return s.Input, func() {}, nil
	}
	if s.Path == "" {
		return nil, nil, errors.E(errors.Invalid, fmt.Sprintf("pipeline: loader %s has neither input nor path", s.ID))
	}
	d, err := store.OpenHDF5(s.Path, s.Dataset, s.Shape)
	if err != nil {
		return nil, nil, err
	}
	return d, d.Close, nil
}
