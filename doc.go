// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

/*
	Package tomoslice partitions large N-dimensional datasets into
	independent units of work for a fixed set of cooperating worker
	processes. It implements the slicing, framing, and halo-padding
	arithmetic used by stream processing pipelines over chunked array
	stores: dataset dimensions are classified into core, slice, and
	fixed roles; the slice subspace is enumerated into unit slices;
	unit slices are grouped into bounded frame batches along the
	fastest slice dimension; batches are distributed across worker
	ranks with a deterministic, balanced split; and requested windows
	are clipped to dataset bounds with edge-replicated halo padding
	re-attached so that neighborhood-dependent filters remain correct
	at dataset edges.

	All of the partitioning computations are deterministic, pure
	functions of their inputs. Every worker rank computing a plan from
	the same shape, pattern, padding, and topology arrives at an
	identical plan, which downstream layers rely on for globally
	consistent file and group naming.

	Subpackages supply the surrounding machinery: window holds the
	descriptor value types, frame the dense buffers carrying each unit
	of work, store the backing dataset abstraction (in-memory,
	spill-to-file, and HDF5), pipeline the stage list orchestration,
	and ctxsync the collective barrier used between stages.
*/
package tomoslice
