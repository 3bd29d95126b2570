// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package frame contains definitions and utilities for tomoslice
// frames. A frame is a dense, row-major buffer of float64 elements
// holding one unit of work as it is read, transformed, and written
// back by a processing stage.
package frame

import (
	"fmt"
)

// A Dense is a dense N-dimensional buffer in row-major order: the
// last dimension varies fastest in the underlying data slice.
type Dense struct {
	shape  []int
	stride []int
	data   []float64
}

// Make creates a new zero-filled Dense with the given shape. All
// extents must be positive.
func Make(shape ...int) *Dense {
	n := 1
	for _, extent := range shape {
		if extent <= 0 {
			panic(fmt.Sprintf("frame: nonpositive extent %d", extent))
		}
		n *= extent
	}
	d := &Dense{
		shape:  append([]int{}, shape...),
		stride: strides(shape),
		data:   make([]float64, n),
	}
	return d
}

// Values creates a Dense of the given shape around the provided
// data, which must have exactly as many elements as the shape. The
// buffer takes ownership of data; it is not copied.
func Values(data []float64, shape ...int) (*Dense, error) {
	n := 1
	for _, extent := range shape {
		n *= extent
	}
	if len(data) != n {
		return nil, fmt.Errorf("frame: %d elements for shape %v (need %d)", len(data), shape, n)
	}
	return &Dense{
		shape:  append([]int{}, shape...),
		stride: strides(shape),
		data:   data,
	}, nil
}

func strides(shape []int) []int {
	stride := make([]int, len(shape))
	s := 1
	for i := len(shape) - 1; i >= 0; i-- {
		stride[i] = s
		s *= shape[i]
	}
	return stride
}

// Shape returns a copy of the buffer's shape.
func (d *Dense) Shape() []int {
	return append([]int{}, d.shape...)
}

// Rank returns the number of dimensions.
func (d *Dense) Rank() int {
	return len(d.shape)
}

// Len returns the total number of elements.
func (d *Dense) Len() int {
	return len(d.data)
}

// Data returns the underlying storage in row-major order.
func (d *Dense) Data() []float64 {
	return d.data
}

func (d *Dense) offset(ix []int) int {
	if len(ix) != len(d.shape) {
		panic(fmt.Sprintf("frame: index rank %d for shape %v", len(ix), d.shape))
	}
	off := 0
	for i, c := range ix {
		if c < 0 || c >= d.shape[i] {
			panic(fmt.Sprintf("frame: index %v out of bounds for shape %v", ix, d.shape))
		}
		off += c * d.stride[i]
	}
	return off
}

// At returns the element at the given coordinates.
func (d *Dense) At(ix ...int) float64 {
	return d.data[d.offset(ix)]
}

// Set stores v at the given coordinates.
func (d *Dense) Set(v float64, ix ...int) {
	d.data[d.offset(ix)] = v
}

// Clone returns a deep copy of the buffer.
func (d *Dense) Clone() *Dense {
	e := Make(d.shape...)
	copy(e.data, d.data)
	return e
}

// Equal reports whether buffers d and e have the same shape and
// elements.
func (d *Dense) Equal(e *Dense) bool {
	if len(d.shape) != len(e.shape) {
		return false
	}
	for i := range d.shape {
		if d.shape[i] != e.shape[i] {
			return false
		}
	}
	for i := range d.data {
		if d.data[i] != e.data[i] {
			return false
		}
	}
	return true
}

// Region copies out the rectangular region of the given size whose
// origin is at start.
func (d *Dense) Region(start, size []int) *Dense {
	d.checkRegion(start, size)
	out := Make(size...)
	n := len(size)
	if n == 0 {
		out.data[0] = d.data[0]
		return out
	}
	row := size[n-1]
	ix := make([]int, n)
	for {
		soff := start[n-1]
		doff := 0
		for i := 0; i < n-1; i++ {
			soff += (start[i] + ix[i]) * d.stride[i]
			doff += ix[i] * out.stride[i]
		}
		copy(out.data[doff:doff+row], d.data[soff:soff+row])
		k := n - 2
		for ; k >= 0; k-- {
			ix[k]++
			if ix[k] < size[k] {
				break
			}
			ix[k] = 0
		}
		if k < 0 {
			break
		}
	}
	return out
}

// SetRegion copies src into the region of d whose origin is at
// start. The region must lie fully inside d.
func (d *Dense) SetRegion(start []int, src *Dense) {
	d.checkRegion(start, src.shape)
	n := len(src.shape)
	if n == 0 {
		d.data[0] = src.data[0]
		return
	}
	row := src.shape[n-1]
	ix := make([]int, n)
	for {
		doff := start[n-1]
		soff := 0
		for i := 0; i < n-1; i++ {
			doff += (start[i] + ix[i]) * d.stride[i]
			soff += ix[i] * src.stride[i]
		}
		copy(d.data[doff:doff+row], src.data[soff:soff+row])
		k := n - 2
		for ; k >= 0; k-- {
			ix[k]++
			if ix[k] < src.shape[k] {
				break
			}
			ix[k] = 0
		}
		if k < 0 {
			break
		}
	}
}

func (d *Dense) checkRegion(start, size []int) {
	if len(start) != len(d.shape) || len(size) != len(d.shape) {
		panic(fmt.Sprintf("frame: region rank (%d,%d) for shape %v", len(start), len(size), d.shape))
	}
	for i := range start {
		if start[i] < 0 || size[i] < 0 || start[i]+size[i] > d.shape[i] {
			panic(fmt.Sprintf("frame: region start %v size %v out of bounds for shape %v", start, size, d.shape))
		}
	}
}

// PadEdge grows the buffer by lo[i] elements at the low end and
// hi[i] at the high end of each dimension, filling the new elements
// by replicating the nearest edge value.
func (d *Dense) PadEdge(lo, hi []int) *Dense {
	n := len(d.shape)
	if len(lo) != n || len(hi) != n {
		panic(fmt.Sprintf("frame: pad rank (%d,%d) for shape %v", len(lo), len(hi), d.shape))
	}
	oshape := make([]int, n)
	padded := false
	for i := range oshape {
		if lo[i] < 0 || hi[i] < 0 {
			panic(fmt.Sprintf("frame: negative pad (%v,%v)", lo, hi))
		}
		oshape[i] = d.shape[i] + lo[i] + hi[i]
		padded = padded || lo[i] != 0 || hi[i] != 0
	}
	if !padded {
		return d.Clone()
	}
	out := Make(oshape...)
	ix := make([]int, n)
	for off := range out.data {
		soff := 0
		for i, c := range ix {
			c -= lo[i]
			if c < 0 {
				c = 0
			} else if c >= d.shape[i] {
				c = d.shape[i] - 1
			}
			soff += c * d.stride[i]
		}
		out.data[off] = d.data[soff]
		for k := n - 1; k >= 0; k-- {
			ix[k]++
			if ix[k] < oshape[k] {
				break
			}
			ix[k] = 0
		}
	}
	return out
}

// Shrink is the inverse of PadEdge: it removes lo[i] elements from
// the low end and hi[i] from the high end of each dimension.
func (d *Dense) Shrink(lo, hi []int) *Dense {
	n := len(d.shape)
	if len(lo) != n || len(hi) != n {
		panic(fmt.Sprintf("frame: shrink rank (%d,%d) for shape %v", len(lo), len(hi), d.shape))
	}
	size := make([]int, n)
	for i := range size {
		size[i] = d.shape[i] - lo[i] - hi[i]
	}
	return d.Region(lo, size)
}

func (d *Dense) String() string {
	return fmt.Sprintf("dense%v", d.shape)
}
