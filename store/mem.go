// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/tomoslice/frame"
	"github.com/grailbio/tomoslice/window"
)

// Mem is an in-memory store. It backs pipeline intermediates and
// tests.
type Mem struct {
	mu       sync.Mutex
	datasets map[string]*memDataset
}

// NewMem returns a new, empty in-memory store.
func NewMem() *Mem {
	return &Mem{datasets: make(map[string]*memDataset)}
}

// Create implements Store.
func (m *Mem) Create(ctx context.Context, name string, shape window.Shape) (Dataset, error) {
	if !shape.Valid() {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("store: create %s: invalid shape %s", name, shape))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.datasets[name]; ok {
		return nil, errors.E(errors.Exists, fmt.Sprintf("store: create %s", name))
	}
	d := &memDataset{
		shape: append(window.Shape{}, shape...),
		data:  frame.Make(shape...),
	}
	m.datasets[name] = d
	return d, nil
}

// Open implements Store.
func (m *Mem) Open(ctx context.Context, name string) (Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.datasets[name]
	if !ok {
		return nil, errors.E(errors.NotExist, fmt.Sprintf("store: open %s", name))
	}
	return d, nil
}

// Close implements Store.
func (m *Mem) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.datasets = make(map[string]*memDataset)
	return nil
}

type memDataset struct {
	shape window.Shape

	// mu orders concurrent window access. Ranks only ever write
	// disjoint windows, but the lock keeps mixed reads and writes
	// well defined.
	mu   sync.RWMutex
	data *frame.Dense
}

func (d *memDataset) Shape() window.Shape {
	return append(window.Shape{}, d.shape...)
}

func (d *memDataset) ReadWindow(ctx context.Context, w window.Window) (*frame.Dense, error) {
	start, size, err := bounds(w, d.shape)
	if err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.data.Region(start, size), nil
}

func (d *memDataset) WriteWindow(ctx context.Context, w window.Window, data *frame.Dense) error {
	start, err := checkWrite(w, d.shape, data)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.data.SetRegion(start, data)
	return nil
}
