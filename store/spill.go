// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package store

import (
	"context"
	"encoding/gob"
	"fmt"
	"sort"
	"sync"

	"github.com/grailbio/base/backgroundcontext"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/tomoslice/frame"
	"github.com/grailbio/tomoslice/window"
)

// Spill is a store that keeps datasets in memory while they are
// being written and persists them under a file prefix when the store
// is closed. Since prefixes are grailfile paths, spilled datasets
// can be kept at any URL supported by base/file. Reopening a name
// that is no longer in memory loads it back from its file.
type Spill struct {
	prefix string

	mu      sync.Mutex
	created map[string]*memDataset
	cached  map[string]*memDataset
}

// NewSpill returns a store that persists datasets under the given
// grailfile prefix.
func NewSpill(prefix string) *Spill {
	return &Spill{
		prefix:  prefix,
		created: make(map[string]*memDataset),
		cached:  make(map[string]*memDataset),
	}
}

// spillBlob is the gob payload of one persisted dataset.
type spillBlob struct {
	Shape window.Shape
	Data  []float64
}

func (s *Spill) path(name string) string {
	return file.Join(s.prefix, name+".frame")
}

// Create implements Store.
func (s *Spill) Create(ctx context.Context, name string, shape window.Shape) (Dataset, error) {
	if !shape.Valid() {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("store: create %s: invalid shape %s", name, shape))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.created[name]; ok {
		return nil, errors.E(errors.Exists, fmt.Sprintf("store: create %s", name))
	}
	d := &memDataset{
		shape: append(window.Shape{}, shape...),
		data:  frame.Make(shape...),
	}
	s.created[name] = d
	return d, nil
}

// Open implements Store.
func (s *Spill) Open(ctx context.Context, name string) (Dataset, error) {
	s.mu.Lock()
	if d, ok := s.created[name]; ok {
		s.mu.Unlock()
		return d, nil
	}
	if d, ok := s.cached[name]; ok {
		s.mu.Unlock()
		return d, nil
	}
	s.mu.Unlock()

	f, err := file.Open(ctx, s.path(name))
	if err != nil {
		return nil, errors.E(errors.NotExist, fmt.Sprintf("store: open %s", name), err)
	}
	var blob spillBlob
	err = gob.NewDecoder(f.Reader(ctx)).Decode(&blob)
	if closeErr := f.Close(ctx); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, errors.E(fmt.Sprintf("store: open %s", name), err)
	}
	data, err := frame.Values(blob.Data, blob.Shape...)
	if err != nil {
		return nil, errors.E(errors.Integrity, fmt.Sprintf("store: open %s", name), err)
	}
	d := &memDataset{shape: blob.Shape, data: data}
	s.mu.Lock()
	s.cached[name] = d
	s.mu.Unlock()
	return d, nil
}

// Close flushes every in-memory dataset to its file and drops the
// in-memory copies. Datasets reopened from disk are flushed along
// with created ones, so writes made to them survive the store.
func (s *Spill) Close() error {
	ctx := backgroundcontext.Get()
	s.mu.Lock()
	open := s.cached
	for name, d := range s.created {
		open[name] = d
	}
	s.created = make(map[string]*memDataset)
	s.cached = make(map[string]*memDataset)
	s.mu.Unlock()

	names := make([]string, 0, len(open))
	for name := range open {
		names = append(names, name)
	}
	sort.Strings(names)
	return traverse.Limit(4).Each(len(names), func(i int) error {
		if err := s.flush(ctx, names[i], open[names[i]]); err != nil {
			log.Error.Printf("store: spill %s: %v", names[i], err)
			return err
		}
		return nil
	})
}

func (s *Spill) flush(ctx context.Context, name string, d *memDataset) error {
	f, err := file.Create(ctx, s.path(name))
	if err != nil {
		return err
	}
	d.mu.RLock()
	err = gob.NewEncoder(f.Writer(ctx)).Encode(spillBlob{
		Shape: d.shape,
		Data:  d.data.Data(),
	})
	d.mu.RUnlock()
	if closeErr := f.Close(ctx); err == nil {
		err = closeErr
	}
	return err
}
