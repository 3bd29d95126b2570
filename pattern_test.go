// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package tomoslice

import (
	"reflect"
	"testing"

	"github.com/grailbio/base/errors"
)

func TestClassify(t *testing.T) {
	p, err := Classify(4, []int{1, 2}, []int{3})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := p.Slice, []int{0}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := p.Core, []int{1, 2}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := p.Fixed, []int{3}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := p.NumDims(), 4; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestClassifySliceOrder(t *testing.T) {
	p, err := Classify(5, []int{2}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := p.Slice, []int{0, 1, 3, 4}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := p.FastDim(), 4; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestClassifyErrors(t *testing.T) {
	cases := []struct {
		ndim        int
		core, fixed []int
	}{
		{4, []int{1}, []int{1}},  // overlap
		{4, []int{1, 1}, nil},    // repeated core
		{4, nil, []int{4}},       // out of range
		{4, []int{-1}, nil},      // negative
		{0, nil, nil},            // no dimensions
		{3, []int{0, 5}, []int{1}}, // out of range core
	}
	for _, c := range cases {
		if _, err := Classify(c.ndim, c.core, c.fixed); !errors.Is(errors.Invalid, err) {
			t.Errorf("Classify(%d, %v, %v): expected invalid error, got %v", c.ndim, c.core, c.fixed, err)
		}
	}
}

func TestClassifyIdempotent(t *testing.T) {
	first, err := Classify(6, []int{1, 4}, []int{0})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		p, err := Classify(6, []int{1, 4}, []int{0})
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(p, first) {
			t.Fatalf("classification changed between runs: %v vs %v", p, first)
		}
	}
}
