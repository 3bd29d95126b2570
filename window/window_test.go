// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package window

import (
	"testing"

	"github.com/grailbio/base/errors"
)

func TestSpan(t *testing.T) {
	if got, want := Range(2, 7).Len(), 5; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if !At(3).Unit() {
		t.Error("unit span not unit")
	}
	if Range(3, 5).Unit() {
		t.Error("wide span reported unit")
	}
	if got, want := All().Resolve(10), Range(0, 10); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := Range(2, 4).Resolve(10), Range(2, 4); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestWindowResolve(t *testing.T) {
	shape := Shape{4, 6, 8}
	w := Window{All(), At(5), Range(1, 8)}
	v, err := w.Resolve(shape)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := v, (Window{Range(0, 4), Range(5, 6), Range(1, 8)}); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
	ws, err := w.Shape(shape)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := ws, (Shape{4, 1, 7}); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestWindowResolveError(t *testing.T) {
	shape := Shape{4, 6}
	for _, w := range []Window{
		{All()},                     // rank mismatch
		{All(), Range(0, 7)},        // overruns extent
		{Range(-1, 2), All()},       // negative start
		{Range(3, 1), All()},        // inverted
		{All(), All(), Range(0, 1)}, // rank mismatch
	} {
		if _, err := w.Resolve(shape); !errors.Is(errors.Invalid, err) {
			t.Errorf("window %v: expected invalid error, got %v", w, err)
		}
	}
}

func TestShape(t *testing.T) {
	if got, want := (Shape{3, 4, 5}).Elems(), 60; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if !(Shape{1, 2}).Valid() {
		t.Error("valid shape reported invalid")
	}
	if (Shape{1, 0}).Valid() {
		t.Error("zero extent reported valid")
	}
}
