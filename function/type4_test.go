// seehuhn.de/go/postscript - a rudimentary PostScript interpreter
// Copyright (C) 2023  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package function

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestType4(t *testing.T) {
	tests := []struct {
		name     string
		domain   []float64
		rng      []float64
		program  string
		inputs   []float64
		expected []float64
	}{
		{
			name:     "addition",
			domain:   []float64{0, 1, 0, 1},
			rng:      []float64{0, 2},
			program:  "{ add }",
			inputs:   []float64{0.25, 0.5},
			expected: []float64{0.75},
		},
		{
			name:     "without braces",
			domain:   []float64{0, 10},
			rng:      []float64{0, 100},
			program:  "dup mul",
			inputs:   []float64{5},
			expected: []float64{25},
		},
		{
			name:     "conditional",
			domain:   []float64{0, 1},
			rng:      []float64{0, 1},
			program:  "{ dup 0.5 gt { pop 1 } { pop 0 } ifelse }",
			inputs:   []float64{0.7},
			expected: []float64{1},
		},
		{
			name:     "leading procedure",
			domain:   []float64{0, 1},
			rng:      []float64{0, 1},
			program:  "{0.5} exec",
			inputs:   []float64{0.25},
			expected: []float64{0.5},
		},
		{
			name:     "exch",
			domain:   []float64{0, 1, 0, 1},
			rng:      []float64{0, 1, 0, 1},
			program:  "{exch}",
			inputs:   []float64{0.25, 0.75},
			expected: []float64{0.75, 0.25},
		},
		{
			name:     "minimum",
			domain:   []float64{0, 10, 0, 10},
			rng:      []float64{0, 10},
			program:  "{ 2 copy gt { exch } if pop }",
			inputs:   []float64{3, 5},
			expected: []float64{3},
		},
		{
			name:     "maximum",
			domain:   []float64{0, 10, 0, 10},
			rng:      []float64{0, 10},
			program:  "{ 2 copy lt { exch } if pop }",
			inputs:   []float64{3, 5},
			expected: []float64{5},
		},
		{
			name:     "inputs are clipped",
			domain:   []float64{0, 1},
			rng:      []float64{-10, 10},
			program:  "{ 2 mul }",
			inputs:   []float64{3},
			expected: []float64{2},
		},
		{
			name:     "outputs are clipped",
			domain:   []float64{0, 1},
			rng:      []float64{0, 1},
			program:  "{ 4 mul 1 sub }",
			inputs:   []float64{0},
			expected: []float64{0},
		},
		{
			name:     "integer operators on integral inputs",
			domain:   []float64{0, 100},
			rng:      []float64{0, 100},
			program:  "{ 7 idiv }",
			inputs:   []float64{50},
			expected: []float64{7},
		},
		{
			name:     "degrees",
			domain:   []float64{0, 360},
			rng:      []float64{-1, 1},
			program:  "{ sin }",
			inputs:   []float64{90},
			expected: []float64{1},
		},
		{
			name:     "constant",
			domain:   []float64{},
			rng:      []float64{0, 100},
			program:  "{ 42 }",
			inputs:   []float64{},
			expected: []float64{42},
		},
		{
			name:     "extra values are ignored",
			domain:   []float64{0, 1},
			rng:      []float64{0, 1},
			program:  "{ 0.5 }",
			inputs:   []float64{0.25},
			expected: []float64{0.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewType4(tt.domain, tt.rng, tt.program)
			if err != nil {
				t.Fatal(err)
			}
			got, err := f.Eval(tt.inputs...)
			if err != nil {
				t.Fatal(err)
			}
			if d := cmp.Diff(tt.expected, got, cmpopts.EquateApprox(0, 1e-9)); d != "" {
				t.Error(d)
			}
		})
	}
}

// TestType4Repeated checks that no state is carried over between calls.
func TestType4Repeated(t *testing.T) {
	f, err := NewType4([]float64{0, 10}, []float64{0, 100}, "{ /x exch def x x mul }")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		got, err := f.Eval(float64(i))
		if err != nil {
			t.Fatal(err)
		}
		if got[0] != float64(i*i) {
			t.Errorf("f(%d) = %g", i, got[0])
		}
	}
}

// TestType4Resolved checks that operator names are bound when the
// function is created.
func TestType4Resolved(t *testing.T) {
	f, err := NewType4([]float64{0, 10}, []float64{0, 100}, "{ /add { mul } def 1 add }")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		got, err := f.Eval(3)
		if err != nil {
			t.Fatal(err)
		}
		if got[0] != 4 {
			t.Errorf("%d: expected 4, got %g", i, got[0])
		}
	}
}

func TestType4Errors(t *testing.T) {
	cases := []struct {
		domain, rng []float64
		program     string
	}{
		{[]float64{0}, []float64{0, 1}, "{}"},
		{[]float64{0, 1}, []float64{1, 0}, "{}"},
		{[]float64{0, math.Inf(1)}, []float64{0, 1}, "{}"},
		{[]float64{0, 1}, []float64{0, 1}, "{ 1 2"},
		{[]float64{0, 1}, []float64{0, 1}, "} {"},
		{[]float64{0, 1}, []float64{0, 1}, "{ (abc"},
	}
	for i, c := range cases {
		_, err := NewType4(c.domain, c.rng, c.program)
		if !errors.Is(err, &InvalidFunctionError{}) {
			t.Errorf("%d: expected InvalidFunctionError, got %v", i, err)
		}
	}
}

func TestType4EvalErrors(t *testing.T) {
	cases := []struct {
		program string
		inputs  []float64
	}{
		{"{ pop }", []float64{0.5}},
		{"{ pop true }", []float64{0.5}},
		{"{ nosuchop }", []float64{0.5}},
		{"{ 0 idiv }", []float64{1}},
		{"{}", []float64{0.5, 0.5}},
	}
	for _, c := range cases {
		f, err := NewType4([]float64{0, 1}, []float64{0.25, 1}, c.program)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.Eval(c.inputs...); err == nil {
			t.Errorf("%q: no error", c.program)
		}

		// Apply falls back to zeros, clipped to the range
		got := f.Apply(c.inputs...)
		if d := cmp.Diff([]float64{0.25}, got); d != "" {
			t.Errorf("%q: %s", c.program, d)
		}
	}
}

func TestShape(t *testing.T) {
	f, err := NewType4([]float64{0, 1, 0, 1, 0, 1}, []float64{0, 1}, "{ add add 3 div }")
	if err != nil {
		t.Fatal(err)
	}
	m, n := f.Shape()
	if m != 3 || n != 1 {
		t.Errorf("wrong shape %d, %d", m, n)
	}
	if f.FunctionType() != 4 {
		t.Errorf("wrong function type %d", f.FunctionType())
	}
}
