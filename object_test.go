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

package postscript

import (
	"math"
	"testing"
)

func FuzzStrings(f *testing.F) {
	f.Add("hello world")
	f.Add("hello\nworld")
	f.Add("hello\rworld")
	f.Add("hello\r\nworld")
	f.Add("hello\n\rworld")
	f.Add("hello\\world")
	f.Add("hello(world(")
	f.Add("hello(world)")
	f.Add("hello)world(")
	f.Add("hello)world)")
	f.Fuzz(func(t *testing.T, a string) {
		s := NewString(a)
		ps := s.PS()
		intp := NewInterpreter()
		err := intp.ExecuteString(ps)
		if err != nil {
			t.Fatal(err)
		}
		if len(intp.Stack) != 1 {
			t.Fatalf("len(intp.Stack): %d != 1", len(intp.Stack))
		}
		if ss, ok := intp.Stack[0].(String); !ok || string(ss.Val) != a {
			t.Fatalf("intp.Stack[0]: %v != %q", intp.Stack[0], a)
		}
	})
}

func TestNumberCollapse(t *testing.T) {
	cases := []struct {
		in  float64
		out Object
	}{
		{0, Integer(0)},
		{-3, Integer(-3)},
		{2.5, Real(2.5)},
		{1e300, Real(1e300)},
		{math.Ldexp(1, 63), Real(math.Ldexp(1, 63))},
	}
	for _, c := range cases {
		if got := number(c.in); got != c.out {
			t.Errorf("number(%g) = %v (%T), expected %v (%T)", c.in, got, got, c.out, c.out)
		}
	}
}

func TestEqual(t *testing.T) {
	arr := NewArray(Integer(1))
	d := NewDict(0)
	cases := []struct {
		a, b Object
		eq   bool
	}{
		{Integer(1), Real(1), true},
		{Integer(1), Integer(2), false},
		{NewString("x"), Name("x"), true},
		{Operator("x"), Name("x"), true},
		{NewString("x"), Integer(1), false},
		{arr, arr, true},
		{arr, NewArray(Integer(1)), false},
		{NewArray(), NewArray(), true},
		{d, d, true},
		{d, NewDict(0), false},
		{nil, nil, true},
		{nil, Boolean(false), false},
		{theMark, theMark, true},
		{Boolean(true), Boolean(true), true},
	}
	for i, c := range cases {
		if got := Equal(c.a, c.b); got != c.eq {
			t.Errorf("%d: Equal(%v, %v) = %t", i, c.a, c.b, got)
		}
	}
}

func TestEqualOperators(t *testing.T) {
	cases := []struct {
		code string
		eq   bool
	}{
		{"/add load dup eq", true},
		{"/add load /sub load eq", false},
		{"/add load systemdict /add get eq", true},
		{"/add load /add eq", false},
		{"[1 2] dup cvx eq", true},
		{"[1 2] cvx [1 2] eq", false},
	}
	for _, c := range cases {
		intp, err := run(c.code, 1)
		if err != nil {
			t.Errorf("%q: %v", c.code, err)
			continue
		}
		if intp.Stack[0] != Boolean(c.eq) {
			t.Errorf("%q: got %v", c.code, intp.Stack[0])
		}
	}
}

func TestAccessTighten(t *testing.T) {
	s := NewString("abc")
	o, ok := withAccess(s, ExecuteOnly)
	if !ok {
		t.Fatal("withAccess failed")
	}
	o, _ = withAccess(o, ReadOnly)
	if a := AccessOf(o); a != ExecuteOnly {
		t.Errorf("access was relaxed to %s", a)
	}
	if a := AccessOf(s); a != Unlimited {
		t.Errorf("original string changed to %s", a)
	}
	if a := AccessOf(Integer(1)); a != Unlimited {
		t.Errorf("integer has access %s", a)
	}
	if _, ok := withAccess(Integer(1), ReadOnly); ok {
		t.Error("withAccess accepted an integer")
	}
}

func TestFormat(t *testing.T) {
	cases := []struct {
		in  Object
		out string
	}{
		{nil, "null"},
		{Integer(-7), "-7"},
		{Real(0.5), "0.5"},
		{Name("a"), "/a"},
		{Operator("add"), "add"},
		{NewString("a(b"), `(a\(b)`},
		{NewArray(Integer(1), NewArray(Integer(2), NewArray(Integer(3), NewArray()))), "[1 [2 [3 [...]]]]"},
		{Procedure{Val: []Object{Integer(1), Operator("add")}}, "{1 add}"},
		{theMark, "-mark-"},
	}
	for _, c := range cases {
		if got := Format(c.in); got != c.out {
			t.Errorf("Format(%#v) = %q, expected %q", c.in, got, c.out)
		}
	}
}

func TestTypeName(t *testing.T) {
	add := &builtinOp{name: "add", fn: bAdd}
	if got := TypeName(add); got != "operatortype" {
		t.Errorf("wrong type name %s", got)
	}
	if !IsExecutable(add) || IsExecutable(Name("a")) {
		t.Error("wrong executable attribute")
	}
}
