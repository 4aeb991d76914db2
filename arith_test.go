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

func TestCmdAbs(t *testing.T) {
	type testCase struct {
		in  Object
		out Object
	}
	cases := []testCase{
		{Integer(0), Integer(0)},
		{Integer(1), Integer(1)},
		{Integer(-1), Integer(1)},
		{Integer(-100), Integer(100)},
		{Integer(math.MinInt), -Real(math.MinInt)},
		{Real(0), Integer(0)},
		{Real(-1), Integer(1)},
		{Real(-1.5), Real(1.5)},
	}
	for _, c := range cases {
		intp := NewInterpreter()
		intp.Stack = []Object{c.in}
		err := intp.ExecuteString("abs")
		if err != nil {
			t.Fatal(err)
		}
		if len(intp.Stack) != 1 {
			t.Fatalf("len(intp.Stack): %d != 1", len(intp.Stack))
		}
		if intp.Stack[0] != c.out {
			t.Fatalf("abs %v: %v (%T) != %v", c.in, intp.Stack[0], intp.Stack[0], c.out)
		}
	}
}

func TestBinaryArithmetic(t *testing.T) {
	type testCase struct {
		a, b Object
		op   string
		out  Object
	}
	cases := []testCase{
		{Integer(1), Integer(2), "add", Integer(3)},
		{Integer(1), Real(2), "add", Integer(3)},
		{Real(1), Integer(2), "add", Integer(3)},
		{Integer(3), Real(0.5), "add", Real(3.5)},
		{Integer(math.MaxInt), Integer(1), "add", Real(math.MaxInt + 1)},
		{Integer(5), Integer(7), "sub", Integer(-2)},
		{Real(2.5), Real(0.5), "sub", Integer(2)},
		{Integer(math.MaxInt), Integer(-1), "sub", Real(math.MaxInt + 1)},
		{Integer(6), Integer(7), "mul", Integer(42)},
		{Real(0.5), Integer(4), "mul", Integer(2)},
		{Integer(math.MaxInt), Integer(2), "mul", Real(2 * float64(math.MaxInt))},
		{Integer(6), Integer(3), "div", Integer(2)},
		{Integer(7), Integer(2), "div", Real(3.5)},
		{Integer(7), Integer(2), "idiv", Integer(3)},
		{Integer(-7), Integer(2), "idiv", Integer(-3)},
		{Integer(7), Integer(3), "mod", Integer(1)},
		{Integer(-7), Integer(3), "mod", Integer(-1)},
		{Integer(2), Integer(10), "exp", Integer(1024)},
		{Integer(4), Real(0.5), "exp", Integer(2)},
		{Integer(0), Integer(1), "atan", Integer(0)},
		{Integer(1), Integer(0), "atan", Integer(90)},
		{Integer(-1), Integer(0), "atan", Integer(270)},
		{Integer(12), Integer(2), "bitshift", Integer(48)},
		{Integer(12), Integer(-2), "bitshift", Integer(3)},
		{Integer(12), Integer(10), "and", Integer(8)},
		{Integer(12), Integer(10), "or", Integer(14)},
		{Integer(12), Integer(10), "xor", Integer(6)},
		{Boolean(true), Boolean(false), "and", Boolean(false)},
		{Boolean(true), Boolean(false), "or", Boolean(true)},
		{Boolean(true), Boolean(true), "xor", Boolean(false)},
		{Integer(1), Real(2), "lt", Boolean(true)},
		{Real(2), Integer(2), "le", Boolean(true)},
		{Integer(2), Integer(2), "gt", Boolean(false)},
		{NewString("abc"), NewString("abd"), "ge", Boolean(false)},
		{NewString("b"), NewString("abc"), "gt", Boolean(true)},
		{Integer(1), Real(1), "ne", Boolean(false)},
	}
	for _, c := range cases {
		intp := NewInterpreter()
		intp.Stack = []Object{c.a, c.b}
		err := intp.ExecuteString(c.op)
		if err != nil {
			t.Fatalf("%v %v %s: %v", c.a, c.b, c.op, err)
		}
		if len(intp.Stack) != 1 {
			t.Fatalf("len(intp.Stack): %d != 1", len(intp.Stack))
		}
		if intp.Stack[0] != c.out {
			t.Errorf("%v %v %s: %v (%T) != %v (%T)",
				c.a, c.b, c.op, intp.Stack[0], intp.Stack[0], c.out, c.out)
		}
	}
}

func TestUnaryArithmetic(t *testing.T) {
	type testCase struct {
		in  Object
		op  string
		out Object
	}
	cases := []testCase{
		{Integer(5), "neg", Integer(-5)},
		{Real(2.5), "neg", Real(-2.5)},
		{Integer(16), "sqrt", Integer(4)},
		{Integer(2), "sqrt", Real(math.Sqrt2)},
		{Integer(1), "ln", Integer(0)},
		{Integer(1), "log", Integer(0)},
		{Integer(90), "sin", Integer(1)},
		{Integer(0), "cos", Integer(1)},
		{Real(2.5), "round", Integer(3)},
		{Real(-2.5), "round", Integer(-2)},
		{Real(3.2), "ceiling", Integer(4)},
		{Real(-3.2), "floor", Integer(-4)},
		{Real(-3.7), "truncate", Integer(-3)},
		{Integer(7), "round", Integer(7)},
		{Integer(7), "floor", Integer(7)},
		{Real(7.9), "cvi", Integer(7)},
		{Real(-7.9), "cvi", Integer(-7)},
		{NewString(" 12 "), "cvi", Integer(12)},
		{NewString("3.5"), "cvi", Integer(3)},
		{Integer(3), "cvr", Real(3)},
		{NewString("3"), "cvr", Real(3)},
		{Integer(5), "not", Integer(-6)},
		{Boolean(false), "not", Boolean(true)},
	}
	for _, c := range cases {
		intp := NewInterpreter()
		intp.Stack = []Object{c.in}
		err := intp.ExecuteString(c.op)
		if err != nil {
			t.Fatalf("%v %s: %v", c.in, c.op, err)
		}
		if len(intp.Stack) != 1 {
			t.Fatalf("len(intp.Stack): %d != 1", len(intp.Stack))
		}
		if intp.Stack[0] != c.out {
			t.Errorf("%v %s: %v (%T) != %v (%T)",
				c.in, c.op, intp.Stack[0], intp.Stack[0], c.out, c.out)
		}
	}
}

func TestArithmeticErrors(t *testing.T) {
	cases := []struct {
		code string
		name Name
	}{
		{"1 0 div", eUndefinedresult},
		{"1 0 idiv", eUndefinedresult},
		{"1 0 mod", eUndefinedresult},
		{"1.5 2 idiv", eTypecheck},
		{"0 0 atan", eUndefinedresult},
		{"-1 0.5 exp", eUndefinedresult},
		{"-1 sqrt", eRangecheck},
		{"0 ln", eRangecheck},
		{"-1 log", eRangecheck},
		{"1e30 cvi", eUndefined},
		{"(abc) cvi", eTypecheck},
		{"true 1 and", eTypecheck},
		{"1 (a) lt", eTypecheck},
		{"/a /b lt", eTypecheck},
		{"1 add", eStackunderflow},
	}
	for _, c := range cases {
		_, err := run(c.code, 0)
		if name := errorName(err); name != c.name {
			t.Errorf("%q: expected %s, got %v", c.code, c.name, err)
		}
	}

	intp := NewInterpreter()
	intp.Stack = []Object{Real(1e300)}
	err := intp.ExecuteString("cvi")
	if name := errorName(err); name != eRangecheck {
		t.Errorf("1e300 cvi: expected rangecheck, got %v", err)
	}
}

func TestCvrAlwaysReal(t *testing.T) {
	intp, err := run("4 cvr 2.0 cvr", 2)
	if err != nil {
		t.Fatal(err)
	}
	for i, o := range intp.Stack {
		if _, ok := o.(Real); !ok {
			t.Errorf("%d: expected Real, got %T", i, o)
		}
	}
}
