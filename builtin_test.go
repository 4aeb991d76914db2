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
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func run(s string, stackLen int) (*Interpreter, error) {
	intp := NewInterpreter()
	err := intp.ExecuteString(s)
	if err == nil && len(intp.Stack) != stackLen {
		err = fmt.Errorf("stack length is %d, expected %d", len(intp.Stack), stackLen)
	}
	return intp, err
}

// errorName returns the PostScript error name of err, or the empty string.
func errorName(err error) Name {
	var psErr *Error
	if errors.As(err, &psErr) {
		return psErr.Name
	}
	return ""
}

func TestArrayLiteral(t *testing.T) {
	intp, err := run("[1 [] 2]", 1)
	if err != nil {
		t.Fatal(err)
	}
	exp := NewArray(Integer(1), NewArray(), Integer(2))
	if d := cmp.Diff(exp, intp.Stack[0]); d != "" {
		t.Fatal(d)
	}
}

func TestDictLiteral(t *testing.T) {
	intp, err := run("<< /a 1 /b 2 (c) 3 >>", 1)
	if err != nil {
		t.Fatal(err)
	}
	exp := &Dict{Val: map[Name]Object{
		"a": Integer(1),
		"b": Integer(2),
		"c": Integer(3),
	}}
	if d := cmp.Diff(exp, intp.Stack[0]); d != "" {
		t.Fatal(d)
	}
}

func TestDictLiteralOdd(t *testing.T) {
	_, err := run("<< /a 1 /b >>", 0)
	if name := errorName(err); name != eRangecheck {
		t.Errorf("expected rangecheck, got %v", err)
	}
}

func TestCmdArray(t *testing.T) {
	intp, err := run("3 array", 1)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(NewArray(nil, nil, nil), intp.Stack[0]); d != "" {
		t.Fatal(d)
	}

	_, err = run("-1 array", 0)
	if name := errorName(err); name != eRangecheck {
		t.Errorf("expected rangecheck, got %v", err)
	}
}

func TestCmdBegin(t *testing.T) {
	intp, err := run("1 dict dup begin", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(intp.DictStack) != 4 {
		t.Fatalf("len(intp.DictStack): %d != 4", len(intp.DictStack))
	}

	// make sure the same dict is on the top of each stack
	a := intp.DictStack[3]
	b := intp.Stack[0].(*Dict)
	if a != b {
		t.Fatal("different dictionaries")
	}
}

func TestCmdCurrentDict(t *testing.T) {
	a := NewDict(1)
	a.Val["test"] = Integer(1)
	intp := NewInterpreter()
	intp.DictStack = append(intp.DictStack, a)
	err := intp.ExecuteString("currentdict")
	if err != nil {
		t.Fatal(err)
	}
	if len(intp.Stack) != 1 {
		t.Fatalf("len(intp.Stack): %d != 1", len(intp.Stack))
	}
	if intp.Stack[0] != Object(a) {
		t.Fatal("wrong dictionary")
	}
}

func TestCmdDef(t *testing.T) {
	intp, err := run("/a 1 def /b 2 def", 0)
	if err != nil {
		t.Fatal(err)
	}
	exp := map[Name]Object{
		"a": Integer(1),
		"b": Integer(2),
	}
	if d := cmp.Diff(exp, intp.UserDict.Val); d != "" {
		t.Fatal(d)
	}
}

func TestCmdDef2(t *testing.T) {
	intp, err := run("/inc {1 add} def 2 inc", 1)
	if err != nil {
		t.Fatal(err)
	}
	if intp.Stack[0] != Integer(3) {
		t.Fatalf("intp.Stack[0]: %v != 3", intp.Stack[0])
	}
}

func TestDefReadOnly(t *testing.T) {
	_, err := run("systemdict begin /x 1 def", 0)
	if name := errorName(err); name != eInvalidaccess {
		t.Errorf("expected invalidaccess, got %v", err)
	}
}

func TestCmdDict(t *testing.T) {
	intp, err := run("12 dict dup maxlength", 2)
	if err != nil {
		t.Fatal(err)
	}
	d, ok := intp.Stack[0].(*Dict)
	if !ok || len(d.Val) != 0 {
		t.Fatalf("intp.Stack[0] is not an empty dict")
	}
	if n, ok := intp.Stack[1].(Integer); !ok || n < 1 {
		t.Errorf("invalid maxlength %v", intp.Stack[1])
	}
}

func TestCmdEnd(t *testing.T) {
	intp := NewInterpreter()
	intp.DictStack = append(intp.DictStack, NewDict(0))
	err := intp.ExecuteString("end")
	if err != nil {
		t.Fatal(err)
	}
	if len(intp.DictStack) != 3 {
		t.Fatalf("len(intp.DictStack): %d != 3", len(intp.DictStack))
	}

	err = intp.ExecuteString("end")
	if name := errorName(err); name != eDictstackunderflow {
		t.Errorf("expected dictstackunderflow, got %v", err)
	}
}

func TestCleardictstack(t *testing.T) {
	intp, err := run("1 dict begin 2 dict begin cleardictstack countdictstack", 1)
	if err != nil {
		t.Fatal(err)
	}
	if intp.Stack[0] != Integer(3) {
		t.Errorf("wrong dict stack depth %v", intp.Stack[0])
	}
}

func TestCmdEq(t *testing.T) {
	intp, err := run(`
		1 2 eq
		4.0 4 eq
		(abc) (abc) eq
		(abc) /abc eq
		[1] [1] eq
		[1] dup eq
		1 (1) eq
		null null eq
	`, 8)
	if err != nil {
		t.Fatal(err)
	}
	T := Boolean(true)
	F := Boolean(false)
	if d := cmp.Diff([]Object{F, T, T, T, F, T, F, T}, intp.Stack); d != "" {
		t.Fatal(d)
	}
}

func TestStackOperators(t *testing.T) {
	cases := []struct {
		code string
		out  []Object
	}{
		{"1 2 3 exch", []Object{Integer(1), Integer(3), Integer(2)}},
		{"1 2 3 dup", []Object{Integer(1), Integer(2), Integer(3), Integer(3)}},
		{"1 2 3 pop", []Object{Integer(1), Integer(2)}},
		{"1 2 3 2 copy", []Object{Integer(1), Integer(2), Integer(3), Integer(2), Integer(3)}},
		{"1 2 3 0 copy", []Object{Integer(1), Integer(2), Integer(3)}},
		{"1 2 3 3 1 roll", []Object{Integer(3), Integer(1), Integer(2)}},
		{"1 2 3 3 -1 roll", []Object{Integer(2), Integer(3), Integer(1)}},
		{"1 2 3 3 4 roll", []Object{Integer(3), Integer(1), Integer(2)}},
		{"1 2 3 0 index", []Object{Integer(1), Integer(2), Integer(3), Integer(3)}},
		{"1 2 3 2 index", []Object{Integer(1), Integer(2), Integer(3), Integer(1)}},
		{"1 2 3 clear", []Object{}},
		{"1 2 3 count", []Object{Integer(1), Integer(2), Integer(3), Integer(3)}},
		{"1 mark 2 3 counttomark", []Object{Integer(1), theMark, Integer(2), Integer(3), Integer(2)}},
		{"1 mark 2 3 cleartomark", []Object{Integer(1)}},
	}
	for _, c := range cases {
		intp := NewInterpreter()
		intp.Stack = []Object{}
		err := intp.ExecuteString(c.code)
		if err != nil {
			t.Errorf("%q: %v", c.code, err)
			continue
		}
		if d := cmp.Diff(c.out, intp.Stack); d != "" {
			t.Errorf("%q: %s", c.code, d)
		}
	}
}

func TestStackErrors(t *testing.T) {
	cases := []struct {
		code string
		name Name
	}{
		{"pop", eStackunderflow},
		{"1 exch", eStackunderflow},
		{"1 2 5 copy", eStackunderflow},
		{"1 2 -1 copy", eRangecheck},
		{"1 2 3 index", eRangecheck},
		{"1 2 -1 1 roll", eRangecheck},
		{"1 2 3 1 roll", eStackunderflow},
		{"1 2 cleartomark", eUnmatchedmark},
		{"counttomark", eUnmatchedmark},
		{"1 ]", eUnmatchedmark},
		{"(a) 1 add", eTypecheck},
		{"nosuchoperator", eUndefined},
	}
	for _, c := range cases {
		_, err := run(c.code, 0)
		if name := errorName(err); name != c.name {
			t.Errorf("%q: expected %s, got %v", c.code, c.name, err)
		}
	}
}

func TestTypecheckClass(t *testing.T) {
	_, err := run("(a) 1 add", 0)
	if !errors.Is(err, ErrCast) {
		t.Errorf("expected ErrCast, got %v", err)
	}
}

func TestCmdFor(t *testing.T) {
	cases := []struct {
		code string
		out  []Object
	}{
		{"1 1 3 {} for", []Object{Integer(1), Integer(2), Integer(3)}},
		{"0 1 1 4 {add} for", []Object{Integer(10)}},
		{"3 -1 1 {} for", []Object{Integer(3), Integer(2), Integer(1)}},
		{"1 1 0 {} for", []Object{}},
		{"0 0.5 1 {} for", []Object{Real(0), Real(0.5), Real(1)}},
		{"0 1 10 {dup 2 eq {exit} if} for", []Object{Integer(0), Integer(1), Integer(2)}},
		{"5 0 5 {exit} for", []Object{Integer(5)}},
	}
	for _, c := range cases {
		intp := NewInterpreter()
		intp.Stack = []Object{}
		err := intp.ExecuteString(c.code)
		if err != nil {
			t.Errorf("%q: %v", c.code, err)
			continue
		}
		if d := cmp.Diff(c.out, intp.Stack); d != "" {
			t.Errorf("%q: %s", c.code, d)
		}
	}
}

func TestLoops(t *testing.T) {
	cases := []struct {
		code string
		out  []Object
	}{
		{"3 {1} repeat", []Object{Integer(1), Integer(1), Integer(1)}},
		{"0 {1} repeat", []Object{}},
		{"0 {1 add dup 5 ge {exit} if} loop", []Object{Integer(5)}},
		{"[1 2 3] {2 mul} forall", []Object{Integer(2), Integer(4), Integer(6)}},
		{"(AB) {} forall", []Object{Integer(65), Integer(66)}},
		{"<< /b 2 /a 1 >> {} forall", []Object{Name("a"), Integer(1), Name("b"), Integer(2)}},
		{"[1 2 3] {dup 2 eq {exit} if} forall", []Object{Integer(1), Integer(2)}},
		{"true {1} if false {2} if", []Object{Integer(1)}},
		{"true {1} {2} ifelse false {1} {2} ifelse", []Object{Integer(1), Integer(2)}},
	}
	for _, c := range cases {
		intp := NewInterpreter()
		intp.Stack = []Object{}
		err := intp.ExecuteString(c.code)
		if err != nil {
			t.Errorf("%q: %v", c.code, err)
			continue
		}
		if d := cmp.Diff(c.out, intp.Stack); d != "" {
			t.Errorf("%q: %s", c.code, d)
		}
	}
}

func TestExitOutsideLoop(t *testing.T) {
	_, err := run("1 exit", 0)
	if name := errorName(err); name != eInvalidexit {
		t.Errorf("expected invalidexit, got %v", err)
	}
}

func TestIfTypecheck(t *testing.T) {
	_, err := run("1 {2} if", 0)
	if name := errorName(err); name != eTypecheck {
		t.Errorf("expected typecheck, got %v", err)
	}
	_, err = run("true [2] if", 0)
	if name := errorName(err); name != eTypecheck {
		t.Errorf("expected typecheck, got %v", err)
	}
}

func TestCmdIndex(t *testing.T) {
	intp, err := run("(a) (b) (c) (d) 1 index", 5)
	if err != nil {
		t.Fatal(err)
	}
	exp := []Object{NewString("a"), NewString("b"), NewString("c"), NewString("d"), NewString("c")}
	if d := cmp.Diff(exp, intp.Stack); d != "" {
		t.Fatal(d)
	}
}

func TestCmdPut(t *testing.T) {
	intp, err := run("/ar [5 17 3 8] def ar 2 (abcd) put ar", 1)
	if err != nil {
		t.Fatal(err)
	}
	exp := NewArray(Integer(5), Integer(17), NewString("abcd"), Integer(8))
	if d := cmp.Diff(exp, intp.Stack[0]); d != "" {
		t.Fatal(d)
	}
}

func TestCmdPut2(t *testing.T) {
	intp, err := run("/d 5 dict def d /abc 123 put d", 1)
	if err != nil {
		t.Fatal(err)
	}
	d := intp.Stack[0].(*Dict)
	if diff := cmp.Diff(map[Name]Object{"abc": Integer(123)}, d.Val); diff != "" {
		t.Fatal(diff)
	}
}

func TestCmdPut3(t *testing.T) {
	intp, err := run("/st (abc) def st 0 65 put st", 1)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(NewString("Abc"), intp.Stack[0]); d != "" {
		t.Fatal(d)
	}

	_, err = run("(abc) 0 256 put", 0)
	if name := errorName(err); name != eRangecheck {
		t.Errorf("expected rangecheck, got %v", err)
	}
	_, err = run("(abc) 3 0 put", 0)
	if name := errorName(err); name != eRangecheck {
		t.Errorf("expected rangecheck, got %v", err)
	}
}

func TestGet(t *testing.T) {
	intp, err := run("[1 2 3] 1 get (AB) 0 get << /x 7 >> /x get", 3)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]Object{Integer(2), Integer(65), Integer(7)}, intp.Stack); d != "" {
		t.Fatal(d)
	}

	_, err = run("<< /x 7 >> /y get", 0)
	if name := errorName(err); name != eUndefined {
		t.Errorf("expected undefined, got %v", err)
	}
}

func TestLength(t *testing.T) {
	intp, err := run("[1 2 3] length (abcd) length << /a 1 >> length /name length {1 2} length", 5)
	if err != nil {
		t.Fatal(err)
	}
	exp := []Object{Integer(3), Integer(4), Integer(1), Integer(4), Integer(2)}
	if d := cmp.Diff(exp, intp.Stack); d != "" {
		t.Fatal(d)
	}
}

func TestIntervals(t *testing.T) {
	intp, err := run(`
		/a [1 2 3 4 5] def
		a 1 3 getinterval
		a 4 1 getinterval
		a 5 0 getinterval
		(hello) 1 3 getinterval
		/s (hello) def s 1 (EL) putinterval s
		/b [1 2 3 4 5] def b 3 [9 9] putinterval b
	`, 6)
	if err != nil {
		t.Fatal(err)
	}
	exp := []Object{
		NewArray(Integer(2), Integer(3), Integer(4)),
		NewArray(Integer(5)),
		NewArray(),
		NewString("ell"),
		NewString("hELlo"),
		NewArray(Integer(1), Integer(2), Integer(3), Integer(9), Integer(9)),
	}
	if d := cmp.Diff(exp, intp.Stack); d != "" {
		t.Fatal(d)
	}

	_, err = run("[1 2 3] 2 2 getinterval", 0)
	if name := errorName(err); name != eRangecheck {
		t.Errorf("expected rangecheck, got %v", err)
	}
	_, err = run("[1 2 3] 2 [1 2] putinterval", 0)
	if name := errorName(err); name != eRangecheck {
		t.Errorf("expected rangecheck, got %v", err)
	}
}

func TestIntervalShared(t *testing.T) {
	intp, err := run("/a [1 2 3] def a 1 2 getinterval 0 7 put a", 1)
	if err != nil {
		t.Fatal(err)
	}
	exp := NewArray(Integer(1), Integer(7), Integer(3))
	if d := cmp.Diff(exp, intp.Stack[0]); d != "" {
		t.Fatal(d)
	}
}

func TestAloadAstore(t *testing.T) {
	intp, err := run("[1 2] aload pop 7 8 9 2 array astore", 4)
	if err != nil {
		t.Fatal(err)
	}
	exp := []Object{Integer(1), Integer(2), Integer(7), NewArray(Integer(8), Integer(9))}
	if d := cmp.Diff(exp, intp.Stack); d != "" {
		t.Fatal(d)
	}

	_, err = run("1 3 array astore", 0)
	if name := errorName(err); name != eStackunderflow {
		t.Errorf("expected stackunderflow, got %v", err)
	}
}

func TestCopyComposite(t *testing.T) {
	intp, err := run("[1 2] [0 0 0] copy (ab) (xyz) copy << /a 1 >> 1 dict copy", 3)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(NewArray(Integer(1), Integer(2)), intp.Stack[0]); d != "" {
		t.Error(d)
	}
	if d := cmp.Diff(NewString("ab"), intp.Stack[1]); d != "" {
		t.Error(d)
	}
	d := intp.Stack[2].(*Dict)
	if diff := cmp.Diff(map[Name]Object{"a": Integer(1)}, d.Val); diff != "" {
		t.Error(diff)
	}
}

func TestDictionaryLookup(t *testing.T) {
	intp, err := run(`
		/x 1 def
		/d << /x 2 >> def
		d begin x end x
		d /x known d /y known
		/x where { userdict eq } { false } ifelse
		/nosuch where
		/x load
	`, 7)
	if err != nil {
		t.Fatal(err)
	}
	exp := []Object{
		Integer(2), Integer(1),
		Boolean(true), Boolean(false),
		Boolean(true),
		Boolean(false),
		Integer(1),
	}
	if d := cmp.Diff(exp, intp.Stack); d != "" {
		t.Fatal(d)
	}
}

func TestTypeOperators(t *testing.T) {
	intp, err := run(`
		1 type 1.0 type (a) type /a type [1] type {1} type
		<< >> type true type null type mark type /add load type
	`, 11)
	if err != nil {
		t.Fatal(err)
	}
	exp := []Object{
		Operator("integertype"), Operator("realtype"), Operator("stringtype"),
		Operator("nametype"), Operator("arraytype"), Operator("arraytype"),
		Operator("dicttype"), Operator("booleantype"), Operator("nulltype"),
		Operator("marktype"), Operator("operatortype"),
	}
	if d := cmp.Diff(exp, intp.Stack); d != "" {
		t.Fatal(d)
	}
}

func TestExecutableAttribute(t *testing.T) {
	intp, err := run(`
		/a xcheck /a cvx xcheck {1} xcheck {1} cvlit xcheck [1] cvx xcheck
		1 2 /add cvx exec
		[3 4 /add cvx] cvx exec
		(s) cvlit xcheck
		5 exec
	`, 9)
	if err != nil {
		t.Fatal(err)
	}
	exp := []Object{
		Boolean(false), Boolean(true), Boolean(true), Boolean(false), Boolean(true),
		Integer(3), Integer(7), Boolean(false), Integer(5),
	}
	if d := cmp.Diff(exp, intp.Stack); d != "" {
		t.Fatal(d)
	}
}

func TestAccess(t *testing.T) {
	intp, err := run(`
		(abc) readonly dup rcheck exch wcheck
		[1] noaccess rcheck
		{1} executeonly rcheck
		(abc) wcheck
	`, 5)
	if err != nil {
		t.Fatal(err)
	}
	exp := []Object{Boolean(true), Boolean(false), Boolean(false), Boolean(false), Boolean(true)}
	if d := cmp.Diff(exp, intp.Stack); d != "" {
		t.Fatal(d)
	}

	cases := []struct {
		code string
		name Name
	}{
		{"(abc) readonly 0 65 put", eInvalidaccess},
		{"[1 2] noaccess 0 get", eInvalidaccess},
		{"[1 2] executeonly length", eInvalidaccess},
		{"1 dict readonly begin /x 1 def", eInvalidaccess},
		{"1 dict executeonly", eTypecheck},
		{"1 readonly", eTypecheck},
		{"{1} noaccess exec", eInvalidaccess},
		{"[1] [2] readonly copy", eInvalidaccess},
	}
	for _, c := range cases {
		_, err := run(c.code, 0)
		if name := errorName(err); name != c.name {
			t.Errorf("%q: expected %s, got %v", c.code, c.name, err)
		}
	}
}

func TestAccessPerCopy(t *testing.T) {
	intp, err := run("/s (abc) def s readonly pop s wcheck", 1)
	if err != nil {
		t.Fatal(err)
	}
	if intp.Stack[0] != Boolean(true) {
		t.Error("access change leaked into other copies of the string")
	}

	intp, err = run("/d 1 dict def d readonly pop d wcheck", 1)
	if err != nil {
		t.Fatal(err)
	}
	if intp.Stack[0] != Boolean(false) {
		t.Error("access change not shared between dictionary copies")
	}
}

func TestBind(t *testing.T) {
	intp, err := run("/p {1 2 add} bind def /add {sub} def p", 1)
	if err != nil {
		t.Fatal(err)
	}
	if intp.Stack[0] != Integer(3) {
		t.Errorf("expected 3, got %v", intp.Stack[0])
	}

	intp, err = run("/p {{1 2 add}} bind def /add {sub} def p exec", 1)
	if err != nil {
		t.Fatal(err)
	}
	if intp.Stack[0] != Integer(3) {
		t.Errorf("nested procedure: expected 3, got %v", intp.Stack[0])
	}

	intp, err = run("/p {1 2 add} def /add {sub} def p", 1)
	if err != nil {
		t.Fatal(err)
	}
	if intp.Stack[0] != Integer(-1) {
		t.Errorf("expected -1, got %v", intp.Stack[0])
	}
}

func TestInternaldict(t *testing.T) {
	intp, err := run("1183615869 internaldict /x 1 put 1183615869 internaldict /x get", 1)
	if err != nil {
		t.Fatal(err)
	}
	if intp.Stack[0] != Integer(1) {
		t.Errorf("expected 1, got %v", intp.Stack[0])
	}
	if intp.InternalDict.Val["x"] != Integer(1) {
		t.Error("internaldict not updated")
	}

	_, err = run("42 internaldict", 0)
	if name := errorName(err); name != eInvalidaccess {
		t.Errorf("expected invalidaccess, got %v", err)
	}
}

func TestMatrix(t *testing.T) {
	intp, err := run("matrix", 1)
	if err != nil {
		t.Fatal(err)
	}
	exp := NewArray(Integer(1), Integer(0), Integer(0), Integer(1), Integer(0), Integer(0))
	if d := cmp.Diff(exp, intp.Stack[0]); d != "" {
		t.Fatal(d)
	}
}

func TestUnsupported(t *testing.T) {
	for _, code := range []string{"save", "1 restore", "(1 2 add) cvx"} {
		_, err := run(code, 0)
		if !errors.Is(err, ErrUnsupported) {
			t.Errorf("%q: expected ErrUnsupported, got %v", code, err)
		}
	}
}

func TestReadstring(t *testing.T) {
	intp, err := run("currentfile 3 string readstring A B", 2)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]Object{NewString("A B"), Boolean(true)}, intp.Stack); d != "" {
		t.Fatal(d)
	}

	intp, err = run("currentfile 5 string readstring AB", 2)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]Object{NewString("AB"), Boolean(false)}, intp.Stack); d != "" {
		t.Fatal(d)
	}
}

func TestCurrentfileNoFile(t *testing.T) {
	intp := NewInterpreter()
	err := intp.Exec(&builtinOp{name: "currentfile", fn: bCurrentfile})
	if name := errorName(err); name != eInvalidfileaccess {
		t.Errorf("expected invalidfileaccess, got %v", err)
	}
}

func TestClosefile(t *testing.T) {
	intp, err := run("1 2 currentfile closefile 3 4", 2)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]Object{Integer(1), Integer(2)}, intp.Stack); d != "" {
		t.Fatal(d)
	}
}
