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
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Object is a PostScript value.
//
// The concrete types are [Integer], [Real], [Boolean], [Name], [Operator],
// [String], [Array], [Procedure], [*Dict], [File], the mark object and the
// built-in operators.  The null object is represented by nil.
type Object interface{}

// Integer is a PostScript integer.
type Integer int

// Real is a PostScript real number.
type Real float64

// Boolean is a PostScript boolean.
type Boolean bool

// Name is a literal PostScript name.
type Name string

func (n Name) String() string {
	return "/" + string(n)
}

// Operator is an executable PostScript name.
type Operator string

// String is a PostScript string.
// Copies of a String share the underlying bytes, but each copy carries its
// own access level.
type String struct {
	Val    []byte
	Access Access
}

// NewString returns a string object with unlimited access.
func NewString(s string) String {
	return String{Val: []byte(s)}
}

func (s String) String() string {
	return fmt.Sprintf("%q", s.Val)
}

// PS returns the string in PostScript literal syntax.
func (s String) PS() string {
	var b strings.Builder
	b.WriteByte('(')
	for _, c := range s.Val {
		switch c {
		case '(', ')', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte(')')
	return b.String()
}

// Array is a literal PostScript array.
type Array struct {
	Val    []Object
	Access Access
}

// NewArray returns an array object with unlimited access.
func NewArray(elems ...Object) Array {
	if elems == nil {
		elems = []Object{}
	}
	return Array{Val: elems}
}

// Procedure is an executable PostScript array.
type Procedure struct {
	Val    []Object
	Access Access
}

func (p Procedure) String() string {
	var ss []string
	ss = append(ss, "{")
	for i, o := range p.Val {
		if i > 0 {
			ss = append(ss, " ")
		}
		ss = append(ss, objectString(o, 2))
	}
	ss = append(ss, "}")
	return strings.Join(ss, "")
}

// Dict is a PostScript dictionary.
// Dictionaries have reference semantics: all copies of a *Dict see the
// same entries and the same access level.
type Dict struct {
	Val    map[Name]Object
	Access Access
}

// NewDict returns an empty dictionary with room for n entries.
func NewDict(n int) *Dict {
	return &Dict{Val: make(map[Name]Object, n)}
}

func (d *Dict) String() string {
	return fmt.Sprintf("<Dict %d>", len(d.Val))
}

// File is a PostScript file object.  The only files known to the
// interpreter are the programs it is currently executing.
type File struct {
	s      *Scanner
	Access Access
}

type mark struct{}

var theMark Object = mark{}

type builtin func(*Interpreter) error

// builtinOp is a built-in operator, as found in systemdict.  Operators
// are compared by identity.
type builtinOp struct {
	name Name
	fn   builtin
}

// immediate is the result of scanning an immediately evaluated name
// "//name".  It is replaced by the value of the name before it reaches
// the operand stack.
type immediate Name

// Access is the access level of a composite object.
// Access levels can only be tightened, never relaxed.
type Access uint8

// These are the supported access levels, from most to least permissive.
const (
	Unlimited Access = iota
	ReadOnly
	ExecuteOnly
	NoAccess
)

func (a Access) String() string {
	switch a {
	case Unlimited:
		return "unlimited"
	case ReadOnly:
		return "readonly"
	case ExecuteOnly:
		return "executeonly"
	case NoAccess:
		return "noaccess"
	default:
		return "access(" + strconv.Itoa(int(a)) + ")"
	}
}

func (a Access) canRead() bool {
	return a <= ReadOnly
}

func (a Access) canWrite() bool {
	return a == Unlimited
}

func (a Access) canExecute() bool {
	return a != NoAccess
}

// tighten returns the more restrictive of a and b.
func (a Access) tighten(b Access) Access {
	return max(a, b)
}

// AccessOf returns the access level of a composite object.
// Simple objects always have unlimited access.
func AccessOf(o Object) Access {
	switch o := o.(type) {
	case String:
		return o.Access
	case Array:
		return o.Access
	case Procedure:
		return o.Access
	case *Dict:
		return o.Access
	case File:
		return o.Access
	default:
		return Unlimited
	}
}

// withAccess returns a copy of o with the access tightened to a.
// Dictionaries are modified in place.
func withAccess(o Object, a Access) (Object, bool) {
	switch o := o.(type) {
	case String:
		o.Access = o.Access.tighten(a)
		return o, true
	case Array:
		o.Access = o.Access.tighten(a)
		return o, true
	case Procedure:
		o.Access = o.Access.tighten(a)
		return o, true
	case *Dict:
		o.Access = o.Access.tighten(a)
		return o, true
	case File:
		o.Access = o.Access.tighten(a)
		return o, true
	default:
		return o, false
	}
}

// IsExecutable reports whether the object has the executable attribute.
func IsExecutable(o Object) bool {
	switch o.(type) {
	case Operator, Procedure, *builtinOp:
		return true
	default:
		return false
	}
}

// TypeName returns the PostScript type name of an object, as returned by
// the "type" operator.
func TypeName(o Object) Name {
	switch o.(type) {
	case nil:
		return "nulltype"
	case Array, Procedure:
		return "arraytype"
	case Boolean:
		return "booleantype"
	case *Dict:
		return "dicttype"
	case File:
		return "filetype"
	case Integer:
		return "integertype"
	case Name, Operator:
		return "nametype"
	case *builtinOp:
		return "operatortype"
	case Real:
		return "realtype"
	case String:
		return "stringtype"
	case mark:
		return "marktype"
	default:
		return "unknowntype"
	}
}

// ToFloat converts a numeric object to float64.
func ToFloat(o Object) (float64, bool) {
	switch o := o.(type) {
	case Integer:
		return float64(o), true
	case Real:
		return float64(o), true
	default:
		return 0, false
	}
}

// number represents x as an Integer if x is integral and in range,
// and as a Real otherwise.
func number(x float64) Object {
	if x == math.Trunc(x) && x >= math.MinInt && x < math.MaxInt {
		return Integer(x)
	}
	return Real(x)
}

// Equal implements the comparison used by the "eq" operator.
// Numbers compare by value, strings and names by content, and composite
// objects by identity.
func Equal(a, b Object) bool {
	if x, ok := ToFloat(a); ok {
		y, ok := ToFloat(b)
		return ok && x == y
	}

	if x, ok := textOf(a); ok {
		y, ok := textOf(b)
		return ok && x == y
	}

	switch a := a.(type) {
	case nil:
		return b == nil
	case Boolean:
		b, ok := b.(Boolean)
		return ok && a == b
	case mark:
		_, ok := b.(mark)
		return ok
	case *Dict:
		b, ok := b.(*Dict)
		return ok && a == b
	case Array:
		y, ok := arrayElems(b)
		return ok && sameElems(a.Val, y)
	case Procedure:
		y, ok := arrayElems(b)
		return ok && sameElems(a.Val, y)
	case File:
		b, ok := b.(File)
		return ok && a.s == b.s
	case *builtinOp:
		b, ok := b.(*builtinOp)
		return ok && a == b
	default:
		return false
	}
}

func textOf(o Object) (string, bool) {
	switch o := o.(type) {
	case String:
		return string(o.Val), true
	case Name:
		return string(o), true
	case Operator:
		return string(o), true
	default:
		return "", false
	}
}

func sameElems(a, b []Object) bool {
	if len(a) != len(b) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}

// toKey converts a dictionary key to a Name.
func toKey(o Object) (Name, bool) {
	switch o := o.(type) {
	case Name:
		return o, true
	case Operator:
		return Name(o), true
	case String:
		return Name(o.Val), true
	default:
		return "", false
	}
}

// objectString formats an object for diagnostic output.
// Nested composites are abbreviated once depth reaches zero.
func objectString(o Object, depth int) string {
	switch o := o.(type) {
	case nil:
		return "null"
	case Boolean:
		return strconv.FormatBool(bool(o))
	case Integer:
		return strconv.Itoa(int(o))
	case Real:
		return strconv.FormatFloat(float64(o), 'g', -1, 64)
	case Name:
		return "/" + string(o)
	case Operator:
		return string(o)
	case String:
		if len(o.Val) > 40 {
			return fmt.Sprintf("(...%d bytes...)", len(o.Val))
		}
		return o.PS()
	case Array:
		return composite("[", "]", o.Val, depth)
	case Procedure:
		return composite("{", "}", o.Val, depth)
	case *Dict:
		return o.String()
	case File:
		return "-file-"
	case *builtinOp:
		return "--" + string(o.name) + "--"
	case mark:
		return "-mark-"
	default:
		return fmt.Sprintf("<%T>", o)
	}
}

func composite(open, close string, elems []Object, depth int) string {
	if depth <= 0 {
		return open + "..." + close
	}
	var ss []string
	l := 0
	for _, o := range elems {
		s := objectString(o, depth-1)
		l += 1 + len(s)
		if l > 60 {
			ss = append(ss, "...")
			break
		}
		ss = append(ss, s)
	}
	return open + strings.Join(ss, " ") + close
}

// Format returns a short, human readable representation of an object.
func Format(o Object) string {
	return objectString(o, 3)
}
