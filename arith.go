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
	"bytes"
	"math"
)

// Arithmetic results which are integral and fit into an Integer are
// returned as Integer, all other results as Real.

func bAdd(intp *Interpreter) error {
	if len(intp.Stack) < 2 {
		return intp.e(eStackunderflow, "add: not enough arguments")
	}
	a := intp.Stack[len(intp.Stack)-2]
	b := intp.Stack[len(intp.Stack)-1]
	ai, aIsInt := a.(Integer)
	bi, bIsInt := b.(Integer)
	if aIsInt && bIsInt {
		ci := ai + bi
		// check for integer overflow
		if (ai < 0 && bi < 0 && ci >= 0) || (ai > 0 && bi > 0 && ci <= 0) {
			intp.Stack = append(intp.Stack[:len(intp.Stack)-2], number(float64(ai)+float64(bi)))
		} else {
			intp.Stack = append(intp.Stack[:len(intp.Stack)-2], ci)
		}
		return nil
	}
	return intp.binary("add", func(x, y float64) (float64, bool) { return x + y, true })
}

func bSub(intp *Interpreter) error {
	if len(intp.Stack) < 2 {
		return intp.e(eStackunderflow, "sub: not enough arguments")
	}
	a := intp.Stack[len(intp.Stack)-2]
	b := intp.Stack[len(intp.Stack)-1]
	ai, aIsInt := a.(Integer)
	bi, bIsInt := b.(Integer)
	if aIsInt && bIsInt {
		ci := ai - bi
		// check for integer overflow
		if (ai < 0 && bi > 0 && ci >= 0) || (ai >= 0 && bi < 0 && ci < 0) {
			intp.Stack = append(intp.Stack[:len(intp.Stack)-2], number(float64(ai)-float64(bi)))
		} else {
			intp.Stack = append(intp.Stack[:len(intp.Stack)-2], ci)
		}
		return nil
	}
	return intp.binary("sub", func(x, y float64) (float64, bool) { return x - y, true })
}

func bMul(intp *Interpreter) error {
	if len(intp.Stack) < 2 {
		return intp.e(eStackunderflow, "mul: not enough arguments")
	}
	a := intp.Stack[len(intp.Stack)-2]
	b := intp.Stack[len(intp.Stack)-1]
	ai, aIsInt := a.(Integer)
	bi, bIsInt := b.(Integer)
	if aIsInt && bIsInt {
		ci := ai * bi
		// check for integer overflow
		if ai != 0 && (ci/ai != bi || ai == -1 && bi == math.MinInt) {
			intp.Stack = append(intp.Stack[:len(intp.Stack)-2], number(float64(ai)*float64(bi)))
		} else {
			intp.Stack = append(intp.Stack[:len(intp.Stack)-2], ci)
		}
		return nil
	}
	return intp.binary("mul", func(x, y float64) (float64, bool) { return x * y, true })
}

func bDiv(intp *Interpreter) error {
	return intp.binary("div", func(x, y float64) (float64, bool) {
		if y == 0 {
			return 0, false
		}
		return x / y, true
	})
}

func bExp(intp *Interpreter) error {
	return intp.binary("exp", func(x, y float64) (float64, bool) {
		if x < 0 && y != math.Trunc(y) || x == 0 && y < 0 {
			return 0, false
		}
		return math.Pow(x, y), true
	})
}

func bAtan(intp *Interpreter) error {
	return intp.binary("atan", func(num, den float64) (float64, bool) {
		if num == 0 && den == 0 {
			return 0, false
		}
		angle := math.Atan2(num, den) * 180 / math.Pi
		if angle < 0 {
			angle += 360
		}
		return angle, true
	})
}

// binary implements an arithmetic operator with two numeric arguments.
// If f returns false, an undefinedresult error is raised.
func (intp *Interpreter) binary(op string, f func(x, y float64) (float64, bool)) error {
	if len(intp.Stack) < 2 {
		return intp.e(eStackunderflow, "%s: not enough arguments", op)
	}
	x, ok := ToFloat(intp.Stack[len(intp.Stack)-2])
	if !ok {
		return intp.e(eTypecheck, "%s: needs a number, not %T", op, intp.Stack[len(intp.Stack)-2])
	}
	y, ok := ToFloat(intp.Stack[len(intp.Stack)-1])
	if !ok {
		return intp.e(eTypecheck, "%s: needs a number, not %T", op, intp.Stack[len(intp.Stack)-1])
	}
	z, ok := f(x, y)
	if !ok || math.IsNaN(z) || math.IsInf(z, 0) {
		return intp.e(eUndefinedresult, "%s: undefined result", op)
	}
	intp.Stack = append(intp.Stack[:len(intp.Stack)-2], number(z))
	return nil
}

func bIdiv(intp *Interpreter) error {
	return intp.integerBinary("idiv", func(a, b Integer) (Integer, bool) {
		if b == 0 || a == math.MinInt && b == -1 {
			return 0, false
		}
		return a / b, true
	})
}

func bMod(intp *Interpreter) error {
	return intp.integerBinary("mod", func(a, b Integer) (Integer, bool) {
		if b == 0 {
			return 0, false
		}
		if b == -1 {
			return 0, true
		}
		return a % b, true
	})
}

func (intp *Interpreter) integerBinary(op string, f func(a, b Integer) (Integer, bool)) error {
	if len(intp.Stack) < 2 {
		return intp.e(eStackunderflow, "%s: not enough arguments", op)
	}
	a, ok := intp.Stack[len(intp.Stack)-2].(Integer)
	if !ok {
		return intp.e(eTypecheck, "%s: needs an integer, not %T", op, intp.Stack[len(intp.Stack)-2])
	}
	b, ok := intp.Stack[len(intp.Stack)-1].(Integer)
	if !ok {
		return intp.e(eTypecheck, "%s: needs an integer, not %T", op, intp.Stack[len(intp.Stack)-1])
	}
	c, ok := f(a, b)
	if !ok {
		return intp.e(eUndefinedresult, "%s: undefined result", op)
	}
	intp.Stack = append(intp.Stack[:len(intp.Stack)-2], c)
	return nil
}

func bNeg(intp *Interpreter) error {
	if len(intp.Stack) < 1 {
		return intp.e(eStackunderflow, "neg: not enough arguments")
	}
	switch x := intp.Stack[len(intp.Stack)-1].(type) {
	case Integer:
		if x == math.MinInt {
			intp.Stack[len(intp.Stack)-1] = -Real(x)
		} else {
			intp.Stack[len(intp.Stack)-1] = -x
		}
	case Real:
		intp.Stack[len(intp.Stack)-1] = number(-float64(x))
	default:
		return intp.e(eTypecheck, "neg: needs a number, not %T", x)
	}
	return nil
}

func bAbs(intp *Interpreter) error {
	if len(intp.Stack) < 1 {
		return intp.e(eStackunderflow, "abs: not enough arguments")
	}
	switch x := intp.Stack[len(intp.Stack)-1].(type) {
	case Integer:
		if x == math.MinInt {
			intp.Stack[len(intp.Stack)-1] = -Real(x)
		} else if x < 0 {
			intp.Stack[len(intp.Stack)-1] = -x
		}
	case Real:
		intp.Stack[len(intp.Stack)-1] = number(math.Abs(float64(x)))
	default:
		return intp.e(eTypecheck, "abs: needs a number, not %T", x)
	}
	return nil
}

func bSqrt(intp *Interpreter) error {
	return intp.unary("sqrt", func(x float64) (float64, Name) {
		if x < 0 {
			return 0, eRangecheck
		}
		return math.Sqrt(x), ""
	})
}

func bLn(intp *Interpreter) error {
	return intp.unary("ln", func(x float64) (float64, Name) {
		if x <= 0 {
			return 0, eRangecheck
		}
		return math.Log(x), ""
	})
}

func bLog(intp *Interpreter) error {
	return intp.unary("log", func(x float64) (float64, Name) {
		if x <= 0 {
			return 0, eRangecheck
		}
		return math.Log10(x), ""
	})
}

func bSin(intp *Interpreter) error {
	return intp.unary("sin", func(x float64) (float64, Name) {
		return math.Sin(x * math.Pi / 180), ""
	})
}

func bCos(intp *Interpreter) error {
	return intp.unary("cos", func(x float64) (float64, Name) {
		return math.Cos(x * math.Pi / 180), ""
	})
}

func bRound(intp *Interpreter) error {
	return intp.unary("round", func(x float64) (float64, Name) {
		return math.Floor(x + 0.5), ""
	})
}

func bCeiling(intp *Interpreter) error {
	return intp.unary("ceiling", func(x float64) (float64, Name) {
		return math.Ceil(x), ""
	})
}

func bFloor(intp *Interpreter) error {
	return intp.unary("floor", func(x float64) (float64, Name) {
		return math.Floor(x), ""
	})
}

func bTruncate(intp *Interpreter) error {
	return intp.unary("truncate", func(x float64) (float64, Name) {
		return math.Trunc(x), ""
	})
}

// unary implements an arithmetic operator with one numeric argument.
// Integer arguments to rounding operators are returned unchanged.  If f
// returns a non-empty error name, the corresponding error is raised.
func (intp *Interpreter) unary(op string, f func(x float64) (float64, Name)) error {
	if len(intp.Stack) < 1 {
		return intp.e(eStackunderflow, "%s: not enough arguments", op)
	}
	x, ok := ToFloat(intp.Stack[len(intp.Stack)-1])
	if !ok {
		return intp.e(eTypecheck, "%s: needs a number, not %T", op, intp.Stack[len(intp.Stack)-1])
	}
	if _, isInt := intp.Stack[len(intp.Stack)-1].(Integer); isInt {
		switch op {
		case "round", "ceiling", "floor", "truncate":
			return nil
		}
	}
	y, errName := f(x)
	if errName != "" {
		return intp.e(errName, "%s: argument %g out of range", op, x)
	}
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return intp.e(eUndefinedresult, "%s: undefined result", op)
	}
	intp.Stack[len(intp.Stack)-1] = number(y)
	return nil
}

func bCvi(intp *Interpreter) error {
	if len(intp.Stack) < 1 {
		return intp.e(eStackunderflow, "cvi: not enough arguments")
	}
	obj := intp.Stack[len(intp.Stack)-1]
	if s, ok := obj.(String); ok {
		num, ok := parseNumber(bytes.TrimSpace(s.Val))
		if !ok {
			return intp.e(eTypecheck, "cvi: %q is not a number", s.Val)
		}
		obj = num
	}
	switch x := obj.(type) {
	case Integer:
		intp.Stack[len(intp.Stack)-1] = x
	case Real:
		y := math.Trunc(float64(x))
		if !(y >= math.MinInt && y < math.MaxInt) {
			return intp.e(eRangecheck, "cvi: %g out of range", float64(x))
		}
		intp.Stack[len(intp.Stack)-1] = Integer(y)
	default:
		return intp.e(eTypecheck, "cvi: needs a number, not %T", obj)
	}
	return nil
}

func bCvr(intp *Interpreter) error {
	if len(intp.Stack) < 1 {
		return intp.e(eStackunderflow, "cvr: not enough arguments")
	}
	obj := intp.Stack[len(intp.Stack)-1]
	if s, ok := obj.(String); ok {
		num, ok := parseNumber(bytes.TrimSpace(s.Val))
		if !ok {
			return intp.e(eTypecheck, "cvr: %q is not a number", s.Val)
		}
		obj = num
	}
	x, ok := ToFloat(obj)
	if !ok {
		return intp.e(eTypecheck, "cvr: needs a number, not %T", obj)
	}
	intp.Stack[len(intp.Stack)-1] = Real(x)
	return nil
}

func bEq(intp *Interpreter) error {
	if len(intp.Stack) < 2 {
		return intp.e(eStackunderflow, "eq: not enough arguments")
	}
	a := intp.Stack[len(intp.Stack)-2]
	b := intp.Stack[len(intp.Stack)-1]
	intp.Stack = append(intp.Stack[:len(intp.Stack)-2], Boolean(Equal(a, b)))
	return nil
}

func bNe(intp *Interpreter) error {
	if len(intp.Stack) < 2 {
		return intp.e(eStackunderflow, "ne: not enough arguments")
	}
	a := intp.Stack[len(intp.Stack)-2]
	b := intp.Stack[len(intp.Stack)-1]
	intp.Stack = append(intp.Stack[:len(intp.Stack)-2], Boolean(!Equal(a, b)))
	return nil
}

func bGe(intp *Interpreter) error {
	return intp.compare("ge", func(c int) bool { return c >= 0 })
}

func bGt(intp *Interpreter) error {
	return intp.compare("gt", func(c int) bool { return c > 0 })
}

func bLe(intp *Interpreter) error {
	return intp.compare("le", func(c int) bool { return c <= 0 })
}

func bLt(intp *Interpreter) error {
	return intp.compare("lt", func(c int) bool { return c < 0 })
}

// compare implements the ordering operators.  Numbers are compared by
// value and strings lexicographically.
func (intp *Interpreter) compare(op string, test func(int) bool) error {
	if len(intp.Stack) < 2 {
		return intp.e(eStackunderflow, "%s: not enough arguments", op)
	}
	a := intp.Stack[len(intp.Stack)-2]
	b := intp.Stack[len(intp.Stack)-1]

	var c int
	if x, ok := ToFloat(a); ok {
		y, ok := ToFloat(b)
		if !ok {
			return intp.e(eTypecheck, "%s: mismatched argument types", op)
		}
		switch {
		case x < y:
			c = -1
		case x > y:
			c = 1
		}
	} else if x, ok := a.(String); ok {
		y, ok := b.(String)
		if !ok {
			return intp.e(eTypecheck, "%s: mismatched argument types", op)
		}
		if !x.Access.canRead() || !y.Access.canRead() {
			return intp.e(eInvalidaccess, "%s: string is not readable", op)
		}
		c = bytes.Compare(x.Val, y.Val)
	} else {
		return intp.e(eTypecheck, "%s: invalid argument type %T", op, a)
	}
	intp.Stack = append(intp.Stack[:len(intp.Stack)-2], Boolean(test(c)))
	return nil
}

func bAnd(intp *Interpreter) error {
	return intp.logical("and",
		func(a, b Boolean) Boolean { return a && b },
		func(a, b Integer) Integer { return a & b })
}

func bOr(intp *Interpreter) error {
	return intp.logical("or",
		func(a, b Boolean) Boolean { return a || b },
		func(a, b Integer) Integer { return a | b })
}

func bXor(intp *Interpreter) error {
	return intp.logical("xor",
		func(a, b Boolean) Boolean { return a != b },
		func(a, b Integer) Integer { return a ^ b })
}

func (intp *Interpreter) logical(op string, fb func(a, b Boolean) Boolean, fi func(a, b Integer) Integer) error {
	if len(intp.Stack) < 2 {
		return intp.e(eStackunderflow, "%s: not enough arguments", op)
	}
	a := intp.Stack[len(intp.Stack)-2]
	b := intp.Stack[len(intp.Stack)-1]
	var res Object
	switch a := a.(type) {
	case Boolean:
		b, ok := b.(Boolean)
		if !ok {
			return intp.e(eTypecheck, "%s: mismatched argument types", op)
		}
		res = fb(a, b)
	case Integer:
		b, ok := b.(Integer)
		if !ok {
			return intp.e(eTypecheck, "%s: mismatched argument types", op)
		}
		res = fi(a, b)
	default:
		return intp.e(eTypecheck, "%s: invalid argument type %T", op, a)
	}
	intp.Stack = append(intp.Stack[:len(intp.Stack)-2], res)
	return nil
}

func bNot(intp *Interpreter) error {
	if len(intp.Stack) < 1 {
		return intp.e(eStackunderflow, "not: not enough arguments")
	}
	switch obj := intp.Stack[len(intp.Stack)-1].(type) {
	case Boolean:
		intp.Stack[len(intp.Stack)-1] = !obj
	case Integer:
		intp.Stack[len(intp.Stack)-1] = ^obj
	default:
		return intp.e(eTypecheck, "not: invalid argument type %T", obj)
	}
	return nil
}

func bBitshift(intp *Interpreter) error {
	if len(intp.Stack) < 2 {
		return intp.e(eStackunderflow, "bitshift: not enough arguments")
	}
	a, ok := intp.Stack[len(intp.Stack)-2].(Integer)
	if !ok {
		return intp.e(eTypecheck, "bitshift: needs an integer, not %T", intp.Stack[len(intp.Stack)-2])
	}
	shift, ok := intp.Stack[len(intp.Stack)-1].(Integer)
	if !ok {
		return intp.e(eTypecheck, "bitshift: needs an integer, not %T", intp.Stack[len(intp.Stack)-1])
	}
	var res Integer
	if shift >= 0 {
		res = a << uint(shift)
	} else {
		res = a >> uint(-shift)
	}
	intp.Stack = append(intp.Stack[:len(intp.Stack)-2], res)
	return nil
}
