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
	"io"
	"slices"
)

// This file implements the stack, composite object, dictionary, control
// and attribute operators.  Arithmetic is in arith.go.

func bPop(intp *Interpreter) error {
	if len(intp.Stack) < 1 {
		return intp.e(eStackunderflow, "pop: not enough arguments")
	}
	intp.Stack = intp.Stack[:len(intp.Stack)-1]
	return nil
}

func bExch(intp *Interpreter) error {
	if len(intp.Stack) < 2 {
		return intp.e(eStackunderflow, "exch: not enough arguments")
	}
	intp.Stack[len(intp.Stack)-1], intp.Stack[len(intp.Stack)-2] = intp.Stack[len(intp.Stack)-2], intp.Stack[len(intp.Stack)-1]
	return nil
}

func bDup(intp *Interpreter) error {
	if len(intp.Stack) < 1 {
		return intp.e(eStackunderflow, "dup: not enough arguments")
	}
	intp.Stack = append(intp.Stack, intp.Stack[len(intp.Stack)-1])
	return nil
}

func bCopy(intp *Interpreter) error {
	if len(intp.Stack) < 1 {
		return intp.e(eStackunderflow, "copy: not enough arguments")
	}
	if n, ok := intp.Stack[len(intp.Stack)-1].(Integer); ok {
		if n < 0 {
			return intp.e(eRangecheck, "copy: invalid count %d", n)
		}
		if len(intp.Stack) < int(n)+1 {
			return intp.e(eStackunderflow, "copy: not enough arguments")
		}
		intp.Stack = intp.Stack[:len(intp.Stack)-1]
		intp.Stack = append(intp.Stack, intp.Stack[len(intp.Stack)-int(n):]...)
		return nil
	}

	if len(intp.Stack) < 2 {
		return intp.e(eStackunderflow, "copy: not enough arguments")
	}
	a := intp.Stack[len(intp.Stack)-2]
	b := intp.Stack[len(intp.Stack)-1]
	if !AccessOf(a).canRead() {
		return intp.e(eInvalidaccess, "copy: source is not readable")
	}
	if !AccessOf(b).canWrite() {
		return intp.e(eInvalidaccess, "copy: destination is not writable")
	}

	var res Object
	switch a := a.(type) {
	case Array:
		b, ok := b.(Array)
		if !ok {
			return intp.e(eTypecheck, "copy: mismatched argument types")
		} else if len(b.Val) < len(a.Val) {
			return intp.e(eRangecheck, "copy: not enough space in destination")
		}
		n := copy(b.Val, a.Val)
		b.Val = b.Val[:n]
		res = b
	case String:
		b, ok := b.(String)
		if !ok {
			return intp.e(eTypecheck, "copy: mismatched argument types")
		} else if len(b.Val) < len(a.Val) {
			return intp.e(eRangecheck, "copy: not enough space in destination")
		}
		n := copy(b.Val, a.Val)
		b.Val = b.Val[:n]
		res = b
	case *Dict:
		b, ok := b.(*Dict)
		if !ok {
			return intp.e(eTypecheck, "copy: mismatched argument types")
		}
		for k, v := range a.Val {
			b.Val[k] = v
		}
		res = b
	default:
		return intp.e(eTypecheck, "copy: invalid type %T", a)
	}
	intp.Stack = append(intp.Stack[:len(intp.Stack)-2], res)
	return nil
}

func bIndex(intp *Interpreter) error {
	if len(intp.Stack) < 1 {
		return intp.e(eStackunderflow, "index: not enough arguments")
	}
	index, ok := intp.Stack[len(intp.Stack)-1].(Integer)
	if !ok {
		return intp.e(eTypecheck, "index: needs an integer, not %T", intp.Stack[len(intp.Stack)-1])
	}
	intp.Stack = intp.Stack[:len(intp.Stack)-1]
	if index < 0 || index >= Integer(len(intp.Stack)) {
		intp.Stack = append(intp.Stack, index)
		return intp.e(eRangecheck, "index: index %d out of bounds", index)
	}
	intp.Stack = append(intp.Stack, intp.Stack[len(intp.Stack)-int(index)-1])
	return nil
}

func bRoll(intp *Interpreter) error {
	if len(intp.Stack) < 2 {
		return intp.e(eStackunderflow, "roll: not enough arguments")
	}
	n, ok := intp.Stack[len(intp.Stack)-2].(Integer)
	if !ok {
		return intp.e(eTypecheck, "roll: needs an integer, not %T", intp.Stack[len(intp.Stack)-2])
	}
	j, ok := intp.Stack[len(intp.Stack)-1].(Integer)
	if !ok {
		return intp.e(eTypecheck, "roll: needs an integer, not %T", intp.Stack[len(intp.Stack)-1])
	}
	if n < 0 {
		return intp.e(eRangecheck, "roll: invalid length %d", n)
	} else if n > Integer(len(intp.Stack)-2) {
		return intp.e(eStackunderflow, "roll: not enough arguments")
	}
	intp.Stack = intp.Stack[:len(intp.Stack)-2]
	if n == 0 {
		return nil
	}
	j %= n
	if j < 0 {
		j += n
	}
	if j == 0 {
		return nil
	}

	// Remove j elements from the top of the stack, and insert these
	// between the intp.Stack[len(intp.Stack)-n:] and the rest of the
	// stack.
	ji := int(j)
	ni := int(n)
	data := intp.Stack[len(intp.Stack)-ni:]
	tmp := make([]Object, ji)
	copy(tmp, data[ni-ji:])
	copy(data[ji:], data[:ni-ji])
	copy(data, tmp)
	return nil
}

func bClear(intp *Interpreter) error {
	clear(intp.Stack)
	intp.Stack = intp.Stack[:0]
	return nil
}

func bCount(intp *Interpreter) error {
	intp.Stack = append(intp.Stack, Integer(len(intp.Stack)))
	return nil
}

func bMark(intp *Interpreter) error {
	intp.Stack = append(intp.Stack, theMark)
	return nil
}

// findMark returns the stack position of the topmost mark, or -1.
func (intp *Interpreter) findMark() int {
	for i := len(intp.Stack) - 1; i >= 0; i-- {
		if _, ok := intp.Stack[i].(mark); ok {
			return i
		}
	}
	return -1
}

func bCleartomark(intp *Interpreter) error {
	k := intp.findMark()
	if k < 0 {
		return intp.e(eUnmatchedmark, "cleartomark: no mark found")
	}
	clear(intp.Stack[k:])
	intp.Stack = intp.Stack[:k]
	return nil
}

func bCounttomark(intp *Interpreter) error {
	k := intp.findMark()
	if k < 0 {
		return intp.e(eUnmatchedmark, "counttomark: no mark found")
	}
	intp.Stack = append(intp.Stack, Integer(len(intp.Stack)-k-1))
	return nil
}

func bArray(intp *Interpreter) error {
	if len(intp.Stack) < 1 {
		return intp.e(eStackunderflow, "array: not enough arguments")
	}
	size, ok := intp.Stack[len(intp.Stack)-1].(Integer)
	if !ok {
		return intp.e(eTypecheck, "array: needs an integer, not %T", intp.Stack[len(intp.Stack)-1])
	} else if size < 0 {
		return intp.e(eRangecheck, "array: invalid size %d", size)
	} else if size > maxArraySize {
		return intp.e(eLimitcheck, "array: invalid size %d", size)
	}
	intp.Stack[len(intp.Stack)-1] = Array{Val: make([]Object, size)}
	return nil
}

func bArrayEnd(intp *Interpreter) error {
	k := intp.findMark()
	if k < 0 {
		return intp.e(eUnmatchedmark, "]: missing '['")
	}
	elems := make([]Object, len(intp.Stack)-k-1)
	copy(elems, intp.Stack[k+1:])
	intp.Stack = append(intp.Stack[:k], Array{Val: elems})
	return nil
}

func bDictEnd(intp *Interpreter) error {
	k := intp.findMark()
	if k < 0 {
		return intp.e(eUnmatchedmark, ">>: missing '<<'")
	} else if (len(intp.Stack)-k)%2 != 1 {
		return intp.e(eRangecheck, ">>: odd number of elements")
	}
	d := NewDict((len(intp.Stack) - k - 1) / 2)
	for i := k + 1; i < len(intp.Stack); i += 2 {
		key, ok := toKey(intp.Stack[i])
		if !ok {
			return intp.e(eTypecheck, ">>: invalid key type %T", intp.Stack[i])
		}
		d.Val[key] = intp.Stack[i+1]
	}
	intp.Stack = append(intp.Stack[:k], d)
	return nil
}

func bString(intp *Interpreter) error {
	if len(intp.Stack) < 1 {
		return intp.e(eStackunderflow, "string: not enough arguments")
	}
	size, ok := intp.Stack[len(intp.Stack)-1].(Integer)
	if !ok {
		return intp.e(eTypecheck, "string: needs an integer, not %T", intp.Stack[len(intp.Stack)-1])
	} else if size < 0 {
		return intp.e(eRangecheck, "string: invalid size %d", size)
	} else if size > maxStringSize {
		return intp.e(eLimitcheck, "string: invalid size %d", size)
	}
	intp.Stack[len(intp.Stack)-1] = String{Val: make([]byte, size)}
	return nil
}

func bLength(intp *Interpreter) error {
	if len(intp.Stack) < 1 {
		return intp.e(eStackunderflow, "length: not enough arguments")
	}
	obj := intp.Stack[len(intp.Stack)-1]
	if !AccessOf(obj).canRead() {
		return intp.e(eInvalidaccess, "length: argument is not readable")
	}
	var res int
	switch obj := obj.(type) {
	case Array:
		res = len(obj.Val)
	case Procedure:
		res = len(obj.Val)
	case *Dict:
		res = len(obj.Val)
	case String:
		res = len(obj.Val)
	case Name:
		res = len(obj)
	case Operator:
		res = len(obj)
	default:
		return intp.e(eTypecheck, "length: invalid argument type %T", obj)
	}
	intp.Stack[len(intp.Stack)-1] = Integer(res)
	return nil
}

func bGet(intp *Interpreter) error {
	if len(intp.Stack) < 2 {
		return intp.e(eStackunderflow, "get: not enough arguments")
	}
	obj := intp.Stack[len(intp.Stack)-2]
	sel := intp.Stack[len(intp.Stack)-1]
	if !AccessOf(obj).canRead() {
		return intp.e(eInvalidaccess, "get: argument is not readable")
	}

	var res Object
	switch obj := obj.(type) {
	case Array:
		i, err := intp.checkIndex("get", sel, len(obj.Val))
		if err != nil {
			return err
		}
		res = obj.Val[i]
	case Procedure:
		i, err := intp.checkIndex("get", sel, len(obj.Val))
		if err != nil {
			return err
		}
		res = obj.Val[i]
	case String:
		i, err := intp.checkIndex("get", sel, len(obj.Val))
		if err != nil {
			return err
		}
		res = Integer(obj.Val[i])
	case *Dict:
		key, ok := toKey(sel)
		if !ok {
			return intp.e(eTypecheck, "get: invalid dict key type %T", sel)
		}
		val, ok := obj.Val[key]
		if !ok {
			return intp.e(eUndefined, "get: key %s not found", key)
		}
		res = val
	default:
		return intp.e(eTypecheck, "get: invalid argument type %T", obj)
	}
	intp.Stack = append(intp.Stack[:len(intp.Stack)-2], res)
	return nil
}

func (intp *Interpreter) checkIndex(op string, sel Object, n int) (int, error) {
	index, ok := sel.(Integer)
	if !ok {
		return 0, intp.e(eTypecheck, "%s: needs an integer index, not %T", op, sel)
	}
	if index < 0 || index >= Integer(n) {
		return 0, intp.e(eRangecheck, "%s: index %d out of bounds", op, index)
	}
	return int(index), nil
}

func bPut(intp *Interpreter) error {
	if len(intp.Stack) < 3 {
		return intp.e(eStackunderflow, "put: not enough arguments")
	}
	obj := intp.Stack[len(intp.Stack)-3]
	sel := intp.Stack[len(intp.Stack)-2]
	value := intp.Stack[len(intp.Stack)-1]
	if !AccessOf(obj).canWrite() {
		return intp.e(eInvalidaccess, "put: argument is not writable")
	}

	switch obj := obj.(type) {
	case Array:
		i, err := intp.checkIndex("put", sel, len(obj.Val))
		if err != nil {
			return err
		}
		obj.Val[i] = value
	case Procedure:
		i, err := intp.checkIndex("put", sel, len(obj.Val))
		if err != nil {
			return err
		}
		obj.Val[i] = value
	case String:
		i, err := intp.checkIndex("put", sel, len(obj.Val))
		if err != nil {
			return err
		}
		c, ok := value.(Integer)
		if !ok {
			return intp.e(eTypecheck, "put: needs an integer value, not %T", value)
		} else if c < 0 || c > 255 {
			return intp.e(eRangecheck, "put: value %d out of range", c)
		}
		obj.Val[i] = byte(c)
	case *Dict:
		key, ok := toKey(sel)
		if !ok {
			return intp.e(eTypecheck, "put: invalid dict key type %T", sel)
		}
		obj.Val[key] = value
	default:
		return intp.e(eTypecheck, "put: invalid argument type %T", obj)
	}
	intp.Stack = intp.Stack[:len(intp.Stack)-3]
	return nil
}

func bGetinterval(intp *Interpreter) error {
	if len(intp.Stack) < 3 {
		return intp.e(eStackunderflow, "getinterval: not enough arguments")
	}
	obj := intp.Stack[len(intp.Stack)-3]
	if !AccessOf(obj).canRead() {
		return intp.e(eInvalidaccess, "getinterval: argument is not readable")
	}
	var n int
	switch obj := obj.(type) {
	case Array:
		n = len(obj.Val)
	case Procedure:
		n = len(obj.Val)
	case String:
		n = len(obj.Val)
	default:
		return intp.e(eTypecheck, "getinterval: invalid argument type %T", obj)
	}
	index, ok := intp.Stack[len(intp.Stack)-2].(Integer)
	if !ok {
		return intp.e(eTypecheck, "getinterval: needs an integer index")
	} else if index < 0 || index > Integer(n) {
		return intp.e(eRangecheck, "getinterval: index %d out of bounds", index)
	}
	count, ok := intp.Stack[len(intp.Stack)-1].(Integer)
	if !ok {
		return intp.e(eTypecheck, "getinterval: needs an integer count")
	} else if count < 0 || count > Integer(n)-index {
		return intp.e(eRangecheck, "getinterval: count %d out of bounds", count)
	}

	var res Object
	switch obj := obj.(type) {
	case Array:
		obj.Val = obj.Val[index : index+count]
		res = obj
	case Procedure:
		obj.Val = obj.Val[index : index+count]
		res = obj
	case String:
		obj.Val = obj.Val[index : index+count]
		res = obj
	}
	intp.Stack = append(intp.Stack[:len(intp.Stack)-3], res)
	return nil
}

func bPutinterval(intp *Interpreter) error {
	if len(intp.Stack) < 3 {
		return intp.e(eStackunderflow, "putinterval: not enough arguments")
	}
	dst := intp.Stack[len(intp.Stack)-3]
	index, ok := intp.Stack[len(intp.Stack)-2].(Integer)
	if !ok {
		return intp.e(eTypecheck, "putinterval: needs an integer index")
	} else if index < 0 {
		return intp.e(eRangecheck, "putinterval: index %d out of range", index)
	}
	src := intp.Stack[len(intp.Stack)-1]
	if !AccessOf(dst).canWrite() {
		return intp.e(eInvalidaccess, "putinterval: destination is not writable")
	}
	if !AccessOf(src).canRead() {
		return intp.e(eInvalidaccess, "putinterval: source is not readable")
	}

	switch dst := dst.(type) {
	case Array:
		elems, ok := arrayElems(src)
		if !ok {
			return intp.e(eTypecheck, "putinterval: mismatched argument types")
		}
		if int(index)+len(elems) > len(dst.Val) {
			return intp.e(eRangecheck, "putinterval: index %d out of range", index)
		}
		copy(dst.Val[index:], elems)
	case Procedure:
		elems, ok := arrayElems(src)
		if !ok {
			return intp.e(eTypecheck, "putinterval: mismatched argument types")
		}
		if int(index)+len(elems) > len(dst.Val) {
			return intp.e(eRangecheck, "putinterval: index %d out of range", index)
		}
		copy(dst.Val[index:], elems)
	case String:
		src, ok := src.(String)
		if !ok {
			return intp.e(eTypecheck, "putinterval: mismatched argument types")
		}
		if int(index)+len(src.Val) > len(dst.Val) {
			return intp.e(eRangecheck, "putinterval: index %d out of range", index)
		}
		copy(dst.Val[index:], src.Val)
	default:
		return intp.e(eTypecheck, "putinterval: invalid argument type %T", dst)
	}
	intp.Stack = intp.Stack[:len(intp.Stack)-3]
	return nil
}

func arrayElems(o Object) ([]Object, bool) {
	switch o := o.(type) {
	case Array:
		return o.Val, true
	case Procedure:
		return o.Val, true
	default:
		return nil, false
	}
}

func bAload(intp *Interpreter) error {
	if len(intp.Stack) < 1 {
		return intp.e(eStackunderflow, "aload: not enough arguments")
	}
	a := intp.Stack[len(intp.Stack)-1]
	elems, ok := arrayElems(a)
	if !ok {
		return intp.e(eTypecheck, "aload: needs an array, not %T", a)
	} else if !AccessOf(a).canRead() {
		return intp.e(eInvalidaccess, "aload: array is not readable")
	}
	intp.Stack = append(intp.Stack[:len(intp.Stack)-1], elems...)
	intp.Stack = append(intp.Stack, a)
	return nil
}

func bAstore(intp *Interpreter) error {
	if len(intp.Stack) < 1 {
		return intp.e(eStackunderflow, "astore: not enough arguments")
	}
	a := intp.Stack[len(intp.Stack)-1]
	elems, ok := arrayElems(a)
	if !ok {
		return intp.e(eTypecheck, "astore: needs an array, not %T", a)
	} else if !AccessOf(a).canWrite() {
		return intp.e(eInvalidaccess, "astore: array is not writable")
	}
	n := len(elems)
	if len(intp.Stack) < n+1 {
		return intp.e(eStackunderflow, "astore: not enough arguments")
	}
	base := len(intp.Stack) - n - 1
	copy(elems, intp.Stack[base:])
	intp.Stack = append(intp.Stack[:base], a)
	return nil
}

func bForall(intp *Interpreter) error {
	if len(intp.Stack) < 2 {
		return intp.e(eStackunderflow, "forall: not enough arguments")
	}
	obj := intp.Stack[len(intp.Stack)-2]
	proc, ok := intp.Stack[len(intp.Stack)-1].(Procedure)
	if !ok {
		return intp.e(eTypecheck, "forall: needs a procedure, not %T", intp.Stack[len(intp.Stack)-1])
	}
	if !AccessOf(obj).canRead() {
		return intp.e(eInvalidaccess, "forall: argument is not readable")
	}

	switch obj := obj.(type) {
	case Array:
		intp.Stack = intp.Stack[:len(intp.Stack)-2]
		for _, val := range obj.Val {
			intp.Stack = append(intp.Stack, val)
			if done, err := intp.iterate(proc); done {
				return err
			}
		}
	case Procedure:
		intp.Stack = intp.Stack[:len(intp.Stack)-2]
		for _, val := range obj.Val {
			intp.Stack = append(intp.Stack, val)
			if done, err := intp.iterate(proc); done {
				return err
			}
		}
	case String:
		intp.Stack = intp.Stack[:len(intp.Stack)-2]
		for _, c := range obj.Val {
			intp.Stack = append(intp.Stack, Integer(c))
			if done, err := intp.iterate(proc); done {
				return err
			}
		}
	case *Dict:
		intp.Stack = intp.Stack[:len(intp.Stack)-2]
		keys := make([]Name, 0, len(obj.Val))
		for key := range obj.Val {
			keys = append(keys, key)
		}
		slices.Sort(keys)
		for _, key := range keys {
			val, ok := obj.Val[key]
			if !ok {
				continue
			}
			intp.Stack = append(intp.Stack, key, val)
			if done, err := intp.iterate(proc); done {
				return err
			}
		}
	default:
		return intp.e(eTypecheck, "forall: invalid type %T", obj)
	}
	return nil
}

// iterate runs one iteration of a loop body.  The result is true if the
// loop must stop, either because of "exit" or because of an error.
func (intp *Interpreter) iterate(proc Procedure) (bool, error) {
	err := intp.Exec(proc)
	if err == errExit {
		return true, nil
	}
	return err != nil, err
}

func bDict(intp *Interpreter) error {
	if len(intp.Stack) < 1 {
		return intp.e(eStackunderflow, "dict: not enough arguments")
	}
	size, ok := intp.Stack[len(intp.Stack)-1].(Integer)
	if !ok {
		return intp.e(eTypecheck, "dict: needs an integer, not %T", intp.Stack[len(intp.Stack)-1])
	} else if size < 0 {
		return intp.e(eRangecheck, "dict: invalid size %d", size)
	} else if size > maxDictSize {
		return intp.e(eLimitcheck, "dict: invalid size %d", size)
	}
	intp.Stack[len(intp.Stack)-1] = NewDict(int(size))
	return nil
}

func bMaxlength(intp *Interpreter) error {
	if len(intp.Stack) < 1 {
		return intp.e(eStackunderflow, "maxlength: not enough arguments")
	}
	d, ok := intp.Stack[len(intp.Stack)-1].(*Dict)
	if !ok {
		return intp.e(eTypecheck, "maxlength: needs a dictionary, not %T", intp.Stack[len(intp.Stack)-1])
	} else if !d.Access.canRead() {
		return intp.e(eInvalidaccess, "maxlength: dictionary is not readable")
	}
	intp.Stack[len(intp.Stack)-1] = Integer(len(d.Val) + 1)
	return nil
}

func bBegin(intp *Interpreter) error {
	if len(intp.Stack) < 1 {
		return intp.e(eStackunderflow, "begin: not enough arguments")
	}
	d, ok := intp.Stack[len(intp.Stack)-1].(*Dict)
	if !ok {
		return intp.e(eTypecheck, "begin: needs a dictionary, not %T", intp.Stack[len(intp.Stack)-1])
	}
	if len(intp.DictStack) >= maxDictStackDepth {
		return intp.e(eDictstackoverflow, "begin: too many nested dictionaries")
	}
	intp.Stack = intp.Stack[:len(intp.Stack)-1]
	intp.DictStack = append(intp.DictStack, d)
	return nil
}

func bEnd(intp *Interpreter) error {
	if len(intp.DictStack) <= intp.minDictStack() {
		return intp.e(eDictstackunderflow, "end: dictionary stack is empty")
	}
	intp.DictStack = intp.DictStack[:len(intp.DictStack)-1]
	return nil
}

func bDef(intp *Interpreter) error {
	if len(intp.Stack) < 2 {
		return intp.e(eStackunderflow, "def: not enough arguments")
	}
	key, ok := toKey(intp.Stack[len(intp.Stack)-2])
	if !ok {
		return intp.e(eTypecheck, "def: needs a name, not %T", intp.Stack[len(intp.Stack)-2])
	}
	d := intp.DictStack[len(intp.DictStack)-1]
	if !d.Access.canWrite() {
		return intp.e(eInvalidaccess, "def: current dictionary is not writable")
	}
	d.Val[key] = intp.Stack[len(intp.Stack)-1]
	intp.Stack = intp.Stack[:len(intp.Stack)-2]
	return nil
}

func bLoad(intp *Interpreter) error {
	if len(intp.Stack) < 1 {
		return intp.e(eStackunderflow, "load: not enough arguments")
	}
	key, ok := toKey(intp.Stack[len(intp.Stack)-1])
	if !ok {
		return intp.e(eTypecheck, "load: needs a name, not %T", intp.Stack[len(intp.Stack)-1])
	}
	val, ok := intp.lookup(key)
	if !ok {
		return intp.e(eUndefined, "load: %s not found", key)
	}
	intp.Stack[len(intp.Stack)-1] = val
	return nil
}

func bKnown(intp *Interpreter) error {
	if len(intp.Stack) < 2 {
		return intp.e(eStackunderflow, "known: not enough arguments")
	}
	d, ok := intp.Stack[len(intp.Stack)-2].(*Dict)
	if !ok {
		return intp.e(eTypecheck, "known: needs a dictionary, not %T", intp.Stack[len(intp.Stack)-2])
	} else if !d.Access.canRead() {
		return intp.e(eInvalidaccess, "known: dictionary is not readable")
	}
	key, ok := toKey(intp.Stack[len(intp.Stack)-1])
	if !ok {
		return intp.e(eTypecheck, "known: needs a name, not %T", intp.Stack[len(intp.Stack)-1])
	}
	_, ok = d.Val[key]
	intp.Stack = append(intp.Stack[:len(intp.Stack)-2], Boolean(ok))
	return nil
}

func bWhere(intp *Interpreter) error {
	if len(intp.Stack) < 1 {
		return intp.e(eStackunderflow, "where: not enough arguments")
	}
	key, ok := toKey(intp.Stack[len(intp.Stack)-1])
	if !ok {
		return intp.e(eTypecheck, "where: needs a name, not %T", intp.Stack[len(intp.Stack)-1])
	}
	intp.Stack = intp.Stack[:len(intp.Stack)-1]
	for j := len(intp.DictStack) - 1; j >= 0; j-- {
		d := intp.DictStack[j]
		if _, ok := d.Val[key]; ok {
			intp.Stack = append(intp.Stack, d, Boolean(true))
			return nil
		}
	}
	intp.Stack = append(intp.Stack, Boolean(false))
	return nil
}

func bCurrentdict(intp *Interpreter) error {
	intp.Stack = append(intp.Stack, intp.DictStack[len(intp.DictStack)-1])
	return nil
}

func bCountdictstack(intp *Interpreter) error {
	intp.Stack = append(intp.Stack, Integer(len(intp.DictStack)))
	return nil
}

func bCleardictstack(intp *Interpreter) error {
	intp.DictStack = intp.DictStack[:intp.minDictStack()]
	return nil
}

func bExec(intp *Interpreter) error {
	if len(intp.Stack) < 1 {
		return intp.e(eStackunderflow, "exec: not enough arguments")
	}
	obj := intp.Stack[len(intp.Stack)-1]
	intp.Stack = intp.Stack[:len(intp.Stack)-1]
	return intp.Exec(obj)
}

func bIf(intp *Interpreter) error {
	if len(intp.Stack) < 2 {
		return intp.e(eStackunderflow, "if: not enough arguments")
	}
	cond, ok := intp.Stack[len(intp.Stack)-2].(Boolean)
	if !ok {
		return intp.e(eTypecheck, "if: needs a boolean, not %T", intp.Stack[len(intp.Stack)-2])
	}
	proc, ok := intp.Stack[len(intp.Stack)-1].(Procedure)
	if !ok {
		return intp.e(eTypecheck, "if: needs a procedure, not %T", intp.Stack[len(intp.Stack)-1])
	}
	intp.Stack = intp.Stack[:len(intp.Stack)-2]
	if cond {
		return intp.Exec(proc)
	}
	return nil
}

func bIfelse(intp *Interpreter) error {
	if len(intp.Stack) < 3 {
		return intp.e(eStackunderflow, "ifelse: not enough arguments")
	}
	cond, ok := intp.Stack[len(intp.Stack)-3].(Boolean)
	if !ok {
		return intp.e(eTypecheck, "ifelse: needs a boolean, not %T", intp.Stack[len(intp.Stack)-3])
	}
	proc1, ok1 := intp.Stack[len(intp.Stack)-2].(Procedure)
	proc2, ok2 := intp.Stack[len(intp.Stack)-1].(Procedure)
	if !ok1 || !ok2 {
		return intp.e(eTypecheck, "ifelse: needs two procedures")
	}
	intp.Stack = intp.Stack[:len(intp.Stack)-3]
	if cond {
		return intp.Exec(proc1)
	}
	return intp.Exec(proc2)
}

func bFor(intp *Interpreter) error {
	if len(intp.Stack) < 4 {
		return intp.e(eStackunderflow, "for: not enough arguments")
	}
	proc, ok := intp.Stack[len(intp.Stack)-1].(Procedure)
	if !ok {
		return intp.e(eTypecheck, "for: needs a procedure, not %T", intp.Stack[len(intp.Stack)-1])
	}
	initial := intp.Stack[len(intp.Stack)-4]
	increment := intp.Stack[len(intp.Stack)-3]
	limit := intp.Stack[len(intp.Stack)-2]

	i0, ok0 := initial.(Integer)
	i1, ok1 := increment.(Integer)
	i2, ok2 := limit.(Integer)
	if ok0 && ok1 && ok2 {
		intp.Stack = intp.Stack[:len(intp.Stack)-4]
		for val := i0; i1 > 0 && val <= i2 || i1 < 0 && val >= i2 || i1 == 0; val += i1 {
			intp.Stack = append(intp.Stack, val)
			if done, err := intp.iterate(proc); done {
				return err
			}
		}
		return nil
	}

	x0, ok0 := ToFloat(initial)
	x1, ok1 := ToFloat(increment)
	x2, ok2 := ToFloat(limit)
	if !(ok0 && ok1 && ok2) {
		return intp.e(eTypecheck, "for: needs numbers")
	}
	intp.Stack = intp.Stack[:len(intp.Stack)-4]
	for val := x0; x1 > 0 && val <= x2 || x1 < 0 && val >= x2 || x1 == 0; val += x1 {
		intp.Stack = append(intp.Stack, Real(val))
		if done, err := intp.iterate(proc); done {
			return err
		}
	}
	return nil
}

func bRepeat(intp *Interpreter) error {
	if len(intp.Stack) < 2 {
		return intp.e(eStackunderflow, "repeat: not enough arguments")
	}
	count, ok := intp.Stack[len(intp.Stack)-2].(Integer)
	if !ok {
		return intp.e(eTypecheck, "repeat: needs an integer, not %T", intp.Stack[len(intp.Stack)-2])
	} else if count < 0 {
		return intp.e(eRangecheck, "repeat: negative count")
	}
	proc, ok := intp.Stack[len(intp.Stack)-1].(Procedure)
	if !ok {
		return intp.e(eTypecheck, "repeat: needs a procedure, not %T", intp.Stack[len(intp.Stack)-1])
	}
	intp.Stack = intp.Stack[:len(intp.Stack)-2]
	for i := Integer(0); i < count; i++ {
		if done, err := intp.iterate(proc); done {
			return err
		}
	}
	return nil
}

func bLoop(intp *Interpreter) error {
	if len(intp.Stack) < 1 {
		return intp.e(eStackunderflow, "loop: not enough arguments")
	}
	proc, ok := intp.Stack[len(intp.Stack)-1].(Procedure)
	if !ok {
		return intp.e(eTypecheck, "loop: needs a procedure, not %T", intp.Stack[len(intp.Stack)-1])
	}
	intp.Stack = intp.Stack[:len(intp.Stack)-1]
	for {
		if done, err := intp.iterate(proc); done {
			return err
		}
	}
}

func bExit(intp *Interpreter) error {
	return errExit
}

func bType(intp *Interpreter) error {
	if len(intp.Stack) < 1 {
		return intp.e(eStackunderflow, "type: not enough arguments")
	}
	intp.Stack[len(intp.Stack)-1] = Operator(TypeName(intp.Stack[len(intp.Stack)-1]))
	return nil
}

func bCvx(intp *Interpreter) error {
	if len(intp.Stack) < 1 {
		return intp.e(eStackunderflow, "cvx: not enough arguments")
	}
	switch obj := intp.Stack[len(intp.Stack)-1].(type) {
	case Name:
		intp.Stack[len(intp.Stack)-1] = Operator(obj)
	case Array:
		intp.Stack[len(intp.Stack)-1] = Procedure(obj)
	case String:
		return unsupported("cvx: executable strings are not supported")
	}
	return nil
}

func bCvlit(intp *Interpreter) error {
	if len(intp.Stack) < 1 {
		return intp.e(eStackunderflow, "cvlit: not enough arguments")
	}
	switch obj := intp.Stack[len(intp.Stack)-1].(type) {
	case Operator:
		intp.Stack[len(intp.Stack)-1] = Name(obj)
	case Procedure:
		intp.Stack[len(intp.Stack)-1] = Array(obj)
	}
	return nil
}

func bXcheck(intp *Interpreter) error {
	if len(intp.Stack) < 1 {
		return intp.e(eStackunderflow, "xcheck: not enough arguments")
	}
	intp.Stack[len(intp.Stack)-1] = Boolean(IsExecutable(intp.Stack[len(intp.Stack)-1]))
	return nil
}

func bRcheck(intp *Interpreter) error {
	return intp.checkAccess("rcheck", Access.canRead)
}

func bWcheck(intp *Interpreter) error {
	return intp.checkAccess("wcheck", Access.canWrite)
}

func (intp *Interpreter) checkAccess(op string, test func(Access) bool) error {
	if len(intp.Stack) < 1 {
		return intp.e(eStackunderflow, "%s: not enough arguments", op)
	}
	obj := intp.Stack[len(intp.Stack)-1]
	switch obj.(type) {
	case String, Array, Procedure, *Dict, File:
		// pass
	default:
		return intp.e(eTypecheck, "%s: invalid argument type %T", op, obj)
	}
	intp.Stack[len(intp.Stack)-1] = Boolean(test(AccessOf(obj)))
	return nil
}

func bReadonly(intp *Interpreter) error {
	return intp.setAccess("readonly", ReadOnly)
}

func bExecuteonly(intp *Interpreter) error {
	if len(intp.Stack) > 0 {
		if _, isDict := intp.Stack[len(intp.Stack)-1].(*Dict); isDict {
			return intp.e(eTypecheck, "executeonly: invalid argument type *Dict")
		}
	}
	return intp.setAccess("executeonly", ExecuteOnly)
}

func bNoaccess(intp *Interpreter) error {
	return intp.setAccess("noaccess", NoAccess)
}

func (intp *Interpreter) setAccess(op string, a Access) error {
	if len(intp.Stack) < 1 {
		return intp.e(eStackunderflow, "%s: not enough arguments", op)
	}
	obj, ok := withAccess(intp.Stack[len(intp.Stack)-1], a)
	if !ok {
		return intp.e(eTypecheck, "%s: invalid argument type %T", op, obj)
	}
	intp.Stack[len(intp.Stack)-1] = obj
	return nil
}

func bBind(intp *Interpreter) error {
	if len(intp.Stack) < 1 {
		return intp.e(eStackunderflow, "bind: not enough arguments")
	}
	proc, ok := intp.Stack[len(intp.Stack)-1].(Procedure)
	if !ok {
		return intp.e(eTypecheck, "bind: needs a procedure, not %T", intp.Stack[len(intp.Stack)-1])
	}
	intp.bindProc(proc, make(map[*Object]bool))
	return nil
}

func bMatrix(intp *Interpreter) error {
	m := NewArray(Integer(1), Integer(0), Integer(0), Integer(1), Integer(0), Integer(0))
	intp.Stack = append(intp.Stack, m)
	return nil
}

func bInternaldict(intp *Interpreter) error {
	if len(intp.Stack) < 1 {
		return intp.e(eStackunderflow, "internaldict: not enough arguments")
	}
	code, ok := intp.Stack[len(intp.Stack)-1].(Integer)
	if !ok {
		return intp.e(eTypecheck, "internaldict: needs an integer, not %T", intp.Stack[len(intp.Stack)-1])
	}
	if code != 1183615869 {
		return intp.e(eInvalidaccess, "internaldict: wrong passcode")
	}
	intp.Stack[len(intp.Stack)-1] = intp.InternalDict
	return nil
}

func bSave(intp *Interpreter) error {
	return unsupported("save: not supported")
}

func bRestore(intp *Interpreter) error {
	return unsupported("restore: not supported")
}

func bCurrentfile(intp *Interpreter) error {
	s, ok := intp.currentFile()
	if !ok {
		return intp.e(eInvalidfileaccess, "currentfile: no current file")
	}
	intp.Stack = append(intp.Stack, File{s: s})
	return nil
}

func bReadstring(intp *Interpreter) error {
	if len(intp.Stack) < 2 {
		return intp.e(eStackunderflow, "readstring: not enough arguments")
	}
	f, ok := intp.Stack[len(intp.Stack)-2].(File)
	if !ok {
		return intp.e(eTypecheck, "readstring: needs a file, not %T", intp.Stack[len(intp.Stack)-2])
	} else if !f.Access.canRead() {
		return intp.e(eInvalidaccess, "readstring: file is not readable")
	}
	buf, ok := intp.Stack[len(intp.Stack)-1].(String)
	if !ok {
		return intp.e(eTypecheck, "readstring: needs a string, not %T", intp.Stack[len(intp.Stack)-1])
	} else if !buf.Access.canWrite() {
		return intp.e(eInvalidaccess, "readstring: string is not writable")
	}

	n, err := io.ReadFull(f.s, buf.Val)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return intp.e(eIoerror, "readstring: %v", err).(*Error).withCause(err)
	}
	full := n == len(buf.Val)
	buf.Val = buf.Val[:n]
	intp.Stack = append(intp.Stack[:len(intp.Stack)-2], buf, Boolean(full))
	return nil
}
