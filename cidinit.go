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
	"io"
	"slices"
)

// cmapBuilder collects the mappings of a CMap between "begincmap" and
// "endcmap".
type cmapBuilder struct {
	info *CMapInfo

	// open is the name of the begin… operator of the currently open
	// block, or the empty string.
	open Name

	// start is the height of the operand stack at the start of the
	// currently open block.
	start int
}

func (b *cmapBuilder) unterminated() error {
	if b.open != "" {
		return parseError("%s: missing end of block", b.open).withCause(io.ErrUnexpectedEOF)
	}
	return parseError("begincmap: missing endcmap").withCause(io.ErrUnexpectedEOF)
}

// maxCMapBlock is the maximal number of entries in a single block.
const maxCMapBlock = 100

// cidInitOperators returns the operators of the "CIDInit" ProcSet.  These
// are used to create and populate CMaps.
//
// The operators are explained in section 5.11.4 (CMap Dictionaries) of the
// PostScript Language Reference Manual.
func cidInitOperators() map[Name]Object {
	return map[Name]Object{
		"begincmap": builtin(bBegincmap),
		"endcmap":   builtin(bEndcmap),
		"usecmap":   builtin(bUsecmap),

		"begincodespacerange": builtin(beginBlock("begincodespacerange")),
		"endcodespacerange":   builtin(endBlock("begincodespacerange", "endcodespacerange", 2, addCodeSpaceRange)),
		"begincidchar":        builtin(beginBlock("begincidchar")),
		"endcidchar":          builtin(endBlock("begincidchar", "endcidchar", 2, addCidChar)),
		"begincidrange":       builtin(beginBlock("begincidrange")),
		"endcidrange":         builtin(endBlock("begincidrange", "endcidrange", 3, addCidRange)),
		"beginnotdefchar":     builtin(beginBlock("beginnotdefchar")),
		"endnotdefchar":       builtin(endBlock("beginnotdefchar", "endnotdefchar", 2, addNotdefChar)),
		"beginnotdefrange":    builtin(beginBlock("beginnotdefrange")),
		"endnotdefrange":      builtin(endBlock("beginnotdefrange", "endnotdefrange", 3, addNotdefRange)),
		"beginbfchar":         builtin(beginBlock("beginbfchar")),
		"endbfchar":           builtin(endBlock("beginbfchar", "endbfchar", 2, addBfChar)),
		"beginbfrange":        builtin(beginBlock("beginbfrange")),
		"endbfrange":          builtin(endBlock("beginbfrange", "endbfrange", 3, addBfRange)),
	}
}

func bBegincmap(intp *Interpreter) error {
	intp.cmap = &cmapBuilder{info: &CMapInfo{}}
	return nil
}

func bEndcmap(intp *Interpreter) error {
	b := intp.cmap
	if b == nil {
		return parseError("endcmap: no matching begincmap")
	}
	if b.open != "" {
		return parseError("endcmap: %s block is not closed", b.open)
	}
	d := intp.DictStack[len(intp.DictStack)-1]
	if !d.Access.canWrite() {
		return intp.e(eInvalidaccess, "endcmap: current dictionary is not writable")
	}
	d.Val["CodeMap"] = b.info
	intp.cmap = nil
	return nil
}

func bUsecmap(intp *Interpreter) error {
	b := intp.cmap
	if b == nil {
		return parseError("usecmap: not in cmap block")
	}
	if len(intp.Stack) < 1 {
		return intp.e(eStackunderflow, "usecmap: not enough arguments")
	}
	name, ok := intp.Stack[len(intp.Stack)-1].(Name)
	if !ok {
		return intp.e(eTypecheck, "usecmap: needs a name, not %T", intp.Stack[len(intp.Stack)-1])
	}

	obj, err := intp.FindResource("CMap", name)
	if err != nil {
		return err
	}
	var base *CMapInfo
	if d, ok := obj.(*Dict); ok {
		base, _ = d.Val["CodeMap"].(*CMapInfo)
	}
	if base == nil {
		return intp.e(eTypecheck, "usecmap: %s is not a CMap", name)
	}
	intp.Stack = intp.Stack[:len(intp.Stack)-1]

	info := b.info
	info.UseCMap = name
	info.CodeSpaceRanges = append(info.CodeSpaceRanges, base.CodeSpaceRanges...)
	info.CidChars = append(info.CidChars, base.CidChars...)
	info.CidRanges = append(info.CidRanges, base.CidRanges...)
	info.NotdefChars = append(info.NotdefChars, base.NotdefChars...)
	info.NotdefRanges = append(info.NotdefRanges, base.NotdefRanges...)
	info.BfChars = append(info.BfChars, base.BfChars...)
	info.BfRanges = append(info.BfRanges, base.BfRanges...)
	return nil
}

// beginBlock returns the implementation of a begin… operator.
func beginBlock(op Name) builtin {
	return func(intp *Interpreter) error {
		b := intp.cmap
		if b == nil {
			return parseError("%s: not in cmap block", op)
		}
		if b.open != "" {
			return parseError("%s: %s block is not closed", op, b.open)
		}
		if len(intp.Stack) < 1 {
			return intp.e(eStackunderflow, "%s: not enough arguments", op)
		}
		n, ok := intp.Stack[len(intp.Stack)-1].(Integer)
		if !ok {
			return intp.e(eTypecheck, "%s: needs an integer, not %T", op, intp.Stack[len(intp.Stack)-1])
		} else if n < 0 || n > maxCMapBlock {
			return intp.e(eRangecheck, "%s: invalid length %d", op, n)
		}
		intp.Stack = intp.Stack[:len(intp.Stack)-1]
		b.open = op
		b.start = len(intp.Stack)
		return nil
	}
}

// endBlock returns the implementation of an end… operator.  Every entry
// consists of k objects, which are passed to add in declaration order.
//
// The number of entries is taken from the stack, rather than from the
// count given to the begin… operator, since the counts in real-world
// CMap files are not always accurate.
func endBlock(begin, op Name, k int, add func(intp *Interpreter, info *CMapInfo, entry []Object) error) builtin {
	return func(intp *Interpreter) error {
		b := intp.cmap
		if b == nil {
			return parseError("%s: not in cmap block", op)
		}
		if b.open != begin {
			if b.open == "" {
				return parseError("%s: no matching %s", op, begin)
			}
			return parseError("%s: %s block is not closed", op, b.open)
		}
		if b.start > len(intp.Stack) {
			return intp.e(eStackunderflow, "%s: not enough arguments", op)
		}
		entries := intp.Stack[b.start:]
		if len(entries)%k != 0 {
			return intp.e(eRangecheck, "%s: incomplete entry", op)
		} else if len(entries) > k*maxCMapBlock {
			return intp.e(eRangecheck, "%s: too many entries", op)
		}
		for i := 0; i < len(entries); i += k {
			if err := add(intp, b.info, entries[i:i+k]); err != nil {
				return err
			}
		}
		intp.Stack = intp.Stack[:b.start]
		b.open = ""
		return nil
	}
}

func addCodeSpaceRange(intp *Interpreter, info *CMapInfo, entry []Object) error {
	lo, hi, err := intp.codeRange("endcodespacerange", entry)
	if err != nil {
		return err
	}
	info.CodeSpaceRanges = append(info.CodeSpaceRanges, CodeSpaceRange{Low: lo, High: hi})
	return nil
}

func addCidChar(intp *Interpreter, info *CMapInfo, entry []Object) error {
	m, err := intp.cidChar("endcidchar", entry)
	if err != nil {
		return err
	}
	info.CidChars = append(info.CidChars, m)
	return nil
}

func addNotdefChar(intp *Interpreter, info *CMapInfo, entry []Object) error {
	m, err := intp.cidChar("endnotdefchar", entry)
	if err != nil {
		return err
	}
	info.NotdefChars = append(info.NotdefChars, m)
	return nil
}

func addCidRange(intp *Interpreter, info *CMapInfo, entry []Object) error {
	m, err := intp.cidRange("endcidrange", entry)
	if err != nil {
		return err
	}
	info.CidRanges = append(info.CidRanges, m)
	return nil
}

func addNotdefRange(intp *Interpreter, info *CMapInfo, entry []Object) error {
	m, err := intp.cidRange("endnotdefrange", entry)
	if err != nil {
		return err
	}
	info.NotdefRanges = append(info.NotdefRanges, m)
	return nil
}

func addBfChar(intp *Interpreter, info *CMapInfo, entry []Object) error {
	code, ok := entry[0].(String)
	if !ok {
		return intp.e(eTypecheck, "endbfchar: expected string, got %T", entry[0])
	}
	switch entry[1].(type) {
	case String, Name:
		// pass
	default:
		return intp.e(eTypecheck, "endbfchar: expected string or name, got %T", entry[1])
	}
	info.BfChars = append(info.BfChars, CharMap{Src: code.Val, Dst: entry[1]})
	return nil
}

// addBfRange adds a bfrange entry.  Ranges which map to an array of
// destinations are expanded into individual bfchar entries.
func addBfRange(intp *Interpreter, info *CMapInfo, entry []Object) error {
	lo, hi, err := intp.codeRange("endbfrange", entry)
	if err != nil {
		return err
	}
	switch dst := entry[2].(type) {
	case String:
		info.BfRanges = append(info.BfRanges, RangeMap{Low: lo, High: hi, Dst: dst})
	case Array:
		// Surplus destinations are ignored.
		n := codeOffset(hi, lo) + 1
		code := slices.Clone(lo)
		for i, elem := range dst.Val {
			if uint64(i) >= n {
				break
			}
			info.BfChars = append(info.BfChars, CharMap{Src: code, Dst: elem})
			code = addOffset(code, 1)
		}
	default:
		return intp.e(eTypecheck, "endbfrange: expected string or array, got %T", entry[2])
	}
	return nil
}

func (intp *Interpreter) codeRange(op string, entry []Object) (lo, hi []byte, err error) {
	loStr, ok := entry[0].(String)
	if !ok {
		return nil, nil, intp.e(eTypecheck, "%s: expected string, got %T", op, entry[0])
	}
	hiStr, ok := entry[1].(String)
	if !ok {
		return nil, nil, intp.e(eTypecheck, "%s: expected string, got %T", op, entry[1])
	}
	lo, hi = loStr.Val, hiStr.Val
	if len(lo) != len(hi) || len(lo) == 0 || bytes.Compare(lo, hi) > 0 {
		return nil, nil, intp.e(eRangecheck, "%s: invalid range <%x> <%x>", op, lo, hi)
	}
	return lo, hi, nil
}

func (intp *Interpreter) cidChar(op string, entry []Object) (CharMap, error) {
	code, ok := entry[0].(String)
	if !ok {
		return CharMap{}, intp.e(eTypecheck, "%s: expected string, got %T", op, entry[0])
	}
	if _, ok := entry[1].(Integer); !ok {
		return CharMap{}, intp.e(eTypecheck, "%s: expected integer, got %T", op, entry[1])
	}
	return CharMap{Src: code.Val, Dst: entry[1]}, nil
}

func (intp *Interpreter) cidRange(op string, entry []Object) (RangeMap, error) {
	lo, hi, err := intp.codeRange(op, entry)
	if err != nil {
		return RangeMap{}, err
	}
	if _, ok := entry[2].(Integer); !ok {
		return RangeMap{}, intp.e(eTypecheck, "%s: expected integer, got %T", op, entry[2])
	}
	return RangeMap{Low: lo, High: hi, Dst: entry[2]}, nil
}
