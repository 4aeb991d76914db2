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
	"errors"
	"io"

	"golang.org/x/text/encoding/unicode"

	"seehuhn.de/go/postscript/v2/cid"
)

// ReadCMap reads a CMap file from an [io.Reader].
//
// This is a thin wrapper around the [Interpreter.Execute] method.  The
// loader, which may be nil, is used to locate the CMaps referenced by
// "usecmap".
//
// The returned Dict is a PostScript CMap dictionary, as documented in
// section 5.11.4 (CMap Dictionaries) of the PostScript Language Reference
// Manual.  The "CodeMap" field of the CMap dictionary can be cast to a
// [*CMapInfo] object, which contains the mapping data.
func ReadCMap(r io.Reader, loader ResourceLoader) (*Dict, error) {
	intp := NewInterpreter()
	intp.Loader = loader
	err := intp.Execute(r)
	if err != nil {
		return nil, err
	}

	// CMaps loaded for "usecmap" end up in the same directory as the CMap
	// defined by the file.  These are skipped.  If there is more than one
	// remaining CMap, we return the first one.
	dir := intp.resources["CMap"]
	base := make(map[Name]bool)
	for _, obj := range dir.Val {
		if cmap, ok := obj.(*Dict); ok {
			if info, ok := cmap.Val["CodeMap"].(*CMapInfo); ok && info.UseCMap != "" {
				base[info.UseCMap] = true
			}
		}
	}
	for _, name := range sortedKeys(dir.Val) {
		cmap, ok := dir.Val[name].(*Dict)
		if !ok || base[name] {
			continue
		}
		if _, ok := cmap.Val["CMapName"].(Name); !ok {
			cmap.Val["CMapName"] = name
		}
		return cmap, nil
	}

	// Some CMaps are embedded without calling "defineresource".
	for _, name := range sortedKeys(intp.UserDict.Val) {
		cmap, ok := intp.UserDict.Val[name].(*Dict)
		if !ok {
			continue
		}
		if _, ok := cmap.Val["CodeMap"].(*CMapInfo); ok {
			return cmap, nil
		}
	}
	return nil, errNoCMap
}

var errNoCMap = errors.New("postscript: no valid CMap found")

// CMapInfo contains the information for a CMap.
//
// Entries are stored in the order in which they were declared.  Where
// entries overlap, the one declared last takes precedence.
type CMapInfo struct {
	UseCMap         Name
	CodeSpaceRanges []CodeSpaceRange
	CidChars        []CharMap
	CidRanges       []RangeMap
	BfChars         []CharMap
	BfRanges        []RangeMap
	NotdefChars     []CharMap
	NotdefRanges    []RangeMap
}

// CodeSpaceRange represents a range of character codes.
type CodeSpaceRange struct {
	Low, High []byte
}

// CharMap represents a character mapping for a single code.
type CharMap struct {
	Src []byte
	Dst Object
}

// RangeMap represents a character mapping for a range of codes.
type RangeMap struct {
	Low, High []byte
	Dst       Object
}

// CodeLength returns the length of the character code at the start of s.
// This is the smallest n such that the first n bytes of s fall into a
// codespace range of length n.  If no such n exists, 0 is returned.
func (info *CMapInfo) CodeLength(s []byte) int {
	maxLen := 0
	for _, r := range info.CodeSpaceRanges {
		maxLen = max(maxLen, len(r.Low))
	}
	for n := 1; n <= maxLen && n <= len(s); n++ {
		for _, r := range info.CodeSpaceRanges {
			if len(r.Low) == n && r.Contains(s[:n]) {
				return n
			}
		}
	}
	return 0
}

// Contains reports whether every byte of code lies between the
// corresponding bytes of Low and High.
func (r CodeSpaceRange) Contains(code []byte) bool {
	if len(code) != len(r.Low) || len(code) != len(r.High) {
		return false
	}
	for i, c := range code {
		if c < r.Low[i] || c > r.High[i] {
			return false
		}
	}
	return true
}

// LookupCID returns the CID for a character code.
func (info *CMapInfo) LookupCID(code []byte) (cid.CID, bool) {
	return lookupCID(info.CidChars, info.CidRanges, code)
}

// LookupNotdef returns the CID which is used for a character code if the
// font has no glyph for the CID returned by [CMapInfo.LookupCID].
func (info *CMapInfo) LookupNotdef(code []byte) (cid.CID, bool) {
	return lookupCID(info.NotdefChars, info.NotdefRanges, code)
}

func lookupCID(chars []CharMap, ranges []RangeMap, code []byte) (cid.CID, bool) {
	for i := len(chars) - 1; i >= 0; i-- {
		if !bytes.Equal(chars[i].Src, code) {
			continue
		}
		if base, ok := chars[i].Dst.(Integer); ok && base >= 0 {
			return cid.CID(base), true
		}
	}
	for i := len(ranges) - 1; i >= 0; i-- {
		r := ranges[i]
		if !inRange(code, r.Low, r.High) {
			continue
		}
		if base, ok := r.Dst.(Integer); ok && base >= 0 {
			return cid.CID(uint64(base) + codeOffset(code, r.Low)), true
		}
	}
	return 0, false
}

// LookupUnicode returns the text for a character code.
func (info *CMapInfo) LookupUnicode(code []byte) (string, bool) {
	for i := len(info.BfChars) - 1; i >= 0; i-- {
		if !bytes.Equal(info.BfChars[i].Src, code) {
			continue
		}
		if dst, ok := info.BfChars[i].Dst.(String); ok {
			return decodeUTF16(dst.Val)
		}
	}
	for i := len(info.BfRanges) - 1; i >= 0; i-- {
		r := info.BfRanges[i]
		if !inRange(code, r.Low, r.High) {
			continue
		}
		dst, ok := r.Dst.(String)
		if !ok || len(dst.Val) == 0 {
			continue
		}
		return decodeUTF16(addOffset(dst.Val, codeOffset(code, r.Low)))
	}
	return "", false
}

func decodeUTF16(b []byte) (string, bool) {
	dec := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
	text, err := dec.Bytes(b)
	if err != nil {
		return "", false
	}
	return string(text), true
}

// inRange reports whether code lies in the range [low, high], where all
// three byte strings have the same length.
func inRange(code, low, high []byte) bool {
	return len(code) == len(low) && len(code) == len(high) &&
		bytes.Compare(low, code) <= 0 && bytes.Compare(code, high) <= 0
}

// codeOffset returns the numerical difference code-low, where both byte
// strings are read as big-endian integers.
func codeOffset(code, low []byte) uint64 {
	var a, b uint64
	for i := range code {
		a = a<<8 | uint64(code[i])
		b = b<<8 | uint64(low[i])
	}
	return a - b
}

// addOffset adds delta to the big-endian integer stored in b.
// Carries propagate towards the first byte.
func addOffset(b []byte, delta uint64) []byte {
	res := bytes.Clone(b)
	for i := len(res) - 1; i >= 0 && delta > 0; i-- {
		sum := uint64(res[i]) + delta
		res[i] = byte(sum)
		delta = sum >> 8
	}
	return res
}
