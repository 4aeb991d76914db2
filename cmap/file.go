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

package cmap

import (
	"fmt"
	"strings"

	"seehuhn.de/go/postscript/v2"
	"seehuhn.de/go/postscript/v2/cid"
)

// File represents a CMap.  This describes a mapping from character codes
// (one or more bytes) to character identifiers (CIDs) and to text.
type File struct {
	Name  string
	ROS   *cid.SystemInfo // nil for CMaps without CIDSystemInfo
	WMode WritingMode
	Type  int // the CMapType; 2 for ToUnicode CMaps

	// Info holds the mappings declared in the CMap file, together with
	// those inherited via "usecmap".
	Info *postscript.CMapInfo
}

// WritingMode is the writing mode of a CMap (horizontal or vertical).
type WritingMode int

func (m WritingMode) String() string {
	switch m {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	default:
		return fmt.Sprintf("WritingMode(%d)", m)
	}
}

const (
	// Horizontal indicates horizontal writing mode.
	Horizontal WritingMode = 0

	// Vertical indicates vertical writing mode.
	Vertical WritingMode = 1
)

// Code is a character code, together with the CID it is mapped to.
type Code struct {
	Code []byte
	CID  cid.CID

	// Notdef is set if the CID was taken from a notdef mapping.
	Notdef bool
}

// Decode splits s into character codes and looks up the CID for each
// code.  Codes without a CID mapping use the notdef mappings, and CID 0
// if there is no notdef mapping either.
//
// Bytes which do not start a valid code are consumed in pieces of the
// shortest code length of the CMap.
func (f *File) Decode(s []byte) []Code {
	var res []Code
	for len(s) > 0 {
		n := f.codeLength(s)
		c := Code{Code: s[:n], CID: cid.Notdef}
		if val, ok := f.Info.LookupCID(c.Code); ok {
			c.CID = val
		} else if val, ok := f.Info.LookupNotdef(c.Code); ok {
			c.CID = val
			c.Notdef = true
		}
		res = append(res, c)
		s = s[n:]
	}
	return res
}

// CanBeUsedWith reports whether the CMap can be used with a CIDFont for
// the character collection ros.  CMaps for the "Identity" ordering, and
// CMaps without a CIDSystemInfo, can be used with every font.
func (f *File) CanBeUsedWith(ros *cid.SystemInfo) bool {
	if f.ROS == nil || f.ROS.Ordering == "Identity" {
		return true
	}
	return ros != nil && ros.CanUse(f.ROS)
}

// Text returns the text represented by the character codes in s.
// Codes without a Unicode mapping are skipped.
func (f *File) Text(s []byte) string {
	var b strings.Builder
	for len(s) > 0 {
		n := f.codeLength(s)
		if text, ok := f.Info.LookupUnicode(s[:n]); ok {
			b.WriteString(text)
		}
		s = s[n:]
	}
	return b.String()
}

// codeLength returns the length of the code at the start of s.  The
// result is always between 1 and len(s).
func (f *File) codeLength(s []byte) int {
	if n := f.Info.CodeLength(s); n > 0 {
		return n
	}

	n := 0
	for _, r := range f.Info.CodeSpaceRanges {
		if n == 0 || len(r.Low) < n {
			n = len(r.Low)
		}
	}
	return min(max(n, 1), len(s))
}
