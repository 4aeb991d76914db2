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

package type1

import (
	"maps"
	"slices"
	"sort"
)

// Outlines stores the glyph data of a Type 1 font.
type Outlines struct {
	// CharStrings maps glyph names to the decrypted charstrings.
	CharStrings map[string][]byte

	// Subrs holds the decrypted subroutines which are called by the
	// charstrings.
	Subrs [][]byte

	Private *PrivateDict

	// Encoding (a slice of length 256) is the built-in encoding of the
	// font.  Unused codes are mapped to ".notdef".
	Encoding []string
}

// NumGlyphs returns the number of glyphs in the font, including the
// ".notdef" glyph.
func (o *Outlines) NumGlyphs() int {
	n := len(o.CharStrings)
	if _, ok := o.CharStrings[".notdef"]; !ok {
		n++
	}
	return n
}

// GlyphList returns a list of all glyph names in the font.
// The list starts with the ".notdef" glyph, followed by the glyphs in
// the built-in encoding, followed by the remaining glyphs in
// alphabetical order.
func (o *Outlines) GlyphList() []string {
	glyphNames := slices.Collect(maps.Keys(o.CharStrings))
	if _, ok := o.CharStrings[".notdef"]; !ok {
		glyphNames = append(glyphNames, ".notdef")
	}

	order := make(map[string]int, len(glyphNames))
	for _, name := range glyphNames {
		order[name] = 256
	}
	for i := len(o.Encoding) - 1; i >= 0; i-- {
		if name := o.Encoding[i]; name != ".notdef" {
			order[name] = i
		}
	}
	order[".notdef"] = -1
	sort.Slice(glyphNames, func(i, j int) bool {
		oi := order[glyphNames[i]]
		oj := order[glyphNames[j]]
		if oi != oj {
			return oi < oj
		}
		return glyphNames[i] < glyphNames[j]
	})
	return glyphNames
}

// BuiltinEncoding returns the built-in encoding of the font.
func (o *Outlines) BuiltinEncoding() []string {
	return o.Encoding
}
