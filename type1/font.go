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
	"fmt"
	"math"
	"time"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"

	"seehuhn.de/go/postscript/v2/type1/names"
)

// Font represents a Type 1 font.
type Font struct {
	*FontInfo
	*Outlines

	// FontBBox is the font bounding box in glyph space units.
	FontBBox rect.Rect

	// UniqueID is the unique identifier of the font, or 0 if not set.
	UniqueID int32

	// CreationDate is taken from the "%%CreationDate" comment of the
	// font file.  It is the zero time if the comment is missing or cannot
	// be parsed.
	CreationDate time.Time
}

// FontInfo holds information about a font.
type FontInfo struct {
	// PostScript language name (FontName or CIDFontName) of the font.
	FontName string

	// Version is the version number of the font program.
	Version string

	// Notice is the trademark or copyright notice, if applicable.
	Notice string

	// Copyright is the copyright notice, if applicable.
	Copyright string

	// FullName is a unique, human-readable name for an individual font.
	FullName string

	// FamilyName is a human-readable name for a group of fonts that are
	// stylistic variants of a single design.
	FamilyName string

	// Weight is the human-readable name for the weight or "boldness"
	// attribute of a font.
	Weight string

	// ItalicAngle is the angle, in degrees counterclockwise from the
	// vertical, of the dominant vertical strokes of the font.
	ItalicAngle float64

	// IsFixedPitch is a flag indicating whether the font is a fixed-pitch
	// (monospaced) font.
	IsFixedPitch bool

	// UnderlinePosition is the recommended distance from the baseline for
	// positioning underlining strokes (in glyph space units).
	UnderlinePosition float64

	// UnderlineThickness is the recommended stroke width for underlining,
	// in glyph space units.
	UnderlineThickness float64

	// FontMatrix transforms glyph space units into text space units.
	FontMatrix matrix.Matrix
}

// PrivateDict holds the hinting information from the Private dictionary
// of a Type 1 font.
type PrivateDict struct {
	BlueValues []float64
	OtherBlues []float64
	BlueScale  float64
	BlueShift  int32
	BlueFuzz   int32
	StdHW      float64
	StdVW      float64
	ForceBold  bool

	// LenIV is the number of random bytes at the start of each
	// charstring.  The value -1 indicates unencrypted charstrings.
	LenIV int
}

// FontBBoxPDF returns the font bounding box in PDF text space units
// (1/1000 of the text size).
func (f *Font) FontBBoxPDF() rect.Rect {
	M := f.FontMatrix.Mul(matrix.Scale(1000, 1000))

	var res rect.Rect
	corners := [][2]float64{
		{f.FontBBox.LLx, f.FontBBox.LLy},
		{f.FontBBox.LLx, f.FontBBox.URy},
		{f.FontBBox.URx, f.FontBBox.LLy},
		{f.FontBBox.URx, f.FontBBox.URy},
	}
	for i, c := range corners {
		x := M[0]*c[0] + M[2]*c[1] + M[4]
		y := M[1]*c[0] + M[3]*c[1] + M[5]
		if i == 0 {
			res = rect.Rect{LLx: x, LLy: y, URx: x, URy: y}
			continue
		}
		res.LLx = math.Min(res.LLx, x)
		res.LLy = math.Min(res.LLy, y)
		res.URx = math.Max(res.URx, x)
		res.URy = math.Max(res.URy, y)
	}
	return res
}

// Validate checks the font for structural problems.
func (f *Font) Validate() error {
	if f.FontInfo == nil || f.Outlines == nil {
		return errNoFont
	}

	M := f.FontMatrix
	if det := M[0]*M[3] - M[1]*M[2]; math.Abs(det) < 1e-12 || math.IsNaN(det) {
		return errFontMatrix
	}

	if _, ok := f.CharStrings[".notdef"]; !ok {
		return invalidSince("missing .notdef glyph")
	}
	for name := range f.CharStrings {
		if !names.IsValid(name) {
			return invalidSince(fmt.Sprintf("invalid glyph name %q", name))
		}
	}
	for code, name := range f.Encoding {
		if _, ok := f.CharStrings[name]; !ok && name != ".notdef" {
			return invalidSince(fmt.Sprintf("encoding refers to missing glyph %q at code %d", name, code))
		}
	}
	return nil
}
