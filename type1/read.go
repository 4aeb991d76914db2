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
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"

	"seehuhn.de/go/postscript/v2"
	"seehuhn.de/go/postscript/v2/psenc"
)

// charstringKey is the encryption key for charstrings and subroutines.
const charstringKey = 4330

// Read reads a Type 1 font.  Both the PFA format and the PFB format are
// supported.
//
// The font program is run by a PostScript interpreter, and the font is
// taken from the FontDirectory once the program has finished.
func Read(r io.Reader) (*Font, error) {
	br := bufio.NewReader(r)
	var body io.Reader = br
	if head, err := br.Peek(2); err == nil && head[0] == 0x80 && head[1] == pfbASCII {
		body = &pfbReader{r: br}
	}

	intp := postscript.NewInterpreter()
	err := intp.Execute(body)
	if err != nil {
		return nil, err
	}

	var fontDict *postscript.Dict
	for _, key := range slices.Sorted(maps.Keys(intp.FontDirectory.Val)) {
		if d, ok := intp.FontDirectory.Val[key].(*postscript.Dict); ok {
			fontDict = d
			break
		}
	}
	if fontDict == nil {
		return nil, errNoFont
	}

	font, err := decodeFont(fontDict)
	if err != nil {
		return nil, err
	}
	font.CreationDate = creationDate(intp.DSC)
	return font, nil
}

func decodeFont(fd *postscript.Dict) (*Font, error) {
	if tp, ok := fd.Val["FontType"].(postscript.Integer); !ok || tp != 1 {
		return nil, invalidSince(fmt.Sprintf("wrong FontType %s", postscript.Format(fd.Val["FontType"])))
	}

	info := &FontInfo{
		FontMatrix: matrix.Matrix{0.001, 0, 0, 0.001, 0, 0},
	}
	if name, ok := fd.Val["FontName"].(postscript.Name); ok {
		info.FontName = string(name)
	}
	if fi, ok := fd.Val["FontInfo"].(*postscript.Dict); ok {
		info.Version = getString(fi, "version")
		info.Notice = getString(fi, "Notice")
		info.Copyright = getString(fi, "Copyright")
		info.FullName = getString(fi, "FullName")
		info.FamilyName = getString(fi, "FamilyName")
		info.Weight = getString(fi, "Weight")
		info.ItalicAngle, _ = postscript.ToFloat(fi.Val["ItalicAngle"])
		if b, ok := fi.Val["isFixedPitch"].(postscript.Boolean); ok {
			info.IsFixedPitch = bool(b)
		}
		info.UnderlinePosition, _ = postscript.ToFloat(fi.Val["UnderlinePosition"])
		info.UnderlineThickness, _ = postscript.ToFloat(fi.Val["UnderlineThickness"])
	}
	if obj, ok := fd.Val["FontMatrix"]; ok {
		m, ok := getNumbers(obj)
		if !ok || len(m) != 6 {
			return nil, errFontMatrix
		}
		copy(info.FontMatrix[:], m)
	}

	res := &Font{FontInfo: info}
	if bbox, ok := getNumbers(fd.Val["FontBBox"]); ok && len(bbox) == 4 {
		res.FontBBox = rect.Rect{LLx: bbox[0], LLy: bbox[1], URx: bbox[2], URy: bbox[3]}
	}
	if id, ok := fd.Val["UniqueID"].(postscript.Integer); ok {
		res.UniqueID = int32(id)
	}

	outlines, err := decodeOutlines(fd)
	if err != nil {
		return nil, err
	}
	res.Outlines = outlines
	return res, nil
}

func decodeOutlines(fd *postscript.Dict) (*Outlines, error) {
	priv, ok := fd.Val["Private"].(*postscript.Dict)
	if !ok {
		return nil, errNoPrivate
	}

	pd := &PrivateDict{
		BlueScale: 0.039625,
		BlueShift: 7,
		BlueFuzz:  1,
		LenIV:     4,
	}
	pd.BlueValues, _ = getNumbers(priv.Val["BlueValues"])
	pd.OtherBlues, _ = getNumbers(priv.Val["OtherBlues"])
	if x, ok := postscript.ToFloat(priv.Val["BlueScale"]); ok {
		pd.BlueScale = x
	}
	if x, ok := priv.Val["BlueShift"].(postscript.Integer); ok {
		pd.BlueShift = int32(x)
	}
	if x, ok := priv.Val["BlueFuzz"].(postscript.Integer); ok {
		pd.BlueFuzz = int32(x)
	}
	if x, ok := getNumbers(priv.Val["StdHW"]); ok && len(x) == 1 {
		pd.StdHW = x[0]
	}
	if x, ok := getNumbers(priv.Val["StdVW"]); ok && len(x) == 1 {
		pd.StdVW = x[0]
	}
	if x, ok := priv.Val["ForceBold"].(postscript.Boolean); ok {
		pd.ForceBold = bool(x)
	}
	if x, ok := priv.Val["lenIV"].(postscript.Integer); ok {
		pd.LenIV = int(x)
	}

	o := &Outlines{
		Private:  pd,
		Encoding: decodeEncoding(fd.Val["Encoding"]),
	}

	if subrs, ok := priv.Val["Subrs"].(postscript.Array); ok {
		o.Subrs = make([][]byte, len(subrs.Val))
		for i, obj := range subrs.Val {
			s, ok := obj.(postscript.String)
			if !ok {
				// unused slots are sometimes left empty
				continue
			}
			code, err := decryptCharString(s.Val, pd.LenIV)
			if err != nil {
				return nil, err
			}
			o.Subrs[i] = code
		}
	}

	cs, ok := fd.Val["CharStrings"].(*postscript.Dict)
	if !ok {
		return nil, errNoCharStr
	}
	o.CharStrings = make(map[string][]byte, len(cs.Val))
	for name, obj := range cs.Val {
		s, ok := obj.(postscript.String)
		if !ok {
			return nil, invalidSince(fmt.Sprintf("invalid charstring for %q", string(name)))
		}
		code, err := decryptCharString(s.Val, pd.LenIV)
		if err != nil {
			return nil, err
		}
		o.CharStrings[string(name)] = code
	}

	return o, nil
}

func decryptCharString(cipher []byte, lenIV int) ([]byte, error) {
	if lenIV < 0 {
		return slices.Clone(cipher), nil
	}
	plain := postscript.Decrypt(cipher, charstringKey, lenIV)
	if plain == nil {
		return nil, errShortGlyph
	}
	return plain, nil
}

// decodeEncoding converts an encoding vector into a slice of glyph
// names.  If the font has no valid encoding, the standard encoding is
// used.
func decodeEncoding(obj postscript.Object) []string {
	a, ok := obj.(postscript.Array)
	if !ok || len(a.Val) != 256 {
		return slices.Clone(psenc.StandardEncoding[:])
	}
	res := make([]string, 256)
	for i, elem := range a.Val {
		if name, ok := elem.(postscript.Name); ok {
			res[i] = string(name)
		} else {
			res[i] = ".notdef"
		}
	}
	return res
}

func getString(d *postscript.Dict, key postscript.Name) string {
	switch obj := d.Val[key].(type) {
	case postscript.String:
		return string(obj.Val)
	case postscript.Name:
		return string(obj)
	default:
		return ""
	}
}

// getNumbers reads an array (or procedure) of numbers.
func getNumbers(obj postscript.Object) ([]float64, bool) {
	var elems []postscript.Object
	switch obj := obj.(type) {
	case postscript.Array:
		elems = obj.Val
	case postscript.Procedure:
		elems = obj.Val
	default:
		return nil, false
	}
	res := make([]float64, len(elems))
	for i, elem := range elems {
		x, ok := postscript.ToFloat(elem)
		if !ok {
			return nil, false
		}
		res[i] = x
	}
	return res, true
}

var dateLayouts = []string{
	time.ANSIC,
	"Mon Jan 2 15:04:05 2006",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02",
	"1/2/2006 15:04:05",
}

// creationDate extracts the creation date from the "%%CreationDate"
// comment of a font file.
func creationDate(dsc []postscript.Comment) time.Time {
	for _, c := range dsc {
		if c.Key != "CreationDate" {
			continue
		}
		val := strings.TrimSpace(c.Value)
		val = strings.TrimSuffix(strings.TrimPrefix(val, "("), ")")
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, val); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

const (
	pfbASCII  = 1
	pfbBinary = 2
	pfbEOF    = 3
)

// pfbReader removes the segment headers from a font in PFB format.
type pfbReader struct {
	r         *bufio.Reader
	remaining uint32
	done      bool
}

func (p *pfbReader) Read(buf []byte) (int, error) {
	for p.remaining == 0 {
		if p.done {
			return 0, io.EOF
		}

		var head [6]byte
		_, err := io.ReadFull(p.r, head[:2])
		if err == io.EOF {
			// tolerate a missing EOF segment
			p.done = true
			return 0, io.EOF
		} else if err != nil {
			return 0, errPFBSegment
		}
		if head[0] != 0x80 {
			return 0, errPFBSegment
		}
		switch head[1] {
		case pfbASCII, pfbBinary:
			// pass
		case pfbEOF:
			p.done = true
			return 0, io.EOF
		default:
			return 0, errPFBSegment
		}
		if _, err := io.ReadFull(p.r, head[2:]); err != nil {
			return 0, errPFBSegment
		}
		p.remaining = binary.LittleEndian.Uint32(head[2:])
	}

	if uint32(len(buf)) > p.remaining {
		buf = buf[:p.remaining]
	}
	n, err := p.r.Read(buf)
	p.remaining -= uint32(n)
	if err == io.EOF {
		if p.remaining > 0 {
			err = io.ErrUnexpectedEOF
		} else {
			err = nil
		}
	}
	return n, err
}
