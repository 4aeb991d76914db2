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
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"seehuhn.de/go/postscript/v2/cid"
)

const testCMap = `%!PS-Adobe-3.0 Resource-CMap
%%DocumentNeededResources: ProcSet (CIDInit)
%%IncludeResource: ProcSet (CIDInit)
%%BeginResource: CMap (Test)
/CIDInit /ProcSet findresource begin
12 dict begin
begincmap
/CIDSystemInfo 3 dict dup begin
  /Registry (Adobe) def
  /Ordering (Identity) def
  /Supplement 0 def
end def
/CMapName /Test def
/CMapType 1 def
2 begincodespacerange
<00> <7f>
<8000> <ffff>
endcodespacerange
2 begincidchar
<41> 100
<42> 101
endcidchar
2 begincidrange
<30> <39> 16
<8100> <81ff> 1000
endcidrange
1 beginnotdefrange
<00> <1f> 1
endnotdefrange
endcmap
CMapName currentdict /CMap defineresource pop
end
end
%%EndResource
%%EOF
`

func TestReadCMap(t *testing.T) {
	cmap, err := ReadCMap(strings.NewReader(testCMap), nil)
	if err != nil {
		t.Fatal(err)
	}
	if cmap.Val["CMapName"] != Name("Test") {
		t.Errorf("wrong CMap name %v", cmap.Val["CMapName"])
	}
	if cmap.Val["CMapType"] != Integer(1) {
		t.Errorf("wrong CMap type %v", cmap.Val["CMapType"])
	}
	ros := cmap.Val["CIDSystemInfo"].(*Dict)
	if d := cmp.Diff(NewString("Identity"), ros.Val["Ordering"]); d != "" {
		t.Error(d)
	}

	info := cmap.Val["CodeMap"].(*CMapInfo)
	expRanges := []CodeSpaceRange{
		{Low: []byte{0x00}, High: []byte{0x7f}},
		{Low: []byte{0x80, 0x00}, High: []byte{0xff, 0xff}},
	}
	if d := cmp.Diff(expRanges, info.CodeSpaceRanges); d != "" {
		t.Error(d)
	}

	cases := []struct {
		code    []byte
		cid     cid.CID
		ok      bool
		notdef  cid.CID
		hasNote bool
	}{
		{[]byte("A"), 100, true, 0, false},
		{[]byte("B"), 101, true, 0, false},
		{[]byte("C"), 0, false, 0, false},
		{[]byte("0"), 16, true, 0, false},
		{[]byte("9"), 25, true, 0, false},
		{[]byte{0x81, 0x10}, 1016, true, 0, false},
		{[]byte{0x05}, 0, false, 6, true},
	}
	for _, c := range cases {
		got, ok := info.LookupCID(c.code)
		if got != c.cid || ok != c.ok {
			t.Errorf("LookupCID(%x) = %d, %t", c.code, got, ok)
		}
		got, ok = info.LookupNotdef(c.code)
		if got != c.notdef || ok != c.hasNote {
			t.Errorf("LookupNotdef(%x) = %d, %t", c.code, got, ok)
		}
	}
}

func TestCodeLength(t *testing.T) {
	cmap, err := ReadCMap(strings.NewReader(testCMap), nil)
	if err != nil {
		t.Fatal(err)
	}
	info := cmap.Val["CodeMap"].(*CMapInfo)
	cases := []struct {
		in  []byte
		out int
	}{
		{[]byte{0x41, 0x81}, 1},
		{[]byte{0x81, 0x41}, 2},
		{[]byte{0x81}, 0},
		{nil, 0},
	}
	for _, c := range cases {
		if got := info.CodeLength(c.in); got != c.out {
			t.Errorf("CodeLength(%x) = %d, expected %d", c.in, got, c.out)
		}
	}
}

const testToUnicode = `/CIDInit /ProcSet findresource begin
12 dict begin
begincmap
/CMapName /Test-UCS def
/CMapType 2 def
1 begincodespacerange
<00> <ff>
endcodespacerange
2 beginbfchar
<01> <0041>
<02> <d83dde00>
endbfchar
2 beginbfrange
<10> <1f> <0061>
<20> <22> [<0058> <0059> <005a>]
endbfrange
endcmap
CMapName currentdict /CMap defineresource pop
end
end
`

func TestToUnicode(t *testing.T) {
	cmap, err := ReadCMap(strings.NewReader(testToUnicode), nil)
	if err != nil {
		t.Fatal(err)
	}
	info := cmap.Val["CodeMap"].(*CMapInfo)
	cases := []struct {
		code byte
		text string
		ok   bool
	}{
		{0x01, "A", true},
		{0x02, "\U0001F600", true},
		{0x10, "a", true},
		{0x15, "f", true},
		{0x20, "X", true},
		{0x22, "Z", true},
		{0x05, "", false},
	}
	for _, c := range cases {
		text, ok := info.LookupUnicode([]byte{c.code})
		if text != c.text || ok != c.ok {
			t.Errorf("LookupUnicode(%02x) = %q, %t", c.code, text, ok)
		}
	}
}

func TestUseCMap(t *testing.T) {
	loader := mapLoader{"CMap/Test": testCMap}
	body := `/CIDInit /ProcSet findresource begin
12 dict begin
begincmap
/Test usecmap
/CMapName /Derived def
1 begincidchar
<41> 7
endcidchar
endcmap
CMapName currentdict /CMap defineresource pop
end
end
`
	cmap, err := ReadCMap(strings.NewReader(body), loader)
	if err != nil {
		t.Fatal(err)
	}
	if cmap.Val["CMapName"] != Name("Derived") {
		t.Fatalf("wrong CMap %v", cmap.Val["CMapName"])
	}
	info := cmap.Val["CodeMap"].(*CMapInfo)
	if info.UseCMap != "Test" {
		t.Errorf("wrong UseCMap %q", info.UseCMap)
	}
	if got, _ := info.LookupCID([]byte("A")); got != 7 {
		t.Errorf("override failed: got %d", got)
	}
	if got, _ := info.LookupCID([]byte("B")); got != 101 {
		t.Errorf("inherited mapping missing: got %d", got)
	}
	if len(info.CodeSpaceRanges) != 2 {
		t.Errorf("expected 2 codespace ranges, got %d", len(info.CodeSpaceRanges))
	}

	_, err = ReadCMap(strings.NewReader(body), nil)
	if errorName(err) != eUndefinedresource {
		t.Errorf("expected undefinedresource, got %v", err)
	}
}

func TestCMapWithoutDefineresource(t *testing.T) {
	body := `/Embedded 12 dict def
/CIDInit /ProcSet findresource begin
Embedded begin
begincmap
1 begincidchar
<41> 7
endcidchar
endcmap
end
end
`
	cmap, err := ReadCMap(strings.NewReader(body), nil)
	if err != nil {
		t.Fatal(err)
	}
	info := cmap.Val["CodeMap"].(*CMapInfo)
	if got, ok := info.LookupCID([]byte("A")); !ok || got != 7 {
		t.Errorf("LookupCID(A) = %d, %t", got, ok)
	}

	_, err = ReadCMap(strings.NewReader("1 2 add\n"), nil)
	if !errors.Is(err, errNoCMap) {
		t.Errorf("expected errNoCMap, got %v", err)
	}
}

func TestCMapErrors(t *testing.T) {
	prefix := "/CIDInit /ProcSet findresource begin 12 dict begin\n"
	cases := []struct {
		body    string
		class   error
		errName Name
	}{
		{"endcmap", ErrParse, ""},
		{"1 begincidchar <41> 1 endcidchar", ErrParse, ""},
		{"begincmap 1 begincidchar <41> 1 endcmap", ErrParse, ""},
		{"begincmap 1 begincidchar <41> 1 endcidrange", ErrParse, ""},
		{"begincmap 1 begincidchar 1 begincidrange", ErrParse, ""},
		{"begincmap 101 begincidchar", nil, eRangecheck},
		{"begincmap 1 begincidchar <41> endcidchar", nil, eRangecheck},
		{"begincmap 1 begincidrange <42> <41> 1 endcidrange", nil, eRangecheck},
		{"begincmap 1 begincidrange <41> <4142> 1 endcidrange", nil, eRangecheck},
		{"begincmap 1 begincidchar <41> (x) endcidchar", ErrCast, eTypecheck},
		{"begincmap 1 beginbfrange <41> <42> 1 endbfrange", ErrCast, eTypecheck},
		{"begincmap /Nope usecmap", nil, eUndefinedresource},
		{"begincmap 1 begincidrange <41> <5A> 1", ErrParse, ""},
		{"begincmap 1 begincodespacerange <00> <ff> endcodespacerange", ErrParse, ""},
	}
	for _, c := range cases {
		intp := NewInterpreter()
		err := intp.ExecuteString(prefix + c.body + "\n")
		if err == nil {
			t.Errorf("%q: no error", c.body)
			continue
		}
		if c.class != nil && !errors.Is(err, c.class) {
			t.Errorf("%q: expected %v, got %v", c.body, c.class, err)
		}
		if c.errName != "" && errorName(err) != c.errName {
			t.Errorf("%q: expected %s, got %v", c.body, c.errName, err)
		}
	}
}

func TestAddOffset(t *testing.T) {
	cases := []struct {
		in    []byte
		delta uint64
		out   []byte
	}{
		{[]byte{0x00, 0x41}, 1, []byte{0x00, 0x42}},
		{[]byte{0x00, 0xff}, 1, []byte{0x01, 0x00}},
		{[]byte{0xd8, 0x3d, 0xde, 0x00}, 0x10, []byte{0xd8, 0x3d, 0xde, 0x10}},
		{[]byte{0x12}, 0, []byte{0x12}},
	}
	for _, c := range cases {
		got := addOffset(c.in, c.delta)
		if d := cmp.Diff(c.out, got); d != "" {
			t.Errorf("addOffset(%x, %d): %s", c.in, c.delta, d)
		}
	}
}

func TestUnterminatedCMap(t *testing.T) {
	body := testCMap + `/CIDInit /ProcSet findresource begin
12 dict begin
begincmap
1 begincodespacerange <00> <ff> endcodespacerange
1 begincidrange <41> <5a> 1
`
	_, err := ReadCMap(strings.NewReader(body), nil)
	if !errors.Is(err, ErrParse) {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestBfRangeExtraDestinations(t *testing.T) {
	body := `/CIDInit /ProcSet findresource begin
12 dict begin
begincmap
1 begincodespacerange
<00> <ff>
endcodespacerange
2 beginbfrange
<ff> <ff> [<0041> <0042>]
<10> <11> [<0061> <0062> <0063>]
endbfrange
endcmap
/Extra currentdict /CMap defineresource pop
end
end
`
	cmap, err := ReadCMap(strings.NewReader(body), nil)
	if err != nil {
		t.Fatal(err)
	}
	info := cmap.Val["CodeMap"].(*CMapInfo)
	if len(info.BfChars) != 3 {
		t.Errorf("expected 3 bfchar entries, got %d", len(info.BfChars))
	}
	cases := []struct {
		code byte
		text string
		ok   bool
	}{
		{0xff, "A", true},
		{0x00, "", false},
		{0x10, "a", true},
		{0x11, "b", true},
		{0x12, "", false},
	}
	for _, c := range cases {
		text, ok := info.LookupUnicode([]byte{c.code})
		if text != c.text || ok != c.ok {
			t.Errorf("LookupUnicode(%02x) = %q, %t", c.code, text, ok)
		}
	}
}
