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

// Package cmap reads CMap files and uses them to decode character codes.
//
// A CMap maps character codes, consisting of one or more bytes, to
// character identifiers (CIDs) and optionally to Unicode text.  CMap files
// are PostScript programs, which are run using the interpreter from
// [seehuhn.de/go/postscript/v2].
//
// References:
//   - https://adobe-type-tools.github.io/font-tech-notes/pdfs/5014.CIDFont_Spec.pdf
//   - https://adobe-type-tools.github.io/font-tech-notes/pdfs/5099.CMapResources.pdf
package cmap

import (
	"errors"
	"fmt"
	"io"

	"seehuhn.de/go/postscript/v2"
	"seehuhn.de/go/postscript/v2/cid"
)

// Read reads a CMap file.
//
// The loader is used to locate CMaps referenced by "usecmap".  If loader
// is nil, [Predefined] is used.
func Read(r io.Reader, loader postscript.ResourceLoader) (*File, error) {
	if loader == nil {
		loader = Predefined
	}
	cmap, err := postscript.ReadCMap(r, loader)
	if err != nil {
		return nil, err
	}
	return decodeDict(cmap)
}

func decodeDict(cmap *postscript.Dict) (*File, error) {
	info, ok := cmap.Val["CodeMap"].(*postscript.CMapInfo)
	if !ok {
		return nil, errors.New("cmap: missing CodeMap")
	}
	res := &File{Info: info}

	switch name := cmap.Val["CMapName"].(type) {
	case postscript.Name:
		res.Name = string(name)
	case nil:
		// pass
	default:
		return nil, fmt.Errorf("cmap: invalid CMapName %s", postscript.Format(name))
	}

	if obj, ok := cmap.Val["CMapType"]; ok {
		tp, ok := obj.(postscript.Integer)
		if !ok || tp < 0 || tp > 2 {
			return nil, fmt.Errorf("cmap: invalid CMapType %s", postscript.Format(obj))
		}
		res.Type = int(tp)
	}

	if obj, ok := cmap.Val["WMode"]; ok {
		wmode, ok := obj.(postscript.Integer)
		if !ok || (wmode != 0 && wmode != 1) {
			return nil, fmt.Errorf("cmap: invalid WMode %s", postscript.Format(obj))
		}
		res.WMode = WritingMode(wmode)
	}

	if obj, ok := cmap.Val["CIDSystemInfo"]; ok {
		// Some older CMaps use an array of dictionaries here.
		if a, ok := obj.(postscript.Array); ok && len(a.Val) > 0 {
			obj = a.Val[0]
		}
		ros, err := decodeROS(obj)
		if err != nil {
			return nil, err
		}
		res.ROS = ros
	}

	return res, nil
}

func decodeROS(obj postscript.Object) (*cid.SystemInfo, error) {
	d, ok := obj.(*postscript.Dict)
	if !ok {
		return nil, fmt.Errorf("cmap: invalid CIDSystemInfo %s", postscript.Format(obj))
	}

	ros := &cid.SystemInfo{}
	if registry, ok := d.Val["Registry"].(postscript.String); ok {
		ros.Registry = string(registry.Val)
	} else {
		return nil, fmt.Errorf("cmap: invalid Registry %s", postscript.Format(d.Val["Registry"]))
	}
	if ordering, ok := d.Val["Ordering"].(postscript.String); ok {
		ros.Ordering = string(ordering.Val)
	} else {
		return nil, fmt.Errorf("cmap: invalid Ordering %s", postscript.Format(d.Val["Ordering"]))
	}
	if supplement, ok := d.Val["Supplement"].(postscript.Integer); ok {
		ros.Supplement = int32(supplement)
	} else {
		return nil, fmt.Errorf("cmap: invalid Supplement %s", postscript.Format(d.Val["Supplement"]))
	}
	return ros, nil
}
