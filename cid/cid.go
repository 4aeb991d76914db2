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

// Package cid has types for identifying characters in CID-keyed fonts.
package cid

import "strconv"

// SystemInfo identifies a character collection, by the registry which
// issued it, the name of the collection, and the supplement number.
// These are the entries of a CIDSystemInfo dictionary.
type SystemInfo struct {
	Registry string
	Ordering string

	// Supplement is 0 for the original collection and is increased
	// whenever CIDs are added.
	Supplement int32
}

// String returns the "registry-ordering-supplement" form of the
// character collection name, for example "Adobe-Japan1-6".
func (ros *SystemInfo) String() string {
	return ros.Registry + "-" + ros.Ordering + "-" + strconv.Itoa(int(ros.Supplement))
}

// CanUse reports whether a CMap which uses the character collection
// other can be used with a font which uses ros.  This is the case if
// registry and ordering coincide and the supplement of the font is at
// least as large.
func (ros *SystemInfo) CanUse(other *SystemInfo) bool {
	return ros.Registry == other.Registry &&
		ros.Ordering == other.Ordering &&
		ros.Supplement >= other.Supplement
}

// CID identifies a character within a character collection.
type CID uint32

// Notdef is the CID of the glyph shown for missing characters.
const Notdef CID = 0
