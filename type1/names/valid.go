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

// Package names implements the naming rules for glyphs in Type 1 fonts.
//
// See https://github.com/adobe-type-tools/agl-specification for details.
package names

// MaxLength is the maximal length of a glyph name.
const MaxLength = 31

// IsValid reports whether s is a valid glyph name.
//
// Glyph names consist of ASCII letters, digits, periods and underscores.
// They must not start with a digit or a period, except for the special
// name ".notdef".
func IsValid(s string) bool {
	if s == ".notdef" {
		return true
	}
	if len(s) < 1 || len(s) > MaxLength {
		return false
	}
	if isDigit(s[0]) || s[0] == '.' {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(isLetter(c) || isDigit(c) || c == '.' || c == '_') {
			return false
		}
	}
	return true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isLetter(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z'
}
