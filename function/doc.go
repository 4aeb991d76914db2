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

// Package function evaluates PostScript calculator functions.
//
// Calculator functions are the "Type 4" functions of PDF.  They map m
// input values to n output values, using a small program written in a
// subset of the PostScript language.  The program is parsed and its
// operator names are resolved once, when the function is created.  Each
// evaluation then runs the resolved procedure on a freshly reset
// interpreter.
package function
