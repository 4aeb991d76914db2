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

import "errors"

type eexecMode uint8

const (
	eexecOff eexecMode = iota
	eexecHex
	eexecBinary
)

const (
	eexecR  = 55665
	eexecC1 = 52845
	eexecC2 = 22719

	// eexecSkip is the number of random bytes at the start of the
	// encrypted section.
	eexecSkip = 4
)

// bEexec implements the "eexec" operator.  The rest of the current file
// is decrypted and executed, with systemdict on top of the dictionary
// stack, until "closefile" is called or the input ends.
func bEexec(intp *Interpreter) error {
	if len(intp.Stack) < 1 {
		return intp.e(eStackunderflow, "eexec: not enough arguments")
	}
	f, ok := intp.Stack[len(intp.Stack)-1].(File)
	if !ok {
		return intp.e(eTypecheck, "eexec: needs a file, not %T", intp.Stack[len(intp.Stack)-1])
	}
	if !f.Access.canRead() {
		return intp.e(eInvalidaccess, "eexec: file is not readable")
	}
	intp.Stack = intp.Stack[:len(intp.Stack)-1]

	err := f.s.startEexec()
	if err != nil {
		return err
	}

	k := len(intp.DictStack)
	intp.DictStack = append(intp.DictStack, intp.SystemDict)
	err = intp.run(f.s)
	f.s.stopEexec()
	if err != nil {
		return err
	}

	if len(intp.DictStack) > k {
		intp.DictStack = intp.DictStack[:k]
	}
	return nil
}

// bClosefile implements the "closefile" operator.
// Closing a file during eexec decryption switches back to plain text.
func bClosefile(intp *Interpreter) error {
	if len(intp.Stack) < 1 {
		return intp.e(eStackunderflow, "closefile: not enough arguments")
	}
	f, ok := intp.Stack[len(intp.Stack)-1].(File)
	if !ok {
		return intp.e(eTypecheck, "closefile: needs a file, not %T", intp.Stack[len(intp.Stack)-1])
	}
	intp.Stack = intp.Stack[:len(intp.Stack)-1]
	if f.s.eexec == eexecOff {
		f.s.closed = true
	}
	return errCloseFile
}

// startEexec switches on eexec decryption.  Hex or binary encoding is
// detected from the first four bytes of the encrypted section, and the
// four random bytes at the start of the plain text are discarded.
func (s *Scanner) startEexec() error {
	// Bytes which have been looked at so far were not decrypted.
	s.unreadRaw(s.peek...)
	s.peek = s.peek[:0]

	for {
		b, err := s.readByteRaw()
		if err != nil {
			return unexpectedEOF(err, "eexec: missing encrypted data")
		}
		if !isSpace(b) {
			s.unreadRaw(b)
			break
		}
	}

	var head []byte
	for len(head) < 4 {
		b, err := s.readByteRaw()
		if err != nil {
			break
		}
		head = append(head, b)
	}
	s.unreadRaw(head...)

	isHex := len(head) == 4
	for _, b := range head {
		if _, ok := hexValue(b); !ok {
			isHex = false
			break
		}
	}
	if isHex {
		s.eexec = eexecHex
	} else {
		s.eexec = eexecBinary
	}
	s.R = eexecR

	for i := 0; i < eexecSkip; i++ {
		_, err := s.readByte()
		if err != nil {
			s.eexec = eexecOff
			return unexpectedEOF(err, "eexec: missing encrypted data")
		}
	}
	return nil
}

// stopEexec switches off eexec decryption.  The remaining encrypted bytes
// are skipped, together with the trailing zeros which conventionally
// follow the encrypted section of a Type 1 font.
func (s *Scanner) stopEexec() {
	if s.eexec == eexecOff {
		return
	}
	s.eexec = eexecOff
	s.peek = s.peek[:0]

	zeros := 0
	for {
		b, err := s.readByteRaw()
		if err != nil {
			return
		}
		switch {
		case b == '0':
			zeros++
		case isSpace(b):
			// pass
		case zeros >= minEexecZeros:
			s.unreadRaw(b)
			return
		default:
			zeros = 0
		}
	}
}

const minEexecZeros = 8

func (s *Scanner) eexecDecode(cipher byte) byte {
	plain := cipher ^ byte(s.R>>8)
	s.R = (uint16(cipher)+s.R)*eexecC1 + eexecC2
	return plain
}

func (s *Scanner) readCipherByte() (byte, error) {
	if s.eexec == eexecBinary {
		return s.readByteRaw()
	}

	i := 0
	var out byte
	for i < 2 {
		b, err := s.readByteRaw()
		if err != nil {
			return 0, err
		}
		if isSpace(b) {
			continue
		}
		nibble, ok := hexValue(b)
		if !ok {
			return 0, lexError("eexec: invalid hex digit %q", b)
		}
		out = out<<4 | nibble
		i++
	}
	return out, nil
}

// Decrypt decrypts data which has been encrypted with the Type 1 font
// encryption algorithm, using the key r.  The first n bytes of the
// plain text are discarded.  Key 55665 is used for eexec sections,
// key 4330 for charstrings.
func Decrypt(data []byte, r uint16, n int) []byte {
	if n < 0 {
		return data
	}
	out := make([]byte, 0, len(data))
	for _, cipher := range data {
		out = append(out, cipher^byte(r>>8))
		r = (uint16(cipher)+r)*eexecC1 + eexecC2
	}
	if n > len(out) {
		return nil
	}
	return out[n:]
}

var errNotSeekable = errors.New("postscript: input is not seekable")
