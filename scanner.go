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
	"bytes"
	"errors"
	"io"
	"math"
	"regexp"
	"strconv"
)

// Scanner splits PostScript program text into tokens.
//
// A Scanner can switch to eexec decryption part way through the input,
// see [Interpreter.Execute].  In the file offsets reported by the scanner,
// CR LF counts as a single end of line marker.
type Scanner struct {
	Line int // 0-based
	Col  int // 0-based

	// DSC collects the document structuring comments found so far.
	DSC []Comment

	r         io.Reader
	buf       []byte
	pos, used int
	base      int64 // file offset of buf[0]
	crSeen    bool

	// pushback holds raw input bytes which have been returned to the input.
	pushback []byte
	// peek holds decoded bytes which have been looked at but not consumed.
	peek []byte

	eexec  eexecMode
	R      uint16
	closed bool

	// err is the first error returned by r.Read().
	// Once an error has been returned, all subsequent calls to .refill() will
	// return err.
	err error
}

// Comment is a document structuring comment, for example
// "%%BeginResource: CMap Identity-H".
type Comment struct {
	Key   string
	Value string
}

// NewScanner returns a new scanner which reads from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{
		r:   r,
		buf: make([]byte, 512),
	}
}

// Read implements the [io.Reader] interface.
// The bytes are decrypted, if eexec decryption is active.
func (s *Scanner) Read(p []byte) (int, error) {
	for n := range p {
		b, err := s.Next()
		if err != nil {
			return n, err
		}
		p[n] = b
	}
	return len(p), nil
}

// ScanToken reads the next token from the input.
// At the end of input, io.EOF is returned.
//
// Literal tokens are returned as the corresponding objects.  The
// delimiters "[", "]", "{", "}", "<<" and ">>" are returned as
// [Operator] values, as are all other executable names.
func (s *Scanner) ScanToken() (Object, error) {
	if s.closed {
		return nil, io.EOF
	}
	err := s.SkipWhiteSpace()
	if err != nil {
		return nil, err
	}
	b, err := s.Peek()
	if err != nil {
		return nil, err
	}
	switch b {
	case '(':
		return s.ReadString()
	case ')':
		s.SkipByte()
		return nil, lexError("unexpected ')'")
	case '<':
		bb := s.PeekN(2)
		switch string(bb) {
		case "<<": // dict
			s.SkipN(2)
			return Operator("<<"), nil
		case "<~": // base85-encoded string
			return s.ReadBase85String()
		default: // hex string
			return s.ReadHexString()
		}
	case '>':
		bb := s.PeekN(2)
		if string(bb) == ">>" {
			s.SkipN(2)
			return Operator(">>"), nil
		}
		s.SkipByte()
		return nil, lexError("unexpected '>'")
	case '[', ']', '{', '}':
		s.SkipByte()
		return Operator([]byte{b}), nil
	case '/':
		s.SkipByte()
		isImmediate := s.LookingAt("/")
		if isImmediate {
			s.SkipByte()
		}
		raw, err := s.readRegular()
		if err != nil {
			return nil, err
		}
		name := decodeName(raw)
		if isImmediate {
			return immediate(name), nil
		}
		return Name(name), nil
	default:
		raw, err := s.readRegular()
		if err != nil {
			return nil, err
		}
		if x, ok := parseNumber(raw); ok {
			return x, nil
		}
		return Operator(decodeName(raw)), nil
	}
}

// readRegular reads a run of regular characters, together with a single
// white space character which terminates the run.
func (s *Scanner) readRegular() ([]byte, error) {
	var res []byte
	for {
		b, err := s.Peek()
		if err == io.EOF {
			return res, nil
		} else if err != nil {
			return nil, err
		}
		if !isRegular(b) {
			break
		}
		s.SkipByte()
		res = append(res, b)
	}

	if b, err := s.Peek(); err == nil && isSpace(b) {
		s.SkipByte()
		if b == '\r' {
			s.SkipOptionalByte('\n')
		}
	}
	return res, nil
}

// ReadString reads a literal string enclosed in parentheses.
func (s *Scanner) ReadString() (String, error) {
	err := s.SkipRequiredByte('(')
	if err != nil {
		return String{}, err
	}
	var res []byte
	bracketLevel := 1
	ignoreLF := false
	for {
		b, err := s.Next()
		if err != nil {
			return String{}, unexpectedEOF(err, "unterminated string")
		}
		if ignoreLF && b == '\n' {
			ignoreLF = false
			continue
		}
		ignoreLF = false
		switch b {
		case '(':
			bracketLevel++
			res = append(res, b)
		case ')':
			bracketLevel--
			if bracketLevel == 0 {
				return String{Val: res}, nil
			}
			res = append(res, b)
		case '\\':
			b, err = s.Next()
			if err != nil {
				return String{}, unexpectedEOF(err, "unterminated string")
			}
			switch b {
			case 'n':
				res = append(res, '\n')
			case 'r':
				res = append(res, '\r')
			case 't':
				res = append(res, '\t')
			case 'b':
				res = append(res, '\b')
			case 'f':
				res = append(res, '\f')
			case '\n':
				// line continuation
			case '\r':
				ignoreLF = true
			case '0', '1', '2', '3', '4', '5', '6', '7':
				oct := b - '0'
				for i := 0; i < 2; i++ {
					b, err = s.Peek()
					if err == io.EOF {
						break
					} else if err != nil {
						return String{}, err
					}
					if b < '0' || b > '7' {
						break
					}
					s.SkipByte()
					oct = oct*8 + (b - '0')
				}
				res = append(res, oct)
			default: // includes '(', ')' and '\\'
				res = append(res, b)
			}
		case '\r': // CR or CR+LF
			res = append(res, '\n')
			ignoreLF = true
		default:
			res = append(res, b)
		}
	}
}

// ReadHexString reads a hex string enclosed in angle brackets.
// White space between the digits is ignored.
func (s *Scanner) ReadHexString() (String, error) {
	err := s.SkipRequiredByte('<')
	if err != nil {
		return String{}, err
	}

	var res []byte
	first := true
	var hi byte
readLoop:
	for {
		b, err := s.Next()
		if err != nil {
			return String{}, unexpectedEOF(err, "unterminated hex string")
		}
		var lo byte
		switch {
		case b == '>':
			break readLoop
		case isSpace(b):
			continue
		case b >= '0' && b <= '9':
			lo = b - '0'
		case b >= 'A' && b <= 'F':
			lo = b - 'A' + 10
		case b >= 'a' && b <= 'f':
			lo = b - 'a' + 10
		default:
			return String{}, lexError("invalid hex digit %q", b)
		}
		if first {
			hi = lo << 4
			first = false
		} else {
			res = append(res, hi|lo)
			first = true
		}
	}
	if !first {
		return String{}, lexError("odd number of digits in hex string")
	}

	return String{Val: res}, nil
}

// ReadBase85String reads an ASCII base-85 string enclosed in "<~" and "~>".
func (s *Scanner) ReadBase85String() (String, error) {
	for _, b := range []byte{'<', '~'} {
		err := s.SkipRequiredByte(b)
		if err != nil {
			return String{}, err
		}
	}

	var res []byte
	var pos int
	var val uint32
readLoop:
	for {
		b, err := s.Next()
		if err != nil {
			return String{}, unexpectedEOF(err, "unterminated base85 string")
		}
		switch {
		case b == '~':
			break readLoop
		case isSpace(b):
			continue
		case b == 'z' && pos == 0:
			res = append(res, 0, 0, 0, 0)
		case b >= '!' && b <= 'u':
			val = val*85 + uint32(b-'!')
			pos++
			if pos == 5 {
				res = append(res, byte(val>>24), byte(val>>16), byte(val>>8), byte(val))
				pos = 0
				val = 0
			}
		default:
			return String{}, lexError("invalid base85 digit %q", b)
		}
	}
	switch pos {
	case 0:
		// pass
	case 1:
		return String{}, lexError("unexpected end of base85 string")
	default:
		for i := pos; i < 5; i++ {
			val = val*85 + 84
		}
		tail := []byte{byte(val >> 24), byte(val >> 16), byte(val >> 8), byte(val)}
		res = append(res, tail[:pos-1]...)
	}

	err := s.SkipRequiredByte('>')
	if err != nil {
		return String{}, unexpectedEOF(err, "unterminated base85 string")
	}

	return String{Val: res}, nil
}

// SkipWhiteSpace skips all input (including comments) until a non-whitespace
// character is found.
func (s *Scanner) SkipWhiteSpace() error {
	for {
		b, err := s.Peek()
		if err != nil {
			return err
		}
		if isSpace(b) {
			s.SkipByte()
		} else if b == '%' {
			if s.Col == 0 && s.LookingAt("%%") {
				key, val, ok := s.readStructuredComment()
				if ok {
					s.DSC = append(s.DSC, Comment{key, val})
				}
			} else {
				err = s.SkipComment()
				if err != nil {
					return err
				}
			}
		} else {
			return nil
		}
	}
}

// readStructuredComment reads the next structured comment into a key-value
// pair.  The comment may end at the end of input.
func (s *Scanner) readStructuredComment() (key, value string, ok bool) {
	s.SkipN(2)

	key = s.readCommentKey()
	if key == "" {
		s.skipToEOL()
		return "", "", false
	}
	value = s.readCommentValue()
	return key, value, true
}

func (s *Scanner) readCommentKey() string {
	var buf bytes.Buffer
	for {
		b, err := s.Peek()
		if err != nil || isSpace(b) {
			break
		}
		s.SkipByte()
		if b == ':' {
			break
		}
		buf.WriteByte(b)
	}
	return buf.String()
}

// readCommentValue reads the value of a structured comment.
// Multi-line values (using `%%+`) are supported.
// The method consumes the first EOL after the value.
func (s *Scanner) readCommentValue() string {
	var buf bytes.Buffer

commentLineLoop:
	for {
		for {
			b, err := s.Peek()
			if err != nil || b == '\n' || b == '\r' || !isSpace(b) {
				break
			}
			s.SkipByte()
		}

		for {
			b, err := s.Next()
			if err != nil || b == '\n' {
				break
			} else if b == '\r' {
				s.SkipOptionalByte('\n')
				break
			}
			buf.WriteByte(b)
		}

		if s.LookingAt("%%+") {
			s.SkipN(3)
			buf.WriteByte(' ')
			continue commentLineLoop
		}

		break
	}

	return buf.String()
}

// SkipComment skips everything from a % to the end of the line (both
// inclusive).  A comment which is not terminated by an end of line marker
// is an error.
func (s *Scanner) SkipComment() error {
	err := s.SkipRequiredByte('%')
	if err != nil {
		return err
	}
	err = s.skipToEOL()
	if err != nil {
		return unexpectedEOF(err, "unterminated comment")
	}
	return nil
}

func (s *Scanner) skipToEOL() error {
	for {
		b, err := s.Next()
		if err != nil {
			return err
		} else if b == '\n' {
			return nil
		} else if b == '\r' { // CR or CR+LF
			s.SkipOptionalByte('\n')
			return nil
		}
	}
}

// LookingAt reports whether the input continues with the given bytes.
func (s *Scanner) LookingAt(pat string) bool {
	return string(s.PeekN(len(pat))) == pat
}

// SkipByte skips a single byte of input
func (s *Scanner) SkipByte() {
	s.Next()
}

// SkipRequiredByte consumes the next byte, which must equal expected.
func (s *Scanner) SkipRequiredByte(expected byte) error {
	seen, err := s.Next()
	if err != nil {
		return err
	}
	if seen != expected {
		return lexError("expected %q, got %q", expected, seen)
	}
	return nil
}

// SkipOptionalByte consumes the next byte, if it equals b.
func (s *Scanner) SkipOptionalByte(b byte) {
	next, err := s.Peek()
	if err == nil && next == b {
		s.Next()
	}
}

// SkipN skips N bytes which have already been peeked.
func (s *Scanner) SkipN(n int) {
	for i := 0; i < n; i++ {
		s.Next()
	}
}

// Peek returns the next byte of input without consuming it.
func (s *Scanner) Peek() (byte, error) {
	for len(s.peek) == 0 {
		b, err := s.readByte()
		if err != nil {
			return 0, err
		}
		s.peek = append(s.peek, b)
	}
	return s.peek[0], nil
}

// PeekN returns the next n bytes of input without consuming them.
// Fewer bytes are returned, if the input ends early.
func (s *Scanner) PeekN(n int) []byte {
	for len(s.peek) < n {
		b, err := s.readByte()
		if err != nil {
			return s.peek
		}
		s.peek = append(s.peek, b)
	}
	return s.peek[:n]
}

// Next consumes and returns the next byte of input.
func (s *Scanner) Next() (byte, error) {
	var b byte

	if len(s.peek) > 0 {
		b = s.peek[0]
		copy(s.peek, s.peek[1:])
		s.peek = s.peek[:len(s.peek)-1]
	} else {
		var err error
		b, err = s.readByte()
		if err != nil {
			return 0, err
		}
	}

	if s.crSeen && b == '\n' {
		// ignore LF after CR
	} else if b == '\n' || b == '\r' {
		s.Line++
		s.Col = 0
	} else {
		s.Col++
	}
	s.crSeen = (b == '\r')

	return b, nil
}

// Offset returns the position of the next unread byte in the input.
// While eexec decryption is active, the value is approximate.
func (s *Scanner) Offset() int64 {
	pending := len(s.peek)
	if s.eexec == eexecHex {
		pending *= 2
	}
	return s.base + int64(s.pos) - int64(len(s.pushback)) - int64(pending)
}

// Seek moves the scanner to the given absolute offset in the input.
// This is only possible if the underlying reader implements [io.Seeker].
// Decryption is switched off.  Line and column numbers are not updated.
func (s *Scanner) Seek(offset int64) error {
	seeker, ok := s.r.(io.Seeker)
	if !ok {
		return errNotSeekable
	}
	_, err := seeker.Seek(offset, io.SeekStart)
	if err != nil {
		return err
	}
	s.pos = 0
	s.used = 0
	s.base = offset
	s.pushback = s.pushback[:0]
	s.peek = s.peek[:0]
	s.crSeen = false
	s.eexec = eexecOff
	s.closed = false
	s.err = nil
	return nil
}

func (s *Scanner) readByte() (byte, error) {
	if s.eexec == eexecOff {
		return s.readByteRaw()
	}

	b, err := s.readCipherByte()
	if err != nil {
		return 0, err
	}
	return s.eexecDecode(b), nil
}

func (s *Scanner) readByteRaw() (byte, error) {
	if len(s.pushback) > 0 {
		b := s.pushback[0]
		s.pushback = s.pushback[1:]
		return b, nil
	}

	for s.pos >= s.used {
		err := s.refill()
		if err != nil {
			return 0, err
		}
	}

	b := s.buf[s.pos]
	s.pos++

	return b, nil
}

func (s *Scanner) unreadRaw(b ...byte) {
	s.pushback = append(append([]byte{}, b...), s.pushback...)
}

func (s *Scanner) refill() error {
	if s.err != nil {
		return s.err
	}
	s.used = copy(s.buf, s.buf[s.pos:s.used])
	s.base += int64(s.pos)
	s.pos = 0

	n, err := s.r.Read(s.buf[s.used:])
	s.used += n
	if err != nil {
		s.err = err
	}
	if n > 0 {
		err = nil
	}
	return err
}

func unexpectedEOF(err error, what string) error {
	if err == io.EOF {
		return lexError("%s", what).withCause(io.ErrUnexpectedEOF)
	}
	return err
}

func isSpace(b byte) bool {
	switch b {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	default:
		return false
	}
}

func isRegular(b byte) bool {
	if isSpace(b) {
		return false
	}
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return false
	default:
		return true
	}
}

// decodeName replaces "#hh" escapes in a name by the corresponding bytes.
// Malformed escapes are kept unchanged.
func decodeName(raw []byte) string {
	if bytes.IndexByte(raw, '#') < 0 {
		return string(raw)
	}
	res := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] == '#' && i+2 < len(raw) {
			hi, ok1 := hexValue(raw[i+1])
			lo, ok2 := hexValue(raw[i+2])
			if ok1 && ok2 {
				res = append(res, hi<<4|lo)
				i += 2
				continue
			}
		}
		res = append(res, raw[i])
	}
	return string(res)
}

func hexValue(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	default:
		return 0, false
	}
}

// parseNumber interprets a run of regular characters as a number.
// Exponents are not recognised, so "1e6" is not a number.
func parseNumber(s []byte) (Object, bool) {
	if decimalRe.Match(s) {
		if bytes.IndexByte(s, '.') < 0 {
			x, err := strconv.ParseInt(string(s), 10, 0)
			if err == nil {
				return Integer(x), true
			}
		}
		y, err := strconv.ParseFloat(string(s), 64)
		if err == nil || errors.Is(err, strconv.ErrRange) {
			if !math.IsInf(y, 0) && !math.IsNaN(y) {
				return Real(y), true
			}
		}
		return nil, false
	}

	mm := radixNumberRe.FindSubmatch(s)
	if mm != nil {
		base, err := strconv.ParseInt(string(mm[1]), 10, 0)
		if err == nil && base >= 2 && base <= 36 {
			z, err := strconv.ParseUint(string(mm[2]), int(base), 32)
			if err == nil {
				return Integer(z), true
			}
		}
	}

	return nil, false
}

var (
	decimalRe     = regexp.MustCompile(`^[+-]?(?:[0-9]+\.?[0-9]*|\.[0-9]+)$`)
	radixNumberRe = regexp.MustCompile(`^([0-9]{1,2})#([0-9a-zA-Z]+)$`)
)
