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
	"io"
	"strings"
)

// Interpreter executes PostScript programs.
//
// An Interpreter is not safe for concurrent use.  Programs are trusted:
// there is no limit on the execution time of a program.
type Interpreter struct {
	Stack     []Object
	DictStack []*Dict

	SystemDict    *Dict
	GlobalDict    *Dict // nil at language level 1
	UserDict      *Dict
	FontDirectory *Dict
	InternalDict  *Dict

	// DSC collects the document structuring comments of all executed
	// programs.
	DSC []Comment

	// Loader, if set, is used to locate resources which have not been
	// defined by the program itself, for example the base CMap in
	// "usecmap".
	Loader ResourceLoader

	table     *OperatorTable
	level     LanguageLevel
	resources map[Name]*Dict
	global    bool

	files   []*Scanner
	cmap    *cmapBuilder
	nesting int
}

// NewInterpreter returns a new interpreter at language level 3, using the
// default operator table.
func NewInterpreter() *Interpreter {
	return NewInterpreterWith(defaultOperators(), LanguageLevel3)
}

// NewInterpreterWith returns a new interpreter which uses the given
// operator table and starts at the given language level.
// It panics if level is not one of the supported language levels.
func NewInterpreterWith(table *OperatorTable, level LanguageLevel) *Interpreter {
	intp := &Interpreter{
		table:     table,
		level:     LanguageLevel1,
		resources: make(map[Name]*Dict),
	}

	systemDict := NewDict(len(table.levels[0]) + 8)
	for key, val := range table.levels[0] {
		systemDict.Val[key] = val
	}
	intp.SystemDict = systemDict
	intp.UserDict = NewDict(200)
	intp.FontDirectory = NewDict(10)
	intp.InternalDict = NewDict(10)
	systemDict.Val["systemdict"] = systemDict
	systemDict.Val["userdict"] = intp.UserDict
	systemDict.Val["FontDirectory"] = intp.FontDirectory
	systemDict.Access = ReadOnly

	intp.DictStack = []*Dict{systemDict, intp.UserDict}

	if err := intp.SetLanguageLevel(level); err != nil {
		panic(err)
	}
	return intp
}

// Reset restores the initial state of the interpreter: the operand stack
// is cleared, and the user dictionary, the global dictionary and the
// resource directories are emptied.  The system dictionary and the
// language level are kept.
func (intp *Interpreter) Reset() {
	clear(intp.Stack)
	intp.Stack = intp.Stack[:0]

	resetDict(intp.UserDict)
	resetDict(intp.FontDirectory)
	resetDict(intp.InternalDict)
	intp.DictStack = append(intp.DictStack[:0], intp.SystemDict)
	if intp.GlobalDict != nil {
		resetDict(intp.GlobalDict)
		intp.DictStack = append(intp.DictStack, intp.GlobalDict)
	}
	intp.DictStack = append(intp.DictStack, intp.UserDict)

	for category, dir := range intp.resources {
		if dir == intp.FontDirectory {
			continue
		}
		resetDict(dir)
		intp.initCategory(category, dir)
	}

	intp.DSC = nil
	intp.files = intp.files[:0]
	intp.cmap = nil
	intp.global = false
}

func resetDict(d *Dict) {
	clear(d.Val)
	d.Access = Unlimited
}

// ExecuteString executes the PostScript code in the given string.
func (intp *Interpreter) ExecuteString(code string) error {
	return intp.Execute(strings.NewReader(code))
}

// Execute reads and executes a PostScript program.
//
// A program which ends inside a "begincmap" … "endcmap" section is
// reported as a parse error.
func (intp *Interpreter) Execute(r io.Reader) error {
	s := NewScanner(r)
	err := intp.Run(s)
	intp.DSC = append(intp.DSC, s.DSC...)
	if err == nil && intp.cmap != nil {
		err = intp.cmap.unterminated()
		intp.cmap = nil
	}
	return err
}

// Run executes the tokens read from s until the input is exhausted or
// the file is closed.
func (intp *Interpreter) Run(s *Scanner) error {
	return intp.run(s)
}

func (intp *Interpreter) run(s *Scanner) error {
	intp.files = append(intp.files, s)
	defer func() {
		intp.files = intp.files[:len(intp.files)-1]
	}()

	for {
		o, err := s.ScanToken()
		if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}

		switch o := o.(type) {
		case Operator:
			switch o {
			case "{":
				proc, err := intp.scanProc(s)
				if err != nil {
					return err
				}
				intp.Stack = append(intp.Stack, proc)
				continue
			case "}":
				return parseError("unexpected '}'")
			}
			err = intp.Exec(o)
		case immediate:
			// The value takes the place of the name.  Procedures are
			// pushed, like procedures in the program text.
			var val Object
			val, err = intp.loadImmediate(o)
			if err == nil {
				switch val.(type) {
				case *builtinOp, Operator:
					err = intp.Exec(val)
				default:
					intp.Stack = append(intp.Stack, val)
				}
			}
		default:
			intp.Stack = append(intp.Stack, o)
		}

		if errors.Is(err, errCloseFile) {
			return nil
		} else if err == errExit {
			return intp.e(eInvalidexit, "exit: not inside a loop")
		} else if err != nil {
			return err
		}
	}
}

// scanProc reads the body of a procedure, after the opening brace has
// been read.  Procedures are not executed when they are read.
func (intp *Interpreter) scanProc(s *Scanner) (Procedure, error) {
	body := []Object{}
	for {
		o, err := s.ScanToken()
		if err == io.EOF {
			return Procedure{}, parseError("unterminated procedure").withCause(io.ErrUnexpectedEOF)
		} else if err != nil {
			return Procedure{}, err
		}

		switch o := o.(type) {
		case Operator:
			switch o {
			case "{":
				inner, err := intp.scanProc(s)
				if err != nil {
					return Procedure{}, err
				}
				body = append(body, inner)
				continue
			case "}":
				return Procedure{Val: body}, nil
			}
			body = append(body, o)
		case immediate:
			val, err := intp.loadImmediate(o)
			if err != nil {
				return Procedure{}, err
			}
			body = append(body, val)
		default:
			body = append(body, o)
		}
	}
}

func (intp *Interpreter) loadImmediate(name immediate) (Object, error) {
	val, ok := intp.lookup(Name(name))
	if !ok {
		return nil, intp.e(eUndefined, "//%s: undefined", name)
	}
	return val, nil
}

// Exec executes a single object.
//
// Executable names are looked up on the dictionary stack and the value
// found there is executed.  Procedures are run element by element;
// procedures nested inside a running procedure are pushed onto the
// operand stack instead of being run.  All other objects are pushed
// onto the operand stack.
func (intp *Interpreter) Exec(o Object) error {
	switch o := o.(type) {
	case Operator:
		val, ok := intp.lookup(Name(o))
		if !ok {
			return intp.e(eUndefined, "%s: undefined", string(o))
		}
		if IsExecutable(val) {
			return intp.Exec(val)
		}
		if AccessOf(val) == NoAccess {
			return intp.e(eInvalidaccess, "%s: no access", string(o))
		}
		intp.Stack = append(intp.Stack, val)
		return nil

	case *builtinOp:
		return o.fn(intp)

	case Procedure:
		if !o.Access.canExecute() {
			return intp.e(eInvalidaccess, "procedure is not executable")
		}
		for _, elem := range o.Val {
			switch elem := elem.(type) {
			case Operator:
				if err := intp.Exec(elem); err != nil {
					return err
				}
			case *builtinOp:
				if err := elem.fn(intp); err != nil {
					return err
				}
			default:
				intp.Stack = append(intp.Stack, elem)
			}
		}
		return nil

	case File:
		if !o.Access.canExecute() {
			return intp.e(eInvalidaccess, "file is not executable")
		}
		return intp.run(o.s)

	default:
		intp.Stack = append(intp.Stack, o)
		return nil
	}
}

// lookup finds the value of a name on the dictionary stack.
func (intp *Interpreter) lookup(name Name) (Object, bool) {
	for j := len(intp.DictStack) - 1; j >= 0; j-- {
		if val, ok := intp.DictStack[j].Val[name]; ok {
			return val, true
		}
	}
	return nil, false
}

// Resolve returns a copy of p in which every executable name that is
// currently bound to a built-in operator is replaced by the operator
// itself.  Nested procedures are resolved recursively.  The result is
// execute-only.
//
// The resolved procedure no longer reacts to later redefinitions of the
// operator names.
func (intp *Interpreter) Resolve(p Procedure) Procedure {
	body := make([]Object, len(p.Val))
	for i, o := range p.Val {
		switch o := o.(type) {
		case Operator:
			body[i] = o
			if val, ok := intp.lookup(Name(o)); ok {
				if b, ok := val.(*builtinOp); ok {
					body[i] = b
				}
			}
		case Procedure:
			body[i] = intp.Resolve(o)
		default:
			body[i] = o
		}
	}
	return Procedure{Val: body, Access: ExecuteOnly}
}

// bindProc implements the "bind" operator.  Procedures which are not
// writable are left unchanged.
func (intp *Interpreter) bindProc(proc Procedure, seen map[*Object]bool) {
	if !proc.Access.canWrite() || len(proc.Val) == 0 || seen[&proc.Val[0]] {
		return
	}
	seen[&proc.Val[0]] = true
	for i, elem := range proc.Val {
		switch obj := elem.(type) {
		case Operator:
			if val, ok := intp.lookup(Name(obj)); ok {
				if b, ok := val.(*builtinOp); ok {
					proc.Val[i] = b
				}
			}
		case Procedure:
			intp.bindProc(obj, seen)
		}
	}
}

// StackString formats the operand stack for diagnostic output.
func (intp *Interpreter) StackString() string {
	var ss []string
	for _, o := range intp.Stack {
		ss = append(ss, objectString(o, 1))
	}
	return strings.Join(ss, " ")
}

func (intp *Interpreter) currentFile() (*Scanner, bool) {
	if len(intp.files) == 0 {
		return nil, false
	}
	return intp.files[len(intp.files)-1], true
}

// minDictStack returns the number of permanent entries at the bottom of
// the dictionary stack.
func (intp *Interpreter) minDictStack() int {
	if intp.GlobalDict != nil {
		return 3
	}
	return 2
}

const (
	maxArraySize      = 65536
	maxStringSize     = 65535
	maxDictSize       = 65535
	maxDictStackDepth = 20
	maxNesting        = 8
)
