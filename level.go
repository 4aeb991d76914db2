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
	"fmt"
	"slices"
	"sync"

	"golang.org/x/exp/maps"

	"seehuhn.de/go/postscript/v2/psenc"
)

// LanguageLevel is a PostScript language level.
type LanguageLevel int

// These are the supported language levels.
const (
	LanguageLevel1 LanguageLevel = 1
	LanguageLevel2 LanguageLevel = 2
	LanguageLevel3 LanguageLevel = 3
)

func (l LanguageLevel) String() string {
	return fmt.Sprintf("LanguageLevel %d", int(l))
}

// OperatorTable holds the built-in operators, grouped by the language
// level in which they are introduced.  An OperatorTable is never modified
// after creation and can be shared between interpreters.
type OperatorTable struct {
	levels  [3]map[Name]Object
	cidInit map[Name]Object
}

// NewOperatorTable returns a table with all built-in operators.
func NewOperatorTable() *OperatorTable {
	standardEncoding := make([]Object, 256)
	for i, name := range psenc.StandardEncoding {
		standardEncoding[i] = Name(name)
	}

	level1 := map[Name]Object{
		"[":                builtin(bMark),
		"]":                builtin(bArrayEnd),
		"abs":              builtin(bAbs),
		"add":              builtin(bAdd),
		"aload":            builtin(bAload),
		"and":              builtin(bAnd),
		"array":            builtin(bArray),
		"astore":           builtin(bAstore),
		"atan":             builtin(bAtan),
		"begin":            builtin(bBegin),
		"bind":             builtin(bBind),
		"bitshift":         builtin(bBitshift),
		"ceiling":          builtin(bCeiling),
		"clear":            builtin(bClear),
		"cleartomark":      builtin(bCleartomark),
		"closefile":        builtin(bClosefile),
		"copy":             builtin(bCopy),
		"cos":              builtin(bCos),
		"count":            builtin(bCount),
		"countdictstack":   builtin(bCountdictstack),
		"counttomark":      builtin(bCounttomark),
		"currentdict":      builtin(bCurrentdict),
		"currentfile":      builtin(bCurrentfile),
		"cvi":              builtin(bCvi),
		"cvlit":            builtin(bCvlit),
		"cvr":              builtin(bCvr),
		"cvx":              builtin(bCvx),
		"def":              builtin(bDef),
		"definefont":       builtin(bDefinefont),
		"dict":             builtin(bDict),
		"div":              builtin(bDiv),
		"dup":              builtin(bDup),
		"eexec":            builtin(bEexec),
		"end":              builtin(bEnd),
		"eq":               builtin(bEq),
		"exch":             builtin(bExch),
		"exec":             builtin(bExec),
		"executeonly":      builtin(bExecuteonly),
		"exit":             builtin(bExit),
		"exp":              builtin(bExp),
		"false":            Boolean(false),
		"findfont":         builtin(bFindfont),
		"floor":            builtin(bFloor),
		"for":              builtin(bFor),
		"forall":           builtin(bForall),
		"ge":               builtin(bGe),
		"get":              builtin(bGet),
		"getinterval":      builtin(bGetinterval),
		"gt":               builtin(bGt),
		"idiv":             builtin(bIdiv),
		"if":               builtin(bIf),
		"ifelse":           builtin(bIfelse),
		"index":            builtin(bIndex),
		"internaldict":     builtin(bInternaldict),
		"known":            builtin(bKnown),
		"le":               builtin(bLe),
		"length":           builtin(bLength),
		"ln":               builtin(bLn),
		"load":             builtin(bLoad),
		"log":              builtin(bLog),
		"loop":             builtin(bLoop),
		"lt":               builtin(bLt),
		"mark":             builtin(bMark),
		"matrix":           builtin(bMatrix),
		"maxlength":        builtin(bMaxlength),
		"mod":              builtin(bMod),
		"mul":              builtin(bMul),
		"ne":               builtin(bNe),
		"neg":              builtin(bNeg),
		"noaccess":         builtin(bNoaccess),
		"not":              builtin(bNot),
		"null":             nil,
		"or":               builtin(bOr),
		"pop":              builtin(bPop),
		"put":              builtin(bPut),
		"putinterval":      builtin(bPutinterval),
		"rcheck":           builtin(bRcheck),
		"readonly":         builtin(bReadonly),
		"readstring":       builtin(bReadstring),
		"repeat":           builtin(bRepeat),
		"restore":          builtin(bRestore),
		"roll":             builtin(bRoll),
		"round":            builtin(bRound),
		"save":             builtin(bSave),
		"sin":              builtin(bSin),
		"sqrt":             builtin(bSqrt),
		"StandardEncoding": Array{Val: standardEncoding, Access: ReadOnly},
		"string":           builtin(bString),
		"sub":              builtin(bSub),
		"true":             Boolean(true),
		"truncate":         builtin(bTruncate),
		"type":             builtin(bType),
		"wcheck":           builtin(bWcheck),
		"where":            builtin(bWhere),
		"xcheck":           builtin(bXcheck),
		"xor":              builtin(bXor),
	}

	level2 := map[Name]Object{
		"<<":             builtin(bMark),
		">>":             builtin(bDictEnd),
		"cleardictstack": builtin(bCleardictstack),
		"currentglobal":  builtin(bCurrentglobal),
		"defineresource": builtin(bDefineresource),
		"findresource":   builtin(bFindresource),
		"languagelevel":  builtin(bLanguagelevel),
		"resourcestatus": builtin(bResourcestatus),
		"setglobal":      builtin(bSetglobal),
	}

	level3 := map[Name]Object{
		"undefineresource": builtin(bUndefineresource),
	}

	t := &OperatorTable{
		levels:  [3]map[Name]Object{level1, level2, level3},
		cidInit: cidInitOperators(),
	}
	for _, m := range append(t.levels[:], t.cidInit) {
		nameOperators(m)
	}
	return t
}

// nameOperators replaces the functions in m by named operator objects.
func nameOperators(m map[Name]Object) {
	for key, val := range m {
		if fn, ok := val.(builtin); ok {
			m[key] = &builtinOp{name: key, fn: fn}
		}
	}
}

// Operators returns the names of the systemdict entries which are
// introduced at the given language level, in sorted order.
func (t *OperatorTable) Operators(level LanguageLevel) []Name {
	if level < LanguageLevel1 || level > LanguageLevel3 {
		return nil
	}
	return sortedKeys(t.levels[level-1])
}

var defaultOperators = sync.OnceValue(NewOperatorTable)

// LanguageLevel returns the current language level of the interpreter.
func (intp *Interpreter) LanguageLevel() LanguageLevel {
	return intp.level
}

// SetLanguageLevel changes the language level of the interpreter.
//
// Operators, dictionaries and resource categories introduced at the
// higher levels are added or removed, one level at a time.  Lowering the
// level and raising it again restores the original set of operators and
// resource categories.
func (intp *Interpreter) SetLanguageLevel(level LanguageLevel) error {
	if level < LanguageLevel1 || level > LanguageLevel3 {
		return fmt.Errorf("postscript: invalid language level %d", int(level))
	}
	for intp.level < level {
		intp.raiseLevel()
	}
	for intp.level > level {
		intp.lowerLevel()
	}
	return nil
}

func (intp *Interpreter) raiseLevel() {
	next := intp.level + 1
	sys := intp.SystemDict
	maps.Copy(sys.Val, intp.table.levels[next-1])

	switch next {
	case LanguageLevel2:
		intp.GlobalDict = NewDict(20)
		sys.Val["globaldict"] = intp.GlobalDict
		intp.DictStack = slices.Insert(intp.DictStack, 1, intp.GlobalDict)
		intp.resources["Font"] = intp.FontDirectory
		intp.addCategory("Encoding")
	case LanguageLevel3:
		intp.addCategory("CMap")
		intp.addCategory("ProcSet")
	}
	intp.level = next
}

func (intp *Interpreter) lowerLevel() {
	cur := intp.level
	sys := intp.SystemDict
	for key := range intp.table.levels[cur-1] {
		delete(sys.Val, key)
	}

	switch cur {
	case LanguageLevel2:
		delete(sys.Val, "globaldict")
		intp.DictStack = slices.DeleteFunc(intp.DictStack, func(d *Dict) bool {
			return d == intp.GlobalDict
		})
		intp.GlobalDict = nil
		intp.global = false
		delete(intp.resources, "Font")
		delete(intp.resources, "Encoding")
	case LanguageLevel3:
		delete(intp.resources, "CMap")
		delete(intp.resources, "ProcSet")
	}
	intp.level = cur - 1
}

func (intp *Interpreter) addCategory(category Name) {
	dir := NewDict(10)
	intp.initCategory(category, dir)
	intp.resources[category] = dir
}

// initCategory fills a resource category with the resources which are
// always present.
func (intp *Interpreter) initCategory(category Name, dir *Dict) {
	switch category {
	case "Encoding":
		dir.Val["StandardEncoding"] = intp.SystemDict.Val["StandardEncoding"]
	case "ProcSet":
		cidInit := NewDict(len(intp.table.cidInit))
		maps.Copy(cidInit.Val, intp.table.cidInit)
		cidInit.Access = ReadOnly
		dir.Val["CIDInit"] = cidInit
	}
}

// Categories returns the names of the resource categories which are
// available at the current language level, in sorted order.
func (intp *Interpreter) Categories() []Name {
	return sortedKeys(intp.resources)
}

func sortedKeys[V any](m map[Name]V) []Name {
	names := make([]Name, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func bLanguagelevel(intp *Interpreter) error {
	intp.Stack = append(intp.Stack, Integer(intp.level))
	return nil
}

func bCurrentglobal(intp *Interpreter) error {
	intp.Stack = append(intp.Stack, Boolean(intp.global))
	return nil
}

// bSetglobal records the allocation mode.  All objects live in the same
// memory, so the mode has no other effect.
func bSetglobal(intp *Interpreter) error {
	if len(intp.Stack) < 1 {
		return intp.e(eStackunderflow, "setglobal: not enough arguments")
	}
	b, ok := intp.Stack[len(intp.Stack)-1].(Boolean)
	if !ok {
		return intp.e(eTypecheck, "setglobal: needs a boolean, not %T", intp.Stack[len(intp.Stack)-1])
	}
	intp.Stack = intp.Stack[:len(intp.Stack)-1]
	intp.global = bool(b)
	return nil
}
