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
	"fmt"
	"io"
)

// ResourceLoader gives access to resources which are not defined by the
// running program itself.
//
// OpenResource returns a PostScript program which defines the named
// resource in the given category.  If the resource does not exist, the
// returned error must satisfy errors.Is(err, ErrResourceNotFound).
type ResourceLoader interface {
	OpenResource(category, name Name) (io.ReadCloser, error)
}

// resourceDir returns the dictionary which holds the instances of a
// resource category.
func (intp *Interpreter) resourceDir(category Name) (*Dict, bool) {
	if category == "Font" {
		return intp.FontDirectory, true
	}
	dir, ok := intp.resources[category]
	return dir, ok
}

// FindResource returns the named resource instance.  If the resource has
// not been defined, it is loaded using the interpreter's ResourceLoader.
func (intp *Interpreter) FindResource(category, key Name) (Object, error) {
	dir, ok := intp.resourceDir(category)
	if !ok {
		return nil, intp.e(eUndefined, "findresource: unknown category %s", category)
	}
	if val, ok := dir.Val[key]; ok {
		return val, nil
	}
	return intp.loadResource(category, key, dir)
}

// loadResource runs the program for a resource in a nested interpreter
// and copies the resulting instance into dir.  The nested interpreter
// shares only the operator table and the resource loader with intp.
func (intp *Interpreter) loadResource(category, key Name, dir *Dict) (Object, error) {
	if intp.Loader == nil {
		return nil, intp.e(eUndefinedresource, "%s resource %s not found", category, key)
	}
	if intp.nesting >= maxNesting {
		return nil, intp.e(eLimitcheck, "%s resource %s: too many nested resources", category, key)
	}

	r, err := intp.Loader.OpenResource(category, key)
	if errors.Is(err, ErrResourceNotFound) {
		return nil, newError(eUndefinedresource, nil, "%s resource %s not found", category, key).withCause(err)
	} else if err != nil {
		return nil, newError(eIoerror, nil, "%s resource %s: %v", category, key, err).withCause(err)
	}
	defer r.Close()

	child := NewInterpreterWith(intp.table, intp.level)
	child.Loader = intp.Loader
	child.nesting = intp.nesting + 1
	err = child.Execute(r)
	if err != nil {
		return nil, fmt.Errorf("%s resource %s: %w", category, key, err)
	}

	childDir, ok := child.resourceDir(category)
	if !ok {
		return nil, intp.e(eUndefinedresource, "%s resource %s not found", category, key)
	}
	val, ok := childDir.Val[key]
	if !ok {
		return nil, intp.e(eUndefinedresource, "%s resource %s not defined by its program", category, key)
	}
	dir.Val[key] = val
	return val, nil
}

// resourceArgs reads the "key category" arguments of the resource
// operators from the top of the stack.
func (intp *Interpreter) resourceArgs(op string) (key, category Name, err error) {
	if len(intp.Stack) < 2 {
		return "", "", intp.e(eStackunderflow, "%s: not enough arguments", op)
	}
	key, ok := toKey(intp.Stack[len(intp.Stack)-2])
	if !ok {
		return "", "", intp.e(eTypecheck, "%s: needs a name or string, not %T", op, intp.Stack[len(intp.Stack)-2])
	}
	category, ok = intp.Stack[len(intp.Stack)-1].(Name)
	if !ok {
		return "", "", intp.e(eTypecheck, "%s: needs a category name, not %T", op, intp.Stack[len(intp.Stack)-1])
	}
	return key, category, nil
}

func bFindresource(intp *Interpreter) error {
	key, category, err := intp.resourceArgs("findresource")
	if err != nil {
		return err
	}
	val, err := intp.FindResource(category, key)
	if err != nil {
		return err
	}
	intp.Stack = append(intp.Stack[:len(intp.Stack)-2], val)
	return nil
}

func bDefineresource(intp *Interpreter) error {
	if len(intp.Stack) < 3 {
		return intp.e(eStackunderflow, "defineresource: not enough arguments")
	}
	key, ok := toKey(intp.Stack[len(intp.Stack)-3])
	if !ok {
		return intp.e(eTypecheck, "defineresource: needs a name or string, not %T", intp.Stack[len(intp.Stack)-3])
	}
	instance := intp.Stack[len(intp.Stack)-2]
	category, ok := intp.Stack[len(intp.Stack)-1].(Name)
	if !ok {
		return intp.e(eTypecheck, "defineresource: needs a category name, not %T", intp.Stack[len(intp.Stack)-1])
	}
	dir, ok := intp.resourceDir(category)
	if !ok {
		return intp.e(eUndefined, "defineresource: unknown category %s", category)
	}

	switch category {
	case "CMap":
		if d, ok := instance.(*Dict); !ok {
			return intp.e(eTypecheck, "defineresource: needs a dictionary, not %T", instance)
		} else if _, ok := d.Val["CodeMap"].(*CMapInfo); !ok {
			return intp.e(eTypecheck, "defineresource: %s is not a CMap", key)
		}
	case "Font", "ProcSet":
		if _, ok := instance.(*Dict); !ok {
			return intp.e(eTypecheck, "defineresource: needs a dictionary, not %T", instance)
		}
	case "Encoding":
		if _, ok := instance.(Array); !ok {
			return intp.e(eTypecheck, "defineresource: needs an array, not %T", instance)
		}
	}

	dir.Val[key] = instance
	intp.Stack = append(intp.Stack[:len(intp.Stack)-3], instance)
	return nil
}

func bUndefineresource(intp *Interpreter) error {
	key, category, err := intp.resourceArgs("undefineresource")
	if err != nil {
		return err
	}
	dir, ok := intp.resourceDir(category)
	if !ok {
		return intp.e(eUndefined, "undefineresource: unknown category %s", category)
	}
	delete(dir.Val, key)
	intp.Stack = intp.Stack[:len(intp.Stack)-2]
	return nil
}

// bResourcestatus implements the "resourcestatus" operator.  Defined
// resources have status 0, resources available through the loader have
// status 2.  The size is always reported as unknown.
func bResourcestatus(intp *Interpreter) error {
	key, category, err := intp.resourceArgs("resourcestatus")
	if err != nil {
		return err
	}
	dir, ok := intp.resourceDir(category)
	if !ok {
		return intp.e(eUndefined, "resourcestatus: unknown category %s", category)
	}
	intp.Stack = intp.Stack[:len(intp.Stack)-2]

	if _, ok := dir.Val[key]; ok {
		intp.Stack = append(intp.Stack, Integer(0), Integer(-1), Boolean(true))
		return nil
	}
	if intp.Loader != nil {
		r, err := intp.Loader.OpenResource(category, key)
		if err == nil {
			r.Close()
			intp.Stack = append(intp.Stack, Integer(2), Integer(-1), Boolean(true))
			return nil
		}
	}
	intp.Stack = append(intp.Stack, Boolean(false))
	return nil
}

func bDefinefont(intp *Interpreter) error {
	if len(intp.Stack) < 2 {
		return intp.e(eStackunderflow, "definefont: not enough arguments")
	}
	key, ok := toKey(intp.Stack[len(intp.Stack)-2])
	if !ok {
		return intp.e(eTypecheck, "definefont: needs a name, not %T", intp.Stack[len(intp.Stack)-2])
	}
	font, ok := intp.Stack[len(intp.Stack)-1].(*Dict)
	if !ok {
		return intp.e(eTypecheck, "definefont: needs a font dictionary, not %T", intp.Stack[len(intp.Stack)-1])
	}
	if !intp.FontDirectory.Access.canWrite() {
		return intp.e(eInvalidaccess, "definefont: font directory is not writable")
	}
	intp.FontDirectory.Val[key] = font
	intp.Stack = append(intp.Stack[:len(intp.Stack)-2], font)
	return nil
}

func bFindfont(intp *Interpreter) error {
	if len(intp.Stack) < 1 {
		return intp.e(eStackunderflow, "findfont: not enough arguments")
	}
	key, ok := toKey(intp.Stack[len(intp.Stack)-1])
	if !ok {
		return intp.e(eTypecheck, "findfont: needs a name, not %T", intp.Stack[len(intp.Stack)-1])
	}
	font, ok := intp.FontDirectory.Val[key]
	if !ok {
		var err error
		font, err = intp.loadResource("Font", key, intp.FontDirectory)
		if err != nil {
			return newError(eInvalidfont, nil, "findfont: font %s not found", key).withCause(err)
		}
	}
	intp.Stack[len(intp.Stack)-1] = font
	return nil
}
