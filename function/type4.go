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

package function

import (
	"fmt"
	"math"
	"strings"

	"seehuhn.de/go/postscript/v2"
)

// Type4 represents a PostScript calculator function.
//
// A Type4 value holds its own interpreter and must not be used
// concurrently from more than one goroutine.
type Type4 struct {
	// Domain gives the valid input ranges as [min0, max0, min1, max1, ...].
	Domain []float64

	// Range gives the valid output ranges as [min0, max0, min1, max1, ...].
	Range []float64

	// Program is the PostScript code of the function, as passed to
	// NewType4.
	Program string

	intp *postscript.Interpreter
	proc postscript.Procedure
}

// NewType4 parses a calculator function.  The program may be given with
// or without the enclosing braces.
func NewType4(domain, rng []float64, program string) (*Type4, error) {
	if err := checkIntervals("Domain", domain); err != nil {
		return nil, err
	}
	if err := checkIntervals("Range", rng); err != nil {
		return nil, err
	}

	intp := postscript.NewInterpreter()
	// Calculator functions only use level 1 operators.  At level 1 the
	// interpreter has no resource directories, which makes Reset cheap.
	if err := intp.SetLanguageLevel(postscript.LanguageLevel1); err != nil {
		return nil, err
	}

	proc, err := parseProgram(intp, program)
	if err != nil {
		return nil, err
	}

	f := &Type4{
		Domain:  domain,
		Range:   rng,
		Program: program,
		intp:    intp,
		proc:    intp.Resolve(proc),
	}
	return f, nil
}

func checkIntervals(field string, x []float64) error {
	if len(x)%2 != 0 {
		return newInvalidFunctionError(4, field, "odd number of values (%d)", len(x))
	}
	for i := 0; i < len(x); i += 2 {
		if !isRange(x[i], x[i+1]) {
			return newInvalidFunctionError(4, field, "invalid interval [%g, %g]", x[i], x[i+1])
		}
	}
	return nil
}

// parseProgram reads the procedure of a calculator function.
func parseProgram(intp *postscript.Interpreter, program string) (postscript.Procedure, error) {
	body := strings.TrimSpace(program)
	if strings.HasPrefix(body, "{") && strings.HasSuffix(body, "}") {
		err := intp.ExecuteString(body)
		if err == nil && len(intp.Stack) == 1 {
			if proc, ok := intp.Stack[0].(postscript.Procedure); ok {
				intp.Reset()
				return proc, nil
			}
		}
		intp.Reset()
	}

	err := intp.ExecuteString("{" + body + "\n}")
	if err != nil {
		return postscript.Procedure{}, newInvalidFunctionError(4, "Program", "%v", err)
	}
	var proc postscript.Procedure
	ok := len(intp.Stack) == 1
	if ok {
		proc, ok = intp.Stack[0].(postscript.Procedure)
	}
	if !ok {
		return postscript.Procedure{}, newInvalidFunctionError(4, "Program", "not a single procedure")
	}
	intp.Reset()
	return proc, nil
}

// FunctionType returns 4.
func (f *Type4) FunctionType() int {
	return 4
}

// Shape returns the number of input and output values of the function.
func (f *Type4) Shape() (int, int) {
	return len(f.Domain) / 2, len(f.Range) / 2
}

// Eval runs the function on the given inputs.  Inputs are clipped to the
// Domain and outputs are clipped to the Range.
func (f *Type4) Eval(inputs ...float64) ([]float64, error) {
	m, n := f.Shape()
	if len(inputs) != m {
		return nil, fmt.Errorf("function: expected %d inputs, got %d", m, len(inputs))
	}

	intp := f.intp
	intp.Reset()
	for i, x := range inputs {
		x = clip(x, f.Domain[2*i], f.Domain[2*i+1])
		intp.Stack = append(intp.Stack, toObject(x))
	}

	err := intp.Exec(f.proc)
	if err != nil {
		return nil, fmt.Errorf("function: %w", err)
	}

	if len(intp.Stack) < n {
		return nil, fmt.Errorf("function: expected %d outputs, got %d", n, len(intp.Stack))
	}
	outputs := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		obj := intp.Stack[len(intp.Stack)-1]
		intp.Stack = intp.Stack[:len(intp.Stack)-1]
		y, ok := postscript.ToFloat(obj)
		if !ok {
			return nil, fmt.Errorf("function: output %d has type %s", i, postscript.TypeName(obj))
		}
		outputs[i] = clip(y, f.Range[2*i], f.Range[2*i+1])
	}
	return outputs, nil
}

// Apply runs the function on the given inputs.  If the evaluation fails,
// zero values clipped to the Range are returned.
func (f *Type4) Apply(inputs ...float64) []float64 {
	outputs, err := f.Eval(inputs...)
	if err == nil {
		return outputs
	}

	_, n := f.Shape()
	outputs = make([]float64, n)
	for i := range outputs {
		outputs[i] = clip(0, f.Range[2*i], f.Range[2*i+1])
	}
	return outputs
}

// toObject converts an input value to a PostScript number.  Integral
// values become integers, so that operators like idiv can use them.
func toObject(x float64) postscript.Object {
	if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
		return postscript.Integer(x)
	}
	return postscript.Real(x)
}

// isRange checks if the given values x and y are finite and satisfy x <= y.
func isRange(x, y float64) bool {
	return !math.IsInf(x, 0) && !math.IsInf(y, 0) && !math.IsNaN(x) && !math.IsNaN(y) && x <= y
}

func clip(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
