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

// Psrun runs PostScript programs and inspects CMap files, Type 1 fonts and
// PDF type 4 functions.
//
// Usage:
//
//	psrun [flags] file...
//	psrun -mode function -domain "0 1" -range "0 1" program x...
//
// Settings can also be given in the environment, using the variables
// PSRUN_MODE, PSRUN_LEVEL and PSRUN_TIMEOUT.  Command line flags take
// precedence.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/caarlos0/env/v11"
	"golang.org/x/term"

	"seehuhn.de/go/postscript/v2"
	"seehuhn.de/go/postscript/v2/cmap"
	"seehuhn.de/go/postscript/v2/function"
	"seehuhn.de/go/postscript/v2/type1"
)

type config struct {
	Mode    string        `env:"PSRUN_MODE"    envDefault:"run"`
	Level   int           `env:"PSRUN_LEVEL"   envDefault:"3"`
	Timeout time.Duration `env:"PSRUN_TIMEOUT" envDefault:"10s"`
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("psrun: ")

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatal(err)
	}

	flag.StringVar(&cfg.Mode, "mode", cfg.Mode, "one of run, cmap, type1, function")
	flag.IntVar(&cfg.Level, "level", cfg.Level, "PostScript language level")
	flag.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "maximal run time")
	domain := flag.String("domain", "0 1", "domain of a type 4 function")
	rng := flag.String("range", "0 1", "range of a type 4 function")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- run(os.Stdout, cfg, *domain, *rng, flag.Args())
	}()

	select {
	case err := <-done:
		if err != nil {
			log.Fatal(err)
		}
	case <-ctx.Done():
		log.Fatalf("%s: %v", cfg.Mode, ctx.Err())
	}
}

func run(w io.Writer, cfg config, domain, rng string, args []string) error {
	switch cfg.Mode {
	case "run":
		return runPostScript(w, cfg, args)
	case "cmap":
		return forEachFile(w, args, showCMap)
	case "type1":
		return forEachFile(w, args, showFont)
	case "function":
		return evalFunction(w, domain, rng, args)
	default:
		return fmt.Errorf("unknown mode %q", cfg.Mode)
	}
}

func runPostScript(w io.Writer, cfg config, args []string) error {
	intp := postscript.NewInterpreter()
	err := intp.SetLanguageLevel(postscript.LanguageLevel(cfg.Level))
	if err != nil {
		return err
	}

	if len(args) == 0 {
		err = intp.Execute(os.Stdin)
	}
	for _, fname := range args {
		err = withFile(fname, intp.Execute)
		if err != nil {
			break
		}
	}

	width := 0
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		width, _, _ = term.GetSize(int(f.Fd()))
	}
	for i, obj := range intp.Stack {
		fmt.Fprintln(w, clipLine(fmt.Sprintf("%3d: %s", i, postscript.Format(obj)), width))
	}
	for _, c := range intp.DSC {
		fmt.Fprintln(w, clipLine("%%"+c.Key+": "+c.Value, width))
	}
	return err
}

func showCMap(w io.Writer, r io.Reader) error {
	f, err := cmap.Read(r, nil)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "name:", f.Name)
	if f.ROS != nil {
		fmt.Fprintln(w, "ROS:", f.ROS)
	}
	fmt.Fprintln(w, "type:", f.Type)
	fmt.Fprintln(w, "writing mode:", f.WMode)
	if f.Info.UseCMap != "" {
		fmt.Fprintln(w, "uses:", f.Info.UseCMap)
	}
	fmt.Fprintln(w, "codespace ranges:", len(f.Info.CodeSpaceRanges))
	fmt.Fprintln(w, "cid mappings:", len(f.Info.CidChars)+len(f.Info.CidRanges))
	fmt.Fprintln(w, "unicode mappings:", len(f.Info.BfChars)+len(f.Info.BfRanges))
	return nil
}

func showFont(w io.Writer, r io.Reader) error {
	f, err := type1.Read(r)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "font:", f.FontName)
	if f.FullName != "" {
		fmt.Fprintln(w, "full name:", f.FullName)
	}
	if !f.CreationDate.IsZero() {
		fmt.Fprintln(w, "created:", f.CreationDate.Format(time.DateOnly))
	}
	bbox := f.FontBBoxPDF()
	fmt.Fprintf(w, "bbox: %g %g %g %g\n", bbox.LLx, bbox.LLy, bbox.URx, bbox.URy)
	fmt.Fprintln(w, "glyphs:", f.NumGlyphs())
	fmt.Fprintln(w, "subroutines:", len(f.Subrs))
	if err := f.Validate(); err != nil {
		fmt.Fprintln(w, "problem:", err)
	}
	return nil
}

// evalFunction evaluates a type 4 function.  The first argument is the
// program, the remaining arguments are the input values.
func evalFunction(w io.Writer, domain, rng string, args []string) error {
	if len(args) == 0 {
		return errors.New("missing program")
	}
	dom, err := parseNumbers(domain)
	if err != nil {
		return err
	}
	ran, err := parseNumbers(rng)
	if err != nil {
		return err
	}
	inputs, err := parseNumbers(strings.Join(args[1:], " "))
	if err != nil {
		return err
	}

	F, err := function.NewType4(dom, ran, args[0])
	if err != nil {
		return err
	}
	out, err := F.Eval(inputs...)
	if err != nil {
		return err
	}
	res := make([]string, len(out))
	for i, y := range out {
		res[i] = strconv.FormatFloat(y, 'g', -1, 64)
	}
	fmt.Fprintln(w, strings.Join(res, " "))
	return nil
}

func parseNumbers(s string) ([]float64, error) {
	var res []float64
	for _, field := range strings.Fields(s) {
		x, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, err
		}
		res = append(res, x)
	}
	return res, nil
}

func forEachFile(w io.Writer, args []string, fn func(io.Writer, io.Reader) error) error {
	if len(args) == 0 {
		return fn(w, os.Stdin)
	}
	for _, fname := range args {
		if len(args) > 1 {
			fmt.Fprintln(w, "# " + fname)
		}
		err := withFile(fname, func(r io.Reader) error {
			return fn(w, r)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func withFile(fname string, fn func(io.Reader) error) error {
	fd, err := os.Open(fname)
	if err != nil {
		return err
	}
	defer fd.Close()
	err = fn(fd)
	if err != nil {
		return fmt.Errorf("%s: %w", fname, err)
	}
	return nil
}

// clipLine shortens s to at most width characters.  A width of 3 or
// less disables clipping.
func clipLine(s string, width int) string {
	if width <= 3 || utf8.RuneCountInString(s) <= width {
		return s
	}
	r := []rune(s)
	return string(r[:width-3]) + "..."
}
