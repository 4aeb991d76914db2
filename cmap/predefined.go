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

package cmap

import (
	"compress/gzip"
	"embed"
	"fmt"
	"io"

	"seehuhn.de/go/postscript/v2"
)

//go:embed predefined/*.gz
var predefined embed.FS

// Predefined is a [postscript.ResourceLoader] which provides the built-in
// CMaps "Identity-H" and "Identity-V".
var Predefined postscript.ResourceLoader = predefinedLoader{}

type predefinedLoader struct{}

func (predefinedLoader) OpenResource(category, name postscript.Name) (io.ReadCloser, error) {
	if category != "CMap" {
		return nil, fmt.Errorf("%s resource %s: %w", category, name, postscript.ErrResourceNotFound)
	}

	fd, err := predefined.Open("predefined/" + string(name) + ".gz")
	if err != nil {
		return nil, fmt.Errorf("CMap %s: %w", name, postscript.ErrResourceNotFound)
	}
	body, err := gzip.NewReader(fd)
	if err != nil {
		fd.Close()
		return nil, err
	}
	return &gzipFile{Reader: body, fd: fd}, nil
}

// gzipFile closes both the decompressor and the underlying file.
type gzipFile struct {
	*gzip.Reader
	fd io.Closer
}

func (f *gzipFile) Close() error {
	err := f.Reader.Close()
	if err2 := f.fd.Close(); err == nil {
		err = err2
	}
	return err
}

// ReadPredefined reads one of the built-in CMaps.
func ReadPredefined(name string) (*File, error) {
	r, err := Predefined.OpenResource("CMap", postscript.Name(name))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return Read(r, Predefined)
}
