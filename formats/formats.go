/*
Copyright © 2024 the Hydro authors.
This file is part of Hydro.

Hydro is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Hydro is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Hydro.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package formats defines how hydrographic data files are read and written
// and keeps a table of the available codecs.
package formats

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/hydroarchive/hydro"
	"github.com/hydroarchive/hydro/convert"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNotSupported is returned when a format cannot be read or written
	// in the requested direction.
	ErrNotSupported = errors.New("formats: operation not supported by format")

	// ErrUnknownFormat is returned for format names and file names that
	// match no registered format.
	ErrUnknownFormat = errors.New("formats: unknown format")
)

// FileReader reads one data file into f.
type FileReader interface {
	ReadFile(f *hydro.File, r io.Reader) error
}

// FileWriter writes f.
type FileWriter interface {
	WriteFile(f *hydro.File, w io.Writer) error
}

// CollectionReader reads a container of data files into c.
type CollectionReader interface {
	ReadCollection(c *hydro.Collection, r io.Reader) error
}

// CollectionWriter writes every file of c into one container.
type CollectionWriter interface {
	WriteCollection(c *hydro.Collection, w io.Writer) error
}

// Options configure codecs.
type Options struct {
	// Registry resolves column names. A nil Registry leaves every
	// column contrived.
	Registry hydro.Registry

	Log logrus.FieldLogger

	// Stamp is appended to the date in written Exchange stamps,
	// e.g. SIOWHO.
	Stamp string

	// Method is the bottle oxygen analysis method used by unit
	// conversion.
	Method convert.Method

	// Preset names the OceanSITES site preset.
	Preset string

	// Version is the OceanSITES format version.
	Version string
}

// Logger returns o.Log, or the standard logger.
func (o Options) Logger() logrus.FieldLogger {
	if o.Log == nil {
		return logrus.StandardLogger()
	}
	return o.Log
}

// Finish runs the end-of-read steps every reader shares: unit converters
// are installed on f and its parameters are resolved.
func Finish(f *hydro.File, o Options) error {
	if o.Registry == nil {
		return nil
	}
	convert.Register(f, o.Method, o.Logger())
	return f.Resolve(o.Registry, o.Logger())
}

// Format describes one codec. Constructors that are nil mark directions
// the format does not support.
type Format struct {
	// Name is a short name such as "btl.ex".
	Name string

	Description string

	// Extensions are file name suffixes recognizing the format. The first
	// one is used to name new files.
	Extensions []string

	// Namer returns the conventional name of the file holding one cast.
	// When nil, casts are named with CastFileName and the first
	// extension.
	Namer func(*hydro.File) string

	NewFileReader       func(Options) FileReader
	NewFileWriter       func(Options) FileWriter
	NewCollectionReader func(Options) CollectionReader
	NewCollectionWriter func(Options) CollectionWriter
}

// IsCollection reports whether the format holds several files.
func (f *Format) IsCollection() bool {
	return f.NewCollectionReader != nil || f.NewCollectionWriter != nil
}

// FileName returns the name of a file with the given base name in this
// format.
func (f *Format) FileName(base string) string {
	if len(f.Extensions) == 0 {
		return base
	}
	return base + f.Extensions[0]
}

// CastName returns the name of the file holding the cast f.
func (f *Format) CastName(c *hydro.File) string {
	if f.Namer != nil {
		return f.Namer(c)
	}
	ext := ""
	if len(f.Extensions) > 0 {
		ext = f.Extensions[0]
	}
	return CastFileName(c.CastKeyAt(0), ext)
}

// Table holds formats by name.
type Table struct {
	formats map[string]*Format
}

// NewTable returns a table holding the given formats.
func NewTable(formats ...*Format) *Table {
	t := &Table{formats: make(map[string]*Format)}
	for _, f := range formats {
		t.Register(f)
	}
	return t
}

// Register adds f to the table. It panics if a format with the same name
// is already present.
func (t *Table) Register(f *Format) {
	if _, ok := t.formats[f.Name]; ok {
		panic(fmt.Errorf("formats: format %s registered twice", f.Name))
	}
	t.formats[f.Name] = f
}

// Names returns the registered format names in lexical order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.formats))
	for n := range t.formats {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the format with the given name.
func (t *Table) Lookup(name string) (*Format, error) {
	f, ok := t.formats[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
	return f, nil
}

// Detect returns the format whose extension matches the end of filename.
// The longest matching extension wins.
func (t *Table) Detect(filename string) (*Format, error) {
	var (
		best    *Format
		bestLen int
	)
	for _, name := range t.Names() {
		f := t.formats[name]
		for _, ext := range f.Extensions {
			if strings.HasSuffix(filename, ext) && len(ext) > bestLen {
				best, bestLen = f, len(ext)
			}
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: no format recognizes %q", ErrUnknownFormat, filename)
	}
	return best, nil
}

// FileReader returns a reader for the named format.
func (t *Table) FileReader(name string, o Options) (FileReader, error) {
	f, err := t.Lookup(name)
	if err != nil {
		return nil, err
	}
	if f.NewFileReader == nil {
		return nil, NotSupported(name, "reading files")
	}
	return f.NewFileReader(o), nil
}

// FileWriter returns a writer for the named format.
func (t *Table) FileWriter(name string, o Options) (FileWriter, error) {
	f, err := t.Lookup(name)
	if err != nil {
		return nil, err
	}
	if f.NewFileWriter == nil {
		return nil, NotSupported(name, "writing files")
	}
	return f.NewFileWriter(o), nil
}

// CollectionReader returns a collection reader for the named format.
func (t *Table) CollectionReader(name string, o Options) (CollectionReader, error) {
	f, err := t.Lookup(name)
	if err != nil {
		return nil, err
	}
	if f.NewCollectionReader == nil {
		return nil, NotSupported(name, "reading collections")
	}
	return f.NewCollectionReader(o), nil
}

// CollectionWriter returns a collection writer for the named format.
func (t *Table) CollectionWriter(name string, o Options) (CollectionWriter, error) {
	f, err := t.Lookup(name)
	if err != nil {
		return nil, err
	}
	if f.NewCollectionWriter == nil {
		return nil, NotSupported(name, "writing collections")
	}
	return f.NewCollectionWriter(o), nil
}

// notSupportedError wraps ErrNotSupported with the format and direction.
type notSupportedError struct {
	format, op string
}

func (e *notSupportedError) Error() string {
	return fmt.Sprintf("formats: %s: %s not supported", e.format, e.op)
}

func (e *notSupportedError) Unwrap() error { return ErrNotSupported }

// NotSupported returns an error wrapping ErrNotSupported. Codecs return it
// from directions they do not implement.
func NotSupported(format, op string) error {
	return &notSupportedError{format: format, op: op}
}
