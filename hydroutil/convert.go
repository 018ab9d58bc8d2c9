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


package hydroutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hydroarchive/hydro"
	"github.com/hydroarchive/hydro/formats"
	"github.com/sirupsen/logrus"
)

// lookup returns the format named name, or the one detected from file
// when name is empty.
func lookup(t *formats.Table, name, file string) (*formats.Format, error) {
	if name != "" {
		return t.Lookup(name)
	}
	return t.Detect(filepath.Base(file))
}

// read appends the contents of file to c. Single-file formats are read
// into dst when it is not nil, and into a new File otherwise.
func read(t *formats.Table, file, from string, o formats.Options, c *hydro.Collection, dst *hydro.File) (*formats.Format, error) {
	ft, err := lookup(t, from, file)
	if err != nil {
		return nil, err
	}
	r, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("hydro: %v", err)
	}
	defer r.Close()

	o.Logger().WithFields(logrus.Fields{"file": file, "format": ft.Name}).Info("reading")
	if ft.NewCollectionReader != nil {
		if dst != nil {
			return nil, fmt.Errorf("hydro: %s: cannot aggregate an archive", file)
		}
		cr, err := t.CollectionReader(ft.Name, o)
		if err != nil {
			return nil, err
		}
		if err := cr.ReadCollection(c, r); err != nil {
			return nil, fmt.Errorf("hydro: reading %s: %w", file, err)
		}
		return ft, nil
	}
	fr, err := t.FileReader(ft.Name, o)
	if err != nil {
		return nil, err
	}
	f := dst
	if f == nil {
		f = hydro.NewFile()
		c.Append(f)
	}
	if err := fr.ReadFile(f, r); err != nil {
		return nil, fmt.Errorf("hydro: reading %s: %w", file, err)
	}
	return ft, nil
}

// create writes a new file at path with write.
func create(path string, write func(*os.File) error) error {
	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("hydro: %v", err)
	}
	if err := write(w); err != nil {
		w.Close()
		return fmt.Errorf("hydro: writing %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("hydro: %v", err)
	}
	return nil
}

// Convert reads the files in and writes them to out. from and to name
// the input and output formats; they are detected from the file names
// when empty. When aggregate is true every input is read into a single
// File.
//
// Several files written to a single-file format are merged into one, and
// a single file written to an archive format is split into one member
// per cast.
func Convert(t *formats.Table, in []string, out, from, to string, aggregate bool, o formats.Options) error {
	ot, err := lookup(t, to, out)
	if err != nil {
		return err
	}
	c := hydro.NewCollection()
	var dst *hydro.File
	if aggregate {
		dst = hydro.NewFile()
		c.Append(dst)
	}
	for _, file := range in {
		if _, err := read(t, file, from, o, c, dst); err != nil {
			return err
		}
	}
	if c.Len() == 0 {
		return fmt.Errorf("hydro: %w", hydro.ErrNoRows)
	}

	o.Logger().WithFields(logrus.Fields{"file": out, "format": ot.Name}).Info("writing")
	if ot.IsCollection() {
		cw, err := t.CollectionWriter(ot.Name, o)
		if err != nil {
			return err
		}
		if c.Len() == 1 {
			c = hydro.SplitOnCast(c.Files[0])
		}
		return create(out, func(w *os.File) error { return cw.WriteCollection(c, w) })
	}
	fw, err := t.FileWriter(ot.Name, o)
	if err != nil {
		return err
	}
	f := c.Files[0]
	if c.Len() > 1 {
		f = c.Merge()
	}
	return create(out, func(w *os.File) error { return fw.WriteFile(f, w) })
}

// Split reads the file in and writes each of its casts to its own file in
// the directory dir, which is created if needed. The output format is
// named by to, or is the input format when to is empty. Split returns the
// names of the files written.
func Split(t *formats.Table, in, dir, from, to string, o formats.Options) ([]string, error) {
	c := hydro.NewCollection()
	it, err := read(t, in, from, o, c, nil)
	if err != nil {
		return nil, err
	}
	ot := it
	if to != "" {
		if ot, err = t.Lookup(to); err != nil {
			return nil, err
		}
	}
	fw, err := t.FileWriter(ot.Name, o)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("hydro: %v", err)
	}

	var names []string
	seen := make(map[string]bool)
	for _, f := range c.Files {
		for _, cast := range hydro.SplitOnCast(f).Files {
			name := ot.CastName(cast)
			if seen[name] {
				return names, fmt.Errorf("hydro: two casts are named %s", name)
			}
			seen[name] = true
			path := filepath.Join(dir, name)
			if err := create(path, func(w *os.File) error { return fw.WriteFile(cast, w) }); err != nil {
				return names, err
			}
			names = append(names, name)
		}
	}
	return names, nil
}
