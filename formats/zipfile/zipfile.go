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


// Package zipfile reads and writes zip archives holding one data file per
// cast.
package zipfile

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"path"
	"strings"
	"time"

	"github.com/hydroarchive/hydro"
	"github.com/hydroarchive/hydro/formats"
	"github.com/klauspost/compress/zip"
)

// FileNameGlobal holds the name of the member a file was read from.
const FileNameGlobal = hydro.ContrivedMarker + "FILENAME"

// Mode is the permission of written members.
const Mode = 0644

// skipped are name fragments of members that hold documentation.
var skipped = []string{"README", "DOC"}

// Codec wraps a single-file codec.
type Codec struct {
	formats.Options

	// Reader decodes members. Reading is not supported when nil.
	Reader formats.FileReader

	// Writer encodes members. Writing is not supported when nil.
	Writer formats.FileWriter

	// Name names the member holding a file. When nil members are named
	// by cast with Suffix.
	Name   func(*hydro.File) string
	Suffix string

	// Extensions limit the members read. All are read when empty.
	Extensions []string

	// Modified stamps written members. The current time is used when
	// zero.
	Modified time.Time
}

// New returns a zip codec wrapping r and w.
func New(o formats.Options, r formats.FileReader, w formats.FileWriter) *Codec {
	return &Codec{Options: o, Reader: r, Writer: w}
}

func (c *Codec) data(name string) bool {
	if strings.HasSuffix(name, "/") {
		return false
	}
	base := path.Base(name)
	for _, s := range skipped {
		if strings.Contains(base, s) {
			return false
		}
	}
	if len(c.Extensions) == 0 {
		return true
	}
	for _, ext := range c.Extensions {
		if strings.HasSuffix(base, ext) {
			return true
		}
	}
	return false
}

// ReadCollection appends one File per data member of the archive in r,
// in archive order.
func (c *Codec) ReadCollection(coll *hydro.Collection, r io.Reader) error {
	if c.Reader == nil {
		return formats.NotSupported("zip", "reading members")
	}
	log := c.Logger()
	b, err := ioutil.ReadAll(r)
	if err != nil {
		return fmt.Errorf("zipfile: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return fmt.Errorf("zipfile: opening archive: %v", err)
	}
	for _, m := range zr.File {
		if m.FileInfo().IsDir() || !c.data(m.Name) {
			log.WithField("member", m.Name).Debug("skipping member")
			continue
		}
		rc, err := m.Open()
		if err != nil {
			return fmt.Errorf("zipfile: %s: %v", m.Name, err)
		}
		f := hydro.NewFile()
		err = c.Reader.ReadFile(f, rc)
		rc.Close()
		if err != nil {
			return fmt.Errorf("zipfile: %s: %w", m.Name, err)
		}
		f.Globals[FileNameGlobal] = hydro.Text(m.Name)
		coll.Append(f)
	}
	return nil
}

// WriteCollection writes every file of coll as a member, in order.
func (c *Codec) WriteCollection(coll *hydro.Collection, w io.Writer) error {
	if c.Writer == nil {
		return formats.NotSupported("zip", "writing members")
	}
	name := c.Name
	if name == nil {
		name = (&formats.Namer{Suffix: c.Suffix}).Name
	}
	modified := c.Modified
	if modified.IsZero() {
		modified = time.Now()
	}
	zw := zip.NewWriter(w)
	seen := make(map[string]bool)
	for _, f := range coll.Files {
		v := f.View()
		delete(v.Globals, FileNameGlobal)
		member := name(v)
		if seen[member] {
			return fmt.Errorf("zipfile: two files are named %s", member)
		}
		seen[member] = true

		fh := &zip.FileHeader{Name: member, Method: zip.Deflate, Modified: modified}
		fh.SetMode(Mode)
		mw, err := zw.CreateHeader(fh)
		if err != nil {
			return fmt.Errorf("zipfile: %s: %v", member, err)
		}
		if err := c.Writer.WriteFile(v, mw); err != nil {
			return fmt.Errorf("zipfile: %s: %w", member, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("zipfile: %v", err)
	}
	return nil
}
