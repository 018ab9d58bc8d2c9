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

package hydro

import "github.com/sirupsen/logrus"

// CastKey identifies one cast: an expedition, a station and a cast number.
type CastKey struct {
	Expocode, Station, Cast string
}

// CastKeyAt returns the cast identity of row i of f. Identity columns take
// precedence over globals of the same name.
func (f *File) CastKeyAt(i int) CastKey {
	return CastKey{
		Expocode: f.identity("EXPOCODE", i),
		Station:  f.identity("STNNBR", i),
		Cast:     f.identity("CASTNO", i),
	}
}

func (f *File) identity(name string, i int) string {
	if c := f.Column(name); c != nil {
		return AsString(c.Get(i))
	}
	return AsString(f.Globals[name])
}

// Collection is an ordered set of Files, typically one per cast.
type Collection struct {
	Files []*File
}

// NewCollection returns an empty Collection.
func NewCollection() *Collection { return &Collection{} }

// Append adds f to the end of the collection.
func (c *Collection) Append(f *File) { c.Files = append(c.Files, f) }

// Len returns the number of files in the collection.
func (c *Collection) Len() int { return len(c.Files) }

// Resolve resolves the parameters of every file in the collection.
func (c *Collection) Resolve(reg Registry, log logrus.FieldLogger) error {
	for _, f := range c.Files {
		if err := f.Resolve(reg, log); err != nil {
			return err
		}
	}
	return nil
}

// SplitOnCast splits f into one File per cast. A new file starts whenever
// the expedition code, station or cast of a row differs from the row
// before it. Every output file has the same columns and parameters as f.
func SplitOnCast(f *File) *Collection {
	out := NewCollection()
	var (
		cur *File
		key CastKey
	)
	n := f.Len()
	for i := 0; i < n; i++ {
		k := f.CastKeyAt(i)
		if cur == nil || k != key {
			cur = f.Copy()
			cur.Changes = append([]string(nil), f.Changes...)
			out.Append(cur)
			key = k
		}
		for name, src := range f.Columns {
			cur.Columns[name].Append(src.Get(i), src.FlagWOCE(i), src.FlagIGOSS(i))
		}
	}
	for _, part := range out.Files {
		for name, src := range f.Columns {
			dst := part.Columns[name]
			if src.IsFlaggedWOCE() {
				dst.FlagsWOCE = alignFlags(dst.FlagsWOCE, dst.Len())
			}
			if src.IsFlaggedIGOSS() {
				dst.FlagsIGOSS = alignFlags(dst.FlagsIGOSS, dst.Len())
			}
		}
	}
	return out
}

// Merge concatenates the files of c into one wide File. Globals of each
// file become columns repeated down that file's rows, and columns missing
// from a file are left absent for its rows.
func (c *Collection) Merge() *File {
	out := NewFile()
	for fi, f := range c.Files {
		if fi == 0 {
			out.Header = f.Header
			out.Stamp = f.Stamp
		}
		for k, fn := range f.Converters {
			out.Converters[k] = fn
		}
		out.Changes = append(out.Changes, f.Changes...)

		base := out.Len()
		n := f.Len()
		for name, v := range f.Globals {
			dst, ok := out.Columns[name]
			if !ok {
				dst = NewColumn(NewContrivedParameter(name, ""))
				out.Columns[name] = dst
			}
			for i := 0; i < n; i++ {
				dst.Set(base+i, v)
			}
		}
		for name, src := range f.Columns {
			dst, ok := out.Columns[name]
			if !ok {
				dst = NewColumn(src.Parameter)
				out.Columns[name] = dst
			}
			for i := 0; i < n; i++ {
				dst.SetFlagged(base+i, src.Get(i), src.FlagWOCE(i), src.FlagIGOSS(i))
			}
			dst.SetLength(base + n)
			if src.IsFlaggedWOCE() {
				dst.FlagsWOCE = alignFlags(dst.FlagsWOCE, dst.Len())
			}
			if src.IsFlaggedIGOSS() {
				dst.FlagsIGOSS = alignFlags(dst.FlagsIGOSS, dst.Len())
			}
		}
		for _, col := range out.Columns {
			col.SetLength(base + n)
		}
	}
	return out
}
