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

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	// FlagSuffixWOCE marks a column name holding WOCE flags for the base
	// column.
	FlagSuffixWOCE = "_FLAG_W"

	// FlagSuffixIGOSS marks a column name holding IGOSS flags for the base
	// column.
	FlagSuffixIGOSS = "_FLAG_I"
)

// ErrNoRows is returned when a file has no data to write.
var ErrNoRows = errors.New("hydro: file has no rows")

// UnitPair keys a unit converter by the mnemonic of the unit a column was
// given in and the mnemonic of the unit its parameter expects.
type UnitPair struct {
	Given, Expected string
}

// Converter converts a column to the units its canonical parameter expects.
// It may read other columns of f but must only modify c.
type Converter func(f *File, c *Column) (*Column, error)

// File is a set of named columns plus file-level metadata.
type File struct {
	// Columns are keyed by parameter mnemonic.
	Columns map[string]*Column

	// Globals holds file-level scalar attributes.
	Globals map[string]Value

	// Converters are consulted when a column's units disagree with its
	// parameter's expected units.
	Converters map[UnitPair]Converter

	// Header is free-text provenance carried between formats.
	Header string

	// Stamp identifies who last wrote the file, e.g. 20070204SIOWHO.
	Stamp string

	// Changes accumulates notes about conversions applied to the data.
	Changes []string
}

// NewFile returns an empty File.
func NewFile() *File {
	return &File{
		Columns:    make(map[string]*Column),
		Globals:    make(map[string]Value),
		Converters: make(map[UnitPair]Converter),
	}
}

// Len returns the number of rows in the file, which is the length of its
// longest column.
func (f *File) Len() int {
	n := 0
	for _, c := range f.Columns {
		if c.Len() > n {
			n = c.Len()
		}
	}
	return n
}

// Column returns the column with the given mnemonic, or nil.
func (f *File) Column(name string) *Column { return f.Columns[name] }

// Has reports whether f has a column with the given mnemonic.
func (f *File) Has(name string) bool {
	_, ok := f.Columns[name]
	return ok
}

// AddColumn stores c under its parameter's mnemonic.
func (f *File) AddColumn(c *Column) {
	f.Columns[c.Parameter.Mnemonic] = c
}

// EnsureColumn returns the column named name, creating a contrived column
// when it does not exist.
func (f *File) EnsureColumn(name string) *Column {
	if c, ok := f.Columns[name]; ok {
		return c
	}
	c := NewColumn(NewContrivedParameter(name, ""))
	f.Columns[name] = c
	return c
}

// DeleteColumn removes the column with the given mnemonic.
func (f *File) DeleteColumn(name string) { delete(f.Columns, name) }

// SortedColumns returns the columns in display order.
func (f *File) SortedColumns() []*Column {
	cols := make([]*Column, 0, len(f.Columns))
	for _, c := range f.Columns {
		cols = append(cols, c)
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].Less(cols[j]) })
	return cols
}

// ColumnNames returns the column mnemonics in display order.
func (f *File) ColumnNames() []string {
	cols := f.SortedColumns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Parameter.Mnemonic
	}
	return names
}

// GlobalNames returns the global attribute names in lexical order.
func (f *File) GlobalNames() []string {
	names := make([]string, 0, len(f.Globals))
	for k := range f.Globals {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// RegisterConverter installs fn for columns given in unit given whose
// parameter expects unit expected. Units are named by mnemonic.
func (f *File) RegisterConverter(given, expected string, fn Converter) {
	if f.Converters == nil {
		f.Converters = make(map[UnitPair]Converter)
	}
	f.Converters[UnitPair{Given: normUnit(given), Expected: normUnit(expected)}] = fn
}

// Copy returns a File with the same column parameters, globals, converters
// and provenance as f but no values.
func (f *File) Copy() *File {
	o := NewFile()
	for k, c := range f.Columns {
		o.Columns[k] = NewColumn(c.Parameter)
	}
	for k, v := range f.Globals {
		o.Globals[k] = v
	}
	for k, fn := range f.Converters {
		o.Converters[k] = fn
	}
	o.Header = f.Header
	o.Stamp = f.Stamp
	return o
}

// View returns a shallow copy of f. The column and global maps are new,
// the columns themselves are shared.
func (f *File) View() *File {
	o := f.Copy()
	for k, c := range f.Columns {
		o.Columns[k] = c
	}
	o.Changes = append([]string(nil), f.Changes...)
	return o
}

// IsFlagName reports whether name is a flag column name and returns the
// name of the column it flags.
func IsFlagName(name string) (base string, woce, ok bool) {
	switch {
	case strings.HasSuffix(name, FlagSuffixWOCE):
		return strings.TrimSuffix(name, FlagSuffixWOCE), true, true
	case strings.HasSuffix(name, FlagSuffixIGOSS):
		return strings.TrimSuffix(name, FlagSuffixIGOSS), false, true
	}
	return name, false, false
}

// CreateColumns adds a contrived column for every name that is not a flag
// column. units must be parallel to names. Re-declaring an existing column
// in a different unit is logged.
func (f *File) CreateColumns(names, units []string, log logrus.FieldLogger) error {
	if len(names) != len(units) {
		return fmt.Errorf("hydro: expected as many columns as units; found %d columns and %d units",
			len(names), len(units))
	}
	for i, name := range names {
		if _, _, flag := IsFlagName(name); flag {
			continue
		}
		u := strings.TrimSpace(units[i])
		if c, ok := f.Columns[name]; ok {
			if c.Parameter.Unit != nil && c.Parameter.Unit.Mnemonic != u {
				logger(log).WithFields(logrus.Fields{
					"column": name,
					"old":    c.Parameter.Unit.Mnemonic,
					"new":    u,
				}).Warn("column redeclared with different unit")
			}
			continue
		}
		f.Columns[name] = NewColumn(NewContrivedParameter(name, u))
	}
	return nil
}

// SortRows reorders every column of f so that rows are in the order given
// by less, which compares original row indices.
func (f *File) SortRows(less func(i, j int) bool) {
	n := f.Len()
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(a, b int) bool { return less(perm[a], perm[b]) })
	for _, c := range f.Columns {
		c.SetLength(n)
		values := make([]Value, n)
		for i, p := range perm {
			values[i] = c.Values[p]
		}
		c.Values = values
		c.FlagsWOCE = permuteFlags(c.FlagsWOCE, perm)
		c.FlagsIGOSS = permuteFlags(c.FlagsIGOSS, perm)
	}
}

func permuteFlags(flags []Flag, perm []int) []Flag {
	if len(flags) == 0 {
		return flags
	}
	out := make([]Flag, len(perm))
	for i, p := range perm {
		out[i] = flags[p]
	}
	return out
}

// SortByPressure orders rows by CTDPRS (or CTDRAW when CTDPRS is absent)
// and then by BTLNBR. Rows without a pressure sort last.
func (f *File) SortByPressure() {
	pres := f.Column("CTDPRS")
	if pres == nil {
		pres = f.Column("CTDRAW")
	}
	if pres == nil {
		return
	}
	btl := f.Column("BTLNBR")
	f.SortRows(func(i, j int) bool {
		pi, iok := AsFloat(pres.Get(i))
		pj, jok := AsFloat(pres.Get(j))
		if iok != jok {
			return iok
		}
		if iok && pi != pj {
			return pi < pj
		}
		if btl == nil {
			return false
		}
		bi, _ := AsFloat(btl.Get(i))
		bj, _ := AsFloat(btl.Get(j))
		return bi < bj
	})
}
