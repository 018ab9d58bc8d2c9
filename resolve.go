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
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

func normUnit(mnemonic string) string {
	return strings.ToUpper(strings.TrimSpace(mnemonic))
}

// sameUnit compares units by mnemonic. Units read from files only carry
// a mnemonic, so the full name cannot take part in the comparison.
func sameUnit(a, b *Unit) bool {
	if a.Equal(b) {
		return true
	}
	if normUnit(a.Mnemonic) == normUnit(b.Mnemonic) {
		return true
	}
	// Binary formats record the unit's long name only.
	return a.Name != "" && normUnit(a.Name) == normUnit(b.Name)
}

// Resolve replaces each column's parameter with the canonical record found
// in reg. Columns whose declared units differ from the canonical units are
// passed through the matching converter in f.Converters. Names carrying the
// contrived marker are left alone. Unknown names and missing converters are
// logged; converter errors are returned.
func (f *File) Resolve(reg Registry, log logrus.FieldLogger) error {
	log = logger(log)
	names := make([]string, 0, len(f.Columns))
	for name := range f.Columns {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		c := f.Columns[name]
		if c.Parameter == nil || c.Parameter.Marked() {
			continue
		}
		std, ok := FindParameter(reg, c.Parameter.Mnemonic, log)
		if !ok {
			log.WithField("parameter", c.Parameter.Mnemonic).Warn("unknown parameter")
			continue
		}
		given, expected := c.Parameter.Unit, std.Unit
		if given != nil && expected != nil && !sameUnit(given, expected) {
			key := UnitPair{Given: normUnit(given.Mnemonic), Expected: normUnit(expected.Mnemonic)}
			conv, ok := f.Converters[key]
			if !ok {
				log.WithFields(logrus.Fields{
					"parameter": std.Mnemonic,
					"given":     given.Mnemonic,
					"expected":  expected.Mnemonic,
				}).Warn("no unit converter; leaving values unconverted")
				p := *std
				p.Unit = given
				c.Parameter = &p
				f.rename(name, c, log)
				continue
			}
			converted, err := conv(f, c)
			if err != nil {
				return fmt.Errorf("hydro: converting %s from %s to %s: %v",
					std.Mnemonic, given.Mnemonic, expected.Mnemonic, err)
			}
			c = converted
			f.Changes = append(f.Changes, fmt.Sprintf("%s converted from %s to %s",
				std.Mnemonic, given.Mnemonic, expected.Mnemonic))
		}
		c.Parameter = std
		f.rename(name, c, log)
	}
	return nil
}

// rename stores c under its parameter's mnemonic, removing the entry for
// old. A column already present under the new name is kept.
func (f *File) rename(old string, c *Column, log logrus.FieldLogger) {
	name := c.Parameter.Mnemonic
	if name == old {
		f.Columns[old] = c
		return
	}
	if _, ok := f.Columns[name]; ok {
		log.WithFields(logrus.Fields{
			"column":    old,
			"parameter": name,
		}).Warn("canonical name already in use; keeping original column name")
		f.Columns[old] = c
		return
	}
	delete(f.Columns, old)
	f.Columns[name] = c
}
