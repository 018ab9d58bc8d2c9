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


package netcdf

import (
	"io"

	"github.com/hydroarchive/hydro"
	"github.com/hydroarchive/hydro/formats"
	"github.com/sirupsen/logrus"
)

// rowGlobals are stored as columns in bottle files so that casts can be
// merged.
var rowGlobals = []string{
	"EXPOCODE", "SECT_ID", "STNNBR", "CASTNO", "DEPTH",
	"LATITUDE", "LONGITUDE", hydro.DateTimeName,
}

// Bottle reads and writes one bottle cast per NetCDF file.
type Bottle struct {
	formats.Options
}

// NewBottle returns a NetCDF bottle codec.
func NewBottle(o formats.Options) *Bottle { return &Bottle{Options: o} }

// FileName returns the conventional name of the file holding f.
func (b *Bottle) FileName(f *hydro.File) string {
	return formats.CastFileName(f.CastKeyAt(0), "_hy1.nc")
}

// ReadFile reads a NetCDF bottle file and appends its rows to f. The
// cast description becomes columns repeated down the new rows.
func (b *Bottle) ReadFile(f *hydro.File, r io.Reader) error {
	g, err := read(r, b.Options)
	if err != nil {
		return err
	}
	n := g.Len()
	for _, name := range rowGlobals {
		v, ok := g.Globals[name]
		if !ok {
			continue
		}
		c := hydro.NewColumn(hydro.NewContrivedParameter(name, ""))
		for i := 0; i < n; i++ {
			c.Set(i, v)
		}
		g.AddColumn(c)
		delete(g.Globals, name)
	}
	if err := formats.Finish(g, b.Options); err != nil {
		return err
	}
	aggregate(f, g, b.Logger())
	return nil
}

// WriteFile writes f as one cast. The cast description is taken from the
// first row.
func (b *Bottle) WriteFile(f *hydro.File, w io.Writer) error {
	n := f.Len()
	first := f.CastKeyAt(0)
	for i := 1; i < n; i++ {
		if k := f.CastKeyAt(i); k != first {
			b.Logger().WithFields(logrus.Fields{
				"row":     i,
				"station": k.Station,
				"cast":    k.Cast,
			}).Warn("file holds more than one cast; describing it by the first")
			break
		}
	}
	return write(f, w, b.Options, "WOCE Bottle", BottleFlagDescription)
}
