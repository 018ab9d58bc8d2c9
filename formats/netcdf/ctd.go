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
)

// CTD reads and writes one CTD cast per NetCDF file. Reading several files
// into the same File aggregates them.
type CTD struct {
	formats.Options
}

// NewCTD returns a NetCDF CTD codec.
func NewCTD(o formats.Options) *CTD { return &CTD{Options: o} }

// FileName returns the conventional name of the file holding f.
func (c *CTD) FileName(f *hydro.File) string {
	return formats.CastFileName(f.CastKeyAt(0), "_ctd.nc")
}

// ReadFile reads a NetCDF CTD file and appends its rows to f. Each file
// is resolved on its own before it joins the rows f already holds.
func (c *CTD) ReadFile(f *hydro.File, r io.Reader) error {
	g, err := read(r, c.Options)
	if err != nil {
		return err
	}
	if err := formats.Finish(g, c.Options); err != nil {
		return err
	}
	aggregate(f, g, c.Logger())
	return nil
}

// WriteFile writes f, which must hold a CTDPRS column.
func (c *CTD) WriteFile(f *hydro.File, w io.Writer) error {
	return write(f, w, c.Options, "WOCE CTD", "")
}
