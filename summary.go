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

// SummaryColumns are the columns of a cruise summary, in order.
var SummaryColumns = []string{
	"EXPOCODE", "SECT_ID", "STNNBR", "CASTNO", "DATE", "TIME",
	"LATITUDE", "LONGITUDE", "DEPTH",
	"_CAST_TYPE", "_CODE", "_NAV", "_WIRE_OUT", "_ABOVE_BOTTOM",
	"_MAX_PRESSURE", "_NUM_BOTTLES", "_PARAMETERS", "_COMMENTS",
}

// SummaryFile is a File listing the casts of a cruise, one per row.
type SummaryFile struct {
	*File
}

// NewSummaryFile returns a SummaryFile with the summary columns in place.
// Columns whose names are not contrived are looked up in reg when reg is
// not nil.
func NewSummaryFile(reg Registry) *SummaryFile {
	f := NewFile()
	for i, name := range SummaryColumns {
		p := NewContrivedParameter(name, "")
		if reg != nil && !p.Marked() {
			if std, ok := reg.FindByMnemonic(name); ok {
				p = std
			}
		}
		if p.Contrived() {
			// Keep summary order for columns with no registered position.
			p.DisplayOrder = LastDisplayOrder - len(SummaryColumns) + i
		}
		f.AddColumn(NewColumn(p))
	}
	return &SummaryFile{File: f}
}

// Index returns the row describing the given station and cast, or -1.
func (s *SummaryFile) Index(station, cast string) int {
	stn, cst := s.Column("STNNBR"), s.Column("CASTNO")
	if stn == nil || cst == nil {
		return -1
	}
	for i := 0; i < s.Len(); i++ {
		if Equal(stn.Get(i), ParseValue(station)) && Equal(cst.Get(i), ParseValue(cast)) {
			return i
		}
	}
	return -1
}
