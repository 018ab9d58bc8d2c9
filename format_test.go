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

import "testing"

func TestParseFormat(t *testing.T) {
	tests := []struct {
		format string
		want   Verb
	}{
		{format: "%9.4f", want: Verb{Width: 9, Precision: 4, Kind: 'f'}},
		{format: "%-14s", want: Verb{Left: true, Width: 14, Precision: -1, Kind: 's'}},
		{format: "%6d", want: Verb{Width: 6, Precision: -1, Kind: 'd'}},
		{format: "", want: Verb{Precision: -1, Kind: 's'}},
		{format: "9.4f", want: Verb{Precision: -1, Kind: 's'}},
	}
	for _, test := range tests {
		if have := ParseFormat(test.format); have != test.want {
			t.Errorf("ParseFormat(%q): have %+v, want %+v", test.format, have, test.want)
		}
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		format string
		v      Value
		places int
		want   string
	}{
		{format: "%9.4f", v: Number{Float: 6.063, Places: 3}, places: -1, want: "    6.063"},
		{format: "%9.4f", v: Float(6.063), places: -1, want: "   6.0630"},
		{format: "%9.4f", v: Float(6.063), places: 2, want: "     6.06"},
		{format: "%9.4f", v: nil, places: -1, want: "-999.0000"},
		{format: "%9.1f", v: nil, places: 3, want: " -999.000"},
		{format: "%6s", v: Int(15), places: -1, want: "    15"},
		{format: "%6s", v: nil, places: -1, want: "  -999"},
		{format: "%5d", v: Float(14.6), places: -1, want: "   15"},
		{format: "%-14s", v: Text("33RR20070204"), places: -1, want: "33RR20070204  "},
		{format: "%3s", v: Text("LONGER"), places: -1, want: "LONGER"},
	}
	for _, test := range tests {
		have := ParseFormat(test.format).Format(test.v, test.places)
		if have != test.want {
			t.Errorf("%s of %v: have %q, want %q", test.format, test.v, have, test.want)
		}
	}
}
