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
	"math"
	"regexp"
	"strconv"
	"strings"
)

var formatRe = regexp.MustCompile(`^%(-?)(\d*)(?:\.(\d+))?([a-zA-Z])$`)

// Verb is a parsed printf-style parameter format.
type Verb struct {
	Left      bool
	Width     int
	Precision int // -1 when not given
	Kind      byte
}

// ParseFormat parses a format such as "%9.4f". Unrecognized formats are
// treated as "%s".
func ParseFormat(format string) Verb {
	m := formatRe.FindStringSubmatch(strings.TrimSpace(format))
	if m == nil {
		return Verb{Precision: -1, Kind: 's'}
	}
	v := Verb{Left: m[1] == "-", Precision: -1, Kind: m[4][0]}
	v.Width, _ = strconv.Atoi(m[2])
	if m[3] != "" {
		v.Precision, _ = strconv.Atoi(m[3])
	}
	switch v.Kind {
	case 'f', 'F', 'e', 'E', 'g', 'G', 'd', 'i', 's':
	default:
		v.Kind = 's'
	}
	if v.Kind == 'F' {
		v.Kind = 'f'
	}
	return v
}

// Numeric reports whether the verb formats numbers.
func (v Verb) Numeric() bool { return v.Kind != 's' }

func (v Verb) pad(s string) string {
	if v.Left {
		return fmt.Sprintf("%-*s", v.Width, s)
	}
	return fmt.Sprintf("%*s", v.Width, s)
}

func (v Verb) number(f float64, places int) string {
	switch v.Kind {
	case 'd', 'i':
		return v.pad(strconv.FormatInt(int64(math.Round(f)), 10))
	case 'e', 'E', 'g', 'G':
		prec := v.Precision
		if places >= 0 {
			prec = places
		}
		return v.pad(strconv.FormatFloat(f, v.Kind, prec, 64))
	case 'f':
		prec := v.Precision
		if places >= 0 {
			prec = places
		}
		if prec < 0 {
			prec = 6
		}
		return v.pad(strconv.FormatFloat(f, 'f', prec, 64))
	}
	if places >= 0 {
		return v.pad(strconv.FormatFloat(f, 'f', places, 64))
	}
	return v.pad(strconv.FormatFloat(f, 'f', -1, 64))
}

// Fill returns the fill value formatted with the verb. places overrides
// the verb's precision when it is not negative.
func (v Verb) Fill(places int) string {
	if v.Kind == 's' {
		return v.pad(strconv.Itoa(int(FillValue)))
	}
	return v.number(FillValue, places)
}

// Format renders x with the verb. Numbers keep the decimal places they
// were read with; otherwise places, when not negative, or the verb's own
// precision is used. Absent values are rendered as the fill value.
func (v Verb) Format(x Value, places int) string {
	switch t := x.(type) {
	case nil:
		return v.Fill(places)
	case Number:
		if math.IsNaN(t.Float) {
			return v.Fill(places)
		}
		if t.Places >= 0 {
			places = t.Places
		}
		if v.Kind == 's' && t.Places < 0 && places < 0 {
			return v.pad(t.String())
		}
		return v.number(t.Float, places)
	case Text:
		return v.pad(string(t))
	}
	return v.pad(x.String())
}

// FormatValue renders x with the parameter's format. See Verb.Format.
func (p *Parameter) FormatValue(x Value, places int) string {
	return ParseFormat(p.Format).Format(x, places)
}
