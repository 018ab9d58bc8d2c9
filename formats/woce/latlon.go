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

package woce

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DecimalToLatitude formats decimal degrees as WOCE latitude text, e.g.
// "65 48.65 S".
func DecimalToLatitude(d float64) string {
	return toWOCE(d, "%2d %05.2f %s", "N", "S")
}

// DecimalToLongitude formats decimal degrees as WOCE longitude text, e.g.
// "84 33.01 E".
func DecimalToLongitude(d float64) string {
	return toWOCE(d, "%3d %05.2f %s", "E", "W")
}

func toWOCE(d float64, format, pos, neg string) string {
	hemi := pos
	if d < 0 {
		hemi = neg
	}
	a := math.Abs(d)
	deg := math.Floor(a)
	mins := (a - deg) * 60
	if math.Round(mins*100) >= 6000 {
		deg++
		mins = 0
	}
	return fmt.Sprintf(format, int(deg), mins, hemi)
}

// LatitudeToDecimal parses WOCE latitude text.
func LatitudeToDecimal(s string) (float64, error) {
	return fromWOCE(s, "N", "S", 90)
}

// LongitudeToDecimal parses WOCE longitude text.
func LongitudeToDecimal(s string) (float64, error) {
	return fromWOCE(s, "E", "W", 180)
}

func fromWOCE(s, pos, neg string, limit float64) (float64, error) {
	f := strings.Fields(s)
	if len(f) != 3 {
		return 0, fmt.Errorf("woce: expected degrees, minutes and hemisphere in %q", s)
	}
	deg, err := strconv.ParseFloat(f[0], 64)
	if err != nil {
		return 0, fmt.Errorf("woce: degrees in %q: %v", s, err)
	}
	mins, err := strconv.ParseFloat(f[1], 64)
	if err != nil {
		return 0, fmt.Errorf("woce: minutes in %q: %v", s, err)
	}
	d := deg + mins/60
	switch strings.ToUpper(f[2]) {
	case pos:
	case neg:
		d = -d
	default:
		return 0, fmt.Errorf("woce: hemisphere %q is not %s or %s", f[2], pos, neg)
	}
	if math.Abs(d) > limit {
		return 0, fmt.Errorf("woce: %q is out of range", s)
	}
	return d, nil
}
