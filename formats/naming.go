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

package formats

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/hydroarchive/hydro"
)

// CastFileName returns the conventional name of a file holding one cast:
// <expocode>_<station>_<cast><suffix>, with numeric station and cast
// numbers zero padded to five digits. A missing expedition code becomes
// UNKNOWN and whitespace becomes underscores.
func CastFileName(k hydro.CastKey, suffix string) string {
	expo := strings.TrimSpace(k.Expocode)
	if expo == "" {
		expo = "UNKNOWN"
	}
	name := fmt.Sprintf("%s_%s_%s%s", expo, pad5(k.Station), pad5(k.Cast), suffix)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '_'
		}
		return r
	}, name)
}

func pad5(s string) string {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseFloat(s, 64); err == nil && n == float64(int(n)) {
		return fmt.Sprintf("%05d", int(n))
	}
	if len(s) > 5 {
		return s[:5]
	}
	return fmt.Sprintf("%5s", s)
}

// Namer numbers casts whose station or cast is unknown.
type Namer struct {
	Suffix string
	n      int
}

// Name returns the member name for f. Casts with no station or cast
// number are numbered sequentially from 1.
func (n *Namer) Name(f *hydro.File) string {
	k := f.CastKeyAt(0)
	if strings.TrimSpace(k.Station) == "" || strings.TrimSpace(k.Cast) == "" {
		n.n++
		if strings.TrimSpace(k.Station) == "" {
			k.Station = strconv.Itoa(n.n)
		}
		if strings.TrimSpace(k.Cast) == "" {
			k.Cast = strconv.Itoa(n.n)
		}
	}
	return CastFileName(k, n.Suffix)
}
