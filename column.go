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

import "math"

// Column holds the values of one parameter along with their quality flags.
// Each flag array is either empty or exactly as long as Values.
type Column struct {
	Parameter  *Parameter
	Values     []Value
	FlagsWOCE  []Flag
	FlagsIGOSS []Flag
}

// NewColumn returns an empty column for p.
func NewColumn(p *Parameter) *Column {
	return &Column{Parameter: p}
}

// Len returns the number of values in the column.
func (c *Column) Len() int { return len(c.Values) }

// Get returns the value at i, or nil if i is past the end of the column.
func (c *Column) Get(i int) Value {
	if i < 0 || i >= len(c.Values) {
		return nil
	}
	return c.Values[i]
}

// FlagWOCE returns the WOCE flag at i, or NoFlag.
func (c *Column) FlagWOCE(i int) Flag {
	if i < 0 || i >= len(c.FlagsWOCE) {
		return NoFlag
	}
	return c.FlagsWOCE[i]
}

// FlagIGOSS returns the IGOSS flag at i, or NoFlag.
func (c *Column) FlagIGOSS(i int) Flag {
	if i < 0 || i >= len(c.FlagsIGOSS) {
		return NoFlag
	}
	return c.FlagsIGOSS[i]
}

// Set stores v at index i, extending the column with absent values if
// needed.
func (c *Column) Set(i int, v Value) {
	c.SetFlagged(i, v, NoFlag, NoFlag)
}

// SetFlagged stores v and its flags at index i. A flag of NoFlag leaves
// that flag array untouched apart from keeping it aligned.
func (c *Column) SetFlagged(i int, v Value, woce, igoss Flag) {
	c.extend(i + 1)
	c.Values[i] = v
	c.SetFlags(i, woce, igoss)
}

// SetFlags stores flags at index i without changing the value.
func (c *Column) SetFlags(i int, woce, igoss Flag) {
	c.extend(i + 1)
	if woce != NoFlag {
		c.FlagsWOCE = alignFlags(c.FlagsWOCE, len(c.Values))
		c.FlagsWOCE[i] = woce
	}
	if igoss != NoFlag {
		c.FlagsIGOSS = alignFlags(c.FlagsIGOSS, len(c.Values))
		c.FlagsIGOSS[i] = igoss
	}
}

// Append adds v and its flags to the end of the column.
func (c *Column) Append(v Value, woce, igoss Flag) {
	c.SetFlagged(len(c.Values), v, woce, igoss)
}

// SetLength truncates the column or pads it with absent values.
func (c *Column) SetLength(n int) {
	if n < len(c.Values) {
		c.Values = c.Values[:n]
		if len(c.FlagsWOCE) > 0 {
			c.FlagsWOCE = c.FlagsWOCE[:n]
		}
		if len(c.FlagsIGOSS) > 0 {
			c.FlagsIGOSS = c.FlagsIGOSS[:n]
		}
		return
	}
	c.extend(n)
}

// extend grows Values and any non-empty flag array to at least n.
func (c *Column) extend(n int) {
	for len(c.Values) < n {
		c.Values = append(c.Values, nil)
	}
	if len(c.FlagsWOCE) > 0 {
		c.FlagsWOCE = alignFlags(c.FlagsWOCE, len(c.Values))
	}
	if len(c.FlagsIGOSS) > 0 {
		c.FlagsIGOSS = alignFlags(c.FlagsIGOSS, len(c.Values))
	}
}

func alignFlags(f []Flag, n int) []Flag {
	for len(f) < n {
		f = append(f, NoFlag)
	}
	return f
}

// EnableFlags gives the column WOCE and/or IGOSS flag arrays filled with
// NoFlag where it has none, so that it is written as flagged.
func (c *Column) EnableFlags(woce, igoss bool) {
	if woce {
		c.FlagsWOCE = alignFlags(c.FlagsWOCE, len(c.Values))
	}
	if igoss {
		c.FlagsIGOSS = alignFlags(c.FlagsIGOSS, len(c.Values))
	}
}

// IsFlaggedWOCE reports whether the column carries WOCE flags.
func (c *Column) IsFlaggedWOCE() bool { return len(c.FlagsWOCE) > 0 }

// IsFlaggedIGOSS reports whether the column carries IGOSS flags.
func (c *Column) IsFlaggedIGOSS() bool { return len(c.FlagsIGOSS) > 0 }

// IsGlobal reports whether every value in the column is the same.
func (c *Column) IsGlobal() bool {
	for _, v := range c.Values[min(1, len(c.Values)):] {
		if !Equal(v, c.Values[0]) {
			return false
		}
	}
	return true
}

// DecimalPlaces returns the largest number of decimal places recorded on
// the column's numbers, or -1 if none was recorded.
func (c *Column) DecimalPlaces() int {
	places := -1
	for _, v := range c.Values {
		if n, ok := v.(Number); ok && n.Places > places {
			places = n.Places
		}
	}
	return places
}

// Floats returns the column's values as floats. Absent and non-numeric
// values are NaN.
func (c *Column) Floats() []float64 {
	out := make([]float64, len(c.Values))
	for i, v := range c.Values {
		f, ok := AsFloat(v)
		if !ok {
			f = math.NaN()
		}
		out[i] = f
	}
	return out
}

// Less orders columns by display order. Columns without a parameter sort
// last; ties break on mnemonic so the order is stable.
func (c *Column) Less(o *Column) bool {
	ci, oi := displayOrder(c), displayOrder(o)
	if ci != oi {
		return ci < oi
	}
	return mnemonic(c) < mnemonic(o)
}

func displayOrder(c *Column) int {
	if c == nil || c.Parameter == nil {
		return LastDisplayOrder
	}
	return c.Parameter.DisplayOrder
}

func mnemonic(c *Column) string {
	if c == nil || c.Parameter == nil {
		return ""
	}
	return c.Parameter.Mnemonic
}
