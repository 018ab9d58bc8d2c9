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
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Value is a single scalar held by a Column or stored as a File-level
// global attribute. It is one of Number, Text or Timestamp. A nil Value
// means the datum is absent.
type Value interface {
	String() string
	isValue()
}

// Number is a numeric Value. Places records the number of decimal places
// the number was written with when it was parsed from text, or -1 when
// the precision is unknown.
type Number struct {
	Float  float64
	Places int
}

// Float returns a Number of unknown precision.
func Float(f float64) Number { return Number{Float: f, Places: -1} }

// Int returns a Number with no decimal places.
func Int(i int) Number { return Number{Float: float64(i), Places: 0} }

// ParseNumber parses s as a decimal number, remembering how many decimal
// places it was written with.
func ParseNumber(s string) (Number, error) {
	s = strings.TrimSpace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Number{}, err
	}
	places := 0
	mantissa := s
	if i := strings.IndexAny(mantissa, "eE"); i >= 0 {
		mantissa = mantissa[:i]
		places = -1
	}
	if i := strings.IndexByte(mantissa, '.'); i >= 0 && places == 0 {
		places = len(mantissa) - i - 1
	}
	return Number{Float: f, Places: places}, nil
}

func (n Number) String() string {
	if n.Places < 0 {
		return strconv.FormatFloat(n.Float, 'f', -1, 64)
	}
	return strconv.FormatFloat(n.Float, 'f', n.Places, 64)
}

func (Number) isValue() {}

// Text is a string Value.
type Text string

func (t Text) String() string { return string(t) }

func (Text) isValue() {}

// Timestamp is a time Value, always stored in UTC.
type Timestamp time.Time

// Time returns the timestamp as a time.Time.
func (t Timestamp) Time() time.Time { return time.Time(t) }

func (t Timestamp) String() string { return time.Time(t).UTC().Format("2006-01-02T15:04:05Z") }

func (Timestamp) isValue() {}

// ParseValue interprets a raw text cell. Cells that parse as numbers become
// Numbers, everything else becomes Text. Empty cells are absent.
func ParseValue(s string) Value {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if n, err := ParseNumber(s); err == nil {
		return n
	}
	return Text(s)
}

// AsFloat returns the numeric content of v. Text is coerced when it holds a
// number. ok is false for absent or non-numeric values.
func AsFloat(v Value) (f float64, ok bool) {
	switch t := v.(type) {
	case Number:
		return t.Float, !math.IsNaN(t.Float)
	case Text:
		f, err := cast.ToFloat64E(strings.TrimSpace(string(t)))
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// AsString returns the textual form of v, or the empty string when v is
// absent.
func AsString(v Value) string {
	if v == nil {
		return ""
	}
	return v.String()
}

// Equal reports whether two values are the same. Values that are both
// numeric compare within Epsilon; absent values only equal each other.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if x, ok := a.(Timestamp); ok {
		y, ok := b.(Timestamp)
		return ok && x.Time().Equal(y.Time())
	}
	if x, ok := AsFloat(a); ok {
		if y, ok := AsFloat(b); ok {
			return EqualWithEpsilon(x, y, Epsilon)
		}
	}
	return a.String() == b.String()
}

// Flag is a WOCE or IGOSS quality code.
type Flag int

// NoFlag marks a position in a flag array that has no quality code.
const NoFlag Flag = -1

// ParseFlag interprets a raw flag cell. Blank or non-integer cells yield
// NoFlag.
func ParseFlag(s string) (Flag, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return NoFlag, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || IsOutOfBand(Number{Float: f}, FillValue, DefaultTolerance) {
		return NoFlag, false
	}
	return Flag(int(f)), true
}
