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
	"testing"

	"github.com/kr/pretty"
)

func checkAligned(t *testing.T, c *Column) {
	t.Helper()
	if n := len(c.FlagsWOCE); n != 0 && n != c.Len() {
		t.Errorf("%s: %d WOCE flags for %d values", c.Parameter.Mnemonic, n, c.Len())
	}
	if n := len(c.FlagsIGOSS); n != 0 && n != c.Len() {
		t.Errorf("%s: %d IGOSS flags for %d values", c.Parameter.Mnemonic, n, c.Len())
	}
}

func TestColumnSparseExtension(t *testing.T) {
	c := NewColumn(NewContrivedParameter("CTDSAL", "PSS-78"))
	c.Append(Float(34.1), 2, NoFlag)
	c.Append(Float(34.2), 2, NoFlag)
	checkAligned(t, c)

	c.Set(5, Float(34.5))
	checkAligned(t, c)
	if c.Len() != 6 {
		t.Fatalf("length: have %d, want 6", c.Len())
	}
	for i := 2; i < 5; i++ {
		if c.Get(i) != nil {
			t.Errorf("value %d: have %v, want absent", i, c.Get(i))
		}
		if c.FlagWOCE(i) != NoFlag {
			t.Errorf("flag %d: have %d, want none", i, c.FlagWOCE(i))
		}
	}
	if c.Get(5) == nil {
		t.Error("value 5 missing")
	}
	if c.IsFlaggedIGOSS() {
		t.Error("IGOSS flags appeared without being set")
	}
}

func TestColumnLateFlags(t *testing.T) {
	c := NewColumn(NewContrivedParameter("CTDOXY", ""))
	c.Append(Float(1), NoFlag, NoFlag)
	c.Append(Float(2), NoFlag, NoFlag)
	c.SetFlagged(3, Float(4), 2, 1)
	checkAligned(t, c)
	want := []Flag{NoFlag, NoFlag, NoFlag, 2}
	if diff := pretty.Diff(c.FlagsWOCE, want); len(diff) > 0 {
		t.Errorf("WOCE flags: %v", diff)
	}
	c.SetLength(2)
	checkAligned(t, c)
	c.SetLength(4)
	checkAligned(t, c)
	if c.Get(3) != nil {
		t.Error("value survived truncation")
	}
}

func TestColumnIsGlobal(t *testing.T) {
	c := NewColumn(NewContrivedParameter("EXPOCODE", ""))
	if !c.IsGlobal() {
		t.Error("empty column should be global")
	}
	c.Append(Text("33RR20070204"), NoFlag, NoFlag)
	c.Append(Text("33RR20070204"), NoFlag, NoFlag)
	if !c.IsGlobal() {
		t.Error("constant column should be global")
	}
	c.Append(Text("33RR20070205"), NoFlag, NoFlag)
	if c.IsGlobal() {
		t.Error("varying column should not be global")
	}
}

func TestColumnDecimalPlaces(t *testing.T) {
	c := NewColumn(NewContrivedParameter("CTDOXY", ""))
	if c.DecimalPlaces() != -1 {
		t.Errorf("empty column: have %d", c.DecimalPlaces())
	}
	for _, s := range []string{"6.06", "6.063", "7"} {
		n, _ := ParseNumber(s)
		c.Append(n, NoFlag, NoFlag)
	}
	if c.DecimalPlaces() != 3 {
		t.Errorf("have %d, want 3", c.DecimalPlaces())
	}
}

func TestColumnLess(t *testing.T) {
	a := NewColumn(NewParameter(Parameter{Mnemonic: "EXPOCODE", DisplayOrder: 1}))
	b := NewColumn(NewParameter(Parameter{Mnemonic: "CTDPRS", DisplayOrder: 12}))
	c := NewColumn(NewContrivedParameter("_ODD", ""))
	d := &Column{}
	if !a.Less(b) || b.Less(a) {
		t.Error("display order not respected")
	}
	if !b.Less(c) || !b.Less(d) {
		t.Error("unresolved parameters should sort last")
	}
}
