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

package exchange

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/hydroarchive/hydro"
	"github.com/hydroarchive/hydro/formats"
	"github.com/hydroarchive/hydro/registry"
)

func different(a, b, tolerance float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

const bottleSample = `BOTTLE,20071011WHPSIODBK
#code : jjward hyd_to_exchange.pl
#original HYD file: i08s_33RR20070204hy.txt
EXPOCODE,SECT_ID,STNNBR,CASTNO,SAMPNO,BTLNBR,BTLNBR_FLAG_W,DATE,TIME,LATITUDE,LONGITUDE,DEPTH,CTDPRS,CTDTMP,CTDSAL,CTDSAL_FLAG_W,CFC-11,CFC-11_FLAG_W,OXYGEN,OXYGEN_FLAG_W
,,,,,,,,,,,METERS,DBAR,ITS-90,PSS-78,,PMOL/KG,,UMOL/KG,
  33RR20070204,   I8S,     1,  1,     15,     15,2,20070215,1442,-65.8108,  84.5502,  450,    3.0,  -1.1066,  33.4536,2,    6.063,2,    352.9,2
  33RR20070204,   I8S,     1,  1,     16,     16,2,20070215,1442,-65.8108,  84.5502,  450,    3.0,  -1.1112,  33.4642,2,    6.055,2,   -999.0,9
END_DATA
`

func testOptions(t *testing.T) formats.Options {
	reg, err := registry.Default()
	if err != nil {
		t.Fatal(err)
	}
	return formats.Options{Registry: reg, Stamp: "SIOWHO"}
}

func readBottle(t *testing.T, o formats.Options, s string) *hydro.File {
	f := hydro.NewFile()
	if err := NewBottle(o).ReadFile(f, strings.NewReader(s)); err != nil {
		t.Fatal(err)
	}
	return f
}

func checkBottle(t *testing.T, f *hydro.File) {
	t.Helper()
	if f.Len() != 2 {
		t.Fatalf("have %d rows, want 2", f.Len())
	}
	if v := f.Column("EXPOCODE").Get(0); v != hydro.Text("33RR20070204") {
		t.Errorf("EXPOCODE: have %#v", v)
	}
	sal := f.Column("CTDSAL")
	if sal.FlagWOCE(0) != 2 {
		t.Errorf("CTDSAL flag: have %d, want 2", sal.FlagWOCE(0))
	}
	if len(sal.FlagsWOCE) != sal.Len() {
		t.Errorf("CTDSAL flags not aligned: %d flags, %d values", len(sal.FlagsWOCE), sal.Len())
	}
	cfc := f.Column("CFC-11")
	if v := cfc.Get(0); v != (hydro.Number{Float: 6.063, Places: 3}) {
		t.Errorf("CFC-11: have %#v, want 6.063", v)
	}
	if v := f.Column("OXYGEN").Get(1); v != nil {
		t.Errorf("fill value should be absent, have %#v", v)
	}
	if f.Has("DATE") || f.Has("TIME") {
		t.Error("DATE and TIME should be fused")
	}
	dt, ok := f.Column(hydro.DateTimeName).Get(0).(hydro.Timestamp)
	if !ok {
		t.Fatalf("%s: have %#v", hydro.DateTimeName, f.Column(hydro.DateTimeName).Get(0))
	}
	if want := time.Date(2007, 2, 15, 14, 42, 0, 0, time.UTC); !dt.Time().Equal(want) {
		t.Errorf("have %v, want %v", dt.Time(), want)
	}
	if c := f.Column("BTLNBR"); c.Parameter.Contrived() {
		t.Error("BTLNBR was not resolved")
	}
}

func TestBottleRead(t *testing.T) {
	o := testOptions(t)
	f := readBottle(t, o, bottleSample)
	checkBottle(t, f)
	if f.Stamp != "20071011WHPSIODBK" {
		t.Errorf("stamp: have %q", f.Stamp)
	}
	if !strings.HasPrefix(f.Header, "#code : jjward") {
		t.Errorf("header: have %q", f.Header)
	}
}

func TestBottleRoundTrip(t *testing.T) {
	o := testOptions(t)
	f := readBottle(t, o, bottleSample)
	var b bytes.Buffer
	if err := NewBottle(o).WriteFile(f, &b); err != nil {
		t.Fatal(err)
	}
	out := b.String()
	lines := strings.Split(out, "\n")
	if lines[0] != "BOTTLE,20071011WHPSIODBK" {
		t.Errorf("stamp line: have %q", lines[0])
	}
	if lines[1] != "# Original header:" {
		t.Errorf("have %q, want original header marker", lines[1])
	}
	if !strings.Contains(out, "    6.063,2") {
		t.Errorf("CFC-11 did not keep its precision:\n%s", out)
	}
	if !strings.Contains(out, "   -999.0,9") {
		t.Errorf("missing fill value for absent oxygen:\n%s", out)
	}
	if !strings.HasSuffix(out, EndData+"\n") {
		t.Errorf("output does not end with %s", EndData)
	}
	g := readBottle(t, o, out)
	checkBottle(t, g)
	for name, c := range f.Columns {
		d := g.Column(name)
		if d == nil {
			t.Errorf("column %s lost in round trip", name)
			continue
		}
		for i := range c.Values {
			if !hydro.Equal(c.Get(i), d.Get(i)) {
				t.Errorf("%s[%d]: have %v, want %v", name, i, d.Get(i), c.Get(i))
			}
		}
	}
}

func TestBottleWriteStamp(t *testing.T) {
	o := testOptions(t)
	f := readBottle(t, o, bottleSample)
	f.Stamp = ""
	var b bytes.Buffer
	if err := NewBottle(o).WriteFile(f, &b); err != nil {
		t.Fatal(err)
	}
	first := strings.SplitN(b.String(), "\n", 2)[0]
	if !stampRe.MatchString(strings.TrimPrefix(first, "BOTTLE,")) || !strings.HasSuffix(first, "SIOWHO") {
		t.Errorf("have stamp line %q", first)
	}
}

func TestBottleOxygenConversion(t *testing.T) {
	o := testOptions(t)
	const s = `BOTTLE,20071011WHPSIODBK
STNNBR,CASTNO,CTDSAL,CTDTMP,OXYGEN,OXYGEN_FLAG_W
,,PSS-78,ITS-90,ML/L,
1,1,34.8,25.0,6.063,2
END_DATA
`
	f := readBottle(t, o, s)
	oxy := f.Column("OXYGEN")
	x, ok := hydro.AsFloat(oxy.Get(0))
	if !ok || different(x, 264.6290901816604, 1e-9) {
		t.Errorf("have %v, want 264.629", oxy.Get(0))
	}
	if oxy.Parameter.Unit.Mnemonic != "UMOL/KG" {
		t.Errorf("unit: have %s", oxy.Parameter.Unit)
	}
	if oxy.FlagWOCE(0) != 2 {
		t.Errorf("flag: have %d", oxy.FlagWOCE(0))
	}
	if len(f.Changes) != 1 {
		t.Errorf("changes: %v", f.Changes)
	}
}

func TestBottleErrors(t *testing.T) {
	tests := map[string]string{
		"stamp": "20071011WHPSIODBK\nSTNNBR\n\n1\nEND_DATA\n",
		"type":  "CTD,20071011WHPSIODBK\nSTNNBR\n\n1\nEND_DATA\n",
		"units": "BOTTLE,20071011WHPSIODBK\nSTNNBR,CASTNO\n\n1,1\nEND_DATA\n",
		"values": "BOTTLE,20071011WHPSIODBK\nSTNNBR,CASTNO\n,\n1,1,1\nEND_DATA\n",
		"flag":   "BOTTLE,20071011WHPSIODBK\nSTNNBR,CTDSAL_FLAG_W\n,\n1,2\nEND_DATA\n",
	}
	for name, s := range tests {
		t.Run(name, func(t *testing.T) {
			f := hydro.NewFile()
			if err := NewBottle(formats.Options{}).ReadFile(f, strings.NewReader(s)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestBottleIllegalFlag(t *testing.T) {
	const s = `BOTTLE,20071011WHPSIODBK
STNNBR,CTDSAL,CTDSAL_FLAG_W
,PSS-78,
1,33.4536,-999
2,33.4642,-999
END_DATA
`
	f := readBottle(t, formats.Options{}, s)
	c := f.Column("CTDSAL")
	if len(c.FlagsWOCE) != c.Len() {
		t.Errorf("have %d flags for %d values", len(c.FlagsWOCE), c.Len())
	}
	if c.FlagWOCE(0) != hydro.NoFlag {
		t.Errorf("have flag %d, want none", c.FlagWOCE(0))
	}
}

func TestLatin1Header(t *testing.T) {
	s := "BOTTLE,20071011WHPSIODBK\n# caf\xe9\nSTNNBR\n\n1\nEND_DATA\n"
	f := readBottle(t, formats.Options{}, s)
	if f.Header != "# café\n" {
		t.Errorf("have header %q", f.Header)
	}
}

const ctdSample = `CTD,20070204SIOWHO
#comment
NUMBER_HEADERS = 10
EXPOCODE = 33RR20070204
SECT_ID = I8S
STNNBR = 1
CASTNO = 2
DATE = 20070215
TIME = 0530
LATITUDE = -65.8108
LONGITUDE = 84.5502
DEPTH = 450
CTDPRS,CTDPRS_FLAG_W,CTDTMP,CTDTMP_FLAG_W,CTDSAL,CTDSAL_FLAG_W
DBAR,,ITS-90,,PSS-78,
2.0,2,-1.1066,2,33.4536,2
4.0,2,-1.1070,2,-999.0000,9
END_DATA
`

func TestCTDRoundTrip(t *testing.T) {
	o := testOptions(t)
	f := hydro.NewFile()
	if err := NewCTD(o).ReadFile(f, strings.NewReader(ctdSample)); err != nil {
		t.Fatal(err)
	}
	if v := f.Globals["STNNBR"]; v != hydro.Text("1") {
		t.Errorf("STNNBR: have %#v", v)
	}
	if v := f.Globals["LATITUDE"]; v != (hydro.Number{Float: -65.8108, Places: 4}) {
		t.Errorf("LATITUDE: have %#v", v)
	}
	dt, ok := f.Globals[hydro.DateTimeName].(hydro.Timestamp)
	if !ok || !dt.Time().Equal(time.Date(2007, 2, 15, 5, 30, 0, 0, time.UTC)) {
		t.Errorf("datetime: have %#v", f.Globals[hydro.DateTimeName])
	}
	if v := f.Column("CTDSAL").Get(1); v != nil {
		t.Errorf("have %v, want absent", v)
	}

	var b bytes.Buffer
	if err := NewCTD(o).WriteFile(f, &b); err != nil {
		t.Fatal(err)
	}
	want := `CTD,20070204SIOWHO
#comment
NUMBER_HEADERS = 10
EXPOCODE = 33RR20070204
SECT_ID = I8S
STNNBR = 1
CASTNO = 2
DATE = 20070215
TIME = 0530
LATITUDE = -65.8108
LONGITUDE = 84.5502
DEPTH = 450
CTDPRS,CTDPRS_FLAG_W,CTDTMP,CTDTMP_FLAG_W,CTDSAL,CTDSAL_FLAG_W
DBAR,,ITS-90,,PSS-78,
      2.0,2,  -1.1066,2,  33.4536,2
      4.0,2,  -1.1070,2,-999.0000,9
END_DATA
`
	if have := b.String(); have != want {
		t.Errorf("have\n%s\nwant\n%s", have, want)
	}
	if name, want := FileName(f), "33RR20070204_00001_00002_ct1.csv"; name != want {
		t.Errorf("file name: have %s, want %s", name, want)
	}
}

func TestCTDHeaderOnly(t *testing.T) {
	f := hydro.NewFile()
	c := &CTD{HeaderOnly: true}
	if err := c.ReadFile(f, strings.NewReader(ctdSample)); err != nil {
		t.Fatal(err)
	}
	if len(f.Columns) != 0 {
		t.Errorf("have %d columns, want none", len(f.Columns))
	}
	if f.Globals["EXPOCODE"] != hydro.Text("33RR20070204") {
		t.Errorf("EXPOCODE: have %#v", f.Globals["EXPOCODE"])
	}
}

func TestCTDMissingNumberHeaders(t *testing.T) {
	s := "CTD,20070204SIOWHO\nEXPOCODE = 33RR20070204\n"
	if err := NewCTD(formats.Options{}).ReadFile(hydro.NewFile(), strings.NewReader(s)); err == nil {
		t.Error("expected an error")
	}
}
