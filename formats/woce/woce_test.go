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
	"bytes"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/hydroarchive/hydro"
	"github.com/hydroarchive/hydro/formats"
	"github.com/hydroarchive/hydro/registry"
	"github.com/kr/pretty"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

const ctdSample = `EXPOCODE 99XX19800101   WHP-ID XX00  DATE 010180
STNNBR 42       CASTNO 42  NO. Records=5
INSTRUMENT NO. 0     SAMPLING RATE 42.00  HZ
  CTDPRS  CTDTMP  CTDSAL  CTDOXY  NUMBER QUALT1
    DBAR  ITS-90  PSS-78 UMOL/KG    OBS.      *
 ******* ******* ******* *******              *
     3.0 28.7977 31.8503   209.5      42   2222
     5.0 28.7978 32.0889   208.6       9   2333
     7.0 28.7995 32.3976   210.8      41   2222
     9.0 28.8014 33.0838   212.1      64   2222
    11.0 28.8018 34.6452    -9.0     630   2349
`

func testOptions(t *testing.T) formats.Options {
	reg, err := registry.Default()
	if err != nil {
		t.Fatal(err)
	}
	return formats.Options{Registry: reg, Stamp: "SIOWHO"}
}

func TestParseLayout(t *testing.T) {
	recs := strings.Split(ctdSample, "\n")
	l, err := ParseLayout(recs[3], recs[4], recs[5], nil)
	if err != nil {
		t.Fatal(err)
	}
	want := &Layout{
		Names:   []string{"CTDPRS", "CTDTMP", "CTDSAL", "CTDOXY", "NUMBER"},
		Units:   []string{"DBAR", "ITS-90", "PSS-78", "UMOL/KG", "OBS."},
		Flagged: []bool{true, true, true, true, false},
		Columns: []Span{{0, 8}, {8, 8}, {16, 8}, {24, 8}, {32, 8}},
		Qualts:  []string{"QUALT1"},
		Quality: []Span{{40, 5}},
	}
	if diff := pretty.Diff(l, want); len(diff) > 0 {
		t.Error(strings.Join(diff, "\n"))
	}
	if l.NumFlagged() != 4 {
		t.Errorf("have %d flagged, want 4", l.NumFlagged())
	}
}

func TestParseLayoutTwoQualityWords(t *testing.T) {
	params := "  CTDPRS  CTDSAL QUALT1 QUALT2"
	stars := " ******* *******       *      *"
	l, err := ParseLayout(params, "", stars, nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(l.Quality, []Span{{16, 3}, {19, 3}}); len(diff) > 0 {
		t.Error(strings.Join(diff, "\n"))
	}
	f := hydro.NewFile()
	if err := f.CreateColumns(l.Names, []string{"", ""}, nil); err != nil {
		t.Fatal(err)
	}
	l.readLine(f, "     3.0 33.4536     23     44", 0, logrus.StandardLogger())
	if have := f.Column("CTDSAL").FlagWOCE(0); have != 3 {
		t.Errorf("QUALT1 should take precedence: have flag %d, want 3", have)
	}
}

func TestQualityWordWiderThanName(t *testing.T) {
	names := []string{"CTDPRS", "CTDTMP", "CTDSAL", "CTDOXY", "SALNTY", "OXYGEN", "SILCAT", "NITRAT"}
	units := []string{"DBAR", "ITS-90", "PSS-78", "UMOL/KG", "PSS-78", "UMOL/KG", "UMOL/KG", "UMOL/KG"}
	stars := make([]string, len(names))
	for i := range stars {
		stars[i] = "*******"
	}
	params := fields(names...) + " QUALT1"
	log, hook := test.NewNullLogger()
	l, err := ParseLayout(params, fields(units...)+"      *", fields(stars...)+"      *", log)
	if err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(l.Quality, []Span{{64, 9}}); len(diff) > 0 {
		t.Error(strings.Join(diff, "\n"))
	}

	f := hydro.NewFile()
	if err := f.CreateColumns(l.Names, l.Units, nil); err != nil {
		t.Fatal(err)
	}
	line := fields("3.0", "28.7977", "31.8503", "209.5", "31.8510", "210.1", "1.10", "0.05") + " 23456783"
	l.readLine(f, line, 0, log)
	want := []hydro.Flag{2, 3, 4, 5, 6, 7, 8, 3}
	for i, name := range names {
		if have := f.Column(name).FlagWOCE(0); have != want[i] {
			t.Errorf("%s flag: have %d, want %d", name, have, want[i])
		}
	}
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			t.Errorf("unexpected warning %q", e.Message)
		}
	}
}

func TestTwoQualityWordsAtDataWidth(t *testing.T) {
	names := []string{"CTDPRS", "CTDTMP", "CTDSAL", "OXYGEN"}
	params := fields(names...) + " QUALT1 QUALT2"
	stars := fields("", "*******", "*******", "*******") + "      *      *"
	l, err := ParseLayout(params, "", stars, nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(l.Quality, []Span{{32, 4}, {36, 4}}); len(diff) > 0 {
		t.Error(strings.Join(diff, "\n"))
	}
	f := hydro.NewFile()
	if err := f.CreateColumns(l.Names, make([]string, len(names)), nil); err != nil {
		t.Fatal(err)
	}
	l.readLine(f, fields("3.0", "-1.1066", "33.4536", "352.9")+" 234 999", 0, logrus.StandardLogger())
	for i, name := range names[1:] {
		if have, want := f.Column(name).FlagWOCE(0), hydro.Flag(i+2); have != want {
			t.Errorf("%s flag: have %d, want %d", name, have, want)
		}
	}
}

func TestParseLayoutErrors(t *testing.T) {
	log, hook := test.NewNullLogger()
	if _, err := ParseLayout("  CTDPRS  CTDPRS QUALT1", "", "", log); err == nil {
		t.Error("duplicate parameters should be an error")
	}
	hook.Reset()
	if _, err := ParseLayout("LONGNAME  CTDTMP QUALT1", "", "", log); err != nil {
		t.Fatal(err)
	}
	warned := false
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Data["parameter"] == "LONGNAME" {
			warned = true
		}
	}
	if !warned {
		t.Error("expected a warning for a token filling its field")
	}
}

func TestCTDRoundTrip(t *testing.T) {
	o := testOptions(t)
	f := hydro.NewFile()
	if err := NewCTD(o).ReadFile(f, strings.NewReader(ctdSample)); err != nil {
		t.Fatal(err)
	}
	if f.Len() != 5 {
		t.Fatalf("have %d rows, want 5", f.Len())
	}
	if f.Globals["STNNBR"] != hydro.Text("42") || f.Globals["SECT_ID"] != hydro.Text("XX00") {
		t.Errorf("globals: %# v", pretty.Formatter(f.Globals))
	}
	if f.Column("CTDTMP").FlagWOCE(1) != 3 {
		t.Errorf("CTDTMP flag: have %d, want 3", f.Column("CTDTMP").FlagWOCE(1))
	}
	oxy := f.Column("CTDOXY")
	if oxy.Get(4) != nil {
		t.Errorf("-9.0 should be absent, have %v", oxy.Get(4))
	}
	if f.Column("NUMBER").IsFlaggedWOCE() {
		t.Error("NUMBER has no asterisks and should not be flagged")
	}

	var b bytes.Buffer
	if err := NewCTD(o).WriteFile(f, &b); err != nil {
		t.Fatal(err)
	}
	have := strings.Split(b.String(), "\n")
	want := []string{
		"EXPOCODE 99XX19800101   WHP-ID XX00  DATE 010180",
		"STNNBR 42       CASTNO 42  NO. RECORDS=5    ",
		"INSTRUMENT NO. 0     SAMPLING RATE 42.00  HZ",
		"  CTDPRS  CTDTMP  CTDSAL  CTDOXY  NUMBER QUALT1",
		"    DBAR  ITS-90  PSS-78 UMOL/KG    OBS.      *",
		" ******* ******* ******* *******              *",
		"     3.0 28.7977 31.8503   209.5      42   2222",
		"     5.0 28.7978 32.0889   208.6       9   2333",
	}
	for i, w := range want {
		if have[i] != w {
			t.Errorf("line %d:\nhave %q\nwant %q", i+1, have[i], w)
		}
	}
	if last := have[10]; last != "    11.0 28.8018 34.6452    -9.0     630   2349" {
		t.Errorf("have %q", last)
	}
}

func fields(cells ...string) string {
	var b strings.Builder
	for _, c := range cells {
		fmt.Fprintf(&b, "%8s", c)
	}
	return b.String()
}

func bottleSample() string {
	return strings.Join([]string{
		"EXPOCODE 33RR20070204 WHP-ID I8S CRUISE DATES 021507 TO 031707 20071011WHPSIODBK",
		fields("STNNBR", "CASTNO", "SAMPNO", "BTLNBR", "CTDPRS", "CTDTMP", "CTDSAL", "OXYGEN") + " QUALT1",
		fields("", "", "", "", "DBAR", "ITS-90", "PSS-78", "UMOL/KG") + "      *",
		fields("", "", "", "*******", "", "", "*******", "*******") + "      *",
		fields("1", "1", "15", "15", "3.0", "-1.1066", "33.4536", "352.9") + "    222",
		fields("1", "1", "16", "16", "3.0", "-1.1112", "33.4642", "-9.0") + "    229",
		"",
	}, "\n")
}

func TestBottleRoundTrip(t *testing.T) {
	o := testOptions(t)
	f := hydro.NewFile()
	if err := NewBottle(o).ReadFile(f, strings.NewReader(bottleSample())); err != nil {
		t.Fatal(err)
	}
	if f.Stamp != "20071011WHPSIODBK" {
		t.Errorf("stamp: have %q", f.Stamp)
	}
	if v := f.Column("EXPOCODE").Get(1); v != hydro.Text("33RR20070204") {
		t.Errorf("EXPOCODE: have %#v", v)
	}
	if v := f.Column("OXYGEN").Get(1); v != nil {
		t.Errorf("OXYGEN: have %v, want absent", v)
	}
	if fl := f.Column("OXYGEN").FlagWOCE(1); fl != 9 {
		t.Errorf("OXYGEN flag: have %d, want 9", fl)
	}
	if f.Column("CTDPRS").IsFlaggedWOCE() {
		t.Error("CTDPRS should not be flagged")
	}

	var b bytes.Buffer
	if err := NewBottle(o).WriteFile(f, &b); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(b.String(), "\n")
	if !strings.HasPrefix(lines[0], "EXPOCODE 33RR20070204 WHP-ID I8S CRUISE DATES 021507 TO 031707 20071011WHPSIODBK") ||
		!strings.HasSuffix(lines[0], "*") {
		t.Errorf("record 1: have %q", lines[0])
	}
	g := hydro.NewFile()
	if err := NewBottle(o).ReadFile(g, &b); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"STNNBR", "SAMPNO", "CTDTMP", "CTDSAL", "OXYGEN"} {
		c, d := f.Column(name), g.Column(name)
		for i := range c.Values {
			if !hydro.Equal(c.Get(i), d.Get(i)) || c.FlagWOCE(i) != d.FlagWOCE(i) {
				t.Errorf("%s[%d]: have %v/%d, want %v/%d", name, i, d.Get(i), d.FlagWOCE(i), c.Get(i), c.FlagWOCE(i))
			}
		}
	}
}

func TestBottleMalformed(t *testing.T) {
	s := strings.Replace(bottleSample(), "CRUISE DATES", "DATES", 1)
	if err := NewBottle(formats.Options{}).ReadFile(hydro.NewFile(), strings.NewReader(s)); err == nil {
		t.Error("expected an error for a malformed record 1")
	}
	s = strings.Replace(bottleSample(), "CASTNO", "CASTNX", 1)
	if err := NewBottle(formats.Options{}).ReadFile(hydro.NewFile(), strings.NewReader(s)); err == nil {
		t.Error("expected an error without CASTNO")
	}
}

func TestLatLon(t *testing.T) {
	if have := DecimalToLatitude(-65.8108); have != "65 48.65 S" {
		t.Errorf("have %q", have)
	}
	if have := DecimalToLongitude(84.5502); have != " 84 33.01 E" {
		t.Errorf("have %q", have)
	}
	if have := DecimalToLongitude(-0.99999); have != "  1 00.00 W" {
		t.Errorf("have %q", have)
	}
	lat, err := LatitudeToDecimal("65 48.65 S")
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(lat+65.810833) > 1e-6 {
		t.Errorf("have %v", lat)
	}
	lon, err := LongitudeToDecimal(DecimalToLongitude(-150.25))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(lon+150.25) > 1e-9 {
		t.Errorf("have %v", lon)
	}
	for _, s := range []string{"65 48.65", "65 48.65 E", "95 00.00 N", "x 00.00 N"} {
		if _, err := LatitudeToDecimal(s); err == nil {
			t.Errorf("%q: expected an error", s)
		}
	}
}
