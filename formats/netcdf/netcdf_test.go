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


package netcdf

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/hydroarchive/hydro"
	"github.com/hydroarchive/hydro/formats"
	"github.com/hydroarchive/hydro/registry"
	"github.com/kr/pretty"
	"github.com/sirupsen/logrus/hooks/test"
)

var castTime = time.Date(2007, 2, 4, 12, 30, 0, 0, time.UTC)

func column(name, unit string, places int, values ...float64) *hydro.Column {
	c := hydro.NewColumn(hydro.NewContrivedParameter(name, unit))
	for _, v := range values {
		if v == hydro.FillValue {
			c.Append(nil, hydro.NoFlag, hydro.NoFlag)
			continue
		}
		c.Append(hydro.Number{Float: v, Places: places}, hydro.NoFlag, hydro.NoFlag)
	}
	return c
}

func ctdFile(station string, rows int) *hydro.File {
	f := hydro.NewFile()
	f.Header = "# test cast"
	f.Globals["EXPOCODE"] = hydro.Text("33RR20070204")
	f.Globals["SECT_ID"] = hydro.Text("I8S")
	f.Globals["STNNBR"] = hydro.Text(station)
	f.Globals["CASTNO"] = hydro.Text("2")
	f.Globals["LATITUDE"] = hydro.Number{Float: -33.5, Places: 4}
	f.Globals["LONGITUDE"] = hydro.Number{Float: 115.25, Places: 4}
	f.Globals["DEPTH"] = hydro.Int(4000)
	f.Globals[hydro.DateTimeName] = hydro.Timestamp(castTime)
	pres := make([]float64, rows)
	temp := make([]float64, rows)
	for i := range pres {
		pres[i] = float64(2 * i)
		temp[i] = 20 - float64(i)/4
	}
	f.AddColumn(column("CTDPRS", "DBAR", 1, pres...))
	f.AddColumn(column("CTDTMP", "ITS-90", 4, temp...))
	return f
}

func roundTrip(t *testing.T, codec interface {
	formats.FileReader
	formats.FileWriter
}, f *hydro.File) *hydro.File {
	var buf bytes.Buffer
	if err := codec.WriteFile(f, &buf); err != nil {
		t.Fatal(err)
	}
	g := hydro.NewFile()
	if err := codec.ReadFile(g, &buf); err != nil {
		t.Fatal(err)
	}
	return g
}

func TestCTDRoundTrip(t *testing.T) {
	f := ctdFile("1", 3)
	f.Column("CTDTMP").Set(2, nil)
	sal := column("CTDSAL", "PSS-78", 4, 34.5, 34.6, 34.7)
	sal.SetFlags(0, 2, hydro.NoFlag)
	sal.SetFlags(1, 3, hydro.NoFlag)
	f.AddColumn(sal)

	g := roundTrip(t, NewCTD(formats.Options{}), f)
	if g.Len() != 3 {
		t.Fatalf("have %d rows, want 3", g.Len())
	}
	if g.Header != f.Header {
		t.Errorf("header: have %q, want %q", g.Header, f.Header)
	}
	for k, want := range f.Globals {
		if have := g.Globals[k]; !hydro.Equal(have, want) {
			t.Errorf("global %s: have %v, want %v", k, have, want)
		}
	}
	for _, name := range []string{"LATITUDE", "STNNBR", "DATE"} {
		if g.Has(name) {
			t.Errorf("%s should not be a column", name)
		}
	}

	temp := g.Column("CTDTMP")
	if temp == nil {
		t.Fatal("missing CTDTMP")
	}
	if v := temp.Get(2); v != nil {
		t.Errorf("fill value read as %v", v)
	}
	if have := temp.Get(1).String(); have != "19.7500" {
		t.Errorf("CTDTMP[1]: have %s, want 19.7500", have)
	}
	if temp.IsFlaggedWOCE() {
		t.Error("CTDTMP should not be flagged")
	}
	if u := g.Column("CTDPRS").Parameter.Unit; u == nil || u.Mnemonic != "DBAR" {
		t.Errorf("CTDPRS unit: %v", u)
	}
	want := []hydro.Flag{2, 3, 9}
	if diff := pretty.Diff(g.Column("CTDSAL").FlagsWOCE, want); len(diff) > 0 {
		t.Error(strings.Join(diff, "\n"))
	}
}

func TestCTDRegistryRoundTrip(t *testing.T) {
	reg, err := registry.Default()
	if err != nil {
		t.Fatal(err)
	}
	o := formats.Options{Registry: reg}
	f := ctdFile("1", 4)
	if err := f.Resolve(reg, nil); err != nil {
		t.Fatal(err)
	}
	oxy := column("CTDOXY", "", 1, 210.1, 211.2, 212.3, 213.4)
	oxy.Parameter, _ = reg.FindByMnemonic("CTDOXY")
	f.AddColumn(oxy)

	g := roundTrip(t, NewCTD(o), f)
	for _, name := range []string{"CTDPRS", "CTDTMP", "CTDOXY"} {
		c := g.Column(name)
		if c == nil {
			t.Fatalf("missing %s; have %v", name, g.ColumnNames())
		}
		if c.Parameter.Contrived() {
			t.Errorf("%s was not resolved", name)
		}
	}
	if len(g.Changes) != 0 {
		t.Errorf("no conversion expected, have %v", g.Changes)
	}
	if have := g.Column("CTDOXY").Get(3).String(); have != "213.4" {
		t.Errorf("CTDOXY[3]: have %s", have)
	}
}

func TestSingleRowBecomesGlobal(t *testing.T) {
	f := ctdFile("1", 1)
	g := roundTrip(t, NewCTD(formats.Options{}), f)
	if g.Len() != 0 {
		t.Errorf("have %d rows, want 0", g.Len())
	}
	if v, ok := hydro.AsFloat(g.Globals["CTDTMP"]); !ok || v != 20 {
		t.Errorf("CTDTMP global: %v", g.Globals["CTDTMP"])
	}
}

func TestAggregate(t *testing.T) {
	a := ctdFile("1", 16)
	a.AddColumn(column("CTDFLUOR", "", 3, make([]float64, 16)...))
	b := ctdFile("2", 36)
	b.AddColumn(column("CTDXMISS", "", 3, make([]float64, 36)...))

	log, hook := test.NewNullLogger()
	c := NewCTD(formats.Options{Log: log})
	f := hydro.NewFile()
	for _, in := range []*hydro.File{a, b} {
		var buf bytes.Buffer
		if err := c.WriteFile(in, &buf); err != nil {
			t.Fatal(err)
		}
		if err := c.ReadFile(f, &buf); err != nil {
			t.Fatal(err)
		}
	}
	for name, col := range f.Columns {
		if col.Len() != 52 {
			t.Errorf("%s: have %d values, want 52", name, col.Len())
		}
	}
	fluor := f.Column("CTDFLUOR")
	for i := 16; i < 52; i++ {
		if fluor.Get(i) != nil {
			t.Fatalf("CTDFLUOR[%d] = %v, want absent", i, fluor.Get(i))
		}
	}
	xmiss := f.Column("CTDXMISS")
	for i := 0; i < 16; i++ {
		if xmiss.Get(i) != nil {
			t.Fatalf("CTDXMISS[%d] = %v, want absent", i, xmiss.Get(i))
		}
	}
	if have := hydro.AsString(f.Globals["STNNBR"]); have != "1" {
		t.Errorf("kept station %q, want 1", have)
	}
	warned := false
	for _, e := range hook.AllEntries() {
		if e.Message == "aggregated files disagree" && e.Data["global"] == "STNNBR" {
			warned = true
		}
	}
	if !warned {
		t.Error("expected a warning about the differing station")
	}
}

func TestAggregateConvertsEachFile(t *testing.T) {
	reg, err := registry.Default()
	if err != nil {
		t.Fatal(err)
	}
	log, _ := test.NewNullLogger()
	w := NewCTD(formats.Options{Log: log})
	c := NewCTD(formats.Options{Registry: reg, Log: log})
	f := hydro.NewFile()
	for _, station := range []string{"1", "2"} {
		in := ctdFile(station, 3)
		in.AddColumn(column("CTDOXY", "ML/L", 3, 6.063, 6.063, 6.063))
		var buf bytes.Buffer
		if err := w.WriteFile(in, &buf); err != nil {
			t.Fatal(err)
		}
		if err := c.ReadFile(f, &buf); err != nil {
			t.Fatal(err)
		}
	}
	oxy := f.Column("CTDOXY")
	if oxy == nil {
		t.Fatalf("missing CTDOXY; have %v", f.ColumnNames())
	}
	if u := oxy.Parameter.Unit; u == nil || u.Mnemonic != "UMOL/KG" {
		t.Errorf("unit: have %v", u)
	}
	if oxy.Len() != 6 {
		t.Fatalf("have %d values, want 6", oxy.Len())
	}
	for i := 0; i < 3; i++ {
		first, _ := hydro.AsFloat(oxy.Get(i))
		second, _ := hydro.AsFloat(oxy.Get(i + 3))
		if first < 200 || first > 300 {
			t.Errorf("CTDOXY[%d] = %v, want a value in UMOL/KG", i, first)
		}
		if math.Abs(first-second) > 1e-9 {
			t.Errorf("CTDOXY[%d] = %v, CTDOXY[%d] = %v; both files should be converted", i, first, i+3, second)
		}
	}
}

func TestWriteErrors(t *testing.T) {
	c := NewCTD(formats.Options{})
	var buf bytes.Buffer
	if err := c.WriteFile(hydro.NewFile(), &buf); !errors.Is(err, hydro.ErrNoRows) {
		t.Errorf("empty file: have %v", err)
	}
	f := ctdFile("1", 3)
	f.DeleteColumn("CTDPRS")
	if err := c.WriteFile(f, &buf); err == nil {
		t.Error("expected an error without CTDPRS")
	}
	f = ctdFile("1", 3)
	f.AddColumn(column("TIME", "", 0, 1, 2, 3))
	f.Column("TIME").Parameter.Mnemonic = "WOCE_TIME"
	if err := c.WriteFile(f, &buf); err == nil {
		t.Error("expected an error for a column named like a cast variable")
	}
}

func TestBottleRoundTrip(t *testing.T) {
	f := hydro.NewFile()
	f.Globals["EXPOCODE"] = hydro.Text("33RR20070204")
	f.AddColumn(column("CTDPRS", "DBAR", 1, 10, 20, 30))
	btl := column("BTLNBR", "", 0, 3, 2, 1)
	btl.SetFlags(1, 4, hydro.NoFlag)
	f.AddColumn(btl)
	stn := hydro.NewColumn(hydro.NewContrivedParameter("STNNBR", ""))
	cast := hydro.NewColumn(hydro.NewContrivedParameter("CASTNO", ""))
	dt := hydro.NewColumn(hydro.NewContrivedParameter(hydro.DateTimeName, ""))
	for i := 0; i < 3; i++ {
		stn.Append(hydro.Text("5"), hydro.NoFlag, hydro.NoFlag)
		cast.Append(hydro.Text("1"), hydro.NoFlag, hydro.NoFlag)
		dt.Append(hydro.Timestamp(castTime), hydro.NoFlag, hydro.NoFlag)
	}
	f.AddColumn(stn)
	f.AddColumn(cast)
	f.AddColumn(dt)

	b := NewBottle(formats.Options{})
	if have := b.FileName(f); have != "33RR20070204_00005_00001_hy1.nc" {
		t.Errorf("file name %s", have)
	}
	g := roundTrip(t, b, f)
	if g.Len() != 3 {
		t.Fatalf("have %d rows, want 3", g.Len())
	}
	for _, name := range []string{"EXPOCODE", "STNNBR", "CASTNO", hydro.DateTimeName} {
		c := g.Column(name)
		if c == nil {
			t.Fatalf("missing column %s", name)
		}
		if c.Len() != 3 || !c.IsGlobal() {
			t.Errorf("%s should repeat down 3 rows: %v", name, c.Values)
		}
		if _, ok := g.Globals[name]; ok {
			t.Errorf("%s should not remain a global", name)
		}
	}
	if have := g.Column(hydro.DateTimeName).Get(0); !hydro.Equal(have, hydro.Timestamp(castTime)) {
		t.Errorf("date time %v", have)
	}
	if have := g.Column("BTLNBR").FlagsWOCE; have[1] != 4 || have[0] != 9 {
		t.Errorf("BTLNBR flags %v", have)
	}
}

func TestFileName(t *testing.T) {
	f := ctdFile("12", 2)
	if have := NewCTD(formats.Options{}).FileName(f); have != "33RR20070204_00012_00002_ctd.nc" {
		t.Errorf("have %s", have)
	}
}

func TestNames(t *testing.T) {
	reg, err := registry.Default()
	if err != nil {
		t.Fatal(err)
	}
	for name, want := range map[string]string{
		"pressure": "CTDPRS",
		"TRANSM":   "XMISS",
		"silicate": "SILCAT",
		"ctdfluor": "CTDFLUOR",
	} {
		if have := Mnemonic(reg, name); have != want {
			t.Errorf("%s: have %s, want %s", name, have, want)
		}
	}
	for mnemonic, want := range map[string]string{
		"CTDSAL": "salinity",
		"CFC-11": "cfc_11",
	} {
		if have := VariableName(hydro.NewContrivedParameter(mnemonic, "")); have != want {
			t.Errorf("%s: have %s, want %s", mnemonic, have, want)
		}
	}
}
