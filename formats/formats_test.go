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
	"errors"
	"io"
	"testing"

	"github.com/hydroarchive/hydro"
)

type nopReader struct{}

func (nopReader) ReadFile(f *hydro.File, r io.Reader) error { return nil }

func testTable() *Table {
	return NewTable(
		&Format{
			Name:          "btl.ex",
			Extensions:    []string{"_hy1.csv", ".csv"},
			NewFileReader: func(Options) FileReader { return nopReader{} },
		},
		&Format{
			Name:       "ctd.zip.ex",
			Extensions: []string{"_ct1.zip"},
		},
	)
}

func TestDetect(t *testing.T) {
	tbl := testTable()
	tests := map[string]string{
		"33RR20070204_hy1.csv":      "btl.ex",
		"other.csv":                 "btl.ex",
		"33RR20070204_ct1.zip":      "ctd.zip.ex",
		"33RR20070204_ct1.zip.bak":  "",
		"33RR20070204_hy1.csv.orig": "",
	}
	for name, want := range tests {
		f, err := tbl.Detect(name)
		if want == "" {
			if !errors.Is(err, ErrUnknownFormat) {
				t.Errorf("%s: have error %v, want ErrUnknownFormat", name, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if f.Name != want {
			t.Errorf("%s: have %s, want %s", name, f.Name, want)
		}
	}
}

func TestNotSupported(t *testing.T) {
	tbl := testTable()
	if _, err := tbl.FileReader("btl.ex", Options{}); err != nil {
		t.Fatal(err)
	}
	if _, err := tbl.FileWriter("btl.ex", Options{}); !errors.Is(err, ErrNotSupported) {
		t.Errorf("have %v, want ErrNotSupported", err)
	}
	if _, err := tbl.CollectionReader("ctd.zip.ex", Options{}); !errors.Is(err, ErrNotSupported) {
		t.Errorf("have %v, want ErrNotSupported", err)
	}
	if _, err := tbl.FileReader("nope", Options{}); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("have %v, want ErrUnknownFormat", err)
	}
}

func TestRegisterTwice(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("registering a format twice should panic")
		}
	}()
	tbl := testTable()
	tbl.Register(&Format{Name: "btl.ex"})
}

func TestCastFileName(t *testing.T) {
	tests := []struct {
		k    hydro.CastKey
		want string
	}{
		{k: hydro.CastKey{Expocode: "33RR20070204", Station: "1", Cast: "2"}, want: "33RR20070204_00001_00002_ct1.csv"},
		{k: hydro.CastKey{Expocode: "", Station: "12.0", Cast: "1"}, want: "UNKNOWN_00012_00001_ct1.csv"},
		{k: hydro.CastKey{Expocode: "33RR 2007", Station: "A12", Cast: "STATIONX"}, want: "33RR_2007___A12_STATI_ct1.csv"},
	}
	for _, test := range tests {
		if have := CastFileName(test.k, "_ct1.csv"); have != test.want {
			t.Errorf("have %q, want %q", have, test.want)
		}
	}
}

func TestNamer(t *testing.T) {
	n := &Namer{Suffix: "_ctd.nc"}
	f := hydro.NewFile()
	f.Globals["EXPOCODE"] = hydro.Text("33RR20070204")
	if have, want := n.Name(f), "33RR20070204_00001_00001_ctd.nc"; have != want {
		t.Errorf("have %q, want %q", have, want)
	}
	if have, want := n.Name(f), "33RR20070204_00002_00002_ctd.nc"; have != want {
		t.Errorf("have %q, want %q", have, want)
	}
}

func TestCastName(t *testing.T) {
	f := hydro.NewFile()
	f.Globals["EXPOCODE"] = hydro.Text("33RR20070204")
	f.Globals["STNNBR"] = hydro.Text("1")
	f.Globals["CASTNO"] = hydro.Text("2")
	plain := &Format{Name: "btl.ex", Extensions: []string{"_hy1.csv"}}
	if have := plain.CastName(f); have != "33RR20070204_00001_00002_hy1.csv" {
		t.Errorf("have %s", have)
	}
	named := &Format{Name: "x", Namer: func(*hydro.File) string { return "fixed" }}
	if have := named.CastName(f); have != "fixed" {
		t.Errorf("have %s", have)
	}
}
