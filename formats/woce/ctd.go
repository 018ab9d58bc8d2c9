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
	"bufio"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/hydroarchive/hydro"
	"github.com/hydroarchive/hydro/formats"
)

var (
	ctdRecord1 = regexp.MustCompile(`^EXPOCODE\s*([\w/]+)\s*WHP.?ID\s*([\w/-]+(?:,[\w/-]+)*)\s*DATE\s*(\d{6})`)
	ctdRecord2 = regexp.MustCompile(`(?i)^STNNBR\s*(\S+)\s*CASTNO\s*(\S+)\s*NO\.\s*RECORDS\s*=\s*(\d+)`)
	ctdRecord3 = regexp.MustCompile(`^INSTRUMENT NO\.\s*(\S+)\s*SAMPLING RATE\s*([\d.]+)\s*HZ`)
)

// CTD reads and writes WOCE CTD files, one cast per file.
type CTD struct {
	formats.Options
}

// NewCTD returns a WOCE CTD codec.
func NewCTD(o formats.Options) *CTD { return &CTD{Options: o} }

// FileName returns the conventional name of a WOCE CTD file for f.
func FileName(f *hydro.File) string {
	return formats.CastFileName(f.CastKeyAt(0), ".wct")
}

// ReadFile reads a WOCE CTD file into f.
func (c *CTD) ReadFile(f *hydro.File, r io.Reader) error {
	log := c.Logger()
	l := newLines(r)
	recs, err := l.records(6)
	if err != nil {
		return err
	}
	f.Header = commentHeader(recs[:3])
	m := ctdRecord1.FindStringSubmatch(recs[0])
	if m == nil {
		return fmt.Errorf("woce: expected EXPOCODE, WHP-ID and DATE in record 1, got %q", recs[0])
	}
	date, err := time.Parse(dateLayout, m[3])
	if err != nil {
		return fmt.Errorf("woce: record 1 date: %v", err)
	}
	f.Globals["EXPOCODE"] = hydro.Text(m[1])
	f.Globals["SECT_ID"] = hydro.Text(m[2])
	f.Globals["DATE"] = hydro.Text(date.Format("20060102"))

	m = ctdRecord2.FindStringSubmatch(recs[1])
	if m == nil {
		return fmt.Errorf("woce: expected STNNBR, CASTNO and NO. RECORDS in record 2, got %q", recs[1])
	}
	f.Globals["STNNBR"] = hydro.Text(m[1])
	f.Globals["CASTNO"] = hydro.Text(m[2])
	records := m[3]

	m = ctdRecord3.FindStringSubmatch(recs[2])
	if m == nil {
		return fmt.Errorf("woce: expected INSTRUMENT NO. and SAMPLING RATE in record 3, got %q", recs[2])
	}
	f.Globals["_INSTRUMENT_ID"] = hydro.Text(m[1])
	f.Globals["_SAMPLING_RATE"] = hydro.ParseValue(m[2])

	layout, err := ParseLayout(recs[3], recs[4], recs[5], log)
	if err != nil {
		return err
	}
	if err := readData(f, layout, l.next, log); err != nil {
		return err
	}
	if fmt.Sprint(f.Len()) != records {
		log.WithField("declared", records).Warnf("read %d records", f.Len())
	}
	hydro.FuseDateTime(f, log)
	return formats.Finish(f, c.Options)
}

// WriteFile writes f as a WOCE CTD file.
func (c *CTD) WriteFile(f *hydro.File, out io.Writer) error {
	log := c.Logger()
	v := hydro.SplitDateTime(f, c.Registry, log)
	date := hydro.AsString(v.Globals["DATE"])
	if t, err := time.Parse("20060102", date); err == nil {
		date = t.Format(dateLayout)
	}
	rate, ok := hydro.AsFloat(v.Globals["_SAMPLING_RATE"])
	if !ok {
		rate = 0
	}
	bw := bufio.NewWriter(out)
	fmt.Fprintf(bw, "EXPOCODE %-14s WHP-ID %-5s DATE %6s\n",
		hydro.AsString(v.Globals["EXPOCODE"]), hydro.AsString(v.Globals["SECT_ID"]), date)
	fmt.Fprintf(bw, "STNNBR %-8s CASTNO %-3s NO. RECORDS=%-5d\n",
		hydro.AsString(v.Globals["STNNBR"]), hydro.AsString(v.Globals["CASTNO"]), v.Len())
	fmt.Fprintf(bw, "INSTRUMENT NO. %-5s SAMPLING RATE %-6.2f HZ\n",
		hydro.AsString(v.Globals["_INSTRUMENT_ID"]), rate)
	w := newWriter(dataColumns(v))
	for _, rec := range w.header() {
		fmt.Fprintln(bw, rec)
	}
	for i := 0; i < v.Len(); i++ {
		fmt.Fprintln(bw, w.line(i))
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("woce: writing CTD file: %v", err)
	}
	return nil
}
