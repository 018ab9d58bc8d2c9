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
	"strings"
	"time"

	"github.com/hydroarchive/hydro"
	"github.com/hydroarchive/hydro/formats"
	"github.com/sirupsen/logrus"
)

const dateLayout = "010206"

var bottleRecord1 = regexp.MustCompile(
	`^EXPOCODE\s*([\w/]+)\s*WHP.?ID\s*([\w/-]+(?:,[\w/-]+)*)\s*CRUISE DATES\s*(\d{6}) TO (\d{6})\s*(\d{8}\w+)?`)

// Bottle reads and writes WOCE bottle files.
type Bottle struct {
	formats.Options
}

// NewBottle returns a WOCE bottle codec.
func NewBottle(o formats.Options) *Bottle { return &Bottle{Options: o} }

type lines struct {
	sc *bufio.Scanner
}

func newLines(r io.Reader) *lines {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	return &lines{sc: sc}
}

func (l *lines) next() (string, bool, error) {
	if !l.sc.Scan() {
		return "", false, l.sc.Err()
	}
	return strings.TrimRight(l.sc.Text(), "\r"), true, nil
}

// records reads n header records.
func (l *lines) records(n int) ([]string, error) {
	out := make([]string, n)
	for i := range out {
		line, ok, err := l.next()
		if err != nil {
			return nil, fmt.Errorf("woce: reading record %d: %v", i+1, err)
		}
		if !ok {
			return nil, fmt.Errorf("woce: malformed header; file ends at record %d", i+1)
		}
		out[i] = line
	}
	return out, nil
}

// commentHeader keeps header records as Exchange style comments.
func commentHeader(records []string) string {
	var b strings.Builder
	for _, r := range records {
		b.WriteString("#")
		b.WriteString(r)
		b.WriteByte('\n')
	}
	return b.String()
}

// ReadFile reads a WOCE bottle file into f.
func (b *Bottle) ReadFile(f *hydro.File, r io.Reader) error {
	log := b.Logger()
	l := newLines(r)
	recs, err := l.records(4)
	if err != nil {
		return err
	}
	f.Header = commentHeader(recs)
	m := bottleRecord1.FindStringSubmatch(recs[0])
	if m == nil {
		return fmt.Errorf("woce: expected EXPOCODE, WHP-ID, CRUISE DATES and possibly a stamp in record 1, got %q", recs[0])
	}
	f.Globals["EXPOCODE"] = hydro.Text(m[1])
	f.Globals["SECT_ID"] = hydro.Text(m[2])
	f.Globals["_BEGIN_DATE"] = hydro.Text(m[3])
	f.Globals["_END_DATE"] = hydro.Text(m[4])
	f.Stamp = m[5]
	if !strings.Contains(recs[1], "STNNBR") || !strings.Contains(recs[1], "CASTNO") {
		return fmt.Errorf("woce: expected STNNBR and CASTNO in parameter record")
	}
	layout, err := ParseLayout(recs[1], recs[2], recs[3], log)
	if err != nil {
		return err
	}
	if err := readData(f, layout, l.next, log); err != nil {
		return err
	}
	n := f.Len()
	for _, name := range []string{"EXPOCODE", "SECT_ID"} {
		c := hydro.NewColumn(hydro.NewContrivedParameter(name, ""))
		for i := 0; i < n; i++ {
			c.Set(i, f.Globals[name])
		}
		f.AddColumn(c)
		delete(f.Globals, name)
	}
	for _, name := range []string{"DATE", "TIME"} {
		if !f.Has(name) {
			c := hydro.NewColumn(hydro.NewContrivedParameter(name, ""))
			c.SetLength(n)
			f.AddColumn(c)
		}
	}
	hydro.FuseDateTime(f, log)
	return formats.Finish(f, b.Options)
}

// cruiseDates returns the first and last sample dates as mmddyy.
func cruiseDates(f *hydro.File) (begin, end string) {
	var first, last time.Time
	if c := f.Column(hydro.DateTimeName); c != nil {
		for _, v := range c.Values {
			ts, ok := v.(hydro.Timestamp)
			if !ok {
				continue
			}
			t := ts.Time()
			if first.IsZero() || t.Before(first) {
				first = t
			}
			if last.IsZero() || t.After(last) {
				last = t
			}
		}
	}
	if first.IsZero() {
		return hydro.AsString(f.Globals["_BEGIN_DATE"]), hydro.AsString(f.Globals["_END_DATE"])
	}
	return first.Format(dateLayout), last.Format(dateLayout)
}

// cruiseValue returns a global, or the value of a column that holds only
// one value.
func cruiseValue(f *hydro.File, name string, log logrus.FieldLogger) string {
	if v, ok := f.Globals[name]; ok {
		return hydro.AsString(v)
	}
	c := f.Column(name)
	if c == nil || c.Len() == 0 {
		log.Warnf("missing %s", name)
		return ""
	}
	if !c.IsGlobal() {
		log.Warnf("%s differs between rows; writing the first", name)
	}
	return hydro.AsString(c.Get(0))
}

func stamp(f *hydro.File, o formats.Options) string {
	if f.Stamp != "" {
		return f.Stamp
	}
	return time.Now().UTC().Format("20060102") + o.Stamp
}

// WriteFile writes f as a WOCE bottle file.
func (b *Bottle) WriteFile(f *hydro.File, out io.Writer) error {
	log := b.Logger()
	w := newWriter(dataColumns(f))
	begin, end := cruiseDates(f)
	rec1 := fmt.Sprintf("EXPOCODE %-s WHP-ID %-s CRUISE DATES %6s TO %6s %-s",
		cruiseValue(f, "EXPOCODE", log), cruiseValue(f, "SECT_ID", log), begin, end, stamp(f, b.Options))
	if pad := w.recordLen() - 1 - len(rec1); pad > 0 {
		rec1 += strings.Repeat(" ", pad)
	}
	rec1 += "*"

	bw := bufio.NewWriter(out)
	fmt.Fprintln(bw, rec1)
	for _, rec := range w.header() {
		fmt.Fprintln(bw, rec)
	}
	for i := 0; i < f.Len(); i++ {
		fmt.Fprintln(bw, w.line(i))
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("woce: writing bottle file: %v", err)
	}
	return nil
}
