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

// Package exchange reads and writes the comma-delimited Exchange format for
// bottle and CTD data.
package exchange

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hydroarchive/hydro"
	"github.com/hydroarchive/hydro/formats"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/charmap"
)

// EndData terminates the data block.
const EndData = "END_DATA"

var (
	idStamp = regexp.MustCompile(`^(BOTTLE|CTD),(\w+)`)
	stampRe = regexp.MustCompile(`^\d{8}\w+`)
)

// lines reads a file one line at a time and counts lines read.
type lines struct {
	sc *bufio.Scanner
	n  int
}

func newLines(r io.Reader) *lines {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	return &lines{sc: sc}
}

// next returns the next line without its line ending. ok is false at the
// end of input.
func (l *lines) next() (line string, ok bool, err error) {
	if !l.sc.Scan() {
		return "", false, l.sc.Err()
	}
	l.n++
	return strings.TrimRight(l.sc.Text(), "\r"), true, nil
}

// readStamp reads the identifier line and returns the stamp.
func readStamp(l *lines, ftype string, log logrus.FieldLogger) (string, error) {
	line, ok, err := l.next()
	if err != nil {
		return "", fmt.Errorf("exchange: reading identifier line: %v", err)
	}
	m := idStamp.FindStringSubmatch(line)
	if !ok || m == nil {
		return "", fmt.Errorf("exchange: expected identifier line with stamp (e.g. %s,YYYYMMDDdivINSwho), got %q", ftype, line)
	}
	if m[1] != ftype {
		return "", fmt.Errorf("exchange: expected file type %s, got %s", ftype, m[1])
	}
	if !stampRe.MatchString(m[2]) {
		log.WithField("stamp", m[2]).Warn("stamp does not match YYYYMMDDdivINSwho")
	}
	return m[2], nil
}

// readComments reads the leading comment lines into a header and returns
// the first line that is not a comment.
func readComments(l *lines) (header, next string, err error) {
	var b strings.Builder
	for {
		line, ok, err := l.next()
		if err != nil {
			return "", "", fmt.Errorf("exchange: reading header: %v", err)
		}
		if !ok {
			return "", "", fmt.Errorf("exchange: unexpected end of file in header")
		}
		if !strings.HasPrefix(line, "#") {
			return b.String(), line, nil
		}
		b.WriteString(decodeLine(line))
		b.WriteByte('\n')
	}
}

// decodeLine returns line as UTF-8. Lines that are not valid UTF-8 are
// taken to be ISO-8859-1.
func decodeLine(line string) string {
	if utf8.ValidString(line) {
		return line
	}
	s, err := charmap.ISO8859_1.NewDecoder().String(line)
	if err != nil {
		return line
	}
	return s
}

func splitRow(line string) []string {
	cells := strings.Split(strings.TrimSpace(line), ",")
	for i, c := range cells {
		cells[i] = strings.TrimSpace(c)
	}
	return cells
}

// readColumns reads the parameter and unit rows and creates the columns.
// Blank parameter names are dropped together with their units.
func readColumns(f *hydro.File, l *lines, paramLine string, log logrus.FieldLogger) ([]string, error) {
	unitLine, ok, err := l.next()
	if err != nil {
		return nil, fmt.Errorf("exchange: reading units: %v", err)
	}
	if !ok {
		return nil, fmt.Errorf("exchange: unexpected end of file before units")
	}
	names, units := splitRow(paramLine), splitRow(unitLine)
	if len(names) != len(units) {
		return nil, fmt.Errorf("exchange: expected as many columns as units; found %d columns and %d units",
			len(names), len(units))
	}
	var keepNames, keepUnits []string
	for i, n := range names {
		if n == "" {
			log.Warn("stripped blank parameter; the file may have a trailing comma")
			continue
		}
		keepNames = append(keepNames, n)
		keepUnits = append(keepUnits, units[i])
	}
	checkIdentity(keepNames, log)
	if err := f.CreateColumns(keepNames, keepUnits, log); err != nil {
		return nil, fmt.Errorf("exchange: %v", err)
	}
	for _, n := range keepNames {
		if base, _, ok := hydro.IsFlagName(n); ok && !f.Has(base) {
			return nil, fmt.Errorf("exchange: flag column %s has no data column", n)
		}
	}
	return names, nil
}

// checkIdentity logs which columns identify a sample. Files without a
// unique identifier are still accepted.
func checkIdentity(names []string, log logrus.FieldLogger) {
	has := make(map[string]bool, len(names))
	for _, n := range names {
		has[n] = true
	}
	if !has["EXPOCODE"] || !has["STNNBR"] || !has["CASTNO"] {
		return
	}
	id := []string{"STNNBR", "CASTNO"}
	switch {
	case has["SAMPNO"] && has["BTLNBR"]:
		id = append(id, "SAMPNO", "BTLNBR")
	case has["SAMPNO"]:
		id = append(id, "SAMPNO")
	case has["BTLNBR"]:
		id = append(id, "BTLNBR")
	default:
		log.Warn("no unique sample identifier (STNNBR,CASTNO,SAMPNO or BTLNBR)")
		return
	}
	log.WithField("identifier", strings.Join(id, ",")).Debug("found sample identifier")
}

// readData reads data rows until END_DATA. names are the raw header
// names, which may include blank names dropped by readColumns.
func readData(f *hydro.File, l *lines, names []string, log logrus.FieldLogger) error {
	row := 0
	for {
		line, ok, err := l.next()
		if err != nil {
			return fmt.Errorf("exchange: reading data: %v", err)
		}
		if !ok {
			log.Warn("missing END_DATA")
			break
		}
		line = strings.TrimSpace(line)
		if line == EndData {
			break
		}
		if line == "" {
			continue
		}
		cells := splitRow(line)
		if len(cells) != len(names) {
			return fmt.Errorf("exchange: expected as many columns as values; found %d columns and %d values at data line %d",
				len(names), len(cells), row+1)
		}
		for i, name := range names {
			if name == "" {
				continue
			}
			if base, woce, ok := hydro.IsFlagName(name); ok {
				flag, _ := hydro.ParseFlag(cells[i])
				if woce {
					f.Columns[base].SetFlags(row, flag, hydro.NoFlag)
				} else {
					f.Columns[base].SetFlags(row, hydro.NoFlag, flag)
				}
				continue
			}
			v := hydro.ParseValue(cells[i])
			if _, numeric := v.(hydro.Number); numeric && hydro.IsOutOfBand(v, hydro.FillValue, hydro.DefaultTolerance) {
				v = nil
			}
			f.Columns[name].Set(row, v)
		}
		row++
	}
	for _, name := range names {
		if base, woce, ok := hydro.IsFlagName(name); ok {
			c := f.Columns[base]
			c.SetLength(row)
			c.EnableFlags(woce, !woce)
		}
	}
	for _, c := range f.Columns {
		c.SetLength(row)
	}
	return nil
}

// normalize gives identity and position columns their expected types and
// fuses DATE and TIME.
func normalize(f *hydro.File, log logrus.FieldLogger) {
	for _, name := range []string{"EXPOCODE", "SECT_ID"} {
		if c := f.Column(name); c != nil {
			for i, v := range c.Values {
				if v != nil {
					c.Values[i] = hydro.Text(v.String())
				}
			}
		}
	}
	for _, name := range []string{"LATITUDE", "LONGITUDE"} {
		if c := f.Column(name); c != nil {
			for i, v := range c.Values {
				if t, ok := v.(hydro.Text); ok {
					n, err := hydro.ParseNumber(string(t))
					if err != nil {
						log.WithFields(logrus.Fields{"column": name, "row": i}).Warnf("non-numeric position %q", t)
						c.Values[i] = nil
						continue
					}
					c.Values[i] = n
				}
			}
		}
	}
	if len(f.Columns) > 0 {
		n := f.Len()
		for _, name := range []string{"DATE", "TIME"} {
			if !f.Has(name) {
				c := hydro.NewColumn(hydro.NewContrivedParameter(name, ""))
				c.SetLength(n)
				f.AddColumn(c)
			}
		}
	}
	hydro.FuseDateTime(f, log)
}

// stamp returns the stamp to write for f.
func stamp(f *hydro.File, o formats.Options) string {
	if f.Stamp != "" {
		return f.Stamp
	}
	return time.Now().UTC().Format("20060102") + o.Stamp
}

// identityColumns are written as integers when their values are whole.
var identityColumns = map[string]bool{
	"STNNBR": true, "CASTNO": true, "SAMPNO": true, "BTLNBR": true,
}

func integral(v hydro.Value) hydro.Value {
	n, ok := v.(hydro.Number)
	if !ok || n.Places == 0 || n.Float != math.Trunc(n.Float) {
		return v
	}
	return hydro.Number{Float: n.Float, Places: 0}
}

// writeData writes the parameter row, the unit row, the data rows and
// END_DATA.
func writeData(w *bufio.Writer, f *hydro.File, log logrus.FieldLogger) {
	cols := f.SortedColumns()
	var names, units []string
	for _, c := range cols {
		p := c.Parameter
		names = append(names, p.Mnemonic)
		units = append(units, p.Unit.String())
		if c.IsFlaggedWOCE() {
			names = append(names, p.Mnemonic+hydro.FlagSuffixWOCE)
			units = append(units, "")
		}
		if c.IsFlaggedIGOSS() {
			names = append(names, p.Mnemonic+hydro.FlagSuffixIGOSS)
			units = append(units, "")
		}
	}
	fmt.Fprintln(w, strings.Join(names, ","))
	fmt.Fprintln(w, strings.Join(units, ","))

	verbs := make([]hydro.Verb, len(cols))
	places := make([]int, len(cols))
	for i, c := range cols {
		verbs[i] = hydro.ParseFormat(c.Parameter.Format)
		places[i] = c.DecimalPlaces()
		if places[i] == 0 {
			places[i] = -1
		}
	}
	n := f.Len()
	cells := make([]string, 0, len(names))
	for row := 0; row < n; row++ {
		cells = cells[:0]
		for i, c := range cols {
			v := c.Get(row)
			if identityColumns[c.Parameter.Mnemonic] {
				v = integral(v)
			}
			cells = append(cells, verbs[i].Format(v, places[i]))
			if c.IsFlaggedWOCE() {
				cells = append(cells, flagCell(c.FlagWOCE(row)))
			}
			if c.IsFlaggedIGOSS() {
				cells = append(cells, flagCell(c.FlagIGOSS(row)))
			}
		}
		fmt.Fprintln(w, strings.Join(cells, ","))
	}
	fmt.Fprintln(w, EndData)
}

// flagCell formats a flag. Missing flags are written as 9, sample not
// drawn.
func flagCell(f hydro.Flag) string {
	if f == hydro.NoFlag {
		return "9"
	}
	return fmt.Sprintf("%1d", int(f))
}

func writeHeader(w *bufio.Writer, header string) {
	if header == "" {
		return
	}
	w.WriteString(header)
	if !strings.HasSuffix(header, "\n") {
		w.WriteByte('\n')
	}
}
