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

// Package woce reads and writes the fixed-width WOCE bottle and CTD
// formats.
package woce

import (
	"fmt"
	"strings"

	"github.com/hydroarchive/hydro"
	"github.com/sirupsen/logrus"
)

const (
	// FieldWidth is the width of every parameter field.
	FieldWidth = 8

	// FillValue marks absent data.
	FillValue = -9.0

	qualtPrefix = "QUALT"
)

// Span is a field position within a line.
type Span struct {
	Offset, Width int
}

// Cut returns the trimmed text of line within s. Parts of s past the end
// of line are empty.
func (s Span) Cut(line string) string {
	if s.Offset >= len(line) {
		return ""
	}
	end := s.Offset + s.Width
	if end > len(line) {
		end = len(line)
	}
	return strings.TrimSpace(line[s.Offset:end])
}

// Layout is the field layout of a WOCE data block, derived once from the
// header records and reused for every data line.
type Layout struct {
	Names   []string
	Units   []string
	Flagged []bool
	Columns []Span

	// Qualts names the quality words in file order, e.g. QUALT1.
	Qualts  []string
	Quality []Span
}

// NumFlagged returns the number of flagged columns, which is the number
// of digits in each quality word.
func (l *Layout) NumFlagged() int {
	n := 0
	for _, f := range l.Flagged {
		if f {
			n++
		}
	}
	return n
}

// ParseLayout derives the layout from the parameter, unit and asterisk
// records. Tokens too long to be separated from their neighbors are
// logged. Duplicate parameter names are an error.
func ParseLayout(params, units, asterisks string, log logrus.FieldLogger) (*Layout, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	tokens := strings.Fields(params)
	l := new(Layout)
	n := 0
	for _, t := range tokens {
		if !strings.HasPrefix(t, qualtPrefix) {
			n++
		}
	}
	// Quality word names follow the parameter fields.
	if end := n * FieldWidth; end < len(params) {
		for _, t := range strings.Fields(params[end:]) {
			if !strings.HasPrefix(t, qualtPrefix) {
				return nil, fmt.Errorf("woce: parameter %s after quality words", t)
			}
			l.Qualts = append(l.Qualts, t)
		}
	}

	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		s := Span{Offset: i * FieldWidth, Width: FieldWidth}
		name := s.Cut(params)
		if name == "" {
			return nil, fmt.Errorf("woce: blank parameter name in field %d", i+1)
		}
		if seen[name] {
			return nil, fmt.Errorf("woce: duplicate parameter %s would overwrite data", name)
		}
		seen[name] = true
		unit := s.Cut(units)
		stars := s.Cut(asterisks)
		for kind, tok := range map[string]string{"parameter": name, "unit": unit, "asterisk": stars} {
			if len(tok) >= FieldWidth {
				log.WithFields(logrus.Fields{kind: tok, "field": i + 1}).
					Warn("token fills its field and may run into its neighbor")
			}
		}
		l.Names = append(l.Names, name)
		l.Units = append(l.Units, unit)
		l.Flagged = append(l.Flagged, strings.Count(stars, "*") >= 2)
		l.Columns = append(l.Columns, s)
	}
	// Each quality word is a space and one digit per flagged column.
	w := 1 + l.NumFlagged()
	for k := range l.Qualts {
		l.Quality = append(l.Quality, Span{Offset: n*FieldWidth + k*w, Width: w})
	}
	return l, nil
}

// qualityWord picks the quality word that supplies flags. QUALT1 takes
// precedence; the other words are not read.
func (l *Layout) qualityWord(line string) (string, bool) {
	best := -1
	for i, q := range l.Qualts {
		if best < 0 || q < l.Qualts[best] {
			best = i
		}
	}
	if best < 0 {
		return "", false
	}
	// Writers right justify short words under their names, so words are
	// found by position only when they cannot be told apart by spacing.
	if end := len(l.Columns) * FieldWidth; end < len(line) {
		if words := strings.Fields(line[end:]); len(words) == len(l.Qualts) {
			return words[best], true
		}
	}
	return l.Quality[best].Cut(line), true
}

// readLine decodes one data line into the columns of f at row.
func (l *Layout) readLine(f *hydro.File, line string, row int, log logrus.FieldLogger) {
	word, hasWord := l.qualityWord(line)
	nf := l.NumFlagged()
	if hasWord && len(word) != nf {
		log.WithFields(logrus.Fields{"row": row, "quality": word, "flagged": nf}).
			Warn("quality word length differs from number of flagged columns")
	}
	k := 0
	for i, name := range l.Names {
		v := hydro.ParseValue(l.Columns[i].Cut(line))
		if _, ok := v.(hydro.Number); ok && hydro.IsOutOfBand(v, FillValue, hydro.DefaultTolerance) {
			v = nil
		}
		c := f.Columns[name]
		c.Set(row, v)
		if !l.Flagged[i] {
			continue
		}
		flag := hydro.NoFlag
		if hasWord && k < len(word) {
			if fl, ok := hydro.ParseFlag(word[k : k+1]); ok {
				flag = fl
			}
		}
		c.SetFlags(row, flag, hydro.NoFlag)
		k++
	}
}

// readData reads data lines until the end of input.
func readData(f *hydro.File, l *Layout, next func() (string, bool, error), log logrus.FieldLogger) error {
	if err := f.CreateColumns(l.Names, l.Units, log); err != nil {
		return fmt.Errorf("woce: %v", err)
	}
	row := 0
	for {
		line, ok, err := next()
		if err != nil {
			return fmt.Errorf("woce: reading data: %v", err)
		}
		if !ok {
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		l.readLine(f, line, row, log)
		row++
	}
	for i, name := range l.Names {
		c := f.Columns[name]
		c.SetLength(row)
		if l.Flagged[i] {
			c.EnableFlags(true, false)
		}
	}
	return nil
}

// excluded columns are carried in WOCE header records rather than data
// fields.
var excluded = map[string]bool{
	"EXPOCODE": true, "SECT_ID": true, "DATE": true, "TIME": true,
	"LATITUDE": true, "LONGITUDE": true, "DEPTH": true,
}

// dataColumns returns the columns of f written as data fields.
func dataColumns(f *hydro.File) []*hydro.Column {
	var cols []*hydro.Column
	for _, c := range f.SortedColumns() {
		if excluded[c.Parameter.Mnemonic] || c.Parameter.Marked() {
			continue
		}
		cols = append(cols, c)
	}
	return cols
}

// writer formats WOCE data blocks for a set of columns.
type writer struct {
	cols  []*hydro.Column
	verbs []hydro.Verb
	qw    int
}

func newWriter(cols []*hydro.Column) *writer {
	w := &writer{cols: cols}
	nf := 0
	for _, c := range cols {
		v := hydro.ParseFormat(c.Parameter.Format)
		v.Left = false
		v.Width = FieldWidth
		if identityColumns[c.Parameter.Mnemonic] || v.Kind == 's' {
			v.Kind, v.Precision = 'f', 0
			if p := c.DecimalPlaces(); p > 0 {
				v.Precision = p
			}
		}
		w.verbs = append(w.verbs, v)
		if c.IsFlaggedWOCE() {
			nf++
		}
	}
	w.qw = len(" " + qualtPrefix + "1")
	if nf+1 > w.qw {
		w.qw = nf + 1
	}
	return w
}

var identityColumns = map[string]bool{
	"STNNBR": true, "CASTNO": true, "SAMPNO": true, "BTLNBR": true,
}

// recordLen is the length of a data line.
func (w *writer) recordLen() int { return len(w.cols)*FieldWidth + w.qw }

// header returns the parameter, unit and asterisk records.
func (w *writer) header() []string {
	var params, units, stars strings.Builder
	for _, c := range w.cols {
		fmt.Fprintf(&params, "%8s", c.Parameter.Mnemonic)
		fmt.Fprintf(&units, "%8s", c.Parameter.Unit.String())
		if c.IsFlaggedWOCE() {
			fmt.Fprintf(&stars, "%8s", "*******")
		} else {
			stars.WriteString(strings.Repeat(" ", FieldWidth))
		}
	}
	fmt.Fprintf(&params, "%*s", w.qw, qualtPrefix+"1")
	fmt.Fprintf(&units, "%*s", w.qw, "*")
	fmt.Fprintf(&stars, "%*s", w.qw, "*")
	return []string{params.String(), units.String(), stars.String()}
}

// line returns data line i.
func (w *writer) line(i int) string {
	var b, q strings.Builder
	for k, c := range w.cols {
		v := c.Get(i)
		if _, ok := v.(hydro.Text); ok {
			fmt.Fprintf(&b, "%8.8s", v.String())
		} else if v == nil {
			b.WriteString(hydro.Verb{Width: FieldWidth, Precision: 1, Kind: 'f'}.Format(hydro.Float(FillValue), -1))
		} else {
			b.WriteString(w.verbs[k].Format(v, -1))
		}
		if c.IsFlaggedWOCE() {
			f := c.FlagWOCE(i)
			if f == hydro.NoFlag || f < 0 || f > 9 {
				f = 9
			}
			fmt.Fprintf(&q, "%d", int(f))
		}
	}
	fmt.Fprintf(&b, "%*s", w.qw, q.String())
	return b.String()
}
