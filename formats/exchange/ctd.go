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
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/hydroarchive/hydro"
	"github.com/hydroarchive/hydro/formats"
)

// RequiredHeaders are written first, in this order, in CTD Exchange files.
var RequiredHeaders = []string{
	"EXPOCODE", "SECT_ID", "STNNBR", "CASTNO", "DATE", "TIME",
	"LATITUDE", "LONGITUDE", "DEPTH",
}

var (
	numberHeaders = regexp.MustCompile(`^NUMBER_HEADERS\s*=\s*(\d+)`)
	headerLine    = regexp.MustCompile(`^(\w+)\s*=\s*(.*)$`)
)

// numericHeaders are stored as numbers when they parse as numbers.
var numericHeaders = map[string]bool{
	"LATITUDE": true, "LONGITUDE": true, "DEPTH": true,
}

// CTD reads and writes CTD Exchange files. Each file holds one cast whose
// identity is carried in the header lines.
type CTD struct {
	formats.Options

	// HeaderOnly stops reading after the header lines.
	HeaderOnly bool
}

// NewCTD returns a CTD Exchange codec.
func NewCTD(o formats.Options) *CTD { return &CTD{Options: o} }

// FileName returns the conventional name of a CTD Exchange file for f.
func FileName(f *hydro.File) string {
	return formats.CastFileName(f.CastKeyAt(0), "_ct1.csv")
}

// ReadFile reads a CTD Exchange file into f.
func (c *CTD) ReadFile(f *hydro.File, r io.Reader) error {
	log := c.Logger()
	l := newLines(r)
	s, err := readStamp(l, "CTD", log)
	if err != nil {
		return err
	}
	f.Stamp = s
	header, line, err := readComments(l)
	if err != nil {
		return err
	}
	f.Header = header
	m := numberHeaders.FindStringSubmatch(line)
	if m == nil {
		return fmt.Errorf("exchange: expected NUMBER_HEADERS as the first non-comment line, got %q", line)
	}
	// NUMBER_HEADERS counts itself.
	n, _ := strconv.Atoi(m[1])
	for i := 0; i < n-1; i++ {
		line, ok, err := l.next()
		if err != nil {
			return fmt.Errorf("exchange: reading headers: %v", err)
		}
		hm := headerLine.FindStringSubmatch(strings.TrimSpace(line))
		if !ok || hm == nil {
			return fmt.Errorf("exchange: expected %d continuous headers but only saw %d", n-1, i)
		}
		key, val := hm[1], strings.TrimSpace(hm[2])
		switch {
		case val == "":
		case numericHeaders[key]:
			f.Globals[key] = hydro.ParseValue(val)
		default:
			f.Globals[key] = hydro.Text(val)
		}
	}
	hydro.FuseDateTime(f, log)
	if c.HeaderOnly {
		return nil
	}
	paramLine, ok, err := l.next()
	if err != nil {
		return fmt.Errorf("exchange: reading parameters: %v", err)
	}
	if !ok {
		return fmt.Errorf("exchange: unexpected end of file before parameters")
	}
	names, err := readColumns(f, l, paramLine, log)
	if err != nil {
		return err
	}
	if err := readData(f, l, names, log); err != nil {
		return err
	}
	return formats.Finish(f, c.Options)
}

// WriteFile writes f as a CTD Exchange file.
func (c *CTD) WriteFile(f *hydro.File, w io.Writer) error {
	log := c.Logger()
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "CTD,%s\n", stamp(f, c.Options))
	writeHeader(bw, f.Header)

	v := hydro.SplitDateTime(f, c.Registry, log)
	var keys []string
	required := make(map[string]bool, len(RequiredHeaders))
	for _, key := range RequiredHeaders {
		required[key] = true
		if _, ok := v.Globals[key]; !ok {
			log.Warnf("missing required header %s", key)
			continue
		}
		keys = append(keys, key)
	}
	for _, key := range v.GlobalNames() {
		if !required[key] {
			keys = append(keys, key)
		}
	}
	fmt.Fprintf(bw, "NUMBER_HEADERS = %d\n", len(keys)+1)
	for _, key := range keys {
		fmt.Fprintf(bw, "%s = %s\n", key, hydro.AsString(v.Globals[key]))
	}
	writeData(bw, v, log)
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("exchange: writing CTD file: %v", err)
	}
	return nil
}
