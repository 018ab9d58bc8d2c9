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

	"github.com/hydroarchive/hydro"
	"github.com/hydroarchive/hydro/formats"
)

// Bottle reads and writes Bottle Exchange files.
type Bottle struct {
	formats.Options
}

// NewBottle returns a Bottle Exchange codec.
func NewBottle(o formats.Options) *Bottle { return &Bottle{Options: o} }

// ReadFile reads a Bottle Exchange file into f.
func (b *Bottle) ReadFile(f *hydro.File, r io.Reader) error {
	log := b.Logger()
	l := newLines(r)
	s, err := readStamp(l, "BOTTLE", log)
	if err != nil {
		return err
	}
	f.Stamp = s
	header, paramLine, err := readComments(l)
	if err != nil {
		return err
	}
	f.Header = header
	names, err := readColumns(f, l, paramLine, log)
	if err != nil {
		return err
	}
	if err := readData(f, l, names, log); err != nil {
		return err
	}
	normalize(f, log)
	return formats.Finish(f, b.Options)
}

// WriteFile writes f as a Bottle Exchange file.
func (b *Bottle) WriteFile(f *hydro.File, w io.Writer) error {
	log := b.Logger()
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "BOTTLE,%s\n", stamp(f, b.Options))
	if f.Header != "" {
		bw.WriteString("# Original header:\n")
		writeHeader(bw, f.Header)
	}
	v := hydro.SplitDateTime(f, b.Registry, log)
	for _, name := range []string{"STNNBR", "CASTNO", "BTLNBR"} {
		if !v.Has(name) {
			log.Warnf("missing %s column", name)
		}
	}
	if !v.Has("SAMPNO") {
		log.Warn("missing optional SAMPNO column")
	}
	writeData(bw, v, log)
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("exchange: writing bottle file: %v", err)
	}
	return nil
}
