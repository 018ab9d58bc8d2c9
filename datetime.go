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

package hydro

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DateTimeName is the contrived column and global holding the fused date
// and time of a sample or cast.
const DateTimeName = ContrivedMarker + "DATETIME"

const (
	dateLayout = "20060102"
	timeLayout = "1504"
)

// ParseDateTime combines a yyyymmdd date and an hhmm time. A blank time is
// midnight.
func ParseDateTime(date, clock string) (time.Time, error) {
	date = strings.Replace(strings.TrimSpace(date), "-", "", -1)
	if i := strings.IndexByte(date, '.'); i >= 0 {
		date = date[:i]
	}
	clock = strings.TrimSpace(clock)
	if i := strings.IndexByte(clock, '.'); i >= 0 {
		clock = clock[:i]
	}
	if clock == "" {
		clock = "0000"
	}
	for len(clock) < 4 {
		clock = "0" + clock
	}
	t, err := time.Parse(dateLayout+timeLayout, date+clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("hydro: parsing date %q time %q: %v", date, clock, err)
	}
	return t, nil
}

// FuseDateTime replaces the DATE and TIME columns of f with a single
// _DATETIME column, and likewise for the DATE and TIME globals. Rows whose
// date cannot be parsed become absent.
func FuseDateTime(f *File, log logrus.FieldLogger) {
	log = logger(log)
	if date := f.Column("DATE"); date != nil {
		clock := f.Column("TIME")
		dt := NewColumn(NewContrivedParameter(DateTimeName, ""))
		n := date.Len()
		for i := 0; i < n; i++ {
			d := date.Get(i)
			if d == nil {
				dt.Set(i, nil)
				continue
			}
			var c Value
			if clock != nil {
				c = clock.Get(i)
			}
			t, err := ParseDateTime(AsString(d), AsString(c))
			if err != nil {
				log.WithField("row", i).Warn(err)
				dt.Set(i, nil)
				continue
			}
			dt.Set(i, Timestamp(t))
		}
		f.DeleteColumn("DATE")
		f.DeleteColumn("TIME")
		f.AddColumn(dt)
	}
	if d, ok := f.Globals["DATE"]; ok {
		t, err := ParseDateTime(AsString(d), AsString(f.Globals["TIME"]))
		if err != nil {
			log.Warn(err)
			return
		}
		delete(f.Globals, "DATE")
		delete(f.Globals, "TIME")
		f.Globals[DateTimeName] = Timestamp(t)
	}
}

// SplitDateTime returns a view of f in which the _DATETIME column and
// global are split back into DATE and TIME. f is not modified.
func SplitDateTime(f *File, reg Registry, log logrus.FieldLogger) *File {
	v := f.View()
	if dt := v.Column(DateTimeName); dt != nil {
		date := NewColumn(lookupOrContrive(reg, "DATE", log))
		clock := NewColumn(lookupOrContrive(reg, "TIME", log))
		for i, x := range dt.Values {
			ts, ok := x.(Timestamp)
			if !ok {
				date.Set(i, nil)
				clock.Set(i, nil)
				continue
			}
			t := ts.Time().UTC()
			date.Set(i, Text(t.Format(dateLayout)))
			clock.Set(i, Text(t.Format(timeLayout)))
		}
		v.DeleteColumn(DateTimeName)
		v.Columns["DATE"] = date
		v.Columns["TIME"] = clock
	}
	if x, ok := v.Globals[DateTimeName].(Timestamp); ok {
		t := x.Time().UTC()
		v.Globals["DATE"] = Text(t.Format(dateLayout))
		v.Globals["TIME"] = Text(t.Format(timeLayout))
		delete(v.Globals, DateTimeName)
	}
	return v
}

func lookupOrContrive(reg Registry, name string, log logrus.FieldLogger) *Parameter {
	if reg != nil {
		if p, ok := FindParameter(reg, name, log); ok {
			return p
		}
	}
	return NewContrivedParameter(name, "")
}
