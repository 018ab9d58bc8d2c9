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


package oceansites

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/ctessum/cdf"
	"github.com/hydroarchive/hydro"
	"github.com/hydroarchive/hydro/formats"
	"github.com/hydroarchive/hydro/formats/netcdf"
	"github.com/hydroarchive/hydro/science/seawater"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

const (
	// FillValue marks absent data values.
	FillValue = 99999.0

	// FillQC marks absent quality flags. It is -128 as a signed byte.
	FillQC uint8 = 0x80

	qcSuffix = "_QC"
)

// Epoch is the origin of the TIME variable.
var Epoch = time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC)

// now is replaced in tests.
var now = time.Now

var axes = []string{"TIME", "DEPTH", "LATITUDE", "LONGITUDE"}

// Writer writes one cast per OceanSITES file. It cannot read.
type Writer struct {
	formats.Options

	// DataType is CTD or BTL. It ends the file id.
	DataType string
}

// NewCTD returns a writer for CTD casts.
func NewCTD(o formats.Options) *Writer { return &Writer{Options: o, DataType: "CTD"} }

// NewBottle returns a writer for bottle casts.
func NewBottle(o formats.Options) *Writer { return &Writer{Options: o, DataType: "BTL"} }

// ReadFile always fails; OceanSITES files are write only.
func (w *Writer) ReadFile(*hydro.File, io.Reader) error {
	return formats.NotSupported("oceansites", "reading files")
}

// FileName returns the id of f with a .nc extension. Without a usable
// preset the platform is UNKNOWN.
func (w *Writer) FileName(f *hydro.File) string {
	s, _ := SiteFor(w.Preset, f)
	version, err := checkVersion(w.Version)
	if err != nil {
		version = DefaultVersion
	}
	return ID(s, deployment(netcdf.CastOf(f, w.Logger())), version, w.DataType) + ".nc"
}

func deployment(c netcdf.Cast) string {
	date := "UNKNOWN"
	if c.HasTime {
		date = c.Time.Format("20060102")
	}
	return strings.TrimSpace(c.Station) + strings.TrimSpace(c.Cast) + "-" + date
}

// column pairs a data column with the variable it is written as.
type column struct {
	*hydro.Column
	Variable
}

func (w *Writer) columns(f *hydro.File, log logrus.FieldLogger) []column {
	var out []column
	seen := make(map[string]string)
	for _, c := range f.SortedColumns() {
		v, ok := VariableFor(netcdf.VariableName(c.Parameter))
		if !ok {
			log.WithField("column", c.Parameter.Mnemonic).Debug("no OceanSITES variable; skipping")
			continue
		}
		if prev, ok := seen[v.Name]; ok {
			log.WithFields(logrus.Fields{
				"variable": v.Name,
				"kept":     prev,
				"skipped":  c.Parameter.Mnemonic,
			}).Warn("two columns map to the same variable")
			continue
		}
		seen[v.Name] = c.Parameter.Mnemonic
		out = append(out, column{Column: c, Variable: v})
	}
	return out
}

func finite(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

// extremes returns the range of the finite values of x, or the fill value.
func extremes(x []float64) (lo, hi float64) {
	x = finite(x)
	if len(x) == 0 {
		return FillValue, FillValue
	}
	return floats.Min(x), floats.Max(x)
}

// WriteFile writes f, which must hold a CTDPRS column.
func (w *Writer) WriteFile(f *hydro.File, out io.Writer) error {
	log := w.Logger()
	site, err := SiteFor(w.Preset, f)
	if err != nil {
		return err
	}
	version, err := checkVersion(w.Version)
	if err != nil {
		return err
	}
	n := f.Len()
	if n == 0 {
		return hydro.ErrNoRows
	}
	pres := f.Column("CTDPRS")
	if pres == nil {
		return fmt.Errorf("oceansites: file has no CTDPRS column for the DEPTH axis")
	}
	c := netcdf.CastOf(f, log)
	cols := w.columns(f, log)

	lat := c.Latitude
	if math.IsNaN(lat) {
		log.Warn("no latitude; computing depths at the equator")
		lat = 0
	}
	depths := make([]float64, n)
	for i, p := range pres.Floats() {
		depths[i] = seawater.DepthUNESCO(p, lat)
	}

	h := cdf.NewHeader(axes, []int{1, n, 1, 1})
	w.globals(h, f, site, c, version, depths)

	h.AddVariable("TIME", []string{"TIME"}, []float64{0})
	h.AddAttribute("TIME", "long_name", "time")
	h.AddAttribute("TIME", "standard_name", "time")
	h.AddAttribute("TIME", "units", "days since "+Epoch.Format(time.RFC3339))
	h.AddAttribute("TIME", "axis", "T")
	h.AddAttribute("TIME", "valid_min", []float64{0})
	h.AddAttribute("TIME", "valid_max", []float64{90000})
	h.AddAttribute("TIME", "_FillValue", []float64{FillValue})

	h.AddVariable("LATITUDE", []string{"LATITUDE"}, []float32{0})
	h.AddAttribute("LATITUDE", "long_name", "latitude of each location")
	h.AddAttribute("LATITUDE", "standard_name", "latitude")
	h.AddAttribute("LATITUDE", "units", "degrees_north")
	h.AddAttribute("LATITUDE", "axis", "Y")
	h.AddAttribute("LATITUDE", "valid_min", []float32{-90})
	h.AddAttribute("LATITUDE", "valid_max", []float32{90})
	h.AddAttribute("LATITUDE", "reference", "WGS84")
	h.AddAttribute("LATITUDE", "_FillValue", []float32{FillValue})

	h.AddVariable("LONGITUDE", []string{"LONGITUDE"}, []float32{0})
	h.AddAttribute("LONGITUDE", "long_name", "longitude of each location")
	h.AddAttribute("LONGITUDE", "standard_name", "longitude")
	h.AddAttribute("LONGITUDE", "units", "degrees_east")
	h.AddAttribute("LONGITUDE", "axis", "X")
	h.AddAttribute("LONGITUDE", "valid_min", []float32{-180})
	h.AddAttribute("LONGITUDE", "valid_max", []float32{180})
	h.AddAttribute("LONGITUDE", "reference", "WGS84")
	h.AddAttribute("LONGITUDE", "_FillValue", []float32{FillValue})

	h.AddVariable("DEPTH", []string{"DEPTH"}, []float32{0})
	h.AddAttribute("DEPTH", "long_name", "depth of each measurement")
	h.AddAttribute("DEPTH", "standard_name", "depth")
	h.AddAttribute("DEPTH", "units", "meters")
	h.AddAttribute("DEPTH", "positive", "down")
	h.AddAttribute("DEPTH", "axis", "Z")
	h.AddAttribute("DEPTH", "reference", "sea_level")
	h.AddAttribute("DEPTH", "comment", "Calculated using Unesco 1983 Saunders and Fofonoff method.")
	h.AddAttribute("DEPTH", "_FillValue", []float32{FillValue})

	for _, col := range cols {
		lo, hi := extremes(col.Floats())
		h.AddVariable(col.Name, axes, []float32{0})
		h.AddAttribute(col.Name, "long_name", col.LongName)
		h.AddAttribute(col.Name, "standard_name", col.StandardName)
		h.AddAttribute(col.Name, "units", col.Units)
		h.AddAttribute(col.Name, "_FillValue", []float32{FillValue})
		h.AddAttribute(col.Name, "valid_min", []float32{float32(lo)})
		h.AddAttribute(col.Name, "valid_max", []float32{float32(hi)})
		h.AddAttribute(col.Name, "uncertainty", []float32{float32(col.Uncertainty)})
		h.AddAttribute(col.Name, "sensor_depth", []float32{0})
		if version != "1.1" {
			h.AddAttribute(col.Name, "ancillary_variables", col.Name+qcSuffix)
		}

		qc := col.Name + qcSuffix
		h.AddVariable(qc, axes, []uint8{0})
		h.AddAttribute(qc, "long_name", "quality flag")
		h.AddAttribute(qc, "conventions", "OceanSITES reference table 2")
		h.AddAttribute(qc, "_FillValue", []uint8{FillQC})
		h.AddAttribute(qc, "valid_min", []uint8{0})
		h.AddAttribute(qc, "valid_max", []uint8{9})
		h.AddAttribute(qc, "flag_values", []uint8{0, 1, 2, 3, 4, 5, 6, 7, 8, 9})
		h.AddAttribute(qc, "flag_meanings", FlagMeanings)
	}
	h.Define()

	return netcdf.Encode(h, func(cf *cdf.File) error {
		write := func(v string, data interface{}) error {
			if err := netcdf.WriteVariable(cf, v, data); err != nil {
				return fmt.Errorf("oceansites: %v", err)
			}
			return nil
		}
		days := FillValue
		if c.HasTime {
			days = c.Time.Sub(Epoch).Hours() / 24
		}
		if err := write("TIME", []float64{days}); err != nil {
			return err
		}
		if err := write("LATITUDE", float32s([]float64{c.Latitude})); err != nil {
			return err
		}
		if err := write("LONGITUDE", float32s([]float64{c.Longitude})); err != nil {
			return err
		}
		if err := write("DEPTH", float32s(depths)); err != nil {
			return err
		}
		for _, col := range cols {
			if err := write(col.Name, float32s(col.Floats())); err != nil {
				return err
			}
			flags := make([]uint8, n)
			for i := range flags {
				flags[i] = uint8(FlagFromWOCE(col.FlagWOCE(i), log))
			}
			if err := write(col.Name+qcSuffix, flags); err != nil {
				return err
			}
		}
		return nil
	}, out)
}

// float32s converts x, replacing NaNs with the fill value.
func float32s(x []float64) []float32 {
	out := make([]float32, len(x))
	for i, v := range x {
		if math.IsNaN(v) {
			v = FillValue
		}
		out[i] = float32(v)
	}
	return out
}

func (w *Writer) globals(h *cdf.Header, f *hydro.File, s Site, c netcdf.Cast, version string, depths []float64) {
	text := func(a, v string) {
		if v != "" {
			h.AddAttribute("", a, v)
		}
	}
	conventions := "CF-1.4, OceanSITES-1.2"
	if version == "1.1" {
		conventions = "CF-1.1, OceanSITES-1.1"
	}
	text("data_type", "OceanSITES profile data")
	text("format_version", version)
	text("Conventions", conventions)
	text("netcdf_version", "3.5")
	text("naming_authority", "OceanSITES")
	text("id", ID(s, deployment(c), version, w.DataType))
	text("title", fmt.Sprintf("%s %s %s data", s.SiteCode, s.PlatformCode, w.DataType))
	text("data_mode", DataMode)
	text("cdm_data_type", "Station")
	text("platform_code", s.PlatformCode)
	text("site_code", s.SiteCode)
	text("institution", s.Institution)
	text("institution_references", s.InstitutionReferences)
	text("array", s.Array)
	text("references", s.References)
	text("comment", s.Comment)
	text("summary", s.Summary)
	text("area", s.Area)
	text("contact", s.Contact)
	text("pi_name", s.PIName)
	if version == "1.1" {
		text("data_codes", s.DataCodes)
	}
	text("source", "Shipborne observation")
	text("date_update", now().UTC().Format(time.RFC3339))
	text("history", strings.Join(f.Changes, "\n"))
	if c.HasTime {
		text("time_coverage_start", c.Time.Format(time.RFC3339))
		text("time_coverage_end", c.Time.Format(time.RFC3339))
	}
	if !math.IsNaN(c.Latitude) && !math.IsNaN(c.Longitude) {
		h.AddAttribute("", "geospatial_lat_min", []float64{c.Latitude})
		h.AddAttribute("", "geospatial_lat_max", []float64{c.Latitude})
		h.AddAttribute("", "geospatial_lon_min", []float64{c.Longitude})
		h.AddAttribute("", "geospatial_lon_max", []float64{c.Longitude})
	}
	lo, hi := extremes(depths)
	h.AddAttribute("", "geospatial_vertical_min", []float64{lo})
	h.AddAttribute("", "geospatial_vertical_max", []float64{hi})
	text("geospatial_vertical_positive", "down")
	text("Hydro_Version", hydro.Version)
}
