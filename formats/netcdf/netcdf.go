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


// Package netcdf reads and writes CTD and bottle casts as COARDS/WOCE
// NetCDF classic files.
package netcdf

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/ctessum/cdf"
	"github.com/hydroarchive/hydro"
	"github.com/hydroarchive/hydro/formats"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

const (
	// QCSuffix names the flag variable of a data variable.
	QCSuffix = "_QC"

	// StringLen is the length of the character dimension.
	StringLen = 40

	stringDim   = "string_dimension"
	unspecified = "unspecified"
)

// Epoch is the origin of the time variable.
var Epoch = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

// now is replaced in tests.
var now = time.Now

const (
	CTDFlagDescription = "1=Not calibrated:2=Acceptable measurement:" +
		"3=Questionable measurement:4=Bad measurement:5=Not reported:" +
		"6=Interpolated over >2 dbar interval:7=Despiked:" +
		"8=Not assigned for CTD data:9=Not sampled:\n"

	BottleFlagDescription = "1=Bottle information unavailable.:" +
		"2=No problems noted.:3=Leaking.:4=Did not trip correctly.:" +
		"5=Not reported.:6=Significant discrepancy in measured values " +
		"between Gerard and Niskin bottles.:7=Unknown problem.:" +
		"8=Pair did not trip correctly. Note that the Niskin bottle can " +
		"trip at an unplanned depth while the Gerard trips correctly and " +
		"vice versa.:9=Samples not drawn from this bottle.:\n"

	WaterSampleFlagDescription = "1=Sample for this measurement was drawn " +
		"from water bottle but analysis not received.:2=Acceptable measurement.:" +
		"3=Questionable measurement.:4=Bad measurement.:5=Not reported.:" +
		"6=Mean of replicate measurements.:" +
		"7=Manual chromatographic peak measurement.:" +
		"8=Irregular digital chromatographic peak integration.:" +
		"9=Sample not drawn for this measurement from this bottle.:\n"
)

// variableNames maps NetCDF variable names to mnemonics for files written
// before the parameter registry carried NetCDF names.
var variableNames = map[string]string{
	"cast":        "CASTNO",
	"temperature": "CTDTMP",
	"oxygen":      "CTDOXY",
	"salinity":    "CTDSAL",
	"pressure":    "CTDPRS",
	"station":     "STNNBR",
	"latitude":    "LATITUDE",
	"longitude":   "LONGITUDE",
	"woce_date":   "DATE",
	"woce_time":   "TIME",
	"TRANSM":      "XMISS",
}

// globalNames maps global attributes to the globals they are read into.
var globalNames = map[string]string{
	"CAST_NUMBER":         "CASTNO",
	"STATION_NUMBER":      "STNNBR",
	"BOTTOM_DEPTH_METERS": "DEPTH",
	"WOCE_ID":             "SECT_ID",
	"EXPOCODE":            "EXPOCODE",
}

// staticVariables describe the cast rather than a measurement and are
// never written as data variables.
var staticVariables = map[string]bool{
	"EXPOCODE":         true,
	"SECT_ID":          true,
	"STNNBR":           true,
	"CASTNO":           true,
	"DATE":             true,
	"TIME":             true,
	hydro.DateTimeName: true,
	"LATITUDE":         true,
	"LONGITUDE":        true,
	"DEPTH":            true,
}

// netCDFFinder is implemented by registries that index parameters by
// NetCDF variable name.
type netCDFFinder interface {
	FindByNetCDFName(name string) (*hydro.Parameter, bool)
}

// Mnemonic returns the mnemonic of the NetCDF variable name.
func Mnemonic(reg hydro.Registry, name string) string {
	if m, ok := variableNames[name]; ok {
		return m
	}
	if nf, ok := reg.(netCDFFinder); ok {
		if p, ok := nf.FindByNetCDFName(name); ok {
			return p.Mnemonic
		}
	}
	return strings.ToUpper(name)
}

var reverseNames = func() map[string]string {
	m := make(map[string]string, len(variableNames))
	for k, v := range variableNames {
		m[v] = k
	}
	return m
}()

// VariableName returns the NetCDF variable name of p.
func VariableName(p *hydro.Parameter) string {
	if p.NetCDFName != "" {
		return p.NetCDFName
	}
	if n, ok := reverseNames[p.Mnemonic]; ok {
		return n
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return '_'
	}, p.Mnemonic)
}

// buffer holds a NetCDF file in memory.
type buffer struct {
	*aws.WriteAtBuffer
}

func newBuffer(b []byte) buffer { return buffer{aws.NewWriteAtBuffer(b)} }

func (b buffer) ReadAt(p []byte, off int64) (int, error) {
	return bytes.NewReader(b.Bytes()).ReadAt(p, off)
}

// Decode reads a whole NetCDF file from r into memory.
func Decode(r io.Reader) (*cdf.File, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("netcdf: %v", err)
	}
	cf, err := cdf.Open(newBuffer(data))
	if err != nil {
		return nil, fmt.Errorf("netcdf: opening file: %v", err)
	}
	return cf, nil
}

// Encode creates an in-memory file with header h, fills it with write and
// copies it to w.
func Encode(h *cdf.Header, write func(*cdf.File) error, w io.Writer) error {
	buf := newBuffer(nil)
	cf, err := cdf.Create(buf, h)
	if err != nil {
		return fmt.Errorf("netcdf: creating file: %v", err)
	}
	if err := write(cf); err != nil {
		return err
	}
	_, err = w.Write(buf.Bytes())
	return err
}

func isText(cf *cdf.File, v string) bool {
	_, ok := cf.Header.ZeroValue(v, 0).(string)
	return ok
}

func toFloats(data interface{}) []float64 {
	switch t := data.(type) {
	case []uint8:
		out := make([]float64, len(t))
		for i, x := range t {
			out[i] = float64(int8(x))
		}
		return out
	case []int16:
		out := make([]float64, len(t))
		for i, x := range t {
			out[i] = float64(x)
		}
		return out
	case []int32:
		out := make([]float64, len(t))
		for i, x := range t {
			out[i] = float64(x)
		}
		return out
	case []float32:
		out := make([]float64, len(t))
		for i, x := range t {
			out[i] = float64(x)
		}
		return out
	case []float64:
		return t
	}
	return nil
}

func scalarFloat(x interface{}) (float64, bool) {
	switch t := x.(type) {
	case uint8:
		return float64(int8(t)), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	}
	return 0, false
}

func trimText(b []byte) string {
	return strings.Trim(string(b), "\x00 \t\r\n")
}

func text(s string) hydro.Value {
	if s == "" {
		return nil
	}
	return hydro.Text(s)
}

// readVariable reads the variable v as values. Character variables yield
// one Text per string along their last dimension. Fill values and NaNs
// are absent.
func readVariable(cf *cdf.File, v string) ([]hydro.Value, error) {
	r := cf.Reader(v, nil, nil)
	if r == nil {
		return nil, fmt.Errorf("netcdf: no variable %s", v)
	}
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil && err != io.EOF {
		return nil, fmt.Errorf("netcdf: reading %s: %v", v, err)
	}
	if isText(cf, v) {
		raw := buf.([]uint8)
		lengths := cf.Header.Lengths(v)
		width := len(raw)
		if len(lengths) > 0 && lengths[len(lengths)-1] > 0 {
			width = lengths[len(lengths)-1]
		}
		var out []hydro.Value
		for i := 0; i+width <= len(raw) && width > 0; i += width {
			out = append(out, text(trimText(raw[i:i+width])))
		}
		return out, nil
	}

	places := -1
	switch buf.(type) {
	case []float32, []float64:
		if format, ok := cf.Header.GetAttribute(v, "C_format").(string); ok {
			places = hydro.ParseFormat(format).Precision
		}
	default:
		places = 0
	}
	fill, hasFill := scalarFloat(cf.Header.FillValue(v))
	data := toFloats(buf)
	out := make([]hydro.Value, len(data))
	for i, x := range data {
		if math.IsNaN(x) || hasFill && x == fill {
			continue
		}
		out[i] = hydro.InBandOrAbsent(hydro.Number{Float: x, Places: places})
	}
	return out, nil
}

// attribute converts a global attribute to a value.
func attribute(x interface{}) hydro.Value {
	if s, ok := x.(string); ok {
		return text(trimText([]byte(s)))
	}
	data := toFloats(x)
	if len(data) != 1 {
		return nil
	}
	switch x.(type) {
	case []float32, []float64:
		return hydro.Float(data[0])
	}
	return hydro.Int(int(data[0]))
}

// read decodes the file in r into a new File. Variables with at most one
// element become globals.
func read(r io.Reader, o formats.Options) (*hydro.File, error) {
	log := o.Logger()
	cf, err := Decode(r)
	if err != nil {
		return nil, err
	}
	f := hydro.NewFile()
	for _, a := range cf.Header.Attributes("") {
		x := cf.Header.GetAttribute("", a)
		if a == "ORIGINAL_HEADER" {
			if s, ok := x.(string); ok {
				f.Header = s
			}
			continue
		}
		name, ok := globalNames[a]
		if !ok {
			continue
		}
		if v := attribute(x); v != nil {
			f.Globals[name] = v
		}
	}

	n := 0
	for _, v := range cf.Header.Variables() {
		if v == "time" || strings.HasSuffix(v, QCSuffix) {
			continue
		}
		values, err := readVariable(cf, v)
		if err != nil {
			return nil, err
		}
		name := Mnemonic(o.Registry, v)
		if name == "CTDSAL" {
			for i, x := range values {
				if hydro.IsOutOfBand(x, -9.99, hydro.Epsilon) {
					values[i] = nil
				}
			}
		}
		if len(values) <= 1 {
			if _, ok := f.Globals[name]; !ok && len(values) == 1 && values[0] != nil {
				f.Globals[name] = values[0]
			}
			continue
		}

		unit, _ := cf.Header.GetAttribute(v, "units").(string)
		if unit = strings.TrimSpace(unit); unit == unspecified {
			unit = ""
		}
		c := hydro.NewColumn(hydro.NewContrivedParameter(name, unit))
		f.AddColumn(c)
		for i, x := range values {
			c.Set(i, x)
		}
		if qc := v + QCSuffix; cf.Header.Lengths(qc) != nil {
			flags, err := readVariable(cf, qc)
			if err != nil {
				return nil, err
			}
			for i, x := range flags {
				fl := hydro.Flag(9)
				if y, ok := hydro.AsFloat(x); ok {
					fl = hydro.Flag(int(y))
				}
				c.SetFlags(i, fl, hydro.NoFlag)
			}
		}
		if len(values) > n {
			n = len(values)
		}
	}
	for _, c := range f.Columns {
		c.SetLength(n)
	}
	hydro.FuseDateTime(f, log)
	return f, nil
}

// aggregate appends the rows of the resolved file g to f and pads every
// column of f to the new length. Globals f already holds are kept and
// disagreements are logged.
func aggregate(f, g *hydro.File, log logrus.FieldLogger) {
	base, n := f.Len(), g.Len()
	if f.Header == "" {
		f.Header = g.Header
	}
	if f.Stamp == "" {
		f.Stamp = g.Stamp
	}
	for k, fn := range g.Converters {
		f.Converters[k] = fn
	}
	f.Changes = append(f.Changes, g.Changes...)

	for name, src := range g.Columns {
		dst, ok := f.Columns[name]
		if !ok {
			dst = hydro.NewColumn(src.Parameter)
			dst.SetLength(base)
			f.AddColumn(dst)
		}
		for i := 0; i < n; i++ {
			dst.SetFlagged(base+i, src.Get(i), src.FlagWOCE(i), src.FlagIGOSS(i))
		}
	}
	for _, c := range f.Columns {
		c.SetLength(base + n)
	}

	for _, k := range g.GlobalNames() {
		v := g.Globals[k]
		old, ok := f.Globals[k]
		if !ok {
			f.Globals[k] = v
			continue
		}
		if !hydro.Equal(old, v) {
			log.WithFields(logrus.Fields{
				"global": k,
				"kept":   old.String(),
				"found":  v.String(),
			}).Warn("aggregated files disagree")
		}
	}
}

// Cast is the scalar description of one cast. Unknown coordinates are
// NaN.
type Cast struct {
	Expocode, Section, Station, Cast string
	Latitude, Longitude, Depth       float64
	Time                             time.Time
	HasTime                          bool
}

// scalar returns the global name, or the first value of the column of
// that name.
func scalar(f *hydro.File, name string) hydro.Value {
	if v, ok := f.Globals[name]; ok {
		return v
	}
	if c := f.Column(name); c != nil {
		return c.Get(0)
	}
	return nil
}

func scalarFloatOf(f *hydro.File, name string) float64 {
	if x, ok := hydro.AsFloat(scalar(f, name)); ok {
		return x
	}
	return math.NaN()
}

// CastOf describes the cast held by f from its globals, or from the
// first row of its columns.
func CastOf(f *hydro.File, log logrus.FieldLogger) Cast {
	c := Cast{
		Expocode:  hydro.AsString(scalar(f, "EXPOCODE")),
		Section:   hydro.AsString(scalar(f, "SECT_ID")),
		Station:   hydro.AsString(scalar(f, "STNNBR")),
		Cast:      hydro.AsString(scalar(f, "CASTNO")),
		Latitude:  scalarFloatOf(f, "LATITUDE"),
		Longitude: scalarFloatOf(f, "LONGITUDE"),
		Depth:     scalarFloatOf(f, "DEPTH"),
	}
	switch t := scalar(f, hydro.DateTimeName).(type) {
	case hydro.Timestamp:
		c.Time, c.HasTime = t.Time().UTC(), true
	default:
		if d := scalar(f, "DATE"); d != nil {
			t, err := hydro.ParseDateTime(hydro.AsString(d), hydro.AsString(scalar(f, "TIME")))
			if err != nil {
				log.Warn(err)
				break
			}
			c.Time, c.HasTime = t, true
		}
	}
	return c
}

// dataColumns returns the columns written as data variables, in display
// order.
func dataColumns(f *hydro.File) []*hydro.Column {
	var cols []*hydro.Column
	for _, c := range f.SortedColumns() {
		if staticVariables[c.Parameter.Mnemonic] || c.Parameter.Marked() {
			continue
		}
		cols = append(cols, c)
	}
	return cols
}

func padText(s string) string {
	if len(s) > StringLen {
		return s[:StringLen]
	}
	return s + strings.Repeat("\x00", StringLen-len(s))
}

// define builds the header of a cast file with n rows.
func define(f *hydro.File, c Cast, cols []*hydro.Column, n int, dataType, flags string) *cdf.Header {
	h := cdf.NewHeader(
		[]string{"time", "pressure", "latitude", "longitude", stringDim},
		[]int{1, n, 1, 1, StringLen})

	addText := func(a, s string) {
		if s != "" {
			h.AddAttribute("", a, s)
		}
	}
	addText("EXPOCODE", c.Expocode)
	h.AddAttribute("", "Conventions", "COARDS/WOCE")
	h.AddAttribute("", "WOCE_VERSION", "3.0")
	addText("WOCE_ID", c.Section)
	h.AddAttribute("", "DATA_TYPE", dataType)
	addText("STATION_NUMBER", c.Station)
	addText("CAST_NUMBER", c.Cast)
	if !math.IsNaN(c.Depth) {
		h.AddAttribute("", "BOTTOM_DEPTH_METERS", []int32{int32(math.Round(c.Depth))})
	}
	h.AddAttribute("", "Creation_Time", now().UTC().Format("2006-01-02T15:04:05Z"))
	h.AddAttribute("", "Hydro_Version", hydro.Version)
	addText("ORIGINAL_HEADER", f.Header)
	h.AddAttribute("", "WOCE_CTD_FLAG_DESCRIPTION", CTDFlagDescription)
	if flags != "" {
		h.AddAttribute("", "WOCE_BOTTLE_FLAG_DESCRIPTION", flags)
		h.AddAttribute("", "WOCE_WATER_SAMPLE_FLAG_DESCRIPTION", WaterSampleFlagDescription)
	}

	h.AddVariable("time", []string{"time"}, []int32{0})
	h.AddAttribute("time", "long_name", "time")
	h.AddAttribute("time", "units", "minutes since "+Epoch.Format("2006-01-02 15:04:05"))
	h.AddAttribute("time", "C_format", "%10d")
	h.AddAttribute("time", "_FillValue", []int32{int32(hydro.FillValue)})

	h.AddVariable("latitude", []string{"latitude"}, []float32{0})
	h.AddAttribute("latitude", "long_name", "latitude")
	h.AddAttribute("latitude", "units", "degrees_N")
	h.AddAttribute("latitude", "C_format", "%9.4f")

	h.AddVariable("longitude", []string{"longitude"}, []float32{0})
	h.AddAttribute("longitude", "long_name", "longitude")
	h.AddAttribute("longitude", "units", "degrees_E")
	h.AddAttribute("longitude", "C_format", "%9.4f")

	h.AddVariable("woce_date", []string{"time"}, []int32{0})
	h.AddAttribute("woce_date", "long_name", "WOCE date")
	h.AddAttribute("woce_date", "units", "yyyymmdd UTC")
	h.AddAttribute("woce_date", "C_format", "%8d")
	h.AddAttribute("woce_date", "_FillValue", []int32{int32(hydro.FillValue)})

	h.AddVariable("woce_time", []string{"time"}, []int16{0})
	h.AddAttribute("woce_time", "long_name", "WOCE time")
	h.AddAttribute("woce_time", "units", "hhmm UTC")
	h.AddAttribute("woce_time", "C_format", "%4d")
	h.AddAttribute("woce_time", "_FillValue", []int16{int16(hydro.FillValue)})

	h.AddVariable("station", []string{stringDim}, "")
	h.AddAttribute("station", "long_name", "STATION")
	h.AddVariable("cast", []string{stringDim}, "")
	h.AddAttribute("cast", "long_name", "CAST")

	for _, col := range cols {
		p := col.Parameter
		name := VariableName(p)
		h.AddVariable(name, []string{"pressure"}, []float64{0})
		h.AddAttribute(name, "long_name", p.FullName)
		unit := unspecified
		if p.Unit != nil && p.Unit.Name != "" {
			unit = p.Unit.Name
		}
		h.AddAttribute(name, "units", unit)
		lo, hi := dataRange(col.Floats())
		h.AddAttribute(name, "data_min", []float64{lo})
		h.AddAttribute(name, "data_max", []float64{hi})
		h.AddAttribute(name, "C_format", cFormat(col))
		h.AddAttribute(name, "WHPO_Variable_Name", p.Mnemonic)
		h.AddAttribute(name, "_FillValue", []float64{hydro.FillValue})
		if col.IsFlaggedWOCE() {
			qc := name + QCSuffix
			h.AddAttribute(name, "OBS_QC_VARIABLE", qc)
			h.AddVariable(qc, []string{"pressure"}, []int16{0})
			h.AddAttribute(qc, "long_name", name+QCSuffix+"_flag")
			h.AddAttribute(qc, "units", "woce_flags")
			h.AddAttribute(qc, "C_format", "%1d")
		}
	}
	h.Define()
	return h
}

// dataRange returns the extremes of the finite values in x, or the fill
// value when there are none.
func dataRange(x []float64) (lo, hi float64) {
	finite := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return hydro.FillValue, hydro.FillValue
	}
	return floats.Min(finite), floats.Max(finite)
}

// cFormat returns the column's format with the precision its values were
// read with.
func cFormat(c *hydro.Column) string {
	v := hydro.ParseFormat(c.Parameter.Format)
	places := c.DecimalPlaces()
	if places < 0 {
		places = v.Precision
	}
	if !v.Numeric() || v.Kind == 'd' || v.Kind == 'i' {
		v.Kind = 'f'
	}
	if places < 0 {
		return fmt.Sprintf("%%%d%c", v.Width, v.Kind)
	}
	return fmt.Sprintf("%%%d.%d%c", v.Width, places, v.Kind)
}

// WriteVariable writes data, which must fill the variable v, into cf.
func WriteVariable(cf *cdf.File, v string, data interface{}) error {
	end := cf.Header.Lengths(v)
	if end == nil {
		return fmt.Errorf("netcdf: no variable %s", v)
	}
	w := cf.Writer(v, make([]int, len(end)), end)
	// The writer reports io.EOF once the last element is written.
	if _, err := w.Write(data); err != nil && err != io.EOF {
		return fmt.Errorf("netcdf: writing %s: %v", v, err)
	}
	return nil
}

// fill writes the static and data variables declared by define.
func fill(cf *cdf.File, c Cast, cols []*hydro.Column, n int) error {
	write := func(v string, data interface{}) error { return WriteVariable(cf, v, data) }
	minutes, date, clock := int32(hydro.FillValue), int32(hydro.FillValue), int16(hydro.FillValue)
	if c.HasTime {
		minutes = int32(c.Time.Sub(Epoch) / time.Minute)
		y, m, d := c.Time.Date()
		date = int32(y*10000 + int(m)*100 + d)
		clock = int16(c.Time.Hour()*100 + c.Time.Minute())
	}
	static := []struct {
		name string
		data interface{}
	}{
		{"time", []int32{minutes}},
		{"latitude", []float32{float32(c.Latitude)}},
		{"longitude", []float32{float32(c.Longitude)}},
		{"woce_date", []int32{date}},
		{"woce_time", []int16{clock}},
		{"station", padText(c.Station)},
		{"cast", padText(c.Cast)},
	}
	for _, s := range static {
		if err := write(s.name, s.data); err != nil {
			return err
		}
	}

	for _, col := range cols {
		name := VariableName(col.Parameter)
		data := make([]float64, n)
		for i := range data {
			data[i] = hydro.FillValue
			if x, ok := hydro.AsFloat(col.Get(i)); ok {
				data[i] = x
			}
		}
		if err := write(name, data); err != nil {
			return err
		}
		if !col.IsFlaggedWOCE() {
			continue
		}
		flags := make([]int16, n)
		for i := range flags {
			fl := col.FlagWOCE(i)
			if fl == hydro.NoFlag {
				fl = 9
			}
			flags[i] = int16(fl)
		}
		if err := write(name+QCSuffix, flags); err != nil {
			return err
		}
	}
	return nil
}

// write writes f as a single cast file.
func write(f *hydro.File, w io.Writer, o formats.Options, dataType, flags string) error {
	n := f.Len()
	if n == 0 {
		return hydro.ErrNoRows
	}
	if !f.Has("CTDPRS") {
		return fmt.Errorf("netcdf: file has no CTDPRS column for the pressure dimension")
	}
	cols := dataColumns(f)
	if names := duplicateNames(cols); len(names) > 0 {
		return fmt.Errorf("netcdf: columns share variable names %v", names)
	}
	c := CastOf(f, o.Logger())
	h := define(f, c, cols, n, dataType, flags)
	return Encode(h, func(cf *cdf.File) error { return fill(cf, c, cols, n) }, w)
}

func duplicateNames(cols []*hydro.Column) []string {
	seen := make(map[string]bool)
	var dups []string
	for _, c := range cols {
		n := VariableName(c.Parameter)
		if staticName(n) || seen[n] {
			dups = append(dups, n)
		}
		seen[n] = true
	}
	sort.Strings(dups)
	return dups
}

func staticName(n string) bool {
	switch n {
	case "time", "latitude", "longitude", "woce_date", "woce_time", "station", "cast":
		return true
	}
	return false
}
