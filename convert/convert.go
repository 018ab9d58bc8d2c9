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

// Package convert converts volumetric concentrations in hydrographic data
// to gravimetric ones.
package convert

import (
	"fmt"
	"strings"

	"github.com/ctessum/unit"
	"github.com/hydroarchive/hydro"
	"github.com/hydroarchive/hydro/science/seawater"
	"github.com/sirupsen/logrus"
)

const (
	// ApproximationSalinity is used when no usable salinity was measured.
	ApproximationSalinity = 34.8

	// ApproximationTemperature [°C] is used when no usable temperature was
	// measured, and is the laboratory temperature of aliquot oxygen samples.
	ApproximationTemperature = 25.0

	// oxygenMolarVolume is the volume of one millimole of oxygen [mL].
	oxygenMolarVolume = 22.392

	// Temperatures below this [°C] are not physical for seawater.
	minTemperature = -3.0

	// Nutrient concentrations below this are not physical.
	minConcentration = -3.0
)

// Method is how bottle oxygen was analyzed.
type Method int

const (
	// Whole bottle samples are titrated at the temperature the sample
	// was drawn.
	Whole Method = iota

	// Aliquot samples are measured at laboratory temperature.
	Aliquot
)

func (m Method) String() string {
	if m == Aliquot {
		return "aliquot"
	}
	return "whole"
}

// ParseMethod parses "whole" or "aliquot".
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "whole":
		return Whole, nil
	case "aliquot":
		return Aliquot, nil
	}
	return Whole, fmt.Errorf("convert: invalid oxygen method %q; must be whole or aliquot", s)
}

var (
	amountDim unit.Dimension

	molePerMeter3   unit.Dimensions
	molePerKilogram unit.Dimensions
)

func init() {
	amountDim = unit.NewDimension("mole")
	molePerMeter3 = unit.Dimensions{
		amountDim:      1,
		unit.LengthDim: -3,
	}
	molePerKilogram = unit.Dimensions{
		amountDim:    1,
		unit.MassDim: -1,
	}
}

// perKilogram converts an amount per cubic metre to an amount per
// kilogram of seawater with the given salinity and temperature.
func perKilogram(perM3, s, t float64) (float64, error) {
	amount := unit.New(perM3, molePerMeter3)
	rho := unit.New(seawater.Density(s, t), unit.KilogramPerMeter3)
	v := unit.Div(amount, rho)
	if err := v.Check(molePerKilogram); err != nil {
		return 0, fmt.Errorf("convert: %v", err)
	}
	return v.Value(), nil
}

// Register installs the oxygen and nutrient converters on f. method applies
// to bottle oxygen.
func Register(f *hydro.File, method Method, log logrus.FieldLogger) {
	f.RegisterConverter("ML/L", "UMOL/KG", Oxygen(method, log))
	for _, prefix := range []string{"MMOL", "UMOL", "NMOL", "PMOL"} {
		f.RegisterConverter(prefix+"/L", prefix+"/KG", PerLitre(prefix, log))
	}
}

// Oxygen returns a converter from ML/L to UMOL/KG. Bottle oxygen analyzed
// by aliquot is always converted at ApproximationTemperature. Values below
// -3 become absent.
func Oxygen(method Method, log logrus.FieldLogger) hydro.Converter {
	return func(f *hydro.File, c *hydro.Column) (*hydro.Column, error) {
		log := logger(log)
		name := c.Parameter.Mnemonic
		if !strings.Contains(name, "OXY") {
			return nil, fmt.Errorf("convert: %s is not an oxygen parameter", name)
		}
		aliquot := method == Aliquot && !strings.HasPrefix(name, "CTD")
		for i, v := range c.Values {
			x, ok := hydro.AsFloat(v)
			if !ok {
				continue
			}
			if x < minConcentration {
				c.Values[i] = nil
				continue
			}
			s := salinity(f, i, log)
			t := ApproximationTemperature
			if !aliquot {
				t = temperature(f, i, log)
			}
			// mL/L is numerically mL/dm³; one mmol/dm³ is one mol/m³.
			perKg, err := perKilogram(x/oxygenMolarVolume, s, t)
			if err != nil {
				return nil, err
			}
			c.Values[i] = hydro.Float(perKg * 1e6)
		}
		setUnit(c, "UMOL/KG")
		return c, nil
	}
}

// PerLitre returns a converter from prefix/L to prefix/KG for nutrients.
// The conversion always uses ApproximationTemperature. Values below -3 are
// not physical and become absent.
func PerLitre(prefix string, log logrus.FieldLogger) hydro.Converter {
	return func(f *hydro.File, c *hydro.Column) (*hydro.Column, error) {
		log := logger(log)
		if strings.Contains(c.Parameter.Mnemonic, "OXY") {
			return nil, fmt.Errorf("convert: %s is an oxygen parameter; use the oxygen converter",
				c.Parameter.Mnemonic)
		}
		for i, v := range c.Values {
			x, ok := hydro.AsFloat(v)
			if !ok {
				continue
			}
			if x < minConcentration {
				c.Values[i] = nil
				continue
			}
			s := salinity(f, i, log)
			// The amount prefix cancels; only litres become cubic metres.
			perKg, err := perKilogram(x*1000, s, ApproximationTemperature)
			if err != nil {
				return nil, err
			}
			c.Values[i] = hydro.Float(perKg)
		}
		setUnit(c, prefix+"/KG")
		return c, nil
	}
}

func setUnit(c *hydro.Column, mnemonic string) {
	p := *c.Parameter
	p.Unit = &hydro.Unit{Name: mnemonic, Mnemonic: mnemonic}
	c.Parameter = &p
}

// firstValue returns the first usable number at row i among the named
// columns.
func firstValue(f *hydro.File, i int, names ...string) (float64, string, bool) {
	for _, name := range names {
		c := f.Column(name)
		if c == nil {
			continue
		}
		if x, ok := hydro.AsFloat(hydro.InBandOrAbsent(c.Get(i))); ok {
			return x, name, true
		}
	}
	return 0, "", false
}

func salinity(f *hydro.File, i int, log logrus.FieldLogger) float64 {
	s, name, ok := firstValue(f, i, "CTDSAL", "SALNTY")
	if !ok || s <= 0 {
		log.WithField("row", i).Warn("no usable salinity; using approximation")
		return ApproximationSalinity
	}
	if s < 20 || s > 60 {
		log.WithFields(logrus.Fields{"row": i, "column": name, "salinity": s}).
			Warn("salinity outside plausible range")
	}
	return s
}

func temperature(f *hydro.File, i int, log logrus.FieldLogger) float64 {
	t, _, ok := firstValue(f, i, "CTDTMP", "THETA", "REVTMP")
	if !ok || t < minTemperature {
		log.WithField("row", i).Warn("no usable temperature; using approximation")
		return ApproximationTemperature
	}
	return t
}

func logger(l logrus.FieldLogger) logrus.FieldLogger {
	if l == nil {
		return logrus.StandardLogger()
	}
	return l
}
