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


// Package oceansites writes casts as OceanSITES NetCDF profiles.
package oceansites

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/hydroarchive/hydro"
	"github.com/sirupsen/logrus"
)

const (
	// Prefix starts every OceanSITES id.
	Prefix = "OS"

	// DataMode marks delayed mode data.
	DataMode = "D"

	// DefaultVersion is written when no version is configured.
	DefaultVersion = "1.2"
)

// Versions lists the supported format versions in increasing order.
var Versions = []string{"1.1", "1.2"}

// ErrAmbiguous is returned when no supported site preset was given.
var ErrAmbiguous = errors.New("oceansites: ambiguous output; a site preset is required")

// FlagMeanings names the OceanSITES quality flags 0 through 9.
var FlagMeanings = strings.Join([]string{
	"no_qc_performed",
	"good_data",
	"probably_good_data",
	"bad_data_that_are_potentially_correctable",
	"bad_data",
	"value_changed",
	"not_used",
	"nominal_value",
	"interpolated_value",
	"missing_value",
}, " ")

var woceFlags = map[hydro.Flag]int8{
	1: 3, // not calibrated: potentially correctable
	2: 1,
	3: 2,
	4: 4,
	5: 9,
	6: 8, // interpolated
	7: 5, // despiked
	9: 9,
}

// FlagFromWOCE recodes a WOCE flag. Flags with no equivalent become 6
// (not used) and are logged. A missing flag is 0 (no QC performed).
func FlagFromWOCE(f hydro.Flag, log logrus.FieldLogger) int8 {
	if f == hydro.NoFlag {
		return 0
	}
	if os, ok := woceFlags[f]; ok {
		return os
	}
	log.WithField("flag", int(f)).Warn("WOCE flag has no OceanSITES equivalent")
	return 6
}

// Site is the fixed metadata of a time series site.
type Site struct {
	PlatformCode          string
	Institution           string
	InstitutionReferences string
	SiteCode              string
	Array                 string
	References            string
	Comment               string
	Summary               string
	Area                  string
	Contact               string
	PIName                string
	DataCodes             string
}

// Sites are the presets by name.
var Sites = map[string]Site{
	"BATS": {
		PlatformCode:          "BATS-1",
		Institution:           "Bermuda Institute of Ocean Sciences",
		InstitutionReferences: "http://bats.bios.edu/",
		SiteCode:              "BATS",
		Array:                 "BERMUDA",
		References:            "http://cchdo.ucsd.edu/search?query=group:BATS",
		Comment:               "BIOS-BATS CTD data from SIO, translated to OceanSITES NetCDF by SIO",
		Summary:               "BIOS-BATS CTD data Bermuda",
		Area:                  "Atlantic - Sargasso Sea",
		Contact:               "rodney.johnson@bios.edu",
		PIName:                "Rodney Johnson",
		DataCodes:             "SOT",
	},
	"HOT": {
		PlatformCode:          "ALOHA",
		Institution:           "University of Hawai'i School of Ocean and Earth Science and Technology",
		InstitutionReferences: "http://hahana.soest.hawaii.edu/hot/hot_jgofs.html",
		SiteCode:              "HOT",
		Array:                 "HOT",
		References:            "http://cchdo.ucsd.edu/search?query=group:HOT",
		Comment:               "HOT CTD data from SIO, translated to OceanSITES NetCDF by SIO",
		Summary:               "HOT CTD data Hawai'i",
		Area:                  "Pacific - Hawai'i",
		Contact:               "santiago@soest.hawaii.edu",
		PIName:                "Roger Lukas",
		DataCodes:             "SOT",
	},
}

// SiteFor returns the preset named preset for f. BATS has two platforms;
// casts at station HYDROS belong to Hydrostation S.
func SiteFor(preset string, f *hydro.File) (Site, error) {
	s, ok := Sites[strings.ToUpper(strings.TrimSpace(preset))]
	if !ok {
		return Site{}, fmt.Errorf("%w: %q is not one of BATS, HOT", ErrAmbiguous, preset)
	}
	if s.SiteCode == "BATS" && strings.TrimSpace(f.CastKeyAt(0).Station) == "HYDROS" {
		s.PlatformCode = "BHYDROS"
	}
	return s, nil
}

// checkVersion returns the version to write.
func checkVersion(v string) (string, error) {
	if v == "" {
		return DefaultVersion, nil
	}
	for _, ok := range Versions {
		if v == ok {
			return v, nil
		}
	}
	return "", fmt.Errorf("oceansites: unsupported version %q; have %v", v, Versions)
}

// ID returns the OceanSITES id of a cast. deployment is
// <station><cast>-<yyyymmdd>. Version 1.1 puts the site's data codes in
// place of the data mode. partx is omitted when empty.
func ID(s Site, deployment, version, partx string) string {
	mode := DataMode
	if version == "1.1" && s.DataCodes != "" {
		mode = s.DataCodes
	}
	platform := s.PlatformCode
	if platform == "" {
		platform = "UNKNOWN"
	}
	parts := []string{Prefix, platform, deployment, mode}
	if partx != "" {
		parts = append(parts, partx)
	}
	return strings.Join(parts, "_")
}

// Variable describes how a parameter is written.
type Variable struct {
	Name, LongName, StandardName, Units string
	Uncertainty                         float64
}

// variables are keyed by the NetCDF name of the source parameter.
var variables = map[string]Variable{
	"pressure":     {"PRES", "sea water pressure", "sea_water_pressure", "decibars", math.Inf(1)},
	"temperature":  {"TEMP", "sea water temperature", "sea_water_temperature", "degree_Celsius", 0.002},
	"oxygen":       {"DOXY", "dissolved oxygen", "dissolved_oxygen", "micromole/kg", math.Inf(1)},
	"salinity":     {"PSAL", "sea water salinity", "sea_water_salinity", "psu", 0.005},
	"fluorescence": {"FLU2", "fluorescence", "fluorescence", "rfu", math.Inf(1)},
}

// VariableFor returns how the NetCDF variable name is written.
func VariableFor(name string) (Variable, bool) {
	v, ok := variables[name]
	return v, ok
}
