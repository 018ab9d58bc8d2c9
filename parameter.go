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
	"math"
	"strings"

	"github.com/sirupsen/logrus"
)

// ContrivedMarker prefixes the names of columns that are not expected to be
// found in a Registry.
const ContrivedMarker = "_"

// LastDisplayOrder is the display order of parameters with no defined
// position. They sort after every registered parameter.
const LastDisplayOrder = math.MaxInt32

// Unit is a unit of measure. Units are equal when both the name and the
// mnemonic match.
type Unit struct {
	Name     string
	Mnemonic string
}

// Equal reports whether u and o describe the same unit. Two nil units are
// equal.
func (u *Unit) Equal(o *Unit) bool {
	if u == nil || o == nil {
		return u == nil && o == nil
	}
	return u.Name == o.Name && u.Mnemonic == o.Mnemonic
}

func (u *Unit) String() string {
	if u == nil {
		return ""
	}
	return u.Mnemonic
}

// Parameter describes a measured quantity.
type Parameter struct {
	// Mnemonic is the short canonical name, e.g. CTDOXY.
	Mnemonic string
	FullName string

	// Format is a printf-style verb such as "%9.4f".
	Format string
	Unit   *Unit

	BoundLower, BoundUpper *float64

	// DisplayOrder positions the parameter in written files.
	DisplayOrder int

	// NetCDFName is the variable name used in NetCDF files.
	NetCDFName string
	Aliases    []string

	// registered is true for parameters that came from a Registry.
	registered bool
}

// NewParameter returns a registered parameter. It is used by Registry
// implementations.
func NewParameter(p Parameter) *Parameter {
	p.registered = true
	return &p
}

// NewContrivedParameter returns a parameter that is not backed by a
// Registry record. unit may be empty.
func NewContrivedParameter(mnemonic, unit string) *Parameter {
	p := &Parameter{
		Mnemonic:     mnemonic,
		FullName:     mnemonic,
		Format:       "%11s",
		DisplayOrder: LastDisplayOrder,
	}
	if unit != "" {
		p.Unit = &Unit{Name: unit, Mnemonic: unit}
	}
	return p
}

// Contrived reports whether p was built ad hoc rather than looked up.
func (p *Parameter) Contrived() bool { return !p.registered }

// Marked reports whether the mnemonic carries the contrived marker prefix.
func (p *Parameter) Marked() bool { return strings.HasPrefix(p.Mnemonic, ContrivedMarker) }

// Equal compares parameters by mnemonic.
func (p *Parameter) Equal(o *Parameter) bool {
	if p == nil || o == nil {
		return p == nil && o == nil
	}
	return p.Mnemonic == o.Mnemonic
}

// InRange reports whether v lies within the parameter's bounds. Missing
// bounds do not constrain.
func (p *Parameter) InRange(v float64) bool {
	if p.BoundLower != nil && v < *p.BoundLower {
		return false
	}
	if p.BoundUpper != nil && v > *p.BoundUpper {
		return false
	}
	return true
}

// Registry looks up canonical parameter records.
type Registry interface {
	FindByMnemonic(mnemonic string) (*Parameter, bool)
	FindByAlias(alias string) (*Parameter, bool)
}

// FindParameter looks name up by mnemonic and then by alias.
func FindParameter(r Registry, name string, log logrus.FieldLogger) (*Parameter, bool) {
	if p, ok := r.FindByMnemonic(name); ok {
		return p, true
	}
	if p, ok := r.FindByAlias(name); ok {
		logger(log).WithFields(logrus.Fields{
			"alias":    name,
			"mnemonic": p.Mnemonic,
		}).Info("found parameter by alias")
		return p, true
	}
	return nil, false
}

func logger(l logrus.FieldLogger) logrus.FieldLogger {
	if l == nil {
		return logrus.StandardLogger()
	}
	return l
}
