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

package registry

import (
	_ "embed"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/hydroarchive/hydro"
)

//go:embed parameters.toml
var builtinTOML string

// record is one parameter as written in a TOML parameter table.
type record struct {
	Mnemonic     string   `toml:"mnemonic"`
	FullName     string   `toml:"full_name"`
	NetCDFName   string   `toml:"netcdf_name"`
	Format       string   `toml:"format"`
	UnitName     string   `toml:"unit_name"`
	UnitMnemonic string   `toml:"unit_mnemonic"`
	BoundLower   *float64 `toml:"bound_lower"`
	BoundUpper   *float64 `toml:"bound_upper"`
	DisplayOrder int      `toml:"display_order"`
	Aliases      []string `toml:"aliases"`
}

func (r record) parameter() *hydro.Parameter {
	p := hydro.Parameter{
		Mnemonic:     r.Mnemonic,
		FullName:     r.FullName,
		Format:       r.Format,
		BoundLower:   r.BoundLower,
		BoundUpper:   r.BoundUpper,
		DisplayOrder: r.DisplayOrder,
		NetCDFName:   r.NetCDFName,
		Aliases:      r.Aliases,
	}
	if p.Format == "" {
		p.Format = "%11s"
	}
	if p.DisplayOrder <= 0 {
		p.DisplayOrder = hydro.LastDisplayOrder
	}
	if r.UnitMnemonic != "" {
		name := r.UnitName
		if name == "" {
			name = r.UnitMnemonic
		}
		p.Unit = &hydro.Unit{Name: name, Mnemonic: r.UnitMnemonic}
	}
	return hydro.NewParameter(p)
}

func fromParameter(p *hydro.Parameter) record {
	r := record{
		Mnemonic:     p.Mnemonic,
		FullName:     p.FullName,
		NetCDFName:   p.NetCDFName,
		Format:       p.Format,
		BoundLower:   p.BoundLower,
		BoundUpper:   p.BoundUpper,
		DisplayOrder: p.DisplayOrder,
		Aliases:      p.Aliases,
	}
	if p.Unit != nil {
		r.UnitName = p.Unit.Name
		r.UnitMnemonic = p.Unit.Mnemonic
	}
	return r
}

// LoadTOML reads a parameter table in TOML format.
func LoadTOML(r io.Reader) (*Memory, error) {
	var doc struct {
		Parameter []record `toml:"parameter"`
	}
	if _, err := toml.DecodeReader(r, &doc); err != nil {
		return nil, fmt.Errorf("registry: decoding parameter table: %v", err)
	}
	m := NewMemory()
	for i, rec := range doc.Parameter {
		if strings.TrimSpace(rec.Mnemonic) == "" {
			return nil, fmt.Errorf("registry: parameter %d has no mnemonic", i+1)
		}
		if _, ok := m.byMnemonic[rec.Mnemonic]; ok {
			return nil, fmt.Errorf("registry: parameter %s is defined more than once", rec.Mnemonic)
		}
		m.Add(rec.parameter())
	}
	return m, nil
}

// Builtin returns a new Memory holding the parameter table shipped with
// this package.
func Builtin() (*Memory, error) {
	return LoadTOML(strings.NewReader(builtinTOML))
}

var (
	defaultOnce sync.Once
	defaultMem  *Memory
	defaultErr  error
)

// Default returns the process-wide built-in registry. It is loaded the
// first time it is requested.
func Default() (*Memory, error) {
	defaultOnce.Do(func() {
		defaultMem, defaultErr = Builtin()
	})
	return defaultMem, defaultErr
}
