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

// Package registry provides canonical parameter records for resolving the
// columns of hydrographic data files.
package registry

import (
	"sort"
	"strings"
	"sync"

	"github.com/golang/groupcache/lru"
	"github.com/hydroarchive/hydro"
)

// cacheSize is the number of normalized lookups remembered by a Memory.
const cacheSize = 512

// Memory is a Registry held in memory. It is safe for concurrent use.
type Memory struct {
	mu         sync.Mutex
	byMnemonic map[string]*hydro.Parameter
	byAlias    map[string]*hydro.Parameter

	// lookups memoizes case- and space-insensitive searches.
	lookups *lru.Cache
}

// NewMemory returns a Memory holding params.
func NewMemory(params ...*hydro.Parameter) *Memory {
	m := &Memory{
		byMnemonic: make(map[string]*hydro.Parameter),
		byAlias:    make(map[string]*hydro.Parameter),
		lookups:    lru.New(cacheSize),
	}
	for _, p := range params {
		m.Add(p)
	}
	return m
}

// Add stores p, replacing any parameter with the same mnemonic.
func (m *Memory) Add(p *hydro.Parameter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byMnemonic[p.Mnemonic] = p
	for _, a := range p.Aliases {
		m.byAlias[a] = p
	}
	m.lookups = lru.New(cacheSize)
}

type lookupKey struct {
	alias bool
	name  string
}

func (m *Memory) find(index map[string]*hydro.Parameter, alias bool, name string) (*hydro.Parameter, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := index[name]; ok {
		return p, true
	}
	key := lookupKey{alias: alias, name: normalize(name)}
	if v, ok := m.lookups.Get(key); ok {
		p := v.(*hydro.Parameter)
		return p, p != nil
	}
	var found *hydro.Parameter
	for k, p := range index {
		if normalize(k) == key.name {
			found = p
			break
		}
	}
	m.lookups.Add(key, found)
	return found, found != nil
}

// FindByMnemonic returns the parameter with the given mnemonic. Matching
// ignores case and surrounding space when there is no exact match.
func (m *Memory) FindByMnemonic(mnemonic string) (*hydro.Parameter, bool) {
	return m.find(m.byMnemonic, false, mnemonic)
}

// FindByAlias returns the parameter known by the given alias.
func (m *Memory) FindByAlias(alias string) (*hydro.Parameter, bool) {
	return m.find(m.byAlias, true, alias)
}

// Parameters returns every parameter in display order.
func (m *Memory) Parameters() []*hydro.Parameter {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*hydro.Parameter, 0, len(m.byMnemonic))
	for _, p := range m.byMnemonic {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].Mnemonic < out[j].Mnemonic
	})
	return out
}

// FindByNetCDFName returns the parameter whose NetCDF variable name is
// name.
func (m *Memory) FindByNetCDFName(name string) (*hydro.Parameter, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.byMnemonic {
		if p.NetCDFName == name {
			return p, true
		}
	}
	return nil, false
}

func normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
