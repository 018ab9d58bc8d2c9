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
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/hydroarchive/hydro"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS parameters (
		mnemonic      TEXT PRIMARY KEY,
		full_name     TEXT NOT NULL DEFAULT '',
		netcdf_name   TEXT NOT NULL DEFAULT '',
		format        TEXT NOT NULL DEFAULT '',
		unit_name     TEXT NOT NULL DEFAULT '',
		unit_mnemonic TEXT NOT NULL DEFAULT '',
		bound_lower   REAL,
		bound_upper   REAL,
		display_order INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS aliases (
		alias    TEXT NOT NULL,
		mnemonic TEXT NOT NULL REFERENCES parameters(mnemonic),
		PRIMARY KEY (alias, mnemonic)
	)`,
}

// Cache is a parameter registry persisted in a SQLite database. An empty
// database is populated from Seed the first time the cache is used; later
// uses read the stored table. The database is read once per Cache.
type Cache struct {
	// Path is the SQLite database file.
	Path string

	// Seed populates an empty database. The built-in table is used when
	// Seed is nil.
	Seed *Memory

	Log logrus.FieldLogger

	once sync.Once
	mem  *Memory
	err  error
}

// Registry returns the cached registry, opening and if necessary
// populating the database on first use. Concurrent callers wait for the
// first one to finish.
func (c *Cache) Registry(ctx context.Context) (*Memory, error) {
	c.once.Do(func() {
		c.mem, c.err = c.load(ctx)
	})
	return c.mem, c.err
}

func (c *Cache) logger() logrus.FieldLogger {
	if c.Log == nil {
		return logrus.StandardLogger()
	}
	return c.Log
}

func (c *Cache) load(ctx context.Context) (*Memory, error) {
	db, err := sql.Open("sqlite", c.Path)
	if err != nil {
		return nil, fmt.Errorf("registry: open sqlite db: %v", err)
	}
	defer db.Close()

	for _, pragma := range []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return nil, fmt.Errorf("registry: apply pragma %q: %v", pragma, err)
		}
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("registry: create schema: %v", err)
		}
	}

	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM parameters`).Scan(&n); err != nil {
		return nil, fmt.Errorf("registry: count parameters: %v", err)
	}
	if n == 0 {
		seed := c.Seed
		if seed == nil {
			if seed, err = Builtin(); err != nil {
				return nil, err
			}
		}
		if err := populate(ctx, db, seed); err != nil {
			return nil, err
		}
		c.logger().WithFields(logrus.Fields{
			"path":       c.Path,
			"parameters": len(seed.byMnemonic),
		}).Info("populated parameter cache")
	}
	return read(ctx, db)
}

func populate(ctx context.Context, db *sql.DB, seed *Memory) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("registry: begin populate: %v", err)
	}
	for _, p := range seed.Parameters() {
		r := fromParameter(p)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO parameters (
				mnemonic, full_name, netcdf_name, format, unit_name, unit_mnemonic,
				bound_lower, bound_upper, display_order
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.Mnemonic, r.FullName, r.NetCDFName, r.Format, r.UnitName, r.UnitMnemonic,
			nullFloat(r.BoundLower), nullFloat(r.BoundUpper), r.DisplayOrder,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("registry: insert parameter %s: %v", r.Mnemonic, err)
		}
		for _, a := range r.Aliases {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO aliases (alias, mnemonic) VALUES (?, ?)`, a, r.Mnemonic); err != nil {
				tx.Rollback()
				return fmt.Errorf("registry: insert alias %s: %v", a, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("registry: commit populate: %v", err)
	}
	return nil
}

func read(ctx context.Context, db *sql.DB) (*Memory, error) {
	aliases, err := readAliases(ctx, db)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT
		mnemonic, full_name, netcdf_name, format, unit_name, unit_mnemonic,
		bound_lower, bound_upper, display_order
		FROM parameters`)
	if err != nil {
		return nil, fmt.Errorf("registry: query parameters: %v", err)
	}
	defer rows.Close()

	m := NewMemory()
	for rows.Next() {
		var (
			r      record
			lo, hi sql.NullFloat64
		)
		if err := rows.Scan(&r.Mnemonic, &r.FullName, &r.NetCDFName, &r.Format,
			&r.UnitName, &r.UnitMnemonic, &lo, &hi, &r.DisplayOrder); err != nil {
			return nil, fmt.Errorf("registry: scan parameter: %v", err)
		}
		if lo.Valid {
			r.BoundLower = &lo.Float64
		}
		if hi.Valid {
			r.BoundUpper = &hi.Float64
		}
		r.Aliases = aliases[r.Mnemonic]
		m.Add(r.parameter())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("registry: read parameters: %v", err)
	}
	return m, nil
}

// readAliases returns the stored aliases keyed by mnemonic.
func readAliases(ctx context.Context, db *sql.DB) (map[string][]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT alias, mnemonic FROM aliases ORDER BY alias`)
	if err != nil {
		return nil, fmt.Errorf("registry: query aliases: %v", err)
	}
	defer rows.Close()

	aliases := make(map[string][]string)
	for rows.Next() {
		var alias, mnemonic string
		if err := rows.Scan(&alias, &mnemonic); err != nil {
			return nil, fmt.Errorf("registry: scan alias: %v", err)
		}
		aliases[mnemonic] = append(aliases[mnemonic], alias)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("registry: read aliases: %v", err)
	}
	return aliases, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

var _ hydro.Registry = (*Memory)(nil)
