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


package hydroutil

import (
	"context"
	"fmt"
	"strings"

	"github.com/hydroarchive/hydro"
	"github.com/hydroarchive/hydro/convert"
	"github.com/hydroarchive/hydro/formats"
	"github.com/hydroarchive/hydro/registry"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
)

// formatOptions builds codec options from the configuration.
func formatOptions() (formats.Options, error) {
	var o formats.Options
	o.Log = logrus.StandardLogger()

	reg, err := Registry(context.Background(), Cfg.GetString("registry_db"), o.Log)
	if err != nil {
		return o, err
	}
	o.Registry = reg

	o.Method, err = convert.ParseMethod(Cfg.GetString("oxygen_method"))
	if err != nil {
		return o, fmt.Errorf("hydro: %v", err)
	}
	o.Stamp = strings.ToUpper(Cfg.GetString("institution") + Cfg.GetString("initials"))
	o.Preset = Cfg.GetString("oceansites_preset")

	// A configuration file may give the version as a number.
	o.Version, err = cast.ToStringE(Cfg.Get("oceansites_version"))
	if err != nil {
		return o, fmt.Errorf("hydro: oceansites_version: %v", err)
	}
	if v, err := cast.ToFloat64E(o.Version); err == nil && !strings.Contains(o.Version, ".") {
		o.Version = fmt.Sprintf("%.1f", v)
	}
	return o, nil
}

// Registry returns the parameter registry cached in the SQLite file at
// path, or the built-in registry when path is empty.
func Registry(ctx context.Context, path string, log logrus.FieldLogger) (hydro.Registry, error) {
	if path == "" {
		reg, err := registry.Default()
		if err != nil {
			return nil, fmt.Errorf("hydro: loading parameters: %v", err)
		}
		return reg, nil
	}
	reg, err := (&registry.Cache{Path: path, Log: log}).Registry(ctx)
	if err != nil {
		return nil, fmt.Errorf("hydro: loading parameters from %s: %v", path, err)
	}
	return reg, nil
}
