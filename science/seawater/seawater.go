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

// Package seawater contains equations of state for seawater.
package seawater

import (
	"math"

	"github.com/hydroarchive/hydro"
)

// UNESCO (1983) EOS-80 coefficients at zero pressure.
var (
	pureWater = []float64{999.842594, 6.793952e-2, -9.095290e-3, 1.001685e-4, -1.120083e-6, 6.536332e-9}
	coefA     = []float64{8.24493e-1, -4.0899e-3, 7.6438e-5, -8.2467e-7, 5.3875e-9}
	coefB     = []float64{-5.72466e-3, 1.0227e-4, -1.6546e-6}
)

const coefC = 4.8314e-4

// Density returns the density [kg/m³] of seawater at zero pressure for
// practical salinity s and temperature t [°C, IPTS-68].
func Density(s, t float64) float64 {
	rhoW := hydro.Polynomial(t, pureWater...)
	a := hydro.Polynomial(t, coefA...)
	b := hydro.Polynomial(t, coefB...)
	return rhoW + a*s + b*math.Pow(s, 1.5) + coefC*s*s
}

// SigmaT returns the density anomaly (density - 1000) [kg/m³] at zero
// pressure.
func SigmaT(s, t float64) float64 {
	return Density(s, t) - 1000
}

// DepthUNESCO returns the depth [m] for pressure p [dbar] at latitude lat
// [degrees], following Saunders and Fofonoff (1976) as given in UNESCO
// technical paper 44 (1983).
func DepthUNESCO(p, lat float64) float64 {
	x := math.Sin(lat / 57.29578)
	x *= x
	gr := 9.780318*(1.0+(5.2788e-3+2.36e-5*x)*x) + 1.092e-6*p
	return hydro.Polynomial(p, 0, 9.72659, -2.2512e-5, 2.279e-10, -1.82e-15) / gr
}
