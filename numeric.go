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

import "math"

const (
	// FillValue is the sentinel written in place of absent data.
	FillValue = -999.0

	// DefaultTolerance is how close a number must be to a sentinel
	// to be considered out of band.
	DefaultTolerance = 0.1

	// Epsilon is the default tolerance for EqualWithEpsilon.
	Epsilon = 1e-6

	// RadiusEarth is the mean radius of the Earth [km].
	RadiusEarth = 6371.01
)

// IsOutOfBand reports whether v is within tol of sentinel. Absent values
// are out of band; non-numeric values are not.
func IsOutOfBand(v Value, sentinel, tol float64) bool {
	switch t := v.(type) {
	case nil:
		return true
	case Number:
		if math.IsNaN(t.Float) {
			return true
		}
		return EqualWithEpsilon(sentinel, t.Float, tol)
	case Text:
		f, ok := AsFloat(t)
		if !ok {
			return false
		}
		return EqualWithEpsilon(sentinel, f, tol)
	}
	return false
}

// InBandOrAbsent returns v, or nil when v is the default fill sentinel.
func InBandOrAbsent(v Value) Value {
	if IsOutOfBand(v, FillValue, DefaultTolerance) {
		return nil
	}
	return v
}

// EqualWithEpsilon reports whether |a-b| < epsilon.
func EqualWithEpsilon(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

// Polynomial evaluates coeffs[0] + coeffs[1]*x + coeffs[2]*x^2 + ...
func Polynomial(x float64, coeffs ...float64) float64 {
	var sum float64
	for i := len(coeffs) - 1; i >= 0; i-- {
		sum = sum*x + coeffs[i]
	}
	return sum
}

// GreatCircleDistance returns the distance [km] between two points given in
// decimal degrees, using the spherical law of cosines.
func GreatCircleDistance(lat1, lon1, lat2, lon2 float64) float64 {
	const rad = math.Pi / 180
	phi1, phi2 := lat1*rad, lat2*rad
	dLon := (lon2 - lon1) * rad
	c := math.Cos(phi1)*math.Cos(phi2)*math.Cos(dLon) + math.Sin(phi1)*math.Sin(phi2)
	// Rounding can push identical points slightly past 1.
	c = math.Max(-1, math.Min(1, c))
	return RadiusEarth * math.Acos(c)
}
