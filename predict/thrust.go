// predict/thrust.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package predict

import (
	"github.com/mmp/vnav/math"
	"github.com/mmp/vnav/wx"
)

// Maximum climb thrust N1 as a function of total air temperature (rows)
// and altitude (columns).
var (
	climbThrustTAT       = []float32{-40, -20, 0, 15, 30, 45}
	climbThrustAltitudes = []float32{0, 10000, 20000, 30000, 40000}
	climbThrustN1        = [][]float32{
		{78.0, 81.5, 84.5, 87.0, 88.5},
		{80.5, 83.5, 86.5, 89.0, 90.5},
		{83.0, 86.0, 88.5, 91.0, 92.5},
		{85.0, 87.5, 90.0, 92.5, 94.0},
		{85.0, 87.0, 89.5, 92.0, 93.5},
		{83.5, 85.5, 88.0, 90.5, 92.0},
	}
)

// bracket returns the index i such that x is between v[i] and v[i+1] and
// the interpolation parameter; x is clamped to the range of v.
func bracket(v []float32, x float32) (int, float32) {
	x = math.Clamp(x, v[0], v[len(v)-1])
	for i := 0; i < len(v)-2; i++ {
		if x <= v[i+1] {
			return i, math.InverseLerp(x, v[i], v[i+1])
		}
	}
	n := len(v) - 2
	return n, math.InverseLerp(x, v[n], v[n+1])
}

// ClimbThrustN1Limit returns the climb thrust limit, as N1 percent, when
// flying the given CAS at the given altitude.
func ClimbThrustN1Limit(atmos wx.AtmosphericModel, altitude, cas float32) float32 {
	mach := atmos.MachFromCAS(altitude, cas)
	tat := atmos.TotalAirTemperature(altitude, mach)

	i, ti := bracket(climbThrustTAT, tat)
	j, tj := bracket(climbThrustAltitudes, altitude)

	n0 := math.Lerp(tj, climbThrustN1[i][j], climbThrustN1[i][j+1])
	n1 := math.Lerp(tj, climbThrustN1[i+1][j], climbThrustN1[i+1][j+1])
	return math.Lerp(ti, n0, n1)
}
