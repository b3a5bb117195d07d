// math/units.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

const (
	FeetPerNauticalMile  = 6076.12
	KnotsToFeetPerMinute = 101.269 // 6076.12 / 60
	KnotsToFeetPerSecond = 1.68781
	GravityFeetPerSecond = 32.174   // ft/s^2
	SpeedOfSoundSeaLevel = 661.4786 // knots, ISA
	KelvinOffset         = 273.15
)

// FlightPathAngle returns the angle in degrees of a path that changes
// altitude by deltaAltitude feet over distance nautical miles.
func FlightPathAngle(deltaAltitude, distance float32) float32 {
	if distance == 0 {
		return 0
	}
	return Degrees(Atan(deltaAltitude / (distance * FeetPerNauticalMile)))
}

// VerticalSpeedForPathAngle returns the vertical speed in feet per minute
// required to hold the given flight path angle (degrees) at the given
// ground speed (knots).
func VerticalSpeedForPathAngle(groundSpeed, angle float32) float32 {
	return KnotsToFeetPerMinute * groundSpeed * Tan(Radians(angle))
}
