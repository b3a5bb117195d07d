// wx/atmosphere.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package wx

import (
	"github.com/mmp/vnav/math"
)

// AtmosphericModel provides the airspeed conversions and temperatures
// that the vertical profile computation needs. Implementations are pure
// apart from the ISA deviation, which may come from the most recent
// sensor sample.
type AtmosphericModel interface {
	MachFromCAS(altitude, cas float32) float32
	CASFromMach(altitude, mach float32) float32
	TASFromCAS(altitude, cas float32) float32
	TotalAirTemperature(altitude, mach float32) float32 // Celsius
	ISADeviation() float32                              // Celsius
}

const StandardTropopause = 36089.24

// ConditionsSample is what the air data computer reports.
type ConditionsSample struct {
	Altitude             float32 // feet, indicated
	StaticAirTemperature float32 // Celsius
}

// Conditions is the International Standard Atmosphere offset by the ISA
// deviation observed in the latest sample.
type Conditions struct {
	Tropopause   float32
	isaDeviation float32
}

var _ AtmosphericModel = (*Conditions)(nil)

func NewConditions(tropopause float32) *Conditions {
	if tropopause <= 0 {
		tropopause = StandardTropopause
	}
	return &Conditions{Tropopause: tropopause}
}

// Update recomputes the ISA deviation from the sample.
func (c *Conditions) Update(s ConditionsSample) {
	c.isaDeviation = s.StaticAirTemperature - ISATemperature(s.Altitude, c.Tropopause)
}

// SetISADeviation overrides the deviation; predictions use it to evaluate
// conditions other than the current ones.
func (c *Conditions) SetISADeviation(dev float32) {
	c.isaDeviation = dev
}

func (c *Conditions) ISADeviation() float32 {
	return c.isaDeviation
}

// StaticAirTemperature returns the predicted static air temperature at the
// given altitude, assuming the current ISA deviation holds.
func (c *Conditions) StaticAirTemperature(altitude float32) float32 {
	return ISATemperature(altitude, c.Tropopause) + c.isaDeviation
}

func (c *Conditions) TotalAirTemperature(altitude, mach float32) float32 {
	// From https://en.wikipedia.org/wiki/Total_air_temperature, using gamma = 1.4
	sat := c.StaticAirTemperature(altitude) + math.KelvinOffset
	return sat*(1+0.2*mach*mach) - math.KelvinOffset
}

func (c *Conditions) MachFromCAS(altitude, cas float32) float32 {
	delta := PressureRatio(altitude, c.Tropopause)
	qc := math.Pow(1+0.2*math.Sqr(cas/math.SpeedOfSoundSeaLevel), 3.5) - 1
	return math.Sqrt(5 * (math.Pow(qc/delta+1, 2./7) - 1))
}

func (c *Conditions) CASFromMach(altitude, mach float32) float32 {
	delta := PressureRatio(altitude, c.Tropopause)
	qc := delta * (math.Pow(1+0.2*mach*mach, 3.5) - 1)
	return math.SpeedOfSoundSeaLevel * math.Sqrt(5*(math.Pow(qc+1, 2./7)-1))
}

func (c *Conditions) TASFromCAS(altitude, cas float32) float32 {
	mach := c.MachFromCAS(altitude, cas)
	theta := (c.StaticAirTemperature(altitude) + math.KelvinOffset) / (15 + math.KelvinOffset)
	return mach * math.SpeedOfSoundSeaLevel * math.Sqrt(theta)
}

// ISATemperature returns the standard temperature in Celsius at the given
// altitude; it is constant above the tropopause.
func ISATemperature(altitude, tropopause float32) float32 {
	return 15 - 0.0019812*min(altitude, tropopause)
}

// PressureRatio returns the ratio of static pressure at the given altitude
// to sea level pressure in the standard atmosphere.
func PressureRatio(altitude, tropopause float32) float32 {
	if altitude <= tropopause {
		return math.Pow(1-6.8755856e-6*altitude, 5.2558797)
	}
	atTropopause := math.Pow(1-6.8755856e-6*tropopause, 5.2558797)
	return atTropopause * math.Exp(-4.806346e-5*(altitude-tropopause))
}

// DensityRatio returns the ratio of air density at the given altitude to
// the density at sea level in the standard atmosphere.
func DensityRatio(altitude, tropopause float32) float32 {
	theta := (ISATemperature(altitude, tropopause) + math.KelvinOffset) / (15 + math.KelvinOffset)
	return PressureRatio(altitude, tropopause) / theta
}
