// wx/atmosphere_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package wx

import (
	"testing"

	"github.com/mmp/vnav/math"
)

func TestMachCASRoundTrip(t *testing.T) {
	c := NewConditions(StandardTropopause)

	for _, tc := range []struct {
		alt, mach float32
	}{
		{0, 0.3},
		{10000, 0.5},
		{30000, 0.76},
		{39000, 0.78}, // above the tropopause
	} {
		cas := c.CASFromMach(tc.alt, tc.mach)
		mach := c.MachFromCAS(tc.alt, cas)
		if math.Abs(mach-tc.mach) > 1e-3 {
			t.Errorf("alt %.0f: mach %.3f -> cas %.1f -> mach %.4f", tc.alt, tc.mach, cas, mach)
		}
	}
}

func TestKnownAirspeeds(t *testing.T) {
	c := NewConditions(StandardTropopause)

	// At sea level in the standard atmosphere, CAS == TAS == mach * a0.
	if cas := c.CASFromMach(0, 0.5); math.Abs(cas-330.7) > 0.5 {
		t.Errorf("M0.5 at sea level = %.1f kts, expected ~330.7", cas)
	}
	if tas := c.TASFromCAS(0, 250); math.Abs(tas-250) > 0.5 {
		t.Errorf("TAS at sea level = %.1f, expected 250", tas)
	}

	// M0.78 at FL350 is roughly 265 kts CAS.
	if cas := c.CASFromMach(35000, 0.78); cas < 260 || cas > 270 {
		t.Errorf("M0.78 at FL350 = %.1f kts, expected ~265", cas)
	}
	// And TAS is well above CAS at altitude.
	if tas := c.TASFromCAS(35000, 265); tas < 440 || tas > 460 {
		t.Errorf("265 kts at FL350 = %.1f TAS, expected ~450", tas)
	}
}

func TestISADeviation(t *testing.T) {
	c := NewConditions(0)
	if c.Tropopause != StandardTropopause {
		t.Errorf("default tropopause %f", c.Tropopause)
	}

	c.Update(ConditionsSample{Altitude: 10000, StaticAirTemperature: -4.812 + 10})
	if dev := c.ISADeviation(); math.Abs(dev-10) > 0.01 {
		t.Errorf("ISA deviation %f, expected 10", dev)
	}

	// Warmer air raises the total air temperature by the same amount.
	std := NewConditions(0)
	if d := c.TotalAirTemperature(35000, 0.78) - std.TotalAirTemperature(35000, 0.78); d < 10 {
		t.Errorf("TAT difference %f, expected > 10", d)
	}
}

func TestPressureRatio(t *testing.T) {
	if d := PressureRatio(0, StandardTropopause); math.Abs(d-1) > 1e-5 {
		t.Errorf("sea level pressure ratio %f", d)
	}
	if d := PressureRatio(35000, StandardTropopause); math.Abs(d-0.2353) > 0.002 {
		t.Errorf("FL350 pressure ratio %f, expected ~0.235", d)
	}
	// Continuous across the tropopause.
	below := PressureRatio(StandardTropopause-1, StandardTropopause)
	above := PressureRatio(StandardTropopause+1, StandardTropopause)
	if math.Abs(below-above) > 1e-4 {
		t.Errorf("discontinuity at tropopause: %f vs %f", below, above)
	}
}
