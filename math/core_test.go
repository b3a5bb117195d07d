// math/core_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	"testing"
)

func TestClamp(t *testing.T) {
	if v := Clamp(5, 0, 3); v != 3 {
		t.Errorf("Clamp(5, 0, 3) = %d", v)
	}
	if v := Clamp(-1.5, float32(0), 3); v != 0 {
		t.Errorf("Clamp(-1.5, 0, 3) = %f", v)
	}
	if v := Clamp(1.5, float32(0), 3); v != 1.5 {
		t.Errorf("Clamp(1.5, 0, 3) = %f", v)
	}
}

func TestLerp(t *testing.T) {
	if v := Lerp(0.25, 100, 200); v != 125 {
		t.Errorf("Lerp(0.25, 100, 200) = %f", v)
	}
	if v := InverseLerp(125, 100, 200); v != 0.25 {
		t.Errorf("InverseLerp(125, 100, 200) = %f", v)
	}
	if v := InverseLerp(5, 7, 7); v != 0 {
		t.Errorf("degenerate InverseLerp = %f", v)
	}
}

func TestFlightPathAngle(t *testing.T) {
	// A 3 degree glide path loses about 318 ft per nm.
	fpa := FlightPathAngle(-318.44, 1)
	if Abs(fpa+3) > 0.01 {
		t.Errorf("FlightPathAngle(-318.44, 1) = %f, expected ~-3", fpa)
	}
	if FlightPathAngle(1000, 0) != 0 {
		t.Errorf("zero distance should give zero angle")
	}
}

func TestVerticalSpeedForPathAngle(t *testing.T) {
	// The classic rule of thumb: 3 degrees at 140 kts is about 740 fpm.
	vs := VerticalSpeedForPathAngle(140, -3)
	if vs > -735 || vs < -750 {
		t.Errorf("VerticalSpeedForPathAngle(140, -3) = %f, expected ~-743", vs)
	}
}
