// predict/predict_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package predict

import (
	"testing"

	av "github.com/mmp/vnav/aviation"
	"github.com/mmp/vnav/math"
	"github.com/mmp/vnav/profile"
	"github.com/mmp/vnav/wx"
)

func approxEqual(a, b, tol float32) bool {
	return math.Abs(a-b) <= tol
}

func levelRequest() LevelFlightRequest {
	return LevelFlightRequest{
		Altitude:       35000,
		Distance:       100,
		Speed:          270,
		MachLimit:      0.78,
		ZeroFuelWeight: 130000,
		FuelOnBoard:    20000,
	}
}

func TestLevelFlightStep(t *testing.T) {
	pm := NewPointMass(A320Performance(), 0)

	r := pm.LevelFlightStep(levelRequest())
	if r.DistanceTraveled != 100 {
		t.Errorf("distance %f, expected 100", r.DistanceTraveled)
	}
	if r.FuelBurned <= 0 || r.TimeElapsed <= 0 {
		t.Errorf("expected positive fuel and time, got %s", r)
	}
	if r.FinalAltitude != 35000 {
		t.Errorf("altitude changed in level flight: %f", r.FinalAltitude)
	}
	// 270 KCAS is above M0.78 at FL350, so the Mach limit governs.
	if r.Speed >= 270 {
		t.Errorf("speed %f not limited by Mach", r.Speed)
	}

	// Twice the distance takes twice the fuel and time.
	req := levelRequest()
	req.Distance = 200
	r2 := pm.LevelFlightStep(req)
	if !approxEqual(r2.FuelBurned, 2*r.FuelBurned, 0.1) || !approxEqual(r2.TimeElapsed, 2*r.TimeElapsed, 0.1) {
		t.Errorf("200nm %s not twice 100nm %s", r2, r)
	}

	// A tailwind gets there sooner and burns less.
	req = levelRequest()
	req.Wind = 50
	r3 := pm.LevelFlightStep(req)
	if r3.TimeElapsed >= r.TimeElapsed || r3.FuelBurned >= r.FuelBurned {
		t.Errorf("tailwind %s not better than still air %s", r3, r)
	}

	// Determinism.
	if again := pm.LevelFlightStep(levelRequest()); again != r {
		t.Errorf("repeated request gave %s, expected %s", again, r)
	}

	req = levelRequest()
	req.Distance = 0
	if z := pm.LevelFlightStep(req); z.DistanceTraveled != 0 || z.FuelBurned != 0 || z.TimeElapsed != 0 {
		t.Errorf("zero distance gave %s", z)
	}
}

func TestSpeedChangeStep(t *testing.T) {
	pm := NewPointMass(A320Performance(), 0)
	req := SpeedChangeRequest{
		Altitude:       10000,
		FromSpeed:      250,
		ToSpeed:        300,
		ThrustLimit:    90,
		ZeroFuelWeight: 130000,
		FuelOnBoard:    20000,
	}

	accel := pm.SpeedChangeStep(req)
	if accel.DistanceTraveled <= 0 || accel.TimeElapsed <= 0 || accel.FuelBurned <= 0 {
		t.Errorf("acceleration: expected positive distance, time, and fuel: %s", accel)
	}
	if accel.Speed != 300 {
		t.Errorf("acceleration ended at %f, expected 300", accel.Speed)
	}
	if accel.FinalAltitude != 10000 {
		t.Errorf("level acceleration changed altitude to %f", accel.FinalAltitude)
	}

	req.FromSpeed, req.ToSpeed = 300, 250
	decel := pm.SpeedChangeStep(req)
	if decel.DistanceTraveled <= 0 || decel.Speed != 250 {
		t.Errorf("deceleration: %s", decel)
	}

	req.ToSpeed = req.FromSpeed
	if none := pm.SpeedChangeStep(req); none.DistanceTraveled != 0 || none.FuelBurned != 0 {
		t.Errorf("no speed change gave %s", none)
	}
}

func TestVerticalSteps(t *testing.T) {
	pm := NewPointMass(A320Performance(), 0)
	req := VerticalStepRequest{
		StartAltitude:  35000,
		EndAltitude:    37000,
		VerticalSpeed:  1000,
		Speed:          250,
		ZeroFuelWeight: 130000,
		FuelOnBoard:    20000,
	}

	climb := pm.VerticalSpeedStep(req)
	if !approxEqual(climb.TimeElapsed, 120, 0.01) {
		t.Errorf("2000ft at 1000fpm took %fs", climb.TimeElapsed)
	}
	if climb.FinalAltitude != 37000 || climb.DistanceTraveled <= 0 {
		t.Errorf("climb: %s", climb)
	}

	req.StartAltitude, req.EndAltitude = 37000, 35000
	if wrong := pm.VerticalSpeedStep(req); wrong.DistanceTraveled != 0 || wrong.FinalAltitude != 37000 {
		t.Errorf("descent with positive vs should not move: %s", wrong)
	}

	req.VerticalSpeed = 0
	req.FlightPathAngle = -3
	des := pm.FlightPathAngleStep(req)
	if des.FinalAltitude != 35000 {
		t.Errorf("fpa descent ended at %f", des.FinalAltitude)
	}
	// 2000' on a 3 degree path is about 6.3nm.
	if !approxEqual(des.DistanceTraveled, 2000/(math.Tan(math.Radians(3))*math.FeetPerNauticalMile), 0.2) {
		t.Errorf("fpa descent distance %f", des.DistanceTraveled)
	}
}

func TestCached(t *testing.T) {
	pm := NewPointMass(A320Performance(), 0)
	c, err := NewCached(pm, 16)
	if err != nil {
		t.Fatal(err)
	}

	a := c.LevelFlightStep(levelRequest())
	b := c.LevelFlightStep(levelRequest())
	if a != b || a != pm.LevelFlightStep(levelRequest()) {
		t.Errorf("cached result %s differs from %s", b, a)
	}
	if hits, misses := c.Stats(); hits != 1 || misses != 1 {
		t.Errorf("hits %d misses %d, expected 1 and 1", hits, misses)
	}

	vs := VerticalStepRequest{StartAltitude: 10000, EndAltitude: 12000, VerticalSpeed: 2000, Speed: 250,
		ZeroFuelWeight: 130000, FuelOnBoard: 20000}
	c.VerticalSpeedStep(vs)
	vs.VerticalSpeed, vs.FlightPathAngle = 0, 3
	// Same request fields but a different step kind must not hit.
	c.FlightPathAngleStep(vs)
	if _, misses := c.Stats(); misses != 3 {
		t.Errorf("misses %d, expected 3", misses)
	}

	c.Purge()
	c.LevelFlightStep(levelRequest())
	if _, misses := c.Stats(); misses != 4 {
		t.Errorf("misses %d after purge, expected 4", misses)
	}
}

func TestManagedSpeedProfile(t *testing.T) {
	params := av.NewParameterStore(av.ComputationParameters{
		ManagedCruiseSpeed:  300,
		ManagedDescentSpeed: 290,
		ClimbSpeedLimit:     av.SpeedLimit{Speed: 250, UnderAltitude: 10000},
		DescentSpeedLimit:   av.SpeedLimit{Speed: 250, UnderAltitude: 10000},
	})
	sp := NewManagedSpeedProfile(params, []profile.MaxSpeedConstraint{
		{DistanceFromStart: 200, MaxSpeed: 280},
		{DistanceFromStart: 100, MaxSpeed: 290},
	})

	if c := sp.Constraints(); c[0].DistanceFromStart != 100 {
		t.Errorf("constraints not sorted: %+v", c)
	}

	for _, tc := range []struct {
		distance, altitude float32
		kind               ManagedSpeedType
		expected           float32
	}{
		{50, 35000, ManagedSpeedCruise, 280},
		{150, 35000, ManagedSpeedCruise, 280},
		{250, 35000, ManagedSpeedCruise, 300},
		{250, 5000, ManagedSpeedCruise, 300},
		{250, 5000, ManagedSpeedClimb, 250},
		{250, 15000, ManagedSpeedDescent, 290},
		{50, 5000, ManagedSpeedDescent, 250},
	} {
		if s := sp.Target(tc.distance, tc.altitude, tc.kind); s != tc.expected {
			t.Errorf("%s target at %.0fnm %.0fft: got %.0f, expected %.0f", tc.kind, tc.distance, tc.altitude,
				s, tc.expected)
		}
	}
}

func TestClimbThrustN1Limit(t *testing.T) {
	atmos := wx.NewConditions(wx.StandardTropopause)
	prev := float32(0)
	for alt := float32(0); alt <= 40000; alt += 5000 {
		n1 := ClimbThrustN1Limit(atmos, alt, 250)
		if n1 < 70 || n1 > 100 {
			t.Errorf("N1 %f at %.0f out of range", n1, alt)
		}
		if n1 < prev-3 {
			t.Errorf("N1 dropped sharply from %f to %f at %.0f", prev, n1, alt)
		}
		prev = n1
	}

	// Table corner.
	if n1 := ClimbThrustN1Limit(atmos, 0, 0); !approxEqual(n1, 85, 0.5) {
		t.Errorf("sea level static N1 %f, expected ~85", n1)
	}
}

func TestStrategies(t *testing.T) {
	pm := NewPointMass(A320Performance(), 0)
	params := av.NewParameterStore(av.ComputationParameters{ZeroFuelWeight: 130000})
	atmos := wx.NewConditions(wx.StandardTropopause)
	s := DefaultConfig().MakeStrategies(pm, params, atmos)

	up := s.StepClimb.PredictToAltitude(35000, 37000, 270, 0.78, 20000, 0)
	if up.FinalAltitude != 37000 || !approxEqual(up.TimeElapsed, 120, 0.01) {
		t.Errorf("step climb: %s", up)
	}
	down := s.StepDescent.PredictToAltitude(37000, 35000, 270, 0.78, 20000, 0)
	if down.FinalAltitude != 35000 || !approxEqual(down.TimeElapsed, 120, 0.01) {
		t.Errorf("step descent: %s", down)
	}
	if down.FuelBurned >= up.FuelBurned {
		t.Errorf("descent burned %f, climb %f", down.FuelBurned, up.FuelBurned)
	}

	fpa := &FlightPathAngleStrategy{Predictor: pm, Params: params, Atmosphere: atmos, Angle: -3}
	if r := fpa.PredictToAltitude(10000, 3000, 250, 0, 5000, 0); r.FinalAltitude != 3000 {
		t.Errorf("fpa strategy: %s", r)
	}
}
