// sim/sim_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	av "github.com/mmp/vnav/aviation"
	"github.com/mmp/vnav/cruise"
	"github.com/mmp/vnav/descent"
	"github.com/mmp/vnav/nav"
	"github.com/mmp/vnav/util"
	"github.com/mmp/vnav/wx"
)

func testScenario(name string) *Scenario {
	s := &Scenario{
		Name: name,
		Seed: 1,
		Aircraft: AircraftState{
			Altitude:       35000,
			IAS:            264,
			FuelOnBoard:    20000,
			ZeroFuelWeight: 130000,
		},
		Speeds: Speeds{
			CruiseAltitude:          35000,
			ManagedCruiseSpeed:      280,
			ManagedCruiseSpeedMach:  0.78,
			ManagedDescentSpeed:     290,
			ManagedDescentSpeedMach: 0.78,
			ClimbSpeedLimit:         av.SpeedLimit{Speed: 250, UnderAltitude: 10000},
			DescentSpeedLimit:       av.SpeedLimit{Speed: 250, UnderAltitude: 10000},
		},
		Plan: nav.FlightPlan{Destination: descent.Destination{Distance: 250}},
	}

	var e util.ErrorLogger
	s.PostDeserialize(&e)
	if e.HaveErrors() {
		panic(e.String())
	}
	return s
}

func TestScenarioRun(t *testing.T) {
	sc := testScenario("direct")
	s, err := NewSim(sc, nav.DefaultConfig(), nil, nil)
	if err != nil {
		t.Fatalf("NewSim: %v", err)
	}

	r, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !r.Arrived {
		t.Errorf("didn't arrive: %+v", r)
	}
	if r.TopOfDescent < 100 || r.TopOfDescent > 140 {
		t.Errorf("T/D at %.1fnm, expected between 100 and 140", r.TopOfDescent)
	}
	if r.DescentEngagedAtDistance < r.TopOfDescent || r.DescentEngagedAtDistance > r.TopOfDescent+5 {
		t.Errorf("DES engaged at %.1fnm with T/D at %.1fnm", r.DescentEngagedAtDistance, r.TopOfDescent)
	}
	if r.ModeSeconds[av.RequestedVerticalModeNone] == 0 {
		t.Errorf("expected time without a requested mode before T/D")
	}
	if n := r.ModeSeconds[av.RequestedVerticalModeVpathThrust] + r.ModeSeconds[av.RequestedVerticalModeVpathSpeed]; n == 0 {
		t.Errorf("path was never flown: %v", r.ModeSeconds)
	}
	if r.MaxDeviation > 1000 {
		t.Errorf("max deviation %.0f ft", r.MaxDeviation)
	}
	if r.FuelUsed <= 0 {
		t.Errorf("no fuel used")
	}
	if r.Recomputes < 2 {
		t.Errorf("expected periodic recomputes, got %d", r.Recomputes)
	}
	if r.CacheMisses == 0 {
		t.Errorf("predictor cache unused")
	}
}

func TestStepInsertion(t *testing.T) {
	sc := testScenario("step")
	sc.Steps = []TimedStep{{AtSeconds: 60, Step: cruise.Step{Fix: "STEPR", DistanceFromStart: 60, ToAltitude: 37000}}}

	s, err := NewSim(sc, nav.DefaultConfig(), nil, nil)
	if err != nil {
		t.Fatalf("NewSim: %v", err)
	}

	// Run until just past the step.
	for s.aircraft.Distance < 70 {
		if _, err := s.Step(time.Minute); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}

	if alt := s.params.Get().CruiseAltitude; alt != 37000 {
		t.Errorf("cruise altitude %.0f after the step, expected 37000", alt)
	}
	if len(s.vnav.Steps()) != 0 {
		t.Errorf("flown step wasn't removed: %v", s.vnav.Steps())
	}
	if s.aircraft.Altitude <= 35000 {
		t.Errorf("aircraft at %.0f didn't start climbing", s.aircraft.Altitude)
	}
}

func TestStepTimeSlop(t *testing.T) {
	s, err := NewSim(testScenario("slop"), nav.DefaultConfig(), nil, nil)
	if err != nil {
		t.Fatalf("NewSim: %v", err)
	}

	for range 3 {
		if _, err := s.Step(500 * time.Millisecond); err != nil {
			t.Fatal(err)
		}
	}
	if s.elapsed != 1 {
		t.Errorf("%.0f seconds simulated, expected 1", s.elapsed)
	}
}

func TestRunAllWithTraces(t *testing.T) {
	dir := t.TempDir()

	noisy := testScenario("noisy")
	noisy.PositionNoise = 0.05
	noisy.TemperatureNoise = 0.5
	noisy.Winds = "30000/270/60,40000/270/80"
	noisy.Track = 270
	var e util.ErrorLogger
	noisy.PostDeserialize(&e)
	if e.HaveErrors() {
		t.Fatal(e.String())
	}

	scenarios := []*Scenario{testScenario("calm"), noisy}
	results, err := RunAll(context.Background(), scenarios, nav.DefaultConfig(), dir, nil)
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}

	for i, r := range results {
		if r.Scenario != scenarios[i].Name {
			t.Errorf("result %d is for %q, expected %q", i, r.Scenario, scenarios[i].Name)
		}
		if !r.Arrived {
			t.Errorf("%s: didn't arrive", r.Scenario)
		}

		summary, err := SummarizeTraceFile(TracePath(dir, r.Scenario))
		if err != nil {
			t.Fatalf("%s: %v", r.Scenario, err)
		}
		if summary.Records != int(r.Seconds) {
			t.Errorf("%s: %d trace records for %.0f seconds", r.Scenario, summary.Records, r.Seconds)
		}
		if summary.FinalAircraft.Distance != r.FinalDistance {
			t.Errorf("%s: trace ends at %.2fnm, run at %.2fnm", r.Scenario, summary.FinalAircraft.Distance,
				r.FinalDistance)
		}
		if summary.Transitions[descent.GuidanceStateProvidingGuidance] == 0 {
			t.Errorf("%s: guidance never engaged", r.Scenario)
		}
		if summary.MaxDeviation != r.MaxDeviation {
			t.Errorf("%s: trace max deviation %.1f, run %.1f", r.Scenario, summary.MaxDeviation, r.MaxDeviation)
		}
	}

	// The headwind slows the noisy flight down.
	if results[1].Seconds <= results[0].Seconds {
		t.Errorf("headwind flight took %.0fs, calm flight %.0fs", results[1].Seconds, results[0].Seconds)
	}
}

func TestLoadScenario(t *testing.T) {
	dir := t.TempDir()
	write := func(name, contents string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	path := write("kjfk-kbos.yaml", `
seed: 7
aircraft:
  altitude: 35000
  ias: 264
  fuel_on_board: 15000
  zero_fuel_weight: 130000
speeds:
  cruise_altitude: 35000
  managed_cruise_speed: 280
  managed_cruise_mach: 0.78
  managed_descent_speed: 290
  descent_speed_limit:
    speed: 250
    under_altitude: 10000
plan:
  destination:
    distance: 160
    elevation: 20
  steps:
    - fix: MERIT
      distance: 40
      to_altitude: 33000
winds: 35000/250/45
track: 240
`)
	s, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}
	if s.Name != "kjfk-kbos" {
		t.Errorf("name %q, expected file base name", s.Name)
	}
	if s.RecomputeSeconds != 60 || s.Speeds.VMax != 350 {
		t.Errorf("defaults not applied: %+v", s)
	}
	if len(s.Plan.Steps) != 1 || s.Plan.Steps[0].Fix != "MERIT" {
		t.Errorf("steps %v", s.Plan.Steps)
	}
	if w := s.wind.ComponentAt(35000); w >= 0 {
		t.Errorf("expected a headwind, got %.1f", w)
	}

	_, err = LoadScenario(write("bad.json", `{"aircraft": {"ias": 250}, "winds": "35000/400/20"}`))
	if err == nil {
		t.Fatalf("expected errors")
	}
	for _, msg := range []string{"fuel_on_board", "cruise_altitude", "direction"} {
		if !strings.Contains(err.Error(), msg) {
			t.Errorf("expected %q in %v", msg, err)
		}
	}
}

func TestAircraftModes(t *testing.T) {
	p := av.ComputationParameters{
		CruiseAltitude:      35000,
		ManagedCruiseSpeed:  280,
		ManagedDescentSpeed: 290,
		DescentSpeedLimit:   av.SpeedLimit{Speed: 250, UnderAltitude: 10000},
	}

	for _, tc := range []struct {
		name   string
		alt    float32
		fcu    av.VerticalMode
		out    av.GuidanceOutput
		expect float32
	}{
		{name: "climb to cruise", alt: 30000, expect: climbRate},
		{name: "level at cruise", alt: 35000, expect: 0},
		{name: "step descent", alt: 37000, expect: stepDescentRate},
		{name: "hold with DES and no guidance", alt: 20000, fcu: av.VerticalModeDescent, expect: 0},
		{name: "vertical speed", alt: 20000, fcu: av.VerticalModeDescent,
			out:    av.GuidanceOutput{RequestedVerticalMode: av.RequestedVerticalModeVsSpeed, TargetVerticalSpeed: -1000},
			expect: -1000},
		{name: "path", alt: 20000, fcu: av.VerticalModeDescent,
			out: av.GuidanceOutput{RequestedVerticalMode: av.RequestedVerticalModeVpathThrust, TargetAltitude: 19960,
				LinearDeviation: 40},
			expect: -2400 - 40},
		{name: "above path", alt: 20000, fcu: av.VerticalModeDescent,
			out: av.GuidanceOutput{RequestedVerticalMode: av.RequestedVerticalModeSpeedThrust, TargetAltitude: 19960,
				LinearDeviation: 500},
			expect: -2400 + idleDescentExtra},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ac := Aircraft{Altitude: tc.alt, prevTargetAltitude: util.Select(tc.out.TargetAltitude != 0, float32(20000), 0)}
			p := p
			p.FCUVerticalMode = tc.fcu
			if vs := ac.targetVerticalSpeed(tc.out, p, 1); vs != tc.expect {
				t.Errorf("vertical speed %.1f, expected %.1f", vs, tc.expect)
			}
		})
	}

	t.Run("speed margins", func(t *testing.T) {
		atmos := wx.NewConditions(0)
		ac := Aircraft{Altitude: 20000}
		p := p
		p.FlightPhase = av.FlightPhaseDescent
		out := av.GuidanceOutput{LowerSpeedMargin: 250, UpperSpeedMargin: 270}
		if s := ac.targetSpeed(out, p, atmos); s != 270 {
			t.Errorf("target speed %.1f, expected upper margin 270", s)
		}

		ac.Altitude = 8000
		if s := ac.targetSpeed(av.GuidanceOutput{}, p, atmos); s != 250 {
			t.Errorf("target speed %.1f below the limit altitude, expected 250", s)
		}
	})
}

func TestExampleScenarios(t *testing.T) {
	paths, err := filepath.Glob("../scenarios/*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) == 0 {
		t.Fatalf("no example scenarios found")
	}
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			t.Errorf("%s: %v", path, err)
			continue
		}
		if _, err := NewSim(s, nav.DefaultConfig(), nil, nil); err != nil {
			t.Errorf("%s: %v", path, err)
		}
	}
}
