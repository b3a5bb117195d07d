// nav/vnav_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	av "github.com/mmp/vnav/aviation"
	"github.com/mmp/vnav/cruise"
	"github.com/mmp/vnav/descent"
	"github.com/mmp/vnav/math"
	"github.com/mmp/vnav/predict"
	"github.com/mmp/vnav/profile"
	"github.com/mmp/vnav/wx"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type recordingSink struct {
	outputs []av.GuidanceOutput
}

func (s *recordingSink) Publish(o av.GuidanceOutput) {
	s.outputs = append(s.outputs, o)
}

func testParams(distance, altitude, ias float32) *av.ParameterStore {
	return av.NewParameterStore(av.ComputationParameters{
		SimTime:                 t0,
		ZeroFuelWeight:          130000,
		CruiseAltitude:          35000,
		ManagedCruiseSpeed:      280,
		ManagedCruiseSpeedMach:  0.78,
		ManagedDescentSpeed:     290,
		ManagedDescentSpeedMach: 0.78,
		ClimbSpeedLimit:         av.SpeedLimit{Speed: 250, UnderAltitude: 10000},
		DescentSpeedLimit:       av.SpeedLimit{Speed: 250, UnderAltitude: 10000},
		Tropopause:              wx.StandardTropopause,
		FlightPhase:             av.FlightPhaseCruise,
		PresentPosition: av.PresentPosition{
			DistanceFromStart: distance,
			Altitude:          altitude,
			GroundSpeed:       450,
			IAS:               ias,
			FuelOnBoard:       20000,
		},
		VMax: 350,
		VLS:  130,
	})
}

func reasons(p *profile.Profile) []profile.Reason {
	var r []profile.Reason
	for _, cp := range p.Checkpoints {
		r = append(r, cp.Reason)
	}
	return r
}

func newTestVNAV(t *testing.T, params *av.ParameterStore, sink descent.GuidanceSink) *VNAV {
	t.Helper()

	v, err := NewVNAV("TST123", DefaultConfig(), params, wx.NewConditions(0), sink, nil)
	if err != nil {
		t.Fatalf("NewVNAV: %v", err)
	}
	if err := v.SetFlightPlan(FlightPlan{Destination: descent.Destination{Distance: 400}}); err != nil {
		t.Fatalf("SetFlightPlan: %v", err)
	}
	return v
}

func TestClimbPath(t *testing.T) {
	params := testParams(0, 2000, 250)
	atmos := wx.NewConditions(0)
	cfg := predict.DefaultConfig()
	pm := predict.NewPointMass(cfg.Performance, 0)
	strategies := cfg.MakeStrategies(pm, params, atmos)
	speeds := predict.NewManagedSpeedProfile(params, nil)
	b := NewClimbPathBuilder(params, atmos, pm, nil)

	p := profile.New(profile.Checkpoint{Reason: profile.ReasonPresentPosition, Altitude: 2000, Speed: 250,
		RemainingFuelOnBoard: 20000})
	if err := b.ComputeClimbPath(p, strategies.Climb, speeds, 35000); err != nil {
		t.Fatalf("ComputeClimbPath: %v", err)
	}

	expect := []profile.Reason{profile.ReasonPresentPosition, profile.ReasonCrossingSpeedLimit,
		profile.ReasonAtmosphericConditions, profile.ReasonTopOfClimb}
	if got := reasons(p); !slices.Equal(got, expect) {
		t.Fatalf("checkpoints %v, expected %v", got, expect)
	}

	cps := p.Checkpoints
	for i, alt := range []float32{2000, 10000, 10000, 35000} {
		if cps[i].Altitude != alt {
			t.Errorf("%s: altitude %.0f, expected %.0f", cps[i].Reason, cps[i].Altitude, alt)
		}
	}
	for i := 1; i < len(cps); i++ {
		if cps[i].DistanceFromStart <= cps[i-1].DistanceFromStart {
			t.Errorf("%s at %.2fnm is not after %s at %.2fnm", cps[i].Reason, cps[i].DistanceFromStart,
				cps[i-1].Reason, cps[i-1].DistanceFromStart)
		}
		if cps[i].RemainingFuelOnBoard >= cps[i-1].RemainingFuelOnBoard {
			t.Errorf("%s: fuel %.1f didn't decrease", cps[i].Reason, cps[i].RemainingFuelOnBoard)
		}
	}

	if cps[1].Speed != 250 {
		t.Errorf("speed limit crossing at %.1f kts, expected 250", cps[1].Speed)
	}
	if cps[2].Speed != 280 {
		t.Errorf("acceleration ends at %.1f kts, expected 280", cps[2].Speed)
	}
	if tc := atmos.CASFromMach(35000, 0.78); !(math.Abs(cps[3].Speed-tc) < 0.5) {
		t.Errorf("T/C speed %.1f, expected Mach-limited %.1f", cps[3].Speed, tc)
	}

	t.Run("at cruise", func(t *testing.T) {
		p := profile.New(profile.Checkpoint{Reason: profile.ReasonPresentPosition, Altitude: 35000})
		if err := b.ComputeClimbPath(p, strategies.Climb, speeds, 35000); err != nil {
			t.Fatalf("ComputeClimbPath: %v", err)
		}
		if p.Len() != 1 {
			t.Errorf("expected no climb checkpoints; got %s", p)
		}
	})

	t.Run("empty", func(t *testing.T) {
		if err := b.ComputeClimbPath(profile.New(), strategies.Climb, speeds, 35000); !errors.Is(err, profile.ErrEmptyProfile) {
			t.Errorf("expected ErrEmptyProfile, got %v", err)
		}
	})
}

func TestRecomputeProfile(t *testing.T) {
	t.Run("at cruise", func(t *testing.T) {
		v := newTestVNAV(t, testParams(0, 35000, 264), &recordingSink{})
		if err := v.RecomputeProfile(); err != nil {
			t.Fatalf("RecomputeProfile: %v", err)
		}

		p := v.Profile()
		expect := []profile.Reason{profile.ReasonPresentPosition, profile.ReasonTopOfDescent,
			profile.ReasonCrossingSpeedLimit, profile.ReasonGeometricPathStart, profile.ReasonLanding}
		if got := reasons(p); !slices.Equal(got, expect) {
			t.Fatalf("checkpoints %v, expected %v", got, expect)
		}
		if err := p.Validate(); err != nil {
			t.Errorf("published profile doesn't validate: %v", err)
		}
		if td, _ := p.FindCheckpoint(profile.ReasonTopOfDescent); td.Altitude != 35000 {
			t.Errorf("T/D altitude %.0f, expected 35000", td.Altitude)
		}
		if landing, _ := p.Last(); landing.DistanceFromStart != 400 {
			t.Errorf("landing at %.1fnm, expected 400", landing.DistanceFromStart)
		}
	})

	t.Run("with climb", func(t *testing.T) {
		v := newTestVNAV(t, testParams(0, 2000, 250), &recordingSink{})
		if err := v.RecomputeProfile(); err != nil {
			t.Fatalf("RecomputeProfile: %v", err)
		}

		p := v.Profile()
		tc := p.IndexOf(profile.ReasonTopOfClimb)
		td := p.IndexOf(profile.ReasonTopOfDescent)
		if tc == -1 || td == -1 || tc > td {
			t.Fatalf("expected T/C before T/D: %s", p)
		}
		if err := p.Validate(); err != nil {
			t.Errorf("published profile doesn't validate: %v", err)
		}
	})

	t.Run("step climb", func(t *testing.T) {
		v := newTestVNAV(t, testParams(0, 35000, 264), &recordingSink{})
		if err := v.AddStep(cruise.Step{Fix: "STEPR", DistanceFromStart: 150, ToAltitude: 37000}); err != nil {
			t.Fatalf("AddStep: %v", err)
		}
		if err := v.RecomputeProfile(); err != nil {
			t.Fatalf("RecomputeProfile: %v", err)
		}

		p := v.Profile()
		if step, ok := p.FindCheckpoint(profile.ReasonStepClimb); !ok || step.DistanceFromStart != 150 {
			t.Errorf("expected step climb at 150nm: %s", p)
		}
		if top, ok := p.FindCheckpoint(profile.ReasonTopOfStepClimb); !ok || top.Altitude != 37000 {
			t.Errorf("expected top of step climb at 37000: %s", p)
		}
		if td, _ := p.FindCheckpoint(profile.ReasonTopOfDescent); td.Altitude != 37000 {
			t.Errorf("T/D altitude %.0f, expected 37000", td.Altitude)
		}
	})

	t.Run("ignored step", func(t *testing.T) {
		v := newTestVNAV(t, testParams(0, 35000, 264), &recordingSink{})
		// Too close to T/D.
		if err := v.AddStep(cruise.Step{DistanceFromStart: 250, ToAltitude: 37000}); err != nil {
			t.Fatalf("AddStep: %v", err)
		}
		if err := v.RecomputeProfile(); err != nil {
			t.Fatalf("RecomputeProfile: %v", err)
		}

		if steps := v.Steps(); len(steps) != 1 || !steps[0].IsIgnored {
			t.Errorf("expected step to be ignored: %v", steps)
		}
		p := v.Profile()
		if p.IndexOf(profile.ReasonTopOfStepClimb) != -1 {
			t.Errorf("ignored step was flown: %s", p)
		}
		if td, _ := p.FindCheckpoint(profile.ReasonTopOfDescent); td.Altitude != 35000 {
			t.Errorf("T/D altitude %.0f, expected 35000", td.Altitude)
		}
	})

	t.Run("step beyond T/D", func(t *testing.T) {
		v := newTestVNAV(t, testParams(0, 35000, 264), &recordingSink{})
		if err := v.AddStep(cruise.Step{DistanceFromStart: 380, ToAltitude: 39000}); err != nil {
			t.Fatalf("AddStep: %v", err)
		}
		if err := v.RecomputeProfile(); err != nil {
			t.Fatalf("RecomputeProfile: %v", err)
		}

		if steps := v.Steps(); len(steps) != 1 || !steps[0].IsIgnored {
			t.Errorf("expected step to be ignored: %v", steps)
		}
		p := v.Profile()
		for _, cp := range p.Checkpoints {
			if cp.Altitude > 35000 {
				t.Errorf("%s above the cruise altitude", cp)
			}
		}
		if td, _ := p.FindCheckpoint(profile.ReasonTopOfDescent); td.Altitude != 35000 {
			t.Errorf("T/D altitude %.0f, expected 35000", td.Altitude)
		}
	})

	t.Run("step moving T/D before itself", func(t *testing.T) {
		v := newTestVNAV(t, testParams(0, 35000, 264), &recordingSink{})
		tdLow := v.descent.TopOfDescentDistance(v.destination, 35000)
		tdHigh := v.descent.TopOfDescentDistance(v.destination, 39000)
		// Before T/D at 35000 but after T/D at 39000.
		d := (tdLow + tdHigh) / 2
		if err := v.AddStep(cruise.Step{DistanceFromStart: d, ToAltitude: 39000}); err != nil {
			t.Fatalf("AddStep: %v", err)
		}
		if err := v.RecomputeProfile(); err != nil {
			t.Fatalf("RecomputeProfile: %v", err)
		}
		if steps := v.Steps(); len(steps) != 1 || !steps[0].IsIgnored {
			t.Errorf("expected step to be ignored: %v", steps)
		}
		if td, _ := v.Profile().FindCheckpoint(profile.ReasonTopOfDescent); td.Altitude != 35000 {
			t.Errorf("T/D altitude %.0f, expected 35000", td.Altitude)
		}
	})

	t.Run("keeps previous on failure", func(t *testing.T) {
		params := testParams(0, 35000, 264)
		v := newTestVNAV(t, params, &recordingSink{})
		if err := v.RecomputeProfile(); err != nil {
			t.Fatalf("RecomputeProfile: %v", err)
		}
		prev := v.Profile()

		params.Update(func(p *av.ComputationParameters) { p.PresentPosition.DistanceFromStart = 390 })
		err := v.RecomputeProfile()
		if !errors.Is(err, descent.ErrInsufficientDescentDistance) {
			t.Errorf("expected ErrInsufficientDescentDistance, got %v", err)
		}
		if v.Profile() != prev {
			t.Errorf("failed rebuild replaced the published profile")
		}
	})
}

func TestVNAVUpdate(t *testing.T) {
	params := testParams(0, 35000, 264)
	sink := &recordingSink{}
	v := newTestVNAV(t, params, sink)

	v.Update()
	if s := v.GuidanceState(); s != descent.GuidanceStateInvalidProfile {
		t.Errorf("state %s before any profile, expected invalid", s)
	}

	if err := v.RecomputeProfile(); err != nil {
		t.Fatalf("RecomputeProfile: %v", err)
	}
	v.Update()
	if s := v.GuidanceState(); s != descent.GuidanceStateObserving {
		t.Errorf("state %s after profile publish, expected observing", s)
	}

	params.Update(func(p *av.ComputationParameters) { p.FCUVerticalMode = av.VerticalModeDescent })
	v.Update()
	if s := v.GuidanceState(); s != descent.GuidanceStateProvidingGuidance {
		t.Errorf("state %s with DES engaged, expected providing guidance", s)
	}
	if out := v.GuidanceOutput(); out.RequestedVerticalMode == av.RequestedVerticalModeNone {
		t.Errorf("expected a requested vertical mode, got %s", out)
	}
	if n := len(sink.outputs); n != 4 {
		t.Errorf("expected 4 outputs, got %d", n)
	}

	if hits, misses := v.PredictorStats(); hits+misses == 0 {
		t.Errorf("predictor was never used")
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	write := func(name, contents string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	t.Run("yaml", func(t *testing.T) {
		cfg, err := LoadConfig(write("vnav.yaml", "guidance:\n  above_path_threshold: 300\ncruise:\n  min_step_spacing: 25\n"))
		if err != nil {
			t.Fatalf("LoadConfig: %v", err)
		}
		if cfg.Guidance.AbovePathThreshold != 300 {
			t.Errorf("above_path_threshold %.0f, expected 300", cfg.Guidance.AbovePathThreshold)
		}
		if cfg.Cruise.MinStepSpacing != 25 {
			t.Errorf("min_step_spacing %.0f, expected 25", cfg.Cruise.MinStepSpacing)
		}
		if def := descent.DefaultGuidanceConfig(); cfg.Guidance.BelowPathThreshold != def.BelowPathThreshold {
			t.Errorf("below_path_threshold %.0f, expected default %.0f", cfg.Guidance.BelowPathThreshold,
				def.BelowPathThreshold)
		}
	})

	t.Run("json", func(t *testing.T) {
		cfg, err := LoadConfig(write("vnav.json", `{"predict": {"cache_size": 16}}`))
		if err != nil {
			t.Fatalf("LoadConfig: %v", err)
		}
		if cfg.Predict.CacheSize != 16 {
			t.Errorf("cache_size %d, expected 16", cfg.Predict.CacheSize)
		}
		if cfg.Predict.Performance != predict.A320Performance() {
			t.Errorf("performance was not defaulted: %+v", cfg.Predict.Performance)
		}
	})

	t.Run("unknown field", func(t *testing.T) {
		if _, err := LoadConfig(write("typo.yaml", "guidance:\n  above_path_treshold: 300\n")); err == nil {
			t.Errorf("expected error for unknown field")
		}
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := LoadConfig(write("bad.yaml", "cruise:\n  min_step_spacing: -5\n"))
		if err == nil || !strings.Contains(err.Error(), "min_step_spacing") {
			t.Errorf("expected min_step_spacing error, got %v", err)
		}
	})

	t.Run("missing", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(dir, "nonexistent.yaml")); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected ErrNotExist, got %v", err)
		}
	})
}
