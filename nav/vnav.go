// nav/vnav.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package nav ties the vertical navigation components together: it
// rebuilds the vertical profile on demand and runs descent guidance
// against the most recently published one.
package nav

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	av "github.com/mmp/vnav/aviation"
	"github.com/mmp/vnav/cruise"
	"github.com/mmp/vnav/descent"
	"github.com/mmp/vnav/log"
	"github.com/mmp/vnav/math"
	"github.com/mmp/vnav/predict"
	"github.com/mmp/vnav/profile"
	"github.com/mmp/vnav/wx"
)

var ErrProfileSuperseded = errors.New("Profile rebuild superseded by a newer one")

// FlightPlan holds the parts of the flight plan that the vertical profile
// depends on.
type FlightPlan struct {
	Destination      descent.Destination          `json:"destination" yaml:"destination"`
	Steps            []cruise.Step                `json:"steps" yaml:"steps"`
	SpeedConstraints []profile.MaxSpeedConstraint `json:"speed_constraints" yaml:"speed_constraints"`
}

// VNAV owns the profile builders and descent guidance for a single
// flight. RecomputeProfile is called when the flight plan or the
// aircraft state changes enough to require a new profile; Update is
// called once per guidance cycle.
type VNAV struct {
	Flight string

	cfg        Config
	params     av.ParametersObserver
	atmos      wx.AtmosphericModel
	predictor  *predict.Cached
	strategies predict.Strategies
	lg         *log.Logger

	steps   *cruise.StepCoordinator
	climb   *ClimbPathBuilder
	cruise  *cruise.PathBuilder
	descent *descent.PathBuilder

	constraints []profile.MaxSpeedConstraint
	destination descent.Destination

	publisher profile.Publisher
	// Generation of the profile most recently given to guidance.
	guidanceGeneration profile.Ticket
	guidance           *descent.Guidance
}

func NewVNAV(flight string, cfg Config, params av.ParametersObserver, atmos wx.AtmosphericModel,
	sink descent.GuidanceSink, lg *log.Logger) (*VNAV, error) {
	lg = lg.With(slog.String("flight", flight))

	pm := predict.NewPointMass(cfg.Predict.Performance, params.Get().Tropopause)
	predictor, err := predict.NewCached(pm, cfg.Predict.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", flight, err)
	}

	v := &VNAV{
		Flight:     flight,
		cfg:        cfg,
		params:     params,
		atmos:      atmos,
		predictor:  predictor,
		strategies: cfg.Predict.MakeStrategies(predictor, params, atmos),
		lg:         lg,
		steps:      cruise.NewStepCoordinator(cfg.Cruise.MinStepSpacing),
	}

	v.climb = NewClimbPathBuilder(params, atmos, predictor, lg)
	v.climb.Flight = flight
	v.cruise = cruise.NewPathBuilder(params, atmos, predictor, v.steps, lg)
	v.cruise.Flight = flight
	v.descent = descent.NewPathBuilder(cfg.DescentPath, params, atmos, predictor, lg)
	v.descent.Flight = flight

	tracker := descent.NewProfileRelation(params, lg)
	tracker.Flight = flight
	margin := descent.NewSpeedMargin(cfg.SpeedMargin, params, atmos)
	margin.Flight = flight
	v.guidance = descent.NewGuidance(cfg.Guidance, tracker, margin, params, sink, lg)
	v.guidance.Flight = flight

	return v, nil
}

// SetFlightPlan replaces the destination, steps, and speed constraints.
// The profile is not rebuilt until RecomputeProfile is called.
func (v *VNAV) SetFlightPlan(fp FlightPlan) error {
	v.steps.Clear()
	for _, s := range fp.Steps {
		if err := v.steps.Add(s); err != nil {
			return fmt.Errorf("%s: %w", s, err)
		}
	}
	v.destination = fp.Destination
	v.constraints = slices.Clone(fp.SpeedConstraints)
	return nil
}

func (v *VNAV) AddStep(s cruise.Step) error {
	return v.steps.Add(s)
}

func (v *VNAV) RemoveStep(distanceFromStart float32) error {
	return v.steps.Remove(distanceFromStart)
}

// Steps returns a copy of the entered steps, flagged as ignored or not as
// of the last RecomputeProfile.
func (v *VNAV) Steps() []cruise.Step {
	return slices.Clone(v.steps.Steps())
}

// RecomputeProfile builds a new profile from the current parameters and
// publishes it. If the build fails, the previously published profile
// stays current and the error is returned.
func (v *VNAV) RecomputeProfile() error {
	ticket := v.publisher.Begin()

	p, err := v.buildProfile()
	if err != nil {
		v.lg.Warn("profile rebuild failed; keeping previous profile", slog.Any("error", err))
		return err
	}

	if !v.publisher.Publish(ticket, p) {
		v.lg.Info("discarding superseded profile", slog.Uint64("ticket", uint64(ticket)))
		return ErrProfileSuperseded
	}

	v.lg.Debug("published profile", slog.Uint64("generation", uint64(ticket)), slog.Any("profile", p))
	log.NavLog(v.Flight, v.params.Get().SimTime, log.NavLogProfile, "published %d:\n%s", ticket, p)
	return nil
}

func (v *VNAV) buildProfile() (*profile.Profile, error) {
	params := v.params.Get()
	ppos := params.PresentPosition

	p := profile.New(profile.Checkpoint{
		Reason:               profile.ReasonPresentPosition,
		DistanceFromStart:    ppos.DistanceFromStart,
		Altitude:             ppos.Altitude,
		Speed:                ppos.IAS,
		RemainingFuelOnBoard: ppos.FuelOnBoard,
	})
	p.MaxSpeedConstraints = slices.Clone(v.constraints)
	speeds := predict.NewManagedSpeedProfile(v.params, p.MaxSpeedConstraints)

	if ppos.Altitude < params.CruiseAltitude-v.cfg.CruiseAltitudeTolerance {
		if err := v.climb.ComputeClimbPath(p, v.strategies.Climb, speeds, params.CruiseAltitude); err != nil {
			return nil, fmt.Errorf("climb: %w", err)
		}
	}

	// Steps outside the cruise segment or too close to T/C or T/D are
	// ignored, which may in turn change the final cruise altitude and
	// thus T/D. T/D only moves earlier here, so a step that would put T/D
	// before itself stays ignored and this converges. Once the climb is
	// over only the spacing to T/D and between steps matters.
	topOfClimb := -math.Inf()
	if tc, ok := p.FindCheckpoint(profile.ReasonTopOfClimb); ok {
		topOfClimb = tc.DistanceFromStart
	}
	final := v.cruise.FinalCruiseAltitude()
	topOfDescent := v.descent.TopOfDescentDistance(v.destination, final)
	for range len(v.steps.Steps()) + 2 {
		v.steps.UpdateIgnored(topOfClimb, topOfDescent)
		f := v.cruise.FinalCruiseAltitude()
		if f == final {
			break
		}
		final = f
		topOfDescent = min(topOfDescent, v.descent.TopOfDescentDistance(v.destination, final))
	}

	if err := v.descent.ComputeGeometry(p, v.destination, final); err != nil {
		return nil, fmt.Errorf("descent: %w", err)
	}

	results, err := v.cruise.ComputeCruisePath(p, v.strategies.StepClimb, v.strategies.StepDescent, speeds)
	if err != nil {
		return nil, fmt.Errorf("cruise: %w", err)
	}

	if err := v.descent.PredictForward(p, results.RemainingFuelOnBoardAtTopOfDescent,
		results.SecondsFromPresentAtTopOfDescent); err != nil {
		return nil, fmt.Errorf("descent: %w", err)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Update runs one guidance cycle, first handing guidance the latest
// profile if a new one has been published since the last cycle.
func (v *VNAV) Update() {
	if p, gen := v.publisher.Current(); gen != v.guidanceGeneration {
		v.guidance.UpdateProfile(p)
		v.guidanceGeneration = gen
	}
	v.guidance.Update()
}

// Profile returns the current published profile, which may be nil. It
// must not be modified.
func (v *VNAV) Profile() *profile.Profile {
	p, _ := v.publisher.Current()
	return p
}

func (v *VNAV) GuidanceState() descent.GuidanceState {
	return v.guidance.State()
}

func (v *VNAV) GuidanceOutput() av.GuidanceOutput {
	return v.guidance.Output()
}

// PredictorStats returns the hit and miss counts of the prediction cache.
func (v *VNAV) PredictorStats() (hits, misses int) {
	return v.predictor.Stats()
}
