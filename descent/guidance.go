// descent/guidance.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package descent tracks the aircraft against the descent profile and
// provides managed descent guidance.
package descent

import (
	"log/slog"

	av "github.com/mmp/vnav/aviation"
	"github.com/mmp/vnav/log"
	"github.com/mmp/vnav/math"
	"github.com/mmp/vnav/profile"
	"github.com/mmp/vnav/util"
)

// GuidanceSink receives the guidance output once per cycle.
type GuidanceSink interface {
	Publish(av.GuidanceOutput)
}

type GuidanceState int

const (
	GuidanceStateInvalidProfile GuidanceState = iota
	GuidanceStateObserving
	GuidanceStateProvidingGuidance
)

func (s GuidanceState) String() string {
	return [...]string{"invalid profile", "observing", "providing guidance"}[s]
}

type GuidanceConfig struct {
	// Linear deviations below BelowPathThreshold (negative) are below the
	// path and above AbovePathThreshold are above it.
	BelowPathThreshold float32 `json:"below_path_threshold" yaml:"below_path_threshold"`
	AbovePathThreshold float32 `json:"above_path_threshold" yaml:"above_path_threshold"`
	// Vertical speeds commanded to return to the path from below.
	AboveSpeedLimitVerticalSpeed float32 `json:"above_speed_limit_vs" yaml:"above_speed_limit_vs"`
	BelowSpeedLimitVerticalSpeed float32 `json:"below_speed_limit_vs" yaml:"below_speed_limit_vs"`
	// Fraction of the path angle flown to intercept the geometric path
	// from below.
	GeometricInterceptFactor float32 `json:"geometric_intercept_factor" yaml:"geometric_intercept_factor"`
}

func DefaultGuidanceConfig() GuidanceConfig {
	return GuidanceConfig{
		BelowPathThreshold:           -200,
		AbovePathThreshold:           200,
		AboveSpeedLimitVerticalSpeed: -1000,
		BelowSpeedLimitVerticalSpeed: -500,
		GeometricInterceptFactor:     0.5,
	}
}

func (c GuidanceConfig) Validate(e *util.ErrorLogger) {
	e.Push("guidance")
	defer e.Pop()

	if c.BelowPathThreshold >= 0 {
		e.ErrorString("below_path_threshold %.0f must be negative", c.BelowPathThreshold)
	}
	if c.AbovePathThreshold <= 0 {
		e.ErrorString("above_path_threshold %.0f must be positive", c.AbovePathThreshold)
	}
	if c.AboveSpeedLimitVerticalSpeed >= 0 || c.BelowSpeedLimitVerticalSpeed >= 0 {
		e.ErrorString("below path vertical speeds must be negative")
	}
	if c.GeometricInterceptFactor <= 0 || c.GeometricInterceptFactor > 1 {
		e.ErrorString("geometric_intercept_factor %.2f must be in (0,1]", c.GeometricInterceptFactor)
	}
}

// Guidance is the managed descent state machine. It starts out with an
// invalid profile, observes the aircraft relative to the profile once it
// has a valid one, and provides guidance when DES is engaged.
type Guidance struct {
	Flight string // for logging

	cfg     GuidanceConfig
	tracker *ProfileRelation
	margin  *SpeedMargin
	params  av.ParametersObserver
	sink    GuidanceSink
	lg      *log.Logger

	state  GuidanceState
	output av.GuidanceOutput
}

func NewGuidance(cfg GuidanceConfig, tracker *ProfileRelation, margin *SpeedMargin, params av.ParametersObserver,
	sink GuidanceSink, lg *log.Logger) *Guidance {
	g := &Guidance{
		cfg:     cfg,
		tracker: tracker,
		margin:  margin,
		params:  params,
		sink:    sink,
		lg:      lg,
	}
	g.write()
	return g
}

func (g *Guidance) State() GuidanceState {
	return g.state
}

// Output returns the most recently computed guidance.
func (g *Guidance) Output() av.GuidanceOutput {
	return g.output
}

// UpdateProfile hands a newly published profile to the tracker.
func (g *Guidance) UpdateProfile(p *profile.Profile) {
	g.tracker.UpdateProfile(p)

	if !g.tracker.IsValid() {
		g.changeState(GuidanceStateInvalidProfile)
	} else if g.state == GuidanceStateInvalidProfile {
		g.changeState(GuidanceStateObserving)
	}
}

func (g *Guidance) changeState(s GuidanceState) {
	if s == g.state {
		return
	}

	g.lg.Info("descent guidance state change", slog.String("from", g.state.String()),
		slog.String("to", s.String()))
	log.NavLog(g.Flight, g.params.Get().SimTime, log.NavLogGuidance, "%s -> %s", g.state, s)

	if s == GuidanceStateInvalidProfile {
		g.output = av.GuidanceOutput{}
		g.write()
	}
	g.state = s
}

// Update runs one guidance cycle.
func (g *Guidance) Update() {
	g.tracker.Update()

	if !g.tracker.IsValid() {
		if g.state == GuidanceStateInvalidProfile {
			g.write()
		} else {
			// Writes the neutral output.
			g.changeState(GuidanceStateInvalidProfile)
		}
		return
	}

	p := g.params.Get()
	if p.FCUVerticalMode == av.VerticalModeDescent {
		g.changeState(GuidanceStateProvidingGuidance)
	} else if g.state != GuidanceStateObserving {
		g.changeState(GuidanceStateObserving)
	}

	g.updateLinearDeviation(p)
	if g.state == GuidanceStateProvidingGuidance {
		g.updateDesModeGuidance()
	} else {
		g.output.RequestedVerticalMode = av.RequestedVerticalModeNone
		g.output.TargetVerticalSpeed = 0
	}
	g.updateSpeedMargins(p)

	log.NavLog(g.Flight, p.SimTime, log.NavLogGuidance, "%s: %s", g.state, g.output)
	g.write()
}

func (g *Guidance) updateLinearDeviation(p av.ComputationParameters) {
	pastTD := g.tracker.IsPastTopOfDescent()

	g.output.TargetAltitude = g.tracker.CurrentTargetAltitude()
	g.output.LinearDeviation = g.tracker.ComputeLinearDeviation()
	g.output.ShowLinearDeviation = p.FlightPhase >= av.FlightPhaseDescent || pastTD
	// Past T/D without DES engaged: remind the crew to start down.
	g.output.ShowDescentLatch = pastTD && g.state == GuidanceStateObserving
}

func (g *Guidance) updateDesModeGuidance() {
	onGeometricPath := g.tracker.IsOnGeometricPath()
	deviation := g.output.LinearDeviation

	if !g.tracker.IsPastTopOfDescent() || deviation < g.cfg.BelowPathThreshold {
		// Below path
		if onGeometricPath {
			g.output.RequestedVerticalMode = av.RequestedVerticalModeFpaSpeed
			g.output.TargetVerticalSpeed = g.tracker.CurrentTargetPathAngle() * g.cfg.GeometricInterceptFactor
		} else {
			g.output.RequestedVerticalMode = av.RequestedVerticalModeVsSpeed
			g.output.TargetVerticalSpeed = util.Select(g.tracker.IsAboveSpeedLimitAltitude(),
				g.cfg.AboveSpeedLimitVerticalSpeed, g.cfg.BelowSpeedLimitVerticalSpeed)
		}
	} else if deviation > g.cfg.AbovePathThreshold {
		// Above path; speed control brings the aircraft back down to it.
		g.output.RequestedVerticalMode = av.RequestedVerticalModeSpeedThrust
		g.output.TargetVerticalSpeed = 0
	} else if onGeometricPath {
		g.output.RequestedVerticalMode = av.RequestedVerticalModeVpathSpeed
		g.output.TargetVerticalSpeed = g.tracker.CurrentTargetVerticalSpeed()
	} else {
		// On the idle path
		g.output.RequestedVerticalMode = av.RequestedVerticalModeVpathThrust
		g.output.TargetVerticalSpeed = g.tracker.CurrentTargetVerticalSpeed()
	}
}

// speedTarget returns the selected speed if the pilot has selected one and
// otherwise the profile's speed at the aircraft's position.
func (g *Guidance) speedTarget(p av.ComputationParameters) float32 {
	if p.FCUSpeedSelected {
		return math.Round(p.FCUSpeed)
	}
	return math.Round(g.tracker.CurrentTargetSpeed())
}

func (g *Guidance) updateSpeedMargins(p av.ComputationParameters) {
	g.output.LowerSpeedMargin, g.output.UpperSpeedMargin = g.margin.GetMargins(g.speedTarget(p))
}

func (g *Guidance) write() {
	if g.sink != nil {
		g.sink.Publish(g.output)
	}
}
