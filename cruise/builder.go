// cruise/builder.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package cruise builds the cruise portion of the vertical profile, from
// the top of climb to the top of descent, including speed constraints and
// step climbs and descents.
package cruise

import (
	"fmt"
	"log/slog"
	"slices"

	av "github.com/mmp/vnav/aviation"
	"github.com/mmp/vnav/log"
	"github.com/mmp/vnav/math"
	"github.com/mmp/vnav/predict"
	"github.com/mmp/vnav/profile"
	"github.com/mmp/vnav/wx"
)

// Speed differences at or below this many knots don't merit an
// acceleration segment.
const speedTolerance = 1

// Results gives the predicted state at the top of descent.
type Results struct {
	RemainingFuelOnBoardAtTopOfDescent float32
	SecondsFromPresentAtTopOfDescent   float32
}

func (r Results) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("fuel_at_td", float64(r.RemainingFuelOnBoardAtTopOfDescent)),
		slog.Float64("seconds_at_td", float64(r.SecondsFromPresentAtTopOfDescent)),
	)
}

type PathBuilder struct {
	Flight string // for logging

	params    av.ParametersObserver
	atmos     wx.AtmosphericModel
	predictor predict.SegmentPredictor
	steps     *StepCoordinator
	lg        *log.Logger
}

func NewPathBuilder(params av.ParametersObserver, atmos wx.AtmosphericModel, predictor predict.SegmentPredictor,
	steps *StepCoordinator, lg *log.Logger) *PathBuilder {
	return &PathBuilder{
		params:    params,
		atmos:     atmos,
		predictor: predictor,
		steps:     steps,
		lg:        lg,
	}
}

// builder holds the state of a single ComputeCruisePath call.
type builder struct {
	*PathBuilder
	p       av.ComputationParameters
	isaDev  float32
	pending []profile.Checkpoint
}

func (b *builder) last() profile.Checkpoint {
	return b.pending[len(b.pending)-1]
}

func (b *builder) addFromResult(r predict.StepResult, reason profile.Reason) {
	last := b.last()
	cp := profile.Checkpoint{
		Reason:               reason,
		DistanceFromStart:    last.DistanceFromStart + r.DistanceTraveled,
		Altitude:             r.FinalAltitude,
		Speed:                r.Speed,
		SecondsFromPresent:   last.SecondsFromPresent + r.TimeElapsed,
		RemainingFuelOnBoard: last.RemainingFuelOnBoard - r.FuelBurned,
	}
	b.pending = append(b.pending, cp)

	log.NavLog(b.Flight, b.p.SimTime, log.NavLogCruise, "%s", cp)
}

// ComputeCruisePath adds the checkpoints between the start of cruise (T/C,
// or the present position if the climb is complete) and T/D to p. The
// profile must already contain T/D. On error, p is unchanged.
func (pb *PathBuilder) ComputeCruisePath(p *profile.Profile, climb predict.ClimbStrategy, descent predict.DescentStrategy,
	speeds predict.SpeedProfile) (Results, error) {
	startIdx := p.IndexOf(profile.ReasonTopOfClimb)
	if startIdx == -1 {
		startIdx = p.IndexOf(profile.ReasonPresentPosition)
	}
	if startIdx == -1 {
		return Results{}, fmt.Errorf("no T/C or present position: %w", profile.ErrCruiseSegmentInvalid)
	}
	start := p.Checkpoints[startIdx]

	end, ok := p.FindCheckpoint(profile.ReasonTopOfDescent)
	if !ok {
		return Results{}, fmt.Errorf("no T/D: %w", profile.ErrCruiseSegmentInvalid)
	}
	if start.DistanceFromStart > end.DistanceFromStart {
		return Results{}, fmt.Errorf("%s at %.2fnm is after T/D at %.2fnm: %w", start.Reason,
			start.DistanceFromStart, end.DistanceFromStart, profile.ErrCruiseSegmentInvalid)
	}

	b := &builder{
		PathBuilder: pb,
		p:           pb.params.Get(),
		isaDev:      pb.atmos.ISADeviation(),
		pending:     []profile.Checkpoint{start},
	}

	constraints := slices.Clone(p.MaxSpeedConstraints)
	slices.SortStableFunc(constraints, func(a, b profile.MaxSpeedConstraint) int {
		return int(math.Sign(a.DistanceFromStart - b.DistanceFromStart))
	})

	for _, step := range pb.steps.Steps() {
		if step.IsIgnored {
			pb.lg.Debug("skipping ignored step", slog.String("step", step.String()))
			continue
		}
		if step.DistanceFromStart < start.DistanceFromStart || step.DistanceFromStart > end.DistanceFromStart {
			pb.lg.Debug("step not within cruise segment", slog.String("step", step.String()),
				slog.Float64("start", float64(start.DistanceFromStart)),
				slog.Float64("td", float64(end.DistanceFromStart)))
			continue
		}

		constraints = b.addSpeedConstraintSegments(constraints, step.DistanceFromStart, speeds)

		last := b.last()
		speed := b.targetSpeed(speeds, last)
		b.addFromResult(b.levelSegment(last, step.DistanceFromStart-last.DistanceFromStart, speed),
			profile.ReasonAtmosphericConditions)

		b.addStep(step, climb, descent)
	}

	b.addSpeedConstraintSegments(constraints, end.DistanceFromStart, speeds)

	last := b.last()
	target := b.targetSpeed(speeds, last)
	if math.Abs(target-last.Speed) > speedTolerance {
		b.addFromResult(b.levelAcceleration(last, target), profile.ReasonAtmosphericConditions)

		if accel := b.last(); accel.DistanceFromStart > end.DistanceFromStart {
			pb.lg.Warn("cruise acceleration overshoots T/D",
				slog.Float64("from", float64(last.Speed)), slog.Float64("to", float64(target)),
				slog.Float64("end", float64(accel.DistanceFromStart)),
				slog.Float64("td", float64(end.DistanceFromStart)))
			b.pending[len(b.pending)-1].DistanceFromStart = end.DistanceFromStart
		}
		last = b.last()
	}

	final := b.levelSegment(last, end.DistanceFromStart-last.DistanceFromStart, target)

	if len(b.pending) > 1 {
		p.InsertCheckpoints(startIdx+1, b.pending[1:]...)
	}

	r := Results{
		RemainingFuelOnBoardAtTopOfDescent: last.RemainingFuelOnBoard - final.FuelBurned,
		SecondsFromPresentAtTopOfDescent:   last.SecondsFromPresent + final.TimeElapsed,
	}
	log.NavLog(pb.Flight, b.p.SimTime, log.NavLogCruise, "%d checkpoints, T/D fuel %.0f time %.0f",
		len(b.pending)-1, r.RemainingFuelOnBoardAtTopOfDescent, r.SecondsFromPresentAtTopOfDescent)

	return r, nil
}

// addSpeedConstraintSegments flies level segments to each constraint that
// is ahead of the last checkpoint and no farther than limit. It returns
// the constraints beyond limit, which have yet to be reached.
func (b *builder) addSpeedConstraintSegments(constraints []profile.MaxSpeedConstraint, limit float32,
	speeds predict.SpeedProfile) []profile.MaxSpeedConstraint {
	for len(constraints) > 0 && constraints[0].DistanceFromStart <= limit {
		c := constraints[0]
		constraints = constraints[1:]

		last := b.last()
		if c.DistanceFromStart < last.DistanceFromStart {
			continue
		}

		speed := b.targetSpeed(speeds, last)
		b.addFromResult(b.levelSegment(last, c.DistanceFromStart-last.DistanceFromStart, speed),
			profile.ReasonSpeedConstraint)
	}
	return constraints
}

func (b *builder) addStep(step Step, climb predict.ClimbStrategy, descent predict.DescentStrategy) {
	last := b.last()
	if step.ToAltitude == last.Altitude {
		b.lg.Debug("step to current altitude", slog.String("step", step.String()))
		return
	}

	if step.ToAltitude > last.Altitude {
		profile.ReclassifyLast(b.pending, profile.ReasonAtmosphericConditions, profile.ReasonStepClimb)
		r := climb.PredictToAltitude(last.Altitude, step.ToAltitude, b.p.ManagedCruiseSpeed,
			b.p.ManagedCruiseSpeedMach, last.RemainingFuelOnBoard, 0)
		b.addFromResult(r, profile.ReasonTopOfStepClimb)
	} else {
		profile.ReclassifyLast(b.pending, profile.ReasonAtmosphericConditions, profile.ReasonStepDescent)
		r := descent.PredictToAltitude(last.Altitude, step.ToAltitude, b.p.ManagedCruiseSpeed,
			b.p.ManagedCruiseSpeedMach, last.RemainingFuelOnBoard, 0)
		b.addFromResult(r, profile.ReasonBottomOfStepDescent)
	}
}

// targetSpeed returns the managed cruise speed target after the given
// checkpoint, as CAS limited by the managed cruise Mach.
func (b *builder) targetSpeed(speeds predict.SpeedProfile, cp profile.Checkpoint) float32 {
	speed := speeds.Target(cp.DistanceFromStart, cp.Altitude, predict.ManagedSpeedCruise)
	if b.p.ManagedCruiseSpeedMach > 0 {
		speed = min(speed, b.atmos.CASFromMach(cp.Altitude, b.p.ManagedCruiseSpeedMach))
	}
	return speed
}

func (b *builder) levelSegment(from profile.Checkpoint, distance, speed float32) predict.StepResult {
	return b.predictor.LevelFlightStep(predict.LevelFlightRequest{
		Altitude:       from.Altitude,
		Distance:       distance,
		Speed:          speed,
		MachLimit:      b.p.ManagedCruiseSpeedMach,
		ZeroFuelWeight: b.p.ZeroFuelWeight,
		FuelOnBoard:    from.RemainingFuelOnBoard,
		ISADeviation:   b.isaDev,
	})
}

// levelAcceleration changes speed at the altitude of from using the
// climb thrust limit.
func (b *builder) levelAcceleration(from profile.Checkpoint, speed float32) predict.StepResult {
	return b.predictor.SpeedChangeStep(predict.SpeedChangeRequest{
		Altitude:       from.Altitude,
		FromSpeed:      from.Speed,
		ToSpeed:        speed,
		FromMachLimit:  b.p.ManagedCruiseSpeedMach,
		ToMachLimit:    b.p.ManagedCruiseSpeedMach,
		ThrustLimit:    predict.ClimbThrustN1Limit(b.atmos, from.Altitude, from.Speed),
		ZeroFuelWeight: b.p.ZeroFuelWeight,
		FuelOnBoard:    from.RemainingFuelOnBoard,
		ISADeviation:   b.isaDev,
		Tropopause:     b.p.Tropopause,
	})
}

// FinalCruiseAltitude returns the altitude at the end of cruise, after
// any steps.
func (pb *PathBuilder) FinalCruiseAltitude() float32 {
	return pb.steps.FinalAltitude(pb.params.Get().CruiseAltitude)
}
