// nav/climb.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"log/slog"

	av "github.com/mmp/vnav/aviation"
	"github.com/mmp/vnav/log"
	"github.com/mmp/vnav/predict"
	"github.com/mmp/vnav/profile"
	"github.com/mmp/vnav/wx"
)

// ClimbPathBuilder predicts the climb from the present position to the
// cruise altitude.
type ClimbPathBuilder struct {
	Flight string // for logging

	params    av.ParametersObserver
	atmos     wx.AtmosphericModel
	predictor predict.SegmentPredictor
	lg        *log.Logger
}

func NewClimbPathBuilder(params av.ParametersObserver, atmos wx.AtmosphericModel, predictor predict.SegmentPredictor,
	lg *log.Logger) *ClimbPathBuilder {
	return &ClimbPathBuilder{params: params, atmos: atmos, predictor: predictor, lg: lg}
}

// ComputeClimbPath appends the climb after the last checkpoint of p: the
// speed limit crossing if it is below cruiseAltitude, the acceleration to
// the climb speed above it, and T/C. Nothing is added if the last
// checkpoint is already at or above cruiseAltitude.
func (b *ClimbPathBuilder) ComputeClimbPath(p *profile.Profile, climb predict.ClimbStrategy, speeds predict.SpeedProfile,
	cruiseAltitude float32) error {
	start, ok := p.Last()
	if !ok {
		return profile.ErrEmptyProfile
	}
	if start.Altitude >= cruiseAltitude {
		return nil
	}

	params := b.params.Get()
	cps := []profile.Checkpoint{start}
	add := func(r predict.StepResult, reason profile.Reason) {
		last := cps[len(cps)-1]
		cp := profile.Checkpoint{
			Reason:               reason,
			DistanceFromStart:    last.DistanceFromStart + r.DistanceTraveled,
			Altitude:             r.FinalAltitude,
			Speed:                r.Speed,
			SecondsFromPresent:   last.SecondsFromPresent + r.TimeElapsed,
			RemainingFuelOnBoard: last.RemainingFuelOnBoard - r.FuelBurned,
		}
		cps = append(cps, cp)
		log.NavLog(b.Flight, params.SimTime, log.NavLogProfile, "climb: %s", cp)
	}

	if limit := params.ClimbSpeedLimit; limit.Speed > 0 && start.Altitude < limit.UnderAltitude &&
		limit.UnderAltitude < cruiseAltitude {
		speed := speeds.Target(start.DistanceFromStart, start.Altitude, predict.ManagedSpeedClimb)
		add(climb.PredictToAltitude(start.Altitude, limit.UnderAltitude, speed, 0, start.RemainingFuelOnBoard, 0),
			profile.ReasonCrossingSpeedLimit)
	}

	last := cps[len(cps)-1]
	mach := params.ManagedCruiseSpeedMach
	speed := speeds.Target(last.DistanceFromStart, last.Altitude, predict.ManagedSpeedClimb)
	target := speed
	if mach > 0 {
		target = min(target, b.atmos.CASFromMach(last.Altitude, mach))
	}
	if target > last.Speed+1 {
		add(b.predictor.SpeedChangeStep(predict.SpeedChangeRequest{
			Altitude:       last.Altitude,
			FromSpeed:      last.Speed,
			ToSpeed:        target,
			FromMachLimit:  mach,
			ToMachLimit:    mach,
			ThrustLimit:    predict.ClimbThrustN1Limit(b.atmos, last.Altitude, last.Speed),
			ZeroFuelWeight: params.ZeroFuelWeight,
			FuelOnBoard:    last.RemainingFuelOnBoard,
			ISADeviation:   b.atmos.ISADeviation(),
			Tropopause:     params.Tropopause,
		}), profile.ReasonAtmosphericConditions)
		last = cps[len(cps)-1]
	}

	add(climb.PredictToAltitude(last.Altitude, cruiseAltitude, speed, mach, last.RemainingFuelOnBoard, 0),
		profile.ReasonTopOfClimb)

	tc := cps[len(cps)-1]
	b.lg.Debug("climb path", slog.Int("checkpoints", len(cps)-1), slog.Any("tc", tc))

	p.InsertCheckpoints(len(p.Checkpoints), cps[1:]...)
	return nil
}
