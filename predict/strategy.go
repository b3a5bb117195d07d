// predict/strategy.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package predict

import (
	av "github.com/mmp/vnav/aviation"
	"github.com/mmp/vnav/wx"
)

// ClimbStrategy predicts a climb at constant speed to a higher altitude.
type ClimbStrategy interface {
	PredictToAltitude(from, to, speed, mach, fuelOnBoard float32, wind wx.WindComponent) StepResult
}

// DescentStrategy predicts a descent at constant speed to a lower
// altitude.
type DescentStrategy interface {
	PredictToAltitude(from, to, speed, mach, fuelOnBoard float32, wind wx.WindComponent) StepResult
}

// VerticalSpeedStrategy flies a fixed vertical speed; it serves as either
// a climb or a descent strategy depending on its sign.
type VerticalSpeedStrategy struct {
	Predictor     Predictor
	Params        av.ParametersObserver
	Atmosphere    wx.AtmosphericModel
	VerticalSpeed float32 // feet per minute
}

func (s *VerticalSpeedStrategy) PredictToAltitude(from, to, speed, mach, fuelOnBoard float32, wind wx.WindComponent) StepResult {
	return s.Predictor.VerticalSpeedStep(VerticalStepRequest{
		StartAltitude:  from,
		EndAltitude:    to,
		VerticalSpeed:  s.VerticalSpeed,
		Speed:          speed,
		MachLimit:      mach,
		ZeroFuelWeight: s.Params.Get().ZeroFuelWeight,
		FuelOnBoard:    fuelOnBoard,
		Wind:           wind,
		ISADeviation:   s.Atmosphere.ISADeviation(),
	})
}

// FlightPathAngleStrategy flies a fixed flight path angle; negative angles
// descend.
type FlightPathAngleStrategy struct {
	Predictor  Predictor
	Params     av.ParametersObserver
	Atmosphere wx.AtmosphericModel
	Angle      float32 // degrees
}

func (s *FlightPathAngleStrategy) PredictToAltitude(from, to, speed, mach, fuelOnBoard float32, wind wx.WindComponent) StepResult {
	return s.Predictor.FlightPathAngleStep(VerticalStepRequest{
		StartAltitude:   from,
		EndAltitude:     to,
		FlightPathAngle: s.Angle,
		Speed:           speed,
		MachLimit:       mach,
		ZeroFuelWeight:  s.Params.Get().ZeroFuelWeight,
		FuelOnBoard:     fuelOnBoard,
		Wind:            wind,
		ISADeviation:    s.Atmosphere.ISADeviation(),
	})
}

var (
	_ ClimbStrategy   = (*VerticalSpeedStrategy)(nil)
	_ DescentStrategy = (*VerticalSpeedStrategy)(nil)
	_ ClimbStrategy   = (*FlightPathAngleStrategy)(nil)
	_ DescentStrategy = (*FlightPathAngleStrategy)(nil)
)
