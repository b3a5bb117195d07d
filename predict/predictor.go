// predict/predictor.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package predict provides the flight segment predictions that vertical
// profiles are built from: given where a segment starts and how it is to
// be flown, how far it goes and how much fuel and time it takes.
package predict

import (
	"fmt"

	"github.com/mmp/vnav/wx"
)

// StepResult is the outcome of flying a single segment.
type StepResult struct {
	DistanceTraveled float32 // nm
	FuelBurned       float32 // pounds
	TimeElapsed      float32 // seconds
	FinalAltitude    float32 // feet
	Speed            float32 // knots CAS at the end of the segment
}

func (r StepResult) String() string {
	return fmt.Sprintf("%.2fnm %.0flb %.0fs alt %.0f spd %.0f", r.DistanceTraveled, r.FuelBurned,
		r.TimeElapsed, r.FinalAltitude, r.Speed)
}

// LevelFlightRequest describes a constant altitude, constant speed
// segment. All fields are comparable so requests can be used as cache
// keys.
type LevelFlightRequest struct {
	Altitude       float32
	Distance       float32 // nm
	Speed          float32 // knots CAS
	MachLimit      float32 // 0 -> none
	ZeroFuelWeight float32 // pounds
	FuelOnBoard    float32 // pounds
	Wind           wx.WindComponent
	ISADeviation   float32
}

// SpeedChangeRequest describes accelerating or decelerating from one
// speed to another along a fixed flight path angle (0 for level).
type SpeedChangeRequest struct {
	FlightPathAngle float32 // degrees
	Altitude        float32
	FromSpeed       float32 // knots CAS
	ToSpeed         float32 // knots CAS
	FromMachLimit   float32
	ToMachLimit     float32
	ThrustLimit     float32 // N1 percent
	ZeroFuelWeight  float32
	FuelOnBoard     float32
	Wind            wx.WindComponent
	ISADeviation    float32
	Tropopause      float32
}

// VerticalStepRequest describes a climb or descent at constant speed to a
// target altitude, flown either at a vertical speed or along a flight path
// angle. Exactly one of VerticalSpeed and FlightPathAngle should be set.
type VerticalStepRequest struct {
	StartAltitude   float32
	EndAltitude     float32
	VerticalSpeed   float32 // feet per minute
	FlightPathAngle float32 // degrees
	Speed           float32 // knots CAS
	MachLimit       float32
	ZeroFuelWeight  float32
	FuelOnBoard     float32
	Wind            wx.WindComponent
	ISADeviation    float32
}

// SegmentPredictor turns a segment description into distance, fuel, and
// time. Implementations must be deterministic: identical requests give
// identical results.
type SegmentPredictor interface {
	LevelFlightStep(LevelFlightRequest) StepResult
	SpeedChangeStep(SpeedChangeRequest) StepResult
}

// Predictor additionally predicts climbs and descents; the vertical
// strategies are built on it.
type Predictor interface {
	SegmentPredictor
	VerticalSpeedStep(VerticalStepRequest) StepResult
	FlightPathAngleStep(VerticalStepRequest) StepResult
}
