// profile/checkpoint.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package profile

import (
	"fmt"
	"log/slog"
)

// Reason records why a checkpoint is in the profile. Later logic depends
// on it: the tracker looks up T/D and the start of the geometric path by
// reason, and the cruise builder tags steps with it.
type Reason int

const (
	ReasonPresentPosition Reason = iota
	ReasonTopOfClimb
	ReasonCrossingSpeedLimit
	ReasonAtmosphericConditions
	ReasonSpeedConstraint
	ReasonStepClimb
	ReasonTopOfStepClimb
	ReasonStepDescent
	ReasonBottomOfStepDescent
	ReasonTopOfDescent
	ReasonIdlePathEnd
	ReasonGeometricPathStart
	ReasonLanding
)

func (r Reason) String() string {
	switch r {
	case ReasonPresentPosition:
		return "PPOS"
	case ReasonTopOfClimb:
		return "T/C"
	case ReasonCrossingSpeedLimit:
		return "SPD LIM"
	case ReasonAtmosphericConditions:
		return "CRZ"
	case ReasonSpeedConstraint:
		return "SPD CSTR"
	case ReasonStepClimb:
		return "S/C"
	case ReasonTopOfStepClimb:
		return "T/SC"
	case ReasonStepDescent:
		return "S/D"
	case ReasonBottomOfStepDescent:
		return "B/SD"
	case ReasonTopOfDescent:
		return "T/D"
	case ReasonIdlePathEnd:
		return "IDLE END"
	case ReasonGeometricPathStart:
		return "GEO"
	case ReasonLanding:
		return "LDG"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}

// Checkpoint is a single point on the predicted vertical path.
type Checkpoint struct {
	Reason               Reason
	DistanceFromStart    float32 // nm
	Altitude             float32 // feet
	Speed                float32 // knots CAS
	SecondsFromPresent   float32
	RemainingFuelOnBoard float32 // pounds
}

func (c Checkpoint) String() string {
	return fmt.Sprintf("%-8s %7.2fnm %6.0fft %4.0fkt %6.0fs %7.0flb", c.Reason, c.DistanceFromStart,
		c.Altitude, c.Speed, c.SecondsFromPresent, c.RemainingFuelOnBoard)
}

func (c Checkpoint) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("reason", c.Reason.String()),
		slog.Float64("distance", float64(c.DistanceFromStart)),
		slog.Float64("altitude", float64(c.Altitude)),
		slog.Float64("speed", float64(c.Speed)),
		slog.Float64("seconds", float64(c.SecondsFromPresent)),
		slog.Float64("fuel", float64(c.RemainingFuelOnBoard)),
	)
}

// ReclassifyLast changes the reason of the last checkpoint in cps to
// to, but only if it currently has reason from. It returns true if the
// checkpoint was changed. Checkpoints other than the last are never
// retagged.
func ReclassifyLast(cps []Checkpoint, from, to Reason) bool {
	if len(cps) == 0 || cps[len(cps)-1].Reason != from {
		return false
	}
	cps[len(cps)-1].Reason = to
	return true
}

// MaxSpeedConstraint is a speed that must not be exceeded when passing
// the given point on the route.
type MaxSpeedConstraint struct {
	DistanceFromStart float32 `json:"distance" yaml:"distance"`
	MaxSpeed          float32 `json:"max_speed" yaml:"max_speed"`
}
