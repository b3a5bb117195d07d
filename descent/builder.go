// descent/builder.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package descent

import (
	"errors"
	"fmt"

	av "github.com/mmp/vnav/aviation"
	"github.com/mmp/vnav/log"
	"github.com/mmp/vnav/math"
	"github.com/mmp/vnav/predict"
	"github.com/mmp/vnav/profile"
	"github.com/mmp/vnav/util"
	"github.com/mmp/vnav/wx"
)

var (
	ErrInsufficientDescentDistance = errors.New("Not enough distance to descend")
	ErrNoTopOfDescent              = errors.New("Profile has no T/D")
)

// Destination is where the descent ends.
type Destination struct {
	Distance  float32 `json:"distance" yaml:"distance"`   // nm from the start of the route
	Elevation float32 `json:"elevation" yaml:"elevation"` // feet
}

type PathConfig struct {
	// Angles in degrees; negative descends.
	IdlePathAngle      float32 `json:"idle_path_angle" yaml:"idle_path_angle"`
	GeometricPathAngle float32 `json:"geometric_path_angle" yaml:"geometric_path_angle"`
	// Height above the destination where the geometric path starts.
	GeometricPathHeight float32 `json:"geometric_path_height" yaml:"geometric_path_height"`
	ApproachSpeed       float32 `json:"approach_speed" yaml:"approach_speed"`
}

func DefaultPathConfig() PathConfig {
	return PathConfig{
		IdlePathAngle:       -2.5,
		GeometricPathAngle:  -3,
		GeometricPathHeight: 6000,
		ApproachSpeed:       140,
	}
}

func (c PathConfig) Validate(e *util.ErrorLogger) {
	e.Push("descent_path")
	defer e.Pop()

	if c.IdlePathAngle >= 0 || c.IdlePathAngle < -10 {
		e.ErrorString("idle_path_angle %.1f must be in [-10,0)", c.IdlePathAngle)
	}
	if c.GeometricPathAngle >= 0 || c.GeometricPathAngle < -10 {
		e.ErrorString("geometric_path_angle %.1f must be in [-10,0)", c.GeometricPathAngle)
	}
	if c.GeometricPathHeight <= 0 {
		e.ErrorString("geometric_path_height %.0f must be positive", c.GeometricPathHeight)
	}
	if c.ApproachSpeed <= 0 {
		e.ErrorString("approach_speed %.0f must be positive", c.ApproachSpeed)
	}
}

// PathBuilder places the descent in the profile: the geometric segment
// is laid back from the destination and the idle segment from there up
// to the final cruise altitude, which fixes T/D.
type PathBuilder struct {
	Flight string // for logging

	cfg       PathConfig
	params    av.ParametersObserver
	atmos     wx.AtmosphericModel
	predictor predict.Predictor
	lg        *log.Logger
}

func NewPathBuilder(cfg PathConfig, params av.ParametersObserver, atmos wx.AtmosphericModel, predictor predict.Predictor,
	lg *log.Logger) *PathBuilder {
	return &PathBuilder{cfg: cfg, params: params, atmos: atmos, predictor: predictor, lg: lg}
}

// distanceForAltitudeChange returns the distance needed to change
// altitude by dh feet along a path at the given angle.
func distanceForAltitudeChange(dh, angle float32) float32 {
	return math.Abs(dh) / (math.Tan(math.Radians(math.Abs(angle))) * math.FeetPerNauticalMile)
}

func (b *PathBuilder) geometry(dest Destination, cruiseAltitude float32) (geoAlt, geoDist, tdDist float32) {
	geoAlt = min(dest.Elevation+b.cfg.GeometricPathHeight, cruiseAltitude)
	geoDist = dest.Distance - distanceForAltitudeChange(geoAlt-dest.Elevation, b.cfg.GeometricPathAngle)
	tdDist = geoDist - distanceForAltitudeChange(cruiseAltitude-geoAlt, b.cfg.IdlePathAngle)
	return
}

// TopOfDescentDistance returns where T/D would be for a descent from the
// given cruise altitude.
func (b *PathBuilder) TopOfDescentDistance(dest Destination, cruiseAltitude float32) float32 {
	_, _, td := b.geometry(dest, cruiseAltitude)
	return td
}

// ComputeGeometry appends T/D, the descent speed limit crossing, the start
// of the geometric path, and the landing to p. Their fuel and time are
// filled in by PredictForward once the cruise has been computed.
func (b *PathBuilder) ComputeGeometry(p *profile.Profile, dest Destination, cruiseAltitude float32) error {
	params := b.params.Get()

	geoAlt, geoDist, tdDist := b.geometry(dest, cruiseAltitude)

	if last, ok := p.Last(); ok && tdDist < last.DistanceFromStart {
		return fmt.Errorf("T/D at %.1fnm is before %s at %.1fnm: %w", tdDist, last.Reason, last.DistanceFromStart,
			ErrInsufficientDescentDistance)
	}

	speed := params.ManagedDescentSpeed
	if params.ManagedDescentSpeedMach > 0 {
		speed = min(speed, b.atmos.CASFromMach(cruiseAltitude, params.ManagedDescentSpeedMach))
	}

	cps := []profile.Checkpoint{{
		Reason:            profile.ReasonTopOfDescent,
		DistanceFromStart: tdDist,
		Altitude:          cruiseAltitude,
		Speed:             speed,
	}}

	limit := params.DescentSpeedLimit
	if limit.Speed > 0 && limit.UnderAltitude > geoAlt && limit.UnderAltitude < cruiseAltitude {
		speed = min(speed, limit.Speed)
		cps = append(cps, profile.Checkpoint{
			Reason:            profile.ReasonCrossingSpeedLimit,
			DistanceFromStart: geoDist - distanceForAltitudeChange(limit.UnderAltitude-geoAlt, b.cfg.IdlePathAngle),
			Altitude:          limit.UnderAltitude,
			Speed:             speed,
		})
	} else if limit.Speed > 0 && geoAlt <= limit.UnderAltitude {
		speed = min(speed, limit.Speed)
	}

	cps = append(cps,
		profile.Checkpoint{
			Reason:            profile.ReasonGeometricPathStart,
			DistanceFromStart: geoDist,
			Altitude:          geoAlt,
			Speed:             speed,
		},
		profile.Checkpoint{
			Reason:            profile.ReasonLanding,
			DistanceFromStart: dest.Distance,
			Altitude:          dest.Elevation,
			Speed:             b.cfg.ApproachSpeed,
		})

	p.AddCheckpoints(tdDist, cps...)

	log.NavLog(b.Flight, params.SimTime, log.NavLogDescent, "T/D %.1fnm geometric path %.1fnm at %.0f",
		tdDist, geoDist, geoAlt)

	return nil
}

// PredictForward fills in the fuel and time of T/D and the checkpoints
// after it, starting from the given values at T/D.
func (b *PathBuilder) PredictForward(p *profile.Profile, fuelAtTopOfDescent, secondsAtTopOfDescent float32) error {
	idx := p.IndexOf(profile.ReasonTopOfDescent)
	if idx == -1 {
		return ErrNoTopOfDescent
	}

	params := b.params.Get()
	isaDev := b.atmos.ISADeviation()

	cps := p.Checkpoints
	cps[idx].RemainingFuelOnBoard = fuelAtTopOfDescent
	cps[idx].SecondsFromPresent = secondsAtTopOfDescent

	for i := idx + 1; i < len(cps); i++ {
		prev, cur := &cps[i-1], &cps[i]
		distance := cur.DistanceFromStart - prev.DistanceFromStart

		var r predict.StepResult
		switch {
		case distance <= 0:
			// Nothing flown.
		case cur.Altitude == prev.Altitude:
			r = b.predictor.LevelFlightStep(predict.LevelFlightRequest{
				Altitude:       prev.Altitude,
				Distance:       distance,
				Speed:          prev.Speed,
				MachLimit:      params.ManagedDescentSpeedMach,
				ZeroFuelWeight: params.ZeroFuelWeight,
				FuelOnBoard:    prev.RemainingFuelOnBoard,
				ISADeviation:   isaDev,
			})
		default:
			r = b.predictor.FlightPathAngleStep(predict.VerticalStepRequest{
				StartAltitude:   prev.Altitude,
				EndAltitude:     cur.Altitude,
				FlightPathAngle: math.FlightPathAngle(cur.Altitude-prev.Altitude, distance),
				Speed:           prev.Speed,
				MachLimit:       params.ManagedDescentSpeedMach,
				ZeroFuelWeight:  params.ZeroFuelWeight,
				FuelOnBoard:     prev.RemainingFuelOnBoard,
				ISADeviation:    isaDev,
			})
		}

		cur.RemainingFuelOnBoard = prev.RemainingFuelOnBoard - r.FuelBurned
		cur.SecondsFromPresent = prev.SecondsFromPresent + r.TimeElapsed
	}

	if last, ok := p.Last(); ok {
		log.NavLog(b.Flight, params.SimTime, log.NavLogDescent, "landing fuel %.0f time %.0f",
			last.RemainingFuelOnBoard, last.SecondsFromPresent)
	}
	return nil
}
