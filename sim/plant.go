// sim/plant.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"fmt"
	"log/slog"

	av "github.com/mmp/vnav/aviation"
	"github.com/mmp/vnav/math"
	"github.com/mmp/vnav/predict"
	"github.com/mmp/vnav/wx"
)

const (
	climbRate        = 2000 // feet per minute
	stepDescentRate  = -1000
	maxDescentRate   = -6000
	speedChangeRate  = 1 // knots per second
	pathGain         = 1 // feet per minute of vertical speed per foot of deviation
	idleDescentExtra = -1000
)

// Aircraft is a kinematic model of the aircraft that flies whatever the
// descent guidance requests.
type Aircraft struct {
	Distance      float32 // nm along the route
	Altitude      float32
	IAS           float32
	GroundSpeed   float32
	VerticalSpeed float32 // feet per minute
	FuelOnBoard   float32

	// Target altitude in the previous cycle, for the vertical speed of
	// the path.
	prevTargetAltitude float32
}

func (ac Aircraft) String() string {
	return fmt.Sprintf("%.2fnm %.0fft %.0fkts gs %.0f vs %.0f fob %.0f", ac.Distance, ac.Altitude, ac.IAS,
		ac.GroundSpeed, ac.VerticalSpeed, ac.FuelOnBoard)
}

func (ac Aircraft) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("distance", float64(ac.Distance)),
		slog.Float64("altitude", float64(ac.Altitude)),
		slog.Float64("ias", float64(ac.IAS)),
		slog.Float64("gs", float64(ac.GroundSpeed)),
		slog.Float64("vs", float64(ac.VerticalSpeed)),
		slog.Float64("fuel_on_board", float64(ac.FuelOnBoard)),
	)
}

// targetVerticalSpeed returns the vertical speed that flies the requested
// mode over the next dt seconds.
func (ac *Aircraft) targetVerticalSpeed(out av.GuidanceOutput, p av.ComputationParameters, dt float32) float32 {
	pathVS := float32(0)
	if ac.prevTargetAltitude != 0 {
		pathVS = (out.TargetAltitude - ac.prevTargetAltitude) * 60 / dt
	}

	switch out.RequestedVerticalMode {
	case av.RequestedVerticalModeVsSpeed:
		return out.TargetVerticalSpeed

	case av.RequestedVerticalModeFpaSpeed:
		return math.VerticalSpeedForPathAngle(ac.GroundSpeed, out.TargetVerticalSpeed)

	case av.RequestedVerticalModeVpathThrust, av.RequestedVerticalModeVpathSpeed:
		return pathVS - pathGain*out.LinearDeviation

	case av.RequestedVerticalModeSpeedThrust:
		return min(pathVS, 0) + idleDescentExtra

	default:
		if p.FCUVerticalMode == av.VerticalModeDescent {
			// Hold altitude.
			return 0
		}
		// Climb or step to the cruise altitude.
		return math.Clamp((p.CruiseAltitude-ac.Altitude)*60/dt, stepDescentRate, climbRate)
	}
}

// targetSpeed returns the managed speed for the current phase, kept
// within the guidance speed margins when they are given.
func (ac *Aircraft) targetSpeed(out av.GuidanceOutput, p av.ComputationParameters, atmos wx.AtmosphericModel) float32 {
	speed, mach, limit := p.ManagedCruiseSpeed, p.ManagedCruiseSpeedMach, p.ClimbSpeedLimit
	if p.FlightPhase >= av.FlightPhaseDescent {
		speed, mach, limit = p.ManagedDescentSpeed, p.ManagedDescentSpeedMach, p.DescentSpeedLimit
	}
	if mach > 0 {
		speed = min(speed, atmos.CASFromMach(ac.Altitude, mach))
	}
	if limit.Speed > 0 && ac.Altitude < limit.UnderAltitude {
		speed = min(speed, limit.Speed)
	}
	if out.UpperSpeedMargin > out.LowerSpeedMargin {
		speed = math.Clamp(speed, out.LowerSpeedMargin, out.UpperSpeedMargin)
	}
	return speed
}

// Update advances the aircraft by dt seconds.
func (ac *Aircraft) Update(dt float32, out av.GuidanceOutput, p av.ComputationParameters, atmos wx.AtmosphericModel,
	wind wx.WindComponent, predictor predict.SegmentPredictor) {
	vs := math.Clamp(ac.targetVerticalSpeed(out, p, dt), maxDescentRate, climbRate)
	ac.prevTargetAltitude = out.TargetAltitude

	target := ac.targetSpeed(out, p, atmos)
	ac.IAS += math.Clamp(target-ac.IAS, -speedChangeRate*dt, speedChangeRate*dt)

	ac.VerticalSpeed = vs
	ac.Altitude = max(0, ac.Altitude+vs*dt/60)
	ac.GroundSpeed = max(0, atmos.TASFromCAS(ac.Altitude, ac.IAS)+float32(wind))

	distance := ac.GroundSpeed * dt / 3600
	r := predictor.LevelFlightStep(predict.LevelFlightRequest{
		Altitude:       ac.Altitude,
		Distance:       distance,
		Speed:          ac.IAS,
		ZeroFuelWeight: p.ZeroFuelWeight,
		FuelOnBoard:    ac.FuelOnBoard,
		Wind:           wind,
		ISADeviation:   atmos.ISADeviation(),
	})
	ac.Distance += distance
	ac.FuelOnBoard = max(0, ac.FuelOnBoard-r.FuelBurned)
}
