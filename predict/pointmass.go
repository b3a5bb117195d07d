// predict/pointmass.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package predict

import (
	"github.com/mmp/vnav/math"
	"github.com/mmp/vnav/wx"
)

// Performance holds the handful of numbers the point-mass model needs.
type Performance struct {
	Engines            int     `json:"engines" yaml:"engines"`
	MaxThrustPerEngine float32 `json:"max_thrust_per_engine" yaml:"max_thrust_per_engine"` // lbf, sea level static
	LiftToDrag         float32 `json:"lift_to_drag" yaml:"lift_to_drag"`
	TSFC               float32 `json:"tsfc" yaml:"tsfc"` // pounds of fuel per lbf of thrust per hour
	IdleThrustFraction float32 `json:"idle_thrust_fraction" yaml:"idle_thrust_fraction"`
}

// A320Performance returns numbers in the neighborhood of a CFM-powered
// A320 in clean configuration.
func A320Performance() Performance {
	return Performance{
		Engines:            2,
		MaxThrustPerEngine: 27000,
		LiftToDrag:         17,
		TSFC:               0.55,
		IdleThrustFraction: 0.05,
	}
}

// PointMass is a deliberately simple reference predictor: lift equals
// weight, drag is weight over L/D, and fuel flow is proportional to
// thrust. It is good enough to give physically consistent profiles.
type PointMass struct {
	Perf       Performance
	Tropopause float32
}

var _ Predictor = (*PointMass)(nil)

func NewPointMass(perf Performance, tropopause float32) *PointMass {
	if tropopause <= 0 {
		tropopause = wx.StandardTropopause
	}
	return &PointMass{Perf: perf, Tropopause: tropopause}
}

// minimumGroundSpeed keeps absurd headwinds from producing infinite or
// negative segment times.
const minimumGroundSpeed = 50

func (pm *PointMass) conditions(isaDev float32) *wx.Conditions {
	c := wx.NewConditions(pm.Tropopause)
	c.SetISADeviation(isaDev)
	return c
}

// flownSpeeds returns the CAS and TAS actually flown when trying to fly
// cas subject to the Mach limit.
func (pm *PointMass) flownSpeeds(c *wx.Conditions, alt, cas, machLimit float32) (float32, float32) {
	if machLimit > 0 && c.MachFromCAS(alt, cas) > machLimit {
		cas = c.CASFromMach(alt, machLimit)
	}
	return cas, c.TASFromCAS(alt, cas)
}

func (pm *PointMass) drag(weight float32) float32 {
	return weight / pm.Perf.LiftToDrag
}

func (pm *PointMass) maxThrust(alt float32) float32 {
	sigma := wx.DensityRatio(alt, pm.Tropopause)
	return float32(pm.Perf.Engines) * pm.Perf.MaxThrustPerEngine * math.Pow(sigma, 0.75)
}

func (pm *PointMass) idleThrust(alt float32) float32 {
	return pm.Perf.IdleThrustFraction * pm.maxThrust(alt)
}

// fuelFlow returns pounds per hour for the given thrust; hot days cost a
// little more.
func (pm *PointMass) fuelFlow(thrust, isaDev float32) float32 {
	return pm.Perf.TSFC * thrust * (1 + 0.002*isaDev)
}

func groundSpeed(tas float32, wind wx.WindComponent) float32 {
	return max(tas+float32(wind), minimumGroundSpeed)
}

func (pm *PointMass) LevelFlightStep(req LevelFlightRequest) StepResult {
	c := pm.conditions(req.ISADeviation)
	cas, tas := pm.flownSpeeds(c, req.Altitude, req.Speed, req.MachLimit)

	if req.Distance <= 0 {
		return StepResult{FinalAltitude: req.Altitude, Speed: cas}
	}

	gs := groundSpeed(tas, req.Wind)
	hours := req.Distance / gs
	weight := req.ZeroFuelWeight + req.FuelOnBoard

	return StepResult{
		DistanceTraveled: req.Distance,
		FuelBurned:       pm.fuelFlow(pm.drag(weight), req.ISADeviation) * hours,
		TimeElapsed:      hours * 3600,
		FinalAltitude:    req.Altitude,
		Speed:            cas,
	}
}

// minimumAcceleration in knots per second keeps a thrust-limited speed
// change from never finishing.
const minimumAcceleration = 0.05

func (pm *PointMass) SpeedChangeStep(req SpeedChangeRequest) StepResult {
	c := pm.conditions(req.ISADeviation)
	_, fromTAS := pm.flownSpeeds(c, req.Altitude, req.FromSpeed, req.FromMachLimit)
	toCAS, toTAS := pm.flownSpeeds(c, req.Altitude, req.ToSpeed, req.ToMachLimit)

	dv := toTAS - fromTAS
	if math.Abs(dv) < 1e-3 {
		return StepResult{FinalAltitude: req.Altitude, Speed: toCAS}
	}

	weight := req.ZeroFuelWeight + req.FuelOnBoard
	thrust := pm.idleThrust(req.Altitude)
	if dv > 0 {
		thrust = max(thrust, pm.maxThrust(req.Altitude)*math.Clamp(req.ThrustLimit/100, 0, 1))
	}

	// Along-path acceleration from excess thrust less the component of
	// weight along the path.
	gamma := math.Radians(req.FlightPathAngle)
	accel := math.GravityFeetPerSecond * ((thrust-pm.drag(weight))/weight - math.Sin(gamma))
	accel /= math.KnotsToFeetPerSecond // knots per second
	if math.Sign(accel) != math.Sign(dv) || math.Abs(accel) < minimumAcceleration {
		accel = math.Sign(dv) * minimumAcceleration
	}

	seconds := dv / accel
	gs := groundSpeed((fromTAS+toTAS)/2, req.Wind)
	distance := gs * seconds / 3600

	return StepResult{
		DistanceTraveled: distance,
		FuelBurned:       pm.fuelFlow(thrust, req.ISADeviation) * seconds / 3600,
		TimeElapsed:      seconds,
		FinalAltitude:    req.Altitude + math.Tan(gamma)*distance*math.FeetPerNauticalMile,
		Speed:            toCAS,
	}
}

func (pm *PointMass) VerticalSpeedStep(req VerticalStepRequest) StepResult {
	c := pm.conditions(req.ISADeviation)
	midAltitude := (req.StartAltitude + req.EndAltitude) / 2
	cas, tas := pm.flownSpeeds(c, midAltitude, req.Speed, req.MachLimit)

	dh := req.EndAltitude - req.StartAltitude
	if dh == 0 || req.VerticalSpeed == 0 || math.Sign(dh) != math.Sign(req.VerticalSpeed) {
		return StepResult{FinalAltitude: req.StartAltitude, Speed: cas}
	}

	minutes := dh / req.VerticalSpeed
	gs := groundSpeed(tas, req.Wind)
	weight := req.ZeroFuelWeight + req.FuelOnBoard

	// Thrust balances drag plus the weight component along the path,
	// sin(gamma) ~= vs / tas.
	thrust := pm.drag(weight) + weight*req.VerticalSpeed/(tas*math.KnotsToFeetPerMinute)
	thrust = math.Clamp(thrust, pm.idleThrust(midAltitude), pm.maxThrust(midAltitude))

	// Report the speed flown at the end of the step, which differs from
	// the one at the midpoint when Mach limited.
	endCAS, _ := pm.flownSpeeds(c, req.EndAltitude, req.Speed, req.MachLimit)

	return StepResult{
		DistanceTraveled: gs * minutes / 60,
		FuelBurned:       pm.fuelFlow(thrust, req.ISADeviation) * minutes / 60,
		TimeElapsed:      minutes * 60,
		FinalAltitude:    req.EndAltitude,
		Speed:            endCAS,
	}
}

func (pm *PointMass) FlightPathAngleStep(req VerticalStepRequest) StepResult {
	c := pm.conditions(req.ISADeviation)
	midAltitude := (req.StartAltitude + req.EndAltitude) / 2
	_, tas := pm.flownSpeeds(c, midAltitude, req.Speed, req.MachLimit)

	vsReq := req
	vsReq.FlightPathAngle = 0
	vsReq.VerticalSpeed = math.VerticalSpeedForPathAngle(groundSpeed(tas, req.Wind), req.FlightPathAngle)
	return pm.VerticalSpeedStep(vsReq)
}
