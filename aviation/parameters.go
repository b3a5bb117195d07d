// aviation/parameters.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aviation

import (
	"fmt"
	"log/slog"
	"time"
)

// SpeedLimit is a speed that must not be exceeded below a given altitude
// (e.g., 250 kts below 10,000').
type SpeedLimit struct {
	Speed         float32 `json:"speed" yaml:"speed"`
	UnderAltitude float32 `json:"under_altitude" yaml:"under_altitude"`
}

type PresentPosition struct {
	DistanceFromStart float32 // nm along the route
	Altitude          float32 // feet
	GroundSpeed       float32 // knots
	IAS               float32 // knots
	FuelOnBoard       float32 // pounds
}

// ComputationParameters is a snapshot of everything the vertical profile
// computation and descent guidance read from the rest of the flight
// management system and the aircraft. It is taken by value once per
// operation so that a single computation sees consistent inputs.
type ComputationParameters struct {
	SimTime time.Time

	ZeroFuelWeight          float32 // pounds
	CruiseAltitude          float32 // feet
	ManagedCruiseSpeed      float32 // knots
	ManagedCruiseSpeedMach  float32
	ManagedDescentSpeed     float32 // knots
	ManagedDescentSpeedMach float32
	ClimbSpeedLimit         SpeedLimit
	DescentSpeedLimit       SpeedLimit
	Tropopause              float32 // feet

	FCUVerticalMode  VerticalMode
	FCUSpeed         float32 // knots
	FCUSpeedSelected bool    // false -> managed speed

	PresentPosition PresentPosition
	FlightPhase     FlightPhase

	VMax float32 // maximum structural speed in the current configuration
	VLS  float32 // lowest selectable speed
}

func (p ComputationParameters) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Time("sim_time", p.SimTime),
		slog.Float64("cruise_altitude", float64(p.CruiseAltitude)),
		slog.Float64("managed_cruise_speed", float64(p.ManagedCruiseSpeed)),
		slog.Float64("managed_descent_speed", float64(p.ManagedDescentSpeed)),
		slog.String("fcu_vertical_mode", p.FCUVerticalMode.String()),
		slog.String("flight_phase", p.FlightPhase.String()),
		slog.Float64("altitude", float64(p.PresentPosition.Altitude)),
		slog.Float64("gs", float64(p.PresentPosition.GroundSpeed)),
	)
}

// ParametersObserver provides the current computation parameters.
type ParametersObserver interface {
	Get() ComputationParameters
}

// ParameterStore is a ParametersObserver that holds the most recent
// snapshot given to Set. It is not safe for concurrent use; each guidance
// instance is driven from a single scheduler.
type ParameterStore struct {
	params ComputationParameters
}

func NewParameterStore(p ComputationParameters) *ParameterStore {
	return &ParameterStore{params: p}
}

func (s *ParameterStore) Get() ComputationParameters {
	return s.params
}

func (s *ParameterStore) Set(p ComputationParameters) {
	s.params = p
}

// Update applies the given function to the stored snapshot.
func (s *ParameterStore) Update(fn func(*ComputationParameters)) {
	fn(&s.params)
}

// GuidanceOutput is what descent guidance emits each cycle for the flight
// guidance laws and the primary flight display.
type GuidanceOutput struct {
	RequestedVerticalMode RequestedVerticalMode
	TargetAltitude        float32 // feet
	// Feet per minute, except in RequestedVerticalModeFpaSpeed, where it
	// is a flight path angle in degrees.
	TargetVerticalSpeed float32
	LinearDeviation     float32 // feet; positive -> above the path
	ShowLinearDeviation bool
	ShowDescentLatch    bool
	LowerSpeedMargin    float32 // knots
	UpperSpeedMargin    float32 // knots
}

func (g GuidanceOutput) String() string {
	return fmt.Sprintf("%s alt %.0f vs %.1f dev %+.0f margins %.0f-%.0f",
		g.RequestedVerticalMode, g.TargetAltitude, g.TargetVerticalSpeed, g.LinearDeviation,
		g.LowerSpeedMargin, g.UpperSpeedMargin)
}

func (g GuidanceOutput) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("mode", g.RequestedVerticalMode.String()),
		slog.Float64("target_altitude", float64(g.TargetAltitude)),
		slog.Float64("target_vs", float64(g.TargetVerticalSpeed)),
		slog.Float64("linear_deviation", float64(g.LinearDeviation)),
		slog.Bool("show_linear_deviation", g.ShowLinearDeviation),
		slog.Float64("lower_margin", float64(g.LowerSpeedMargin)),
		slog.Float64("upper_margin", float64(g.UpperSpeedMargin)),
	)
}
