// sim/scenario.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	av "github.com/mmp/vnav/aviation"
	"github.com/mmp/vnav/cruise"
	"github.com/mmp/vnav/nav"
	"github.com/mmp/vnav/util"
	"github.com/mmp/vnav/wx"
)

// AircraftState is the initial state of the simulated aircraft.
type AircraftState struct {
	Distance       float32 `json:"distance" yaml:"distance"` // nm along the route
	Altitude       float32 `json:"altitude" yaml:"altitude"`
	IAS            float32 `json:"ias" yaml:"ias"`
	FuelOnBoard    float32 `json:"fuel_on_board" yaml:"fuel_on_board"`
	ZeroFuelWeight float32 `json:"zero_fuel_weight" yaml:"zero_fuel_weight"`
}

// Speeds are the managed speeds and limits entered into the FMS.
type Speeds struct {
	CruiseAltitude          float32       `json:"cruise_altitude" yaml:"cruise_altitude"`
	ManagedCruiseSpeed      float32       `json:"managed_cruise_speed" yaml:"managed_cruise_speed"`
	ManagedCruiseSpeedMach  float32       `json:"managed_cruise_mach" yaml:"managed_cruise_mach"`
	ManagedDescentSpeed     float32       `json:"managed_descent_speed" yaml:"managed_descent_speed"`
	ManagedDescentSpeedMach float32       `json:"managed_descent_mach" yaml:"managed_descent_mach"`
	ClimbSpeedLimit         av.SpeedLimit `json:"climb_speed_limit" yaml:"climb_speed_limit"`
	DescentSpeedLimit       av.SpeedLimit `json:"descent_speed_limit" yaml:"descent_speed_limit"`
	VMax                    float32       `json:"vmax" yaml:"vmax"`
	VLS                     float32       `json:"vls" yaml:"vls"`
}

// TimedStep is a step climb or descent that the pilot enters during the
// flight.
type TimedStep struct {
	AtSeconds float32     `json:"at_seconds" yaml:"at_seconds"`
	Step      cruise.Step `json:"step" yaml:"step"`
}

type Scenario struct {
	Name string `json:"name" yaml:"name"`
	Seed int64  `json:"seed" yaml:"seed"`

	// Seconds of simulated time after which the run stops even if the
	// aircraft hasn't arrived.
	MaxSeconds float32 `json:"max_seconds" yaml:"max_seconds"`
	// How often the vertical profile is rebuilt while before T/D.
	RecomputeSeconds float32 `json:"recompute_seconds" yaml:"recompute_seconds"`
	// How long the pilot takes to engage DES after the descent reminder
	// is shown.
	PilotReactionSeconds float32 `json:"pilot_reaction_seconds" yaml:"pilot_reaction_seconds"`

	Aircraft AircraftState  `json:"aircraft" yaml:"aircraft"`
	Speeds   Speeds         `json:"speeds" yaml:"speeds"`
	Plan     nav.FlightPlan `json:"plan" yaml:"plan"`
	Steps    []TimedStep    `json:"timed_steps" yaml:"timed_steps"`

	// Winds aloft as "altitude/direction/speed,..." and the route's true
	// track.
	Winds        string  `json:"winds" yaml:"winds"`
	Track        float32 `json:"track" yaml:"track"`
	ISADeviation float32 `json:"isa_deviation" yaml:"isa_deviation"`

	// Standard deviations of the sensor errors: position fixes in nm and
	// static air temperature in Celsius.
	PositionNoise    float32 `json:"position_noise" yaml:"position_noise"`
	TemperatureNoise float32 `json:"temperature_noise" yaml:"temperature_noise"`
	FixSeconds       float32 `json:"fix_seconds" yaml:"fix_seconds"`

	wind wx.WindProfile
}

func (s *Scenario) setDefaults() {
	if s.MaxSeconds == 0 {
		s.MaxSeconds = 4 * 3600
	}
	if s.RecomputeSeconds == 0 {
		s.RecomputeSeconds = 60
	}
	if s.PilotReactionSeconds == 0 {
		s.PilotReactionSeconds = 5
	}
	if s.FixSeconds == 0 {
		s.FixSeconds = 10
	}
	if s.Speeds.VMax == 0 {
		s.Speeds.VMax = 350
	}
	if s.Speeds.VLS == 0 {
		s.Speeds.VLS = 130
	}
}

// PostDeserialize fills in defaults, parses the winds, and checks the
// scenario for errors.
func (s *Scenario) PostDeserialize(e *util.ErrorLogger) {
	e.Push("scenario " + s.Name)
	defer e.Pop()

	s.setDefaults()

	s.wind = wx.WindProfile{Layers: wx.ParseWindLayers(s.Winds, e), Track: s.Track}

	if s.Aircraft.FuelOnBoard <= 0 {
		e.ErrorString("aircraft fuel_on_board must be positive")
	}
	if s.Aircraft.ZeroFuelWeight <= 0 {
		e.ErrorString("aircraft zero_fuel_weight must be positive")
	}
	if s.Aircraft.IAS <= 0 {
		e.ErrorString("aircraft ias must be positive")
	}
	if s.Speeds.CruiseAltitude <= 0 {
		e.ErrorString("cruise_altitude must be positive")
	}
	if s.Speeds.ManagedCruiseSpeed <= 0 || s.Speeds.ManagedDescentSpeed <= 0 {
		e.ErrorString("managed cruise and descent speeds must be positive")
	}
	if s.Speeds.VLS >= s.Speeds.VMax {
		e.ErrorString("vls %.0f must be less than vmax %.0f", s.Speeds.VLS, s.Speeds.VMax)
	}
	if s.Plan.Destination.Distance <= s.Aircraft.Distance {
		e.ErrorString("destination at %.1fnm must be beyond the aircraft at %.1fnm",
			s.Plan.Destination.Distance, s.Aircraft.Distance)
	}
	for i, ts := range s.Steps {
		if ts.AtSeconds < 0 || ts.AtSeconds > s.MaxSeconds {
			e.ErrorString("timed_steps[%d]: at_seconds %.0f outside of the run", i, ts.AtSeconds)
		}
	}
	if s.PositionNoise < 0 || s.TemperatureNoise < 0 {
		e.ErrorString("sensor noise must not be negative")
	}
}

// initialParameters returns the FMS parameters at the start of the run.
func (s *Scenario) initialParameters(start time.Time) av.ComputationParameters {
	phase := av.FlightPhaseCruise
	if s.Aircraft.Altitude < s.Speeds.CruiseAltitude {
		phase = av.FlightPhaseClimb
	}
	return av.ComputationParameters{
		SimTime:                 start,
		ZeroFuelWeight:          s.Aircraft.ZeroFuelWeight,
		CruiseAltitude:          s.Speeds.CruiseAltitude,
		ManagedCruiseSpeed:      s.Speeds.ManagedCruiseSpeed,
		ManagedCruiseSpeedMach:  s.Speeds.ManagedCruiseSpeedMach,
		ManagedDescentSpeed:     s.Speeds.ManagedDescentSpeed,
		ManagedDescentSpeedMach: s.Speeds.ManagedDescentSpeedMach,
		ClimbSpeedLimit:         s.Speeds.ClimbSpeedLimit,
		DescentSpeedLimit:       s.Speeds.DescentSpeedLimit,
		Tropopause:              wx.StandardTropopause,
		FCUVerticalMode:         av.VerticalModeNone,
		PresentPosition: av.PresentPosition{
			DistanceFromStart: s.Aircraft.Distance,
			Altitude:          s.Aircraft.Altitude,
			IAS:               s.Aircraft.IAS,
			FuelOnBoard:       s.Aircraft.FuelOnBoard,
		},
		FlightPhase: phase,
		VMax:        s.Speeds.VMax,
		VLS:         s.Speeds.VLS,
	}
}

// LoadScenario reads a JSON or YAML scenario file. The scenario's name
// defaults to the file's base name.
func LoadScenario(path string) (*Scenario, error) {
	var s Scenario
	if err := util.LoadFile(path, &s); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	var e util.ErrorLogger
	s.PostDeserialize(&e)
	if err := e.Err(); err != nil {
		return nil, err
	}
	return &s, nil
}
