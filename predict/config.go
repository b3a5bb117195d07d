// predict/config.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package predict

import (
	av "github.com/mmp/vnav/aviation"
	"github.com/mmp/vnav/util"
	"github.com/mmp/vnav/wx"
)

type Config struct {
	CacheSize                int         `json:"cache_size" yaml:"cache_size"`
	Performance              Performance `json:"performance" yaml:"performance"`
	ClimbVerticalSpeed       float32     `json:"climb_vertical_speed" yaml:"climb_vertical_speed"`
	StepClimbVerticalSpeed   float32     `json:"step_climb_vertical_speed" yaml:"step_climb_vertical_speed"`
	StepDescentVerticalSpeed float32     `json:"step_descent_vertical_speed" yaml:"step_descent_vertical_speed"`
}

func DefaultConfig() Config {
	return Config{
		CacheSize:                4096,
		Performance:              A320Performance(),
		ClimbVerticalSpeed:       2000,
		StepClimbVerticalSpeed:   1000,
		StepDescentVerticalSpeed: -1000,
	}
}

func (c Config) Validate(e *util.ErrorLogger) {
	e.Push("predict")
	defer e.Pop()

	if c.CacheSize < 0 {
		e.ErrorString("cache_size %d must not be negative", c.CacheSize)
	}
	if c.Performance.Engines <= 0 {
		e.ErrorString("engines %d must be positive", c.Performance.Engines)
	}
	if c.Performance.MaxThrustPerEngine <= 0 {
		e.ErrorString("max_thrust_per_engine %.0f must be positive", c.Performance.MaxThrustPerEngine)
	}
	if c.Performance.LiftToDrag <= 0 {
		e.ErrorString("lift_to_drag %.1f must be positive", c.Performance.LiftToDrag)
	}
	if c.Performance.TSFC <= 0 {
		e.ErrorString("tsfc %.2f must be positive", c.Performance.TSFC)
	}
	if c.Performance.IdleThrustFraction < 0 || c.Performance.IdleThrustFraction >= 1 {
		e.ErrorString("idle_thrust_fraction %.2f must be in [0,1)", c.Performance.IdleThrustFraction)
	}
	if c.ClimbVerticalSpeed <= 0 {
		e.ErrorString("climb_vertical_speed %.0f must be positive", c.ClimbVerticalSpeed)
	}
	if c.StepClimbVerticalSpeed <= 0 {
		e.ErrorString("step_climb_vertical_speed %.0f must be positive", c.StepClimbVerticalSpeed)
	}
	if c.StepDescentVerticalSpeed >= 0 {
		e.ErrorString("step_descent_vertical_speed %.0f must be negative", c.StepDescentVerticalSpeed)
	}
}

// Strategies bundles the strategies the profile builders use.
type Strategies struct {
	Climb       ClimbStrategy
	StepClimb   ClimbStrategy
	StepDescent DescentStrategy
}

// MakeStrategies returns vertical speed strategies for the configured
// rates, all sharing the given predictor.
func (c Config) MakeStrategies(p Predictor, params av.ParametersObserver, atmos wx.AtmosphericModel) Strategies {
	vs := func(rate float32) *VerticalSpeedStrategy {
		return &VerticalSpeedStrategy{Predictor: p, Params: params, Atmosphere: atmos, VerticalSpeed: rate}
	}
	return Strategies{
		Climb:       vs(c.ClimbVerticalSpeed),
		StepClimb:   vs(c.StepClimbVerticalSpeed),
		StepDescent: vs(c.StepDescentVerticalSpeed),
	}
}
