// nav/config.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"fmt"

	"github.com/mmp/vnav/cruise"
	"github.com/mmp/vnav/descent"
	"github.com/mmp/vnav/predict"
	"github.com/mmp/vnav/util"
)

// Config collects the tunables of all of the VNAV components. Fields
// that are missing from a configuration file keep their default values.
type Config struct {
	Predict     predict.Config            `json:"predict" yaml:"predict"`
	Cruise      cruise.Config             `json:"cruise" yaml:"cruise"`
	DescentPath descent.PathConfig        `json:"descent_path" yaml:"descent_path"`
	Guidance    descent.GuidanceConfig    `json:"guidance" yaml:"guidance"`
	SpeedMargin descent.SpeedMarginConfig `json:"speed_margin" yaml:"speed_margin"`

	// Present position altitudes within this many feet of the cruise
	// altitude are considered to be at cruise.
	CruiseAltitudeTolerance float32 `json:"cruise_altitude_tolerance" yaml:"cruise_altitude_tolerance"`
}

func DefaultConfig() Config {
	return Config{
		Predict:                 predict.DefaultConfig(),
		Cruise:                  cruise.DefaultConfig(),
		DescentPath:             descent.DefaultPathConfig(),
		Guidance:                descent.DefaultGuidanceConfig(),
		SpeedMargin:             descent.DefaultSpeedMarginConfig(),
		CruiseAltitudeTolerance: 50,
	}
}

func (c Config) Validate(e *util.ErrorLogger) {
	c.Predict.Validate(e)
	c.Cruise.Validate(e)
	c.DescentPath.Validate(e)
	c.Guidance.Validate(e)
	c.SpeedMargin.Validate(e)

	if c.CruiseAltitudeTolerance < 0 {
		e.ErrorString("cruise_altitude_tolerance %.0f must not be negative", c.CruiseAltitudeTolerance)
	}
}

// LoadConfig reads a JSON or YAML configuration file, depending on its
// extension, on top of DefaultConfig and validates the result.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if err := util.LoadFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}

	var e util.ErrorLogger
	e.Push(path)
	cfg.Validate(&e)
	e.Pop()
	if err := e.Err(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
