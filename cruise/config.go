// cruise/config.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package cruise

import "github.com/mmp/vnav/util"

type Config struct {
	MinStepSpacing float32 `json:"min_step_spacing" yaml:"min_step_spacing"` // nm
}

func DefaultConfig() Config {
	return Config{MinStepSpacing: 50}
}

func (c Config) Validate(e *util.ErrorLogger) {
	e.Push("cruise")
	defer e.Pop()

	if c.MinStepSpacing < 0 {
		e.ErrorString("min_step_spacing %.1f must not be negative", c.MinStepSpacing)
	}
}
