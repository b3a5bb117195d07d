// descent/margin.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package descent

import (
	av "github.com/mmp/vnav/aviation"
	"github.com/mmp/vnav/log"
	"github.com/mmp/vnav/math"
	"github.com/mmp/vnav/util"
	"github.com/mmp/vnav/wx"
)

type SpeedMarginConfig struct {
	VMO float32 `json:"vmo" yaml:"vmo"` // knots
	MMO float32 `json:"mmo" yaml:"mmo"`
	// Distances below VMO and MMO (converted to IAS) the upper margin
	// stays.
	VMOMargin float32 `json:"vmo_margin" yaml:"vmo_margin"`
	MMOMargin float32 `json:"mmo_margin" yaml:"mmo_margin"`
	// LowerMargin is how far below the target speed the lower margin is.
	LowerMargin float32 `json:"lower_margin" yaml:"lower_margin"`
	// The upper margin is NarrowUpperMargin above the target once the
	// managed descent speed is within ConvergedTolerance of the target
	// and WideUpperMargin above it otherwise.
	NarrowUpperMargin  float32 `json:"narrow_upper_margin" yaml:"narrow_upper_margin"`
	WideUpperMargin    float32 `json:"wide_upper_margin" yaml:"wide_upper_margin"`
	ConvergedTolerance float32 `json:"converged_tolerance" yaml:"converged_tolerance"`
}

func DefaultSpeedMarginConfig() SpeedMarginConfig {
	return SpeedMarginConfig{
		VMO:                350,
		MMO:                0.82,
		VMOMargin:          3,
		MMOMargin:          0.006,
		LowerMargin:        20,
		NarrowUpperMargin:  5,
		WideUpperMargin:    20,
		ConvergedTolerance: 1,
	}
}

func (c SpeedMarginConfig) Validate(e *util.ErrorLogger) {
	e.Push("speed_margin")
	defer e.Pop()

	if c.VMO <= 0 {
		e.ErrorString("vmo %.0f must be positive", c.VMO)
	}
	if c.MMO <= 0 || c.MMO >= 1 {
		e.ErrorString("mmo %.3f must be in (0,1)", c.MMO)
	}
	if c.LowerMargin < 0 || c.NarrowUpperMargin < 0 || c.WideUpperMargin < 0 {
		e.ErrorString("margins must not be negative")
	}
	if c.NarrowUpperMargin > c.WideUpperMargin {
		e.ErrorString("narrow_upper_margin %.0f is larger than wide_upper_margin %.0f", c.NarrowUpperMargin,
			c.WideUpperMargin)
	}
}

// SpeedMargin computes the speed corridor displayed around the target
// speed in managed descent.
type SpeedMargin struct {
	Flight string // for logging

	cfg    SpeedMarginConfig
	params av.ParametersObserver
	atmos  wx.AtmosphericModel
}

func NewSpeedMargin(cfg SpeedMarginConfig, params av.ParametersObserver, atmos wx.AtmosphericModel) *SpeedMargin {
	return &SpeedMargin{cfg: cfg, params: params, atmos: atmos}
}

// GetMargins returns the lower and upper speed margins around target.
func (m *SpeedMargin) GetMargins(target float32) (float32, float32) {
	p := m.params.Get()

	upperDistance := util.Select(math.Abs(p.ManagedDescentSpeed-target) <= m.cfg.ConvergedTolerance,
		m.cfg.NarrowUpperMargin, m.cfg.WideUpperMargin)

	vmax := util.Select(p.VMax > 0, p.VMax, math.Inf())
	mmoAsIAS := m.atmos.CASFromMach(p.PresentPosition.Altitude, m.cfg.MMO)

	lower := max(p.VLS, target-m.cfg.LowerMargin)
	upper := min(vmax, m.cfg.VMO-m.cfg.VMOMargin, mmoAsIAS-m.cfg.MMOMargin, target+upperDistance)

	log.NavLog(m.Flight, p.SimTime, log.NavLogMargin, "target %.0f margins %.1f-%.1f (upper +%.0f)",
		target, lower, upper, upperDistance)

	return lower, upper
}

// GetTarget returns the indicated airspeed clamped to the margins around
// target.
func (m *SpeedMargin) GetTarget(indicatedAirspeed, target float32) float32 {
	lower, upper := m.GetMargins(target)
	return max(min(indicatedAirspeed, upper), lower)
}
