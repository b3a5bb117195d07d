// cruise/step.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package cruise

import (
	"errors"
	"fmt"
	"slices"

	"github.com/mmp/vnav/math"
	"github.com/mmp/vnav/util"
)

var (
	ErrInvalidStepAltitude = errors.New("Invalid step altitude")
	ErrNoStepAtDistance    = errors.New("No step at distance")
)

// Step is a pilot-requested change of cruise altitude at a point along
// the route.
type Step struct {
	Fix               string  `json:"fix,omitempty" yaml:"fix,omitempty"`
	DistanceFromStart float32 `json:"distance" yaml:"distance"`
	ToAltitude        float32 `json:"to_altitude" yaml:"to_altitude"`
	// IsIgnored is set when the step is too close to another event to be
	// flown; the path builder skips it.
	IsIgnored bool `json:"-" yaml:"-"`
}

func (s Step) String() string {
	return fmt.Sprintf("%s@%.1fnm->%.0f%s", util.Select(s.Fix != "", s.Fix, "step"), s.DistanceFromStart,
		s.ToAltitude, util.Select(s.IsIgnored, " (ignored)", ""))
}

// StepCoordinator holds the steps in route order and decides which of
// them can be honored.
type StepCoordinator struct {
	steps []Step
	// MinSpacing is the minimum distance in nm between a step and T/C,
	// T/D, or the previous step that is flown.
	MinSpacing float32
}

func NewStepCoordinator(minSpacing float32) *StepCoordinator {
	return &StepCoordinator{MinSpacing: minSpacing}
}

// Steps returns the steps in route order. The returned slice must not be
// modified.
func (sc *StepCoordinator) Steps() []Step {
	return sc.steps
}

func (sc *StepCoordinator) Add(s Step) error {
	if s.ToAltitude <= 0 {
		return fmt.Errorf("%.0f: %w", s.ToAltitude, ErrInvalidStepAltitude)
	}
	s.IsIgnored = false

	idx, _ := slices.BinarySearchFunc(sc.steps, s.DistanceFromStart, func(st Step, d float32) int {
		if st.DistanceFromStart <= d {
			// Later steps at the same distance go after earlier ones.
			return -1
		}
		return 1
	})
	sc.steps = slices.Insert(sc.steps, idx, s)
	return nil
}

// Remove deletes the step at the given distance.
func (sc *StepCoordinator) Remove(distanceFromStart float32) error {
	idx := slices.IndexFunc(sc.steps, func(s Step) bool {
		return math.Abs(s.DistanceFromStart-distanceFromStart) < 0.01
	})
	if idx == -1 {
		return fmt.Errorf("%.2fnm: %w", distanceFromStart, ErrNoStepAtDistance)
	}
	sc.steps = slices.Delete(sc.steps, idx, idx+1)
	return nil
}

func (sc *StepCoordinator) Clear() {
	sc.steps = nil
}

// UpdateIgnored flags the steps that won't be flown: those outside the
// cruise segment between the top of climb and the top of descent, and
// those within MinSpacing of either end or of the previous step that
// will be flown.
func (sc *StepCoordinator) UpdateIgnored(topOfClimb, topOfDescent float32) {
	prev := topOfClimb
	for i := range sc.steps {
		s := &sc.steps[i]
		d := s.DistanceFromStart
		s.IsIgnored = d < topOfClimb || d > topOfDescent ||
			d-prev < sc.MinSpacing || topOfDescent-d < sc.MinSpacing
		if !s.IsIgnored {
			prev = d
		}
	}
}

// FinalAltitude returns the altitude the aircraft will be at after the
// last step, or cruiseAltitude if there are none.
func (sc *StepCoordinator) FinalAltitude(cruiseAltitude float32) float32 {
	for i := len(sc.steps) - 1; i >= 0; i-- {
		if !sc.steps[i].IsIgnored {
			return sc.steps[i].ToAltitude
		}
	}
	return cruiseAltitude
}
