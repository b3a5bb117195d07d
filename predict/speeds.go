// predict/speeds.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package predict

import (
	"slices"

	av "github.com/mmp/vnav/aviation"
	"github.com/mmp/vnav/profile"
)

type ManagedSpeedType int

const (
	ManagedSpeedClimb ManagedSpeedType = iota
	ManagedSpeedCruise
	ManagedSpeedDescent
)

func (t ManagedSpeedType) String() string {
	return [...]string{"climb", "cruise", "descent"}[t]
}

// SpeedProfile gives the managed speed target at a point along the route.
type SpeedProfile interface {
	Target(distanceFromStart, altitude float32, kind ManagedSpeedType) float32
}

// ManagedSpeedProfile is the FMS's speed schedule: the managed speed for
// the phase, limited by any speed constraints that are still ahead (a
// constraint no longer applies once its point is reached) and by
// the climb/descent speed limit below its altitude.
type ManagedSpeedProfile struct {
	params      av.ParametersObserver
	constraints []profile.MaxSpeedConstraint
}

func NewManagedSpeedProfile(params av.ParametersObserver, constraints []profile.MaxSpeedConstraint) *ManagedSpeedProfile {
	c := slices.Clone(constraints)
	slices.SortStableFunc(c, func(a, b profile.MaxSpeedConstraint) int {
		if a.DistanceFromStart < b.DistanceFromStart {
			return -1
		} else if a.DistanceFromStart > b.DistanceFromStart {
			return 1
		}
		return 0
	})
	return &ManagedSpeedProfile{params: params, constraints: c}
}

// Constraints returns the constraints in route order.
func (s *ManagedSpeedProfile) Constraints() []profile.MaxSpeedConstraint {
	return s.constraints
}

func (s *ManagedSpeedProfile) Target(distanceFromStart, altitude float32, kind ManagedSpeedType) float32 {
	p := s.params.Get()

	speed := p.ManagedCruiseSpeed
	limit := p.ClimbSpeedLimit
	if kind == ManagedSpeedDescent {
		speed = p.ManagedDescentSpeed
		limit = p.DescentSpeedLimit
	}

	if kind != ManagedSpeedCruise && limit.Speed > 0 && altitude < limit.UnderAltitude {
		speed = min(speed, limit.Speed)
	}

	if kind != ManagedSpeedDescent {
		for _, c := range s.constraints {
			if c.DistanceFromStart > distanceFromStart {
				speed = min(speed, c.MaxSpeed)
			}
		}
	}

	return speed
}
