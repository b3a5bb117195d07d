// profile/profile.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package profile holds the predicted vertical path: an ordered list of
// checkpoints from the present position to landing.
package profile

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/mmp/vnav/math"

	"github.com/brunoga/deep"
)

var (
	ErrCruiseSegmentInvalid    = errors.New("Cruise segment invalid")
	ErrInterpolationOutOfRange = errors.New("Distance outside of profile")
	ErrNonMonotonic            = errors.New("Profile is not monotonic")
	ErrEmptyProfile            = errors.New("Profile has no checkpoints")
	ErrNonFinite               = errors.New("Profile has a NaN or infinite value")
)

// Tolerances used by Validate to allow for float32 round-off in
// accumulated fuel and time.
const (
	fuelTolerance    = 0.01
	secondsTolerance = 0.01
)

// Profile is the ordered sequence of checkpoints; insertion order is
// route order. Once published it is treated as immutable: builders work
// on a Clone and publish the result.
type Profile struct {
	Checkpoints         []Checkpoint
	MaxSpeedConstraints []MaxSpeedConstraint
	// DistanceOffset maps distance along the lateral track to profile
	// distance; it is nonzero only after Rebase.
	DistanceOffset float32
}

func New(cps ...Checkpoint) *Profile {
	return &Profile{Checkpoints: slices.Clone(cps)}
}

func (p *Profile) Len() int {
	return len(p.Checkpoints)
}

// AddCheckpoints inserts the checkpoints before the first existing
// checkpoint whose distance is at or beyond atDistance, or at the end if
// there is none. Callers are responsible for the checkpoints' distances
// being consistent with their neighbors.
func (p *Profile) AddCheckpoints(atDistance float32, cps ...Checkpoint) {
	idx := slices.IndexFunc(p.Checkpoints, func(c Checkpoint) bool { return c.DistanceFromStart >= atDistance })
	if idx == -1 {
		idx = len(p.Checkpoints)
	}
	p.InsertCheckpoints(idx, cps...)
}

// InsertCheckpoints inserts the checkpoints at the given index.
func (p *Profile) InsertCheckpoints(index int, cps ...Checkpoint) {
	p.Checkpoints = slices.Insert(p.Checkpoints, index, cps...)
}

// IndexOf returns the index of the first checkpoint with the given reason
// or -1 if there is none.
func (p *Profile) IndexOf(r Reason) int {
	return slices.IndexFunc(p.Checkpoints, func(c Checkpoint) bool { return c.Reason == r })
}

// FindCheckpoint returns the first checkpoint in route order with the
// given reason.
func (p *Profile) FindCheckpoint(r Reason) (Checkpoint, bool) {
	if idx := p.IndexOf(r); idx != -1 {
		return p.Checkpoints[idx], true
	}
	return Checkpoint{}, false
}

// Last returns the final checkpoint.
func (p *Profile) Last() (Checkpoint, bool) {
	if len(p.Checkpoints) == 0 {
		return Checkpoint{}, false
	}
	return p.Checkpoints[len(p.Checkpoints)-1], true
}

// Range returns the distances of the first and last checkpoints.
func (p *Profile) Range() (float32, float32) {
	if len(p.Checkpoints) == 0 {
		return 0, 0
	}
	return p.Checkpoints[0].DistanceFromStart, p.Checkpoints[len(p.Checkpoints)-1].DistanceFromStart
}

// bracket returns the two checkpoints on either side of the given
// distance. Zero-length spans are skipped so that interpolation never
// divides by zero.
func (p *Profile) bracket(distance float32) (Checkpoint, Checkpoint, error) {
	cps := p.Checkpoints
	if len(cps) == 0 {
		return Checkpoint{}, Checkpoint{}, ErrEmptyProfile
	}
	if first, last := p.Range(); distance < first || distance > last {
		return Checkpoint{}, Checkpoint{}, fmt.Errorf("%.2fnm not in [%.2f, %.2f]: %w", distance, first, last,
			ErrInterpolationOutOfRange)
	}

	for i := 1; i < len(cps); i++ {
		if cps[i].DistanceFromStart >= distance && cps[i].DistanceFromStart > cps[i-1].DistanceFromStart {
			return cps[i-1], cps[i], nil
		}
	}
	// All of the checkpoints are at the same distance.
	return cps[len(cps)-1], cps[len(cps)-1], nil
}

func (p *Profile) interpolate(distance float32, field func(Checkpoint) float32) (float32, error) {
	a, b, err := p.bracket(distance)
	if err != nil {
		return 0, err
	}
	t := math.InverseLerp(distance, a.DistanceFromStart, b.DistanceFromStart)
	return math.Lerp(t, field(a), field(b)), nil
}

func (p *Profile) InterpolateAltitude(distance float32) (float32, error) {
	return p.interpolate(distance, func(c Checkpoint) float32 { return c.Altitude })
}

func (p *Profile) InterpolateSpeed(distance float32) (float32, error) {
	return p.interpolate(distance, func(c Checkpoint) float32 { return c.Speed })
}

func (p *Profile) InterpolateSecondsFromPresent(distance float32) (float32, error) {
	return p.interpolate(distance, func(c Checkpoint) float32 { return c.SecondsFromPresent })
}

// InterpolatePathAngle returns the flight path angle in degrees of the
// segment containing the given distance; negative angles descend.
func (p *Profile) InterpolatePathAngle(distance float32) (float32, error) {
	a, b, err := p.bracket(distance)
	if err != nil {
		return 0, err
	}
	return math.FlightPathAngle(b.Altitude-a.Altitude, b.DistanceFromStart-a.DistanceFromStart), nil
}

// GetDistanceFromStart maps a distance along the lateral track to a
// distance in the profile.
func (p *Profile) GetDistanceFromStart(trackDistance float32) float32 {
	return trackDistance + p.DistanceOffset
}

// Rebase sets the offset between track distances and profile distances.
func (p *Profile) Rebase(offset float32) {
	p.DistanceOffset = offset
}

func (p *Profile) Clone() *Profile {
	return deep.MustCopy(p)
}

// WithoutReason returns a copy of the profile with all of the checkpoints
// with the given reason removed.
func (p *Profile) WithoutReason(r Reason) *Profile {
	c := p.Clone()
	c.Checkpoints = slices.DeleteFunc(c.Checkpoints, func(cp Checkpoint) bool { return cp.Reason == r })
	return c
}

// Validate checks that distance and time never decrease and that fuel
// never increases along the profile.
func (p *Profile) Validate() error {
	if len(p.Checkpoints) == 0 {
		return ErrEmptyProfile
	}
	for _, cp := range p.Checkpoints {
		if !math.IsFinite(cp.DistanceFromStart) || !math.IsFinite(cp.Altitude) || !math.IsFinite(cp.Speed) ||
			!math.IsFinite(cp.RemainingFuelOnBoard) || !math.IsFinite(cp.SecondsFromPresent) {
			return fmt.Errorf("%s: %w", cp, ErrNonFinite)
		}
	}
	for i := 1; i < len(p.Checkpoints); i++ {
		prev, cur := p.Checkpoints[i-1], p.Checkpoints[i]
		if cur.DistanceFromStart < prev.DistanceFromStart {
			return fmt.Errorf("%s at %.2fnm before %s at %.2fnm: distance decreases: %w", cur.Reason,
				cur.DistanceFromStart, prev.Reason, prev.DistanceFromStart, ErrNonMonotonic)
		}
		if cur.RemainingFuelOnBoard > prev.RemainingFuelOnBoard+fuelTolerance {
			return fmt.Errorf("%s at %.2fnm: fuel increases from %.1f to %.1f: %w", cur.Reason,
				cur.DistanceFromStart, prev.RemainingFuelOnBoard, cur.RemainingFuelOnBoard, ErrNonMonotonic)
		}
		if cur.SecondsFromPresent < prev.SecondsFromPresent-secondsTolerance {
			return fmt.Errorf("%s at %.2fnm: time decreases from %.1f to %.1f: %w", cur.Reason,
				cur.DistanceFromStart, prev.SecondsFromPresent, cur.SecondsFromPresent, ErrNonMonotonic)
		}
	}
	return nil
}

func (p *Profile) String() string {
	var sb strings.Builder
	for _, c := range p.Checkpoints {
		sb.WriteString(c.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (p *Profile) LogValue() slog.Value {
	if p == nil {
		return slog.StringValue("(nil)")
	}
	var attrs []slog.Attr
	for i, c := range p.Checkpoints {
		attrs = append(attrs, slog.Any(fmt.Sprintf("%d", i), c))
	}
	return slog.GroupValue(attrs...)
}
