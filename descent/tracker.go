// descent/tracker.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package descent

import (
	"log/slog"
	"slices"
	"time"

	av "github.com/mmp/vnav/aviation"
	"github.com/mmp/vnav/log"
	"github.com/mmp/vnav/math"
	"github.com/mmp/vnav/profile"
	"github.com/mmp/vnav/util"
)

// InertialDistanceAlongTrack dead-reckons the distance flown along the
// route between position fixes. Along-track distance derived from the
// lateral position jumps around from one tick to the next; integrating
// ground speed gives a smooth estimate that is corrected whenever a new
// profile anchors it to a known position.
type InertialDistanceAlongTrack struct {
	distance float32
	lastTime time.Time
}

// UpdateCorrectInformation resets the estimate to a known distance.
func (i *InertialDistanceAlongTrack) UpdateCorrectInformation(distance float32, t time.Time) {
	i.distance = distance
	i.lastTime = t
}

// Update advances the estimate to time t at the given ground speed. Time
// going backward (e.g., a simulation reset) resets the clock without
// moving the estimate.
func (i *InertialDistanceAlongTrack) Update(groundSpeed float32, t time.Time) {
	if i.lastTime.IsZero() || t.Before(i.lastTime) {
		i.lastTime = t
		return
	}
	i.distance += groundSpeed * float32(t.Sub(i.lastTime).Seconds()) / 3600
	i.lastTime = t
}

func (i *InertialDistanceAlongTrack) Get() float32 {
	return i.distance
}

// ProfileRelation relates the aircraft's position to the descent
// profile: whether it is past T/D, on the geometric path, and how far it
// is above or below the path.
//
// All of the query methods require IsValid to be true; calling them on an
// invalid tracker is a programming error and panics.
type ProfileRelation struct {
	Flight string // for logging

	params av.ParametersObserver
	lg     *log.Logger

	valid bool
	// profile is a private copy of the published profile without the
	// present position checkpoint.
	profile            *profile.Profile
	topOfDescent       profile.Checkpoint
	geometricPathStart profile.Checkpoint
	distance           InertialDistanceAlongTrack
	// How far the distance estimate moved at each recent profile update.
	jumps *util.RingBuffer[float32]
}

const distanceJumpHistory = 16

func NewProfileRelation(params av.ParametersObserver, lg *log.Logger) *ProfileRelation {
	return &ProfileRelation{params: params, lg: lg, jumps: util.NewRingBuffer[float32](distanceJumpHistory)}
}

// DistanceJumps returns how far the distance estimate moved when each of
// the recent profiles arrived, oldest first.
func (r *ProfileRelation) DistanceJumps() []float32 {
	return slices.Collect(r.jumps.All())
}

func (r *ProfileRelation) IsValid() bool {
	return r.valid
}

// UpdateProfile switches to tracking against p. p is not modified. If p is
// missing T/D, the present position, or the start of the geometric path,
// the tracker becomes invalid.
func (r *ProfileRelation) UpdateProfile(p *profile.Profile) {
	if p == nil {
		r.invalidate("nil profile")
		return
	}

	td, okTD := p.FindCheckpoint(profile.ReasonTopOfDescent)
	ppos, okPPOS := p.FindCheckpoint(profile.ReasonPresentPosition)
	geo, okGeo := p.FindCheckpoint(profile.ReasonGeometricPathStart)
	if !okTD || !okPPOS || !okGeo {
		r.invalidate("profile missing T/D, present position, or geometric path start")
		return
	}

	simTime := r.params.Get().SimTime
	if r.valid {
		// How far the estimate was from where the new profile says we
		// are; large jumps point to a problem in profile construction.
		jump := p.GetDistanceFromStart(ppos.DistanceFromStart) - r.profile.GetDistanceFromStart(r.distance.Get())
		r.jumps.Add(jump)
		r.lg.Debug("profile update", slog.Float64("distance_jump", float64(jump)))
		log.NavLog(r.Flight, simTime, log.NavLogTracker, "new profile, estimate jumps %.3fnm", jump)
	}

	r.valid = true
	r.topOfDescent = td
	r.geometricPathStart = geo
	r.profile = p.WithoutReason(profile.ReasonPresentPosition)
	r.distance.UpdateCorrectInformation(ppos.DistanceFromStart, simTime)
}

func (r *ProfileRelation) invalidate(why string) {
	if r.valid {
		r.lg.Info("descent profile relation invalidated", slog.String("reason", why))
	}
	r.valid = false
	r.profile = nil
	r.topOfDescent = profile.Checkpoint{}
	r.geometricPathStart = profile.Checkpoint{}
}

// Update advances the distance estimate by one tick.
func (r *ProfileRelation) Update() {
	if !r.valid {
		return
	}

	p := r.params.Get()
	r.distance.Update(p.PresentPosition.GroundSpeed, p.SimTime)
	log.NavLog(r.Flight, p.SimTime, log.NavLogTracker, "distance %.3fnm gs %.0f", r.distance.Get(),
		p.PresentPosition.GroundSpeed)
}

func (r *ProfileRelation) mustBeValid() {
	if !r.valid {
		panic("descent profile relation queried while invalid")
	}
}

// DistanceAlongTrack returns the estimated distance from the start of the
// profile.
func (r *ProfileRelation) DistanceAlongTrack() float32 {
	r.mustBeValid()
	return r.profile.GetDistanceFromStart(r.distance.Get())
}

// interpolationDistance returns the estimated distance clamped to the
// range covered by the profile.
func (r *ProfileRelation) interpolationDistance() float32 {
	first, last := r.profile.Range()
	return math.Clamp(r.DistanceAlongTrack(), first, last)
}

func (r *ProfileRelation) interpolate(f func(float32) (float32, error)) float32 {
	v, err := f(r.interpolationDistance())
	if err != nil {
		// The distance is clamped, so this only happens with an empty
		// profile.
		r.lg.Errorf("%v", err)
	}
	return v
}

func (r *ProfileRelation) IsPastTopOfDescent() bool {
	r.mustBeValid()
	return r.DistanceAlongTrack() > r.topOfDescent.DistanceFromStart
}

func (r *ProfileRelation) IsOnGeometricPath() bool {
	r.mustBeValid()
	return r.DistanceAlongTrack() > r.geometricPathStart.DistanceFromStart
}

// ComputeLinearDeviation returns the aircraft's altitude minus the
// profile's altitude; positive is above the path.
func (r *ProfileRelation) ComputeLinearDeviation() float32 {
	return r.params.Get().PresentPosition.Altitude - r.CurrentTargetAltitude()
}

func (r *ProfileRelation) CurrentTargetAltitude() float32 {
	r.mustBeValid()
	return r.interpolate(r.profile.InterpolateAltitude)
}

// CurrentTargetPathAngle returns the profile's flight path angle in
// degrees at the aircraft's position.
func (r *ProfileRelation) CurrentTargetPathAngle() float32 {
	r.mustBeValid()
	return r.interpolate(r.profile.InterpolatePathAngle)
}

// CurrentTargetVerticalSpeed returns the vertical speed in feet per
// minute needed to follow the path at the current ground speed.
func (r *ProfileRelation) CurrentTargetVerticalSpeed() float32 {
	gs := r.params.Get().PresentPosition.GroundSpeed
	return math.VerticalSpeedForPathAngle(gs, r.CurrentTargetPathAngle())
}

func (r *ProfileRelation) CurrentTargetSpeed() float32 {
	r.mustBeValid()
	return r.interpolate(r.profile.InterpolateSpeed)
}

// IsAboveSpeedLimitAltitude compares the indicated altitude to the
// descent speed limit altitude.
func (r *ProfileRelation) IsAboveSpeedLimitAltitude() bool {
	r.mustBeValid()
	p := r.params.Get()
	return p.PresentPosition.Altitude > p.DescentSpeedLimit.UnderAltitude
}
