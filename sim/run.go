// sim/run.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package sim flies scenarios closed-loop: a simple aircraft model
// follows the descent guidance while VNAV rebuilds its profile from noisy
// sensor data.
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"time"

	av "github.com/mmp/vnav/aviation"
	"github.com/mmp/vnav/descent"
	"github.com/mmp/vnav/log"
	"github.com/mmp/vnav/math"
	"github.com/mmp/vnav/nav"
	"github.com/mmp/vnav/predict"
	"github.com/mmp/vnav/profile"
	"github.com/mmp/vnav/rand"
	"github.com/mmp/vnav/util"
	"github.com/mmp/vnav/wx"

	"golang.org/x/sync/errgroup"
)

var ErrNoProfile = errors.New("No profile was ever published")

// Number of guidance cycles over which the recent deviation is averaged.
const recentDeviationCycles = 60

var simStart = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

// TraceRecord is written once per simulated second.
type TraceRecord struct {
	Seconds  float32
	Aircraft Aircraft
	Phase    av.FlightPhase
	State    descent.GuidanceState
	Output   av.GuidanceOutput
}

// Result summarizes a scenario run.
type Result struct {
	Scenario string
	Seconds  float32
	Arrived  bool

	FinalDistance float32
	FinalAltitude float32
	FuelUsed      float32

	// From the last published profile.
	TopOfDescent             float32
	PredictedFuelAtLanding   float32
	Recomputes               int
	RecomputeFailures        int
	DescentEngagedAtDistance float32

	// Absolute linear deviation while providing guidance.
	MaxDeviation    float32
	RecentDeviation float32

	// Seconds spent in each requested vertical mode.
	ModeSeconds map[av.RequestedVerticalMode]int

	CacheHits, CacheMisses int
}

func (r Result) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("scenario", r.Scenario),
		slog.Float64("seconds", float64(r.Seconds)),
		slog.Bool("arrived", r.Arrived),
		slog.Float64("td", float64(r.TopOfDescent)),
		slog.Float64("fuel_used", float64(r.FuelUsed)),
		slog.Float64("max_deviation", float64(r.MaxDeviation)),
		slog.Int("recomputes", r.Recomputes),
		slog.Int("recompute_failures", r.RecomputeFailures),
	)
}

type Sim struct {
	Scenario *Scenario

	params    *av.ParameterStore
	atmos     *wx.Conditions
	predictor predict.SegmentPredictor
	vnav      *nav.VNAV
	rand      rand.Rand
	trace     *util.TraceWriter[TraceRecord]
	lg        *log.Logger

	aircraft Aircraft
	output   av.GuidanceOutput // most recent from guidance

	simTime        time.Time
	elapsed        float32 // seconds
	updateTimeSlop time.Duration

	fixDistance   float32
	lastFix       float32
	lastRecompute float32
	recompute     bool
	nextStep      int
	// When the descent reminder was first shown; negative if it isn't.
	latchSince float32

	deviations *util.RingBuffer[float32]
	result     Result
}

// NewSim prepares the given scenario to run. trace may be nil.
func NewSim(s *Scenario, cfg nav.Config, trace *util.TraceWriter[TraceRecord], lg *log.Logger) (*Sim, error) {
	lg = lg.With(slog.String("scenario", s.Name))

	sim := &Sim{
		Scenario:   s,
		params:     av.NewParameterStore(s.initialParameters(simStart)),
		atmos:      wx.NewConditions(wx.StandardTropopause),
		predictor:  predict.NewPointMass(cfg.Predict.Performance, wx.StandardTropopause),
		rand:       rand.Make(s.Seed),
		trace:      trace,
		lg:         lg,
		simTime:    simStart,
		recompute:  true,
		latchSince: -1,
		deviations: util.NewRingBuffer[float32](recentDeviationCycles),
		aircraft: Aircraft{
			Distance:    s.Aircraft.Distance,
			Altitude:    s.Aircraft.Altitude,
			IAS:         s.Aircraft.IAS,
			FuelOnBoard: s.Aircraft.FuelOnBoard,
		},
		fixDistance: s.Aircraft.Distance,
		result: Result{
			Scenario:    s.Name,
			ModeSeconds: make(map[av.RequestedVerticalMode]int),
		},
	}
	sim.atmos.SetISADeviation(s.ISADeviation)
	sim.aircraft.GroundSpeed = sim.atmos.TASFromCAS(s.Aircraft.Altitude, s.Aircraft.IAS) +
		float32(s.wind.ComponentAt(s.Aircraft.Altitude))

	v, err := nav.NewVNAV(s.Name, cfg, sim.params, sim.atmos, sim, lg)
	if err != nil {
		return nil, err
	}
	if err := v.SetFlightPlan(s.Plan); err != nil {
		return nil, fmt.Errorf("%s: %w", s.Name, err)
	}
	sim.vnav = v

	return sim, nil
}

// Publish implements descent.GuidanceSink.
func (s *Sim) Publish(out av.GuidanceOutput) {
	s.output = out
}

// Profile returns the most recently published vertical profile, if any.
func (s *Sim) Profile() *profile.Profile {
	return s.vnav.Profile()
}

func (s *Sim) Done() bool {
	ac := s.aircraft
	dest := s.Scenario.Plan.Destination
	return ac.Distance >= dest.Distance || s.elapsed >= s.Scenario.MaxSeconds ||
		(s.params.Get().FlightPhase >= av.FlightPhaseDescent && ac.Altitude <= dest.Elevation)
}

// Step advances the simulation by the given elapsed time in one second
// increments, carrying any remainder over to the next call. It returns
// true if any time was simulated.
func (s *Sim) Step(elapsed time.Duration) (bool, error) {
	elapsed += s.updateTimeSlop

	ns := int(elapsed.Truncate(time.Second).Seconds())
	for range ns {
		if s.Done() {
			break
		}
		s.simTime = s.simTime.Add(time.Second)
		s.elapsed++
		if err := s.updateState(); err != nil {
			return true, err
		}
	}

	s.updateTimeSlop = elapsed - elapsed.Truncate(time.Second)
	return ns > 0, nil
}

// Run flies the scenario to completion.
func (s *Sim) Run(ctx context.Context) (Result, error) {
	for !s.Done() {
		if err := ctx.Err(); err != nil {
			return s.Result(), err
		}
		if _, err := s.Step(time.Minute); err != nil {
			return s.Result(), err
		}
	}

	r := s.Result()
	if s.vnav.Profile() == nil {
		return r, fmt.Errorf("%s: %w", s.Scenario.Name, ErrNoProfile)
	}
	s.lg.Info("scenario finished", slog.Any("result", r))
	return r, nil
}

func (s *Sim) updateState() error {
	sc := s.Scenario
	ac := &s.aircraft

	s.updateSensors()
	s.updateSteps()

	s.params.Update(func(p *av.ComputationParameters) {
		p.SimTime = s.simTime
		p.PresentPosition = av.PresentPosition{
			DistanceFromStart: s.fixDistance,
			Altitude:          ac.Altitude,
			GroundSpeed:       ac.GroundSpeed,
			IAS:               ac.IAS,
			FuelOnBoard:       ac.FuelOnBoard,
		}
		if p.FlightPhase == av.FlightPhaseClimb && ac.Altitude >= p.CruiseAltitude-50 {
			p.FlightPhase = av.FlightPhaseCruise
		}
	})

	if p := s.params.Get(); p.FlightPhase < av.FlightPhaseDescent &&
		(s.recompute || s.elapsed-s.lastRecompute >= sc.RecomputeSeconds) {
		s.result.Recomputes++
		if err := s.vnav.RecomputeProfile(); err != nil {
			s.result.RecomputeFailures++
		}
		s.lastRecompute = s.elapsed
		s.recompute = false
	}

	s.vnav.Update()

	s.updatePilot()

	p := s.params.Get()
	wind := sc.wind.ComponentAt(ac.Altitude)
	ac.Update(1, s.output, p, s.atmos, wind, s.predictor)

	state := s.vnav.GuidanceState()
	s.result.ModeSeconds[s.output.RequestedVerticalMode]++
	if state == descent.GuidanceStateProvidingGuidance {
		dev := math.Abs(s.output.LinearDeviation)
		s.result.MaxDeviation = max(s.result.MaxDeviation, dev)
		s.deviations.Add(dev)
	}

	log.NavLog(sc.Name, s.simTime, log.NavLogGuidance, "%s %s: %s", ac, state, s.output)

	if s.trace != nil {
		return s.trace.Write(TraceRecord{
			Seconds:  s.elapsed,
			Aircraft: *ac,
			Phase:    p.FlightPhase,
			State:    state,
			Output:   s.output,
		})
	}
	return nil
}

// updateSensors takes a new position fix and air temperature sample
// every FixSeconds. Between fixes VNAV works from the last one.
func (s *Sim) updateSensors() {
	sc := s.Scenario
	if s.elapsed-s.lastFix < sc.FixSeconds {
		return
	}
	s.lastFix = s.elapsed

	s.fixDistance = s.aircraft.Distance + s.rand.Normal(0, sc.PositionNoise)

	alt := s.aircraft.Altitude
	s.atmos.Update(wx.ConditionsSample{
		Altitude: alt,
		StaticAirTemperature: wx.ISATemperature(alt, wx.StandardTropopause) + sc.ISADeviation +
			s.rand.Normal(0, sc.TemperatureNoise),
	})
}

// updateSteps enters timed steps into the FMS and, once the aircraft
// reaches a step, makes its altitude the new cruise altitude.
func (s *Sim) updateSteps() {
	sc := s.Scenario
	for s.nextStep < len(sc.Steps) && s.elapsed >= sc.Steps[s.nextStep].AtSeconds {
		step := sc.Steps[s.nextStep].Step
		if err := s.vnav.AddStep(step); err != nil {
			s.lg.Warn("unable to add step", slog.String("step", step.String()), slog.Any("error", err))
		}
		s.nextStep++
		s.recompute = true
	}

	for _, step := range s.vnav.Steps() {
		if step.IsIgnored || step.DistanceFromStart > s.aircraft.Distance {
			continue
		}
		s.lg.Infof("reached %s at %.1fnm", step, s.aircraft.Distance)
		s.params.Update(func(p *av.ComputationParameters) { p.CruiseAltitude = step.ToAltitude })
		if err := s.vnav.RemoveStep(step.DistanceFromStart); err != nil {
			s.lg.Warn("unable to remove step", slog.String("step", step.String()), slog.Any("error", err))
		}
		s.recompute = true
	}
}

// updatePilot engages DES once the descent reminder has been shown for
// the pilot's reaction time, and tracks the flight phase through the
// descent.
func (s *Sim) updatePilot() {
	p := s.params.Get()

	if s.output.ShowDescentLatch && p.FCUVerticalMode != av.VerticalModeDescent {
		if s.latchSince < 0 {
			s.latchSince = s.elapsed
		}
		if s.elapsed-s.latchSince >= s.Scenario.PilotReactionSeconds {
			s.params.Update(func(p *av.ComputationParameters) {
				p.FCUVerticalMode = av.VerticalModeDescent
				p.FlightPhase = av.FlightPhaseDescent
			})
			s.result.DescentEngagedAtDistance = s.aircraft.Distance
			s.lg.Info("DES engaged", slog.Any("aircraft", s.aircraft))
		}
	} else {
		s.latchSince = -1
	}

	if prof := s.vnav.Profile(); prof != nil && p.FlightPhase == av.FlightPhaseDescent {
		if geo, ok := prof.FindCheckpoint(profile.ReasonGeometricPathStart); ok &&
			s.aircraft.Distance >= geo.DistanceFromStart {
			s.params.Update(func(p *av.ComputationParameters) { p.FlightPhase = av.FlightPhaseApproach })
		}
	}
}

// Result returns the summary of the run so far.
func (s *Sim) Result() Result {
	r := s.result
	ac := s.aircraft

	r.Seconds = s.elapsed
	r.Arrived = ac.Distance >= s.Scenario.Plan.Destination.Distance ||
		ac.Altitude <= s.Scenario.Plan.Destination.Elevation
	r.FinalDistance = ac.Distance
	r.FinalAltitude = ac.Altitude
	r.FuelUsed = s.Scenario.Aircraft.FuelOnBoard - ac.FuelOnBoard

	if prof := s.vnav.Profile(); prof != nil {
		if td, ok := prof.FindCheckpoint(profile.ReasonTopOfDescent); ok {
			r.TopOfDescent = td.DistanceFromStart
		}
		if landing, ok := prof.FindCheckpoint(profile.ReasonLanding); ok {
			r.PredictedFuelAtLanding = landing.RemainingFuelOnBoard
		}
	}

	if n := s.deviations.Len(); n > 0 {
		var sum float32
		for dev := range s.deviations.All() {
			sum += dev
		}
		r.RecentDeviation = sum / float32(n)
	}

	r.CacheHits, r.CacheMisses = s.vnav.PredictorStats()
	return r
}

// RunAll runs the scenarios in parallel, each with its own VNAV. If
// traceDir is non-empty, a trace of each run is written there.
func RunAll(ctx context.Context, scenarios []*Scenario, cfg nav.Config, traceDir string,
	lg *log.Logger) ([]Result, error) {
	results := make([]Result, len(scenarios))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, sc := range scenarios {
		eg.Go(func() (err error) {
			var tw *util.TraceWriter[TraceRecord]
			if traceDir != "" {
				if tw, err = util.CreateTrace[TraceRecord](TracePath(traceDir, sc.Name)); err != nil {
					return err
				}
				defer func() { err = errors.Join(err, tw.Close()) }()
			}

			s, err := NewSim(sc, cfg, tw, lg)
			if err != nil {
				return err
			}
			results[i], err = s.Run(ctx)
			return err
		})
	}

	return results, eg.Wait()
}

func TracePath(dir, scenario string) string {
	return filepath.Join(dir, scenario+".trace.zst")
}
