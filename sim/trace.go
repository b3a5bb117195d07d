// sim/trace.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"io"

	av "github.com/mmp/vnav/aviation"
	"github.com/mmp/vnav/descent"
	"github.com/mmp/vnav/math"
	"github.com/mmp/vnav/util"
)

// TraceSummary is computed from a recorded trace.
type TraceSummary struct {
	Records       int
	Seconds       float32
	FinalAircraft Aircraft
	MaxDeviation  float32
	ModeSeconds   map[av.RequestedVerticalMode]int
	// Number of guidance state changes, by the state entered.
	Transitions map[descent.GuidanceState]int

	lastState descent.GuidanceState
}

func newTraceSummary() *TraceSummary {
	return &TraceSummary{
		ModeSeconds: make(map[av.RequestedVerticalMode]int),
		Transitions: make(map[descent.GuidanceState]int),
	}
}

func (s *TraceSummary) add(rec TraceRecord) error {
	// Traces start with guidance in the invalid profile state.
	prev := descent.GuidanceStateInvalidProfile
	if s.Records > 0 {
		prev = s.lastState
	}

	s.Records++
	s.Seconds = rec.Seconds
	s.FinalAircraft = rec.Aircraft
	s.ModeSeconds[rec.Output.RequestedVerticalMode]++
	if rec.State == descent.GuidanceStateProvidingGuidance {
		s.MaxDeviation = max(s.MaxDeviation, math.Abs(rec.Output.LinearDeviation))
	}
	if rec.State != prev {
		s.Transitions[rec.State]++
	}
	s.lastState = rec.State
	return nil
}

// SummarizeTrace reads a trace written by RunAll.
func SummarizeTrace(r io.Reader) (TraceSummary, error) {
	s := newTraceSummary()
	err := util.ReadTrace(r, s.add)
	return *s, err
}

func SummarizeTraceFile(path string) (TraceSummary, error) {
	s := newTraceSummary()
	err := util.ReadTraceFile(path, s.add)
	return *s, err
}
