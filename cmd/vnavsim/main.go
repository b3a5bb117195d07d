// cmd/vnavsim/main.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// vnavsim flies one or more scenarios with VNAV guidance in the loop and
// prints a summary of each run.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	av "github.com/mmp/vnav/aviation"
	"github.com/mmp/vnav/descent"
	"github.com/mmp/vnav/log"
	"github.com/mmp/vnav/nav"
	"github.com/mmp/vnav/sim"

	"github.com/apenwarr/fixconsole"
	"github.com/goforj/godump"
	"github.com/iancoleman/orderedmap"
)

var (
	scenarioFiles    = flag.String("scenario", "", "comma-separated scenario files (JSON or YAML); further files may follow the flags")
	configFile       = flag.String("config", "", "VNAV configuration file; defaults are used if not given")
	logLevel         = flag.String("loglevel", "info", "logging level: debug, info, warn, error")
	logDir           = flag.String("logdir", "", "log file directory")
	traceDir         = flag.String("trace", "", "directory to write per-scenario traces to")
	replay           = flag.String("replay", "", "summarize the given trace file and exit")
	dumpProfile      = flag.Bool("dump", false, "dump each scenario's initial vertical profile and exit")
	navLog           = flag.Bool("navlog", false, "enable navigation logging")
	navLogCategories = flag.String("navlog-categories", "all", "comma-separated navlog categories: profile, cruise, descent, tracker, guidance, margin")
	navLogFlight     = flag.String("navlog-flight", "", "only log the given scenario")
)

func main() {
	flag.Parse()

	if err := fixconsole.FixConsoleIfNeeded(); err != nil {
		fmt.Printf("FixConsole: %v\n", err)
	}

	lg := log.New(*logLevel, *logDir)
	defer lg.CatchAndReportCrash()

	log.InitNavLog(*navLog, *navLogCategories, *navLogFlight)

	if *replay != "" {
		summary, err := sim.SummarizeTraceFile(*replay)
		if err != nil {
			lg.Errorf("%s: %v", *replay, err)
			os.Exit(1)
		}
		printJSON(traceSummaryMap(*replay, summary))
		return
	}

	cfg := nav.DefaultConfig()
	if *configFile != "" {
		var err error
		if cfg, err = nav.LoadConfig(*configFile); err != nil {
			lg.Errorf("%v", err)
			os.Exit(1)
		}
	}

	var files []string
	if *scenarioFiles != "" {
		files = strings.Split(*scenarioFiles, ",")
	}
	files = append(files, flag.Args()...)
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "vnavsim: no scenarios given")
		flag.Usage()
		os.Exit(1)
	}

	var scenarios []*sim.Scenario
	for _, f := range files {
		s, err := sim.LoadScenario(strings.TrimSpace(f))
		if err != nil {
			lg.Errorf("%v", err)
			os.Exit(1)
		}
		scenarios = append(scenarios, s)
	}

	if *dumpProfile {
		for _, sc := range scenarios {
			if err := dump(sc, cfg, lg); err != nil {
				lg.Errorf("%s: %v", sc.Name, err)
				os.Exit(1)
			}
		}
		return
	}

	if *traceDir != "" {
		if err := os.MkdirAll(*traceDir, 0o755); err != nil {
			lg.Errorf("%s: %v", *traceDir, err)
			os.Exit(1)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	start := time.Now()
	results, err := sim.RunAll(ctx, scenarios, cfg, *traceDir, lg)
	if err != nil {
		lg.Errorf("%v", err)
		os.Exit(1)
	}
	lg.Info("finished", "scenarios", len(results), "elapsed", time.Since(start))

	for _, r := range results {
		if !r.Arrived {
			lg.Warnf("%s: stopped %.1fnm out at %.0f'", r.Scenario, r.FinalDistance, r.FinalAltitude)
		}
		printJSON(resultMap(r))
	}
}

// dump runs the scenario just long enough for the first profile to be
// published.
func dump(sc *sim.Scenario, cfg nav.Config, lg *log.Logger) error {
	s, err := sim.NewSim(sc, cfg, nil, lg)
	if err != nil {
		return err
	}
	if _, err := s.Step(time.Second); err != nil {
		return err
	}
	p := s.Profile()
	if p == nil {
		return sim.ErrNoProfile
	}
	fmt.Printf("%s:\n", sc.Name)
	godump.Dump(p)
	return nil
}

func modeSecondsMap(ms map[av.RequestedVerticalMode]int) *orderedmap.OrderedMap {
	m := orderedmap.New()
	for mode := av.RequestedVerticalModeNone; mode <= av.RequestedVerticalModeVsSpeed; mode++ {
		if n, ok := ms[mode]; ok {
			m.Set(mode.String(), n)
		}
	}
	return m
}

func resultMap(r sim.Result) *orderedmap.OrderedMap {
	m := orderedmap.New()
	m.Set("scenario", r.Scenario)
	m.Set("seconds", r.Seconds)
	m.Set("arrived", r.Arrived)
	m.Set("final_distance", r.FinalDistance)
	m.Set("final_altitude", r.FinalAltitude)
	m.Set("fuel_used", r.FuelUsed)
	m.Set("predicted_fuel_at_landing", r.PredictedFuelAtLanding)
	m.Set("top_of_descent", r.TopOfDescent)
	m.Set("descent_engaged_at", r.DescentEngagedAtDistance)
	m.Set("max_deviation", r.MaxDeviation)
	m.Set("recent_deviation", r.RecentDeviation)
	m.Set("recomputes", r.Recomputes)
	m.Set("recompute_failures", r.RecomputeFailures)
	m.Set("mode_seconds", modeSecondsMap(r.ModeSeconds))
	m.Set("cache_hits", r.CacheHits)
	m.Set("cache_misses", r.CacheMisses)
	return m
}

func traceSummaryMap(path string, s sim.TraceSummary) *orderedmap.OrderedMap {
	m := orderedmap.New()
	m.Set("trace", path)
	m.Set("records", s.Records)
	m.Set("seconds", s.Seconds)
	m.Set("final_aircraft", s.FinalAircraft.String())
	m.Set("max_deviation", s.MaxDeviation)
	m.Set("mode_seconds", modeSecondsMap(s.ModeSeconds))

	tr := orderedmap.New()
	for state := descent.GuidanceStateInvalidProfile; state <= descent.GuidanceStateProvidingGuidance; state++ {
		tr.Set(state.String(), s.Transitions[state])
	}
	m.Set("transitions", tr)
	return m
}

func printJSON(m *orderedmap.OrderedMap) {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return
	}
	fmt.Println(string(b))
}
