// predict/cache.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package predict

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Cached memoizes the results of an underlying Predictor. Profiles are
// rebuilt whenever anything in the flight plan changes, and most of the
// segments come out the same each time.
type Cached struct {
	p        Predictor
	level    *lru.Cache[LevelFlightRequest, StepResult]
	speed    *lru.Cache[SpeedChangeRequest, StepResult]
	vertical *lru.Cache[verticalKey, StepResult]

	hits, misses int
}

type verticalKey struct {
	fpa bool
	req VerticalStepRequest
}

var _ Predictor = (*Cached)(nil)

func NewCached(p Predictor, size int) (*Cached, error) {
	if size <= 0 {
		size = 1024
	}

	c := &Cached{p: p}
	var err error
	if c.level, err = lru.New[LevelFlightRequest, StepResult](size); err != nil {
		return nil, err
	}
	if c.speed, err = lru.New[SpeedChangeRequest, StepResult](size); err != nil {
		return nil, err
	}
	if c.vertical, err = lru.New[verticalKey, StepResult](size); err != nil {
		return nil, err
	}
	return c, nil
}

func lookup[K comparable](c *Cached, cache *lru.Cache[K, StepResult], key K, compute func() StepResult) StepResult {
	if r, ok := cache.Get(key); ok {
		c.hits++
		return r
	}
	c.misses++
	r := compute()
	cache.Add(key, r)
	return r
}

func (c *Cached) LevelFlightStep(req LevelFlightRequest) StepResult {
	return lookup(c, c.level, req, func() StepResult { return c.p.LevelFlightStep(req) })
}

func (c *Cached) SpeedChangeStep(req SpeedChangeRequest) StepResult {
	return lookup(c, c.speed, req, func() StepResult { return c.p.SpeedChangeStep(req) })
}

func (c *Cached) VerticalSpeedStep(req VerticalStepRequest) StepResult {
	return lookup(c, c.vertical, verticalKey{req: req}, func() StepResult { return c.p.VerticalSpeedStep(req) })
}

func (c *Cached) FlightPathAngleStep(req VerticalStepRequest) StepResult {
	return lookup(c, c.vertical, verticalKey{fpa: true, req: req}, func() StepResult { return c.p.FlightPathAngleStep(req) })
}

// Stats returns the number of cache hits and misses so far.
func (c *Cached) Stats() (hits, misses int) {
	return c.hits, c.misses
}

func (c *Cached) Purge() {
	c.level.Purge()
	c.speed.Purge()
	c.vertical.Purge()
}
