// profile/publish.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package profile

import (
	"sync"
	"sync/atomic"
)

// Ticket identifies a profile rebuild; see Publisher.Begin.
type Ticket uint64

// Publisher hands the most recently completed profile to readers. Readers
// always see either the previous complete profile or the new one, never
// one that is still being built. A rebuild that is superseded by a newer
// one before it finishes is discarded.
type Publisher struct {
	mu      sync.Mutex
	current atomic.Pointer[published]
	latest  uint64 // most recent ticket handed out
}

type published struct {
	profile    *Profile
	generation Ticket
}

// Begin starts a rebuild; the returned ticket must be passed to Publish.
// Any earlier outstanding tickets become stale.
func (p *Publisher) Begin() Ticket {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.latest++
	return Ticket(p.latest)
}

// Publish makes prof the current profile if t is still the most recent
// ticket. It returns false if the rebuild was superseded.
func (p *Publisher) Publish(t Ticket, prof *Profile) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if uint64(t) != p.latest {
		return false
	}
	p.current.Store(&published{profile: prof, generation: t})
	return true
}

// Current returns the published profile and its generation; the profile
// is nil if nothing has been published yet. The returned profile must not
// be modified.
func (p *Publisher) Current() (*Profile, Ticket) {
	if cur := p.current.Load(); cur != nil {
		return cur.profile, cur.generation
	}
	return nil, 0
}
