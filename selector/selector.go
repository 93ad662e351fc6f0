/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package selector owns a set of named peers and runs the correctness
// intersection over their statistics on demand. It is the seam a host
// application (a daemon's poll loop, or the CLI in cmd/ntpselect) attaches
// to: the ntp package's types are pure and non-blocking, this package adds
// the bookkeeping of "which peer is which" and "what was the last result."
package selector

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/facebook/ntpcore/ntp"
)

// Result is the outcome of a Select pass: the converged interval (if any)
// plus a per-peer snapshot of what went into it, for stats/CLI consumers.
type Result struct {
	Low, High ntp.Duration
	Allow     int
	OK        bool
	Peers     map[string]PeerSnapshot
}

// PeerSnapshot is one peer's contribution to a Select pass.
type PeerSnapshot struct {
	Reachable    bool
	Stratum      uint8
	Statistics   ntp.PeerStatistics
	RootDistance ntp.Duration
	Fit          bool
	Selected     bool
}

// Selector owns a map of peers keyed by an opaque id the caller assigns
// (an address, a configured name, whatever identifies the source to the
// host application) and the system parameters every peer is evaluated
// against.
type Selector struct {
	mu sync.Mutex

	system ntp.SystemConfig
	peers  map[string]*ntp.Peer

	// reject, when true, makes UpdatePeer return an error for ids not
	// already present in peers instead of lazily creating them.
	reject bool
}

// New returns a Selector seeded from cfg's configured peers.
func New(cfg *ntp.Config) *Selector {
	s := &Selector{
		system: cfg.System,
		peers:  make(map[string]*ntp.Peer, len(cfg.Peers)),
		reject: true,
	}
	for id := range cfg.Peers {
		s.peers[id] = ntp.NewPeer(cfg.System.OurID)
	}
	return s
}

// NewOpen returns a Selector that lazily creates peers on first use,
// for callers (tests, ad hoc fixtures) that don't pre-declare the peer set.
func NewOpen(system ntp.SystemConfig) *Selector {
	return &Selector{
		system: system,
		peers:  make(map[string]*ntp.Peer),
		reject: false,
	}
}

// UpdatePeer feeds one packet exchange into the named peer: it computes a
// sample via UpdateWithPacket, then runs it through ClockFilter if one was
// produced. It returns whether the sample was processed (promoted to the
// peer's statistics); a rejected or stale sample is reported as false, not
// an error. The only error path is an unconfigured peer id when the
// Selector was built with New (closed membership).
func (s *Selector) UpdatePeer(id string, now ntp.Timestamp, hdr ntp.Header, destination ntp.Timestamp) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.peers[id]
	if !ok {
		if s.reject {
			return false, fmt.Errorf("selector: unconfigured peer %q", id)
		}
		p = ntp.NewPeer(s.system.OurID)
		s.peers[id] = p
	}

	sample, ok := p.UpdateWithPacket(now, ntp.FromExponent(s.system.PrecisionExponent), hdr, destination)
	if !ok {
		log.WithField("peer", id).Debug("packet rejected, no sample produced")
		return false, nil
	}

	decision := p.ClockFilter(sample, hdr.Leap, s.system.PrecisionSeconds())
	processed := decision == ntp.Process
	log.WithFields(log.Fields{
		"peer":      id,
		"processed": processed,
		"offset":    sample.Offset.ToSeconds(),
		"delay":     sample.Delay.ToSeconds(),
	}).Debug("clock filter ran")

	return processed, nil
}

// Select snapshots every peer's fitness and statistics, builds the chime
// list over the peers that pass AcceptSynchronization, and runs the
// correctness intersection. Result.OK mirrors high > low; callers must
// check it (or OK) before trusting Low/High.
func (s *Selector) Select(now ntp.Timestamp) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	offsets := make(map[string]ntp.Duration)
	distances := make(map[string]ntp.Duration)
	snapshots := make(map[string]PeerSnapshot, len(s.peers))

	for id, p := range s.peers {
		stats := p.Statistics()
		distance := p.RootDistance(now)
		fit := p.AcceptSynchronization(now, s.system.Poll())

		snapshots[id] = PeerSnapshot{
			Reachable:    p.Reachable(),
			Stratum:      p.LastPacket().Stratum,
			Statistics:   stats,
			RootDistance: distance,
			Fit:          fit,
		}

		if fit {
			offsets[id] = stats.Offset
			distances[id] = distance
		}
	}

	chime := ntp.BuildChimeList(offsets, distances)
	low, high, allow, ok := ntp.FindInterval(chime)

	if ok {
		for _, c := range chime {
			if c.Edge >= low && c.Edge <= high {
				snap := snapshots[c.PeerID]
				snap.Selected = true
				snapshots[c.PeerID] = snap
			}
		}
	}

	log.WithFields(log.Fields{
		"candidates": len(offsets),
		"allow":      allow,
		"ok":         ok,
	}).Info("selection pass complete")

	return Result{Low: low, High: high, Allow: allow, OK: ok, Peers: snapshots}
}

// Peer returns the named peer for direct inspection (tests, CLI detail
// views); the second return is false if no such peer is known.
func (s *Selector) Peer(id string) (*ntp.Peer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.peers[id]
	return p, ok
}
