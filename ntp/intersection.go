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

package ntp

import "sort"

// EndpointType tags which edge of a peer's correctness interval a
// CandidateTuple represents.
type EndpointType int8

// Endpoint types, RFC 5905 appendix A.5.5.1. The integer values double as
// the +1/0/-1 weights find_interval sweeps with.
const (
	Upper  EndpointType = 1
	Middle EndpointType = 0
	Lower  EndpointType = -1
)

// CandidateTuple is one edge of the Marzullo-style chime list: a peer's
// correctness-interval endpoint, tagged by type, used to sweep for the
// largest contiguous interval tolerating falsetickers.
type CandidateTuple struct {
	PeerID string
	Type   EndpointType
	Edge   Duration
}

// sentinelExtreme bounds the edge values find_interval falls back to if
// it never converges; chosen, as the reference notes, comfortably
// outside the +-2^30 second range correctness-interval edges can reach.
const sentinelExtreme = One * 2_000_000_000

// BuildChimeList constructs the 3*len(offsets) candidate edges for the
// given fit peers: for each, a Lower (offset-distance), Middle (offset),
// and Upper (offset+distance) tuple, then sorts all edges ascending. The
// caller is expected to have already filtered to peers that pass
// AcceptSynchronization.
func BuildChimeList(offsets map[string]Duration, distances map[string]Duration) []CandidateTuple {
	chime := make([]CandidateTuple, 0, 3*len(offsets))
	for id, offset := range offsets {
		distance := distances[id]
		chime = append(chime,
			CandidateTuple{PeerID: id, Type: Lower, Edge: offset - distance},
			CandidateTuple{PeerID: id, Type: Middle, Edge: offset},
			CandidateTuple{PeerID: id, Type: Upper, Edge: offset + distance},
		)
	}
	sort.Slice(chime, func(i, j int) bool {
		return chime[i].Edge < chime[j].Edge
	})
	return chime
}

// FindInterval locates the largest contiguous correctness interval in
// chime, tolerating an adaptively increasing number of falsetickers
// (Marzullo's algorithm with RFC 5905's "Byzantine" extension): it starts
// at allow=0 and raises the tolerance only when the current allowance is
// exceeded, never trying more than floor(m/2) falsetickers, where m is
// the number of peers contributing edges.
//
// At a given allowance, an interval survives once at least m-allow
// peers' correctness intervals overlap at some point; low and high are
// the edges of that overlap. Lower/Upper edges drive the sweep; Middle
// edges carry zero weight and exist only to round out the
// CandidateTuple triples BuildChimeList emits (see DESIGN.md for why
// the found/Middle bookkeeping used elsewhere was dropped here).
//
// It returns (low, high, allow, true) on convergence with a nonempty
// interval, where allow is the number of falsetickers tolerated to reach
// it. If the sweep exhausts every allowance without high > low, it
// returns the last-seen (low, high), the first allow value the loop did
// not try (ceil(m/2), one past the last allowance tried), and false;
// callers must check the bool (or, equivalently, high > low) before
// trusting the interval.
func FindInterval(chime []CandidateTuple) (low, high Duration, allow int, ok bool) {
	m := len(chime) / 3
	low = sentinelExtreme
	high = -sentinelExtreme

	for ; 2*allow < m; allow++ {
		required := m - allow

		chimeCount := 0
		for _, c := range chime {
			chimeCount -= int(c.Type)
			if chimeCount >= required {
				low = c.Edge
				break
			}
		}

		chimeCount = 0
		for i := len(chime) - 1; i >= 0; i-- {
			c := chime[i]
			chimeCount += int(c.Type)
			if chimeCount >= required {
				high = c.Edge
				break
			}
		}

		if high > low {
			return low, high, allow, true
		}
	}

	return low, high, allow, false
}
