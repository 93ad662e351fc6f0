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

import (
	"math"
	"sort"
)

// registerSize is the fixed depth of the per-peer shift register (RFC
// 5905 appendix A.5.2 names it an 8-stage shift register).
const registerSize = 8

// ShiftRegister is the per-peer 8-stage FIFO of samples that the clock
// filter reduces to a single best sample plus quality statistics. A
// freshly constructed ShiftRegister holds nothing but dummy entries.
type ShiftRegister struct {
	stages [registerSize]Sample
}

// NewShiftRegister returns a register filled with dummy entries, as if
// no packet had ever been received from this peer.
func NewShiftRegister() *ShiftRegister {
	r := &ShiftRegister{}
	for i := range r.stages {
		r.stages[i] = dummySample
	}
	return r
}

// ShiftAndInsert ages every existing (non-dummy) entry's dispersion by
// aging, then inserts newSample at stage 0, shifting everything else one
// slot toward the tail and discarding the oldest entry. Aging is applied
// before the shift so the entering sample itself is never aged.
func (r *ShiftRegister) ShiftAndInsert(newSample Sample, aging Duration) {
	current := newSample
	for i := range r.stages {
		if !r.stages[i].isDummy() {
			r.stages[i].Dispersion += aging
		}
		r.stages[i], current = current, r.stages[i]
	}
}

// SortedView is an ephemeral, delay-sorted snapshot of a ShiftRegister.
// Index 0 holds the sample of smallest delay; dummy entries, carrying
// MaxDispersion delay, sort to the tail.
type SortedView struct {
	samples [registerSize]Sample
}

// NewSortedView copies and sorts register's contents by ascending delay.
func NewSortedView(register *ShiftRegister) *SortedView {
	v := &SortedView{samples: register.stages}
	// Delay is a plain fixed-point integer here, so there is no NaN to
	// worry about; a strict less-than gives a well-defined total order.
	// (The reference sorts floating delays and treats "incomparable" as
	// less-than for the same purpose.)
	sort.Slice(v.samples[:], func(i, j int) bool {
		return v.samples[i].Delay < v.samples[j].Delay
	})
	return v
}

// SmallestDelay returns the entry with the smallest delay, the "best"
// sample the clock filter promotes to the peer's statistics.
func (v *SortedView) SmallestDelay() Sample {
	return v.samples[0]
}

// ValidPrefix returns the leading run of non-dummy entries; dummies, by
// construction, sort to the tail.
func (v *SortedView) ValidPrefix() []Sample {
	n := len(v.samples)
	for n > 0 && v.samples[n-1].isDummy() {
		n--
	}
	return v.samples[:n]
}

// Dispersion returns the weighted dispersion sum
// sum_{i=0..7} samples[i].Dispersion / 2^(i+1). An all-dummy view yields
// approximately MaxDispersion * (1 - 2^-8), i.e. just under 16 seconds.
func (v *SortedView) Dispersion() Duration {
	var total Duration
	for i, s := range v.samples {
		total += s.Dispersion.DivPow2(uint(i + 1))
	}
	return total
}

// Jitter returns the RMS-like spread of the valid prefix's offsets around
// anchor's offset, divided by (n-1), clamped from below to
// systemPrecisionSeconds. With exactly one valid sample it is 0.0 before
// the floor is applied to it, matching RFC 5905 appendix A.5.2 literally
// (the divisor is n-1, not sqrt(n-1)).
func (v *SortedView) Jitter(anchor Sample, systemPrecisionSeconds float64) float64 {
	valid := v.ValidPrefix()
	if len(valid) <= 1 {
		return math.Max(0.0, systemPrecisionSeconds)
	}

	var sumSquares float64
	for _, s := range valid {
		delta := s.Offset.Sub(anchor.Offset).ToSeconds()
		sumSquares += delta * delta
	}
	jitter := math.Sqrt(sumSquares) / float64(len(valid)-1)
	return math.Max(jitter, systemPrecisionSeconds)
}
