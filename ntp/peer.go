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

// Poll interval bounds, RFC 5905 figure 4.
const (
	// MinPollExponent is the smallest allowed poll interval, 2^4 = 16s.
	MinPollExponent int8 = 4
	// MaxPollExponent is the largest allowed poll interval, 2^17 ~= 36h.
	MaxPollExponent int8 = 17
)

// MaxDistance is the root-distance ceiling a peer must stay under (plus
// phi times the system poll interval) to be accepted for synchronization.
const MaxDistance Duration = One

// PeerStatistics is the quality summary the clock filter produces on a
// successful update: the best sample's offset/delay plus the sorted
// view's aggregate dispersion and jitter.
type PeerStatistics struct {
	Offset        Duration
	Delay         Duration
	Dispersion    Duration
	JitterSeconds float64
}

// reach is the 8-bit reachability shift register (RFC 5905 section 9.2):
// shifted left and the low bit cleared when a packet is sent, low bit set
// when a valid reply arrives. Any nonzero value means reachable.
type reach uint8

func (r reach) isReachable() bool {
	return r != 0
}

func (r *reach) recordSentPacket() {
	*r <<= 1
}

func (r *reach) recordReceivedPacket() {
	*r |= 1
}

// Decision is the outcome of Peer.ClockFilter.
type Decision int

const (
	// Ignore means the sample was folded into dispersion aging but not
	// promoted to the peer's statistics (stale, or a repeat).
	Ignore Decision = iota
	// Process means the peer's statistics were updated from this sample.
	Process
)

// Peer holds the per-association state the clock filter and root
// distance/fitness checks operate on. Nothing here is safe for concurrent
// use by more than one caller at a time; callers serialize access (the
// selector package does so with a mutex).
type Peer struct {
	// OurID is compared against an incoming packet's ReferenceID to
	// detect synchronization loops.
	OurID ReferenceID

	statistics PeerStatistics
	register   *ShiftRegister
	lastPacket Header
	time       Timestamp

	hostPoll Duration
	burst    uint8
	outDate  Timestamp
	nextDate Timestamp

	reach reach
}

// NewPeer returns a Peer with an empty (all-dummy) shift register, ready
// to receive its first packet.
func NewPeer(ourID ReferenceID) *Peer {
	return &Peer{
		OurID:    ourID,
		register: NewShiftRegister(),
	}
}

// Statistics returns the peer's current filtered statistics.
func (p *Peer) Statistics() PeerStatistics {
	return p.statistics
}

// Time returns the timestamp of the sample currently anchoring the
// peer's statistics.
func (p *Peer) Time() Timestamp {
	return p.time
}

// Reachable reports whether the peer's reachability register has any
// nonzero bit. UpdateWithPacket sets the low bit on every valid reply;
// nothing in this package shifts the register, so once set it stays set.
func (p *Peer) Reachable() bool {
	return p.reach.isReachable()
}

// LastPacket returns the most recently stored header, valid or not.
func (p *Peer) LastPacket() Header {
	return p.lastPacket
}

// UpdateWithPacket computes a raw sample from a decoded packet and
// destination timestamp, per RFC 5905 appendix A.5.1. It returns the
// sample and true on success; on any rejection (unsynchronized leap,
// invalid stratum, excessive root distance, or a reference timestamp
// that postdates the transmit timestamp) it returns the zero Sample and
// false. The header is stored as LastPacket either way, so stratum-based
// fitness checks still see the latest packet even when no sample results.
func (p *Peer) UpdateWithPacket(localClockTime Timestamp, systemPrecision Duration, packet Header, destination Timestamp) (Sample, bool) {
	// Stratum 0 ("unspecified"/kiss code) is remapped to MaxStratum so
	// later stratum comparisons don't need a special case for it.
	if packet.Stratum == 0 {
		packet.Stratum = MaxStratum
	}
	p.lastPacket = packet

	if !packet.Leap.IsSynchronized() || packet.Stratum >= MaxStratum {
		return Sample{}, false
	}

	packetDispersion := packet.RootDelay.DivInt(2) + packet.RootDispersion
	timeTravel := After(packet.ReferenceTimestamp, packet.TransmitTimestamp)
	if packetDispersion >= MaxDispersion || timeTravel {
		return Sample{}, false
	}

	p.pollUpdate(localClockTime, p.hostPoll)
	p.reach.recordReceivedPacket()

	packetPrecision := FromExponent(packet.Precision)

	var sample Sample
	if packet.Mode == ModeBroadcast {
		offset := Sub(packet.TransmitTimestamp, destination)
		delay := BroadcastDelay
		dispersion := packetPrecision + systemPrecision + multiplyByPhi(BroadcastDelay.MulInt(2))
		sample = Sample{Offset: offset, Delay: delay, Dispersion: dispersion, Time: localClockTime}
	} else {
		t1, t2, t3, t4 := packet.OriginTimestamp, packet.ReceiveTimestamp, packet.TransmitTimestamp, destination

		offset1 := Sub(t2, t1)
		offset2 := Sub(t4, t3)
		offset := (offset1 + offset2) / 2

		delta1 := Sub(t4, t1)
		delta2 := Sub(t2, t3)
		delay := systemPrecision.Max(delta1 - delta2)

		dispersion := packetPrecision + systemPrecision + multiplyByPhi(delta1)
		sample = Sample{Offset: offset, Delay: delay, Dispersion: dispersion, Time: localClockTime}
	}

	return sample, true
}

// ClockFilter runs the RFC 5905 clock_filter algorithm: it ages and
// inserts newSample into the peer's shift register, then either promotes
// the resulting smallest-delay sample to the peer's statistics (Process)
// or discards it as stale (Ignore) under the prime directive: never
// reuse a sample, and never accept one older than the last accepted
// sample, once the system is synchronized.
func (p *Peer) ClockFilter(newSample Sample, systemLeapIndicator Leap, systemPrecisionSeconds float64) Decision {
	aging := multiplyByPhi(Sub(newSample.Time, p.time))
	p.register.ShiftAndInsert(newSample, aging)

	view := NewSortedView(p.register)
	best := view.SmallestDelay()

	if Sub(best.Time, p.time) <= Zero && systemLeapIndicator.IsSynchronized() {
		return Ignore
	}

	p.statistics = PeerStatistics{
		Offset:        best.Offset,
		Delay:         best.Delay,
		Dispersion:    view.Dispersion(),
		JitterSeconds: view.Jitter(best, systemPrecisionSeconds),
	}
	p.time = best.Time

	return Process
}

// RootDistance is the correctness-interval half-width: half the total
// delay (floored at MinDispersion) plus total dispersion (packet root
// dispersion, filtered sample dispersion, and the dispersion accrued
// since the last accepted sample) plus peer jitter.
func (p *Peer) RootDistance(localClockTime Timestamp) Duration {
	return MinDispersion.Max(p.lastPacket.RootDelay+p.statistics.Delay).DivInt(2) +
		p.lastPacket.RootDispersion +
		p.statistics.Dispersion +
		multiplyByPhi(Sub(localClockTime, p.time)) +
		FromSeconds(p.statistics.JitterSeconds)
}

// AcceptSynchronization reports whether this peer is fit to be used for
// synchronization ("accept"/"fit" in RFC 5905): synchronized with a valid
// stratum, within the root-distance threshold (plus phi times the system
// poll interval), reachable, and not reflecting our own reference ID back at us
// (which would create a sync loop) unless it is a stratum-1 primary,
// where the reference ID is a hardware identifier rather than a peer ID.
func (p *Peer) AcceptSynchronization(localClockTime Timestamp, systemPoll Duration) bool {
	if !p.lastPacket.Leap.IsSynchronized() || p.lastPacket.Stratum >= MaxStratum {
		return false
	}

	if p.RootDistance(localClockTime) > MaxDistance+multiplyByPhi(systemPoll) {
		return false
	}

	if p.lastPacket.Stratum != 1 && p.lastPacket.ReferenceID == p.OurID {
		return false
	}

	if !p.reach.isReachable() {
		return false
	}

	return true
}

// pollUpdate clamps and advances the peer's shadow poll-scheduler state:
// host_poll is clamped to [MinPollExponent, MaxPollExponent], and
// next_date is advanced from out_date by the clamped poll interval (or,
// mid-burst, deferred by BroadcastDelay once burst catches up to the
// current time). next_date is never allowed to fall in the past.
func (p *Peer) pollUpdate(localClockTime Timestamp, requested Duration) {
	minPoll := FromExponent(MinPollExponent)
	maxPoll := FromExponent(MaxPollExponent)

	p.hostPoll = requested.Min(maxPoll).Max(minPoll)

	if p.burst > 0 {
		if p.nextDate == localClockTime {
			p.nextDate = Add(p.nextDate, BroadcastDelay)
		}
	} else {
		offset := p.hostPoll.Min(FromExponent(p.lastPacket.Poll)).Max(minPoll)
		p.nextDate = Add(p.outDate, offset)
	}

	if Before(p.nextDate, localClockTime) {
		p.nextDate = Add(localClockTime, One)
	}
}
