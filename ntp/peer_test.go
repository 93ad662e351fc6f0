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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClockFilterDefaultsIgnored(t *testing.T) {
	p := NewPeer(0)
	newSample := Sample{}

	decision := p.ClockFilter(newSample, LeapNoWarning, 0.0)

	require.Equal(t, Ignore, decision)
}

func TestClockFilterFreshSampleProcessed(t *testing.T) {
	p := NewPeer(0)
	newSample := Sample{
		Offset: FromSeconds(12),
		Delay:  FromSeconds(14),
		Time:   Timestamp(1 << 32),
	}

	decision := p.ClockFilter(newSample, LeapNoWarning, 0.0)

	require.Equal(t, Process, decision)
	require.Equal(t, newSample.Offset, p.Statistics().Offset)
	require.Equal(t, newSample.Delay, p.Statistics().Delay)
	require.Equal(t, 0.0, p.Statistics().JitterSeconds)
	require.Equal(t, newSample.Time, p.Time())

	view := NewSortedView(p.register)
	require.Equal(t, newSample, view.SmallestDelay())
	require.Equal(t, []Sample{newSample}, view.ValidPrefix())
}

func TestClockFilterPrimeDirective(t *testing.T) {
	p := NewPeer(0)
	first := Sample{Offset: FromSeconds(1), Delay: FromSeconds(1), Time: Timestamp(2 << 32)}
	require.Equal(t, Process, p.ClockFilter(first, LeapNoWarning, 0.0))

	stale := Sample{Offset: FromSeconds(99), Delay: FromSeconds(1), Time: Timestamp(1 << 32)}
	decision := p.ClockFilter(stale, LeapNoWarning, 0.0)

	require.Equal(t, Ignore, decision)
	require.Equal(t, first.Offset, p.Statistics().Offset)
}

func TestClockFilterBypassesPrimeDirectiveBeforeSync(t *testing.T) {
	p := NewPeer(0)
	first := Sample{Offset: FromSeconds(1), Delay: FromSeconds(1), Time: Timestamp(2 << 32)}
	require.Equal(t, Process, p.ClockFilter(first, LeapUnsynchronized, 0.0))

	stale := Sample{Offset: FromSeconds(99), Delay: FromSeconds(1), Time: Timestamp(1 << 32)}
	decision := p.ClockFilter(stale, LeapUnsynchronized, 0.0)

	require.Equal(t, Process, decision)
	require.Equal(t, stale.Offset, p.Statistics().Offset)
}

func TestUpdateWithPacketBroadcast(t *testing.T) {
	p := NewPeer(0)
	transmit := Timestamp(10 << 32)
	destination := Add(transmit, -BroadcastDelay)
	hdr := Header{
		Leap:              LeapNoWarning,
		Mode:              ModeBroadcast,
		Stratum:           2,
		Precision:         0,
		TransmitTimestamp: transmit,
	}

	sample, ok := p.UpdateWithPacket(destination, Zero, hdr, destination)

	require.True(t, ok)
	require.Equal(t, BroadcastDelay, sample.Offset)
	require.Equal(t, BroadcastDelay, sample.Delay)
	require.Equal(t, FromExponent(0)+multiplyByPhi(BroadcastDelay.MulInt(2)), sample.Dispersion)
}

func TestUpdateWithPacketSymmetricOffsetSign(t *testing.T) {
	p1 := NewPeer(0)
	p2 := NewPeer(0)

	t1 := Timestamp(100 << 32)
	t2 := Add(t1, FromSeconds(1))
	t3 := Add(t2, FromSeconds(2))
	t4 := Add(t3, FromSeconds(1))

	hdrA := Header{Leap: LeapNoWarning, Mode: ModeClient, Stratum: 2, OriginTimestamp: t1, ReceiveTimestamp: t2, TransmitTimestamp: t3}
	sampleA, ok := p1.UpdateWithPacket(t4, Zero, hdrA, t4)
	require.True(t, ok)

	// Swap (T1,T4) <-> (T2,T3): offset negates, delay is preserved.
	hdrB := Header{Leap: LeapNoWarning, Mode: ModeClient, Stratum: 2, OriginTimestamp: t2, ReceiveTimestamp: t1, TransmitTimestamp: t4}
	sampleB, ok := p2.UpdateWithPacket(t3, Zero, hdrB, t3)
	require.True(t, ok)

	require.Equal(t, sampleA.Offset, -sampleB.Offset)
	require.Equal(t, sampleA.Delay, sampleB.Delay)
}

func TestUpdateWithPacketRejectsUnsynchronized(t *testing.T) {
	p := NewPeer(0)
	hdr := Header{Leap: LeapUnsynchronized, Mode: ModeClient, Stratum: 2}
	_, ok := p.UpdateWithPacket(0, Zero, hdr, 0)
	require.False(t, ok)
	require.Equal(t, hdr, p.LastPacket())
}

func TestUpdateWithPacketNormalizesStratumZero(t *testing.T) {
	p := NewPeer(0)
	hdr := Header{Leap: LeapNoWarning, Mode: ModeClient, Stratum: 0}
	_, ok := p.UpdateWithPacket(0, Zero, hdr, 0)
	require.False(t, ok)
	require.Equal(t, MaxStratum, p.LastPacket().Stratum)
}

func TestUpdateWithPacketRejectsTimeTravel(t *testing.T) {
	p := NewPeer(0)
	hdr := Header{
		Leap:               LeapNoWarning,
		Mode:               ModeClient,
		Stratum:            2,
		ReferenceTimestamp: Timestamp(10 << 32),
		TransmitTimestamp:  Timestamp(5 << 32),
	}
	_, ok := p.UpdateWithPacket(0, Zero, hdr, 0)
	require.False(t, ok)
}

func TestUpdateWithPacketRejectsExcessiveRootDistance(t *testing.T) {
	p := NewPeer(0)
	hdr := Header{
		Leap:           LeapNoWarning,
		Mode:           ModeClient,
		Stratum:        2,
		RootDelay:      MaxDispersion,
		RootDispersion: MaxDispersion,
	}
	_, ok := p.UpdateWithPacket(0, Zero, hdr, 0)
	require.False(t, ok)
}

func TestRootDistancePositivity(t *testing.T) {
	p := NewPeer(0)
	sample := Sample{Offset: FromSeconds(1), Delay: FromSeconds(1), Time: Timestamp(1 << 32)}
	p.ClockFilter(sample, LeapNoWarning, 0.0)

	require.GreaterOrEqual(t, p.RootDistance(sample.Time), MinDispersion.DivInt(2))
}

func TestAcceptSynchronizationUnreachable(t *testing.T) {
	// OurID differs from the packet's ReferenceID so the loop guard passes
	// and only the reachability check can reject the peer.
	p := NewPeer(ReferenceID(1))
	hdr := Header{Leap: LeapNoWarning, Mode: ModeClient, Stratum: 2}
	_, ok := p.UpdateWithPacket(0, Zero, hdr, 0)
	require.True(t, ok)
	// reach was set by UpdateWithPacket, so force it back to unreachable
	p.reach = 0

	require.False(t, p.AcceptSynchronization(0, p.hostPoll))
}

func TestAcceptSynchronizationLoopGuard(t *testing.T) {
	p := NewPeer(ReferenceID(42))
	hdr := Header{Leap: LeapNoWarning, Mode: ModeClient, Stratum: 2, ReferenceID: 42}
	_, ok := p.UpdateWithPacket(0, Zero, hdr, 0)
	require.True(t, ok)

	require.False(t, p.AcceptSynchronization(0, p.hostPoll))
}

func TestAcceptSynchronizationStratumOneLoopGuardExempt(t *testing.T) {
	p := NewPeer(ReferenceID(42))
	// A single sample leaves seven dummy stages whose dispersion alone puts
	// the root distance above MaxDistance, so fill the register first.
	var now Timestamp
	for i := uint64(1); i <= registerSize; i++ {
		now = Timestamp(i << 32)
		hdr := Header{Leap: LeapNoWarning, Mode: ModeClient, Stratum: 1, Precision: -20, ReferenceID: 42,
			OriginTimestamp: now, ReceiveTimestamp: now, TransmitTimestamp: now}
		sample, ok := p.UpdateWithPacket(now, Zero, hdr, now)
		require.True(t, ok)
		p.ClockFilter(sample, LeapNoWarning, 0.0)
	}

	require.True(t, p.AcceptSynchronization(now, p.hostPoll))
}
