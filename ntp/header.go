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

// ReferenceID is the 32-bit identifier a server uses to name its own
// reference clock, or a refid of an upstream server it is synced to.
type ReferenceID uint32

// Leap is the leap indicator carried in an NTP header.
type Leap uint8

// Leap indicator values, RFC 5905 figure 9.
const (
	LeapNoWarning Leap = iota
	LeapAddSecond
	LeapDelSecond
	LeapUnsynchronized
)

// IsSynchronized reports whether the leap indicator marks the server as
// synchronized to a reference clock. Only LeapUnsynchronized means no.
func (l Leap) IsSynchronized() bool {
	return l != LeapUnsynchronized
}

// Mode is the NTP association mode carried in an NTP header.
type Mode uint8

// Association modes, RFC 5905 figure 10.
const (
	ModeReserved Mode = iota
	ModeSymmetricActive
	ModeSymmetricPassive
	ModeClient
	ModeServer
	ModeBroadcast
	ModeControlMessage
	ModePrivate
)

// MaxStratum is the stratum value used to mean "unspecified/unsynchronized"
// once a stratum-0 (kiss-o'-death) packet has been normalized by
// Peer.UpdateWithPacket.
const MaxStratum uint8 = 16

// Header is the decoded form of an NTP header, the boundary type between
// the (out of scope) wire codec and this package: whatever decodes the 48
// wire bytes is expected to produce one of these.
type Header struct {
	Leap      Leap
	Mode      Mode
	Stratum   uint8
	Poll      int8 // log2 seconds
	Precision int8 // log2 seconds, normally negative

	RootDelay      Duration
	RootDispersion Duration

	ReferenceID ReferenceID

	ReferenceTimestamp Timestamp
	OriginTimestamp    Timestamp
	ReceiveTimestamp   Timestamp
	TransmitTimestamp  Timestamp
}
