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

package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/facebook/ntpcore/ntp"
)

// Exchange is one packet exchange a transport layer would hand this core:
// a decoded Header plus the local destination timestamp, keyed by the
// peer id the caller assigns. Timestamps are floating-point seconds on
// disk for readability; LoadFixture converts them to NTP fixed-point.
type Exchange struct {
	Peer           string  `json:"peer"`
	Leap           uint8   `json:"leap"`
	Mode           uint8   `json:"mode"`
	Stratum        uint8   `json:"stratum"`
	Poll           int8    `json:"poll"`
	Precision      int8    `json:"precision"`
	RootDelay      float64 `json:"root_delay"`
	RootDispersion float64 `json:"root_dispersion"`
	ReferenceID    uint32  `json:"reference_id"`
	Origin         float64 `json:"origin"`
	Receive        float64 `json:"receive"`
	Transmit       float64 `json:"transmit"`
	Destination    float64 `json:"destination"`
}

// Fixture is the on-disk shape `inspect` consumes: the simulated "now" a
// Select pass runs against, plus the ordered sequence of exchanges to
// replay into the selector beforehand.
type Fixture struct {
	Now       float64    `json:"now"`
	Exchanges []Exchange `json:"exchanges"`
}

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture %q: %w", path, err)
	}
	f := &Fixture{}
	if err := json.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("parsing fixture %q: %w", path, err)
	}
	return f, nil
}

// Header decodes e into an ntp.Header plus its destination timestamp.
func (e Exchange) Header() (ntp.Header, ntp.Timestamp) {
	hdr := ntp.Header{
		Leap:               ntp.Leap(e.Leap),
		Mode:               ntp.Mode(e.Mode),
		Stratum:            e.Stratum,
		Poll:               e.Poll,
		Precision:          e.Precision,
		RootDelay:          ntp.FromSeconds(e.RootDelay),
		RootDispersion:     ntp.FromSeconds(e.RootDispersion),
		ReferenceID:        ntp.ReferenceID(e.ReferenceID),
		ReferenceTimestamp: ntp.Timestamp(ntp.FromSeconds(e.Origin)),
		OriginTimestamp:    ntp.Timestamp(ntp.FromSeconds(e.Origin)),
		ReceiveTimestamp:   ntp.Timestamp(ntp.FromSeconds(e.Receive)),
		TransmitTimestamp:  ntp.Timestamp(ntp.FromSeconds(e.Transmit)),
	}
	return hdr, ntp.Timestamp(ntp.FromSeconds(e.Destination))
}
