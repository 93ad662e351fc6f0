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

package selector

import "github.com/facebook/ntpcore/ntp"

// PacketSource is the one genuinely external seam a poll loop drives: the
// out-of-scope wire codec and transport layer this core plugs into. Fetch
// returns the next decoded exchange for id, or an error if none is
// available (timeout, no route, decode failure).
type PacketSource interface {
	Fetch(id string) (hdr ntp.Header, destination ntp.Timestamp, err error)
}

// Poll fetches the next exchange for id from source and feeds it through
// UpdatePeer. It is the loop body a daemon's scheduler would call once per
// peer per tick; Selector itself owns no timer.
func (s *Selector) Poll(id string, source PacketSource, now ntp.Timestamp) (bool, error) {
	hdr, destination, err := source.Fetch(id)
	if err != nil {
		return false, err
	}
	return s.UpdatePeer(id, now, hdr, destination)
}
