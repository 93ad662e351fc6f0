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

package stats

import "github.com/facebook/ntpcore/selector"

// FromResult flattens a selector.Result into the plain float64/JSON shape
// Snapshot exports, converting every ntp.Duration to seconds at the
// boundary so the rest of this package never imports ntp.
func FromResult(result selector.Result) Snapshot {
	peers := make(map[string]PeerStats, len(result.Peers))
	for id, p := range result.Peers {
		peers[id] = PeerStats{
			Reachable:           p.Reachable,
			Stratum:             p.Stratum,
			OffsetSeconds:       p.Statistics.Offset.ToSeconds(),
			DelaySeconds:        p.Statistics.Delay.ToSeconds(),
			DispersionSeconds:   p.Statistics.Dispersion.ToSeconds(),
			JitterSeconds:       p.Statistics.JitterSeconds,
			RootDistanceSeconds: p.RootDistance.ToSeconds(),
			Fit:                 p.Fit,
			Selected:            p.Selected,
		}
	}

	return Snapshot{
		Selection: SelectionStats{
			LowSeconds:            result.Low.ToSeconds(),
			HighSeconds:           result.High.ToSeconds(),
			FalsetickersTolerated: result.Allow,
			OK:                    result.OK,
		},
		Peers: peers,
	}
}
