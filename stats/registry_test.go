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

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/facebook/ntpcore/ntp"
	"github.com/facebook/ntpcore/selector"
)

func TestRegistryUpdateAndSnapshot(t *testing.T) {
	r := NewRegistry()
	require.Empty(t, r.Snapshot().Peers)

	r.Update(Snapshot{Selection: SelectionStats{OK: true, LowSeconds: -0.1, HighSeconds: 0.1}})

	require.True(t, r.Snapshot().Selection.OK)
	require.Equal(t, -0.1, r.Snapshot().Selection.LowSeconds)
}

func TestRegistryCounters(t *testing.T) {
	r := NewRegistry()
	r.IncrCounter("packets_received", 1)
	r.IncrCounter("packets_received", 2)
	r.IncrCounter("packets_rejected", 1)

	counters := r.Counters()
	require.Equal(t, int64(3), counters["packets_received"])
	require.Equal(t, int64(1), counters["packets_rejected"])
}

func TestFromResultFlattensDurationsToSeconds(t *testing.T) {
	result := selector.Result{
		Low:   ntp.FromSeconds(-0.5),
		High:  ntp.FromSeconds(0.5),
		Allow: 1,
		OK:    true,
		Peers: map[string]selector.PeerSnapshot{
			"a": {
				Reachable: true,
				Stratum:   2,
				Statistics: ntp.PeerStatistics{
					Offset:        ntp.FromSeconds(0.01),
					Delay:         ntp.FromSeconds(0.02),
					Dispersion:    ntp.FromSeconds(0.001),
					JitterSeconds: 0.0005,
				},
				RootDistance: ntp.FromSeconds(0.03),
				Fit:          true,
				Selected:     true,
			},
		},
	}

	snap := FromResult(result)

	require.True(t, snap.Selection.OK)
	require.Equal(t, 1, snap.Selection.FalsetickersTolerated)
	require.InDelta(t, -0.5, snap.Selection.LowSeconds, 1e-9)
	require.InDelta(t, 0.5, snap.Selection.HighSeconds, 1e-9)

	a, ok := snap.Peers["a"]
	require.True(t, ok)
	require.True(t, a.Reachable)
	require.True(t, a.Selected)
	require.InDelta(t, 0.01, a.OffsetSeconds, 1e-9)
	require.InDelta(t, 0.03, a.RootDistanceSeconds, 1e-9)
}

func TestJSONServerHandlesRootAndCounters(t *testing.T) {
	r := NewRegistry()
	r.Update(Snapshot{Selection: SelectionStats{OK: true}, Peers: map[string]PeerStats{"a": {Reachable: true}}})
	r.IncrCounter("packets_received", 5)

	s := NewJSONServer(r, 0)

	reqRoot := httptest.NewRequest("GET", "/", nil)
	recRoot := httptest.NewRecorder()
	s.handleRootRequest(recRoot, reqRoot)
	require.Equal(t, 200, recRoot.Code)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(recRoot.Body.Bytes(), &snap))
	require.True(t, snap.Selection.OK)
	require.True(t, snap.Peers["a"].Reachable)

	reqCounters := httptest.NewRequest("GET", "/counters", nil)
	recCounters := httptest.NewRecorder()
	s.handleCountersRequest(recCounters, reqCounters)
	require.Equal(t, 200, recCounters.Code)

	var counters map[string]int64
	require.NoError(t, json.Unmarshal(recCounters.Body.Bytes(), &counters))
	require.Equal(t, int64(5), counters["packets_received"])
}
