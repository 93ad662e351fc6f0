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
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// PrometheusExporter periodically reads a Registry's Snapshot and sets a
// fixed set of gauges from it, matching the registry/scrape split of
// ptp/sptp/stats's PrometheusExporter (there it scrapes a remote sptp
// process over HTTP; here the Registry is in-process, so it reads
// directly instead of round-tripping through a second HTTP call).
type PrometheusExporter struct {
	registry   *Registry
	promReg    *prometheus.Registry
	listenPort int
	interval   time.Duration
	server     *http.Server

	peerOffset       *prometheus.GaugeVec
	peerDelay        *prometheus.GaugeVec
	peerDispersion   *prometheus.GaugeVec
	peerJitter       *prometheus.GaugeVec
	peerRootDistance *prometheus.GaugeVec
	peerReachable    *prometheus.GaugeVec
	peerSelected     *prometheus.GaugeVec
	selectionLow     prometheus.Gauge
	selectionHigh    prometheus.Gauge
	falsetickers     prometheus.Gauge
}

// NewPrometheusExporter builds a PrometheusExporter reading from registry
// and scraping it into gauges every scrapeInterval.
func NewPrometheusExporter(registry *Registry, listenPort int, scrapeInterval time.Duration) *PrometheusExporter {
	promReg := prometheus.NewRegistry()
	peerLabels := []string{"peer"}

	e := &PrometheusExporter{
		registry:   registry,
		promReg:    promReg,
		listenPort: listenPort,
		interval:   scrapeInterval,

		peerOffset: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ntpcore_peer_offset_seconds", Help: "last accepted clock offset estimate for the peer",
		}, peerLabels),
		peerDelay: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ntpcore_peer_delay_seconds", Help: "last accepted round-trip delay for the peer",
		}, peerLabels),
		peerDispersion: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ntpcore_peer_dispersion_seconds", Help: "clock filter dispersion for the peer",
		}, peerLabels),
		peerJitter: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ntpcore_peer_jitter_seconds", Help: "clock filter jitter for the peer",
		}, peerLabels),
		peerRootDistance: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ntpcore_peer_root_distance_seconds", Help: "root synchronization distance for the peer",
		}, peerLabels),
		peerReachable: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ntpcore_peer_reachable", Help: "1 if the reachability register is nonzero",
		}, peerLabels),
		peerSelected: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ntpcore_peer_selected", Help: "1 if the peer contributed an edge to the last converged interval",
		}, peerLabels),
		selectionLow: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ntpcore_selection_low_seconds", Help: "low edge of the correctness interval from the last selection pass, converged or not",
		}),
		selectionHigh: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ntpcore_selection_high_seconds", Help: "high edge of the correctness interval from the last selection pass, converged or not",
		}),
		falsetickers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ntpcore_selection_falsetickers_tolerated", Help: "number of falsetickers tolerated to reach convergence",
		}),
	}

	for _, c := range []prometheus.Collector{
		e.peerOffset, e.peerDelay, e.peerDispersion, e.peerJitter, e.peerRootDistance,
		e.peerReachable, e.peerSelected, e.selectionLow, e.selectionHigh, e.falsetickers,
	} {
		promReg.MustRegister(c)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{EnableOpenMetrics: true}))
	e.server = &http.Server{Addr: fmt.Sprintf(":%d", listenPort), Handler: mux}

	return e
}

// Start scrapes the Registry on a ticker and serves /metrics; it blocks
// until the context is canceled.
func (e *PrometheusExporter) Start(ctx context.Context) error {
	go func() {
		ticker := time.NewTicker(e.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				e.scrape()
			}
		}
	}()

	log.Infof("starting prometheus exporter on %s", e.server.Addr)
	errCh := make(chan error, 1)
	go func() { errCh <- e.server.ListenAndServe() }()

	select {
	case <-ctx.Done():
		return e.server.Shutdown(context.Background())
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("prometheus exporter: %w", err)
		}
		return nil
	}
}

func (e *PrometheusExporter) scrape() {
	snap := e.registry.Snapshot()

	for id, p := range snap.Peers {
		e.peerOffset.WithLabelValues(id).Set(p.OffsetSeconds)
		e.peerDelay.WithLabelValues(id).Set(p.DelaySeconds)
		e.peerDispersion.WithLabelValues(id).Set(p.DispersionSeconds)
		e.peerJitter.WithLabelValues(id).Set(p.JitterSeconds)
		e.peerRootDistance.WithLabelValues(id).Set(p.RootDistanceSeconds)
		e.peerReachable.WithLabelValues(id).Set(boolToFloat(p.Reachable))
		e.peerSelected.WithLabelValues(id).Set(boolToFloat(p.Selected))
	}

	e.selectionLow.Set(snap.Selection.LowSeconds)
	e.selectionHigh.Set(snap.Selection.HighSeconds)
	e.falsetickers.Set(float64(snap.Selection.FalsetickersTolerated))
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
