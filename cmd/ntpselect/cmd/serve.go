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
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/facebook/ntpcore/ntp"
	"github.com/facebook/ntpcore/selector"
	"github.com/facebook/ntpcore/stats"
)

var (
	serveMonitoringPort int
	serveExporterPort   int
	serveInterval       time.Duration
)

func init() {
	RootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&serveMonitoringPort, "monitoringport", 4269, "port the JSON stats http server listens on")
	serveCmd.Flags().IntVar(&serveExporterPort, "exporterport", 6942, "port the prometheus metrics exporter listens on")
	serveCmd.Flags().DurationVar(&serveInterval, "interval", time.Second, "how often the selection pass and the prometheus exporter run")
}

var serveCmd = &cobra.Command{
	Use:   "serve <config.yaml>",
	Short: "Run the ambient monitoring skeleton a daemon embedding this core would start",
	Long: "Load SystemConfig/PeerConfig from a YAML file, start the JSON stats http server and " +
		"the Prometheus exporter, and run a periodic Select pass. It does not itself open sockets " +
		"to remote NTP servers; a real daemon feeds packets into the Selector this command constructs " +
		"via its own transport, this command only provides the monitoring seams.",
	Args: cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		ConfigureVerbosity()

		if err := serveRun(args[0]); err != nil {
			log.Fatal(err)
		}
	},
}

func serveRun(configPath string) error {
	cfg, err := ntp.ReadConfig(configPath)
	if err != nil {
		return err
	}

	s := selector.New(cfg)
	registry := stats.NewRegistry()

	jsonServer := stats.NewJSONServer(registry, serveMonitoringPort)
	exporter := stats.NewPrometheusExporter(registry, serveExporterPort, serveInterval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := jsonServer.Start(); err != nil {
			log.Errorf("json stats server stopped: %v", err)
		}
	}()
	go func() {
		if err := exporter.Start(ctx); err != nil {
			log.Errorf("prometheus exporter stopped: %v", err)
		}
	}()
	go runSelectionLoop(ctx, s, registry, serveInterval)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info("shutting down")
	return nil
}

func runSelectionLoop(ctx context.Context, s *selector.Selector, registry *stats.Registry, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := ntp.Timestamp(uint64(time.Now().Unix()) << 32)
			result := s.Select(now)
			registry.Update(stats.FromResult(result))
		}
	}
}
