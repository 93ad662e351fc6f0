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
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// JSONServer is what we want to report as stats via http: a full
// Snapshot dump at "/" and the scalar counters at "/counters", mirroring
// ptp/sptp/client's JSONStats split.
type JSONServer struct {
	registry *Registry
	server   *http.Server
}

// NewJSONServer returns a JSONServer reading from registry.
func NewJSONServer(registry *Registry, port int) *JSONServer {
	s := &JSONServer{registry: registry}
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRootRequest)
	mux.HandleFunc("/counters", s.handleCountersRequest)
	s.server = &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	return s
}

// Start runs the http server; it blocks until the server stops.
func (s *JSONServer) Start() error {
	log.Infof("starting stats json server on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("stats json server: %w", err)
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *JSONServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *JSONServer) handleRootRequest(w http.ResponseWriter, _ *http.Request) {
	js, err := json.Marshal(s.registry.Snapshot())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(js); err != nil {
		log.Errorf("failed to reply: %v", err)
	}
}

func (s *JSONServer) handleCountersRequest(w http.ResponseWriter, _ *http.Request) {
	js, err := json.Marshal(s.registry.Counters())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(js); err != nil {
		log.Errorf("failed to reply: %v", err)
	}
}
