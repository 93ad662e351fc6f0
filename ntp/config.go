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
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v2"
)

// SystemConfig describes the local system's half of the algorithm: the
// clock precision it claims and the poll interval it asks peers to use
// when none of their own preference has been established yet.
type SystemConfig struct {
	// OurID is compared against peers' reference IDs to detect sync loops.
	OurID ReferenceID `yaml:"our_id"`
	// PrecisionExponent is log2 seconds, e.g. -20 for ~1us precision.
	PrecisionExponent int8 `yaml:"precision_exponent"`
	// PollExponent is the default log2-seconds poll interval.
	PollExponent int8 `yaml:"poll_exponent"`
}

// PrecisionSeconds returns the configured precision as seconds.
func (c SystemConfig) PrecisionSeconds() float64 {
	return FromExponent(c.PrecisionExponent).ToSeconds()
}

// Poll returns the configured default poll interval as a Duration.
func (c SystemConfig) Poll() Duration {
	return FromExponent(c.PollExponent)
}

// PeerConfig describes one configured association.
type PeerConfig struct {
	// Address is an opaque transport endpoint identifier (host:port,
	// interface name, etc.) - the transport itself is out of scope here.
	Address string `yaml:"address"`
}

// Config is the top-level configuration for a selector process: the
// system parameters plus the set of configured peers, keyed by an
// opaque peer id the caller also uses when feeding packets in.
type Config struct {
	System SystemConfig          `yaml:"system"`
	Peers  map[string]PeerConfig `yaml:"peers"`
}

// ReadConfig reads and parses a YAML config file.
func ReadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %q: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %q: %w", path, err)
	}

	return cfg, nil
}
