// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the bootstrap configuration of a node.
//
// Values are layered: built-in defaults, then an optional JSON config file,
// then an optional dotenv file and the process environment. The result is
// loaded once at start and not changed afterwards.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jinzhu/copier"
	"github.com/joho/godotenv"

	"github.com/blinklabs-io/gossipledger"
	"github.com/blinklabs-io/gossipledger/ledger"
)

const (
	DefaultHttpListenAddress = ":3001"
	DefaultP2PListenAddress  = ":6001"
	DefaultLogLevel          = "info"
)

// Environment variables
const (
	EnvGenesisBlockHash      = "GENESIS_BLOCK_HASH"
	EnvGenesisBlockTimestamp = "GENESIS_BLOCK_TIMESTAMP"
	EnvGenesisBlockData      = "GENESIS_BLOCK_DATA"
	EnvHttpPort              = "HTTP_PORT"
	EnvP2PPort               = "P2P_PORT"
	EnvPeers                 = "PEERS"
	EnvLogLevel              = "LOG_LEVEL"
)

var ErrMissingGenesisHash = errors.New("genesis block hash is not configured")

type Config struct {
	Genesis           ledger.Genesis `json:"genesis"`
	HttpListenAddress string         `json:"httpListenAddress"`
	P2PListenAddress  string         `json:"p2pListenAddress"`
	TopologyPath      string         `json:"topologyPath"`
	Peers             []string       `json:"peers"`
	Retry             RetryConfig    `json:"retry"`
	LogLevel          string         `json:"logLevel"`
}

type RetryConfig struct {
	Attempts       int      `json:"attempts"`
	InitialBackoff Duration `json:"initialBackoff"`
	MaxBackoff     Duration `json:"maxBackoff"`
	DialTimeout    Duration `json:"dialTimeout"`
}

// Duration is a time.Duration that is written as a string like "1.5s" in JSON
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var tmp string
	if err := json.Unmarshal(data, &tmp); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	parsed, err := time.ParseDuration(tmp)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Default returns the configuration used for values that are not set elsewhere
func Default() *Config {
	retryPolicy := gossipledger.DefaultRetryPolicy()
	return &Config{
		HttpListenAddress: DefaultHttpListenAddress,
		P2PListenAddress:  DefaultP2PListenAddress,
		Retry: RetryConfig{
			Attempts:       retryPolicy.Attempts,
			InitialBackoff: Duration(retryPolicy.InitialBackoff),
			MaxBackoff:     Duration(retryPolicy.MaxBackoff),
			DialTimeout:    Duration(retryPolicy.DialTimeout),
		},
		LogLevel: DefaultLogLevel,
	}
}

func NewConfigFromFile(path string) (*Config, error) {
	dataFile, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer dataFile.Close()
	return NewConfigFromReader(dataFile)
}

// NewConfigFromReader decodes a JSON config. Unset values are left empty
func NewConfigFromReader(r io.Reader) (*Config, error) {
	c := &Config{}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Load builds the configuration from the defaults, the config file at
// configPath and the environment. Variables from the dotenv file at envPath
// are added to the environment without overriding variables that are already
// set. Either path may be empty
func Load(configPath string, envPath string) (*Config, error) {
	cfg := Default()
	if configPath != "" {
		fileCfg, err := NewConfigFromFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
		if err := cfg.Merge(fileCfg); err != nil {
			return nil, err
		}
	}
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Merge copies the values that are set in other over c
func (c *Config) Merge(other *Config) error {
	err := copier.CopyWithOption(
		c,
		other,
		copier.Option{IgnoreEmpty: true, DeepCopy: true},
	)
	if err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// ApplyEnv overrides values from the environment, using lookupFunc to read variables
func (c *Config) ApplyEnv(lookupFunc func(string) (string, bool)) error {
	if val, ok := lookupFunc(EnvGenesisBlockHash); ok {
		c.Genesis.Hash = val
	}
	if val, ok := lookupFunc(EnvGenesisBlockTimestamp); ok {
		timestamp, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvGenesisBlockTimestamp, err)
		}
		c.Genesis.Timestamp = timestamp
	}
	if val, ok := lookupFunc(EnvGenesisBlockData); ok {
		c.Genesis.Data = val
	}
	if val, ok := lookupFunc(EnvHttpPort); ok {
		address, err := portAddress(val)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvHttpPort, err)
		}
		c.HttpListenAddress = address
	}
	if val, ok := lookupFunc(EnvP2PPort); ok {
		address, err := portAddress(val)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvP2PPort, err)
		}
		c.P2PListenAddress = address
	}
	if val, ok := lookupFunc(EnvPeers); ok {
		c.Peers = nil
		for _, peer := range strings.Split(val, ",") {
			if peer = strings.TrimSpace(peer); peer != "" {
				c.Peers = append(c.Peers, peer)
			}
		}
	}
	if val, ok := lookupFunc(EnvLogLevel); ok {
		c.LogLevel = val
	}
	return nil
}

// Validate checks the configuration for values a node cannot start without
func (c *Config) Validate() error {
	if c.Genesis.Hash == "" {
		return ErrMissingGenesisHash
	}
	if err := c.Genesis.Validate(); err != nil {
		return err
	}
	if c.Retry.Attempts < 0 {
		return fmt.Errorf("invalid retry attempts: %d", c.Retry.Attempts)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// RetryPolicy returns the outbound connection retry policy
func (c *Config) RetryPolicy() gossipledger.RetryPolicy {
	return gossipledger.RetryPolicy{
		Attempts:       c.Retry.Attempts,
		InitialBackoff: time.Duration(c.Retry.InitialBackoff),
		MaxBackoff:     time.Duration(c.Retry.MaxBackoff),
		DialTimeout:    time.Duration(c.Retry.DialTimeout),
	}
}

// Topology returns the peers from the topology file and the peers list combined
func (c *Config) Topology() (*gossipledger.TopologyConfig, error) {
	topology := &gossipledger.TopologyConfig{}
	if c.TopologyPath != "" {
		fileTopology, err := gossipledger.NewTopologyConfigFromFile(c.TopologyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load topology: %w", err)
		}
		topology.Peers = append(topology.Peers, fileTopology.Peers...)
	}
	peerTopology, err := gossipledger.NewTopologyConfigFromAddresses(c.Peers)
	if err != nil {
		return nil, err
	}
	topology.Peers = append(topology.Peers, peerTopology.Peers...)
	return topology, nil
}

// SlogLevel returns the configured log level
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

func portAddress(port string) (string, error) {
	port = strings.TrimSpace(port)
	portNum, err := strconv.ParseUint(port, 10, 16)
	if err != nil {
		return "", err
	}
	return ":" + strconv.FormatUint(portNum, 10), nil
}
