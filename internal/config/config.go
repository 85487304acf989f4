// File: internal/config/config.go
// Package config loads the agent's bootstrap configuration from the
// environment (spec §6 "Configuration properties"), with an optional local
// YAML overlay for development, grounded on the pack's env-var-driven
// bootstrap style (see cuemby-warren's pkg/log.Config) and gopkg.in/yaml.v3
// for the overlay file.
//
// Author: momentics <momentics@gmail.com>
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/momentics/rtc-agent/internal/agenterrors"
)

// DataConnection names one indexed SUB_DATA_* / PUB_DATA_* pair.
type DataConnection struct {
	URI      string
	StreamID int64
}

// Config is the agent's fixed bootstrap configuration, sourced once at
// construction and never mutated except for the two RW properties
// (HeartbeatPeriodNs, LogLevel), which live in the property store once the
// agent is built, not here.
type Config struct {
	Name       string
	NodeID     int64
	StatusURI  string
	StatusStreamID int64

	ControlURI      string
	ControlStreamID int64
	ControlFilter   string

	HeartbeatPeriodNs      int64
	LateMessageThresholdNs int64
	LogLevel               string

	SubData []DataConnection
	PubData []DataConnection

	// MetricsAddr, if non-empty, enables the ambient /metrics+/debugz HTTP
	// surface (not part of the spec's env-var table; an operational
	// addition per the ambient stack).
	MetricsAddr string
}

// Overlay is the optional local development file loaded before falling
// back to environment variables; any field left zero is filled from the
// corresponding env var.
type Overlay struct {
	Name                   string `yaml:"name"`
	NodeID                 int64  `yaml:"node_id"`
	StatusURI              string `yaml:"status_uri"`
	StatusStreamID         int64  `yaml:"status_stream_id"`
	ControlURI             string `yaml:"control_uri"`
	ControlStreamID        int64  `yaml:"control_stream_id"`
	ControlFilter          string `yaml:"control_filter"`
	HeartbeatPeriodNs      int64  `yaml:"heartbeat_period_ns"`
	LateMessageThresholdNs int64  `yaml:"late_message_threshold_ns"`
	LogLevel               string `yaml:"log_level"`
	MetricsAddr            string `yaml:"metrics_addr"`
}

// LoadOverlay reads a YAML overlay file, returning a zero Overlay (not an
// error) if path is empty or the file does not exist — the overlay is a
// development convenience, never required.
func LoadOverlay(path string) (Overlay, error) {
	var o Overlay
	if path == "" {
		return o, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return o, nil
		}
		return o, err
	}
	if err := yaml.Unmarshal(data, &o); err != nil {
		return o, fmt.Errorf("config: parsing overlay %s: %w", path, err)
	}
	return o, nil
}

// Load builds a Config from the environment, per spec §6's table, applying
// overlay values as defaults before falling back to env vars and the
// spec's hardcoded defaults. Missing required variables fail with
// agenterrors.EnvironmentVariable(name).
func Load(overlay Overlay) (*Config, error) {
	c := &Config{LogLevel: "Info"}

	var err error
	if c.Name, err = requiredString("BLOCK_NAME", overlay.Name); err != nil {
		return nil, err
	}
	if c.NodeID, err = requiredInt64("BLOCK_ID", overlay.NodeID); err != nil {
		return nil, err
	}
	if c.StatusURI, err = requiredString("STATUS_URI", overlay.StatusURI); err != nil {
		return nil, err
	}
	if c.StatusStreamID, err = requiredInt64("STATUS_STREAM_ID", overlay.StatusStreamID); err != nil {
		return nil, err
	}
	if c.ControlURI, err = requiredString("CONTROL_URI", overlay.ControlURI); err != nil {
		return nil, err
	}
	if c.ControlStreamID, err = requiredInt64("CONTROL_STREAM_ID", overlay.ControlStreamID); err != nil {
		return nil, err
	}

	c.ControlFilter = firstNonEmpty(overlay.ControlFilter, os.Getenv("CONTROL_FILTER"))
	c.HeartbeatPeriodNs = optionalInt64("HEARTBEAT_PERIOD_NS", overlay.HeartbeatPeriodNs, 10_000_000_000)
	c.LateMessageThresholdNs = optionalInt64("LATE_MESSAGE_THRESHOLD_NS", overlay.LateMessageThresholdNs, 1_000_000_000)
	c.LogLevel = firstNonEmpty(overlay.LogLevel, os.Getenv("LOG_LEVEL"), "Info")
	c.MetricsAddr = firstNonEmpty(overlay.MetricsAddr, os.Getenv("METRICS_ADDR"))

	c.SubData = readDataConnections("SUB_DATA_URI_", "SUB_DATA_STREAM_")
	c.PubData = readDataConnections("PUB_DATA_URI_", "PUB_DATA_STREAM_")

	return c, nil
}

func requiredString(envVar, overlayValue string) (string, error) {
	if overlayValue != "" {
		return overlayValue, nil
	}
	v, ok := os.LookupEnv(envVar)
	if !ok || v == "" {
		return "", agenterrors.EnvironmentVariable(envVar)
	}
	return v, nil
}

func requiredInt64(envVar string, overlayValue int64) (int64, error) {
	if overlayValue != 0 {
		return overlayValue, nil
	}
	v, ok := os.LookupEnv(envVar)
	if !ok || v == "" {
		return 0, agenterrors.EnvironmentVariable(envVar)
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, agenterrors.EnvironmentVariable(envVar)
	}
	return n, nil
}

func optionalInt64(envVar string, overlayValue, def int64) int64 {
	if overlayValue != 0 {
		return overlayValue
	}
	v, ok := os.LookupEnv(envVar)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// readDataConnections scans SUB_DATA_URI_{n}/SUB_DATA_STREAM_{n} (or the
// PUB_ equivalents) for consecutive n starting at 0, stopping at the first
// gap — the derived *DataConnectionCount property of spec §6.
func readDataConnections(uriPrefix, streamPrefix string) []DataConnection {
	var out []DataConnection
	for n := 0; ; n++ {
		uri, ok := os.LookupEnv(fmt.Sprintf("%s%d", uriPrefix, n))
		if !ok || uri == "" {
			break
		}
		streamRaw := os.Getenv(fmt.Sprintf("%s%d", streamPrefix, n))
		streamID, err := strconv.ParseInt(streamRaw, 10, 64)
		if err != nil {
			break
		}
		out = append(out, DataConnection{URI: uri, StreamID: streamID})
	}
	return out
}
