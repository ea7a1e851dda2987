package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// TestConfiguration is the typed view of a qualifier test configuration. Its
// schema is owned by the test executor's contract; the host only needs enough
// structure to hand it over and to reject payloads that are not a
// configuration at all.
type TestConfiguration struct {
	// Locale is the BCP 47 locale used for generated flight data.
	Locale string `json:"locale,omitempty"`

	// RIDVersion selects the remote ID API version under test.
	RIDVersion string `json:"rid_version,omitempty"`

	// Injection targets are the service providers receiving test flights.
	InjectionTargets []InjectionTarget `json:"injection_targets,omitempty"`

	// FlightStartDelay is an ISO-ish duration string; opaque to the host.
	FlightStartDelay string `json:"flight_start_delay,omitempty"`

	// Raw preserves the full payload so unknown executor-owned fields survive
	// the round trip to the executor untouched.
	Raw json.RawMessage `json:"-"`
}

// InjectionTarget identifies one service provider under test.
type InjectionTarget struct {
	Name             string `json:"name,omitempty"`
	InjectionBaseURL string `json:"injection_base_url,omitempty"`
}

// ParseTestConfiguration deserializes a JSON-encoded configuration string into
// a typed configuration. Parse failures propagate to the caller; they are the
// "data-format error" of the task contract.
func ParseTestConfiguration(configJSON []byte) (*TestConfiguration, error) {
	if len(configJSON) == 0 {
		return nil, errors.New("empty test configuration")
	}
	var cfg TestConfiguration
	if err := json.Unmarshal(configJSON, &cfg); err != nil {
		return nil, fmt.Errorf("parse test configuration: %w", err)
	}
	cfg.Raw = append(json.RawMessage(nil), configJSON...)
	return &cfg, nil
}
