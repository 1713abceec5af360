package latency

import (
	"encoding/json"
	"fmt"
	"os"
)

// TimingConfig holds functional unit occupancy values. Units are not
// pipelined, so a unit stays busy for the whole latency of the instruction
// it executes.
type TimingConfig struct {
	// IntegerLatency is the occupancy of the integer unit for arithmetic,
	// logic, MOVC and CMP. Default: 1 cycle.
	IntegerLatency uint64 `json:"integer_latency"`

	// MultiplyLatency is the occupancy of the multiply unit.
	// Default: 3 cycles.
	MultiplyLatency uint64 `json:"multiply_latency"`

	// DivideLatency is the occupancy of the integer unit for DIV.
	// Default: 1 cycle.
	DivideLatency uint64 `json:"divide_latency"`
}

// DefaultTimingConfig returns a TimingConfig with the APEX default values.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		IntegerLatency:  1,
		MultiplyLatency: 3,
		DivideLatency:   1,
	}
}

// LoadConfig loads a TimingConfig from a JSON file. Fields missing from the
// file keep their default values.
func LoadConfig(path string) (*TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timing config file: %w", err)
	}

	config := DefaultTimingConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse timing config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a TimingConfig to a JSON file.
func (c *TimingConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize timing config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write timing config file: %w", err)
	}

	return nil
}

// Validate checks that all latency values are valid (> 0).
func (c *TimingConfig) Validate() error {
	if c.IntegerLatency == 0 {
		return fmt.Errorf("integer_latency must be > 0")
	}
	if c.MultiplyLatency == 0 {
		return fmt.Errorf("multiply_latency must be > 0")
	}
	if c.DivideLatency == 0 {
		return fmt.Errorf("divide_latency must be > 0")
	}
	return nil
}

// Clone returns a copy of the TimingConfig.
func (c *TimingConfig) Clone() *TimingConfig {
	clone := *c
	return &clone
}
