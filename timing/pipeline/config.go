package pipeline

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/apexsim/insts"
)

// Config holds the sizes of the pipeline structures.
type Config struct {
	// ArchRegs is the number of architectural registers. Default: 16.
	ArchRegs int `json:"arch_regs"`

	// PhysRegs is the number of physical registers. It must exceed
	// ArchRegs, otherwise renaming can deadlock. Default: 48.
	PhysRegs int `json:"phys_regs"`

	// IssueQueueSize is the capacity of the issue queue. Default: 24.
	IssueQueueSize int `json:"issue_queue_size"`

	// ROBSize is the capacity of the reorder buffer. Default: 64.
	ROBSize int `json:"rob_size"`

	// CommitWidth is the maximum number of entries retired per cycle.
	// Default: 4.
	CommitWidth int `json:"commit_width"`

	// DataMemoryWords is the number of data memory cells. Default: 4096.
	DataMemoryWords int `json:"data_memory_words"`
}

// DefaultConfig returns the APEX default configuration.
func DefaultConfig() *Config {
	return &Config{
		ArchRegs:        insts.NumArchRegs,
		PhysRegs:        48,
		IssueQueueSize:  24,
		ROBSize:         64,
		CommitWidth:     4,
		DataMemoryWords: 4096,
	}
}

// LoadConfig loads a Config from a JSON file. Fields missing from the file
// keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize pipeline config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write pipeline config file: %w", err)
	}

	return nil
}

// Validate checks that the configuration describes a working pipeline.
func (c *Config) Validate() error {
	if c.ArchRegs <= 0 || c.ArchRegs > insts.NumArchRegs {
		return fmt.Errorf("arch_regs must be between 1 and %d", insts.NumArchRegs)
	}
	if c.PhysRegs <= c.ArchRegs {
		return fmt.Errorf("phys_regs must be > arch_regs")
	}
	if c.IssueQueueSize <= 0 {
		return fmt.Errorf("issue_queue_size must be > 0")
	}
	if c.ROBSize <= 0 {
		return fmt.Errorf("rob_size must be > 0")
	}
	if c.CommitWidth <= 0 {
		return fmt.Errorf("commit_width must be > 0")
	}
	if c.DataMemoryWords <= 0 {
		return fmt.Errorf("data_memory_words must be > 0")
	}
	return nil
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
