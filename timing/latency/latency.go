// Package latency provides functional unit timing for the APEX pipeline.
//
// Latencies can be configured via TimingConfig.
package latency

import (
	"github.com/sarchlab/apexsim/insts"
)

// Table provides instruction latency lookups.
type Table struct {
	config *TimingConfig
}

// NewTable creates a new latency table with default timing values.
func NewTable() *Table {
	return &Table{
		config: DefaultTimingConfig(),
	}
}

// NewTableWithConfig creates a new latency table with custom timing configuration.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{
		config: config,
	}
}

// GetLatency returns the number of cycles the executing unit is occupied by
// op. Operations that do not run on the integer or multiply unit take one
// cycle per stage.
func (t *Table) GetLatency(op insts.Op) uint64 {
	switch op {
	case insts.OpMUL:
		return t.config.MultiplyLatency

	case insts.OpDIV:
		return t.config.DivideLatency

	case insts.OpADD, insts.OpSUB, insts.OpAND, insts.OpOR, insts.OpXOR,
		insts.OpADDL, insts.OpSUBL, insts.OpMOVC, insts.OpCMP:
		return t.config.IntegerLatency

	default:
		return 1
	}
}

// UnitOf returns the functional unit class that executes op.
func (t *Table) UnitOf(op insts.Op) insts.Unit {
	return op.Unit()
}

// Config returns the current timing configuration.
func (t *Table) Config() *TimingConfig {
	return t.config
}
