package emu

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/sarchlab/akita/v4/mem/mem"
)

// WordSize is the number of bytes backing one data memory cell.
const WordSize = 4

// DefaultMemoryWords is the number of addressable data memory cells.
const DefaultMemoryWords = 4096

// ErrAddressOutOfRange is returned for accesses outside data memory.
var ErrAddressOutOfRange = errors.New("data memory address out of range")

// Cell is one data memory location and its value.
type Cell struct {
	Addr  int32
	Value int32
}

// Memory is the flat APEX data memory. Addresses index 32-bit cells
// directly; cell n lives at byte offset n*WordSize of an akita storage.
type Memory struct {
	storage *mem.Storage
	words   int32
}

// NewMemory creates a zeroed data memory with the given number of cells.
func NewMemory(words int) *Memory {
	return &Memory{
		storage: mem.NewStorage(uint64(words) * WordSize),
		words:   int32(words),
	}
}

// Words returns the number of cells.
func (m *Memory) Words() int {
	return int(m.words)
}

// Contains reports whether addr is a valid cell address.
func (m *Memory) Contains(addr int32) bool {
	return addr >= 0 && addr < m.words
}

// Read returns the value stored at addr.
func (m *Memory) Read(addr int32) (int32, error) {
	if !m.Contains(addr) {
		return 0, fmt.Errorf("%w: read %d", ErrAddressOutOfRange, addr)
	}

	data, err := m.storage.Read(uint64(addr)*WordSize, WordSize)
	if err != nil {
		return 0, fmt.Errorf("failed to read data memory: %w", err)
	}

	return int32(binary.LittleEndian.Uint32(data)), nil
}

// Write stores value at addr.
func (m *Memory) Write(addr int32, value int32) error {
	if !m.Contains(addr) {
		return fmt.Errorf("%w: write %d", ErrAddressOutOfRange, addr)
	}

	data := make([]byte, WordSize)
	binary.LittleEndian.PutUint32(data, uint32(value))
	if err := m.storage.Write(uint64(addr)*WordSize, data); err != nil {
		return fmt.Errorf("failed to write data memory: %w", err)
	}

	return nil
}

// Peek returns the value at addr, or 0 when addr is out of range.
func (m *Memory) Peek(addr int32) int32 {
	v, err := m.Read(addr)
	if err != nil {
		return 0
	}
	return v
}

// NonZero returns every cell holding a non-zero value, in address order.
func (m *Memory) NonZero() []Cell {
	var cells []Cell
	for addr := int32(0); addr < m.words; addr++ {
		if v := m.Peek(addr); v != 0 {
			cells = append(cells, Cell{Addr: addr, Value: v})
		}
	}
	return cells
}
