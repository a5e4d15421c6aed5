// Package engine implements the RAID5 read/write state machine: mapping
// a logical (offset, length) request onto the back-end array via
// geometry and the device table, with degraded-mode reconstruction on
// read and read-modify-write parity maintenance on write.
package engine

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/blockraid/raid5d/internal/devicetable"
)

// Engine is the single value that carries the device table, its derived
// geometry, and the verbose flag; the adapter closes over it.
type Engine struct {
	table     *devicetable.Table
	n         int
	blockSize uint64
	verbose   bool
	log       *logrus.Logger
}

// New wraps an already-opened device table in an Engine.
func New(table *devicetable.Table, verbose bool, log *logrus.Logger) *Engine {
	if log == nil {
		log = logrus.New()
	}
	return &Engine{
		table:     table,
		n:         table.N(),
		blockSize: table.BlockSize(),
		verbose:   verbose,
		log:       log,
	}
}

// Size returns S, the virtual device's byte capacity.
func (e *Engine) Size() uint64 {
	return e.table.VirtualSize()
}

func (e *Engine) checkAligned(length, offset uint64) error {
	if offset%e.blockSize != 0 {
		return fmt.Errorf("engine: offset %d is not a multiple of block size %d", offset, e.blockSize)
	}
	if length%e.blockSize != 0 {
		return fmt.Errorf("engine: length %d is not a multiple of block size %d", length, e.blockSize)
	}
	return nil
}
