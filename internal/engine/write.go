package engine

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/blockraid/raid5d/internal/geometry"
	"github.com/blockraid/raid5d/internal/xorkernel"
)

// Write stores buf[:length] into the virtual device starting at offset.
// Both must be multiples of the block size. It picks the full-stripe
// fast path whenever the remaining request is stripe-aligned and at
// least one stripe wide, and falls back to read-modify-write otherwise.
func (e *Engine) Write(buf []byte, length, offset uint64) error {
	if err := e.checkAligned(length, offset); err != nil {
		return err
	}
	if uint64(len(buf)) < length {
		return fmt.Errorf("engine: buffer too small: have %d, need %d", len(buf), length)
	}

	for length > 0 {
		if geometry.IsFullStripeBoundary(e.n, e.blockSize, offset, length) {
			span := geometry.StripeSpanBytes(e.n, e.blockSize)
			if err := e.writeFullStripe(buf[:span], offset); err != nil {
				return err
			}
			buf = buf[span:]
			offset += span
			length -= span
			continue
		}

		if err := e.writeRMW(buf[:e.blockSize], offset); err != nil {
			return err
		}
		buf = buf[e.blockSize:]
		offset += e.blockSize
		length -= e.blockSize
	}
	return nil
}

// writeFullStripe computes parity in memory from the N-1 incoming data
// blocks and writes the whole stripe without reading any old contents.
func (e *Engine) writeFullStripe(data []byte, offset uint64) error {
	p := geometry.Locate(e.n, e.blockSize, offset)

	parity := make([]byte, e.blockSize)
	for d := 0; d < e.n-1; d++ {
		block := data[uint64(d)*e.blockSize : uint64(d+1)*e.blockSize]
		xorkernel.Into(parity, block)
	}

	for d := 0; d < e.n-1; d++ {
		diskIdx := d
		if diskIdx >= p.Parity {
			diskIdx++
		}
		if e.table.IsMissing(diskIdx) {
			continue
		}
		block := data[uint64(d)*e.blockSize : uint64(d+1)*e.blockSize]
		if err := e.table.WriteBlock(diskIdx, p.PhysOff, block); err != nil {
			return err
		}
	}

	if e.table.IsMissing(p.Parity) {
		return fmt.Errorf("engine: full-stripe write at stripe %d: parity slot %d is missing, refusing to drop parity", p.Stripe, p.Parity)
	}
	if err := e.table.WriteBlock(p.Parity, p.PhysOff, parity); err != nil {
		return err
	}

	if e.verbose {
		e.log.WithFields(logrus.Fields{"offset": offset, "stripe": p.Stripe}).Debug("full-stripe write")
	}
	return nil
}

// writeRMW updates one logical block, reading old data and old parity
// before writing new data and new parity. Missing slots are treated as
// all-zero on read and skipped on write — except the parity slot, whose
// write failing is always an error.
func (e *Engine) writeRMW(newData []byte, offset uint64) error {
	p := geometry.Locate(e.n, e.blockSize, offset)

	oldParity := make([]byte, e.blockSize)
	if !e.table.IsMissing(p.Parity) {
		if err := e.table.ReadBlock(p.Parity, p.PhysOff, oldParity); err != nil {
			return err
		}
	}

	oldData := make([]byte, e.blockSize)
	if !e.table.IsMissing(p.Data) {
		if err := e.table.ReadBlock(p.Data, p.PhysOff, oldData); err != nil {
			return err
		}
	}

	newParity := make([]byte, e.blockSize)
	xorkernel.Into(newParity, oldParity)
	xorkernel.Into(newParity, oldData)
	xorkernel.Into(newParity, newData)

	if !e.table.IsMissing(p.Data) {
		if err := e.table.WriteBlock(p.Data, p.PhysOff, newData); err != nil {
			return err
		}
	}

	if e.table.IsMissing(p.Parity) {
		return fmt.Errorf("engine: read-modify-write at stripe %d: parity slot %d is missing, cannot preserve parity", p.Stripe, p.Parity)
	}
	if err := e.table.WriteBlock(p.Parity, p.PhysOff, newParity); err != nil {
		return err
	}

	if e.verbose {
		e.log.WithFields(logrus.Fields{"offset": offset, "stripe": p.Stripe}).Debug("read-modify-write")
	}
	return nil
}
