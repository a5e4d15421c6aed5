package engine

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/blockraid/raid5d/internal/geometry"
	"github.com/blockraid/raid5d/internal/xorkernel"
)

// Read fills buf[:length] with the virtual device's contents starting at
// offset, block at a time. Both must be multiples of the block size.
func (e *Engine) Read(buf []byte, length, offset uint64) error {
	if err := e.checkAligned(length, offset); err != nil {
		return err
	}
	if uint64(len(buf)) < length {
		return fmt.Errorf("engine: buffer too small: have %d, need %d", len(buf), length)
	}

	scratch := make([]byte, e.blockSize)

	for length > 0 {
		p := geometry.Locate(e.n, e.blockSize, offset)
		dst := buf[:e.blockSize]

		if err := e.readBlock(p, dst, scratch); err != nil {
			return err
		}

		if e.verbose {
			e.log.WithFields(logrus.Fields{"offset": offset, "stripe": p.Stripe}).Debug("read block")
		}

		buf = buf[e.blockSize:]
		offset += e.blockSize
		length -= e.blockSize
	}
	return nil
}

// readBlock satisfies one logical block, reconstructing it from parity
// and peers when its data slot is missing.
func (e *Engine) readBlock(p geometry.Placement, dst, scratch []byte) error {
	if !e.table.IsMissing(p.Data) {
		return e.table.ReadBlock(p.Data, p.PhysOff, dst)
	}

	if e.table.IsMissing(p.Parity) {
		return fmt.Errorf("engine: degraded read at stripe %d: data slot %d and parity slot %d both missing", p.Stripe, p.Data, p.Parity)
	}

	if err := e.table.ReadBlock(p.Parity, p.PhysOff, scratch); err != nil {
		return err
	}

	for i := 0; i < e.n; i++ {
		if i == p.Parity || i == p.Data {
			continue
		}
		if e.table.IsMissing(i) {
			return fmt.Errorf("engine: degraded read at stripe %d: cannot reconstruct, slot %d is also missing", p.Stripe, i)
		}

		peer := make([]byte, e.blockSize)
		if err := e.table.ReadBlock(i, p.PhysOff, peer); err != nil {
			return err
		}
		xorkernel.Into(scratch, peer)
	}

	copy(dst, scratch)
	return nil
}
