// Package rebuild implements the offline RAID5 rebuild scan: rewriting
// a rebuild-target back-end from the surviving slots, stripe by stripe,
// before any client I/O is served.
package rebuild

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/blockraid/raid5d/internal/devicetable"
	"github.com/blockraid/raid5d/internal/xorkernel"
)

const progressEvery = 100

// Run rebuilds table's rebuild-target slot, if one is configured. It is
// a no-op if RebuildTarget() is -1.
func Run(table *devicetable.Table, verbose bool, log *logrus.Logger) error {
	target := table.RebuildTarget()
	if target == -1 {
		return nil
	}
	if log == nil {
		log = logrus.New()
	}

	n := table.N()
	blockSize := table.BlockSize()
	k := table.MinBlocks()

	log.WithFields(logrus.Fields{
		"slot": target,
		"path": table.Path(target),
		"size": humanize.Bytes(k * blockSize),
	}).Info("starting rebuild")

	accum := make([]byte, blockSize)
	peer := make([]byte, blockSize)

	for stripe := uint64(0); stripe < k; stripe++ {
		physOff := stripe * blockSize
		parity := int(stripe % uint64(n))

		for i := range accum {
			accum[i] = 0
		}

		if target == parity {
			for i := 0; i < n; i++ {
				if i == parity {
					continue
				}
				if table.IsMissing(i) {
					return fmt.Errorf("rebuild: stripe %d needs slot %d, which is missing", stripe, i)
				}
				if err := table.ReadBlock(i, physOff, peer); err != nil {
					return err
				}
				xorkernel.Into(accum, peer)
			}
		} else {
			if table.IsMissing(parity) {
				return fmt.Errorf("rebuild: stripe %d needs parity slot %d, which is missing", stripe, parity)
			}
			if err := table.ReadBlock(parity, physOff, accum); err != nil {
				return err
			}
			for i := 0; i < n; i++ {
				if i == parity || i == target {
					continue
				}
				if table.IsMissing(i) {
					return fmt.Errorf("rebuild: stripe %d needs slot %d, which is missing", stripe, i)
				}
				if err := table.ReadBlock(i, physOff, peer); err != nil {
					return err
				}
				xorkernel.Into(accum, peer)
			}
		}

		if err := table.WriteBlock(target, physOff, accum); err != nil {
			return err
		}

		if verbose && stripe > 0 && stripe%progressEvery == 0 {
			log.WithFields(logrus.Fields{"stripe": stripe, "total": k}).Debug("rebuild progress")
		}
	}

	log.WithFields(logrus.Fields{"slot": target, "stripes": k}).Info("rebuild complete")
	return nil
}
