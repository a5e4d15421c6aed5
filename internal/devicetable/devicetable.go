// Package devicetable owns the back-end file handles for a RAID5 array:
// opening them at startup, tracking which slots are missing or marked as
// the rebuild target, and exposing positional block I/O against them.
package devicetable

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	// MinSlots and MaxSlots bound the device count N per the data model.
	MinSlots = 3
	MaxSlots = 16

	missingLiteral    = "MISSING"
	rebuildTargetFlag = '+'
)

// slot is one back-end's state. Fixed at construction, terminal for the
// process lifetime — there is no runtime transition between states.
type slot struct {
	path          string
	handle        *os.File
	missing       bool
	rebuildTarget bool
	blocks        uint64
}

// Table is the array of N back-end slots plus the geometry derived from
// their sizes.
type Table struct {
	slots      []slot
	blockSize  uint64
	minBlocks  uint64
	rebuildIdx int // -1 if no slot is a rebuild target
	log        *logrus.Logger
}

// Open parses specs (one per slot, in order) and opens every non-missing
// back-end read-write. A spec is "MISSING", a bare path, or a path
// prefixed with '+' marking it the rebuild target (at most one).
func Open(specs []string, blockSize uint64, log *logrus.Logger) (*Table, error) {
	if log == nil {
		log = logrus.New()
	}

	n := len(specs)
	if n < MinSlots {
		return nil, fmt.Errorf("devicetable: need at least %d devices, got %d", MinSlots, n)
	}
	if n > MaxSlots {
		return nil, fmt.Errorf("devicetable: at most %d devices, got %d", MaxSlots, n)
	}
	if blockSize == 0 {
		return nil, fmt.Errorf("devicetable: block size must be positive")
	}

	t := &Table{
		slots:      make([]slot, n),
		blockSize:  blockSize,
		rebuildIdx: -1,
		log:        log,
	}

	for i, spec := range specs {
		if spec == missingLiteral {
			t.slots[i] = slot{missing: true}
			log.WithField("slot", i).Warn("slot marked missing")
			continue
		}

		path := spec
		isTarget := false
		if strings.HasPrefix(path, string(rebuildTargetFlag)) {
			isTarget = true
			path = path[1:]
		}

		if isTarget {
			if t.rebuildIdx != -1 {
				t.closeOpened()
				return nil, fmt.Errorf("devicetable: only one slot may be prefixed '+', already have slot %d", t.rebuildIdx)
			}
			t.rebuildIdx = i
		}

		f, err := os.OpenFile(path, os.O_RDWR, 0)
		if err != nil {
			t.closeOpened()
			return nil, fmt.Errorf("devicetable: opening %s (slot %d): %w", path, i, err)
		}

		info, err := f.Stat()
		if err != nil {
			f.Close()
			t.closeOpened()
			return nil, fmt.Errorf("devicetable: stat %s (slot %d): %w", path, i, err)
		}

		blocks := uint64(info.Size()) / blockSize
		t.slots[i] = slot{
			path:          path,
			handle:        f,
			rebuildTarget: isTarget,
			blocks:        blocks,
		}

		log.WithFields(logrus.Fields{"slot": i, "path": path, "blocks": blocks}).Info("opened device")
	}

	if t.rebuildIdx != -1 && t.slots[t.rebuildIdx].missing {
		t.closeOpened()
		return nil, fmt.Errorf("devicetable: slot %d cannot be both missing and the rebuild target", t.rebuildIdx)
	}

	anyPresent := false
	var minBlocks uint64
	for i := range t.slots {
		if t.slots[i].missing {
			continue
		}
		anyPresent = true
		if minBlocks == 0 || t.slots[i].blocks < minBlocks {
			minBlocks = t.slots[i].blocks
		}
	}
	if !anyPresent {
		t.closeOpened()
		return nil, fmt.Errorf("devicetable: all %d slots are missing, nothing to serve", n)
	}

	t.minBlocks = minBlocks
	return t, nil
}

func (t *Table) closeOpened() {
	for i := range t.slots {
		if t.slots[i].handle != nil {
			t.slots[i].handle.Close()
		}
	}
}

// N returns the configured device count.
func (t *Table) N() int { return len(t.slots) }

// BlockSize returns the fixed block size B.
func (t *Table) BlockSize() uint64 { return t.blockSize }

// MinBlocks returns the smallest non-missing back-end's block count,
// which determines the virtual device's stripe count K.
func (t *Table) MinBlocks() uint64 { return t.minBlocks }

// VirtualSize returns S = (N-1) * MinBlocks * B, the virtual device's
// byte capacity.
func (t *Table) VirtualSize() uint64 {
	return uint64(t.N()-1) * t.minBlocks * t.blockSize
}

// IsMissing reports whether slot i has no handle.
func (t *Table) IsMissing(i int) bool { return t.slots[i].missing }

// RebuildTarget returns the rebuild-target slot index, or -1 if none was
// configured.
func (t *Table) RebuildTarget() int { return t.rebuildIdx }

// Path returns the configured path for slot i (empty for missing slots).
func (t *Table) Path(i int) string { return t.slots[i].path }

// ReadBlock reads exactly BlockSize bytes from slot i at physOff into
// buf. Calling this on a missing slot is a programming error — callers
// must check IsMissing first.
func (t *Table) ReadBlock(i int, physOff uint64, buf []byte) error {
	s := &t.slots[i]
	if s.missing {
		panic(fmt.Sprintf("devicetable: read_block on missing slot %d", i))
	}
	n, err := s.handle.ReadAt(buf, int64(physOff))
	if err != nil {
		return fmt.Errorf("devicetable: read slot %d at %d: %w", i, physOff, err)
	}
	if uint64(n) != t.blockSize {
		return fmt.Errorf("devicetable: short read on slot %d at %d: got %d want %d", i, physOff, n, t.blockSize)
	}
	return nil
}

// WriteBlock writes exactly BlockSize bytes from buf to slot i at
// physOff. Calling this on a missing slot is a programming error.
func (t *Table) WriteBlock(i int, physOff uint64, buf []byte) error {
	s := &t.slots[i]
	if s.missing {
		panic(fmt.Sprintf("devicetable: write_block on missing slot %d", i))
	}
	n, err := s.handle.WriteAt(buf, int64(physOff))
	if err != nil {
		return fmt.Errorf("devicetable: write slot %d at %d: %w", i, physOff, err)
	}
	if uint64(n) != t.blockSize {
		return fmt.Errorf("devicetable: short write on slot %d at %d: wrote %d want %d", i, physOff, n, t.blockSize)
	}
	return nil
}

// FlushAll fsyncs every present back-end. A failure on one slot does not
// prevent flushing the rest; all failures are joined into one error.
func (t *Table) FlushAll() error {
	var errs []error
	for i := range t.slots {
		if t.slots[i].missing {
			continue
		}
		if err := t.slots[i].handle.Sync(); err != nil {
			t.log.WithFields(logrus.Fields{"slot": i, "path": t.slots[i].path}).WithError(err).Error("flush failed")
			errs = append(errs, fmt.Errorf("slot %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Close closes every open handle, returning the first error encountered.
func (t *Table) Close() error {
	var first error
	for i := range t.slots {
		if t.slots[i].handle == nil {
			continue
		}
		if err := t.slots[i].handle.Close(); err != nil && first == nil {
			first = fmt.Errorf("devicetable: closing slot %d: %w", i, err)
		}
	}
	return first
}
