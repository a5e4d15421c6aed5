// Package blockdevice adapts an *engine.Engine to the four-operation
// callback shape an external block-device shim drives: read, write,
// flush, disconnect, plus a fixed size. BUSE-style shims wire up a
// struct of plain function pointers for exactly these operations; this
// is the Go equivalent, a small value of function fields closing over
// the engine instead of closing over globals.
package blockdevice

import "github.com/blockraid/raid5d/internal/engine"

// Callbacks is the interface the engine exposes to whatever attaches a
// kernel block request queue or an NBD transport to it. The shim itself
// is out of scope here — this is only the seam it plugs into.
type Callbacks struct {
	Read       func(buf []byte, length, offset uint64) error
	Write      func(buf []byte, length, offset uint64) error
	Flush      func() error
	Disconnect func()
	Size       uint64
}

// New builds the Callbacks value for e.
func New(e *engine.Engine) Callbacks {
	return Callbacks{
		Read:       e.Read,
		Write:      e.Write,
		Flush:      e.Flush,
		Disconnect: e.Disconnect,
		Size:       e.Size(),
	}
}
