// Command raid5d is a BUSE-style userspace RAID5 daemon: it opens N
// back-end block devices, optionally rebuilds one of them, and exposes
// a single virtual block device to whatever external shim attaches to
// its read/write/flush/disconnect callbacks.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/blockraid/raid5d/internal/blockdevice"
	"github.com/blockraid/raid5d/internal/devicetable"
	"github.com/blockraid/raid5d/internal/diag"
	"github.com/blockraid/raid5d/internal/engine"
	"github.com/blockraid/raid5d/internal/rebuild"
)

var verbose bool

func main() {
	if err := rootCmd().Execute(); err != nil {
		diag.NewLogger(verbose).WithError(err).Error("raid5d exiting")
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "raid5d BLOCKSIZE RAIDDEVICE DEVICE1 [DEVICE2 ... DEVICE16]",
		Short: "userspace RAID5 engine with rotating parity and offline rebuild",
		Long: `raid5d stripes a virtual block device with rotating single-parity
redundancy (RAID5) across 3 to 16 back-end devices. Each DEVICE is a
path, a path prefixed with '+' marking it the rebuild target, or the
literal MISSING.`,
		Args:          cobra.RangeArgs(2+devicetable.MinSlots, 2+devicetable.MaxSlots),
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable human-readable I/O traces to the diagnostic stream")
	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	blockSize, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("raid5d: BLOCKSIZE %q is not a valid decimal integer: %w", args[0], err)
	}
	raidDevice := args[1]
	deviceSpecs := args[2:]

	if len(deviceSpecs) < devicetable.MinSlots {
		return fmt.Errorf("raid5d: RAID5 requires at least %d devices, got %d", devicetable.MinSlots, len(deviceSpecs))
	}
	if len(deviceSpecs) > devicetable.MaxSlots {
		return fmt.Errorf("raid5d: at most %d devices, got %d", devicetable.MaxSlots, len(deviceSpecs))
	}

	log := diag.NewLogger(verbose)
	log.WithField("device", raidDevice).Info("starting raid5d")

	table, err := devicetable.Open(deviceSpecs, blockSize, log)
	if err != nil {
		return fmt.Errorf("raid5d: %w", err)
	}
	defer table.Close()

	if table.RebuildTarget() != -1 {
		if err := rebuild.Run(table, verbose, log); err != nil {
			return fmt.Errorf("raid5d: rebuild failed, aborting: %w", err)
		}
	}

	cb := blockdevice.New(engine.New(table, verbose, log))
	log.WithField("size", diag.Size(cb.Size)).Info("callbacks attached, waiting for shim")

	return waitForShutdown(cb, log)
}

// waitForShutdown blocks until the process receives SIGINT or SIGTERM,
// mirroring the disconnect callback an external shim would eventually
// invoke when the kernel tears down the block device.
func waitForShutdown(cb blockdevice.Callbacks, log *logrus.Logger) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	cb.Disconnect()
	if err := cb.Flush(); err != nil {
		log.WithError(err).Error("flush on shutdown reported errors")
	}
	log.Info("shut down cleanly")
	return nil
}
