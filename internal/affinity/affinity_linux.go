//go:build linux
// +build linux

// File: internal/affinity/affinity_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux-specific implementation for setting thread CPU affinity. Uses
// golang.org/x/sys/unix directly rather than cgo so the agent binary stays
// a single static executable with no libc thread-creation surface, which
// matters for a process that must never allocate or block on its hot path.

package affinity

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// setAffinityPlatform binds the calling OS thread to cpuID.
func setAffinityPlatform(cpuID int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpuID)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("affinity: SchedSetaffinity failed: %w", err)
	}
	return nil
}
