// File: internal/affinity/affinity.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral API for CPU affinity. Platform-specific implementations are
// located in separate files (affinity_linux.go, affinity_windows.go, etc.)
// guarded by build tags. The agent's run loop calls runtime.LockOSThread
// before SetAffinity so the binding survives for the lifetime of the
// goroutine driving do_work.

package affinity

// SetAffinity pins the current OS thread to a given logical CPU core on
// supported platforms. On unsupported platforms it returns an error; callers
// treat that as non-fatal (cmd/agent's -cpu-core flag is an optional tuning
// knob).
func SetAffinity(cpuID int) error {
	return setAffinityPlatform(cpuID)
}
