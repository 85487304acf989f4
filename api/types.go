// File: api/types.go
// Author: momentics <momentics@gmail.com>
//
// Shared API-level type declarations, DTOs, and constants.

package api

import "time"

// AccessMode is a bitmask over property readability/mutability.
type AccessMode int

const (
	// Readable properties can be fetched with PropertyStore.Get.
	Readable AccessMode = 1 << iota
	// Mutable properties additionally accept PropertyStore.Set.
	Mutable
)

// ReadWrite is shorthand for Readable|Mutable.
const ReadWrite = Readable | Mutable

func (m AccessMode) String() string {
	switch m {
	case Readable:
		return "R"
	case ReadWrite:
		return "RW"
	default:
		return "none"
	}
}

// WorkStats summarizes one do_work tick for diagnostics and the idle strategy.
type WorkStats struct {
	Input       int
	Property    int
	Timer       int
	Control     int
	Total       int
}

// AgentInfo exposes descriptive build- and runtime info for external tools.
type AgentInfo struct {
	Name      string
	NodeID    int64
	Version   string
	StartedAt time.Time
}
