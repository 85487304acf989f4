// File: api/pool.go
// Author: momentics <momentics@gmail.com>
//
// Defines abstract pooling APIs: zero-copy allocators for buffer and object reuse.

package api

// BytePool provides reusable []byte buffers for all high-intensity operations.
// Proxies acquire their scratch buffers at construction time and never release
// them during steady-state work, so implementations need not be lock-free.
type BytePool interface {
	// Acquire returns a slice of at least n bytes.
	Acquire(n int) []byte

	// Release returns a buffer to the pool
	Release(buf []byte)
}
