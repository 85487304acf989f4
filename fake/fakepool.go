// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package fake

import "sync"

// BytePool is a trivial, instrumented api.BytePool for tests: it hands out
// freshly zeroed slices and counts acquire/release calls without actually
// pooling anything, so tests can assert on usage without worrying about
// stale data bleeding across acquisitions.
type BytePool struct {
	mu        sync.Mutex
	acquired  int
	released  int
}

// NewBytePool returns a ready-to-use fake pool.
func NewBytePool() *BytePool { return &BytePool{} }

// Acquire implements api.BytePool.
func (p *BytePool) Acquire(n int) []byte {
	p.mu.Lock()
	p.acquired++
	p.mu.Unlock()
	return make([]byte, n)
}

// Release implements api.BytePool.
func (p *BytePool) Release(buf []byte) {
	p.mu.Lock()
	p.released++
	p.mu.Unlock()
}

// Counts returns (acquired, released) for test assertions.
func (p *BytePool) Counts() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.acquired, p.released
}
