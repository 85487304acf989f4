// File: api/buffer.go
// Package api defines the zero-copy buffer and claim contracts used across
// the transport boundary.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Buffer is a borrowed, zero-copy view over transport-owned memory. Buffers
// handed to decoders are valid only for the duration of the call that
// produced them; callers that need to retain data must Copy it (see spec
// §3 Ownership and §4.9 inbound property write path).
type Buffer struct {
	Data []byte
}

// Bytes returns the full byte slice backing this Buffer.
func (b Buffer) Bytes() []byte { return b.Data }

// Len returns the number of bytes in the view.
func (b Buffer) Len() int { return len(b.Data) }

// Copy returns an owned copy of the buffer data, safe to retain beyond the
// borrowing call.
func (b Buffer) Copy() []byte {
	dup := make([]byte, len(b.Data))
	copy(dup, b.Data)
	return dup
}

// Slice returns a new Buffer view sharing the same underlying memory.
func (b Buffer) Slice(from, to int) Buffer {
	if from < 0 || to > len(b.Data) || from > to {
		return Buffer{}
	}
	return Buffer{Data: b.Data[from:to]}
}

// Claim is a writable slice of a publication's term buffer acquired via
// Publication.TryClaim. It must be finished with exactly one of Commit or
// Abort before the next tick.
type Claim struct {
	Data      []byte
	committer Committer
}

// NewClaim wraps a writable buffer with the committer that will finish it.
func NewClaim(data []byte, c Committer) Claim {
	return Claim{Data: data, committer: c}
}

// Commit finalizes the claim, publishing the first n bytes written into it.
func (c Claim) Commit(n int) error {
	if c.committer == nil {
		return nil
	}
	return c.committer.Commit(c, n)
}

// Abort discards the claim without publishing anything.
func (c Claim) Abort() error {
	if c.committer == nil {
		return nil
	}
	return c.committer.Abort(c)
}

// Committer decouples Claim from its owning Publication implementation.
type Committer interface {
	Commit(c Claim, n int) error
	Abort(c Claim) error
}
