// File: api/transport.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Transport interface consumed by the core (spec §6). The messaging fabric
// itself — publications, subscriptions, fragment assembly, back-pressure —
// is an external collaborator; this file only declares the shape the core
// depends on, so tests and the real fleet transport both satisfy it.

package api

// Publication is an exclusive, possibly-unconnected output channel.
type Publication interface {
	// TryClaim acquires a writable buffer view of the given length for
	// in-place encoding, to be finished with Claim.Commit or Claim.Abort.
	// Returns ErrNotConnected or ErrBackPressured as sentinel errors.
	TryClaim(length int) (Claim, error)

	// Offer copies/vector-gathers one or more byte ranges into the
	// transport without an explicit claim; used for the array/tensor path
	// where element data must not be copied into a claim buffer first.
	Offer(segments ...[]byte) (int64, error)

	// Close releases the publication.
	Close() error
}

// Subscription is a single-consumer, pollable input channel.
type Subscription interface {
	// Poll delivers up to limit reassembled fragments to h, returning the
	// number delivered.
	Poll(h Handler, limit int) (int, error)

	// Close releases the subscription.
	Close() error
}

// FragmentAssembler reassembles multi-fragment messages into a single
// contiguous Buffer before invoking inner.
type FragmentAssembler interface {
	Handler
}

// AssemblerFactory wraps inner so multi-fragment messages arrive as one
// contiguous Buffer. The returned Handler is itself a valid FragmentAssembler.
type AssemblerFactory func(inner Handler) FragmentAssembler
