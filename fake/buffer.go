// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake Committer for tests that need to exercise the Claim/Commit/Abort
// protocol (api.Buffer, api.Claim) without a full Publication.

package fake

import "github.com/momentics/rtc-agent/api"

// Committer records what a test's code under test did with a claim.
type Committer struct {
	Committed  [][]byte
	Aborted    int
	CommitErr  error
}

// NewClaim hands back a Claim of length n backed by this committer.
func (c *Committer) NewClaim(n int) api.Claim {
	return api.NewClaim(make([]byte, n), c)
}

// Commit implements api.Committer.
func (c *Committer) Commit(claim api.Claim, n int) error {
	if c.CommitErr != nil {
		return c.CommitErr
	}
	dup := make([]byte, n)
	copy(dup, claim.Data[:n])
	c.Committed = append(c.Committed, dup)
	return nil
}

// Abort implements api.Committer.
func (c *Committer) Abort(claim api.Claim) error {
	c.Aborted++
	return nil
}
