package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOnUpdateFiresExactlyOnceOnUpdateTick(t *testing.T) {
	s := NewOnUpdate()
	// Property updated this tick (propTs == now), never published before.
	assert.True(t, s.ShouldPublish(-1, -1, 100, 100))
	// Already published at this same propTs.
	assert.False(t, s.ShouldPublish(100, -1, 100, 100))
	// No update this tick.
	assert.False(t, s.ShouldPublish(-1, -1, 90, 100))
	assert.Equal(t, int64(-1), s.NextTime(100))
}

func TestPeriodicPublishesImmediatelyThenAtInterval(t *testing.T) {
	s := NewPeriodic(10)
	assert.True(t, s.ShouldPublish(-1, 0, 0, 0))
	next := s.NextTime(0)
	assert.Equal(t, int64(10), next)

	// Not yet due.
	assert.False(t, s.ShouldPublish(0, next, 0, 5))
	// Due.
	assert.True(t, s.ShouldPublish(0, next, 0, 10))
	// Already published exactly at now.
	assert.False(t, s.ShouldPublish(10, 20, 0, 10))
}

func TestScheduledFiresOnceAtDeadline(t *testing.T) {
	s := NewScheduled(50)
	assert.False(t, s.ShouldPublish(-1, 50, 0, 40))
	assert.True(t, s.ShouldPublish(-1, 50, 0, 50))
	assert.True(t, s.ShouldPublish(-1, 50, 0, 60))
	assert.False(t, s.ShouldPublish(60, 50, 0, 60))
	assert.Equal(t, int64(50), s.NextTime(999))
}

func TestRateLimitedIsOnUpdateWithFloor(t *testing.T) {
	s := NewRateLimited(100)
	assert.True(t, s.ShouldPublish(-1, 0, 500, 500))
	assert.False(t, s.ShouldPublish(450, 0, 500, 500))
	assert.True(t, s.ShouldPublish(300, 0, 500, 500))
	assert.False(t, s.ShouldPublish(0, 0, 400, 500)) // no update this tick
}
