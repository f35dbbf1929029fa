package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOccurredAtDefaultsZeroTime(t *testing.T) {
	before := time.Now().UTC()
	got := occurredAt(time.Time{})
	assert.False(t, got.Before(before), "zero At must become the write time, not year 1")

	explicit := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, explicit, occurredAt(explicit))
}
