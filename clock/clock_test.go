package clock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/burugo/modelkit/clock"
)

func TestReal(t *testing.T) {
	before := time.Now()
	now := clock.Real{}.Now()
	after := time.Now()

	assert.False(t, now.Before(before.Add(-time.Second)))
	assert.False(t, now.After(after.Add(time.Second)))
	assert.Equal(t, time.UTC, now.Location())
}

func TestFake(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f := clock.NewFake(start)

	assert.Equal(t, start, f.Now())
	assert.Equal(t, start, f.Now(), "a plain fake does not move on its own")

	f.Advance(time.Hour)
	assert.Equal(t, start.Add(time.Hour), f.Now())

	later := start.AddDate(1, 0, 0)
	f.Set(later)
	assert.Equal(t, later, f.Now())
}

func TestTicking(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f := clock.NewTicking(start, time.Millisecond)

	first := f.Now()
	second := f.Now()

	assert.Equal(t, start, first)
	assert.Equal(t, start.Add(time.Millisecond), second)
}
