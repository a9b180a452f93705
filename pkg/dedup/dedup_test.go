package dedup

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShouldProcessOncePerWindow(t *testing.T) {
	d := New(time.Minute, 100)

	assert.True(t, d.ShouldProcess("s-1|2026-08-30T10:00:00Z"))
	assert.False(t, d.ShouldProcess("s-1|2026-08-30T10:00:00Z"))
	assert.True(t, d.ShouldProcess("s-1|2026-08-30T10:00:05Z"), "different key is a different message")
}

func TestShouldProcessEmptyKey(t *testing.T) {
	d := New(time.Minute, 100)

	assert.True(t, d.ShouldProcess(""))
	assert.True(t, d.ShouldProcess(""), "empty keys are never suppressed")
}

func TestExpiredKeyProcessesAgain(t *testing.T) {
	d := New(10*time.Millisecond, 100)

	assert.True(t, d.ShouldProcess("k"))
	assert.False(t, d.ShouldProcess("k"))
	time.Sleep(20 * time.Millisecond)
	assert.True(t, d.ShouldProcess("k"))
}

func TestDefaultsApplied(t *testing.T) {
	d := New(0, 0)
	assert.Equal(t, 10*time.Minute, d.ttl)
	assert.Equal(t, 10000, d.max)
}

func TestSweepBoundsMemory(t *testing.T) {
	d := New(5*time.Millisecond, 50)

	for i := 0; i < 50; i++ {
		d.ShouldProcess(fmt.Sprintf("old-%d", i))
	}
	time.Sleep(10 * time.Millisecond)
	for i := 0; i < 25; i++ {
		d.ShouldProcess(fmt.Sprintf("new-%d", i))
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	assert.LessOrEqual(t, len(d.seen), 51, "expired entries are swept past the cap")
}
