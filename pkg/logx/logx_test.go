package logx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebugGating(t *testing.T) {
	SetDebug(false)
	assert.False(t, IsDebugEnabled())

	SetDebug(true)
	assert.True(t, IsDebugEnabled())

	SetDebug(false)
}

func TestBufferCapturesEntries(t *testing.T) {
	logger := NewLogger("engine-test")
	logger.Info("session %s created", "abc-123")

	entries := RecentEntries("engine-test", time.Time{})
	require.NotEmpty(t, entries)

	last := entries[len(entries)-1]
	assert.Equal(t, "engine-test", last.Component)
	assert.Equal(t, "INFO", last.Level)
	assert.Contains(t, last.Message, "abc-123")
}

func TestBufferComponentFilter(t *testing.T) {
	NewLogger("gate-test").Warn("reviewer unreachable")
	NewLogger("store-test").Info("saved")

	for _, entry := range RecentEntries("gate-test", time.Time{}) {
		assert.Equal(t, "gate-test", entry.Component)
	}
}

func TestBufferSinceFilter(t *testing.T) {
	NewLogger("since-test").Info("old entry")

	cutoff := time.Now().UTC().Add(time.Hour)
	assert.Empty(t, RecentEntries("since-test", cutoff))
}

func TestWrapNil(t *testing.T) {
	require.NoError(t, Wrap(nil, "load"))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := Errorf("disk full")
	wrapped := Wrap(cause, "save session")
	require.Error(t, wrapped)
	assert.Contains(t, wrapped.Error(), "save session")
	assert.ErrorIs(t, wrapped, cause)
}
