package core

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockTick(t *testing.T) {
	var c Clock
	assert.Equal(t, float64(0), c.Tick(), "first tick of an unstarted clock is zero")

	time.Sleep(5 * time.Millisecond)
	delta := c.Tick()
	assert.Greater(t, delta, float64(0))
	assert.Less(t, delta, 1.0)
}

func TestFrameStats(t *testing.T) {
	var s FrameStats

	// A full rolling window of 10ms frames averages to 10ms.
	for i := 0; i < frameWindow; i++ {
		s.Update(0.010)
	}
	assert.InDelta(t, 10.0, s.FrameTimeMS(), 0.001)

	// Crossing the one-second boundary refreshes the FPS figure.
	refreshed := false
	frames := 0
	for !refreshed {
		refreshed = s.Update(0.010)
		frames++
		require.Less(t, frames, 1000)
	}
	assert.Greater(t, s.FPS(), float64(0))
}

func TestIdentifierRecycling(t *testing.T) {
	owner := struct{ name string }{"a"}
	id1 := IdentifierAcquireNewID(&owner)
	id2 := IdentifierAcquireNewID(&owner)
	assert.NotEqual(t, id1, id2)

	require.NoError(t, IdentifierReleaseID(id1))
	id3 := IdentifierAcquireNewID(&owner)
	assert.Equal(t, id1, id3, "released slots are recycled")

	assert.Error(t, IdentifierReleaseID(1 << 30))
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLogLevel("debug"))
	assert.Equal(t, LogLevelWarn, ParseLogLevel("WARN"))
	assert.Equal(t, LogLevelWarn, ParseLogLevel("warning"))
	assert.Equal(t, LogLevelError, ParseLogLevel("error"))
	assert.Equal(t, LogLevelInfo, ParseLogLevel(""))
	assert.Equal(t, LogLevelInfo, ParseLogLevel("nonsense"))
}

func TestDeserializationError(t *testing.T) {
	inner := errors.New("bad uuid")
	err := &DeserializationError{Field: "AssetID", Value: "zzz", Err: inner}

	assert.Contains(t, err.Error(), "AssetID")
	assert.Contains(t, err.Error(), "zzz")
	assert.True(t, errors.Is(err, inner))
}
