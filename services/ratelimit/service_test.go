package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLimiter_Disabled(t *testing.T) {
	var l *Limiter = NewLimiter("openai", 0)

	assert.Nil(t, l)
	assert.True(t, l.Allow())
	assert.NoError(t, l.Wait(context.Background()))
	assert.Equal(t, "", l.Name())
}

func TestLimiter_Burst(t *testing.T) {
	l := NewLimiter("openai", 60) // 1 rps, burst 6

	for i := 0; i < 6; i++ {
		assert.True(t, l.Allow(), "burst call %d", i)
	}
	assert.False(t, l.Allow())
	assert.Equal(t, "openai", l.Name())
}

func TestLimiter_WaitHonoursContext(t *testing.T) {
	l := NewLimiter("anthropic", 1) // one call per minute, burst 1
	require.True(t, l.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limiter anthropic")
	assert.ErrorIs(t, err, context.DeadlineExceeded, "a wait past the deadline is a timeout")
}

func TestLimiter_WaitCancelled(t *testing.T) {
	l := NewLimiter("openai", 1)
	require.True(t, l.Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := l.Wait(ctx)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, context.DeadlineExceeded)
}
