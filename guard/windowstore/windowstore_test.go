package windowstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemWindowStoreTrailingWindow(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	ws := NewMemWindowStore(15*time.Second, 50)
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	// five posts inside fifteen seconds: the fifth observation reports five
	for i := 0; i < 4; i++ {
		c, err := ws.Observe(ctx, NameInvitePost, "100/200", base.Add(time.Duration(i)*3*time.Second))
		assert.NoError(err)
		assert.Equal(i+1, c)
	}
	c, err := ws.Observe(ctx, NameInvitePost, "100/200", base.Add(12*time.Second))
	assert.NoError(err)
	assert.Equal(5, c)

	// a sixth post sixteen seconds after the first: the first has aged out
	c, err = ws.Observe(ctx, NameInvitePost, "100/200", base.Add(16*time.Second))
	assert.NoError(err)
	assert.Equal(5, c)
}

func TestMemWindowStoreSlowPosterNeverTriggers(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	ws := NewMemWindowStore(15*time.Second, 50)
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	// posts spaced four seconds apart: the window never holds five at once
	for i := 0; i < 20; i++ {
		c, err := ws.Observe(ctx, NameInvitePost, "100/200", base.Add(time.Duration(i)*4*time.Second))
		assert.NoError(err)
		assert.LessOrEqual(c, 4)
	}
}

func TestMemWindowStoreKeysAreIndependent(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	ws := NewMemWindowStore(15*time.Second, 50)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	c, err := ws.Observe(ctx, NameInvitePost, "100/200", now)
	assert.NoError(err)
	assert.Equal(1, c)

	// same account in another community is a separate window
	c, err = ws.Observe(ctx, NameInvitePost, "101/200", now)
	assert.NoError(err)
	assert.Equal(1, c)
}

func TestMemWindowStoreCapacity(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	ws := NewMemWindowStore(time.Hour, 50)
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	// flooding inside the retention period: the window is bounded at capacity
	var c int
	var err error
	for i := 0; i < 200; i++ {
		c, err = ws.Observe(ctx, NameInvitePost, "100/200", base.Add(time.Duration(i)*time.Millisecond))
		assert.NoError(err)
	}
	assert.Equal(50, c)
}
