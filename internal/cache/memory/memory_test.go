package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/sesamo/internal/cache"
)

func TestSetGetRoundTrip(t *testing.T) {
	c := New(time.Minute, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("valor"), 0))

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("valor"), got)
}

func TestGetMiss(t *testing.T) {
	c := New(time.Minute, time.Minute)

	_, err := c.Get(context.Background(), "nunca-escrita")
	assert.ErrorIs(t, err, cache.ErrMiss)
}

func TestSetCopiesValue(t *testing.T) {
	c := New(time.Minute, time.Minute)
	ctx := context.Background()

	buf := []byte("original")
	require.NoError(t, c.Set(ctx, "k", buf, 0))
	buf[0] = 'X'

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), got)
}

func TestTTLExpiry(t *testing.T) {
	c := New(time.Minute, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, cache.ErrMiss)
}

func TestGetDelIsOneShot(t *testing.T) {
	c := New(time.Minute, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "code", []byte("payload"), 0))

	got, err := c.GetDel(ctx, "code")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)

	_, err = c.GetDel(ctx, "code")
	assert.ErrorIs(t, err, cache.ErrMiss)
}

func TestDeleteMissingKeyIsNoError(t *testing.T) {
	c := New(time.Minute, time.Minute)

	assert.NoError(t, c.Delete(context.Background(), "nada"))
}
