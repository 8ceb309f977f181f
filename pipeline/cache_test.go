package pipeline

import (
	"sync"
	"testing"

	"github.com/LdDl/pose-go/pose"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_Get(t *testing.T) {
	cache := NewCache(nil)
	opts := DefaultOptions()

	first, err := cache.Get(opts)
	require.NoError(t, err)
	second, err := cache.Get(DefaultOptions())
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, cache.Len())

	savgol := opts
	savgol.Smooth = pose.SmoothOptions{Mode: pose.SmoothSavgol, Strength: 0.5}
	third, err := cache.Get(savgol)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, 2, cache.Len())
	assert.Equal(t, pose.SmoothSavgol, third.Options().Smooth.Mode)
}

func TestCache_InvalidOptions(t *testing.T) {
	cache := NewCache(nil)
	opts := DefaultOptions()
	opts.Smooth.Mode = "wavelet"
	_, err := cache.Get(opts)
	assert.ErrorIs(t, err, pose.ErrUnknownSmoothMode)
	assert.Equal(t, 0, cache.Len())
}

func TestCache_Concurrent(t *testing.T) {
	cache := NewCache(nil)
	var wg sync.WaitGroup
	got := make([]*Pipeline, 16)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := cache.Get(DefaultOptions())
			assert.NoError(t, err)
			got[i] = p
		}(i)
	}
	wg.Wait()
	for _, p := range got {
		assert.Same(t, got[0], p)
	}
	assert.Equal(t, 1, cache.Len())
}
