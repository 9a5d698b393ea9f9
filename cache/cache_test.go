package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type clock struct {
	sync.Mutex
	t time.Time
}

func (c *clock) now() time.Time {
	c.Lock()
	defer c.Unlock()

	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.Lock()
	defer c.Unlock()

	c.t = c.t.Add(d)
}

func newClock() *clock {
	return &clock{t: time.Date(2024, time.January, 10, 12, 0, 0, 0, time.UTC)}
}

func TestGetPutExpiry(t *testing.T) {
	clk := newClock()
	c := NewCache().WithClock(clk.now)

	c.Put("tasks", []string{"T1"}, 60*time.Second)

	v, ok := c.Get("tasks")
	require.True(t, ok)
	assert.Equal(t, []string{"T1"}, v)

	clk.advance(59 * time.Second)
	_, ok = c.Get("tasks")
	assert.True(t, ok, "entry should still be valid just before expiry")

	clk.advance(1 * time.Second)
	_, ok = c.Get("tasks")
	assert.False(t, ok, "entry should have expired")
}

func TestPutWithZeroTTL(t *testing.T) {
	c := NewCache()

	c.Put("tasks", 1, 0)

	_, ok := c.Get("tasks")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size())
}

func TestClear(t *testing.T) {
	c := NewCache()

	c.Put("tasks", 1, time.Minute)
	c.Put("users", 2, time.Minute)
	c.Clear()

	assert.Equal(t, 0, c.Size())

	_, ok := c.Get("users")
	assert.False(t, ok)
}

func TestFetchCachesWithinTTL(t *testing.T) {
	clk := newClock()
	c := NewCache().WithClock(clk.now)
	calls := 0

	load := func(context.Context) ([]string, error) {
		calls++
		return []string{"Admin"}, nil
	}

	for i := 0; i < 3; i++ {
		v, err := Fetch(context.Background(), c, "categories", 300*time.Second, load)
		require.NoError(t, err)
		assert.Equal(t, []string{"Admin"}, v)
	}

	assert.Equal(t, 1, calls)

	clk.advance(301 * time.Second)

	_, err := Fetch(context.Background(), c, "categories", 300*time.Second, load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestFetchDoesNotCacheErrors(t *testing.T) {
	c := NewCache()
	calls := 0

	load := func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, errors.New("quota exceeded")
		}

		return 42, nil
	}

	_, err := Fetch(context.Background(), c, "users", time.Minute, load)
	assert.Error(t, err)

	v, err := Fetch(context.Background(), c, "users", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 2, calls)
}

func TestFetchCoalescesConcurrentLoads(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := NewCache()
	release := make(chan struct{})
	var calls atomic.Int32
	var wg sync.WaitGroup

	load := func(context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 7, nil
	}

	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, _ := Fetch(context.Background(), c, "tasks", time.Minute, load)
			results[i] = v
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, calls.Load(), int32(8))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
	for _, v := range results {
		assert.Equal(t, 7, v)
	}
}

func TestClearDuringFetchDiscardsResult(t *testing.T) {
	c := NewCache()

	_, err := Fetch(context.Background(), c, "tasks", time.Minute, func(context.Context) (int, error) {
		c.Clear()
		return 1, nil
	})

	require.NoError(t, err)

	_, ok := c.Get("tasks")
	assert.False(t, ok, "a load racing a Clear should not repopulate the cache")
}

func TestFetchCallerCancellation(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := NewCache()
	started := make(chan struct{})
	release := make(chan struct{})

	load := func(ctx context.Context) (int, error) {
		close(started)

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-release:
			return 7, nil
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	second := make(chan int, 1)

	go func() {
		_, err := Fetch(ctx, c, "tasks", time.Minute, load)
		first <- err
	}()

	<-started

	go func() {
		v, err := Fetch(context.Background(), c, "tasks", time.Minute, load)
		if err != nil {
			second <- -1
		} else {
			second <- v
		}
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-first, context.Canceled)

	close(release)

	assert.Equal(t, 7, <-second)

	v, ok := c.Get("tasks")
	assert.True(t, ok)
	assert.Equal(t, 7, v)
}
