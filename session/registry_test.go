package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pybox/pybox/config"
)

func testRegistry(t *testing.T, maxSessions, idleTimeoutSec int) *Registry {
	t.Helper()
	cfg := &config.Config{
		Sessions: config.SessionsConfig{
			MaxSessions:    maxSessions,
			IdleTimeoutSec: idleTimeoutSec,
		},
	}
	return NewRegistry(zaptest.NewLogger(t), cfg)
}

func TestRegisterAndGet(t *testing.T) {
	r := testRegistry(t, 16, 60)

	s, err := r.Register("abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", s.ID())

	got, err := r.Get("abc")
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, 1, r.Len())
}

func TestRegisterDuplicateFails(t *testing.T) {
	r := testRegistry(t, 16, 60)

	_, err := r.Register("abc")
	require.NoError(t, err)

	_, err = r.Register("abc")
	assert.ErrorIs(t, err, ErrSessionExists)
}

func TestGetUnknownFails(t *testing.T) {
	r := testRegistry(t, 16, 60)

	_, err := r.Get("never-seen")
	assert.ErrorIs(t, err, ErrUnknownSession)
}

func TestClose(t *testing.T) {
	r := testRegistry(t, 16, 60)

	_, err := r.Register("abc")
	require.NoError(t, err)

	r.Close("abc")
	assert.Equal(t, 0, r.Len())

	_, err = r.Get("abc")
	assert.ErrorIs(t, err, ErrUnknownSession)

	// Closing an absent session is a no-op
	r.Close("abc")
}

func TestNextExecutionMonotonic(t *testing.T) {
	r := testRegistry(t, 16, 60)

	s, err := r.Register("abc")
	require.NoError(t, err)

	s.Lock()
	first := s.NextExecution()
	second := s.NextExecution()
	s.Unlock()

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
	assert.Equal(t, 2, s.ExecutionCount())
}

func TestNextExecutionConcurrent(t *testing.T) {
	r := testRegistry(t, 16, 60)

	s, err := r.Register("abc")
	require.NoError(t, err)

	const workers = 32
	seen := make(chan int, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Lock()
			n := s.NextExecution()
			s.Unlock()
			seen <- n
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[int]bool)
	for n := range seen {
		assert.False(t, unique[n], "execution number %d assigned twice", n)
		unique[n] = true
	}
	assert.Len(t, unique, workers)
	assert.Equal(t, workers, s.ExecutionCount())
}

func TestCapacityEvictsLeastRecentlyActive(t *testing.T) {
	r := testRegistry(t, 2, 3600)

	_, err := r.Register("oldest")
	require.NoError(t, err)
	_, err = r.Register("middle")
	require.NoError(t, err)

	// Touch "oldest" so "middle" becomes the eviction candidate
	_, err = r.Get("oldest")
	require.NoError(t, err)

	_, err = r.Register("newest")
	require.NoError(t, err)

	assert.Equal(t, 2, r.Len())
	_, err = r.Get("middle")
	assert.ErrorIs(t, err, ErrUnknownSession)
	_, err = r.Get("oldest")
	assert.NoError(t, err)
}

func TestIdleEviction(t *testing.T) {
	r := testRegistry(t, 16, 60)
	r.idleTimeout = 10 * time.Millisecond

	_, err := r.Register("stale")
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	_, err = r.Register("fresh")
	require.NoError(t, err)

	_, err = r.Get("stale")
	assert.ErrorIs(t, err, ErrUnknownSession)
	_, err = r.Get("fresh")
	assert.NoError(t, err)
}
