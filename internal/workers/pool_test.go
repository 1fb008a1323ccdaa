package workers

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netscan-tools/netscan/internal/probe"
)

// countingProbe is a fake probe that tracks concurrent invocations.
type countingProbe struct {
	delay      time.Duration
	inFlight   int32
	maxSeen    int32
	totalCalls int32
}

func (c *countingProbe) probe(ctx context.Context, target probe.Target) probe.Outcome {
	cur := atomic.AddInt32(&c.inFlight, 1)
	defer atomic.AddInt32(&c.inFlight, -1)
	atomic.AddInt32(&c.totalCalls, 1)

	// Track the high-water mark of concurrent probes.
	for {
		max := atomic.LoadInt32(&c.maxSeen)
		if cur <= max || atomic.CompareAndSwapInt32(&c.maxSeen, max, cur) {
			break
		}
	}

	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return probe.Cancelled(target)
		}
	}
	return probe.Outcome{Target: target, Status: probe.StatusClosed}
}

func makeTargets(n int) []probe.Target {
	targets := make([]probe.Target, n)
	for i := range targets {
		targets[i] = probe.Target{Host: "127.0.0.1", Port: 10000 + i, Index: i}
	}
	return targets
}

func TestNewClampsWorkers(t *testing.T) {
	assert.Equal(t, 1, New(Config{Workers: 0}).Workers())
	assert.Equal(t, 1, New(Config{Workers: -5}).Workers())
	assert.Equal(t, 20, New(Config{Workers: 20}).Workers())
}

func TestRunCompleteness(t *testing.T) {
	fake := &countingProbe{}
	pool := New(Config{Workers: 10})
	targets := makeTargets(50)

	outcomes := pool.Run(context.Background(), targets, fake.probe)

	require.Len(t, outcomes, 50)
	assert.Equal(t, int32(50), atomic.LoadInt32(&fake.totalCalls))

	// Every target appears exactly once, no duplicates, no omissions.
	seen := make(map[int]bool)
	for _, o := range outcomes {
		assert.False(t, seen[o.Target.Index], "duplicate outcome for index %d", o.Target.Index)
		seen[o.Target.Index] = true
	}
	assert.Len(t, seen, 50)
}

func TestRunRespectsConcurrencyCap(t *testing.T) {
	fake := &countingProbe{delay: 20 * time.Millisecond}
	pool := New(Config{Workers: 5})

	outcomes := pool.Run(context.Background(), makeTargets(40), fake.probe)

	require.Len(t, outcomes, 40)
	max := atomic.LoadInt32(&fake.maxSeen)
	assert.LessOrEqual(t, max, int32(5), "concurrency cap exceeded: %d", max)
	assert.Greater(t, max, int32(1), "expected some parallelism")
}

func TestRunEmptyTargets(t *testing.T) {
	pool := New(DefaultConfig())
	assert.Nil(t, pool.Run(context.Background(), nil, (&countingProbe{}).probe))
}

func TestRunDeadlineSynthesizesRemainder(t *testing.T) {
	fake := &countingProbe{delay: 500 * time.Millisecond}
	pool := New(Config{Workers: 2})
	targets := makeTargets(30)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	outcomes := pool.Run(ctx, targets, fake.probe)
	elapsed := time.Since(start)

	// All targets accounted for despite the deadline, and the pool returned
	// shortly after expiry rather than waiting for full completion.
	require.Len(t, outcomes, 30)
	assert.Less(t, elapsed, time.Second)

	cancelled := 0
	for _, o := range outcomes {
		if o.Detail == probe.DetailCancelled {
			cancelled++
		}
	}
	assert.Greater(t, cancelled, 0, "expected synthesized cancelled outcomes")
}

func TestRunAlreadyExpiredContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pool := New(Config{Workers: 4})
	targets := makeTargets(10)
	outcomes := pool.Run(ctx, targets, (&countingProbe{}).probe)

	require.Len(t, outcomes, 10)
	for _, o := range outcomes {
		assert.Equal(t, probe.StatusError, o.Status)
		assert.Equal(t, probe.DetailCancelled, o.Detail)
	}
}

func TestRunSingleWorkerIsSequential(t *testing.T) {
	fake := &countingProbe{delay: 5 * time.Millisecond}
	pool := New(Config{Workers: 1})

	outcomes := pool.Run(context.Background(), makeTargets(10), fake.probe)

	require.Len(t, outcomes, 10)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fake.maxSeen))
}

func TestRunRateLimit(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping timing-sensitive rate limit test in short mode")
	}

	fake := &countingProbe{}
	pool := New(Config{Workers: 10, RateLimit: 100})

	start := time.Now()
	outcomes := pool.Run(context.Background(), makeTargets(20), fake.probe)
	elapsed := time.Since(start)

	require.Len(t, outcomes, 20)
	// 20 launches at 100/s take at least ~190ms of ticker waits.
	assert.GreaterOrEqual(t, elapsed, 150*time.Millisecond)
}

func TestRunConcurrentPools(t *testing.T) {
	// A Pool holds no per-run state and may be shared.
	fake := &countingProbe{delay: time.Millisecond}
	pool := New(Config{Workers: 8})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes := pool.Run(context.Background(), makeTargets(25), fake.probe)
			assert.Len(t, outcomes, 25)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(100), atomic.LoadInt32(&fake.totalCalls))
}
