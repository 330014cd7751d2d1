package health

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecker_RunAll(t *testing.T) {
	checker := NewChecker(zerolog.Nop())
	checker.Register("upstream", func(ctx context.Context) Status { return StatusOK })
	checker.Register("action_layer", func(ctx context.Context) Status { return StatusDegraded })

	results := checker.RunAll(context.Background())
	assert.Equal(t, StatusOK, results["upstream"])
	assert.Equal(t, StatusDegraded, results["action_layer"])
	assert.True(t, checker.IsReady(context.Background()))
}

func TestChecker_NotReadyWhenDown(t *testing.T) {
	checker := NewChecker(zerolog.Nop())
	checker.Register("upstream", func(ctx context.Context) Status { return StatusDown })

	assert.False(t, checker.IsReady(context.Background()))
}

func TestChecker_SnapshotDoesNotProbe(t *testing.T) {
	var calls atomic.Int32
	checker := NewChecker(zerolog.Nop())
	checker.Register("upstream", func(ctx context.Context) Status {
		calls.Add(1)
		return StatusOK
	})

	assert.Empty(t, checker.Snapshot())

	checker.RunAll(context.Background())
	snapshot := checker.Snapshot()
	assert.Equal(t, StatusOK, snapshot["upstream"])
	assert.Equal(t, int32(1), calls.Load())
}

func TestProber_RefreshesCache(t *testing.T) {
	var calls atomic.Int32
	checker := NewChecker(zerolog.Nop())
	checker.Register("upstream", func(ctx context.Context) Status {
		calls.Add(1)
		return StatusOK
	})

	prober := NewProber(checker, 5*time.Millisecond, zerolog.Nop())
	prober.Start()
	defer prober.Stop()

	require.Eventually(t, func() bool {
		return calls.Load() >= 3
	}, 2*time.Second, 2*time.Millisecond)
	assert.Equal(t, StatusOK, checker.Snapshot()["upstream"])
}

func TestProber_StopIdempotent(t *testing.T) {
	checker := NewChecker(zerolog.Nop())
	prober := NewProber(checker, 5*time.Millisecond, zerolog.Nop())

	prober.Start()
	prober.Stop()
	prober.Stop()

	// Restart after a stop still works.
	prober.Start()
	prober.Stop()
}
