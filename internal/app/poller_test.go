package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleura/storefront/internal/logging"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second}, // Would be 32s, capped to 30s
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 20; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

func TestCalculateBackoff_LongBase(t *testing.T) {
	assert.Equal(t, time.Minute, calculateBackoff(3, time.Minute))
}

type countingReconciler struct {
	calls atomic.Int32
	err   error
}

func (r *countingReconciler) Reconcile(context.Context) error {
	r.calls.Add(1)
	return r.err
}

func TestStartPoller_ReconcilesUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &countingReconciler{}
	StartPoller(ctx, r, 10*time.Millisecond, logging.Discard())

	require.Eventually(t, func() bool { return r.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	time.Sleep(30 * time.Millisecond)
	stopped := r.calls.Load()
	assert.Never(t, func() bool { return r.calls.Load() > stopped }, 60*time.Millisecond, 10*time.Millisecond)
}

func TestStartPoller_KeepsGoingAfterFailures(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := &countingReconciler{err: errors.New("api getCart returned status 503")}
	StartPoller(ctx, r, 5*time.Millisecond, logging.Discard())

	require.Eventually(t, func() bool { return r.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

type flakyLoader struct {
	failures atomic.Int32
	calls    atomic.Int32
}

func (l *flakyLoader) Load(context.Context) error {
	l.calls.Add(1)
	if l.failures.Add(-1) >= 0 {
		return errors.New("connection reset")
	}
	return nil
}

func TestLoadWithRetry_RetriesUntilLoaded(t *testing.T) {
	l := &flakyLoader{}
	l.failures.Store(2)

	loadWithRetry(context.Background(), l, time.Millisecond, logging.Discard())
	assert.Equal(t, int32(3), l.calls.Load())
}

func TestLoadWithRetry_StopsOnCancel(t *testing.T) {
	l := &flakyLoader{}
	l.failures.Store(1 << 20)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		loadWithRetry(ctx, l, time.Millisecond, logging.Discard())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loadWithRetry did not stop after cancel")
	}
}
