package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type countingPurger struct {
	calls atomic.Int32
	fail  bool
}

func (p *countingPurger) PurgeExpired(context.Context) (map[string]int64, error) {
	p.calls.Add(1)
	if p.fail {
		return nil, errors.New("boom")
	}
	return map[string]int64{"org": 1}, nil
}

func TestWorkerPurgesUntilCancelled(t *testing.T) {
	for _, fail := range []bool{false, true} {
		purger := &countingPurger{fail: fail}
		w := NewWorker(WorkerConfig{Purger: purger, PollInterval: 5 * time.Millisecond, Logger: zerolog.Nop()})

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- w.Start(ctx) }()

		require.Eventually(t, func() bool { return purger.calls.Load() >= 3 }, time.Second, time.Millisecond)
		cancel()
		require.ErrorIs(t, <-done, context.Canceled)
	}
}
