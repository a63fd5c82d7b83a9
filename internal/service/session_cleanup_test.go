package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingPruner struct {
	calls atomic.Int32
}

func (p *countingPruner) DeleteExpiredSessions(context.Context, time.Time) (int64, error) {
	p.calls.Add(1)
	return 1, nil
}

func TestSessionCleanup(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &countingPruner{}

	done := SessionCleanup(ctx, 5*time.Millisecond, p)

	assert.Eventually(t, func() bool { return p.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup goroutine did not stop")
	}
}
