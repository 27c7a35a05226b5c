package service

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWaitIdleReturnsImmediatelyWhenIdle(t *testing.T) {
	g := newBorrowerGate()

	done := make(chan struct{})
	go func() {
		g.WaitIdle("b-100")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WaitIdle blocked with nothing in flight")
	}
}

func TestWaitIdleBlocksUntilAllExtractionsEnd(t *testing.T) {
	g := newBorrowerGate()
	g.Begin("b-100")
	g.Begin("b-100")

	var terminal atomic.Int32
	go func() {
		time.Sleep(10 * time.Millisecond)
		terminal.Add(1)
		g.End("b-100")
		time.Sleep(10 * time.Millisecond)
		terminal.Add(1)
		g.End("b-100")
	}()

	g.WaitIdle("b-100")
	assert.Equal(t, int32(2), terminal.Load())
}

func TestWaitIdleIgnoresOtherBorrowers(t *testing.T) {
	g := newBorrowerGate()
	g.Begin("b-other")

	done := make(chan struct{})
	go func() {
		g.WaitIdle("b-100")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WaitIdle blocked on another borrower's extraction")
	}
	g.End("b-other")
}

func TestAggregationLockIsPerBorrower(t *testing.T) {
	g := newBorrowerGate()

	assert.Same(t, g.AggregationLock("b-100"), g.AggregationLock("b-100"))
	assert.NotSame(t, g.AggregationLock("b-100"), g.AggregationLock("b-200"))
}
