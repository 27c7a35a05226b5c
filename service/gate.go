package service

import "sync"

// borrowerGate enforces the per-borrower concurrency contract: downstream
// stages wait until every in-flight extraction for a borrower has reached a
// terminal state, and at most one aggregation runs per borrower at a time.
// Borrowers never share state, so different borrowers proceed in parallel.
type borrowerGate struct {
	mu       sync.Mutex
	cond     *sync.Cond
	inflight map[string]int
	agg      map[string]*sync.Mutex
}

func newBorrowerGate() *borrowerGate {
	g := &borrowerGate{
		inflight: make(map[string]int),
		agg:      make(map[string]*sync.Mutex),
	}
	g.cond = sync.NewCond(&g.mu)
	return g
}

// Begin registers one in-flight extraction for a borrower.
func (g *borrowerGate) Begin(borrowerID string) {
	g.mu.Lock()
	g.inflight[borrowerID]++
	g.mu.Unlock()
}

// End marks one extraction terminal and wakes any waiting aggregation.
func (g *borrowerGate) End(borrowerID string) {
	g.mu.Lock()
	g.inflight[borrowerID]--
	if g.inflight[borrowerID] <= 0 {
		delete(g.inflight, borrowerID)
	}
	g.mu.Unlock()
	g.cond.Broadcast()
}

// WaitIdle blocks until the borrower has no extraction in flight.
func (g *borrowerGate) WaitIdle(borrowerID string) {
	g.mu.Lock()
	for g.inflight[borrowerID] > 0 {
		g.cond.Wait()
	}
	g.mu.Unlock()
}

// AggregationLock returns the borrower's aggregation mutex. A qualification
// request arriving mid-aggregation queues on it rather than interleaving.
func (g *borrowerGate) AggregationLock(borrowerID string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	lock, ok := g.agg[borrowerID]
	if !ok {
		lock = &sync.Mutex{}
		g.agg[borrowerID] = lock
	}
	return lock
}
