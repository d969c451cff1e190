package utils

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// WorkQueue is a FIFO shared by the workers of one crawl phase. It is drained
// when it holds no items and no popped item is still being processed, so
// workers may push follow-up items before marking their own item Done.
type WorkQueue[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []T
	active int
	closed bool
}

// NewWorkQueue creates an empty queue.
func NewWorkQueue[T any]() *WorkQueue[T] {
	q := &WorkQueue[T]{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends items. Pushing to a closed queue is a no-op.
func (q *WorkQueue[T]) Push(items ...T) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.items = append(q.items, items...)
	q.cond.Broadcast()
}

// Pop blocks until an item is available. It returns false once the queue is
// drained or closed. Every successful Pop must be paired with Done.
func (q *WorkQueue[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && q.active > 0 && !q.closed {
		q.cond.Wait()
	}

	var zero T
	if q.closed || len(q.items) == 0 {
		return zero, false
	}

	item := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	q.active++
	return item, true
}

// Done marks one popped item as finished.
func (q *WorkQueue[T]) Done() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.active--
	if q.active == 0 && len(q.items) == 0 {
		q.cond.Broadcast()
	}
}

// Close abandons any remaining items and wakes all waiting workers.
func (q *WorkQueue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.items = nil
	q.cond.Broadcast()
}

// WorkerPool runs a fixed number of symmetric workers over a WorkQueue with
// an optional minimum interval between job starts.
type WorkerPool[T any] struct {
	maxWorkers int
	limiter    *rate.Limiter
}

// NewWorkerPool creates a WorkerPool with the given concurrency and rate limit.
// A rateLimitMs of 0 disables pacing.
func NewWorkerPool[T any](maxWorkers, rateLimitMs int) *WorkerPool[T] {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if rateLimitMs > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Duration(rateLimitMs)*time.Millisecond), 1)
	}
	return &WorkerPool[T]{maxWorkers: maxWorkers, limiter: limiter}
}

// Run processes items until the queue drains or ctx is cancelled. Cancelling
// ctx abandons queued items; jobs already running see the cancelled context.
func (wp *WorkerPool[T]) Run(ctx context.Context, q *WorkQueue[T], job func(context.Context, T)) error {
	g, gctx := errgroup.WithContext(ctx)
	stop := context.AfterFunc(gctx, q.Close)
	defer stop()

	for i := 0; i < wp.maxWorkers; i++ {
		g.Go(func() error {
			for {
				item, ok := q.Pop()
				if !ok {
					return nil
				}
				if err := wp.limiter.Wait(gctx); err != nil {
					q.Done()
					return err
				}
				job(gctx, item)
				q.Done()
			}
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "worker pool")
	}
	if err := ctx.Err(); err != nil {
		return eris.Wrap(err, "worker pool")
	}
	return nil
}

// KeySet is a thread-safe set for tracking visited keys.
type KeySet struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewKeySet creates an empty KeySet.
func NewKeySet() *KeySet {
	return &KeySet{seen: make(map[string]struct{})}
}

// Add returns true if the key was newly added, false if already present.
func (s *KeySet) Add(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[key]; exists {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}

// Size returns the number of unique keys tracked.
func (s *KeySet) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}

// Accumulator is an append-only result set safe for concurrent use.
type Accumulator[T any] struct {
	mu    sync.Mutex
	items []T
}

// Append adds items in the order given.
func (a *Accumulator[T]) Append(items ...T) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.items = append(a.items, items...)
}

// Items returns a copy of everything appended so far.
func (a *Accumulator[T]) Items() []T {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]T, len(a.items))
	copy(out, a.items)
	return out
}
