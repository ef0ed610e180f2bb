// Package workpool runs submitted tasks on a fixed set of long-lived
// goroutines.
//
// A [Pool] is created once and reused across many calls, so callers pay the
// goroutine start-up cost a single time. [Submit] enqueues a task and returns
// a [Handle] immediately; [Handle.Wait] blocks until that task finished and
// returns its result or its error.
//
// The queue is unbounded: Submit never blocks. Callers are expected to submit
// a bounded number of tasks per operation (one per partition of their input),
// not one per element.
//
// Example:
//
//	pool := workpool.New(0) // GOMAXPROCS workers
//	defer pool.Close()
//
//	h := workpool.Submit(pool, func() (int, error) {
//	    return sum(chunk), nil
//	})
//
//	total, err := h.Wait()
package workpool

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
)

var (
	// ErrPoolClosed is returned by handles of tasks submitted after [Pool.Close].
	ErrPoolClosed = errors.New("worker pool is closed")

	// ErrTaskPanicked wraps the value of a panic raised inside a task.
	ErrTaskPanicked = errors.New("task panicked")
)

// Pool is a fixed-size set of worker goroutines consuming a FIFO task queue.
//
// Pool is safe for concurrent use. The queue is the only state shared
// between workers; tasks are expected to synchronize anything else they touch.
type Pool struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool

	workers int
	wg      sync.WaitGroup
}

// New starts a pool with the given number of workers. workers <= 0 means
// [runtime.GOMAXPROCS].
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	p := &Pool{workers: workers}
	p.cond = sync.NewCond(&p.mu)

	p.wg.Add(workers)

	for range workers {
		go p.work()
	}

	return p
}

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int {
	return p.workers
}

// Pending returns the number of queued tasks that no worker has picked up yet.
func (p *Pool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.queue)
}

// Close stops accepting tasks, runs every task that is still queued, and
// waits for the workers to exit. No queued task is dropped.
//
// Close is idempotent.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.cond.Broadcast()
	p.wg.Wait()
}

func (p *Pool) enqueue(task func()) bool {
	p.mu.Lock()

	if p.closed {
		p.mu.Unlock()

		return false
	}

	p.queue = append(p.queue, task)
	p.mu.Unlock()

	p.cond.Signal()

	return true
}

func (p *Pool) work() {
	defer p.wg.Done()

	for {
		p.mu.Lock()

		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}

		if len(p.queue) == 0 {
			// Closed and drained.
			p.mu.Unlock()

			return
		}

		task := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]

		p.mu.Unlock()

		task()
	}
}

// Handle is the pending result of a submitted task.
type Handle[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Wait blocks until the task has finished and returns its result. If the
// task returned an error or panicked, Wait returns that failure. Wait may be
// called any number of times, from any goroutine.
func (h *Handle[T]) Wait() (T, error) {
	<-h.done

	return h.value, h.err
}

// Done returns a channel that is closed once the task has finished.
func (h *Handle[T]) Done() <-chan struct{} {
	return h.done
}

// Submit enqueues fn on p and returns its handle without waiting for it to
// run. If p is closed, the handle fails with [ErrPoolClosed].
func Submit[T any](p *Pool, fn func() (T, error)) *Handle[T] {
	h := &Handle[T]{done: make(chan struct{})}

	task := func() {
		defer close(h.done)

		defer func() {
			if r := recover(); r != nil {
				var zero T

				h.value = zero
				h.err = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
			}
		}()

		h.value, h.err = fn()
	}

	if !p.enqueue(task) {
		h.err = ErrPoolClosed
		close(h.done)
	}

	return h
}

// WaitAll waits for every handle, in order, and returns their results in the
// same order. It never returns early: all tasks have finished when WaitAll
// returns. If any task failed, the results are discarded and the failures
// are returned joined, each tagged with its task index.
func WaitAll[T any](handles []*Handle[T]) ([]T, error) {
	results := make([]T, len(handles))

	var errs []error

	for i, h := range handles {
		v, err := h.Wait()
		if err != nil {
			errs = append(errs, fmt.Errorf("task %d: %w", i, err))

			continue
		}

		results[i] = v
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return results, nil
}
