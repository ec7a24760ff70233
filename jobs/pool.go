// Package jobs runs independent background work, such as asset decoding, on a
// fixed set of worker goroutines. Jobs must not touch the ECS storage or the
// renderer; they produce results the main thread integrates after Wait.
package jobs

import (
	"errors"
	"runtime"
	"sync"

	"go.uber.org/zap"
)

var ErrPoolClosed = errors.New("jobs: pool closed")

// Pool is a bounded worker pool fed by a mutex/condition-variable guarded queue.
// Submitted jobs always run to completion; there is no cancellation.
type Pool struct {
	mu      sync.Mutex
	work    *sync.Cond // signalled when the queue gains a job or the pool closes
	idle    *sync.Cond // signalled when the queue drains and nothing is running
	queue   []func()
	active  int
	closed  bool
	workers sync.WaitGroup

	log *zap.Logger
}

// NewPool starts workers goroutines. workers <= 0 uses runtime.NumCPU().
func NewPool(workers int, log *zap.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if log == nil {
		log = zap.NewNop()
	}

	p := &Pool{log: log}
	p.work = sync.NewCond(&p.mu)
	p.idle = sync.NewCond(&p.mu)

	p.workers.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker(i)
	}
	log.Debug("job pool started", zap.Int("workers", workers))
	return p
}

// Submit enqueues job. It never blocks on the queue.
func (p *Pool) Submit(job func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPoolClosed
	}
	p.queue = append(p.queue, job)
	p.work.Signal()
	return nil
}

// Wait blocks until the queue is empty and no job is running.
// Jobs submitted by other goroutines while waiting are waited for as well.
func (p *Pool) Wait() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.queue) > 0 || p.active > 0 {
		p.idle.Wait()
	}
}

// Pending returns the number of queued plus running jobs.
func (p *Pool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue) + p.active
}

// Close stops accepting jobs, lets the queued ones finish and joins the workers.
// Calling Close more than once is a no-op.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.work.Broadcast()
	p.mu.Unlock()

	p.workers.Wait()
}

func (p *Pool) worker(n int) {
	defer p.workers.Done()

	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.work.Wait()
		}
		if len(p.queue) == 0 {
			// closed and drained
			p.mu.Unlock()
			return
		}
		job := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.active++
		p.mu.Unlock()

		p.run(n, job)

		p.mu.Lock()
		p.active--
		if len(p.queue) == 0 && p.active == 0 {
			p.idle.Broadcast()
		}
		p.mu.Unlock()
	}
}

// run executes job, recovering a panic so one bad job cannot take down a worker.
func (p *Pool) run(worker int, job func()) {
	defer func() {
		if rec := recover(); rec != nil {
			p.log.Error("job panic recovered",
				zap.Int("worker", worker),
				zap.Any("panic", rec),
			)
		}
	}()
	job()
}
