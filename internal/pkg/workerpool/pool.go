// Package workerpool runs submitted tasks on a fixed number of goroutines.
package workerpool

import (
	"context"
	"errors"
	"sync"
)

var ErrClosed = errors.New("worker pool closed")

type Task func(ctx context.Context) error

// Result carries the outcome of one task. Key is the label given on Submit.
type Result struct {
	Key string
	Err error
}

type job struct {
	key  string
	task Task
}

type Pool struct {
	workers int
	tasks   chan job
	wg      sync.WaitGroup

	// mu is held for reading across every send on tasks so Close cannot
	// close the channel under an in-flight Submit.
	mu     sync.RWMutex
	closed bool
}

func New(workers, buffer int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}
	return &Pool{
		workers: workers,
		tasks:   make(chan job, buffer),
	}
}

// Submit queues t, blocking while the buffer is full. A concurrent Close
// waits for blocked Submits to finish.
func (p *Pool) Submit(ctx context.Context, key string, t Task) error {
	if p == nil || t == nil {
		return nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.tasks <- job{key: key, task: t}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting tasks. Workers drain what is queued.
func (p *Pool) Close() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.tasks)
}

// Run starts the workers. The returned channel closes once every worker
// has exited, which happens after Close or when ctx is done.
func (p *Pool) Run(ctx context.Context) <-chan Result {
	if p == nil {
		out := make(chan Result)
		close(out)
		return out
	}
	out := make(chan Result, p.workers)

	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case j, ok := <-p.tasks:
					if !ok {
						return
					}
					err := j.task(ctx)
					select {
					case <-ctx.Done():
						return
					case out <- Result{Key: j.key, Err: err}:
					}
				}
			}
		}()
	}

	go func() {
		p.wg.Wait()
		close(out)
	}()

	return out
}
