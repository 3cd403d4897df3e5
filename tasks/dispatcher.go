// Package tasks runs detached, best-effort background work after a request
// has already been answered. Nothing here is durable: queued tasks are lost
// on crash and failed tasks are never retried.
package tasks

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

type Task func(ctx context.Context) error

type job struct {
	name string
	fn   Task
}

type Dispatcher struct {
	queue   chan job
	timeout time.Duration
	report  Reporter

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(workers, queueSize int, timeout time.Duration, report Reporter) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	if report == nil {
		report = nopReporter{}
	}

	d := &Dispatcher{
		queue:   make(chan job, queueSize),
		timeout: timeout,
		report:  report,
	}
	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.worker()
	}
	return d
}

// Submit enqueues fn without blocking. It returns false when the task was
// dropped because the queue is full or the dispatcher is closed.
func (d *Dispatcher) Submit(name string, fn Task) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		log.Printf("⚠️ Dispatcher closed, dropping task %s", name)
		return false
	}
	select {
	case d.queue <- job{name: name, fn: fn}:
		return true
	default:
		log.Printf("⚠️ Task queue full, dropping task %s", name)
		d.report.Report(name, fmt.Errorf("task queue full"))
		return false
	}
}

// Close stops accepting tasks and waits for the queued ones to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.queue {
		d.run(j)
	}
}

func (d *Dispatcher) run(j job) {
	ctx := context.Background()
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return j.fn(ctx)
	}()

	if err != nil {
		log.Printf("🔥 Background task %s failed: %v", j.name, err)
		d.report.Report(j.name, err)
	}
}
