package ecs

import "sync/atomic"

// Task is a unit of work dispatched to a ThreadPool worker. workerID
// identifies which worker slot is running it, letting a system index
// into its own per-worker Commands buffer (§4.10).
type Task func(workerID int)

// ThreadPool is a fixed-size pool of long-running workers reading from
// one bounded task channel; completion is signalled through a second
// bounded channel and wait_all blocks until the completion count matches
// the dispatch count (§4.10).
type ThreadPool struct {
	tasks      chan Task
	completion chan struct{}
	dispatched atomic.Int64
	completed  atomic.Int64
}

// NewThreadPool starts n workers reading from channels of the
// configured depth.
func NewThreadPool(n int) *ThreadPool {
	if n < 1 {
		n = 1
	}
	p := &ThreadPool{
		tasks:      make(chan Task, Config.DispatchQueueDepth),
		completion: make(chan struct{}, Config.DispatchQueueDepth),
	}
	for i := 0; i < n; i++ {
		go p.runWorker(i)
	}
	return p
}

func (p *ThreadPool) runWorker(id int) {
	for task := range p.tasks {
		task(id)
		p.completion <- struct{}{}
	}
}

// Dispatch enqueues task for some worker to run. Single-producer: only
// the scheduler's driving goroutine should call this between WaitAll
// calls.
func (p *ThreadPool) Dispatch(task Task) {
	p.dispatched.Add(1)
	p.tasks <- task
}

// WaitAll blocks until every task dispatched so far has completed.
func (p *ThreadPool) WaitAll() {
	for p.completed.Load() < p.dispatched.Load() {
		<-p.completion
		p.completed.Add(1)
	}
}

// Close shuts every worker down by closing the task channel. No further
// Dispatch calls are valid afterward.
func (p *ThreadPool) Close() {
	close(p.tasks)
}
