// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package sharder

import (
	"runtime"
	"sync"
)

// Pool is a pool of workers with a soft parallelism target.
//
// The actual number of goroutines may be higher than the target because of
// waits and such; the target bounds how much work runs truly in parallel.
type Pool struct {
	// maxParallelism is a soft target on the limit of parallel work to do.
	maxParallelism int
	mu             sync.Mutex
	cond           sync.Cond // Signaled whenever numRunning is decreased.
	numRunning     int
}

// New returns a new Pool of workers with the default parallelism
// (runtime.NumCPU()).
func New() *Pool {
	p := &Pool{}
	p.maxParallelism = runtime.NumCPU()
	p.cond = sync.Cond{L: &p.mu}
	return p
}

// IsEnabled returns whether parallelism is enabled (maxParallelism != 0).
func (p *Pool) IsEnabled() bool { return p.maxParallelism != 0 }

// IsUnlimited returns whether parallelism is unlimited (maxParallelism < 0).
func (p *Pool) IsUnlimited() bool { return p.maxParallelism < 0 }

// MaxParallelism is the soft target for parallelism.
// If 0, parallelism is disabled and work runs inline.
// If negative, parallelism is unlimited.
func (p *Pool) MaxParallelism() int { return p.maxParallelism }

// SetMaxParallelism sets the maxParallelism.
//
// Only change the parallelism before any workers start running; changing it
// during execution is undefined.
func (p *Pool) SetMaxParallelism(maxParallelism int) {
	p.maxParallelism = maxParallelism
}

// lockedIsFull returns whether all available workers are in use.
//
// It must be called with p.mu acquired.
func (p *Pool) lockedIsFull() bool {
	if p.maxParallelism == 0 {
		return true
	} else if p.maxParallelism < 0 {
		return false
	}
	return p.numRunning >= p.maxParallelism
}

// WaitToStart waits until there is a worker available and then runs the task
// on it.
//
// If parallelism is disabled (maxParallelism == 0), it runs the task inline
// and returns when it is finished.
func (p *Pool) WaitToStart(task func()) {
	if p.IsUnlimited() {
		go task()
		return
	} else if p.maxParallelism == 0 {
		task()
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for p.lockedIsFull() {
		p.cond.Wait()
	}
	p.lockedRunTaskInGoroutine(task)
}

// lockedRunTaskInGoroutine runs task keeping tabs on p.numRunning.
//
// It must be called with p.mu acquired.
func (p *Pool) lockedRunTaskInGoroutine(task func()) {
	p.numRunning++
	go func() {
		task()
		p.mu.Lock()
		p.numRunning--
		p.cond.Signal()
		p.mu.Unlock()
	}()
}

// StartIfAvailable runs the task in a separate goroutine if there are workers
// left. It returns true if it found a worker to run the task, false
// otherwise.
//
// It's up to the caller to synchronize the end of the task execution.
func (p *Pool) StartIfAvailable(task func()) bool {
	if p.IsUnlimited() {
		go task()
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lockedIsFull() {
		return false
	}
	p.lockedRunTaskInGoroutine(task)
	return true
}
