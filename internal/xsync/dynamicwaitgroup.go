// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package xsync implements extra synchronization tools used by the sharded
// sampling loop.
package xsync

import (
	"sync"

	"github.com/pkg/errors"
)

// DynamicWaitGroup is a WaitGroup-like synchronization primitive that allows
// the count to be changed (new values added) while someone is waiting for it.
//
// The sharder uses it for fan-out/fan-in: shards are added as workers become
// available, possibly after Wait has already been called.
type DynamicWaitGroup struct {
	mu    sync.Mutex
	cond  *sync.Cond
	count int64
}

// NewDynamicWaitGroup creates a new DynamicWaitGroup.
func NewDynamicWaitGroup() *DynamicWaitGroup {
	wg := &DynamicWaitGroup{}
	wg.cond = sync.NewCond(&wg.mu)
	return wg
}

// Add changes the counter by the given delta. If the counter becomes zero it
// wakes all waiting goroutines; if it would go negative it panics, like the
// standard sync.WaitGroup.
func (wg *DynamicWaitGroup) Add(delta int) {
	wg.mu.Lock()
	defer wg.mu.Unlock()

	wg.count += int64(delta)
	if wg.count < 0 {
		panic(errors.Errorf("DynamicWaitGroup: negative counter"))
	}
	if wg.count == 0 {
		wg.cond.Broadcast()
	}
}

// Done decrements the counter by one.
func (wg *DynamicWaitGroup) Done() {
	wg.Add(-1)
}

// Wait blocks until the counter is zero.
func (wg *DynamicWaitGroup) Wait() {
	wg.mu.Lock()
	defer wg.mu.Unlock()

	// Loop because sync.Cond.Wait can wake spuriously.
	for wg.count > 0 {
		wg.cond.Wait()
	}
}
