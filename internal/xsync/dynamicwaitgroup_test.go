// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package xsync

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDynamicWaitGroup(t *testing.T) {
	wg := NewDynamicWaitGroup()

	// Wait on a zero counter returns immediately.
	wg.Wait()

	var done atomic.Int32
	wg.Add(1)
	waiterFinished := make(chan struct{})
	go func() {
		wg.Wait()
		close(waiterFinished)
	}()

	// Counter can grow while someone is already waiting.
	wg.Add(2)
	for range 3 {
		go func() {
			time.Sleep(time.Millisecond)
			done.Add(1)
			wg.Done()
		}()
	}

	select {
	case <-waiterFinished:
	case <-time.After(5 * time.Second):
		t.Fatal("Wait did not return after all Done calls")
	}
	assert.Equal(t, int32(3), done.Load())
}

func TestDynamicWaitGroupNegativePanics(t *testing.T) {
	wg := NewDynamicWaitGroup()
	require.Panics(t, func() { wg.Done() })
}
