// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package sharder splits batched work into contiguous shards sized by an
// estimated per-unit cost and runs them on a pool of workers.
//
// Shard boundaries are a deterministic function of the work size, the cost
// estimate and the pool parallelism -- never of scheduling order -- so
// callers that derive per-unit state from unit indices (like per-row RNG
// counter offsets) get the same result no matter how the shards are
// scheduled.
package sharder

import (
	"github.com/gomlx/multinomial/internal/xsync"
	"k8s.io/klog/v2"
)

// minCostPerShard is the estimated cost (in rough cycles) below which work is
// not worth handing to another goroutine. A tuning parameter, not a
// correctness requirement.
const minCostPerShard = 10_000

// Shard calls fn over disjoint contiguous ranges [start, limit) covering
// [0, total), possibly in parallel, and blocks until all ranges completed.
//
// costPerUnit is the estimated cost of processing one unit, in rough cycles;
// cheap work is run inline in fewer (possibly one) shards. fn must write only
// to state owned by its range: ranges never overlap, so no synchronization is
// needed between them.
func Shard(pool *Pool, total int, costPerUnit float64, fn func(start, limit int)) {
	if total <= 0 {
		return
	}
	numShards := numShardsFor(pool, total, costPerUnit)
	if numShards <= 1 {
		fn(0, total)
		return
	}
	klog.V(2).Infof("sharder.Shard: total=%d costPerUnit=%.0f -> %d shards", total, costPerUnit, numShards)

	blockSize := (total + numShards - 1) / numShards
	wg := xsync.NewDynamicWaitGroup()
	start := 0
	for start < total {
		limit := min(start+blockSize, total)
		if limit >= total {
			// Run the last shard on the calling goroutine.
			fn(start, limit)
			break
		}
		shardStart, shardLimit := start, limit
		start = limit
		wg.Add(1)
		if !pool.StartIfAvailable(func() {
			defer wg.Done()
			fn(shardStart, shardLimit)
		}) {
			// No worker available: run inline.
			fn(shardStart, shardLimit)
			wg.Done()
		}
	}
	wg.Wait()
}

// numShardsFor caps the shard count by both the pool parallelism and the
// total estimated cost of the work.
func numShardsFor(pool *Pool, total int, costPerUnit float64) int {
	if !pool.IsEnabled() || total == 1 {
		return 1
	}
	if costPerUnit < 0 {
		costPerUnit = 0
	}
	byCost := int(float64(total) * costPerUnit / minCostPerShard)
	byWorkers := pool.MaxParallelism()
	if pool.IsUnlimited() || byWorkers > total {
		byWorkers = total
	}
	return max(1, min(byCost, byWorkers))
}
