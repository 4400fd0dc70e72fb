package alligator

import (
	"go.uber.org/zap"

	"github.com/Noah-Huppert/alligator-wasm-alloc/errors"
)

// Metrics is a snapshot of allocator counters: allocations, deallocations,
// bytes-in-use, current high-water, per-class live counts, and the most
// recent failure cause.
type Metrics struct {
	Allocations   uint64
	Deallocations uint64
	BytesInUse    uint64
	HighWater     uint32
	LiveByClass   map[uint8]uint64
	LastFailure   *errors.Error
}

// Metrics returns a snapshot of the allocator's counters. Safe to call at
// any time; it never mutates allocator state.
func (a *Allocator) Metrics() Metrics {
	live := make(map[uint8]uint64, len(a.liveByClass))
	for c, n := range a.liveByClass {
		live[c] = n
	}
	m := Metrics{
		Allocations:   a.allocCount,
		Deallocations: a.deallocCount,
		BytesInUse:    a.bytesInUse,
		LiveByClass:   live,
		LastFailure:   a.lastFailure,
	}
	if a.heap != nil && a.initialized() {
		m.HighWater = a.highWater()
	}
	return m
}

func (a *Allocator) recordAlloc(c uint8, big bool, nBytes uint32) {
	a.allocCount++
	a.bytesInUse += uint64(nBytes)
	if !big {
		a.liveByClass[c]++
	}
}

func (a *Allocator) recordDealloc(c uint8, big bool, nBytes uint32) {
	a.deallocCount++
	if a.bytesInUse >= uint64(nBytes) {
		a.bytesInUse -= uint64(nBytes)
	}
	if !big && a.liveByClass[c] > 0 {
		a.liveByClass[c]--
	}
}

func (a *Allocator) recordFailure(err *errors.Error) {
	a.lastFailure = err
	switch err.Kind {
	case errors.KindOutOfHostMemory:
		a.logger().Warn("allocation failed: out of host memory",
			zap.Uint32("size", err.Size), zap.Uint32("align", err.Align))
	default:
		a.logger().Debug("allocation failed", zap.String("kind", string(err.Kind)))
	}
}

// recordStackOverflow logs a full FreeMiniPageStack for debug visibility.
// The condition is never surfaced to the caller — the affected MiniPage is
// simply orphaned until it becomes active again.
func (a *Allocator) recordStackOverflow(sizeClass uint8) {
	a.logger().Debug("free-MiniPage stack full, orphaning page",
		zap.Uint8("size_class", sizeClass))
}
