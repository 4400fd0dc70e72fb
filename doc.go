// Package alligator implements a real-time heap allocator for WebAssembly
// linear memory.
//
// The allocator services general-purpose allocation/deallocation requests
// against a host-provided backing store that can only grow, never shrink.
// It targets O(1) allocation and deallocation for objects up to 2 KiB via a
// size-classed MiniPage slab subsystem, falling back to a first-fit linked
// list of Big-Allocation regions for larger requests.
//
// # Architecture Overview
//
//	alligator/                Allocator facade, size-class routing, MetaPage,
//	                          MiniPage, BigAlloc, and the Heap adapters
//	                          (DevHeap, WazeroHeap) — one cohesive package,
//	                          mirroring the teacher's transcoder layout
//	├── errors/                Structured error types surfaced to callers
//	└── cmd/allocdemo/         CLI and interactive TUI for manual exercising
//
// # Quick Start
//
//	a := alligator.New(alligator.NewDevHeap(cfg), cfg)
//	p, err := a.Alloc(64, 8)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	a.Dealloc(p, 64, 8)
//
// # Memory Model
//
// Allocations are addressed as byte offsets from the backing store's base,
// not raw pointers, so the design tolerates a relocating backing store on
// development targets. WASM linear memory can only grow; freed memory is
// recycled within the heap but never returned to the host.
//
// # Concurrency
//
// The allocator assumes a single-threaded cooperative mutator, matching the
// WebAssembly MVP execution model. It is not safe for concurrent use from
// multiple goroutines without external synchronization.
package alligator
