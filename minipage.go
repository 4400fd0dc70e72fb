package alligator

import "go.uber.org/zap"

// segCountForClass returns the number of segments a MiniPage of size class c
// holds: MiniPageDataBytes / (1<<c).
func (a *Allocator) segCountForClass(c uint8) uint32 {
	return a.cfg.MiniPageDataBytes / (uint32(1) << c)
}

// smallAlloc returns a fresh segment of size class c: reuse a free segment
// from the active MiniPage, then a free MiniPage already on the stack, and
// only fall back to carving a brand new one.
func (a *Allocator) smallAlloc(c uint8) (uint32, error) {
	for {
		if idx, ok := a.popFreeSeg(c); ok {
			active := a.activeMiniPage(c)
			h := a.headerAt(active)
			h.bitmapTestAndClear(idx)
			return h.dataOffset() + idx*(uint32(1)<<c), nil
		}

		if pageOff, ok := a.popFreeMiniPage(c); ok {
			a.swapActive(c, pageOff)
			a.refillFreeSegStack(c, pageOff)
			continue
		}

		newPage, err := a.createMiniPage(c)
		if err != nil {
			return 0, err
		}
		a.swapActive(c, newPage)
		a.refillFreeSegStack(c, newPage)
	}
}

// swapActive sets pageOff as the active MiniPage for class c, returning the
// previous active page (if any) to FreeMiniPageStack[c] when it still has
// free segments.
func (a *Allocator) swapActive(c uint8, pageOff uint32) {
	prev := a.activeMiniPage(c)
	a.setActiveMiniPage(c, pageOff)
	if prev == nullRef {
		return
	}
	segCount := a.segCountForClass(c)
	if a.headerAt(prev).popcount(segCount) > 0 {
		a.pushFreeMiniPage(c, prev)
	}
}

// refillFreeSegStack rebuilds FreeSegmentStack[c] from pageOff's bitmap.
// Bounded by BitmapBytes, so the walk is cheap regardless of size class.
// Pushed highest index first so the stack pops low-to-high, giving a fresh
// MiniPage's first allocations ascending addresses.
func (a *Allocator) refillFreeSegStack(c uint8, pageOff uint32) {
	a.resetFreeSegStack(c)
	h := a.headerAt(pageOff)
	segCount := a.segCountForClass(c)
	for i := segCount; i > 0; i-- {
		idx := i - 1
		byteIdx, bit := idx/8, uint8(1<<(idx%8))
		if h.bitmapByte(byteIdx)&bit != 0 {
			a.pushFreeSeg(c, idx)
		}
	}
}

// createMiniPage carves a new MiniPage at high_water, growing the host heap
// if necessary.
func (a *Allocator) createMiniPage(c uint8) (uint32, error) {
	stride := a.cfg.MiniPageStride()
	off := a.highWater()

	needed := off + stride
	for a.heap.SizeBytes() < needed {
		delta := needed - a.heap.SizeBytes()
		pages := (delta + a.cfg.HostPageBytes - 1) / a.cfg.HostPageBytes
		if _, err := a.growHeap(pages); err != nil {
			return 0, err
		}
	}
	a.setHighWater(off + stride)

	h := a.headerAt(off)
	h.setSizeClass(c)
	h.setFlags(0)
	h.setNext(nullRef)
	h.setPrev(nullRef)
	h.setLenBytes(0)
	h.fillBitmap(a.segCountForClass(c))

	a.logger().Debug("created MiniPage",
		zap.Uint32("offset", off), zap.Uint8("size_class", c))

	a.pushFreeMiniPage(c, off)
	return off, nil
}

// miniPageRegionStart locates the MiniPage header covering ptr: the region
// containing ptr begins at a fixed offset past MetaPage, quantized to the
// MiniPage stride.
func (a *Allocator) miniPageRegionStart(ptr uint32) uint32 {
	metaBytes := a.metaLayout.totalSize
	stride := a.cfg.MiniPageStride()
	return (ptr-metaBytes)/stride*stride + metaBytes
}

// smallDealloc frees the segment at ptr. The active MiniPage feeds the freed
// segment straight back into FreeSegmentStack[c] so an immediate re-alloc
// with no intervening allocations reuses the same address; a page that is
// not currently active only needs FreeMiniPageStack visibility, gained on
// the all-zero to at-least-one-free transition.
func (a *Allocator) smallDealloc(ptr uint32, c uint8) {
	regionStart := a.miniPageRegionStart(ptr)
	h := a.headerAt(regionStart)

	segIdx := (ptr - h.dataOffset()) >> c
	segCount := a.segCountForClass(c)

	transitioned := h.bitmapSet(segIdx, segCount)

	if regionStart == a.activeMiniPage(c) {
		a.pushFreeSeg(c, segIdx)
		return
	}

	if transitioned && !h.onFreeStack() {
		a.pushFreeMiniPage(c, regionStart)
	}
}
