package alligator

import "go.uber.org/zap"

// bigAlloc satisfies a big allocation of roundedLen bytes: a first-fit walk
// of the address-ordered big-allocation list, splitting the tail of an
// oversized free node when the remainder can itself hold a header plus one
// MiniPage stride.
func (a *Allocator) bigAlloc(roundedLen uint32) (uint32, error) {
	stride := a.cfg.MiniPageStride()

	cur := a.bigListHead()
	for cur != nullRef {
		h := a.headerAt(cur)
		if h.isFree() && h.lenBytes() >= roundedLen {
			h.setFree(false)

			remainder := h.lenBytes() - roundedLen
			if remainder >= stride+hdrFixedSize {
				a.splitBigNode(cur, roundedLen, remainder)
			}
			a.logger().Debug("reused big-alloc node", zap.Uint32("offset", cur))
			return h.dataOffset(), nil
		}
		cur = h.next()
	}

	off, err := a.appendBigNode(roundedLen)
	if err != nil {
		return 0, err
	}
	return a.headerAt(off).dataOffset(), nil
}

// splitBigNode carves a new free node out of the tail of node (which has
// just been marked allocated with a length still covering the whole
// region) and links it in immediately after node.
func (a *Allocator) splitBigNode(node, allocLen, remainderLen uint32) {
	h := a.headerAt(node)
	splitOff := h.dataOffset() + allocLen
	h.setLenBytes(allocLen)

	sh := a.headerAt(splitOff)
	sh.setSizeClass(bigSizeClass)
	sh.setFlags(0)
	sh.setFree(true)
	sh.setLenBytes(remainderLen - hdrFixedSize)
	sh.setPrev(node)
	sh.setNext(h.next())

	if h.next() != nullRef {
		a.headerAt(h.next()).setPrev(splitOff)
	} else {
		a.setBigListTail(splitOff)
	}
	h.setNext(splitOff)
}

// appendBigNode grows the heap and links a brand-new allocated node at
// high_water.
func (a *Allocator) appendBigNode(roundedLen uint32) (uint32, error) {
	off := a.highWater()
	// The node occupies a whole number of strides, so MiniPages carved after
	// it stay on the stride grid that miniPageRegionStart relies on.
	needed := off + roundUp(hdrFixedSize+roundedLen, a.cfg.MiniPageStride())

	for a.heap.SizeBytes() < needed {
		delta := needed - a.heap.SizeBytes()
		pages := (delta + a.cfg.HostPageBytes - 1) / a.cfg.HostPageBytes
		if _, err := a.growHeap(pages); err != nil {
			return 0, err
		}
	}
	a.setHighWater(needed)

	h := a.headerAt(off)
	h.setSizeClass(bigSizeClass)
	h.setFlags(0)
	h.setFree(false)
	h.setLenBytes(roundedLen)
	h.setPrev(a.bigListTail())
	h.setNext(nullRef)

	if tail := a.bigListTail(); tail != nullRef {
		a.headerAt(tail).setNext(off)
	} else {
		a.setBigListHead(off)
	}
	a.setBigListTail(off)

	a.logger().Debug("appended big-alloc node",
		zap.Uint32("offset", off), zap.Uint32("len", roundedLen))
	return off, nil
}

// bigDealloc frees the big-allocation region at ptr: mark it free, then
// coalesce with a free list neighbour on either side that lies less than one
// MiniPage stride past the end of the lower node, so that no MiniPage sits
// between the two.
func (a *Allocator) bigDealloc(ptr uint32) {
	node := a.bigHeaderOffsetFor(ptr)
	h := a.headerAt(node)
	h.setFree(true)
	stride := a.cfg.MiniPageStride()

	if next := h.next(); next != nullRef && a.headerAt(next).isFree() &&
		next-(h.dataOffset()+h.lenBytes()) < stride {
		a.coalesceBigNodes(node, next)
	}
	if prev := h.prev(); prev != nullRef && a.headerAt(prev).isFree() &&
		node-(a.headerAt(prev).dataOffset()+a.headerAt(prev).lenBytes()) < stride {
		a.coalesceBigNodes(prev, node)
	}
}

// bigHeaderOffsetFor returns the header offset immediately preceding ptr.
func (a *Allocator) bigHeaderOffsetFor(ptr uint32) uint32 {
	return ptr - hdrFixedSize
}

// coalesceBigNodes merges `right` into `left`, both free and adjacent in the
// address-ordered list.
func (a *Allocator) coalesceBigNodes(left, right uint32) {
	lh := a.headerAt(left)
	rh := a.headerAt(right)

	lh.setLenBytes(lh.lenBytes() + hdrFixedSize + rh.lenBytes())
	lh.setNext(rh.next())
	if rh.next() != nullRef {
		a.headerAt(rh.next()).setPrev(left)
	} else {
		a.setBigListTail(left)
	}
	a.logger().Debug("coalesced big-alloc nodes",
		zap.Uint32("left", left), zap.Uint32("right", right))
}
