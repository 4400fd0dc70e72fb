package alligator

// MetaPage is the lazily-initialized bookkeeping region at the start of the
// heap. It is the allocator's entire global state — but it lives inside the
// managed heap itself, as plain bytes, so that servicing an allocation never
// requires the allocator itself to allocate. metaLayout is the pure,
// config-derived arithmetic that locates each field and stack within that
// region; it holds no allocator state of its own.

const metaGlobalHeaderSize = 16 // initialized(1)+pad(3) + highWater(4) + bigListHead(4) + bigListTail(4)

const (
	metaOffInitialized  = 0
	metaOffHighWater    = 4
	metaOffBigListHead  = 8
	metaOffBigListTail  = 12
)

// classLayout locates one size class's free-MiniPage stack, active-MiniPage
// slot, and free-segment stack within MetaPage.
type classLayout struct {
	sizeClass uint8

	miniPageCap   uint32 // entries
	miniPageCount uint32 // offset of the count field
	miniPageArr   uint32 // offset of entry 0 (u32 each)
	activeOff     uint32 // offset of the active-MiniPage-header ref (u32)

	segCap   uint32 // entries
	segCount uint32 // offset of the count field
	segArr   uint32 // offset of entry 0 (u16 each)

	end uint32 // offset just past this class's region
}

// metaLayout is the full MetaPage geometry for a Config.
type metaLayout struct {
	classes   []classLayout
	totalSize uint32
}

func newMetaLayout(cfg Config) metaLayout {
	n := int(cfg.MaxSizeClass) - int(cfg.MinSizeClass) + 1
	classes := make([]classLayout, n)
	off := uint32(metaGlobalHeaderSize)

	for i := 0; i < n; i++ {
		c := cfg.MinSizeClass + uint8(i)
		cl := classLayout{sizeClass: c}

		cl.miniPageCap = uint32(1) << c
		cl.miniPageCount = off
		off += 4
		cl.miniPageArr = off
		off += cl.miniPageCap * 4
		cl.activeOff = off
		off += 4

		segsPerPage := cfg.MiniPageDataBytes / (uint32(1) << c)
		cl.segCap = segsPerPage
		cl.segCount = off
		off += 4
		cl.segArr = off
		off += cl.segCap * 2

		cl.end = off
		classes[i] = cl
	}

	return metaLayout{classes: classes, totalSize: off}
}

func (l metaLayout) forClass(c uint8, cfg Config) classLayout {
	return l.classes[int(c)-int(cfg.MinSizeClass)]
}

// ensureInitialized reserves and zeroes MetaPage on first use, growing the
// host heap if it isn't big enough yet, then sets high_water to just past
// MetaPage.
func (a *Allocator) ensureInitialized() error {
	if a.heap.SizeBytes() > 0 && a.heap.ReadU8(metaOffInitialized) != 0 {
		return nil
	}

	metaBytes := a.metaLayout.totalSize
	for a.heap.SizeBytes() < metaBytes {
		pages := (metaBytes - a.heap.SizeBytes() + a.cfg.HostPageBytes - 1) / a.cfg.HostPageBytes
		if pages == 0 {
			pages = 1
		}
		if _, err := a.growHeap(pages); err != nil {
			return err
		}
	}

	zero := make([]byte, metaBytes)
	a.heap.WriteBytes(0, zero)

	for i := range a.metaLayout.classes {
		cl := a.metaLayout.classes[i]
		a.heap.WriteU32(cl.activeOff, nullRef)
	}
	a.heap.WriteU32(metaOffBigListHead, nullRef)
	a.heap.WriteU32(metaOffBigListTail, nullRef)
	a.setHighWater(metaBytes)
	a.heap.WriteU8(metaOffInitialized, 1)

	a.logger().Debug("metapage initialized")
	return nil
}

func (a *Allocator) highWater() uint32     { return a.heap.ReadU32(metaOffHighWater) }
func (a *Allocator) setHighWater(v uint32) { a.heap.WriteU32(metaOffHighWater, v) }

func (a *Allocator) bigListHead() uint32     { return a.heap.ReadU32(metaOffBigListHead) }
func (a *Allocator) setBigListHead(v uint32) { a.heap.WriteU32(metaOffBigListHead, v) }
func (a *Allocator) bigListTail() uint32     { return a.heap.ReadU32(metaOffBigListTail) }
func (a *Allocator) setBigListTail(v uint32) { a.heap.WriteU32(metaOffBigListTail, v) }

// activeMiniPage returns the header offset of the active MiniPage for size
// class c, or nullRef if none.
func (a *Allocator) activeMiniPage(c uint8) uint32 {
	cl := a.metaLayout.forClass(c, a.cfg)
	return a.heap.ReadU32(cl.activeOff)
}

func (a *Allocator) setActiveMiniPage(c uint8, off uint32) {
	cl := a.metaLayout.forClass(c, a.cfg)
	a.heap.WriteU32(cl.activeOff, off)
}

// pushFreeMiniPage pushes headerOff onto FreeMiniPageStack[c]. If the stack
// is already full, the push is silently skipped and the MiniPage becomes
// orphaned (still usable once it is again visited as the active page, never
// leaked as memory).
func (a *Allocator) pushFreeMiniPage(c uint8, headerOff uint32) bool {
	cl := a.metaLayout.forClass(c, a.cfg)
	count := a.heap.ReadU32(cl.miniPageCount)
	if count >= cl.miniPageCap {
		a.recordStackOverflow(c)
		return false
	}
	a.heap.WriteU32(cl.miniPageArr+count*4, headerOff)
	a.heap.WriteU32(cl.miniPageCount, count+1)
	a.headerAt(headerOff).setOnFreeStack(true)
	return true
}

func (a *Allocator) popFreeMiniPage(c uint8) (uint32, bool) {
	cl := a.metaLayout.forClass(c, a.cfg)
	count := a.heap.ReadU32(cl.miniPageCount)
	if count == 0 {
		return 0, false
	}
	count--
	off := a.heap.ReadU32(cl.miniPageArr + count*4)
	a.heap.WriteU32(cl.miniPageCount, count)
	a.headerAt(off).setOnFreeStack(false)
	return off, true
}

func (a *Allocator) pushFreeSeg(c uint8, idx uint32) {
	cl := a.metaLayout.forClass(c, a.cfg)
	count := a.heap.ReadU32(cl.segCount)
	// The active MiniPage can never have more free segments than it has
	// slots, so this stack cannot overflow while used correctly.
	a.heap.WriteU16(cl.segArr+count*2, uint16(idx))
	a.heap.WriteU32(cl.segCount, count+1)
}

func (a *Allocator) popFreeSeg(c uint8) (uint32, bool) {
	cl := a.metaLayout.forClass(c, a.cfg)
	count := a.heap.ReadU32(cl.segCount)
	if count == 0 {
		return 0, false
	}
	count--
	idx := a.heap.ReadU16(cl.segArr + count*2)
	a.heap.WriteU32(cl.segCount, count)
	return uint32(idx), true
}

func (a *Allocator) freeSegCount(c uint8) uint32 {
	cl := a.metaLayout.forClass(c, a.cfg)
	return a.heap.ReadU32(cl.segCount)
}

func (a *Allocator) resetFreeSegStack(c uint8) {
	cl := a.metaLayout.forClass(c, a.cfg)
	a.heap.WriteU32(cl.segCount, 0)
}
