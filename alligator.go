package alligator

import (
	"go.uber.org/zap"

	"github.com/Noah-Huppert/alligator-wasm-alloc/errors"
)

// Allocator is the top-level facade: the single instance a host installs as
// its allocator. It owns no dynamic Go-side bookkeeping beyond the Heap it
// was given, a handful of counters, and a derived, read-only MetaPage
// layout — all state that servicing an allocation could mutate lives inside
// the heap itself, so the allocator stays safely reentrant from guest code.
type Allocator struct {
	heap       Heap
	cfg        Config
	metaLayout metaLayout
	log        *zap.Logger

	allocCount   uint64
	deallocCount uint64
	bytesInUse   uint64
	liveByClass  map[uint8]uint64
	lastFailure  *errors.Error
}

// AllocatorOption configures an Allocator at construction time, beyond the
// compile-time tunables carried by Config.
type AllocatorOption func(*Allocator)

// WithLogger attaches a *zap.Logger to this Allocator, overriding the
// package-level default from SetLogger.
func WithLogger(l *zap.Logger) AllocatorOption {
	return func(a *Allocator) {
		a.log = l
	}
}

// New builds an Allocator over heap using cfg (see DefaultConfig / NewConfig)
// and any AllocatorOptions.
func New(heap Heap, cfg Config, opts ...AllocatorOption) *Allocator {
	a := &Allocator{
		heap:        heap,
		cfg:         cfg,
		metaLayout:  newMetaLayout(cfg),
		liveByClass: make(map[uint8]uint64, int(cfg.MaxSizeClass)-int(cfg.MinSizeClass)+1),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Allocator) initialized() bool {
	return a.heap.SizeBytes() >= a.metaLayout.totalSize && a.heap.ReadU8(metaOffInitialized) != 0
}

// Alloc returns a pointer to a fresh region of at least size bytes, aligned
// to align. Returns 0 (an invalid pointer, since offset 0 always falls
// inside MetaPage) on failure; the failure cause is latched into
// Metrics().LastFailure.
func (a *Allocator) Alloc(size, align uint32) (uint32, error) {
	if err := a.ensureInitialized(); err != nil {
		a.recordFailure(err.(*errors.Error))
		return 0, err
	}

	rr, err := a.route(size, align)
	if err != nil {
		e := err.(*errors.Error)
		e.Size, e.Align = size, align
		a.recordFailure(e)
		return 0, e
	}

	if rr.big {
		ptr, err := a.bigAlloc(rr.bigLen)
		if err != nil {
			e := asAllocError(err, size, align)
			a.recordFailure(e)
			return 0, e
		}
		a.recordAlloc(bigSizeClass, true, rr.bigLen)
		return ptr, nil
	}

	ptr, err := a.smallAlloc(rr.sizeClass)
	if err != nil {
		e := asAllocError(err, size, align)
		a.recordFailure(e)
		return 0, e
	}
	a.recordAlloc(rr.sizeClass, false, uint32(1)<<rr.sizeClass)
	return ptr, nil
}

func asAllocError(err error, size, align uint32) *errors.Error {
	e, ok := err.(*errors.Error)
	if !ok {
		e = errors.New(errors.PhaseAlloc, errors.KindOutOfHostMemory).Cause(err).Build()
	}
	e.Size, e.Align = size, align
	return e
}

// Dealloc frees the region at ptr. size and align are the values the caller
// originally passed to Alloc; the header is authoritative and is used to
// route to small_dealloc or big_dealloc, but a mismatch against the
// caller-supplied size/align is reported through the logger for
// diagnostics. A header whose size class is neither a small class nor the
// big-allocation sentinel is fatal: Dealloc panics with a CorruptHeader error.
func (a *Allocator) Dealloc(ptr, size, align uint32) {
	if ptr == 0 {
		return
	}

	// The caller-supplied size/align picks which of the two header-lookup
	// formulas to apply (small regions round down to a MiniPage boundary,
	// big regions sit immediately before ptr); the header's own size_class
	// field is then authoritative for dispatch.
	rr, routeErr := a.route(size, align)
	wantSmall := routeErr == nil && !rr.big

	regionOff := a.bigHeaderOffsetFor(ptr)
	if wantSmall {
		regionOff = a.miniPageRegionStart(ptr)
	}
	headerClass := a.headerAt(regionOff).sizeClass()

	switch {
	case headerClass == bigSizeClass:
		if wantSmall {
			// Caller's size/align disagreed with the header; header wins.
			regionOff = a.bigHeaderOffsetFor(ptr)
			a.logger().Debug("dealloc: size/align routed small, header says big",
				zap.Uint32("ptr", ptr))
		}
		h := a.headerAt(regionOff)
		lenBytes := h.lenBytes()
		a.bigDealloc(ptr)
		a.recordDealloc(bigSizeClass, true, lenBytes)

	case headerClass >= a.cfg.MinSizeClass && headerClass <= a.cfg.MaxSizeClass:
		if !wantSmall {
			regionOff = a.miniPageRegionStart(ptr)
			headerClass = a.headerAt(regionOff).sizeClass()
			a.logger().Debug("dealloc: size/align routed big, header says small",
				zap.Uint32("ptr", ptr))
		}
		a.smallDealloc(ptr, headerClass)
		a.recordDealloc(headerClass, false, uint32(1)<<headerClass)

	default:
		panic(errors.CorruptHeader(regionOff, headerClass))
	}
}

// Realloc resizes the region at ptr: allocate a new region, copy
// min(old,new) bytes, free the old region.
func (a *Allocator) Realloc(ptr, oldSize, align, newSize uint32) (uint32, error) {
	if ptr == 0 {
		return a.Alloc(newSize, align)
	}
	if newSize == 0 {
		a.Dealloc(ptr, oldSize, align)
		return 0, nil
	}

	newPtr, err := a.Alloc(newSize, align)
	if err != nil {
		return 0, err
	}

	n := oldSize
	if newSize < n {
		n = newSize
	}
	a.heap.WriteBytes(newPtr, a.heap.ReadBytes(ptr, n))
	a.Dealloc(ptr, oldSize, align)
	return newPtr, nil
}

// growHeap grows the backing heap and translates a host failure into a
// structured OutOfHostMemory error, honoring Config.MaxHostPages.
func (a *Allocator) growHeap(deltaPages uint32) (uint32, error) {
	curPages := a.heap.SizeBytes() / a.cfg.HostPageBytes
	if curPages+deltaPages > a.cfg.MaxHostPages {
		return 0, errors.OutOfHostMemory(errors.PhaseGrow, deltaPages, nil)
	}
	old, err := a.heap.Grow(deltaPages)
	if err != nil {
		return 0, errors.OutOfHostMemory(errors.PhaseGrow, deltaPages, err)
	}
	return old, nil
}
