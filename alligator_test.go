package alligator

import "testing"

func newTestAllocator(t *testing.T, opts ...Option) *Allocator {
	t.Helper()
	cfg := NewConfig(opts...)
	return New(NewDevHeap(cfg), cfg)
}

func TestAlloc_SequentialSmallAddressesAscend(t *testing.T) {
	a := newTestAllocator(t)

	p1, err := a.Alloc(8, 8)
	if err != nil {
		t.Fatalf("alloc p1: %v", err)
	}
	p2, err := a.Alloc(8, 8)
	if err != nil {
		t.Fatalf("alloc p2: %v", err)
	}
	if p2-p1 != 8 {
		t.Fatalf("p2-p1 = %d, want 8", p2-p1)
	}
}

func TestAlloc_DeallocThenAllocReusesPointer(t *testing.T) {
	a := newTestAllocator(t)

	p1, err := a.Alloc(8, 8)
	if err != nil {
		t.Fatalf("alloc p1: %v", err)
	}
	if _, err := a.Alloc(8, 8); err != nil {
		t.Fatalf("alloc p2: %v", err)
	}
	a.Dealloc(p1, 8, 8)

	p3, err := a.Alloc(8, 8)
	if err != nil {
		t.Fatalf("alloc p3: %v", err)
	}
	if p3 != p1 {
		t.Fatalf("p3 = %d, want reuse of p1 = %d", p3, p1)
	}
}

func TestAlloc_ReturnedPointerRespectsAlignment(t *testing.T) {
	a := newTestAllocator(t)

	for _, align := range []uint32{1, 2, 4, 8, 16, 32} {
		ptr, err := a.Alloc(3, align)
		if err != nil {
			t.Fatalf("alloc align=%d: %v", align, err)
		}
		if ptr%align != 0 {
			t.Errorf("alloc align=%d returned ptr=%d, not aligned", align, ptr)
		}
	}
}

func TestAlloc_FillingMiniPageAllocatesFreshPage(t *testing.T) {
	a := newTestAllocator(t)

	// Size class for 8 bytes holds MiniPageDataBytes/8 = 256 segments.
	segCount := int(a.segCountForClass(MinSizeClass))
	ptrs := make([]uint32, 0, segCount+1)
	for i := 0; i < segCount+1; i++ {
		ptr, err := a.Alloc(8, 8)
		if err != nil {
			t.Fatalf("alloc #%d: %v", i, err)
		}
		ptrs = append(ptrs, ptr)
	}

	last := ptrs[len(ptrs)-1]
	prev := ptrs[len(ptrs)-2]
	if last-prev == 8 {
		t.Fatalf("expected the segCount+1'th alloc to land on a new MiniPage, got contiguous with previous")
	}
}

func TestAlloc_BigVsSmallRoutingBoundary(t *testing.T) {
	a := newTestAllocator(t)

	p1, err := a.Alloc(2048, 8)
	if err != nil {
		t.Fatalf("alloc 2048: %v", err)
	}
	p2, err := a.Alloc(2049, 8)
	if err != nil {
		t.Fatalf("alloc 2049: %v", err)
	}

	m := a.Metrics()
	if m.LiveByClass[MaxSizeClass] != 1 {
		t.Fatalf("expected one live allocation in the max small size class, got %d", m.LiveByClass[MaxSizeClass])
	}
	_ = p1
	_ = p2
}

func TestAlloc_BigAllocSplitAndReuse(t *testing.T) {
	a := newTestAllocator(t)

	big := 2*4096 + 8
	p1, err := a.Alloc(uint32(big), 8)
	if err != nil {
		t.Fatalf("alloc big: %v", err)
	}
	a.Dealloc(p1, uint32(big), 8)

	small := 8
	p2, err := a.Alloc(uint32(2049), 8)
	if err != nil {
		t.Fatalf("alloc after split: %v", err)
	}
	if p2 != p1 {
		t.Fatalf("expected split node reuse at p1=%d, got %d", p1, p2)
	}
	_ = small
}

func TestAlloc_OutOfHostMemory(t *testing.T) {
	a := newTestAllocator(t, WithMaxHostPages(1))

	var lastErr error
	for i := 0; i < 100000; i++ {
		if _, err := a.Alloc(2048, 8); err != nil {
			lastErr = err
			break
		}
	}
	if lastErr == nil {
		t.Fatal("expected an OutOfHostMemory error before exhausting the loop bound")
	}
	m := a.Metrics()
	if m.LastFailure == nil {
		t.Fatal("expected Metrics().LastFailure to be latched")
	}
}

func TestAlloc_UnsupportedAlignmentRejected(t *testing.T) {
	a := newTestAllocator(t)

	if _, err := a.Alloc(8, 3); err == nil {
		t.Fatal("expected an error for a non-power-of-two alignment")
	}
}

func TestRealloc_ShrinkCopiesPrefixOnly(t *testing.T) {
	a := newTestAllocator(t)

	p, err := a.Alloc(16, 8)
	if err != nil {
		t.Fatalf("alloc: %v", err)
	}
	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	a.heap.WriteBytes(p, payload)

	p2, err := a.Realloc(p, 16, 8, 8)
	if err != nil {
		t.Fatalf("realloc: %v", err)
	}
	got := a.heap.ReadBytes(p2, 8)
	for i, b := range payload {
		if got[i] != b {
			t.Fatalf("byte %d = %d, want %d", i, got[i], b)
		}
	}
}

func TestRealloc_ZeroNewSizeFreesAndReturnsZero(t *testing.T) {
	a := newTestAllocator(t)

	p, err := a.Alloc(16, 8)
	if err != nil {
		t.Fatalf("alloc: %v", err)
	}
	got, err := a.Realloc(p, 16, 8, 0)
	if err != nil {
		t.Fatalf("realloc to zero: %v", err)
	}
	if got != 0 {
		t.Fatalf("realloc to zero returned %d, want 0", got)
	}
}

func TestDealloc_NilPointerIsNoop(t *testing.T) {
	a := newTestAllocator(t)
	a.Dealloc(0, 8, 8)
	if m := a.Metrics(); m.Deallocations != 0 {
		t.Fatalf("Deallocations = %d, want 0", m.Deallocations)
	}
}

func TestStress_ManySizesInterleaved(t *testing.T) {
	a := newTestAllocator(t)

	sizes := []uint32{8, 16, 32, 64, 128, 256, 512, 1024, 2048, 4096}
	live := make(map[uint32]uint32)

	for round := 0; round < 3; round++ {
		for _, size := range sizes {
			ptr, err := a.Alloc(size, 8)
			if err != nil {
				t.Fatalf("alloc size=%d round=%d: %v", size, round, err)
			}
			live[ptr] = size
		}
	}

	for ptr, size := range live {
		a.Dealloc(ptr, size, 8)
	}

	m := a.Metrics()
	if m.BytesInUse != 0 {
		t.Fatalf("BytesInUse = %d after freeing everything, want 0", m.BytesInUse)
	}
}
