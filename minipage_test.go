package alligator

import "testing"

func TestSmallAlloc_FillsActivePageBeforeCreatingAnother(t *testing.T) {
	a := newTestAllocator(t)
	if err := a.ensureInitialized(); err != nil {
		t.Fatalf("init: %v", err)
	}
	const c = uint8(MinSizeClass)
	segCount := a.segCountForClass(c)

	first, err := a.smallAlloc(c)
	if err != nil {
		t.Fatalf("smallAlloc: %v", err)
	}
	active := a.activeMiniPage(c)

	for i := uint32(1); i < segCount; i++ {
		ptr, err := a.smallAlloc(c)
		if err != nil {
			t.Fatalf("smallAlloc #%d: %v", i, err)
		}
		if a.activeMiniPage(c) != active {
			t.Fatalf("active page changed before the page was full (alloc #%d)", i)
		}
		_ = ptr
	}

	if _, err := a.smallAlloc(c); err != nil {
		t.Fatalf("smallAlloc after fill: %v", err)
	}
	if a.activeMiniPage(c) == active {
		t.Fatal("expected a new active MiniPage once the first filled up")
	}
	_ = first
}

func TestSmallDealloc_ActivePageFeedsSegStackDirectly(t *testing.T) {
	a := newTestAllocator(t)
	if err := a.ensureInitialized(); err != nil {
		t.Fatalf("init: %v", err)
	}
	const c = uint8(MinSizeClass)

	p1, err := a.smallAlloc(c)
	if err != nil {
		t.Fatalf("smallAlloc p1: %v", err)
	}
	if _, err := a.smallAlloc(c); err != nil {
		t.Fatalf("smallAlloc p2: %v", err)
	}

	a.smallDealloc(p1, c)

	p3, err := a.smallAlloc(c)
	if err != nil {
		t.Fatalf("smallAlloc p3: %v", err)
	}
	if p3 != p1 {
		t.Fatalf("p3 = %d, want reuse of p1 = %d", p3, p1)
	}
}

func TestSwapActive_FullPageIsReplacedAsActive(t *testing.T) {
	a := newTestAllocator(t)
	if err := a.ensureInitialized(); err != nil {
		t.Fatalf("init: %v", err)
	}
	const c = uint8(MinSizeClass)
	segCount := a.segCountForClass(c)

	first, err := a.smallAlloc(c)
	if err != nil {
		t.Fatalf("smallAlloc: %v", err)
	}
	firstPage := a.miniPageRegionStart(first)

	// Leave one segment free on the first page, then force a page swap by
	// exhausting the rest of it.
	a.smallDealloc(first, c)
	for i := uint32(0); i < segCount-1; i++ {
		if _, err := a.smallAlloc(c); err != nil {
			t.Fatalf("smallAlloc filling page: %v", err)
		}
	}
	// The loop above handed the freed segment out first, so one segment of
	// the page is still on the stack; one more alloc consumes it without
	// creating a new page.
	last, err := a.smallAlloc(c)
	if err != nil {
		t.Fatalf("smallAlloc last seg: %v", err)
	}
	if a.miniPageRegionStart(last) != firstPage {
		t.Fatal("expected the last allocation to still land on the first page")
	}

	// Now the first page is full; the next alloc must create/activate a
	// different page, and the first page (fully used) must not reappear on
	// FreeMiniPageStack.
	if _, err := a.smallAlloc(c); err != nil {
		t.Fatalf("smallAlloc forcing swap: %v", err)
	}
	if a.activeMiniPage(c) == firstPage {
		t.Fatal("expected active page to change once firstPage filled")
	}
}

func TestMiniPageRegionStart_QuantizesToStride(t *testing.T) {
	a := newTestAllocator(t)
	if err := a.ensureInitialized(); err != nil {
		t.Fatalf("init: %v", err)
	}
	const c = uint8(MinSizeClass)

	off, err := a.createMiniPage(c)
	if err != nil {
		t.Fatalf("createMiniPage: %v", err)
	}
	h := a.headerAt(off)
	ptr := h.dataOffset() + 3*8

	if got := a.miniPageRegionStart(ptr); got != off {
		t.Fatalf("miniPageRegionStart(%d) = %d, want %d", ptr, got, off)
	}
}
