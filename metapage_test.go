package alligator

import "testing"

func TestEnsureInitialized_IdempotentAndZeroesMetaPage(t *testing.T) {
	a := newTestAllocator(t)

	if err := a.ensureInitialized(); err != nil {
		t.Fatalf("first ensureInitialized: %v", err)
	}
	hw1 := a.highWater()

	if err := a.ensureInitialized(); err != nil {
		t.Fatalf("second ensureInitialized: %v", err)
	}
	if a.highWater() != hw1 {
		t.Fatalf("high_water changed on repeat init: %d -> %d", hw1, a.highWater())
	}

	if a.bigListHead() != nullRef || a.bigListTail() != nullRef {
		t.Fatal("expected an empty big-alloc list after init")
	}
	for c := a.cfg.MinSizeClass; c <= a.cfg.MaxSizeClass; c++ {
		if a.activeMiniPage(c) != nullRef {
			t.Fatalf("class %d: expected no active MiniPage after init", c)
		}
	}
}

func TestFreeMiniPageStack_PushPopOrder(t *testing.T) {
	a := newTestAllocator(t)
	if err := a.ensureInitialized(); err != nil {
		t.Fatalf("init: %v", err)
	}

	const c = uint8(3)
	if !a.pushFreeMiniPage(c, 1000) {
		t.Fatal("push 1000 should succeed")
	}
	if !a.pushFreeMiniPage(c, 2000) {
		t.Fatal("push 2000 should succeed")
	}
	if off, ok := a.popFreeMiniPage(c); !ok || off != 2000 {
		t.Fatalf("pop = (%d, %v), want (2000, true)", off, ok)
	}
	if off, ok := a.popFreeMiniPage(c); !ok || off != 1000 {
		t.Fatalf("pop = (%d, %v), want (1000, true)", off, ok)
	}
	if _, ok := a.popFreeMiniPage(c); ok {
		t.Fatal("pop on empty stack should fail")
	}
}

func TestFreeMiniPageStack_OverflowSkipsPush(t *testing.T) {
	a := newTestAllocator(t, WithMaxSizeClass(MinSizeClass))
	if err := a.ensureInitialized(); err != nil {
		t.Fatalf("init: %v", err)
	}

	const c = uint8(MinSizeClass)
	cl := a.metaLayout.forClass(c, a.cfg)
	for i := uint32(0); i < cl.miniPageCap; i++ {
		if !a.pushFreeMiniPage(c, 1000+i*4) {
			t.Fatalf("push #%d should succeed, stack capacity is %d", i, cl.miniPageCap)
		}
	}
	if a.pushFreeMiniPage(c, 999999) {
		t.Fatal("push past capacity should be silently skipped, not succeed")
	}
}

func TestFreeSegStack_PushPopOrder(t *testing.T) {
	a := newTestAllocator(t)
	if err := a.ensureInitialized(); err != nil {
		t.Fatalf("init: %v", err)
	}

	const c = uint8(3)
	a.pushFreeSeg(c, 5)
	a.pushFreeSeg(c, 9)
	if idx, ok := a.popFreeSeg(c); !ok || idx != 9 {
		t.Fatalf("pop = (%d, %v), want (9, true)", idx, ok)
	}
	if idx, ok := a.popFreeSeg(c); !ok || idx != 5 {
		t.Fatalf("pop = (%d, %v), want (5, true)", idx, ok)
	}
}

func TestMetaLayout_ClassesDoNotOverlap(t *testing.T) {
	cfg := DefaultConfig()
	l := newMetaLayout(cfg)

	prevEnd := uint32(metaGlobalHeaderSize)
	for i, cl := range l.classes {
		if cl.miniPageCount < prevEnd {
			t.Fatalf("class %d starts at %d, before previous end %d", i, cl.miniPageCount, prevEnd)
		}
		if cl.end <= cl.miniPageCount {
			t.Fatalf("class %d has a non-positive-size region", i)
		}
		prevEnd = cl.end
	}
	if l.totalSize != prevEnd {
		t.Fatalf("totalSize = %d, want %d", l.totalSize, prevEnd)
	}
}
