package alligator

// Heap is the host-heap adapter: a contiguous, grow-only byte region plus
// the small read/write surface the allocator needs to manipulate headers and
// bitmaps without holding a raw pointer into it. Offsets are always relative
// to the heap's own base, never an absolute process address, so an
// implementation backed by a relocating Go slice (DevHeap) and one backed by
// real WebAssembly linear memory (WazeroHeap) behave identically from the
// allocator's point of view.
type Heap interface {
	// SizeBytes returns the current heap size in bytes.
	SizeBytes() uint32

	// Grow extends the heap by deltaPages pages (HostPageBytes each),
	// returning the heap size in bytes before the grow. Returns an error if
	// the host cannot satisfy the request.
	Grow(deltaPages uint32) (oldSizeBytes uint32, err error)

	// ReadU8, ReadU32 and friends read little-endian values at a byte
	// offset from base. WriteU8/WriteU32 write them. These are the only
	// primitives the allocator needs to manipulate MiniPageHeader and
	// BigAllocHeader fields and bitmaps.
	ReadU8(offset uint32) uint8
	ReadU16(offset uint32) uint16
	ReadU32(offset uint32) uint32
	WriteU8(offset uint32, v uint8)
	WriteU16(offset uint32, v uint16)
	WriteU32(offset uint32, v uint32)

	// ReadBytes and WriteBytes move raw spans, used for zeroing MetaPage and
	// (in realloc) copying a payload between regions.
	ReadBytes(offset uint32, length uint32) []byte
	WriteBytes(offset uint32, data []byte)
}
