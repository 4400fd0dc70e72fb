package alligator

import (
	"encoding/binary"
	"fmt"
)

// DevHeap is a Heap backed by a Go byte slice, growing (via reallocation) up
// to Config.MaxHostPages*HostPageBytes. It exists so the allocator can be
// developed and tested without spinning up a wazero runtime; NewDevHeap
// starts empty, mirroring a real WASM host that owns no linear memory until
// the first Grow.
type DevHeap struct {
	data []byte
	cfg  Config
}

// NewDevHeap returns an empty DevHeap governed by cfg.
func NewDevHeap(cfg Config) *DevHeap {
	return &DevHeap{cfg: cfg}
}

// SizeBytes returns the current size of the backing slice.
func (h *DevHeap) SizeBytes() uint32 {
	return uint32(len(h.data))
}

// Grow extends the backing slice by deltaPages, refusing to exceed
// cfg.MaxHostPages.
func (h *DevHeap) Grow(deltaPages uint32) (uint32, error) {
	old := uint32(len(h.data))
	curPages := old / h.cfg.HostPageBytes
	if curPages+deltaPages > h.cfg.MaxHostPages {
		return old, errDevHeapExhausted(curPages, deltaPages, h.cfg.MaxHostPages)
	}
	grown := make([]byte, old+deltaPages*h.cfg.HostPageBytes)
	copy(grown, h.data)
	h.data = grown
	return old, nil
}

func errDevHeapExhausted(curPages, deltaPages, maxPages uint32) error {
	return fmt.Errorf("dev heap capacity exceeded: %d+%d pages > max %d", curPages, deltaPages, maxPages)
}

func (h *DevHeap) ReadU8(offset uint32) uint8     { return h.data[offset] }
func (h *DevHeap) WriteU8(offset uint32, v uint8) { h.data[offset] = v }

func (h *DevHeap) ReadU16(offset uint32) uint16 {
	return binary.LittleEndian.Uint16(h.data[offset : offset+2])
}

func (h *DevHeap) WriteU16(offset uint32, v uint16) {
	binary.LittleEndian.PutUint16(h.data[offset:offset+2], v)
}

func (h *DevHeap) ReadU32(offset uint32) uint32 {
	return binary.LittleEndian.Uint32(h.data[offset : offset+4])
}

func (h *DevHeap) WriteU32(offset uint32, v uint32) {
	binary.LittleEndian.PutUint32(h.data[offset:offset+4], v)
}

func (h *DevHeap) ReadBytes(offset, length uint32) []byte {
	out := make([]byte, length)
	copy(out, h.data[offset:offset+length])
	return out
}

func (h *DevHeap) WriteBytes(offset uint32, data []byte) {
	copy(h.data[offset:], data)
}
